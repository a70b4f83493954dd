package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/petalworks/bloomshop-backend/api/controllers"
	webhookcontrollers "github.com/petalworks/bloomshop-backend/api/controllers/webhooks"
	"github.com/petalworks/bloomshop-backend/api/middleware"
	"github.com/petalworks/bloomshop-backend/internal/catalog"
	checkoutsvc "github.com/petalworks/bloomshop-backend/internal/checkout"
	"github.com/petalworks/bloomshop-backend/internal/inventory"
	"github.com/petalworks/bloomshop-backend/internal/orders"
	paymentwebhook "github.com/petalworks/bloomshop-backend/internal/webhooks/payments"
	"github.com/petalworks/bloomshop-backend/pkg/auth/session"
	"github.com/petalworks/bloomshop-backend/pkg/config"
	"github.com/petalworks/bloomshop-backend/pkg/db"
	"github.com/petalworks/bloomshop-backend/pkg/logger"
	"github.com/petalworks/bloomshop-backend/pkg/redis"
	"github.com/petalworks/bloomshop-backend/pkg/square"
)

// Dependencies carries everything the router wires into handlers.
type Dependencies struct {
	Config       *config.Config
	Logger       *logger.Logger
	DB           db.Pinger
	Redis        *redis.Client
	Sessions     *session.Manager
	Catalog      catalog.Service
	Checkout     checkoutsvc.Service
	Orders       orders.Service
	Inventory    inventory.Service
	Square       *square.Client
	Webhooks     *paymentwebhook.Service
	WebhookGuard *paymentwebhook.IdempotencyGuard
	Metrics      prometheus.Gatherer
}

func NewRouter(deps Dependencies) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, deps.DB, deps.Redis, logg))
	})

	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Metrics, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ListProducts(deps.Catalog, logg))
			r.Get("/{productID}", controllers.GetProduct(deps.Catalog, logg))
		})

		r.Post("/checkout", controllers.Checkout(deps.Checkout, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Get("/by-session", controllers.GetOrderBySession(deps.Orders, logg))
			r.Get("/{orderNumber}", controllers.GetOrderByNumber(deps.Orders, logg))
		})

		r.Post("/webhooks/payments", webhookcontrollers.PaymentWebhook(deps.Webhooks, deps.Square, deps.WebhookGuard, logg))
	})

	loginPolicy := middleware.NewLoginRateLimitPolicy(
		"admin-login",
		cfg.Admin.LoginWindow,
		cfg.Admin.LoginIPLimit,
	)

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.With(middleware.LoginRateLimit(loginPolicy, deps.Redis, logg)).
			Post("/auth/login", controllers.AdminLogin(cfg.JWT, cfg.Admin, deps.Sessions, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.AdminAuth(cfg.JWT, deps.Sessions, logg))

			r.Post("/auth/logout", controllers.AdminLogout(deps.Sessions, logg))
			r.Get("/auth/me", controllers.AdminMe(logg))

			r.Route("/products", func(r chi.Router) {
				r.Get("/", controllers.AdminListProducts(deps.Catalog, logg))
				r.Post("/", controllers.AdminCreateProduct(deps.Catalog, logg))
				r.Get("/{productID}", controllers.AdminGetProduct(deps.Catalog, logg))
				r.Patch("/{productID}", controllers.AdminUpdateProduct(deps.Catalog, logg))
				r.Delete("/{productID}", controllers.AdminDeleteProduct(deps.Catalog, logg))

				r.Post("/{productID}/stock", controllers.AdminAdjustStock(deps.Inventory, logg))
				r.Get("/{productID}/stock/history", controllers.AdminStockHistory(deps.Inventory, logg))
			})

			r.Get("/inventory/low-stock", controllers.AdminLowStock(deps.Inventory, logg))

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", controllers.AdminListOrders(deps.Orders, logg))
				r.Get("/{orderID}", controllers.AdminGetOrder(deps.Orders, logg))
				r.Patch("/{orderID}/status", controllers.AdminUpdateOrderStatus(deps.Orders, logg))
			})

			r.Get("/stats", controllers.AdminStats(deps.Orders, logg))
		})
	})

	return r
}
