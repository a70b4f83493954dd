package routes

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/petalworks/bloomshop-backend/internal/catalog"
	"github.com/petalworks/bloomshop-backend/pkg/config"
	"github.com/petalworks/bloomshop-backend/pkg/db/models"
	pkgerrors "github.com/petalworks/bloomshop-backend/pkg/errors"
	"github.com/petalworks/bloomshop-backend/pkg/logger"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubCatalogService struct {
	products []models.Product
}

func (s stubCatalogService) ListActive(context.Context, string, int) ([]models.Product, error) {
	return s.products, nil
}

func (s stubCatalogService) GetActive(context.Context, uuid.UUID) (*models.Product, error) {
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
}

func (s stubCatalogService) ListAll(context.Context, string, string) ([]models.Product, error) {
	return s.products, nil
}

func (s stubCatalogService) Get(context.Context, uuid.UUID) (*models.Product, error) {
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
}

func (s stubCatalogService) Create(context.Context, catalog.CreateProductInput) (*models.Product, error) {
	return nil, pkgerrors.New(pkgerrors.CodeInternal, "not implemented")
}

func (s stubCatalogService) Update(context.Context, uuid.UUID, catalog.UpdateProductInput) (*models.Product, error) {
	return nil, pkgerrors.New(pkgerrors.CodeInternal, "not implemented")
}

func (s stubCatalogService) Delete(context.Context, uuid.UUID) error {
	return pkgerrors.New(pkgerrors.CodeInternal, "not implemented")
}

func testRouter() http.Handler {
	cfg := &config.Config{}
	cfg.App.Env = "test"
	cfg.JWT = config.JWTConfig{Secret: "secret", Issuer: "bloomshop", ExpirationMinutes: 60}
	cfg.Admin.Username = "admin"

	return NewRouter(Dependencies{
		Config:  cfg,
		Logger:  logger.New(logger.Options{ServiceName: "router-test", Output: io.Discard}),
		DB:      stubPinger{},
		Catalog: stubCatalogService{products: []models.Product{{ID: uuid.New(), Name: "Red Roses"}}},
	})
}

func TestRouterHealthLive(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	rec := httptest.NewRecorder()
	testRouter().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := rec.Header().Get("X-Bloomshop-Env"); got != "test" {
		t.Fatalf("unexpected env header %q", got)
	}
}

func TestRouterPublicProducts(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/products", nil)
	rec := httptest.NewRecorder()
	testRouter().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}

	var envelope struct {
		Data []models.Product `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(envelope.Data) != 1 || envelope.Data[0].Name != "Red Roses" {
		t.Fatalf("unexpected payload %+v", envelope.Data)
	}
}

func TestRouterAdminRequiresAuth(t *testing.T) {
	paths := []string{
		"/api/admin/v1/stats",
		"/api/admin/v1/products",
		"/api/admin/v1/orders",
	}
	for _, path := range paths {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		testRouter().ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401 for %s, got %d", path, rec.Code)
		}
	}
}

func TestRouterWebhookRequiresSignature(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/payments", nil)
	rec := httptest.NewRecorder()
	testRouter().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
