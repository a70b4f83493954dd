package checkout

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/petalworks/bloomshop-backend/internal/orders"
	"github.com/petalworks/bloomshop-backend/pkg/db/models"
	"github.com/petalworks/bloomshop-backend/pkg/enums"
	pkgerrors "github.com/petalworks/bloomshop-backend/pkg/errors"
	"github.com/petalworks/bloomshop-backend/pkg/logger"
	"github.com/petalworks/bloomshop-backend/pkg/metrics"
	"github.com/petalworks/bloomshop-backend/pkg/square"
)

type catalogReader interface {
	Get(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

type orderWriter interface {
	Create(ctx context.Context, input orders.CreateOrderInput) (*models.Order, error)
	SetPaymentSession(ctx context.Context, orderID uuid.UUID, sessionID string) error
}

// CheckoutItemInput is one cart row as submitted by the storefront.
type CheckoutItemInput struct {
	ProductID uuid.UUID
	Quantity  int
}

// CheckoutInput is the full cart submission.
type CheckoutInput struct {
	BuyerName  string
	BuyerPhone string
	BuyerEmail string

	RecipientName    string
	RecipientPhone   string
	RecipientAddress string

	DeliveryType enums.DeliveryType
	DeliveryDate *string
	DeliveryTime *string
	MessageCard  *string

	Items []CheckoutItemInput
}

// CheckoutResult carries everything the storefront needs to hand the buyer
// to the hosted payment page.
type CheckoutResult struct {
	Order      *models.Order
	SessionID  string
	PaymentURL string
}

// Service validates the cart, persists the order aggregate, and opens the
// hosted payment session.
type Service interface {
	Checkout(ctx context.Context, input CheckoutInput) (*CheckoutResult, error)
}

// Options carries the redirect configuration for hosted sessions.
type Options struct {
	BaseURL     string
	SuccessPath string
}

type service struct {
	catalog  catalogReader
	orders   orderWriter
	sessions square.SessionCreator
	metrics  *metrics.CheckoutMetrics
	logg     *logger.Logger
	opts     Options
}

// NewService builds a checkout orchestrator.
func NewService(catalog catalogReader, orderSvc orderWriter, sessions square.SessionCreator, m *metrics.CheckoutMetrics, logg *logger.Logger, opts Options) (Service, error) {
	if catalog == nil {
		return nil, fmt.Errorf("catalog reader required")
	}
	if orderSvc == nil {
		return nil, fmt.Errorf("order writer required")
	}
	if sessions == nil {
		return nil, fmt.Errorf("payment session creator required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		catalog:  catalog,
		orders:   orderSvc,
		sessions: sessions,
		metrics:  m,
		logg:     logg,
		opts:     opts,
	}, nil
}

func (s *service) Checkout(ctx context.Context, input CheckoutInput) (*CheckoutResult, error) {
	started := time.Now()
	result, err := s.checkout(ctx, input)
	s.metrics.ObserveCheckout(outcomeLabel(err), time.Since(started))
	return result, err
}

func (s *service) checkout(ctx context.Context, input CheckoutInput) (*CheckoutResult, error) {
	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}

	// Validate every line against the live catalog and capture unit prices.
	// Stock is only checked here, never decremented; the decrement happens
	// when the payment completes.
	lineItems := make([]orders.CreateOrderItemInput, 0, len(input.Items))
	sessionItems := make([]square.PaymentSessionLineItem, 0, len(input.Items))
	total := decimal.Zero

	for _, item := range input.Items {
		if item.Quantity <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "item quantity must be positive")
		}
		product, err := s.catalog.Get(ctx, item.ProductID)
		if err != nil {
			return nil, err
		}
		if !product.IsActive {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "product is no longer available").
				WithDetails(map[string]any{"product_id": product.ID, "name": product.Name})
		}
		if product.StockQuantity < item.Quantity {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "insufficient stock").
				WithDetails(map[string]any{
					"product_id": product.ID,
					"name":       product.Name,
					"available":  product.StockQuantity,
					"requested":  item.Quantity,
				})
		}

		lineItems = append(lineItems, orders.CreateOrderItemInput{
			ProductID: product.ID,
			Quantity:  item.Quantity,
			Price:     product.Price,
		})
		sessionItems = append(sessionItems, square.PaymentSessionLineItem{
			Name:        product.Name,
			Quantity:    item.Quantity,
			AmountCents: toCents(product.Price),
			Currency:    "USD",
		})
		total = total.Add(product.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}

	order, err := s.orders.Create(ctx, orders.CreateOrderInput{
		BuyerName:        input.BuyerName,
		BuyerPhone:       input.BuyerPhone,
		BuyerEmail:       input.BuyerEmail,
		RecipientName:    input.RecipientName,
		RecipientPhone:   input.RecipientPhone,
		RecipientAddress: input.RecipientAddress,
		DeliveryType:     input.DeliveryType,
		DeliveryDate:     input.DeliveryDate,
		DeliveryTime:     input.DeliveryTime,
		MessageCard:      input.MessageCard,
		TotalAmount:      total,
		Items:            lineItems,
	})
	if err != nil {
		return nil, err
	}

	session, err := s.sessions.CreatePaymentSession(ctx, square.PaymentSessionParams{
		OrderNumber: order.OrderNumber,
		BuyerEmail:  input.BuyerEmail,
		RedirectURL: s.successURL(order.OrderNumber),
		LineItems:   sessionItems,
	})
	if err != nil {
		// The order stays pending so support can recover it; the buyer
		// sees a retryable dependency failure.
		ctx := s.logg.WithOrderID(ctx, order.ID.String())
		s.logg.Error(ctx, "payment session creation failed for pending order", err)
		return nil, err
	}

	// Best-effort backwrite: the webhook can still locate the order by its
	// reference number if this write is lost.
	if err := s.orders.SetPaymentSession(ctx, order.ID, session.SessionID); err != nil {
		ctx := s.logg.WithOrderID(ctx, order.ID.String())
		s.logg.Warn(s.logg.WithField(ctx, "session_id", session.SessionID), "failed to record payment session id on order")
	} else {
		sessionID := session.SessionID
		order.PaymentSessionID = &sessionID
	}

	return &CheckoutResult{
		Order:      order,
		SessionID:  session.SessionID,
		PaymentURL: session.URL,
	}, nil
}

func (s *service) successURL(orderNumber string) string {
	base := strings.TrimRight(s.opts.BaseURL, "/")
	path := s.opts.SuccessPath
	if path == "" {
		path = "/order/success"
	}
	return fmt.Sprintf("%s%s?order=%s", base, path, url.QueryEscape(orderNumber))
}

func outcomeLabel(err error) string {
	if err == nil {
		return "success"
	}
	if typed := pkgerrors.As(err); typed != nil {
		switch typed.Code() {
		case pkgerrors.CodeValidation:
			return "validation_failed"
		case pkgerrors.CodeNotFound:
			return "product_not_found"
		case pkgerrors.CodeConflict:
			return "insufficient_stock"
		case pkgerrors.CodeDependency:
			return "payment_session_failed"
		}
	}
	return "error"
}

func toCents(price decimal.Decimal) int64 {
	return price.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}
