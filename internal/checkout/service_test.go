package checkout

import (
	"context"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/petalworks/bloomshop-backend/internal/orders"
	"github.com/petalworks/bloomshop-backend/pkg/db/models"
	"github.com/petalworks/bloomshop-backend/pkg/enums"
	pkgerrors "github.com/petalworks/bloomshop-backend/pkg/errors"
	"github.com/petalworks/bloomshop-backend/pkg/logger"
	"github.com/petalworks/bloomshop-backend/pkg/square"
)

type stubCatalog struct {
	products map[uuid.UUID]*models.Product
}

func (s *stubCatalog) Get(_ context.Context, id uuid.UUID) (*models.Product, error) {
	product, ok := s.products[id]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return product, nil
}

type stubOrders struct {
	created     *orders.CreateOrderInput
	order       *models.Order
	sessionSets []string
	setErr      error
}

func (s *stubOrders) Create(_ context.Context, input orders.CreateOrderInput) (*models.Order, error) {
	s.created = &input
	order := &models.Order{
		ID:            uuid.New(),
		OrderNumber:   "ORD-20260829-0042",
		BuyerName:     input.BuyerName,
		TotalAmount:   input.TotalAmount,
		Status:        enums.OrderStatusPending,
		PaymentStatus: enums.PaymentStatusPending,
	}
	s.order = order
	return order, nil
}

func (s *stubOrders) SetPaymentSession(_ context.Context, _ uuid.UUID, sessionID string) error {
	if s.setErr != nil {
		return s.setErr
	}
	s.sessionSets = append(s.sessionSets, sessionID)
	return nil
}

type stubSessions struct {
	params  *square.PaymentSessionParams
	session *square.PaymentSession
	err     error
}

func (s *stubSessions) CreatePaymentSession(_ context.Context, params square.PaymentSessionParams) (*square.PaymentSession, error) {
	s.params = &params
	if s.err != nil {
		return nil, s.err
	}
	return s.session, nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "checkout-test", Output: io.Discard})
}

func activeProduct(name string, price string, stock int) *models.Product {
	return &models.Product{
		ID:            uuid.New(),
		Name:          name,
		Price:         decimal.RequireFromString(price),
		StockQuantity: stock,
		IsActive:      true,
	}
}

func newFixture(t *testing.T, catalog *stubCatalog, orderSvc *stubOrders, sessions *stubSessions) Service {
	t.Helper()
	svc, err := NewService(catalog, orderSvc, sessions, nil, testLogger(), Options{
		BaseURL:     "https://shop.example.com",
		SuccessPath: "/order/success",
	})
	require.NoError(t, err)
	return svc
}

func TestCheckoutHappyPath(t *testing.T) {
	roses := activeProduct("Red Roses", "25.50", 10)
	lilies := activeProduct("White Lilies", "12.00", 4)
	catalog := &stubCatalog{products: map[uuid.UUID]*models.Product{
		roses.ID:  roses,
		lilies.ID: lilies,
	}}
	orderSvc := &stubOrders{}
	sessions := &stubSessions{session: &square.PaymentSession{
		SessionID: "link_123",
		URL:       "https://square.link/abc",
	}}
	svc := newFixture(t, catalog, orderSvc, sessions)

	result, err := svc.Checkout(context.Background(), CheckoutInput{
		BuyerName:    "Dana",
		BuyerEmail:   "dana@example.com",
		DeliveryType: enums.DeliveryTypeDelivery,
		Items: []CheckoutItemInput{
			{ProductID: roses.ID, Quantity: 2},
			{ProductID: lilies.ID, Quantity: 1},
		},
	})
	require.NoError(t, err)
	require.Equal(t, "link_123", result.SessionID)
	require.Equal(t, "https://square.link/abc", result.PaymentURL)

	require.NotNil(t, orderSvc.created)
	require.True(t, orderSvc.created.TotalAmount.Equal(decimal.RequireFromString("63.00")),
		"expected total 63.00, got %s", orderSvc.created.TotalAmount)
	require.Len(t, orderSvc.created.Items, 2)
	require.True(t, orderSvc.created.Items[0].Price.Equal(roses.Price))

	require.NotNil(t, sessions.params)
	require.Equal(t, "ORD-20260829-0042", sessions.params.OrderNumber)
	require.Equal(t, "dana@example.com", sessions.params.BuyerEmail)
	require.Equal(t, "https://shop.example.com/order/success?order=ORD-20260829-0042", sessions.params.RedirectURL)
	require.Len(t, sessions.params.LineItems, 2)
	require.Equal(t, int64(2550), sessions.params.LineItems[0].AmountCents)

	require.Equal(t, []string{"link_123"}, orderSvc.sessionSets)
	require.NotNil(t, result.Order.PaymentSessionID)
	require.Equal(t, "link_123", *result.Order.PaymentSessionID)
}

func TestCheckoutEmptyCart(t *testing.T) {
	svc := newFixture(t, &stubCatalog{}, &stubOrders{}, &stubSessions{})

	_, err := svc.Checkout(context.Background(), CheckoutInput{})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestCheckoutUnknownProduct(t *testing.T) {
	orderSvc := &stubOrders{}
	svc := newFixture(t, &stubCatalog{products: map[uuid.UUID]*models.Product{}}, orderSvc, &stubSessions{})

	_, err := svc.Checkout(context.Background(), CheckoutInput{
		Items: []CheckoutItemInput{{ProductID: uuid.New(), Quantity: 1}},
	})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeNotFound, typed.Code())
	require.Nil(t, orderSvc.created, "no order should be created for an unknown product")
}

func TestCheckoutInactiveProduct(t *testing.T) {
	retired := activeProduct("Retired Bouquet", "30.00", 8)
	retired.IsActive = false
	catalog := &stubCatalog{products: map[uuid.UUID]*models.Product{retired.ID: retired}}
	svc := newFixture(t, catalog, &stubOrders{}, &stubSessions{})

	_, err := svc.Checkout(context.Background(), CheckoutInput{
		Items: []CheckoutItemInput{{ProductID: retired.ID, Quantity: 1}},
	})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeConflict, typed.Code())
	require.Contains(t, typed.Error(), "no longer available")
}

func TestCheckoutInsufficientStock(t *testing.T) {
	roses := activeProduct("Red Roses", "25.50", 1)
	catalog := &stubCatalog{products: map[uuid.UUID]*models.Product{roses.ID: roses}}
	orderSvc := &stubOrders{}
	svc := newFixture(t, catalog, orderSvc, &stubSessions{})

	_, err := svc.Checkout(context.Background(), CheckoutInput{
		Items: []CheckoutItemInput{{ProductID: roses.ID, Quantity: 3}},
	})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeConflict, typed.Code())
	details, ok := typed.Details().(map[string]any)
	require.True(t, ok)
	require.Equal(t, 1, details["available"])
	require.Nil(t, orderSvc.created)
}

func TestCheckoutZeroQuantityRejected(t *testing.T) {
	roses := activeProduct("Red Roses", "25.50", 5)
	catalog := &stubCatalog{products: map[uuid.UUID]*models.Product{roses.ID: roses}}
	svc := newFixture(t, catalog, &stubOrders{}, &stubSessions{})

	_, err := svc.Checkout(context.Background(), CheckoutInput{
		Items: []CheckoutItemInput{{ProductID: roses.ID, Quantity: 0}},
	})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestCheckoutSessionFailureKeepsOrderPending(t *testing.T) {
	roses := activeProduct("Red Roses", "25.50", 5)
	catalog := &stubCatalog{products: map[uuid.UUID]*models.Product{roses.ID: roses}}
	orderSvc := &stubOrders{}
	sessions := &stubSessions{err: pkgerrors.New(pkgerrors.CodeDependency, "payment provider unavailable")}
	svc := newFixture(t, catalog, orderSvc, sessions)

	_, err := svc.Checkout(context.Background(), CheckoutInput{
		Items: []CheckoutItemInput{{ProductID: roses.ID, Quantity: 1}},
	})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeDependency, typed.Code())

	// The order row was created before the session attempt and is kept.
	require.NotNil(t, orderSvc.created)
	require.Empty(t, orderSvc.sessionSets)
}

func TestCheckoutSessionBackwriteFailureIsNonFatal(t *testing.T) {
	roses := activeProduct("Red Roses", "25.50", 5)
	catalog := &stubCatalog{products: map[uuid.UUID]*models.Product{roses.ID: roses}}
	orderSvc := &stubOrders{setErr: pkgerrors.New(pkgerrors.CodeInternal, "write failed")}
	sessions := &stubSessions{session: &square.PaymentSession{SessionID: "link_999", URL: "https://square.link/xyz"}}
	svc := newFixture(t, catalog, orderSvc, sessions)

	result, err := svc.Checkout(context.Background(), CheckoutInput{
		Items: []CheckoutItemInput{{ProductID: roses.ID, Quantity: 1}},
	})
	require.NoError(t, err)
	require.Equal(t, "link_999", result.SessionID)
	require.Nil(t, result.Order.PaymentSessionID)
}

func TestToCents(t *testing.T) {
	require.Equal(t, int64(2550), toCents(decimal.RequireFromString("25.50")))
	require.Equal(t, int64(1200), toCents(decimal.RequireFromString("12")))
	require.Equal(t, int64(999), toCents(decimal.RequireFromString("9.99")))
}
