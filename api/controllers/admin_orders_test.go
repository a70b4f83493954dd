package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	internalorders "github.com/petalworks/bloomshop-backend/internal/orders"
	"github.com/petalworks/bloomshop-backend/pkg/db/models"
	"github.com/petalworks/bloomshop-backend/pkg/enums"
	pkgerrors "github.com/petalworks/bloomshop-backend/pkg/errors"
	"github.com/petalworks/bloomshop-backend/pkg/pagination"
)

type stubOrderService struct {
	listFn         func(ctx context.Context, params pagination.Params, filters internalorders.ListFilters) (*internalorders.List, error)
	detailFn       func(ctx context.Context, orderID uuid.UUID) (*internalorders.Detail, error)
	updateStatusFn func(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus) (*models.Order, error)
	statsFn        func(ctx context.Context) (*internalorders.DashboardStats, error)
}

func (s stubOrderService) Create(context.Context, internalorders.CreateOrderInput) (*models.Order, error) {
	return nil, pkgerrors.New(pkgerrors.CodeInternal, "not implemented")
}

func (s stubOrderService) GetByNumber(context.Context, string) (*models.Order, error) {
	return nil, pkgerrors.New(pkgerrors.CodeInternal, "not implemented")
}

func (s stubOrderService) GetBySessionID(context.Context, string) (*models.Order, error) {
	return nil, pkgerrors.New(pkgerrors.CodeInternal, "not implemented")
}

func (s stubOrderService) SetPaymentSession(context.Context, uuid.UUID, string) error {
	return pkgerrors.New(pkgerrors.CodeInternal, "not implemented")
}

func (s stubOrderService) MarkPaid(context.Context, internalorders.MarkPaidInput) (bool, error) {
	return false, pkgerrors.New(pkgerrors.CodeInternal, "not implemented")
}

func (s stubOrderService) MarkPaymentFailed(context.Context, uuid.UUID) error {
	return pkgerrors.New(pkgerrors.CodeInternal, "not implemented")
}

func (s stubOrderService) UpdateStatus(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus) (*models.Order, error) {
	if s.updateStatusFn != nil {
		return s.updateStatusFn(ctx, orderID, status)
	}
	return nil, pkgerrors.New(pkgerrors.CodeInternal, "not implemented")
}

func (s stubOrderService) List(ctx context.Context, params pagination.Params, filters internalorders.ListFilters) (*internalorders.List, error) {
	if s.listFn != nil {
		return s.listFn(ctx, params, filters)
	}
	return &internalorders.List{}, nil
}

func (s stubOrderService) GetDetail(ctx context.Context, orderID uuid.UUID) (*internalorders.Detail, error) {
	if s.detailFn != nil {
		return s.detailFn(ctx, orderID)
	}
	return nil, pkgerrors.New(pkgerrors.CodeInternal, "not implemented")
}

func (s stubOrderService) Stats(ctx context.Context) (*internalorders.DashboardStats, error) {
	if s.statsFn != nil {
		return s.statsFn(ctx)
	}
	return nil, pkgerrors.New(pkgerrors.CodeInternal, "not implemented")
}

func TestAdminListOrdersAppliesFilters(t *testing.T) {
	orderID := uuid.New()
	svc := stubOrderService{
		listFn: func(_ context.Context, params pagination.Params, filters internalorders.ListFilters) (*internalorders.List, error) {
			if params.Limit != 10 {
				t.Fatalf("unexpected limit %d", params.Limit)
			}
			if filters.Status == nil || *filters.Status != enums.OrderStatusPending {
				t.Fatalf("expected pending status filter, got %v", filters.Status)
			}
			if filters.PaymentStatus == nil || *filters.PaymentStatus != enums.PaymentStatusPaid {
				t.Fatalf("expected paid payment filter, got %v", filters.PaymentStatus)
			}
			return &internalorders.List{Orders: []models.Order{{ID: orderID, OrderNumber: "ORD-20260829-0001"}}}, nil
		},
	}

	handler := AdminListOrders(svc, nil)
	req := httptest.NewRequest(http.MethodGet, "/?limit=10&status=pending&payment_status=paid", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}

	var envelope struct {
		Data internalorders.List `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(envelope.Data.Orders) != 1 || envelope.Data.Orders[0].ID != orderID {
		t.Fatalf("unexpected payload %+v", envelope.Data)
	}
}

func TestAdminListOrdersRejectsInvalidStatus(t *testing.T) {
	handler := AdminListOrders(stubOrderService{}, nil)
	req := httptest.NewRequest(http.MethodGet, "/?status=bogus", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestAdminGetOrderDetail(t *testing.T) {
	orderID := uuid.New()
	svc := stubOrderService{
		detailFn: func(_ context.Context, id uuid.UUID) (*internalorders.Detail, error) {
			if id != orderID {
				t.Fatalf("unexpected order id %s", id)
			}
			return &internalorders.Detail{
				Order: models.Order{ID: orderID, OrderNumber: "ORD-20260829-0002"},
				Items: []internalorders.ItemDetail{{ProductName: "Red Roses"}},
			}, nil
		},
	}

	router := chi.NewRouter()
	router.Get("/orders/{orderID}", AdminGetOrder(svc, nil))

	req := httptest.NewRequest(http.MethodGet, "/orders/"+orderID.String(), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
}

func TestAdminUpdateOrderStatus(t *testing.T) {
	orderID := uuid.New()
	svc := stubOrderService{
		updateStatusFn: func(_ context.Context, id uuid.UUID, status enums.OrderStatus) (*models.Order, error) {
			if id != orderID {
				t.Fatalf("unexpected order id %s", id)
			}
			if status != enums.OrderStatusShipped {
				t.Fatalf("unexpected status %s", status)
			}
			return &models.Order{ID: orderID, Status: status}, nil
		},
	}

	router := chi.NewRouter()
	router.Patch("/orders/{orderID}/status", AdminUpdateOrderStatus(svc, nil))

	req := httptest.NewRequest(http.MethodPatch, "/orders/"+orderID.String()+"/status", strings.NewReader(`{"status": "shipped"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
}

func TestAdminUpdateOrderStatusRejectsUnknownValue(t *testing.T) {
	router := chi.NewRouter()
	router.Patch("/orders/{orderID}/status", AdminUpdateOrderStatus(stubOrderService{}, nil))

	req := httptest.NewRequest(http.MethodPatch, "/orders/"+uuid.NewString()+"/status", strings.NewReader(`{"status": "teleported"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
