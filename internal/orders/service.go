package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/petalworks/bloomshop-backend/internal/inventory"
	"github.com/petalworks/bloomshop-backend/internal/ordernum"
	"github.com/petalworks/bloomshop-backend/pkg/db"
	"github.com/petalworks/bloomshop-backend/pkg/db/models"
	"github.com/petalworks/bloomshop-backend/pkg/enums"
	pkgerrors "github.com/petalworks/bloomshop-backend/pkg/errors"
	"github.com/petalworks/bloomshop-backend/pkg/logger"
	"github.com/petalworks/bloomshop-backend/pkg/pagination"
)

const orderNumberAttempts = 3

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type stockAdjuster interface {
	WithTx(tx *gorm.DB) inventory.Service
	Adjust(ctx context.Context, input inventory.AdjustInput) (*inventory.AdjustResult, error)
	LowStock(ctx context.Context) ([]models.Product, error)
}

// Service defines order lifecycle operations.
type Service interface {
	Create(ctx context.Context, input CreateOrderInput) (*models.Order, error)
	GetByNumber(ctx context.Context, orderNumber string) (*models.Order, error)
	GetBySessionID(ctx context.Context, sessionID string) (*models.Order, error)
	SetPaymentSession(ctx context.Context, orderID uuid.UUID, sessionID string) error
	MarkPaid(ctx context.Context, input MarkPaidInput) (alreadyPaid bool, err error)
	MarkPaymentFailed(ctx context.Context, orderID uuid.UUID) error
	UpdateStatus(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus) (*models.Order, error)
	List(ctx context.Context, params pagination.Params, filters ListFilters) (*List, error)
	GetDetail(ctx context.Context, orderID uuid.UUID) (*Detail, error)
	Stats(ctx context.Context) (*DashboardStats, error)
}

type service struct {
	repo    Repository
	tx      txRunner
	stock   stockAdjuster
	numbers *ordernum.Generator
	logg    *logger.Logger
}

// NewService builds an order service with the required dependencies.
func NewService(repo Repository, tx txRunner, stock stockAdjuster, numbers *ordernum.Generator, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if stock == nil {
		return nil, fmt.Errorf("stock adjuster required")
	}
	if numbers == nil {
		numbers = ordernum.New()
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, tx: tx, stock: stock, numbers: numbers, logg: logg}, nil
}

// Create persists the order row first and the items second, without a
// wrapping transaction. A failed item insert triggers a compensating delete
// of the order row; if that delete also fails the orphan is loudly logged
// so it can be repaired by hand.
func (s *service) Create(ctx context.Context, input CreateOrderInput) (*models.Order, error) {
	if err := validateCreateInput(input); err != nil {
		return nil, err
	}

	order, err := s.createOrderRow(ctx, input)
	if err != nil {
		return nil, err
	}

	items := make([]models.OrderItem, 0, len(input.Items))
	for _, item := range input.Items {
		items = append(items, models.OrderItem{
			OrderID:   order.ID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     item.Price,
		})
	}

	if err := s.repo.CreateOrderItems(ctx, items); err != nil {
		if delErr := s.repo.DeleteOrder(ctx, order.ID); delErr != nil {
			ctx := s.logg.WithFields(ctx, map[string]any{
				"order_id":     order.ID,
				"order_number": order.OrderNumber,
			})
			s.logg.Error(ctx, "orphaned order row: item insert and compensating delete both failed", delErr)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating order items")
	}

	order.Items = items
	return order, nil
}

// createOrderRow retries with a fresh order number when the unique index
// rejects a same-day collision.
func (s *service) createOrderRow(ctx context.Context, input CreateOrderInput) (*models.Order, error) {
	var created *models.Order

	backoff := retry.WithMaxRetries(orderNumberAttempts-1, retry.NewConstant(time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		order := &models.Order{
			OrderNumber:      s.numbers.Next(),
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
			TotalAmount:      input.TotalAmount,
			Status:           enums.OrderStatusPending,
			PaymentStatus:    enums.PaymentStatusPending,
		}
		row, err := s.repo.CreateOrder(ctx, order)
		if err != nil {
			if db.IsUniqueViolation(err, "idx_orders_order_number") {
				return retry.RetryableError(err)
			}
			return err
		}
		created = row
		return nil
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating order")
	}
	return created, nil
}

func (s *service) GetByNumber(ctx context.Context, orderNumber string) (*models.Order, error) {
	trimmed := strings.TrimSpace(orderNumber)
	if !ordernum.IsValid(trimmed) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order number format")
	}
	order, err := s.repo.FindByOrderNumber(ctx, trimmed)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading order")
	}
	return order, nil
}

func (s *service) GetBySessionID(ctx context.Context, sessionID string) (*models.Order, error) {
	trimmed := strings.TrimSpace(sessionID)
	if trimmed == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}
	order, err := s.repo.FindByPaymentSessionID(ctx, trimmed)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading order")
	}
	return order, nil
}

func (s *service) SetPaymentSession(ctx context.Context, orderID uuid.UUID, sessionID string) error {
	if orderID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	if strings.TrimSpace(sessionID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}
	if err := s.repo.UpdateOrder(ctx, orderID, map[string]any{"payment_session_id": sessionID}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "recording payment session id")
	}
	return nil
}

// MarkPaid transitions the order to confirmed/paid and decrements stock for
// each line item, exactly once. The payment_status column is the
// authoritative idempotency check: a second delivery of the same completion
// event sees paid and returns without touching inventory.
func (s *service) MarkPaid(ctx context.Context, input MarkPaidInput) (bool, error) {
	if input.OrderID == uuid.Nil {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}

	order, err := s.repo.FindByID(ctx, input.OrderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading order")
	}

	if order.PaymentStatus == enums.PaymentStatusPaid {
		return true, nil
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		updates := map[string]any{
			"status":         enums.OrderStatusConfirmed,
			"payment_status": enums.PaymentStatusPaid,
		}
		if trimmed := strings.TrimSpace(input.PaymentID); trimmed != "" {
			updates["payment_id"] = trimmed
		}
		if trimmed := strings.TrimSpace(input.SessionID); trimmed != "" {
			updates["payment_session_id"] = trimmed
		}
		if trimmed := strings.TrimSpace(input.PaymentMethod); trimmed != "" {
			updates["payment_method"] = trimmed
		}
		if err := repo.UpdateOrder(ctx, order.ID, updates); err != nil {
			return err
		}

		stock := s.stock.WithTx(tx)
		for _, item := range order.Items {
			notes := fmt.Sprintf("order %s", order.OrderNumber)
			if _, err := stock.Adjust(ctx, inventory.AdjustInput{
				ProductID:      item.ProductID,
				QuantityChange: -item.Quantity,
				Reason:         enums.StockReasonSale,
				Notes:          &notes,
				Clamp:          true,
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return false, typed
		}
		return false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marking order paid")
	}
	return false, nil
}

func (s *service) MarkPaymentFailed(ctx context.Context, orderID uuid.UUID) error {
	if orderID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading order")
	}
	if order.PaymentStatus == enums.PaymentStatusPaid {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "order is already paid")
	}
	if err := s.repo.UpdateOrder(ctx, orderID, map[string]any{"payment_status": enums.PaymentStatusFailed}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marking payment failed")
	}
	return nil
}

// UpdateStatus applies an admin status change. Cancelling a paid order puts
// the sold stock back through the ledger so the audit trail shows the
// return.
func (s *service) UpdateStatus(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus) (*models.Order, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid order status %q", status))
	}

	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading order")
	}

	if order.Status == status {
		return order, nil
	}
	if order.Status == enums.OrderStatusCancelled {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "cancelled orders cannot change status")
	}

	restock := status == enums.OrderStatusCancelled && order.PaymentStatus == enums.PaymentStatusPaid

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.UpdateOrder(ctx, orderID, map[string]any{"status": status}); err != nil {
			return err
		}
		if !restock {
			return nil
		}
		stock := s.stock.WithTx(tx)
		for _, item := range order.Items {
			notes := fmt.Sprintf("cancelled order %s", order.OrderNumber)
			if _, err := stock.Adjust(ctx, inventory.AdjustInput{
				ProductID:      item.ProductID,
				QuantityChange: item.Quantity,
				Reason:         enums.StockReasonReturn,
				Notes:          &notes,
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return nil, typed
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating order status")
	}

	return s.repo.FindByID(ctx, orderID)
}

func (s *service) List(ctx context.Context, params pagination.Params, filters ListFilters) (*List, error) {
	list, err := s.repo.List(ctx, params, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing orders")
	}
	return list, nil
}

func (s *service) GetDetail(ctx context.Context, orderID uuid.UUID) (*Detail, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading order")
	}
	items, err := s.repo.ListItemDetails(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading order items")
	}
	return &Detail{Order: *order, Items: items}, nil
}

// Stats aggregates the admin dashboard numbers in one call.
func (s *service) Stats(ctx context.Context) (*DashboardStats, error) {
	revenueRaw, err := s.repo.SumPaidRevenue(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "summing revenue")
	}
	revenue, err := parseDecimal(revenueRaw)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "parsing revenue")
	}

	totalOrders, err := s.repo.CountOrders(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "counting orders")
	}
	pending, err := s.repo.CountByStatus(ctx, enums.OrderStatusPending)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "counting pending orders")
	}

	lowStock, err := s.stock.LowStock(ctx)
	if err != nil {
		return nil, err
	}

	recent, err := s.repo.RecentOrders(ctx, 5)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading recent orders")
	}
	top, err := s.repo.TopProducts(ctx, 5)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading top products")
	}

	now := time.Now().UTC()
	since := now.AddDate(0, 0, -6).Truncate(24 * time.Hour)
	byDay, err := s.repo.RevenueByDay(ctx, since)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading daily revenue")
	}

	return &DashboardStats{
		TotalRevenue:     revenue,
		TotalOrders:      totalOrders,
		PendingOrders:    pending,
		LowStockProducts: int64(len(lowStock)),
		RecentOrders:     recent,
		TopProducts:      top,
		RevenueByDay:     byDay,
		GeneratedAt:      now,
	}, nil
}

func validateCreateInput(input CreateOrderInput) error {
	if len(input.Items) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "order requires at least one item")
	}
	if strings.TrimSpace(input.BuyerName) == "" || strings.TrimSpace(input.BuyerEmail) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "buyer name and email are required")
	}
	if strings.TrimSpace(input.RecipientName) == "" || strings.TrimSpace(input.RecipientAddress) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "recipient name and address are required")
	}
	if !input.DeliveryType.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid delivery type %q", input.DeliveryType))
	}
	if input.TotalAmount.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "total amount cannot be negative")
	}
	for _, item := range input.Items {
		if item.ProductID == uuid.Nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "item product id is required")
		}
		if item.Quantity <= 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "item quantity must be positive")
		}
		if item.Price.IsNegative() {
			return pkgerrors.New(pkgerrors.CodeValidation, "item price cannot be negative")
		}
	}
	return nil
}

func parseDecimal(raw string) (decimal.Decimal, error) {
	if strings.TrimSpace(raw) == "" {
		return decimal.Zero, nil
	}
	value, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parsing decimal %q: %w", raw, err)
	}
	return value, nil
}
