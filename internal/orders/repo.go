package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/petalworks/bloomshop-backend/pkg/db/models"
	"github.com/petalworks/bloomshop-backend/pkg/enums"
	"github.com/petalworks/bloomshop-backend/pkg/pagination"
)

// Repository defines persistence operations for orders and their items.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error)
	CreateOrderItems(ctx context.Context, items []models.OrderItem) error
	DeleteOrder(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindByOrderNumber(ctx context.Context, orderNumber string) (*models.Order, error)
	FindByPaymentSessionID(ctx context.Context, sessionID string) (*models.Order, error)
	ListItemDetails(ctx context.Context, orderID uuid.UUID) ([]ItemDetail, error)
	UpdateOrder(ctx context.Context, id uuid.UUID, updates map[string]any) error
	List(ctx context.Context, params pagination.Params, filters ListFilters) (*List, error)

	SumPaidRevenue(ctx context.Context) (decimalString string, err error)
	CountOrders(ctx context.Context) (int64, error)
	CountByStatus(ctx context.Context, status enums.OrderStatus) (int64, error)
	RecentOrders(ctx context.Context, limit int) ([]models.Order, error)
	TopProducts(ctx context.Context, limit int) ([]TopProduct, error)
	RevenueByDay(ctx context.Context, since time.Time) ([]DailyRevenue, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error) {
	if err := r.db.WithContext(ctx).Omit("Items").Create(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

func (r *repository) CreateOrderItems(ctx context.Context, items []models.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&items).Error
}

func (r *repository) DeleteOrder(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&models.Order{}).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) FindByOrderNumber(ctx context.Context, orderNumber string) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("order_number = ?", orderNumber).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) FindByPaymentSessionID(ctx context.Context, sessionID string) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("payment_session_id = ?", sessionID).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) ListItemDetails(ctx context.Context, orderID uuid.UUID) ([]ItemDetail, error) {
	var details []ItemDetail
	err := r.db.WithContext(ctx).
		Table("order_items").
		Select("order_items.*, products.name AS product_name, products.image_url AS product_image_url").
		Joins("JOIN products ON products.id = order_items.product_id").
		Where("order_items.order_id = ?", orderID).
		Order("order_items.created_at ASC").
		Scan(&details).Error
	if err != nil {
		return nil, err
	}
	return details, nil
}

func (r *repository) UpdateOrder(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *repository) List(ctx context.Context, params pagination.Params, filters ListFilters) (*List, error) {
	limit := pagination.NormalizeLimit(params.Limit)

	q := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Order("created_at DESC, id DESC").
		Limit(limit + 1)

	if filters.Status != nil {
		q = q.Where("status = ?", *filters.Status)
	}
	if filters.PaymentStatus != nil {
		q = q.Where("payment_status = ?", *filters.PaymentStatus)
	}

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}
	if cursor != nil {
		q = q.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var rows []models.Order
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}

	list := &List{Orders: rows}
	if len(rows) > limit {
		list.Orders = rows[:limit]
		last := list.Orders[limit-1]
		next := pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
		list.NextCursor = &next
	}
	return list, nil
}

func (r *repository) SumPaidRevenue(ctx context.Context) (string, error) {
	var row struct {
		Total string
	}
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Select("COALESCE(SUM(total_amount), 0) AS total").
		Where("payment_status = ?", enums.PaymentStatusPaid).
		Scan(&row).Error
	if err != nil {
		return "0", err
	}
	return row.Total, nil
}

func (r *repository) CountOrders(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Count(&count).Error
	return count, err
}

func (r *repository) CountByStatus(ctx context.Context, status enums.OrderStatus) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("status = ?", status).
		Count(&count).Error
	return count, err
}

func (r *repository) RecentOrders(ctx context.Context, limit int) ([]models.Order, error) {
	if limit <= 0 {
		limit = 5
	}
	var rows []models.Order
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) TopProducts(ctx context.Context, limit int) ([]TopProduct, error) {
	if limit <= 0 {
		limit = 5
	}
	var rows []struct {
		ProductID uuid.UUID
		Name      string
		UnitsSold int64
		Revenue   string
	}
	err := r.db.WithContext(ctx).
		Table("order_items").
		Select("order_items.product_id AS product_id, products.name AS name, SUM(order_items.quantity) AS units_sold, SUM(order_items.quantity * order_items.price) AS revenue").
		Joins("JOIN products ON products.id = order_items.product_id").
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("orders.payment_status = ?", enums.PaymentStatusPaid).
		Group("order_items.product_id, products.name").
		Order("units_sold DESC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make([]TopProduct, 0, len(rows))
	for _, row := range rows {
		revenue, err := parseDecimal(row.Revenue)
		if err != nil {
			return nil, err
		}
		out = append(out, TopProduct{
			ProductID: row.ProductID,
			Name:      row.Name,
			UnitsSold: row.UnitsSold,
			Revenue:   revenue,
		})
	}
	return out, nil
}

func (r *repository) RevenueByDay(ctx context.Context, since time.Time) ([]DailyRevenue, error) {
	var rows []struct {
		Day     string
		Revenue string
	}
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Select("DATE(created_at) AS day, COALESCE(SUM(total_amount), 0) AS revenue").
		Where("payment_status = ? AND created_at >= ?", enums.PaymentStatusPaid, since).
		Group("DATE(created_at)").
		Order("day ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make([]DailyRevenue, 0, len(rows))
	for _, row := range rows {
		revenue, err := parseDecimal(row.Revenue)
		if err != nil {
			return nil, err
		}
		out = append(out, DailyRevenue{Date: row.Day, Revenue: revenue})
	}
	return out, nil
}
