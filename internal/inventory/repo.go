package inventory

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/petalworks/bloomshop-backend/pkg/db/models"
)

// Repository defines persistence operations for stock levels and the
// adjustment audit trail.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	ApplyDelta(ctx context.Context, productID uuid.UUID, delta int) (int64, error)
	ZeroOutFrom(ctx context.Context, productID uuid.UUID, expected int) (int64, error)
	GetProduct(ctx context.Context, productID uuid.UUID) (*models.Product, error)
	CreateAdjustment(ctx context.Context, adjustment *models.StockAdjustment) error
	ListAdjustments(ctx context.Context, productID uuid.UUID, limit int) ([]models.StockAdjustment, error)
	ListLowStock(ctx context.Context, threshold int) ([]models.Product, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds an inventory repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// ApplyDelta adjusts stock in a single conditional statement so concurrent
// writers cannot drive the quantity negative. Zero rows affected means the
// product is missing or the guard rejected the change.
func (r *repository) ApplyDelta(ctx context.Context, productID uuid.UUID, delta int) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ? AND stock_quantity + ? >= 0", productID, delta).
		UpdateColumn("stock_quantity", gorm.Expr("stock_quantity + ?", delta))
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

// ZeroOutFrom floors stock at zero, guarded by the quantity the caller just
// read. Zero rows affected means a concurrent write moved the quantity and
// the caller must re-read before trying again.
func (r *repository) ZeroOutFrom(ctx context.Context, productID uuid.UUID, expected int) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ? AND stock_quantity = ?", productID, expected).
		UpdateColumn("stock_quantity", 0)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *repository) GetProduct(ctx context.Context, productID uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Where("id = ?", productID).
		First(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *repository) CreateAdjustment(ctx context.Context, adjustment *models.StockAdjustment) error {
	return r.db.WithContext(ctx).Create(adjustment).Error
}

func (r *repository) ListAdjustments(ctx context.Context, productID uuid.UUID, limit int) ([]models.StockAdjustment, error) {
	var rows []models.StockAdjustment
	q := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) ListLowStock(ctx context.Context, threshold int) ([]models.Product, error) {
	var rows []models.Product
	err := r.db.WithContext(ctx).
		Where("is_active = ? AND stock_quantity < ?", true, threshold).
		Order("stock_quantity ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
