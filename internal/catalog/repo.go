package catalog

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/petalworks/bloomshop-backend/pkg/db/models"
	"github.com/petalworks/bloomshop-backend/pkg/pagination"
)

// Repository defines persistence operations for the product catalog.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	ListActive(ctx context.Context, category string, limit int) ([]models.Product, error)
	ListAll(ctx context.Context, search, category string) ([]models.Product, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	Create(ctx context.Context, product *models.Product) (*models.Product, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a catalog repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) ListActive(ctx context.Context, category string, limit int) ([]models.Product, error) {
	var products []models.Product
	q := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("created_at DESC").
		Limit(pagination.NormalizeLimit(limit))
	if trimmed := strings.TrimSpace(category); trimmed != "" {
		q = q.Where("category = ?", trimmed)
	}
	if err := q.Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

func (r *repository) ListAll(ctx context.Context, search, category string) ([]models.Product, error) {
	var products []models.Product
	q := r.db.WithContext(ctx).Order("created_at DESC")
	if trimmed := strings.TrimSpace(search); trimmed != "" {
		q = q.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(trimmed)+"%")
	}
	if trimmed := strings.TrimSpace(category); trimmed != "" {
		q = q.Where("category = ?", trimmed)
	}
	if err := q.Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *repository) Create(ctx context.Context, product *models.Product) (*models.Product, error) {
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", id).
		Updates(updates).Error
}
