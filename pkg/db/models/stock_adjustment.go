package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/petalworks/bloomshop-backend/pkg/enums"
)

// StockAdjustment is the append-only audit record for every inventory
// quantity change. Rows are never updated or deleted.
type StockAdjustment struct {
	ID             uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	ProductID      uuid.UUID         `gorm:"column:product_id;type:uuid;not null;index:idx_stock_adjustments_product_id"`
	QuantityChange int               `gorm:"column:quantity_change;not null"`
	QuantityAfter  int               `gorm:"column:quantity_after;not null"`
	Reason         enums.StockReason `gorm:"column:reason;not null"`
	Notes          *string           `gorm:"column:notes"`
	CreatedAt      time.Time         `gorm:"column:created_at;autoCreateTime"`
}

func (s *StockAdjustment) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
