package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/petalworks/bloomshop-backend/pkg/enums"
)

// Order is the buyer-facing purchase record. TotalAmount is the sum of the
// captured item prices at creation time and is never recomputed from live
// product prices.
type Order struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	OrderNumber string    `gorm:"column:order_number;not null;uniqueIndex:idx_orders_order_number"`

	BuyerName  string `gorm:"column:buyer_name;not null"`
	BuyerPhone string `gorm:"column:buyer_phone;not null"`
	BuyerEmail string `gorm:"column:buyer_email;not null"`

	RecipientName    string `gorm:"column:recipient_name;not null"`
	RecipientPhone   string `gorm:"column:recipient_phone;not null"`
	RecipientAddress string `gorm:"column:recipient_address;not null"`

	DeliveryType enums.DeliveryType `gorm:"column:delivery_type;not null"`
	DeliveryDate *string            `gorm:"column:delivery_date"`
	DeliveryTime *string            `gorm:"column:delivery_time"`
	MessageCard  *string            `gorm:"column:message_card"`

	TotalAmount   decimal.Decimal     `gorm:"column:total_amount;type:numeric(12,2);not null"`
	Status        enums.OrderStatus   `gorm:"column:status;not null;default:'pending'"`
	PaymentStatus enums.PaymentStatus `gorm:"column:payment_status;not null;default:'pending'"`
	PaymentMethod *string             `gorm:"column:payment_method"`

	PaymentSessionID *string `gorm:"column:payment_session_id;index:idx_orders_payment_session_id"`
	PaymentID        *string `gorm:"column:payment_id"`

	Items []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}
