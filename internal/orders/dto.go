package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/petalworks/bloomshop-backend/pkg/db/models"
	"github.com/petalworks/bloomshop-backend/pkg/enums"
)

// CreateOrderItemInput is one validated line item with its captured price.
type CreateOrderItemInput struct {
	ProductID uuid.UUID
	Quantity  int
	Price     decimal.Decimal
}

// CreateOrderInput carries everything needed to persist an order aggregate.
type CreateOrderInput struct {
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

	TotalAmount decimal.Decimal
	Items       []CreateOrderItemInput
}

// ListFilters narrows the admin order list.
type ListFilters struct {
	Status        *enums.OrderStatus
	PaymentStatus *enums.PaymentStatus
}

// List is one page of orders plus the cursor for the next page.
type List struct {
	Orders     []models.Order
	NextCursor *string
}

// ItemDetail joins a line item with product display fields.
type ItemDetail struct {
	models.OrderItem
	ProductName     string
	ProductImageURL *string
}

// Detail is the full admin view of one order.
type Detail struct {
	Order models.Order
	Items []ItemDetail
}

// MarkPaidInput identifies the completed payment being reconciled.
type MarkPaidInput struct {
	OrderID       uuid.UUID
	PaymentID     string
	SessionID     string
	PaymentMethod string
}

// TopProduct aggregates sales for the dashboard.
type TopProduct struct {
	ProductID uuid.UUID       `json:"product_id"`
	Name      string          `json:"name"`
	UnitsSold int64           `json:"units_sold"`
	Revenue   decimal.Decimal `json:"revenue"`
}

// DailyRevenue is one day of confirmed revenue.
type DailyRevenue struct {
	Date    string          `json:"date"`
	Revenue decimal.Decimal `json:"revenue"`
}

// DashboardStats backs the admin landing page.
type DashboardStats struct {
	TotalRevenue     decimal.Decimal `json:"total_revenue"`
	TotalOrders      int64           `json:"total_orders"`
	PendingOrders    int64           `json:"pending_orders"`
	LowStockProducts int64           `json:"low_stock_products"`
	RecentOrders     []models.Order  `json:"recent_orders"`
	TopProducts      []TopProduct    `json:"top_products"`
	RevenueByDay     []DailyRevenue  `json:"revenue_by_day"`
	GeneratedAt      time.Time       `json:"generated_at"`
}
