package catalog

import "github.com/shopspring/decimal"

// CreateProductInput carries the fields accepted when creating a product.
type CreateProductInput struct {
	Name          string
	Description   *string
	Price         decimal.Decimal
	Category      *string
	ImageURL      *string
	StockQuantity int
	IsActive      *bool
}

// UpdateProductInput carries a partial update; nil fields are untouched.
type UpdateProductInput struct {
	Name        *string
	Description *string
	Price       *decimal.Decimal
	Category    *string
	ImageURL    *string
	IsActive    *bool
}
