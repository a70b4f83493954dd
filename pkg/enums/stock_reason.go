package enums

import "fmt"

// StockReason classifies why an inventory quantity changed.
type StockReason string

const (
	StockReasonPurchase   StockReason = "purchase"
	StockReasonSale       StockReason = "sale"
	StockReasonReturn     StockReason = "return"
	StockReasonAdjustment StockReason = "adjustment"
	StockReasonDamaged    StockReason = "damaged"
)

var validStockReasons = []StockReason{
	StockReasonPurchase,
	StockReasonSale,
	StockReasonReturn,
	StockReasonAdjustment,
	StockReasonDamaged,
}

// String implements fmt.Stringer.
func (s StockReason) String() string {
	return string(s)
}

// IsValid reports whether the value is a known StockReason.
func (s StockReason) IsValid() bool {
	for _, candidate := range validStockReasons {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseStockReason converts raw input into a StockReason.
func ParseStockReason(value string) (StockReason, error) {
	for _, candidate := range validStockReasons {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid stock reason %q", value)
}
