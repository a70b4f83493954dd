package square

import (
	"strconv"
	"strings"

	sq "github.com/square/square-go-sdk"
	sqcheckout "github.com/square/square-go-sdk/checkout"
)

// PaymentSessionLineItem is one purchasable row on the hosted checkout page.
type PaymentSessionLineItem struct {
	Name        string
	Quantity    int
	AmountCents int64
	Currency    string
}

// PaymentSessionParams contains the fields required to open a hosted
// checkout session. OrderNumber travels as the Square order reference id so
// webhook deliveries can be correlated back to the local order.
type PaymentSessionParams struct {
	OrderNumber    string
	BuyerEmail     string
	RedirectURL    string
	LineItems      []PaymentSessionLineItem
	IdempotencyKey string
}

func (p PaymentSessionParams) toSquareRequest(locationID, idempotencyKey string) *sqcheckout.CreatePaymentLinkRequest {
	items := make([]*sq.OrderLineItem, 0, len(p.LineItems))
	for _, li := range p.LineItems {
		item := &sq.OrderLineItem{
			Name:     ptrString(li.Name),
			Quantity: strconv.Itoa(li.Quantity),
		}
		if li.AmountCents > 0 {
			item.BasePriceMoney = moneyPtr(li.AmountCents, li.Currency)
		}
		items = append(items, item)
	}

	req := &sqcheckout.CreatePaymentLinkRequest{
		IdempotencyKey: ptrString(idempotencyKey),
		Order: &sq.Order{
			LocationID: locationID,
			LineItems:  items,
		},
	}
	if trimmed := strings.TrimSpace(p.OrderNumber); trimmed != "" {
		req.Order.ReferenceID = ptrString(trimmed)
	}
	if trimmed := strings.TrimSpace(p.RedirectURL); trimmed != "" {
		req.CheckoutOptions = &sq.CheckoutOptions{RedirectURL: ptrString(trimmed)}
	}
	if trimmed := strings.TrimSpace(p.BuyerEmail); trimmed != "" {
		req.PrePopulatedData = &sq.PrePopulatedData{BuyerEmail: ptrString(trimmed)}
	}
	return req
}

func ptrString(value string) *string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return &value
}

func int64Ptr(value int64) *int64 {
	return &value
}

func currencyPtr(code string) *sq.Currency {
	trimmed := strings.ToUpper(strings.TrimSpace(code))
	if trimmed == "" {
		trimmed = "USD"
	}
	c := sq.Currency(trimmed)
	return &c
}

func moneyPtr(amount int64, currency string) *sq.Money {
	if amount == 0 {
		return nil
	}
	return &sq.Money{
		Amount:   int64Ptr(amount),
		Currency: currencyPtr(currency),
	}
}
