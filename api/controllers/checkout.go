package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/petalworks/bloomshop-backend/api/responses"
	"github.com/petalworks/bloomshop-backend/api/validators"
	"github.com/petalworks/bloomshop-backend/internal/checkout"
	"github.com/petalworks/bloomshop-backend/pkg/enums"
	pkgerrors "github.com/petalworks/bloomshop-backend/pkg/errors"
	"github.com/petalworks/bloomshop-backend/pkg/logger"
)

type checkoutItemRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Quantity  int    `json:"quantity" validate:"required,min=1"`
}

type checkoutRequest struct {
	BuyerName  string `json:"buyer_name" validate:"required,max=120"`
	BuyerPhone string `json:"buyer_phone" validate:"required,max=40"`
	BuyerEmail string `json:"buyer_email" validate:"required,email"`

	RecipientName    string `json:"recipient_name" validate:"required,max=120"`
	RecipientPhone   string `json:"recipient_phone" validate:"required,max=40"`
	RecipientAddress string `json:"recipient_address" validate:"required,max=500"`

	DeliveryType string  `json:"delivery_type" validate:"required,oneof=pickup delivery"`
	DeliveryDate *string `json:"delivery_date,omitempty" validate:"omitempty,max=20"`
	DeliveryTime *string `json:"delivery_time,omitempty" validate:"omitempty,max=20"`
	MessageCard  *string `json:"message_card,omitempty" validate:"omitempty,max=200"`

	Items []checkoutItemRequest `json:"items" validate:"required,min=1,dive"`
}

type checkoutResponse struct {
	OrderID     uuid.UUID `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	SessionID   string    `json:"session_id"`
	PaymentURL  string    `json:"payment_url"`
}

func (r checkoutRequest) toInput() (checkout.CheckoutInput, error) {
	items := make([]checkout.CheckoutItemInput, 0, len(r.Items))
	for _, item := range r.Items {
		productID, err := uuid.Parse(item.ProductID)
		if err != nil {
			return checkout.CheckoutInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product id")
		}
		items = append(items, checkout.CheckoutItemInput{
			ProductID: productID,
			Quantity:  item.Quantity,
		})
	}

	return checkout.CheckoutInput{
		BuyerName:        validators.SanitizeString(r.BuyerName, 120),
		BuyerPhone:       validators.SanitizeString(r.BuyerPhone, 40),
		BuyerEmail:       validators.SanitizeString(r.BuyerEmail, 254),
		RecipientName:    validators.SanitizeString(r.RecipientName, 120),
		RecipientPhone:   validators.SanitizeString(r.RecipientPhone, 40),
		RecipientAddress: validators.SanitizeString(r.RecipientAddress, 500),
		DeliveryType:     enums.DeliveryType(r.DeliveryType),
		DeliveryDate:     r.DeliveryDate,
		DeliveryTime:     r.DeliveryTime,
		MessageCard:      r.MessageCard,
		Items:            items,
	}, nil
}

// Checkout validates the cart, records the order, and returns the hosted
// payment page URL.
func Checkout(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Checkout(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, checkoutResponse{
			OrderID:     result.Order.ID,
			OrderNumber: result.Order.OrderNumber,
			SessionID:   result.SessionID,
			PaymentURL:  result.PaymentURL,
		})
	}
}
