package payments

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/petalworks/bloomshop-backend/internal/orders"
	"github.com/petalworks/bloomshop-backend/pkg/db/models"
	"github.com/petalworks/bloomshop-backend/pkg/enums"
	pkgerrors "github.com/petalworks/bloomshop-backend/pkg/errors"
	"github.com/petalworks/bloomshop-backend/pkg/logger"
	"github.com/petalworks/bloomshop-backend/pkg/metrics"
)

type orderReconciler interface {
	GetBySessionID(ctx context.Context, sessionID string) (*models.Order, error)
	GetByNumber(ctx context.Context, orderNumber string) (*models.Order, error)
	MarkPaid(ctx context.Context, input orders.MarkPaidInput) (alreadyPaid bool, err error)
	MarkPaymentFailed(ctx context.Context, orderID uuid.UUID) error
}

// Event is the payment processor webhook envelope. Only the fields the
// reconciliation path reads are decoded.
type Event struct {
	EventID string    `json:"event_id"`
	Type    string    `json:"type"`
	Data    EventData `json:"data"`
}

type EventData struct {
	ID     string      `json:"id"`
	Object EventObject `json:"object"`
}

// EventObject carries the payment identifiers. SessionID is the hosted
// session the checkout opened; ReferenceID is our order number echoed back
// by the processor.
type EventObject struct {
	SessionID     string `json:"session_id"`
	ReferenceID   string `json:"reference_id"`
	PaymentID     string `json:"payment_id"`
	PaymentMethod string `json:"payment_method"`
}

type ServiceParams struct {
	Orders  orderReconciler
	Metrics *metrics.CheckoutMetrics
	Logger  *logger.Logger
}

// Service reconciles payment processor events against order rows. The order
// row's payment status is the authoritative duplicate check; the redis guard
// in front of this service only saves work.
type Service struct {
	orders  orderReconciler
	metrics *metrics.CheckoutMetrics
	logg    *logger.Logger
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Orders == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "order reconciler required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "logger required")
	}
	return &Service{
		orders:  params.Orders,
		metrics: params.Metrics,
		logg:    params.Logger,
	}, nil
}

// HandleEvent applies one webhook delivery. Events that cannot be tied to an
// order are acknowledged with a warning rather than failed, so the processor
// does not retry a delivery we can never process.
func (s *Service) HandleEvent(ctx context.Context, event *Event) error {
	if event == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "payment event required")
	}

	kind := enums.ClassifyPaymentEvent(event.Type)
	if kind == enums.PaymentEventUnknown {
		s.logg.Info(s.logg.WithField(ctx, "event_type", event.Type), "ignoring unrecognized payment event")
		s.metrics.IncWebhookEvent(event.Type, "ignored")
		return nil
	}

	order, err := s.resolveOrder(ctx, event.Data.Object)
	if err != nil {
		s.metrics.IncWebhookEvent(string(kind), "error")
		return err
	}
	if order == nil {
		s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
			"event_id":     event.EventID,
			"session_id":   event.Data.Object.SessionID,
			"reference_id": event.Data.Object.ReferenceID,
		}), "payment event does not match any order")
		s.metrics.IncWebhookEvent(string(kind), "order_missing")
		return nil
	}

	ctx = s.logg.WithOrderID(ctx, order.ID.String())

	switch kind {
	case enums.PaymentEventCheckoutCompleted, enums.PaymentEventPaymentSucceeded:
		alreadyPaid, err := s.orders.MarkPaid(ctx, orders.MarkPaidInput{
			OrderID:       order.ID,
			PaymentID:     event.Data.Object.PaymentID,
			SessionID:     event.Data.Object.SessionID,
			PaymentMethod: event.Data.Object.PaymentMethod,
		})
		if err != nil {
			s.metrics.IncWebhookEvent(string(kind), "error")
			return err
		}
		if alreadyPaid {
			s.logg.Info(ctx, "duplicate payment confirmation, order already paid")
			s.metrics.IncWebhookEvent(string(kind), "duplicate")
			return nil
		}
		s.logg.Info(ctx, fmt.Sprintf("order %s confirmed paid", order.OrderNumber))
		s.metrics.IncWebhookEvent(string(kind), "processed")
		return nil

	case enums.PaymentEventPaymentFailed:
		if err := s.orders.MarkPaymentFailed(ctx, order.ID); err != nil {
			if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeStateConflict {
				// A failure event arriving after the payment succeeded
				// is out of order; the paid state wins.
				s.logg.Warn(ctx, "payment failure event for an already paid order, keeping paid state")
				s.metrics.IncWebhookEvent(string(kind), "out_of_order")
				return nil
			}
			s.metrics.IncWebhookEvent(string(kind), "error")
			return err
		}
		s.logg.Info(ctx, fmt.Sprintf("order %s payment failed", order.OrderNumber))
		s.metrics.IncWebhookEvent(string(kind), "processed")
		return nil
	}

	return nil
}

// resolveOrder locates the order by session id first, then by the order
// number reference. A (nil, nil) return means the event carries no usable
// reference or points at a row that does not exist.
func (s *Service) resolveOrder(ctx context.Context, object EventObject) (*models.Order, error) {
	sessionID := strings.TrimSpace(object.SessionID)
	if sessionID != "" {
		order, err := s.orders.GetBySessionID(ctx, sessionID)
		if err == nil {
			return order, nil
		}
		if !isNotFound(err) {
			return nil, err
		}
	}

	reference := strings.TrimSpace(object.ReferenceID)
	if reference != "" {
		order, err := s.orders.GetByNumber(ctx, reference)
		if err == nil {
			return order, nil
		}
		if !isNotFound(err) {
			return nil, err
		}
	}

	return nil, nil
}

func isNotFound(err error) bool {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return true
	}
	if typed := pkgerrors.As(err); typed != nil {
		return typed.Code() == pkgerrors.CodeNotFound || typed.Code() == pkgerrors.CodeValidation
	}
	return false
}
