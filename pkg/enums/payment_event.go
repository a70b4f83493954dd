package enums

// PaymentEventKind is the closed set of webhook event types the
// reconciliation handler dispatches on. Anything else falls through to the
// acknowledged-but-ignored branch.
type PaymentEventKind string

const (
	PaymentEventCheckoutCompleted PaymentEventKind = "checkout.session.completed"
	PaymentEventPaymentSucceeded  PaymentEventKind = "payment.succeeded"
	PaymentEventPaymentFailed     PaymentEventKind = "payment.failed"
	PaymentEventUnknown           PaymentEventKind = "unknown"
)

// ClassifyPaymentEvent maps a raw provider event type onto the closed kind
// set, defaulting to PaymentEventUnknown.
func ClassifyPaymentEvent(raw string) PaymentEventKind {
	switch PaymentEventKind(raw) {
	case PaymentEventCheckoutCompleted, PaymentEventPaymentSucceeded, PaymentEventPaymentFailed:
		return PaymentEventKind(raw)
	default:
		return PaymentEventUnknown
	}
}
