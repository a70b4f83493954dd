package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CheckoutMetrics records outcomes of the order placement flow and the
// payment webhook reconciliation.
type CheckoutMetrics struct {
	duration      *prometheus.HistogramVec
	checkouts     *prometheus.CounterVec
	webhookEvents *prometheus.CounterVec
}

// NewCheckoutMetrics registers the checkout metrics on the provided registerer.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "checkout_duration_seconds",
		Help:    "Duration of checkout requests in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"result"})
	checkouts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_total",
		Help: "Checkout attempts by result.",
	}, []string{"result"})
	webhookEvents := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_webhook_events_total",
		Help: "Payment webhook deliveries by event type and outcome.",
	}, []string{"event", "outcome"})
	reg.MustRegister(duration, checkouts, webhookEvents)
	return &CheckoutMetrics{
		duration:      duration,
		checkouts:     checkouts,
		webhookEvents: webhookEvents,
	}
}

// ObserveCheckout records one checkout attempt with its duration.
func (c *CheckoutMetrics) ObserveCheckout(result string, duration time.Duration) {
	if c == nil || c.duration == nil {
		return
	}
	label := normalizeLabel(result)
	c.duration.WithLabelValues(label).Observe(duration.Seconds())
	c.checkouts.WithLabelValues(label).Inc()
}

// IncWebhookEvent counts one webhook delivery outcome.
func (c *CheckoutMetrics) IncWebhookEvent(event, outcome string) {
	if c == nil || c.webhookEvents == nil {
		return
	}
	c.webhookEvents.WithLabelValues(normalizeLabel(event), normalizeLabel(outcome)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
