package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	OversellTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_oversell_total",
			Help: "Stock decrements that drove a product below zero",
		},
		[]string{"store_id"},
	)

	WebhookEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_webhook_events_total",
			Help: "Processor webhook events by type and outcome",
		},
		[]string{"type", "outcome"},
	)

	OrdersCreatedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "storefront_orders_created_total",
			Help: "Pending orders opened by checkout",
		},
	)

	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)
)

func init() {
	prometheus.MustRegister(
		OversellTotal,
		WebhookEventsTotal,
		OrdersCreatedTotal,
		HTTPRequestsTotal,
	)
}

// Webhook outcomes.
const (
	OutcomeApplied  = "applied"
	OutcomeNoop     = "noop"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)
