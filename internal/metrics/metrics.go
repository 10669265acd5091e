// Package metrics exposes Prometheus counters for the order/payment
// lifecycle, served on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CheckoutSessionsTotal counts hosted payment sessions requested.
	CheckoutSessionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "storefront_checkout_sessions_total",
		Help: "Total number of payment checkout sessions created",
	})

	// PaymentEventsTotal counts provider webhook events by outcome.
	PaymentEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_payment_events_total",
		Help: "Total number of payment provider events processed",
	}, []string{"outcome"}) // applied, duplicate, ignored, failed

	// RefundsTotal counts refund attempts by outcome.
	RefundsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_refunds_total",
		Help: "Total number of refund attempts",
	}, []string{"outcome"}) // succeeded, failed

	// OrdersCancelledTotal counts user-initiated cancellations.
	OrdersCancelledTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "storefront_orders_cancelled_total",
		Help: "Total number of orders cancelled by users",
	})
)
