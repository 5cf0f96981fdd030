package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "pos"

const (
	OutcomeSuccess   = "success"
	OutcomeIgnored   = "ignored"
	OutcomeRejected  = "rejected"
	OutcomeInvalid   = "invalid"
	OutcomeNetwork   = "network"
	OutcomeServer    = "server"
	OutcomeStockFull = "stock_exceeded"
	OutcomeNotFound  = "not_found"
	OutcomeFailed    = "failed"
)

const (
	OperationAdd    = "add"
	OperationUpdate = "update"
	OperationRemove = "remove"
	OperationClear  = "clear"
)

var (
	CheckoutTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "checkout_total",
		Help:      "Checkout attempts by outcome.",
	}, []string{"outcome"})

	CartMutationTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cart_mutation_total",
		Help:      "Cart mutations by operation and outcome.",
	}, []string{"operation", "outcome"})

	CheckoutDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "checkout_duration_seconds",
		Help:      "Latency of transaction submission to the backend.",
		Buckets:   prometheus.DefBuckets,
	})

	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "active_sessions",
		Help:      "Sale sessions currently held in memory.",
	})
)
