// Package metrics holds the Prometheus collectors for marketplace operations.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Result label values shared by the operation counters.
const (
	ResultOK                = "ok"
	ResultUnauthorized      = "unauthorized"
	ResultInsufficientFunds = "insufficient_funds"
	ResultAlreadyUsed       = "already_used"
	ResultNotFound          = "not_found"
	ResultInvalid           = "invalid"
	ResultError             = "error"
)

var (
	ServicesRegistered = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "marketplace",
		Subsystem: "registry",
		Name:      "registrations_total",
		Help:      "Service registration attempts by result",
	}, []string{"result"})

	Invocations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "marketplace",
		Subsystem: "invocation",
		Name:      "invocations_total",
		Help:      "Service invocation attempts by result",
	}, []string{"result"})

	AccessKeysIssued = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "marketplace",
		Subsystem: "access",
		Name:      "keys_issued_total",
		Help:      "Access key requests by result",
	}, []string{"result"})

	AccessKeysRedeemed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "marketplace",
		Subsystem: "access",
		Name:      "keys_redeemed_total",
		Help:      "Access key redemption attempts by result",
	}, []string{"result"})

	// Settled value is tracked per source; a float counter is exact up to 2^53.
	SettledUnits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "marketplace",
		Subsystem: "ledger",
		Name:      "settled_units_total",
		Help:      "Units transferred from callers to owners",
	}, []string{"source"})

	EventPublishErrors = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "marketplace",
		Subsystem: "events",
		Name:      "publish_errors_total",
		Help:      "Access request events that failed to publish",
	})

	OperationLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "marketplace",
		Subsystem: "core",
		Name:      "operation_duration_seconds",
		Help:      "Duration of marketplace operations including the store transaction",
		Buckets:   []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
	}, []string{"operation"})
)

// Request metrics are labelled by the matched route pattern, never the raw
// path, so IDs in URLs do not create new series.
var (
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "marketplace",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by route pattern and status code",
	}, []string{"route", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "marketplace",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency by route pattern",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route"})

	HTTPPanics = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "marketplace",
		Subsystem: "http",
		Name:      "panics_total",
		Help:      "Handler panics recovered, by route pattern",
	}, []string{"route"})
)

// RouteUnmatched labels requests no route pattern accepted.
const RouteUnmatched = "unmatched"
