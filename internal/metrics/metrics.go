// Package metrics exposes the Prometheus instruments shared across the
// backend. Collectors are registered once via promauto at init.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequestsTotal counts handled HTTP requests by method, route and
	// status code.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "amail_http_requests_total",
		Help: "Total number of HTTP requests handled",
	}, []string{"method", "route", "status"})

	// HTTPRequestDuration observes request latency per route.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "amail_http_request_duration_seconds",
		Help:    "HTTP request latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	// AggregateUpdateFailures counts message appends whose ticket
	// aggregate update could not be applied after retries. A non-zero
	// rate means the message log and ticket counters have diverged and
	// need reconciliation.
	AggregateUpdateFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "amail_ticket_aggregate_update_failures_total",
		Help: "Message appends whose ticket aggregate update failed after retries",
	})

	// CompletionTokens counts tokens reported by the completion service,
	// partitioned into prompt and completion tokens.
	CompletionTokens = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "amail_completion_tokens_total",
		Help: "Tokens consumed by the completion service",
	}, []string{"kind"})

	// CompletionCostUSD accumulates the estimated completion spend.
	CompletionCostUSD = promauto.NewCounter(prometheus.CounterOpts{
		Name: "amail_completion_cost_usd_total",
		Help: "Estimated cumulative completion cost in USD",
	})
)
