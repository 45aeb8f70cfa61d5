// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	GatewayQueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_queries_total",
			Help: "Total number of queries answered, by backend tool",
		},
		[]string{"tool"},
	)

	GatewayQueriesRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_queries_rejected_total",
			Help: "Total number of queries rejected before execution",
		},
		[]string{"code"},
	)

	GatewayQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "gateway_query_duration_seconds",
			Help: "Duration of query handling in seconds",
		},
		[]string{"tool"},
	)

	BackendRetriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_backend_retries_total",
			Help: "Total number of retried backend attempts",
		},
		[]string{"backend"},
	)

	GraphLookupsAbsorbed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gateway_graph_lookups_absorbed_total",
			Help: "Directory lookups that failed and were converted to empty results",
		},
	)

	ResultsTruncated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_results_truncated_total",
			Help: "Responses whose result set was capped",
		},
		[]string{"tool"},
	)
)
