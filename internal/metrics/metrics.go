// Package metrics exposes Prometheus instrumentation for the import and bulk
// mutation pipelines. Collectors register against the default registry;
// /metrics is served by the HTTP server.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ImportJobsTotal counts import jobs by terminal status.
	ImportJobsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "listflow_import_jobs_total",
		Help: "Import jobs by terminal status.",
	}, []string{"status"})

	// ImportRowsTotal counts processed import rows by outcome.
	ImportRowsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "listflow_import_rows_total",
		Help: "Import rows by outcome (created, updated, error).",
	}, []string{"outcome"})

	// MutationItemsTotal counts bulk mutation items by entity type and outcome.
	MutationItemsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "listflow_mutation_items_total",
		Help: "Bulk mutation items by entity type and outcome.",
	}, []string{"entity", "outcome"})

	// BatchDuration observes wall time of whole bulk operations.
	BatchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "listflow_bulk_operation_duration_seconds",
		Help:    "Duration of bulk mutation operations.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})

	// HTTPRequestDuration observes request latency by route and status class.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "listflow_http_request_duration_seconds",
		Help:    "HTTP request latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
)

// ObserveOperation records a finished bulk operation.
func ObserveOperation(op string, start time.Time) {
	BatchDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}
