// Package metrics defines Prometheus metrics for the sync daemon.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "idsync_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "idsync_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	ErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "idsync_errors_total",
			Help: "Total errors by type",
		},
		[]string{"type"},
	)

	SyncRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "idsync_sync_runs_total",
			Help: "Completed synchronization runs by outcome",
		},
		[]string{"entity_type", "outcome"},
	)

	SyncItemsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "idsync_sync_items_total",
			Help: "Processed sync items by situation and action",
		},
		[]string{"situation", "action", "result"},
	)

	SyncRunDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "idsync_sync_run_duration_seconds",
			Help:    "Synchronization run duration in seconds",
			Buckets: []float64{1, 5, 15, 60, 300, 900, 3600},
		},
		[]string{"entity_type"},
	)

	ProvisioningQueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "idsync_provisioning_queue_depth",
			Help: "Provisioning batches currently due for execution",
		},
	)

	ProvisioningOpsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "idsync_provisioning_operations_total",
			Help: "Provisioning operation executions by result",
		},
		[]string{"operation", "result"},
	)

	ProvisioningRetries = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "idsync_provisioning_retries_total",
			Help: "Provisioning operations rescheduled after failure",
		},
	)
)

func init() {
	prometheus.MustRegister(
		RequestDuration, RequestsTotal, ErrorsTotal,
		SyncRunsTotal, SyncItemsTotal, SyncRunDuration,
		ProvisioningQueueDepth, ProvisioningOpsTotal, ProvisioningRetries,
	)
}
