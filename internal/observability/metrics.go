// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Mint metrics
	AttemptsStarted prometheus.Counter
	AttemptsSettled *prometheus.CounterVec
	AttemptDuration prometheus.Histogram

	// Eligibility metrics
	EvaluationsTotal prometheus.Counter
	BlockedByReason  *prometheus.CounterVec

	// Refresh metrics
	RefreshesTotal   *prometheus.CounterVec
	ScanDuration     prometheus.Histogram
	ScanSentinelHits prometheus.Counter

	// Latency metrics
	RPCCallLatency *prometheus.HistogramVec

	// Drop state gauges
	ItemsRemaining prometheus.Gauge
	ItemsRedeemed  prometheus.Gauge

	// Health metrics
	LastSuccessfulRefresh prometheus.Gauge
	UptimeSeconds         prometheus.Counter
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "drop_client"
	}

	return &Metrics{
		AttemptsStarted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "mint",
			Name:      "attempts_started_total",
			Help:      "Total number of mint attempts submitted",
		}),
		AttemptsSettled: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "mint",
			Name:      "attempts_settled_total",
			Help:      "Total number of settled mint attempts by status and error kind",
		}, []string{"status", "kind"}),
		AttemptDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "mint",
			Name:      "attempt_duration_seconds",
			Help:      "Time from submission to settlement",
			Buckets:   []float64{1, 2, 5, 10, 20, 30, 60, 120},
		}),

		EvaluationsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "eligibility",
			Name:      "evaluations_total",
			Help:      "Total number of eligibility evaluations",
		}),
		BlockedByReason: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "eligibility",
			Name:      "blocked_total",
			Help:      "Total number of blocked evaluations by reason",
		}, []string{"reason"}),

		RefreshesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "refreshes_total",
			Help:      "Total number of session refresh cycles by status",
		}, []string{"status"}),
		ScanDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "scanner",
			Name:      "scan_duration_seconds",
			Help:      "Ownership scan duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
		ScanSentinelHits: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scanner",
			Name:      "sentinel_hits_total",
			Help:      "Total number of scans that fell back to the sentinel count",
		}),

		RPCCallLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "solana",
			Name:      "rpc_call_latency_seconds",
			Help:      "Solana RPC call latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),

		ItemsRemaining: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "drop",
			Name:      "items_remaining",
			Help:      "Items still available in the drop",
		}),
		ItemsRedeemed: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "drop",
			Name:      "items_redeemed",
			Help:      "Items redeemed from the drop",
		}),

		LastSuccessfulRefresh: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_refresh_timestamp",
			Help:      "Unix timestamp of the last successful session refresh",
		}),
		UptimeSeconds: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "uptime_seconds_total",
			Help:      "Total uptime in seconds",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordAttemptStarted increments the attempts started counter.
func RecordAttemptStarted() {
	DefaultMetrics.AttemptsStarted.Inc()
}

// RecordAttemptSettled records a settled attempt.
func RecordAttemptSettled(status, kind string, durationSeconds float64) {
	DefaultMetrics.AttemptsSettled.WithLabelValues(status, kind).Inc()
	DefaultMetrics.AttemptDuration.Observe(durationSeconds)
}

// RecordEvaluation records an eligibility evaluation and its block reason.
func RecordEvaluation(reason string) {
	DefaultMetrics.EvaluationsTotal.Inc()
	if reason != "" {
		DefaultMetrics.BlockedByReason.WithLabelValues(reason).Inc()
	}
}

// RecordRefresh records a session refresh cycle.
func RecordRefresh(status string) {
	DefaultMetrics.RefreshesTotal.WithLabelValues(status).Inc()
}

// RecordScan records an ownership scan.
func RecordScan(seconds float64, sentinel bool) {
	DefaultMetrics.ScanDuration.Observe(seconds)
	if sentinel {
		DefaultMetrics.ScanSentinelHits.Inc()
	}
}

// RecordRPCLatency records RPC call latency.
func RecordRPCLatency(method string, seconds float64) {
	DefaultMetrics.RPCCallLatency.WithLabelValues(method).Observe(seconds)
}

// UpdateDropGauges updates the drop supply gauges.
func UpdateDropGauges(remaining, redeemed uint64) {
	DefaultMetrics.ItemsRemaining.Set(float64(remaining))
	DefaultMetrics.ItemsRedeemed.Set(float64(redeemed))
}
