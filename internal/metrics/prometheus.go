// Package metrics defines the Prometheus instrumentation for the
// compaction coordinator, grounded on the teacher's promauto-based
// Metrics struct.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics exposed by the coordinator.
type Metrics struct {
	QueueDepth          *prometheus.GaugeVec
	DispatchTotal       *prometheus.CounterVec
	DispatchDuration    *prometheus.HistogramVec
	RunningCompactions  prometheus.Gauge
	CompletionsTotal    *prometheus.CounterVec
	RetryAttemptsTotal  *prometheus.CounterVec
	OrphanedTotal       prometheus.Counter
	TabletServersActive prometheus.Gauge
	PollCycleDuration   prometheus.Histogram
	PollRPCFailures     *prometheus.CounterVec
}

var globalMetrics *Metrics

// NewMetrics creates and registers Prometheus metrics. Repeat calls return
// the same instance rather than re-registering collectors against the
// default registry, which would panic with "duplicate metrics collector
// registration attempted" the second time.
func NewMetrics() *Metrics {
	if globalMetrics != nil {
		return globalMetrics
	}

	globalMetrics = &Metrics{
		QueueDepth: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "compactcoord_queue_depth",
				Help: "Number of pending compaction advertisements per queue",
			},
			[]string{"queue"},
		),

		DispatchTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "compactcoord_dispatch_total",
				Help: "Total number of GetCompactionJob calls, by outcome",
			},
			[]string{"queue", "outcome"},
		),

		DispatchDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "compactcoord_dispatch_duration_seconds",
				Help:    "Duration of GetCompactionJob dispatch attempts",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"queue"},
		),

		RunningCompactions: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "compactcoord_running_compactions",
				Help: "Current number of entries in the running table",
			},
		),

		CompletionsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "compactcoord_completions_total",
				Help: "Total number of CompactionCompleted calls, by result",
			},
			[]string{"result"},
		),

		RetryAttemptsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "compactcoord_retry_attempts_total",
				Help: "Total number of rpcretry attempts, by operation",
			},
			[]string{"operation"},
		),

		OrphanedTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "compactcoord_orphaned_total",
				Help: "Total number of compactions abandoned as orphaned after retry exhaustion",
			},
		),

		TabletServersActive: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "compactcoord_tablet_servers_active",
				Help: "Number of tablet servers currently known to the membership watch",
			},
		),

		PollCycleDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "compactcoord_poll_cycle_duration_seconds",
				Help:    "Duration of one QueuePoller fan-out cycle",
				Buckets: prometheus.DefBuckets,
			},
		),

		PollRPCFailures: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "compactcoord_poll_rpc_failures_total",
				Help: "Total number of GetCompactionQueueInfo RPC failures during polling",
			},
			[]string{"tserver"},
		),
	}

	return globalMetrics
}

// RecordDispatch records a dispatch attempt and its outcome.
func (m *Metrics) RecordDispatch(queue, outcome string, durationSeconds float64) {
	m.DispatchTotal.WithLabelValues(queue, outcome).Inc()
	m.DispatchDuration.WithLabelValues(queue).Observe(durationSeconds)
}

// RecordCompletion records a CompactionCompleted call outcome.
func (m *Metrics) RecordCompletion(result string) {
	m.CompletionsTotal.WithLabelValues(result).Inc()
}

// RecordRetryAttempt records one rpcretry.Do attempt for operation.
func (m *Metrics) RecordRetryAttempt(operation string) {
	m.RetryAttemptsTotal.WithLabelValues(operation).Inc()
}

// RecordOrphan records a compaction abandoned to the OrphanSink.
func (m *Metrics) RecordOrphan() {
	m.OrphanedTotal.Inc()
}

// SetQueueDepth updates the gauge for one queue's pending count.
func (m *Metrics) SetQueueDepth(queue string, depth int) {
	m.QueueDepth.WithLabelValues(queue).Set(float64(depth))
}

// SetRunningCompactions updates the running-table size gauge.
func (m *Metrics) SetRunningCompactions(count int) {
	m.RunningCompactions.Set(float64(count))
}

// SetTabletServersActive updates the known-tservers gauge.
func (m *Metrics) SetTabletServersActive(count int) {
	m.TabletServersActive.Set(float64(count))
}

// RecordPollCycle records the wall-clock duration of one poll cycle.
func (m *Metrics) RecordPollCycle(durationSeconds float64) {
	m.PollCycleDuration.Observe(durationSeconds)
}

// RecordPollRPCFailure records a failed GetCompactionQueueInfo call.
func (m *Metrics) RecordPollRPCFailure(tserver string) {
	m.PollRPCFailures.WithLabelValues(tserver).Inc()
}
