// Package metrics provides Prometheus metrics for the moderation pipeline
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ModerationMetrics contains Prometheus metrics for the worker loops and the scoring engine.
// All methods are safe to call on a nil receiver so services can run without metrics.
type ModerationMetrics struct {
	registry *prometheus.Registry

	itemsProcessed      *prometheus.CounterVec
	tickErrors          *prometheus.CounterVec
	classifierFallbacks prometheus.Counter
	finalScore          prometheus.Histogram
	scoringDuration     prometheus.Histogram
	queueDepth          *prometheus.GaugeVec
	stuckResets         prometheus.Counter

	thresholds      *prometheus.GaugeVec
	thresholdRuns   *prometheus.CounterVec
	retrainRuns     *prometheus.CounterVec
	activeModel     prometheus.Gauge
	goldLabels      *prometheus.CounterVec
	notifyFailures  *prometheus.CounterVec

	collectors []prometheus.Collector
}

// NewModerationMetrics creates the metrics and registers them on registry
func NewModerationMetrics(registry *prometheus.Registry) (*ModerationMetrics, error) {
	m := &ModerationMetrics{registry: registry}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *ModerationMetrics) initMetrics() {
	m.itemsProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moderation_items_processed_total",
			Help: "Content items scored, by decision",
		},
		[]string{"decision"},
	)

	m.tickErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moderation_tick_errors_total",
			Help: "Failed loop iterations, by loop",
		},
		[]string{"loop"},
	)

	m.classifierFallbacks = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "moderation_classifier_fallbacks_total",
			Help: "Scoring passes that fell back to lexicon-only scores after a classifier failure",
		},
	)

	m.finalScore = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "moderation_final_score",
			Help:    "Distribution of final scores",
			Buckets: prometheus.LinearBuckets(0.05, 0.1, 12),
		},
	)

	m.scoringDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "moderation_scoring_duration_seconds",
			Help:    "Time taken by one scoring pass including persistence",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12), // 0.5ms to ~1s
		},
	)

	m.queueDepth = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "moderation_queue_items",
			Help: "Content items by status, sampled when the queue runs empty",
		},
		[]string{"status"},
	)

	m.stuckResets = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "moderation_stuck_resets_total",
			Help: "Items returned to the queue by stuck-item resets",
		},
	)

	m.thresholds = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "moderation_threshold",
			Help: "Current decision thresholds",
		},
		[]string{"name"},
	)

	m.thresholdRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moderation_threshold_updates_total",
			Help: "Threshold adaptation runs, by result (adjusted, unchanged, insufficient)",
		},
		[]string{"result"},
	)

	m.retrainRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moderation_retrain_runs_total",
			Help: "Retraining runs, by result (trained, skipped, insufficient, failed)",
		},
		[]string{"result"},
	)

	m.activeModel = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "moderation_active_model_version",
			Help: "Version of the live classifier, 0 when none is loaded",
		},
	)

	m.goldLabels = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moderation_gold_labels_total",
			Help: "Gold labels assigned by moderators",
		},
		[]string{"label"},
	)

	m.notifyFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moderation_notify_failures_total",
			Help: "Result notifications that could not be delivered, by sink",
		},
		[]string{"sink"},
	)

	m.collectors = []prometheus.Collector{
		m.itemsProcessed,
		m.tickErrors,
		m.classifierFallbacks,
		m.finalScore,
		m.scoringDuration,
		m.queueDepth,
		m.stuckResets,
		m.thresholds,
		m.thresholdRuns,
		m.retrainRuns,
		m.activeModel,
		m.goldLabels,
		m.notifyFailures,
	}
}

// Describe implements prometheus.Collector
func (m *ModerationMetrics) Describe(ch chan<- *prometheus.Desc) {
	for _, c := range m.collectors {
		c.Describe(ch)
	}
}

// Collect implements prometheus.Collector
func (m *ModerationMetrics) Collect(ch chan<- prometheus.Metric) {
	for _, c := range m.collectors {
		c.Collect(ch)
	}
}

// RecordScored records one completed scoring pass
func (m *ModerationMetrics) RecordScored(decision string, finalScore float64, d time.Duration) {
	if m == nil {
		return
	}
	m.itemsProcessed.WithLabelValues(decision).Inc()
	m.finalScore.Observe(finalScore)
	m.scoringDuration.Observe(d.Seconds())
}

func (m *ModerationMetrics) RecordTickError(loop string) {
	if m == nil {
		return
	}
	m.tickErrors.WithLabelValues(loop).Inc()
}

func (m *ModerationMetrics) RecordClassifierFallback() {
	if m == nil {
		return
	}
	m.classifierFallbacks.Inc()
}

// SetQueueDepth sets the gauge for one content status
func (m *ModerationMetrics) SetQueueDepth(status string, n int64) {
	if m == nil {
		return
	}
	m.queueDepth.WithLabelValues(status).Set(float64(n))
}

func (m *ModerationMetrics) RecordStuckReset(n int64) {
	if m == nil {
		return
	}
	m.stuckResets.Add(float64(n))
}

// SetThresholds publishes the current decision thresholds
func (m *ModerationMetrics) SetThresholds(allow, review, block float64) {
	if m == nil {
		return
	}
	m.thresholds.WithLabelValues("allow").Set(allow)
	m.thresholds.WithLabelValues("review").Set(review)
	m.thresholds.WithLabelValues("block").Set(block)
}

func (m *ModerationMetrics) RecordThresholdRun(result string) {
	if m == nil {
		return
	}
	m.thresholdRuns.WithLabelValues(result).Inc()
}

func (m *ModerationMetrics) RecordRetrain(result string) {
	if m == nil {
		return
	}
	m.retrainRuns.WithLabelValues(result).Inc()
}

func (m *ModerationMetrics) SetActiveModel(version int) {
	if m == nil {
		return
	}
	m.activeModel.Set(float64(version))
}

func (m *ModerationMetrics) RecordGoldLabel(label string) {
	if m == nil {
		return
	}
	m.goldLabels.WithLabelValues(label).Inc()
}

func (m *ModerationMetrics) RecordNotifyFailure(sink string) {
	if m == nil {
		return
	}
	m.notifyFailures.WithLabelValues(sink).Inc()
}

// Registry returns the registry the metrics were registered on
func (m *ModerationMetrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}
