package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewModerationMetrics_Registers(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewModerationMetrics(reg)
	require.NoError(t, err)
	assert.Same(t, reg, m.Registry())

	_, err = NewModerationMetrics(reg)
	assert.Error(t, err, "registering twice on one registry must fail")
}

func TestModerationMetrics_Record(t *testing.T) {
	m, err := NewModerationMetrics(prometheus.NewRegistry())
	require.NoError(t, err)

	m.RecordScored("review", 0.32, 3*time.Millisecond)
	m.RecordScored("review", 0.40, time.Millisecond)
	m.RecordScored("allow", 0.05, time.Millisecond)
	m.RecordTickError("moderation")
	m.RecordClassifierFallback()
	m.SetQueueDepth("queued", 7)
	m.RecordStuckReset(3)
	m.SetThresholds(0.3, 0.5, 0.7)
	m.SetActiveModel(4)
	m.RecordGoldLabel("block")
	m.RecordRetrain("trained")
	m.RecordThresholdRun("adjusted")
	m.RecordNotifyFailure("redis")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.itemsProcessed.WithLabelValues("review")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.itemsProcessed.WithLabelValues("allow")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.tickErrors.WithLabelValues("moderation")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.classifierFallbacks))
	assert.Equal(t, 7.0, testutil.ToFloat64(m.queueDepth.WithLabelValues("queued")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.stuckResets))
	assert.Equal(t, 0.7, testutil.ToFloat64(m.thresholds.WithLabelValues("block")))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.activeModel))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.retrainRuns.WithLabelValues("trained")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.notifyFailures.WithLabelValues("redis")))
}

func TestModerationMetrics_NilSafe(t *testing.T) {
	var m *ModerationMetrics
	assert.NotPanics(t, func() {
		m.RecordScored("allow", 0.1, time.Millisecond)
		m.RecordTickError("retrain")
		m.SetThresholds(0.3, 0.5, 0.7)
		m.SetActiveModel(1)
		m.RecordGoldLabel("allow")
	})
	assert.Nil(t, m.Registry())
}
