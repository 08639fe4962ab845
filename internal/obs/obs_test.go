package obs

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsSnapshot(t *testing.T) {
	m := NewMetrics()
	m.RecordFrameParsed()
	m.RecordFrameParsed()
	m.RecordGarbageDropped(7)
	m.RecordTransactionTimedOut()

	snap := m.Snapshot()
	assert.Equal(t, uint64(2), snap.FramesParsed)
	assert.Equal(t, uint64(7), snap.GarbageBytesDropped)
	assert.Equal(t, uint64(1), snap.TransactionsTimedOut)
	assert.Equal(t, uint64(0), snap.ReopenAttempts)
}

func TestPrometheusExporterRegistersAndCollects(t *testing.T) {
	m := NewMetrics()
	m.RecordFrameParsed()
	m.RecordReopenAttempt()

	reg := prometheus.NewRegistry()
	exp := NewPrometheusExporter(m)
	require.NoError(t, reg.Register(exp))

	families, err := reg.Gather()
	require.NoError(t, err)

	found := map[string]float64{}
	for _, mf := range families {
		for _, metric := range mf.GetMetric() {
			found[mf.GetName()] = metric.GetCounter().GetValue()
		}
	}

	assert.Equal(t, float64(1), found["serialio_frames_parsed_total"])
	assert.Equal(t, float64(1), found["serialio_reopen_attempts_total"])
	assert.Equal(t, float64(0), found["serialio_frames_aborted_total"])
}

func TestNopLoggerDoesNotPanic(t *testing.T) {
	l := NewNop()
	assert.NotPanics(t, func() {
		l.Infow("hello", "key", "value")
		l.Errorw("oops", "err", assert.AnError)
		_ = l.Sync()
	})
}

func TestNewAtLevelRejectsUnknownLevel(t *testing.T) {
	_, err := NewAtLevel("verbose")
	assert.Error(t, err)
}

func TestNewAtLevelAcceptsKnownLevels(t *testing.T) {
	for _, lvl := range []string{"debug", "info", "warn", "error"} {
		l, err := NewAtLevel(lvl)
		require.NoError(t, err)
		require.NotNil(t, l)
	}
}
