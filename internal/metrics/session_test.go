package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nevet/basic-MCI-Recorder/internal/session"
)

func TestSessionMetricsTransitions(t *testing.T) {
	registry := prometheus.NewRegistry()
	m, err := NewSessionMetrics(registry)
	require.NoError(t, err)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.Mode.WithLabelValues("IDLE")))

	m.Transition(session.ModeIdle, session.ModeRecording)
	m.Transition(session.ModeRecording, session.ModePaused)
	m.Transition(session.ModePaused, session.ModeRecording)
	m.Transition(session.ModeRecording, session.ModePaused)

	assert.Equal(t, float64(2), testutil.ToFloat64(m.TransitionsTotal.WithLabelValues("RECORDING", "PAUSED")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.TransitionsTotal.WithLabelValues("IDLE", "RECORDING")))

	assert.Equal(t, float64(1), testutil.ToFloat64(m.Mode.WithLabelValues("PAUSED")))
	assert.Equal(t, float64(0), testutil.ToFloat64(m.Mode.WithLabelValues("RECORDING")))
	assert.Equal(t, float64(0), testutil.ToFloat64(m.Mode.WithLabelValues("IDLE")))
}

func TestSessionMetricsFailuresAndNotifications(t *testing.T) {
	registry := prometheus.NewRegistry()
	m, err := NewSessionMetrics(registry)
	require.NoError(t, err)

	testCases := []struct {
		name    string
		command string
		count   int
	}{
		{"record failures", "record", 3},
		{"save failures", "save", 1},
		{"status failures", "status length", 2},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			for range tc.count {
				m.CommandFailed(tc.command)
			}
			assert.Equal(t, float64(tc.count), testutil.ToFloat64(m.CommandFailuresTotal.WithLabelValues(tc.command)))
		})
	}

	m.Notified(session.NotifySuccess)
	m.Notified(session.NotifyAborted)
	m.Notified(session.NotifySuccess)

	assert.Equal(t, float64(2), testutil.ToFloat64(m.NotificationsTotal.WithLabelValues("success")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.NotificationsTotal.WithLabelValues("aborted")))
}

func TestSessionMetricsRegisterOnce(t *testing.T) {
	registry := prometheus.NewRegistry()
	m, err := NewSessionMetrics(registry)
	require.NoError(t, err)
	assert.Same(t, registry, m.Registry())

	_, err = NewSessionMetrics(registry)
	assert.Error(t, err, "registering twice on one registry must fail")

	count, err := testutil.GatherAndCount(registry, "mcirecorder_session_mode")
	require.NoError(t, err)
	assert.Equal(t, 4, count)
}
