// Package metrics provides Prometheus metrics for the recorder session.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/nevet/basic-MCI-Recorder/internal/session"
)

var modes = []session.Mode{session.ModeIdle, session.ModeRecording, session.ModePaused, session.ModePlaying}

// SessionMetrics counts controller activity. It implements session.Observer.
type SessionMetrics struct {
	TransitionsTotal     *prometheus.CounterVec // Mode changes by from and to
	CommandFailuresTotal *prometheus.CounterVec // Failed backend commands by command
	NotificationsTotal   *prometheus.CounterVec // Backend notifications by kind
	Mode                 *prometheus.GaugeVec   // 1 for the current mode, 0 otherwise

	registry *prometheus.Registry
}

// NewSessionMetrics creates the session metrics and registers them with registry.
func NewSessionMetrics(registry *prometheus.Registry) (*SessionMetrics, error) {
	m := &SessionMetrics{registry: registry}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, fmt.Errorf("failed to register session metrics: %w", err)
	}

	m.setMode(session.ModeIdle)
	return m, nil
}

func (m *SessionMetrics) initMetrics() {
	m.TransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mcirecorder_session_transitions_total",
			Help: "Total number of session mode transitions",
		},
		[]string{"from", "to"},
	)

	m.CommandFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mcirecorder_backend_command_failures_total",
			Help: "Total number of failed backend commands",
		},
		[]string{"command"},
	)

	m.NotificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mcirecorder_backend_notifications_total",
			Help: "Total number of playback notifications received from the backend",
		},
		[]string{"kind"}, // kind: success, aborted, failure
	)

	m.Mode = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "mcirecorder_session_mode",
			Help: "Current session mode (1 for the active mode)",
		},
		[]string{"mode"},
	)
}

func (m *SessionMetrics) Transition(from, to session.Mode) {
	m.TransitionsTotal.WithLabelValues(from.String(), to.String()).Inc()
	m.setMode(to)
}

func (m *SessionMetrics) CommandFailed(command string) {
	m.CommandFailuresTotal.WithLabelValues(command).Inc()
}

func (m *SessionMetrics) Notified(kind session.NotifyKind) {
	m.NotificationsTotal.WithLabelValues(kind.String()).Inc()
}

func (m *SessionMetrics) setMode(current session.Mode) {
	for _, mode := range modes {
		value := 0.0
		if mode == current {
			value = 1
		}
		m.Mode.WithLabelValues(mode.String()).Set(value)
	}
}

// Registry returns the registry the metrics were registered with.
func (m *SessionMetrics) Registry() *prometheus.Registry {
	return m.registry
}

// Describe implements the prometheus.Collector interface.
func (m *SessionMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.TransitionsTotal.Describe(ch)
	m.CommandFailuresTotal.Describe(ch)
	m.NotificationsTotal.Describe(ch)
	m.Mode.Describe(ch)
}

// Collect implements the prometheus.Collector interface.
func (m *SessionMetrics) Collect(ch chan<- prometheus.Metric) {
	m.TransitionsTotal.Collect(ch)
	m.CommandFailuresTotal.Collect(ch)
	m.NotificationsTotal.Collect(ch)
	m.Mode.Collect(ch)
}
