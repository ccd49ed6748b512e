// Package observability exposes the prometheus metrics of a game session.
//
// A nil *Metrics is valid and records nothing, so callers never need to
// check whether metrics are enabled.
package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "cribbage"

type Metrics struct {
	registry *prometheus.Registry

	sent         *prometheus.CounterVec
	received     *prometheus.CounterVec
	duplicates   prometheus.Counter
	buffered     prometheus.Counter
	rejected     *prometheus.CounterVec
	sendFailures prometheus.Counter
	sendDuration prometheus.Histogram
	desyncs      prometheus.Counter
	resyncs      *prometheus.CounterVec
	transitions  *prometheus.CounterVec
	points       *prometheus.CounterVec
	games        *prometheus.CounterVec
}

// New creates the metrics on a private registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		sent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_sent_total",
			Help:      "Messages sent to the opponent.",
		}, []string{"type"}),
		received: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_received_total",
			Help:      "Messages received from the opponent.",
		}, []string{"type"}),
		duplicates: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_duplicate_total",
			Help:      "Received messages dropped because their id was already seen.",
		}),
		buffered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_buffered_total",
			Help:      "Messages held back because they arrived before the local state could accept them.",
		}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "actions_rejected_total",
			Help:      "Actions refused by the rules engine.",
		}, []string{"origin"}),
		sendFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "send_failures_total",
			Help:      "Messages that could not be delivered after all retries.",
		}),
		sendDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "send_duration_seconds",
			Help:      "Time spent delivering a message, retries included.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
		desyncs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "desyncs_total",
			Help:      "Remote moves that disagreed with the local state.",
		}),
		resyncs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resyncs_total",
			Help:      "State sync attempts by result.",
		}, []string{"result"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "phase_transitions_total",
			Help:      "Phase changes of the game state machine.",
		}, []string{"from", "to"}),
		points: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "points_total",
			Help:      "Points pegged by seat and reason.",
		}, []string{"seat", "reason"}),
		games: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "games_finished_total",
			Help:      "Finished games by local result.",
		}, []string{"result"}),
	}
	m.registry.MustRegister(
		m.sent, m.received, m.duplicates, m.buffered, m.rejected,
		m.sendFailures, m.sendDuration, m.desyncs, m.resyncs,
		m.transitions, m.points, m.games,
	)
	return m
}

// Registry returns the registry holding the metrics.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the metrics in the prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) MessageSent(msgType string, took time.Duration) {
	if m == nil {
		return
	}
	m.sent.WithLabelValues(msgType).Inc()
	m.sendDuration.Observe(took.Seconds())
}

func (m *Metrics) SendFailed() {
	if m == nil {
		return
	}
	m.sendFailures.Inc()
}

func (m *Metrics) MessageReceived(msgType string) {
	if m == nil {
		return
	}
	m.received.WithLabelValues(msgType).Inc()
}

func (m *Metrics) Duplicate() {
	if m == nil {
		return
	}
	m.duplicates.Inc()
}

func (m *Metrics) Buffered() {
	if m == nil {
		return
	}
	m.buffered.Inc()
}

// Rejected counts an action refused by the rules, origin is "local" or "remote".
func (m *Metrics) Rejected(origin string) {
	if m == nil {
		return
	}
	m.rejected.WithLabelValues(origin).Inc()
}

func (m *Metrics) Desync() {
	if m == nil {
		return
	}
	m.desyncs.Inc()
}

// Resync records the result of a state sync: "recovered", "in_sync" or "failed".
func (m *Metrics) Resync(result string) {
	if m == nil {
		return
	}
	m.resyncs.WithLabelValues(result).Inc()
}

func (m *Metrics) Transition(from, to string) {
	if m == nil || from == to {
		return
	}
	m.transitions.WithLabelValues(from, to).Inc()
}

func (m *Metrics) Points(seat, reason string, points int) {
	if m == nil || points <= 0 {
		return
	}
	m.points.WithLabelValues(seat, reason).Add(float64(points))
}

// GameFinished records "won" or "lost" from the local player's view.
func (m *Metrics) GameFinished(result string) {
	if m == nil {
		return
	}
	m.games.WithLabelValues(result).Inc()
}
