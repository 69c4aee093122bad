// Package metrics exposes Prometheus metrics for the publishing engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics. Construct exactly once per process;
// promauto registers against the default registry.
type Metrics struct {
	// Frame metrics
	FramesSent    *prometheus.CounterVec
	FramesDropped *prometheus.CounterVec
	Keyframes     prometheus.Counter

	// Transport metrics
	BytesSent       prometheus.Counter
	ConnectAttempts prometheus.Counter
	ConnectFailures prometheus.Counter
	Disconnects     prometheus.Counter

	// State metrics
	ConnectionState prometheus.Gauge
	QueueDepth      prometheus.Gauge
	QueueDropped    prometheus.Gauge
}

// New creates and registers all metrics.
func New() *Metrics {
	return &Metrics{
		FramesSent: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "streampush_frames_sent_total",
				Help: "Total number of frames sent to the ingest server",
			},
			[]string{"type"}, // video or audio
		),
		FramesDropped: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "streampush_frames_dropped_total",
				Help: "Total number of frames dropped before reaching the wire",
			},
			[]string{"type", "reason"},
		),
		Keyframes: promauto.NewCounter(prometheus.CounterOpts{
			Name: "streampush_keyframes_total",
			Help: "Total number of keyframes sent",
		}),
		BytesSent: promauto.NewCounter(prometheus.CounterOpts{
			Name: "streampush_bytes_sent_total",
			Help: "Total bytes written to the ingest connection",
		}),
		ConnectAttempts: promauto.NewCounter(prometheus.CounterOpts{
			Name: "streampush_connect_attempts_total",
			Help: "Total number of connection attempts",
		}),
		ConnectFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "streampush_connect_failures_total",
			Help: "Total number of failed connection attempts",
		}),
		Disconnects: promauto.NewCounter(prometheus.CounterOpts{
			Name: "streampush_disconnects_total",
			Help: "Total number of disconnects",
		}),
		ConnectionState: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "streampush_connection_state",
			Help: "Current connection state (0 disconnected, 1 connecting, 2 connected, 3 publishing, 4 error)",
		}),
		QueueDepth: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "streampush_queue_depth",
			Help: "Frames currently waiting in the outbound queue",
		}),
		QueueDropped: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "streampush_queue_dropped_total",
			Help: "Frames dropped by the outbound queue under pressure",
		}),
	}
}

// RecordFrameSent records a frame delivered to the server.
func (m *Metrics) RecordFrameSent(frameType string, keyframe bool) {
	if m == nil {
		return
	}
	m.FramesSent.WithLabelValues(frameType).Inc()
	if keyframe {
		m.Keyframes.Inc()
	}
}

// RecordFrameDropped records a frame dropped before the wire.
func (m *Metrics) RecordFrameDropped(frameType, reason string) {
	if m == nil {
		return
	}
	m.FramesDropped.WithLabelValues(frameType, reason).Inc()
}

// RecordBytes records bytes written to the connection.
func (m *Metrics) RecordBytes(n uint64) {
	if m == nil {
		return
	}
	m.BytesSent.Add(float64(n))
}

// RecordConnectAttempt records a connection attempt.
func (m *Metrics) RecordConnectAttempt() {
	if m == nil {
		return
	}
	m.ConnectAttempts.Inc()
}

// RecordConnectFailure records a failed connection attempt.
func (m *Metrics) RecordConnectFailure() {
	if m == nil {
		return
	}
	m.ConnectFailures.Inc()
}

// RecordDisconnect records a disconnect.
func (m *Metrics) RecordDisconnect() {
	if m == nil {
		return
	}
	m.Disconnects.Inc()
}

// SetConnectionState records the numeric connection state.
func (m *Metrics) SetConnectionState(state int) {
	if m == nil {
		return
	}
	m.ConnectionState.Set(float64(state))
}

// SetQueueStats records queue depth and cumulative drops.
func (m *Metrics) SetQueueStats(depth uint32, dropped uint64) {
	if m == nil {
		return
	}
	m.QueueDepth.Set(float64(depth))
	m.QueueDropped.Set(float64(dropped))
}
