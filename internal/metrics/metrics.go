// Package metrics exposes the server's prometheus collectors.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "voice_chat"

type Metrics struct {
	Registry *prometheus.Registry

	activeConnections prometheus.Gauge
	roomParticipants  *prometheus.GaugeVec
	audioQuality      *prometheus.GaugeVec
	messagesRelayed   *prometheus.CounterVec
	relayFailures     *prometheus.CounterVec
	deliveryFailures  prometheus.Counter
	persistLatency    prometheus.Histogram
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		Registry: reg,
		activeConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_connections",
			Help:      "Live signaling connections.",
		}),
		roomParticipants: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "room_participants",
			Help:      "Users in each room roster.",
		}, []string{"room_id"}),
		audioQuality: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "audio_quality",
			Help:      "Last reported audio quality score (0-100) per room.",
		}, []string{"room_id"}),
		messagesRelayed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_sent_total",
			Help:      "Messages persisted and broadcast.",
		}, []string{"type"}),
		relayFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "relay_failures_total",
			Help:      "Messages rejected before broadcast.",
		}, []string{"reason"}),
		deliveryFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "delivery_failures_total",
			Help:      "Frames that could not be queued to a connection.",
		}),
		persistLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "persist_latency_seconds",
			Help:      "Time spent storing a message.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.3, 0.5, 1, 2},
		}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.activeConnections,
		m.roomParticipants,
		m.audioQuality,
		m.messagesRelayed,
		m.relayFailures,
		m.deliveryFailures,
		m.persistLatency,
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}

func (m *Metrics) ConnOpened() {
	if m != nil {
		m.activeConnections.Inc()
	}
}

func (m *Metrics) ConnClosed() {
	if m != nil {
		m.activeConnections.Dec()
	}
}

// SetRoomParticipants drops the series once a room is empty so dead rooms
// do not accumulate labels.
func (m *Metrics) SetRoomParticipants(room string, n int) {
	if m == nil {
		return
	}
	if n == 0 {
		m.roomParticipants.DeleteLabelValues(room)
		m.audioQuality.DeleteLabelValues(room)
		return
	}
	m.roomParticipants.WithLabelValues(room).Set(float64(n))
}

func (m *Metrics) SetAudioQuality(room string, q float64) {
	if m != nil {
		m.audioQuality.WithLabelValues(room).Set(q)
	}
}

func (m *Metrics) MessageRelayed(kind string) {
	if m != nil {
		m.messagesRelayed.WithLabelValues(kind).Inc()
	}
}

func (m *Metrics) RelayFailed(reason string) {
	if m != nil {
		m.relayFailures.WithLabelValues(reason).Inc()
	}
}

func (m *Metrics) DeliveryFailed() {
	if m != nil {
		m.deliveryFailures.Inc()
	}
}

func (m *Metrics) ObservePersist(d time.Duration) {
	if m != nil {
		m.persistLatency.Observe(d.Seconds())
	}
}
