// Package metrics holds the prometheus collectors of the bot.
// All methods are safe to call on a nil *Metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "soundbig"

// Metrics bundles the registry and the collectors
type Metrics struct {
	Registry *prometheus.Registry

	enqueued            prometheus.Counter
	played              prometheus.Counter
	playFailures        prometheus.Counter
	activeDrains        prometheus.Gauge
	combinationsSaved   prometheus.Counter
	combinationsDeleted prometheus.Counter
	commands            *prometheus.CounterVec
}

// New creates a registry with the runtime collectors and the bot's own metrics
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		Registry: reg,
		enqueued: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "sounds_enqueued_total",
			Help: "Sounds added to a guild queue.",
		}),
		played: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "sounds_played_total",
			Help: "Sounds sent to a voice channel.",
		}),
		playFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "sound_play_failures_total",
			Help: "Failed attempts to send a sound, each one ends its drain.",
		}),
		activeDrains: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "active_drains",
			Help: "Guild queues currently being played.",
		}),
		combinationsSaved: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "combinations_saved_total",
			Help: "Combinations stored.",
		}),
		combinationsDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "combinations_deleted_total",
			Help: "Combinations deleted.",
		}),
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "interactions_total",
			Help: "Handled interactions by command or component action.",
		}, []string{"name"}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.enqueued, m.played, m.playFailures, m.activeDrains,
		m.combinationsSaved, m.combinationsDeleted, m.commands,
	)
	return m
}

// Handler serves the registry in the prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}

func (m *Metrics) SoundEnqueued() {
	if m != nil {
		m.enqueued.Inc()
	}
}

func (m *Metrics) SoundPlayed() {
	if m != nil {
		m.played.Inc()
	}
}

func (m *Metrics) PlayFailed() {
	if m != nil {
		m.playFailures.Inc()
	}
}

func (m *Metrics) DrainStarted() {
	if m != nil {
		m.activeDrains.Inc()
	}
}

func (m *Metrics) DrainFinished() {
	if m != nil {
		m.activeDrains.Dec()
	}
}

func (m *Metrics) CombinationSaved() {
	if m != nil {
		m.combinationsSaved.Inc()
	}
}

func (m *Metrics) CombinationDeleted() {
	if m != nil {
		m.combinationsDeleted.Inc()
	}
}

// Interaction counts a handled command or component action
func (m *Metrics) Interaction(name string) {
	if m != nil {
		m.commands.WithLabelValues(name).Inc()
	}
}
