package observability

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the Prometheus counters and gauges for the coordination core.
type Metrics struct {
	FeedFetches  *prometheus.CounterVec // labels: source, outcome={success,error}
	SnapshotSize *prometheus.GaugeVec   // labels: source

	ChatTurns        *prometheus.CounterVec // labels: outcome={ok,fallback,rejected}
	ChatTurnDuration prometheus.Histogram

	SelectionChanges prometheus.Counter
}

// NewMetrics creates and registers all core metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		FeedFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pulsemap",
			Name:      "feed_fetches_total",
			Help:      "Feed refresh attempts by source and outcome.",
		}, []string{"source", "outcome"}),
		SnapshotSize: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "pulsemap",
			Name:      "snapshot_features",
			Help:      "Feature count in the current snapshot of each source.",
		}, []string{"source"}),
		ChatTurns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pulsemap",
			Name:      "chat_turns_total",
			Help:      "Chat turns by outcome.",
		}, []string{"outcome"}),
		ChatTurnDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "pulsemap",
			Name:      "chat_turn_duration_seconds",
			Help:      "Duration of a complete chat turn including reveal.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		SelectionChanges: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pulsemap",
			Name:      "selection_changes_total",
			Help:      "Times the active selection was replaced.",
		}),
	}

	prometheus.MustRegister(
		m.FeedFetches,
		m.SnapshotSize,
		m.ChatTurns,
		m.ChatTurnDuration,
		m.SelectionChanges,
	)
	return m
}
