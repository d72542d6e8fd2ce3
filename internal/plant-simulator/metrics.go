package plant_simulator

import "github.com/prometheus/client_golang/prometheus"

var metrics = struct {
	ticks         prometheus.Counter
	tickDuration  prometheus.Histogram
	deaths        prometheus.Counter
	livePlants    prometheus.Gauge
	commands      *prometheus.CounterVec
	published     *prometheus.CounterVec
	publishErrors prometheus.Counter
	droppedEvents prometheus.Counter
}{
	ticks: prometheus.NewCounter(prometheus.CounterOpts{
		Name: "greenpulse_ticks_total",
		Help: "Simulation passes run.",
	}),
	tickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "greenpulse_tick_duration_seconds",
		Help:    "Time spent in one simulation pass.",
		Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
	}),
	deaths: prometheus.NewCounter(prometheus.CounterOpts{
		Name: "greenpulse_plant_deaths_total",
		Help: "Plants that died.",
	}),
	livePlants: prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "greenpulse_live_plants",
		Help: "Live plants after the last pass.",
	}),
	commands: prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "greenpulse_commands_total",
		Help: "Inbound commands by kind and result (applied, noop, rejected, ignored, duplicate).",
	}, []string{"kind", "result"}),
	published: prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "greenpulse_events_published_total",
		Help: "Outbound events handed to the broker.",
	}, []string{"event"}),
	publishErrors: prometheus.NewCounter(prometheus.CounterOpts{
		Name: "greenpulse_publish_errors_total",
		Help: "Outbound publishes that failed or were refused by the circuit breaker.",
	}),
	droppedEvents: prometheus.NewCounter(prometheus.CounterOpts{
		Name: "greenpulse_events_dropped_total",
		Help: "Outbound events dropped because the publish queue was full.",
	}),
}

func init() {
	prometheus.MustRegister(
		metrics.ticks,
		metrics.tickDuration,
		metrics.deaths,
		metrics.livePlants,
		metrics.commands,
		metrics.published,
		metrics.publishErrors,
		metrics.droppedEvents,
	)
}
