package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "city_islands"

// Metrics holds the Prometheus collectors for refresh cycles, widgets and adapters.
type Metrics struct {
	RefreshCycles prometheus.Counter
	StaleCycles   prometheus.Counter
	Sessions      prometheus.Gauge

	// Widget metrics.
	WidgetOutcomes *prometheus.CounterVec // labels: widget, stage={remote,heuristic,none}
	WidgetFailures *prometheus.CounterVec // labels: widget

	// External calls.
	AdapterDuration  *prometheus.HistogramVec // labels: adapter
	ProviderRequests *prometheus.CounterVec   // labels: provider, outcome={success,error}
}

// NewMetrics creates all collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RefreshCycles: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refresh_cycles_total",
			Help:      "Widget refresh cycles started.",
		}),
		StaleCycles: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stale_cycles_total",
			Help:      "Refresh cycles whose results were discarded because a newer selection superseded them.",
		}),
		Sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions",
			Help:      "Live page sessions.",
		}),
		WidgetOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "widget_outcomes_total",
			Help:      "Widget computations by producing stage.",
		}, []string{"widget", "stage"}),
		WidgetFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "widget_failures_total",
			Help:      "Widgets rendered in the failed state.",
		}, []string{"widget"}),
		AdapterDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "adapter_duration_seconds",
			Help:      "Remote adapter call duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"adapter"}),
		ProviderRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "weather_provider_requests_total",
			Help:      "Weather provider requests by outcome.",
		}, []string{"provider", "outcome"}),
	}

	reg.MustRegister(
		m.RefreshCycles,
		m.StaleCycles,
		m.Sessions,
		m.WidgetOutcomes,
		m.WidgetFailures,
		m.AdapterDuration,
		m.ProviderRequests,
	)

	return m
}

// NewMetricsForTesting creates Metrics on a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return NewMetrics(prometheus.NewRegistry())
}

// ObserveProvider records one weather provider call.
func (m *Metrics) ObserveProvider(provider string, d time.Duration, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.ProviderRequests.WithLabelValues(provider, outcome).Inc()
	m.AdapterDuration.WithLabelValues("weather:" + provider).Observe(d.Seconds())
}
