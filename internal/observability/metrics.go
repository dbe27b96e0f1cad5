package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const Namespace = "commentctl"

// Metrics groups the console's instruments on a private registry so tests
// and multiple sessions never collide on the global one.
type Metrics struct {
	registry *prometheus.Registry

	RegistryRequests *prometheus.CounterVec
	RegistryLatency  *prometheus.HistogramVec
	Polls            *prometheus.CounterVec
	TrackedTasks     prometheus.Gauge
	Alerts           *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)
	return &Metrics{
		registry: registry,
		RegistryRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "registry_requests_total",
			Help:      "Task registry requests by operation and outcome.",
		}, []string{"op", "outcome"}),
		RegistryLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "registry_request_seconds",
			Help:      "Task registry request latency by operation.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"op"}),
		Polls: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "polls_total",
			Help:      "Running-task polls by outcome (success, failure, skipped).",
		}, []string{"outcome"}),
		TrackedTasks: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "tracked_tasks",
			Help:      "Running tasks in the last successful poll.",
		}),
		Alerts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "alerts_total",
			Help:      "Operator alerts raised by level.",
		}, []string{"level"}),
	}
}

func (m *Metrics) ObserveRequest(op, outcome string, elapsed time.Duration) {
	m.RegistryRequests.WithLabelValues(op, outcome).Inc()
	m.RegistryLatency.WithLabelValues(op).Observe(elapsed.Seconds())
}

func (m *Metrics) ObservePoll(outcome string) {
	m.Polls.WithLabelValues(outcome).Inc()
}

func (m *Metrics) SetTrackedTasks(count int) {
	m.TrackedTasks.Set(float64(count))
}

func (m *Metrics) ObserveAlert(level string) {
	m.Alerts.WithLabelValues(level).Inc()
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
