package recipe

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics is the subset of run-level counters a Controller reports to,
// letting callers plug in Prometheus (or a test double) without the core
// scheduler depending on any particular backend.
type Metrics interface {
	SetActiveTasks(runID string, n int)
	SetProgress(runID string, current, maximum int)
	ObserveNodeOutcome(runID string, kind string, outcome string)
	IncCancellations(runID string)
}

// NullMetrics discards everything; the Controller default when no metrics
// option is supplied.
type NullMetrics struct{}

func (NullMetrics) SetActiveTasks(string, int)             {}
func (NullMetrics) SetProgress(string, int, int)           {}
func (NullMetrics) ObserveNodeOutcome(string, string, string) {}
func (NullMetrics) IncCancellations(string)                {}

// PrometheusMetrics implements Metrics on top of client_golang: gauges for
// active task count and progress, counters for node outcomes and
// cancellations, all labeled by run id.
type PrometheusMetrics struct {
	activeTasks  *prometheus.GaugeVec
	progress     *prometheus.GaugeVec
	progressMax  *prometheus.GaugeVec
	outcomes     *prometheus.CounterVec
	cancellations *prometheus.CounterVec
}

// NewPrometheusMetrics registers every metric with registry (pass
// prometheus.DefaultRegisterer for the global registry).
func NewPrometheusMetrics(registry prometheus.Registerer) *PrometheusMetrics {
	factory := promauto.With(registry)
	return &PrometheusMetrics{
		activeTasks: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "taskrecipe",
			Name:      "active_tasks",
			Help:      "Number of Task leaves currently Running, per run.",
		}, []string{"run_id"}),
		progress: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "taskrecipe",
			Name:      "progress_current",
			Help:      "Completed asynchronous leaves, per run.",
		}, []string{"run_id"}),
		progressMax: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "taskrecipe",
			Name:      "progress_maximum",
			Help:      "Total asynchronous leaves compiled into the run.",
		}, []string{"run_id"}),
		outcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "taskrecipe",
			Name:      "node_outcomes_total",
			Help:      "Terminal node outcomes, by node kind and outcome.",
		}, []string{"run_id", "kind", "outcome"}),
		cancellations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "taskrecipe",
			Name:      "cancellations_total",
			Help:      "Cancellations requested, per run.",
		}, []string{"run_id"}),
	}
}

func (m *PrometheusMetrics) SetActiveTasks(runID string, n int) {
	m.activeTasks.WithLabelValues(runID).Set(float64(n))
}

func (m *PrometheusMetrics) SetProgress(runID string, current, maximum int) {
	m.progress.WithLabelValues(runID).Set(float64(current))
	m.progressMax.WithLabelValues(runID).Set(float64(maximum))
}

func (m *PrometheusMetrics) ObserveNodeOutcome(runID, kind, outcome string) {
	m.outcomes.WithLabelValues(runID, kind, outcome).Inc()
}

func (m *PrometheusMetrics) IncCancellations(runID string) {
	m.cancellations.WithLabelValues(runID).Inc()
}
