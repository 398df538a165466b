// Package metrics exposes pipeline counters on a dedicated prometheus
// registry.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the pipeline's instruments.
type Metrics struct {
	registry *prometheus.Registry

	stageRuns           *prometheus.CounterVec
	itemsProcessed      *prometheus.CounterVec
	verdicts            *prometheus.CounterVec
	generationFallbacks prometheus.Counter
	activeStages        prometheus.Gauge
}

// New creates the metrics set on a fresh registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		stageRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pipeline",
			Name:      "stage_runs_total",
			Help:      "Stage runs by stage name and final status.",
		}, []string{"stage", "status"}),
		itemsProcessed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pipeline",
			Name:      "items_processed_total",
			Help:      "Items processed per stage.",
		}, []string{"stage"}),
		verdicts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pipeline",
			Name:      "validation_verdicts_total",
			Help:      "Validation outcomes by verdict.",
		}, []string{"verdict"}),
		generationFallbacks: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "pipeline",
			Name:      "generation_fallbacks_total",
			Help:      "Analyses that fell back to the deterministic placeholder.",
		}),
		activeStages: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "pipeline",
			Name:      "active_stages",
			Help:      "Stages currently running.",
		}),
	}
}

// Registry returns the underlying registry for the /metrics handler.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// StageStarted marks a stage as running.
func (m *Metrics) StageStarted() { m.activeStages.Inc() }

// StageFinished records the stage outcome and releases the running slot.
func (m *Metrics) StageFinished(stage, status string) {
	m.activeStages.Dec()
	m.stageRuns.WithLabelValues(stage, status).Inc()
}

// ItemsProcessed adds to a stage's processed-item count.
func (m *Metrics) ItemsProcessed(stage string, n int) {
	m.itemsProcessed.WithLabelValues(stage).Add(float64(n))
}

// VerdictRecorded counts one validation outcome.
func (m *Metrics) VerdictRecorded(verdict string) {
	m.verdicts.WithLabelValues(verdict).Inc()
}

// GenerationFallback counts one placeholder analysis.
func (m *Metrics) GenerationFallback() { m.generationFallbacks.Inc() }
