// Package metrics defines the Prometheus collectors of the property server.
package metrics

import (
	"net/http"
	"time"

	"github.com/j-emberton/HXforge/internal/engine"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "hxforge"

type Metrics struct {
	registry *prometheus.Registry

	TableLoads  *prometheus.CounterVec
	TableRows   *prometheus.GaugeVec
	Evaluations *prometheus.CounterVec
	EvalSeconds *prometheus.HistogramVec
	Sessions    prometheus.Gauge
}

// New registers every collector on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Metrics{
		registry: reg,
		TableLoads: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "table_loads_total",
			Help:      "Fluid table load attempts by outcome.",
		}, []string{"fluid", "outcome"}),
		TableRows: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "table_rows",
			Help:      "Rows in the currently loaded fluid table.",
		}, []string{"fluid"}),
		Evaluations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "evaluations_total",
			Help:      "Property evaluations by strategy and outcome.",
		}, []string{"fluid", "strategy", "outcome"}),
		EvalSeconds: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "evaluation_seconds",
			Help:      "Time spent computing property rows.",
			Buckets:   prometheus.ExponentialBuckets(1e-7, 4, 10),
		}, []string{"strategy"}),
		Sessions: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions",
			Help:      "Open evaluator sessions.",
		}),
	}
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveLoad matches the engine.TableStore OnLoad hook.
func (m *Metrics) ObserveLoad(fluid string, t *engine.Table, err error) {
	if err != nil {
		m.TableLoads.WithLabelValues(fluid, "error").Inc()
		return
	}
	m.TableLoads.WithLabelValues(fluid, "ok").Inc()
	m.TableRows.WithLabelValues(fluid).Set(float64(t.Len()))
}

// ForgetTable drops the row gauge of a table that changed on disk.
func (m *Metrics) ForgetTable(fluid string) {
	m.TableRows.DeleteLabelValues(fluid)
}

// ObserveEvaluation records one strategy call started at start.
func (m *Metrics) ObserveEvaluation(fluid string, kind engine.Kind, start time.Time, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.Evaluations.WithLabelValues(fluid, string(kind), outcome).Inc()
	m.EvalSeconds.WithLabelValues(string(kind)).Observe(time.Since(start).Seconds())
}
