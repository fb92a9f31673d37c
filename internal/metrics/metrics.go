// Package metrics exposes evaluation results as Prometheus gauges.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wonny/crisis-audit/internal/engine"
)

const namespace = "crisis_audit"

// Registry holds every audit metric on a private registry
// Level gauges carry the severity: 0 healthy, 1 warning, 2 critical, -1 unknown.
type Registry struct {
	reg *prometheus.Registry

	IndicatorLevel *prometheus.GaugeVec
	IndicatorValue *prometheus.GaugeVec
	Overall        prometheus.Gauge
	Liquidity      prometheus.Gauge
	Stress         prometheus.Gauge
	EntityClasses  *prometheus.GaugeVec
	FetchFailures  *prometheus.CounterVec
	Runs           *prometheus.CounterVec
	RunDuration    prometheus.Histogram
	LastRun        prometheus.Gauge
}

// New creates and registers the audit metrics
func New() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),

		IndicatorLevel: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "indicator_level",
			Help:      "Classified level per indicator (-1 unknown, 0 healthy, 1 warning, 2 critical)",
		}, []string{"indicator"}),

		IndicatorValue: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "indicator_value",
			Help:      "Raw value behind each available indicator",
		}, []string{"indicator"}),

		Overall: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "overall_level",
			Help:      "Overall verdict level",
		}),

		Liquidity: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "liquidity_composite_level",
			Help:      "Liquidity layer composite level",
		}),

		Stress: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "liquidity_stress",
			Help:      "Liquidity stress flag (-1 unknown, 0 false, 1 true)",
		}),

		EntityClasses: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "entity_class_count",
			Help:      "Entities per survivor class",
		}, []string{"class"}),

		FetchFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_failures_total",
			Help:      "Failed source fetches",
		}, []string{"source"}),

		Runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Evaluation runs by result",
		}, []string{"result"}),

		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Collect + evaluate duration",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60},
		}),

		LastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time of the last completed run",
		}),
	}

	r.reg.MustRegister(
		r.IndicatorLevel, r.IndicatorValue, r.Overall, r.Liquidity, r.Stress,
		r.EntityClasses, r.FetchFailures, r.Runs, r.RunDuration, r.LastRun,
	)
	return r
}

// ObserveReport publishes one report
func (r *Registry) ObserveReport(report engine.Report) {
	for _, ind := range report.Indicators() {
		id := string(ind.ID)
		r.IndicatorLevel.WithLabelValues(id).Set(float64(ind.Level.Severity()))
		if ind.Available {
			r.IndicatorValue.WithLabelValues(id).Set(ind.Value)
		} else {
			r.IndicatorValue.DeleteLabelValues(id)
		}
	}

	r.Overall.Set(float64(report.Overall.Severity()))
	r.Liquidity.Set(float64(report.Liquidity.Composite.Level.Severity()))

	switch report.LiquidityStress {
	case engine.FlagTrue:
		r.Stress.Set(1)
	case engine.FlagFalse:
		r.Stress.Set(0)
	default:
		r.Stress.Set(-1)
	}

	for _, c := range engine.Classes() {
		r.EntityClasses.WithLabelValues(c.String()).Set(float64(report.Durability.Classes[c]))
	}

	r.LastRun.Set(float64(report.AsOf.Unix()))
}

// ObserveFailure counts one failed fetch
func (r *Registry) ObserveFailure(source string) {
	r.FetchFailures.WithLabelValues(source).Inc()
}

// ObserveRun records a run outcome and its duration
func (r *Registry) ObserveRun(ok bool, d time.Duration) {
	result := "success"
	if !ok {
		result = "error"
	}
	r.Runs.WithLabelValues(result).Inc()
	r.RunDuration.Observe(d.Seconds())
}

// Handler serves the registry in the Prometheus exposition format
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}
