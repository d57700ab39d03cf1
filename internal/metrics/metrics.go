// Package metrics exposes the prometheus collectors the pricing engine
// updates as it runs: skipped-trial warnings, fit iteration counts, final
// MSRE, and optimiser reversal counts. Modeled on
// internal/interfaces/http/metrics.go's MetricsRegistry in the teacher repo.
// No HTTP endpoint is served here (spec Non-goal: no networked surface) —
// the registry is constructed by the caller and handed to the engine, which
// only increments/observes it.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Registry holds every collector the engine touches.
type Registry struct {
	SkippedTrialWarnings prometheus.Counter
	FitIterations        prometheus.Histogram
	FitFinalMSRE         prometheus.Gauge
	OptimiserReversals   *prometheus.CounterVec
	ConvergenceExceeded  prometheus.Counter
}

// NewRegistry constructs a fresh, unregistered Registry.
func NewRegistry() *Registry {
	return &Registry{
		SkippedTrialWarnings: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "racepricer_podium_skipped_trial_warnings_total",
			Help: "Number of Monte Carlo runs whose skipped-trial fraction exceeded the warning threshold.",
		}),
		FitIterations: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "racepricer_online_fit_iterations",
			Help:    "Iterations consumed by the online weight fitter per pricing request.",
			Buckets: []float64{1, 2, 3, 5, 8, 13, 21, 34},
		}),
		FitFinalMSRE: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "racepricer_online_fit_final_msre",
			Help: "Mean squared relative error of the most recently completed online fit.",
		}),
		OptimiserReversals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "racepricer_optimizer_reversals_total",
			Help: "Direction reversals consumed by the univariate descent optimiser, by caller.",
		}, []string{"caller"}),
		ConvergenceExceeded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "racepricer_online_fit_convergence_exceeded_total",
			Help: "Online fits that exhausted max_iterations without reaching target_msre.",
		}),
	}
}

// Collectors returns every metric as a prometheus.Collector, for bulk
// registration against a caller-owned prometheus.Registerer.
func (r *Registry) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		r.SkippedTrialWarnings,
		r.FitIterations,
		r.FitFinalMSRE,
		r.OptimiserReversals,
		r.ConvergenceExceeded,
	}
}

// MustRegister registers every collector against reg, panicking on a
// duplicate-registration error (mirrors the teacher's NewMetricsRegistry
// call sites, which register once at process startup).
func (r *Registry) MustRegister(reg prometheus.Registerer) {
	reg.MustRegister(r.Collectors()...)
}
