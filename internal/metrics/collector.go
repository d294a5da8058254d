// Package metrics exports skeleton evaluation statistics to Prometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"mu-skeleton/internal/skeleton"
)

// Collector holds the skeleton metrics. All of them are registered on the
// Registerer passed to New.
type Collector struct {
	Evaluations      prometheus.Counter
	BonesRecomputed  prometheus.Counter
	OrderResolutions *prometheus.CounterVec
	OrderPasses      prometheus.Histogram
	Diagnostics      *prometheus.CounterVec
}

// New creates and registers the collector's metrics.
func New(reg prometheus.Registerer) *Collector {
	c := &Collector{
		Evaluations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "skeleton_evaluations_total",
			Help: "Evaluate calls that ran on a dirty skeleton",
		}),
		BonesRecomputed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "skeleton_bones_recomputed_total",
			Help: "Bones whose global pose was recomputed",
		}),
		OrderResolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "skeleton_order_resolutions_total",
			Help: "Process order recomputations",
		}, []string{"cyclic"}),
		OrderPasses: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "skeleton_order_passes",
			Help:    "Bubble passes per process order recomputation",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		}),
		Diagnostics: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "skeleton_diagnostics_total",
			Help: "Structural faults corrected during evaluation",
		}, []string{"kind"}),
	}
	reg.MustRegister(c.Evaluations, c.BonesRecomputed, c.OrderResolutions, c.OrderPasses, c.Diagnostics)
	return c
}

// Hooks returns skeleton hooks that feed this collector. next, when
// non-zero, is called after each metric update.
func (c *Collector) Hooks(next skeleton.Hooks) skeleton.Hooks {
	return skeleton.Hooks{
		OnEvaluate: func(recomputed int) {
			c.Evaluations.Inc()
			c.BonesRecomputed.Add(float64(recomputed))
			if next.OnEvaluate != nil {
				next.OnEvaluate(recomputed)
			}
		},
		OnOrderResolved: func(passes int, cyclic bool) {
			label := "false"
			if cyclic {
				label = "true"
			}
			c.OrderResolutions.WithLabelValues(label).Inc()
			c.OrderPasses.Observe(float64(passes))
			if next.OnOrderResolved != nil {
				next.OnOrderResolved(passes, cyclic)
			}
		},
		OnDiagnostic: func(d skeleton.Diagnostic) {
			c.Diagnostics.WithLabelValues(d.Kind.String()).Inc()
			if next.OnDiagnostic != nil {
				next.OnDiagnostic(d)
			}
		},
	}
}
