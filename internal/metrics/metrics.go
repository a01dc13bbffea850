// Package metrics exposes compiler instrumentation as Prometheus collectors.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "quantaplan"

// Outcome label values.
const (
	OutcomeOK = "ok"
)

// Compile phases.
const (
	PhaseParse    = "parse"
	PhaseLogical  = "logical"
	PhaseValidate = "validate"
	PhasePhysical = "physical"
)

// Compiler holds the collectors updated by each plan compile.
type Compiler struct {
	compiles      *prometheus.CounterVec
	duration      prometheus.Histogram
	phases        *prometheus.HistogramVec
	nodes         *prometheus.HistogramVec
	aliasesElided prometheus.Counter
}

// NewCompiler creates the compiler collectors and registers them with reg.
// A nil reg leaves them unregistered.
func NewCompiler(reg prometheus.Registerer) (*Compiler, error) {
	c := &Compiler{
		compiles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "compiles_total",
			Help:      "Plan compiles by outcome; failures are labelled with their SQLSTATE code.",
		}, []string{"outcome"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "compile_duration_seconds",
			Help:      "Wall time of a complete compile.",
			Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 10),
		}),
		phases: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "compile_phase_duration_seconds",
			Help:      "Wall time of each compile phase.",
			Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 10),
		}, []string{"phase"}),
		nodes: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "plan_nodes",
			Help:      "Number of nodes in compiled plans.",
			Buckets:   prometheus.LinearBuckets(1, 2, 12),
		}, []string{"tree"}),
		aliasesElided: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "subquery_aliases_elided_total",
			Help:      "SubqueryAlias nodes removed while lowering to physical plans.",
		}),
	}

	if reg != nil {
		for _, col := range c.Collectors() {
			if err := reg.Register(col); err != nil {
				return nil, err
			}
		}
	}
	return c, nil
}

// Collectors returns every collector owned by c.
func (c *Compiler) Collectors() []prometheus.Collector {
	return []prometheus.Collector{c.compiles, c.duration, c.phases, c.nodes, c.aliasesElided}
}

// ObserveCompile records a finished compile. outcome is OutcomeOK or the
// SQLSTATE code of the failure.
func (c *Compiler) ObserveCompile(outcome string, d time.Duration) {
	c.compiles.WithLabelValues(outcome).Inc()
	c.duration.Observe(d.Seconds())
}

// ObservePhase records the duration of one compile phase.
func (c *Compiler) ObservePhase(phase string, d time.Duration) {
	c.phases.WithLabelValues(phase).Observe(d.Seconds())
}

// ObservePlan records the size of a successfully compiled plan.
func (c *Compiler) ObservePlan(logicalNodes, physicalNodes, aliases int) {
	c.nodes.WithLabelValues("logical").Observe(float64(logicalNodes))
	c.nodes.WithLabelValues("physical").Observe(float64(physicalNodes))
	c.aliasesElided.Add(float64(aliases))
}
