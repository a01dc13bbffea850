package metrics

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompilerCounters(t *testing.T) {
	reg := prometheus.NewPedanticRegistry()
	c, err := NewCompiler(reg)
	require.NoError(t, err)

	c.ObserveCompile(OutcomeOK, time.Millisecond)
	c.ObserveCompile(OutcomeOK, 2*time.Millisecond)
	c.ObserveCompile("42P10", time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.compiles.WithLabelValues(OutcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.compiles.WithLabelValues("42P10")))

	expected := `
# HELP quantaplan_compiles_total Plan compiles by outcome; failures are labelled with their SQLSTATE code.
# TYPE quantaplan_compiles_total counter
quantaplan_compiles_total{outcome="42P10"} 1
quantaplan_compiles_total{outcome="ok"} 2
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "quantaplan_compiles_total"))
}

func TestCompilerPlanSizes(t *testing.T) {
	c, err := NewCompiler(nil)
	require.NoError(t, err)

	c.ObservePlan(5, 4, 1)
	c.ObservePlan(4, 3, 1)
	c.ObservePhase(PhaseLogical, time.Microsecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.aliasesElided))
	assert.Equal(t, 2, testutil.CollectAndCount(c.nodes))
	assert.Equal(t, 1, testutil.CollectAndCount(c.phases))
}

func TestCompilerDoubleRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewCompiler(reg)
	require.NoError(t, err)

	_, err = NewCompiler(reg)
	assert.Error(t, err)
}
