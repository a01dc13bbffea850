package sql

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/quantaplan/internal/config"
	errs "github.com/dshills/quantaplan/internal/errors"
	"github.com/dshills/quantaplan/internal/log"
	"github.com/dshills/quantaplan/internal/metrics"
	"github.com/dshills/quantaplan/internal/sql/parser"
	"github.com/dshills/quantaplan/internal/sql/planner"
	"github.com/dshills/quantaplan/internal/testutil"
)

func newTestCompiler(t *testing.T, opts ...Option) *Compiler {
	t.Helper()
	f := testutil.ScenarioFixture(t)
	opts = append([]Option{WithLogger(log.Nop())}, opts...)
	return NewCompiler(f.Catalog, f.Layout, config.DefaultConfig().Planner, opts...)
}

func TestCompileScenarios(t *testing.T) {
	c := newTestCompiler(t)
	ctx := context.Background()

	tests := []struct {
		name string
		sql  string
		want string
	}{
		{
			name: "alias without column list",
			sql:  "select * from ((select id from t1) cross join (select age from t2)) as f",
			want: `
				logical_plan
				01)SubqueryAlias: f
				02)--Cross Join:
				03)----TableScan: t1 projection=[id]
				04)----TableScan: t2 projection=[age]
				physical_plan
				01)CrossJoinExec
				02)--DataSourceExec: partitions=1, partition_sizes=[1]
				03)--DataSourceExec: partitions=1, partition_sizes=[1]`,
		},
		{
			name: "alias with column list",
			sql:  "select * from ((select id from t1) cross join (select age from t2)) as f(c1, c2)",
			want: `
				logical_plan
				01)SubqueryAlias: f
				02)--Projection: t1.id AS c1, t2.age AS c2
				03)----Cross Join:
				04)------TableScan: t1 projection=[id]
				05)------TableScan: t2 projection=[age]
				physical_plan
				01)ProjectionExec: expr=[id@0 as c1, age@1 as c2]
				02)--CrossJoinExec
				03)----DataSourceExec: partitions=1, partition_sizes=[1]
				04)----DataSourceExec: partitions=1, partition_sizes=[1]`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, err := c.CompileSQL(ctx, tt.sql)
			require.NoError(t, err)
			testutil.AssertLines(t, tt.want, plan.Explain())
			assert.Equal(t, tt.sql, plan.SQL)
			assert.NotEqual(t, uuid.Nil, plan.ID)
			assert.NotZero(t, plan.Fingerprint)
			assert.Equal(t,
				planner.CountNodes(plan.Logical)-planner.CountAliases(plan.Logical),
				planner.CountNodes(plan.Physical))
		})
	}
}

func TestCompileArityMismatch(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := metrics.NewCompiler(reg)
	require.NoError(t, err)
	c := newTestCompiler(t, WithMetrics(m))

	plan, err := c.CompileSQL(context.Background(),
		"select * from ((select id from t1) cross join (select age from t2)) as f(c1)")
	assert.Nil(t, plan)
	require.Error(t, err)
	assert.True(t, errs.IsAliasArityMismatch(err))

	count, err := promtest.GatherAndCount(reg, "quantaplan_compiles_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestCompileStatement(t *testing.T) {
	c := newTestCompiler(t)
	stmt, err := parser.ParseSelect("select age from t2 where age > 18 limit 5")
	require.NoError(t, err)

	plan, err := c.Compile(context.Background(), stmt)
	require.NoError(t, err)
	assert.Empty(t, plan.SQL)
	testutil.AssertLines(t, `
		logical_plan
		01)Limit: skip=0, fetch=5
		02)--Filter: t2.age > 18
		03)----TableScan: t2
		physical_plan
		01)GlobalLimitExec: skip=0, fetch=5
		02)--FilterExec: age@0 > 18
		03)----DataSourceExec: partitions=1, partition_sizes=[1]`, plan.Explain())
}

func TestCompileRejectsNonSelect(t *testing.T) {
	c := newTestCompiler(t)

	_, err := c.CompileSQL(context.Background(), "create table t9 (a int)")
	assert.Equal(t, errs.FeatureNotSupported, errs.Code(err))

	_, err = c.CompileSQL(context.Background(), "select from where")
	assert.True(t, errs.IsSyntaxError(err))
}

func TestCompileIsDeterministic(t *testing.T) {
	c := newTestCompiler(t)
	ctx := context.Background()
	sql := "select f.c2 from (select * from t1, t2) as f(c1, c2) where f.c1 = 1"

	first, err := c.CompileSQL(ctx, sql)
	require.NoError(t, err)
	second, err := c.CompileSQL(ctx, sql)
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, first.Fingerprint, second.Fingerprint)
	assert.Equal(t, first.Explain(), second.Explain())
}

func TestConcurrentCompiles(t *testing.T) {
	m, err := metrics.NewCompiler(nil)
	require.NoError(t, err)
	c := newTestCompiler(t, WithMetrics(m))

	queries := []string{
		"select * from ((select id from t1) cross join (select age from t2)) as f",
		"select * from ((select id from t1) cross join (select age from t2)) as f(c1, c2)",
		"select * from ((select id from t1) cross join (select age from t2)) as f(c1)",
	}

	var wg sync.WaitGroup
	results := make([]string, 30)
	errors := make([]error, 30)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			plan, err := c.CompileSQL(context.Background(), queries[i%len(queries)])
			if err != nil {
				errors[i] = err
				return
			}
			results[i] = plan.Explain()
		}(i)
	}
	wg.Wait()

	for i := range results {
		if i%len(queries) == 2 {
			assert.True(t, errs.IsAliasArityMismatch(errors[i]))
			continue
		}
		require.NoError(t, errors[i])
		assert.Equal(t, results[i%len(queries)], results[i])
	}
}

func TestCompileLogging(t *testing.T) {
	var buf bytes.Buffer
	c := newTestCompiler(t, WithLogger(log.NewJSONLogger(&buf, slog.LevelDebug)))

	plan, err := c.CompileSQL(context.Background(), "select * from t1")
	require.NoError(t, err)

	var phases []string
	var compiled map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		assert.Equal(t, plan.ID.String(), entry["compile_id"])
		switch entry["msg"] {
		case "compile phase finished":
			phases = append(phases, entry["phase"].(string))
		case "plan compiled":
			compiled = entry
		}
	}
	assert.Equal(t, []string{"parse", "logical", "validate", "physical"}, phases)
	require.NotNil(t, compiled)
	assert.Equal(t, float64(1), compiled["logical_nodes"])

	buf.Reset()
	_, err = c.CompileSQL(context.Background(), "select * from missing")
	require.Error(t, err)
	assert.Contains(t, buf.String(), `"code":"42P01"`)
	assert.Contains(t, buf.String(), `"path":"TableScan"`)
}
