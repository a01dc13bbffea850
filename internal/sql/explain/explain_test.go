package explain

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/quantaplan/internal/sql/parser"
	"github.com/dshills/quantaplan/internal/sql/planner"
	"github.com/dshills/quantaplan/internal/testutil"
)

func compile(t *testing.T, sql string) (planner.LogicalPlan, planner.PhysicalPlan) {
	t.Helper()
	f := testutil.ScenarioFixture(t)
	stmt, err := parser.ParseSelect(sql)
	require.NoError(t, err)

	ctx := context.Background()
	logical, err := planner.NewPlanner(planner.NewRegistry(f.Catalog, ""), nil).Plan(ctx, stmt)
	require.NoError(t, err)
	physical, err := planner.NewPhysicalPlanner(f.Layout).Lower(ctx, logical)
	require.NoError(t, err)
	return logical, physical
}

func TestFormatAliasWithColumnList(t *testing.T) {
	logical, physical := compile(t,
		"select * from ((select id from t1) cross join (select age from t2)) as f(c1, c2)")

	testutil.AssertLines(t, `
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
		04)----DataSourceExec: partitions=1, partition_sizes=[1]
	`, Format(logical, physical))
}

func TestFormatAliasWithoutColumnList(t *testing.T) {
	logical, physical := compile(t,
		"select * from ((select id from t1) cross join (select age from t2)) as f")

	assert.Equal(t, `logical_plan
01)SubqueryAlias: f
02)--Cross Join:
03)----TableScan: t1 projection=[id]
04)----TableScan: t2 projection=[age]
`, FormatLogical(logical))

	assert.Equal(t, `physical_plan
01)CrossJoinExec
02)--DataSourceExec: partitions=1, partition_sizes=[1]
03)--DataSourceExec: partitions=1, partition_sizes=[1]
`, FormatPhysical(physical))
}

func TestLinesNumbering(t *testing.T) {
	logical, _ := compile(t, "select * from t1, t2, t1 as a, t2 as b")
	lines := Lines(logical)
	require.Len(t, lines, 9)
	assert.True(t, strings.HasPrefix(lines[0], "01)Cross Join:"), lines[0])
	assert.Equal(t, "08)--SubqueryAlias: b", lines[7])
	assert.True(t, strings.HasPrefix(lines[8], "09)----TableScan: t2"), lines[8])
}

func TestFingerprint(t *testing.T) {
	l1, p1 := compile(t, "select * from t1 cross join t2")
	l2, p2 := compile(t, "select * from t1, t2")
	l3, p3 := compile(t, "select * from t2, t1")

	assert.Equal(t, Fingerprint(l1, p1), Fingerprint(l2, p2))
	assert.NotEqual(t, Fingerprint(l1, p1), Fingerprint(l3, p3))
	assert.NotEqual(t, Fingerprint(l1), Fingerprint(p1))
	assert.Len(t, FormatFingerprint(Fingerprint(l1)), 16)
}

func TestRenderSchema(t *testing.T) {
	logical, _ := compile(t,
		"select * from ((select id from t1) cross join (select age from t2)) as f(c1, c2)")

	out := RenderSchema(logical.Schema())
	for _, want := range []string{"column", "relation", "c1", "c2", "INTEGER", "YES", "f"} {
		assert.Contains(t, out, want)
	}
	assert.Equal(t, 4, len(testutil.Lines(out)), "header, separator and two rows:\n%s", out)

	assert.Equal(t, "_No columns_\n", RenderSchema(planner.NewSchema()))
}

func TestHighlighter(t *testing.T) {
	logical, physical := compile(t, "select * from t1 as a")
	text := Format(logical, physical)

	assert.Equal(t, text, NewHighlighter(false).Highlight(text))

	colored := NewHighlighter(true).Highlight(text)
	assert.NotEqual(t, text, colored)
	assert.Contains(t, colored, "\x1b[")
	assert.Contains(t, colored, ": a")
}
