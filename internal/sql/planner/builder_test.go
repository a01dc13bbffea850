package planner

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "github.com/dshills/quantaplan/internal/errors"
	"github.com/dshills/quantaplan/internal/sql/types"
	"github.com/dshills/quantaplan/internal/testutil"
)

func resolve(t *testing.T, f *testutil.Fixture, name string) *ResolvedTable {
	t.Helper()
	rt, err := NewRegistry(f.Catalog, "").Resolve(context.Background(), TableName{Name: name})
	require.NoError(t, err)
	return rt
}

func wideFixture(t *testing.T) *testutil.Fixture {
	f := testutil.NewFixture()
	f.AddTable(t, "w", []int64{10}, "a INTEGER", "b TEXT", "c BOOLEAN NOT NULL")
	return f
}

func TestRegistryResolve(t *testing.T) {
	f := wideFixture(t)
	rt := resolve(t, f, "w")

	assert.Equal(t, TableName{Schema: "public", Name: "w"}, rt.Name)
	assert.Equal(t, "w", rt.Relation)
	assert.Equal(t, []string{"a", "b", "c"}, rt.Schema.Names())
	assert.False(t, rt.Schema.Columns[2].Nullable)

	_, err := NewRegistry(f.Catalog, "").Resolve(context.Background(), TableName{Name: "missing"})
	assert.True(t, errs.IsUnknownRelation(err))
}

func TestCompose(t *testing.T) {
	left := NewSchema(Column{Name: "a", DataType: types.Integer, Relation: "l"})
	right := NewSchema(
		Column{Name: "b", DataType: types.Text, Relation: "r"},
		Column{Name: "c", DataType: types.Text, Relation: "r"},
	)
	out := Compose(left, right)
	assert.Equal(t, []string{"a", "b", "c"}, out.Names())
	assert.Equal(t, 1, left.Len(), "inputs are not modified")
	assert.Equal(t, 0, Compose(NewSchema(), NewSchema()).Len())
}

func TestProjectFoldsIntoScan(t *testing.T) {
	f := wideFixture(t)
	b := NewBuilder()

	scan, err := b.Scan(resolve(t, f, "w"))
	require.NoError(t, err)

	// select c, a from w
	plan, err := b.Project(scan, []ProjectionItem{
		{Expr: refColumn(scan.Schema(), 2)},
		{Expr: refColumn(scan.Schema(), 0)},
	})
	require.NoError(t, err)
	folded, ok := plan.(*TableScan)
	require.True(t, ok)
	assert.Equal(t, []int{2, 0}, folded.Projection)
	assert.Equal(t, "TableScan: w projection=[c, a]", folded.String())

	// Folding again composes with the existing projection.
	plan, err = b.Project(folded, []ProjectionItem{{Expr: refColumn(folded.Schema(), 1)}})
	require.NoError(t, err)
	assert.Equal(t, []int{0}, plan.(*TableScan).Projection)
	require.NoError(t, Validate(plan))
}

func TestProjectKeepsNonPlainProjections(t *testing.T) {
	f := wideFixture(t)
	b := NewBuilder()
	scan, err := b.Scan(resolve(t, f, "w"))
	require.NoError(t, err)

	tests := []struct {
		name  string
		items []ProjectionItem
	}{
		{"renamed", []ProjectionItem{{Expr: refColumn(scan.Schema(), 0), Alias: "x"}}},
		{"computed", []ProjectionItem{{Expr: &NotExpr{Expr: refColumn(scan.Schema(), 2)}}}},
		{"repeated", []ProjectionItem{
			{Expr: refColumn(scan.Schema(), 0)},
			{Expr: refColumn(scan.Schema(), 0)},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, err := b.Project(scan, tt.items)
			require.NoError(t, err)
			_, ok := plan.(*Projection)
			assert.True(t, ok, "got %s", plan)
		})
	}
}

func TestProjectElidesIdentity(t *testing.T) {
	f := wideFixture(t)
	b := NewBuilder()
	scan, err := b.Scan(resolve(t, f, "w"))
	require.NoError(t, err)
	alias, err := b.Alias(scan, AliasBinding{Name: "v"})
	require.NoError(t, err)

	items := make([]ProjectionItem, alias.Schema().Len())
	for i := range items {
		items[i] = ProjectionItem{Expr: refColumn(alias.Schema(), i)}
	}
	plan, err := b.Project(alias, items)
	require.NoError(t, err)
	assert.Same(t, alias, plan)

	// Reordering is not an identity.
	items[0], items[1] = items[1], items[0]
	plan, err = b.Project(alias, items)
	require.NoError(t, err)
	assert.IsType(t, &Projection{}, plan)
}

func TestAliasPlacesRenameUnderAlias(t *testing.T) {
	f := wideFixture(t)
	b := NewBuilder()
	scan, err := b.Scan(resolve(t, f, "w"))
	require.NoError(t, err)

	plan, err := b.Alias(scan, AliasBinding{Name: "v", Columns: []string{"x", "y", "z"}})
	require.NoError(t, err)

	alias, ok := plan.(*SubqueryAlias)
	require.True(t, ok)
	proj, ok := alias.Input.(*Projection)
	require.True(t, ok)
	assert.Same(t, scan, proj.Input)
	assert.Equal(t, "Projection: w.a AS x, w.b AS y, w.c AS z", proj.String())
	assert.Equal(t, []string{"x", "y", "z"}, plan.Schema().Names())
}

func TestConstructorsRejectInconsistentReferences(t *testing.T) {
	f := wideFixture(t)
	scan, err := NewTableScan(resolve(t, f, "w"), nil)
	require.NoError(t, err)

	_, err = NewTableScan(resolve(t, f, "w"), []int{3})
	assert.True(t, errs.IsSchemaInconsistency(err))

	_, err = NewProjection(scan, []ProjectionItem{{Expr: &ColumnRef{Relation: "w", Name: "a", Index: 7, ColumnType: types.Integer}}})
	assert.True(t, errs.IsSchemaInconsistency(err))

	_, err = NewProjection(scan, []ProjectionItem{{Expr: &ColumnRef{Relation: "w", Name: "b", Index: 0, ColumnType: types.Integer}}})
	assert.True(t, errs.IsSchemaInconsistency(err))

	_, err = NewJoin(scan, scan, InnerJoin, nil)
	assert.True(t, errs.IsSchemaInconsistency(err))

	_, err = NewLimit(scan, -1, nil)
	assert.Equal(t, errs.InvalidParameterValue, errs.Code(err))
}

func TestValidate(t *testing.T) {
	env := newTestEnv(t)
	logical, _ := env.compile(t, scenarioList)
	require.NoError(t, Validate(logical))

	// Corrupt the rename projection's declared schema.
	proj := logical.(*SubqueryAlias).Input.(*Projection)
	proj.schema = NewSchema(proj.schema.Columns[0])

	err := Validate(logical)
	require.Error(t, err)
	assert.True(t, errs.IsSchemaInconsistency(err))
	qErr, _ := errs.As(err)
	assert.Equal(t, "SubqueryAlias[0]/Projection", qErr.Path.String())
}

func TestWalkOrderAndDepth(t *testing.T) {
	env := newTestEnv(t)
	logical, _ := env.compile(t, scenarioList)

	var names []string
	Walk(logical, func(p Plan, _ int) bool {
		names = append(names, logicalName(p.(LogicalPlan)))
		return true
	})
	assert.Equal(t, []string{"SubqueryAlias", "Projection", "Join", "TableScan", "TableScan"}, names)
	assert.Equal(t, 4, Depth(logical))

	count := 0
	Walk(logical, func(Plan, int) bool {
		count++
		return false
	})
	assert.Equal(t, 1, count)
}
