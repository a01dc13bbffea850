package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "github.com/dshills/quantaplan/internal/errors"
	"github.com/dshills/quantaplan/internal/sql/types"
)

func mixedEnv(t *testing.T) *testEnv {
	t.Helper()
	env := newTestEnv(t)
	env.fixture.AddTable(t, "m", []int64{8},
		"n INTEGER", "b BIGINT", "d DOUBLE PRECISION", "s TEXT", "f BOOLEAN", "dt DATE", "ts TIMESTAMP")
	return env
}

func findFilter(p Plan) *Filter {
	var found *Filter
	Walk(p, func(n Plan, _ int) bool {
		if f, ok := n.(*Filter); ok && found == nil {
			found = f
		}
		return found == nil
	})
	return found
}

func TestImplicitCasts(t *testing.T) {
	env := mixedEnv(t)

	tests := []struct {
		name  string
		where string
		want  string
	}{
		{"integer literal keeps column type", "n > 1", "m.n > 1"},
		{"integer literal retyped to double", "d > 1", "m.d > 1"},
		{"literal too wide for column", "n > 3000000000", "CAST(m.n AS BIGINT) > 3000000000"},
		{"narrow column widened", "n < b", "CAST(m.n AS BIGINT) < m.b"},
		{"arithmetic widens to double", "n * 1.5 > d", "CAST(m.n AS DOUBLE PRECISION) * 1.5 > m.d"},
		{"numeric column against string", "n = '2'", "CAST(m.n AS TEXT) = '2'"},
		{"string column against number", "s = 2", "m.s = CAST(2 AS TEXT)"},
		{"date against timestamp", "dt < ts", "CAST(m.dt AS TIMESTAMP) < m.ts"},
		{"string against date", "dt = '2024-01-01'", "m.dt = CAST('2024-01-01' AS DATE)"},
		{"null stays untyped", "s = null", "m.s = NULL"},
		{"null in arithmetic", "n + null > 0", "m.n + NULL > 0"},
		{"boolean connective", "f and n is null", "m.f AND m.n IS NULL"},
		{"explicit cast", "cast(s as integer) = n", "CAST(m.s AS INTEGER) = m.n"},
		{"redundant explicit cast dropped", "cast(n as integer) > 0", "m.n > 0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logical, _ := env.compile(t, "select * from m where "+tt.where)
			filter := findFilter(logical)
			require.NotNil(t, filter)
			assert.Equal(t, tt.want, filter.Predicate.String())
			assert.True(t, types.Equal(types.Boolean, filter.Predicate.DataType()))
		})
	}
}

func TestImplicitCastLowering(t *testing.T) {
	env := newTestEnv(t)

	logical, physical := env.compile(t, "select id from t1 where id = '2'")
	assert.Equal(t, "Filter: CAST(t1.id AS TEXT) = '2'\n  TableScan: t1\n", tree(logical))
	assert.Equal(t, "FilterExec: CAST(id@0 AS TEXT) = '2'\n  DataSourceExec: partitions=1, partition_sizes=[1]\n", tree(physical))

	logical, physical = env.compile(t, "select id * 1.5 as x from t1")
	assert.Equal(t, "Projection: CAST(t1.id AS DOUBLE PRECISION) * 1.5 AS x\n  TableScan: t1\n", tree(logical))
	assert.Equal(t, "ProjectionExec: expr=[CAST(id@0 AS DOUBLE PRECISION) * 1.5 as x]\n"+
		"  DataSourceExec: partitions=1, partition_sizes=[1]\n", tree(physical))
	assert.True(t, types.Equal(types.Double, logical.Schema().Columns[0].DataType))
}

func TestOperandTypeMismatch(t *testing.T) {
	env := mixedEnv(t)

	tests := []struct {
		name string
		sql  string
		msg  string
	}{
		{"text in arithmetic", "select id + 'abc' as z from t1", "operator + cannot be applied to INTEGER and TEXT"},
		{"boolean in arithmetic", "select * from m where f + 1 > 0", "cannot be applied to BOOLEAN and BIGINT"},
		{"numeric AND", "select * from m where n and f", "operator AND cannot be applied to INTEGER and BOOLEAN"},
		{"boolean against number", "select * from m where f = 1", "cannot be applied to BOOLEAN and BIGINT"},
		{"date against number", "select * from m where dt = n", "cannot be applied to DATE and INTEGER"},
		{"NOT on integer", "select * from m where not n", "argument of NOT must be BOOLEAN, not type INTEGER"},
		{"minus on text", "select -s from m", "argument of unary - must be NUMERIC, not type TEXT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.logical(t, tt.sql)
			require.Error(t, err)
			assert.Equal(t, errs.DatatypeMismatch, errs.Code(err))
			assert.Contains(t, err.Error(), tt.msg)
		})
	}

	_, err := env.logical(t, "select id + 'abc' from t1")
	e, ok := errs.As(err)
	require.True(t, ok)
	assert.Equal(t, "add an explicit CAST", e.Hint)
}

func TestCastTo(t *testing.T) {
	col := &ColumnRef{Name: "n", ColumnType: types.Integer}

	assert.Same(t, col, castTo(col, nil))
	assert.Same(t, col, castTo(col, types.Integer))

	null := &Literal{Value: types.NewNullValue()}
	assert.Same(t, null, castTo(null, types.BigInt))

	varchar := &ColumnRef{Name: "v", ColumnType: types.Varchar(10)}
	assert.Same(t, varchar, castTo(varchar, types.Text))

	lit := castTo(&Literal{Value: types.NewValue(int64(7))}, types.SmallInt)
	assert.Equal(t, &Literal{Value: types.NewValue(int16(7))}, lit)

	wide := castTo(&Literal{Value: types.NewValue(int64(1 << 40))}, types.Integer)
	assert.Equal(t, "CAST(1099511627776 AS INTEGER)", wide.String())

	cast, ok := castTo(col, types.BigInt).(*Cast)
	require.True(t, ok)
	assert.True(t, types.Equal(types.BigInt, cast.DataType()))
}
