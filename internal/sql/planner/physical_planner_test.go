package planner

import (
	"context"
	"testing"

	crdb "github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/quantaplan/internal/catalog"
	errs "github.com/dshills/quantaplan/internal/errors"
	"github.com/dshills/quantaplan/internal/sql/parser"
	"github.com/dshills/quantaplan/internal/sql/types"
	"github.com/dshills/quantaplan/internal/storage"
)

// unknownNode is a logical node the physical planner has no operator for.
type unknownNode struct {
	basePlan
}

func (u *unknownNode) logicalNode()   {}
func (u *unknownNode) String() string { return "Unknown" }

type failingLayout struct{ err error }

func (f failingLayout) Partitions(context.Context, string, string) ([]storage.Partition, error) {
	return nil, f.err
}

type failingCatalog struct{ err error }

func (f failingCatalog) GetTable(context.Context, string, string) (*catalog.Table, error) {
	return nil, f.err
}

func (f failingCatalog) ListTables(context.Context, string) ([]*catalog.Table, error) {
	return nil, f.err
}

func TestLowerCopiesPartitionEstimates(t *testing.T) {
	env := newTestEnv(t)
	env.fixture.Layout.Register("public", "t1",
		storage.Partition{Rows: 3, Bytes: 300},
		storage.Partition{Rows: storage.Unknown, Bytes: 50},
	)

	_, physical := env.compile(t, "select * from t1")
	ds, ok := physical.(*DataSourceExec)
	require.True(t, ok)
	assert.Equal(t, "DataSourceExec: partitions=2, partition_sizes=[3, ?]", ds.String())
	assert.Equal(t, []storage.Partition{
		{Index: 0, Rows: 3, Bytes: 300},
		{Index: 1, Rows: storage.Unknown, Bytes: 50},
	}, ds.Partitions())
	assert.Equal(t, []int{0}, ds.Projection)
}

func TestPartitionsAreNotShared(t *testing.T) {
	env := newTestEnv(t)
	env.fixture.Layout.Register("public", "t1", storage.Partition{Rows: 3}, storage.Partition{Rows: 4})

	_, physical := env.compile(t, "select id + 1 as n from t1 where id > 1")
	proj, ok := physical.(*ProjectionExec)
	require.True(t, ok)
	filter, ok := proj.Input.(*FilterExec)
	require.True(t, ok)

	parts := proj.Partitions()
	require.Len(t, parts, 2)
	parts[0].Rows = 99
	_ = append(parts[:1], storage.Partition{Rows: 1})

	assert.Equal(t, "[3, 4]", storage.FormatSizes(proj.Partitions()))
	assert.Equal(t, "[3, 4]", storage.FormatSizes(filter.Partitions()))
	assert.Equal(t, "[3, 4]", storage.FormatSizes(filter.Input.Partitions()))
}

func TestLowerPropagatesPartitioning(t *testing.T) {
	env := newTestEnv(t)
	env.fixture.Layout.RegisterRows("public", "t1", 5, 6)
	env.fixture.Layout.RegisterRows("public", "t2", 7)

	_, physical := env.compile(t, "select id + age from t1 cross join t2 where id > 0")
	proj := physical.(*ProjectionExec)
	filter := proj.Input.(*FilterExec)
	join := filter.Input.(*CrossJoinExec)

	assert.Equal(t, "[7]", storage.FormatSizes(join.Partitions()))
	assert.Equal(t, join.Partitions(), filter.Partitions())
	assert.Equal(t, join.Partitions(), proj.Partitions())
	assert.Equal(t, "[5, 6]", storage.FormatSizes(join.Left.Partitions()))
}

func TestLowerLimitPartitions(t *testing.T) {
	env := newTestEnv(t)
	env.fixture.Layout.RegisterRows("public", "t1", 5, 6)

	tests := []struct {
		sql  string
		want string
	}{
		{"select * from t1 limit 4", "[4]"},
		{"select * from t1 limit 20 offset 3", "[8]"},
		{"select * from t1 offset 30", "[0]"},
		{"select * from t1 limit 0", "[0]"},
	}
	for _, tt := range tests {
		t.Run(tt.sql, func(t *testing.T) {
			_, physical := env.compile(t, tt.sql)
			limit, ok := physical.(*GlobalLimitExec)
			require.True(t, ok)
			assert.Equal(t, tt.want, storage.FormatSizes(limit.Partitions()))
		})
	}

	env.fixture.Layout.RegisterRows("public", "t2", storage.Unknown)
	_, physical := env.compile(t, "select * from t2 limit 2")
	assert.Equal(t, "[?]", storage.FormatSizes(physical.Partitions()))
}

func TestLowerUnknownNode(t *testing.T) {
	pp := NewPhysicalPlanner(storage.NewStaticLayout())
	node := &unknownNode{basePlan{schema: NewSchema(Column{Name: "a", DataType: types.Integer})}}

	plan, err := pp.Lower(context.Background(), node)
	assert.Nil(t, plan)
	require.Error(t, err)
	assert.True(t, errs.IsLoweringUnsupported(err))

	plan, err = pp.Lower(context.Background(), NewSubqueryAlias(node, "x"))
	assert.Nil(t, plan)
	require.Error(t, err)
	qErr, ok := errs.As(err)
	require.True(t, ok)
	assert.Equal(t, "SubqueryAlias[0]/*planner.unknownNode", qErr.Path.String())
}

func TestLowerLayoutFailure(t *testing.T) {
	env := newTestEnv(t)
	logical, err := env.logical(t, "select * from t1 cross join t2")
	require.NoError(t, err)

	boom := crdb.New("disk on fire")
	pp := NewPhysicalPlanner(failingLayout{err: boom})
	plan, err := pp.Lower(context.Background(), logical)
	assert.Nil(t, plan)
	require.Error(t, err)
	assert.Equal(t, errs.IOError, errs.Code(err))
	assert.True(t, crdb.Is(err, boom))
	qErr, _ := errs.As(err)
	assert.Equal(t, "Join[0]/TableScan", qErr.Path.String())
}

func TestLowerHonoursCancellation(t *testing.T) {
	env := newTestEnv(t)
	logical, err := env.logical(t, "select * from t1")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = env.physical.Lower(ctx, logical)
	require.Error(t, err)
	assert.True(t, crdb.Is(err, context.Canceled))
	assert.Equal(t, errs.QueryCanceled, errs.Code(err))
}

func TestCatalogFailureIsNotUnknownRelation(t *testing.T) {
	boom := crdb.New("connection refused")
	p := NewPlanner(NewRegistry(failingCatalog{err: boom}, ""), nil)

	stmt, err := parser.ParseSelect("select * from t1")
	require.NoError(t, err)
	_, err = p.Plan(context.Background(), stmt)
	require.Error(t, err)
	assert.False(t, errs.IsUnknownRelation(err))
	assert.Equal(t, errs.IOError, errs.Code(err))
	assert.True(t, crdb.Is(err, boom))
}
