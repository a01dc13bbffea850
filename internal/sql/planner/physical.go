package planner

import (
	"fmt"
	"strings"

	"github.com/dshills/quantaplan/internal/sql/types"
	"github.com/dshills/quantaplan/internal/storage"
)

// PhysicalPlan is a node of the physical plan. The set of implementations
// is closed: DataSourceExec, CrossJoinExec, NestedLoopJoinExec,
// ProjectionExec, FilterExec and GlobalLimitExec.
type PhysicalPlan interface {
	Plan
	// Partitions describes the output partitioning of this operator.
	Partitions() []storage.Partition
	physicalNode()
}

// PhysicalExpr is a scalar expression whose column references are input
// ordinals.
type PhysicalExpr interface {
	String() string
	physicalExpr()
}

// PhysColumn reads column Index of the input row.
type PhysColumn struct {
	Name  string
	Index int
}

func (c *PhysColumn) physicalExpr() {}

func (c *PhysColumn) String() string {
	return fmt.Sprintf("%s@%d", c.Name, c.Index)
}

// PhysLiteral is a constant.
type PhysLiteral struct {
	Value types.Value
}

func (l *PhysLiteral) physicalExpr() {}

func (l *PhysLiteral) String() string { return l.Value.SQL() }

// PhysBinary is a binary operation.
type PhysBinary struct {
	Left     PhysicalExpr
	Right    PhysicalExpr
	Operator BinaryOperator
}

func (b *PhysBinary) physicalExpr() {}

func (b *PhysBinary) String() string {
	return formatBinary(b.Left, b.Right, b.Operator)
}

func (b *PhysBinary) precedence() int { return b.Operator.Precedence() }

// PhysNot negates a boolean.
type PhysNot struct {
	Expr PhysicalExpr
}

func (n *PhysNot) physicalExpr() {}

func (n *PhysNot) String() string { return "NOT " + operand(n.Expr) }

// PhysNegate is arithmetic negation.
type PhysNegate struct {
	Expr PhysicalExpr
}

func (n *PhysNegate) physicalExpr() {}

func (n *PhysNegate) String() string { return "-" + operand(n.Expr) }

// PhysIsNull tests for NULL.
type PhysIsNull struct {
	Expr PhysicalExpr
	Not  bool
}

func (i *PhysIsNull) physicalExpr() {}

func (i *PhysIsNull) String() string {
	if i.Not {
		return operand(i.Expr) + " IS NOT NULL"
	}
	return operand(i.Expr) + " IS NULL"
}

// PhysCast converts its input to Type.
type PhysCast struct {
	Expr PhysicalExpr
	Type types.DataType
}

func (c *PhysCast) physicalExpr() {}

func (c *PhysCast) String() string { return fmt.Sprintf("CAST(%s AS %s)", c.Expr, c.Type.Name()) }

// PhysProjection is one output column of a ProjectionExec.
type PhysProjection struct {
	Expr PhysicalExpr
	Name string
}

func (p PhysProjection) String() string {
	return fmt.Sprintf("%s as %s", p.Expr, p.Name)
}

// physicalBase holds what every operator carries.
type physicalBase struct {
	basePlan
	partitions []storage.Partition
}

// Partitions returns a copy; operators share nothing with their callers.
func (p *physicalBase) Partitions() []storage.Partition {
	return append([]storage.Partition(nil), p.partitions...)
}

// DataSourceExec reads a table as reported by the storage layout.
type DataSourceExec struct {
	physicalBase
	Table      TableName
	Projection []int
}

func (d *DataSourceExec) physicalNode() {}

func (d *DataSourceExec) String() string {
	return fmt.Sprintf("DataSourceExec: partitions=%d, partition_sizes=%s",
		len(d.partitions), storage.FormatSizes(d.partitions))
}

// CrossJoinExec produces the cartesian product of its inputs.
type CrossJoinExec struct {
	physicalBase
	Left  PhysicalPlan
	Right PhysicalPlan
}

func (c *CrossJoinExec) physicalNode() {}

func (c *CrossJoinExec) String() string { return "CrossJoinExec" }

// NestedLoopJoinExec evaluates Filter against every pair of input rows.
// Filter indexes the left-then-right row.
type NestedLoopJoinExec struct {
	physicalBase
	Left     PhysicalPlan
	Right    PhysicalPlan
	JoinType JoinType
	Filter   PhysicalExpr
}

func (n *NestedLoopJoinExec) physicalNode() {}

func (n *NestedLoopJoinExec) String() string {
	return fmt.Sprintf("NestedLoopJoinExec: join_type=%s, filter=%s", n.JoinType, n.Filter)
}

// ProjectionExec computes expressions over its input.
type ProjectionExec struct {
	physicalBase
	Input PhysicalPlan
	Exprs []PhysProjection
}

func (p *ProjectionExec) physicalNode() {}

func (p *ProjectionExec) String() string {
	parts := make([]string, len(p.Exprs))
	for i, e := range p.Exprs {
		parts[i] = e.String()
	}
	return "ProjectionExec: expr=[" + strings.Join(parts, ", ") + "]"
}

// FilterExec keeps the rows satisfying Predicate.
type FilterExec struct {
	physicalBase
	Input     PhysicalPlan
	Predicate PhysicalExpr
}

func (f *FilterExec) physicalNode() {}

func (f *FilterExec) String() string {
	return "FilterExec: " + f.Predicate.String()
}

// GlobalLimitExec applies skip and fetch across all input partitions and
// produces a single partition.
type GlobalLimitExec struct {
	physicalBase
	Input PhysicalPlan
	Skip  int64
	Fetch *int64
}

func (g *GlobalLimitExec) physicalNode() {}

func (g *GlobalLimitExec) String() string {
	return fmt.Sprintf("GlobalLimitExec: skip=%d, fetch=%s", g.Skip, formatFetch(g.Fetch))
}

// limitPartitions estimates the single output partition of a limit.
func limitPartitions(input []storage.Partition, skip int64, fetch *int64) []storage.Partition {
	rows := storage.TotalRows(input)
	if rows != storage.Unknown {
		rows -= skip
		if rows < 0 {
			rows = 0
		}
		if fetch != nil && *fetch < rows {
			rows = *fetch
		}
	} else if fetch != nil && *fetch == 0 {
		rows = 0
	}
	return []storage.Partition{{Index: 0, Rows: rows, Bytes: storage.Unknown}}
}
