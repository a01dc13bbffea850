package planner

import (
	"fmt"
	"strings"

	errs "github.com/dshills/quantaplan/internal/errors"
	"github.com/dshills/quantaplan/internal/sql/types"
)

// Node names used in error paths.
const (
	nodeTableScan     = "TableScan"
	nodeJoin          = "Join"
	nodeProjection    = "Projection"
	nodeSubqueryAlias = "SubqueryAlias"
	nodeFilter        = "Filter"
	nodeLimit         = "Limit"
)

// TableScan reads a base table, optionally restricted to a column subset.
type TableScan struct {
	basePlan
	Table    TableName
	Relation string
	// Source is the full schema of the table.
	Source *Schema
	// Projection lists the ordinals of Source to produce, in output order.
	// Nil means all columns.
	Projection []int
}

func (s *TableScan) logicalNode() {}

func (s *TableScan) String() string {
	if s.Projection == nil {
		return fmt.Sprintf("TableScan: %s", s.Relation)
	}
	return fmt.Sprintf("TableScan: %s projection=[%s]", s.Relation, strings.Join(s.schema.Names(), ", "))
}

// NewTableScan creates a scan of a resolved table. A nil projection scans
// every column.
func NewTableScan(table *ResolvedTable, projection []int) (*TableScan, error) {
	schema, err := scanSchema(table.Schema, projection)
	if err != nil {
		return nil, err
	}
	return &TableScan{
		basePlan:   basePlan{schema: schema},
		Table:      table.Name,
		Relation:   table.Relation,
		Source:     table.Schema,
		Projection: projection,
	}, nil
}

func scanSchema(source *Schema, projection []int) (*Schema, error) {
	if projection == nil {
		return source, nil
	}
	cols := make([]Column, len(projection))
	for i, idx := range projection {
		if idx < 0 || idx >= source.Len() {
			return nil, errs.SchemaInconsistencyError(nodeTableScan,
				"projection ordinal %d out of range for %d columns", idx, source.Len())
		}
		cols[i] = source.Columns[idx]
	}
	return &Schema{Columns: cols}, nil
}

// Join combines two inputs. A cross join has no condition.
type Join struct {
	basePlan
	Left      LogicalPlan
	Right     LogicalPlan
	JoinType  JoinType
	Condition Expression
}

func (j *Join) logicalNode() {}

func (j *Join) String() string {
	if j.JoinType == CrossJoin {
		return "Cross Join:"
	}
	return fmt.Sprintf("%s Join: Filter: %s", j.JoinType, j.Condition)
}

// NewCrossJoin creates the cartesian product of left and right.
func NewCrossJoin(left, right LogicalPlan) *Join {
	return &Join{
		basePlan: basePlan{
			children: []Plan{left, right},
			schema:   Compose(left.Schema(), right.Schema()),
		},
		Left:     left,
		Right:    right,
		JoinType: CrossJoin,
	}
}

// NewJoin creates a conditional join. The condition's column references
// index the composed left-then-right schema.
func NewJoin(left, right LogicalPlan, joinType JoinType, condition Expression) (*Join, error) {
	if joinType == CrossJoin {
		if condition != nil {
			return nil, errs.SchemaInconsistencyError(nodeJoin, "cross join cannot carry a condition")
		}
		return NewCrossJoin(left, right), nil
	}
	if condition == nil {
		return nil, errs.SchemaInconsistencyError(nodeJoin, "%s join requires a condition", joinType)
	}

	composed := Compose(left.Schema(), right.Schema())
	if err := checkPredicate(nodeJoin, "JOIN/ON", condition, composed); err != nil {
		return nil, err
	}

	return &Join{
		basePlan: basePlan{
			children: []Plan{left, right},
			schema:   joinSchema(left.Schema(), right.Schema(), joinType),
		},
		Left:      left,
		Right:     right,
		JoinType:  joinType,
		Condition: condition,
	}, nil
}

// joinSchema composes the inputs and marks the columns of any side that
// an outer join may pad with NULLs as nullable.
func joinSchema(left, right *Schema, joinType JoinType) *Schema {
	out := Compose(left, right)
	nullLeft := joinType == RightJoin || joinType == FullJoin
	nullRight := joinType == LeftJoin || joinType == FullJoin
	for i := range out.Columns {
		if (i < left.Len() && nullLeft) || (i >= left.Len() && nullRight) {
			out.Columns[i].Nullable = true
		}
	}
	return out
}

// Projection computes a list of expressions over its input.
type Projection struct {
	basePlan
	Input LogicalPlan
	Items []ProjectionItem
}

func (p *Projection) logicalNode() {}

func (p *Projection) String() string {
	parts := make([]string, len(p.Items))
	for i, item := range p.Items {
		parts[i] = item.String()
	}
	return "Projection: " + strings.Join(parts, ", ")
}

// NewProjection creates a projection. Every column reference must match the
// input schema.
func NewProjection(input LogicalPlan, items []ProjectionItem) (*Projection, error) {
	for _, item := range items {
		if err := checkRefs(nodeProjection, item.Expr, input.Schema()); err != nil {
			return nil, err
		}
	}
	return &Projection{
		basePlan: basePlan{
			children: []Plan{input},
			schema:   projectionSchema(items),
		},
		Input: input,
		Items: items,
	}, nil
}

func projectionSchema(items []ProjectionItem) *Schema {
	cols := make([]Column, len(items))
	for i, item := range items {
		cols[i] = item.column()
	}
	return &Schema{Columns: cols}
}

// SubqueryAlias exposes its input under a new relation name.
type SubqueryAlias struct {
	basePlan
	Input LogicalPlan
	Alias string
}

func (a *SubqueryAlias) logicalNode() {}

func (a *SubqueryAlias) String() string {
	return "SubqueryAlias: " + a.Alias
}

// NewSubqueryAlias requalifies every column of input with alias.
func NewSubqueryAlias(input LogicalPlan, alias string) *SubqueryAlias {
	return &SubqueryAlias{
		basePlan: basePlan{
			children: []Plan{input},
			schema:   input.Schema().Requalify(alias),
		},
		Input: input,
		Alias: alias,
	}
}

// Filter keeps the input rows for which Predicate is true.
type Filter struct {
	basePlan
	Input     LogicalPlan
	Predicate Expression
}

func (f *Filter) logicalNode() {}

func (f *Filter) String() string {
	return "Filter: " + f.Predicate.String()
}

// NewFilter creates a filter; the predicate must be boolean.
func NewFilter(input LogicalPlan, predicate Expression) (*Filter, error) {
	if err := checkPredicate(nodeFilter, "WHERE", predicate, input.Schema()); err != nil {
		return nil, err
	}
	return &Filter{
		basePlan:  basePlan{children: []Plan{input}, schema: input.Schema()},
		Input:     input,
		Predicate: predicate,
	}, nil
}

// Limit skips Skip rows and then produces at most Fetch rows. A nil Fetch
// means no upper bound.
type Limit struct {
	basePlan
	Input LogicalPlan
	Skip  int64
	Fetch *int64
}

func (l *Limit) logicalNode() {}

func (l *Limit) String() string {
	return fmt.Sprintf("Limit: skip=%d, fetch=%s", l.Skip, formatFetch(l.Fetch))
}

// NewLimit creates a limit node.
func NewLimit(input LogicalPlan, skip int64, fetch *int64) (*Limit, error) {
	if skip < 0 {
		return nil, errs.Newf(errs.InvalidParameterValue, "OFFSET must not be negative")
	}
	if fetch != nil && *fetch < 0 {
		return nil, errs.Newf(errs.InvalidParameterValue, "LIMIT must not be negative")
	}
	return &Limit{
		basePlan: basePlan{children: []Plan{input}, schema: input.Schema()},
		Input:    input,
		Skip:     skip,
		Fetch:    fetch,
	}, nil
}

func formatFetch(fetch *int64) string {
	if fetch == nil {
		return "None"
	}
	return fmt.Sprintf("%d", *fetch)
}

// checkRefs verifies that every column reference in expr points at the
// column of input it claims to.
func checkRefs(node string, expr Expression, input *Schema) error {
	return walkColumns(expr, func(ref *ColumnRef) error {
		if ref.Index < 0 || ref.Index >= input.Len() {
			return errs.SchemaInconsistencyError(node,
				"column reference %s has ordinal %d but input has %d columns", ref, ref.Index, input.Len())
		}
		col := input.Columns[ref.Index]
		if col.Name != ref.Name || col.Relation != ref.Relation || !types.Equal(col.DataType, ref.ColumnType) {
			return errs.SchemaInconsistencyError(node,
				"column reference %s does not match input column %s at ordinal %d", ref, col.QualifiedName(), ref.Index)
		}
		return nil
	})
}

func checkPredicate(node, clause string, predicate Expression, input *Schema) error {
	if err := checkRefs(node, predicate, input); err != nil {
		return err
	}
	dt := predicate.DataType()
	if !types.Equal(dt, types.Boolean) && !types.Equal(dt, types.Unknown) {
		return errs.Newf(errs.DatatypeMismatch, "argument of %s must be type BOOLEAN, not type %s", clause, dt.Name())
	}
	return nil
}
