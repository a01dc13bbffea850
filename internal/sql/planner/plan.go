package planner

import (
	"fmt"
	"strings"

	"github.com/dshills/quantaplan/internal/sql/types"
)

// Plan represents a node in a query plan tree.
type Plan interface {
	// Children returns the child plans in input order.
	Children() []Plan
	// Schema returns the output schema of this plan node.
	Schema() *Schema
	// String returns the single-line description used by EXPLAIN.
	String() string
}

// LogicalPlan is a node of the logical plan. The set of implementations is
// closed: TableScan, Join, Projection, SubqueryAlias, Filter and Limit.
type LogicalPlan interface {
	Plan
	logicalNode()
}

// Schema represents the output schema of a plan node. A schema is never
// modified after the node that owns it has been constructed.
type Schema struct {
	Columns []Column
}

// Column represents a column in a schema.
type Column struct {
	Name     string
	DataType types.DataType
	Nullable bool
	// Relation is the qualifier the column is visible under, such as the
	// table name or the alias of a derived table. Empty for computed columns.
	Relation string
}

// QualifiedName returns relation.name, or just name for computed columns.
func (c Column) QualifiedName() string {
	if c.Relation == "" {
		return c.Name
	}
	return c.Relation + "." + c.Name
}

func (c Column) equal(o Column) bool {
	return c.Name == o.Name &&
		c.Relation == o.Relation &&
		c.Nullable == o.Nullable &&
		types.Equal(c.DataType, o.DataType)
}

// NewSchema copies columns into a new schema.
func NewSchema(columns ...Column) *Schema {
	cols := make([]Column, len(columns))
	copy(cols, columns)
	return &Schema{Columns: cols}
}

// Len returns the number of columns.
func (s *Schema) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Columns)
}

// Names returns the column names in order.
func (s *Schema) Names() []string {
	names := make([]string, s.Len())
	for i, c := range s.Columns {
		names[i] = c.Name
	}
	return names
}

// Equal reports whether two schemas have the same columns in the same order,
// qualifiers included.
func (s *Schema) Equal(o *Schema) bool {
	if s.Len() != o.Len() {
		return false
	}
	for i := range s.Columns {
		if !s.Columns[i].equal(o.Columns[i]) {
			return false
		}
	}
	return true
}

// Requalify returns a copy of the schema with every column visible under
// relation.
func (s *Schema) Requalify(relation string) *Schema {
	out := NewSchema(s.Columns...)
	for i := range out.Columns {
		out.Columns[i].Relation = relation
	}
	return out
}

func (s *Schema) String() string {
	parts := make([]string, s.Len())
	for i, c := range s.Columns {
		null := ""
		if !c.Nullable {
			null = " NOT NULL"
		}
		parts[i] = fmt.Sprintf("%s %s%s", c.QualifiedName(), c.DataType.Name(), null)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// JoinType represents the type of join.
type JoinType int

const (
	InnerJoin JoinType = iota
	LeftJoin
	RightJoin
	FullJoin
	CrossJoin
)

func (jt JoinType) String() string {
	switch jt {
	case InnerJoin:
		return "Inner"
	case LeftJoin:
		return "Left"
	case RightJoin:
		return "Right"
	case FullJoin:
		return "Full"
	case CrossJoin:
		return "Cross"
	default:
		return fmt.Sprintf("JoinType(%d)", int(jt))
	}
}

// basePlan provides common functionality for plan nodes.
type basePlan struct {
	children []Plan
	schema   *Schema
}

func (p *basePlan) Children() []Plan {
	return p.children
}

func (p *basePlan) Schema() *Schema {
	return p.schema
}
