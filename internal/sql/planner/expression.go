package planner

import (
	"fmt"

	"github.com/dshills/quantaplan/internal/sql/types"
)

// Expression is a bound scalar expression in a logical plan. Column
// references are already resolved to an ordinal of the input schema.
type Expression interface {
	// String returns a string representation.
	String() string
	// DataType returns the data type of the expression.
	DataType() types.DataType
	// Nullable reports whether the expression may evaluate to NULL.
	Nullable() bool
	expressionNode()
}

// ColumnRef references column Index of the input schema. Relation and Name
// are kept for display and for schema checks.
type ColumnRef struct {
	Relation   string
	Name       string
	Index      int
	ColumnType types.DataType
	IsNullable bool
}

func (c *ColumnRef) expressionNode() {}

func (c *ColumnRef) String() string {
	if c.Relation != "" {
		return fmt.Sprintf("%s.%s", c.Relation, c.Name)
	}
	return c.Name
}

func (c *ColumnRef) DataType() types.DataType { return c.ColumnType }
func (c *ColumnRef) Nullable() bool           { return c.IsNullable }

// refColumn builds a reference to column i of schema.
func refColumn(schema *Schema, i int) *ColumnRef {
	col := schema.Columns[i]
	return &ColumnRef{
		Relation:   col.Relation,
		Name:       col.Name,
		Index:      i,
		ColumnType: col.DataType,
		IsNullable: col.Nullable,
	}
}

// Literal represents a literal value.
type Literal struct {
	Value types.Value
}

func (l *Literal) expressionNode() {}

func (l *Literal) String() string { return l.Value.SQL() }

func (l *Literal) DataType() types.DataType { return l.Value.Type() }
func (l *Literal) Nullable() bool           { return l.Value.IsNull() }

// BinaryOperator represents a binary operator.
type BinaryOperator int

const (
	OpAdd BinaryOperator = iota
	OpSubtract
	OpMultiply
	OpDivide
	OpModulo
	OpEqual
	OpNotEqual
	OpLess
	OpLessEqual
	OpGreater
	OpGreaterEqual
	OpAnd
	OpOr
)

func (op BinaryOperator) String() string {
	switch op {
	case OpAdd:
		return "+"
	case OpSubtract:
		return "-"
	case OpMultiply:
		return "*"
	case OpDivide:
		return "/"
	case OpModulo:
		return "%"
	case OpEqual:
		return "="
	case OpNotEqual:
		return "!="
	case OpLess:
		return "<"
	case OpLessEqual:
		return "<="
	case OpGreater:
		return ">"
	case OpGreaterEqual:
		return ">="
	case OpAnd:
		return "AND"
	case OpOr:
		return "OR"
	default:
		return fmt.Sprintf("op(%d)", int(op))
	}
}

// Precedence returns the binding strength of the operator; higher binds
// tighter.
func (op BinaryOperator) Precedence() int {
	switch op {
	case OpOr:
		return 1
	case OpAnd:
		return 2
	case OpEqual, OpNotEqual, OpLess, OpLessEqual, OpGreater, OpGreaterEqual:
		return 3
	case OpAdd, OpSubtract:
		return 4
	default:
		return 5
	}
}

// IsPredicate reports whether the operator produces a boolean.
func (op BinaryOperator) IsPredicate() bool {
	return op.Precedence() <= 3
}

// BinaryOp represents a binary operation.
type BinaryOp struct {
	Left     Expression
	Right    Expression
	Operator BinaryOperator
	Type     types.DataType
}

func (b *BinaryOp) expressionNode() {}

func (b *BinaryOp) String() string {
	return formatBinary(b.Left, b.Right, b.Operator)
}

func (b *BinaryOp) DataType() types.DataType { return b.Type }

func (b *BinaryOp) Nullable() bool {
	return b.Left.Nullable() || b.Right.Nullable()
}

func (b *BinaryOp) precedence() int { return b.Operator.Precedence() }

// NotExpr negates a boolean expression.
type NotExpr struct {
	Expr Expression
}

func (n *NotExpr) expressionNode() {}

func (n *NotExpr) String() string { return "NOT " + operand(n.Expr) }

func (n *NotExpr) DataType() types.DataType { return types.Boolean }
func (n *NotExpr) Nullable() bool           { return n.Expr.Nullable() }

// NegateExpr is arithmetic negation.
type NegateExpr struct {
	Expr Expression
}

func (n *NegateExpr) expressionNode() {}

func (n *NegateExpr) String() string { return "-" + operand(n.Expr) }

func (n *NegateExpr) DataType() types.DataType { return n.Expr.DataType() }
func (n *NegateExpr) Nullable() bool           { return n.Expr.Nullable() }

// IsNullExpr tests an expression for NULL.
type IsNullExpr struct {
	Expr Expression
	Not  bool
}

func (i *IsNullExpr) expressionNode() {}

func (i *IsNullExpr) String() string {
	if i.Not {
		return operand(i.Expr) + " IS NOT NULL"
	}
	return operand(i.Expr) + " IS NULL"
}

func (i *IsNullExpr) DataType() types.DataType { return types.Boolean }
func (i *IsNullExpr) Nullable() bool           { return false }

// Cast converts Expr to Type. The binder inserts casts where operand types
// differ; CAST(x AS t) in the query text produces one directly.
type Cast struct {
	Expr Expression
	Type types.DataType
}

func (c *Cast) expressionNode() {}

func (c *Cast) String() string { return fmt.Sprintf("CAST(%s AS %s)", c.Expr, c.Type.Name()) }

func (c *Cast) DataType() types.DataType { return c.Type }
func (c *Cast) Nullable() bool           { return c.Expr.Nullable() }

// ProjectionItem is one output column of a projection.
type ProjectionItem struct {
	Expr  Expression
	Alias string
}

// Name returns the output column name.
func (p ProjectionItem) Name() string {
	if p.Alias != "" {
		return p.Alias
	}
	if ref, ok := p.Expr.(*ColumnRef); ok {
		return ref.Name
	}
	return p.Expr.String()
}

func (p ProjectionItem) String() string {
	if p.Alias != "" {
		return fmt.Sprintf("%s AS %s", p.Expr, p.Alias)
	}
	return p.Expr.String()
}

// column returns the output column the item produces.
func (p ProjectionItem) column() Column {
	col := Column{
		Name:     p.Name(),
		DataType: p.Expr.DataType(),
		Nullable: p.Expr.Nullable(),
	}
	if ref, ok := p.Expr.(*ColumnRef); ok && p.Alias == "" {
		col.Relation = ref.Relation
	}
	return col
}

// walkColumns calls fn for every column reference in expr.
func walkColumns(expr Expression, fn func(*ColumnRef) error) error {
	switch e := expr.(type) {
	case *ColumnRef:
		return fn(e)
	case *BinaryOp:
		if err := walkColumns(e.Left, fn); err != nil {
			return err
		}
		return walkColumns(e.Right, fn)
	case *NotExpr:
		return walkColumns(e.Expr, fn)
	case *NegateExpr:
		return walkColumns(e.Expr, fn)
	case *IsNullExpr:
		return walkColumns(e.Expr, fn)
	case *Cast:
		return walkColumns(e.Expr, fn)
	}
	return nil
}

type precedencer interface {
	precedence() int
}

// formatBinary renders "l op r", parenthesizing operands that bind looser
// than op. The right operand is also parenthesized at equal precedence.
func formatBinary(l, r fmt.Stringer, op BinaryOperator) string {
	ls, rs := l.String(), r.String()
	if p, ok := l.(precedencer); ok && p.precedence() < op.Precedence() {
		ls = "(" + ls + ")"
	}
	if p, ok := r.(precedencer); ok && p.precedence() <= op.Precedence() {
		rs = "(" + rs + ")"
	}
	return fmt.Sprintf("%s %s %s", ls, op, rs)
}

// operand renders the argument of a prefix or postfix operator.
func operand(s fmt.Stringer) string {
	if _, ok := s.(precedencer); ok {
		return "(" + s.String() + ")"
	}
	return s.String()
}
