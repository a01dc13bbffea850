package parser

import (
	"fmt"
	"strings"

	"github.com/dshills/quantaplan/internal/sql/types"
)

// Node is implemented by every syntax tree element.
type Node interface {
	String() string
}

// Statement is a top-level SQL statement.
type Statement interface {
	Node
	statementNode()
}

// Expression is a scalar expression.
type Expression interface {
	Node
	expressionNode()
}

// TableExpression is anything that may appear in a FROM clause.
type TableExpression interface {
	Node
	tableExpressionNode()
}

// ObjectName is a possibly schema-qualified relation name.
type ObjectName struct {
	Schema string
	Name   string
}

func (n ObjectName) String() string {
	if n.Schema == "" {
		return n.Name
	}
	return n.Schema + "." + n.Name
}

// CreateTableStmt is CREATE TABLE name (columns).
type CreateTableStmt struct {
	Table   ObjectName
	Columns []ColumnDef
}

// DropTableStmt is DROP TABLE [IF EXISTS] name.
type DropTableStmt struct {
	Table    ObjectName
	IfExists bool
}

// ColumnDef is one column of a CREATE TABLE.
type ColumnDef struct {
	Name       string
	DataType   types.DataType
	NotNull    bool
	PrimaryKey bool
}

// SelectStmt is SELECT ... [FROM ...] [WHERE ...] [LIMIT n] [OFFSET n].
type SelectStmt struct {
	Columns []SelectColumn
	From    TableExpression
	Where   Expression
	Limit   *int64
	Offset  *int64
}

// SelectColumn is one select list item with its optional output name.
type SelectColumn struct {
	Expr  Expression
	Alias string
}

func (*CreateTableStmt) statementNode() {}
func (*DropTableStmt) statementNode()   {}
func (*SelectStmt) statementNode()      {}

func (s *CreateTableStmt) String() string {
	return fmt.Sprintf("CREATE TABLE %s (%s)", s.Table, joinNodes(s.Columns, ", "))
}

func (s *DropTableStmt) String() string {
	if s.IfExists {
		return "DROP TABLE IF EXISTS " + s.Table.String()
	}
	return "DROP TABLE " + s.Table.String()
}

func (c ColumnDef) String() string {
	s := c.Name + " " + c.DataType.Name()
	switch {
	case c.PrimaryKey:
		s += " PRIMARY KEY"
	case c.NotNull:
		s += " NOT NULL"
	}
	return s
}

func (s *SelectStmt) String() string {
	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(joinNodes(s.Columns, ", "))
	if s.From != nil {
		fmt.Fprintf(&b, " FROM %s", s.From)
	}
	if s.Where != nil {
		fmt.Fprintf(&b, " WHERE %s", s.Where)
	}
	if s.Limit != nil {
		fmt.Fprintf(&b, " LIMIT %d", *s.Limit)
	}
	if s.Offset != nil {
		fmt.Fprintf(&b, " OFFSET %d", *s.Offset)
	}
	return b.String()
}

func (c SelectColumn) String() string {
	if c.Alias == "" {
		return c.Expr.String()
	}
	return c.Expr.String() + " AS " + c.Alias
}

// TableAlias is "AS name" or "AS name(col, ...)". Columns is nil when no
// column list was written and non-nil (possibly empty) when one was.
type TableAlias struct {
	Name    string
	Columns []string
}

func (a *TableAlias) String() string {
	if a.Columns == nil {
		return a.Name
	}
	return a.Name + "(" + strings.Join(a.Columns, ", ") + ")"
}

// TableRef names a base relation.
type TableRef struct {
	Table ObjectName
	Alias *TableAlias
}

// SubqueryRef is a derived table: (SELECT ...) [AS alias].
type SubqueryRef struct {
	Query *SelectStmt
	Alias *TableAlias
}

// ParenTableExpr is a parenthesized table expression such as
// "(a CROSS JOIN b) AS f".
type ParenTableExpr struct {
	Expr  TableExpression
	Alias *TableAlias
}

// JoinExpr combines two table expressions. Condition is nil for CROSS JOIN.
type JoinExpr struct {
	Left      TableExpression
	Right     TableExpression
	JoinType  JoinType
	Condition Expression
}

func (*TableRef) tableExpressionNode()       {}
func (*SubqueryRef) tableExpressionNode()    {}
func (*ParenTableExpr) tableExpressionNode() {}
func (*JoinExpr) tableExpressionNode()       {}

func (t *TableRef) String() string { return t.Table.String() + aliasSuffix(t.Alias) }

func (s *SubqueryRef) String() string { return "(" + s.Query.String() + ")" + aliasSuffix(s.Alias) }

func (p *ParenTableExpr) String() string { return "(" + p.Expr.String() + ")" + aliasSuffix(p.Alias) }

func (j *JoinExpr) String() string {
	s := fmt.Sprintf("%s %s %s", j.Left, j.JoinType, j.Right)
	if j.Condition != nil {
		s += " ON " + j.Condition.String()
	}
	return s
}

func aliasSuffix(a *TableAlias) string {
	if a == nil {
		return ""
	}
	return " AS " + a.String()
}

// JoinType is the join operator written in a FROM clause.
type JoinType int

const (
	InnerJoin JoinType = iota
	LeftJoin
	RightJoin
	FullJoin
	CrossJoin
)

var joinTypeNames = [...]string{
	InnerJoin: "INNER JOIN",
	LeftJoin:  "LEFT JOIN",
	RightJoin: "RIGHT JOIN",
	FullJoin:  "FULL JOIN",
	CrossJoin: "CROSS JOIN",
}

func (jt JoinType) String() string {
	if jt >= 0 && int(jt) < len(joinTypeNames) {
		return joinTypeNames[jt]
	}
	return fmt.Sprintf("JoinType(%d)", int(jt))
}

// Literal is a constant.
type Literal struct {
	Value types.Value
}

// Identifier is a column reference, optionally qualified by a relation.
type Identifier struct {
	Table string
	Name  string
}

// Star is * or rel.* in a select list.
type Star struct {
	Table string
}

// BinaryExpr covers arithmetic, comparison and the AND/OR connectives.
// Parentheses in the source are not kept; String brackets every binary
// node instead.
type BinaryExpr struct {
	Op    TokenType
	Left  Expression
	Right Expression
}

// UnaryExpr is NOT, unary minus or unary plus.
type UnaryExpr struct {
	Op      TokenType
	Operand Expression
}

// NullTest is expr IS [NOT] NULL.
type NullTest struct {
	Operand Expression
	Negated bool
}

// CastExpr is CAST(expr AS type).
type CastExpr struct {
	Expr Expression
	Type types.DataType
}

func (*Literal) expressionNode()    {}
func (*Identifier) expressionNode() {}
func (*Star) expressionNode()       {}
func (*BinaryExpr) expressionNode() {}
func (*UnaryExpr) expressionNode()  {}
func (*NullTest) expressionNode()   {}
func (*CastExpr) expressionNode()   {}

func (l *Literal) String() string { return l.Value.SQL() }

func (i *Identifier) String() string { return qualify(i.Table, i.Name) }

func (s *Star) String() string { return qualify(s.Table, "*") }

func (b *BinaryExpr) String() string {
	return fmt.Sprintf("(%s %s %s)", b.Left, b.Op, b.Right)
}

func (u *UnaryExpr) String() string {
	if u.Op == TokenNot {
		return "NOT " + u.Operand.String()
	}
	return u.Op.String() + u.Operand.String()
}

func (n *NullTest) String() string {
	if n.Negated {
		return n.Operand.String() + " IS NOT NULL"
	}
	return n.Operand.String() + " IS NULL"
}

func (c *CastExpr) String() string {
	return fmt.Sprintf("CAST(%s AS %s)", c.Expr, c.Type.Name())
}

func qualify(rel, name string) string {
	if rel == "" {
		return name
	}
	return rel + "." + name
}

func joinNodes[T fmt.Stringer](items []T, sep string) string {
	parts := make([]string, len(items))
	for i, it := range items {
		parts[i] = it.String()
	}
	return strings.Join(parts, sep)
}
