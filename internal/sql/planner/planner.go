package planner

import (
	"context"
	"strings"

	errs "github.com/dshills/quantaplan/internal/errors"
	"github.com/dshills/quantaplan/internal/sql/parser"
	"github.com/dshills/quantaplan/internal/sql/types"
)

// Planner turns parsed SELECT statements into logical plans. It keeps no
// per-query state, so one Planner may serve concurrent compiles.
type Planner struct {
	registry *Registry
	builder  *Builder
}

// NewPlanner creates a planner resolving relations through registry.
func NewPlanner(registry *Registry, builder *Builder) *Planner {
	if builder == nil {
		builder = NewBuilder()
	}
	return &Planner{registry: registry, builder: builder}
}

// Plan builds the logical plan of stmt. It returns either a complete plan
// or an error, never both.
func (p *Planner) Plan(ctx context.Context, stmt *parser.SelectStmt) (LogicalPlan, error) {
	if stmt == nil {
		return nil, errs.New(errs.InternalError, "nil statement")
	}
	return p.planSelect(ctx, stmt)
}

// planSelect builds FROM, then WHERE, then the select list, then LIMIT.
func (p *Planner) planSelect(ctx context.Context, stmt *parser.SelectStmt) (LogicalPlan, error) {
	if stmt.From == nil {
		return nil, errs.FeatureNotSupportedError("SELECT without FROM")
	}

	plan, err := p.planTableExpr(ctx, stmt.From)
	if err != nil {
		return nil, err
	}

	if stmt.Where != nil {
		pred, err := bindExpr(stmt.Where, plan.Schema())
		if err != nil {
			return nil, atNode(err, nodeFilter)
		}
		if plan, err = p.builder.Filter(plan, pred); err != nil {
			return nil, err
		}
	}

	items, err := bindSelectList(stmt.Columns, plan.Schema())
	if err != nil {
		return nil, atNode(err, nodeProjection)
	}
	if plan, err = p.builder.Project(plan, items); err != nil {
		return nil, err
	}

	if stmt.Limit != nil || stmt.Offset != nil {
		var skip int64
		if stmt.Offset != nil {
			skip = *stmt.Offset
		}
		if plan, err = p.builder.Limit(plan, skip, stmt.Limit); err != nil {
			return nil, err
		}
	}

	return plan, nil
}

// planTableExpr builds the plan of one FROM item.
func (p *Planner) planTableExpr(ctx context.Context, expr parser.TableExpression) (LogicalPlan, error) {
	switch te := expr.(type) {
	case *parser.TableRef:
		table, err := p.registry.Resolve(ctx, TableName{Schema: te.Table.Schema, Name: te.Table.Name})
		if err != nil {
			return nil, atNode(err, nodeTableScan)
		}
		scan, err := p.builder.Scan(table)
		if err != nil {
			return nil, err
		}
		return p.alias(scan, te.Alias)

	case *parser.SubqueryRef:
		plan, err := p.planSelect(ctx, te.Query)
		if err != nil {
			return nil, aliasedAt(err, te.Alias)
		}
		return p.alias(plan, te.Alias)

	case *parser.ParenTableExpr:
		plan, err := p.planTableExpr(ctx, te.Expr)
		if err != nil {
			return nil, aliasedAt(err, te.Alias)
		}
		return p.alias(plan, te.Alias)

	case *parser.JoinExpr:
		return p.planJoin(ctx, te)

	default:
		return nil, errs.FeatureNotSupportedError("table expression " + expr.String())
	}
}

func (p *Planner) planJoin(ctx context.Context, je *parser.JoinExpr) (LogicalPlan, error) {
	left, err := p.planTableExpr(ctx, je.Left)
	if err != nil {
		return nil, at(err, nodeJoin, 0)
	}
	right, err := p.planTableExpr(ctx, je.Right)
	if err != nil {
		return nil, at(err, nodeJoin, 1)
	}

	joinType := convertJoinType(je.JoinType)
	if joinType == CrossJoin {
		return p.builder.CrossJoin(left, right), nil
	}

	cond, err := bindExpr(je.Condition, Compose(left.Schema(), right.Schema()))
	if err != nil {
		return nil, atNode(err, nodeJoin)
	}
	return p.builder.Join(left, right, joinType, cond)
}

func (p *Planner) alias(plan LogicalPlan, alias *parser.TableAlias) (LogicalPlan, error) {
	if alias == nil {
		return plan, nil
	}
	return p.builder.Alias(plan, AliasBinding{Name: alias.Name, Columns: alias.Columns})
}

// aliasedAt records that a failure happened below an alias that was never
// built.
func aliasedAt(err error, alias *parser.TableAlias) error {
	if alias == nil {
		return err
	}
	return at(err, nodeSubqueryAlias, 0)
}

func convertJoinType(jt parser.JoinType) JoinType {
	switch jt {
	case parser.LeftJoin:
		return LeftJoin
	case parser.RightJoin:
		return RightJoin
	case parser.FullJoin:
		return FullJoin
	case parser.CrossJoin:
		return CrossJoin
	default:
		return InnerJoin
	}
}

// bindSelectList resolves the select list against input, expanding stars
// in resolution order.
func bindSelectList(columns []parser.SelectColumn, input *Schema) ([]ProjectionItem, error) {
	var items []ProjectionItem
	for _, col := range columns {
		if star, ok := col.Expr.(*parser.Star); ok {
			expanded, err := expandStar(star, input)
			if err != nil {
				return nil, err
			}
			items = append(items, expanded...)
			continue
		}
		expr, err := bindExpr(col.Expr, input)
		if err != nil {
			return nil, err
		}
		items = append(items, ProjectionItem{Expr: expr, Alias: col.Alias})
	}
	return items, nil
}

func expandStar(star *parser.Star, input *Schema) ([]ProjectionItem, error) {
	var items []ProjectionItem
	for i, col := range input.Columns {
		if star.Table == "" || relationMatches(col.Relation, star.Table) {
			items = append(items, ProjectionItem{Expr: refColumn(input, i)})
		}
	}
	if star.Table != "" && len(items) == 0 {
		return nil, errs.Newf(errs.UndefinedTable, "missing FROM-clause entry for table \"%s\"", star.Table).
			WithTable("", star.Table)
	}
	return items, nil
}

// relationMatches reports whether a column qualified by relation is visible
// as qualifier. A schema-qualified relation also answers to its bare table
// name.
func relationMatches(relation, qualifier string) bool {
	if relation == qualifier {
		return true
	}
	return strings.HasSuffix(relation, "."+qualifier)
}

// resolveColumn finds the ordinal of a column reference in input.
func resolveColumn(id *parser.Identifier, input *Schema) (int, error) {
	found := -1
	for i, col := range input.Columns {
		if col.Name != id.Name {
			continue
		}
		if id.Table != "" && !relationMatches(col.Relation, id.Table) {
			continue
		}
		if found >= 0 {
			return -1, errs.AmbiguousColumnError(id.String())
		}
		found = i
	}
	if found < 0 {
		return -1, errs.ColumnNotFoundError(id.Name, id.Table)
	}
	return found, nil
}

// bindExpr resolves every column reference of expr against input.
func bindExpr(expr parser.Expression, input *Schema) (Expression, error) {
	switch e := expr.(type) {
	case *parser.Identifier:
		idx, err := resolveColumn(e, input)
		if err != nil {
			return nil, err
		}
		return refColumn(input, idx), nil

	case *parser.Literal:
		return &Literal{Value: e.Value}, nil

	case *parser.BinaryExpr:
		return bindBinary(e.Left, e.Right, e.Op, input)

	case *parser.UnaryExpr:
		inner, err := bindExpr(e.Operand, input)
		if err != nil {
			return nil, err
		}
		switch e.Op { //nolint:exhaustive
		case parser.TokenNot:
			if err := checkUnary("NOT", types.CategoryBoolean, inner); err != nil {
				return nil, err
			}
			return &NotExpr{Expr: inner}, nil
		case parser.TokenMinus:
			if err := checkUnary("unary -", types.CategoryNumeric, inner); err != nil {
				return nil, err
			}
			return &NegateExpr{Expr: inner}, nil
		case parser.TokenPlus:
			if err := checkUnary("unary +", types.CategoryNumeric, inner); err != nil {
				return nil, err
			}
			return inner, nil
		}
		return nil, errs.FeatureNotSupportedError("unary operator " + e.Op.String())

	case *parser.NullTest:
		inner, err := bindExpr(e.Operand, input)
		if err != nil {
			return nil, err
		}
		return &IsNullExpr{Expr: inner, Not: e.Negated}, nil

	case *parser.CastExpr:
		inner, err := bindExpr(e.Expr, input)
		if err != nil {
			return nil, err
		}
		if types.Equal(inner.DataType(), e.Type) {
			return inner, nil
		}
		return &Cast{Expr: inner, Type: e.Type}, nil

	case *parser.Star:
		return nil, errs.FeatureNotSupportedError("* outside a select list")

	default:
		return nil, errs.FeatureNotSupportedError("expression " + expr.String())
	}
}

func bindBinary(l, r parser.Expression, tok parser.TokenType, input *Schema) (Expression, error) {
	op, ok := binaryOperators[tok]
	if !ok {
		return nil, errs.FeatureNotSupportedError("operator " + tok.String())
	}
	left, err := bindExpr(l, input)
	if err != nil {
		return nil, err
	}
	right, err := bindExpr(r, input)
	if err != nil {
		return nil, err
	}

	return coerceBinary(op, left, right)
}

var binaryOperators = map[parser.TokenType]BinaryOperator{
	parser.TokenPlus:         OpAdd,
	parser.TokenMinus:        OpSubtract,
	parser.TokenStar:         OpMultiply,
	parser.TokenSlash:        OpDivide,
	parser.TokenPercent:      OpModulo,
	parser.TokenEqual:        OpEqual,
	parser.TokenNotEqual:     OpNotEqual,
	parser.TokenLess:         OpLess,
	parser.TokenLessEqual:    OpLessEqual,
	parser.TokenGreater:      OpGreater,
	parser.TokenGreaterEqual: OpGreaterEqual,
	parser.TokenAnd:          OpAnd,
	parser.TokenOr:           OpOr,
}
