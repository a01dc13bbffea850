package planner

import (
	"context"
	"fmt"

	errs "github.com/dshills/quantaplan/internal/errors"
	"github.com/dshills/quantaplan/internal/storage"
)

// PhysicalPlanner lowers logical plans to physical operator trees. The walk
// is structural and keeps child order; SubqueryAlias has no physical
// counterpart and disappears.
type PhysicalPlanner struct {
	layout storage.Layout
}

// NewPhysicalPlanner creates a physical planner that takes partition
// estimates from layout.
func NewPhysicalPlanner(layout storage.Layout) *PhysicalPlanner {
	return &PhysicalPlanner{layout: layout}
}

// Lower converts plan into a physical plan. It returns either a complete
// tree or an error, never both.
func (pp *PhysicalPlanner) Lower(ctx context.Context, plan LogicalPlan) (PhysicalPlan, error) {
	return pp.lower(ctx, plan)
}

func (pp *PhysicalPlanner) lower(ctx context.Context, plan LogicalPlan) (PhysicalPlan, error) {
	switch n := plan.(type) {
	case *TableScan:
		return pp.lowerScan(ctx, n)

	case *SubqueryAlias:
		input, err := pp.lower(ctx, n.Input)
		if err != nil {
			return nil, at(err, nodeSubqueryAlias, 0)
		}
		return input, nil

	case *Join:
		return pp.lowerJoin(ctx, n)

	case *Projection:
		input, err := pp.lower(ctx, n.Input)
		if err != nil {
			return nil, at(err, nodeProjection, 0)
		}
		exprs := make([]PhysProjection, len(n.Items))
		for i, item := range n.Items {
			expr, err := lowerExpr(item.Expr, n.Input.Schema())
			if err != nil {
				return nil, atNode(err, nodeProjection)
			}
			exprs[i] = PhysProjection{Expr: expr, Name: item.Name()}
		}
		return &ProjectionExec{
			physicalBase: inherit(n, input),
			Input:        input,
			Exprs:        exprs,
		}, nil

	case *Filter:
		input, err := pp.lower(ctx, n.Input)
		if err != nil {
			return nil, at(err, nodeFilter, 0)
		}
		pred, err := lowerExpr(n.Predicate, n.Input.Schema())
		if err != nil {
			return nil, atNode(err, nodeFilter)
		}
		return &FilterExec{
			physicalBase: inherit(n, input),
			Input:        input,
			Predicate:    pred,
		}, nil

	case *Limit:
		input, err := pp.lower(ctx, n.Input)
		if err != nil {
			return nil, at(err, nodeLimit, 0)
		}
		return &GlobalLimitExec{
			physicalBase: physicalBase{
				basePlan:   basePlan{children: []Plan{input}, schema: n.Schema()},
				partitions: limitPartitions(input.Partitions(), n.Skip, n.Fetch),
			},
			Input: input,
			Skip:  n.Skip,
			Fetch: n.Fetch,
		}, nil

	default:
		name := fmt.Sprintf("%T", plan)
		return nil, errs.LoweringUnsupportedError(name).AtNode(name)
	}
}

func (pp *PhysicalPlanner) lowerScan(ctx context.Context, scan *TableScan) (PhysicalPlan, error) {
	parts, err := pp.layout.Partitions(ctx, scan.Table.Schema, scan.Table.Name)
	if err != nil {
		return nil, atNode(collaboratorError(err, "reading partitions of %q failed", scan.Relation), nodeTableScan)
	}
	partitions := append([]storage.Partition(nil), parts...)

	return &DataSourceExec{
		physicalBase: physicalBase{
			basePlan:   basePlan{schema: scan.Schema()},
			partitions: partitions,
		},
		Table:      scan.Table,
		Projection: scan.Projection,
	}, nil
}

func (pp *PhysicalPlanner) lowerJoin(ctx context.Context, join *Join) (PhysicalPlan, error) {
	left, err := pp.lower(ctx, join.Left)
	if err != nil {
		return nil, at(err, nodeJoin, 0)
	}
	right, err := pp.lower(ctx, join.Right)
	if err != nil {
		return nil, at(err, nodeJoin, 1)
	}

	// The left side is collected in memory; output follows the right side.
	base := physicalBase{
		basePlan:   basePlan{children: []Plan{left, right}, schema: join.Schema()},
		partitions: right.Partitions(),
	}

	if join.Condition == nil {
		return &CrossJoinExec{physicalBase: base, Left: left, Right: right}, nil
	}

	filter, err := lowerExpr(join.Condition, Compose(join.Left.Schema(), join.Right.Schema()))
	if err != nil {
		return nil, atNode(err, nodeJoin)
	}
	return &NestedLoopJoinExec{
		physicalBase: base,
		Left:         left,
		Right:        right,
		JoinType:     join.JoinType,
		Filter:       filter,
	}, nil
}

// inherit builds the base of a single-input operator that keeps the
// partitioning of its input.
func inherit(node LogicalPlan, input PhysicalPlan) physicalBase {
	return physicalBase{
		basePlan:   basePlan{children: []Plan{input}, schema: node.Schema()},
		partitions: input.Partitions(),
	}
}

// lowerExpr rewrites a bound expression into positional form over input.
func lowerExpr(expr Expression, input *Schema) (PhysicalExpr, error) {
	switch e := expr.(type) {
	case *ColumnRef:
		if e.Index < 0 || e.Index >= input.Len() {
			return nil, errs.SchemaInconsistencyError(e.String(),
				"column %s has ordinal %d but input has %d columns", e, e.Index, input.Len())
		}
		return &PhysColumn{Name: input.Columns[e.Index].Name, Index: e.Index}, nil
	case *Literal:
		return &PhysLiteral{Value: e.Value}, nil
	case *BinaryOp:
		left, err := lowerExpr(e.Left, input)
		if err != nil {
			return nil, err
		}
		right, err := lowerExpr(e.Right, input)
		if err != nil {
			return nil, err
		}
		return &PhysBinary{Left: left, Right: right, Operator: e.Operator}, nil
	case *NotExpr:
		inner, err := lowerExpr(e.Expr, input)
		if err != nil {
			return nil, err
		}
		return &PhysNot{Expr: inner}, nil
	case *NegateExpr:
		inner, err := lowerExpr(e.Expr, input)
		if err != nil {
			return nil, err
		}
		return &PhysNegate{Expr: inner}, nil
	case *IsNullExpr:
		inner, err := lowerExpr(e.Expr, input)
		if err != nil {
			return nil, err
		}
		return &PhysIsNull{Expr: inner, Not: e.Not}, nil
	case *Cast:
		inner, err := lowerExpr(e.Expr, input)
		if err != nil {
			return nil, err
		}
		return &PhysCast{Expr: inner, Type: e.Type}, nil
	default:
		return nil, errs.LoweringUnsupportedError(fmt.Sprintf("expression %T", expr))
	}
}
