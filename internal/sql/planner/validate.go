package planner

import (
	"fmt"

	errs "github.com/dshills/quantaplan/internal/errors"
)

// Validate re-derives the schema of every node in plan from its inputs and
// checks it against the schema the node declares. It returns the first
// SchemaInconsistency found, with the path to the offending node.
func Validate(plan LogicalPlan) error {
	return validate(plan)
}

func validate(plan LogicalPlan) error {
	name := logicalName(plan)
	for i, child := range logicalChildren(plan) {
		if err := validate(child); err != nil {
			return at(err, name, i)
		}
	}

	want, err := deriveSchema(plan)
	if err != nil {
		return atNode(err, name)
	}
	if !plan.Schema().Equal(want) {
		return errs.SchemaInconsistencyError(name,
			"declared schema %s does not match derived schema %s", plan.Schema(), want).AtNode(name)
	}
	return nil
}

// deriveSchema computes the schema node should have from its inputs.
func deriveSchema(plan LogicalPlan) (*Schema, error) {
	switch n := plan.(type) {
	case *TableScan:
		return scanSchema(n.Source, n.Projection)
	case *Join:
		if n.JoinType == CrossJoin {
			if n.Condition != nil {
				return nil, errs.SchemaInconsistencyError(nodeJoin, "cross join cannot carry a condition")
			}
			return Compose(n.Left.Schema(), n.Right.Schema()), nil
		}
		if n.Condition == nil {
			return nil, errs.SchemaInconsistencyError(nodeJoin, "%s join requires a condition", n.JoinType)
		}
		if err := checkRefs(nodeJoin, n.Condition, Compose(n.Left.Schema(), n.Right.Schema())); err != nil {
			return nil, err
		}
		return joinSchema(n.Left.Schema(), n.Right.Schema(), n.JoinType), nil
	case *Projection:
		for _, item := range n.Items {
			if err := checkRefs(nodeProjection, item.Expr, n.Input.Schema()); err != nil {
				return nil, err
			}
		}
		return projectionSchema(n.Items), nil
	case *SubqueryAlias:
		return n.Input.Schema().Requalify(n.Alias), nil
	case *Filter:
		if err := checkRefs(nodeFilter, n.Predicate, n.Input.Schema()); err != nil {
			return nil, err
		}
		return n.Input.Schema(), nil
	case *Limit:
		return n.Input.Schema(), nil
	default:
		return nil, errs.SchemaInconsistencyError(fmt.Sprintf("%T", plan), "unknown logical node %T", plan)
	}
}

// logicalChildren returns the typed inputs of a logical node.
func logicalChildren(plan LogicalPlan) []LogicalPlan {
	switch n := plan.(type) {
	case *Join:
		return []LogicalPlan{n.Left, n.Right}
	case *Projection:
		return []LogicalPlan{n.Input}
	case *SubqueryAlias:
		return []LogicalPlan{n.Input}
	case *Filter:
		return []LogicalPlan{n.Input}
	case *Limit:
		return []LogicalPlan{n.Input}
	default:
		return nil
	}
}

// logicalName returns the name a node is reported under in error paths.
func logicalName(plan LogicalPlan) string {
	switch plan.(type) {
	case *TableScan:
		return nodeTableScan
	case *Join:
		return nodeJoin
	case *Projection:
		return nodeProjection
	case *SubqueryAlias:
		return nodeSubqueryAlias
	case *Filter:
		return nodeFilter
	case *Limit:
		return nodeLimit
	default:
		return fmt.Sprintf("%T", plan)
	}
}
