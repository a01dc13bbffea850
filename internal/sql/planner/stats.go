package planner

// Walk visits plan and its descendants depth first, parents before
// children, left before right. Returning false from fn skips the children
// of the node just visited.
func Walk(plan Plan, fn func(p Plan, depth int) bool) {
	walk(plan, 0, fn)
}

func walk(plan Plan, depth int, fn func(Plan, int) bool) {
	if plan == nil || !fn(plan, depth) {
		return
	}
	for _, child := range plan.Children() {
		walk(child, depth+1, fn)
	}
}

// CountNodes returns the number of nodes in plan.
func CountNodes(plan Plan) int {
	n := 0
	Walk(plan, func(Plan, int) bool {
		n++
		return true
	})
	return n
}

// CountAliases returns the number of SubqueryAlias nodes in plan.
func CountAliases(plan LogicalPlan) int {
	n := 0
	Walk(plan, func(p Plan, _ int) bool {
		if _, ok := p.(*SubqueryAlias); ok {
			n++
		}
		return true
	})
	return n
}

// Depth returns the number of levels in plan.
func Depth(plan Plan) int {
	deepest := 0
	Walk(plan, func(_ Plan, d int) bool {
		if d+1 > deepest {
			deepest = d + 1
		}
		return true
	})
	return deepest
}
