package planner

import (
	errs "github.com/dshills/quantaplan/internal/errors"
)

// Builder assembles logical plans bottom-up. Beyond the node constructors it
// drops identity projections, folds plain column projections into table
// scans and places alias renames under their SubqueryAlias. Errors it
// returns name the node being built; callers prepend their own position
// with at.
type Builder struct {
	// FoldScanProjections enables folding plain column projections into the
	// scan directly below them.
	FoldScanProjections bool
}

// NewBuilder returns a builder with scan folding enabled.
func NewBuilder() *Builder {
	return &Builder{FoldScanProjections: true}
}

// Scan creates a scan of every column of table.
func (b *Builder) Scan(table *ResolvedTable) (LogicalPlan, error) {
	scan, err := NewTableScan(table, nil)
	if err != nil {
		return nil, atNode(err, nodeTableScan)
	}
	return scan, nil
}

// CrossJoin joins left and right without a condition.
func (b *Builder) CrossJoin(left, right LogicalPlan) LogicalPlan {
	return NewCrossJoin(left, right)
}

// Join joins left and right on condition.
func (b *Builder) Join(left, right LogicalPlan, joinType JoinType, condition Expression) (LogicalPlan, error) {
	join, err := NewJoin(left, right, joinType, condition)
	if err != nil {
		return nil, atNode(err, nodeJoin)
	}
	return join, nil
}

// Project computes items over input. Plain column lists directly over a
// scan become the scan's projection; any other projection that reproduces
// its input unchanged is not inserted at all.
func (b *Builder) Project(input LogicalPlan, items []ProjectionItem) (LogicalPlan, error) {
	if scan, ok := input.(*TableScan); ok && b.FoldScanProjections {
		if ords, ok := plainColumns(items); ok {
			folded, err := foldIntoScan(scan, ords)
			if err != nil {
				return nil, atNode(err, nodeTableScan)
			}
			return folded, nil
		}
	}
	if isIdentity(items, input.Schema()) {
		return input, nil
	}
	proj, err := NewProjection(input, items)
	if err != nil {
		return nil, atNode(err, nodeProjection)
	}
	return proj, nil
}

// Alias binds alias over input. When the alias carries a column list the
// renaming projection becomes the child of the SubqueryAlias.
func (b *Builder) Alias(input LogicalPlan, alias AliasBinding) (LogicalPlan, error) {
	bound, err := Bind(alias, input.Schema())
	if err != nil {
		return nil, atNode(err, nodeSubqueryAlias)
	}

	child := input
	if bound.NeedsProjection() {
		proj, err := NewProjection(input, bound.Renames)
		if err != nil {
			return nil, at(atNode(err, nodeProjection), nodeSubqueryAlias, 0)
		}
		child = proj
	}

	node := NewSubqueryAlias(child, alias.Name)
	if !node.Schema().Equal(bound.Schema) {
		return nil, errs.SchemaInconsistencyError(nodeSubqueryAlias,
			"alias %s produces %s, expected %s", alias, node.Schema(), bound.Schema).AtNode(nodeSubqueryAlias)
	}
	return node, nil
}

// Filter keeps the rows of input satisfying predicate.
func (b *Builder) Filter(input LogicalPlan, predicate Expression) (LogicalPlan, error) {
	filter, err := NewFilter(input, predicate)
	if err != nil {
		return nil, atNode(err, nodeFilter)
	}
	return filter, nil
}

// Limit bounds the rows of input.
func (b *Builder) Limit(input LogicalPlan, skip int64, fetch *int64) (LogicalPlan, error) {
	limit, err := NewLimit(input, skip, fetch)
	if err != nil {
		return nil, atNode(err, nodeLimit)
	}
	return limit, nil
}

// isIdentity reports whether items return every input column, in order,
// without renaming or computing anything.
func isIdentity(items []ProjectionItem, input *Schema) bool {
	if len(items) != input.Len() {
		return false
	}
	for i, item := range items {
		ref, ok := item.Expr.(*ColumnRef)
		if !ok || item.Alias != "" || ref.Index != i {
			return false
		}
	}
	return true
}

// plainColumns returns the input ordinals of items when every item is an
// un-renamed column reference and no ordinal repeats.
func plainColumns(items []ProjectionItem) ([]int, bool) {
	ords := make([]int, len(items))
	seen := make(map[int]struct{}, len(items))
	for i, item := range items {
		ref, ok := item.Expr.(*ColumnRef)
		if !ok || item.Alias != "" {
			return nil, false
		}
		if _, dup := seen[ref.Index]; dup {
			return nil, false
		}
		seen[ref.Index] = struct{}{}
		ords[i] = ref.Index
	}
	return ords, true
}

// foldIntoScan narrows scan to ords, which index the scan's current output.
func foldIntoScan(scan *TableScan, ords []int) (*TableScan, error) {
	projection := make([]int, len(ords))
	for i, o := range ords {
		if o < 0 || o >= scan.Schema().Len() {
			return nil, errs.SchemaInconsistencyError(nodeTableScan,
				"column ordinal %d out of range for %d columns", o, scan.Schema().Len())
		}
		if scan.Projection != nil {
			projection[i] = scan.Projection[o]
		} else {
			projection[i] = o
		}
	}
	return NewTableScan(&ResolvedTable{
		Name:     scan.Table,
		Relation: scan.Relation,
		Schema:   scan.Source,
	}, projection)
}

// at prepends a (node, child) step to the path of a coded error.
func at(err error, node string, child int) error {
	if e, ok := errs.As(err); ok {
		e.At(node, child)
	}
	return err
}

// atNode records node as the failing node of a coded error that does not
// yet name one.
func atNode(err error, node string) error {
	if e, ok := errs.As(err); ok && len(e.Path) == 0 {
		e.AtNode(node)
	}
	return err
}
