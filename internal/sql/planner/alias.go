package planner

import (
	errs "github.com/dshills/quantaplan/internal/errors"
)

// AliasBinding names a relation in a FROM clause. Columns is nil when the
// alias has no column list; a non-nil empty slice is an explicit empty list.
type AliasBinding struct {
	Name    string
	Columns []string
}

// HasColumnList reports whether the alias carries an explicit column list.
func (a AliasBinding) HasColumnList() bool {
	return a.Columns != nil
}

func (a AliasBinding) String() string {
	if !a.HasColumnList() {
		return a.Name
	}
	s := a.Name + "("
	for i, c := range a.Columns {
		if i > 0 {
			s += ", "
		}
		s += c
	}
	return s + ")"
}

// AliasResult is the outcome of binding an alias to an underlying schema.
type AliasResult struct {
	// Schema is the output of the aliased relation, qualified by the alias.
	Schema *Schema
	// Renames holds one ordinal column reference per underlying column,
	// aliased to the explicit name. Nil when no projection is needed.
	Renames []ProjectionItem
}

// NeedsProjection reports whether a renaming projection must be placed under
// the alias.
func (r *AliasResult) NeedsProjection() bool {
	return r.Renames != nil
}

// Bind applies alias to a relation whose schema is underlying. Without a
// column list the columns keep their names. With one, the list must name
// exactly as many columns as underlying has, or AliasArityMismatch is
// returned.
func Bind(alias AliasBinding, underlying *Schema) (*AliasResult, error) {
	if !alias.HasColumnList() {
		return &AliasResult{Schema: underlying.Requalify(alias.Name)}, nil
	}

	if len(alias.Columns) != underlying.Len() {
		return nil, errs.AliasArityMismatchError(alias.Name, len(alias.Columns), underlying.Len())
	}

	renames := make([]ProjectionItem, len(alias.Columns))
	cols := make([]Column, len(alias.Columns))
	for i, name := range alias.Columns {
		renames[i] = ProjectionItem{Expr: refColumn(underlying, i), Alias: name}
		src := underlying.Columns[i]
		cols[i] = Column{
			Name:     name,
			DataType: src.DataType,
			Nullable: src.Nullable,
			Relation: alias.Name,
		}
	}

	return &AliasResult{Schema: &Schema{Columns: cols}, Renames: renames}, nil
}
