package planner

import (
	"context"

	crdb "github.com/cockroachdb/errors"

	"github.com/dshills/quantaplan/internal/catalog"
	errs "github.com/dshills/quantaplan/internal/errors"
)

// TableName identifies a base relation. An empty Schema means the
// registry's default schema.
type TableName struct {
	Schema string
	Name   string
}

// Relation returns the qualifier columns of the table are visible under:
// the name as written in the query.
func (n TableName) Relation() string {
	if n.Schema != "" {
		return n.Schema + "." + n.Name
	}
	return n.Name
}

// Registry resolves relation names to schemas through the catalog. It holds
// no state of its own and is safe for concurrent use when the catalog is.
type Registry struct {
	catalog       catalog.Catalog
	defaultSchema string
}

// NewRegistry creates a registry reading from cat. Unqualified names are
// looked up in defaultSchema.
func NewRegistry(cat catalog.Catalog, defaultSchema string) *Registry {
	if defaultSchema == "" {
		defaultSchema = catalog.DefaultSchema
	}
	return &Registry{catalog: cat, defaultSchema: defaultSchema}
}

// DefaultSchema returns the schema unqualified names resolve in.
func (r *Registry) DefaultSchema() string {
	return r.defaultSchema
}

// ResolvedTable is a catalog table together with its plan schema.
type ResolvedTable struct {
	// Name has the schema filled in; Relation is the name as written.
	Name     TableName
	Relation string
	Table    *catalog.Table
	Schema   *Schema
}

// Resolve looks up a relation and returns its columns in catalog order,
// qualified by the relation name. A missing table yields UnknownRelation;
// any other catalog failure is reported as an I/O error.
func (r *Registry) Resolve(ctx context.Context, name TableName) (*ResolvedTable, error) {
	schemaName := name.Schema
	if schemaName == "" {
		schemaName = r.defaultSchema
	}

	table, err := r.catalog.GetTable(ctx, schemaName, name.Name)
	if err != nil {
		if crdb.Is(err, catalog.ErrTableNotFound) {
			return nil, errs.UnknownRelationError(schemaName, name.Name)
		}
		return nil, collaboratorError(err, "catalog lookup of %q failed", name.Relation())
	}

	relation := name.Relation()
	cols := make([]Column, len(table.Columns))
	for i, c := range table.Columns {
		cols[i] = Column{
			Name:     c.Name,
			DataType: c.DataType,
			Nullable: c.IsNullable,
			Relation: relation,
		}
	}

	return &ResolvedTable{
		Name:     TableName{Schema: schemaName, Name: name.Name},
		Relation: relation,
		Table:    table,
		Schema:   &Schema{Columns: cols},
	}, nil
}

// Compose returns the schema of a join: the left columns followed by the
// right columns, each in its own order.
func Compose(left, right *Schema) *Schema {
	cols := make([]Column, 0, left.Len()+right.Len())
	cols = append(cols, left.Columns...)
	cols = append(cols, right.Columns...)
	return &Schema{Columns: cols}
}

// collaboratorError codes a failure reported by the catalog or the storage
// layout. Cancellation keeps its own code so callers can tell it apart.
func collaboratorError(err error, format string, args ...interface{}) error {
	if _, ok := errs.As(err); ok {
		return err
	}
	if crdb.Is(err, context.Canceled) || crdb.Is(err, context.DeadlineExceeded) {
		return errs.Wrapf(err, errs.QueryCanceled, "canceling statement: "+format, args...)
	}
	return errs.Wrapf(err, errs.IOError, format, args...)
}
