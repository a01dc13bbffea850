package catalog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/dshills/quantaplan/internal/sql/types"
)

// DefaultSchema is used when a table reference carries no schema.
const DefaultSchema = "public"

var (
	// ErrTableNotFound is returned (wrapped) by GetTable and DropTable.
	ErrTableNotFound = errors.New("table not found")
	// ErrTableExists is returned (wrapped) by CreateTable.
	ErrTableExists = errors.New("table already exists")
)

// Catalog looks up table definitions. Implementations must be safe for
// concurrent readers.
type Catalog interface {
	GetTable(ctx context.Context, schemaName, tableName string) (*Table, error)
	ListTables(ctx context.Context, schemaName string) ([]*Table, error)
}

// Writer stores table definitions.
type Writer interface {
	CreateTable(ctx context.Context, schema *TableSchema) (*Table, error)
	DropTable(ctx context.Context, schemaName, tableName string) error
}

// ReadWriter is a catalog that accepts DDL.
type ReadWriter interface {
	Catalog
	Writer
}

// TableSchema defines the structure for creating a new table.
type TableSchema struct {
	SchemaName string
	TableName  string
	Columns    []ColumnDef
}

// ColumnDef defines a column in a table.
type ColumnDef struct {
	Name       string
	DataType   types.DataType
	IsNullable bool
	PrimaryKey bool
}

// Table represents a table with its metadata.
type Table struct {
	ID         int64
	SchemaName string
	TableName  string
	Columns    []*Column
	CreatedAt  time.Time
}

// Column represents a column with its metadata.
type Column struct {
	Name            string
	DataType        types.DataType
	OrdinalPosition int
	IsNullable      bool
	PrimaryKey      bool
}

// QualifiedName returns "schema.table".
func (t *Table) QualifiedName() string {
	return qualify(t.SchemaName, t.TableName)
}

// Column returns the named column or nil.
func (t *Table) Column(name string) *Column {
	for _, c := range t.Columns {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func qualify(schemaName, tableName string) string {
	return schemaName + "." + tableName
}

func schemaOrDefault(schemaName string) string {
	if schemaName == "" {
		return DefaultSchema
	}
	return schemaName
}

func notFound(schemaName, tableName string) error {
	return errors.Wrapf(ErrTableNotFound, "table %q", qualify(schemaName, tableName))
}

// buildTable validates ts and turns it into a Table with the given id.
func buildTable(ts *TableSchema, id int64) (*Table, error) {
	if ts == nil || strings.TrimSpace(ts.TableName) == "" {
		return nil, errors.New("table name cannot be empty")
	}
	if len(ts.Columns) == 0 {
		return nil, errors.Newf("table %q must have at least one column", ts.TableName)
	}

	table := &Table{
		ID:         id,
		SchemaName: schemaOrDefault(ts.SchemaName),
		TableName:  ts.TableName,
		Columns:    make([]*Column, 0, len(ts.Columns)),
		CreatedAt:  time.Now(),
	}

	seen := make(map[string]bool, len(ts.Columns))
	for i, def := range ts.Columns {
		if def.Name == "" {
			return nil, errors.Newf("column %d of table %q has no name", i+1, ts.TableName)
		}
		if seen[def.Name] {
			return nil, errors.Newf("column %q specified more than once", def.Name)
		}
		if def.DataType == nil {
			return nil, errors.Newf("column %q has no data type", def.Name)
		}
		seen[def.Name] = true
		table.Columns = append(table.Columns, &Column{
			Name:            def.Name,
			DataType:        def.DataType,
			OrdinalPosition: i + 1,
			IsNullable:      def.IsNullable && !def.PrimaryKey,
			PrimaryKey:      def.PrimaryKey,
		})
	}
	return table, nil
}

// String renders the table as a CREATE TABLE statement.
func (t *Table) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE %s (", t.QualifiedName())
	for i, c := range t.Columns {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s %s", c.Name, c.DataType.Name())
		switch {
		case c.PrimaryKey:
			b.WriteString(" PRIMARY KEY")
		case !c.IsNullable:
			b.WriteString(" NOT NULL")
		}
	}
	b.WriteString(")")
	return b.String()
}

func alreadyExists(key string) error {
	return errors.Wrapf(ErrTableExists, "table %q", key)
}
