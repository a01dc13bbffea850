package testutil

import (
	"context"
	"strings"
	"testing"

	"github.com/dshills/quantaplan/internal/catalog"
	"github.com/dshills/quantaplan/internal/sql/types"
	"github.com/dshills/quantaplan/internal/storage"
)

// Fixture is an in-memory catalog paired with a static storage layout.
type Fixture struct {
	Catalog *catalog.MemoryCatalog
	Layout  *storage.StaticLayout
}

// NewFixture returns an empty fixture.
func NewFixture() *Fixture {
	return &Fixture{
		Catalog: catalog.NewMemoryCatalog(),
		Layout:  storage.NewStaticLayout(),
	}
}

// AddTable creates public.name with the given "column TYPE" definitions and
// registers one partition per entry of rows. A column definition ending in
// "NOT NULL" is created non-nullable.
func (f *Fixture) AddTable(t *testing.T, name string, rows []int64, columns ...string) *catalog.Table {
	t.Helper()

	ts := &catalog.TableSchema{SchemaName: catalog.DefaultSchema, TableName: name}
	for _, def := range columns {
		ts.Columns = append(ts.Columns, parseColumn(t, def))
	}

	table, err := f.Catalog.CreateTable(context.Background(), ts)
	if err != nil {
		t.Fatalf("failed to create table %s: %v", name, err)
	}
	if len(rows) > 0 {
		f.Layout.RegisterRows(catalog.DefaultSchema, name, rows...)
	}
	return table
}

func parseColumn(t *testing.T, def string) catalog.ColumnDef {
	t.Helper()

	nullable := true
	upper := strings.ToUpper(def)
	if strings.HasSuffix(upper, " NOT NULL") {
		nullable = false
		def = def[:len(def)-len(" NOT NULL")]
	}

	fields := strings.Fields(def)
	if len(fields) < 2 {
		t.Fatalf("column definition %q needs a name and a type", def)
	}
	dt, err := types.Parse(strings.Join(fields[1:], " "))
	if err != nil {
		t.Fatalf("column definition %q: %v", def, err)
	}
	return catalog.ColumnDef{Name: fields[0], DataType: dt, IsNullable: nullable}
}

// ScenarioFixture holds t1(id INTEGER) and t2(age INTEGER), each stored
// as a single partition of one row.
func ScenarioFixture(t *testing.T) *Fixture {
	t.Helper()
	f := NewFixture()
	f.AddTable(t, "t1", []int64{1}, "id INTEGER")
	f.AddTable(t, "t2", []int64{1}, "age INTEGER")
	return f
}
