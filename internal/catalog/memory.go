package catalog

import (
	"context"
	"strings"
	"sync"

	"github.com/tidwall/btree"
)

// MemoryCatalog is an in-memory implementation of ReadWriter.
// Tables are kept ordered by qualified name so listings are deterministic.
type MemoryCatalog struct {
	mu     sync.RWMutex
	tables *btree.Map[string, *Table] // "schema.table" -> Table
	nextID int64
}

// NewMemoryCatalog creates a new in-memory catalog.
func NewMemoryCatalog() *MemoryCatalog {
	return &MemoryCatalog{
		tables: btree.NewMap[string, *Table](0),
		nextID: 1,
	}
}

// CreateTable creates a new table.
func (c *MemoryCatalog) CreateTable(_ context.Context, ts *TableSchema) (*Table, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	table, err := buildTable(ts, c.nextID)
	if err != nil {
		return nil, err
	}

	key := table.QualifiedName()
	if _, exists := c.tables.Get(key); exists {
		return nil, alreadyExists(key)
	}

	c.nextID++
	c.tables.Set(key, table)
	return table, nil
}

// GetTable retrieves a table by name.
func (c *MemoryCatalog) GetTable(_ context.Context, schemaName, tableName string) (*Table, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	schemaName = schemaOrDefault(schemaName)
	table, exists := c.tables.Get(qualify(schemaName, tableName))
	if !exists {
		return nil, notFound(schemaName, tableName)
	}
	return table, nil
}

// ListTables returns the tables of a schema ordered by name.
func (c *MemoryCatalog) ListTables(_ context.Context, schemaName string) ([]*Table, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	prefix := schemaOrDefault(schemaName) + "."
	var tables []*Table
	c.tables.Ascend(prefix, func(key string, table *Table) bool {
		if !strings.HasPrefix(key, prefix) {
			return false
		}
		tables = append(tables, table)
		return true
	})
	return tables, nil
}

// DropTable removes a table.
func (c *MemoryCatalog) DropTable(_ context.Context, schemaName, tableName string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	schemaName = schemaOrDefault(schemaName)
	if _, deleted := c.tables.Delete(qualify(schemaName, tableName)); !deleted {
		return notFound(schemaName, tableName)
	}
	return nil
}
