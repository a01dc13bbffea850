package catalog

import (
	"context"
	"encoding/json"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/dgraph-io/badger/v4"

	"github.com/dshills/quantaplan/internal/sql/types"
)

const (
	tableKeyPrefix = "table/"
	sequenceKey    = "seq/table_id"
)

// BadgerCatalog persists table definitions in a badger database, one JSON
// record per table under "table/<schema>/<name>".
type BadgerCatalog struct {
	db  *badger.DB
	ids *badger.Sequence
}

type tableRecord struct {
	ID        int64          `json:"id"`
	Schema    string         `json:"schema"`
	Name      string         `json:"name"`
	Columns   []columnRecord `json:"columns"`
	CreatedAt time.Time      `json:"created_at"`
}

type columnRecord struct {
	Name       string `json:"name"`
	Type       string `json:"type"`
	Nullable   bool   `json:"nullable"`
	PrimaryKey bool   `json:"primary_key,omitempty"`
}

// OpenBadgerCatalog opens (or creates) a catalog stored at path. An empty
// path keeps the database in memory.
func OpenBadgerCatalog(path string) (*BadgerCatalog, error) {
	opts := badger.DefaultOptions(path)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open badger catalog")
	}
	ids, err := db.GetSequence([]byte(sequenceKey), 16)
	if err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "failed to open table id sequence")
	}
	return &BadgerCatalog{db: db, ids: ids}, nil
}

// Close releases the id sequence and closes the database.
func (c *BadgerCatalog) Close() error {
	relErr := c.ids.Release()
	return errors.CombineErrors(relErr, c.db.Close())
}

func tableKey(schemaName, tableName string) []byte {
	return []byte(tableKeyPrefix + schemaName + "/" + tableName)
}

// CreateTable stores a new table definition.
func (c *BadgerCatalog) CreateTable(_ context.Context, ts *TableSchema) (*Table, error) {
	next, err := c.ids.Next()
	if err != nil {
		return nil, errors.Wrap(err, "failed to allocate table id")
	}
	table, err := buildTable(ts, int64(next)+1)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(toRecord(table))
	if err != nil {
		return nil, errors.Wrap(err, "marshal table")
	}

	key := tableKey(table.SchemaName, table.TableName)
	err = c.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(key); err == nil {
			return alreadyExists(table.QualifiedName())
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		return txn.Set(key, data)
	})
	if err != nil {
		return nil, err
	}
	return table, nil
}

// GetTable loads a table definition.
func (c *BadgerCatalog) GetTable(_ context.Context, schemaName, tableName string) (*Table, error) {
	schemaName = schemaOrDefault(schemaName)

	var table *Table
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(tableKey(schemaName, tableName))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return notFound(schemaName, tableName)
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			table, err = decodeTable(val)
			return err
		})
	})
	if err != nil {
		return nil, err
	}
	return table, nil
}

// ListTables returns the tables of a schema ordered by name.
func (c *BadgerCatalog) ListTables(_ context.Context, schemaName string) ([]*Table, error) {
	prefix := []byte(tableKeyPrefix + schemaOrDefault(schemaName) + "/")

	var tables []*Table
	err := c.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				table, err := decodeTable(val)
				if err != nil {
					return err
				}
				tables = append(tables, table)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tables, nil
}

// DropTable deletes a table definition.
func (c *BadgerCatalog) DropTable(_ context.Context, schemaName, tableName string) error {
	schemaName = schemaOrDefault(schemaName)
	key := tableKey(schemaName, tableName)
	return c.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(key); errors.Is(err, badger.ErrKeyNotFound) {
			return notFound(schemaName, tableName)
		} else if err != nil {
			return err
		}
		return txn.Delete(key)
	})
}

func toRecord(t *Table) tableRecord {
	rec := tableRecord{
		ID:        t.ID,
		Schema:    t.SchemaName,
		Name:      t.TableName,
		Columns:   make([]columnRecord, len(t.Columns)),
		CreatedAt: t.CreatedAt,
	}
	for i, c := range t.Columns {
		rec.Columns[i] = columnRecord{
			Name:       c.Name,
			Type:       c.DataType.Name(),
			Nullable:   c.IsNullable,
			PrimaryKey: c.PrimaryKey,
		}
	}
	return rec
}

func decodeTable(data []byte) (*Table, error) {
	var rec tableRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, errors.Wrap(err, "corrupt table record")
	}
	t := &Table{
		ID:         rec.ID,
		SchemaName: rec.Schema,
		TableName:  rec.Name,
		Columns:    make([]*Column, len(rec.Columns)),
		CreatedAt:  rec.CreatedAt,
	}
	for i, c := range rec.Columns {
		dt, err := types.Parse(c.Type)
		if err != nil {
			return nil, errors.Wrapf(err, "table %s.%s column %s", rec.Schema, rec.Name, c.Name)
		}
		t.Columns[i] = &Column{
			Name:            c.Name,
			DataType:        dt,
			OrdinalPosition: i + 1,
			IsNullable:      c.Nullable,
			PrimaryKey:      c.PrimaryKey,
		}
	}
	return t, nil
}
