package catalog

import (
	"context"
	"database/sql"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/lib/pq"

	"github.com/dshills/quantaplan/internal/sql/types"
)

// PostgresCatalog reads table definitions from a live PostgreSQL server's
// information_schema. It is read-only.
type PostgresCatalog struct {
	db *sql.DB
}

const columnsQuery = `
SELECT c.table_name, c.column_name, c.data_type, c.is_nullable,
       c.character_maximum_length, c.numeric_precision, c.numeric_scale,
       COALESCE(pk.is_pk, false)
FROM information_schema.columns c
LEFT JOIN (
    SELECT kcu.table_schema, kcu.table_name, kcu.column_name, true AS is_pk
    FROM information_schema.table_constraints tc
    JOIN information_schema.key_column_usage kcu
      ON tc.constraint_name = kcu.constraint_name
     AND tc.table_schema = kcu.table_schema
    WHERE tc.constraint_type = 'PRIMARY KEY'
) pk ON pk.table_schema = c.table_schema
    AND pk.table_name = c.table_name
    AND pk.column_name = c.column_name
WHERE c.table_schema = $1 AND c.table_name = ANY($2)
ORDER BY c.table_name, c.ordinal_position`

const tablesQuery = `
SELECT table_name FROM information_schema.tables
WHERE table_schema = $1 AND table_type = 'BASE TABLE'
ORDER BY table_name`

// OpenPostgresCatalog connects using a lib/pq DSN.
func OpenPostgresCatalog(ctx context.Context, dsn string) (*PostgresCatalog, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open postgres catalog")
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "failed to reach postgres catalog")
	}
	return NewPostgresCatalog(db), nil
}

// NewPostgresCatalog wraps an existing connection pool.
func NewPostgresCatalog(db *sql.DB) *PostgresCatalog {
	return &PostgresCatalog{db: db}
}

// Close closes the connection pool.
func (c *PostgresCatalog) Close() error {
	return c.db.Close()
}

// GetTable loads one table's columns.
func (c *PostgresCatalog) GetTable(ctx context.Context, schemaName, tableName string) (*Table, error) {
	schemaName = schemaOrDefault(schemaName)
	tables, err := c.load(ctx, schemaName, []string{tableName})
	if err != nil {
		return nil, err
	}
	if len(tables) == 0 {
		return nil, notFound(schemaName, tableName)
	}
	return tables[0], nil
}

// ListTables loads every base table of a schema.
func (c *PostgresCatalog) ListTables(ctx context.Context, schemaName string) ([]*Table, error) {
	schemaName = schemaOrDefault(schemaName)
	rows, err := c.db.QueryContext(ctx, tablesQuery, schemaName)
	if err != nil {
		return nil, wrapPQ(err, "list tables")
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, wrapPQ(err, "list tables")
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapPQ(err, "list tables")
	}
	if len(names) == 0 {
		return nil, nil
	}
	return c.load(ctx, schemaName, names)
}

func (c *PostgresCatalog) load(ctx context.Context, schemaName string, names []string) ([]*Table, error) {
	rows, err := c.db.QueryContext(ctx, columnsQuery, schemaName, pq.Array(names))
	if err != nil {
		return nil, wrapPQ(err, "load columns")
	}
	defer rows.Close()

	var (
		tables []*Table
		cur    *Table
	)
	for rows.Next() {
		var (
			table, column, dataType, nullable string
			length, precision, scale          sql.NullInt64
			primaryKey                        bool
		)
		if err := rows.Scan(&table, &column, &dataType, &nullable, &length, &precision, &scale, &primaryKey); err != nil {
			return nil, wrapPQ(err, "load columns")
		}
		if cur == nil || cur.TableName != table {
			cur = &Table{ID: int64(len(tables) + 1), SchemaName: schemaName, TableName: table}
			tables = append(tables, cur)
		}
		dt, err := postgresType(dataType, length, precision, scale)
		if err != nil {
			return nil, errors.Wrapf(err, "table %s.%s column %s", schemaName, table, column)
		}
		cur.Columns = append(cur.Columns, &Column{
			Name:            column,
			DataType:        dt,
			OrdinalPosition: len(cur.Columns) + 1,
			IsNullable:      nullable == "YES",
			PrimaryKey:      primaryKey,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, wrapPQ(err, "load columns")
	}
	return tables, nil
}

// postgresType maps an information_schema data_type onto a DataType.
func postgresType(dataType string, length, precision, scale sql.NullInt64) (types.DataType, error) {
	switch strings.ToLower(dataType) {
	case "character varying":
		if length.Valid {
			return types.Varchar(int(length.Int64)), nil
		}
		return types.Varchar(0), nil
	case "character":
		if length.Valid {
			return types.Char(int(length.Int64)), nil
		}
		return types.Char(1), nil
	case "numeric":
		if precision.Valid {
			return types.Decimal(int(precision.Int64), int(scale.Int64)), nil
		}
		return types.Decimal(10, 0), nil
	case "timestamp without time zone", "timestamp with time zone":
		return types.Timestamp, nil
	default:
		return types.Parse(dataType)
	}
}

// wrapPQ keeps the SQLSTATE of server errors in the message.
func wrapPQ(err error, op string) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return errors.Wrapf(err, "postgres catalog: %s (SQLSTATE %s)", op, pqErr.Code)
	}
	return errors.Wrapf(err, "postgres catalog: %s", op)
}

