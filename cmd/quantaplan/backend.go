package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/dshills/quantaplan/internal/catalog"
	"github.com/dshills/quantaplan/internal/config"
	"github.com/dshills/quantaplan/internal/sql/parser"
	"github.com/dshills/quantaplan/internal/storage"
)

// openCatalog opens the configured catalog backend. The returned close
// function is always non-nil.
func openCatalog(ctx context.Context, cfg config.CatalogConfig) (catalog.Catalog, func() error, error) {
	var (
		cat catalog.Catalog
		err error
	)
	switch cfg.Backend {
	case config.CatalogBadger:
		cat, err = catalog.OpenBadgerCatalog(cfg.Path)
	case config.CatalogPostgres:
		cat, err = catalog.OpenPostgresCatalog(ctx, cfg.DSN)
	default:
		cat = catalog.NewMemoryCatalog()
	}
	if err != nil {
		return nil, nil, err
	}
	if c, ok := cat.(io.Closer); ok {
		return cat, c.Close, nil
	}
	return cat, func() error { return nil }, nil
}

func openLayout(cfg config.StorageConfig) storage.Layout {
	if cfg.Layout == config.LayoutDir {
		return storage.NewDirLayout(cfg.DataDir)
	}
	return storage.NewStaticLayout()
}

// writable returns cat as a Writer or explains why it cannot take DDL.
func writable(cat catalog.Catalog, backend string) (catalog.Writer, error) {
	w, ok := cat.(catalog.Writer)
	if !ok {
		return nil, fmt.Errorf("catalog backend %q is read-only", backend)
	}
	return w, nil
}

// loadDDLFile applies every CREATE TABLE and DROP TABLE statement in path.
// Unqualified table names land in schema.
func loadDDLFile(ctx context.Context, w catalog.Writer, path, schema string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to read %s: %w", path, err)
	}
	n, err := loadDDL(ctx, w, string(data), schema)
	if err != nil {
		return n, fmt.Errorf("%s: %w", path, err)
	}
	return n, nil
}

func loadDDL(ctx context.Context, w catalog.Writer, text, schema string) (int, error) {
	stmts, err := parser.NewParser(text).ParseMultiple()
	if err != nil {
		return 0, err
	}

	applied := 0
	for _, stmt := range stmts {
		switch s := stmt.(type) {
		case *parser.CreateTableStmt:
			ts := &catalog.TableSchema{
				SchemaName: schemaOr(s.Table.Schema, schema),
				TableName:  s.Table.Name,
				Columns:    make([]catalog.ColumnDef, len(s.Columns)),
			}
			for i, col := range s.Columns {
				ts.Columns[i] = catalog.ColumnDef{
					Name:       col.Name,
					DataType:   col.DataType,
					IsNullable: !col.NotNull && !col.PrimaryKey,
					PrimaryKey: col.PrimaryKey,
				}
			}
			if _, err := w.CreateTable(ctx, ts); err != nil {
				return applied, err
			}
		case *parser.DropTableStmt:
			err := w.DropTable(ctx, schemaOr(s.Table.Schema, schema), s.Table.Name)
			if err != nil && !(s.IfExists && isNotFound(err)) {
				return applied, err
			}
		default:
			return applied, fmt.Errorf("unsupported statement in DDL file: %s", stmt)
		}
		applied++
	}
	return applied, nil
}

func schemaOr(name, fallback string) string {
	if name == "" {
		return fallback
	}
	return name
}

// splitName splits "schema.table" into its parts. A bare name has an empty
// schema.
func splitName(name string) (string, string) {
	name = strings.ToLower(name)
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		return name[:i], name[i+1:]
	}
	return "", name
}

// parseRows parses "table=rows[,rows...]". A "?" stands for an unknown
// row count.
func parseRows(arg string) (string, string, []int64, error) {
	name, list, ok := strings.Cut(arg, "=")
	if !ok || name == "" || list == "" {
		return "", "", nil, fmt.Errorf("invalid --rows value %q, want table=n[,n...]", arg)
	}
	schemaName, tableName := splitName(name)

	fields := strings.Split(list, ",")
	rows := make([]int64, len(fields))
	for i, f := range fields {
		f = strings.TrimSpace(f)
		if f == "?" {
			rows[i] = storage.Unknown
			continue
		}
		n, err := strconv.ParseInt(f, 10, 64)
		if err != nil || n < 0 {
			return "", "", nil, fmt.Errorf("invalid row count %q in --rows %q", f, arg)
		}
		rows[i] = n
	}
	return schemaName, tableName, rows, nil
}

func isNotFound(err error) bool {
	return errors.Is(err, catalog.ErrTableNotFound)
}
