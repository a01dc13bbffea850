package storage

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/puzpuzpuz/xsync/v3"
)

// Unknown marks a partition estimate that is not available.
const Unknown int64 = -1

// Partition describes one independently scannable segment of a table.
type Partition struct {
	Index int
	Rows  int64
	Bytes int64
}

// Layout reports how a table's rows are split into partitions. The
// planner copies these estimates into data source operators unchanged.
type Layout interface {
	Partitions(ctx context.Context, schemaName, tableName string) ([]Partition, error)
}

// EmptyPartitions is the layout of a table with no stored data.
func EmptyPartitions() []Partition {
	return []Partition{{Index: 0, Rows: 0, Bytes: 0}}
}

// StaticLayout is an in-memory registry of partition estimates.
// Safe for concurrent use.
type StaticLayout struct {
	tables *xsync.MapOf[string, []Partition]
}

// NewStaticLayout creates an empty registry.
func NewStaticLayout() *StaticLayout {
	return &StaticLayout{tables: xsync.NewMapOf[string, []Partition]()}
}

// Register records the partitions of a table. Indexes are assigned in
// argument order.
func (l *StaticLayout) Register(schemaName, tableName string, parts ...Partition) {
	stored := make([]Partition, len(parts))
	for i, p := range parts {
		p.Index = i
		stored[i] = p
	}
	l.tables.Store(key(schemaName, tableName), stored)
}

// RegisterRows is shorthand for one partition per row count.
func (l *StaticLayout) RegisterRows(schemaName, tableName string, rows ...int64) {
	parts := make([]Partition, len(rows))
	for i, r := range rows {
		parts[i] = Partition{Rows: r, Bytes: Unknown}
	}
	l.Register(schemaName, tableName, parts...)
}

// Forget removes a table's registration.
func (l *StaticLayout) Forget(schemaName, tableName string) {
	l.tables.Delete(key(schemaName, tableName))
}

// Partitions returns a copy of the registered partitions, or a single
// empty partition for unregistered tables.
func (l *StaticLayout) Partitions(ctx context.Context, schemaName, tableName string) ([]Partition, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	parts, ok := l.tables.Load(key(schemaName, tableName))
	if !ok {
		return EmptyPartitions(), nil
	}
	out := make([]Partition, len(parts))
	copy(out, parts)
	return out, nil
}

// Tables returns the number of registered tables.
func (l *StaticLayout) Tables() int {
	return l.tables.Size()
}

func key(schemaName, tableName string) string {
	return schemaName + "." + tableName
}

// FormatSizes renders per-partition row estimates as "[1, 2]", with "?"
// for unknown values.
func FormatSizes(parts []Partition) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, p := range parts {
		if i > 0 {
			b.WriteString(", ")
		}
		if p.Rows == Unknown {
			b.WriteByte('?')
		} else {
			b.WriteString(strconv.FormatInt(p.Rows, 10))
		}
	}
	b.WriteByte(']')
	return b.String()
}

// TotalRows sums known row estimates; it returns Unknown if any is unknown.
func TotalRows(parts []Partition) int64 {
	var total int64
	for _, p := range parts {
		if p.Rows == Unknown {
			return Unknown
		}
		total += p.Rows
	}
	return total
}

func (p Partition) String() string {
	return fmt.Sprintf("partition %d: rows=%d bytes=%d", p.Index, p.Rows, p.Bytes)
}
