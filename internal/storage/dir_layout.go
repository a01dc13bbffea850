package storage

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
)

// rowsSuffix names the sidecar file holding a partition's row count.
const rowsSuffix = ".rows"

// ErrInvalidRowCount marks a row count sidecar that does not hold a
// non-negative decimal integer.
var ErrInvalidRowCount = errors.New("invalid row count")

// DirLayout derives partitions from files on disk: every regular file in
// <root>/<schema>/<table>/ is one partition, ordered by file name. Byte
// estimates come from the file size and row estimates from an optional
// "<file>.rows" sidecar containing a decimal count.
type DirLayout struct {
	root string
}

// NewDirLayout creates a layout rooted at root.
func NewDirLayout(root string) *DirLayout {
	return &DirLayout{root: root}
}

// TableDir returns the directory holding a table's partition files.
func (l *DirLayout) TableDir(schemaName, tableName string) string {
	return filepath.Join(l.root, schemaName, tableName)
}

// Partitions scans the table directory. A missing or empty directory is a
// table with no data yet and yields a single empty partition.
func (l *DirLayout) Partitions(ctx context.Context, schemaName, tableName string) ([]Partition, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dir := l.TableDir(schemaName, tableName)
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return EmptyPartitions(), nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read partition directory %s", dir)
	}

	var names []string
	for _, e := range entries {
		name := e.Name()
		if !e.Type().IsRegular() || strings.HasPrefix(name, ".") || strings.HasSuffix(name, rowsSuffix) {
			continue
		}
		names = append(names, name)
	}
	if len(names) == 0 {
		return EmptyPartitions(), nil
	}
	sort.Strings(names)

	parts := make([]Partition, len(names))
	for i, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		path := filepath.Join(dir, name)
		info, err := os.Stat(path)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to stat partition %s", path)
		}
		rows, err := readRowCount(path + rowsSuffix)
		if err != nil {
			return nil, err
		}
		parts[i] = Partition{Index: i, Rows: rows, Bytes: info.Size()}
	}
	return parts, nil
}

func readRowCount(path string) (int64, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Unknown, nil
	}
	if err != nil {
		return 0, errors.Wrapf(err, "failed to read row count %s", path)
	}
	text := strings.TrimSpace(string(data))
	rows, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return 0, errors.Mark(errors.Wrapf(err, "invalid row count in %s", path), ErrInvalidRowCount)
	}
	if rows < 0 {
		return 0, errors.Mark(errors.Newf("invalid row count in %s: %d", path, rows), ErrInvalidRowCount)
	}
	return rows, nil
}
