package storage

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticLayout(t *testing.T) {
	ctx := context.Background()
	l := NewStaticLayout()

	parts, err := l.Partitions(ctx, "public", "unregistered")
	require.NoError(t, err)
	assert.Equal(t, EmptyPartitions(), parts)

	l.Register("public", "t1", Partition{Rows: 1, Bytes: 64}, Partition{Rows: 3, Bytes: 128})
	parts, err = l.Partitions(ctx, "public", "t1")
	require.NoError(t, err)
	assert.Equal(t, []Partition{{Index: 0, Rows: 1, Bytes: 64}, {Index: 1, Rows: 3, Bytes: 128}}, parts)

	// Callers get a copy.
	parts[0].Rows = 99
	again, _ := l.Partitions(ctx, "public", "t1")
	assert.Equal(t, int64(1), again[0].Rows)

	l.RegisterRows("public", "t2", 5)
	assert.Equal(t, 2, l.Tables())
	l.Forget("public", "t2")
	assert.Equal(t, 1, l.Tables())
}

func TestStaticLayoutCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewStaticLayout().Partitions(ctx, "public", "t1")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStaticLayoutConcurrent(t *testing.T) {
	ctx := context.Background()
	l := NewStaticLayout()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			l.RegisterRows("public", "t", int64(i))
			parts, err := l.Partitions(ctx, "public", "t")
			assert.NoError(t, err)
			assert.Len(t, parts, 1)
		}(i)
	}
	wg.Wait()
}

func TestFormatSizes(t *testing.T) {
	assert.Equal(t, "[1]", FormatSizes([]Partition{{Rows: 1}}))
	assert.Equal(t, "[1, ?, 0]", FormatSizes([]Partition{{Rows: 1}, {Rows: Unknown}, {Rows: 0}}))
	assert.Equal(t, int64(4), TotalRows([]Partition{{Rows: 1}, {Rows: 3}}))
	assert.Equal(t, Unknown, TotalRows([]Partition{{Rows: 1}, {Rows: Unknown}}))
}

func TestDirLayout(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	l := NewDirLayout(root)

	parts, err := l.Partitions(ctx, "public", "t1")
	require.NoError(t, err)
	assert.Equal(t, EmptyPartitions(), parts)

	dir := l.TableDir("public", "t1")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "part-1.dat"), make([]byte, 200), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "part-0.dat"), make([]byte, 100), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "part-0.dat.rows"), []byte("7\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".hidden"), []byte("x"), 0o644))

	parts, err = l.Partitions(ctx, "public", "t1")
	require.NoError(t, err)
	assert.Equal(t, []Partition{
		{Index: 0, Rows: 7, Bytes: 100},
		{Index: 1, Rows: Unknown, Bytes: 200},
	}, parts)
}

func TestDirLayoutBadRowCount(t *testing.T) {
	root := t.TempDir()
	l := NewDirLayout(root)
	dir := l.TableDir("public", "t1")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "p.dat"), nil, 0o644))

	for _, content := range []string{"lots", "-3"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "p.dat.rows"), []byte(content), 0o644))
		_, err := l.Partitions(context.Background(), "public", "t1")
		require.Error(t, err, content)
		assert.True(t, errors.Is(err, ErrInvalidRowCount), content)
		assert.Contains(t, err.Error(), filepath.Join(dir, "p.dat.rows"))
	}

	require.NoError(t, os.WriteFile(filepath.Join(dir, "p.dat.rows"), []byte("lots"), 0o644))
	_, err := l.Partitions(context.Background(), "public", "t1")
	assert.True(t, errors.Is(err, strconv.ErrSyntax), "parse failure is kept as the cause")
}

func TestDirLayoutUnreadableRowCount(t *testing.T) {
	root := t.TempDir()
	l := NewDirLayout(root)
	dir := l.TableDir("public", "t1")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "p.dat.rows"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "p.dat"), nil, 0o644))

	_, err := l.Partitions(context.Background(), "public", "t1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read row count")
	assert.False(t, errors.Is(err, ErrInvalidRowCount))
}
