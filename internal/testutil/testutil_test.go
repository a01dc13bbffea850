package testutil

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	errs "github.com/dshills/quantaplan/internal/errors"
	"github.com/dshills/quantaplan/internal/storage"
	"github.com/dshills/quantaplan/internal/sql/types"
)

func TestTempDir(t *testing.T) {
	dir, cleanup := TempDir(t)
	defer cleanup()

	// Check directory exists
	info, err := os.Stat(dir)
	AssertNoError(t, err)
	AssertTrue(t, info.IsDir(), "expected directory")

	testFile := filepath.Join(dir, "nested", "test.txt")
	WriteFile(t, testFile, "test")

	data, err := os.ReadFile(testFile)
	AssertNoError(t, err)
	AssertEqual(t, "test", string(data))
}

func TestAssertions(t *testing.T) {
	AssertEqual(t, 42, 42)
	AssertEqual(t, []int{1, 2, 3}, []int{1, 2, 3})
	AssertNoError(t, nil)
	AssertError(t, os.ErrNotExist)
	AssertErrorCode(t, errs.New(errs.SyntaxError, "bad"), errs.SyntaxError)
	AssertLines(t, `
		a
		  b
	`, "a\nb\n")
	AssertTrue(t, true, "should be true")
	AssertFalse(t, false, "should be false")
}

func TestScenarioFixture(t *testing.T) {
	f := ScenarioFixture(t)
	ctx := context.Background()

	t1, err := f.Catalog.GetTable(ctx, "public", "t1")
	AssertNoError(t, err)
	AssertEqual(t, 1, len(t1.Columns))
	AssertEqual(t, "id", t1.Columns[0].Name)
	AssertTrue(t, types.Equal(types.Integer, t1.Columns[0].DataType), "t1.id should be INTEGER")

	parts, err := f.Layout.Partitions(ctx, "public", "t2")
	AssertNoError(t, err)
	AssertEqual(t, "[1]", storage.FormatSizes(parts))
}

func TestAddTableNotNull(t *testing.T) {
	f := NewFixture()
	table := f.AddTable(t, "people", nil, "id BIGINT NOT NULL", "name varchar(20)")

	AssertFalse(t, table.Columns[0].IsNullable, "id should be NOT NULL")
	AssertTrue(t, table.Columns[1].IsNullable, "name should be nullable")
	AssertEqual(t, "VARCHAR(20)", table.Columns[1].DataType.Name())
}
