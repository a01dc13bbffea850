package errors

import (
	"fmt"
	"testing"

	crdb "github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorFormatting(t *testing.T) {
	err := UnknownRelationError("public", "t9")
	assert.Equal(t, `relation "t9" does not exist (SQLSTATE 42P01)`, err.Error())

	err = AliasArityMismatchError("f", 1, 2).WithDetail("explicit columns: c1")
	assert.Equal(t, `table "f" has 2 columns available but 1 columns specified (SQLSTATE 42P10) DETAIL: explicit columns: c1`, err.Error())
}

func TestPath(t *testing.T) {
	err := AliasArityMismatchError("f", 1, 2).AtNode("SubqueryAlias")
	err.At("Projection", 0)
	err.At("Limit", 0)

	require.Len(t, err.Path, 3)
	assert.Equal(t, "Limit[0]/Projection[0]/SubqueryAlias", err.Path.String())
	assert.Contains(t, err.Error(), "at Limit[0]/Projection[0]/SubqueryAlias")
}

func TestPredicatesSeeThroughWrapping(t *testing.T) {
	base := UnknownRelationError("public", "missing")
	wrapped := fmt.Errorf("compile: %w", base)
	wrapped = crdb.Wrap(wrapped, "explain")

	assert.True(t, IsUnknownRelation(wrapped))
	assert.False(t, IsAliasArityMismatch(wrapped))
	assert.Equal(t, CodeUnknownRelation, Code(wrapped))

	got, ok := As(wrapped)
	require.True(t, ok)
	assert.Equal(t, "missing", got.Table)
}

func TestPredicates(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		check func(error) bool
	}{
		{"unknown relation", UnknownRelationError("", "t"), IsUnknownRelation},
		{"arity", AliasArityMismatchError("f", 3, 2), IsAliasArityMismatch},
		{"lowering", LoweringUnsupportedError("Window"), IsLoweringUnsupported},
		{"schema", SchemaInconsistencyError("Join", "bad"), IsSchemaInconsistency},
		{"undefined column", ColumnNotFoundError("x", "t"), IsUndefinedColumn},
		{"ambiguous", AmbiguousColumnError("id"), IsAmbiguousColumn},
		{"syntax", ParseError("oops", 1, 4), IsSyntaxError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.check(tt.err))
		})
	}
	assert.False(t, IsUnknownRelation(nil))
}

func TestWrapfKeepsCause(t *testing.T) {
	cause := crdb.New("connection refused")
	err := Wrapf(cause, IOError, "catalog lookup for %q failed", "t1")

	assert.True(t, crdb.Is(err, cause))
	assert.Contains(t, err.Error(), "connection refused")
	assert.Equal(t, IOError, Code(err))
}

func TestGetError(t *testing.T) {
	assert.Nil(t, GetError(nil))

	plain := GetError(fmt.Errorf("boom"))
	assert.Equal(t, InternalError, plain.Code)

	coded := AmbiguousColumnError("id")
	assert.Same(t, coded, GetError(fmt.Errorf("ctx: %w", coded)))
}
