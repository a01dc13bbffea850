package errors

// Parser errors

func ParseError(msg string, line, col int) *Error {
	return Newf(SyntaxError, "syntax error at line %d, column %d: %s", line, col, msg).
		WithPosition(line, col)
}

func UnexpectedTokenError(expected, actual string, line, col int) *Error {
	return Newf(SyntaxError, "syntax error at line %d, column %d: expected %s, got %s", line, col, expected, actual).
		WithPosition(line, col)
}

// Compiler errors

// UnknownRelationError reports a table reference the catalog does not know.
func UnknownRelationError(schema, table string) *Error {
	return Newf(CodeUnknownRelation, "relation \"%s\" does not exist", table).
		WithTable(schema, table)
}

// AliasArityMismatchError reports an explicit alias column list whose
// length differs from the arity of the aliased relation.
func AliasArityMismatchError(alias string, have, want int) *Error {
	return Newf(CodeAliasArityMismatch, "table \"%s\" has %d columns available but %d columns specified", alias, want, have).
		WithTable("", alias)
}

// LoweringUnsupportedError reports a logical node with no physical operator.
func LoweringUnsupportedError(node string) *Error {
	return Newf(CodeLoweringUnsupported, "no physical operator for logical node %s", node)
}

// SchemaInconsistencyError reports a node whose declared schema does not
// match what its transformation produces.
func SchemaInconsistencyError(node, format string, args ...interface{}) *Error {
	return Newf(CodeSchemaInconsistency, format, args...).
		WithDetailf("node %s", node)
}

func AmbiguousColumnError(columnName string) *Error {
	return Newf(AmbiguousColumn, "column reference \"%s\" is ambiguous", columnName).
		WithColumn(columnName)
}

func ColumnNotFoundError(columnName, tableName string) *Error {
	if tableName != "" {
		return Newf(UndefinedColumn, "column %s.%s does not exist", tableName, columnName).
			WithTable("", tableName).
			WithColumn(columnName)
	}
	return Newf(UndefinedColumn, "column \"%s\" does not exist", columnName).
		WithColumn(columnName)
}

func FeatureNotSupportedError(feature string) *Error {
	return Newf(FeatureNotSupported, "%s is not supported", feature)
}

// Predicates

func IsUnknownRelation(err error) bool     { return IsError(err, CodeUnknownRelation) }
func IsAliasArityMismatch(err error) bool  { return IsError(err, CodeAliasArityMismatch) }
func IsLoweringUnsupported(err error) bool { return IsError(err, CodeLoweringUnsupported) }
func IsSchemaInconsistency(err error) bool { return IsError(err, CodeSchemaInconsistency) }
func IsUndefinedColumn(err error) bool     { return IsError(err, UndefinedColumn) }
func IsAmbiguousColumn(err error) bool     { return IsError(err, AmbiguousColumn) }
func IsSyntaxError(err error) bool         { return IsError(err, SyntaxError) }
