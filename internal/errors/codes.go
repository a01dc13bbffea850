package errors

// PostgreSQL Error Codes (SQLSTATE) used by the plan compiler.
// Based on PostgreSQL error codes: https://www.postgresql.org/docs/current/errcodes-appendix.html

// Class 0A - Feature Not Supported
const (
	FeatureNotSupported = "0A000"
)

// Class 22 - Data Exception
const (
	DataException         = "22000"
	InvalidParameterValue = "22023"
)

// Class 42 - Syntax Error or Access Rule Violation
const (
	SyntaxErrorOrAccessRuleViolation = "42000"
	SyntaxError                      = "42601"
	InvalidName                      = "42602"
	DatatypeMismatch                 = "42804"
	UndefinedColumn                  = "42703"
	UndefinedTable                   = "42P01"
	DuplicateColumn                  = "42701"
	DuplicateTable                   = "42P07"
	AmbiguousColumn                  = "42702"
	InvalidColumnReference           = "42P10"
)

// Class 57 - Operator Intervention
const (
	QueryCanceled = "57014"
)

// Class 58 - System Error
const (
	IOError = "58030"
)

// Class F0 - Configuration File Error
const (
	ConfigFileError = "F0000"
)

// Class XX - Internal Error
const (
	InternalError = "XX000"
)

// Compiler failure kinds mapped onto their SQLSTATE codes.
const (
	CodeUnknownRelation     = UndefinedTable
	CodeAliasArityMismatch  = InvalidColumnReference
	CodeLoweringUnsupported = FeatureNotSupported
	CodeSchemaInconsistency = InternalError
)
