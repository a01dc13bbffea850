package errors

import (
	"fmt"
	"strings"

	crdb "github.com/cockroachdb/errors"
)

// Error represents a PostgreSQL-compatible error with SQLSTATE code.
// Errors raised while building or lowering a plan also carry the Path of
// the node that failed.
type Error struct {
	Code     string // SQLSTATE code
	Message  string // Primary error message
	Detail   string // Optional detailed error message
	Hint     string // Optional hint message
	Position int    // Character position in query (0 if not applicable)
	Line     int    // Line in query text (0 if not applicable)
	Schema   string // Schema name if applicable
	Table    string // Table name if applicable
	Column   string // Column name if applicable
	Path     Path   // Plan position, root first

	cause error
}

// PathElem names one step from a parent node to the child at Child.
// The last element of a path has Child == -1.
type PathElem struct {
	Node  string
	Child int
}

// Path locates a node inside a plan tree.
type Path []PathElem

// String renders the path as "Projection[0]/Cross Join[1]/TableScan".
func (p Path) String() string {
	parts := make([]string, len(p))
	for i, el := range p {
		if el.Child < 0 {
			parts[i] = el.Node
		} else {
			parts[i] = fmt.Sprintf("%s[%d]", el.Node, el.Child)
		}
	}
	return strings.Join(parts, "/")
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (SQLSTATE %s)", e.Message, e.Code)
	if len(e.Path) > 0 {
		fmt.Fprintf(&b, " at %s", e.Path)
	}
	if e.Detail != "" {
		fmt.Fprintf(&b, " DETAIL: %s", e.Detail)
	}
	if e.cause != nil {
		fmt.Fprintf(&b, ": %v", e.cause)
	}
	return b.String()
}

// Unwrap returns the collaborator error this error was raised from, if any.
func (e *Error) Unwrap() error {
	return e.cause
}

// New creates a new Error with the given code and message
func New(code string, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// Newf creates a new Error with a formatted message
func Newf(code string, format string, args ...interface{}) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrapf creates a coded Error caused by err. A stack trace is attached to
// the cause so collaborator failures can be traced with %+v.
func Wrapf(err error, code string, format string, args ...interface{}) *Error {
	e := Newf(code, format, args...)
	if err != nil {
		e.cause = crdb.WithStack(err)
	}
	return e
}

// WithDetail adds detail to the error
func (e *Error) WithDetail(detail string) *Error {
	e.Detail = detail
	return e
}

// WithDetailf adds formatted detail to the error
func (e *Error) WithDetailf(format string, args ...interface{}) *Error {
	e.Detail = fmt.Sprintf(format, args...)
	return e
}

// WithHint adds a hint to the error
func (e *Error) WithHint(hint string) *Error {
	e.Hint = hint
	return e
}

// WithPosition sets the query position
func (e *Error) WithPosition(line, col int) *Error {
	e.Line = line
	e.Position = col
	return e
}

// WithTable sets the table name
func (e *Error) WithTable(schema, table string) *Error {
	e.Schema = schema
	e.Table = table
	return e
}

// WithColumn sets the column name
func (e *Error) WithColumn(column string) *Error {
	e.Column = column
	return e
}

// At prepends a path element. Builders call it on the way back up, so the
// finished path reads from the root to the failing node.
func (e *Error) At(node string, child int) *Error {
	e.Path = append(Path{{Node: node, Child: child}}, e.Path...)
	return e
}

// AtNode appends the terminal element naming the node that failed.
func (e *Error) AtNode(node string) *Error {
	e.Path = append(e.Path, PathElem{Node: node, Child: -1})
	return e
}

// IsError checks if err, or any error it wraps, is an Error with a specific code
func IsError(err error, code string) bool {
	qErr, ok := As(err)
	return ok && qErr.Code == code
}

// As finds the first Error in err's chain.
func As(err error) (*Error, bool) {
	if err == nil {
		return nil, false
	}
	var qErr *Error
	if crdb.As(err, &qErr) {
		return qErr, true
	}
	return nil, false
}

// GetError attempts to extract an Error from any error
func GetError(err error) *Error {
	if err == nil {
		return nil
	}
	if qErr, ok := As(err); ok {
		return qErr
	}
	// Wrap generic errors as internal errors
	return Wrapf(err, InternalError, "internal error")
}

// Code returns the SQLSTATE code of err, or "" if err carries none.
func Code(err error) string {
	if qErr, ok := As(err); ok {
		return qErr.Code
	}
	return ""
}
