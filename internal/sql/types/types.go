package types

import (
	"fmt"
	"strconv"
	"strings"
)

// DataType represents a SQL column type as seen by the planner.
type DataType interface {
	// Name returns the SQL name of the type (e.g., "INTEGER", "VARCHAR(20)")
	Name() string

	// Size returns the storage size in bytes (-1 for variable size)
	Size() int
}

// TypeID represents the internal ID of a data type
type TypeID uint16

const (
	TypeIDInvalid TypeID = iota
	TypeIDInteger
	TypeIDBigInt
	TypeIDSmallInt
	TypeIDBoolean
	TypeIDVarchar
	TypeIDChar
	TypeIDText
	TypeIDTimestamp
	TypeIDDate
	TypeIDDecimal
	TypeIDFloat
	TypeIDDouble
	TypeIDBytea
)

// fixedType is any type without modifiers.
type fixedType struct {
	id   TypeID
	name string
	size int
}

func (t *fixedType) Name() string { return t.name }
func (t *fixedType) Size() int    { return t.size }

type varcharType struct {
	length int
}

func (t *varcharType) Name() string {
	if t.length <= 0 {
		return "VARCHAR"
	}
	return fmt.Sprintf("VARCHAR(%d)", t.length)
}

func (t *varcharType) Size() int { return -1 }

type charType struct {
	length int
}

func (t *charType) Name() string { return fmt.Sprintf("CHAR(%d)", t.length) }
func (t *charType) Size() int    { return t.length }

type decimalType struct {
	precision int
	scale     int
}

func (t *decimalType) Name() string {
	return fmt.Sprintf("DECIMAL(%d,%d)", t.precision, t.scale)
}

func (t *decimalType) Size() int { return -1 }

// Common SQL types
var (
	Integer   DataType = &fixedType{TypeIDInteger, "INTEGER", 4}
	BigInt    DataType = &fixedType{TypeIDBigInt, "BIGINT", 8}
	SmallInt  DataType = &fixedType{TypeIDSmallInt, "SMALLINT", 2}
	Boolean   DataType = &fixedType{TypeIDBoolean, "BOOLEAN", 1}
	Text      DataType = &fixedType{TypeIDText, "TEXT", -1}
	Timestamp DataType = &fixedType{TypeIDTimestamp, "TIMESTAMP", 8}
	Date      DataType = &fixedType{TypeIDDate, "DATE", 4}
	Float     DataType = &fixedType{TypeIDFloat, "FLOAT", 4}
	Double    DataType = &fixedType{TypeIDDouble, "DOUBLE PRECISION", 8}
	Bytea     DataType = &fixedType{TypeIDBytea, "BYTEA", -1}
	Unknown   DataType = &fixedType{TypeIDInvalid, "UNKNOWN", -1}
)

// Varchar returns a VARCHAR type; length 0 means unbounded.
func Varchar(length int) DataType { return &varcharType{length: length} }

// Char returns a fixed-width CHAR type.
func Char(length int) DataType { return &charType{length: length} }

// Decimal returns a DECIMAL type with the given precision and scale.
func Decimal(precision, scale int) DataType {
	return &decimalType{precision: precision, scale: scale}
}

// Equal reports whether two types are the same SQL type, modifiers included.
func Equal(a, b DataType) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Name() == b.Name()
}

// aliases maps accepted spellings onto canonical fixed types.
var aliases = map[string]DataType{
	"INTEGER":          Integer,
	"INT":              Integer,
	"INT4":             Integer,
	"BIGINT":           BigInt,
	"INT8":             BigInt,
	"SMALLINT":         SmallInt,
	"INT2":             SmallInt,
	"BOOLEAN":          Boolean,
	"BOOL":             Boolean,
	"TEXT":             Text,
	"TIMESTAMP":        Timestamp,
	"DATE":             Date,
	"FLOAT":            Float,
	"REAL":             Float,
	"FLOAT4":           Float,
	"DOUBLE":           Double,
	"DOUBLE PRECISION": Double,
	"FLOAT8":           Double,
	"BYTEA":            Bytea,
	"UNKNOWN":          Unknown,
}

// Parse converts a type name such as "int", "varchar(20)" or
// "decimal(10, 2)" into a DataType. It accepts everything Name returns.
func Parse(name string) (DataType, error) {
	s := strings.ToUpper(strings.Join(strings.Fields(name), " "))
	if s == "" {
		return nil, fmt.Errorf("empty type name")
	}

	base, args, err := splitModifiers(s)
	if err != nil {
		return nil, fmt.Errorf("invalid type %q: %w", name, err)
	}

	switch base {
	case "VARCHAR", "CHARACTER VARYING":
		switch len(args) {
		case 0:
			return Varchar(0), nil
		case 1:
			return Varchar(args[0]), nil
		}
	case "CHAR", "CHARACTER":
		switch len(args) {
		case 0:
			return Char(1), nil
		case 1:
			return Char(args[0]), nil
		}
	case "DECIMAL", "NUMERIC":
		switch len(args) {
		case 0:
			return Decimal(10, 0), nil
		case 1:
			return Decimal(args[0], 0), nil
		case 2:
			return Decimal(args[0], args[1]), nil
		}
	default:
		if dt, ok := aliases[base]; ok && len(args) == 0 {
			return dt, nil
		}
		return nil, fmt.Errorf("unknown type %q", name)
	}
	return nil, fmt.Errorf("invalid modifiers for type %q", name)
}

func splitModifiers(s string) (string, []int, error) {
	open := strings.IndexByte(s, '(')
	if open < 0 {
		return s, nil, nil
	}
	if !strings.HasSuffix(s, ")") {
		return "", nil, fmt.Errorf("unbalanced parentheses")
	}
	base := strings.TrimSpace(s[:open])
	var args []int
	for _, part := range strings.Split(s[open+1:len(s)-1], ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return "", nil, err
		}
		args = append(args, n)
	}
	return base, args, nil
}
