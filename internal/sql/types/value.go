package types

import (
	"fmt"
	"strconv"
	"strings"
)

// Value represents a SQL value that can be NULL
type Value struct {
	Data interface{}
	Null bool
}

// NewValue creates a non-null value
func NewValue(data interface{}) Value {
	return Value{Data: data, Null: false}
}

// NewNullValue creates a null value
func NewNullValue() Value {
	return Value{Data: nil, Null: true}
}

// IsNull returns true if the value is NULL
func (v Value) IsNull() bool {
	return v.Null
}

// String returns a string representation of the value
func (v Value) String() string {
	if v.Null {
		return "NULL"
	}
	return fmt.Sprintf("%v", v.Data)
}

// SQL renders the value as a SQL literal.
func (v Value) SQL() string {
	if v.Null {
		return "NULL"
	}
	switch d := v.Data.(type) {
	case string:
		return "'" + strings.ReplaceAll(d, "'", "''") + "'"
	case bool:
		if d {
			return "true"
		}
		return "false"
	case float64:
		return strconv.FormatFloat(d, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", d)
	}
}

// Type returns the DataType of the value based on its underlying type
func (v Value) Type() DataType {
	if v.Null {
		return Unknown
	}
	switch v.Data.(type) {
	case int32:
		return Integer
	case int64:
		return BigInt
	case int16:
		return SmallInt
	case string:
		return Text
	case bool:
		return Boolean
	case float32:
		return Float
	case float64:
		return Double
	default:
		return Unknown
	}
}
