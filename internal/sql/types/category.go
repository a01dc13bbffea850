package types

// Category groups types that convert into one another implicitly.
type Category int

const (
	// CategoryUnknown covers the type of an untyped NULL and anything the
	// planner cannot classify.
	CategoryUnknown Category = iota
	CategoryNumeric
	CategoryString
	CategoryBoolean
	CategoryTemporal
	CategoryBinary
)

var categoryNames = [...]string{"UNKNOWN", "NUMERIC", "STRING", "BOOLEAN", "TEMPORAL", "BINARY"}

func (c Category) String() string {
	if int(c) < len(categoryNames) {
		return categoryNames[c]
	}
	return "UNKNOWN"
}

// CategoryOf returns the category of dt. A nil type is CategoryUnknown.
func CategoryOf(dt DataType) Category {
	switch t := dt.(type) {
	case *varcharType, *charType:
		return CategoryString
	case *decimalType:
		return CategoryNumeric
	case *fixedType:
		switch t.id {
		case TypeIDSmallInt, TypeIDInteger, TypeIDBigInt, TypeIDFloat, TypeIDDouble:
			return CategoryNumeric
		case TypeIDText:
			return CategoryString
		case TypeIDBoolean:
			return CategoryBoolean
		case TypeIDDate, TypeIDTimestamp:
			return CategoryTemporal
		case TypeIDBytea:
			return CategoryBinary
		}
	}
	return CategoryUnknown
}

// IsInteger reports whether dt is SMALLINT, INTEGER or BIGINT.
func IsInteger(dt DataType) bool {
	t, ok := dt.(*fixedType)
	return ok && (t.id == TypeIDSmallInt || t.id == TypeIDInteger || t.id == TypeIDBigInt)
}

// numericRank orders numeric types by the range of values they hold.
func numericRank(dt DataType) int {
	if _, ok := dt.(*decimalType); ok {
		return 4
	}
	t, ok := dt.(*fixedType)
	if !ok {
		return 0
	}
	switch t.id {
	case TypeIDSmallInt:
		return 1
	case TypeIDInteger:
		return 2
	case TypeIDBigInt:
		return 3
	case TypeIDFloat:
		return 5
	case TypeIDDouble:
		return 6
	}
	return 0
}

// WiderNumeric returns whichever of two numeric types can hold the values
// of both. Ties keep a.
func WiderNumeric(a, b DataType) DataType {
	if numericRank(b) > numericRank(a) {
		return b
	}
	return a
}

// WiderTemporal returns TIMESTAMP if either type is TIMESTAMP, else a.
func WiderTemporal(a, b DataType) DataType {
	if Equal(b, Timestamp) {
		return b
	}
	return a
}
