package planner

import (
	"math"

	errs "github.com/dshills/quantaplan/internal/errors"
	"github.com/dshills/quantaplan/internal/sql/types"
)

// coerceBinary types a binary operation. Operands of different types are
// converted to a common type by wrapping the narrower side in a Cast;
// integer literals are retyped in place when the value fits. Pairs with no
// common type are a DatatypeMismatch.
func coerceBinary(op BinaryOperator, left, right Expression) (*BinaryOp, error) {
	lt, rt := left.DataType(), right.DataType()
	lc, rc := types.CategoryOf(lt), types.CategoryOf(rt)

	switch {
	case op == OpAnd || op == OpOr:
		if !boolish(lc) || !boolish(rc) {
			return nil, operatorMismatch(op, lt, rt)
		}
		return &BinaryOp{Left: left, Right: right, Operator: op, Type: types.Boolean}, nil

	case !op.IsPredicate():
		if !numericish(lc) || !numericish(rc) {
			return nil, operatorMismatch(op, lt, rt)
		}
		target := arithmeticTarget(left, right, lc, rc)
		return &BinaryOp{
			Left:     castTo(left, target),
			Right:    castTo(right, target),
			Operator: op,
			Type:     target,
		}, nil

	default:
		target, ok := comparisonTarget(left, right, lc, rc)
		if !ok {
			return nil, operatorMismatch(op, lt, rt)
		}
		return &BinaryOp{
			Left:     castTo(left, target),
			Right:    castTo(right, target),
			Operator: op,
			Type:     types.Boolean,
		}, nil
	}
}

func boolish(c types.Category) bool {
	return c == types.CategoryBoolean || c == types.CategoryUnknown
}

func numericish(c types.Category) bool {
	return c == types.CategoryNumeric || c == types.CategoryUnknown
}

// arithmeticTarget is the result type of an arithmetic operation. An
// untyped NULL takes the type of the other side.
func arithmeticTarget(left, right Expression, lc, rc types.Category) types.DataType {
	switch {
	case lc == types.CategoryUnknown:
		return right.DataType()
	case rc == types.CategoryUnknown:
		return left.DataType()
	}
	return numericTarget(left, right)
}

// numericTarget is the common type of two numeric operands. An integer
// literal adopts the type of the other side when its value fits.
func numericTarget(left, right Expression) types.DataType {
	lt, rt := left.DataType(), right.DataType()
	switch {
	case fitsIn(right, lt):
		return lt
	case fitsIn(left, rt):
		return rt
	}
	return types.WiderNumeric(lt, rt)
}

func fitsIn(expr Expression, target types.DataType) bool {
	lit, ok := expr.(*Literal)
	if !ok {
		return false
	}
	_, ok = retype(lit.Value, target)
	return ok
}

// comparisonTarget returns the type both sides of a comparison convert to,
// or nil when they compare as they are.
func comparisonTarget(left, right Expression, lc, rc types.Category) (types.DataType, bool) {
	lt, rt := left.DataType(), right.DataType()
	switch {
	case lc == types.CategoryUnknown || rc == types.CategoryUnknown:
		return nil, true
	case lc == rc:
		switch lc {
		case types.CategoryNumeric:
			return numericTarget(left, right), true
		case types.CategoryTemporal:
			return types.WiderTemporal(lt, rt), true
		}
		return nil, true
	case lc == types.CategoryString && rc == types.CategoryNumeric,
		lc == types.CategoryNumeric && rc == types.CategoryString:
		return types.Text, true
	case lc == types.CategoryString && rc == types.CategoryTemporal:
		return rt, true
	case lc == types.CategoryTemporal && rc == types.CategoryString:
		return lt, true
	}
	return nil, false
}

// castTo converts expr to target. Nothing changes when target is nil, when
// expr already has that type, when expr is an untyped NULL, or when both are
// strings.
func castTo(expr Expression, target types.DataType) Expression {
	if target == nil || types.Equal(expr.DataType(), target) {
		return expr
	}
	from := types.CategoryOf(expr.DataType())
	if from == types.CategoryUnknown ||
		(from == types.CategoryString && types.CategoryOf(target) == types.CategoryString) {
		return expr
	}
	if lit, ok := expr.(*Literal); ok {
		if v, ok := retype(lit.Value, target); ok {
			return &Literal{Value: v}
		}
	}
	return &Cast{Expr: expr, Type: target}
}

// retype converts an integer literal to another numeric type when the
// conversion is exact.
func retype(v types.Value, target types.DataType) (types.Value, bool) {
	n, ok := v.Data.(int64)
	if !ok {
		return v, false
	}
	switch {
	case types.Equal(target, types.BigInt):
		return v, true
	case types.Equal(target, types.Integer) && n >= math.MinInt32 && n <= math.MaxInt32:
		return types.NewValue(int32(n)), true
	case types.Equal(target, types.SmallInt) && n >= math.MinInt16 && n <= math.MaxInt16:
		return types.NewValue(int16(n)), true
	case types.Equal(target, types.Double) && n >= -1<<53 && n <= 1<<53:
		return types.NewValue(float64(n)), true
	}
	return v, false
}

func operatorMismatch(op BinaryOperator, lt, rt types.DataType) error {
	return errs.Newf(errs.DatatypeMismatch, "operator %s cannot be applied to %s and %s",
		op, typeName(lt), typeName(rt)).
		WithHint("add an explicit CAST")
}

// checkUnary types NOT and unary minus.
func checkUnary(op string, want types.Category, expr Expression) error {
	c := types.CategoryOf(expr.DataType())
	if c == want || c == types.CategoryUnknown {
		return nil
	}
	return errs.Newf(errs.DatatypeMismatch, "argument of %s must be %s, not type %s",
		op, want, typeName(expr.DataType()))
}

func typeName(dt types.DataType) string {
	if dt == nil {
		return types.Unknown.Name()
	}
	return dt.Name()
}
