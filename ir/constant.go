package ir

import "math"

// ConstantScalarValue is a compile-time literal carried by a ConstantScalar
// Variable. Numeric literals are stored at f64 precision regardless of the
// element's declared width and rendered per-element by the backend at
// emission time, per the IR serialization contract.
type ConstantScalarValue struct {
	Elem Elem
	bits uint64
}

// ConstantFloat builds a float literal of the given element (must be a
// float Elem).
func ConstantFloat(v float64, elem Elem) ConstantScalarValue {
	return ConstantScalarValue{Elem: elem, bits: math.Float64bits(v)}
}

// ConstantInt builds a signed integer literal.
func ConstantInt(v int64, elem Elem) ConstantScalarValue {
	return ConstantScalarValue{Elem: elem, bits: uint64(v)}
}

// ConstantUInt builds an unsigned integer literal.
func ConstantUInt(v uint64, elem Elem) ConstantScalarValue {
	return ConstantScalarValue{Elem: elem, bits: v}
}

// ConstantBool builds a boolean literal.
func ConstantBool(v bool) ConstantScalarValue {
	var bits uint64
	if v {
		bits = 1
	}
	return ConstantScalarValue{Elem: Bool(), bits: bits}
}

// ZeroValue returns the zero constant for elem.
func ZeroValue(elem Elem) ConstantScalarValue {
	switch elem.Kind {
	case ElemFloat:
		return ConstantFloat(0, elem)
	case ElemBool:
		return ConstantBool(false)
	default:
		return ConstantUInt(0, elem)
	}
}

// Float returns the literal as a float64. ok is false if Elem is not a
// float kind.
func (c ConstantScalarValue) Float() (v float64, ok bool) {
	if c.Elem.Kind != ElemFloat {
		return 0, false
	}
	return math.Float64frombits(c.bits), true
}

// Int returns the literal as an int64. ok is false if Elem is not a signed
// integer kind.
func (c ConstantScalarValue) Int() (v int64, ok bool) {
	if c.Elem.Kind != ElemInt && c.Elem.Kind != ElemAtomicInt {
		return 0, false
	}
	return int64(c.bits), true
}

// UInt returns the literal as a uint64. ok is false if Elem is not an
// unsigned integer kind.
func (c ConstantScalarValue) UInt() (v uint64, ok bool) {
	if c.Elem.Kind != ElemUInt && c.Elem.Kind != ElemAtomicUInt {
		return 0, false
	}
	return c.bits, true
}

// Bool returns the literal as a bool. ok is false if Elem is not Bool.
func (c ConstantScalarValue) Bool() (v bool, ok bool) {
	if c.Elem.Kind != ElemBool {
		return false, false
	}
	return c.bits != 0, true
}

// Bits returns the raw bit pattern backing the literal, used by backends
// and the IR serializer that need a stable wire representation without
// interpreting the value.
func (c ConstantScalarValue) Bits() uint64 { return c.bits }
