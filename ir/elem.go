// Package ir defines the backend-neutral intermediate representation that
// kernel expansion emits into: the value grammar (Elem, Item, Variable), the
// Operation sum, and the Scope tree that collects them before finalization.
package ir

import "fmt"

// ElemKind discriminates the closed set of primitive element types a
// Variable or ConstantScalarValue may carry.
type ElemKind int

const (
	ElemFloat ElemKind = iota
	ElemInt
	ElemAtomicInt
	ElemUInt
	ElemAtomicUInt
	ElemBool
)

func (k ElemKind) String() string {
	switch k {
	case ElemFloat:
		return "float"
	case ElemInt:
		return "int"
	case ElemAtomicInt:
		return "atomic<int>"
	case ElemUInt:
		return "uint"
	case ElemAtomicUInt:
		return "atomic<uint>"
	case ElemBool:
		return "bool"
	default:
		return fmt.Sprintf("ElemKind(%d)", int(k))
	}
}

// FloatWidth is the bit width of a floating-point Elem.
type FloatWidth int

const (
	Float16 FloatWidth = 16
	BFloat16 FloatWidth = 17 // distinct from Float16 despite equal width
	Float32 FloatWidth = 32
	Float64 FloatWidth = 64
)

// IntWidth is the bit width of an integer Elem (signed or atomic-signed).
type IntWidth int

const (
	Int32 IntWidth = 32
	Int64 IntWidth = 64
)

// Elem is the primitive element type carried by a Variable or an Item.
// It is a closed sum dispatched on Kind; the Width/Int fields are only
// meaningful for the kinds that carry a width.
type Elem struct {
	Kind  ElemKind
	Width FloatWidth // valid when Kind == ElemFloat
	Int   IntWidth   // valid when Kind == ElemInt or ElemAtomicInt
}

func F16() Elem  { return Elem{Kind: ElemFloat, Width: Float16} }
func BF16() Elem { return Elem{Kind: ElemFloat, Width: BFloat16} }
func F32() Elem  { return Elem{Kind: ElemFloat, Width: Float32} }
func F64() Elem  { return Elem{Kind: ElemFloat, Width: Float64} }

func I32() Elem { return Elem{Kind: ElemInt, Int: Int32} }
func I64() Elem { return Elem{Kind: ElemInt, Int: Int64} }

func AtomicI32() Elem { return Elem{Kind: ElemAtomicInt, Int: Int32} }
func AtomicI64() Elem { return Elem{Kind: ElemAtomicInt, Int: Int64} }

func UInt() Elem       { return Elem{Kind: ElemUInt} }
func AtomicUInt() Elem { return Elem{Kind: ElemAtomicUInt} }

func Bool() Elem { return Elem{Kind: ElemBool} }

// Size returns the element's size in bytes.
func (e Elem) Size() int {
	switch e.Kind {
	case ElemFloat:
		if e.Width == BFloat16 {
			return 2
		}
		return int(e.Width) / 8
	case ElemInt, ElemAtomicInt:
		return int(e.Int) / 8
	case ElemUInt, ElemAtomicUInt:
		return 4
	case ElemBool:
		return 1
	default:
		return 0
	}
}

// IsAtomic reports whether the element is one of the atomic kinds. Atomic
// elements may only appear in an Item with vectorization factor 1.
func (e Elem) IsAtomic() bool {
	return e.Kind == ElemAtomicInt || e.Kind == ElemAtomicUInt
}

// IsFloat reports whether the element is a floating-point kind.
func (e Elem) IsFloat() bool { return e.Kind == ElemFloat }

func (e Elem) String() string {
	switch e.Kind {
	case ElemFloat:
		switch e.Width {
		case Float16:
			return "f16"
		case BFloat16:
			return "bf16"
		case Float32:
			return "f32"
		case Float64:
			return "f64"
		}
	case ElemInt:
		if e.Int == Int64 {
			return "i64"
		}
		return "i32"
	case ElemAtomicInt:
		if e.Int == Int64 {
			return "atomic<i64>"
		}
		return "atomic<i32>"
	case ElemUInt:
		return "u32"
	case ElemAtomicUInt:
		return "atomic<u32>"
	case ElemBool:
		return "bool"
	}
	return "elem(?)"
}
