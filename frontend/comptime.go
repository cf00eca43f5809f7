package frontend

import "github.com/cubecl-go/cubecl/ir"

// Value is the set of host types a Comptime may wrap: the primitive kinds
// that have a direct IR constant encoding.
type Value interface {
	~int | ~int32 | ~int64 | ~uint | ~uint32 | ~uint64 | ~float32 | ~float64 | ~bool
}

// Comptime is a two-state value: a host-known value resolved at expansion
// time, carried alongside a flag recording whether it is, in fact,
// statically known in the current expansion (is_static). Expansion helpers
// inspect Comptime wrappers to decide whether to take the comptime or
// runtime branch of range_expand/if_expand/etc. This replaces any reliance
// on host-language generics to carry compile-time-only information.
type Comptime[T Value] struct {
	value    T
	isStatic bool
}

// Static wraps v as a statically-known comptime value.
func Static[T Value](v T) Comptime[T] {
	return Comptime[T]{value: v, isStatic: true}
}

// NotStatic wraps v but marks it as not statically known in this
// expansion — expansion helpers must take the runtime branch for it even
// though a host value is present (e.g. a default used only for host
// evaluation).
func NotStatic[T Value](v T) Comptime[T] {
	return Comptime[T]{value: v, isStatic: false}
}

// Get returns the wrapped host value.
func (c Comptime[T]) Get() T { return c.value }

// IsStatic reports whether this value is known at expansion time.
func (c Comptime[T]) IsStatic() bool { return c.isStatic }

// Map applies f to the wrapped value, preserving the static flag.
func (c Comptime[T]) Map(f func(T) T) Comptime[T] {
	return Comptime[T]{value: f(c.value), isStatic: c.isStatic}
}

// Runtime turns the wrapped value into an IR constant, regardless of
// IsStatic — useful when a comptime value must also be readable as an
// ordinary ir.Variable operand (e.g. passed to an Operator).
func (c Comptime[T]) Runtime() ir.Variable {
	return ir.ConstantScalar(toConstant(c.value))
}

func toConstant[T Value](v T) ir.ConstantScalarValue {
	switch val := any(v).(type) {
	case bool:
		return ir.ConstantBool(val)
	case int:
		return ir.ConstantInt(int64(val), ir.I32())
	case int32:
		return ir.ConstantInt(int64(val), ir.I32())
	case int64:
		return ir.ConstantInt(val, ir.I64())
	case uint:
		return ir.ConstantUInt(uint64(val), ir.UInt())
	case uint32:
		return ir.ConstantUInt(uint64(val), ir.UInt())
	case uint64:
		return ir.ConstantUInt(val, ir.UInt())
	case float32:
		return ir.ConstantFloat(float64(val), ir.F32())
	case float64:
		return ir.ConstantFloat(val, ir.F64())
	default:
		panic("frontend: Comptime.Runtime: unsupported host type")
	}
}
