package frontend

import "github.com/cubecl-go/cubecl/ir"

// RangeExpand implements range_expand: body is the loop payload, invoked
// either fully unrolled (when unroll is true, requiring constant bounds) or
// once against a runtime induction variable materialized as a RangeLoop.
//
// When unroll is true, start and end must both be ir.ConstantScalar
// variables; this is a programmer error otherwise (the unroll bound was not
// known at expansion time) and panics, mirroring the abort-on-violation
// policy the IR/frontend layer uses for expansion-time bugs.
func RangeExpand(ctx *Context, start, end ir.Variable, unroll bool, body func(ctx *Context, i ir.Variable)) {
	rangeSteppedExpand(ctx, start, end, ir.Variable{}, false, unroll, body)
}

// RangeSteppedExpand implements range_stepped_expand: as RangeExpand, but
// threads an explicit step bound through to the emitted RangeLoop when not
// unrolled.
func RangeSteppedExpand(ctx *Context, start, end, step ir.Variable, unroll bool, body func(ctx *Context, i ir.Variable)) {
	rangeSteppedExpand(ctx, start, end, step, true, unroll, body)
}

func rangeSteppedExpand(ctx *Context, start, end, step ir.Variable, hasStep, unroll bool, body func(ctx *Context, i ir.Variable)) {
	if unroll {
		if start.Kind != ir.VarConstantScalar || end.Kind != ir.VarConstantScalar {
			panic("frontend: range_expand: only constant start and end can be unrolled")
		}
		s, ok := constantAsInt(start.Value)
		if !ok {
			panic("frontend: range_expand: unroll start is not an integer constant")
		}
		e, ok := constantAsInt(end.Value)
		if !ok {
			panic("frontend: range_expand: unroll end is not an integer constant")
		}
		stepVal := int64(1)
		if hasStep {
			if step.Kind != ir.VarConstantScalar {
				panic("frontend: range_expand: only a constant step can be unrolled")
			}
			v, ok := constantAsInt(step.Value)
			if !ok || v == 0 {
				panic("frontend: range_expand: unroll step must be a non-zero integer constant")
			}
			stepVal = v
		}
		for i := s; i < e; i += stepVal {
			induction := ir.ConstantScalar(ir.ConstantInt(i, ir.I32()))
			body(ctx, induction)
		}
		return
	}

	child := ctx.child()
	i := child.scope.CreateLocalUndeclared(ir.Scalar(ir.UInt()))
	body(child, i)
	processed := child.scope.Process()
	ctx.scope.Register(ir.NewRangeLoop(i, start, end, step, hasStep, &processed))
}

// constantAsInt extracts an integer value from a ConstantScalarValue whose
// Elem may be signed, unsigned, or float (truncated), used by the unroll
// path which accepts any integral-looking constant bound.
func constantAsInt(v ir.ConstantScalarValue) (int64, bool) {
	if i, ok := v.Int(); ok {
		return i, true
	}
	if u, ok := v.UInt(); ok {
		return int64(u), true
	}
	if f, ok := v.Float(); ok {
		return int64(f), true
	}
	return 0, false
}

// IfExpand implements if_expand. comptimeCond, when non-nil, is the
// statically-known condition value; runtimeCond is only consulted when
// comptimeCond is nil.
func IfExpand(ctx *Context, comptimeCond *bool, runtimeCond ir.Variable, thenBody func(ctx *Context)) {
	if comptimeCond != nil {
		if *comptimeCond {
			thenBody(ctx)
		}
		return
	}
	child := ctx.child()
	thenBody(child)
	processed := child.scope.Process()
	ctx.scope.Register(ir.NewIf(runtimeCond, &processed))
}

// IfElseExpand implements if_else_expand. The branch not taken in the
// comptime-known case is never invoked.
func IfElseExpand(ctx *Context, comptimeCond *bool, runtimeCond ir.Variable, thenBody, elseBody func(ctx *Context)) {
	if comptimeCond != nil {
		if *comptimeCond {
			thenBody(ctx)
		} else {
			elseBody(ctx)
		}
		return
	}
	thenChild := ctx.child()
	thenBody(thenChild)
	thenProcessed := thenChild.scope.Process()

	elseChild := ctx.child()
	elseBody(elseChild)
	elseProcessed := elseChild.scope.Process()

	ctx.scope.Register(ir.NewIfElse(runtimeCond, &thenProcessed, &elseProcessed))
}

// BreakExpand implements break_expand: emits Branch::Break into the current
// scope.
func BreakExpand(ctx *Context) {
	ctx.scope.Register(ir.NewBreak())
}

// ReturnExpand implements return_expand: emits Branch::Return into the
// current scope.
func ReturnExpand(ctx *Context) {
	ctx.scope.Register(ir.NewReturn())
}

// LoopExpand implements loop_expand: body runs in a child scope, which is
// emitted as a Loop.
func LoopExpand(ctx *Context, body func(ctx *Context)) {
	child := ctx.child()
	body(child)
	processed := child.scope.Process()
	ctx.scope.Register(ir.NewLoop(&processed))
}

// WhileLoopExpand implements while_loop_expand: emitted as a Loop whose
// scope computes !cond into a fresh Bool local (an OpNot operator), then
// holds an If{!cond -> Break}, followed by body. condBody is
// invoked inside the child scope and re-evaluated on every iteration by
// virtue of being the first thing the loop body does at runtime.
func WhileLoopExpand(ctx *Context, condBody func(ctx *Context) ir.Variable, body func(ctx *Context)) {
	child := ctx.child()

	cond := condBody(child)
	notCond := child.scope.CreateLocal(ir.Scalar(ir.Bool()))
	child.scope.Register(ir.NewOperator(ir.OpNot, cond, ir.Variable{}, notCond))

	breakChild := child.scope.Child()
	breakChild.Register(ir.NewBreak())
	breakProcessed := breakChild.Process()
	child.scope.Register(ir.NewIf(notCond, &breakProcessed))

	body(child)

	processed := child.scope.Process()
	ctx.scope.Register(ir.NewLoop(&processed))
}
