package frontend

import (
	"testing"

	"github.com/cubecl-go/cubecl/ir"
)

func TestRangeExpandUnrollEquivalence(t *testing.T) {
	root := ir.Root()
	ctx := New(root)

	start := ir.ConstantScalar(ir.ConstantInt(0, ir.I32()))
	end := ir.ConstantScalar(ir.ConstantInt(5, ir.I32()))

	emitted := 0
	RangeExpand(ctx, start, end, true, func(ctx *Context, i ir.Variable) {
		emitted++
		out := ctx.Scope().CreateLocal(ir.Scalar(ir.I32()))
		ctx.Scope().Register(ir.NewAssign(i, out))
	})

	if emitted != 5 {
		t.Fatalf("expected unrolled body to run 5 times, ran %d", emitted)
	}

	processed := root.Process()
	if len(processed.Operations) != 5 {
		t.Fatalf("expected 5 emitted assign operations, got %d", len(processed.Operations))
	}
}

func TestRangeExpandRuntimeProducesSingleRangeLoop(t *testing.T) {
	root := ir.Root()
	ctx := New(root)

	start := ir.ConstantScalar(ir.ConstantUInt(0, ir.UInt()))
	n := root.ReadScalar(0, ir.UInt())

	calls := 0
	RangeExpand(ctx, start, n, false, func(ctx *Context, i ir.Variable) {
		calls++
		out := ctx.Scope().CreateLocal(ir.Scalar(ir.UInt()))
		ctx.Scope().Register(ir.NewAssign(i, out))
	})

	if calls != 1 {
		t.Fatalf("expected runtime range_expand to invoke body exactly once, got %d", calls)
	}

	processed := root.Process()
	var rangeLoops int
	var body *ir.ScopeProcessing
	for _, op := range processed.Operations {
		if op.Category == ir.CategoryBranch && op.Branch.Kind == ir.BranchRangeLoop {
			rangeLoops++
			body = op.Branch.Body
		}
	}
	if rangeLoops != 1 {
		t.Fatalf("expected exactly one RangeLoop, got %d", rangeLoops)
	}
	if body == nil || len(body.Operations) != 1 {
		t.Fatalf("expected the RangeLoop's child scope to contain exactly one body emission")
	}
}

func TestRangeExpandUnrollPanicsOnNonConstantBounds(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for non-constant unroll bounds")
		}
	}()
	root := ir.Root()
	ctx := New(root)
	n := root.ReadScalar(0, ir.I32())
	RangeExpand(ctx, ir.ConstantScalar(ir.ConstantInt(0, ir.I32())), n, true, func(*Context, ir.Variable) {})
}

func TestIfExpandComptimeTrueEmitsNoBranch(t *testing.T) {
	root := ir.Root()
	ctx := New(root)
	yes := true
	ran := false
	IfExpand(ctx, &yes, ir.Variable{}, func(ctx *Context) { ran = true })
	if !ran {
		t.Fatal("expected comptime-true branch to run the body")
	}
	processed := root.Process()
	for _, op := range processed.Operations {
		if op.Category == ir.CategoryBranch {
			t.Fatalf("expected no branch to be emitted for a comptime-true condition, got %+v", op)
		}
	}
}

func TestIfExpandComptimeFalseSkipsBody(t *testing.T) {
	root := ir.Root()
	ctx := New(root)
	no := false
	ran := false
	IfExpand(ctx, &no, ir.Variable{}, func(ctx *Context) { ran = true })
	if ran {
		t.Fatal("expected comptime-false condition to never invoke the body")
	}
}

func TestIfExpandRuntimeEmitsIf(t *testing.T) {
	root := ir.Root()
	ctx := New(root)
	cond := root.ReadScalar(0, ir.Bool())
	IfExpand(ctx, nil, cond, func(ctx *Context) {
		ctx.Scope().Register(ir.NewBreak())
	})
	processed := root.Process()
	found := false
	for _, op := range processed.Operations {
		if op.Category == ir.CategoryBranch && op.Branch.Kind == ir.BranchIf {
			found = true
			if len(op.Branch.Body.Operations) != 1 {
				t.Fatalf("expected the If's body to contain the one emitted Break")
			}
		}
	}
	if !found {
		t.Fatal("expected an If to be emitted for a runtime condition")
	}
}

func TestWhileLoopLowering(t *testing.T) {
	root := ir.Root()
	ctx := New(root)
	cond := root.ReadScalar(0, ir.Bool())

	WhileLoopExpand(ctx,
		func(ctx *Context) ir.Variable { return cond },
		func(ctx *Context) {
			ctx.Scope().Register(ir.NewBreak())
		},
	)

	processed := root.Process()
	// The root holds the Assign that materializes the scalar read of cond,
	// followed by the single Loop.
	if len(processed.Operations) != 2 {
		t.Fatalf("expected the scalar read's Assign followed by a single Loop operation, got %d", len(processed.Operations))
	}
	loop := processed.Operations[1].Branch
	if loop == nil || loop.Kind != ir.BranchLoop {
		t.Fatalf("expected a Loop, got %+v", processed.Operations[1])
	}
	body := loop.Body.Operations
	if len(body) != 3 {
		t.Fatalf("expected the loop body to negate cond, then the guard If, then the user body, got %d ops", len(body))
	}
	if body[0].Category != ir.CategoryOperator || body[0].Operator.Kind != ir.OpNot {
		t.Fatalf("expected the negation of cond to come first, got %+v", body[0])
	}
	if body[1].Category != ir.CategoryBranch || body[1].Branch.Kind != ir.BranchIf {
		t.Fatalf("expected the guard If second, got %+v", body[1])
	}
	if body[2].Category != ir.CategoryBranch || body[2].Branch.Kind != ir.BranchBreak {
		t.Fatalf("expected the user body's Break third, got %+v", body[2])
	}
}

func TestComptimeRuntimeRoundTrip(t *testing.T) {
	c := Static(uint(4))
	if !c.IsStatic() {
		t.Fatal("expected Static value to report IsStatic() == true")
	}
	v := c.Runtime()
	u, ok := v.Value.UInt()
	if !ok || u != 4 {
		t.Fatalf("expected Runtime() to produce a uint constant of 4, got %+v ok=%v", v.Value, ok)
	}
}

func TestComptimeMapPreservesStatic(t *testing.T) {
	c := Static(2).Map(func(v int) int { return v * 3 })
	if c.Get() != 6 {
		t.Fatalf("expected Map to transform the value, got %d", c.Get())
	}
	if !c.IsStatic() {
		t.Fatal("expected Map to preserve the static flag")
	}
}
