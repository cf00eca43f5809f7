package ir

import "testing"

func TestRangeLoopBodyIsSingleEmission(t *testing.T) {
	// Mirrors the runtime range_expand contract: a runtime range_expand
	// produces exactly one RangeLoop whose child scope contains exactly one
	// body emission (frontend.branch owns the expansion; here we only
	// verify that a BranchOp constructed this way round-trips through a
	// parent scope's Process unchanged).
	parent := Root()
	child := parent.Child()
	i := child.CreateLocalUndeclared(Scalar(UInt()))
	out := child.CreateLocal(Scalar(UInt()))
	child.Register(NewAssign(i, out))
	body := child.Process()

	n := ConstantScalar(ConstantUInt(10, UInt()))
	zero := ConstantScalar(ConstantUInt(0, UInt()))
	parent.Register(NewRangeLoop(i, zero, n, Variable{}, false, &body))

	got := parent.Process()
	if len(got.Operations) != 1 {
		t.Fatalf("expected exactly one RangeLoop operation, got %d", len(got.Operations))
	}
	rl := got.Operations[0].Branch
	if rl == nil || rl.Kind != BranchRangeLoop {
		t.Fatalf("expected a RangeLoop, got %+v", got.Operations[0])
	}
	if len(rl.Body.Operations) != 1 {
		t.Fatalf("expected exactly one body emission in the child scope, got %d", len(rl.Body.Operations))
	}
}

func TestKernelDefinitionCarriesProcessedBody(t *testing.T) {
	s := Root()
	out := GlobalOutputArray(0, Scalar(UInt()))
	in := s.ReadArray(0, Scalar(UInt()), 0)
	s.WriteGlobal(in, out, 0)

	kernel := KernelDefinition{
		Inputs:  []Binding{{Name: "in", Item: Scalar(UInt()), Position: 0}},
		Outputs: []Binding{{Name: "out", Item: Scalar(UInt()), Position: 0}},
		CubeDim: [3]uint32{16, 16, 1},
		Body:    s.Process(),
	}

	if len(kernel.Body.Operations) == 0 {
		t.Fatal("expected kernel body to carry the finalized operations")
	}
}

func TestCollectUsedOperandsRecursesIntoBranches(t *testing.T) {
	child := Root().Child()
	used := child.CreateLocal(Scalar(UInt()))
	target := child.CreateLocal(Scalar(UInt()))
	child.Register(NewAssign(used, target))
	body := child.Process()

	parent := Root()
	cond := parent.CreateLocal(Scalar(Bool()))
	parent.Register(NewIf(cond, &body))

	got := parent.Process()
	// cond must survive (referenced by the If's Cond field), and the
	// operands used only inside the If's body must be collected too.
	if !collectUsedOperands(got.Operations)[used.Key()] {
		t.Fatal("expected an operand used only inside the branch body to be collected")
	}
	found := false
	for _, v := range got.Variables {
		if v.Key() == cond.Key() {
			found = true
		}
	}
	if !found {
		t.Fatal("expected the If condition's variable to survive dead-local elimination")
	}
}
