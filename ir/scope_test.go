package ir

import "testing"

func TestProcessIsIdempotentOnOutput(t *testing.T) {
	s := Root()
	out := GlobalOutputArray(0, Scalar(UInt()))
	in := s.ReadArray(0, Scalar(UInt()), 0)
	s.WriteGlobal(in, out, 0)

	first := s.Process()
	if len(first.Variables) == 0 {
		t.Fatal("expected first Process() to materialize variables")
	}

	second := s.Process()
	if len(second.Variables) != 0 || len(second.Operations) != 0 {
		t.Fatalf("Process() on an already-finalized scope should be empty, got vars=%d ops=%d",
			len(second.Variables), len(second.Operations))
	}
}

func TestProcessOrdering(t *testing.T) {
	s := Root()
	out := GlobalOutputArray(0, Scalar(UInt()))
	in := s.ReadArray(0, Scalar(UInt()), 0)
	scalar := s.ReadScalar(0, UInt())
	sum := s.CreateLocal(Scalar(UInt()))
	s.Register(NewOperator(OpAdd, in, scalar, sum))
	s.WriteGlobal(sum, out, 0)

	got := s.Process()

	// EarlyReturn guard first (root scope with a pending write).
	if got.Operations[0].Category != CategoryProcedure || got.Operations[0].Procedure.Kind != ProcEarlyReturn {
		t.Fatalf("expected EarlyReturn first, got %+v", got.Operations[0])
	}
	// ReadGlobalWithLayout next.
	if got.Operations[1].Procedure.Kind != ProcReadGlobalWithLayout {
		t.Fatalf("expected ReadGlobalWithLayout second, got %+v", got.Operations[1])
	}
	// Scalar assign next.
	if got.Operations[2].Category != CategoryOperator || got.Operations[2].Operator.Kind != OpAssign {
		t.Fatalf("expected scalar Assign third, got %+v", got.Operations[2])
	}
	// Body operation (the Add) next.
	if got.Operations[3].Operator == nil || got.Operations[3].Operator.Kind != OpAdd {
		t.Fatalf("expected Add fourth, got %+v", got.Operations[3])
	}
	// WriteGlobal last.
	last := got.Operations[len(got.Operations)-1]
	if last.Procedure == nil || last.Procedure.Kind != ProcWriteGlobal {
		t.Fatalf("expected WriteGlobal last, got %+v", last)
	}
}

func TestUniqueLocalIDs(t *testing.T) {
	s := Root()
	a := s.CreateLocal(Scalar(UInt()))
	b := s.CreateLocal(Scalar(UInt()))
	s.Register(NewOperator(OpAdd, a, b, a))
	s.Register(NewOperator(OpAdd, a, b, b)) // keep both referenced so neither is pruned

	got := s.Process()

	seen := map[VarKey]bool{}
	for _, v := range got.Variables {
		if seen[v.Key()] {
			t.Fatalf("duplicate variable key %+v", v.Key())
		}
		seen[v.Key()] = true
	}
}

func TestLayoutAnchoring(t *testing.T) {
	s := Root()
	out1 := GlobalOutputArray(0, Scalar(F32()))
	out2 := GlobalOutputArray(1, Scalar(F32()))
	in := s.ReadArray(0, Scalar(F32()), 0)

	s.WriteGlobal(in, out1, 0)
	s.WriteGlobal(in, out2, 1)

	if s.LayoutRef == nil || *s.LayoutRef != out1 {
		t.Fatalf("expected layout_ref to be the first write's output, got %+v", s.LayoutRef)
	}

	got := s.Process()
	for _, op := range got.Operations {
		if op.Category == CategoryProcedure && op.Procedure.Kind == ProcReadGlobalWithLayout {
			if op.Procedure.Layout != out1 {
				t.Fatalf("expected ReadGlobalWithLayout to anchor on %+v, got %+v", out1, op.Procedure.Layout)
			}
		}
	}
}

func TestDeadLocalElimination(t *testing.T) {
	s := Root()
	dead := s.CreateLocal(Scalar(UInt()))
	_ = dead
	alive := s.CreateLocal(Scalar(UInt()))
	out := s.CreateLocal(Scalar(UInt()))
	s.Register(NewOperator(OpAdd, alive, alive, out))

	got := s.Process()

	for _, v := range got.Variables {
		if v.Key() == dead.Key() {
			t.Fatalf("expected dead local %+v to be eliminated by optimize()", dead)
		}
	}
}

func TestWrittenButUnreadLocalDeclarationSurvives(t *testing.T) {
	// A local that is assigned to but never read (e.g. the induction copy
	// in a RangeLoop body, or one half of a discarded tuple result, per
	// spec scenario 2) must keep its declaration: the WGSL backend still
	// emits the assignment as a statement against that name, and a
	// declaration-less assignment is invalid WGSL.
	s := Root()
	induction := s.CreateLocalUndeclared(Scalar(UInt()))
	writtenOnly := s.CreateLocal(Scalar(UInt()))
	s.Register(NewAssign(induction, writtenOnly))

	got := s.Process()

	found := false
	for _, v := range got.Variables {
		if v.Key() == writtenOnly.Key() {
			found = true
		}
	}
	if !found {
		t.Fatal("expected writtenOnly's declaration to survive dead-local elimination since it is assigned to")
	}
}

func TestChildInheritsLayoutRef(t *testing.T) {
	s := Root()
	out := GlobalOutputArray(0, Scalar(F32()))
	s.WriteGlobalCustom(out)

	child := s.Child()
	if child.LayoutRef == nil || *child.LayoutRef != out {
		t.Fatalf("expected child to inherit parent layout_ref, got %+v", child.LayoutRef)
	}
}

func TestVectorizeSkipsAtomics(t *testing.T) {
	s := Root()
	atomic := s.CreateLocal(Scalar(AtomicI32()))
	plain := s.CreateLocal(Scalar(I32()))

	s.Vectorize(4)

	for _, v := range s.Locals {
		switch v.Key() {
		case atomic.Key():
			if v.Item.Vectorization != 1 {
				t.Errorf("atomic local must stay at vectorization 1, got %d", v.Item.Vectorization)
			}
		case plain.Key():
			if v.Item.Vectorization != 4 {
				t.Errorf("plain local should be vectorized to 4, got %d", v.Item.Vectorization)
			}
		}
	}
}
