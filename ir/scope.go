package ir

// ReadStrategy selects how a deferred global-array read is materialized by
// Scope.Process.
type ReadStrategy int

const (
	// ReadStrategyOutputLayout addresses the read through the scope's
	// layout_ref (ReadGlobalWithLayout). This is the default strategy
	// recorded by ReadArray.
	ReadStrategyOutputLayout ReadStrategy = iota
	// ReadStrategyPlain addresses the read directly, with no layout
	// indirection (ReadGlobal).
	ReadStrategyPlain
)

type deferredRead struct {
	Input    Variable
	Strategy ReadStrategy
	Local    Variable
	Position int
}

type deferredWrite struct {
	Input    Variable
	Output   Variable
	Position int
}

type deferredScalarRead struct {
	Index uint32
	Elem  Elem
	Local Variable
}

// Scope is the IR building block: a lexical container for declarations and
// operations at a given nesting depth. A scope is created (Root or Child),
// mutated by a single emitter, then finalized by Process, which empties the
// deferred lists, materializes them into operations, and returns the frozen
// (variables, operations) pair.
//
// Scope is single-owner during expansion: it must not be accessed
// concurrently from more than one goroutine.
type Scope struct {
	Depth uint8

	Operations     []Operation
	Locals         []Variable
	Matrices       []Variable
	Slices         []Variable
	SharedMemories []Variable
	LocalArrays    []Variable

	readsGlobal  []deferredRead
	writesGlobal []deferredWrite
	readsScalar  []deferredScalarRead

	// LayoutRef is the first output variable written; all other outputs in
	// this scope and its children are assumed to share its memory layout.
	LayoutRef *Variable

	indexOffsetWithOutputLayoutPosition []int

	// Undeclared counts locals allocated via CreateLocalUndeclared, whose
	// ids must stay unique but which Process will not emit a declaration
	// for — the caller (typically a loop header) is responsible for
	// declaring them by other means (e.g. as a RangeLoop induction
	// variable).
	Undeclared uint32

	nextID uint32
}

// Root creates a new scope at depth 0.
func Root() *Scope {
	return &Scope{Depth: 0}
}

// Child creates a new scope at depth+1, inheriting the parent's LayoutRef so
// that sibling reads in the child reach the same layout anchor.
func (s *Scope) Child() *Scope {
	child := &Scope{Depth: s.Depth + 1}
	if s.LayoutRef != nil {
		ref := *s.LayoutRef
		child.LayoutRef = &ref
	}
	return child
}

func (s *Scope) allocID() uint32 {
	id := s.nextID
	s.nextID++
	return id
}

// CreateLocal allocates a new Local variable, recording it for declaration
// when the scope is finalized.
func (s *Scope) CreateLocal(item Item) Variable {
	v := Local(s.allocID(), item, s.Depth)
	s.Locals = append(s.Locals, v)
	return v
}

// CreateLocalUndeclared allocates a new Local id without recording it for
// declaration. Callers (typically loop headers that will declare the
// induction variable themselves, e.g. as a RangeLoop's Induction field) take
// responsibility for the variable reaching a declaration site.
func (s *Scope) CreateLocalUndeclared(item Item) Variable {
	v := Local(s.allocID(), item, s.Depth)
	s.Undeclared++
	return v
}

// CreateSlice allocates a new Slice variable.
func (s *Scope) CreateSlice(item Item) Variable {
	v := Slice(s.allocID(), item, s.Depth)
	s.Slices = append(s.Slices, v)
	return v
}

// CreateMatrix allocates a new cooperative-matrix fragment variable.
func (s *Scope) CreateMatrix(mat MatrixInfo) Variable {
	v := Matrix(s.allocID(), mat, s.Depth)
	s.Matrices = append(s.Matrices, v)
	return v
}

// CreateShared allocates workgroup-shared memory of the given item and
// element length.
func (s *Scope) CreateShared(item Item, length uint32) Variable {
	v := SharedMemory(s.allocID(), item, length)
	s.SharedMemories = append(s.SharedMemories, v)
	return v
}

// CreateLocalArray allocates a fixed-length local array.
func (s *Scope) CreateLocalArray(item Item, length uint32) Variable {
	v := LocalArray(s.allocID(), item, s.Depth, length)
	s.LocalArrays = append(s.LocalArrays, v)
	return v
}

// ReadArray records a deferred read of the input array at the given
// parameter-list position, using the OutputLayout strategy. It allocates the
// destination local (added to Locals) and returns it.
func (s *Scope) ReadArray(index uint32, item Item, position int) Variable {
	input := GlobalInputArray(index, item)
	local := s.CreateLocal(item)
	s.readsGlobal = append(s.readsGlobal, deferredRead{
		Input: input, Strategy: ReadStrategyOutputLayout, Local: local, Position: position,
	})
	return local
}

// ReadScalar records a deferred scalar read from the uniform scalar pool.
// The destination local is a LocalScalar; it is not added to Locals — it is
// added to the finalized variables list directly by Process (step 5).
func (s *Scope) ReadScalar(index uint32, elem Elem) Variable {
	local := LocalScalar(s.allocID(), elem, s.Depth)
	s.readsScalar = append(s.readsScalar, deferredScalarRead{Index: index, Elem: elem, Local: local})
	return local
}

// WriteGlobal records a deferred write of input into output at the given
// parameter-list position. If LayoutRef is unset, it is set to output.
func (s *Scope) WriteGlobal(input, output Variable, position int) {
	if s.LayoutRef == nil {
		ref := output
		s.LayoutRef = &ref
	}
	s.writesGlobal = append(s.writesGlobal, deferredWrite{Input: input, Output: output, Position: position})
}

// WriteGlobalCustom records only the layout intent of output, without
// scheduling an actual write. Used when an output's layout must anchor
// reads even though the output itself is populated by other means.
func (s *Scope) WriteGlobalCustom(output Variable) {
	if s.LayoutRef == nil {
		ref := output
		s.LayoutRef = &ref
	}
}

// UpdateRead retroactively changes the reading strategy of every
// previously-recorded deferred read of the input array identified by index.
func (s *Scope) UpdateRead(index uint32, strategy ReadStrategy) {
	for i := range s.readsGlobal {
		if s.readsGlobal[i].Input.ID == index {
			s.readsGlobal[i].Strategy = strategy
		}
	}
}

// Register appends a fully-resolved operation to the scope. Procedures that
// require the layout field to be backfilled at finalization time
// (IndexOffsetGlobalWithLayout) have their position recorded so Process can
// fill Layout in once LayoutRef is known.
func (s *Scope) Register(op Operation) {
	if op.Category == CategoryProcedure && op.Procedure.Kind == ProcIndexOffsetGlobalWithLayout {
		s.indexOffsetWithOutputLayoutPosition = append(s.indexOffsetWithOutputLayoutPosition, len(s.Operations))
	}
	s.Operations = append(s.Operations, op)
}

// Zero allocates a new local of item, initialized to the zero value of its
// element.
func (s *Scope) Zero(item Item) Variable {
	return s.CreateWithValue(ZeroValue(item.Elem), item)
}

// CreateWithValue allocates a new local of item, initialized to value via an
// Assign operation from a ConstantScalar.
func (s *Scope) CreateWithValue(value ConstantScalarValue, item Item) Variable {
	local := s.CreateLocal(item)
	s.Register(NewAssign(ConstantScalar(value), local))
	return local
}

// Vectorize broadcasts a vectorization factor across every Item-carrying
// variable declared directly in this scope (locals, slices, shared
// memories, local arrays, and the deferred reads/writes already recorded),
// and across every operand of already-registered operations, including
// nested scopes held by Branch operations. Atomic elements are left at
// factor 1 regardless of the requested factor, preserving the atomic/
// vectorization invariant.
func (s *Scope) Vectorize(factor int) {
	vectorizeSlice(s.Locals, factor)
	vectorizeSlice(s.Slices, factor)
	vectorizeSlice(s.SharedMemories, factor)
	vectorizeSlice(s.LocalArrays, factor)
	for i := range s.readsGlobal {
		vectorizeVar(&s.readsGlobal[i].Input, factor)
		vectorizeVar(&s.readsGlobal[i].Local, factor)
	}
	for i := range s.writesGlobal {
		vectorizeVar(&s.writesGlobal[i].Input, factor)
		vectorizeVar(&s.writesGlobal[i].Output, factor)
	}
	for i := range s.Operations {
		vectorizeOperation(&s.Operations[i], factor)
	}
}

func vectorizeSlice(vars []Variable, factor int) {
	for i := range vars {
		vectorizeVar(&vars[i], factor)
	}
}

func vectorizeVar(v *Variable, factor int) {
	if v.Item.Vectorization == 0 {
		return
	}
	if v.Item.Elem.IsAtomic() {
		return
	}
	v.Item.Vectorization = factor
}

func vectorizeOperation(op *Operation, factor int) {
	switch op.Category {
	case CategoryOperator:
		vectorizeVar(&op.Operator.Lhs, factor)
		vectorizeVar(&op.Operator.Rhs, factor)
		vectorizeVar(&op.Operator.Out, factor)
	case CategoryProcedure:
		p := op.Procedure
		vectorizeVar(&p.Input, factor)
		vectorizeVar(&p.Local, factor)
		vectorizeVar(&p.Output, factor)
		vectorizeVar(&p.Source, factor)
		vectorizeVar(&p.IfTrue, factor)
		vectorizeVar(&p.IfFalse, factor)
		vectorizeVar(&p.Container, factor)
	case CategoryBranch:
		b := op.Branch
		vectorizeVar(&b.Start, factor)
		vectorizeVar(&b.End, factor)
		vectorizeVar(&b.Step, factor)
		if b.Body != nil {
			b.Body.vectorize(factor)
		}
		if b.Else != nil {
			b.Else.vectorize(factor)
		}
	case CategoryMetadata:
		vectorizeVar(&op.Metadata.Var, factor)
		vectorizeVar(&op.Metadata.Out, factor)
	case CategorySubcube:
		vectorizeVar(&op.Subcube.Input, factor)
		vectorizeVar(&op.Subcube.Out, factor)
	case CategoryCoopMma:
		for i := range op.CoopMma.Inputs {
			vectorizeVar(&op.CoopMma.Inputs[i], factor)
		}
		vectorizeVar(&op.CoopMma.Out, factor)
	}
}
