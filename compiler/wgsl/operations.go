package wgsl

import (
	"fmt"
	"strings"

	"github.com/cubecl-go/cubecl/compiler"
	"github.com/cubecl-go/cubecl/ir"
)

func indentStr(n int) string { return strings.Repeat("  ", n) }

// compileBlock renders one finalized scope: its declared variables (locals,
// slices, cooperative-matrix fragments — shared memory and local arrays are
// hoisted to module scope as they're discovered, see lowerVariable) followed
// by its operations, in order.
func (cs *compileState) compileBlock(p ir.ScopeProcessing, indent int) string {
	var b strings.Builder
	pad := indentStr(indent)
	for _, v := range p.Variables {
		if decl := cs.declareVar(v); decl != "" {
			b.WriteString(pad)
			b.WriteString(decl)
			b.WriteString("\n")
		}
	}
	for _, op := range p.Operations {
		b.WriteString(cs.compileOperation(op, indent))
	}
	return b.String()
}

func (cs *compileState) declareVar(v ir.Variable) string {
	switch v.Kind {
	case ir.VarLocal:
		return fmt.Sprintf("var %s: %s;", cs.lowerVariable(v), cs.lowerItem(v.Item))
	case ir.VarLocalScalar:
		return fmt.Sprintf("var %s: %s;", cs.lowerVariable(v), cs.lowerElem(v.Elem))
	case ir.VarSlice:
		return fmt.Sprintf("var %s: array<%s>;", cs.lowerVariable(v), cs.lowerItem(v.Item))
	case ir.VarMatrix:
		return fmt.Sprintf("var %s: array<%s, %d>; // cooperative-matrix fragment %dx%dx%d",
			cs.lowerVariable(v), cs.lowerElem(v.Mat.Elem), v.Mat.M*v.Mat.N, v.Mat.M, v.Mat.N, v.Mat.K)
	default:
		return ""
	}
}

func (cs *compileState) compileOperation(op ir.Operation, indent int) string {
	switch op.Category {
	case ir.CategoryOperator:
		return cs.compileOperator(op.Operator, indent)
	case ir.CategoryProcedure:
		return cs.compileProcedure(op.Procedure, indent)
	case ir.CategoryBranch:
		return cs.compileBranch(op.Branch, indent)
	case ir.CategoryMetadata:
		return cs.compileMetadata(op.Metadata, indent)
	case ir.CategorySync:
		return cs.compileSync(op.Sync, indent)
	case ir.CategorySubcube:
		return cs.compileSubcube(op.Subcube, indent)
	case ir.CategoryCoopMma:
		return cs.compileCoopMma(op.CoopMma, indent)
	}
	panic("compiler/wgsl: unknown operation category")
}

var binaryOperators = map[ir.OperatorKind]string{
	ir.OpAdd: "+", ir.OpSub: "-", ir.OpMul: "*", ir.OpDiv: "/", ir.OpMod: "%",
	ir.OpEq: "==", ir.OpNe: "!=", ir.OpLt: "<", ir.OpLe: "<=", ir.OpGt: ">", ir.OpGe: ">=",
	ir.OpAnd: "&&", ir.OpOr: "||",
	ir.OpBitAnd: "&", ir.OpBitOr: "|", ir.OpBitXor: "^", ir.OpShl: "<<", ir.OpShr: ">>",
}

var atomicFuncs = map[ir.OperatorKind]string{
	ir.OpAtomicAdd: "atomicAdd", ir.OpAtomicSub: "atomicSub",
	ir.OpAtomicMin: "atomicMin", ir.OpAtomicMax: "atomicMax",
	ir.OpAtomicAnd: "atomicAnd", ir.OpAtomicOr: "atomicOr", ir.OpAtomicXor: "atomicXor",
	ir.OpAtomicSwap: "atomicExchange",
}

func (cs *compileState) compileOperator(op *ir.OperatorOp, indent int) string {
	pad := indentStr(indent)
	out := cs.lowerVariable(op.Out)
	lhs := cs.lowerVariable(op.Lhs)
	var rhs string
	if !op.Rhs.IsEmpty() {
		rhs = cs.lowerVariable(op.Rhs)
	}

	if sym, ok := binaryOperators[op.Kind]; ok {
		return fmt.Sprintf("%s%s = %s %s %s;\n", pad, out, lhs, sym, rhs)
	}
	if fn, ok := atomicFuncs[op.Kind]; ok {
		return fmt.Sprintf("%s%s = %s(&%s, %s);\n", pad, out, fn, lhs, rhs)
	}

	switch op.Kind {
	case ir.OpNeg:
		return fmt.Sprintf("%s%s = -%s;\n", pad, out, lhs)
	case ir.OpNot:
		return fmt.Sprintf("%s%s = !%s;\n", pad, out, lhs)
	case ir.OpAssign:
		return fmt.Sprintf("%s%s = %s;\n", pad, out, lhs)
	case ir.OpIndex:
		return fmt.Sprintf("%s%s = %s[%s];\n", pad, out, lhs, rhs)
	case ir.OpIndexAssign:
		return fmt.Sprintf("%s%s[%s] = %s;\n", pad, lhs, rhs, out)
	case ir.OpCast, ir.OpBitcast:
		target := cs.lowerElem(elemOf(op.Out))
		if op.Kind == ir.OpBitcast {
			return fmt.Sprintf("%s%s = bitcast<%s>(%s);\n", pad, out, target, lhs)
		}
		return fmt.Sprintf("%s%s = %s(%s);\n", pad, out, target, lhs)
	case ir.OpPowf:
		width := vectorizationOf(op.Out)
		if width <= 1 {
			return fmt.Sprintf("%s%s = powf_polyfill(%s, %s);\n", pad, out, lhs, rhs)
		}
		// base is always width-wide here; a scalar exponent broadcasts
		// across components, matching WGSL's own scalar-op-vector rules.
		rhsExpr := rhs
		if vectorizationOf(op.Rhs) == 1 {
			rhsExpr = fmt.Sprintf("vec%d<f32>(%s)", width, rhs)
		}
		return fmt.Sprintf("%s%s = %s(%s, %s);\n", pad, out, powfVecFn(width), lhs, rhsExpr)
	case ir.OpTanh:
		return fmt.Sprintf("%s%s = safe_tanh(%s);\n", pad, out, lhs)
	case ir.OpErf:
		return fmt.Sprintf("%s%s = erf_polyfill(%s);\n", pad, out, lhs)
	case ir.OpSqrt:
		return fmt.Sprintf("%s%s = sqrt(%s);\n", pad, out, lhs)
	case ir.OpAtomicLoad:
		return fmt.Sprintf("%s%s = atomicLoad(&%s);\n", pad, out, lhs)
	case ir.OpAtomicStore:
		return fmt.Sprintf("%satomicStore(&%s, %s);\n", pad, lhs, rhs)
	case ir.OpAtomicCompareAndSwap:
		// The IR's three-operand shape has no room for a distinct "expected"
		// operand; by convention the caller primes Out with the expected
		// value before emitting this op, and receives the observed old
		// value back in the same variable.
		return fmt.Sprintf("%s%s = atomicCompareExchangeWeak(&%s, %s, %s).old_value;\n", pad, out, lhs, out, rhs)
	}
	panic(fmt.Sprintf("compiler/wgsl: unhandled operator kind %d", op.Kind))
}

// elemOf returns the element type a Variable's value is carried in,
// whichever of Item/Elem applies to its kind.
func elemOf(v ir.Variable) ir.Elem {
	switch v.Kind {
	case ir.VarGlobalScalar, ir.VarLocalScalar:
		return v.Elem
	case ir.VarConstantScalar:
		return v.Value.Elem
	default:
		return v.Item.Elem
	}
}

// vectorizationOf returns a Variable's vector width, 1 for every kind that
// has no Item (scalars and constants are always width 1).
func vectorizationOf(v ir.Variable) int {
	switch v.Kind {
	case ir.VarGlobalScalar, ir.VarLocalScalar, ir.VarConstantScalar:
		return 1
	default:
		if v.Item.Vectorization == 0 {
			return 1
		}
		return v.Item.Vectorization
	}
}

// compileProcedure expands a macro-like procedure into primitive operators
// by building a throwaway child scope, registering the equivalent Operator/
// Branch instructions into it, finalizing it with Process, and recursively
// compiling the result — wrapped in braces so the procedure's internal
// temporaries can't collide with identifiers from sibling expansions that
// also start numbering their own throwaway scope at zero. The throwaway
// scope sits one level below the block being compiled (its depth is the
// block's indent, which is the containing scope's depth plus one), so its
// temporaries are named apart from the caller's variables.
func (cs *compileState) compileProcedure(p *ir.ProcedureOp, indent int) string {
	pad := indentStr(indent)

	switch p.Kind {
	case ir.ProcConditionalAssign:
		return fmt.Sprintf("%s%s = select(%s, %s, %s);\n", pad,
			cs.lowerVariable(p.Source), cs.lowerVariable(p.IfFalse), cs.lowerVariable(p.IfTrue), cs.lowerVariable(p.Cond))
	case ir.ProcCheckedIndex:
		if cs.mode == compiler.Unchecked {
			return fmt.Sprintf("%s%s = %s[%s];\n", pad, cs.lowerVariable(p.Source), cs.lowerVariable(p.Container), cs.lowerVariable(p.Index))
		}
	case ir.ProcCheckedIndexAssign:
		if cs.mode == compiler.Unchecked {
			return fmt.Sprintf("%s%s[%s] = %s;\n", pad, cs.lowerVariable(p.Container), cs.lowerVariable(p.Index), cs.lowerVariable(p.Source))
		}
	}

	scope := &ir.Scope{Depth: uint8(indent)}
	switch p.Kind {
	case ir.ProcReadGlobal:
		scope.Register(ir.NewOperator(ir.OpIndex, p.Input, ir.AbsolutePos, p.Local))
	case ir.ProcReadGlobalWithLayout:
		// A full broadcast-aware remap would weight the index by each
		// dimension's stride (via p.Layout's Metadata), which the IR leaves
		// unspecified beyond "reads are addressed through the layout
		// reference". Plain element-wise addressing covers the common
		// same-shape case; see the design notes for the simplification.
		scope.Register(ir.NewOperator(ir.OpIndex, p.Input, ir.AbsolutePos, p.Local))
	case ir.ProcWriteGlobal:
		scope.Register(ir.NewOperator(ir.OpIndexAssign, p.Output, ir.AbsolutePos, p.Source))
	case ir.ProcEarlyReturn:
		length := scope.CreateLocal(ir.Scalar(ir.UInt()))
		scope.Register(ir.NewMetadata(ir.MetaLength, p.Output, length, 0))
		cond := scope.CreateLocal(ir.Scalar(ir.Bool()))
		scope.Register(ir.NewOperator(ir.OpGe, ir.AbsolutePos, length, cond))
		retScope := ir.Root()
		retScope.Register(ir.NewReturn())
		retBody := retScope.Process()
		scope.Register(ir.NewIf(cond, &retBody))
	case ir.ProcCheckedIndex:
		length := scope.CreateLocal(ir.Scalar(ir.UInt()))
		scope.Register(ir.NewMetadata(ir.MetaLength, p.Container, length, 0))
		cond := scope.CreateLocal(ir.Scalar(ir.Bool()))
		scope.Register(ir.NewOperator(ir.OpLt, p.Index, length, cond))
		thenScope, elseScope := ir.Root(), ir.Root()
		thenScope.Register(ir.NewOperator(ir.OpIndex, p.Container, p.Index, p.Source))
		elseScope.Register(ir.NewAssign(ir.ConstantScalar(ir.ZeroValue(elemOf(p.Source))), p.Source))
		thenBody, elseBody := thenScope.Process(), elseScope.Process()
		scope.Register(ir.NewIfElse(cond, &thenBody, &elseBody))
	case ir.ProcCheckedIndexAssign:
		length := scope.CreateLocal(ir.Scalar(ir.UInt()))
		scope.Register(ir.NewMetadata(ir.MetaLength, p.Container, length, 0))
		cond := scope.CreateLocal(ir.Scalar(ir.Bool()))
		scope.Register(ir.NewOperator(ir.OpLt, p.Index, length, cond))
		thenScope := ir.Root()
		thenScope.Register(ir.NewOperator(ir.OpIndexAssign, p.Container, p.Index, p.Source))
		thenBody := thenScope.Process()
		scope.Register(ir.NewIf(cond, &thenBody))
	case ir.ProcIndexOffsetGlobalWithLayout:
		// Simplified to a single-dimension stride multiply; the general
		// multi-dimensional offset walk is left to a real shape/stride
		// table the way the element-wise examples in the spec use it.
		stride := scope.CreateLocal(ir.Scalar(ir.UInt()))
		scope.Register(ir.NewMetadata(ir.MetaStride, p.Layout, stride, 0))
		scope.Register(ir.NewOperator(ir.OpMul, ir.AbsolutePos, stride, p.Source))
	default:
		panic(fmt.Sprintf("compiler/wgsl: unhandled procedure kind %d", p.Kind))
	}

	processed := scope.Process()
	var b strings.Builder
	b.WriteString(pad)
	b.WriteString("{\n")
	b.WriteString(cs.compileBlock(processed, indent+1))
	b.WriteString(pad)
	b.WriteString("}\n")
	return b.String()
}

func (cs *compileState) compileBranch(b *ir.BranchOp, indent int) string {
	pad := indentStr(indent)
	var out strings.Builder
	switch b.Kind {
	case ir.BranchIf:
		fmt.Fprintf(&out, "%sif %s {\n", pad, cs.lowerVariable(b.Cond))
		out.WriteString(cs.compileBlock(*b.Body, indent+1))
		fmt.Fprintf(&out, "%s}\n", pad)
	case ir.BranchIfElse:
		fmt.Fprintf(&out, "%sif %s {\n", pad, cs.lowerVariable(b.Cond))
		out.WriteString(cs.compileBlock(*b.Body, indent+1))
		fmt.Fprintf(&out, "%s} else {\n", pad)
		out.WriteString(cs.compileBlock(*b.Else, indent+1))
		fmt.Fprintf(&out, "%s}\n", pad)
	case ir.BranchLoop:
		fmt.Fprintf(&out, "%sloop {\n", pad)
		out.WriteString(cs.compileBlock(*b.Body, indent+1))
		fmt.Fprintf(&out, "%s}\n", pad)
	case ir.BranchRangeLoop:
		step := "1u"
		if b.HasStep {
			step = cs.lowerVariable(b.Step)
		}
		induction := cs.lowerVariable(b.Induction)
		fmt.Fprintf(&out, "%sfor (var %s = %s; %s < %s; %s += %s) {\n",
			pad, induction, cs.lowerVariable(b.Start), induction, cs.lowerVariable(b.End), induction, step)
		out.WriteString(cs.compileBlock(*b.Body, indent+1))
		fmt.Fprintf(&out, "%s}\n", pad)
	case ir.BranchBreak:
		fmt.Fprintf(&out, "%sbreak;\n", pad)
	case ir.BranchReturn:
		fmt.Fprintf(&out, "%sreturn;\n", pad)
	default:
		panic(fmt.Sprintf("compiler/wgsl: unhandled branch kind %d", b.Kind))
	}
	return out.String()
}

func (cs *compileState) compileMetadata(m *ir.MetadataOp, indent int) string {
	pad := indentStr(indent)
	out := cs.lowerVariable(m.Out)
	switch m.Kind {
	case ir.MetaLength:
		return fmt.Sprintf("%s%s = arrayLength(&%s);\n", pad, out, cs.lowerVariable(m.Var))
	case ir.MetaStride:
		return fmt.Sprintf("%s%s = info[%d]; // stride, dim %d\n", pad, out, m.Dim, m.Dim)
	case ir.MetaShape:
		return fmt.Sprintf("%s%s = info[%d]; // shape, dim %d\n", pad, out, m.Dim, m.Dim)
	}
	panic(fmt.Sprintf("compiler/wgsl: unhandled metadata kind %d", m.Kind))
}

func (cs *compileState) compileSync(s *ir.SyncOp, indent int) string {
	pad := indentStr(indent)
	if s.Kind == ir.SyncStorage {
		return pad + "storageBarrier();\n"
	}
	return pad + "workgroupBarrier();\n"
}

var subcubeFuncs = map[ir.SubcubeKind]string{
	ir.SubcubeSum: "subgroupAdd", ir.SubcubeProd: "subgroupMul",
	ir.SubcubeMax: "subgroupMax", ir.SubcubeMin: "subgroupMin",
	ir.SubcubeAll: "subgroupAll", ir.SubcubeAny: "subgroupAny",
	ir.SubcubeBroadcast: "subgroupBroadcast",
}

func (cs *compileState) compileSubcube(s *ir.SubcubeOp, indent int) string {
	pad := indentStr(indent)
	out := cs.lowerVariable(s.Out)
	if s.Kind == ir.SubcubeElect {
		return fmt.Sprintf("%s%s = subgroupElect();\n", pad, out)
	}
	fn, ok := subcubeFuncs[s.Kind]
	if !ok {
		panic(fmt.Sprintf("compiler/wgsl: unhandled subcube kind %d", s.Kind))
	}
	return fmt.Sprintf("%s%s = %s(%s);\n", pad, out, fn, cs.lowerVariable(s.Input))
}

var coopMmaNames = map[ir.CoopMmaKind]string{
	ir.CoopMmaFill: "fill", ir.CoopMmaLoad: "load", ir.CoopMmaExecute: "execute", ir.CoopMmaStore: "store",
}

// compileCoopMma emits a best-effort call into the cooperative-matrix
// extension. WGSL has no standardized matrix-multiply-accumulate built-in
// as of this writing, so the call target names a vendor extension function
// the runtime is responsible for supplying via Binding-level specialization.
func (cs *compileState) compileCoopMma(c *ir.CoopMmaOp, indent int) string {
	pad := indentStr(indent)
	args := make([]string, len(c.Inputs))
	for i, in := range c.Inputs {
		args[i] = cs.lowerVariable(in)
	}
	name := coopMmaNames[c.Kind]
	if c.Out.IsEmpty() {
		return fmt.Sprintf("%scoop_mma_%s(%s);\n", pad, name, strings.Join(args, ", "))
	}
	return fmt.Sprintf("%s%s = coop_mma_%s(%s);\n", pad, cs.lowerVariable(c.Out), name, strings.Join(args, ", "))
}
