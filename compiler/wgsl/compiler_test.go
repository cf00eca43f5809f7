package wgsl

import (
	"fmt"
	"strconv"
	"strings"
	"testing"

	"github.com/cubecl-go/cubecl/compiler"
	"github.com/cubecl-go/cubecl/ir"
)

func elementWiseWriteKernel() ir.KernelDefinition {
	root := ir.Root()
	item := ir.Scalar(ir.UInt())
	output := ir.GlobalOutputArray(0, item)
	root.WriteGlobal(ir.AbsolutePos, output, 0)
	return ir.KernelDefinition{
		Outputs: []ir.Binding{{Name: "output0", Item: item, Position: 0}},
		CubeDim: [3]uint32{64, 1, 1},
		Body:    root.Process(),
	}
}

func TestCompileIsDeterministic(t *testing.T) {
	def := elementWiseWriteKernel()
	b := New()

	k1, err := b.Compile(def, compiler.Checked)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	k2, err := b.Compile(def, compiler.Checked)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if k1.Source != k2.Source {
		t.Fatalf("expected identical source across compiles, got diff:\n%s\n---\n%s", k1.Source, k2.Source)
	}
	if k1.ID != k2.ID {
		t.Fatalf("expected identical kernel id across compiles, got %s vs %s", k1.ID, k2.ID)
	}
}

func TestCompileChangesIDByExecutionMode(t *testing.T) {
	def := elementWiseWriteKernel()
	b := New()

	checked, err := b.Compile(def, compiler.Checked)
	if err != nil {
		t.Fatalf("compile checked: %v", err)
	}
	unchecked, err := b.Compile(def, compiler.Unchecked)
	if err != nil {
		t.Fatalf("compile unchecked: %v", err)
	}
	if checked.ID == unchecked.ID {
		t.Fatal("expected Checked and Unchecked compilations to cache under distinct kernel ids")
	}
}

func TestCompileElementWiseWriteEmitsAbsolutePosGuardAndStore(t *testing.T) {
	def := elementWiseWriteKernel()
	b := New()
	k, err := b.Compile(def, compiler.Checked)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if !strings.Contains(k.Source, "@builtin(global_invocation_id)") {
		t.Fatal("expected global_invocation_id builtin to be requested")
	}
	if !strings.Contains(k.Source, "output_0[") {
		t.Fatal("expected a store into output_0")
	}
	if !strings.Contains(k.Source, "arrayLength(&output_0)") {
		t.Fatal("expected the early-return guard to query output_0's length")
	}
}

func TestCompileRegistersPowfExtensionFromNestedBranch(t *testing.T) {
	root := ir.Root()
	cond := root.ReadScalar(0, ir.Bool())
	base := root.ReadScalar(1, ir.F32())
	exponent := root.ReadScalar(2, ir.F32())

	thenScope := root.Child()
	out := thenScope.CreateLocal(ir.Scalar(ir.F32()))
	thenScope.Register(ir.NewOperator(ir.OpPowf, base, exponent, out))
	thenBody := thenScope.Process()
	root.Register(ir.NewIf(cond, &thenBody))

	def := ir.KernelDefinition{CubeDim: [3]uint32{1, 1, 1}, Body: root.Process()}

	b := New()
	k, err := b.Compile(def, compiler.Checked)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if !strings.Contains(k.Source, "fn powf_polyfill") {
		t.Fatal("expected the powf polyfill to be emitted for an operator nested inside an If")
	}
	if !strings.Contains(k.Source, "powf_polyfill(") {
		t.Fatal("expected a call site to powf_polyfill")
	}
}

func TestCompileVectorizedPowfEmitsComponentWiseWrapper(t *testing.T) {
	root := ir.Root()
	item := ir.Vectorized(ir.F32(), 4)
	base := root.CreateLocal(item)
	exponent := root.CreateLocal(item)
	out := root.CreateLocal(item)
	root.Register(ir.NewOperator(ir.OpPowf, base, exponent, out))

	def := ir.KernelDefinition{CubeDim: [3]uint32{1, 1, 1}, Body: root.Process()}

	b := New()
	k, err := b.Compile(def, compiler.Checked)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if !strings.Contains(k.Source, "fn powf_polyfill_vec4") {
		t.Fatal("expected the component-wise powf_polyfill_vec4 wrapper to be emitted for a vec4 OpPowf")
	}
	if !strings.Contains(k.Source, "powf_polyfill_vec4(") {
		t.Fatal("expected a call site to powf_polyfill_vec4")
	}
	if !strings.Contains(k.Source, "fn powf_polyfill(") {
		t.Fatal("expected the scalar powf_polyfill helper to still be emitted, since the vec4 wrapper delegates to it per lane")
	}
	if !strings.Contains(k.Source, "powf_polyfill(base.x, exponent.x)") {
		t.Fatal("expected the vec4 wrapper to call the scalar polyfill component-wise")
	}
}

func TestCompileVectorizedPowfBroadcastsScalarExponent(t *testing.T) {
	root := ir.Root()
	vecItem := ir.Vectorized(ir.F32(), 2)
	base := root.CreateLocal(vecItem)
	exponent := root.ReadScalar(0, ir.F32())
	out := root.CreateLocal(vecItem)
	root.Register(ir.NewOperator(ir.OpPowf, base, exponent, out))

	def := ir.KernelDefinition{CubeDim: [3]uint32{1, 1, 1}, Body: root.Process()}

	b := New()
	k, err := b.Compile(def, compiler.Checked)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if !strings.Contains(k.Source, "vec2<f32>(") {
		t.Fatal("expected the scalar exponent to be broadcast into a vec2<f32> before the component-wise call")
	}
}

func TestCompileUncheckedSkipsIndexBoundsGuard(t *testing.T) {
	root := ir.Root()
	item := ir.Scalar(ir.F32())
	container := root.CreateSlice(item)
	index := root.ReadScalar(0, ir.UInt())
	out := root.CreateLocal(item)
	root.Register(ir.NewCheckedIndex(container, index, out))

	def := ir.KernelDefinition{CubeDim: [3]uint32{1, 1, 1}, Body: root.Process()}

	b := New()
	unchecked, err := b.Compile(def, compiler.Unchecked)
	if err != nil {
		t.Fatalf("compile unchecked: %v", err)
	}
	if strings.Contains(unchecked.Source, "arrayLength") {
		t.Fatal("expected unchecked mode to skip the bounds-check guard entirely")
	}

	checked, err := b.Compile(def, compiler.Checked)
	if err != nil {
		t.Fatalf("compile checked: %v", err)
	}
	if !strings.Contains(checked.Source, "arrayLength") {
		t.Fatal("expected checked mode to emit a bounds-check guard")
	}
}

func TestCompileRangeLoopEmitsForHeader(t *testing.T) {
	root := ir.Root()
	n := root.ReadScalar(0, ir.UInt())

	bodyScope := root.Child()
	induction := bodyScope.CreateLocalUndeclared(ir.Scalar(ir.UInt()))
	out := bodyScope.CreateLocal(ir.Scalar(ir.UInt()))
	bodyScope.Register(ir.NewAssign(induction, out))
	body := bodyScope.Process()

	zero := ir.ConstantScalar(ir.ConstantUInt(0, ir.UInt()))
	root.Register(ir.NewRangeLoop(induction, zero, n, ir.Variable{}, false, &body))

	def := ir.KernelDefinition{CubeDim: [3]uint32{1, 1, 1}, Body: root.Process()}
	b := New()
	k, err := b.Compile(def, compiler.Checked)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if !strings.Contains(k.Source, "for (var") {
		t.Fatal("expected a RangeLoop to lower to a WGSL for-loop")
	}

	// out is assigned inside the loop body but never read afterward; its
	// declaration must still be emitted, or the assignment below targets
	// an undeclared variable and the generated WGSL is invalid.
	decl := fmt.Sprintf("var %s:", "local_"+strconv.Itoa(int(out.Depth))+"_"+strconv.Itoa(int(out.ID)))
	if !strings.Contains(k.Source, decl) {
		t.Fatalf("expected %s's declaration to survive even though it is only ever written, got:\n%s", decl, k.Source)
	}
}
