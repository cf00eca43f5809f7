// Package wgsl implements the WGSL/WebGPU backend: it walks a finalized
// ir.KernelDefinition and emits WGSL source text, tracking which built-ins,
// shared memories, local arrays, and polyfill extensions the kernel
// actually needs along the way.
package wgsl

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/cubecl-go/cubecl/compiler"
	"github.com/cubecl-go/cubecl/ir"
)

func init() {
	compiler.Register("wgsl", func() (compiler.Compiler, error) {
		return New(), nil
	})
}

// Backend is the WGSL compiler.Compiler implementation. It holds only
// configuration; all per-kernel state lives in compileState so a single
// Backend value may compile many kernels, including concurrently.
type Backend struct {
	// Validate, when true, round-trips the emitted source through
	// github.com/gogpu/naga's WGSL front-end as a structural sanity check
	// before the source is handed back to the caller (and, downstream, to
	// the pipeline cache). Off by default: naga validation duplicates work
	// the GPU driver's own shader compiler will do anyway, so callers that
	// want fast iteration can skip it.
	Validate bool
}

// New returns a Backend with default configuration (no naga validation).
func New() *Backend {
	return &Backend{}
}

func (b *Backend) Name() string { return "wgsl" }

// SetValidate toggles naga round-trip validation. Exposed as a method
// (rather than requiring callers to type-assert to *Backend and touch
// the field directly) so tools working against the compiler.Compiler
// interface can still opt into it via an interface check.
func (b *Backend) SetValidate(v bool) { b.Validate = v }

// Compile lowers def into WGSL source under the given execution mode.
func (b *Backend) Compile(def ir.KernelDefinition, mode compiler.ExecutionMode) (compiler.CompiledKernel, error) {
	cs := newCompileState(mode, def.CubeDim)

	cs.registerExtensions(def.Body.Operations)
	body := cs.compileBlock(def.Body, 1)

	var out strings.Builder
	cs.writeExtensions(&out)
	cs.writeHeader(&out, def)
	fmt.Fprintf(&out, "@compute @workgroup_size(%d, %d, %d)\n", def.CubeDim[0], def.CubeDim[1], def.CubeDim[2])
	out.WriteString("fn main(\n")
	cs.writeBuiltinParams(&out)
	out.WriteString(") {\n")
	out.WriteString(body)
	out.WriteString("}\n")

	source := out.String()
	if b.Validate {
		if err := validateWithNaga(source); err != nil {
			return compiler.CompiledKernel{}, fmt.Errorf("compiler/wgsl: naga validation failed: %w", err)
		}
	}

	return compiler.CompiledKernel{
		ID:      kernelID(source, mode),
		Source:  source,
		CubeDim: def.CubeDim,
	}, nil
}

// kernelID forms the pipeline cache key: the compiled source together with
// its execution mode, so Checked and Unchecked compilations of the same
// kernel are never confused for one another.
func kernelID(source string, mode compiler.ExecutionMode) compiler.KernelID {
	h := sha256.Sum256([]byte(mode.String() + "\x00" + source))
	return compiler.KernelID(hex.EncodeToString(h[:]))
}

// compileState accumulates the per-kernel bookkeeping the backend compiler
// needs: which built-in variables were referenced, which shared memories
// and local arrays were declared (deduplicated by id), which polyfill
// extensions the instruction stream requires, and the execution mode that
// governs whether CheckedIndex/CheckedIndexAssign insert bounds guards.
type compileState struct {
	mode    compiler.ExecutionMode
	cubeDim [3]uint32

	referenced     map[ir.VarKind]bool
	sharedMemories map[uint32]ir.Variable
	localArrays    map[uint32]ir.Variable
	extensions     map[string]bool
}

func newCompileState(mode compiler.ExecutionMode, cubeDim [3]uint32) *compileState {
	return &compileState{
		mode:           mode,
		cubeDim:        cubeDim,
		referenced:     map[ir.VarKind]bool{},
		sharedMemories: map[uint32]ir.Variable{},
		localArrays:    map[uint32]ir.Variable{},
		extensions:     map[string]bool{},
	}
}

func (cs *compileState) markReferenced(k ir.VarKind) { cs.referenced[k] = true }

func (cs *compileState) writeHeader(out *strings.Builder, def ir.KernelDefinition) {
	for i, b := range def.Inputs {
		fmt.Fprintf(out, "@group(0) @binding(%d) var<storage, read> input_%d: array<%s>;\n", i, i, cs.lowerItem(b.Item))
	}
	base := len(def.Inputs)
	for i, b := range def.Outputs {
		fmt.Fprintf(out, "@group(0) @binding(%d) var<storage, read_write> output_%d: array<%s>;\n", base+i, i, cs.lowerItem(b.Item))
	}
	next := base + len(def.Outputs)
	if len(def.NamedBindings) > 0 {
		out.WriteString("struct Scalars {\n")
		for _, nb := range def.NamedBindings {
			fmt.Fprintf(out, "  %s: %s,\n", nb.Name, cs.lowerItem(nb.Item))
		}
		out.WriteString("}\n")
		fmt.Fprintf(out, "@group(0) @binding(%d) var<uniform> scalars: Scalars;\n", next)
		next++
	}
	fmt.Fprintf(out, "@group(0) @binding(%d) var<storage, read> info: array<u32>;\n", next)

	ids := make([]uint32, 0, len(cs.sharedMemories))
	for id := range cs.sharedMemories {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		v := cs.sharedMemories[id]
		fmt.Fprintf(out, "var<workgroup> shared_%d: array<%s, %d>;\n", id, cs.lowerItem(v.Item), v.Length)
	}

	laIDs := make([]uint32, 0, len(cs.localArrays))
	for id := range cs.localArrays {
		laIDs = append(laIDs, id)
	}
	sort.Slice(laIDs, func(i, j int) bool { return laIDs[i] < laIDs[j] })
	for _, id := range laIDs {
		v := cs.localArrays[id]
		fmt.Fprintf(out, "var<private> local_array_%d_%d: array<%s, %d>;\n", v.Depth, id, cs.lowerItem(v.Item), v.Length)
	}
}

func (cs *compileState) writeBuiltinParams(out *strings.Builder) {
	if cs.referenced[ir.VarAbsolutePos] {
		out.WriteString("  @builtin(global_invocation_id) global_invocation_id: vec3<u32>,\n")
	}
	if cs.referenced[ir.VarUnitPos] || cs.referenced[ir.VarUnitPosX] || cs.referenced[ir.VarUnitPosY] || cs.referenced[ir.VarUnitPosZ] {
		out.WriteString("  @builtin(local_invocation_id) local_invocation_id: vec3<u32>,\n")
	}
	if cs.referenced[ir.VarCubePos] || cs.referenced[ir.VarCubePosX] || cs.referenced[ir.VarCubePosY] || cs.referenced[ir.VarCubePosZ] {
		out.WriteString("  @builtin(workgroup_id) workgroup_id: vec3<u32>,\n")
	}
	if cs.referenced[ir.VarCubeCount] || cs.referenced[ir.VarCubeCountX] || cs.referenced[ir.VarCubeCountY] || cs.referenced[ir.VarCubeCountZ] {
		out.WriteString("  @builtin(num_workgroups) num_workgroups: vec3<u32>,\n")
	}
	if cs.referenced[ir.VarSubcubeDim] {
		out.WriteString("  @builtin(subgroup_size) subgroup_size: u32,\n")
	}
}
