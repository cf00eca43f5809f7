// Package compiler defines the backend-neutral contract a concrete backend
// (e.g. compiler/wgsl) implements: compiling a finalized kernel into source
// text plus the metadata a ComputeServer needs to cache and dispatch it.
package compiler

import "github.com/cubecl-go/cubecl/ir"

// ExecutionMode selects whether compiled shaders insert bounds-checked index
// procedures. Checked and Unchecked compilations of the same kernel are
// cached under distinct keys, since the generated source differs.
type ExecutionMode int

const (
	// Checked inserts CheckedIndex/CheckedIndexAssign bounds checks.
	Checked ExecutionMode = iota
	// Unchecked skips bounds checks entirely, trusting the caller.
	Unchecked
)

func (m ExecutionMode) String() string {
	if m == Unchecked {
		return "unchecked"
	}
	return "checked"
}

// KernelID identifies a compiled kernel's source within a pipeline cache. It
// is computed from the kernel's finalized body together with its execution
// mode, so Checked and Unchecked compilations of the same kernel never
// collide.
type KernelID string

// CompiledKernel is the output of a Compiler: backend source text, ready to
// be handed to a device-specific shader module constructor, plus the
// workgroup size the kernel was compiled for.
type CompiledKernel struct {
	ID      KernelID
	Source  string
	CubeDim [3]uint32
}

// Compiler walks a finalized kernel and produces backend-specific source.
// Implementations must be deterministic: compiling the same
// (KernelDefinition, ExecutionMode) pair twice must produce byte-identical
// source, since the server relies on the kernel id alone to short-circuit
// recompilation.
type Compiler interface {
	// Name identifies the backend, e.g. "wgsl".
	Name() string
	// Compile lowers def into backend source under the given execution
	// mode.
	Compile(def ir.KernelDefinition, mode ExecutionMode) (CompiledKernel, error)
}
