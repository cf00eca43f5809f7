// Package cubecl provides the ambient infrastructure shared by the rest of
// the module's subpackages: the package-wide logger (see SetLogger and
// Logger) and, for ergonomics, a re-export of frontend.Comptime so kernel
// authors can write cubecl.Comptime[T] without importing the frontend
// package directly.
//
//   - ir: the backend-neutral intermediate representation (Elem, Item,
//     Variable, Operation, Scope, KernelDefinition).
//   - frontend: the expansion protocol kernel authors' generated code emits
//     through (range/if/loop expansion helpers, Comptime[T]).
//   - compiler and compiler/wgsl: the backend-neutral Compiler interface and
//     its WGSL implementation.
//   - compute and compute/wgpu: the ComputeStorage/ComputeServer contracts
//     and their WebGPU-backed implementation, including the pipeline cache
//     and command-batching loop.
//   - runtime: the ComputeClient/ComputeChannel/ComputeRuntime device
//     registry that application code actually talks to.
package cubecl

import "github.com/cubecl-go/cubecl/frontend"

// Comptime re-exports frontend.Comptime at the root package.
type Comptime[T frontend.Value] = frontend.Comptime[T]

// Static re-exports frontend.Static at the root package.
func Static[T frontend.Value](v T) Comptime[T] { return frontend.Static(v) }
