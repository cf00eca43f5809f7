package compute

import (
	"context"

	"github.com/cubecl-go/cubecl/compiler"
	"github.com/cubecl-go/cubecl/ir"
)

// SyncType distinguishes a synchronization that only submits the in-flight
// queue from one that additionally blocks the calling goroutine on the
// device's completion signal.
type SyncType int

const (
	// SyncFlush submits every pending command without waiting for the
	// device to finish executing them.
	SyncFlush SyncType = iota
	// SyncWait additionally blocks until the device signals completion.
	SyncWait
)

// DispatchOptions describes how many workgroups a kernel executes over,
// either as a static count or as an indirect dispatch sourced from a
// device buffer.
type DispatchOptions struct {
	Static   [3]uint32
	Indirect *Binding
}

// Kernel bundles everything a ComputeServer needs in order to compile (or
// fetch from cache) and dispatch a kernel: its definition, a stable id
// under which the compiled artifact is cached, and the compiler that
// should be used if it isn't cached yet.
type Kernel struct {
	ID      compiler.KernelID
	Def     ir.KernelDefinition
	Compile func() (compiler.CompiledKernel, error)
}

// ComputeServer executes kernels against bindings and owns the underlying
// ComputeStorage. A single ComputeServer value is never called
// concurrently by more than one goroutine — serialization across callers
// is the ComputeChannel's job, which is what gives every device a total
// order over the operations submitted to it.
type ComputeServer interface {
	// Read returns the bytes addressed by each binding. It always flushes
	// the in-flight queue first, since the bytes may be the output of a
	// kernel that hasn't executed yet.
	Read(ctx context.Context, bindings []Binding) ([][]byte, error)
	// GetResource resolves a binding to a live Resource without flushing.
	GetResource(binding Binding) (Resource, error)
	// Create uploads data as a new allocation and returns a handle to it.
	// It does not force a flush unless the storage has to reuse a
	// still-pending allocation to satisfy the request.
	Create(data []byte) Handle
	// Empty reserves size uninitialized bytes and returns a handle to them.
	Empty(size uint64) Handle
	// Execute records a dispatch of kernel over bindings under mode,
	// compiling (or fetching from the pipeline cache) as needed. The
	// dispatch is not guaranteed to have run by the time Execute returns;
	// callers needing the result must Read or Sync first.
	Execute(kernel Kernel, opts DispatchOptions, bindings []Binding, mode compiler.ExecutionMode) error
	// Sync closes the current command-recording pass, submits it, and
	// performs any storage deallocations queued since the last Sync. When
	// typ is SyncWait it additionally blocks until the device signals
	// completion.
	Sync(ctx context.Context, typ SyncType) error
}
