// Package runtime ties a compute.ComputeServer to the rest of the
// framework: a ComputeChannel serializes concurrent callers onto one
// server so a device sees a total order of operations, a ComputeClient
// is the handle user code actually calls, and a ComputeRuntime is the
// process-wide registry of one client per physical device.
package runtime

import (
	"context"
	"sync"

	"github.com/cubecl-go/cubecl/compiler"
	"github.com/cubecl-go/cubecl/compute"
)

// ComputeChannel is an object-safe wrapper around a compute.ComputeServer
// that gives every caller a consistent, serialized view of it. The
// canonical implementation, MutexComputeChannel, simply holds a mutex for
// the server's lifetime; an alternative implementation could instead run
// the server on a dedicated background goroutine behind a request queue,
// trading a slightly higher per-call latency for never blocking a caller
// on another caller's dispatch.
type ComputeChannel interface {
	Read(ctx context.Context, bindings []compute.Binding) ([][]byte, error)
	GetResource(binding compute.Binding) (compute.Resource, error)
	Create(data []byte) compute.Handle
	Empty(size uint64) compute.Handle
	Execute(kernel compute.Kernel, opts compute.DispatchOptions, bindings []compute.Binding, mode compiler.ExecutionMode) error
	Sync(ctx context.Context, typ compute.SyncType) error
}

// MutexComputeChannel serializes access to a single compute.ComputeServer
// behind a mutex, giving every goroutine that shares it a total order
// over the operations it submits to the underlying device.
type MutexComputeChannel struct {
	mu     sync.Mutex
	server compute.ComputeServer
}

// NewMutexComputeChannel wraps server behind a mutex.
func NewMutexComputeChannel(server compute.ComputeServer) *MutexComputeChannel {
	return &MutexComputeChannel{server: server}
}

func (c *MutexComputeChannel) Read(ctx context.Context, bindings []compute.Binding) ([][]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.server.Read(ctx, bindings)
}

func (c *MutexComputeChannel) GetResource(binding compute.Binding) (compute.Resource, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.server.GetResource(binding)
}

func (c *MutexComputeChannel) Create(data []byte) compute.Handle {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.server.Create(data)
}

func (c *MutexComputeChannel) Empty(size uint64) compute.Handle {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.server.Empty(size)
}

func (c *MutexComputeChannel) Execute(kernel compute.Kernel, opts compute.DispatchOptions, bindings []compute.Binding, mode compiler.ExecutionMode) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.server.Execute(kernel, opts, bindings, mode)
}

func (c *MutexComputeChannel) Sync(ctx context.Context, typ compute.SyncType) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.server.Sync(ctx, typ)
}
