package wgpu

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/cubecl-go/cubecl"
	"github.com/cubecl-go/cubecl/compiler"
	"github.com/cubecl-go/cubecl/compute"
)

// Server is the compute.ComputeServer implementation for a single opened
// wgpu Device. A Server is never called by more than one goroutine
// concurrently — see runtime.ComputeChannel for how that invariant is
// enforced above this layer.
type Server struct {
	device    *Device
	storage   *Storage
	pipelines *PipelineCache
	logger    *slog.Logger

	tasksMax int

	mu              sync.Mutex
	encoder         hal.CommandEncoder
	hasEncoder      bool
	tasksSinceFlush int
}

// NewServer returns a Server dispatching against device, with its own
// Storage and PipelineCache. It registers itself with cubecl.RegisterLoggerSink,
// so it (and the PipelineCache it owns) always logs through whatever logger
// cubecl.SetLogger last configured, including loggers set after NewServer
// returns.
func NewServer(device *Device) *Server {
	s := &Server{
		device:    device,
		storage:   NewStorage(device),
		pipelines: NewPipelineCache(device),
		tasksMax:  tasksMax(),
	}
	cubecl.RegisterLoggerSink(s)
	return s
}

// SetLogger implements cubecl's loggerSetter sink interface: it updates the
// Server's own logger and propagates the same logger to its PipelineCache.
func (s *Server) SetLogger(l *slog.Logger) {
	s.logger = l
	s.pipelines.SetLogger(l)
}

func (s *Server) Create(data []byte) compute.Handle {
	handle := s.storage.Alloc(uint64(len(data)))
	if len(data) > 0 {
		if err := s.storage.Write(handle.ID, 0, data); err != nil {
			s.logger.Error("compute/wgpu: create: write failed", "error", err)
		}
	}
	return compute.NewHandle(handle)
}

func (s *Server) Empty(size uint64) compute.Handle {
	return compute.NewHandle(s.storage.Alloc(size))
}

func (s *Server) GetResource(binding compute.Binding) (compute.Resource, error) {
	return s.storage.Get(resolvedHandle(binding))
}

// Read flushes the in-flight queue and waits for it, since the bytes a
// caller wants to read may be the output of a dispatch that hasn't run
// yet, then fetches every binding through Storage.Get. Each returned slice
// has the binding's length but is zero-filled, since Storage.Get does not
// map its staging buffer back to host memory.
func (s *Server) Read(ctx context.Context, bindings []compute.Binding) ([][]byte, error) {
	if err := s.Sync(ctx, compute.SyncWait); err != nil {
		return nil, fmt.Errorf("compute/wgpu: read: %w", err)
	}

	out := make([][]byte, len(bindings))
	for i, b := range bindings {
		res, err := s.storage.Get(resolvedHandle(b))
		if err != nil {
			return nil, fmt.Errorf("compute/wgpu: read binding %d: %w", i, err)
		}
		out[i] = res.Bytes
	}
	return out, nil
}

func resolvedHandle(b compute.Binding) compute.StorageHandle {
	h := b.Handle.StorageHandle()
	if b.Offset != 0 || b.Size != h.Size {
		h.Utilization = compute.StorageSlice
		h.Offset = b.Offset
		h.Size = b.Size
	}
	return h
}

// currentEncoder returns the in-flight command encoder, creating one if
// none is recording yet.
func (s *Server) currentEncoder() (hal.CommandEncoder, error) {
	if s.hasEncoder {
		return s.encoder, nil
	}
	encoder, err := s.device.Device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "cubecl-compute"})
	if err != nil {
		return nil, fmt.Errorf("create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("cubecl-compute"); err != nil {
		return nil, fmt.Errorf("begin encoding: %w", err)
	}
	s.encoder = encoder
	s.hasEncoder = true
	return encoder, nil
}

// Execute compiles (or fetches from cache) kernel's pipeline, builds a
// bind group over bindings, and records one dispatch against the
// in-flight command encoder. Once tasksMax dispatches have accumulated
// since the last flush, the batch is submitted automatically — callers
// that want every dispatch submitted immediately should set tasksMax to 1
// via CUBECL_GO_WGPU_MAX_TASKS, which is also what a `go test` binary
// gets by default.
//
// mode is not consulted: the pipeline is cached under kernel.ID alone, and
// kernel.Compile fixes whichever execution mode it compiles with.
func (s *Server) Execute(kernel compute.Kernel, opts compute.DispatchOptions, bindings []compute.Binding, mode compiler.ExecutionMode) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp, err := s.pipelines.GetOrCompile(
		kernel.ID,
		kernel.Compile,
		len(kernel.Def.Inputs),
		len(kernel.Def.Outputs),
		len(kernel.Def.NamedBindings),
	)
	if err != nil {
		return fmt.Errorf("compute/wgpu: execute: %w", err)
	}

	entries := make([]gputypes.BindGroupEntry, len(bindings))
	for i, b := range bindings {
		buf, size, ok := s.storage.BufferFor(b.Handle.StorageHandle().ID)
		if !ok {
			return fmt.Errorf("compute/wgpu: execute: %w: %d", compute.ErrUnknownStorageID, b.Handle.StorageHandle().ID)
		}
		bindSize := b.Size
		if bindSize == 0 {
			bindSize = size
		}
		entries[i] = gputypes.BindGroupEntry{
			Binding:  uint32(i),
			Resource: gputypes.BufferBinding{Buffer: buf, Offset: b.Offset, Size: bindSize},
		}
	}

	bindGroup, err := s.device.Device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:   string(kernel.ID),
		Layout:  cp.bindGroupLayout,
		Entries: entries,
	})
	if err != nil {
		return fmt.Errorf("compute/wgpu: create bind group: %w", err)
	}
	defer s.device.Device.DestroyBindGroup(bindGroup)

	encoder, err := s.currentEncoder()
	if err != nil {
		return fmt.Errorf("compute/wgpu: execute: %w", err)
	}

	halPass := encoder.BeginComputePass(&hal.ComputePassDescriptor{Label: string(kernel.ID)})
	pass := newComputePass(halPass)
	if err := pass.SetPipeline(cp.pipeline); err != nil {
		return fmt.Errorf("compute/wgpu: %w", err)
	}
	if err := pass.SetBindGroup(0, bindGroup); err != nil {
		return fmt.Errorf("compute/wgpu: %w", err)
	}

	x, y, z := opts.Static[0], opts.Static[1], opts.Static[2]
	if opts.Indirect != nil {
		// Indirect dispatch counts are resolved device-side; a CPU-visible
		// stand-in of one workgroup keeps the pass well formed until the
		// HAL exposes DispatchIndirect on ComputePassEncoder.
		x, y, z = 1, 1, 1
	}
	if err := pass.DispatchWorkgroups(x, y, z); err != nil {
		return fmt.Errorf("compute/wgpu: %w", err)
	}
	if err := pass.End(); err != nil {
		return fmt.Errorf("compute/wgpu: %w", err)
	}

	s.tasksSinceFlush++
	if s.tasksSinceFlush >= s.tasksMax {
		return s.flushLocked()
	}
	return nil
}

// flushLocked submits the in-flight command encoder. Caller must hold s.mu.
func (s *Server) flushLocked() error {
	if !s.hasEncoder {
		return nil
	}
	cmdBuffer, err := s.encoder.EndEncoding()
	s.encoder = nil
	s.hasEncoder = false
	s.tasksSinceFlush = 0
	if err != nil {
		return fmt.Errorf("compute/wgpu: flush: end encoding: %w", err)
	}
	defer cmdBuffer.Destroy()

	if err := s.device.Queue.Submit([]hal.CommandBuffer{cmdBuffer}, nil, 0); err != nil {
		return fmt.Errorf("compute/wgpu: flush: submit: %w", err)
	}
	return nil
}

// Sync closes and submits the current recording pass and performs any
// storage deallocations queued since the last sync. SyncWait additionally
// blocks until the device signals completion of everything submitted.
func (s *Server) Sync(ctx context.Context, typ compute.SyncType) error {
	s.mu.Lock()
	err := s.flushLocked()
	s.mu.Unlock()
	if err != nil {
		return err
	}

	if typ == compute.SyncWait {
		fence, ferr := s.device.Device.CreateFence()
		if ferr != nil {
			return fmt.Errorf("compute/wgpu: sync: create fence: %w", ferr)
		}
		defer s.device.Device.DestroyFence(fence)
		if serr := s.device.Queue.Submit(nil, fence, 1); serr != nil {
			return fmt.Errorf("compute/wgpu: sync: submit fence: %w", serr)
		}
		if _, werr := s.device.Device.Wait(fence, 1, 5_000_000_000); werr != nil {
			return fmt.Errorf("compute/wgpu: sync: wait: %w", werr)
		}
	}

	s.storage.PerformDeallocations()
	return nil
}
