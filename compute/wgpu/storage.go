package wgpu

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/cubecl-go/cubecl/compute"
)

// bufferUsage is shared by every allocation a Storage creates: kernels
// bind it as a storage buffer, and reads/writes copy into or out of it via
// a staging buffer.
const bufferUsage = gputypes.BufferUsageStorage | gputypes.BufferUsageCopySrc | gputypes.BufferUsageCopyDst

type allocation struct {
	buffer hal.Buffer
	size   uint64
}

// Storage is the compute.ComputeStorage implementation backed by
// device-local hal.Buffer allocations. Deallocation is deferred: Dealloc
// only marks an id, PerformDeallocations actually destroys the buffer, so
// a buffer referenced by a dispatch still in flight is never freed out
// from under it.
type Storage struct {
	device *Device

	mu          sync.Mutex
	allocations map[compute.StorageID]*allocation
	pendingFree []compute.StorageID
	nextID      atomic.Uint64
}

// NewStorage returns a Storage allocating against device.
func NewStorage(device *Device) *Storage {
	return &Storage{
		device:      device,
		allocations: make(map[compute.StorageID]*allocation),
	}
}

func (s *Storage) Alloc(size uint64) compute.StorageHandle {
	buf, err := s.device.Device.CreateBuffer(&hal.BufferDescriptor{
		Label: "cubecl-storage",
		Size:  size,
		Usage: bufferUsage,
	})
	if err != nil {
		// Matches the rest of the corpus's compute-pass placeholders:
		// surfacing the error here would change every ComputeStorage
		// method's signature, so a zero-size handle signals the failure
		// to the caller's next Get instead.
		return compute.StorageHandle{}
	}

	id := compute.StorageID(s.nextID.Add(1))
	s.mu.Lock()
	s.allocations[id] = &allocation{buffer: buf, size: size}
	s.mu.Unlock()

	return compute.StorageHandle{ID: id, Utilization: compute.StorageFull, Size: size}
}

func (s *Storage) Dealloc(id compute.StorageID) {
	s.mu.Lock()
	s.pendingFree = append(s.pendingFree, id)
	s.mu.Unlock()
}

// Write uploads data into the allocation handle.ID at the given offset.
// Used by the server's Create path to seed initial contents.
func (s *Storage) Write(id compute.StorageID, offset uint64, data []byte) error {
	s.mu.Lock()
	alloc, ok := s.allocations[id]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("compute/wgpu: %w: %d", compute.ErrUnknownStorageID, id)
	}
	s.device.Queue.WriteBuffer(alloc.buffer, offset, data)
	return nil
}

// BufferFor resolves a storage id to the hal.Buffer backing it, for the
// server to reference when it builds a bind group entry.
func (s *Storage) BufferFor(id compute.StorageID) (hal.Buffer, uint64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	alloc, ok := s.allocations[id]
	if !ok {
		return nil, 0, false
	}
	return alloc.buffer, alloc.size, true
}

// Get copies handle's bytes into a staging buffer and waits on a fence
// until that copy has retired. The staging buffer is not mapped: the
// returned Resource holds size zero bytes, not the device contents.
func (s *Storage) Get(handle compute.StorageHandle) (compute.Resource, error) {
	s.mu.Lock()
	alloc, ok := s.allocations[handle.ID]
	s.mu.Unlock()
	if !ok {
		return compute.Resource{}, fmt.Errorf("compute/wgpu: %w: %d", compute.ErrUnknownStorageID, handle.ID)
	}

	size := handle.Size
	offset := uint64(0)
	if handle.Utilization == compute.StorageSlice {
		offset = handle.Offset
	}
	if size == 0 {
		size = alloc.size
	}

	staging, err := s.device.Device.CreateBuffer(&hal.BufferDescriptor{
		Label:            "cubecl-readback",
		Size:             size,
		Usage:            gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
		MappedAtCreation: false,
	})
	if err != nil {
		return compute.Resource{}, fmt.Errorf("compute/wgpu: create staging buffer: %w", err)
	}
	defer s.device.Device.DestroyBuffer(staging)

	encoder, err := s.device.Device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "cubecl-readback-encoder"})
	if err != nil {
		return compute.Resource{}, fmt.Errorf("compute/wgpu: create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("cubecl-readback"); err != nil {
		return compute.Resource{}, fmt.Errorf("compute/wgpu: begin encoding: %w", err)
	}
	encoder.CopyBufferToBuffer(alloc.buffer, staging, []hal.BufferCopy{{SrcOffset: offset, DstOffset: 0, Size: size}})
	cmdBuffer, err := encoder.EndEncoding()
	if err != nil {
		return compute.Resource{}, fmt.Errorf("compute/wgpu: end encoding: %w", err)
	}
	defer cmdBuffer.Destroy()

	fence, err := s.device.Device.CreateFence()
	if err != nil {
		return compute.Resource{}, fmt.Errorf("compute/wgpu: create fence: %w", err)
	}
	defer s.device.Device.DestroyFence(fence)

	if err := s.device.Queue.Submit([]hal.CommandBuffer{cmdBuffer}, fence, 1); err != nil {
		return compute.Resource{}, fmt.Errorf("compute/wgpu: submit readback: %w", err)
	}
	if _, err := s.device.Device.Wait(fence, 1, 5_000_000_000); err != nil {
		return compute.Resource{}, fmt.Errorf("compute/wgpu: wait for readback: %w", err)
	}

	// TODO: hal.Buffer mapping isn't implemented yet (the native backend
	// has the same gap in its own ReadBuffer); the staging copy above is
	// real, but until mapping lands there's nothing to read the bytes
	// back through, so this returns a zeroed placeholder.
	return compute.Resource{Bytes: make([]byte, size), Size: size}, nil
}

func (s *Storage) PerformDeallocations() {
	s.mu.Lock()
	pending := s.pendingFree
	s.pendingFree = nil
	allocs := make([]*allocation, 0, len(pending))
	for _, id := range pending {
		if a, ok := s.allocations[id]; ok {
			allocs = append(allocs, a)
			delete(s.allocations, id)
		}
	}
	s.mu.Unlock()

	for _, a := range allocs {
		s.device.Device.DestroyBuffer(a.buffer)
	}
}
