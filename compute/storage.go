// Package compute defines the backend-neutral ComputeStorage/ComputeServer
// contracts a concrete backend (compute/wgpu) implements, plus the
// Handle/Binding memory-management types a ComputeServer hands back to
// callers.
package compute

import "fmt"

// StorageID identifies a single allocation a ComputeStorage manages.
type StorageID uint64

// StorageHandle addresses a full allocation or a byte-range slice within
// one. Utilization distinguishes the two. Size is the byte length of the
// addressed range (the whole allocation for StorageFull); Offset is only
// meaningful for StorageSlice.
type StorageHandle struct {
	ID          StorageID
	Utilization StorageUtilization
	Offset      uint64
	Size        uint64
}

// StorageUtilization selects whether a StorageHandle addresses an entire
// allocation or a sub-range of one.
type StorageUtilization int

const (
	StorageFull StorageUtilization = iota
	StorageSlice
)

func (u StorageUtilization) String() string {
	if u == StorageSlice {
		return "slice"
	}
	return "full"
}

// Resource is a live accessor to the bytes a StorageHandle addresses,
// valid only for the duration of the current command queue — a
// ComputeStorage that synthesizes a view for a StorageSlice utilization
// must keep that view alive until the next flush.
type Resource struct {
	// Bytes is the live backing memory; writes through it are visible to
	// whatever queue the storage has scheduled against the same range.
	Bytes []byte
	Size  uint64
}

// ComputeStorage manages device-visible allocations on behalf of a
// ComputeServer. Implementations must defer the actual release of a
// deallocated id until PerformDeallocations is called, since a dispatch
// recorded before the Dealloc call may still be pending in the in-flight
// command queue.
type ComputeStorage interface {
	// Alloc reserves at least size bytes and returns a full handle.
	Alloc(size uint64) StorageHandle
	// Dealloc marks id for deferred deallocation.
	Dealloc(id StorageID)
	// Get returns a live accessor for handle. For StorageSlice handles the
	// returned Resource must remain valid until the next flush.
	Get(handle StorageHandle) (Resource, error)
	// PerformDeallocations actually releases every id marked by Dealloc
	// since the last call. Called at every ComputeServer.Sync.
	PerformDeallocations()
}

// ErrUnknownStorageID is returned by a ComputeStorage.Get call against an
// id that was never allocated or has already been deallocated.
var ErrUnknownStorageID = fmt.Errorf("compute: unknown storage id")
