package compute

import "sync/atomic"

// Handle is a clonable, reference-counted reference to a StorageHandle. A
// ComputeServer hands one back from Create and Empty;
// callers clone it (via Clone) whenever they hand the same allocation to
// more than one kernel, and drop it when done.
//
// The refcount exists so a server can answer CanMut: a handle may be
// written in place only when it is uniquely held, since a cloned handle
// implies some other caller may still read the old contents.
type Handle struct {
	storage *StorageHandle
	count   *int64
}

// NewHandle wraps a freshly allocated storage handle with a refcount of 1.
func NewHandle(h StorageHandle) Handle {
	n := int64(1)
	return Handle{storage: &h, count: &n}
}

// Clone returns a new reference to the same underlying allocation and
// increments the shared refcount.
func (h Handle) Clone() Handle {
	atomic.AddInt64(h.count, 1)
	return h
}

// Release decrements the shared refcount. Callers that track allocation
// lifetimes should call Dealloc against the underlying storage once the
// count reaches zero; Handle itself does not own a ComputeStorage
// reference and cannot do this automatically.
func (h Handle) Release() int64 {
	return atomic.AddInt64(h.count, -1)
}

// CanMut reports whether this handle is the only outstanding reference to
// its allocation, and therefore safe to write to in place rather than
// needing a copy-on-write.
func (h Handle) CanMut() bool {
	return atomic.LoadInt64(h.count) == 1
}

// Binding addresses the bytes a Handle refers to within a single
// allocation, the unit a ComputeServer actually binds to a kernel
// invocation.
type Binding struct {
	Handle Handle
	Offset uint64
	Size   uint64
}

// StorageHandle returns the underlying allocation handle this binding
// resolves against.
func (h Handle) StorageHandle() StorageHandle {
	return *h.storage
}

// Binding produces a Binding covering this handle's whole allocation.
func (h Handle) Binding() Binding {
	return Binding{Handle: h, Offset: h.storage.Offset, Size: h.storage.Size}
}
