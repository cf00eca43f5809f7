package wgpu

import (
	"testing"

	"github.com/gogpu/gputypes"

	"github.com/cubecl-go/cubecl/compute"
)

func TestResolvedHandleFullWhenBindingCoversWholeAllocation(t *testing.T) {
	h := compute.NewHandle(compute.StorageHandle{ID: 3, Size: 256})
	b := compute.Binding{Handle: h, Offset: 0, Size: 256}

	got := resolvedHandle(b)
	if got.Utilization != compute.StorageFull {
		t.Fatalf("expected a whole-allocation binding to resolve to StorageFull, got %v", got.Utilization)
	}
}

func TestResolvedHandleSliceWhenBindingIsARange(t *testing.T) {
	h := compute.NewHandle(compute.StorageHandle{ID: 3, Size: 256})
	b := compute.Binding{Handle: h, Offset: 64, Size: 32}

	got := resolvedHandle(b)
	if got.Utilization != compute.StorageSlice {
		t.Fatalf("expected a sub-range binding to resolve to StorageSlice, got %v", got.Utilization)
	}
	if got.Offset != 64 || got.Size != 32 {
		t.Fatalf("expected offset=64 size=32, got offset=%d size=%d", got.Offset, got.Size)
	}
}

func TestBindingCountForAddsScalarsAndInfoBuffers(t *testing.T) {
	if got := bindingCountFor(2, 1, 0); got != 3 {
		t.Fatalf("expected 2 inputs + 1 output + info buffer = 3, got %d", got)
	}
	if got := bindingCountFor(2, 1, 1); got != 4 {
		t.Fatalf("expected named bindings to add one more binding, got %d", got)
	}
}

func TestStorageBindingTypeInputsAreReadOnly(t *testing.T) {
	if got := storageBindingType(0, 2); got != gputypes.BufferBindingTypeReadOnlyStorage {
		t.Fatalf("expected input binding to be read-only storage, got %v", got)
	}
	if got := storageBindingType(2, 2); got != gputypes.BufferBindingTypeStorage {
		t.Fatalf("expected output binding to be read-write storage, got %v", got)
	}
}
