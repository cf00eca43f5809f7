package compute

import "testing"

func TestHandleCanMutUniquelyHeld(t *testing.T) {
	h := NewHandle(StorageHandle{ID: 1, Size: 16})
	if !h.CanMut() {
		t.Fatal("expected a freshly created handle to be uniquely held")
	}
}

func TestHandleCloneSharesRefcount(t *testing.T) {
	h := NewHandle(StorageHandle{ID: 1, Size: 16})
	clone := h.Clone()

	if h.CanMut() {
		t.Fatal("expected CanMut to be false once a clone exists")
	}
	if clone.CanMut() {
		t.Fatal("expected the clone to see the same shared refcount")
	}

	if n := clone.Release(); n != 1 {
		t.Fatalf("expected refcount 1 after releasing one of two references, got %d", n)
	}
	if !h.CanMut() {
		t.Fatal("expected CanMut to be true again once only one reference remains")
	}
}

func TestStorageUtilizationString(t *testing.T) {
	if got := StorageFull.String(); got != "full" {
		t.Fatalf("expected \"full\", got %q", got)
	}
	if got := StorageSlice.String(); got != "slice" {
		t.Fatalf("expected \"slice\", got %q", got)
	}
}

func TestHandleBindingCoversWholeAllocation(t *testing.T) {
	h := NewHandle(StorageHandle{ID: 7, Size: 64, Offset: 0})
	b := h.Binding()
	if b.Size != 64 || b.Offset != 0 {
		t.Fatalf("expected binding to cover the full allocation, got offset=%d size=%d", b.Offset, b.Size)
	}
}
