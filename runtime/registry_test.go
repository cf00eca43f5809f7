package runtime

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/gogpu/gpucontext"
)

// nullProvider is a gpucontext.DeviceProvider that owns nothing, mirroring
// gg.NullDeviceHandle in the teacher repo.
type nullProvider struct{}

func (nullProvider) Device() gpucontext.Device   { return nil }
func (nullProvider) Queue() gpucontext.Queue     { return nil }
func (nullProvider) Adapter() gpucontext.Adapter { return nil }

func TestComputeRuntimeClientIsIdempotent(t *testing.T) {
	rt := NewRuntime()
	var initCount atomic.Int32

	init := func() (ComputeClient, func(), error) {
		initCount.Add(1)
		return NewClient(&MutexComputeChannel{}, FeatureSet{}), func() {}, nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := rt.Client(DefaultDevice, init); err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if got := initCount.Load(); got != 1 {
		t.Fatalf("expected init to run exactly once across concurrent callers, ran %d times", got)
	}
}

func TestComputeRuntimeDistinctDevicesGetDistinctClients(t *testing.T) {
	rt := NewRuntime()
	seen := map[DeviceID]bool{}

	for _, id := range []DeviceID{"gpu-0", "gpu-1"} {
		id := id
		_, err := rt.Client(id, func() (ComputeClient, func(), error) {
			seen[id] = true
			return NewClient(&MutexComputeChannel{}, FeatureSet{}), func() {}, nil
		})
		if err != nil {
			t.Fatalf("unexpected error opening %s: %v", id, err)
		}
	}

	if len(seen) != 2 {
		t.Fatalf("expected both devices to be initialized independently, got %v", seen)
	}
}

func TestComputeRuntimeCloseTearsDownEveryDevice(t *testing.T) {
	rt := NewRuntime()
	var closed atomic.Int32

	_, err := rt.Client(DefaultDevice, func() (ComputeClient, func(), error) {
		return NewClient(&MutexComputeChannel{}, FeatureSet{}), func() { closed.Add(1) }, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rt.Close()
	if got := closed.Load(); got != 1 {
		t.Fatalf("expected Close to invoke the closer once, got %d", got)
	}
}

func TestComputeRuntimeProviderRoundTrips(t *testing.T) {
	rt := NewRuntime()
	if rt.Provider() != nil {
		t.Fatal("expected no provider before SetDeviceProvider is called")
	}

	p := nullProvider{}
	if err := rt.SetDeviceProvider(p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rt.Provider() != p {
		t.Fatal("expected Provider to return the exact value passed to SetDeviceProvider")
	}
}
