package runtime

import (
	"sync"

	"github.com/gogpu/gpucontext"

	"github.com/cubecl-go/cubecl"
)

// DeviceID identifies a physical device within a ComputeRuntime's
// registry. The zero value names "the default device" for runtimes that
// only ever open one.
type DeviceID string

// DefaultDevice is the DeviceID a runtime falls back to when a caller
// doesn't care which physical device it runs against.
const DefaultDevice DeviceID = ""

// entry bundles a client with whatever went into building it, so
// ComputeRuntime.Close can clean it up.
type entry struct {
	client ComputeClient
	closer func()
}

// ComputeRuntime is a process-wide registry of one ComputeClient per
// physical device, built lazily on first use and reused for the rest of
// the process's lifetime. Client is idempotent and thread-safe: two
// goroutines racing to open the same DeviceID for the first time both
// observe the same client, and only one device is ever actually opened.
type ComputeRuntime struct {
	mu       sync.Mutex
	clients  map[DeviceID]entry
	provider gpucontext.DeviceProvider
}

// NewRuntime returns an empty registry.
func NewRuntime() *ComputeRuntime {
	return &ComputeRuntime{clients: make(map[DeviceID]entry)}
}

// Client returns the ComputeClient registered for id, calling init to
// build one if this is the first request for id. init is called with the
// registry's lock held, so a second call racing the first blocks until
// the first finishes rather than opening the device twice.
func (r *ComputeRuntime) Client(id DeviceID, init func() (ComputeClient, func(), error)) (ComputeClient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.clients[id]; ok {
		return e.client, nil
	}

	client, closer, err := init()
	if err != nil {
		return ComputeClient{}, err
	}
	r.clients[id] = entry{client: client, closer: closer}
	cubecl.Logger().Info("runtime: compute client registered", "device", string(id))
	return client, nil
}

// SetDeviceProvider implements the same provider-aware duck type as
// gg.DeviceProviderAware: an embedding application that already owns a GPU
// device (e.g. a gogpu window) can offer it to the runtime here. The runtime
// only stores the provider and returns it from Provider; nothing in this
// module consults it, and compute/wgpu.OpenClient always opens its own
// device through compute/wgpu.OpenDevice.
//
// Converting a gpucontext.DeviceProvider's Device/Queue/Adapter into the
// concrete hal.Device/hal.Queue/hal.Adapter compute/wgpu needs is not
// implemented, since no conversion between the two is exposed anywhere in
// the reachable gpucontext or wgpu/hal surface.
func (r *ComputeRuntime) SetDeviceProvider(provider gpucontext.DeviceProvider) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.provider = provider
	return nil
}

// Provider returns the most recently set external device provider, or nil
// if none was set.
func (r *ComputeRuntime) Provider() gpucontext.DeviceProvider {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.provider
}

// Close tears down every registered device, in no particular order. A
// ComputeRuntime is not usable afterward.
func (r *ComputeRuntime) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, e := range r.clients {
		if e.closer != nil {
			e.closer()
		}
		delete(r.clients, id)
	}
}
