// Package wgpu implements the compute package's ComputeStorage and
// ComputeServer contracts against github.com/gogpu/wgpu's hardware
// abstraction layer: buffers backing storage allocations, a pipeline cache
// keyed by kernel id, and a command-batching compute server.
package wgpu

import (
	"fmt"
	"log"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	// Backends register themselves via init(); Vulkan is the only one
	// wired in so far, matching what the rest of the corpus exercises.
	_ "github.com/gogpu/wgpu/hal/vulkan"
)

// preferredBackends is tried in order until one reports at least one
// adapter. Only Vulkan is linked in today; the list stays a slice rather
// than a single constant so adding Metal/D3D12 later is a one-line change.
var preferredBackends = []gputypes.BackendType{gputypes.BackendVulkan}

// Device owns the adapter, logical device, and queue a ComputeServer
// dispatches against. It outlives any single kernel execution and is
// shared by every client registered against the same physical GPU.
type Device struct {
	Instance hal.Instance
	Adapter  hal.Adapter
	Device   hal.Device
	Queue    hal.Queue
	Info     gputypes.AdapterInfo
}

// OpenDevice enumerates adapters across preferredBackends, opens the
// first discrete or integrated GPU it finds (falling back to whatever
// adapter index 0 is otherwise), and returns the opened Device.
//
// Adapter/device lifecycle messages go through the standard log package
// rather than cubecl.Logger(): this runs before any ComputeClient or
// Server exists to carry a configured logger, the same way the teacher's
// own backend.go/device.go reach for log.Printf("gpu: ...") for the same
// kind of one-shot startup message.
func OpenDevice() (*Device, error) {
	for _, bt := range preferredBackends {
		backend, ok := hal.GetBackend(bt)
		if !ok {
			continue
		}

		instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
		if err != nil {
			log.Printf("gpu: failed to create instance (backend=%v): %v", bt, err)
			continue
		}

		adapters := instance.EnumerateAdapters(nil)
		if len(adapters) == 0 {
			continue
		}

		selected := &adapters[0]
		for i := range adapters {
			dt := adapters[i].Info.DeviceType
			if dt == gputypes.DeviceTypeDiscreteGPU || dt == gputypes.DeviceTypeIntegratedGPU {
				selected = &adapters[i]
				break
			}
		}

		opened, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
		if err != nil {
			return nil, fmt.Errorf("compute/wgpu: open device: %w", err)
		}

		log.Printf("gpu: opened device %q (backend=%v)", selected.Info.Name, bt)
		return &Device{
			Instance: instance,
			Adapter:  selected.Adapter,
			Device:   opened.Device,
			Queue:    opened.Queue,
			Info:     selected.Info,
		}, nil
	}

	return nil, fmt.Errorf("compute/wgpu: no adapter available from %v", preferredBackends)
}

// Close releases the logical device. The instance and adapter are left
// for the driver to reclaim at process exit, matching the rest of the
// corpus which never tears those down explicitly either.
func (d *Device) Close() {
	if d.Device != nil {
		d.Device.Destroy()
	}
}
