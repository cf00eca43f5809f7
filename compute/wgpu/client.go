package wgpu

import (
	"github.com/cubecl-go/cubecl/runtime"
)

// OpenClient opens a device, wires up its Storage/PipelineCache-backed
// Server behind a mutex channel, and returns a ready-to-use
// runtime.ComputeClient plus a closer that tears the device down.
//
// This is the function a runtime.ComputeRuntime's init callback calls:
//
//	client, err := rt.Client(runtime.DefaultDevice, func() (runtime.ComputeClient, func(), error) {
//	    return wgpu.OpenClient()
//	})
func OpenClient() (runtime.ComputeClient, func(), error) {
	device, err := OpenDevice()
	if err != nil {
		return runtime.ComputeClient{}, nil, err
	}

	server := NewServer(device)
	channel := runtime.NewMutexComputeChannel(server)
	client := runtime.NewClient(channel, detectFeatures(device))

	return client, device.Close, nil
}

// detectFeatures reports the optional capabilities this device supports.
// Conservative by construction: until the HAL surfaces subgroup/f16/
// atomic-float capability bits on hal.Device, every optional feature
// reports unsupported rather than guessing.
func detectFeatures(device *Device) runtime.FeatureSet {
	return runtime.FeatureSet{}
}
