package runtime

import (
	"context"

	"github.com/cubecl-go/cubecl/compiler"
	"github.com/cubecl-go/cubecl/compute"
)

// ComputeClient is the handle frontend code dispatches kernels through.
// It is cheap to clone (a ComputeClient just wraps a shared channel) and
// safe for concurrent use, since every call is serialized by the
// underlying ComputeChannel.
type ComputeClient struct {
	channel  ComputeChannel
	features FeatureSet
}

// NewClient wraps channel with the given feature set.
func NewClient(channel ComputeChannel, features FeatureSet) ComputeClient {
	return ComputeClient{channel: channel, features: features}
}

// Features reports which optional capabilities the client's device
// supports, so frontend code can pick a kernel variant before dispatch
// rather than discovering a missing capability as a device-side error.
func (c ComputeClient) Features() FeatureSet { return c.features }

// Create uploads data as a new device allocation.
func (c ComputeClient) Create(data []byte) compute.Handle { return c.channel.Create(data) }

// Empty reserves size uninitialized bytes on the device.
func (c ComputeClient) Empty(size uint64) compute.Handle { return c.channel.Empty(size) }

// Read blocks until every pending dispatch has retired, then returns the
// bytes addressed by each binding.
func (c ComputeClient) Read(ctx context.Context, bindings []compute.Binding) ([][]byte, error) {
	return c.channel.Read(ctx, bindings)
}

// Execute dispatches kernel over bindings under mode. The dispatch may
// still be pending in the in-flight queue when Execute returns; call Read
// or Sync to observe its effects.
func (c ComputeClient) Execute(kernel compute.Kernel, opts compute.DispatchOptions, bindings []compute.Binding, mode compiler.ExecutionMode) error {
	return c.channel.Execute(kernel, opts, bindings, mode)
}

// Sync closes and submits the current recording pass. SyncWait
// additionally blocks until the device signals completion.
func (c ComputeClient) Sync(ctx context.Context, typ compute.SyncType) error {
	return c.channel.Sync(ctx, typ)
}

// Feature names an optional device capability a kernel may need.
type Feature int

const (
	// FeatureSubcube indicates the device exposes subgroup (subcube)
	// operations — ballot, shuffle, the subgroup_size builtin — beyond
	// the baseline compute feature set every WebGPU device guarantees.
	FeatureSubcube Feature = iota
	// FeatureF16 indicates the device's shader stage supports the f16
	// WGSL extension.
	FeatureF16
	// FeatureAtomicFloat indicates the device supports atomic operations
	// on floating-point storage values, beyond the integer atomics every
	// device guarantees.
	FeatureAtomicFloat
)

// FeatureSet is the set of optional capabilities a device was found to
// support at ComputeRuntime.Client time.
type FeatureSet map[Feature]bool

// Supports reports whether f is present in the set.
func (fs FeatureSet) Supports(f Feature) bool { return fs[f] }
