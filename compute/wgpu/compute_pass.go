package wgpu

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gogpu/wgpu/hal"
)

// ComputePassState is the lifecycle state of a ComputePass.
type ComputePassState int

const (
	ComputePassRecording ComputePassState = iota
	ComputePassEnded
)

func (s ComputePassState) String() string {
	if s == ComputePassEnded {
		return "Ended"
	}
	return "Recording"
}

var (
	// ErrComputePassEnded is returned by any recording call made after End.
	ErrComputePassEnded = errors.New("compute/wgpu: compute pass has already ended")
	// ErrNilComputePipeline is returned by SetPipeline(nil).
	ErrNilComputePipeline = errors.New("compute/wgpu: compute pipeline is nil")
	// ErrWorkgroupCountZero is returned by DispatchWorkgroups when any
	// dimension is zero — WebGPU itself allows a zero-sized no-op
	// dispatch, but a kernel's own caller asking for zero workgroups
	// almost always indicates a miscomputed dispatch size upstream.
	ErrWorkgroupCountZero = errors.New("compute/wgpu: workgroup count must be greater than zero")
)

// ComputePass records a single batch of dispatches within one compute
// pass. Not safe for concurrent use: exactly one goroutine, the
// ComputeServer's own call chain, records into a ComputePass for its
// entire lifetime.
type ComputePass struct {
	mu            sync.Mutex
	pass          hal.ComputePassEncoder
	state         ComputePassState
	dispatchCount uint32
}

func newComputePass(pass hal.ComputePassEncoder) *ComputePass {
	return &ComputePass{pass: pass}
}

func (p *ComputePass) checkRecording() error {
	if p.state != ComputePassRecording {
		return ErrComputePassEnded
	}
	return nil
}

// SetPipeline binds the compute pipeline subsequent dispatches run under.
func (p *ComputePass) SetPipeline(pipeline hal.ComputePipeline) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.checkRecording(); err != nil {
		return fmt.Errorf("set pipeline: %w", err)
	}
	if pipeline == nil {
		return ErrNilComputePipeline
	}
	p.pass.SetPipeline(pipeline)
	return nil
}

// SetBindGroup binds group at index for subsequent dispatches.
func (p *ComputePass) SetBindGroup(index uint32, group hal.BindGroup) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.checkRecording(); err != nil {
		return fmt.Errorf("set bind group: %w", err)
	}
	p.pass.SetBindGroup(index, group, nil)
	return nil
}

// DispatchWorkgroups records a dispatch of x*y*z workgroups.
func (p *ComputePass) DispatchWorkgroups(x, y, z uint32) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.checkRecording(); err != nil {
		return fmt.Errorf("dispatch workgroups: %w", err)
	}
	if x == 0 || y == 0 || z == 0 {
		return fmt.Errorf("%w: got (%d, %d, %d)", ErrWorkgroupCountZero, x, y, z)
	}
	p.pass.Dispatch(x, y, z)
	p.dispatchCount++
	return nil
}

// End completes the pass. Idempotent.
func (p *ComputePass) End() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state == ComputePassEnded {
		return nil
	}
	p.state = ComputePassEnded
	p.pass.End()
	return nil
}

// DispatchCount reports how many dispatches this pass recorded.
func (p *ComputePass) DispatchCount() uint32 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.dispatchCount
}
