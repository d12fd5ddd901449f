package skinning

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/Carmen-Shannon/oxy-character/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-character/engine/renderer/pipeline"
	"github.com/cogentcore/webgpu/wgpu"
)

// wgpuStream is the WebGPU implementation of the WGPUStream interface.
type wgpuStream struct {
	mu     *sync.Mutex
	device *wgpu.Device
	queue  *wgpu.Queue

	instance *wgpu.Instance
	adapter  *wgpu.Adapter

	forceFallbackAdapter bool
	label                string

	pipeline pipeline.Pipeline

	// bufferUsageOverrides adds usages to the buffers InitBindGroup creates, keyed by binding
	bufferUsageOverrides map[int]wgpu.BufferUsage

	// frameEncoder batches every dispatch of a frame into one submission
	frameEncoder *wgpu.CommandEncoder

	transitions int
}

// WGPUStream is a CommandStream backed by a headless WebGPU compute device.
//
// WebGPU orders storage writes before later reads on the same queue by itself, so Transition
// records nothing on the device; the Dispatcher's tracker still enforces the access contract.
type WGPUStream interface {
	CommandStream

	// BeginFrame creates the command encoder that batches the frame's dispatches.
	// Must be paired with EndFrame.
	//
	// Returns:
	//   - error: if the encoder could not be created
	BeginFrame() error

	// EndFrame finishes the frame's encoder and submits it to the queue.
	EndFrame()

	// Transitions returns the number of transitions recorded since creation.
	//
	// Returns:
	//   - int: the transition count
	Transitions() int

	// Pipeline returns the registered skinning pipeline.
	//
	// Returns:
	//   - pipeline.Pipeline: the pipeline
	Pipeline() pipeline.Pipeline

	// Device returns the WebGPU device.
	//
	// Returns:
	//   - *wgpu.Device: the device
	Device() *wgpu.Device

	// Queue returns the WebGPU queue.
	//
	// Returns:
	//   - *wgpu.Queue: the queue
	Queue() *wgpu.Queue

	// Release releases the pipeline, the device and the instance.
	Release()
}

var _ WGPUStream = &wgpuStream{}

// NewWGPUStream requests a headless WebGPU device and registers the skinning pipeline on it.
//
// Parameters:
//   - options: a variadic list of WGPUStreamBuilderOption functions
//
// Returns:
//   - WGPUStream: the stream
//   - error: if no adapter or device is available or the pipeline could not be created
func NewWGPUStream(options ...WGPUStreamBuilderOption) (WGPUStream, error) {
	runtime.LockOSThread()
	w := &wgpuStream{
		mu:    &sync.Mutex{},
		label: "Skinning",
		bufferUsageOverrides: map[int]wgpu.BufferUsage{
			OutputBinding: wgpu.BufferUsageVertex,
		},
	}
	for _, opt := range options {
		opt(w)
	}

	w.instance = wgpu.CreateInstance(nil)
	a, err := w.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: w.forceFallbackAdapter,
	})
	if err != nil {
		w.instance.Release()
		return nil, fmt.Errorf("request adapter: %w", err)
	}
	w.adapter = a

	d, err := a.RequestDevice(&wgpu.DeviceDescriptor{
		Label: w.label + " Device",
		RequiredLimits: &wgpu.RequiredLimits{
			Limits: wgpu.DefaultLimits(),
		},
	})
	if err != nil {
		w.adapter.Release()
		w.instance.Release()
		return nil, fmt.Errorf("request device: %w", err)
	}
	w.device = d
	w.queue = d.GetQueue()

	if err := w.registerComputePipeline(); err != nil {
		w.Release()
		return nil, err
	}
	return w, nil
}

func (b *wgpuStream) registerComputePipeline() error {
	s, err := NewSkinningShader()
	if err != nil {
		return err
	}
	module, err := b.device.CreateShaderModule(s.Module())
	if err != nil {
		return fmt.Errorf("create shader module %s: %w", s.Key(), err)
	}
	defer module.Release()

	descriptors := s.BindGroupLayoutDescriptors()
	maxGroup := -1
	for g := range descriptors {
		if g > maxGroup {
			maxGroup = g
		}
	}
	bindGroupLayouts := make([]*wgpu.BindGroupLayout, maxGroup+1)
	for g, desc := range descriptors {
		desc.Label = fmt.Sprintf("%s Group %d", b.label, g)
		bgl, bglErr := b.device.CreateBindGroupLayout(&desc)
		if bglErr != nil {
			return fmt.Errorf("failed to create bind group layout for group %d: %w", g, bglErr)
		}
		bindGroupLayouts[g] = bgl
	}

	layout, err := b.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            b.label,
		BindGroupLayouts: bindGroupLayouts,
	})
	if err != nil {
		return err
	}
	defer layout.Release()

	created, err := b.device.CreateComputePipeline(&wgpu.ComputePipelineDescriptor{
		Label:  b.label + " Compute Pipeline",
		Layout: layout,
		Compute: wgpu.ProgrammableStageDescriptor{
			Module:     module,
			EntryPoint: s.EntryPoint(),
		},
	})
	if err != nil {
		return err
	}

	b.pipeline = pipeline.NewComputePipeline(b.label, s)
	b.pipeline.SetComputePipeline(created, bindGroupLayouts)
	return nil
}

func (b *wgpuStream) InitBindGroup(provider bind_group_provider.BindGroupProvider) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	descriptor := b.pipeline.Shader().BindGroupLayoutDescriptor(0)
	layout := b.pipeline.BindGroupLayout(0)
	provider.SetBindGroupLayout(layout)

	bindGroupEntries := make([]wgpu.BindGroupEntry, len(descriptor.Entries))
	for i, entry := range descriptor.Entries {
		binding := int(entry.Binding)

		buf := provider.Buffer(binding)
		if buf == nil {
			if provider.Shared(binding) {
				return fmt.Errorf("%s binding %d: shared buffer is not initialized", provider.Label(), binding)
			}
			usage := wgpu.BufferUsageStorage | wgpu.BufferUsageCopyDst
			if overrideUsage, ok := b.bufferUsageOverrides[binding]; ok {
				usage |= overrideUsage
			}
			var bufErr error
			buf, bufErr = b.device.CreateBuffer(&wgpu.BufferDescriptor{
				Label: fmt.Sprintf("%s Buffer %d", provider.Label(), binding),
				Size:  provider.BufferSize(binding),
				Usage: usage,
			})
			if bufErr != nil {
				return bufErr
			}
			provider.SetBuffer(binding, buf)
		}
		bindGroupEntries[i] = wgpu.BindGroupEntry{
			Binding: entry.Binding,
			Buffer:  buf,
			Offset:  0,
			Size:    wgpu.WholeSize,
		}
	}

	bindGroup, err := b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   provider.Label() + " Bind Group",
		Layout:  layout,
		Entries: bindGroupEntries,
	})
	if err != nil {
		return err
	}
	provider.SetBindGroup(bindGroup)
	return nil
}

func (b *wgpuStream) WriteBuffers(writes []bind_group_provider.BufferWrite) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, w := range bind_group_provider.Coalesce(writes) {
		buf := w.Provider.Buffer(w.Binding)
		if buf == nil {
			continue
		}
		b.queue.WriteBuffer(buf, w.Offset, w.Data)
	}
}

func (b *wgpuStream) Transition(_ bind_group_provider.BindGroupProvider, _ int, _, _ ResourceState) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.transitions++
}

func (b *wgpuStream) Transitions() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.transitions
}

func (b *wgpuStream) BeginFrame() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	encoder, err := b.device.CreateCommandEncoder(nil)
	if err != nil {
		return err
	}
	b.frameEncoder = encoder
	return nil
}

func (b *wgpuStream) EndFrame() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.frameEncoder == nil {
		return
	}

	commandBuffer, err := b.frameEncoder.Finish(nil)
	if err != nil {
		b.frameEncoder.Release()
		b.frameEncoder = nil
		return
	}

	b.queue.Submit(commandBuffer)
	commandBuffer.Release()
	b.frameEncoder.Release()
	b.frameEncoder = nil
}

func (b *wgpuStream) Dispatch(provider bind_group_provider.BindGroupProvider, workGroupCount [3]uint32) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.frameEncoder == nil {
		return
	}

	pass := b.frameEncoder.BeginComputePass(nil)
	pass.SetPipeline(b.pipeline.ComputePipeline())
	pass.SetBindGroup(0, provider.BindGroup(), nil)
	pass.DispatchWorkgroups(workGroupCount[0], workGroupCount[1], workGroupCount[2])
	pass.End()
	pass.Release()
}

func (b *wgpuStream) Pipeline() pipeline.Pipeline {
	return b.pipeline
}

func (b *wgpuStream) Device() *wgpu.Device {
	return b.device
}

func (b *wgpuStream) Queue() *wgpu.Queue {
	return b.queue
}

func (b *wgpuStream) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.pipeline != nil {
		b.pipeline.Release()
		b.pipeline = nil
	}
	if b.queue != nil {
		b.queue.Release()
		b.queue = nil
	}
	if b.device != nil {
		b.device.Release()
		b.device = nil
	}
	if b.adapter != nil {
		b.adapter.Release()
		b.adapter = nil
	}
	if b.instance != nil {
		b.instance.Release()
		b.instance = nil
	}
}
