package pipeline

import (
	"github.com/Carmen-Shannon/oxy-character/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// pipeline is the implementation of the Pipeline interface.
type pipeline struct {
	// pipelineKey is the unique identifier for this pipeline, used as the GPU object label
	pipelineKey string

	computeShader shader.Shader

	// computePipeline is nil until a backend registers the pipeline
	computePipeline *wgpu.ComputePipeline
	// bindGroupLayouts are the layouts the pipeline layout was created from, indexed by group
	bindGroupLayouts []*wgpu.BindGroupLayout
}

// Pipeline pairs a compute shader with the GPU pipeline a backend created for it.
type Pipeline interface {
	// PipelineKey returns the unique identifier of the pipeline.
	//
	// Returns:
	//   - string: the pipeline key
	PipelineKey() string

	// Shader returns the compute shader the pipeline runs.
	//
	// Returns:
	//   - shader.Shader: the compute shader
	Shader() shader.Shader

	// ComputePipeline returns the registered GPU pipeline, or nil before registration.
	//
	// Returns:
	//   - *wgpu.ComputePipeline: the pipeline
	ComputePipeline() *wgpu.ComputePipeline

	// BindGroupLayout returns the layout created for a bind group index, or nil.
	//
	// Parameters:
	//   - group: the bind group index
	//
	// Returns:
	//   - *wgpu.BindGroupLayout: the layout
	BindGroupLayout(group int) *wgpu.BindGroupLayout

	// SetComputePipeline stores the pipeline and the bind group layouts it was created with.
	//
	// Parameters:
	//   - cp: the compute pipeline
	//   - layouts: the bind group layouts indexed by group
	SetComputePipeline(cp *wgpu.ComputePipeline, layouts []*wgpu.BindGroupLayout)

	// Release releases the GPU pipeline and its bind group layouts.
	Release()
}

var _ Pipeline = &pipeline{}

// NewComputePipeline creates an unregistered Pipeline for a compute shader.
//
// Parameters:
//   - pipelineKey: the unique identifier of the pipeline
//   - computeShader: the shader the pipeline runs
//
// Returns:
//   - Pipeline: the pipeline
func NewComputePipeline(pipelineKey string, computeShader shader.Shader) Pipeline {
	return &pipeline{
		pipelineKey:   pipelineKey,
		computeShader: computeShader,
	}
}

func (p *pipeline) PipelineKey() string {
	return p.pipelineKey
}

func (p *pipeline) Shader() shader.Shader {
	return p.computeShader
}

func (p *pipeline) ComputePipeline() *wgpu.ComputePipeline {
	return p.computePipeline
}

func (p *pipeline) BindGroupLayout(group int) *wgpu.BindGroupLayout {
	if group < 0 || group >= len(p.bindGroupLayouts) {
		return nil
	}
	return p.bindGroupLayouts[group]
}

func (p *pipeline) SetComputePipeline(cp *wgpu.ComputePipeline, layouts []*wgpu.BindGroupLayout) {
	p.computePipeline = cp
	p.bindGroupLayouts = layouts
}

func (p *pipeline) Release() {
	if p.computePipeline != nil {
		p.computePipeline.Release()
		p.computePipeline = nil
	}
	for _, l := range p.bindGroupLayouts {
		if l != nil {
			l.Release()
		}
	}
	p.bindGroupLayouts = nil
}
