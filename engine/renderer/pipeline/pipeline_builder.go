package pipeline

import (
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/lumen-engine/lumen-go/engine/renderer/shader"
)

// PipelineBuilderOption is a functional option for configuring a pipeline.
// Use the With* functions to create options.
type PipelineBuilderOption func(p *pipeline)

// WithVertexShader sets the vertex shader for the pipeline.
//
// Parameters:
//   - s: the vertex shader
//
// Returns:
//   - PipelineBuilderOption: option function to apply
func WithVertexShader(s shader.Shader) PipelineBuilderOption {
	return func(p *pipeline) {
		p.vertexShader = s
	}
}

// WithFragmentShader sets the fragment shader for the pipeline.
//
// Parameters:
//   - s: the fragment shader
//
// Returns:
//   - PipelineBuilderOption: option function to apply
func WithFragmentShader(s shader.Shader) PipelineBuilderOption {
	return func(p *pipeline) {
		p.fragmentShader = s
	}
}

// WithVertexLayouts sets the vertex buffer layouts consumed by the vertex shader.
//
// Parameters:
//   - layouts: the vertex buffer layouts
//
// Returns:
//   - PipelineBuilderOption: option function to apply
func WithVertexLayouts(layouts ...wgpu.VertexBufferLayout) PipelineBuilderOption {
	return func(p *pipeline) {
		p.vertexLayouts = layouts
	}
}

// WithDepthTest toggles depth testing for the pipeline. Enabled by default.
//
// Parameters:
//   - enabled: whether depth testing is enabled
//
// Returns:
//   - PipelineBuilderOption: option function to apply
func WithDepthTest(enabled bool) PipelineBuilderOption {
	return func(p *pipeline) {
		p.depthTestEnabled = enabled
	}
}

// WithDepthWrite toggles depth writes for the pipeline. Enabled by default.
//
// Parameters:
//   - enabled: whether depth writes are enabled
//
// Returns:
//   - PipelineBuilderOption: option function to apply
func WithDepthWrite(enabled bool) PipelineBuilderOption {
	return func(p *pipeline) {
		p.depthWriteEnabled = enabled
	}
}

// WithBlending enables standard alpha blending for the pipeline. Disabled by default.
//
// Returns:
//   - PipelineBuilderOption: option function to apply
func WithBlending() PipelineBuilderOption {
	return func(p *pipeline) {
		p.blendEnabled = true
	}
}

// WithScreenPass marks the pipeline as a full-screen pass: it is created
// with no depth attachment at sample count 1, and draws outside the
// multisampled scene pass. Also disables depth testing and depth writes.
//
// Returns:
//   - PipelineBuilderOption: option function to apply
func WithScreenPass() PipelineBuilderOption {
	return func(p *pipeline) {
		p.screenPass = true
		p.depthTestEnabled = false
		p.depthWriteEnabled = false
	}
}

// WithCullMode sets the face culling mode. Defaults to back-face culling.
//
// Parameters:
//   - mode: the cull mode to use
//
// Returns:
//   - PipelineBuilderOption: option function to apply
func WithCullMode(mode wgpu.CullMode) PipelineBuilderOption {
	return func(p *pipeline) {
		p.cullMode = mode
	}
}

// WithTopology sets the primitive topology. Defaults to triangle list.
//
// Parameters:
//   - topology: the primitive topology to use
//
// Returns:
//   - PipelineBuilderOption: option function to apply
func WithTopology(topology wgpu.PrimitiveTopology) PipelineBuilderOption {
	return func(p *pipeline) {
		p.topology = topology
	}
}
