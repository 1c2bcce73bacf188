package pipeline

import (
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/lumen-engine/lumen-go/engine/renderer/shader"
)

// pipeline is the implementation of the Pipeline interface.
// It holds the shaders and render-state configuration needed to create a
// WebGPU render pipeline, plus the created GPU pipeline object once the
// renderer has registered it.
type pipeline struct {
	// pipelineKey is the unique identifier for this pipeline, used for caching and lookups
	pipelineKey string

	vertexShader, fragmentShader shader.Shader

	// renderPipeline is the created GPU pipeline, nil until registered.
	renderPipeline *wgpu.RenderPipeline

	// vertexLayouts describe the vertex buffer attributes consumed by the vertex shader.
	vertexLayouts []wgpu.VertexBufferLayout

	// Render-state configuration, toggled with builder options.
	depthTestEnabled  bool
	depthWriteEnabled bool
	blendEnabled      bool
	cullMode          wgpu.CullMode
	topology          wgpu.PrimitiveTopology
	screenPass        bool
}

// Pipeline defines the interface for a render pipeline: a pair of shaders,
// vertex layouts, and fixed-function render state, registered with the
// renderer under a unique key.
type Pipeline interface {
	// PipelineKey retrieves the unique identifier for this pipeline.
	//
	// Returns:
	//   - string: the pipeline's unique key
	PipelineKey() string

	// Shader retrieves the shader for the given stage, or nil if not set.
	//
	// Parameters:
	//   - shaderType: the stage to retrieve (vertex or fragment)
	//
	// Returns:
	//   - shader.Shader: the shader for the stage, or nil
	Shader(shaderType shader.ShaderType) shader.Shader

	// VertexLayouts retrieves the vertex buffer layouts consumed by the vertex shader.
	//
	// Returns:
	//   - []wgpu.VertexBufferLayout: the vertex buffer layouts
	VertexLayouts() []wgpu.VertexBufferLayout

	// DepthTestEnabled reports whether depth testing is enabled for this pipeline.
	//
	// Returns:
	//   - bool: true if depth testing is enabled
	DepthTestEnabled() bool

	// DepthWriteEnabled reports whether depth writes are enabled for this pipeline.
	//
	// Returns:
	//   - bool: true if depth writes are enabled
	DepthWriteEnabled() bool

	// BlendEnabled reports whether alpha blending is enabled for this pipeline.
	//
	// Returns:
	//   - bool: true if blending is enabled
	BlendEnabled() bool

	// CullMode retrieves the face culling mode for this pipeline.
	//
	// Returns:
	//   - wgpu.CullMode: the cull mode
	CullMode() wgpu.CullMode

	// Topology retrieves the primitive topology for this pipeline.
	//
	// Returns:
	//   - wgpu.PrimitiveTopology: the primitive topology
	Topology() wgpu.PrimitiveTopology

	// ScreenPass reports whether this pipeline draws a full-screen pass with
	// no depth attachment at sample count 1, outside the multisampled scene
	// pass. Post-process pipelines set this.
	//
	// Returns:
	//   - bool: true for a full-screen pass pipeline
	ScreenPass() bool

	// GPUPipeline retrieves the created GPU render pipeline, or nil if not yet registered.
	//
	// Returns:
	//   - *wgpu.RenderPipeline: the GPU pipeline object, or nil
	GPUPipeline() *wgpu.RenderPipeline

	// SetGPUPipeline stores the created GPU render pipeline on this Pipeline.
	// Called by the renderer backend during registration.
	//
	// Parameters:
	//   - rp: the created GPU pipeline object
	SetGPUPipeline(rp *wgpu.RenderPipeline)
}

var _ Pipeline = &pipeline{}

// NewPipeline creates a new Pipeline with the given key and options.
// Defaults: depth test and depth write enabled, no blending, back-face
// culling, triangle-list topology.
//
// Parameters:
//   - pipelineKey: the unique identifier for this pipeline
//   - opts: variadic list of PipelineBuilderOption functions to configure the pipeline
//
// Returns:
//   - Pipeline: a new Pipeline instance
func NewPipeline(pipelineKey string, opts ...PipelineBuilderOption) Pipeline {
	p := &pipeline{
		pipelineKey:       pipelineKey,
		depthTestEnabled:  true,
		depthWriteEnabled: true,
		cullMode:          wgpu.CullModeBack,
		topology:          wgpu.PrimitiveTopologyTriangleList,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *pipeline) PipelineKey() string {
	return p.pipelineKey
}

func (p *pipeline) Shader(shaderType shader.ShaderType) shader.Shader {
	switch shaderType {
	case shader.ShaderTypeVertex:
		return p.vertexShader
	case shader.ShaderTypeFragment:
		return p.fragmentShader
	}
	return nil
}

func (p *pipeline) VertexLayouts() []wgpu.VertexBufferLayout {
	return p.vertexLayouts
}

func (p *pipeline) DepthTestEnabled() bool {
	return p.depthTestEnabled
}

func (p *pipeline) DepthWriteEnabled() bool {
	return p.depthWriteEnabled
}

func (p *pipeline) BlendEnabled() bool {
	return p.blendEnabled
}

func (p *pipeline) CullMode() wgpu.CullMode {
	return p.cullMode
}

func (p *pipeline) ScreenPass() bool {
	return p.screenPass
}

func (p *pipeline) Topology() wgpu.PrimitiveTopology {
	return p.topology
}

func (p *pipeline) GPUPipeline() *wgpu.RenderPipeline {
	return p.renderPipeline
}

func (p *pipeline) SetGPUPipeline(rp *wgpu.RenderPipeline) {
	p.renderPipeline = rp
}
