package postprocess

import (
	"sync"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/lumen-engine/lumen-go/engine/renderer"
	"github.com/lumen-engine/lumen-go/engine/renderer/pipeline"
	"github.com/lumen-engine/lumen-go/engine/renderer/shader"
)

// FXAAPipelineKey identifies the render pipeline used by the FXAA pass.
const FXAAPipelineKey = "postprocess_fxaa"

// fxaaVertexSource draws a full-screen triangle without a vertex buffer.
const fxaaVertexSource = `
struct VertexOutput {
	@builtin(position) position: vec4<f32>,
	@location(0) uv: vec2<f32>,
};

@vertex
fn vs_main(@builtin(vertex_index) index: u32) -> VertexOutput {
	var out: VertexOutput;
	let x = f32(i32(index & 1u) * 4 - 1);
	let y = f32(i32(index & 2u) * 2 - 1);
	out.position = vec4<f32>(x, y, 0.0, 1.0);
	out.uv = vec2<f32>(x, -y) * 0.5 + vec2<f32>(0.5, 0.5);
	return out;
}
`

// fxaaFragmentSource is a luminance-based FXAA 3.11 reduction over the
// resolved scene color.
const fxaaFragmentSource = `
@group(0) @binding(0) var scene_color: texture_2d<f32>;
@group(0) @binding(1) var scene_sampler: sampler;

const FXAA_REDUCE_MIN: f32 = 1.0 / 128.0;
const FXAA_REDUCE_MUL: f32 = 1.0 / 8.0;
const FXAA_SPAN_MAX: f32 = 8.0;

fn luma(color: vec3<f32>) -> f32 {
	return dot(color, vec3<f32>(0.299, 0.587, 0.114));
}

@fragment
fn fs_main(@location(0) uv: vec2<f32>) -> @location(0) vec4<f32> {
	let texel = vec2<f32>(1.0, 1.0) / vec2<f32>(textureDimensions(scene_color));

	let rgb_nw = textureSample(scene_color, scene_sampler, uv + vec2<f32>(-1.0, -1.0) * texel).rgb;
	let rgb_ne = textureSample(scene_color, scene_sampler, uv + vec2<f32>(1.0, -1.0) * texel).rgb;
	let rgb_sw = textureSample(scene_color, scene_sampler, uv + vec2<f32>(-1.0, 1.0) * texel).rgb;
	let rgb_se = textureSample(scene_color, scene_sampler, uv + vec2<f32>(1.0, 1.0) * texel).rgb;
	let rgb_m = textureSample(scene_color, scene_sampler, uv).rgb;

	let luma_nw = luma(rgb_nw);
	let luma_ne = luma(rgb_ne);
	let luma_sw = luma(rgb_sw);
	let luma_se = luma(rgb_se);
	let luma_m = luma(rgb_m);

	let luma_min = min(luma_m, min(min(luma_nw, luma_ne), min(luma_sw, luma_se)));
	let luma_max = max(luma_m, max(max(luma_nw, luma_ne), max(luma_sw, luma_se)));

	var dir = vec2<f32>(
		-((luma_nw + luma_ne) - (luma_sw + luma_se)),
		((luma_nw + luma_sw) - (luma_ne + luma_se)),
	);

	let dir_reduce = max((luma_nw + luma_ne + luma_sw + luma_se) * 0.25 * FXAA_REDUCE_MUL, FXAA_REDUCE_MIN);
	let rcp_dir_min = 1.0 / (min(abs(dir.x), abs(dir.y)) + dir_reduce);
	dir = clamp(dir * rcp_dir_min, vec2<f32>(-FXAA_SPAN_MAX), vec2<f32>(FXAA_SPAN_MAX)) * texel;

	let rgb_a = 0.5 * (textureSample(scene_color, scene_sampler, uv + dir * (1.0 / 3.0 - 0.5)).rgb +
		textureSample(scene_color, scene_sampler, uv + dir * (2.0 / 3.0 - 0.5)).rgb);
	let rgb_b = rgb_a * 0.5 + 0.25 * (textureSample(scene_color, scene_sampler, uv + dir * -0.5).rgb +
		textureSample(scene_color, scene_sampler, uv + dir * 0.5).rgb);

	let luma_b = luma(rgb_b);
	if luma_b < luma_min || luma_b > luma_max {
		return vec4<f32>(rgb_a, 1.0);
	}
	return vec4<f32>(rgb_b, 1.0);
}
`

type fxaa struct {
	mu *sync.Mutex

	pl          pipeline.Pipeline
	registerErr error
	disposed    bool
}

var _ PostProcess = &fxaa{}

// NewFXAA creates an FXAA post-process pass and starts registering its
// full-screen pipeline (shader compilation included) on a background
// goroutine. The pass reports ready once the pipeline exists on the GPU; the
// pipeline is cached under FXAAPipelineKey so later passes reuse it.
//
// Parameters:
//   - r: the renderer to register the pipeline with
//
// Returns:
//   - PostProcess: the FXAA pass
func NewFXAA(r renderer.Renderer) PostProcess {
	f := &fxaa{
		mu: &sync.Mutex{},
	}
	pl := pipeline.NewPipeline(FXAAPipelineKey,
		pipeline.WithVertexShader(shader.NewShader("fxaa_vert", shader.ShaderTypeVertex, fxaaVertexSource)),
		pipeline.WithFragmentShader(shader.NewShader("fxaa_frag", shader.ShaderTypeFragment, fxaaFragmentSource)),
		pipeline.WithScreenPass(),
		pipeline.WithCullMode(wgpu.CullModeNone),
	)
	go func() {
		if r.Pipeline(FXAAPipelineKey) == nil {
			if err := r.RegisterPipelines(pl); err != nil {
				f.mu.Lock()
				f.registerErr = err
				f.mu.Unlock()
				return
			}
		}
		// Registration dedupes by key, so always adopt the cached pipeline.
		f.mu.Lock()
		f.pl = r.Pipeline(FXAAPipelineKey)
		f.mu.Unlock()
	}()
	return f
}

func (f *fxaa) Name() string {
	return "fxaa"
}

func (f *fxaa) PipelineKey() string {
	return FXAAPipelineKey
}

func (f *fxaa) IsReady() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.disposed || f.registerErr != nil {
		return false
	}
	return f.pl != nil && f.pl.GPUPipeline() != nil
}

func (f *fxaa) Dispose() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.disposed = true
}
