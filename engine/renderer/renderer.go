package renderer

import (
	"fmt"
	"sync"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/lumen-engine/lumen-go/common"
	"github.com/lumen-engine/lumen-go/engine/renderer/pipeline"
	"github.com/lumen-engine/lumen-go/engine/renderer/shader"
	"github.com/lumen-engine/lumen-go/engine/window"
)

// RenderTarget abstracts an offscreen rendering destination: a GPU texture
// that a render pass can draw into instead of the display surface. The
// concrete implementation lives in the rendertarget package; the renderer
// only needs size, sample count, readiness, and the texture objects.
type RenderTarget interface {
	// Name retrieves the target's identifier, used for labels and logging.
	//
	// Returns:
	//   - string: the target's name
	Name() string

	// Width retrieves the target width in pixels.
	//
	// Returns:
	//   - int: width in pixels
	Width() int

	// Height retrieves the target height in pixels.
	//
	// Returns:
	//   - int: height in pixels
	Height() int

	// SampleCount retrieves the multisample count for the target (1 = no MSAA).
	//
	// Returns:
	//   - int: the sample count
	SampleCount() int

	// HasStencil reports whether the target's depth attachment carries a stencil aspect.
	//
	// Returns:
	//   - bool: true if a stencil buffer is attached
	HasStencil() bool

	// Texture retrieves the underlying resolve texture pixels are read from.
	// Nil until the target's GPU resources are allocated.
	//
	// Returns:
	//   - *wgpu.Texture: the resolve texture, or nil
	Texture() *wgpu.Texture

	// TextureView retrieves the view rendering is directed into.
	// Nil until the target's GPU resources are allocated.
	//
	// Returns:
	//   - *wgpu.TextureView: the render view, or nil
	TextureView() *wgpu.TextureView

	// ReplaceTexture swaps a new texture and view into the target, releasing
	// the previous ones. Called by the renderer after a full-screen pass so
	// pixel reads observe the pass's output.
	//
	// Parameters:
	//   - texture: the replacement texture
	//   - view: a view of the replacement texture
	ReplaceTexture(texture *wgpu.Texture, view *wgpu.TextureView)

	// IsReady reports whether all asynchronous loading and compilation the
	// target depends on (texture allocation, post-process shaders, render
	// list resources) has completed.
	//
	// Returns:
	//   - bool: true when the target can be rendered into
	IsReady() bool

	// Dispose releases the target's GPU resources. Safe to call more than once.
	Dispose()
}

// MeshBinding exposes the GPU buffers a draw call needs from a renderable.
// The mesh package implements this; the renderer consumes it without
// depending on mesh semantics.
type MeshBinding interface {
	// VertexBuffer retrieves the GPU vertex buffer.
	//
	// Returns:
	//   - *wgpu.Buffer: the vertex buffer
	VertexBuffer() *wgpu.Buffer

	// IndexBuffer retrieves the GPU index buffer.
	//
	// Returns:
	//   - *wgpu.Buffer: the index buffer
	IndexBuffer() *wgpu.Buffer

	// IndexCount retrieves the number of indices to draw.
	//
	// Returns:
	//   - int: the index count
	IndexCount() int

	// BindGroup retrieves the bind group holding the mesh's uniform resources,
	// or nil if the pipeline uses no bindings.
	//
	// Returns:
	//   - *wgpu.BindGroup: the bind group, or nil
	BindGroup() *wgpu.BindGroup
}

// rendererImpl is the implementation of the Renderer interface.
type rendererImpl struct {
	mu *sync.Mutex

	pipelineCache map[string]pipeline.Pipeline

	backendType RendererBackendType
	backend     RendererBackend

	// Physical surface size, updated by Resize.
	surfaceWidth  int
	surfaceHeight int

	// Explicit render-size override installed for the duration of an
	// offscreen capture. When nil, the physical surface size is reported.
	// A bound render target's own size always takes precedence over both.
	sizeOverride *renderSizeOverride

	// boundTarget is the offscreen target the next BeginFrame renders into,
	// or nil for the display surface.
	boundTarget RenderTarget

	// suppressPresent skips surface presentation while set, so offscreen
	// work does not also appear on the display.
	suppressPresent bool

	// resizeListeners are notified whenever the effective render size
	// changes, including override installation and removal.
	resizeListeners map[int]func(width, height int)
	nextListenerID  int

	// endFrameOnce holds single-shot callbacks fired after the next
	// end-of-frame, then cleared.
	endFrameOnce []func()

	// Pre-creation config collected from builder options.
	forceFallbackAdapter bool
	pendingPresentMode   *PresentMode
	pendingMSAA          *MSAASampleCount
}

// Renderer defines the interface for the rendering system.
//
// This is a high-level API designed to simplify rendering tasks into a streamlined and idiomatic flow.
// The Renderer manages a cache of render pipelines, the frame lifecycle against either the display
// surface or a bound offscreen RenderTarget, and the capture primitives the screenshot pipeline
// composes: effective render-size reporting with an explicit scoped override, presentation
// suppression, resize fan-out, single-shot end-of-frame notification, and asynchronous pixel readback.
// The Renderer also implements a backend which allows for multiple backend API implementations to exist.
type Renderer interface {
	// Pipeline retrieves the cached Pipeline associated with the given key.
	// If the Pipeline does not exist, this will return nil.
	//
	// Parameters:
	//   - key: the unique identifier for the Pipeline to retrieve
	//
	// Returns:
	//   - pipeline.Pipeline: the Pipeline associated with the key, or nil if not found
	Pipeline(key string) pipeline.Pipeline

	// RegisterPipelines registers one or more pipelines by creating the corresponding GPU
	// pipeline objects via the backend, then caching them by PipelineKey.
	// Pipelines whose keys are already registered are skipped to avoid duplicate GPU resource creation.
	//
	// Parameters:
	//   - pipelines: the Pipelines to register
	//
	// Returns:
	//   - error: an error if pipeline creation fails
	RegisterPipelines(pipelines ...pipeline.Pipeline) error

	// CompileShader compiles the shader module on a background goroutine and
	// marks the shader ready (or failed) when module creation completes.
	// Callers gate dependent work on sh.Ready().
	//
	// Parameters:
	//   - sh: the shader to compile
	CompileShader(sh shader.Shader)

	// Resize configures the underlying backend to handle a new surface size.
	// This should be called when re-sizing the window or when the surface size should change.
	//
	// Parameters:
	//   - width: the new width of the surface in pixels
	//   - height: the new height of the surface in pixels
	Resize(width, height int)

	// RenderWidth retrieves the effective render width: the bound render
	// target's width when a target is bound, else the installed size
	// override, else the physical surface width.
	//
	// Returns:
	//   - int: the effective render width in pixels
	RenderWidth() int

	// RenderHeight retrieves the effective render height, with the same
	// precedence as RenderWidth.
	//
	// Returns:
	//   - int: the effective render height in pixels
	RenderHeight() int

	// OverrideRenderSize installs an explicit render-size override so any
	// code querying the current render size observes the given dimensions
	// instead of the physical surface size. A bound render target's own size
	// still takes precedence. Returns a restore function that removes
	// exactly this override; restore is idempotent.
	//
	// Parameters:
	//   - width: the override width in pixels
	//   - height: the override height in pixels
	//
	// Returns:
	//   - func(): restore function removing the override
	OverrideRenderSize(width, height int) (restore func())

	// SuppressPresent reports whether surface presentation is currently suppressed.
	//
	// Returns:
	//   - bool: true if Present is a no-op
	SuppressPresent() bool

	// SetSuppressPresent toggles surface presentation suppression. While
	// set, Present does not deliver frames to the display; offscreen
	// rendering proceeds normally.
	//
	// Parameters:
	//   - suppress: whether to suppress presentation
	SetSuppressPresent(suppress bool)

	// AddResizeListener registers a callback notified whenever the effective
	// render size changes. Returns a function that removes the listener.
	//
	// Parameters:
	//   - listener: callback receiving the new effective width and height
	//
	// Returns:
	//   - func(): removal function for the listener
	AddResizeListener(listener func(width, height int)) (remove func())

	// NotifyResize fires all resize listeners with the current effective
	// render size. Called after installing or removing a size override so
	// viewport-dependent logic observes correct dimensions.
	NotifyResize()

	// OnEndFrameOnce registers a single-shot callback invoked after the next
	// end-of-frame (after EndFrame and Present have run). The callback is
	// removed after firing.
	//
	// Parameters:
	//   - callback: function to invoke once at the next end of frame
	OnEndFrameOnce(callback func())

	// FireEndFrame invokes and clears all pending single-shot end-of-frame
	// callbacks. Driven by the engine loop once per rendered frame.
	FireEndFrame()

	// BindTarget directs the next BeginFrame/EndFrame cycle into the given
	// offscreen target instead of the display surface.
	//
	// Parameters:
	//   - target: the offscreen target to render into
	BindTarget(target RenderTarget)

	// UnbindTarget restores rendering to the display surface.
	UnbindTarget()

	// BoundTarget retrieves the currently bound offscreen target, or nil if
	// rendering goes to the display surface.
	//
	// Returns:
	//   - RenderTarget: the bound target, or nil
	BoundTarget() RenderTarget

	// BeginFrame acquires the frame's color attachment (swapchain texture or
	// bound target view) and begins the main render pass.
	// Must be paired with EndFrame after all DrawMesh invocations within a single frame.
	//
	// Returns:
	//   - error: an error if the attachment could not be acquired
	BeginFrame() error

	// DrawMesh encodes a single instanced draw command within the current render pass.
	// Multiple DrawMesh invocations can be made between BeginFrame and EndFrame.
	//
	// Parameters:
	//   - pipelineKey: the unique identifier for the cached render Pipeline to use
	//   - mesh: the MeshBinding holding vertex and index buffers
	//   - instanceCount: the number of instances to draw
	//
	// Returns:
	//   - error: an error if the pipeline is not found
	DrawMesh(pipelineKey string, mesh MeshBinding, instanceCount uint32) error

	// EndFrame ends the current render pass and submits the command buffer to the GPU.
	// Does not present the surface — call Present() after EndFrame to display the frame.
	// Must be called after BeginFrame and all DrawMesh invocations within a single frame.
	EndFrame()

	// Present presents the surface to the display and releases the swapchain
	// texture. A no-op while presentation is suppressed or a target is bound.
	// Must be called once per frame after EndFrame.
	Present()

	// SetPresentMode sets the surface present mode which controls how frames are delivered to the display.
	// A call to Resize is required after changing this for the new mode to take effect.
	//
	// Parameters:
	//   - mode: the PresentMode to use (VSync or Uncapped)
	SetPresentMode(mode PresentMode)

	// CreateTargetTexture creates an offscreen color texture and view sized
	// to the given dimensions, usable as a render-pass attachment and as a
	// copy source for pixel readback.
	//
	// Parameters:
	//   - label: debug label for the texture
	//   - width: texture width in pixels
	//   - height: texture height in pixels
	//   - samples: multisample count (1 = no MSAA)
	//
	// Returns:
	//   - *wgpu.Texture: the created texture
	//   - *wgpu.TextureView: a view of the texture
	//   - error: an error if texture creation fails
	CreateTargetTexture(label string, width, height, samples int) (*wgpu.Texture, *wgpu.TextureView, error)

	// ApplyPostProcesses runs the given full-screen pass pipelines over the
	// target's texture in order, each pass sampling the previous output and
	// replacing the target's texture with its own. Call after the target's
	// scene pass has been submitted and before reading pixels.
	//
	// Parameters:
	//   - target: the render target to filter
	//   - pipelineKeys: registered pipeline keys, applied in order
	//
	// Returns:
	//   - error: an error if a key is unregistered or a pass fails
	ApplyPostProcesses(target RenderTarget, pipelineKeys []string) error

	// ReadTexturePixels reads back the target's pixels from the GPU:
	// a texture-to-buffer copy, an asynchronous buffer map, and row
	// un-padding into tightly packed top-down RGBA bytes. Blocks the calling
	// goroutine until the readback completes; call off the frame loop.
	//
	// Parameters:
	//   - target: the render target to read from (must have a Texture)
	//
	// Returns:
	//   - common.PixelData: width, height, and tightly packed RGBA pixels
	//   - error: an error if the copy or map fails
	ReadTexturePixels(target RenderTarget) (common.PixelData, error)

	// InitMeshBuffers creates GPU vertex and index buffers from raw byte data.
	//
	// Parameters:
	//   - vertexData: the raw vertex data bytes to upload to the GPU
	//   - indexData: the raw index data bytes to upload to the GPU
	//
	// Returns:
	//   - *wgpu.Buffer: the created vertex buffer
	//   - *wgpu.Buffer: the created index buffer
	//   - error: an error if buffer creation fails
	InitMeshBuffers(vertexData, indexData []byte) (*wgpu.Buffer, *wgpu.Buffer, error)

	// WriteBuffer writes raw bytes into a GPU buffer at the given offset.
	//
	// Parameters:
	//   - buf: the destination GPU buffer
	//   - offset: byte offset within the buffer
	//   - data: the bytes to write
	WriteBuffer(buf *wgpu.Buffer, offset uint64, data []byte)
}

// renderSizeOverride is the explicit scoped render-size override value.
// Held by pointer so a stale restore closure can verify it still owns the
// installed override before clearing it.
type renderSizeOverride struct {
	width  int
	height int
}

var _ Renderer = &rendererImpl{}

// NewRenderer creates a new Renderer instance with the specified backend type and window.
// The window provides the platform-specific surface descriptor for WebGPU surface creation.
//
// Parameters:
//   - backendType: the type of rendering backend to use (e.g., WGPU)
//   - win: the window whose surface the renderer presents to
//   - options: variadic list of RendererBuilderOption functions to configure the Renderer
//
// Returns:
//   - Renderer: a new instance of Renderer configured with the specified backend and options
func NewRenderer(backendType RendererBackendType, win window.Window, options ...RendererBuilderOption) Renderer {
	r := &rendererImpl{
		mu:              &sync.Mutex{},
		pipelineCache:   make(map[string]pipeline.Pipeline),
		backendType:     backendType,
		resizeListeners: make(map[int]func(width, height int)),
	}

	// Apply options first so config flags (e.g. forceFallbackAdapter) are
	// available before the backend requests a GPU adapter.
	for _, opt := range options {
		opt(r)
	}

	msaa := MSAA4x // default
	if r.pendingMSAA != nil {
		msaa = *r.pendingMSAA
	}

	switch backendType {
	case BackendTypeWGPU:
		fallthrough
	default:
		r.backend = newWGPURendererBackend(win.SurfaceDescriptor(), r.forceFallbackAdapter, msaa)
	}

	if r.pendingPresentMode != nil {
		r.backend.SetPresentMode(*r.pendingPresentMode)
	}

	r.surfaceWidth = win.Width()
	r.surfaceHeight = win.Height()
	r.backend.ConfigureSurface(r.surfaceWidth, r.surfaceHeight)
	return r
}

func (r *rendererImpl) Pipeline(key string) pipeline.Pipeline {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pipelineCache[key]
}

func (r *rendererImpl) RegisterPipelines(pipelines ...pipeline.Pipeline) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range pipelines {
		key := p.PipelineKey()
		if _, exists := r.pipelineCache[key]; exists {
			continue
		}
		if err := r.backend.RegisterRenderPipeline(p); err != nil {
			return err
		}
		r.pipelineCache[key] = p
	}
	return nil
}

func (r *rendererImpl) CompileShader(sh shader.Shader) {
	go func() {
		sh.MarkCompiled(r.backend.CompileShaderModule(sh))
	}()
}

func (r *rendererImpl) Resize(width, height int) {
	r.mu.Lock()
	r.surfaceWidth = width
	r.surfaceHeight = height
	r.mu.Unlock()
	r.backend.ConfigureSurface(width, height)
	r.NotifyResize()
}

func (r *rendererImpl) RenderWidth() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.boundTarget != nil {
		return r.boundTarget.Width()
	}
	if r.sizeOverride != nil {
		return r.sizeOverride.width
	}
	return r.surfaceWidth
}

func (r *rendererImpl) RenderHeight() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.boundTarget != nil {
		return r.boundTarget.Height()
	}
	if r.sizeOverride != nil {
		return r.sizeOverride.height
	}
	return r.surfaceHeight
}

func (r *rendererImpl) OverrideRenderSize(width, height int) (restore func()) {
	ov := &renderSizeOverride{width: width, height: height}
	r.mu.Lock()
	r.sizeOverride = ov
	r.mu.Unlock()

	return func() {
		r.mu.Lock()
		// Only clear the override this restore installed; a later override
		// (nested capture) must not be removed by a stale restore.
		if r.sizeOverride == ov {
			r.sizeOverride = nil
		}
		r.mu.Unlock()
	}
}

func (r *rendererImpl) SuppressPresent() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.suppressPresent
}

func (r *rendererImpl) SetSuppressPresent(suppress bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.suppressPresent = suppress
}

func (r *rendererImpl) AddResizeListener(listener func(width, height int)) (remove func()) {
	r.mu.Lock()
	id := r.nextListenerID
	r.nextListenerID++
	r.resizeListeners[id] = listener
	r.mu.Unlock()

	return func() {
		r.mu.Lock()
		delete(r.resizeListeners, id)
		r.mu.Unlock()
	}
}

func (r *rendererImpl) NotifyResize() {
	width := r.RenderWidth()
	height := r.RenderHeight()

	r.mu.Lock()
	listeners := make([]func(int, int), 0, len(r.resizeListeners))
	for _, l := range r.resizeListeners {
		listeners = append(listeners, l)
	}
	r.mu.Unlock()

	for _, l := range listeners {
		l(width, height)
	}
}

func (r *rendererImpl) OnEndFrameOnce(callback func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.endFrameOnce = append(r.endFrameOnce, callback)
}

func (r *rendererImpl) FireEndFrame() {
	r.mu.Lock()
	pending := r.endFrameOnce
	r.endFrameOnce = nil
	r.mu.Unlock()

	for _, cb := range pending {
		cb()
	}
}

func (r *rendererImpl) BindTarget(target RenderTarget) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.boundTarget = target
}

func (r *rendererImpl) UnbindTarget() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.boundTarget = nil
}

func (r *rendererImpl) BoundTarget() RenderTarget {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.boundTarget
}

func (r *rendererImpl) BeginFrame() error {
	r.mu.Lock()
	target := r.boundTarget
	r.mu.Unlock()

	if target != nil {
		return r.backend.BeginTargetFrame(target)
	}
	return r.backend.BeginFrame()
}

func (r *rendererImpl) DrawMesh(pipelineKey string, mesh MeshBinding, instanceCount uint32) error {
	r.mu.Lock()
	p, exists := r.pipelineCache[pipelineKey]
	r.mu.Unlock()

	if !exists {
		return fmt.Errorf("render pipeline %q not found in cache", pipelineKey)
	}

	r.backend.DrawMesh(p, mesh, instanceCount)
	return nil
}

func (r *rendererImpl) EndFrame() {
	r.backend.EndFrame()
}

func (r *rendererImpl) Present() {
	r.mu.Lock()
	skip := r.suppressPresent || r.boundTarget != nil
	r.mu.Unlock()

	if skip {
		return
	}
	r.backend.Present()
}

func (r *rendererImpl) SetPresentMode(mode PresentMode) {
	r.backend.SetPresentMode(mode)
}

func (r *rendererImpl) CreateTargetTexture(label string, width, height, samples int) (*wgpu.Texture, *wgpu.TextureView, error) {
	return r.backend.CreateTargetTexture(label, width, height, samples)
}

func (r *rendererImpl) ApplyPostProcesses(target RenderTarget, pipelineKeys []string) error {
	for _, key := range pipelineKeys {
		p := r.Pipeline(key)
		if p == nil {
			return fmt.Errorf("no pipeline registered for post-process key %q", key)
		}
		if err := r.backend.ApplyScreenPass(target, p); err != nil {
			return fmt.Errorf("post-process pass %q failed: %w", key, err)
		}
	}
	return nil
}

func (r *rendererImpl) ReadTexturePixels(target RenderTarget) (common.PixelData, error) {
	return r.backend.ReadTexturePixels(target)
}

func (r *rendererImpl) InitMeshBuffers(vertexData, indexData []byte) (*wgpu.Buffer, *wgpu.Buffer, error) {
	return r.backend.InitMeshBuffers(vertexData, indexData)
}

func (r *rendererImpl) WriteBuffer(buf *wgpu.Buffer, offset uint64, data []byte) {
	r.backend.WriteBuffer(buf, offset, data)
}
