// Package rendertarget provides offscreen render target textures: GPU color
// textures a scene can be rendered into instead of the display surface, with
// an optional curated render list, a dedicated camera, and post-process
// passes. The screenshot pipeline builds one per capture.
package rendertarget

import (
	"fmt"
	"sync"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/lumen-engine/lumen-go/engine/camera"
	"github.com/lumen-engine/lumen-go/engine/mesh"
	"github.com/lumen-engine/lumen-go/engine/postprocess"
	"github.com/lumen-engine/lumen-go/engine/renderer"
)

type renderTargetTexture struct {
	mu *sync.Mutex

	name   string
	width  int
	height int

	sampleCount int
	hasStencil  bool
	layerMask   uint32
	sprites     bool
	mipmaps     bool

	texture     *wgpu.Texture
	textureView *wgpu.TextureView

	renderList   []mesh.Mesh
	activeCamera camera.Camera
	postProcs    []postprocess.PostProcess

	disposed bool
}

// RenderTargetTexture is an offscreen rendering destination with its own
// render list, camera, and post-process chain. It satisfies
// renderer.RenderTarget so the renderer can bind it for a frame and read its
// pixels back.
type RenderTargetTexture interface {
	renderer.RenderTarget

	// LayerMask returns the target's layer mask, applied to the camera
	// rendering into this target.
	//
	// Returns:
	//   - uint32: the layer mask
	LayerMask() uint32

	// SpritesEnabled reports whether sprite rendering participates in
	// passes into this target.
	//
	// Returns:
	//   - bool: true when sprites render into the target
	SpritesEnabled() bool

	// MipmapsEnabled reports whether mip levels are generated for the
	// target texture after rendering.
	//
	// Returns:
	//   - bool: true when mip generation is requested
	MipmapsEnabled() bool

	// RenderList returns the curated list of meshes rendered into this
	// target, or nil when the whole scene renders.
	//
	// Returns:
	//   - []mesh.Mesh: the render list or nil
	RenderList() []mesh.Mesh

	// SetRenderList replaces the curated mesh list. Pass nil to render the
	// whole scene.
	//
	// Parameters:
	//   - meshes: the meshes to render, or nil
	SetRenderList(meshes []mesh.Mesh)

	// ActiveCamera returns the camera passes into this target render from,
	// or nil if unset.
	//
	// Returns:
	//   - camera.Camera: the target's camera or nil
	ActiveCamera() camera.Camera

	// SetActiveCamera sets the camera passes into this target render from.
	//
	// Parameters:
	//   - cam: the camera
	SetActiveCamera(cam camera.Camera)

	// AddPostProcess appends a post-process pass to the target's chain. The
	// target is not ready until the pass is.
	//
	// Parameters:
	//   - pp: the post-process pass to append
	AddPostProcess(pp postprocess.PostProcess)

	// PostProcesses returns a copy of the target's post-process chain.
	//
	// Returns:
	//   - []postprocess.PostProcess: the chain
	PostProcesses() []postprocess.PostProcess
}

var _ RenderTargetTexture = &renderTargetTexture{}

// NewRenderTargetTexture creates an offscreen render target texture with GPU
// resources allocated through the renderer.
//
// Parameters:
//   - name: the target's identifier, used for texture labels
//   - width: target width in pixels
//   - height: target height in pixels
//   - r: the renderer to allocate GPU resources with
//   - options: functional options to configure the target
//
// Returns:
//   - RenderTargetTexture: the created target
//   - error: an error if texture allocation fails
func NewRenderTargetTexture(name string, width, height int, r renderer.Renderer, options ...RenderTargetOption) (RenderTargetTexture, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("render target %q size must be positive, got %dx%d", name, width, height)
	}

	t := &renderTargetTexture{
		mu:          &sync.Mutex{},
		name:        name,
		width:       width,
		height:      height,
		sampleCount: 1,
		layerMask:   0xFFFFFFFF,
		sprites:     true,
	}
	for _, option := range options {
		option(t)
	}

	texture, view, err := r.CreateTargetTexture(name, width, height, t.sampleCount)
	if err != nil {
		return nil, fmt.Errorf("render target %q texture allocation failed: %w", name, err)
	}
	t.texture = texture
	t.textureView = view

	return t, nil
}

func (t *renderTargetTexture) Name() string {
	return t.name
}

func (t *renderTargetTexture) Width() int {
	return t.width
}

func (t *renderTargetTexture) Height() int {
	return t.height
}

func (t *renderTargetTexture) SampleCount() int {
	return t.sampleCount
}

func (t *renderTargetTexture) HasStencil() bool {
	return t.hasStencil
}

func (t *renderTargetTexture) LayerMask() uint32 {
	return t.layerMask
}

func (t *renderTargetTexture) SpritesEnabled() bool {
	return t.sprites
}

func (t *renderTargetTexture) MipmapsEnabled() bool {
	return t.mipmaps
}

func (t *renderTargetTexture) Texture() *wgpu.Texture {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.texture
}

func (t *renderTargetTexture) TextureView() *wgpu.TextureView {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.textureView
}

func (t *renderTargetTexture) ReplaceTexture(texture *wgpu.Texture, view *wgpu.TextureView) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.textureView != nil {
		t.textureView.Release()
	}
	if t.texture != nil {
		t.texture.Release()
	}
	t.texture = texture
	t.textureView = view
}

func (t *renderTargetTexture) RenderList() []mesh.Mesh {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.renderList == nil {
		return nil
	}
	out := make([]mesh.Mesh, len(t.renderList))
	copy(out, t.renderList)
	return out
}

func (t *renderTargetTexture) SetRenderList(meshes []mesh.Mesh) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if meshes == nil {
		t.renderList = nil
		return
	}
	t.renderList = make([]mesh.Mesh, len(meshes))
	copy(t.renderList, meshes)
}

func (t *renderTargetTexture) ActiveCamera() camera.Camera {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.activeCamera
}

func (t *renderTargetTexture) SetActiveCamera(cam camera.Camera) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.activeCamera = cam
}

func (t *renderTargetTexture) AddPostProcess(pp postprocess.PostProcess) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.postProcs = append(t.postProcs, pp)
}

func (t *renderTargetTexture) PostProcesses() []postprocess.PostProcess {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]postprocess.PostProcess, len(t.postProcs))
	copy(out, t.postProcs)
	return out
}

// IsReady reports whether the target's texture is allocated, every mesh in
// its render list has GPU buffers, and every post-process shader has
// compiled. A disposed target is never ready.
func (t *renderTargetTexture) IsReady() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.disposed || t.texture == nil || t.textureView == nil {
		return false
	}
	for _, m := range t.renderList {
		if !m.IsReady() {
			return false
		}
	}
	for _, pp := range t.postProcs {
		if !pp.IsReady() {
			return false
		}
	}
	return true
}

func (t *renderTargetTexture) Dispose() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.disposed {
		return
	}
	t.disposed = true

	for _, pp := range t.postProcs {
		pp.Dispose()
	}
	t.postProcs = nil
	t.renderList = nil

	if t.textureView != nil {
		t.textureView.Release()
		t.textureView = nil
	}
	if t.texture != nil {
		t.texture.Release()
		t.texture = nil
	}
}
