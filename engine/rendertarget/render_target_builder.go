package rendertarget

import (
	"github.com/lumen-engine/lumen-go/engine/camera"
	"github.com/lumen-engine/lumen-go/engine/mesh"
)

type RenderTargetOption func(*renderTargetTexture)

// WithSampleCount sets the multisample count for passes into the target.
//
// Parameters:
//   - samples: the sample count (1 = no MSAA)
//
// Returns:
//   - RenderTargetOption: a function that sets the sample count
func WithSampleCount(samples int) RenderTargetOption {
	return func(t *renderTargetTexture) {
		t.sampleCount = max(samples, 1)
	}
}

// WithStencil attaches a stencil aspect to the target's depth buffer.
//
// Returns:
//   - RenderTargetOption: a function that enables the stencil buffer
func WithStencil() RenderTargetOption {
	return func(t *renderTargetTexture) {
		t.hasStencil = true
	}
}

// WithLayerMask sets the layer mask applied to the camera rendering into
// this target.
//
// Parameters:
//   - mask: the layer mask
//
// Returns:
//   - RenderTargetOption: a function that sets the layer mask
func WithLayerMask(mask uint32) RenderTargetOption {
	return func(t *renderTargetTexture) {
		t.layerMask = mask
	}
}

// WithSpritesEnabled sets whether sprite rendering participates in passes
// into the target.
//
// Parameters:
//   - enabled: true to render sprites
//
// Returns:
//   - RenderTargetOption: a function that sets the sprites flag
func WithSpritesEnabled(enabled bool) RenderTargetOption {
	return func(t *renderTargetTexture) {
		t.sprites = enabled
	}
}

// WithMipmaps requests mip level generation for the target texture.
//
// Returns:
//   - RenderTargetOption: a function that enables mip generation
func WithMipmaps() RenderTargetOption {
	return func(t *renderTargetTexture) {
		t.mipmaps = true
	}
}

// WithRenderList sets the curated list of meshes rendered into the target.
//
// Parameters:
//   - meshes: the meshes to render
//
// Returns:
//   - RenderTargetOption: a function that sets the render list
func WithRenderList(meshes []mesh.Mesh) RenderTargetOption {
	return func(t *renderTargetTexture) {
		t.renderList = make([]mesh.Mesh, len(meshes))
		copy(t.renderList, meshes)
	}
}

// WithActiveCamera sets the camera passes into the target render from.
//
// Parameters:
//   - cam: the camera
//
// Returns:
//   - RenderTargetOption: a function that sets the camera
func WithActiveCamera(cam camera.Camera) RenderTargetOption {
	return func(t *renderTargetTexture) {
		t.activeCamera = cam
	}
}
