package screenshot

import (
	"time"

	"github.com/lumen-engine/lumen-go/engine/mesh"
	"github.com/lumen-engine/lumen-go/engine/postprocess"
	"github.com/lumen-engine/lumen-go/engine/renderer"
	"github.com/lumen-engine/lumen-go/engine/rendertarget"
)

// SurfaceFactory builds the offscreen surface a capture renders into.
// Overridable so tests can substitute a surface without GPU resources.
type SurfaceFactory func(name string, width, height int, r renderer.Renderer, options ...rendertarget.RenderTargetOption) (rendertarget.RenderTargetTexture, error)

// PostProcessFactory builds the antialiasing pass attached when
// WithAntialiasing is requested.
type PostProcessFactory func(r renderer.Renderer) postprocess.PostProcess

type captureConfig struct {
	samples         int
	antialias       bool
	stencil         bool
	layerMask       uint32
	spritesDisabled bool

	format  Format
	quality int
	invertY bool
	encoder Encoder

	textureHook func(rendertarget.RenderTargetTexture)
	meshes      []mesh.Mesh

	readyTimeout time.Duration
	pollInterval time.Duration

	scheduler          func(fn func())
	surfaceFactory     SurfaceFactory
	postProcessFactory PostProcessFactory
}

func defaultCaptureConfig() captureConfig {
	return captureConfig{
		samples:      1,
		layerMask:    0xFFFFFFFF,
		format:       FormatPNG,
		quality:      90,
		encoder:      defaultEncode,
		readyTimeout: 30 * time.Second,
		pollInterval: 16 * time.Millisecond,
		scheduler:    func(fn func()) { fn() },
		surfaceFactory: func(name string, width, height int, r renderer.Renderer, options ...rendertarget.RenderTargetOption) (rendertarget.RenderTargetTexture, error) {
			return rendertarget.NewRenderTargetTexture(name, width, height, r, options...)
		},
		postProcessFactory: postprocess.NewFXAA,
	}
}

type CaptureOption func(*captureConfig)

// WithSamples sets the multisample count for the capture pass.
//
// Parameters:
//   - samples: the sample count (1 = no MSAA)
//
// Returns:
//   - CaptureOption: a function that sets the sample count
func WithSamples(samples int) CaptureOption {
	return func(c *captureConfig) {
		c.samples = max(samples, 1)
	}
}

// WithAntialiasing attaches an FXAA post-process to the capture target. The
// render pass is deferred until the antialiasing shaders finish compiling.
//
// Returns:
//   - CaptureOption: a function that enables antialiasing
func WithAntialiasing() CaptureOption {
	return func(c *captureConfig) {
		c.antialias = true
	}
}

// WithStencil attaches a stencil aspect to the capture target's depth buffer.
//
// Returns:
//   - CaptureOption: a function that enables the stencil buffer
func WithStencil() CaptureOption {
	return func(c *captureConfig) {
		c.stencil = true
	}
}

// WithLayerMask restricts the capture to meshes whose layer mask intersects
// the given mask.
//
// Parameters:
//   - mask: the layer mask
//
// Returns:
//   - CaptureOption: a function that sets the layer mask
func WithLayerMask(mask uint32) CaptureOption {
	return func(c *captureConfig) {
		c.layerMask = mask
	}
}

// WithSpritesDisabled excludes sprite rendering from the capture pass.
//
// Returns:
//   - CaptureOption: a function that disables sprites
func WithSpritesDisabled() CaptureOption {
	return func(c *captureConfig) {
		c.spritesDisabled = true
	}
}

// WithFormat sets the encoded output format.
//
// Parameters:
//   - format: FormatPNG or FormatJPEG
//
// Returns:
//   - CaptureOption: a function that sets the format
func WithFormat(format Format) CaptureOption {
	return func(c *captureConfig) {
		c.format = format
	}
}

// WithQuality sets the JPEG quality. Ignored for PNG output.
//
// Parameters:
//   - quality: quality in [1, 100]
//
// Returns:
//   - CaptureOption: a function that sets the quality
func WithQuality(quality int) CaptureOption {
	return func(c *captureConfig) {
		c.quality = quality
	}
}

// WithInvertY flips the capture vertically before encoding.
//
// Returns:
//   - CaptureOption: a function that enables vertical flipping
func WithInvertY() CaptureOption {
	return func(c *captureConfig) {
		c.invertY = true
	}
}

// WithEncoder substitutes a custom encoder for the built-in PNG/JPEG one.
//
// Parameters:
//   - encoder: the encoder to use
//
// Returns:
//   - CaptureOption: a function that sets the encoder
func WithEncoder(encoder Encoder) CaptureOption {
	return func(c *captureConfig) {
		if encoder != nil {
			c.encoder = encoder
		}
	}
}

// WithTextureHook registers a callback invoked with the offscreen surface
// right after allocation, before any waiting or rendering, so callers can
// customize the target.
//
// Parameters:
//   - hook: the customization callback
//
// Returns:
//   - CaptureOption: a function that sets the hook
func WithTextureHook(hook func(rendertarget.RenderTargetTexture)) CaptureOption {
	return func(c *captureConfig) {
		c.textureHook = hook
	}
}

// WithMeshes restricts the capture to the given meshes instead of the
// scene's full mesh list.
//
// Parameters:
//   - meshes: the meshes to render
//
// Returns:
//   - CaptureOption: a function that sets the capture mesh list
func WithMeshes(meshes []mesh.Mesh) CaptureOption {
	return func(c *captureConfig) {
		c.meshes = meshes
	}
}

// WithReadyTimeout bounds how long the capture waits for shaders, the
// offscreen surface, the camera, and the end-of-frame signal. On expiry the
// capture fails with ErrReadyTimeout and all state is restored. Defaults to
// 30 seconds.
//
// Parameters:
//   - timeout: the readiness deadline
//
// Returns:
//   - CaptureOption: a function that sets the timeout
func WithReadyTimeout(timeout time.Duration) CaptureOption {
	return func(c *captureConfig) {
		if timeout > 0 {
			c.readyTimeout = timeout
		}
	}
}

// WithPollInterval sets the interval between readiness checks. Defaults to
// 16 milliseconds.
//
// Parameters:
//   - interval: the polling interval
//
// Returns:
//   - CaptureOption: a function that sets the interval
func WithPollInterval(interval time.Duration) CaptureOption {
	return func(c *captureConfig) {
		if interval > 0 {
			c.pollInterval = interval
		}
	}
}

// WithFrameScheduler routes the capture's render pass, post-process passes,
// and pixel readback through the given scheduler instead of running them on
// the capture goroutine. An engine loop passes a scheduler that executes
// work on the render goroutine between frames, so capture GPU work never
// races concurrently rendered frames. The scheduler must eventually run
// every function it receives; the capture blocks until each one completes.
//
// Parameters:
//   - scheduler: function that runs the given work on the frame goroutine
//
// Returns:
//   - CaptureOption: a function that sets the scheduler
func WithFrameScheduler(scheduler func(fn func())) CaptureOption {
	return func(c *captureConfig) {
		if scheduler != nil {
			c.scheduler = scheduler
		}
	}
}

// WithSurfaceFactory substitutes the offscreen surface constructor.
//
// Parameters:
//   - factory: the surface factory
//
// Returns:
//   - CaptureOption: a function that sets the factory
func WithSurfaceFactory(factory SurfaceFactory) CaptureOption {
	return func(c *captureConfig) {
		if factory != nil {
			c.surfaceFactory = factory
		}
	}
}

// WithPostProcessFactory substitutes the antialiasing pass constructor used
// when WithAntialiasing is requested.
//
// Parameters:
//   - factory: the post-process factory
//
// Returns:
//   - CaptureOption: a function that sets the factory
func WithPostProcessFactory(factory PostProcessFactory) CaptureOption {
	return func(c *captureConfig) {
		if factory != nil {
			c.postProcessFactory = factory
		}
	}
}
