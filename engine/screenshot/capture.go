// Package screenshot captures one encoded image of a scene from a chosen
// camera. A capture temporarily redirects rendering into an offscreen
// render target, waits for every dependent resource to become ready,
// performs exactly one render pass, reads the pixels back, optionally
// resizes, and encodes — restoring all overridden renderer and scene state
// on every exit path, success or failure.
package screenshot

import (
	"fmt"
	"time"

	"github.com/lumen-engine/lumen-go/common"
	"github.com/lumen-engine/lumen-go/engine/camera"
	"github.com/lumen-engine/lumen-go/engine/renderer"
	"github.com/lumen-engine/lumen-go/engine/rendertarget"
	"github.com/lumen-engine/lumen-go/engine/scene"
)

// captureState names one stage of the capture pipeline. Each state performs
// its work (with at most one suspension point) and yields the next state.
type captureState int

const (
	stateSetup captureState = iota
	stateAwaitShaders
	stateAwaitReadiness
	stateRender
	stateAwaitFrame
	stateReadback
	stateResize
	stateEncode
	stateDone
	stateFailed
)

func (s captureState) String() string {
	switch s {
	case stateSetup:
		return "setup"
	case stateAwaitShaders:
		return "await-shaders"
	case stateAwaitReadiness:
		return "await-readiness"
	case stateRender:
		return "render"
	case stateAwaitFrame:
		return "await-frame"
	case stateReadback:
		return "readback"
	case stateResize:
		return "resize"
	case stateEncode:
		return "encode"
	case stateDone:
		return "done"
	case stateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Result carries the outcome of an asynchronous capture: encoded image
// bytes or the terminal error, never both.
type Result struct {
	Data []byte
	Err  error
}

// Capture renders one frame of the scene from the given camera into an
// offscreen target and returns the encoded image bytes.
//
// The camera is always installed as the scene's active camera for the
// pass, whether or not it already is, so every capture takes the same
// path. Renderer and scene state touched during the capture (render-size
// reporting, presentation suppression, active camera and camera list, the
// camera's output target, sprite enablement, mesh list) are restored
// before Capture returns, on both success and failure. The offscreen
// target is never leaked.
//
// Captures serialize externally: callers must not issue overlapping
// captures or unrelated render work against the same renderer and scene
// until Capture returns.
//
// Parameters:
//   - r: the renderer shared with the scene
//   - scn: the scene to render
//   - cam: the camera to capture from
//   - size: the requested dimensions (see Size for derivation rules)
//   - options: functional options adjusting the capture
//
// Returns:
//   - []byte: the encoded image
//   - error: ErrInvalidSize, ErrReadyTimeout, a RenderError, or a ReadbackError
func Capture(r renderer.Renderer, scn scene.Scene, cam camera.Camera, size Size, options ...CaptureOption) ([]byte, error) {
	c := newCapture(r, scn, cam, size, options...)
	return c.run()
}

// CaptureAsync runs Capture on its own goroutine and delivers the outcome
// on the returned channel. The channel is buffered; the result is never
// dropped if the caller reads late.
//
// Parameters:
//   - r: the renderer shared with the scene
//   - scn: the scene to render
//   - cam: the camera to capture from
//   - size: the requested dimensions
//   - options: functional options adjusting the capture
//
// Returns:
//   - <-chan Result: receives exactly one Result
func CaptureAsync(r renderer.Renderer, scn scene.Scene, cam camera.Camera, size Size, options ...CaptureOption) <-chan Result {
	ch := make(chan Result, 1)
	go func() {
		data, err := Capture(r, scn, cam, size, options...)
		ch <- Result{Data: data, Err: err}
	}()
	return ch
}

type capture struct {
	cfg captureConfig

	r    renderer.Renderer
	scn  scene.Scene
	cam  camera.Camera
	size Size

	resolved resolvedSize
	target   rendertarget.RenderTargetTexture

	// restoreEngine and restoreScene undo the capture's state overrides.
	// Each is nil until its override is installed and nil again once run,
	// so the failure path restores exactly what is still outstanding.
	restoreEngine func()
	restoreScene  func()

	deadline time.Time
	pix      common.PixelData
	encoded  []byte
	err      error
}

func newCapture(r renderer.Renderer, scn scene.Scene, cam camera.Camera, size Size, options ...CaptureOption) *capture {
	cfg := defaultCaptureConfig()
	for _, option := range options {
		option(&cfg)
	}
	return &capture{
		cfg:  cfg,
		r:    r,
		scn:  scn,
		cam:  cam,
		size: size,
	}
}

func (c *capture) run() ([]byte, error) {
	// The offscreen target is never leaked, even when a state panics.
	defer func() {
		if p := recover(); p != nil {
			if c.target != nil {
				c.target.Dispose()
				c.target = nil
			}
			panic(p)
		}
	}()

	state := stateSetup
	for {
		switch state {
		case stateSetup:
			state = c.setup()
		case stateAwaitShaders:
			state = c.awaitShaders()
		case stateAwaitReadiness:
			state = c.awaitReadiness()
		case stateRender:
			state = c.render()
		case stateAwaitFrame:
			state = c.awaitFrame()
		case stateReadback:
			state = c.readback()
		case stateResize:
			state = c.resize()
		case stateEncode:
			state = c.encode()
		case stateDone:
			return c.encoded, nil
		case stateFailed:
			return nil, c.err
		default:
			return nil, fmt.Errorf("screenshot: capture reached invalid state %v", state)
		}
	}
}

// postProcessKeys collects the pipeline keys of the target's post-process
// chain, in attachment order.
func (c *capture) postProcessKeys() []string {
	pps := c.target.PostProcesses()
	if len(pps) == 0 {
		return nil
	}
	keys := make([]string, len(pps))
	for i, pp := range pps {
		keys[i] = pp.PipelineKey()
	}
	return keys
}

// fail restores whatever overrides are still outstanding, disposes the
// offscreen target, and records the terminal error.
func (c *capture) fail(err error) captureState {
	if c.restoreScene != nil {
		c.restoreScene()
		c.restoreScene = nil
	}
	if c.restoreEngine != nil {
		c.restoreEngine()
		c.restoreEngine = nil
	}
	if c.target != nil {
		c.target.Dispose()
		c.target = nil
	}
	c.err = err
	return stateFailed
}

// setup validates the size, installs the renderer overrides, and allocates
// the offscreen surface. Size validation runs before any mutation so an
// invalid request is a pure no-op.
func (c *capture) setup() captureState {
	resolved, err := resolveSize(c.size, c.cam.Aspect())
	if err != nil {
		c.err = err
		return stateFailed
	}
	c.resolved = resolved
	c.deadline = time.Now().Add(c.cfg.readyTimeout)

	// Override the renderer's effective render size so any code querying
	// the current render size during the capture observes the capture
	// dimensions, and suppress presentation so the capture does not also
	// reach the display.
	restoreSize := c.r.OverrideRenderSize(resolved.width, resolved.height)
	prevSuppress := c.r.SuppressPresent()
	c.r.SetSuppressPresent(true)
	c.r.NotifyResize()
	c.restoreEngine = func() {
		restoreSize()
		c.r.SetSuppressPresent(prevSuppress)
		c.r.NotifyResize()
	}

	targetOptions := []rendertarget.RenderTargetOption{
		rendertarget.WithSampleCount(c.cfg.samples),
		rendertarget.WithLayerMask(c.cfg.layerMask),
		rendertarget.WithSpritesEnabled(!c.cfg.spritesDisabled),
		rendertarget.WithActiveCamera(c.cam),
	}
	if c.cfg.stencil {
		targetOptions = append(targetOptions, rendertarget.WithStencil())
	}
	if c.cfg.meshes != nil {
		targetOptions = append(targetOptions, rendertarget.WithRenderList(c.cfg.meshes))
	}

	// The surface is allocated at the raw capture size; a differing final
	// size is produced by the post-readback resize.
	target, err := c.cfg.surfaceFactory("screenshot", resolved.width, resolved.height, c.r, targetOptions...)
	if err != nil {
		return c.fail(fmt.Errorf("screenshot: offscreen surface allocation failed: %w", err))
	}
	c.target = target

	if c.cfg.textureHook != nil {
		c.cfg.textureHook(target)
	}

	if c.cfg.antialias {
		target.AddPostProcess(c.cfg.postProcessFactory(c.r))
		return stateAwaitShaders
	}
	return stateAwaitReadiness
}

// awaitShaders polls until every post-process on the target reports ready,
// deferring the render until antialiasing shaders finish compiling.
func (c *capture) awaitShaders() captureState {
	for {
		ready := true
		for _, pp := range c.target.PostProcesses() {
			if !pp.IsReady() {
				ready = false
				break
			}
		}
		if ready {
			return stateAwaitReadiness
		}
		if time.Now().After(c.deadline) {
			return c.fail(fmt.Errorf("%w: post-process shaders not compiled after %v", ErrReadyTimeout, c.cfg.readyTimeout))
		}
		time.Sleep(c.cfg.pollInterval)
	}
}

// awaitReadiness polls until the offscreen surface and the camera both
// report ready for rendering.
func (c *capture) awaitReadiness() captureState {
	for {
		if c.target.IsReady() && c.cam.IsReady() {
			return stateRender
		}
		if time.Now().After(c.deadline) {
			return c.fail(fmt.Errorf("%w: surface or camera not ready after %v", ErrReadyTimeout, c.cfg.readyTimeout))
		}
		time.Sleep(c.cfg.pollInterval)
	}
}

// onFrameThread runs fn through the configured scheduler and blocks until it
// completes. A panic inside fn is re-raised on the capture goroutine so the
// deferred restoration in render() still runs and the frame loop survives.
func (c *capture) onFrameThread(fn func()) {
	done := make(chan any, 1)
	c.cfg.scheduler(func() {
		defer func() {
			done <- recover()
		}()
		fn()
	})
	if p := <-done; p != nil {
		panic(p)
	}
}

// render snapshots the scene state, swaps in the capture camera and target,
// performs exactly one render pass, and restores everything. Restoration is
// deferred so it runs whether the pass succeeded, failed, or panicked.
func (c *capture) render() captureState {
	prevActive := c.scn.ActiveCamera()
	prevCameras := c.scn.Cameras()
	prevOutput := c.cam.OutputTarget()
	prevSprites := c.scn.SpritesEnabled()
	prevMeshes := c.scn.Meshes()
	prevAspect := c.cam.Aspect()

	c.restoreScene = func() {
		c.scn.SetActiveCamera(prevActive)
		c.scn.SetCameras(prevCameras)
		c.cam.SetOutputTarget(prevOutput)
		c.scn.SetSpritesEnabled(prevSprites)
		c.scn.SetMeshes(prevMeshes)
		// Recompute the camera's matrices so no capture-sized projection
		// survives into normal rendering.
		c.cam.SetAspect(prevAspect)
		c.cam.Update()
	}

	// Unconditional restoration: scene first, then the renderer overrides —
	// deferred so a panic inside the render pass cannot leave the overrides
	// installed. The failure path may have restored already; fail() nils
	// each closure after running it.
	defer func() {
		if c.restoreScene != nil {
			c.restoreScene()
			c.restoreScene = nil
		}
		if c.restoreEngine != nil {
			c.restoreEngine()
			c.restoreEngine = nil
		}
		// The pass drew into a different output target than normal frames,
		// so cached material state must rebuild again for the display path.
		c.scn.IncrementRenderGeneration()
		c.scn.ResetCachedMaterialState()
	}()

	// The capture camera becomes the scene's only camera for the pass,
	// whether or not it was already active — one path for both cases.
	c.scn.SetActiveCamera(c.cam)
	c.scn.SetCameras([]camera.Camera{c.cam})
	c.cam.SetOutputTarget(c.target)
	c.scn.SetSpritesEnabled(!c.cfg.spritesDisabled)
	if c.cfg.meshes != nil {
		c.scn.SetMeshes(c.cfg.meshes)
	}

	// Force cached per-material GPU state to rebuild for the offscreen pass.
	c.scn.IncrementRenderGeneration()
	c.scn.ResetCachedMaterialState()

	c.cam.SetAspect(float32(c.resolved.width) / float32(c.resolved.height))

	var renderErr error
	c.onFrameThread(func() {
		c.r.BindTarget(c.target)
		defer c.r.UnbindTarget()
		renderErr = c.scn.Render()
	})

	if renderErr != nil {
		return c.fail(&RenderError{Err: renderErr})
	}
	return stateAwaitFrame
}

// awaitFrame waits for the next end-of-frame signal before reading pixels,
// so the readback never races a pass still being encoded.
func (c *capture) awaitFrame() captureState {
	done := make(chan struct{})
	c.r.OnEndFrameOnce(func() {
		close(done)
	})

	select {
	case <-done:
		return stateReadback
	case <-time.After(c.cfg.readyTimeout):
		return c.fail(fmt.Errorf("%w: no end-of-frame signal after %v", ErrReadyTimeout, c.cfg.readyTimeout))
	}
}

// readback runs the target's post-process chain, extracts the pixels, and
// disposes the target. Disposal happens on both the success and failure
// paths.
func (c *capture) readback() captureState {
	var (
		pix common.PixelData
		err error
	)
	c.onFrameThread(func() {
		if keys := c.postProcessKeys(); len(keys) > 0 {
			if err = c.r.ApplyPostProcesses(c.target, keys); err != nil {
				return
			}
		}
		pix, err = c.r.ReadTexturePixels(c.target)
	})
	c.target.Dispose()
	c.target = nil

	if err != nil {
		return c.fail(&ReadbackError{Err: err})
	}
	c.pix = pix

	if c.resolved.needsResize() {
		return stateResize
	}
	return stateEncode
}

// resize scales the raw capture to the final output dimensions.
func (c *capture) resize() captureState {
	pix, err := resizePixels(c.pix, c.resolved.finalWidth, c.resolved.finalHeight)
	if err != nil {
		return c.fail(&ReadbackError{Err: err})
	}
	c.pix = pix
	return stateEncode
}

// encode hands the pixels to the configured encoder.
func (c *capture) encode() captureState {
	data, err := c.cfg.encoder(c.pix, c.cfg.format, c.cfg.quality, c.cfg.invertY)
	if err != nil {
		return c.fail(&ReadbackError{Err: err})
	}
	c.encoded = data
	return stateDone
}
