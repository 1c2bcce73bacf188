package screenshot

import (
	"bytes"
	"errors"
	"fmt"
	"image/png"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumen-engine/lumen-go/common"
	"github.com/lumen-engine/lumen-go/engine/camera"
	"github.com/lumen-engine/lumen-go/engine/mesh"
	"github.com/lumen-engine/lumen-go/engine/postprocess"
	"github.com/lumen-engine/lumen-go/engine/renderer"
	"github.com/lumen-engine/lumen-go/engine/rendertarget"
	"github.com/lumen-engine/lumen-go/engine/scene"
)

// The fakes embed their interface so only the methods the capture pipeline
// actually touches need stubs; an unexpected call panics on the nil embed.

type fakeRenderer struct {
	renderer.Renderer

	mu sync.Mutex

	surfaceW, surfaceH int

	override      *[2]int
	overrideCalls int
	suppress      bool
	suppressCalls int
	notifyCount   int

	bound      renderer.RenderTarget
	boundAtSet []renderer.RenderTarget

	readbackErr error
	readCount   int

	applyErr    error
	appliedKeys [][]string

	// events records GPU-facing calls in order.
	events []string
}

func newFakeRenderer() *fakeRenderer {
	return &fakeRenderer{surfaceW: 1280, surfaceH: 720}
}

func (r *fakeRenderer) RenderWidth() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.bound != nil {
		return r.bound.Width()
	}
	if r.override != nil {
		return r.override[0]
	}
	return r.surfaceW
}

func (r *fakeRenderer) RenderHeight() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.bound != nil {
		return r.bound.Height()
	}
	if r.override != nil {
		return r.override[1]
	}
	return r.surfaceH
}

func (r *fakeRenderer) OverrideRenderSize(width, height int) func() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.overrideCalls++
	installed := &[2]int{width, height}
	r.override = installed
	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if r.override == installed {
			r.override = nil
		}
	}
}

func (r *fakeRenderer) SuppressPresent() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.suppress
}

func (r *fakeRenderer) SetSuppressPresent(suppress bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.suppressCalls++
	r.suppress = suppress
}

func (r *fakeRenderer) NotifyResize() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notifyCount++
}

func (r *fakeRenderer) BindTarget(target renderer.RenderTarget) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bound = target
	r.boundAtSet = append(r.boundAtSet, target)
}

func (r *fakeRenderer) UnbindTarget() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bound = nil
}

func (r *fakeRenderer) BoundTarget() renderer.RenderTarget {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.bound
}

// OnEndFrameOnce fires immediately: the fake has no frame loop, so the
// end-of-frame signal arrives as soon as the capture asks for it.
func (r *fakeRenderer) OnEndFrameOnce(callback func()) {
	callback()
}

func (r *fakeRenderer) ApplyPostProcesses(target renderer.RenderTarget, pipelineKeys []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	keys := make([]string, len(pipelineKeys))
	copy(keys, pipelineKeys)
	r.appliedKeys = append(r.appliedKeys, keys)
	r.events = append(r.events, "postprocess")
	return r.applyErr
}

// ReadTexturePixels returns a deterministic gradient sized to the target so
// sequential captures produce byte-identical output.
func (r *fakeRenderer) ReadTexturePixels(target renderer.RenderTarget) (common.PixelData, error) {
	r.mu.Lock()
	r.readCount++
	r.events = append(r.events, "readback")
	err := r.readbackErr
	r.mu.Unlock()
	if err != nil {
		return common.PixelData{}, err
	}

	w, h := target.Width(), target.Height()
	pixels := make([]byte, w*h*4)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := (y*w + x) * 4
			pixels[i] = byte(x)
			pixels[i+1] = byte(y)
			pixels[i+2] = byte(x ^ y)
			pixels[i+3] = 0xFF
		}
	}
	return common.PixelData{Pixels: pixels, Width: w, Height: h}, nil
}

type fakeScene struct {
	scene.Scene

	mu sync.Mutex

	activeCamera camera.Camera
	cameras      []camera.Camera
	meshes       []mesh.Mesh
	sprites      bool

	generation int64
	resetCalls int

	renderErr   error
	renderCount int
	onRender    func()
}

func newFakeScene(cam camera.Camera) *fakeScene {
	return &fakeScene{
		activeCamera: cam,
		cameras:      []camera.Camera{cam},
		sprites:      true,
	}
}

func (s *fakeScene) ActiveCamera() camera.Camera {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeCamera
}

func (s *fakeScene) SetActiveCamera(cam camera.Camera) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activeCamera = cam
}

func (s *fakeScene) Cameras() []camera.Camera {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]camera.Camera, len(s.cameras))
	copy(out, s.cameras)
	return out
}

func (s *fakeScene) SetCameras(cams []camera.Camera) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cameras = make([]camera.Camera, len(cams))
	copy(s.cameras, cams)
}

func (s *fakeScene) Meshes() []mesh.Mesh {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]mesh.Mesh, len(s.meshes))
	copy(out, s.meshes)
	return out
}

func (s *fakeScene) SetMeshes(meshes []mesh.Mesh) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.meshes = make([]mesh.Mesh, len(meshes))
	copy(s.meshes, meshes)
}

func (s *fakeScene) SpritesEnabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sprites
}

func (s *fakeScene) SetSpritesEnabled(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sprites = enabled
}

func (s *fakeScene) IncrementRenderGeneration() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	return s.generation
}

func (s *fakeScene) ResetCachedMaterialState() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetCalls++
}

func (s *fakeScene) Render() error {
	s.mu.Lock()
	s.renderCount++
	hook := s.onRender
	err := s.renderErr
	s.mu.Unlock()
	if hook != nil {
		hook()
	}
	return err
}

type fakeCamera struct {
	camera.Camera

	mu sync.Mutex

	aspect       float32
	outputTarget renderer.RenderTarget
	updateCount  int
}

func newFakeCamera(aspect float32) *fakeCamera {
	return &fakeCamera{aspect: aspect}
}

func (c *fakeCamera) Aspect() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.aspect
}

func (c *fakeCamera) SetAspect(aspect float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.aspect = aspect
}

func (c *fakeCamera) OutputTarget() renderer.RenderTarget {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.outputTarget
}

func (c *fakeCamera) SetOutputTarget(target renderer.RenderTarget) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.outputTarget = target
}

func (c *fakeCamera) Update() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.updateCount++
}

func (c *fakeCamera) IsReady() bool {
	return true
}

type fakeTarget struct {
	rendertarget.RenderTargetTexture

	mu sync.Mutex

	width, height int
	ready         bool
	disposeCount  int
	postProcs     []postprocess.PostProcess
}

func (t *fakeTarget) Name() string { return "screenshot" }

func (t *fakeTarget) Width() int { return t.width }

func (t *fakeTarget) Height() int { return t.height }

func (t *fakeTarget) IsReady() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.ready
}

func (t *fakeTarget) Dispose() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.disposeCount++
}

func (t *fakeTarget) AddPostProcess(pp postprocess.PostProcess) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.postProcs = append(t.postProcs, pp)
}

func (t *fakeTarget) PostProcesses() []postprocess.PostProcess {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]postprocess.PostProcess, len(t.postProcs))
	copy(out, t.postProcs)
	return out
}

type fakePostProcess struct {
	mu         sync.Mutex
	readyAfter int
	checks     int
	disposed   bool
}

func (p *fakePostProcess) Name() string { return "fake" }

func (p *fakePostProcess) PipelineKey() string { return "fake" }

func (p *fakePostProcess) IsReady() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.checks++
	return p.checks > p.readyAfter
}

func (p *fakePostProcess) Dispose() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.disposed = true
}

var _ postprocess.PostProcess = &fakePostProcess{}

// fixture wires a renderer, scene, camera, and surface factory together with
// the knobs each test adjusts.
type fixture struct {
	r       *fakeRenderer
	scn     *fakeScene
	cam     *fakeCamera
	targets []*fakeTarget
	allocs  int
}

func newFixture(aspect float32) *fixture {
	cam := newFakeCamera(aspect)
	return &fixture{
		r:   newFakeRenderer(),
		scn: newFakeScene(cam),
		cam: cam,
	}
}

func (f *fixture) factory() SurfaceFactory {
	return func(name string, width, height int, r renderer.Renderer, options ...rendertarget.RenderTargetOption) (rendertarget.RenderTargetTexture, error) {
		f.allocs++
		t := &fakeTarget{width: width, height: height, ready: true}
		f.targets = append(f.targets, t)
		return t, nil
	}
}

func (f *fixture) options(extra ...CaptureOption) []CaptureOption {
	opts := []CaptureOption{
		WithSurfaceFactory(f.factory()),
		WithPollInterval(time.Millisecond),
	}
	return append(opts, extra...)
}

// assertRestored checks that every piece of renderer, scene, and camera state
// the capture touches is back to its pre-capture value.
func assertRestored(t *testing.T, f *fixture, prevActive camera.Camera, prevCameras int, prevAspect float32) {
	t.Helper()
	assert.Nil(t, f.r.override, "render-size override should be removed")
	assert.False(t, f.r.suppress, "presentation should not stay suppressed")
	assert.Nil(t, f.r.bound, "no target should stay bound")
	assert.Same(t, prevActive, f.scn.ActiveCamera())
	assert.Len(t, f.scn.Cameras(), prevCameras)
	assert.Nil(t, f.cam.OutputTarget(), "camera should detach from the capture target")
	assert.True(t, f.scn.SpritesEnabled())
	assert.Equal(t, prevAspect, f.cam.Aspect())
	for _, target := range f.targets {
		assert.GreaterOrEqual(t, target.disposeCount, 1, "offscreen surface must be disposed")
	}
}

func TestCaptureRendersExactlyOnce(t *testing.T) {
	f := newFixture(1.0)

	data, err := Capture(f.r, f.scn, f.cam, Uniform(64), f.options()...)
	require.NoError(t, err)
	require.NotEmpty(t, data)

	assert.Equal(t, 1, f.scn.renderCount, "exactly one render pass")
	assert.Equal(t, 1, f.allocs, "exactly one offscreen surface allocation")
	assert.Equal(t, 1, f.r.readCount, "exactly one readback")
	assertRestored(t, f, f.cam, 1, 1.0)
}

func TestCaptureRendersThroughBoundTarget(t *testing.T) {
	f := newFixture(1.0)

	f.scn.onRender = func() {
		require.Len(t, f.targets, 1)
		assert.Same(t, renderer.RenderTarget(f.targets[0]), f.r.BoundTarget(), "pass must render into the capture target")
		assert.Same(t, camera.Camera(f.cam), f.scn.ActiveCamera(), "capture camera must be active during the pass")
		assert.Len(t, f.scn.Cameras(), 1, "capture camera must be the only camera during the pass")
	}

	_, err := Capture(f.r, f.scn, f.cam, Uniform(32), f.options()...)
	require.NoError(t, err)
}

func TestCaptureSwapsInInactiveCamera(t *testing.T) {
	prevActive := newFakeCamera(1.0)
	f := newFixture(2.0)
	f.scn.activeCamera = prevActive
	f.scn.cameras = []camera.Camera{prevActive, f.cam}

	f.scn.onRender = func() {
		assert.Same(t, camera.Camera(f.cam), f.scn.ActiveCamera())
	}

	_, err := Capture(f.r, f.scn, f.cam, Uniform(32), f.options()...)
	require.NoError(t, err)

	assertRestored(t, f, prevActive, 2, 2.0)
}

func TestCaptureUniformSize(t *testing.T) {
	f := newFixture(1.0)

	data, err := Capture(f.r, f.scn, f.cam, Uniform(256), f.options()...)
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 256, img.Bounds().Dx())
	assert.Equal(t, 256, img.Bounds().Dy())
}

func TestCaptureDerivesHeightFromAspect(t *testing.T) {
	f := newFixture(2.0)

	data, err := Capture(f.r, f.scn, f.cam, Size{Width: 300}, f.options()...)
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 300, img.Bounds().Dx())
	assert.Equal(t, 150, img.Bounds().Dy())
}

func TestCaptureResizesToFinalSize(t *testing.T) {
	f := newFixture(1.0)

	data, err := Capture(f.r, f.scn, f.cam,
		Size{Width: 100, Height: 50, FinalWidth: 400, FinalHeight: 200},
		f.options()...)
	require.NoError(t, err)

	// Raw capture at the requested size, output at the final size.
	require.Len(t, f.targets, 1)
	assert.Equal(t, 100, f.targets[0].width)
	assert.Equal(t, 50, f.targets[0].height)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 400, img.Bounds().Dx())
	assert.Equal(t, 200, img.Bounds().Dy())
}

func TestCaptureInvalidSizeMutatesNothing(t *testing.T) {
	f := newFixture(0)

	data, err := Capture(f.r, f.scn, f.cam, Size{}, f.options()...)
	require.ErrorIs(t, err, ErrInvalidSize)
	assert.Nil(t, data)

	assert.Equal(t, 0, f.allocs, "no surface allocated")
	assert.Equal(t, 0, f.scn.renderCount, "no render pass")
	assert.Equal(t, 0, f.r.overrideCalls, "no render-size override installed")
	assert.Equal(t, 0, f.r.suppressCalls, "presentation untouched")
	assert.Equal(t, 0, f.r.notifyCount, "no resize notification")
}

func TestCaptureZeroAspectCannotDerive(t *testing.T) {
	f := newFixture(0)

	_, err := Capture(f.r, f.scn, f.cam, Size{Width: 300}, f.options()...)
	require.ErrorIs(t, err, ErrInvalidSize)
	assert.Equal(t, 0, f.allocs)
}

func TestCaptureSequentialIdempotence(t *testing.T) {
	f := newFixture(1.0)

	first, err := Capture(f.r, f.scn, f.cam, Uniform(48), f.options()...)
	require.NoError(t, err)
	second, err := Capture(f.r, f.scn, f.cam, Uniform(48), f.options()...)
	require.NoError(t, err)

	assert.Equal(t, first, second, "identical requests produce identical bytes")
	assert.Equal(t, 2, f.scn.renderCount)
	assertRestored(t, f, f.cam, 1, 1.0)
}

func TestCaptureRestoresStateOnRenderFailure(t *testing.T) {
	f := newFixture(1.5)
	f.scn.renderErr = errors.New("pipeline missing")

	data, err := Capture(f.r, f.scn, f.cam, Uniform(64), f.options()...)
	require.Error(t, err)
	assert.Nil(t, data)

	var renderErr *RenderError
	require.ErrorAs(t, err, &renderErr)
	assert.ErrorIs(t, renderErr.Err, f.scn.renderErr)

	assertRestored(t, f, f.cam, 1, 1.5)
}

func TestCaptureAntialiasingDefersUntilShadersReady(t *testing.T) {
	f := newFixture(1.0)
	pp := &fakePostProcess{readyAfter: 3}

	f.scn.onRender = func() {
		assert.Greater(t, pp.checks, pp.readyAfter, "render must wait for post-process shaders")
	}

	data, err := Capture(f.r, f.scn, f.cam, Uniform(64), f.options(
		WithAntialiasing(),
		WithPostProcessFactory(func(renderer.Renderer) postprocess.PostProcess { return pp }),
	)...)
	require.NoError(t, err)
	require.NotEmpty(t, data)

	assert.Equal(t, 1, f.scn.renderCount, "still exactly one render pass")
	require.Len(t, f.targets, 1)
	assert.Len(t, f.targets[0].PostProcesses(), 1)
}

func TestCaptureAppliesPostProcessesBeforeReadback(t *testing.T) {
	f := newFixture(1.0)
	pp := &fakePostProcess{}

	data, err := Capture(f.r, f.scn, f.cam, Uniform(64), f.options(
		WithAntialiasing(),
		WithPostProcessFactory(func(renderer.Renderer) postprocess.PostProcess { return pp }),
	)...)
	require.NoError(t, err)
	require.NotEmpty(t, data)

	require.Len(t, f.r.appliedKeys, 1, "post-process chain runs exactly once")
	assert.Equal(t, []string{pp.PipelineKey()}, f.r.appliedKeys[0])
	assert.Equal(t, []string{"postprocess", "readback"}, f.r.events,
		"pixels are read after the post-process pass replaced the texture")
}

func TestCaptureWithoutPostProcessesSkipsApply(t *testing.T) {
	f := newFixture(1.0)

	_, err := Capture(f.r, f.scn, f.cam, Uniform(32), f.options()...)
	require.NoError(t, err)

	assert.Empty(t, f.r.appliedKeys)
	assert.Equal(t, []string{"readback"}, f.r.events)
}

func TestCapturePostProcessFailureRestoresState(t *testing.T) {
	f := newFixture(1.0)
	f.r.applyErr = errors.New("pass pipeline lost")

	data, err := Capture(f.r, f.scn, f.cam, Uniform(64), f.options(
		WithAntialiasing(),
		WithPostProcessFactory(func(renderer.Renderer) postprocess.PostProcess { return &fakePostProcess{} }),
	)...)
	require.Error(t, err)
	assert.Nil(t, data)

	var readbackErr *ReadbackError
	require.ErrorAs(t, err, &readbackErr)
	assert.ErrorIs(t, readbackErr.Err, f.r.applyErr)

	assert.Equal(t, 0, f.r.readCount, "no readback after a failed post-process pass")
	assertRestored(t, f, f.cam, 1, 1.0)
}

func TestCaptureRunsFrameWorkOnScheduler(t *testing.T) {
	f := newFixture(1.0)

	var scheduled int
	inScheduler := false
	scheduler := func(fn func()) {
		scheduled++
		inScheduler = true
		fn()
		inScheduler = false
	}

	f.scn.onRender = func() {
		assert.True(t, inScheduler, "render pass must run through the scheduler")
	}

	data, err := Capture(f.r, f.scn, f.cam, Uniform(64), f.options(
		WithFrameScheduler(scheduler),
	)...)
	require.NoError(t, err)
	require.NotEmpty(t, data)

	assert.Equal(t, 2, scheduled, "render and readback each go through the scheduler")
}

func TestCaptureRestoresStateOnRenderPanic(t *testing.T) {
	f := newFixture(1.5)
	f.scn.onRender = func() {
		panic("device lost")
	}

	assert.PanicsWithValue(t, "device lost", func() {
		_, _ = Capture(f.r, f.scn, f.cam, Uniform(64), f.options()...)
	})

	assertRestored(t, f, f.cam, 1, 1.5)
}

func TestCaptureReadyTimeout(t *testing.T) {
	f := newFixture(1.0)
	factory := func(name string, width, height int, r renderer.Renderer, options ...rendertarget.RenderTargetOption) (rendertarget.RenderTargetTexture, error) {
		f.allocs++
		target := &fakeTarget{width: width, height: height, ready: false}
		f.targets = append(f.targets, target)
		return target, nil
	}

	_, err := Capture(f.r, f.scn, f.cam, Uniform(64),
		WithSurfaceFactory(factory),
		WithPollInterval(time.Millisecond),
		WithReadyTimeout(20*time.Millisecond),
	)
	require.ErrorIs(t, err, ErrReadyTimeout)

	assert.Equal(t, 0, f.scn.renderCount, "no render pass on timeout")
	assert.Nil(t, f.r.override)
	assert.False(t, f.r.suppress)
	require.Len(t, f.targets, 1)
	assert.GreaterOrEqual(t, f.targets[0].disposeCount, 1)
}

func TestCaptureSurfaceAllocationFailure(t *testing.T) {
	f := newFixture(1.0)
	factory := func(name string, width, height int, r renderer.Renderer, options ...rendertarget.RenderTargetOption) (rendertarget.RenderTargetTexture, error) {
		return nil, fmt.Errorf("out of memory")
	}

	_, err := Capture(f.r, f.scn, f.cam, Uniform(64),
		WithSurfaceFactory(factory),
		WithPollInterval(time.Millisecond),
	)
	require.Error(t, err)
	assert.Nil(t, f.r.override)
	assert.False(t, f.r.suppress)
	assert.Equal(t, 0, f.scn.renderCount)
}

func TestCaptureReadbackFailure(t *testing.T) {
	f := newFixture(1.0)
	f.r.readbackErr = errors.New("device lost")

	_, err := Capture(f.r, f.scn, f.cam, Uniform(64), f.options()...)
	require.Error(t, err)

	var readbackErr *ReadbackError
	require.ErrorAs(t, err, &readbackErr)
	assertRestored(t, f, f.cam, 1, 1.0)
}

func TestCaptureEncoderFailure(t *testing.T) {
	f := newFixture(1.0)
	encodeErr := errors.New("encode boom")

	_, err := Capture(f.r, f.scn, f.cam, Uniform(64), f.options(
		WithEncoder(func(pix common.PixelData, format Format, quality int, invertY bool) ([]byte, error) {
			return nil, encodeErr
		}),
	)...)
	require.ErrorIs(t, err, encodeErr)
	assertRestored(t, f, f.cam, 1, 1.0)
}

func TestCaptureCustomEncoderReceivesPixels(t *testing.T) {
	f := newFixture(1.0)
	var got common.PixelData

	data, err := Capture(f.r, f.scn, f.cam, Uniform(16), f.options(
		WithFormat(FormatJPEG),
		WithQuality(70),
		WithEncoder(func(pix common.PixelData, format Format, quality int, invertY bool) ([]byte, error) {
			got = pix
			assert.Equal(t, FormatJPEG, format)
			assert.Equal(t, 70, quality)
			return []byte("encoded"), nil
		}),
	)...)
	require.NoError(t, err)
	assert.Equal(t, []byte("encoded"), data)
	assert.Equal(t, 16, got.Width)
	assert.Equal(t, 16, got.Height)
	assert.Len(t, got.Pixels, 16*16*4)
}

func TestCaptureTextureHook(t *testing.T) {
	f := newFixture(1.0)
	var hooked rendertarget.RenderTargetTexture

	_, err := Capture(f.r, f.scn, f.cam, Uniform(32), f.options(
		WithTextureHook(func(target rendertarget.RenderTargetTexture) {
			hooked = target
		}),
	)...)
	require.NoError(t, err)
	require.Len(t, f.targets, 1)
	assert.Same(t, rendertarget.RenderTargetTexture(f.targets[0]), hooked)
}

func TestCaptureWithMeshesSwapsRenderList(t *testing.T) {
	sceneMesh := mesh.NewMesh("scene_mesh", nil, nil)
	captureMesh := mesh.NewMesh("capture_mesh", nil, nil)

	f := newFixture(1.0)
	f.scn.meshes = []mesh.Mesh{sceneMesh}

	f.scn.onRender = func() {
		meshes := f.scn.Meshes()
		require.Len(t, meshes, 1)
		assert.Equal(t, "capture_mesh", meshes[0].Name())
	}

	_, err := Capture(f.r, f.scn, f.cam, Uniform(32), f.options(
		WithMeshes([]mesh.Mesh{captureMesh}),
	)...)
	require.NoError(t, err)

	meshes := f.scn.Meshes()
	require.Len(t, meshes, 1)
	assert.Equal(t, "scene_mesh", meshes[0].Name(), "mesh list restored after capture")
}

func TestCaptureAsyncDeliversResult(t *testing.T) {
	f := newFixture(1.0)

	results := CaptureAsync(f.r, f.scn, f.cam, Uniform(32), f.options()...)

	select {
	case res := <-results:
		require.NoError(t, res.Err)
		assert.NotEmpty(t, res.Data)
	case <-time.After(5 * time.Second):
		t.Fatal("capture result never delivered")
	}
}

func TestCaptureOverridesRenderSizeDuringCapture(t *testing.T) {
	f := newFixture(1.0)

	f.scn.onRender = func() {
		// The bound target's own size wins while the pass runs.
		assert.Equal(t, 200, f.r.RenderWidth())
		assert.Equal(t, 100, f.r.RenderHeight())
	}

	_, err := Capture(f.r, f.scn, f.cam, Size{Width: 200, Height: 100}, f.options()...)
	require.NoError(t, err)

	assert.Equal(t, 1280, f.r.RenderWidth(), "surface size reported again after capture")
	assert.Equal(t, 720, f.r.RenderHeight())
	assert.GreaterOrEqual(t, f.r.notifyCount, 2, "resize fan-out on install and restore")
}
