package renderer

import (
	"sync"
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumen-engine/lumen-go/engine/renderer/pipeline"
)

// newTestRenderer builds a rendererImpl without a GPU backend. Only the
// frame-independent state machinery is exercised here; anything that reaches
// the backend needs a device and is covered by the examples.
func newTestRenderer(width, height int) *rendererImpl {
	return &rendererImpl{
		mu:              &sync.Mutex{},
		pipelineCache:   make(map[string]pipeline.Pipeline),
		surfaceWidth:    width,
		surfaceHeight:   height,
		resizeListeners: make(map[int]func(width, height int)),
	}
}

type stubTarget struct {
	width, height int
}

func (t *stubTarget) Name() string                   { return "stub" }
func (t *stubTarget) Width() int                     { return t.width }
func (t *stubTarget) Height() int                    { return t.height }
func (t *stubTarget) SampleCount() int               { return 1 }
func (t *stubTarget) HasStencil() bool               { return false }
func (t *stubTarget) Texture() *wgpu.Texture         { return nil }
func (t *stubTarget) TextureView() *wgpu.TextureView { return nil }
func (t *stubTarget) IsReady() bool                  { return true }
func (t *stubTarget) Dispose()                       {}

func (t *stubTarget) ReplaceTexture(texture *wgpu.Texture, view *wgpu.TextureView) {}

var _ RenderTarget = &stubTarget{}

func TestRenderSizePrecedence(t *testing.T) {
	r := newTestRenderer(1280, 720)

	assert.Equal(t, 1280, r.RenderWidth())
	assert.Equal(t, 720, r.RenderHeight())

	restore := r.OverrideRenderSize(400, 300)
	assert.Equal(t, 400, r.RenderWidth())
	assert.Equal(t, 300, r.RenderHeight())

	// A bound target's own size beats the override.
	r.BindTarget(&stubTarget{width: 64, height: 32})
	assert.Equal(t, 64, r.RenderWidth())
	assert.Equal(t, 32, r.RenderHeight())

	r.UnbindTarget()
	assert.Equal(t, 400, r.RenderWidth())

	restore()
	assert.Equal(t, 1280, r.RenderWidth())
	assert.Equal(t, 720, r.RenderHeight())
}

func TestOverrideRestoreIsIdempotent(t *testing.T) {
	r := newTestRenderer(1280, 720)

	restore := r.OverrideRenderSize(100, 100)
	restore()
	restore()
	assert.Equal(t, 1280, r.RenderWidth())
}

func TestStaleRestoreKeepsNewerOverride(t *testing.T) {
	r := newTestRenderer(1280, 720)

	restoreOuter := r.OverrideRenderSize(100, 100)
	restoreInner := r.OverrideRenderSize(50, 50)

	// The outer restore is stale: it must not clear the inner override.
	restoreOuter()
	assert.Equal(t, 50, r.RenderWidth())

	restoreInner()
	assert.Equal(t, 1280, r.RenderWidth())
}

func TestSuppressPresent(t *testing.T) {
	r := newTestRenderer(100, 100)

	assert.False(t, r.SuppressPresent())
	r.SetSuppressPresent(true)
	assert.True(t, r.SuppressPresent())

	// With presentation suppressed, Present never reaches the backend — the
	// nil backend here would panic if it did.
	r.Present()

	r.SetSuppressPresent(false)
	r.BindTarget(&stubTarget{width: 8, height: 8})
	r.Present()
}

func TestResizeListeners(t *testing.T) {
	r := newTestRenderer(800, 600)

	var got [][2]int
	remove := r.AddResizeListener(func(width, height int) {
		got = append(got, [2]int{width, height})
	})

	r.NotifyResize()
	require.Len(t, got, 1)
	assert.Equal(t, [2]int{800, 600}, got[0])

	// Listeners observe the effective size, override included.
	restore := r.OverrideRenderSize(320, 200)
	r.NotifyResize()
	require.Len(t, got, 2)
	assert.Equal(t, [2]int{320, 200}, got[1])
	restore()

	remove()
	r.NotifyResize()
	assert.Len(t, got, 2, "removed listener no longer fires")
}

func TestOnEndFrameOnce(t *testing.T) {
	r := newTestRenderer(100, 100)

	fired := 0
	r.OnEndFrameOnce(func() { fired++ })
	r.OnEndFrameOnce(func() { fired++ })

	r.FireEndFrame()
	assert.Equal(t, 2, fired)

	// Single-shot: cleared after firing.
	r.FireEndFrame()
	assert.Equal(t, 2, fired)
}

func TestBoundTarget(t *testing.T) {
	r := newTestRenderer(100, 100)
	assert.Nil(t, r.BoundTarget())

	target := &stubTarget{width: 10, height: 10}
	r.BindTarget(target)
	assert.Same(t, RenderTarget(target), r.BoundTarget())

	r.UnbindTarget()
	assert.Nil(t, r.BoundTarget())
}

func TestDrawMeshUnknownPipeline(t *testing.T) {
	r := newTestRenderer(100, 100)

	err := r.DrawMesh("missing", nil, 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing")
}

func TestApplyPostProcessesUnknownPipeline(t *testing.T) {
	r := newTestRenderer(100, 100)

	err := r.ApplyPostProcesses(&stubTarget{width: 8, height: 8}, []string{"absent_fxaa"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "absent_fxaa")
}

func TestApplyPostProcessesNoKeys(t *testing.T) {
	r := newTestRenderer(100, 100)

	// No keys means no passes; the nil backend is never touched.
	require.NoError(t, r.ApplyPostProcesses(&stubTarget{width: 8, height: 8}, nil))
}

func TestPipelineCache(t *testing.T) {
	r := newTestRenderer(100, 100)
	assert.Nil(t, r.Pipeline("absent"))

	p := pipeline.NewPipeline("cached")
	r.pipelineCache["cached"] = p
	assert.Same(t, p, r.Pipeline("cached"))
}
