package camera

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumen-engine/lumen-go/engine/renderer"
)

// fakeTarget implements renderer.RenderTarget with a switchable ready flag.
type fakeTarget struct {
	ready bool
}

func (t *fakeTarget) Name() string                   { return "fake" }
func (t *fakeTarget) Width() int                     { return 64 }
func (t *fakeTarget) Height() int                    { return 64 }
func (t *fakeTarget) SampleCount() int               { return 1 }
func (t *fakeTarget) HasStencil() bool               { return false }
func (t *fakeTarget) Texture() *wgpu.Texture         { return nil }
func (t *fakeTarget) TextureView() *wgpu.TextureView { return nil }
func (t *fakeTarget) IsReady() bool                  { return t.ready }
func (t *fakeTarget) Dispose()                       {}

func (t *fakeTarget) ReplaceTexture(texture *wgpu.Texture, view *wgpu.TextureView) {}

var _ renderer.RenderTarget = &fakeTarget{}

func TestNewCameraDefaults(t *testing.T) {
	c := NewCamera("main")

	assert.Equal(t, "main", c.Name())
	x, y, z := c.Position()
	assert.Equal(t, [3]float32{0, 0, 5}, [3]float32{x, y, z})
	assert.InDelta(t, 45.0*math32.Pi/180.0, c.Fov(), 1e-6)
	assert.Equal(t, float32(1.0), c.Aspect())
	assert.Equal(t, float32(0.1), c.Near())
	assert.Equal(t, float32(100.0), c.Far())
	assert.Equal(t, uint32(0xFFFFFFFF), c.LayerMask())
	assert.Nil(t, c.OutputTarget())
}

func TestNewCameraOptions(t *testing.T) {
	c := NewCamera("main",
		WithPosition(1, 2, 3),
		WithTarget(4, 5, 6),
		WithUp(0, 0, 1),
		WithFov(1.2),
		WithAspect(1.78),
		WithNear(0.5),
		WithFar(500),
		WithLayerMask(0xF),
	)

	x, y, z := c.Position()
	assert.Equal(t, [3]float32{1, 2, 3}, [3]float32{x, y, z})
	x, y, z = c.Target()
	assert.Equal(t, [3]float32{4, 5, 6}, [3]float32{x, y, z})
	x, y, z = c.Up()
	assert.Equal(t, [3]float32{0, 0, 1}, [3]float32{x, y, z})
	assert.Equal(t, float32(1.2), c.Fov())
	assert.Equal(t, float32(1.78), c.Aspect())
	assert.Equal(t, float32(0.5), c.Near())
	assert.Equal(t, float32(500), c.Far())
	assert.Equal(t, uint32(0xF), c.LayerMask())
}

func TestSetAspectRecomputesProjection(t *testing.T) {
	c := NewCamera("main", WithAspect(1.0))
	before := c.ProjectionMatrix()

	c.SetAspect(2.0)
	after := c.ProjectionMatrix()

	assert.NotEqual(t, before, after, "projection must change with aspect")
	// Doubling the aspect halves the x focal term; y is untouched.
	assert.InDelta(t, before[0]/2, after[0], 1e-5)
	assert.InDelta(t, before[5], after[5], 1e-6)
}

func TestViewMatrixLooksDownNegativeZ(t *testing.T) {
	c := NewCamera("main", WithPosition(0, 0, 5), WithTarget(0, 0, 0))

	view := c.ViewMatrix()
	// Eye at +Z looking at origin: the view transform moves the eye to the
	// origin, so the translation column holds -eye distance along z.
	assert.InDelta(t, 1.0, view[0], 1e-6)
	assert.InDelta(t, 1.0, view[5], 1e-6)
	assert.InDelta(t, -5.0, view[14], 1e-5)
}

func TestViewProjectionCombines(t *testing.T) {
	c := NewCamera("main", WithPosition(3, 1, 4), WithTarget(0, 0, 0), WithAspect(1.5))

	vp := c.ViewProjectionMatrix()
	zero := [16]float32{}
	assert.NotEqual(t, zero, vp)

	// Moving the camera must change the combined matrix.
	c.SetPosition(6, 2, 8)
	assert.NotEqual(t, vp, c.ViewProjectionMatrix())
}

func TestIsReady(t *testing.T) {
	c := NewCamera("main")
	assert.True(t, c.IsReady(), "no output target means always ready")

	target := &fakeTarget{ready: false}
	c.SetOutputTarget(target)
	assert.False(t, c.IsReady())

	target.ready = true
	assert.True(t, c.IsReady())

	c.SetOutputTarget(nil)
	assert.True(t, c.IsReady())
}

func TestWithOutputTarget(t *testing.T) {
	target := &fakeTarget{ready: true}
	c := NewCamera("rt", WithOutputTarget(target))
	require.NotNil(t, c.OutputTarget())
	assert.Same(t, renderer.RenderTarget(target), c.OutputTarget())
}
