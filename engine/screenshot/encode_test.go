package screenshot

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumen-engine/lumen-go/common"
)

// twoRowPixels returns a 2x2 image whose top row is red and bottom row blue,
// so vertical flips are observable.
func twoRowPixels() common.PixelData {
	return common.PixelData{
		Width:  2,
		Height: 2,
		Pixels: []byte{
			255, 0, 0, 255, 255, 0, 0, 255, // top row: red
			0, 0, 255, 255, 0, 0, 255, 255, // bottom row: blue
		},
	}
}

func TestDefaultEncodePNGRoundTrip(t *testing.T) {
	data, err := defaultEncode(twoRowPixels(), FormatPNG, 0, false)
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 2, img.Bounds().Dx())
	assert.Equal(t, 2, img.Bounds().Dy())

	top := color.RGBAModel.Convert(img.At(0, 0)).(color.RGBA)
	bottom := color.RGBAModel.Convert(img.At(0, 1)).(color.RGBA)
	assert.Equal(t, color.RGBA{R: 255, A: 255}, top)
	assert.Equal(t, color.RGBA{B: 255, A: 255}, bottom)
}

func TestDefaultEncodeInvertY(t *testing.T) {
	data, err := defaultEncode(twoRowPixels(), FormatPNG, 0, true)
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)

	top := color.RGBAModel.Convert(img.At(0, 0)).(color.RGBA)
	bottom := color.RGBAModel.Convert(img.At(0, 1)).(color.RGBA)
	assert.Equal(t, color.RGBA{B: 255, A: 255}, top, "rows flip vertically")
	assert.Equal(t, color.RGBA{R: 255, A: 255}, bottom)
}

func TestDefaultEncodeJPEG(t *testing.T) {
	pix := common.PixelData{
		Width:  8,
		Height: 4,
		Pixels: bytes.Repeat([]byte{128, 64, 32, 255}, 8*4),
	}

	data, err := defaultEncode(pix, FormatJPEG, 85, false)
	require.NoError(t, err)

	img, err := jpeg.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 8, img.Bounds().Dx())
	assert.Equal(t, 4, img.Bounds().Dy())
}

func TestDefaultEncodeJPEGQualityOutOfRange(t *testing.T) {
	pix := common.PixelData{
		Width:  4,
		Height: 4,
		Pixels: bytes.Repeat([]byte{200, 100, 50, 255}, 4*4),
	}

	// Out-of-range quality falls back to the codec default rather than failing.
	data, err := defaultEncode(pix, FormatJPEG, 0, false)
	require.NoError(t, err)
	_, err = jpeg.Decode(bytes.NewReader(data))
	require.NoError(t, err)

	data, err = defaultEncode(pix, FormatJPEG, 150, false)
	require.NoError(t, err)
	_, err = jpeg.Decode(bytes.NewReader(data))
	require.NoError(t, err)
}

func TestResizePixels(t *testing.T) {
	pix := common.PixelData{
		Width:  4,
		Height: 2,
		Pixels: bytes.Repeat([]byte{10, 20, 30, 255}, 4*2),
	}

	resized, err := resizePixels(pix, 8, 4)
	require.NoError(t, err)
	assert.Equal(t, 8, resized.Width)
	assert.Equal(t, 4, resized.Height)
	assert.Len(t, resized.Pixels, 8*4*4)
}

func TestResizePixelsPreservesUniformColor(t *testing.T) {
	pix := common.PixelData{
		Width:  16,
		Height: 16,
		Pixels: bytes.Repeat([]byte{40, 80, 120, 255}, 16*16),
	}

	resized, err := resizePixels(pix, 4, 4)
	require.NoError(t, err)

	img := &image.RGBA{
		Pix:    resized.Pixels,
		Stride: resized.Width * 4,
		Rect:   image.Rect(0, 0, resized.Width, resized.Height),
	}
	center := color.RGBAModel.Convert(img.At(2, 2)).(color.RGBA)
	assert.InDelta(t, 40, center.R, 1)
	assert.InDelta(t, 80, center.G, 1)
	assert.InDelta(t, 120, center.B, 1)
}

func TestResizePixelsInvalidDimensions(t *testing.T) {
	pix := common.PixelData{Width: 2, Height: 2, Pixels: make([]byte, 16)}

	_, err := resizePixels(pix, 0, 4)
	require.Error(t, err)
	_, err = resizePixels(pix, 4, -1)
	require.Error(t, err)
}
