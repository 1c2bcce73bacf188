package screenshot

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"

	"github.com/lumen-engine/lumen-go/common"
	"golang.org/x/image/draw"
)

// Format selects the encoded image format.
type Format string

const (
	// FormatPNG encodes captures as PNG. Quality is ignored.
	FormatPNG Format = "png"

	// FormatJPEG encodes captures as JPEG using the requested quality.
	FormatJPEG Format = "jpeg"
)

// Encoder converts raw capture pixels into encoded image bytes. The default
// encoder handles PNG and JPEG; callers may substitute their own.
//
// Parameters:
//   - pix: tightly packed top-down RGBA pixels
//   - format: the requested output format
//   - quality: JPEG quality in [1, 100]; ignored for PNG
//   - invertY: flip the image vertically before encoding
//
// Returns:
//   - []byte: the encoded image
//   - error: an error if encoding fails
type Encoder func(pix common.PixelData, format Format, quality int, invertY bool) ([]byte, error)

// toImage wraps pixel data in an *image.RGBA without copying, optionally
// flipping rows for bottom-up output.
func toImage(pix common.PixelData, invertY bool) *image.RGBA {
	img := &image.RGBA{
		Pix:    pix.Pixels,
		Stride: pix.Width * 4,
		Rect:   image.Rect(0, 0, pix.Width, pix.Height),
	}
	if !invertY {
		return img
	}

	flipped := image.NewRGBA(img.Rect)
	rowBytes := pix.Width * 4
	for y := 0; y < pix.Height; y++ {
		src := img.Pix[y*rowBytes : (y+1)*rowBytes]
		copy(flipped.Pix[(pix.Height-1-y)*rowBytes:], src)
	}
	return flipped
}

// defaultEncode is the built-in Encoder covering PNG and JPEG.
func defaultEncode(pix common.PixelData, format Format, quality int, invertY bool) ([]byte, error) {
	img := toImage(pix, invertY)

	var buf bytes.Buffer
	switch format {
	case FormatJPEG:
		if quality < 1 || quality > 100 {
			quality = jpeg.DefaultQuality
		}
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
			return nil, err
		}
	case FormatPNG:
		fallthrough
	default:
		if err := png.Encode(&buf, img); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

// resizePixels scales raw capture pixels to the final output dimensions
// using Catmull-Rom interpolation.
//
// Parameters:
//   - pix: the raw capture pixels
//   - width: the output width in pixels
//   - height: the output height in pixels
//
// Returns:
//   - common.PixelData: the resized pixels
//   - error: an error on invalid dimensions
func resizePixels(pix common.PixelData, width, height int) (common.PixelData, error) {
	if width <= 0 || height <= 0 {
		return common.PixelData{}, fmt.Errorf("resize dimensions must be positive, got %dx%d", width, height)
	}

	src := toImage(pix, false)
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Rect, src, src.Rect, draw.Over, nil)

	return common.PixelData{
		Pixels: dst.Pix,
		Width:  width,
		Height: height,
		Format: pix.Format,
	}, nil
}
