package screenshot

import (
	"fmt"

	"github.com/chewxy/math32"

	"github.com/lumen-engine/lumen-go/common"
)

// Size describes the requested capture dimensions. Zero fields are derived:
// a missing Width or Height is computed from the other dimension and the
// camera's aspect ratio, and FinalWidth/FinalHeight default to the raw
// capture size. When the final size differs from the raw size, the raw
// capture is resized before encoding.
type Size struct {
	// Width is the raw capture width in pixels.
	Width int

	// Height is the raw capture height in pixels.
	Height int

	// FinalWidth is the encoded output width. Defaults to Width.
	FinalWidth int

	// FinalHeight is the encoded output height. Defaults to Height.
	FinalHeight int
}

// Uniform returns a Size applying n to both dimensions and to the final
// output dimensions.
//
// Parameters:
//   - n: the uniform size in pixels
//
// Returns:
//   - Size: a square capture size
func Uniform(n int) Size {
	return Size{Width: n, Height: n, FinalWidth: n, FinalHeight: n}
}

// resolvedSize holds fully-determined capture dimensions after applying the
// derivation rules to a Size.
type resolvedSize struct {
	width       int
	height      int
	finalWidth  int
	finalHeight int
}

// needsResize reports whether the final output differs from the raw capture.
func (r resolvedSize) needsResize() bool {
	return r.finalWidth != r.width || r.finalHeight != r.height
}

// resolveSize applies the derivation rules: a missing dimension is computed
// from the camera aspect ratio, and final dimensions default to the raw
// dimensions. Any dimension resolving to zero or below fails with
// ErrInvalidSize.
//
// Parameters:
//   - s: the requested size
//   - aspect: the camera's aspect ratio (width / height)
//
// Returns:
//   - resolvedSize: the fully-determined dimensions
//   - error: ErrInvalidSize when resolution fails
func resolveSize(s Size, aspect float32) (resolvedSize, error) {
	// Only zero means "derive this dimension". Negative values are caller
	// errors, never defaults.
	if s.Width < 0 || s.Height < 0 || s.FinalWidth < 0 || s.FinalHeight < 0 {
		return resolvedSize{}, fmt.Errorf("%w: negative dimension in %dx%d (final %dx%d)",
			ErrInvalidSize, s.Width, s.Height, s.FinalWidth, s.FinalHeight)
	}

	width := s.Width
	height := s.Height

	switch {
	case width > 0 && height == 0:
		if aspect == 0 {
			return resolvedSize{}, fmt.Errorf("%w: cannot derive height from zero aspect ratio", ErrInvalidSize)
		}
		height = int(math32.Round(float32(width) / aspect))
	case height > 0 && width == 0:
		if aspect == 0 {
			return resolvedSize{}, fmt.Errorf("%w: cannot derive width from zero aspect ratio", ErrInvalidSize)
		}
		width = int(math32.Round(float32(height) * aspect))
	}

	if width <= 0 || height <= 0 {
		return resolvedSize{}, fmt.Errorf("%w: resolved to %dx%d", ErrInvalidSize, width, height)
	}

	return resolvedSize{
		width:       width,
		height:      height,
		finalWidth:  common.Coalesce(s.FinalWidth, width),
		finalHeight: common.Coalesce(s.FinalHeight, height),
	}, nil
}
