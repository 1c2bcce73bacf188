package screenshot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUniform(t *testing.T) {
	s := Uniform(256)
	assert.Equal(t, Size{Width: 256, Height: 256, FinalWidth: 256, FinalHeight: 256}, s)
}

func TestResolveSize(t *testing.T) {
	tests := []struct {
		name    string
		size    Size
		aspect  float32
		want    resolvedSize
		invalid bool
	}{
		{
			name:   "both dimensions given",
			size:   Size{Width: 640, Height: 480},
			aspect: 1.0,
			want:   resolvedSize{width: 640, height: 480, finalWidth: 640, finalHeight: 480},
		},
		{
			name:   "height derived from aspect",
			size:   Size{Width: 300},
			aspect: 2.0,
			want:   resolvedSize{width: 300, height: 150, finalWidth: 300, finalHeight: 150},
		},
		{
			name:   "width derived from aspect",
			size:   Size{Height: 200},
			aspect: 1.5,
			want:   resolvedSize{width: 300, height: 200, finalWidth: 300, finalHeight: 200},
		},
		{
			name:   "derived dimension rounds to nearest",
			size:   Size{Width: 100},
			aspect: 3.0,
			want:   resolvedSize{width: 100, height: 33, finalWidth: 100, finalHeight: 33},
		},
		{
			name:   "final size overrides raw",
			size:   Size{Width: 100, Height: 50, FinalWidth: 400, FinalHeight: 200},
			aspect: 1.0,
			want:   resolvedSize{width: 100, height: 50, finalWidth: 400, finalHeight: 200},
		},
		{
			name:   "partial final size defaults the rest",
			size:   Size{Width: 100, Height: 50, FinalWidth: 400},
			aspect: 1.0,
			want:   resolvedSize{width: 100, height: 50, finalWidth: 400, finalHeight: 50},
		},
		{
			name:    "zero size is invalid",
			size:    Size{},
			aspect:  1.0,
			invalid: true,
		},
		{
			name:    "negative width is invalid",
			size:    Size{Width: -10, Height: 10},
			aspect:  1.0,
			invalid: true,
		},
		{
			name:    "negative height never derives",
			size:    Size{Width: 10, Height: -10},
			aspect:  1.0,
			invalid: true,
		},
		{
			name:    "negative final size is invalid",
			size:    Size{Width: 10, Height: 10, FinalWidth: -400},
			aspect:  1.0,
			invalid: true,
		},
		{
			name:    "zero aspect cannot derive height",
			size:    Size{Width: 300},
			aspect:  0,
			invalid: true,
		},
		{
			name:    "zero aspect cannot derive width",
			size:    Size{Height: 300},
			aspect:  0,
			invalid: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resolveSize(tt.size, tt.aspect)
			if tt.invalid {
				require.ErrorIs(t, err, ErrInvalidSize)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNeedsResize(t *testing.T) {
	assert.False(t, resolvedSize{width: 100, height: 50, finalWidth: 100, finalHeight: 50}.needsResize())
	assert.True(t, resolvedSize{width: 100, height: 50, finalWidth: 400, finalHeight: 200}.needsResize())
	assert.True(t, resolvedSize{width: 100, height: 50, finalWidth: 100, finalHeight: 25}.needsResize())
}
