package geometry

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoxDerivedGeometry(t *testing.T) {
	b := NewBox(NewPoint2D(10, 20), NewPoint2D(50, 80))

	assert.Equal(t, 10.0, b.X())
	assert.Equal(t, 20.0, b.Y())
	assert.Equal(t, 40.0, b.Width())
	assert.Equal(t, 60.0, b.Height())
	assert.Equal(t, NewPoint2D(30, 50), b.Center())
}

func TestBoxNegativeExtent(t *testing.T) {
	// Corners given in reverse order: width/height are negative until
	// normalized.
	b := NewBox(NewPoint2D(50, 80), NewPoint2D(10, 20))

	assert.Equal(t, -40.0, b.Width())
	assert.Equal(t, -60.0, b.Height())

	n := b.Normalized()
	assert.Equal(t, NewPoint2D(10, 20), n.P0)
	assert.Equal(t, NewPoint2D(50, 80), n.P1)
	assert.Equal(t, 40.0, n.Width())
}

func TestBoxRectNormalizes(t *testing.T) {
	b := NewBox(NewPoint2D(30.9, 40.9), NewPoint2D(10.2, 20.2))
	assert.Equal(t, image.Rect(10, 20, 30, 40), b.Rect())
}

func testImage(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x), G: uint8(y), A: 255})
		}
	}
	return img
}

func TestBoxCrop(t *testing.T) {
	img := testImage(100, 60)

	b := NewBox(NewPoint2D(10, 10), NewPoint2D(30, 40))
	cropped, err := b.Crop(img)
	require.NoError(t, err)
	assert.Equal(t, 20, cropped.Rect.Dx())
	assert.Equal(t, 30, cropped.Rect.Dy())

	// Top-left pixel of the crop corresponds to (10,10) in the source.
	c := cropped.NRGBAAt(0, 0)
	assert.Equal(t, uint8(10), c.R)
	assert.Equal(t, uint8(10), c.G)
}

func TestBoxCropUnorderedCorners(t *testing.T) {
	img := testImage(100, 60)

	b := NewBox(NewPoint2D(30, 40), NewPoint2D(10, 10))
	cropped, err := b.Crop(img)
	require.NoError(t, err)
	assert.Equal(t, 20, cropped.Rect.Dx())
	assert.Equal(t, 30, cropped.Rect.Dy())
}

func TestBoxCropDegenerate(t *testing.T) {
	img := testImage(100, 60)

	tests := []struct {
		name string
		box  Box
	}{
		{"zero area", NewBox(NewPoint2D(10, 10), NewPoint2D(10, 40))},
		{"fully outside", NewBox(NewPoint2D(200, 200), NewPoint2D(300, 300))},
		{"sub-pixel", NewBox(NewPoint2D(10.2, 10.2), NewPoint2D(10.9, 10.9))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.box.Crop(img)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrEmptyCrop)
		})
	}
}
