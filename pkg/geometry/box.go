package geometry

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// ErrEmptyCrop is returned when a crop region has zero area after
// normalization and clipping to the source image.
var ErrEmptyCrop = fmt.Errorf("geometry: crop region has zero area")

// Box is a rectangle defined by two opposite corner points. The corners are
// not required to be ordered; callers that need a min/max ordering use
// Normalized.
type Box struct {
	P0 Point2D
	P1 Point2D
}

// NewBox creates a box from two corner points.
func NewBox(p0, p1 Point2D) Box {
	return Box{P0: p0, P1: p1}
}

// X returns the x coordinate of the first corner.
func (b Box) X() float64 { return b.P0.X }

// Y returns the y coordinate of the first corner.
func (b Box) Y() float64 { return b.P0.Y }

// Width returns P1.X - P0.X. Negative if the box is not normalized.
func (b Box) Width() float64 { return b.P1.X - b.P0.X }

// Height returns P1.Y - P0.Y. Negative if the box is not normalized.
func (b Box) Height() float64 { return b.P1.Y - b.P0.Y }

// Center returns the midpoint of the two corners.
func (b Box) Center() Point2D {
	return Point2D{X: (b.P0.X + b.P1.X) / 2, Y: (b.P0.Y + b.P1.Y) / 2}
}

// Normalized returns the box with P0 the componentwise minimum corner and
// P1 the maximum.
func (b Box) Normalized() Box {
	return Box{P0: b.P0.Min(b.P1), P1: b.P0.Max(b.P1)}
}

// Rect returns the integer-truncated, normalized image.Rectangle covered by
// the box.
func (b Box) Rect() image.Rectangle {
	x0, y0 := int(b.P0.X), int(b.P0.Y)
	x1, y1 := int(b.P1.X), int(b.P1.Y)
	if x0 > x1 {
		x0, x1 = x1, x0
	}
	if y0 > y1 {
		y0, y1 = y1, y0
	}
	return image.Rect(x0, y0, x1, y1)
}

// Crop returns the sub-raster of img bounded by the integer-rounded,
// normalized corners, clipped to the image bounds. A region that ends up
// with zero area is an error: it indicates a broken ROI computation
// upstream, not a valid empty result.
func (b Box) Crop(img image.Image) (*image.NRGBA, error) {
	rect := b.Rect()
	cropped := imaging.Crop(img, rect)
	if cropped.Rect.Dx() == 0 || cropped.Rect.Dy() == 0 {
		return nil, fmt.Errorf("cropping %v from image %v: %w", rect, img.Bounds(), ErrEmptyCrop)
	}
	return cropped, nil
}
