// Package canvas provides an image canvas with pan, zoom, and annotation
// overlays. The Viewport owns the transform between the fixed-size display
// surface and the pannable, zoomable region of the image; the Canvas widget
// feeds it pointer events and renders its output.
package canvas

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
	xdraw "golang.org/x/image/draw"

	"bbox-annotator/pkg/geometry"
)

// ErrNotReady is returned by Viewport operations invoked before an image
// has been attached with SetupForImage.
var ErrNotReady = errors.New("viewport: no image attached")

// Viewport maps between viewport pixel coordinates (the widget surface) and
// image coordinates. It owns only geometry, never pixel data.
type Viewport struct {
	size    image.Point
	bgColor color.Color

	attached      bool
	canvasSize    image.Point
	zoomScale     float64
	baseZoomScale float64
	offset        image.Point

	observers []func()
}

// NewViewport creates a viewport for a display surface of the given pixel
// size. The background color fills letterboxed padding when the scaled
// image does not cover the whole surface.
func NewViewport(size image.Point, bg color.Color) *Viewport {
	return &Viewport{size: size, bgColor: bg}
}

// OnModified registers an observer invoked synchronously after every state
// mutation, before the mutating call returns.
func (v *Viewport) OnModified(fn func()) {
	v.observers = append(v.observers, fn)
}

func (v *Viewport) notify() {
	for _, fn := range v.observers {
		fn()
	}
}

// Ready reports whether an image is attached.
func (v *Viewport) Ready() bool { return v.attached }

// Size returns the viewport pixel dimensions.
func (v *Viewport) Size() image.Point { return v.size }

// SetSize updates the viewport dimensions, e.g. on widget resize.
func (v *Viewport) SetSize(size image.Point) {
	if size == v.size {
		return
	}
	v.size = size
	v.notify()
}

// Background returns the letterbox fill color.
func (v *Viewport) Background() color.Color { return v.bgColor }

// SetBackground sets the letterbox fill color.
func (v *Viewport) SetBackground(bg color.Color) {
	if bg == v.bgColor {
		return
	}
	v.bgColor = bg
	v.notify()
}

// CanvasSize returns the attached image's pixel dimensions. Zero until an
// image is attached.
func (v *Viewport) CanvasSize() image.Point { return v.canvasSize }

// ZoomScale returns the ratio of displayed pixels to image pixels. Zero
// until an image is attached.
func (v *Viewport) ZoomScale() float64 { return v.zoomScale }

// BaseZoomScale returns the fit-to-window zoom recorded when the image was
// attached. It is the zoom-out floor for images larger than the viewport.
func (v *Viewport) BaseZoomScale() float64 { return v.baseZoomScale }

// Offset returns the image-space point currently centered in the viewport.
func (v *Viewport) Offset() image.Point { return v.offset }

// SetupForImage attaches an image (nil detaches): records its dimensions,
// computes the fit-to-window zoom, and centers the view on it.
func (v *Viewport) SetupForImage(img image.Image) {
	if img == nil {
		v.attached = false
		v.canvasSize = image.Point{}
		v.zoomScale = 0
		v.baseZoomScale = 0
		v.offset = image.Point{}
		v.notify()
		return
	}

	bounds := img.Bounds()
	v.canvasSize = image.Pt(bounds.Dx(), bounds.Dy())
	if v.canvasSize.X > 0 && v.canvasSize.Y > 0 {
		// Largest scale at which the whole image fits without cropping
		// either axis. May be <1 (zoomed out) or >1 (zoomed in).
		v.zoomScale = math.Min(
			float64(v.size.X)/float64(v.canvasSize.X),
			float64(v.size.Y)/float64(v.canvasSize.Y),
		)
	} else {
		v.zoomScale = 1.0
	}
	v.baseZoomScale = v.zoomScale
	v.offset = image.Pt(v.canvasSize.X/2, v.canvasSize.Y/2)
	v.attached = true
	v.notify()
}

// ROI returns the axis-aligned image-space rectangle currently visible,
// derived from the zoom scale and offset and clamped to the canvas bounds.
func (v *Viewport) ROI() (geometry.Box, error) {
	if !v.attached {
		return geometry.Box{}, ErrNotReady
	}

	roiW := int(float64(v.size.X) / v.zoomScale)
	roiH := int(float64(v.size.Y) / v.zoomScale)
	roiX := int(float64(v.offset.X) - float64(v.size.X)/(2*v.zoomScale))
	roiY := int(float64(v.offset.Y) - float64(v.size.Y)/(2*v.zoomScale))

	// When the ROI is larger than the canvas on an axis the upper bound
	// goes negative and the ROI pins to the canvas origin.
	roiX = maxInt(0, minInt(roiX, v.canvasSize.X-roiW))
	roiY = maxInt(0, minInt(roiY, v.canvasSize.Y-roiH))

	return geometry.NewBox(
		geometry.NewPoint2D(float64(roiX), float64(roiY)),
		geometry.NewPoint2D(float64(roiX+roiW), float64(roiY+roiH)),
	), nil
}

// rasterTransform is the shared scale/pad computation behind both
// coordinate mappings and crop-and-resize. The effective region is the
// actually-sampled crop after clamping the ROI to the canvas bounds.
type rasterTransform struct {
	roiX, roiY float64
	effW, effH int
	tgtW, tgtH int
	padX, padY int
}

func (v *Viewport) transform() (rasterTransform, error) {
	roi, err := v.ROI()
	if err != nil {
		return rasterTransform{}, err
	}

	roiX, roiY := int(roi.P0.X), int(roi.P0.Y)
	effW := minInt(int(roi.Width()), v.canvasSize.X-roiX)
	effH := minInt(int(roi.Height()), v.canvasSize.Y-roiY)
	if effW < 1 {
		effW = 1
	}
	if effH < 1 {
		effH = 1
	}

	scale := math.Min(
		float64(v.size.X)/float64(effW),
		float64(v.size.Y)/float64(effH),
	)
	tgtW := int(float64(effW) * scale)
	tgtH := int(float64(effH) * scale)
	if tgtW < 1 {
		tgtW = 1
	}
	if tgtH < 1 {
		tgtH = 1
	}

	return rasterTransform{
		roiX: roi.P0.X, roiY: roi.P0.Y,
		effW: effW, effH: effH,
		tgtW: tgtW, tgtH: tgtH,
		padX: (v.size.X - tgtW) / 2,
		padY: (v.size.Y - tgtH) / 2,
	}, nil
}

// ImageToViewport converts an image-space point to viewport pixel
// coordinates using the same scale and centering padding as CropAndResize,
// so the mapping matches what is displayed. With clamp the result always
// lies on the displayed content (used for hit testing); without it the
// result may fall outside the viewport, which signals the point is
// off-screen (used for visibility culling and drawing).
func (v *Viewport) ImageToViewport(p geometry.Point2D, clamp bool) (geometry.Point2D, error) {
	if err := validPoint(p); err != nil {
		return geometry.Point2D{}, err
	}
	t, err := v.transform()
	if err != nil {
		return geometry.Point2D{}, err
	}

	dx := p.X - t.roiX
	dy := p.Y - t.roiY
	if clamp {
		dx = clampFloat(dx, 0, float64(t.effW))
		dy = clampFloat(dy, 0, float64(t.effH))
	}
	return geometry.Point2D{
		X: dx*float64(t.tgtW)/float64(t.effW) + float64(t.padX),
		Y: dy*float64(t.tgtH)/float64(t.effH) + float64(t.padY),
	}, nil
}

// ViewportToImage converts a viewport pixel coordinate to image space. The
// exact inverse of ImageToViewport; points outside the drawn image snap to
// its edge.
func (v *Viewport) ViewportToImage(p geometry.Point2D) (geometry.Point2D, error) {
	if err := validPoint(p); err != nil {
		return geometry.Point2D{}, err
	}
	t, err := v.transform()
	if err != nil {
		return geometry.Point2D{}, err
	}

	dx := (p.X - float64(t.padX)) * float64(t.effW) / float64(t.tgtW)
	dy := (p.Y - float64(t.padY)) * float64(t.effH) / float64(t.tgtH)
	dx = clampFloat(dx, 0, float64(t.effW))
	dy = clampFloat(dy, 0, float64(t.effH))
	return geometry.Point2D{X: dx + t.roiX, Y: dy + t.roiY}, nil
}

// CropAndResize produces the displayed raster: the ROI crop of img, resized
// with linear interpolation to fit the viewport while preserving aspect
// ratio, pasted centered onto a background-filled buffer of exactly the
// viewport size.
func (v *Viewport) CropAndResize(img image.Image) (*image.RGBA, error) {
	if !v.attached {
		return nil, ErrNotReady
	}

	result := image.NewRGBA(image.Rect(0, 0, v.size.X, v.size.Y))
	xdraw.Draw(result, result.Bounds(), image.NewUniform(v.bgColor), image.Point{}, xdraw.Src)

	roi, err := v.ROI()
	if err != nil {
		return nil, err
	}
	cropped, err := roi.Crop(img)
	if err != nil {
		return nil, err
	}

	// Scale from the actual cropped raster dimensions, which match the
	// effective region barring rounding.
	w := cropped.Rect.Dx()
	h := cropped.Rect.Dy()
	scale := math.Min(float64(v.size.X)/float64(w), float64(v.size.Y)/float64(h))
	tgtW := int(float64(w) * scale)
	tgtH := int(float64(h) * scale)
	if tgtW < 1 {
		tgtW = 1
	}
	if tgtH < 1 {
		tgtH = 1
	}
	resized := imaging.Resize(cropped, tgtW, tgtH, imaging.Linear)

	w = resized.Rect.Dx()
	h = resized.Rect.Dy()
	padX := (v.size.X - w) / 2
	padY := (v.size.Y - h) / 2
	if padX < 0 || padY < 0 {
		// Rounding may overshoot the viewport by a pixel; crop the excess
		// rather than padding negative space.
		x0 := maxInt(0, -padX)
		y0 := maxInt(0, -padY)
		resized = imaging.Crop(resized, image.Rect(x0, y0, x0+v.size.X, y0+v.size.Y))
		w = resized.Rect.Dx()
		h = resized.Rect.Dy()
		padX = maxInt(0, padX)
		padY = maxInt(0, padY)
	}

	xdraw.Draw(result, image.Rect(padX, padY, padX+w, padY+h), resized, resized.Bounds().Min, xdraw.Src)
	return result, nil
}

// Zoom zooms about the viewport center. Magnification >1 zooms in, <1 out;
// 1 is a no-op.
func (v *Viewport) Zoom(magnification float64) error {
	return v.ZoomAbout(magnification, geometry.NewPoint2D(
		float64(v.size.X)/2, float64(v.size.Y)/2,
	))
}

// ZoomAbout multiplies the zoom scale by magnification while keeping the
// image point under the given viewport-space center fixed on screen. The
// result never drops below the fit-to-window zoom for images larger than
// the viewport.
func (v *Viewport) ZoomAbout(magnification float64, center geometry.Point2D) error {
	if magnification <= 0 || math.IsNaN(magnification) || math.IsInf(magnification, 0) {
		return fmt.Errorf("viewport: zoom magnification must be > 0, got %v", magnification)
	}
	if err := validPoint(center); err != nil {
		return err
	}
	if !v.attached {
		return ErrNotReady
	}
	if magnification == 1 {
		return nil
	}

	// Image-space focal point under the cursor before the zoom changes.
	zs := v.zoomScale
	focalX := float64(v.offset.X) - float64(v.size.X)/(2*zs) + center.X/zs
	focalY := float64(v.offset.Y) - float64(v.size.Y)/(2*zs) + center.Y/zs

	newZoom := zs * magnification
	if v.baseZoomScale < 1 && newZoom < v.baseZoomScale {
		newZoom = v.baseZoomScale
	}
	v.zoomScale = newZoom

	// Recenter so the focal point stays under the cursor.
	v.offset = image.Pt(
		int(focalX-center.X/newZoom+float64(v.size.X)/(2*newZoom)),
		int(focalY-center.Y/newZoom+float64(v.size.Y)/(2*newZoom)),
	)
	v.clampOffset()
	v.notify()
	return nil
}

// Pan translates the view by a viewport-space delta. The image-space pan
// amount shrinks as zoom increases. Dragging right moves the visible window
// left: the delta is subtracted, so content follows the cursor.
func (v *Viewport) Pan(dx, dy float64) error {
	if err := validPoint(geometry.NewPoint2D(dx, dy)); err != nil {
		return err
	}
	if !v.attached {
		return ErrNotReady
	}
	v.offset = image.Pt(
		int(float64(v.offset.X)-dx/v.zoomScale),
		int(float64(v.offset.Y)-dy/v.zoomScale),
	)
	v.clampOffset()
	v.notify()
	return nil
}

// SetOffset sets the image-space point centered in the viewport, clamped to
// the valid pan range.
func (v *Viewport) SetOffset(p geometry.Point2D) error {
	if err := validPoint(p); err != nil {
		return err
	}
	if !v.attached {
		return ErrNotReady
	}

	halfX := float64(v.size.X) / (2 * v.zoomScale)
	halfY := float64(v.size.Y) / (2 * v.zoomScale)
	maxX := math.Max(halfX, float64(v.canvasSize.X)-halfX)
	maxY := math.Max(halfY, float64(v.canvasSize.Y)-halfY)
	clamped := image.Pt(
		int(clampFloat(p.X, halfX, maxX)),
		int(clampFloat(p.Y, halfY, maxY)),
	)
	if clamped == v.offset {
		return nil
	}
	v.offset = clamped
	v.notify()
	return nil
}

// clampOffset keeps the visible ROI within the canvas. For images smaller
// than the viewport on an axis the bounds collapse to a single centered
// offset and no panning is possible on that axis.
func (v *Viewport) clampOffset() {
	halfX := int(float64(v.size.X) / (2 * v.zoomScale))
	halfY := int(float64(v.size.Y) / (2 * v.zoomScale))
	maxX := maxInt(halfX, v.canvasSize.X-halfX)
	maxY := maxInt(halfY, v.canvasSize.Y-halfY)
	v.offset = image.Pt(
		clampInt(v.offset.X, halfX, maxX),
		clampInt(v.offset.Y, halfY, maxY),
	)
}

func validPoint(p geometry.Point2D) error {
	if math.IsNaN(p.X) || math.IsNaN(p.Y) || math.IsInf(p.X, 0) || math.IsInf(p.Y, 0) {
		return fmt.Errorf("viewport: invalid point (%v, %v)", p.X, p.Y)
	}
	return nil
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampFloat(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
