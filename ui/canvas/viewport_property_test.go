package canvas

import (
	"image"
	"image/color"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"gonum.org/v1/gonum/floats/scalar"

	"bbox-annotator/pkg/geometry"
)

// randomViewport builds a viewport over a canvasW x canvasH image and
// applies a zoom about an arbitrary cursor plus a pan, producing a
// representative (size, canvasSize, zoomScale, offset) tuple.
func randomViewport(vw, vh, cw, ch int, mag, cx, cy, panX, panY float64) *Viewport {
	vp := NewViewport(image.Pt(vw, vh), color.Black)
	vp.SetupForImage(image.NewRGBA(image.Rect(0, 0, cw, ch)))
	_ = vp.ZoomAbout(mag, geometry.NewPoint2D(cx, cy))
	_ = vp.Pan(panX, panY)
	return vp
}

// effectiveRegion recomputes the clamped sampling region the transform is
// built from, independently of the implementation internals.
func effectiveRegion(vp *Viewport) (roiX, roiY float64, effW, effH int) {
	roi, _ := vp.ROI()
	canvas := vp.CanvasSize()
	effW = int(roi.Width())
	if rest := canvas.X - int(roi.P0.X); rest < effW {
		effW = rest
	}
	effH = int(roi.Height())
	if rest := canvas.Y - int(roi.P0.Y); rest < effH {
		effH = rest
	}
	return roi.P0.X, roi.P0.Y, effW, effH
}

func TestViewportRoundTripProperty(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("viewport_to_image inverts image_to_viewport inside the ROI", prop.ForAll(
		func(vw, vh, cw, ch int, mag, cx, cy, panX, panY, fx, fy float64) bool {
			vp := randomViewport(vw, vh, cw, ch, mag, cx, cy, panX, panY)
			roiX, roiY, effW, effH := effectiveRegion(vp)

			// A point strictly inside the sampled region maps back to
			// itself within sub-pixel tolerance.
			p := geometry.NewPoint2D(
				roiX+fx*float64(effW),
				roiY+fy*float64(effH),
			)
			v, err := vp.ImageToViewport(p, false)
			if err != nil {
				return false
			}
			back, err := vp.ViewportToImage(v)
			if err != nil {
				return false
			}
			return scalar.EqualWithinAbs(back.X, p.X, 1e-6) &&
				scalar.EqualWithinAbs(back.Y, p.Y, 1e-6)
		},
		gen.IntRange(100, 1400),
		gen.IntRange(100, 1000),
		gen.IntRange(40, 4000),
		gen.IntRange(40, 4000),
		gen.Float64Range(0.3, 6),
		gen.Float64Range(0, 1000),
		gen.Float64Range(0, 800),
		gen.Float64Range(-500, 500),
		gen.Float64Range(-500, 500),
		gen.Float64Range(0.05, 0.95),
		gen.Float64Range(0.05, 0.95),
	))

	properties.TestingRun(t)
}

func TestViewportFitProperty(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("setup fits the whole image", prop.ForAll(
		func(vw, vh, cw, ch int) bool {
			vp := NewViewport(image.Pt(vw, vh), color.Black)
			vp.SetupForImage(image.NewRGBA(image.Rect(0, 0, cw, ch)))

			wantZoom := float64(vw) / float64(cw)
			if z := float64(vh) / float64(ch); z < wantZoom {
				wantZoom = z
			}
			if vp.ZoomScale() != wantZoom {
				return false
			}
			if wantZoom > 1 {
				return true
			}

			// At fit zoom <= 1 the ROI spans the whole canvas, modulo the
			// one-pixel truncation of the integer ROI extents.
			roi, err := vp.ROI()
			if err != nil {
				return false
			}
			return roi.P0.X <= 1 && roi.P0.Y <= 1 &&
				roi.P1.X >= float64(cw-1) && roi.P1.Y >= float64(ch-1)
		},
		gen.IntRange(100, 1400),
		gen.IntRange(100, 1000),
		gen.IntRange(40, 4000),
		gen.IntRange(40, 4000),
	))

	properties.TestingRun(t)
}

func TestViewportOffsetClampProperty(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("offset stays inside [half, canvas-half] after pan and zoom", prop.ForAll(
		func(vw, vh, cw, ch int, mag, cx, cy, panX, panY float64) bool {
			vp := randomViewport(vw, vh, cw, ch, mag, cx, cy, panX, panY)

			zoom := vp.ZoomScale()
			halfX := int(float64(vw) / (2 * zoom))
			halfY := int(float64(vh) / (2 * zoom))
			maxX := cw - halfX
			if maxX < halfX {
				maxX = halfX
			}
			maxY := ch - halfY
			if maxY < halfY {
				maxY = halfY
			}

			off := vp.Offset()
			return off.X >= halfX && off.X <= maxX &&
				off.Y >= halfY && off.Y <= maxY
		},
		gen.IntRange(100, 1400),
		gen.IntRange(100, 1000),
		gen.IntRange(40, 4000),
		gen.IntRange(40, 4000),
		gen.Float64Range(0.3, 6),
		gen.Float64Range(0, 1000),
		gen.Float64Range(0, 800),
		gen.Float64Range(-2000, 2000),
		gen.Float64Range(-2000, 2000),
	))

	properties.TestingRun(t)
}

func TestViewportZoomFloorProperty(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("zoom never drops below the fit scale for oversized images", prop.ForAll(
		func(vw, vh, cw, ch int, steps int) bool {
			vp := NewViewport(image.Pt(vw, vh), color.Black)
			vp.SetupForImage(image.NewRGBA(image.Rect(0, 0, cw, ch)))
			if vp.BaseZoomScale() >= 1 {
				return true
			}
			for i := 0; i < steps; i++ {
				if err := vp.Zoom(0.5); err != nil {
					return false
				}
				if vp.ZoomScale() < vp.BaseZoomScale() {
					return false
				}
			}
			return vp.ZoomScale() == vp.BaseZoomScale()
		},
		gen.IntRange(100, 1400),
		gen.IntRange(100, 1000),
		gen.IntRange(1500, 6000),
		gen.IntRange(1200, 6000),
		gen.IntRange(5, 30),
	))

	properties.TestingRun(t)
}

func TestViewportZoomAboutCursorProperty(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("the image point under the cursor stays put across a zoom", prop.ForAll(
		func(vw, vh, cw, ch int, mag, cx, cy float64) bool {
			vp := NewViewport(image.Pt(vw, vh), color.Black)
			vp.SetupForImage(image.NewRGBA(image.Rect(0, 0, cw, ch)))

			cursor := geometry.NewPoint2D(cx*float64(vw), cy*float64(vh))
			before, err := vp.ViewportToImage(cursor)
			if err != nil {
				return false
			}
			// Skip cursors over letterbox padding: their image point snaps
			// to the image edge and is not pinned by the zoom.
			check, err := vp.ImageToViewport(before, false)
			if err != nil {
				return false
			}
			if !scalar.EqualWithinAbs(check.X, cursor.X, 1) ||
				!scalar.EqualWithinAbs(check.Y, cursor.Y, 1) {
				return true
			}
			if err := vp.ZoomAbout(mag, cursor); err != nil {
				return false
			}
			after, err := vp.ImageToViewport(before, false)
			if err != nil {
				return false
			}

			// The integer truncation of offset and ROI origin costs up to
			// a few image pixels, which scale by the zoom on screen.
			tol := 3*vp.ZoomScale() + 3
			return scalar.EqualWithinAbs(after.X, cursor.X, tol) &&
				scalar.EqualWithinAbs(after.Y, cursor.Y, tol)
		},
		gen.IntRange(200, 1400),
		gen.IntRange(200, 1000),
		gen.IntRange(400, 4000),
		gen.IntRange(400, 4000),
		gen.Float64Range(1.1, 4),
		gen.Float64Range(0.1, 0.9),
		gen.Float64Range(0.1, 0.9),
	))

	properties.TestingRun(t)
}
