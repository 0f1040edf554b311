package canvas

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bbox-annotator/internal/annotation"
	"bbox-annotator/pkg/geometry"
)

// identityViewport attaches a canvas-sized image so image and viewport
// coordinates coincide.
func identityViewport(t *testing.T, w, h int) *Viewport {
	t.Helper()
	vp := NewViewport(image.Pt(w, h), color.Black)
	vp.SetupForImage(image.NewRGBA(image.Rect(0, 0, w, h)))
	require.InDelta(t, 1.0, vp.ZoomScale(), 1e-9)
	return vp
}

func newFrame(w, h int) *image.RGBA {
	return image.NewRGBA(image.Rect(0, 0, w, h))
}

func TestDrawRectOutline(t *testing.T) {
	img := newFrame(50, 50)
	red := color.RGBA{R: 255, A: 255}
	drawRectOutline(img, 30, 30, 10, 10, red, 1)

	// Corners swap to a normalized rectangle.
	assert.Equal(t, red, img.RGBAAt(10, 10))
	assert.Equal(t, red, img.RGBAAt(30, 30))
	assert.Equal(t, red, img.RGBAAt(20, 10))
	assert.Equal(t, red, img.RGBAAt(10, 20))
	// Interior stays empty.
	assert.Equal(t, color.RGBA{}, img.RGBAAt(20, 20))
}

func TestDrawRectOutlineClipped(t *testing.T) {
	img := newFrame(20, 20)
	red := color.RGBA{R: 255, A: 255}
	drawRectOutline(img, -10, -10, 40, 40, red, 2)
	// Entirely off-screen edges drop without panicking.
	assert.Equal(t, color.RGBA{}, img.RGBAAt(10, 10))
}

func TestFillCircle(t *testing.T) {
	img := newFrame(20, 20)
	blue := color.RGBA{B: 255, A: 255}
	fillCircle(img, 10, 10, 3, blue)

	assert.Equal(t, blue, img.RGBAAt(10, 10))
	assert.Equal(t, blue, img.RGBAAt(13, 10))
	assert.Equal(t, color.RGBA{}, img.RGBAAt(14, 10))
}

func TestDrawLabelGlyphs(t *testing.T) {
	img := newFrame(60, 20)
	black := color.RGBA{A: 255}
	drawLabel(img, "A1", 2, 2, black, 1)

	painted := 0
	for y := 0; y < 20; y++ {
		for x := 0; x < 60; x++ {
			if img.RGBAAt(x, y) == black {
				painted++
			}
		}
	}
	assert.Greater(t, painted, 10)

	// Unknown glyphs render as blanks.
	blank := newFrame(60, 20)
	drawLabel(blank, "???", 2, 2, black, 1)
	assert.Equal(t, *newFrame(60, 20), *blank)
}

func TestRenderOverlayBoxAndSelection(t *testing.T) {
	vp := identityViewport(t, 100, 100)
	look := DefaultAppearance()

	scene := Scene{
		Annotations: []*annotation.BBox{
			annotation.NewBBox("dog", geometry.NewPoint2D(10, 20), geometry.NewPoint2D(40, 50)),
			annotation.NewBBox("cat", geometry.NewPoint2D(60, 60), geometry.NewPoint2D(80, 80)),
		},
		SelectedIndex:    1,
		DragPreviewIndex: -1,
	}

	frame := newFrame(100, 100)
	require.NoError(t, RenderOverlay(frame, vp, scene, look))

	assert.Equal(t, look.BoxColor, frame.RGBAAt(10, 20))
	assert.Equal(t, look.SelectedColor, frame.RGBAAt(60, 60))
}

func TestRenderOverlayGroupMode(t *testing.T) {
	vp := identityViewport(t, 100, 100)
	look := DefaultAppearance()

	scene := Scene{
		Annotations: []*annotation.BBox{
			annotation.NewBBox("dog", geometry.NewPoint2D(10, 10), geometry.NewPoint2D(30, 30)),
			annotation.NewBBox("dog", geometry.NewPoint2D(50, 50), geometry.NewPoint2D(70, 70)),
			annotation.NewBBox("cat", geometry.NewPoint2D(80, 10), geometry.NewPoint2D(95, 30)),
		},
		SelectedIndex:    -1,
		SelectedLabel:    "dog",
		GroupMode:        true,
		DragPreviewIndex: -1,
	}

	frame := newFrame(100, 100)
	require.NoError(t, RenderOverlay(frame, vp, scene, look))

	assert.Equal(t, look.SelectedColor, frame.RGBAAt(10, 10))
	assert.Equal(t, look.SelectedColor, frame.RGBAAt(50, 50))
	assert.Equal(t, look.BoxColor, frame.RGBAAt(80, 10))
}

func TestRenderOverlayCullsOffscreen(t *testing.T) {
	vp := identityViewport(t, 100, 100)

	// Zoom into the bottom-right so the box leaves the view entirely.
	require.NoError(t, vp.ZoomAbout(4, geometry.NewPoint2D(99, 99)))

	scene := Scene{
		Annotations: []*annotation.BBox{
			annotation.NewBBox("dog", geometry.NewPoint2D(1, 1), geometry.NewPoint2D(5, 5)),
		},
		SelectedIndex:    -1,
		DragPreviewIndex: -1,
	}

	frame := newFrame(100, 100)
	require.NoError(t, RenderOverlay(frame, vp, scene, DefaultAppearance()))
	assert.Equal(t, *newFrame(100, 100), *frame)
}

func TestRenderOverlayDragPreviewOverride(t *testing.T) {
	vp := identityViewport(t, 100, 100)
	look := DefaultAppearance()

	preview := geometry.NewBox(geometry.NewPoint2D(40, 40), geometry.NewPoint2D(60, 60))
	scene := Scene{
		Annotations: []*annotation.BBox{
			annotation.NewBBox("dog", geometry.NewPoint2D(10, 10), geometry.NewPoint2D(30, 30)),
		},
		SelectedIndex:    -1,
		DragPreviewIndex: 0,
		DragPreviewBox:   &preview,
	}

	frame := newFrame(100, 100)
	require.NoError(t, RenderOverlay(frame, vp, scene, look))

	assert.Equal(t, look.BoxColor, frame.RGBAAt(40, 40))
	assert.Equal(t, color.RGBA{}, frame.RGBAAt(10, 10))
}

func TestRenderOverlayDrawingPreview(t *testing.T) {
	vp := identityViewport(t, 100, 100)
	look := DefaultAppearance()

	preview := geometry.NewBox(geometry.NewPoint2D(70, 70), geometry.NewPoint2D(90, 90))
	scene := Scene{
		SelectedLabel:    "dog",
		DragPreviewIndex: -1,
		DrawingPreview:   &preview,
	}

	frame := newFrame(100, 100)
	require.NoError(t, RenderOverlay(frame, vp, scene, look))
	assert.Equal(t, look.BoxColor, frame.RGBAAt(70, 70))
}

func TestRenderOverlayEditHandles(t *testing.T) {
	vp := identityViewport(t, 100, 100)
	look := DefaultAppearance()

	scene := Scene{
		Annotations: []*annotation.BBox{
			annotation.NewBBox("dog", geometry.NewPoint2D(20, 20), geometry.NewPoint2D(60, 60)),
		},
		SelectedIndex:    -1,
		EditMode:         true,
		DragPreviewIndex: -1,
	}

	frame := newFrame(100, 100)
	require.NoError(t, RenderOverlay(frame, vp, scene, look))

	// Corner squares and the center circle sit on top of the outline.
	assert.Equal(t, look.HandleColor, frame.RGBAAt(20, 20))
	assert.Equal(t, look.HandleColor, frame.RGBAAt(60, 60))
	assert.Equal(t, look.HandleColor, frame.RGBAAt(40, 40))
}
