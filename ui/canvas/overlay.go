package canvas

import (
	"image"
	"image/color"

	"bbox-annotator/internal/annotation"
	"bbox-annotator/internal/controller"
	"bbox-annotator/pkg/geometry"
)

// Appearance holds the colors and sizes used when drawing annotations.
type Appearance struct {
	Background    color.RGBA
	BoxColor      color.RGBA
	SelectedColor color.RGBA
	LabelColor    color.RGBA
	HandleColor   color.RGBA
	LineWidth     int
	HandleSize    int
}

// DefaultAppearance returns the standard annotation look: red boxes,
// green selection, black labels, blue handles on a black letterbox.
func DefaultAppearance() Appearance {
	return Appearance{
		Background:    color.RGBA{A: 255},
		BoxColor:      color.RGBA{R: 255, A: 255},
		SelectedColor: color.RGBA{G: 255, A: 255},
		LabelColor:    color.RGBA{A: 255},
		HandleColor:   color.RGBA{B: 255, A: 255},
		LineWidth:     2,
		HandleSize:    6,
	}
}

// Scene describes one frame of overlay content: the stored annotations
// plus any transient drag or drawing previews.
type Scene struct {
	Annotations   []*annotation.BBox
	SelectedIndex int
	SelectedLabel string
	GroupMode     bool
	EditMode      bool

	// DragPreviewIndex/DragPreviewBox override a stored annotation
	// while a control point is being dragged. Index -1 means no drag.
	DragPreviewIndex int
	DragPreviewBox   *geometry.Box

	// DrawingPreview is the in-progress box while drawing a new
	// annotation, labeled with SelectedLabel.
	DrawingPreview *geometry.Box
}

type overlayEntry struct {
	index int
	label string
	box   geometry.Box
}

func (s Scene) entries() []overlayEntry {
	out := make([]overlayEntry, 0, len(s.Annotations)+1)
	for i, ann := range s.Annotations {
		box := ann.Box()
		if s.DragPreviewBox != nil && i == s.DragPreviewIndex {
			box = *s.DragPreviewBox
		}
		out = append(out, overlayEntry{index: i, label: ann.Label(), box: box})
	}
	if s.DrawingPreview != nil {
		out = append(out, overlayEntry{index: -1, label: s.SelectedLabel, box: *s.DrawingPreview})
	}
	return out
}

func (s Scene) highlighted(e overlayEntry) bool {
	if s.GroupMode {
		return s.SelectedLabel != "" && e.label == s.SelectedLabel
	}
	return e.index >= 0 && e.index == s.SelectedIndex
}

// RenderOverlay draws the scene's annotations on top of a rendered
// viewport frame. Boxes are projected through the viewport without
// clamping so partially visible boxes keep their true extent; boxes
// entirely outside the frame are culled.
func RenderOverlay(dst *image.RGBA, vp *Viewport, scene Scene, look Appearance) error {
	w := dst.Bounds().Dx()
	h := dst.Bounds().Dy()
	for _, entry := range scene.entries() {
		p0, err := vp.ImageToViewport(entry.box.P0, false)
		if err != nil {
			return err
		}
		p1, err := vp.ImageToViewport(entry.box.P1, false)
		if err != nil {
			return err
		}
		lo := p0.Min(p1)
		hi := p0.Max(p1)
		x1, y1 := int(lo.X), int(lo.Y)
		x2, y2 := int(hi.X), int(hi.Y)
		if x2 < 0 || y2 < 0 || x1 > w || y1 > h {
			continue
		}

		col := look.BoxColor
		if scene.highlighted(entry) {
			col = look.SelectedColor
		}
		drawRectOutline(dst, x1, y1, x2, y2, col, look.LineWidth)

		if entry.label != "" {
			drawLabel(dst, entry.label, x1, y1-12, look.LabelColor, 2)
		}

		if scene.EditMode && entry.index >= 0 {
			drawHandles(dst, geometry.Box{
				P0: geometry.NewPoint2D(float64(x1), float64(y1)),
				P1: geometry.NewPoint2D(float64(x2), float64(y2)),
			}, look)
		}
	}
	return nil
}

// drawHandles marks the box's control points: squares on the four
// corners and a circle on the center.
func drawHandles(dst *image.RGBA, box geometry.Box, look Appearance) {
	half := look.HandleSize / 2
	if half < 1 {
		half = 1
	}
	points := controller.HandlePositions(box)
	for handle, p := range points {
		x := int(p.X)
		y := int(p.Y)
		if controller.Handle(handle) == controller.HandleCenter {
			fillCircle(dst, x, y, half, look.HandleColor)
		} else {
			fillRect(dst, x-half, y-half, x+half, y+half, look.HandleColor)
		}
	}
}
