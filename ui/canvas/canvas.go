package canvas

import (
	"image"
	"log"

	"fyne.io/fyne/v2"
	fynecanvas "fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	"bbox-annotator/internal/annotation"
	"bbox-annotator/internal/controller"
	"bbox-annotator/internal/labels"
	"bbox-annotator/pkg/geometry"
)

const (
	zoomInStep  = 1.1
	zoomOutStep = 0.9
)

// Tool represents the current interaction tool. The wheel always zooms;
// the tool decides what a left-drag does.
type Tool int

const (
	ToolPan Tool = iota
	ToolDraw
	ToolEdit
)

// Canvas displays the current image through a Viewport and routes pointer
// events to the drawing and editing controllers. All controller traffic is
// in image coordinates; the canvas converts at the event boundary.
type Canvas struct {
	widget.BaseWidget

	viewport *Viewport
	raster   *fynecanvas.Raster
	img      image.Image

	handler  *annotation.Handler
	registry *labels.Registry
	drawing  *controller.Drawing
	editing  *controller.Editing

	tool      Tool
	groupMode bool
	look      Appearance

	// Transient override for the box whose control point is being dragged.
	dragPreviewIndex int
	dragPreviewBox   *geometry.Box
	lastDrag         geometry.Point2D

	// Image-space point grabbed at pan start; kept under the cursor while
	// dragging.
	panning   bool
	panAnchor geometry.Point2D

	lastOutput *image.RGBA

	onContentChanged []func()
}

var _ fyne.Draggable = (*Canvas)(nil)
var _ fyne.Scrollable = (*Canvas)(nil)
var _ desktop.Mouseable = (*Canvas)(nil)

// New creates a canvas wired to the annotation handler, label registry, and
// interaction controllers.
func New(handler *annotation.Handler, registry *labels.Registry, drawing *controller.Drawing, editing *controller.Editing) *Canvas {
	c := &Canvas{
		viewport:         NewViewport(image.Pt(500, 500), DefaultAppearance().Background),
		handler:          handler,
		registry:         registry,
		drawing:          drawing,
		editing:          editing,
		tool:             ToolPan,
		look:             DefaultAppearance(),
		dragPreviewIndex: -1,
	}
	c.raster = fynecanvas.NewRaster(c.draw)
	c.raster.ScaleMode = fynecanvas.ImageScalePixels

	c.viewport.OnModified(func() {
		c.Refresh()
		for _, fn := range c.onContentChanged {
			fn()
		}
	})
	handler.OnChanged(c.Refresh)
	handler.OnSelectionChanged(func(int) { c.Refresh() })
	registry.OnCurrentChanged(func(string) { c.Refresh() })
	editing.OnModified(func(index int, box geometry.Box) {
		c.dragPreviewIndex = index
		c.dragPreviewBox = &box
		c.Refresh()
	})

	c.ExtendBaseWidget(c)
	return c
}

// CreateRenderer implements fyne.Widget.
func (c *Canvas) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(c.raster)
}

// MinSize implements fyne.Widget.
func (c *Canvas) MinSize() fyne.Size {
	return fyne.NewSize(500, 500)
}

// Resize keeps the viewport dimensions in sync with the widget.
func (c *Canvas) Resize(size fyne.Size) {
	c.BaseWidget.Resize(size)
	c.viewport.SetSize(image.Pt(int(size.Width), int(size.Height)))
}

// Viewport returns the coordinate transform engine.
func (c *Canvas) Viewport() *Viewport { return c.viewport }

// Appearance returns the current annotation look.
func (c *Canvas) Appearance() Appearance { return c.look }

// SetAppearance updates the annotation look.
func (c *Canvas) SetAppearance(look Appearance) {
	c.look = look
	c.viewport.SetBackground(look.Background)
	c.Refresh()
}

// Tool returns the current interaction tool.
func (c *Canvas) Tool() Tool { return c.tool }

// SetTool sets the current interaction tool. Switching away from an active
// drawing or drag aborts it.
func (c *Canvas) SetTool(tool Tool) {
	if tool == c.tool {
		return
	}
	c.drawing.Abort()
	c.editing.Finish()
	c.clearDragPreview()
	c.tool = tool
	c.Refresh()
}

// GroupMode returns whether all boxes with the selected label highlight
// together.
func (c *Canvas) GroupMode() bool { return c.groupMode }

// SetGroupMode toggles group highlighting.
func (c *Canvas) SetGroupMode(on bool) {
	c.groupMode = on
	c.Refresh()
}

// SetImage sets the displayed image (nil clears) and refits the viewport.
func (c *Canvas) SetImage(img image.Image) {
	c.img = img
	c.drawing.Abort()
	c.editing.Finish()
	c.clearDragPreview()
	c.viewport.SetupForImage(img)
}

// Image returns the displayed image.
func (c *Canvas) Image() image.Image { return c.img }

// Rendered returns the last rendered frame for sampling.
func (c *Canvas) Rendered() *image.RGBA { return c.lastOutput }

// OnContentChanged registers a callback invoked after every viewport change.
func (c *Canvas) OnContentChanged(fn func()) {
	c.onContentChanged = append(c.onContentChanged, fn)
}

// Refresh redraws the raster.
func (c *Canvas) Refresh() {
	c.raster.Refresh()
	c.BaseWidget.Refresh()
}

// Scrolled zooms about the cursor. Wheel up zooms in, wheel down zooms out.
func (c *Canvas) Scrolled(ev *fyne.ScrollEvent) {
	if !c.viewport.Ready() {
		return
	}
	step := 0.0
	if ev.Scrolled.DY > 0 {
		step = zoomInStep
	} else if ev.Scrolled.DY < 0 {
		step = zoomOutStep
	} else {
		return
	}
	cursor := geometry.NewPoint2D(float64(ev.Position.X), float64(ev.Position.Y))
	if err := c.viewport.ZoomAbout(step, cursor); err != nil {
		log.Printf("canvas: zoom failed: %v", err)
	}
}

// MouseDown starts the interaction for the current tool.
func (c *Canvas) MouseDown(ev *desktop.MouseEvent) {
	if ev.Button != desktop.MouseButtonPrimary || !c.viewport.Ready() {
		return
	}
	p, err := c.imagePoint(ev.Position)
	if err != nil {
		return
	}
	c.lastDrag = p

	switch c.tool {
	case ToolPan:
		c.panning = true
		c.panAnchor = p
	case ToolDraw:
		if c.registry.Current() == "" {
			log.Printf("canvas: select a label before drawing")
			return
		}
		c.drawing.Start(p)
		c.Refresh()
	case ToolEdit:
		sel, ok := c.editing.FindControlPoint(p, c.boxes())
		if !ok {
			return
		}
		c.editing.Start(p, sel)
		if err := c.handler.Select(sel.Index); err != nil {
			log.Printf("canvas: select annotation %d: %v", sel.Index, err)
		}
	}
}

// Dragged continues the interaction: pans the viewport, stretches the
// in-progress box, or moves the grabbed control point.
func (c *Canvas) Dragged(ev *fyne.DragEvent) {
	if !c.viewport.Ready() {
		return
	}

	if c.tool == ToolPan {
		if !c.panning {
			return
		}
		// Keep the grabbed image point under the cursor.
		size := c.viewport.Size()
		zoom := c.viewport.ZoomScale()
		target := geometry.NewPoint2D(
			c.panAnchor.X-(float64(ev.Position.X)-float64(size.X)/2)/zoom,
			c.panAnchor.Y-(float64(ev.Position.Y)-float64(size.Y)/2)/zoom,
		)
		if err := c.viewport.SetOffset(target); err != nil {
			log.Printf("canvas: pan failed: %v", err)
		}
		return
	}

	p, err := c.imagePoint(ev.Position)
	if err != nil {
		return
	}
	c.lastDrag = p

	switch c.tool {
	case ToolDraw:
		if c.drawing.Update(p) {
			c.Refresh()
		}
	case ToolEdit:
		c.editing.Update(p, c.boxes())
	}
}

// boxes snapshots the stored annotation bounds in list order for the
// editing controller.
func (c *Canvas) boxes() []geometry.Box {
	anns := c.handler.Boxes()
	out := make([]geometry.Box, len(anns))
	for i, a := range anns {
		out[i] = a.Box()
	}
	return out
}

// DragEnd completes the interaction at the last dragged point.
func (c *Canvas) DragEnd() {
	c.finishInteraction(c.lastDrag)
}

// MouseUp completes the interaction at the release point.
func (c *Canvas) MouseUp(ev *desktop.MouseEvent) {
	if ev.Button != desktop.MouseButtonPrimary || !c.viewport.Ready() {
		return
	}
	p, err := c.imagePoint(ev.Position)
	if err != nil {
		p = c.lastDrag
	}
	c.finishInteraction(p)
}

func (c *Canvas) finishInteraction(p geometry.Point2D) {
	c.panning = false
	if c.drawing.Active() {
		if _, err := c.drawing.Finish(p, c.registry.Current()); err != nil {
			log.Printf("canvas: finish drawing: %v", err)
		}
		c.Refresh()
	}
	if c.editing.Active() {
		c.editing.Finish()
		c.clearDragPreview()
		c.Refresh()
	}
}

func (c *Canvas) clearDragPreview() {
	c.panning = false
	c.dragPreviewIndex = -1
	c.dragPreviewBox = nil
}

// imagePoint converts a widget-space event position to image coordinates.
func (c *Canvas) imagePoint(pos fyne.Position) (geometry.Point2D, error) {
	return c.viewport.ViewportToImage(geometry.NewPoint2D(float64(pos.X), float64(pos.Y)))
}

func (c *Canvas) scene() Scene {
	s := Scene{
		Annotations:      c.handler.Boxes(),
		SelectedIndex:    c.handler.SelectedIndex(),
		SelectedLabel:    c.registry.Current(),
		GroupMode:        c.groupMode,
		EditMode:         c.tool == ToolEdit,
		DragPreviewIndex: c.dragPreviewIndex,
		DragPreviewBox:   c.dragPreviewBox,
	}
	if box, ok := c.drawing.Preview(); ok {
		s.DrawingPreview = &box
	}
	return s
}

// draw is the raster drawing function.
func (c *Canvas) draw(w, h int) image.Image {
	if w <= 0 || h <= 0 {
		return image.NewRGBA(image.Rect(0, 0, 1, 1))
	}
	if sz := image.Pt(w, h); sz != c.viewport.Size() {
		c.viewport.SetSize(sz)
	}

	if c.img == nil || !c.viewport.Ready() {
		blank := image.NewRGBA(image.Rect(0, 0, w, h))
		return blank
	}

	frame, err := c.viewport.CropAndResize(c.img)
	if err != nil {
		log.Printf("canvas: render failed: %v", err)
		return image.NewRGBA(image.Rect(0, 0, w, h))
	}
	if err := RenderOverlay(frame, c.viewport, c.scene(), c.look); err != nil {
		log.Printf("canvas: overlay failed: %v", err)
	}
	c.lastOutput = frame
	return frame
}
