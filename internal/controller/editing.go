package controller

import (
	"math"

	"bbox-annotator/pkg/geometry"
)

// Handle identifies one of the five control points of a box.
type Handle int

const (
	HandleTopLeft Handle = iota
	HandleTopRight
	HandleBottomRight
	HandleBottomLeft
	HandleCenter
)

// String returns the handle name.
func (h Handle) String() string {
	switch h {
	case HandleTopLeft:
		return "top-left"
	case HandleTopRight:
		return "top-right"
	case HandleBottomRight:
		return "bottom-right"
	case HandleBottomLeft:
		return "bottom-left"
	case HandleCenter:
		return "center"
	}
	return "unknown"
}

// HandlePositions returns the five control-point positions of a box in
// handle order: four corners, then the center.
func HandlePositions(box geometry.Box) [5]geometry.Point2D {
	n := box.Normalized()
	return [5]geometry.Point2D{
		n.P0,
		{X: n.P1.X, Y: n.P0.Y},
		n.P1,
		{X: n.P0.X, Y: n.P1.Y},
		n.Center(),
	}
}

// Selection identifies the grabbed control point of one annotation.
type Selection struct {
	Index  int
	Handle Handle
}

// Editing drags the control points of existing boxes.
// States: idle -> dragging -> idle.
type Editing struct {
	active    bool
	anchor    geometry.Point2D
	selection Selection
	tolerance float64

	onModified []func(index int, box geometry.Box)
}

// NewEditing creates an idle editing controller. Tolerance is the pixel
// distance within which a click grabs a control point.
func NewEditing(tolerance float64) *Editing {
	return &Editing{tolerance: tolerance}
}

// OnModified registers a callback invoked each time the dragged box changes.
func (e *Editing) OnModified(fn func(index int, box geometry.Box)) {
	e.onModified = append(e.onModified, fn)
}

// Active reports whether a drag is in progress.
func (e *Editing) Active() bool { return e.active }

// Selection returns the control point being dragged. Only meaningful while
// Active.
func (e *Editing) Selection() Selection { return e.selection }

// FindControlPoint scans the boxes for a control point within tolerance of
// the click. The first match in list order wins.
func (e *Editing) FindControlPoint(p geometry.Point2D, boxes []geometry.Box) (Selection, bool) {
	for i, box := range boxes {
		for h, pos := range HandlePositions(box) {
			if math.Abs(pos.X-p.X) <= e.tolerance && math.Abs(pos.Y-p.Y) <= e.tolerance {
				return Selection{Index: i, Handle: Handle(h)}, true
			}
		}
	}
	return Selection{}, false
}

// Start begins dragging the selected control point from point.
func (e *Editing) Start(p geometry.Point2D, sel Selection) {
	e.active = true
	e.anchor = p
	e.selection = sel
}

// Update applies the pointer movement to the dragged box and emits the
// modified, re-normalized bounds. The anchor advances to the new point so
// deltas are incremental. Returns false when idle or when the selection no
// longer refers to an existing box.
func (e *Editing) Update(p geometry.Point2D, boxes []geometry.Box) bool {
	if !e.active {
		return false
	}
	idx := e.selection.Index
	if idx < 0 || idx >= len(boxes) {
		return false
	}

	box := boxes[idx].Normalized()
	x1, y1 := box.P0.X, box.P0.Y
	x2, y2 := box.P1.X, box.P1.Y

	switch e.selection.Handle {
	case HandleCenter:
		d := p.Sub(e.anchor)
		x1, x2 = x1+d.X, x2+d.X
		y1, y2 = y1+d.Y, y2+d.Y
	case HandleTopLeft:
		x1, y1 = p.X, p.Y
	case HandleTopRight:
		x2, y1 = p.X, p.Y
	case HandleBottomRight:
		x2, y2 = p.X, p.Y
	case HandleBottomLeft:
		x1, y2 = p.X, p.Y
	}

	// Dragging a corner past its opposite flips the box; re-normalizing
	// silently swaps corner identity.
	modified := geometry.NewBox(
		geometry.NewPoint2D(x1, y1),
		geometry.NewPoint2D(x2, y2),
	).Normalized()

	for _, fn := range e.onModified {
		fn(idx, modified)
	}
	e.anchor = p
	return true
}

// Finish returns to idle.
func (e *Editing) Finish() {
	e.active = false
}
