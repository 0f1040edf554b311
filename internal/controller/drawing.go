// Package controller implements the pointer interaction state machines for
// drawing and editing bounding boxes. Controllers work entirely in image
// coordinates; the canvas converts pointer positions before calling in.
package controller

import (
	"fmt"
	"log"

	"bbox-annotator/pkg/geometry"
)

// Drawing turns a press-move-release sequence into a new bounding box.
// States: idle -> drawing -> idle.
type Drawing struct {
	active bool
	start  geometry.Point2D
	end    geometry.Point2D

	onCreated []func(box geometry.Box, label string)
}

// NewDrawing creates an idle drawing controller.
func NewDrawing() *Drawing {
	return &Drawing{}
}

// OnCreated registers a callback invoked when a box is completed.
func (d *Drawing) OnCreated(fn func(box geometry.Box, label string)) {
	d.onCreated = append(d.onCreated, fn)
}

// Active reports whether a drawing is in progress.
func (d *Drawing) Active() bool { return d.active }

// Start begins a new box at point, which is both corners until updated.
func (d *Drawing) Start(p geometry.Point2D) {
	d.active = true
	d.start = p
	d.end = p
}

// Update moves the free corner. Returns false when no drawing is in
// progress.
func (d *Drawing) Update(p geometry.Point2D) bool {
	if !d.active {
		return false
	}
	d.end = p
	return true
}

// Preview returns the in-progress box, unnormalized.
func (d *Drawing) Preview() (geometry.Box, bool) {
	if !d.active {
		return geometry.Box{}, false
	}
	return geometry.NewBox(d.start, d.end), true
}

// Finish completes the box at point and emits it with the given label. The
// controller returns to idle regardless of outcome; an empty label discards
// the box.
func (d *Drawing) Finish(p geometry.Point2D, label string) (geometry.Box, error) {
	if !d.active {
		return geometry.Box{}, fmt.Errorf("no drawing in progress")
	}
	d.active = false
	if label == "" {
		return geometry.Box{}, fmt.Errorf("cannot create a box without a label")
	}
	d.end = p
	box := geometry.NewBox(d.start, d.end).Normalized()
	for _, fn := range d.onCreated {
		fn(box, label)
	}
	log.Printf("drawing: created box [%v %v] with label %q", box.P0, box.P1, label)
	return box, nil
}

// Abort resets to idle without emitting anything.
func (d *Drawing) Abort() {
	d.active = false
}
