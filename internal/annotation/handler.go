package annotation

import (
	"fmt"
	"log"
	"os"

	"bbox-annotator/pkg/geometry"
)

// Handler owns the annotation list for the current image: loading, saving,
// selection, and edit bookkeeping including the unsaved-changes flag.
type Handler struct {
	path        string
	annotations List
	selected    int
	dirty       bool

	onChanged   []func()
	onSelection []func(index int)
	onDirty     []func(dirty bool)
}

// NewHandler creates a handler with no annotation file attached.
func NewHandler() *Handler {
	return &Handler{selected: -1}
}

// OnChanged registers a callback invoked whenever the annotation list is
// mutated or reloaded.
func (h *Handler) OnChanged(fn func()) {
	h.onChanged = append(h.onChanged, fn)
}

// OnSelectionChanged registers a callback invoked when the selected index
// changes. Index is -1 when the selection is cleared.
func (h *Handler) OnSelectionChanged(fn func(index int)) {
	h.onSelection = append(h.onSelection, fn)
}

// OnDirtyChanged registers a callback invoked when the unsaved-changes
// state flips.
func (h *Handler) OnDirtyChanged(fn func(dirty bool)) {
	h.onDirty = append(h.onDirty, fn)
}

func (h *Handler) notifyChanged() {
	for _, fn := range h.onChanged {
		fn()
	}
}

func (h *Handler) setDirty(dirty bool) {
	if h.dirty == dirty {
		return
	}
	h.dirty = dirty
	for _, fn := range h.onDirty {
		fn(dirty)
	}
}

// Reset clears the handler state.
func (h *Handler) Reset() {
	h.path = ""
	h.annotations = nil
	h.selected = -1
	h.setDirty(false)
	h.notifyChanged()
}

// Path returns the current annotation file path, empty if none.
func (h *Handler) Path() string { return h.path }

// Dirty reports whether there are unsaved changes.
func (h *Handler) Dirty() bool { return h.dirty }

// Annotations returns the current list. Nil until a path is set.
func (h *Handler) Annotations() List { return h.annotations }

// Boxes returns the bounding-box annotations of the current list.
func (h *Handler) Boxes() []*BBox { return h.annotations.Boxes() }

// SetPath points the handler at an annotation file and loads it. A missing
// file initializes an empty list; a malformed file is an error and leaves
// the previous state intact.
func (h *Handler) SetPath(path string) error {
	if path == "" {
		h.Reset()
		return nil
	}
	if path == h.path {
		return nil
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		h.annotations = List{}
		log.Printf("annotations: initialized empty list for %s", path)
	} else {
		list, err := Load(path)
		if err != nil {
			return err
		}
		h.annotations = list
		log.Printf("annotations: loaded %d from %s", len(list), path)
	}

	h.path = path
	h.selected = -1
	h.setDirty(false)
	h.notifyChanged()
	return nil
}

// Save writes the list to the current path. Saving with no path is an
// error; saving with no unsaved changes is a no-op.
func (h *Handler) Save() error {
	if h.path == "" {
		return fmt.Errorf("annotations: no file path set")
	}
	if h.annotations == nil || !h.dirty {
		return nil
	}
	if err := h.annotations.Save(h.path); err != nil {
		return err
	}
	log.Printf("annotations: saved %d to %s", len(h.annotations), h.path)
	h.setDirty(false)
	return nil
}

// SelectedIndex returns the selected annotation index, -1 if none.
func (h *Handler) SelectedIndex() int { return h.selected }

// Selected returns the selected annotation, nil if none.
func (h *Handler) Selected() Annotation {
	if h.selected < 0 || h.selected >= len(h.annotations) {
		return nil
	}
	return h.annotations[h.selected]
}

// Select sets the selected index. -1 clears the selection.
func (h *Handler) Select(index int) error {
	if index < -1 || index >= len(h.annotations) {
		return fmt.Errorf("annotations: index %d out of range [0,%d)", index, len(h.annotations))
	}
	if index == h.selected {
		return nil
	}
	h.selected = index
	for _, fn := range h.onSelection {
		fn(index)
	}
	return nil
}

// Add appends a bounding-box annotation and marks the list dirty.
func (h *Handler) Add(label string, box geometry.Box) *BBox {
	ann := NewBBox(label, box.P0, box.P1)
	h.annotations = append(h.annotations, ann)
	h.setDirty(true)
	h.notifyChanged()
	return ann
}

func (h *Handler) box(index int) (*BBox, error) {
	if index < 0 || index >= len(h.annotations) {
		return nil, fmt.Errorf("annotations: index %d out of range [0,%d)", index, len(h.annotations))
	}
	b, ok := h.annotations[index].(*BBox)
	if !ok {
		return nil, fmt.Errorf("annotations: index %d is not a bounding box", index)
	}
	return b, nil
}

// Rename changes the label of the annotation at index.
func (h *Handler) Rename(index int, label string) error {
	b, err := h.box(index)
	if err != nil {
		return err
	}
	if b.Name == label {
		return nil
	}
	log.Printf("annotations: renamed %d: %s -> %s", index, b.Name, label)
	b.Name = label
	h.setDirty(true)
	h.notifyChanged()
	return nil
}

// SetBox replaces the bounds of the annotation at index, normalizing the
// corners.
func (h *Handler) SetBox(index int, box geometry.Box) error {
	b, err := h.box(index)
	if err != nil {
		return err
	}
	b.SetBox(box)
	h.setDirty(true)
	h.notifyChanged()
	return nil
}

// Delete removes the annotation at index.
func (h *Handler) Delete(index int) error {
	if index < 0 || index >= len(h.annotations) {
		return fmt.Errorf("annotations: index %d out of range [0,%d)", index, len(h.annotations))
	}
	label := h.annotations[index].Label()
	h.annotations = append(h.annotations[:index], h.annotations[index+1:]...)
	if h.selected == index {
		h.selected = -1
		for _, fn := range h.onSelection {
			fn(-1)
		}
	} else if h.selected > index {
		h.selected--
	}
	log.Printf("annotations: deleted %d (%s)", index, label)
	h.setDirty(true)
	h.notifyChanged()
	return nil
}
