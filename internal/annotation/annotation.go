// Package annotation provides the annotation data model and its JSON
// persistence, including upgrade of legacy file schemas.
package annotation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"bbox-annotator/pkg/geometry"
)

// Shape is the on-disk discriminant identifying a concrete annotation kind.
type Shape string

// ShapeBBox is the only shape currently implemented.
const ShapeBBox Shape = "BBox"

// Annotation is a labeled shape attached to one image.
type Annotation interface {
	Shape() Shape
	Label() string
}

// BBox is an axis-aligned bounding-box annotation. Corners are stored
// min/max normalized.
type BBox struct {
	Name string
	P0   geometry.Point2D
	P1   geometry.Point2D
}

// NewBBox creates a bounding-box annotation, normalizing the corners.
func NewBBox(label string, p0, p1 geometry.Point2D) *BBox {
	b := geometry.NewBox(p0, p1).Normalized()
	return &BBox{Name: label, P0: b.P0, P1: b.P1}
}

// Shape implements Annotation.
func (b *BBox) Shape() Shape { return ShapeBBox }

// Label implements Annotation.
func (b *BBox) Label() string { return b.Name }

// Box returns the annotation bounds as a geometry box.
func (b *BBox) Box() geometry.Box {
	return geometry.NewBox(b.P0, b.P1)
}

// SetBox replaces the bounds, normalizing the corners.
func (b *BBox) SetBox(box geometry.Box) {
	n := box.Normalized()
	b.P0, b.P1 = n.P0, n.P1
}

// List is an ordered collection of annotations belonging to one image.
type List []Annotation

// Boxes returns only the bounding-box annotations.
func (l List) Boxes() []*BBox {
	boxes := make([]*BBox, 0, len(l))
	for _, ann := range l {
		if b, ok := ann.(*BBox); ok {
			boxes = append(boxes, b)
		}
	}
	return boxes
}

// wireAnnotation is the canonical on-disk shape of a single annotation.
type wireAnnotation struct {
	Label string     `json:"label"`
	Shape Shape      `json:"shape"`
	P0    [2]float64 `json:"p0"`
	P1    [2]float64 `json:"p1"`
}

// legacyEntry matches both the canonical object and the old
// {"label","bbox":[x1,y1,x2,y2]} schema.
type legacyEntry struct {
	Label string    `json:"label"`
	Shape Shape     `json:"shape"`
	P0    []float64 `json:"p0"`
	P1    []float64 `json:"p1"`
	BBox  []float64 `json:"bbox"`
}

// decodeEntry decodes one annotation list entry, accepting the canonical
// object, the legacy label+bbox object, and the legacy bare corner-pair
// array (which carries no label).
func decodeEntry(raw json.RawMessage) (Annotation, error) {
	trimmed := bytes.TrimLeft(raw, " \t\r\n")
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var pair [2][2]float64
		if err := json.Unmarshal(raw, &pair); err != nil {
			return nil, fmt.Errorf("invalid corner-pair annotation: %w", err)
		}
		return NewBBox("",
			geometry.NewPoint2D(pair[0][0], pair[0][1]),
			geometry.NewPoint2D(pair[1][0], pair[1][1])), nil
	}

	var entry legacyEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return nil, fmt.Errorf("invalid annotation entry: %w", err)
	}

	switch {
	case entry.Shape == ShapeBBox:
		p0 := geometry.Point2D{}
		p1 := geometry.Point2D{}
		if len(entry.P0) >= 2 {
			p0 = geometry.NewPoint2D(entry.P0[0], entry.P0[1])
		}
		if len(entry.P1) >= 2 {
			p1 = geometry.NewPoint2D(entry.P1[0], entry.P1[1])
		}
		return NewBBox(entry.Label, p0, p1), nil
	case entry.Shape != "":
		return nil, fmt.Errorf("unknown annotation shape %q", entry.Shape)
	case len(entry.BBox) >= 4:
		return NewBBox(entry.Label,
			geometry.NewPoint2D(entry.BBox[0], entry.BBox[1]),
			geometry.NewPoint2D(entry.BBox[2], entry.BBox[3])), nil
	default:
		return nil, fmt.Errorf("annotation entry missing shape or bbox: %s", string(raw))
	}
}

// Decode parses an annotation file payload. The top level may be either a
// bare list or an object wrapping the list under "annotations"; entries are
// upgraded to the canonical shape.
func Decode(data []byte) (List, error) {
	var entries []json.RawMessage

	trimmed := bytes.TrimLeft(data, " \t\r\n")
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var wrapper struct {
			Annotations []json.RawMessage `json:"annotations"`
		}
		if err := json.Unmarshal(data, &wrapper); err != nil {
			return nil, fmt.Errorf("parsing annotation file: %w", err)
		}
		if wrapper.Annotations == nil {
			return nil, fmt.Errorf("annotation file object has no \"annotations\" key")
		}
		entries = wrapper.Annotations
	} else {
		if err := json.Unmarshal(data, &entries); err != nil {
			return nil, fmt.Errorf("parsing annotation file: %w", err)
		}
	}

	list := make(List, 0, len(entries))
	for i, raw := range entries {
		ann, err := decodeEntry(raw)
		if err != nil {
			return nil, fmt.Errorf("annotation %d: %w", i, err)
		}
		list = append(list, ann)
	}
	return list, nil
}

// Encode serializes the list in the canonical shape: human-readable
// indentation, non-ASCII characters left unescaped.
func (l List) Encode() ([]byte, error) {
	wire := make([]wireAnnotation, 0, len(l))
	for _, ann := range l {
		b, ok := ann.(*BBox)
		if !ok {
			return nil, fmt.Errorf("cannot encode annotation shape %q", ann.Shape())
		}
		wire = append(wire, wireAnnotation{
			Label: b.Name,
			Shape: ShapeBBox,
			P0:    [2]float64{b.P0.X, b.P0.Y},
			P1:    [2]float64{b.P1.X, b.P1.Y},
		})
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(wire); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Load reads and decodes an annotation file.
func Load(path string) (List, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	list, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return list, nil
}

// Save writes the list to path in the canonical shape.
func (l List) Save(path string) error {
	data, err := l.Encode()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
