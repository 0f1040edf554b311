// Package app wires the image source, annotation handler, label registry,
// and interaction controllers into one application state and manages the
// annotate-save-navigate lifecycle.
package app

import (
	"fmt"
	"image"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"bbox-annotator/internal/annotation"
	"bbox-annotator/internal/controller"
	"bbox-annotator/internal/imagesource"
	"bbox-annotator/internal/labels"
	"bbox-annotator/pkg/geometry"
	"bbox-annotator/ui/prefs"
)

// EventType identifies application events.
type EventType int

const (
	EventDirectoryOpened EventType = iota
	EventImageLoaded
	EventAnnotationsChanged
	EventModified
	EventLabelChanged
)

// EventListener is called when an event occurs.
type EventListener func(data interface{})

// editTolerance is the image-space grab distance for control points.
const editTolerance = 10.0

// State holds the application state: the image directory cursor, the
// annotations of the current image, the known labels, and preferences.
type State struct {
	mu sync.RWMutex

	Source      *imagesource.Source
	Annotations *annotation.Handler
	Labels      *labels.Registry
	Prefs       *prefs.Prefs
	Drawing     *controller.Drawing
	Editing     *controller.Editing

	listeners map[EventType][]EventListener
}

// NewState creates the application state and wires the component callbacks.
func NewState(p *prefs.Prefs) *State {
	s := &State{
		Source:      imagesource.NewSource(),
		Annotations: annotation.NewHandler(),
		Labels:      labels.NewRegistry(),
		Prefs:       p,
		Drawing:     controller.NewDrawing(),
		Editing:     controller.NewEditing(editTolerance),
		listeners:   make(map[EventType][]EventListener),
	}

	s.Drawing.OnCreated(func(box geometry.Box, label string) {
		s.Annotations.Add(label, box)
		s.Labels.Add(label)
	})
	s.Editing.OnModified(func(index int, box geometry.Box) {
		if err := s.Annotations.SetBox(index, box); err != nil {
			log.Printf("app: update box %d: %v", index, err)
		}
	})
	s.Source.OnImageChanged(func(path string, _ image.Image) {
		if path == "" {
			s.Annotations.Reset()
		} else if err := s.loadAnnotationsFor(path); err != nil {
			log.Printf("app: load annotations for %s: %v", path, err)
		}
		s.Emit(EventImageLoaded, path)
	})
	s.Annotations.OnChanged(func() {
		s.Emit(EventAnnotationsChanged, nil)
	})
	s.Annotations.OnDirtyChanged(func(dirty bool) {
		s.Emit(EventModified, dirty)
	})
	s.Labels.OnCurrentChanged(func(label string) {
		s.Emit(EventLabelChanged, label)
	})

	return s
}

// On registers an event listener for the specified event type.
func (s *State) On(event EventType, listener EventListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners[event] = append(s.listeners[event], listener)
}

// Emit triggers all listeners for the specified event type.
func (s *State) Emit(event EventType, data interface{}) {
	s.mu.RLock()
	listeners := s.listeners[event]
	s.mu.RUnlock()

	for _, listener := range listeners {
		listener(data)
	}
}

// OutputDir returns the directory annotation files are written to,
// creating it if needed.
func (s *State) OutputDir() string {
	dir := s.Prefs.String("output_dir", filepath.Join(".", "output"))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		log.Printf("app: create output dir %s: %v", dir, err)
	}
	return dir
}

// SetOutputDir changes the annotation output directory and reloads the
// current image's annotations from the new location.
func (s *State) SetOutputDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir %s: %w", dir, err)
	}
	s.Prefs.SetString("output_dir", dir)
	if path := s.Source.CurrentPath(); path != "" {
		return s.loadAnnotationsFor(path)
	}
	return nil
}

// AnnotationPath returns the annotation file path for an image: the image's
// base name with a .json extension, inside the output directory.
func (s *State) AnnotationPath(imagePath string) string {
	base := filepath.Base(imagePath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(s.OutputDir(), stem+".json")
}

func (s *State) loadAnnotationsFor(imagePath string) error {
	return s.Annotations.SetPath(s.AnnotationPath(imagePath))
}

// OpenDirectory scans a directory for images, loads the first one, and
// seeds the label registry from existing annotation files.
func (s *State) OpenDirectory(dir string) error {
	if err := s.SaveIfDirty(); err != nil {
		return err
	}
	if err := s.Source.SetDirectory(dir); err != nil {
		return err
	}
	s.Prefs.SetString(prefs.KeyLastDirectory, dir)
	s.Labels.AddAll(s.ScanLabels())
	s.Emit(EventDirectoryOpened, dir)
	return nil
}

// ScanLabels collects the distinct labels used across every annotation
// file in the output directory, sorted. Unreadable files are skipped.
func (s *State) ScanLabels() []string {
	matches, err := filepath.Glob(filepath.Join(s.OutputDir(), "*.json"))
	if err != nil {
		return nil
	}

	seen := make(map[string]struct{})
	for _, path := range matches {
		list, err := annotation.Load(path)
		if err != nil {
			continue
		}
		for _, ann := range list {
			if ann.Label() != "" {
				seen[ann.Label()] = struct{}{}
			}
		}
	}

	out := make([]string, 0, len(seen))
	for label := range seen {
		out = append(out, label)
	}
	sort.Strings(out)
	return out
}

// SaveIfDirty writes the current annotations when there are unsaved
// changes. A no-op when clean or when no image is loaded.
func (s *State) SaveIfDirty() error {
	if !s.Annotations.Dirty() {
		return nil
	}
	return s.Annotations.Save()
}

// NextImage saves pending changes and advances to the next image.
func (s *State) NextImage() error {
	if err := s.SaveIfDirty(); err != nil {
		return err
	}
	return s.Source.Next()
}

// PrevImage saves pending changes and steps back to the previous image.
func (s *State) PrevImage() error {
	if err := s.SaveIfDirty(); err != nil {
		return err
	}
	return s.Source.Prev()
}

// SelectImage saves pending changes and jumps to the image at index.
func (s *State) SelectImage(index int) error {
	if err := s.SaveIfDirty(); err != nil {
		return err
	}
	return s.Source.SetIndex(index)
}

// Shutdown saves pending annotations and preferences.
func (s *State) Shutdown() error {
	if err := s.SaveIfDirty(); err != nil {
		return err
	}
	return s.Prefs.Save()
}
