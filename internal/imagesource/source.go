// Package imagesource enumerates and decodes the images of an annotation
// session directory.
package imagesource

import (
	"fmt"
	"image"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/disintegration/imaging"
)

// imageExtensions are the recognized raster file extensions, matched
// case-insensitively.
var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".bmp":  true,
	".gif":  true,
}

// ListImages returns the image files in dir, lexicographically sorted.
func ListImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("listing images in %s: %w", dir, err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if imageExtensions[ext] {
			paths = append(paths, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(paths)
	return paths, nil
}

// Decode reads and decodes an image file.
func Decode(path string) (image.Image, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return img, nil
}

// Source tracks a directory of images and an index-based cursor over them.
type Source struct {
	dir     string
	paths   []string
	index   int
	current image.Image

	onImageChanged []func(path string, img image.Image)
}

// NewSource creates a source with no directory attached.
func NewSource() *Source {
	return &Source{index: -1}
}

// OnImageChanged registers a callback invoked when the current image
// changes. The image is nil when the source is reset.
func (s *Source) OnImageChanged(fn func(path string, img image.Image)) {
	s.onImageChanged = append(s.onImageChanged, fn)
}

func (s *Source) notify() {
	for _, fn := range s.onImageChanged {
		fn(s.CurrentPath(), s.current)
	}
}

// Reset clears the source state.
func (s *Source) Reset() {
	s.dir = ""
	s.paths = nil
	s.index = -1
	s.current = nil
	s.notify()
}

// SetDirectory scans dir for images and loads the first one, if any.
func (s *Source) SetDirectory(dir string) error {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("invalid image directory: %s", dir)
	}
	paths, err := ListImages(dir)
	if err != nil {
		return err
	}
	s.dir = dir
	s.paths = paths
	s.index = -1
	s.current = nil
	if len(paths) == 0 {
		log.Printf("images: no images found in %s", dir)
		s.notify()
		return nil
	}
	log.Printf("images: found %d in %s", len(paths), dir)
	return s.SetIndex(0)
}

// Directory returns the current directory, empty if none.
func (s *Source) Directory() string { return s.dir }

// Paths returns the image paths of the current directory.
func (s *Source) Paths() []string { return s.paths }

// Index returns the current image index, -1 if none.
func (s *Source) Index() int { return s.index }

// CurrentPath returns the current image path, empty if none.
func (s *Source) CurrentPath() string {
	if s.index < 0 || s.index >= len(s.paths) {
		return ""
	}
	return s.paths[s.index]
}

// Current returns the current decoded image, nil if none.
func (s *Source) Current() image.Image { return s.current }

// SetIndex loads the image at index and makes it current.
func (s *Source) SetIndex(index int) error {
	if index < 0 || index >= len(s.paths) {
		return fmt.Errorf("image index %d out of range [0,%d)", index, len(s.paths))
	}
	img, err := Decode(s.paths[index])
	if err != nil {
		return err
	}
	s.index = index
	s.current = img
	s.notify()
	return nil
}

// Next advances to the next image, if there is one.
func (s *Source) Next() error {
	if s.index+1 >= len(s.paths) {
		return fmt.Errorf("already at the last image")
	}
	return s.SetIndex(s.index + 1)
}

// Prev moves to the previous image, if there is one.
func (s *Source) Prev() error {
	if s.index <= 0 {
		return fmt.Errorf("already at the first image")
	}
	return s.SetIndex(s.index - 1)
}
