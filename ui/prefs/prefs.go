// Package prefs provides JSON-based application preferences.
package prefs

import (
	"encoding/json"
	"image/color"
	"os"
	"path/filepath"
	"sync"

	"bbox-annotator/pkg/colorutil"
	"bbox-annotator/ui/canvas"
)

const prefsFile = "preferences.json"

// Appearance preference keys.
const (
	KeyBackgroundColor = "appearance.background_color"
	KeyBBoxColor       = "appearance.bbox_color"
	KeySelectedColor   = "appearance.selected_color"
	KeyLabelColor      = "appearance.label_color"
	KeyPointColor      = "appearance.point_color"
	KeyLineWidth       = "appearance.line_width"
	KeyPointSize       = "appearance.point_size"
	KeyLastDirectory   = "last_directory"
)

// Prefs stores application preferences as a key-value map.
type Prefs struct {
	mu     sync.RWMutex
	values map[string]interface{}
	path   string
}

// Load reads preferences from ~/.config/bbox-annotator/preferences.json.
// Returns a Prefs with defaults if the file doesn't exist.
func Load() *Prefs {
	p := &Prefs{
		values: make(map[string]interface{}),
	}

	configDir, err := os.UserConfigDir()
	if err != nil {
		configDir = filepath.Join(os.Getenv("HOME"), ".config")
	}
	dir := filepath.Join(configDir, "bbox-annotator")
	p.path = filepath.Join(dir, prefsFile)

	data, err := os.ReadFile(p.path)
	if err != nil {
		return p
	}
	_ = json.Unmarshal(data, &p.values)
	return p
}

// LoadFrom reads preferences from an explicit file path. Used by tests.
func LoadFrom(path string) *Prefs {
	p := &Prefs{
		values: make(map[string]interface{}),
		path:   path,
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return p
	}
	_ = json.Unmarshal(data, &p.values)
	return p
}

// Save writes preferences to disk.
func (p *Prefs) Save() error {
	p.mu.RLock()
	data, err := json.MarshalIndent(p.values, "", "  ")
	p.mu.RUnlock()
	if err != nil {
		return err
	}

	dir := filepath.Dir(p.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(p.path, data, 0o644)
}

// Float returns a float64 preference, or fallback if not set.
func (p *Prefs) Float(key string, fallback float64) float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if v, ok := p.values[key]; ok {
		switch n := v.(type) {
		case float64:
			return n
		case int:
			return float64(n)
		}
	}
	return fallback
}

// SetFloat stores a float64 preference.
func (p *Prefs) SetFloat(key string, val float64) {
	p.mu.Lock()
	p.values[key] = val
	p.mu.Unlock()
}

// String returns a string preference, or fallback if not set.
func (p *Prefs) String(key, fallback string) string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if v, ok := p.values[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return fallback
}

// SetString stores a string preference.
func (p *Prefs) SetString(key string, val string) {
	p.mu.Lock()
	p.values[key] = val
	p.mu.Unlock()
}

// Bool returns a bool preference, or fallback if not set.
func (p *Prefs) Bool(key string, fallback bool) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if v, ok := p.values[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return fallback
}

// SetBool stores a bool preference.
func (p *Prefs) SetBool(key string, val bool) {
	p.mu.Lock()
	p.values[key] = val
	p.mu.Unlock()
}

// Color returns a hex color preference, or fallback when missing or
// malformed.
func (p *Prefs) Color(key string, fallback color.RGBA) color.RGBA {
	s := p.String(key, "")
	if s == "" {
		return fallback
	}
	c, err := colorutil.ParseHex(s)
	if err != nil {
		return fallback
	}
	return c
}

// SetColor stores a color preference as a hex string.
func (p *Prefs) SetColor(key string, c color.RGBA) {
	p.SetString(key, colorutil.FormatHex(c))
}

// Appearance assembles the canvas look from the stored preferences,
// falling back to the defaults for any missing key.
func (p *Prefs) Appearance() canvas.Appearance {
	def := canvas.DefaultAppearance()
	return canvas.Appearance{
		Background:    p.Color(KeyBackgroundColor, def.Background),
		BoxColor:      p.Color(KeyBBoxColor, def.BoxColor),
		SelectedColor: p.Color(KeySelectedColor, def.SelectedColor),
		LabelColor:    p.Color(KeyLabelColor, def.LabelColor),
		HandleColor:   p.Color(KeyPointColor, def.HandleColor),
		LineWidth:     int(p.Float(KeyLineWidth, float64(def.LineWidth))),
		HandleSize:    int(p.Float(KeyPointSize, float64(def.HandleSize))),
	}
}

// SetAppearance stores every appearance key.
func (p *Prefs) SetAppearance(look canvas.Appearance) {
	p.SetColor(KeyBackgroundColor, look.Background)
	p.SetColor(KeyBBoxColor, look.BoxColor)
	p.SetColor(KeySelectedColor, look.SelectedColor)
	p.SetColor(KeyLabelColor, look.LabelColor)
	p.SetColor(KeyPointColor, look.HandleColor)
	p.SetFloat(KeyLineWidth, float64(look.LineWidth))
	p.SetFloat(KeyPointSize, float64(look.HandleSize))
}
