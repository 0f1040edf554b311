package prefs

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bbox-annotator/pkg/colorutil"
	"bbox-annotator/ui/canvas"
)

func TestPrefsRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "preferences.json")

	p := LoadFrom(path)
	p.SetString(KeyLastDirectory, "/data/images")
	p.SetFloat(KeyLineWidth, 3)
	p.SetBool("verbose", true)
	p.SetColor(KeyBBoxColor, colorutil.Green)
	require.NoError(t, p.Save())

	q := LoadFrom(path)
	assert.Equal(t, "/data/images", q.String(KeyLastDirectory, ""))
	assert.Equal(t, 3.0, q.Float(KeyLineWidth, 0))
	assert.True(t, q.Bool("verbose", false))
	assert.Equal(t, colorutil.Green, q.Color(KeyBBoxColor, colorutil.Black))
}

func TestPrefsFallbacks(t *testing.T) {
	p := LoadFrom(filepath.Join(t.TempDir(), "missing.json"))

	assert.Equal(t, "fallback", p.String("nope", "fallback"))
	assert.Equal(t, 7.0, p.Float("nope", 7))
	assert.True(t, p.Bool("nope", true))
	assert.Equal(t, colorutil.Red, p.Color("nope", colorutil.Red))

	p.SetString("color", "not-a-color")
	assert.Equal(t, colorutil.Blue, p.Color("color", colorutil.Blue))
}

func TestAppearanceDefaults(t *testing.T) {
	p := LoadFrom(filepath.Join(t.TempDir(), "missing.json"))
	assert.Equal(t, canvas.DefaultAppearance(), p.Appearance())
}

func TestAppearanceRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "preferences.json")

	look := canvas.Appearance{
		Background:    colorutil.White,
		BoxColor:      colorutil.Blue,
		SelectedColor: colorutil.Red,
		LabelColor:    colorutil.Green,
		HandleColor:   colorutil.Black,
		LineWidth:     4,
		HandleSize:    9,
	}
	p := LoadFrom(path)
	p.SetAppearance(look)
	require.NoError(t, p.Save())

	assert.Equal(t, look, LoadFrom(path).Appearance())
}
