package controller

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bbox-annotator/pkg/geometry"
)

func TestDrawingLifecycle(t *testing.T) {
	d := NewDrawing()
	var created []geometry.Box
	var labels []string
	d.OnCreated(func(box geometry.Box, label string) {
		created = append(created, box)
		labels = append(labels, label)
	})

	assert.False(t, d.Active())
	d.Start(geometry.NewPoint2D(10, 10))
	assert.True(t, d.Active())

	assert.True(t, d.Update(geometry.NewPoint2D(50, 70)))
	preview, ok := d.Preview()
	require.True(t, ok)
	assert.Equal(t, geometry.NewPoint2D(10, 10), preview.P0)
	assert.Equal(t, geometry.NewPoint2D(50, 70), preview.P1)

	box, err := d.Finish(geometry.NewPoint2D(50, 70), "dog")
	require.NoError(t, err)
	assert.False(t, d.Active())
	assert.Equal(t, geometry.NewPoint2D(10, 10), box.P0)
	assert.Equal(t, geometry.NewPoint2D(50, 70), box.P1)
	require.Len(t, created, 1)
	assert.Equal(t, []string{"dog"}, labels)
}

func TestDrawingFinishNormalizes(t *testing.T) {
	d := NewDrawing()
	d.Start(geometry.NewPoint2D(50, 70))
	box, err := d.Finish(geometry.NewPoint2D(10, 10), "cat")
	require.NoError(t, err)
	assert.Equal(t, geometry.NewPoint2D(10, 10), box.P0)
	assert.Equal(t, geometry.NewPoint2D(50, 70), box.P1)
}

func TestDrawingFinishWithoutLabel(t *testing.T) {
	d := NewDrawing()
	var emitted int
	d.OnCreated(func(geometry.Box, string) { emitted++ })

	d.Start(geometry.NewPoint2D(0, 0))
	_, err := d.Finish(geometry.NewPoint2D(5, 5), "")
	assert.Error(t, err)
	assert.False(t, d.Active())
	assert.Zero(t, emitted)
}

func TestDrawingFinishWhenIdle(t *testing.T) {
	d := NewDrawing()
	_, err := d.Finish(geometry.NewPoint2D(5, 5), "dog")
	assert.Error(t, err)
}

func TestDrawingAbort(t *testing.T) {
	d := NewDrawing()
	var emitted int
	d.OnCreated(func(geometry.Box, string) { emitted++ })

	d.Start(geometry.NewPoint2D(0, 0))
	d.Update(geometry.NewPoint2D(5, 5))
	d.Abort()
	assert.False(t, d.Active())
	assert.Zero(t, emitted)

	_, ok := d.Preview()
	assert.False(t, ok)
	assert.False(t, d.Update(geometry.NewPoint2D(9, 9)))
}
