package gesture

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-go-golems/branchcanvas/pkg/canvas/geometry"
	"github.com/go-go-golems/branchcanvas/pkg/canvas/tree"
)

func TestDragKeepsGrabOffset(t *testing.T) {
	c := NewController()
	id := tree.NewNodeID()
	require.NoError(t, c.BeginNodeDrag(id, geometry.Point{X: 130, Y: 120}, geometry.Point{X: 100, Y: 100}))
	assert.Equal(t, DraggingNode, c.Kind())

	got, pos, ok := c.DragTarget(geometry.Point{X: 230, Y: 170})
	require.True(t, ok)
	assert.Equal(t, id, got)
	assert.Equal(t, geometry.Point{X: 200, Y: 150}, pos)

	_, ok = c.PanDelta(geometry.Point{})
	assert.False(t, ok)

	assert.Equal(t, DraggingNode, c.End())
	assert.Equal(t, Idle, c.Kind())
}

func TestPanDeltaSinceLastSample(t *testing.T) {
	c := NewController()
	require.NoError(t, c.BeginPan(geometry.Point{X: 10, Y: 10}))

	d, ok := c.PanDelta(geometry.Point{X: 15, Y: 7})
	require.True(t, ok)
	assert.Equal(t, geometry.Point{X: 5, Y: -3}, d)

	d, _ = c.PanDelta(geometry.Point{X: 20, Y: 7})
	assert.Equal(t, geometry.Point{X: 10, Y: -3}, d, "unapplied samples are not recorded")

	c.Advance(geometry.Point{X: 15, Y: 7})
	d, _ = c.PanDelta(geometry.Point{X: 20, Y: 7})
	assert.Equal(t, geometry.Point{X: 5, Y: 0}, d)

	_, _, ok = c.DragTarget(geometry.Point{})
	assert.False(t, ok)
}

func TestGesturesAreExclusive(t *testing.T) {
	c := NewController()
	require.NoError(t, c.BeginPan(geometry.Point{}))

	err := c.BeginNodeDrag(tree.NewNodeID(), geometry.Point{}, geometry.Point{})
	assert.True(t, errors.Is(err, ErrBusy))
	assert.Equal(t, Panning, c.Kind())

	c.End()
	require.NoError(t, c.BeginNodeDrag(tree.NewNodeID(), geometry.Point{}, geometry.Point{}))
	assert.True(t, errors.Is(c.BeginPan(geometry.Point{}), ErrBusy))
}

func TestEndFromIdle(t *testing.T) {
	c := NewController()
	assert.Equal(t, Idle, c.End())
	assert.Equal(t, "idle", c.Kind().String())
}
