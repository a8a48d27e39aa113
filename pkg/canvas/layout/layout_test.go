package layout

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-go-golems/branchcanvas/pkg/canvas/geometry"
	"github.com/go-go-golems/branchcanvas/pkg/canvas/tree"
)

func TestLayoutChildrenCentersGroup(t *testing.T) {
	s := tree.NewStore()
	root, err := s.InsertRoot(&tree.Node{Position: geometry.Point{X: 400, Y: 100}})
	require.NoError(t, err)

	var kids []tree.NodeID
	for i := 0; i < 3; i++ {
		id, err := s.CreateChild(root, nil, "", "", true)
		require.NoError(t, err)
		kids = append(kids, id)
	}

	e := NewEngine(DefaultConfig())
	require.NoError(t, e.LayoutChildren(s, root))

	want := []float64{-160, 400, 960}
	for i, id := range kids {
		n, _ := s.Get(id)
		assert.Equal(t, want[i], n.Position.X)
		assert.Equal(t, 700.0, n.Position.Y)
	}
}

func TestLayoutChildrenLeavesGrandchildren(t *testing.T) {
	s := tree.NewStore()
	root, _ := s.InsertRoot(&tree.Node{Position: geometry.Point{X: 400, Y: 100}})
	a, _ := s.CreateChild(root, nil, "", "", true)
	e := NewEngine(DefaultConfig())
	require.NoError(t, e.LayoutChildren(s, root))

	a1, _ := s.CreateChild(a, nil, "", "", true)
	require.NoError(t, e.LayoutChildren(s, a))
	before, _ := s.Get(a1)
	grandchild := before.Position

	_, _ = s.CreateChild(root, nil, "", "", true)
	require.NoError(t, e.LayoutChildren(s, root))

	after, _ := s.Get(a1)
	assert.Equal(t, grandchild, after.Position)
	na, _ := s.Get(a)
	assert.Equal(t, 120.0, na.Position.X)
}

func TestLayoutChildrenMissingParent(t *testing.T) {
	e := NewEngine(DefaultConfig())
	err := e.LayoutChildren(tree.NewStore(), tree.NewNodeID())
	assert.True(t, errors.Is(err, tree.ErrNotFound))
}

func TestNodeHeight(t *testing.T) {
	c := DefaultConfig()
	assert.Equal(t, 500.0, c.NodeHeight(true))
	assert.Equal(t, 140.0, c.NodeHeight(false))
	assert.Empty(t, c.Slots(geometry.Point{}, 0))
}

func TestConfigValidate(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())

	c := DefaultConfig()
	c.NodeWidth = 0
	assert.Error(t, c.Validate())

	c = DefaultConfig()
	c.HorizontalGap = -1
	assert.Error(t, c.Validate())
}
