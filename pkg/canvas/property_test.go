package canvas

import (
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/go-go-golems/branchcanvas/pkg/canvas/geometry"
	"github.com/go-go-golems/branchcanvas/pkg/canvas/gesture"
	"github.com/go-go-golems/branchcanvas/pkg/canvas/tree"
)

func drawPoint(t *rapid.T, label string) geometry.Point {
	return geometry.Point{
		X: rapid.Float64Range(-2000, 2000).Draw(t, label+"X"),
		Y: rapid.Float64Range(-2000, 2000).Draw(t, label+"Y"),
	}
}

func liveIDs(e *Engine) []tree.NodeID {
	var ids []tree.NodeID
	e.Store().Walk(func(n *tree.Node) bool {
		ids = append(ids, n.ID)
		return true
	})
	return ids
}

// TestRandomInteractionsKeepInvariants mixes structural edits, view changes
// and gestures and checks the tree after every step.
func TestRandomInteractionsKeepInvariants(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		e := newTestEngine(t)
		steps := rapid.IntRange(1, 80).Draw(t, "steps")

		for i := 0; i < steps; i++ {
			ids := liveIDs(e)
			target := rapid.SampledFrom(ids).Draw(t, "target")

			switch rapid.IntRange(0, 9).Draw(t, "op") {
			case 0, 1:
				_, err := e.Branch(target, nil, "")
				require.NoError(t, err)
			case 2:
				_, _ = e.BranchFromSelection(target, rapid.String().Draw(t, "span"))
			case 3:
				_, err := e.DeleteSubtree(target)
				require.NoError(t, err)
			case 4:
				other := rapid.SampledFrom(ids).Draw(t, "other")
				_ = e.Reparent(target, other)
			case 5:
				require.NoError(t, e.ToggleExpanded(target))
			case 6:
				_ = e.ZoomAt(drawPoint(t, "cursor"), rapid.Float64Range(-1, 1).Draw(t, "dir"))
			case 7:
				e.PointerDown(drawPoint(t, "down"))
			case 8:
				_ = e.UpdateDrag(drawPoint(t, "move"))
			case 9:
				e.EndDrag()
			}

			require.NoError(t, e.Store().Validate())
			_, ok := e.Store().Root()
			require.True(t, ok)
			zoom := e.Viewport().Zoom
			require.GreaterOrEqual(t, zoom, DefaultConfig().Viewport.MinZoom)
			require.LessOrEqual(t, zoom, DefaultConfig().Viewport.MaxZoom)
			require.True(t, e.Viewport().Pan.IsFinite())
			for _, id := range liveIDs(e) {
				require.True(t, position(t, e, id).IsFinite())
			}
			if g := e.Gesture(); g.Kind == gesture.DraggingNode {
				_, ok := e.Node(g.NodeID)
				require.True(t, ok, "drag target must exist")
			}
		}
	})
}

// TestDragIsRigid checks that a drag translates the grabbed subtree by one
// common delta and leaves every other node where it was.
func TestDragIsRigid(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		e := newTestEngine(t)
		for i, n := 0, rapid.IntRange(1, 15).Draw(t, "branches"); i < n; i++ {
			parent := rapid.SampledFrom(liveIDs(e)).Draw(t, "parent")
			_, err := e.Branch(parent, nil, "")
			require.NoError(t, err)
		}
		e.Viewport().Zoom = rapid.Float64Range(0.2, 3).Draw(t, "zoom")

		ids := liveIDs(e)
		dragged := rapid.SampledFrom(ids).Draw(t, "dragged")
		subtree := map[tree.NodeID]bool{dragged: true}
		for _, d := range e.Store().Descendants(dragged) {
			subtree[d] = true
		}
		before := map[tree.NodeID]geometry.Point{}
		for _, id := range ids {
			before[id] = position(t, e, id)
		}

		start := e.Viewport().WorldToScreen(before[dragged].Add(geometry.Point{X: 5, Y: 5}))
		require.NoError(t, e.BeginNodeDrag(dragged, start))
		moves := rapid.IntRange(1, 5).Draw(t, "moves")
		for i := 0; i < moves; i++ {
			require.NoError(t, e.UpdateDrag(drawPoint(t, "pointer")))
		}
		e.EndDrag()

		delta := position(t, e, dragged).Sub(before[dragged])
		for _, id := range ids {
			got := position(t, e, id)
			if subtree[id] {
				want := before[id].Add(delta)
				require.InDelta(t, want.X, got.X, 1e-6)
				require.InDelta(t, want.Y, got.Y, 1e-6)
			} else {
				require.Equal(t, before[id], got)
			}
		}
	})
}

func TestSnapshotIsIsolated(t *testing.T) {
	e := newTestEngine(t)
	a, err := e.Branch(e.RootID(), nil, "")
	require.NoError(t, err)

	s := e.Snapshot()
	require.Len(t, s.Nodes, 2)
	require.Len(t, s.Edges, 1)
	require.Equal(t, geometry.Point{X: 640, Y: 240}, s.Edges[0].Connection.From)
	require.Equal(t, geometry.Point{X: 640, Y: 700}, s.Edges[0].Connection.To)

	s.Nodes[0].Payload[0].Text = "changed"
	s.Nodes[0].Children[0] = tree.NewNodeID()

	root, _ := e.Node(e.RootID())
	require.Equal(t, DefaultRootGreeting, root.Payload[0].Text)
	require.Equal(t, []tree.NodeID{a}, root.Children)

	require.NoError(t, e.ToggleExpanded(e.RootID()))
	require.Equal(t, 600.0, e.Snapshot().Edges[0].Connection.From.Y)
	require.Equal(t, 240.0, s.Edges[0].Connection.From.Y)
}
