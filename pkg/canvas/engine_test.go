package canvas

import (
	"errors"
	"math"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-go-golems/branchcanvas/pkg/canvas/geometry"
	"github.com/go-go-golems/branchcanvas/pkg/canvas/gesture"
	"github.com/go-go-golems/branchcanvas/pkg/canvas/tree"
)

func newTestEngine(t require.TestingT, options ...Option) *Engine {
	options = append([]Option{WithLogger(zerolog.Nop())}, options...)
	e, err := New(DefaultConfig(), options...)
	require.NoError(t, err)
	return e
}

func position(t require.TestingT, e *Engine, id tree.NodeID) geometry.Point {
	n, ok := e.Node(id)
	require.True(t, ok)
	return n.Position
}

func TestNewCreatesRoot(t *testing.T) {
	e := newTestEngine(t)

	root, ok := e.Node(e.RootID())
	require.True(t, ok)
	assert.Equal(t, geometry.Point{X: 400, Y: 100}, root.Position)
	assert.Equal(t, DefaultRootLabel, root.Label)
	assert.Equal(t, DefaultRootMetadata, root.Metadata)
	assert.False(t, root.Expanded)
	require.Len(t, root.Payload, 1)
	assert.Equal(t, tree.RoleResponder, root.Payload[0].Role)
	assert.Equal(t, int64(1), e.Version())

	_, err := e.CreateRoot(nil)
	assert.True(t, errors.Is(err, ErrInvalidOperation))
	assert.Equal(t, int64(1), e.Version())
}

func TestNewWithoutRoot(t *testing.T) {
	e := newTestEngine(t, WithoutRoot())
	assert.Equal(t, 0, e.Store().Len())

	id, err := e.CreateRoot([]tree.Entry{{Role: tree.RoleOriginator, Text: "hi"}})
	require.NoError(t, err)
	assert.Equal(t, id, e.RootID())
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Layout.NodeWidth = -1
	_, err := New(cfg)
	assert.Error(t, err)
}

func TestBranchLabelsAndLayout(t *testing.T) {
	e := newTestEngine(t)
	root := e.RootID()

	var ids []tree.NodeID
	for i := 0; i < 3; i++ {
		id, err := e.Branch(root, nil, "")
		require.NoError(t, err)
		ids = append(ids, id)
	}

	wantX := []float64{-160, 400, 960}
	for i, id := range ids {
		n, ok := e.Node(id)
		require.True(t, ok)
		assert.Equal(t, geometry.Point{X: wantX[i], Y: 700}, n.Position)
		assert.Equal(t, []string{"Branch 1", "Branch 2", "Branch 3"}[i], n.Label)
		assert.True(t, n.Expanded)
		assert.Equal(t, DefaultRootMetadata, n.Metadata)
		require.Len(t, n.Payload, 1)
		assert.Equal(t, DefaultBranchGreeting, n.Payload[0].Text)
	}
}

func TestBranchExplicitMetadataAndPayload(t *testing.T) {
	e := newTestEngine(t)
	id, err := e.Branch(e.RootID(), []tree.Entry{}, "gpt-4")
	require.NoError(t, err)

	n, _ := e.Node(id)
	assert.Equal(t, "gpt-4", n.Metadata)
	assert.Empty(t, n.Payload)

	child, err := e.Branch(id, nil, "")
	require.NoError(t, err)
	c, _ := e.Node(child)
	assert.Equal(t, "gpt-4", c.Metadata)
}

func TestBranchMissingParent(t *testing.T) {
	e := newTestEngine(t)
	before := e.Version()

	_, err := e.Branch(tree.NewNodeID(), nil, "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, before, e.Version())
	assert.Equal(t, 1, e.Store().Len())
}

func TestBranchFromSelection(t *testing.T) {
	e := newTestEngine(t)

	id, err := e.BranchFromSelection(e.RootID(), "  theoretical foundations of it  ")
	require.NoError(t, err)
	n, _ := e.Node(id)
	assert.Equal(t, "theoretical foundati...", n.Label)
	assert.True(t, n.Expanded)
	assert.Equal(t, DefaultRootMetadata, n.Metadata)
	require.Len(t, n.Payload, 1)
	assert.Equal(t, tree.Entry{Role: tree.RoleAnnotation, Text: `Exploring: "theoretical foundations of it"`}, n.Payload[0])

	_, err = e.BranchFromSelection(e.RootID(), " ab ")
	assert.True(t, errors.Is(err, ErrInvalidOperation))
	assert.Equal(t, 2, e.Store().Len())
}

func TestDeleteSubtreeRelaysSiblings(t *testing.T) {
	e := newTestEngine(t)
	root := e.RootID()
	a, _ := e.Branch(root, nil, "")
	b, _ := e.Branch(root, nil, "")
	a1, _ := e.Branch(a, nil, "")

	removed, err := e.DeleteSubtree(a)
	require.NoError(t, err)
	assert.Equal(t, []tree.NodeID{a, a1}, removed)
	assert.Equal(t, geometry.Point{X: 400, Y: 700}, position(t, e, b))
	require.NoError(t, e.Store().Validate())
}

func TestDeleteRootIsNoop(t *testing.T) {
	e := newTestEngine(t)
	_, _ = e.Branch(e.RootID(), nil, "")
	before := e.Version()

	removed, err := e.DeleteSubtree(e.RootID())
	require.NoError(t, err)
	assert.Nil(t, removed)
	assert.Equal(t, before, e.Version())
	assert.Equal(t, 2, e.Store().Len())
}

func TestAppendPayloadToDeletedNode(t *testing.T) {
	var stale []tree.NodeID
	e := newTestEngine(t, WithHooks(Hooks{
		OnStaleUpdate: func(ev *NodeEvent) { stale = append(stale, ev.NodeID) },
	}))
	id, _ := e.Branch(e.RootID(), nil, "")
	require.True(t, e.AppendPayload(id, tree.Entry{Role: tree.RoleOriginator, Text: "question"}))

	_, err := e.DeleteSubtree(id)
	require.NoError(t, err)
	before := e.Version()

	assert.False(t, e.AppendPayload(id, tree.Entry{Role: tree.RoleResponder, Text: "late reply"}))
	assert.Equal(t, before, e.Version())
	assert.Equal(t, []tree.NodeID{id}, stale)
	_, ok := e.Node(id)
	assert.False(t, ok)
	assert.Equal(t, 1, e.Store().Len())
}

func TestReparentRejectsCycleAndKeepsTree(t *testing.T) {
	e := newTestEngine(t)
	a, _ := e.Branch(e.RootID(), nil, "")
	a1, _ := e.Branch(a, nil, "")
	before := e.Snapshot()

	err := e.Reparent(a, a1)
	assert.True(t, errors.Is(err, ErrInvalidOperation))
	assert.Equal(t, before, e.Snapshot())
}

func TestReparentMovesSubtreeRigidly(t *testing.T) {
	e := newTestEngine(t)
	root := e.RootID()
	a, _ := e.Branch(root, nil, "")
	b, _ := e.Branch(root, nil, "")
	a1, _ := e.Branch(a, nil, "")
	a11, _ := e.Branch(a1, nil, "")

	offset := position(t, e, a11).Sub(position(t, e, a1))
	require.NoError(t, e.Reparent(a1, b))

	bPos := position(t, e, b)
	assert.Equal(t, geometry.Point{X: bPos.X, Y: bPos.Y + 600}, position(t, e, a1))
	assert.Equal(t, offset, position(t, e, a11).Sub(position(t, e, a1)))
	require.NoError(t, e.Store().Validate())
}

func TestToggleExpandedAndSetMetadata(t *testing.T) {
	e := newTestEngine(t)
	root := e.RootID()
	require.NoError(t, e.ToggleExpanded(root))
	require.NoError(t, e.SetMetadata(root, "claude-opus-4"))

	n, _ := e.Node(root)
	assert.True(t, n.Expanded)
	assert.Equal(t, "claude-opus-4", n.Metadata)

	assert.True(t, errors.Is(e.ToggleExpanded(tree.NewNodeID()), ErrNotFound))
}

func TestPointerDownRouting(t *testing.T) {
	e := newTestEngine(t)

	// root spans x 400..880, y 100..240 at zoom 1
	assert.Equal(t, gesture.Idle, e.PointerDown(geometry.Point{X: 500, Y: 200}))
	assert.Equal(t, gesture.DraggingNode, e.PointerDown(geometry.Point{X: 500, Y: 120}))
	e.EndDrag()
	assert.Equal(t, gesture.Panning, e.PointerDown(geometry.Point{X: 10, Y: 10}))

	require.NoError(t, e.UpdateDrag(geometry.Point{X: 30, Y: 0}))
	assert.Equal(t, geometry.Point{X: 20, Y: -10}, e.Viewport().Pan)

	e.EndDrag()
	assert.Equal(t, gesture.Idle, e.Gesture().Kind)
}

func TestPointerDownRecoversFromLostRelease(t *testing.T) {
	e := newTestEngine(t)
	require.NoError(t, e.BeginPan(geometry.Point{}))
	assert.Equal(t, gesture.DraggingNode, e.PointerDown(geometry.Point{X: 500, Y: 120}))
}

func TestHitTestPrefersLaterNodes(t *testing.T) {
	e := newTestEngine(t)
	a, _ := e.Branch(e.RootID(), nil, "")
	// drop a on top of the root
	require.NoError(t, e.Apply(MutateMoveNode(a, geometry.Point{X: 400, Y: 100})))

	id, region, ok := e.HitTest(geometry.Point{X: 500, Y: 120})
	require.True(t, ok)
	assert.Equal(t, a, id)
	assert.Equal(t, RegionHeader, region)

	_, region, ok = e.HitTest(geometry.Point{X: -500, Y: -500})
	assert.False(t, ok)
	assert.Equal(t, RegionNone, region)
}

func TestDragMovesSubtreeOnly(t *testing.T) {
	e := newTestEngine(t)
	root := e.RootID()
	a, _ := e.Branch(root, nil, "")
	a1, _ := e.Branch(a, nil, "")
	b, _ := e.Branch(root, nil, "")

	aPos := position(t, e, a)
	a1Pos := position(t, e, a1)
	bPos := position(t, e, b)
	rootPos := position(t, e, root)

	grab := geometry.Point{X: aPos.X + 10, Y: aPos.Y + 10}
	require.Equal(t, gesture.DraggingNode, e.PointerDown(grab))
	require.NoError(t, e.UpdateDrag(grab.Add(geometry.Point{X: 200, Y: 50})))
	e.EndDrag()

	delta := geometry.Point{X: 200, Y: 50}
	assert.Equal(t, aPos.Add(delta), position(t, e, a))
	assert.Equal(t, a1Pos.Add(delta), position(t, e, a1))
	assert.Equal(t, bPos, position(t, e, b))
	assert.Equal(t, rootPos, position(t, e, root))
}

func TestDragUnderZoomUsesWorldSpace(t *testing.T) {
	e := newTestEngine(t)
	root := e.RootID()
	e.Viewport().Zoom = 2
	e.Viewport().Pan = geometry.Point{X: -300, Y: -50}

	// root header at world (410, 110) is screen ((410-300)*2, (110-50)*2)
	require.Equal(t, gesture.DraggingNode, e.PointerDown(geometry.Point{X: 220, Y: 120}))
	require.NoError(t, e.UpdateDrag(geometry.Point{X: 240, Y: 140}))
	assert.Equal(t, geometry.Point{X: 410, Y: 110}, position(t, e, root))
}

func TestManualPositionLostOnStructuralChange(t *testing.T) {
	e := newTestEngine(t)
	root := e.RootID()
	a, _ := e.Branch(root, nil, "")
	require.NoError(t, e.Apply(MutateMoveNode(a, geometry.Point{X: 2000, Y: 2000})))

	_, err := e.Branch(root, nil, "")
	require.NoError(t, err)
	assert.Equal(t, geometry.Point{X: 120, Y: 700}, position(t, e, a))
}

func TestDraggedNodeDisappears(t *testing.T) {
	e := newTestEngine(t)
	a, _ := e.Branch(e.RootID(), nil, "")
	require.NoError(t, e.BeginNodeDrag(a, geometry.Point{X: 410, Y: 710}))

	// removed behind the engine's back, as a buggy host might
	_, err := e.Store().DeleteSubtree(a)
	require.NoError(t, err)

	require.NoError(t, e.UpdateDrag(geometry.Point{X: 500, Y: 800}))
	assert.Equal(t, gesture.Idle, e.Gesture().Kind)
}

func TestDeletingDraggedNodeEndsDrag(t *testing.T) {
	e := newTestEngine(t)
	a, _ := e.Branch(e.RootID(), nil, "")
	require.NoError(t, e.BeginNodeDrag(a, geometry.Point{X: 410, Y: 710}))
	_, err := e.DeleteSubtree(a)
	require.NoError(t, err)
	assert.Equal(t, gesture.Idle, e.Gesture().Kind)
}

func TestNonFiniteInputsRejected(t *testing.T) {
	e := newTestEngine(t)
	before := e.Snapshot()

	assert.True(t, errors.Is(e.Pan(math.NaN(), 0), ErrNonFinite))
	assert.True(t, errors.Is(e.ZoomAt(geometry.Point{X: math.Inf(1)}, 1), ErrNonFinite))
	assert.True(t, errors.Is(e.Apply(MutateMoveNode(e.RootID(), geometry.Point{Y: math.NaN()})), ErrNonFinite))
	assert.Equal(t, gesture.Idle, e.PointerDown(geometry.Point{X: math.NaN()}))

	assert.Equal(t, before, e.Snapshot())
}

func TestOverflowingResultsRejected(t *testing.T) {
	e := newTestEngine(t)
	for e.Viewport().Zoom > e.Config().Viewport.MinZoom {
		require.NoError(t, e.ZoomOut())
	}
	_, err := e.Branch(e.RootID(), nil, "")
	require.NoError(t, err)
	require.NoError(t, e.BeginNodeDrag(e.RootID(), geometry.Point{X: 100, Y: 25}))
	before := e.Snapshot()

	// finite inputs whose world coordinates overflow at 20% zoom
	assert.True(t, errors.Is(e.Pan(1e308, 0), ErrNonFinite))
	assert.True(t, errors.Is(e.UpdateDrag(geometry.Point{X: 1e308}), ErrNonFinite))
	assert.Equal(t, before, e.Snapshot())

	e.EndDrag()
	require.NoError(t, e.BeginPan(geometry.Point{X: -1e308}))
	assert.True(t, errors.Is(e.UpdateDrag(geometry.Point{X: 1e308}), ErrNonFinite))
	panX := e.Viewport().Pan.X
	require.NoError(t, e.UpdateDrag(geometry.Point{X: -1e308 + 1e300}))
	assert.InEpsilon(t, panX+5e300, e.Viewport().Pan.X, 1e-6)

	for _, n := range e.Snapshot().Nodes {
		assert.True(t, n.Position.IsFinite(), n.Label)
	}
}

func TestZoomKeepsCursorAnchored(t *testing.T) {
	e := newTestEngine(t)
	cursor := geometry.Point{X: 640, Y: 170}
	before := e.Viewport().ScreenToWorld(cursor)
	for i := 0; i < 10; i++ {
		require.NoError(t, e.ZoomAt(cursor, -1))
	}
	after := e.Viewport().ScreenToWorld(cursor)
	assert.InDelta(t, before.X, after.X, 1e-9)
	assert.InDelta(t, before.Y, after.Y, 1e-9)
	assert.Greater(t, e.Viewport().Zoom, 1.0)
}

func TestZoomAtLimitDoesNotBumpVersion(t *testing.T) {
	e := newTestEngine(t)
	e.Viewport().Zoom = DefaultConfig().Viewport.MaxZoom
	before := e.Version()
	require.NoError(t, e.ZoomAt(geometry.Point{X: 1, Y: 1}, -1))
	assert.Equal(t, before, e.Version())
}

func TestFitToContent(t *testing.T) {
	e := newTestEngine(t)
	for i := 0; i < 3; i++ {
		_, _ = e.Branch(e.RootID(), nil, "")
	}
	screen := geometry.Size{W: 1280, H: 800}
	require.NoError(t, e.FitToContent(screen, 40))

	bounds := e.ContentBounds()
	tl := e.Viewport().WorldToScreen(bounds.Min)
	br := e.Viewport().WorldToScreen(bounds.Max())
	assert.GreaterOrEqual(t, tl.X, 40.0-1e-6)
	assert.GreaterOrEqual(t, tl.Y, 40.0-1e-6)
	assert.LessOrEqual(t, br.X, 1240.0+1e-6)
	assert.LessOrEqual(t, br.Y, 760.0+1e-6)

	require.NoError(t, e.ResetView())
	assert.Equal(t, 100, e.Snapshot().ZoomPercent)
}

func TestHooksSeeAppliedAndRejectedMutations(t *testing.T) {
	var names []string
	var failed []string
	var created int
	e := newTestEngine(t, WithHooks(Hooks{
		OnMutation: func(ev *MutationEvent) {
			if ev.Err != nil {
				failed = append(failed, ev.Name)
				return
			}
			names = append(names, ev.Name)
		},
		OnNodeCreated: func(ev *NodeEvent) { created++ },
	}))

	_, _ = e.Branch(e.RootID(), nil, "")
	_, _ = e.Branch(tree.NewNodeID(), nil, "")
	_ = e.ZoomIn()

	assert.Equal(t, []string{"create_root", "branch", "zoom_in"}, names)
	assert.Equal(t, []string{"branch"}, failed)
	assert.Equal(t, 2, created)
}
