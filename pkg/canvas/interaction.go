package canvas

import (
	"github.com/go-go-golems/branchcanvas/pkg/canvas/geometry"
	"github.com/go-go-golems/branchcanvas/pkg/canvas/gesture"
	"github.com/go-go-golems/branchcanvas/pkg/canvas/tree"
)

type panMutation struct {
	delta geometry.Point
}

func (m *panMutation) points() []geometry.Point { return []geometry.Point{m.delta} }

func (m *panMutation) Apply(e *Engine) error {
	if m.delta == (geometry.Point{}) {
		return errUnchanged
	}
	return e.viewport.PanBy(m.delta.X, m.delta.Y)
}

func (m *panMutation) Name() string { return "pan" }

// MutatePan moves the view by a screen-space delta.
func MutatePan(dx, dy float64) Mutation {
	return &panMutation{delta: geometry.Point{X: dx, Y: dy}}
}

type zoomMutation struct {
	name   string
	inputs []geometry.Point
	zoom   func(e *Engine) (bool, error)
}

func (m *zoomMutation) points() []geometry.Point { return m.inputs }

func (m *zoomMutation) Apply(e *Engine) error {
	changed, err := m.zoom(e)
	if err != nil {
		return err
	}
	if !changed {
		return errUnchanged
	}
	return nil
}

func (m *zoomMutation) Name() string { return m.name }

// MutateZoomAt applies one wheel step around a screen point. Positive
// directions zoom out.
func MutateZoomAt(screenPoint geometry.Point, direction float64) Mutation {
	return &zoomMutation{name: "zoom_at", inputs: []geometry.Point{screenPoint, {X: direction}}, zoom: func(e *Engine) (bool, error) {
		return e.viewport.ZoomAt(screenPoint, direction)
	}}
}

func MutateZoomIn() Mutation {
	return &zoomMutation{name: "zoom_in", zoom: func(e *Engine) (bool, error) {
		return e.viewport.ZoomIn()
	}}
}

func MutateZoomOut() Mutation {
	return &zoomMutation{name: "zoom_out", zoom: func(e *Engine) (bool, error) {
		return e.viewport.ZoomOut()
	}}
}

func MutateResetView() Mutation {
	return &zoomMutation{name: "reset_view", zoom: func(e *Engine) (bool, error) {
		before := *e.viewport
		e.viewport.Reset()
		return before.Pan != e.viewport.Pan || before.Zoom != e.viewport.Zoom, nil
	}}
}

// MutateFitToContent zooms and pans so the whole tree fits on a screen of the given size.
func MutateFitToContent(screen geometry.Size, padding float64) Mutation {
	return &zoomMutation{name: "fit_to_content", inputs: []geometry.Point{{X: screen.W, Y: screen.H}, {X: padding}}, zoom: func(e *Engine) (bool, error) {
		if e.store.Len() == 0 {
			return false, nil
		}
		if err := e.viewport.FitBounds(e.ContentBounds(), screen, padding); err != nil {
			return false, err
		}
		return true, nil
	}}
}

type beginDragMutation struct {
	id     tree.NodeID
	screen geometry.Point
}

func (m *beginDragMutation) points() []geometry.Point { return []geometry.Point{m.screen} }

func (m *beginDragMutation) Apply(e *Engine) error {
	node, ok := e.store.Get(m.id)
	if !ok {
		return &tree.NotFoundError{ID: m.id}
	}
	world := e.viewport.ScreenToWorld(m.screen)
	if err := geometry.CheckFinite(world, world.Sub(node.Position)); err != nil {
		return err
	}
	return e.gesture.BeginNodeDrag(m.id, world, node.Position)
}

func (m *beginDragMutation) Name() string { return "begin_drag" }

// MutateBeginNodeDrag grabs a node at a screen point. It fails while another gesture is active.
func MutateBeginNodeDrag(id tree.NodeID, screenPoint geometry.Point) Mutation {
	return &beginDragMutation{id: id, screen: screenPoint}
}

type beginPanMutation struct {
	screen geometry.Point
}

func (m *beginPanMutation) points() []geometry.Point { return []geometry.Point{m.screen} }

func (m *beginPanMutation) Apply(e *Engine) error {
	return e.gesture.BeginPan(m.screen)
}

func (m *beginPanMutation) Name() string { return "begin_pan" }

// MutateBeginPan starts panning the background from a screen point.
func MutateBeginPan(screenPoint geometry.Point) Mutation {
	return &beginPanMutation{screen: screenPoint}
}

type updateDragMutation struct {
	screen geometry.Point
}

func (m *updateDragMutation) points() []geometry.Point { return []geometry.Point{m.screen} }

func (m *updateDragMutation) Apply(e *Engine) error {
	switch e.gesture.Kind() {
	case gesture.DraggingNode:
		id, target, _ := e.gesture.DragTarget(e.viewport.ScreenToWorld(m.screen))
		node, ok := e.store.Get(id)
		if !ok {
			e.logger.Debug().Str("node_id", id.String()).Msg("dragged node disappeared, ending drag")
			e.gesture.End()
			return nil
		}
		if node.Position == target {
			return errUnchanged
		}
		return e.moveSubtree(id, target)
	case gesture.Panning:
		d, _ := e.gesture.PanDelta(m.screen)
		if d == (geometry.Point{}) {
			return errUnchanged
		}
		if err := geometry.CheckFinite(d); err != nil {
			return err
		}
		if err := e.viewport.PanBy(d.X, d.Y); err != nil {
			return err
		}
		e.gesture.Advance(m.screen)
		return nil
	case gesture.Idle:
	}
	return errUnchanged
}

func (m *updateDragMutation) Name() string { return "update_drag" }

// MutateUpdateDrag feeds a pointer move to the active gesture. Without one it does nothing.
func MutateUpdateDrag(screenPoint geometry.Point) Mutation {
	return &updateDragMutation{screen: screenPoint}
}

type endDragMutation struct{}

func (m endDragMutation) Apply(e *Engine) error {
	if e.gesture.End() == gesture.Idle {
		return errUnchanged
	}
	return nil
}

func (m endDragMutation) Name() string { return "end_drag" }

// MutateEndDrag ends any gesture. Positions are left where the drag put them.
func MutateEndDrag() Mutation {
	return endDragMutation{}
}
