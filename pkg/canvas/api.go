package canvas

import (
	"github.com/go-go-golems/branchcanvas/pkg/canvas/geometry"
	"github.com/go-go-golems/branchcanvas/pkg/canvas/gesture"
	"github.com/go-go-golems/branchcanvas/pkg/canvas/tree"
)

// CreateRoot installs the root node. Engines built without WithoutRoot already have one.
func (e *Engine) CreateRoot(payload []tree.Entry) (tree.NodeID, error) {
	m := &createRootMutation{payload: payload}
	if err := e.Apply(m); err != nil {
		return tree.NullNode, err
	}
	return m.created, nil
}

// Branch creates a child titled "Branch N" where N is the new sibling count.
func (e *Engine) Branch(parent tree.NodeID, payload []tree.Entry, metadata string) (tree.NodeID, error) {
	m := &branchMutation{parent: parent, payload: payload, metadata: metadata}
	if err := e.Apply(m); err != nil {
		return tree.NullNode, err
	}
	return m.created, nil
}

// BranchFromSelection creates a child from a selected span of parent's text.
// Spans of three characters or fewer, once trimmed, are rejected with ErrInvalidOperation.
func (e *Engine) BranchFromSelection(parent tree.NodeID, span string) (tree.NodeID, error) {
	m := &selectionBranchMutation{span: span, branchMutation: branchMutation{parent: parent}}
	if err := e.Apply(m); err != nil {
		return tree.NullNode, err
	}
	return m.created, nil
}

// DeleteSubtree removes id and its subtree and re-lays out the former siblings.
func (e *Engine) DeleteSubtree(id tree.NodeID) ([]tree.NodeID, error) {
	m := &deleteSubtreeMutation{id: id}
	if err := e.Apply(m); err != nil {
		return nil, err
	}
	return m.removed, nil
}

func (e *Engine) Reparent(id, newParent tree.NodeID) error {
	return e.Apply(MutateReparent(id, newParent))
}

func (e *Engine) ToggleExpanded(id tree.NodeID) error {
	return e.Apply(MutateToggleExpanded(id))
}

func (e *Engine) SetMetadata(id tree.NodeID, metadata string) error {
	return e.Apply(MutateSetMetadata(id, metadata))
}

// AppendPayload appends an entry and reports whether the node still existed.
func (e *Engine) AppendPayload(id tree.NodeID, entry tree.Entry) bool {
	m := &appendPayloadMutation{id: id, entry: entry}
	if err := e.Apply(m); err != nil {
		return false
	}
	return m.appended
}

func (e *Engine) Pan(dx, dy float64) error {
	return e.Apply(MutatePan(dx, dy))
}

func (e *Engine) ZoomAt(screenPoint geometry.Point, direction float64) error {
	return e.Apply(MutateZoomAt(screenPoint, direction))
}

func (e *Engine) ZoomIn() error {
	return e.Apply(MutateZoomIn())
}

func (e *Engine) ZoomOut() error {
	return e.Apply(MutateZoomOut())
}

func (e *Engine) ResetView() error {
	return e.Apply(MutateResetView())
}

func (e *Engine) FitToContent(screen geometry.Size, padding float64) error {
	return e.Apply(MutateFitToContent(screen, padding))
}

func (e *Engine) BeginNodeDrag(id tree.NodeID, screenPoint geometry.Point) error {
	return e.Apply(MutateBeginNodeDrag(id, screenPoint))
}

func (e *Engine) BeginPan(screenPoint geometry.Point) error {
	return e.Apply(MutateBeginPan(screenPoint))
}

func (e *Engine) UpdateDrag(screenPoint geometry.Point) error {
	return e.Apply(MutateUpdateDrag(screenPoint))
}

func (e *Engine) EndDrag() {
	_ = e.Apply(MutateEndDrag())
}

// PointerDown routes a pointer press: a node header starts a drag, the
// background starts a pan and a node body is left to the host. A gesture
// still active from a lost release is ended first.
func (e *Engine) PointerDown(screenPoint geometry.Point) gesture.Kind {
	if !screenPoint.IsFinite() {
		return e.gesture.Kind()
	}
	if e.gesture.Kind() != gesture.Idle {
		e.EndDrag()
	}
	id, region, ok := e.HitTest(screenPoint)
	switch {
	case !ok:
		if err := e.BeginPan(screenPoint); err != nil {
			e.logger.Warn().Err(err).Msg("could not start pan")
		}
	case region == RegionHeader:
		if err := e.BeginNodeDrag(id, screenPoint); err != nil {
			e.logger.Warn().Err(err).Str("node_id", id.String()).Msg("could not start drag")
		}
	}
	return e.gesture.Kind()
}
