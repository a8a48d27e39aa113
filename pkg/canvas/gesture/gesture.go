// Package gesture is the pointer state machine of the canvas: a pointer-down
// either grabs a node header, starts panning the background, or does nothing.
// The two gestures never overlap.
package gesture

import (
	"github.com/pkg/errors"

	"github.com/go-go-golems/branchcanvas/pkg/canvas/geometry"
	"github.com/go-go-golems/branchcanvas/pkg/canvas/tree"
)

type Kind int

const (
	Idle Kind = iota
	DraggingNode
	Panning
)

func (k Kind) String() string {
	switch k {
	case Idle:
		return "idle"
	case DraggingNode:
		return "dragging"
	case Panning:
		return "panning"
	}
	return "unknown"
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

var ErrBusy = errors.New("gesture already in progress")

// State is the tagged gesture state. Only the fields of the current Kind are meaningful.
type State struct {
	Kind Kind `json:"kind"`
	// DraggingNode
	NodeID     tree.NodeID    `json:"nodeID,omitempty"`
	GrabOffset geometry.Point `json:"grabOffset,omitempty"`
	// Panning, in screen space
	Last geometry.Point `json:"last,omitempty"`
}

type Controller struct {
	state State
}

func NewController() *Controller {
	return &Controller{}
}

func (c *Controller) State() State {
	return c.state
}

func (c *Controller) Kind() Kind {
	return c.state.Kind
}

// BeginNodeDrag grabs a node. grabOffset is the world-space distance between
// the pointer and the node's top-left corner, kept for the whole drag so the
// node does not jump under the pointer.
func (c *Controller) BeginNodeDrag(id tree.NodeID, worldPointer, nodePos geometry.Point) error {
	if c.state.Kind != Idle {
		return errors.Wrapf(ErrBusy, "begin drag of %s while %s", id, c.state.Kind)
	}
	c.state = State{
		Kind:       DraggingNode,
		NodeID:     id,
		GrabOffset: worldPointer.Sub(nodePos),
	}
	return nil
}

// BeginPan starts a background pan at a screen point.
func (c *Controller) BeginPan(screenPoint geometry.Point) error {
	if c.state.Kind != Idle {
		return errors.Wrapf(ErrBusy, "begin pan while %s", c.state.Kind)
	}
	c.state = State{Kind: Panning, Last: screenPoint}
	return nil
}

// DragTarget returns where the dragged node's top-left corner belongs for a
// pointer at worldPointer.
func (c *Controller) DragTarget(worldPointer geometry.Point) (tree.NodeID, geometry.Point, bool) {
	if c.state.Kind != DraggingNode {
		return tree.NullNode, geometry.Point{}, false
	}
	return c.state.NodeID, worldPointer.Sub(c.state.GrabOffset), true
}

// PanDelta returns the screen-space movement since the last sample.
func (c *Controller) PanDelta(screenPoint geometry.Point) (geometry.Point, bool) {
	if c.state.Kind != Panning {
		return geometry.Point{}, false
	}
	return screenPoint.Sub(c.state.Last), true
}

// Advance records screenPoint as the last pan sample once its delta has been applied.
func (c *Controller) Advance(screenPoint geometry.Point) {
	if c.state.Kind == Panning {
		c.state.Last = screenPoint
	}
}

// End returns to Idle from any state.
func (c *Controller) End() Kind {
	prev := c.state.Kind
	c.state = State{}
	return prev
}
