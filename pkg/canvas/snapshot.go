package canvas

import (
	"github.com/huandu/go-clone"

	"github.com/go-go-golems/branchcanvas/pkg/canvas/geometry"
	"github.com/go-go-golems/branchcanvas/pkg/canvas/gesture"
	"github.com/go-go-golems/branchcanvas/pkg/canvas/layout"
	"github.com/go-go-golems/branchcanvas/pkg/canvas/tree"
)

// Edge connects a parent's bottom-center to a child's top-center.
type Edge struct {
	Parent     tree.NodeID         `json:"parent"`
	Child      tree.NodeID         `json:"child"`
	Connection geometry.Connection `json:"connection"`
	Curve      geometry.Curve      `json:"curve"`
}

// Snapshot is a self-contained, point-in-time copy of everything a renderer
// needs. It shares no memory with the engine.
type Snapshot struct {
	Version      int64          `json:"version"`
	RootID       tree.NodeID    `json:"rootID"`
	Nodes        []tree.Node    `json:"nodes"`
	Edges        []Edge         `json:"edges"`
	Pan          geometry.Point `json:"pan"`
	Zoom         float64        `json:"zoom"`
	ZoomPercent  int            `json:"zoomPercent"`
	Gesture      gesture.State  `json:"gesture"`
	Bounds       geometry.Rect  `json:"bounds"`
	Layout       layout.Config  `json:"layout"`
	HeaderHeight float64        `json:"headerHeight"`
}

// Snapshot copies the current state. Nodes are in pre-order from the root and
// edge endpoints are recomputed from the current positions.
func (e *Engine) Snapshot() Snapshot {
	cfg := e.config.Layout
	s := Snapshot{
		Version:      e.version,
		RootID:       e.store.RootID,
		Nodes:        make([]tree.Node, 0, e.store.Len()),
		Edges:        []Edge{},
		Pan:          e.viewport.Pan,
		Zoom:         e.viewport.Zoom,
		ZoomPercent:  e.viewport.Percent(),
		Gesture:      e.gesture.State(),
		Bounds:       e.ContentBounds(),
		Layout:       cfg,
		HeaderHeight: e.config.HeaderHeight,
	}
	e.store.Walk(func(n *tree.Node) bool {
		s.Nodes = append(s.Nodes, cloneNode(n))
		for _, cid := range n.Children {
			child, ok := e.store.Get(cid)
			if !ok {
				continue
			}
			conn := geometry.ConnectionPoints(n.Position, cfg.NodeHeight(n.Expanded), child.Position, cfg.NodeWidth)
			s.Edges = append(s.Edges, Edge{
				Parent:     n.ID,
				Child:      cid,
				Connection: conn,
				Curve:      geometry.SCurve(conn),
			})
		}
		return true
	})
	return s
}

// Node looks a node up by id in the snapshot.
func (s *Snapshot) Node(id tree.NodeID) (tree.Node, bool) {
	for _, n := range s.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return tree.Node{}, false
}

func cloneNode(n *tree.Node) tree.Node {
	return *clone.Clone(n).(*tree.Node)
}
