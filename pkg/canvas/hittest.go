package canvas

import (
	"github.com/go-go-golems/branchcanvas/pkg/canvas/geometry"
	"github.com/go-go-golems/branchcanvas/pkg/canvas/tree"
)

// Region is the part of a card a pointer landed on.
type Region int

const (
	RegionNone Region = iota
	// RegionHeader is the drag handle.
	RegionHeader
	// RegionBody holds the host's interactive content and never starts a gesture.
	RegionBody
)

func (r Region) String() string {
	switch r {
	case RegionNone:
		return "none"
	case RegionHeader:
		return "header"
	case RegionBody:
		return "body"
	}
	return "unknown"
}

// HitTest returns the topmost node under a screen point. Nodes are painted in
// pre-order, so later nodes cover earlier ones.
func (e *Engine) HitTest(screenPoint geometry.Point) (tree.NodeID, Region, bool) {
	world := e.viewport.ScreenToWorld(screenPoint)
	hit := tree.NullNode
	region := RegionNone
	e.store.Walk(func(n *tree.Node) bool {
		if !e.config.Layout.Bounds(n).Contains(world) {
			return true
		}
		hit = n.ID
		region = RegionBody
		if world.Y-n.Position.Y <= e.config.HeaderHeight {
			region = RegionHeader
		}
		return true
	})
	return hit, region, hit != tree.NullNode
}
