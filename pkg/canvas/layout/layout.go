// Package layout places sibling nodes in a centered row below their parent.
//
// Layout is deliberately local: re-laying one parent's children never moves
// anything outside that sibling group, and overlaps between unrelated
// subtrees are left alone.
package layout

import (
	"github.com/pkg/errors"

	"github.com/go-go-golems/branchcanvas/pkg/canvas/geometry"
	"github.com/go-go-golems/branchcanvas/pkg/canvas/tree"
)

const (
	DefaultNodeWidth       = 480.0
	DefaultHorizontalGap   = 80.0
	DefaultVerticalOffset  = 600.0
	DefaultCollapsedHeight = 140.0
	DefaultExpandedHeight  = 500.0
)

// Config holds the fixed card dimensions the layout and edge routing rely on.
type Config struct {
	NodeWidth       float64 `mapstructure:"node-width" json:"nodeWidth" yaml:"node-width"`
	HorizontalGap   float64 `mapstructure:"horizontal-gap" json:"horizontalGap" yaml:"horizontal-gap"`
	VerticalOffset  float64 `mapstructure:"vertical-offset" json:"verticalOffset" yaml:"vertical-offset"`
	CollapsedHeight float64 `mapstructure:"collapsed-height" json:"collapsedHeight" yaml:"collapsed-height"`
	ExpandedHeight  float64 `mapstructure:"expanded-height" json:"expandedHeight" yaml:"expanded-height"`
}

func DefaultConfig() Config {
	return Config{
		NodeWidth:       DefaultNodeWidth,
		HorizontalGap:   DefaultHorizontalGap,
		VerticalOffset:  DefaultVerticalOffset,
		CollapsedHeight: DefaultCollapsedHeight,
		ExpandedHeight:  DefaultExpandedHeight,
	}
}

func (c Config) Validate() error {
	if c.NodeWidth <= 0 {
		return errors.Errorf("node width must be positive, got %v", c.NodeWidth)
	}
	if c.HorizontalGap < 0 {
		return errors.Errorf("horizontal gap must not be negative, got %v", c.HorizontalGap)
	}
	if c.CollapsedHeight <= 0 || c.ExpandedHeight <= 0 {
		return errors.Errorf("node heights must be positive, got %v/%v", c.CollapsedHeight, c.ExpandedHeight)
	}
	return nil
}

// NodeHeight returns the card height for the given expansion state.
func (c Config) NodeHeight(expanded bool) float64 {
	if expanded {
		return c.ExpandedHeight
	}
	return c.CollapsedHeight
}

// Bounds returns the world rectangle a node occupies.
func (c Config) Bounds(n *tree.Node) geometry.Rect {
	return geometry.RectAt(n.Position, c.NodeWidth, c.NodeHeight(n.Expanded))
}

// Slots returns the positions of n children laid out under parent.
func (c Config) Slots(parent geometry.Point, n int) []geometry.Point {
	return geometry.ChildSlots(parent, n, c.NodeWidth, c.HorizontalGap, c.VerticalOffset)
}

type Engine struct {
	config Config
}

func NewEngine(config Config) *Engine {
	return &Engine{config: config}
}

func (e *Engine) Config() Config {
	return e.config
}

// LayoutChildren repositions every child of parentID. Children keep their
// order; descendants of the children are not moved. Slots that are not finite
// are rejected before any child moves.
func (e *Engine) LayoutChildren(store *tree.Store, parentID tree.NodeID) error {
	parent, ok := store.Get(parentID)
	if !ok {
		return errors.Wrap(tree.ErrNotFound, "layout parent")
	}
	slots := e.config.Slots(parent.Position, len(parent.Children))
	if err := geometry.CheckFinite(slots...); err != nil {
		return errors.Wrap(err, "layout children")
	}
	for i, childID := range parent.Children {
		pos := slots[i]
		store.Update(childID, func(n *tree.Node) {
			n.Position = pos
		})
	}
	return nil
}
