// Package geometry holds the pure math used by the canvas engine: points and
// rectangles in world space, the screen/world transform under pan and zoom,
// child slot placement and the connection points between a parent and a child.
//
// Nothing in this package keeps state.
package geometry

import (
	"math"

	"github.com/pkg/errors"
)

// ErrNonFinite marks a coordinate that is NaN or infinite.
var ErrNonFinite = errors.New("non-finite coordinate")

// Point is a 2D coordinate. World-space points are what the tree stores,
// screen-space points are what pointer events carry.
type Point struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Add returns p + q.
func (p Point) Add(q Point) Point {
	return Point{X: p.X + q.X, Y: p.Y + q.Y}
}

// Sub returns p - q.
func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

// Scale returns p * f.
func (p Point) Scale(f float64) Point {
	return Point{X: p.X * f, Y: p.Y * f}
}

// IsFinite reports whether both coordinates are neither NaN nor infinite.
func (p Point) IsFinite() bool {
	return !math.IsNaN(p.X) && !math.IsNaN(p.Y) && !math.IsInf(p.X, 0) && !math.IsInf(p.Y, 0)
}

// CheckFinite returns an error wrapping ErrNonFinite for the first point that
// is not finite.
func CheckFinite(points ...Point) error {
	for _, p := range points {
		if !p.IsFinite() {
			return errors.Wrapf(ErrNonFinite, "%v", p)
		}
	}
	return nil
}

// Size is a width/height pair.
type Size struct {
	W float64 `json:"w" yaml:"w"`
	H float64 `json:"h" yaml:"h"`
}

// Rect is an axis-aligned rectangle anchored at its top-left corner.
type Rect struct {
	Min  Point `json:"min"`
	Size Size  `json:"size"`
}

// RectAt builds a rectangle from its top-left corner and dimensions.
func RectAt(p Point, w, h float64) Rect {
	return Rect{Min: p, Size: Size{W: w, H: h}}
}

// Max returns the bottom-right corner.
func (r Rect) Max() Point {
	return Point{X: r.Min.X + r.Size.W, Y: r.Min.Y + r.Size.H}
}

// Center returns the center point of the rectangle.
func (r Rect) Center() Point {
	return Point{X: r.Min.X + r.Size.W/2, Y: r.Min.Y + r.Size.H/2}
}

// Contains reports whether p lies inside the rectangle, edges included.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.Min.X && p.X <= r.Min.X+r.Size.W &&
		p.Y >= r.Min.Y && p.Y <= r.Min.Y+r.Size.H
}

// Union returns the smallest rectangle containing both r and o.
// An empty (zero) receiver yields o.
func (r Rect) Union(o Rect) Rect {
	if r == (Rect{}) {
		return o
	}
	minX := math.Min(r.Min.X, o.Min.X)
	minY := math.Min(r.Min.Y, o.Min.Y)
	rMax, oMax := r.Max(), o.Max()
	maxX := math.Max(rMax.X, oMax.X)
	maxY := math.Max(rMax.Y, oMax.Y)
	return Rect{Min: Point{X: minX, Y: minY}, Size: Size{W: maxX - minX, H: maxY - minY}}
}

// ScreenToWorld maps a screen point to world space: world = screen/zoom - pan.
func ScreenToWorld(screen, pan Point, zoom float64) Point {
	return Point{X: screen.X/zoom - pan.X, Y: screen.Y/zoom - pan.Y}
}

// WorldToScreen maps a world point to screen space: screen = (world + pan) * zoom.
func WorldToScreen(world, pan Point, zoom float64) Point {
	return Point{X: (world.X + pan.X) * zoom, Y: (world.Y + pan.Y) * zoom}
}

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
