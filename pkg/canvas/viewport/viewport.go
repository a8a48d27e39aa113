// Package viewport tracks the pan offset and zoom factor of the canvas view.
//
// The transform is screen = (world + pan) * zoom, so Pan is expressed in world
// units. Zoom always stays within [MinZoom, MaxZoom].
package viewport

import (
	"math"

	"github.com/pkg/errors"

	"github.com/go-go-golems/branchcanvas/pkg/canvas/geometry"
)

const (
	DefaultMinZoom = 0.2
	DefaultMaxZoom = 3.0

	// wheel steps: scrolling down shrinks, scrolling up grows
	wheelOutFactor = 0.97
	wheelInFactor  = 1.03

	DefaultButtonStep = 1.2
)

type Config struct {
	MinZoom    float64 `mapstructure:"min-zoom" json:"minZoom" yaml:"min-zoom"`
	MaxZoom    float64 `mapstructure:"max-zoom" json:"maxZoom" yaml:"max-zoom"`
	ButtonStep float64 `mapstructure:"button-step" json:"buttonStep" yaml:"button-step"`
}

func DefaultConfig() Config {
	return Config{
		MinZoom:    DefaultMinZoom,
		MaxZoom:    DefaultMaxZoom,
		ButtonStep: DefaultButtonStep,
	}
}

func (c Config) Validate() error {
	if c.MinZoom <= 0 || c.MaxZoom < c.MinZoom {
		return errors.Errorf("invalid zoom range [%v, %v]", c.MinZoom, c.MaxZoom)
	}
	if c.MinZoom > 1 || c.MaxZoom < 1 {
		return errors.Errorf("zoom range [%v, %v] must include 1", c.MinZoom, c.MaxZoom)
	}
	if c.ButtonStep <= 1 {
		return errors.Errorf("button step must be greater than 1, got %v", c.ButtonStep)
	}
	return nil
}

type Viewport struct {
	Pan  geometry.Point `json:"pan"`
	Zoom float64        `json:"zoom"`

	config Config
}

func New(config Config) *Viewport {
	return &Viewport{Zoom: 1, config: config}
}

func (v *Viewport) Config() Config {
	return v.config
}

func (v *Viewport) ScreenToWorld(p geometry.Point) geometry.Point {
	return geometry.ScreenToWorld(p, v.Pan, v.Zoom)
}

func (v *Viewport) WorldToScreen(p geometry.Point) geometry.Point {
	return geometry.WorldToScreen(p, v.Pan, v.Zoom)
}

// PanBy moves the view by a screen-space delta. A delta that would push the
// pan past the float range leaves the view untouched.
func (v *Viewport) PanBy(dx, dy float64) error {
	return v.set(geometry.Point{X: v.Pan.X + dx/v.Zoom, Y: v.Pan.Y + dy/v.Zoom}, v.Zoom)
}

// ZoomAt applies one wheel step centered on screenPoint. A positive direction
// (scrolling down) zooms out. The world point under screenPoint stays under
// it. It reports whether the zoom changed; at the clamp limits nothing moves.
func (v *Viewport) ZoomAt(screenPoint geometry.Point, direction float64) (bool, error) {
	factor := wheelInFactor
	if direction > 0 {
		factor = wheelOutFactor
	}
	return v.zoomTo(screenPoint, v.Zoom*factor)
}

// ZoomIn grows the zoom by one button step about the screen origin.
func (v *Viewport) ZoomIn() (bool, error) {
	return v.zoomTo(geometry.Point{}, v.Zoom*v.config.ButtonStep)
}

// ZoomOut shrinks the zoom by one button step about the screen origin.
func (v *Viewport) ZoomOut() (bool, error) {
	return v.zoomTo(geometry.Point{}, v.Zoom/v.config.ButtonStep)
}

func (v *Viewport) zoomTo(anchor geometry.Point, zoom float64) (bool, error) {
	newZoom := geometry.Clamp(zoom, v.config.MinZoom, v.config.MaxZoom)
	if newZoom == v.Zoom || math.IsNaN(newZoom) {
		return false, nil
	}
	world := v.ScreenToWorld(anchor)
	pan := geometry.Point{
		X: anchor.X/newZoom - world.X,
		Y: anchor.Y/newZoom - world.Y,
	}
	if err := v.set(pan, newZoom); err != nil {
		return false, err
	}
	return true, nil
}

// set commits a pan and zoom pair, or nothing when either is not finite.
func (v *Viewport) set(pan geometry.Point, zoom float64) error {
	if err := geometry.CheckFinite(pan, geometry.Point{X: zoom}); err != nil {
		return err
	}
	v.Pan = pan
	v.Zoom = zoom
	return nil
}

func (v *Viewport) Reset() {
	v.Pan = geometry.Point{}
	v.Zoom = 1
}

// FitBounds zooms and pans so that bounds fits inside a screen of the given
// size with padding on every side, centered.
func (v *Viewport) FitBounds(bounds geometry.Rect, screen geometry.Size, padding float64) error {
	availW := screen.W - 2*padding
	availH := screen.H - 2*padding
	zoom := 1.0
	if bounds.Size.W > 0 && bounds.Size.H > 0 && availW > 0 && availH > 0 {
		zoom = math.Min(availW/bounds.Size.W, availH/bounds.Size.H)
	}
	zoom = geometry.Clamp(zoom, v.config.MinZoom, v.config.MaxZoom)

	center := bounds.Center()
	return v.set(geometry.Point{
		X: screen.W/2/zoom - center.X,
		Y: screen.H/2/zoom - center.Y,
	}, zoom)
}

// Percent returns the zoom as a rounded percentage, as shown next to the zoom buttons.
func (v *Viewport) Percent() int {
	return int(math.Round(v.Zoom * 100))
}
