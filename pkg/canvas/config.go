package canvas

import (
	"github.com/pkg/errors"

	"github.com/go-go-golems/branchcanvas/pkg/canvas/geometry"
	"github.com/go-go-golems/branchcanvas/pkg/canvas/layout"
	"github.com/go-go-golems/branchcanvas/pkg/canvas/viewport"
)

const (
	DefaultHeaderHeight   = 56.0
	DefaultRootLabel      = "Main Thread"
	DefaultRootMetadata   = "claude-sonnet-4"
	DefaultRootGreeting   = "Hello! I'm ready to help you explore ideas through branching conversations. What would you like to discuss?"
	DefaultBranchGreeting = "New conversation branch started. What would you like to explore?"
)

// RootConfig describes the node every canvas starts with.
type RootConfig struct {
	Position geometry.Point `mapstructure:"position" json:"position" yaml:"position"`
	Label    string         `mapstructure:"label" json:"label" yaml:"label"`
	Metadata string         `mapstructure:"metadata" json:"metadata" yaml:"metadata"`
	Greeting string         `mapstructure:"greeting" json:"greeting" yaml:"greeting"`
	Expanded bool           `mapstructure:"expanded" json:"expanded" yaml:"expanded"`
}

// Config is the `canvas:` section of the configuration file.
type Config struct {
	Layout   layout.Config   `mapstructure:"layout" json:"layout" yaml:"layout"`
	Viewport viewport.Config `mapstructure:"viewport" json:"viewport" yaml:"viewport"`
	Root     RootConfig      `mapstructure:"root" json:"root" yaml:"root"`

	// HeaderHeight is the band at the top of a card that acts as its drag handle.
	HeaderHeight float64 `mapstructure:"header-height" json:"headerHeight" yaml:"header-height"`
	// BranchGreeting seeds the payload of branches created without one. Empty disables it.
	BranchGreeting string `mapstructure:"branch-greeting" json:"branchGreeting" yaml:"branch-greeting"`
}

func DefaultConfig() Config {
	return Config{
		Layout:   layout.DefaultConfig(),
		Viewport: viewport.DefaultConfig(),
		Root: RootConfig{
			Position: geometry.Point{X: 400, Y: 100},
			Label:    DefaultRootLabel,
			Metadata: DefaultRootMetadata,
			Greeting: DefaultRootGreeting,
		},
		HeaderHeight:   DefaultHeaderHeight,
		BranchGreeting: DefaultBranchGreeting,
	}
}

func (c Config) Validate() error {
	if err := c.Layout.Validate(); err != nil {
		return errors.Wrap(err, "layout")
	}
	if err := c.Viewport.Validate(); err != nil {
		return errors.Wrap(err, "viewport")
	}
	if c.HeaderHeight <= 0 || c.HeaderHeight > c.Layout.CollapsedHeight {
		return errors.Errorf("header height %v must be in (0, %v]", c.HeaderHeight, c.Layout.CollapsedHeight)
	}
	if !c.Root.Position.IsFinite() {
		return errors.New("root position must be finite")
	}
	return nil
}
