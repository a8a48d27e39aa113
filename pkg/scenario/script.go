// Package scenario replays scripted canvas sessions. A script is a YAML
// document listing steps such as branching, deleting, dragging and zooming,
// with optional expectations and snapshot exports in between. Scripts name the
// nodes they create so later steps can refer to them.
package scenario

import (
	"io"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/go-go-golems/branchcanvas/pkg/canvas/geometry"
)

// RootRef always names the root node.
const RootRef = "root"

type Script struct {
	Name string `yaml:"name"`
	// Screen is the viewer size used by fit, pointer and screen exports.
	Screen geometry.Size `yaml:"screen"`
	Steps  []Step        `yaml:"steps"`
}

// Step holds exactly one operation.
type Step struct {
	Branch   *BranchStep   `yaml:"branch,omitempty"`
	Select   *SelectStep   `yaml:"select,omitempty"`
	Send     *SendStep     `yaml:"send,omitempty"`
	Append   *AppendStep   `yaml:"append,omitempty"`
	Delete   *NodeStep     `yaml:"delete,omitempty"`
	Toggle   *NodeStep     `yaml:"toggle,omitempty"`
	Reparent *ReparentStep `yaml:"reparent,omitempty"`
	Metadata *MetadataStep `yaml:"metadata,omitempty"`
	Pan      *PanStep      `yaml:"pan,omitempty"`
	Zoom     *ZoomStep     `yaml:"zoom,omitempty"`
	Drag     *DragStep     `yaml:"drag,omitempty"`
	Fit      *FitStep      `yaml:"fit,omitempty"`
	Expect   *ExpectStep   `yaml:"expect,omitempty"`
	Export   *ExportStep   `yaml:"export,omitempty"`
}

type BranchStep struct {
	From     string `yaml:"from"`
	As       string `yaml:"as"`
	Metadata string `yaml:"metadata"`
}

// SelectStep branches from a span of text selected inside a node.
type SelectStep struct {
	From string `yaml:"from"`
	Text string `yaml:"text"`
	As   string `yaml:"as"`
}

// SendStep appends a user message and the responder's answer to it.
type SendStep struct {
	Node string `yaml:"node"`
	Text string `yaml:"text"`
}

type AppendStep struct {
	Node string `yaml:"node"`
	Role string `yaml:"role"`
	Text string `yaml:"text"`
}

type NodeStep struct {
	Node string `yaml:"node"`
}

type ReparentStep struct {
	Node   string `yaml:"node"`
	Parent string `yaml:"parent"`
}

type MetadataStep struct {
	Node  string `yaml:"node"`
	Value string `yaml:"value"`
	// Next cycles to the next model of the catalog instead of setting Value.
	Next bool `yaml:"next"`
}

type PanStep struct {
	DX float64 `yaml:"dx"`
	DY float64 `yaml:"dy"`
}

// ZoomStep is either a wheel step at a screen point or one of the buttons
// "in", "out" and "reset".
type ZoomStep struct {
	At        *geometry.Point `yaml:"at,omitempty"`
	Direction float64         `yaml:"direction"`
	Button    string          `yaml:"button"`
}

// DragStep grabs a node by the center of its header and moves the pointer by
// By, in screen pixels, over Steps pointer moves.
type DragStep struct {
	Node  string         `yaml:"node"`
	By    geometry.Point `yaml:"by"`
	Steps int            `yaml:"steps"`
}

type FitStep struct {
	Padding float64 `yaml:"padding"`
}

type ExpectStep struct {
	Nodes       *int        `yaml:"nodes,omitempty"`
	Gesture     string      `yaml:"gesture,omitempty"`
	ZoomPercent *int        `yaml:"zoom-percent,omitempty"`
	Node        *NodeExpect `yaml:"node,omitempty"`
}

type NodeExpect struct {
	Ref      string          `yaml:"ref"`
	Label    *string         `yaml:"label,omitempty"`
	Metadata *string         `yaml:"metadata,omitempty"`
	Expanded *bool           `yaml:"expanded,omitempty"`
	Children *int            `yaml:"children,omitempty"`
	Entries  *int            `yaml:"entries,omitempty"`
	Position *geometry.Point `yaml:"position,omitempty"`
	Gone     bool            `yaml:"gone,omitempty"`
}

// ExportStep renders a snapshot. Path is a text/template with sprig functions;
// see PathData for the fields it can use.
type ExportStep struct {
	Path  string `yaml:"path"`
	Title string `yaml:"title"`
	// View renders what the viewer sees instead of the whole tree.
	View bool `yaml:"view"`
}

func (s Step) Name() string {
	switch {
	case s.Branch != nil:
		return "branch"
	case s.Select != nil:
		return "select"
	case s.Send != nil:
		return "send"
	case s.Append != nil:
		return "append"
	case s.Delete != nil:
		return "delete"
	case s.Toggle != nil:
		return "toggle"
	case s.Reparent != nil:
		return "reparent"
	case s.Metadata != nil:
		return "metadata"
	case s.Pan != nil:
		return "pan"
	case s.Zoom != nil:
		return "zoom"
	case s.Drag != nil:
		return "drag"
	case s.Fit != nil:
		return "fit"
	case s.Expect != nil:
		return "expect"
	case s.Export != nil:
		return "export"
	}
	return ""
}

func (s Step) count() int {
	n := 0
	for _, set := range []bool{
		s.Branch != nil, s.Select != nil, s.Send != nil, s.Append != nil,
		s.Delete != nil, s.Toggle != nil, s.Reparent != nil, s.Metadata != nil,
		s.Pan != nil, s.Zoom != nil, s.Drag != nil, s.Fit != nil,
		s.Expect != nil, s.Export != nil,
	} {
		if set {
			n++
		}
	}
	return n
}

func (s *Script) Validate() error {
	for i, step := range s.Steps {
		if n := step.count(); n != 1 {
			return errors.Errorf("step %d: expected exactly one operation, got %d", i+1, n)
		}
	}
	return nil
}

func Parse(data []byte) (*Script, error) {
	var s Script
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, errors.Wrap(err, "could not parse scenario")
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

func Read(r io.Reader) (*Script, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

func Load(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "could not read scenario %s", path)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "scenario %s", path)
	}
	return s, nil
}
