package render

import (
	"fmt"
	"image/color"
	"math"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/muesli/reflow/truncate"
	"github.com/muesli/reflow/wordwrap"

	"github.com/go-go-golems/branchcanvas/pkg/canvas"
	"github.com/go-go-golems/branchcanvas/pkg/canvas/geometry"
	"github.com/go-go-golems/branchcanvas/pkg/canvas/gesture"
	"github.com/go-go-golems/branchcanvas/pkg/canvas/tree"
	"github.com/go-go-golems/branchcanvas/pkg/models"
)

const (
	minWidth       = 320
	minHeight      = 240
	titleBand      = 48.0
	textInset      = 12.0
	charWidth      = 7.0
	lineHeight     = 16.0
	radius         = 10.0
	minTextZoom    = 0.6
	collapsedLines = 2
)

var (
	colorBackdrop = color.RGBA{0xf9, 0xfa, 0xfb, 0xff}
	colorCard     = color.RGBA{0xff, 0xff, 0xff, 0xff}
	colorHeaderBG = color.RGBA{0xf3, 0xf4, 0xf6, 0xff}
	colorStroke   = color.RGBA{0xd1, 0xd5, 0xdb, 0xff}
	colorEdge     = color.RGBA{0x94, 0xa3, 0xb8, 0xff}
	colorText     = color.RGBA{0x11, 0x18, 0x27, 0xff}
	colorSubtle   = color.RGBA{0x6b, 0x72, 0x80, 0xff}
	colorAnnot    = color.RGBA{0x92, 0x40, 0x0e, 0xff}
)

// frame maps world coordinates to picture coordinates.
type frame struct {
	origin geometry.Point
	scale  float64
	width  int
	height int
	title  float64
}

func newFrame(snap *canvas.Snapshot, opts Options) frame {
	if opts.Screen.W > 0 && opts.Screen.H > 0 {
		return frame{
			origin: geometry.Point{X: -snap.Pan.X, Y: -snap.Pan.Y},
			scale:  snap.Zoom,
			width:  int(math.Ceil(opts.Screen.W)),
			height: int(math.Ceil(opts.Screen.H)),
		}
	}

	scale := opts.Scale
	if scale <= 0 {
		scale = 1
	}
	pad := opts.Padding
	if pad <= 0 {
		pad = DefaultPadding
	}
	var title float64
	if opts.Title != "" {
		title = titleBand
	}
	b := snap.Bounds
	f := frame{
		origin: geometry.Point{X: b.Min.X - pad, Y: b.Min.Y - pad - title/scale},
		scale:  scale,
		width:  int(math.Ceil((b.Size.W + 2*pad) * scale)),
		height: int(math.Ceil((b.Size.H+2*pad)*scale + title)),
		title:  title,
	}
	f.width = max(f.width, minWidth)
	f.height = max(f.height, minHeight)
	return f
}

func (f frame) point(p geometry.Point) geometry.Point {
	return p.Sub(f.origin).Scale(f.scale)
}

func (f frame) length(v float64) float64 {
	return v * f.scale
}

func (f frame) showText() bool {
	return f.scale >= minTextZoom
}

type card struct {
	id       tree.NodeID
	rect     geometry.Rect
	header   float64
	label    string
	model    models.Model
	color    color.RGBA
	dragging bool
	root     bool
	lines    []line
}

type line struct {
	text string
	role tree.Role
}

type scene struct {
	frame frame
	title string
	stats string
	cards []card
	edges []geometry.Curve
}

func newScene(snap *canvas.Snapshot, opts Options) scene {
	catalog := opts.Catalog
	if catalog == nil {
		catalog = models.Default()
	}
	f := newFrame(snap, opts)
	s := scene{
		frame: f,
		title: opts.Title,
		stats: statsLine(snap),
	}

	cfg := snap.Layout
	for _, n := range snap.Nodes {
		h := cfg.NodeHeight(n.Expanded)
		topLeft := f.point(n.Position)
		model := catalog.Lookup(n.Metadata)
		c := card{
			id:       n.ID,
			rect:     geometry.Rect{Min: topLeft, Size: geometry.Size{W: f.length(cfg.NodeWidth), H: f.length(h)}},
			header:   f.length(snap.HeaderHeight),
			label:    n.Label,
			model:    model,
			color:    parseColor(model.Color),
			dragging: snap.Gesture.Kind == gesture.DraggingNode && snap.Gesture.NodeID == n.ID,
			root:     n.IsRoot(),
		}
		cols := int((cfg.NodeWidth - 2*textInset) / charWidth)
		rows := int((h - snap.HeaderHeight - textInset) / lineHeight)
		if !n.Expanded {
			rows = min(rows, collapsedLines)
		}
		c.lines = bodyLines(n, cols, rows)
		s.cards = append(s.cards, c)
	}

	for _, e := range snap.Edges {
		s.edges = append(s.edges, geometry.Curve{
			Start: f.point(e.Curve.Start),
			C1:    f.point(e.Curve.C1),
			C2:    f.point(e.Curve.C2),
			End:   f.point(e.Curve.End),
		})
	}
	return s
}

func statsLine(snap *canvas.Snapshot) string {
	return fmt.Sprintf("nodes: %d  version: %d  zoom: %d%%", len(snap.Nodes), snap.Version, snap.ZoomPercent)
}

// bodyLines wraps the payload of n into at most rows lines of cols characters.
// Expanded nodes show every entry, collapsed nodes only the latest one.
func bodyLines(n tree.Node, cols, rows int) []line {
	if cols <= 0 || rows <= 0 {
		return nil
	}
	entries := n.Payload
	if !n.Expanded && len(entries) > 0 {
		entries = entries[len(entries)-1:]
	}

	var out []line
	for _, e := range entries {
		text := strings.Join(strings.Fields(e.Text), " ")
		if e.Role == tree.RoleOriginator {
			text = "> " + text
		}
		for _, l := range strings.Split(wordwrap.String(text, cols), "\n") {
			out = append(out, line{text: truncate.String(l, uint(cols)), role: e.Role})
		}
	}
	if len(out) > rows {
		out = out[:rows]
		last := &out[rows-1]
		last.text = truncate.StringWithTail(last.text, uint(cols-3), "") + "..."
	}
	return out
}

func parseColor(hex string) color.RGBA {
	c, err := colorful.Hex(hex)
	if err != nil {
		return colorSubtle
	}
	r, g, b := c.RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 0xff}
}

func textColor(role tree.Role) color.RGBA {
	switch role {
	case tree.RoleAnnotation:
		return colorAnnot
	case tree.RoleOriginator:
		return colorSubtle
	default:
		return colorText
	}
}
