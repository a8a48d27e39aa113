package render

import (
	"fmt"
	"image/color"
	"io"

	svg "github.com/ajstarks/svgo"

	"github.com/go-go-golems/branchcanvas/pkg/canvas"
)

func WriteSVG(w io.Writer, snap *canvas.Snapshot, opts Options) error {
	s := newScene(snap, opts)
	f := s.frame

	doc := svg.New(w)
	doc.Start(f.width, f.height)
	doc.Rect(0, 0, f.width, f.height, fmt.Sprintf("fill:%s", css(colorBackdrop)))

	edgeStyle := fmt.Sprintf("fill:none;stroke:%s;stroke-width:%.1f", css(colorEdge), f.length(2))
	for _, c := range s.edges {
		doc.Bezier(
			px(c.Start.X), px(c.Start.Y),
			px(c.C1.X), px(c.C1.Y),
			px(c.C2.X), px(c.C2.Y),
			px(c.End.X), px(c.End.Y),
			edgeStyle)
	}

	for _, c := range s.cards {
		drawCardSVG(doc, f, c)
	}

	if s.title != "" {
		doc.Text(16, 28, s.title, fmt.Sprintf("fill:%s;font-size:16px;font-family:monospace;font-weight:bold", css(colorText)))
		doc.Text(16, 44, s.stats, fmt.Sprintf("fill:%s;font-size:12px;font-family:monospace", css(colorSubtle)))
	}

	doc.End()
	return nil
}

func drawCardSVG(doc *svg.SVG, f frame, c card) {
	x, y := px(c.rect.Min.X), px(c.rect.Min.Y)
	w, h := px(c.rect.Size.W), px(c.rect.Size.H)
	r := px(f.length(radius))
	strokeWidth := f.length(1.5)
	if c.dragging {
		strokeWidth = f.length(3)
	}

	doc.Group(fmt.Sprintf(`id="node-%s"`, c.id.String()))
	doc.Roundrect(x, y, w, h, r, r,
		fmt.Sprintf("fill:%s;stroke:%s;stroke-width:%.1f", css(colorCard), css(c.color), strokeWidth))
	doc.Rect(x, y+r, w, px(c.header)-r, fmt.Sprintf("fill:%s", css(colorHeaderBG)))
	doc.Roundrect(x, y, w, px(c.header), r, r, fmt.Sprintf("fill:%s", css(colorHeaderBG)))
	doc.Line(x, y+px(c.header), x+w, y+px(c.header), fmt.Sprintf("stroke:%s;stroke-width:1", css(colorStroke)))

	if f.showText() {
		size := f.length(14)
		mid := c.rect.Min.Y + c.header/2 + size/3
		doc.Text(px(c.rect.Min.X+f.length(textInset)), px(mid), c.label,
			fmt.Sprintf("fill:%s;font-size:%.1fpx;font-family:monospace;font-weight:bold", css(colorText), size))
		doc.Text(px(c.rect.Max().X-f.length(textInset)), px(mid), c.model.Short,
			fmt.Sprintf("fill:%s;font-size:%.1fpx;font-family:monospace;text-anchor:end", css(c.color), f.length(12)))

		bodySize := f.length(12)
		top := c.rect.Min.Y + c.header + f.length(textInset)
		for i, l := range c.lines {
			ly := top + f.length(float64(i)*lineHeight) + bodySize
			doc.Text(px(c.rect.Min.X+f.length(textInset)), px(ly), l.text,
				fmt.Sprintf("fill:%s;font-size:%.1fpx;font-family:monospace", css(textColor(l.role)), bodySize))
		}
	}
	doc.Gend()
}

func px(v float64) int {
	if v < 0 {
		return int(v - 0.5)
	}
	return int(v + 0.5)
}

func css(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}
