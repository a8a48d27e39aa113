package render

import (
	"io"

	"git.sr.ht/~sbinet/gg"
	"golang.org/x/image/font/basicfont"

	"github.com/go-go-golems/branchcanvas/pkg/canvas"
)

func WritePNG(w io.Writer, snap *canvas.Snapshot, opts Options) error {
	s := newScene(snap, opts)
	f := s.frame

	dc := gg.NewContext(f.width, f.height)
	dc.SetColor(colorBackdrop)
	dc.Clear()
	dc.SetFontFace(basicfont.Face7x13)

	dc.SetColor(colorEdge)
	dc.SetLineWidth(f.length(2))
	for _, c := range s.edges {
		dc.NewSubPath()
		dc.MoveTo(c.Start.X, c.Start.Y)
		dc.CubicTo(c.C1.X, c.C1.Y, c.C2.X, c.C2.Y, c.End.X, c.End.Y)
		dc.Stroke()
	}

	for _, c := range s.cards {
		drawCard(dc, f, c)
	}

	if s.title != "" {
		dc.SetColor(colorText)
		dc.DrawStringAnchored(s.title, 16, 22, 0, 0.5)
		dc.SetColor(colorSubtle)
		dc.DrawStringAnchored(s.stats, 16, 38, 0, 0.5)
	}

	return dc.EncodePNG(w)
}

func drawCard(dc *gg.Context, f frame, c card) {
	x, y := c.rect.Min.X, c.rect.Min.Y
	w, h := c.rect.Size.W, c.rect.Size.H
	r := f.length(radius)

	dc.SetColor(colorCard)
	dc.DrawRoundedRectangle(x, y, w, h, r)
	dc.Fill()

	dc.SetColor(colorHeaderBG)
	dc.DrawRoundedRectangle(x, y, w, c.header, r)
	dc.Fill()
	dc.DrawRectangle(x, y+r, w, c.header-r)
	dc.Fill()

	dc.SetColor(colorStroke)
	dc.SetLineWidth(1)
	dc.DrawLine(x, y+c.header, x+w, y+c.header)
	dc.Stroke()

	dc.SetColor(c.color)
	dc.SetLineWidth(f.length(1.5))
	if c.dragging {
		dc.SetLineWidth(f.length(3))
	}
	dc.DrawRoundedRectangle(x, y, w, h, r)
	dc.Stroke()

	if !f.showText() {
		return
	}
	inset := f.length(textInset)
	dc.SetColor(colorText)
	dc.DrawStringAnchored(c.label, x+inset, y+c.header/2, 0, 0.5)
	dc.SetColor(c.color)
	dc.DrawStringAnchored(c.model.Short, x+w-inset, y+c.header/2, 1, 0.5)

	top := y + c.header + inset
	for i, l := range c.lines {
		dc.SetColor(textColor(l.role))
		dc.DrawStringAnchored(l.text, x+inset, top+f.length(float64(i)*lineHeight)+6, 0, 0.5)
	}
}
