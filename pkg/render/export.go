// Package render turns canvas snapshots into files: SVG and PNG pictures of
// the tree, and the snapshot itself as JSON. It only ever reads snapshots, so
// it is safe to call from any goroutine once the snapshot has been taken.
package render

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/go-go-golems/branchcanvas/pkg/canvas"
	"github.com/go-go-golems/branchcanvas/pkg/canvas/geometry"
	"github.com/go-go-golems/branchcanvas/pkg/models"
)

const (
	FormatSVG  = "svg"
	FormatPNG  = "png"
	FormatJSON = "json"

	DefaultPadding = 40.0
)

var Formats = []string{FormatSVG, FormatPNG, FormatJSON}

type Options struct {
	Path   string // Output path; format inferred from extension when Format is empty
	Format string // "svg", "png" or "json" (case-insensitive)
	Title  string // Optional title drawn in the top-left corner
	// Catalog colors cards by their model tag. Nil uses the built-in catalog.
	Catalog *models.Catalog
	// Padding around the tree, in world units. Zero selects DefaultPadding.
	Padding float64
	// Scale of the whole-tree picture. Zero means 1.
	Scale float64
	// Screen, when set, renders what a viewer of that size sees through the
	// snapshot's pan and zoom instead of the whole tree.
	Screen geometry.Size
}

// FormatFromPath infers the export format from a file extension.
func FormatFromPath(path string) (string, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	if err := checkFormat(ext); err != nil {
		return "", errors.Wrapf(err, "cannot infer export format from %q", path)
	}
	return ext, nil
}

func checkFormat(format string) error {
	for _, f := range Formats {
		if f == format {
			return nil
		}
	}
	return errors.Errorf("unsupported format %q (want svg, png or json)", format)
}

func (o Options) format() (string, error) {
	format := strings.ToLower(strings.TrimPrefix(o.Format, "."))
	if format == "" {
		return FormatFromPath(o.Path)
	}
	return format, checkFormat(format)
}

func ContentType(format string) string {
	switch format {
	case FormatSVG:
		return "image/svg+xml"
	case FormatPNG:
		return "image/png"
	default:
		return "application/json"
	}
}

// Write renders snap to w in the format selected by opts.
func Write(w io.Writer, snap *canvas.Snapshot, opts Options) error {
	format, err := opts.format()
	if err != nil {
		return err
	}
	switch format {
	case FormatSVG:
		return WriteSVG(w, snap, opts)
	case FormatPNG:
		return WritePNG(w, snap, opts)
	default:
		return WriteJSON(w, snap)
	}
}

// Save renders snap to opts.Path, creating parent directories as needed.
// Nothing is written when rendering fails.
func Save(snap *canvas.Snapshot, opts Options) error {
	if opts.Path == "" {
		return errors.New("output path is required")
	}
	var buf bytes.Buffer
	if err := Write(&buf, snap, opts); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(opts.Path), 0o755); err != nil {
		return errors.Wrap(err, "create parent dir")
	}
	return errors.Wrapf(os.WriteFile(opts.Path, buf.Bytes(), 0o644), "write %s", opts.Path)
}
