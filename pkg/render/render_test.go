package render

import (
	"bytes"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-go-golems/branchcanvas/pkg/canvas"
	"github.com/go-go-golems/branchcanvas/pkg/canvas/geometry"
	"github.com/go-go-golems/branchcanvas/pkg/canvas/tree"
)

func testSnapshot(t *testing.T) canvas.Snapshot {
	e, err := canvas.New(canvas.DefaultConfig(), canvas.WithLogger(zerolog.Nop()))
	require.NoError(t, err)
	a, err := e.Branch(e.RootID(), nil, "")
	require.NoError(t, err)
	_, err = e.Branch(e.RootID(), nil, "gpt-4")
	require.NoError(t, err)
	_, err = e.BranchFromSelection(a, "quantum entanglement basics")
	require.NoError(t, err)
	return e.Snapshot()
}

func TestFormatFromPath(t *testing.T) {
	for path, want := range map[string]string{
		"out.svg":       FormatSVG,
		"dir/OUT.PNG":   FormatPNG,
		"snapshot.json": FormatJSON,
		"a.b/c.svg":     FormatSVG,
	} {
		got, err := FormatFromPath(path)
		require.NoError(t, err, path)
		assert.Equal(t, want, got, path)
	}
	for _, path := range []string{"out", "out.gif", ""} {
		_, err := FormatFromPath(path)
		assert.Error(t, err, path)
	}
}

func TestWriteSVG(t *testing.T) {
	snap := testSnapshot(t)
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, &snap, Options{Format: "SVG", Title: "demo"}))
	out := buf.String()

	assert.True(t, strings.HasPrefix(strings.TrimSpace(out), "<?xml"))
	assert.Contains(t, out, "</svg>")
	assert.Contains(t, out, "Main Thread")
	assert.Contains(t, out, "Branch 1")
	assert.Contains(t, out, "quantum entanglement basics")
	assert.Contains(t, out, "demo")
	for _, n := range snap.Nodes {
		assert.Contains(t, out, `id="node-`+n.ID.String()+`"`)
	}
	assert.Equal(t, len(snap.Edges), strings.Count(out, "<path"))
}

func TestWritePNGSize(t *testing.T) {
	snap := testSnapshot(t)
	var buf bytes.Buffer
	require.NoError(t, WritePNG(&buf, &snap, Options{Padding: 10}))

	img, err := png.Decode(&buf)
	require.NoError(t, err)
	b := snap.Bounds
	assert.Equal(t, int(b.Size.W+20), img.Bounds().Dx())
	assert.Equal(t, int(b.Size.H+20), img.Bounds().Dy())

	// the corner is background
	r, g, bl, _ := img.At(0, 0).RGBA()
	assert.Equal(t, uint32(colorBackdrop.R), r>>8)
	assert.Equal(t, uint32(colorBackdrop.G), g>>8)
	assert.Equal(t, uint32(colorBackdrop.B), bl>>8)
}

func TestScreenModeUsesViewport(t *testing.T) {
	snap := testSnapshot(t)
	snap.Pan = geometry.Point{X: 100, Y: 50}
	snap.Zoom = 0.5

	f := newFrame(&snap, Options{Screen: geometry.Size{W: 800, H: 600}})
	assert.Equal(t, 800, f.width)
	assert.Equal(t, 600, f.height)

	root, ok := snap.Node(snap.RootID)
	require.True(t, ok)
	assert.Equal(t, geometry.WorldToScreen(root.Position, snap.Pan, snap.Zoom), f.point(root.Position))
	assert.False(t, f.showText())
}

func TestWriteJSON(t *testing.T) {
	snap := testSnapshot(t)
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, &snap, Options{Path: "x.json"}))

	var decoded struct {
		Version int64       `json:"version"`
		RootID  tree.NodeID `json:"rootID"`
		Nodes   []tree.Node `json:"nodes"`
		Gesture struct {
			Kind string `json:"kind"`
		} `json:"gesture"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, snap.Version, decoded.Version)
	assert.Equal(t, snap.RootID, decoded.RootID)
	assert.Len(t, decoded.Nodes, len(snap.Nodes))
	assert.Equal(t, "idle", decoded.Gesture.Kind)
}

func TestSchema(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteSchema(&buf))
	out := buf.String()
	assert.Regexp(t, `"format":\s*"uuid"`, out)
	assert.Contains(t, out, `"dragging"`)
	assert.Contains(t, out, `"edges"`)
	assert.Contains(t, out, "branchcanvas snapshot")
}

func TestSave(t *testing.T) {
	snap := testSnapshot(t)
	dir := t.TempDir()

	path := filepath.Join(dir, "nested", "canvas.svg")
	require.NoError(t, Save(&snap, Options{Path: path}))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "<svg")

	bad := filepath.Join(dir, "other", "canvas.gif")
	assert.Error(t, Save(&snap, Options{Path: bad}))
	_, err = os.Stat(filepath.Dir(bad))
	assert.True(t, os.IsNotExist(err))

	assert.Error(t, Save(&snap, Options{}))
}

func TestBodyLines(t *testing.T) {
	n := tree.Node{
		Expanded: false,
		Payload: []tree.Entry{
			{Role: tree.RoleOriginator, Text: "first"},
			{Role: tree.RoleResponder, Text: "second"},
		},
	}
	lines := bodyLines(n, 40, 2)
	require.Len(t, lines, 1)
	assert.Equal(t, "second", lines[0].text)

	n.Expanded = true
	lines = bodyLines(n, 40, 5)
	require.Len(t, lines, 2)
	assert.Equal(t, "> first", lines[0].text)
	assert.Equal(t, tree.RoleOriginator, lines[0].role)

	long := tree.Node{Expanded: true, Payload: []tree.Entry{{Role: tree.RoleResponder, Text: strings.Repeat("word ", 40)}}}
	lines = bodyLines(long, 20, 3)
	require.Len(t, lines, 3)
	assert.True(t, strings.HasSuffix(lines[2].text, "..."))
	for _, l := range lines {
		assert.LessOrEqual(t, len(l.text), 20)
	}

	assert.Nil(t, bodyLines(long, 20, 0))
}
