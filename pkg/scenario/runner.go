package scenario

import (
	"bytes"
	"context"
	"path/filepath"
	"text/template"

	"github.com/Masterminds/sprig"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/go-go-golems/branchcanvas/pkg/canvas"
	"github.com/go-go-golems/branchcanvas/pkg/canvas/geometry"
	"github.com/go-go-golems/branchcanvas/pkg/canvas/gesture"
	"github.com/go-go-golems/branchcanvas/pkg/canvas/tree"
	"github.com/go-go-golems/branchcanvas/pkg/models"
	"github.com/go-go-golems/branchcanvas/pkg/render"
	"github.com/go-go-golems/branchcanvas/pkg/responder"
)

var DefaultScreen = geometry.Size{W: 1280, H: 800}

// PathData is what export path templates see.
type PathData struct {
	Name    string
	Step    int
	Version int64
	Nodes   int
	Zoom    int
}

type Result struct {
	Steps    int
	Exports  []string
	Refs     map[string]tree.NodeID
	Snapshot canvas.Snapshot
}

// Runner replays scripts against one engine. It is not safe for concurrent use.
type Runner struct {
	engine    *canvas.Engine
	responder responder.Responder
	catalog   *models.Catalog
	logger    zerolog.Logger
	outDir    string
	refs      map[string]tree.NodeID
}

type Option func(*Runner)

func WithResponder(r responder.Responder) Option {
	return func(runner *Runner) {
		runner.responder = r
	}
}

func WithCatalog(c *models.Catalog) Option {
	return func(r *Runner) {
		r.catalog = c
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(r *Runner) {
		r.logger = logger
	}
}

// WithOutputDir resolves relative export paths against dir.
func WithOutputDir(dir string) Option {
	return func(r *Runner) {
		r.outDir = dir
	}
}

func NewRunner(engine *canvas.Engine, options ...Option) *Runner {
	r := &Runner{
		engine: engine,
		logger: log.Logger,
		refs:   map[string]tree.NodeID{},
	}
	for _, o := range options {
		o(r)
	}
	if r.catalog == nil {
		r.catalog = models.Default()
	}
	if r.responder == nil {
		r.responder = responder.NewSimulated(r.catalog, responder.WithDelay(0), responder.WithSeed(1))
	}
	return r
}

// Run executes every step in order and stops at the first failure. Refs
// registered by earlier runs stay valid.
func (r *Runner) Run(ctx context.Context, s *Script) (*Result, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	screen := s.Screen
	if screen.W <= 0 || screen.H <= 0 {
		screen = DefaultScreen
	}

	res := &Result{}
	for i, step := range s.Steps {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		r.logger.Debug().Int("step", i+1).Str("op", step.Name()).Msg("running scenario step")

		path, err := r.runStep(ctx, s, i+1, step, screen)
		if err != nil {
			return res, errors.Wrapf(err, "step %d (%s)", i+1, step.Name())
		}
		if path != "" {
			res.Exports = append(res.Exports, path)
		}
		res.Steps++
	}

	res.Refs = make(map[string]tree.NodeID, len(r.refs))
	for k, v := range r.refs {
		res.Refs[k] = v
	}
	res.Snapshot = r.engine.Snapshot()
	return res, nil
}

func (r *Runner) runStep(ctx context.Context, s *Script, index int, step Step, screen geometry.Size) (string, error) {
	e := r.engine
	switch {
	case step.Branch != nil:
		parent, err := r.resolve(step.Branch.From)
		if err != nil {
			return "", err
		}
		id, err := e.Branch(parent, nil, step.Branch.Metadata)
		if err != nil {
			return "", err
		}
		return "", r.bind(step.Branch.As, id)

	case step.Select != nil:
		parent, err := r.resolve(step.Select.From)
		if err != nil {
			return "", err
		}
		id, err := e.BranchFromSelection(parent, step.Select.Text)
		if err != nil {
			return "", err
		}
		return "", r.bind(step.Select.As, id)

	case step.Send != nil:
		return "", r.send(ctx, step.Send)

	case step.Append != nil:
		id, err := r.resolve(step.Append.Node)
		if err != nil {
			return "", err
		}
		role, err := parseRole(step.Append.Role)
		if err != nil {
			return "", err
		}
		if !e.AppendPayload(id, tree.Entry{Role: role, Text: step.Append.Text}) {
			r.logger.Debug().Str("node_id", id.String()).Msg("append dropped, node is gone")
		}
		return "", nil

	case step.Delete != nil:
		id, err := r.resolve(step.Delete.Node)
		if err != nil {
			return "", err
		}
		_, err = e.DeleteSubtree(id)
		return "", err

	case step.Toggle != nil:
		id, err := r.resolve(step.Toggle.Node)
		if err != nil {
			return "", err
		}
		return "", e.ToggleExpanded(id)

	case step.Reparent != nil:
		id, err := r.resolve(step.Reparent.Node)
		if err != nil {
			return "", err
		}
		parent, err := r.resolve(step.Reparent.Parent)
		if err != nil {
			return "", err
		}
		return "", e.Reparent(id, parent)

	case step.Metadata != nil:
		id, err := r.resolve(step.Metadata.Node)
		if err != nil {
			return "", err
		}
		value := step.Metadata.Value
		if step.Metadata.Next {
			n, _ := e.Node(id)
			value = r.catalog.Next(n.Metadata).ID
		}
		return "", e.SetMetadata(id, value)

	case step.Pan != nil:
		return "", e.Pan(step.Pan.DX, step.Pan.DY)

	case step.Zoom != nil:
		return "", r.zoom(step.Zoom)

	case step.Drag != nil:
		return "", r.drag(step.Drag)

	case step.Fit != nil:
		return "", e.FitToContent(screen, step.Fit.Padding)

	case step.Expect != nil:
		return "", r.expect(step.Expect)

	case step.Export != nil:
		return r.export(s, index, step.Export, screen)
	}
	return "", errors.New("empty step")
}

func (r *Runner) resolve(ref string) (tree.NodeID, error) {
	switch ref {
	case "":
		return tree.NullNode, errors.New("missing node reference")
	case RootRef:
		return r.engine.RootID(), nil
	}
	if id, ok := r.refs[ref]; ok {
		return id, nil
	}
	if id, err := tree.ParseNodeID(ref); err == nil {
		return id, nil
	}
	return tree.NullNode, errors.Errorf("unknown node reference %q", ref)
}

func (r *Runner) bind(ref string, id tree.NodeID) error {
	if ref == "" {
		return nil
	}
	if ref == RootRef {
		return errors.Errorf("%q is reserved", RootRef)
	}
	if _, ok := r.refs[ref]; ok {
		return errors.Errorf("node reference %q already bound", ref)
	}
	r.refs[ref] = id
	return nil
}

func parseRole(s string) (tree.Role, error) {
	switch tree.Role(s) {
	case "", tree.RoleOriginator:
		return tree.RoleOriginator, nil
	case tree.RoleResponder, tree.RoleAnnotation:
		return tree.Role(s), nil
	}
	return "", errors.Errorf("unknown role %q", s)
}

func (r *Runner) send(ctx context.Context, step *SendStep) error {
	id, err := r.resolve(step.Node)
	if err != nil {
		return err
	}
	node, ok := r.engine.Node(id)
	if !ok {
		return errors.Wrapf(canvas.ErrNotFound, "node %s", id)
	}
	if !r.engine.AppendPayload(id, tree.Entry{Role: tree.RoleOriginator, Text: step.Text}) {
		return errors.Wrapf(canvas.ErrNotFound, "node %s", id)
	}
	entry, err := r.responder.Respond(ctx, responder.Request{
		NodeID:  id,
		Model:   node.Metadata,
		Prompt:  step.Text,
		History: node.Payload,
	})
	if err != nil {
		return errors.Wrap(err, "responder failed")
	}
	r.engine.AppendPayload(id, entry)
	return nil
}

func (r *Runner) zoom(step *ZoomStep) error {
	e := r.engine
	switch step.Button {
	case "in":
		return e.ZoomIn()
	case "out":
		return e.ZoomOut()
	case "reset":
		return e.ResetView()
	case "":
	default:
		return errors.Errorf("unknown zoom button %q", step.Button)
	}
	if step.At == nil {
		return errors.New("zoom needs a button or a point")
	}
	return e.ZoomAt(*step.At, step.Direction)
}

func (r *Runner) drag(step *DragStep) error {
	e := r.engine
	id, err := r.resolve(step.Node)
	if err != nil {
		return err
	}
	node, ok := e.Node(id)
	if !ok {
		return errors.Wrapf(canvas.ErrNotFound, "node %s", id)
	}
	cfg := e.Config()
	grab := e.Viewport().WorldToScreen(node.Position.Add(geometry.Point{
		X: cfg.Layout.NodeWidth / 2,
		Y: cfg.HeaderHeight / 2,
	}))

	if kind := e.PointerDown(grab); kind != gesture.DraggingNode || e.Gesture().NodeID != id {
		e.EndDrag()
		return errors.Errorf("header of %s is covered by another node", id.Short())
	}
	defer e.EndDrag()

	n := step.Steps
	if n <= 0 {
		n = 1
	}
	for i := 1; i <= n; i++ {
		if err := e.UpdateDrag(grab.Add(step.By.Scale(float64(i) / float64(n)))); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) export(s *Script, index int, step *ExportStep, screen geometry.Size) (string, error) {
	snap := r.engine.Snapshot()
	path, err := ExpandPath(step.Path, PathData{
		Name:    s.Name,
		Step:    index,
		Version: snap.Version,
		Nodes:   len(snap.Nodes),
		Zoom:    snap.ZoomPercent,
	})
	if err != nil {
		return "", err
	}
	if r.outDir != "" && !filepath.IsAbs(path) {
		path = filepath.Join(r.outDir, path)
	}
	opts := render.Options{Path: path, Title: step.Title, Catalog: r.catalog}
	if step.View {
		opts.Screen = screen
	}
	if err := render.Save(&snap, opts); err != nil {
		return "", err
	}
	r.logger.Info().Str("path", path).Int64("version", snap.Version).Msg("exported snapshot")
	return path, nil
}

// ExpandPath renders an export path template.
func ExpandPath(tmpl string, data PathData) (string, error) {
	if tmpl == "" {
		return "", errors.New("export path is required")
	}
	t, err := template.New("path").Funcs(sprig.TxtFuncMap()).Parse(tmpl)
	if err != nil {
		return "", errors.Wrap(err, "invalid export path template")
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", errors.Wrap(err, "could not expand export path")
	}
	return buf.String(), nil
}
