// Package canvas is the interaction and layout engine of a branching
// conversation canvas.
//
// An Engine owns one tree of nodes together with the view transform and the
// pointer gesture in progress. Every change goes through Engine.Apply as a
// Mutation, which leaves the tree fully laid out, bumps the version and
// notifies the registered hooks. The engine holds no locks: hosts confine it
// to a single goroutine and re-enter asynchronous results on that goroutine.
package canvas

import (
	stderrors "errors"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/go-go-golems/branchcanvas/pkg/canvas/geometry"
	"github.com/go-go-golems/branchcanvas/pkg/canvas/gesture"
	"github.com/go-go-golems/branchcanvas/pkg/canvas/layout"
	"github.com/go-go-golems/branchcanvas/pkg/canvas/tree"
	"github.com/go-go-golems/branchcanvas/pkg/canvas/viewport"
)

var (
	ErrNotFound         = tree.ErrNotFound
	ErrInvalidOperation = tree.ErrInvalidOperation
	ErrNonFinite        = geometry.ErrNonFinite
)

// errUnchanged lets a mutation report that it was accepted but had nothing to do.
var errUnchanged = stderrors.New("unchanged")

type Engine struct {
	store    *tree.Store
	layout   *layout.Engine
	viewport *viewport.Viewport
	gesture  *gesture.Controller

	config Config
	hooks  []Hooks
	logger zerolog.Logger

	version int64
	pending []*NodeEvent

	skipRoot    bool
	rootPayload []tree.Entry
}

type Option func(*Engine)

func WithLogger(logger zerolog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithHooks registers an additional set of hooks. Hooks run in registration order.
func WithHooks(hooks Hooks) Option {
	return func(e *Engine) {
		e.hooks = append(e.hooks, hooks)
	}
}

// WithoutRoot leaves the engine empty; the host calls CreateRoot itself.
func WithoutRoot() Option {
	return func(e *Engine) {
		e.skipRoot = true
	}
}

// WithRootPayload replaces the configured root greeting.
func WithRootPayload(entries ...tree.Entry) Option {
	return func(e *Engine) {
		e.rootPayload = entries
	}
}

func New(config Config, options ...Option) (*Engine, error) {
	if err := config.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid canvas config")
	}
	e := &Engine{
		store:    tree.NewStore(),
		layout:   layout.NewEngine(config.Layout),
		viewport: viewport.New(config.Viewport),
		gesture:  gesture.NewController(),
		config:   config,
		logger:   log.Logger,
	}
	for _, o := range options {
		o(e)
	}

	if !e.skipRoot {
		payload := e.rootPayload
		if payload == nil && config.Root.Greeting != "" {
			payload = []tree.Entry{{Role: tree.RoleResponder, Text: config.Root.Greeting}}
		}
		if _, err := e.CreateRoot(payload); err != nil {
			return nil, err
		}
	}
	return e, nil
}

func (e *Engine) Config() Config {
	return e.config
}

func (e *Engine) Version() int64 {
	return e.version
}

// Store exposes the tree for read access. Writing to it directly bypasses
// layout, versioning and hooks.
func (e *Engine) Store() *tree.Store {
	return e.store
}

func (e *Engine) Viewport() *viewport.Viewport {
	return e.viewport
}

func (e *Engine) Gesture() gesture.State {
	return e.gesture.State()
}

func (e *Engine) RootID() tree.NodeID {
	return e.store.RootID
}

// Node returns a copy of the node with the given id.
func (e *Engine) Node(id tree.NodeID) (tree.Node, bool) {
	n, ok := e.store.Get(id)
	if !ok {
		return tree.Node{}, false
	}
	return cloneNode(n), true
}

// Apply runs a single mutation. Accepted mutations bump the version and are
// reported to the hooks; rejected ones leave the engine untouched.
func (e *Engine) Apply(m Mutation) error {
	if m == nil {
		return errors.New("mutation is nil")
	}
	start := time.Now()

	if p, ok := m.(pointInputs); ok {
		if err := geometry.CheckFinite(p.points()...); err != nil {
			return e.reject(m, start, err)
		}
	}

	err := m.Apply(e)
	changed := true
	switch {
	case err == nil:
	case stderrors.Is(err, errUnchanged):
		changed = false
	default:
		return e.reject(m, start, err)
	}

	if changed {
		e.version++
	}
	e.logger.Trace().
		Str("mutation", m.Name()).
		Int64("version", e.version).
		Bool("changed", changed).
		Int("nodes", e.store.Len()).
		Msg("applied mutation")

	e.flush(m.Name())
	e.notify(&MutationEvent{
		Timestamp: start,
		Name:      m.Name(),
		Version:   e.version,
		Changed:   changed,
		Duration:  time.Since(start),
	})
	return nil
}

// ApplyAll applies mutations in order and stops at the first error.
func (e *Engine) ApplyAll(muts ...Mutation) error {
	for _, m := range muts {
		if err := e.Apply(m); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) reject(m Mutation, start time.Time, err error) error {
	e.pending = nil
	e.logger.Debug().Err(err).Str("mutation", m.Name()).Msg("mutation rejected")
	e.notify(&MutationEvent{
		Timestamp: start,
		Name:      m.Name(),
		Version:   e.version,
		Duration:  time.Since(start),
		Err:       err,
		Error:     err.Error(),
	})
	return errors.Wrapf(err, "mutation %s failed", m.Name())
}

func (e *Engine) emit(ev NodeEvent) {
	e.pending = append(e.pending, &ev)
}

func (e *Engine) flush(name string) {
	pending := e.pending
	e.pending = nil
	for _, ev := range pending {
		ev.Mutation = name
		ev.Version = e.version
		ev.NodeCount = e.store.Len()
		if ev.Timestamp.IsZero() {
			ev.Timestamp = time.Now()
		}
		for _, h := range e.hooks {
			h.dispatch(ev)
		}
	}
}

func (e *Engine) notify(ev *MutationEvent) {
	for _, h := range e.hooks {
		if h.OnMutation != nil {
			h.OnMutation(ev)
		}
	}
}

// relayout re-positions the children of parentID.
func (e *Engine) relayout(parentID tree.NodeID) error {
	return e.layout.LayoutChildren(e.store, parentID)
}

// moveSubtree puts id's top-left corner at pos and shifts every descendant by
// the same delta. Nothing moves when any resulting position would not be finite.
func (e *Engine) moveSubtree(id tree.NodeID, pos geometry.Point) error {
	node, ok := e.store.Get(id)
	if !ok {
		return &tree.NotFoundError{ID: id}
	}
	if err := geometry.CheckFinite(pos); err != nil {
		return err
	}
	if err := e.checkShift(id, pos.Sub(node.Position)); err != nil {
		return err
	}
	e.store.Update(id, func(n *tree.Node) {
		n.Position = pos
	})
	e.shiftDescendants(id, pos.Sub(node.Position))
	return nil
}

// checkShift reports whether shifting id's descendants by delta keeps them finite.
func (e *Engine) checkShift(id tree.NodeID, delta geometry.Point) error {
	if err := geometry.CheckFinite(delta); err != nil {
		return err
	}
	for _, d := range e.store.Descendants(id) {
		n, ok := e.store.Get(d)
		if !ok {
			continue
		}
		if err := geometry.CheckFinite(n.Position.Add(delta)); err != nil {
			return errors.Wrapf(err, "descendant %s", d)
		}
	}
	return nil
}

func (e *Engine) shiftDescendants(id tree.NodeID, delta geometry.Point) {
	for _, d := range e.store.Descendants(id) {
		e.store.Update(d, func(n *tree.Node) {
			n.Position = n.Position.Add(delta)
		})
	}
}

// ContentBounds returns the world rectangle enclosing every node.
func (e *Engine) ContentBounds() geometry.Rect {
	var r geometry.Rect
	e.store.Walk(func(n *tree.Node) bool {
		r = r.Union(e.config.Layout.Bounds(n))
		return true
	})
	return r
}
