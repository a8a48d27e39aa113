package canvas

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/go-go-golems/branchcanvas/pkg/canvas/geometry"
	"github.com/go-go-golems/branchcanvas/pkg/canvas/gesture"
	"github.com/go-go-golems/branchcanvas/pkg/canvas/label"
	"github.com/go-go-golems/branchcanvas/pkg/canvas/tree"
)

// Mutation represents a deterministic change to the canvas.
type Mutation interface {
	Apply(e *Engine) error
	Name() string
}

// pointInputs is implemented by mutations that carry coordinates. Apply
// rejects them up front when a coordinate is NaN or infinite.
type pointInputs interface {
	points() []geometry.Point
}

type createRootMutation struct {
	payload []tree.Entry
	created tree.NodeID
}

func (m *createRootMutation) Apply(e *Engine) error {
	root := e.config.Root
	id, err := e.store.InsertRoot(&tree.Node{
		Position: root.Position,
		Payload:  append([]tree.Entry(nil), m.payload...),
		Expanded: root.Expanded,
		Label:    root.Label,
		Metadata: root.Metadata,
	})
	if err != nil {
		return err
	}
	m.created = id
	e.emit(NodeEvent{Type: NodeCreated, NodeID: id, Metadata: root.Metadata})
	return nil
}

func (m *createRootMutation) Name() string { return "create_root" }

// MutateCreateRoot installs the root node. It fails once a root exists.
func MutateCreateRoot(payload []tree.Entry) Mutation {
	return &createRootMutation{payload: payload}
}

type branchMutation struct {
	parent   tree.NodeID
	payload  []tree.Entry
	metadata string
	label    string
	created  tree.NodeID
}

func (m *branchMutation) Apply(e *Engine) error {
	parent, ok := e.store.Get(m.parent)
	if !ok {
		return errors.Wrap(&tree.NotFoundError{ID: m.parent}, "branch parent")
	}
	metadata := m.metadata
	if metadata == "" {
		metadata = parent.Metadata
	}
	name := m.label
	if name == "" {
		name = label.Sibling(len(parent.Children) + 1)
	}
	payload := m.payload
	if payload == nil && e.config.BranchGreeting != "" {
		payload = []tree.Entry{{Role: tree.RoleResponder, Text: e.config.BranchGreeting}}
	}

	if err := geometry.CheckFinite(e.config.Layout.Slots(parent.Position, len(parent.Children)+1)...); err != nil {
		return err
	}

	id, err := e.store.CreateChild(m.parent, payload, metadata, name, true)
	if err != nil {
		return err
	}
	if err := e.relayout(m.parent); err != nil {
		return err
	}
	m.created = id
	e.emit(NodeEvent{Type: NodeCreated, NodeID: id, ParentID: m.parent, Metadata: metadata})
	return nil
}

func (m *branchMutation) Name() string { return "branch" }

// MutateBranch appends a new expanded child under parent and re-lays out the
// sibling group. A nil payload seeds the configured branch greeting and an
// empty metadata inherits the parent's.
func MutateBranch(parent tree.NodeID, payload []tree.Entry, metadata string) Mutation {
	return &branchMutation{parent: parent, payload: payload, metadata: metadata}
}

// MutateBranchFromSelection branches from a span of text selected inside parent.
// The new node is titled after the span and carries it as an annotation.
func MutateBranchFromSelection(parent tree.NodeID, span string) Mutation {
	return &selectionBranchMutation{span: span, branchMutation: branchMutation{parent: parent}}
}

type selectionBranchMutation struct {
	span string
	branchMutation
}

func (m *selectionBranchMutation) Apply(e *Engine) error {
	if !label.Selectable(m.span) {
		return &tree.InvalidOperationError{Op: m.Name(), ID: m.parent, Reason: "selection too short"}
	}
	span := strings.TrimSpace(m.span)
	m.label = label.Derive(span)
	m.payload = []tree.Entry{{Role: tree.RoleAnnotation, Text: `Exploring: "` + span + `"`}}
	return m.branchMutation.Apply(e)
}

func (m *selectionBranchMutation) Name() string { return "branch_from_selection" }

type deleteSubtreeMutation struct {
	id      tree.NodeID
	removed []tree.NodeID
}

func (m *deleteSubtreeMutation) Apply(e *Engine) error {
	node, ok := e.store.Get(m.id)
	if !ok {
		return &tree.NotFoundError{ID: m.id}
	}
	parentID := node.Parent
	removed, err := e.store.DeleteSubtree(m.id)
	if err != nil {
		return err
	}
	if removed == nil {
		return errUnchanged
	}
	m.removed = removed
	if e.gesture.Kind() == gesture.DraggingNode && containsNode(removed, e.gesture.State().NodeID) {
		e.gesture.End()
	}
	if err := e.relayout(parentID); err != nil {
		return err
	}
	for _, id := range removed {
		e.emit(NodeEvent{Type: NodeRemoved, NodeID: id, ParentID: parentID})
	}
	return nil
}

func (m *deleteSubtreeMutation) Name() string { return "delete_subtree" }

// MutateDeleteSubtree removes a node and everything below it. Deleting the
// root is accepted and does nothing.
func MutateDeleteSubtree(id tree.NodeID) Mutation {
	return &deleteSubtreeMutation{id: id}
}

type reparentMutation struct {
	id, parent tree.NodeID
}

func (m *reparentMutation) Apply(e *Engine) error {
	node, ok := e.store.Get(m.id)
	if !ok {
		return &tree.NotFoundError{ID: m.id}
	}
	oldParent := node.Parent
	if oldParent == m.parent {
		return errUnchanged
	}
	before := node.Position
	if newParent, ok := e.store.Get(m.parent); ok && m.id != e.store.RootID {
		slots := e.config.Layout.Slots(newParent.Position, len(newParent.Children)+1)
		if err := geometry.CheckFinite(slots...); err != nil {
			return err
		}
		if err := e.checkShift(m.id, slots[len(slots)-1].Sub(before)); err != nil {
			return err
		}
	}
	if err := e.store.Reparent(m.id, m.parent); err != nil {
		return err
	}
	if err := e.relayout(oldParent); err != nil {
		return err
	}
	if err := e.relayout(m.parent); err != nil {
		return err
	}
	// the moved subtree follows its root rigidly
	moved, _ := e.store.Get(m.id)
	e.shiftDescendants(m.id, moved.Position.Sub(before))
	return nil
}

func (m *reparentMutation) Name() string { return "reparent" }

// MutateReparent moves a subtree under a new parent. Moves that would create
// a cycle, or that target the root, are rejected.
func MutateReparent(id, newParent tree.NodeID) Mutation {
	return &reparentMutation{id: id, parent: newParent}
}

type updateNodeMutation struct {
	name string
	id   tree.NodeID
	fn   func(*tree.Node)
}

func (m *updateNodeMutation) Apply(e *Engine) error {
	if !e.store.Update(m.id, m.fn) {
		return &tree.NotFoundError{ID: m.id}
	}
	return nil
}

func (m *updateNodeMutation) Name() string { return m.name }

// MutateToggleExpanded flips the expansion state, which changes the card height.
func MutateToggleExpanded(id tree.NodeID) Mutation {
	return &updateNodeMutation{name: "toggle_expanded", id: id, fn: func(n *tree.Node) {
		n.Expanded = !n.Expanded
	}}
}

// MutateSetMetadata replaces the opaque host tag of a node.
func MutateSetMetadata(id tree.NodeID, metadata string) Mutation {
	return &updateNodeMutation{name: "set_metadata", id: id, fn: func(n *tree.Node) {
		n.Metadata = metadata
	}}
}

// MutateSetLabel renames a node.
func MutateSetLabel(id tree.NodeID, text string) Mutation {
	return &updateNodeMutation{name: "set_label", id: id, fn: func(n *tree.Node) {
		n.Label = text
	}}
}

type appendPayloadMutation struct {
	id       tree.NodeID
	entry    tree.Entry
	appended bool
}

func (m *appendPayloadMutation) Apply(e *Engine) error {
	m.appended = e.store.Update(m.id, func(n *tree.Node) {
		n.Payload = append(n.Payload, m.entry)
	})
	if !m.appended {
		e.logger.Debug().Str("node_id", m.id.String()).Str("role", string(m.entry.Role)).Msg("dropping payload for missing node")
		e.emit(NodeEvent{Type: StaleUpdate, NodeID: m.id, Role: m.entry.Role})
		return errUnchanged
	}
	e.emit(NodeEvent{Type: PayloadAppended, NodeID: m.id, Role: m.entry.Role})
	return nil
}

func (m *appendPayloadMutation) Name() string { return "append_payload" }

// MutateAppendPayload appends an entry to a node's payload. Writes to a node
// that has since been deleted are dropped.
func MutateAppendPayload(id tree.NodeID, entry tree.Entry) Mutation {
	return &appendPayloadMutation{id: id, entry: entry}
}

type relayoutMutation struct {
	parent tree.NodeID
}

func (m *relayoutMutation) Apply(e *Engine) error {
	return e.relayout(m.parent)
}

func (m *relayoutMutation) Name() string { return "relayout" }

// MutateRelayout snaps parent's children back into their row, discarding manual drags.
func MutateRelayout(parent tree.NodeID) Mutation {
	return &relayoutMutation{parent: parent}
}

type moveNodeMutation struct {
	id  tree.NodeID
	pos geometry.Point
}

func (m *moveNodeMutation) points() []geometry.Point { return []geometry.Point{m.pos} }

func (m *moveNodeMutation) Apply(e *Engine) error {
	node, ok := e.store.Get(m.id)
	if !ok {
		return &tree.NotFoundError{ID: m.id}
	}
	if node.Position == m.pos {
		return errUnchanged
	}
	return e.moveSubtree(m.id, m.pos)
}

func (m *moveNodeMutation) Name() string { return "move_node" }

// MutateMoveNode places a node's top-left corner at pos, carrying its subtree along.
func MutateMoveNode(id tree.NodeID, pos geometry.Point) Mutation {
	return &moveNodeMutation{id: id, pos: pos}
}

func containsNode(ids []tree.NodeID, id tree.NodeID) bool {
	for _, c := range ids {
		if c == id {
			return true
		}
	}
	return false
}
