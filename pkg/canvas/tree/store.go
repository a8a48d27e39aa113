package tree

import (
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Store owns every node of a single canvas.
//
// Nodes live in an arena keyed by id; the parent/child links are ids, never
// pointers, so that removing a subtree is a matter of deleting map entries and
// detaching a single id from the former parent. The store is not safe for
// concurrent use, callers confine it to one goroutine.
type Store struct {
	Nodes  map[NodeID]*Node `json:"nodes"`
	RootID NodeID           `json:"rootID"`
	LastID NodeID           `json:"lastID"`
}

func NewStore() *Store {
	return &Store{
		Nodes: make(map[NodeID]*Node),
	}
}

// InsertRoot installs node as the root. The store takes ownership of node and
// clears its Parent and Children. A fresh id is assigned when node.ID is unset.
func (s *Store) InsertRoot(node *Node) (NodeID, error) {
	if node == nil {
		return NullNode, errors.New("root node is nil")
	}
	if s.RootID != NullNode {
		return NullNode, invalid("insert_root", s.RootID, "root already exists")
	}
	if node.ID == NullNode {
		node.ID = NewNodeID()
	}
	node.Parent = NullNode
	node.Children = nil
	s.Nodes[node.ID] = node
	s.RootID = node.ID
	s.LastID = node.ID
	return node.ID, nil
}

// CreateChild appends a new node to parentID's children and returns its id.
// The new node sits at the parent's position until the caller lays the
// sibling group out.
func (s *Store) CreateChild(parentID NodeID, payload []Entry, metadata, label string, expanded bool) (NodeID, error) {
	parent, ok := s.Nodes[parentID]
	if !ok {
		return NullNode, notFound(parentID)
	}
	child := &Node{
		ID:       NewNodeID(),
		Parent:   parentID,
		Position: parent.Position,
		Payload:  append([]Entry(nil), payload...),
		Expanded: expanded,
		Label:    label,
		Metadata: metadata,
	}
	s.Nodes[child.ID] = child
	parent.Children = append(parent.Children, child.ID)
	s.LastID = child.ID
	return child.ID, nil
}

// DeleteSubtree removes id and all of its descendants and returns the removed
// ids, id first. Deleting the root is a no-op that returns (nil, nil).
func (s *Store) DeleteSubtree(id NodeID) ([]NodeID, error) {
	if id == s.RootID {
		log.Debug().Str("node_id", id.String()).Msg("ignoring delete of root node")
		return nil, nil
	}
	node, ok := s.Nodes[id]
	if !ok {
		return nil, notFound(id)
	}

	removed := append([]NodeID{id}, s.Descendants(id)...)
	for _, rid := range removed {
		delete(s.Nodes, rid)
	}
	if parent, ok := s.Nodes[node.Parent]; ok {
		parent.Children = removeID(parent.Children, id)
	}
	if _, ok := s.Nodes[s.LastID]; !ok {
		s.LastID = node.Parent
	}
	return removed, nil
}

// Descendants returns every node below id in depth-first pre-order, following
// Children order. The queried node is never included. A visited set bounds the
// walk so that a corrupted tree cannot make it loop.
func (s *Store) Descendants(id NodeID) []NodeID {
	var out []NodeID
	visited := map[NodeID]bool{id: true}
	var visit func(NodeID)
	visit = func(cur NodeID) {
		node, ok := s.Nodes[cur]
		if !ok {
			return
		}
		for _, c := range node.Children {
			if visited[c] {
				continue
			}
			visited[c] = true
			if _, ok := s.Nodes[c]; !ok {
				continue
			}
			out = append(out, c)
			visit(c)
		}
	}
	visit(id)
	return out
}

// Update mutates a node in place. It returns false, and does nothing, when
// the node no longer exists. Topology fields are restored after the mutator
// runs: Update never reparents.
func (s *Store) Update(id NodeID, mutator func(*Node)) bool {
	node, ok := s.Nodes[id]
	if !ok {
		return false
	}
	nodeID, parent := node.ID, node.Parent
	children := append([]NodeID(nil), node.Children...)
	mutator(node)
	node.ID, node.Parent, node.Children = nodeID, parent, children
	return true
}

// IsAncestor reports whether candidate is a strict ancestor of id.
func (s *Store) IsAncestor(candidate, id NodeID) bool {
	node, ok := s.Nodes[id]
	if !ok {
		return false
	}
	// a valid chain is never longer than the number of nodes
	for steps := 0; steps <= len(s.Nodes); steps++ {
		if node.Parent == NullNode {
			return false
		}
		if node.Parent == candidate {
			return true
		}
		node, ok = s.Nodes[node.Parent]
		if !ok {
			return false
		}
	}
	return false
}

// Reparent moves id, with its subtree, to the end of newParentID's children.
func (s *Store) Reparent(id, newParentID NodeID) error {
	if id == s.RootID {
		return invalid("reparent", id, "root cannot be reparented")
	}
	node, ok := s.Nodes[id]
	if !ok {
		return notFound(id)
	}
	newParent, ok := s.Nodes[newParentID]
	if !ok {
		return notFound(newParentID)
	}
	if id == newParentID {
		return invalid("reparent", id, "node cannot be its own parent")
	}
	if s.IsAncestor(id, newParentID) {
		return invalid("reparent", id, "new parent is a descendant")
	}
	if node.Parent == newParentID {
		return nil
	}
	if oldParent, ok := s.Nodes[node.Parent]; ok {
		oldParent.Children = removeID(oldParent.Children, id)
	}
	node.Parent = newParentID
	newParent.Children = append(newParent.Children, id)
	return nil
}

func (s *Store) Get(id NodeID) (*Node, bool) {
	n, ok := s.Nodes[id]
	return n, ok
}

func (s *Store) Len() int {
	return len(s.Nodes)
}

func (s *Store) Root() (*Node, bool) {
	return s.Get(s.RootID)
}

// Siblings returns the ids sharing id's parent, id excluded.
func (s *Store) Siblings(id NodeID) []NodeID {
	node, ok := s.Nodes[id]
	if !ok {
		return nil
	}
	parent, ok := s.Nodes[node.Parent]
	if !ok {
		return nil
	}
	var siblings []NodeID
	for _, c := range parent.Children {
		if c != id {
			siblings = append(siblings, c)
		}
	}
	return siblings
}

// Path returns the ids from the root down to id, both included.
func (s *Store) Path(id NodeID) []NodeID {
	var path []NodeID
	for steps := 0; id != NullNode && steps <= len(s.Nodes); steps++ {
		node, ok := s.Nodes[id]
		if !ok {
			break
		}
		path = append([]NodeID{id}, path...)
		id = node.Parent
	}
	return path
}

// Walk visits nodes in pre-order from the root following Children order.
// Returning false from fn stops the walk.
func (s *Store) Walk(fn func(*Node) bool) {
	root, ok := s.Root()
	if !ok {
		return
	}
	if !fn(root) {
		return
	}
	for _, id := range s.Descendants(s.RootID) {
		if !fn(s.Nodes[id]) {
			return
		}
	}
}

// Validate checks every structural invariant and reports the first violation.
func (s *Store) Validate() error {
	if len(s.Nodes) == 0 {
		if s.RootID != NullNode {
			return errors.Errorf("root %s set on empty store", s.RootID)
		}
		return nil
	}
	root, ok := s.Nodes[s.RootID]
	if !ok {
		return errors.Errorf("root %s missing", s.RootID)
	}
	if root.Parent != NullNode {
		return errors.Errorf("root %s has parent %s", root.ID, root.Parent)
	}

	for id, node := range s.Nodes {
		if node.ID != id {
			return errors.Errorf("node stored under %s has id %s", id, node.ID)
		}
		seen := make(map[NodeID]bool, len(node.Children))
		for _, c := range node.Children {
			if seen[c] {
				return errors.Errorf("child %s listed twice under %s", c, id)
			}
			seen[c] = true
			child, ok := s.Nodes[c]
			if !ok {
				return errors.Errorf("child %s of %s missing", c, id)
			}
			if child.Parent != id {
				return errors.Errorf("child %s of %s points to parent %s", c, id, child.Parent)
			}
		}
		if id == s.RootID {
			continue
		}
		parent, ok := s.Nodes[node.Parent]
		if !ok {
			return errors.Errorf("node %s is orphaned (parent %s missing)", id, node.Parent)
		}
		if !containsID(parent.Children, id) {
			return errors.Errorf("node %s not listed under its parent %s", id, node.Parent)
		}
	}

	reachable := 1 + len(s.Descendants(s.RootID))
	if reachable != len(s.Nodes) {
		return errors.Errorf("%d of %d nodes reachable from root", reachable, len(s.Nodes))
	}
	return nil
}

func removeID(ids []NodeID, id NodeID) []NodeID {
	out := ids[:0]
	for _, c := range ids {
		if c != id {
			out = append(out, c)
		}
	}
	return out
}

func containsID(ids []NodeID, id NodeID) bool {
	for _, c := range ids {
		if c == id {
			return true
		}
	}
	return false
}
