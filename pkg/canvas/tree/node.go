package tree

import (
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/go-go-golems/branchcanvas/pkg/canvas/geometry"
)

type NodeID uuid.UUID

func (id NodeID) MarshalJSON() ([]byte, error) {
	return json.Marshal(uuid.UUID(id))
}

func (id *NodeID) UnmarshalJSON(data []byte) error {
	var u uuid.UUID
	if err := json.Unmarshal(data, &u); err != nil {
		return err
	}
	*id = NodeID(u)
	return nil
}

// MarshalText lets NodeID be used as a map key and in yaml documents.
func (id NodeID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

func (id *NodeID) UnmarshalText(data []byte) error {
	u, err := uuid.ParseBytes(data)
	if err != nil {
		return err
	}
	*id = NodeID(u)
	return nil
}

func (id NodeID) String() string {
	return uuid.UUID(id).String()
}

// Short returns the first eight hex digits, enough to tell nodes apart on screen.
func (id NodeID) Short() string {
	return id.String()[:8]
}

func NewNodeID() NodeID {
	return NodeID(uuid.New())
}

// ParseNodeID parses the canonical uuid form.
func ParseNodeID(s string) (NodeID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return NullNode, err
	}
	return NodeID(u), nil
}

var NullNode NodeID = NodeID(uuid.Nil)

type Role string

const (
	RoleOriginator Role = "originator"
	RoleResponder  Role = "responder"
	// RoleAnnotation marks display-only entries, such as the text a branch was spawned from.
	RoleAnnotation Role = "annotation"
)

// Entry is one record of a node's payload. The engine never looks inside Text.
type Entry struct {
	Role Role   `json:"role" yaml:"role"`
	Text string `json:"text" yaml:"text"`
}

// Node is a single conversation card on the canvas.
//
// Position is the world-space top-left corner. Children are kept in display
// order, left to right, and that order is what the layout engine uses.
type Node struct {
	ID       NodeID         `json:"id"`
	Parent   NodeID         `json:"parent"`
	Children []NodeID       `json:"children"`
	Position geometry.Point `json:"position"`
	Payload  []Entry        `json:"payload"`
	Expanded bool           `json:"expanded"`
	Label    string         `json:"label"`
	Metadata string         `json:"metadata"`
}

// IsRoot reports whether the node has no parent.
func (n *Node) IsRoot() bool {
	return n.Parent == NullNode
}

// LastEntry returns the most recent payload entry, if any.
func (n *Node) LastEntry() (Entry, bool) {
	if len(n.Payload) == 0 {
		return Entry{}, false
	}
	return n.Payload[len(n.Payload)-1], true
}
