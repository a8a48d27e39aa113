package canvas

import (
	"time"

	"github.com/go-go-golems/branchcanvas/pkg/canvas/tree"
)

type NodeEventType string

const (
	NodeCreated     NodeEventType = "node_created"
	NodeRemoved     NodeEventType = "node_removed"
	PayloadAppended NodeEventType = "payload_appended"
	// StaleUpdate is a write aimed at a node that no longer exists.
	StaleUpdate NodeEventType = "stale_update"
)

// MutationEvent is reported once per Apply. Err is set when the mutation was rejected.
type MutationEvent struct {
	Timestamp time.Time     `json:"timestamp"`
	Name      string        `json:"mutation"`
	Version   int64         `json:"version"`
	Changed   bool          `json:"changed"`
	Duration  time.Duration `json:"duration"`
	Err       error         `json:"-"`
	Error     string        `json:"error,omitempty"`
}

// NodeEvent is reported for every node a mutation created, removed or wrote to.
type NodeEvent struct {
	Timestamp time.Time     `json:"timestamp"`
	Type      NodeEventType `json:"type"`
	Mutation  string        `json:"mutation"`
	Version   int64         `json:"version"`
	NodeID    tree.NodeID   `json:"node_id"`
	ParentID  tree.NodeID   `json:"parent_id"`
	Metadata  string        `json:"metadata,omitempty"`
	Role      tree.Role     `json:"role,omitempty"`
	NodeCount int           `json:"node_count"`
}

// Hooks are called synchronously on the goroutine that owns the engine,
// after the mutation has been applied. They must not call back into the engine.
type Hooks struct {
	OnMutation        func(*MutationEvent)
	OnNodeCreated     func(*NodeEvent)
	OnNodeRemoved     func(*NodeEvent)
	OnPayloadAppended func(*NodeEvent)
	OnStaleUpdate     func(*NodeEvent)
}

func (h Hooks) dispatch(e *NodeEvent) {
	var f func(*NodeEvent)
	switch e.Type {
	case NodeCreated:
		f = h.OnNodeCreated
	case NodeRemoved:
		f = h.OnNodeRemoved
	case PayloadAppended:
		f = h.OnPayloadAppended
	case StaleUpdate:
		f = h.OnStaleUpdate
	}
	if f != nil {
		f(e)
	}
}
