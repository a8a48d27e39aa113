// Package responder produces the replies that fill in a branch after the user
// sends a message. Replies are generated off the engine's goroutine and travel
// back over the event bus; the owner of the engine appends them.
package responder

import (
	"context"

	"github.com/go-go-golems/branchcanvas/pkg/canvas/tree"
)

// Request is everything a responder gets to see about a node.
type Request struct {
	NodeID  tree.NodeID  `json:"node_id"`
	Model   string       `json:"model"`
	Prompt  string       `json:"prompt"`
	History []tree.Entry `json:"history,omitempty"`
}

// Responder produces a single responder entry for a request.
// Implementations must return promptly once ctx is done.
type Responder interface {
	Respond(ctx context.Context, req Request) (tree.Entry, error)
}

// Func adapts a function to the Responder interface.
type Func func(ctx context.Context, req Request) (tree.Entry, error)

func (f Func) Respond(ctx context.Context, req Request) (tree.Entry, error) {
	return f(ctx, req)
}
