package host

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/go-go-golems/branchcanvas/pkg/canvas"
	"github.com/go-go-golems/branchcanvas/pkg/canvas/tree"
	"github.com/go-go-golems/branchcanvas/pkg/metrics"
	"github.com/go-go-golems/branchcanvas/pkg/responder"
)

// PrepareSend appends the user's text to a node and builds the request for
// the responder. It must run on the goroutine that owns e.
func PrepareSend(e *canvas.Engine, id tree.NodeID, text string) (responder.Request, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return responder.Request{}, errors.Wrap(canvas.ErrInvalidOperation, "empty message")
	}
	node, ok := e.Node(id)
	if !ok {
		return responder.Request{}, errors.Wrapf(canvas.ErrNotFound, "node %s", id)
	}
	if !e.AppendPayload(id, tree.Entry{Role: tree.RoleOriginator, Text: text}) {
		return responder.Request{}, errors.Wrapf(canvas.ErrNotFound, "node %s", id)
	}
	return responder.Request{
		NodeID:  id,
		Model:   node.Metadata,
		Prompt:  text,
		History: node.Payload,
	}, nil
}

// ApplyReply appends a reply to its node. It reports false when the reply
// failed or its node has been deleted in the meantime. It must run on the
// goroutine that owns e.
func ApplyReply(e *canvas.Engine, r *responder.Reply) bool {
	if r.Failed() {
		return false
	}
	return e.AppendPayload(r.NodeID, r.Entry)
}

// Session wires the send flow for a Loop: messages go to the dispatcher and
// replies come back through HandleReply.
type Session struct {
	loop       *Loop
	dispatcher *responder.Dispatcher
	metrics    *metrics.Collectors
	logger     zerolog.Logger

	// only touched on the loop goroutine
	pending map[tree.NodeID]struct{}
}

type SessionOption func(*Session)

func WithMetrics(m *metrics.Collectors) SessionOption {
	return func(s *Session) {
		s.metrics = m
	}
}

func WithSessionLogger(logger zerolog.Logger) SessionOption {
	return func(s *Session) {
		s.logger = logger
	}
}

func NewSession(loop *Loop, dispatcher *responder.Dispatcher, options ...SessionOption) *Session {
	s := &Session{
		loop:       loop,
		dispatcher: dispatcher,
		logger:     log.Logger,
		pending:    map[tree.NodeID]struct{}{},
	}
	for _, o := range options {
		o(s)
	}
	return s
}

func (s *Session) Loop() *Loop {
	return s.loop
}

// Send appends text to the node and asks the responder for an answer.
func (s *Session) Send(ctx context.Context, id tree.NodeID, text string) error {
	var req responder.Request
	err := s.loop.Do(ctx, func(e *canvas.Engine) error {
		var err error
		req, err = PrepareSend(e, id, text)
		if err != nil {
			return err
		}
		s.pending[id] = struct{}{}
		return nil
	})
	if err != nil {
		return err
	}
	if s.metrics != nil {
		s.metrics.RepliesQueued.Inc()
	}
	s.dispatcher.Dispatch(req)
	return nil
}

// HandleReply is meant for responder.HandleReplies.
func (s *Session) HandleReply(r *responder.Reply) error {
	err := s.loop.Do(context.Background(), func(e *canvas.Engine) error {
		delete(s.pending, r.NodeID)
		if !ApplyReply(e, r) {
			s.logger.Debug().
				Str("node_id", r.NodeID.String()).
				Str("error", r.Error).
				Msg("dropped reply")
		}
		return nil
	})
	if errors.Is(err, ErrStopped) {
		return nil
	}
	return err
}

// Pending lists the nodes waiting for a reply.
func (s *Session) Pending(ctx context.Context) ([]tree.NodeID, error) {
	var ids []tree.NodeID
	err := s.loop.Do(ctx, func(e *canvas.Engine) error {
		for id := range s.pending {
			ids = append(ids, id)
		}
		return nil
	})
	return ids, err
}

// Delete removes a subtree and cancels the replies its nodes were waiting for.
func (s *Session) Delete(ctx context.Context, id tree.NodeID) ([]tree.NodeID, error) {
	var removed []tree.NodeID
	err := s.loop.Do(ctx, func(e *canvas.Engine) error {
		var err error
		removed, err = e.DeleteSubtree(id)
		if err != nil {
			return err
		}
		s.forget(removed)
		return nil
	})
	return removed, err
}

func (s *Session) forget(removed []tree.NodeID) {
	for _, id := range removed {
		delete(s.pending, id)
		s.dispatcher.Cancel(id)
	}
}
