package responder

import (
	"context"
	stderrors "errors"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/go-go-golems/branchcanvas/pkg/canvas/tree"
)

// Dispatcher runs requests in the background and publishes their replies.
// Cancelling a node's request, or the dispatcher's context, drops its reply.
type Dispatcher struct {
	responder Responder
	sink      *ReplySink
	logger    zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	group  errgroup.Group

	mu       sync.Mutex
	inflight map[tree.NodeID]*request
}

type request struct {
	cancel context.CancelFunc
}

type DispatcherOption func(*Dispatcher)

func WithLogger(logger zerolog.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

func NewDispatcher(ctx context.Context, responder Responder, sink *ReplySink, options ...DispatcherOption) *Dispatcher {
	ctx, cancel := context.WithCancel(ctx)
	d := &Dispatcher{
		responder: responder,
		sink:      sink,
		logger:    log.Logger,
		ctx:       ctx,
		cancel:    cancel,
		inflight:  map[tree.NodeID]*request{},
	}
	for _, o := range options {
		o(d)
	}
	return d
}

// Dispatch starts answering req. A request already in flight for the same node is cancelled.
func (d *Dispatcher) Dispatch(req Request) {
	ctx, cancel := context.WithCancel(d.ctx)
	r := &request{cancel: cancel}

	d.mu.Lock()
	if prev, ok := d.inflight[req.NodeID]; ok {
		prev.cancel()
	}
	d.inflight[req.NodeID] = r
	d.mu.Unlock()

	d.group.Go(func() error {
		defer d.done(req.NodeID, r)

		entry, err := d.responder.Respond(ctx, req)
		if err != nil {
			if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
				d.logger.Debug().Str("node_id", req.NodeID.String()).Msg("reply cancelled")
				return nil
			}
			d.logger.Warn().Err(err).Str("node_id", req.NodeID.String()).Msg("responder failed")
			return d.publish(&Reply{NodeID: req.NodeID, Model: req.Model, Error: err.Error()})
		}
		if ctx.Err() != nil {
			return nil
		}
		return d.publish(&Reply{NodeID: req.NodeID, Model: req.Model, Entry: entry})
	})
}

func (d *Dispatcher) publish(r *Reply) error {
	if err := d.sink.PublishReply(r); err != nil {
		// a broken bus must not take the other requests down with it
		d.logger.Error().Err(err).Str("node_id", r.NodeID.String()).Msg("could not publish reply")
	}
	return nil
}

func (d *Dispatcher) done(id tree.NodeID, r *request) {
	r.cancel()
	d.mu.Lock()
	defer d.mu.Unlock()
	// a newer request for the same node may have taken the slot
	if d.inflight[id] == r {
		delete(d.inflight, id)
	}
}

// Cancel drops the pending reply for id, if any.
func (d *Dispatcher) Cancel(id tree.NodeID) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	r, ok := d.inflight[id]
	if ok {
		r.cancel()
		delete(d.inflight, id)
	}
	return ok
}

func (d *Dispatcher) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.inflight)
}

// Close cancels everything in flight and waits for the workers.
func (d *Dispatcher) Close() error {
	d.cancel()
	return d.group.Wait()
}

// Wait blocks until every dispatched request has been answered or dropped.
func (d *Dispatcher) Wait() error {
	return d.group.Wait()
}
