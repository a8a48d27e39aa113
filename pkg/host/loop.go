// Package host runs a canvas engine for concurrent callers. The engine is not
// safe for concurrent use, so a Loop owns it on a single goroutine and every
// caller goes through Loop.Do. The HTTP server and the reply handlers are
// built on top of that.
package host

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/go-go-golems/branchcanvas/pkg/canvas"
)

var ErrStopped = errors.New("engine loop is not running")

type command struct {
	fn     func(*canvas.Engine) error
	result chan error
}

// Loop serializes access to an engine. Engine hooks run on the loop
// goroutine and must not call Do themselves.
type Loop struct {
	engine *canvas.Engine
	cmds   chan command
	done   chan struct{}
}

func NewLoop(engine *canvas.Engine) *Loop {
	return &Loop{
		engine: engine,
		cmds:   make(chan command),
		done:   make(chan struct{}),
	}
}

// Run processes commands until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	defer close(l.done)
	log.Debug().Msg("engine loop started")
	for {
		select {
		case <-ctx.Done():
			log.Debug().Msg("engine loop stopped")
			return nil
		case cmd := <-l.cmds:
			cmd.result <- l.run(cmd.fn)
		}
	}
}

func (l *Loop) run(fn func(*canvas.Engine) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("panic in engine command: %v", r)
			log.Error().Interface("panic", r).Msg("recovered from panic in engine command")
		}
	}()
	return fn(l.engine)
}

// Do runs fn on the loop goroutine and returns its error. It returns
// ErrStopped once the loop has exited.
func (l *Loop) Do(ctx context.Context, fn func(*canvas.Engine) error) error {
	cmd := command{fn: fn, result: make(chan error, 1)}
	select {
	case l.cmds <- cmd:
	case <-l.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-cmd.result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (l *Loop) Snapshot(ctx context.Context) (canvas.Snapshot, error) {
	var snap canvas.Snapshot
	err := l.Do(ctx, func(e *canvas.Engine) error {
		snap = e.Snapshot()
		return nil
	})
	return snap, err
}

func (l *Loop) Done() <-chan struct{} {
	return l.done
}
