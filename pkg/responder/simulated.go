package responder

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/go-go-golems/branchcanvas/pkg/canvas/tree"
	"github.com/go-go-golems/branchcanvas/pkg/models"
)

const DefaultDelay = 1200 * time.Millisecond

// Simulated answers with one of the model's canned replies after a fixed delay.
// Unknown models answer like the first model of the catalog.
type Simulated struct {
	catalog *models.Catalog
	delay   time.Duration

	mu  sync.Mutex
	rnd *rand.Rand
}

type SimulatedOption func(*Simulated)

func WithDelay(d time.Duration) SimulatedOption {
	return func(s *Simulated) {
		s.delay = d
	}
}

// WithSeed makes the reply choice reproducible.
func WithSeed(seed uint64) SimulatedOption {
	return func(s *Simulated) {
		s.rnd = rand.New(rand.NewPCG(seed, seed))
	}
}

func NewSimulated(catalog *models.Catalog, options ...SimulatedOption) *Simulated {
	if catalog == nil {
		catalog = models.Default()
	}
	s := &Simulated{
		catalog: catalog,
		delay:   DefaultDelay,
		rnd:     rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
	for _, o := range options {
		o(s)
	}
	return s
}

func (s *Simulated) Delay() time.Duration {
	return s.delay
}

func (s *Simulated) Respond(ctx context.Context, req Request) (tree.Entry, error) {
	model := s.catalog.Lookup(req.Model)
	if len(model.Replies) == 0 {
		return tree.Entry{}, errors.Errorf("model %s has no replies", model.ID)
	}

	s.mu.Lock()
	text := model.Replies[s.rnd.IntN(len(model.Replies))]
	s.mu.Unlock()

	if s.delay > 0 {
		t := time.NewTimer(s.delay)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return tree.Entry{}, ctx.Err()
		case <-t.C:
		}
	} else if err := ctx.Err(); err != nil {
		return tree.Entry{}, err
	}

	return tree.Entry{Role: tree.RoleResponder, Text: text}, nil
}

var _ Responder = (*Simulated)(nil)
