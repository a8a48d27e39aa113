package responder

import (
	"context"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-go-golems/branchcanvas/pkg/canvas/tree"
	"github.com/go-go-golems/branchcanvas/pkg/models"
)

const testTopic = "replies"

func TestSimulatedPicksModelReply(t *testing.T) {
	catalog := models.Default()
	s := NewSimulated(catalog, WithDelay(0), WithSeed(7))

	entry, err := s.Respond(context.Background(), Request{Model: "gpt-4"})
	require.NoError(t, err)
	assert.Equal(t, tree.RoleResponder, entry.Role)
	m, _ := catalog.Get("gpt-4")
	assert.Contains(t, m.Replies, entry.Text)
}

func TestSimulatedUnknownModelFallsBack(t *testing.T) {
	catalog := models.Default()
	s := NewSimulated(catalog, WithDelay(0))

	entry, err := s.Respond(context.Background(), Request{Model: "does-not-exist"})
	require.NoError(t, err)
	assert.Contains(t, catalog.First().Replies, entry.Text)
}

func TestSimulatedSeedIsReproducible(t *testing.T) {
	a := NewSimulated(nil, WithDelay(0), WithSeed(42))
	b := NewSimulated(nil, WithDelay(0), WithSeed(42))
	for i := 0; i < 5; i++ {
		ea, err := a.Respond(context.Background(), Request{Model: "claude-opus-4"})
		require.NoError(t, err)
		eb, err := b.Respond(context.Background(), Request{Model: "claude-opus-4"})
		require.NoError(t, err)
		assert.Equal(t, ea, eb)
	}
}

func TestSimulatedDefaultDelay(t *testing.T) {
	assert.Equal(t, 1200*time.Millisecond, NewSimulated(nil).Delay())
}

func TestSimulatedCancel(t *testing.T) {
	s := NewSimulated(nil, WithDelay(time.Hour))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := s.Respond(ctx, Request{})
	assert.ErrorIs(t, err, context.Canceled)
}

func subscribe(t *testing.T) (*gochannel.GoChannel, <-chan *message.Message) {
	pubsub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	t.Cleanup(func() { _ = pubsub.Close() })
	msgs, err := pubsub.Subscribe(context.Background(), testTopic)
	require.NoError(t, err)
	return pubsub, msgs
}

func receive(t *testing.T, msgs <-chan *message.Message) *Reply {
	select {
	case msg := <-msgs:
		msg.Ack()
		r, err := ReplyFromMessage(msg)
		require.NoError(t, err)
		return r
	case <-time.After(5 * time.Second):
		t.Fatal("no reply published")
		return nil
	}
}

func TestDispatcherPublishesReply(t *testing.T) {
	pubsub, msgs := subscribe(t)
	d := NewDispatcher(context.Background(),
		NewSimulated(nil, WithDelay(0)),
		NewReplySink(pubsub, testTopic),
		WithLogger(zerolog.Nop()))

	id := tree.NewNodeID()
	d.Dispatch(Request{NodeID: id, Model: "gpt-4", Prompt: "hello"})

	r := receive(t, msgs)
	assert.Equal(t, id, r.NodeID)
	assert.Equal(t, "gpt-4", r.Model)
	assert.False(t, r.Failed())
	assert.Equal(t, tree.RoleResponder, r.Entry.Role)

	require.NoError(t, d.Wait())
	assert.Equal(t, 0, d.Pending())
}

func TestDispatcherPublishesFailures(t *testing.T) {
	pubsub, msgs := subscribe(t)
	failing := Func(func(ctx context.Context, req Request) (tree.Entry, error) {
		return tree.Entry{}, errors.New("boom")
	})
	d := NewDispatcher(context.Background(), failing, NewReplySink(pubsub, testTopic), WithLogger(zerolog.Nop()))

	d.Dispatch(Request{NodeID: tree.NewNodeID()})
	r := receive(t, msgs)
	assert.True(t, r.Failed())
	assert.Equal(t, "boom", r.Error)
}

func TestDispatcherCancelDropsReply(t *testing.T) {
	pubsub, msgs := subscribe(t)
	d := NewDispatcher(context.Background(),
		NewSimulated(nil, WithDelay(time.Hour)),
		NewReplySink(pubsub, testTopic),
		WithLogger(zerolog.Nop()))

	id := tree.NewNodeID()
	d.Dispatch(Request{NodeID: id})
	assert.Equal(t, 1, d.Pending())
	assert.True(t, d.Cancel(id))
	assert.False(t, d.Cancel(id))
	require.NoError(t, d.Wait())

	select {
	case <-msgs:
		t.Fatal("cancelled request published a reply")
	default:
	}
}

func TestDispatcherCloseCancelsEverything(t *testing.T) {
	pubsub, _ := subscribe(t)
	d := NewDispatcher(context.Background(),
		NewSimulated(nil, WithDelay(time.Hour)),
		NewReplySink(pubsub, testTopic),
		WithLogger(zerolog.Nop()))
	for i := 0; i < 3; i++ {
		d.Dispatch(Request{NodeID: tree.NewNodeID()})
	}

	done := make(chan error)
	go func() { done <- d.Close() }()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("close did not return")
	}
	assert.Equal(t, 0, d.Pending())
}

func TestHandleRepliesDropsMalformed(t *testing.T) {
	called := false
	h := HandleReplies(func(r *Reply) error {
		called = true
		return nil
	})
	require.NoError(t, h(message.NewMessage(watermill.NewUUID(), []byte(`{"node_id":"`+tree.NullNode.String()+`"}`))))
	require.NoError(t, h(message.NewMessage(watermill.NewUUID(), []byte(`garbage`))))
	assert.False(t, called)

	id := tree.NewNodeID()
	require.NoError(t, h(message.NewMessage(watermill.NewUUID(), []byte(`{"node_id":"`+id.String()+`"}`))))
	assert.True(t, called)
}
