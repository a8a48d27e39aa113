package events

import (
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/go-go-golems/branchcanvas/pkg/canvas"
)

type EventType string

const (
	EventTypeMutation EventType = "mutation"
	EventTypeNode     EventType = "node"
)

// Envelope is the wire form of an engine event. Exactly one of Mutation and Node is set.
type Envelope struct {
	Type     EventType             `json:"type"`
	Mutation *canvas.MutationEvent `json:"mutation,omitempty"`
	Node     *canvas.NodeEvent     `json:"node,omitempty"`
}

func NewEnvelopeFromJson(b []byte) (*Envelope, error) {
	var e Envelope
	if err := json.Unmarshal(b, &e); err != nil {
		return nil, errors.Wrap(err, "could not unmarshal canvas event")
	}
	switch e.Type {
	case EventTypeMutation:
		if e.Mutation == nil {
			return nil, errors.New("mutation event without payload")
		}
	case EventTypeNode:
		if e.Node == nil {
			return nil, errors.New("node event without payload")
		}
	default:
		return nil, errors.Errorf("unknown canvas event type %q", e.Type)
	}
	return &e, nil
}

// CanvasHooks publishes every engine event through the manager. Trace-level
// churn such as unchanged pointer moves is skipped unless all is set.
func CanvasHooks(pm *PublisherManager, all bool) canvas.Hooks {
	node := func(ev *canvas.NodeEvent) {
		pm.PublishBlind(&Envelope{Type: EventTypeNode, Node: ev})
	}
	return canvas.Hooks{
		OnMutation: func(ev *canvas.MutationEvent) {
			if !all && ev.Err == nil && !ev.Changed {
				return
			}
			pm.PublishBlind(&Envelope{Type: EventTypeMutation, Mutation: ev})
		},
		OnNodeCreated:     node,
		OnNodeRemoved:     node,
		OnPayloadAppended: node,
		OnStaleUpdate:     node,
	}
}

// CanvasEventHandler receives decoded engine events.
type CanvasEventHandler func(*Envelope) error

// DispatchCanvasEvents adapts a CanvasEventHandler to a watermill handler.
// Undecodable payloads are logged and dropped so one bad message does not stop the router.
func DispatchCanvasEvents(f CanvasEventHandler) message.NoPublishHandlerFunc {
	return func(msg *message.Message) error {
		defer msg.Ack()
		e, err := NewEnvelopeFromJson(msg.Payload)
		if err != nil {
			logMessageError(msg, err)
			return nil
		}
		return f(e)
	}
}

func logMessageError(msg *message.Message, err error) {
	log.Error().
		Str("message_id", msg.UUID).
		Str("payload", string(msg.Payload)).
		Err(err).
		Msg("Failed to parse message payload")
}
