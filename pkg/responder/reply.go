package responder

import (
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/go-go-golems/branchcanvas/pkg/canvas/tree"
)

// Reply is what travels back over the bus. Error is set instead of Entry when
// the responder failed, so the host can clear the node's pending state.
type Reply struct {
	NodeID tree.NodeID `json:"node_id"`
	Model  string      `json:"model"`
	Entry  tree.Entry  `json:"entry"`
	Error  string      `json:"error,omitempty"`
}

func (r *Reply) Failed() bool {
	return r.Error != ""
}

func ReplyFromMessage(msg *message.Message) (*Reply, error) {
	var r Reply
	if err := json.Unmarshal(msg.Payload, &r); err != nil {
		return nil, errors.Wrap(err, "could not unmarshal reply")
	}
	if r.NodeID == tree.NullNode {
		return nil, errors.New("reply without node id")
	}
	return &r, nil
}

// ReplySink publishes replies to a watermill publisher.
type ReplySink struct {
	publisher message.Publisher
	topic     string
}

func NewReplySink(publisher message.Publisher, topic string) *ReplySink {
	return &ReplySink{
		publisher: publisher,
		topic:     topic,
	}
}

func (s *ReplySink) PublishReply(r *Reply) error {
	payload, err := json.Marshal(r)
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal reply to JSON")
		return err
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	err = s.publisher.Publish(s.topic, msg)
	if err != nil {
		log.Error().Err(err).Str("topic", s.topic).Msg("Failed to publish reply")
		return err
	}

	log.Trace().Str("topic", s.topic).Str("node_id", r.NodeID.String()).Msg("Published reply")
	return nil
}

// HandleReplies adapts f to a watermill handler. The message is acked before
// f runs: publishers block until the ack, and f usually hands the reply to the
// goroutine that owns the engine, which may itself be publishing.
func HandleReplies(f func(*Reply) error) message.NoPublishHandlerFunc {
	return func(msg *message.Message) error {
		msg.Ack()
		r, err := ReplyFromMessage(msg)
		if err != nil {
			log.Error().Err(err).Str("message_id", msg.UUID).Msg("Dropping malformed reply")
			return nil
		}
		return f(r)
	}
}
