package events

import (
	"fmt"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
)

const SequenceNumberKey = "sequence_number"

// PublisherManager is used to distribute messages to a set of Publishers.
// As such, you "subscribe" a publisher to the given topic.
// When you Publish a message, it will get distributed to all publishers
// on the channel they were subscribed with.
//
// The Manager also keeps a sequence number for each outgoing message,
// in the order they are handled by Publish.
type PublisherManager struct {
	Publishers     map[string][]message.Publisher
	sequenceNumber uint64
	mutex          sync.Mutex
}

func NewPublisherManager() *PublisherManager {
	return &PublisherManager{
		Publishers: make(map[string][]message.Publisher),
	}
}

func (s *PublisherManager) SubscribePublisher(topic string, sub message.Publisher) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.Publishers[topic] = append(s.Publishers[topic], sub)
}

// Publish distributes a message to all Publishers across all topics.
// Serializing the payload to JSON is done by Publish itself.
func (s *PublisherManager) Publish(payload interface{}) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	for topic, subs := range s.Publishers {
		for _, sub := range subs {
			// every publisher gets its own copy, a message can only be acked once
			msg := message.NewMessage(watermill.NewUUID(), b)
			msg.Metadata.Set(SequenceNumberKey, fmt.Sprintf("%d", s.sequenceNumber))
			err = sub.Publish(topic, msg)
			if err != nil {
				log.Warn().Err(err).Str("topic", topic).Msg("failed to publish")
			}
		}
	}
	s.sequenceNumber++

	return nil
}

func (s *PublisherManager) PublishBlind(payload interface{}) {
	err := s.Publish(payload)
	if err != nil {
		log.Warn().Err(err).Msg("failed to publish")
	}
}

// Sequence returns the number the next published message will carry.
func (s *PublisherManager) Sequence() uint64 {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.sequenceNumber
}
