package pubsub

import (
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Broker is a simple in-memory pub/sub system. Only the latest message of a
// topic is retained and replayed to new subscribers.
type Broker struct {
	mu          sync.RWMutex
	subscribers map[string][]chan []byte // topic -> list of subscriber channels
	latest      map[string][]byte
}

type WsMessage struct {
	Stream string          `json:"stream"`
	Data   json.RawMessage `json:"data"`
}

func NewBroker() *Broker {
	return &Broker{
		subscribers: make(map[string][]chan []byte),
		latest:      make(map[string][]byte),
	}
}

// LeaderboardTopic names the topic carrying change events of a track.
func LeaderboardTopic(track string) string {
	return "leaderboard:" + track
}

// Subscribe subscribes to a topic. The latest message, if any, is delivered
// first.
func (b *Broker) Subscribe(topic string) (<-chan []byte, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan []byte, 128)
	if last, ok := b.latest[topic]; ok {
		ch <- last
	}
	b.subscribers[topic] = append(b.subscribers[topic], ch)

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()

			subscribers := b.subscribers[topic]
			for i, sub := range subscribers {
				if sub == ch {
					b.subscribers[topic] = append(subscribers[:i], subscribers[i+1:]...)
					close(ch)
					break
				}
			}
			zap.S().Debugf("unsubscribed from topic %s", topic)
		})
	}

	zap.S().Debugf("new subscription to topic %s", topic)
	return ch, unsubscribe
}

// Publish publishes a message to all subscribers of a topic and keeps it as
// the topic's latest.
func (b *Broker) Publish(topic string, msg []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.latest[topic] = msg
	for _, ch := range b.subscribers[topic] {
		select {
		case ch <- msg:
		default:
			// slow subscriber, drop
		}
	}
}

// CloseTopic closes all subscriber channels and forgets the latest message.
func (b *Broker) CloseTopic(topic string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, ch := range b.subscribers[topic] {
		close(ch)
	}
	delete(b.subscribers, topic)
	delete(b.latest, topic)
	zap.S().Infof("closed pubsub topic %s", topic)
}

// Close closes every topic.
func (b *Broker) Close() {
	b.mu.Lock()
	topics := make([]string, 0, len(b.subscribers))
	for topic := range b.subscribers {
		topics = append(topics, topic)
	}
	b.mu.Unlock()
	for _, topic := range topics {
		b.CloseTopic(topic)
	}
}

// LeaderboardChanged is published after a scoring action commits.
type LeaderboardChanged struct {
	Track        string    `json:"track"`
	SubmissionID uint      `json:"submission_id"`
	UserID       int64     `json:"user_id"`
	Total        int       `json:"total"`
	ScoredBy     int64     `json:"scored_by"`
	At           time.Time `json:"at"`
}

// FormatMessage wraps data in a stream envelope.
func FormatMessage(streamType string, data interface{}) []byte {
	raw, err := json.Marshal(data)
	if err != nil {
		return []byte(`{"stream": "error", "data": "json format error"}`)
	}
	bytes, err := json.Marshal(WsMessage{Stream: streamType, Data: raw})
	if err != nil {
		return []byte(`{"stream": "error", "data": "json format error"}`)
	}
	return bytes
}
