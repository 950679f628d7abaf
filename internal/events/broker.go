// Path: internal/events/broker.go
package events

import (
	"sync"

	"bookshelf/internal/domain"
)

// Topic names a stream of events.
type Topic string

const (
	// TopicBooksLoaded carries a BooksLoaded after a session commits results.
	TopicBooksLoaded Topic = "books:loaded"
	// TopicHighlightsRefreshed carries the new []domain.Highlight.
	TopicHighlightsRefreshed Topic = "highlights:refreshed"
)

// BooksLoaded describes one committed listing.
type BooksLoaded struct {
	Category   string
	SearchTerm string
	Books      []domain.BookRecord
}

// Event represents a message passed through the broker.
type Event struct {
	Topic Topic
	Data  any
}

// Broker implements a simple in-memory pub/sub system.
// Publishing never blocks: a subscriber whose buffer is full misses the event.
type Broker struct {
	mu          sync.RWMutex
	subscribers map[Topic][]chan Event
	buffer      int
	closed      bool
}

// NewBroker creates a broker whose subscriptions buffer up to buffer events.
func NewBroker(buffer int) *Broker {
	return &Broker{
		subscribers: make(map[Topic][]chan Event),
		buffer:      max(buffer, 1),
	}
}

// Subscribe creates a new subscription to a topic.
// It returns a read-only channel where events for that topic will be sent.
// The channel is closed by Unsubscribe or Close.
func (b *Broker) Subscribe(topic Topic) <-chan Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Event, b.buffer)
	if b.closed {
		close(ch)
		return ch
	}
	b.subscribers[topic] = append(b.subscribers[topic], ch)
	return ch
}

// Unsubscribe removes and closes a subscription.
func (b *Broker) Unsubscribe(topic Topic, sub <-chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.subscribers[topic]
	for i, ch := range subs {
		if ch == sub {
			close(ch)
			b.subscribers[topic] = append(subs[:i], subs[i+1:]...)
			return
		}
	}
}

// Publish sends an event to all subscribers of a topic and reports how many
// received it.
func (b *Broker) Publish(topic Topic, data any) int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	event := Event{Topic: topic, Data: data}
	delivered := 0
	for _, ch := range b.subscribers[topic] {
		select {
		case ch <- event:
			delivered++
		default:
		}
	}
	return delivered
}

// Close closes every subscription. Later publishes are dropped.
func (b *Broker) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for topic, subs := range b.subscribers {
		for _, ch := range subs {
			close(ch)
		}
		delete(b.subscribers, topic)
	}
}
