package broadcast

import (
	"context"
	"sync"
)

const defaultBuffer = 16

// Hub is an in-process Publisher and Subscriber.
type Hub struct {
	mu     sync.RWMutex
	topics map[string]map[chan Event]struct{}
	buffer int
}

func NewHub() *Hub {
	return &Hub{
		topics: make(map[string]map[chan Event]struct{}),
		buffer: defaultBuffer,
	}
}

func (h *Hub) Publish(_ context.Context, topic, eventType string, payload any) error {
	event, err := NewEvent(topic, eventType, payload)
	if err != nil {
		return err
	}
	h.Deliver(event)
	return nil
}

// Deliver hands event to the subscribers of event.Topic without blocking.
// It returns how many subscribers received it.
func (h *Hub) Deliver(event Event) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for ch := range h.topics[event.Topic] {
		select {
		case ch <- event:
			delivered++
		default:
		}
	}
	return delivered
}

func (h *Hub) Subscribe(topic string) (<-chan Event, func()) {
	ch := make(chan Event, h.buffer)

	h.mu.Lock()
	subs, ok := h.topics[topic]
	if !ok {
		subs = make(map[chan Event]struct{})
		h.topics[topic] = subs
	}
	subs[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			delete(h.topics[topic], ch)
			if len(h.topics[topic]) == 0 {
				delete(h.topics, topic)
			}
			close(ch)
		})
	}
	return ch, cancel
}

// Subscribers returns the number of live subscriptions on topic.
func (h *Hub) Subscribers(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[topic])
}
