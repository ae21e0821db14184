// Package broadcast fans out real-time auction events to observers of a
// listing topic. Delivery is fire-and-forget: a slow subscriber loses events
// rather than stalling the publisher.
package broadcast

import (
	"context"
	"encoding/json"
	"fmt"
)

// Event is a single message delivered on a topic.
type Event struct {
	Topic string          `json:"topic"`
	Type  string          `json:"type"`
	Data  json.RawMessage `json:"data"`
}

// Publisher publishes an event to every current subscriber of a topic.
type Publisher interface {
	Publish(ctx context.Context, topic, eventType string, payload any) error
}

// Subscriber registers interest in a topic. The returned cancel func must be
// called to release the subscription; the channel is closed afterwards.
type Subscriber interface {
	Subscribe(topic string) (<-chan Event, func())
}

// NewEvent encodes payload as the event data.
func NewEvent(topic, eventType string, payload any) (Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("failed to encode %s payload: %w", eventType, err)
	}
	return Event{Topic: topic, Type: eventType, Data: data}, nil
}
