package events

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	amqp "github.com/rabbitmq/amqp091-go"

	pkgevents "github.com/floroz/tradepost/pkg/events"
)

// NotificationQueue receives the auction events that produce user notifications.
const NotificationQueue = "notifications_auction_events"

// errMalformed marks deliveries that can never be processed.
var errMalformed = errors.New("malformed event")

// NotificationProcessor is implemented by notifications.Service.
type NotificationProcessor interface {
	ProcessBidPlaced(ctx context.Context, event *pkgevents.BidPlaced) error
	ProcessAuctionEnded(ctx context.Context, event *pkgevents.AuctionEnded) error
}

// NotificationConsumer turns auction events into notifications
type NotificationConsumer struct {
	conn      *amqp.Connection
	processor NotificationProcessor
	logger    *slog.Logger
}

func NewNotificationConsumer(conn *amqp.Connection, processor NotificationProcessor, logger *slog.Logger) *NotificationConsumer {
	return &NotificationConsumer{
		conn:      conn,
		processor: processor,
		logger:    logger,
	}
}

// Run starts the consumer loop. It returns nil when ctx is cancelled.
func (c *NotificationConsumer) Run(ctx context.Context, ready chan<- struct{}) error {
	ch, err := c.conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}
	defer ch.Close()

	if setupErr := c.setupRabbitMQ(ch); setupErr != nil {
		return fmt.Errorf("failed to setup rabbitmq: %w", setupErr)
	}

	msgs, err := ch.Consume(
		NotificationQueue, // queue
		"",                // consumer tag
		false,             // auto-ack
		false,             // exclusive
		false,             // no-local
		false,             // no-wait
		nil,               // args
	)
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}

	if ready != nil {
		close(ready)
	}
	c.logger.Info("Waiting for messages...", "queue", NotificationQueue)

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-msgs:
			if !ok {
				return fmt.Errorf("channel closed")
			}
			c.deliver(ctx, d)
		}
	}
}

func (c *NotificationConsumer) deliver(ctx context.Context, d amqp.Delivery) {
	err := c.Handle(ctx, d.RoutingKey, d.Body)
	switch {
	case err == nil:
		if ackErr := d.Ack(false); ackErr != nil {
			c.logger.Error("Failed to Ack message", "error", ackErr)
		}
	case errors.Is(err, errMalformed):
		c.logger.Error("Dropping event", "routing_key", d.RoutingKey, "error", err)
		if nackErr := d.Nack(false, false); nackErr != nil {
			c.logger.Error("Failed to Nack message", "error", nackErr)
		}
	default:
		c.logger.Error("Failed to process event", "routing_key", d.RoutingKey, "error", err)
		if nackErr := d.Nack(false, true); nackErr != nil {
			c.logger.Error("Failed to Nack message (requeue)", "error", nackErr)
		}
	}
}

// Handle decodes one event by its routing key and passes it to the processor.
// Undecodable payloads and unknown routing keys wrap errMalformed.
func (c *NotificationConsumer) Handle(ctx context.Context, routingKey string, body []byte) error {
	switch pkgevents.EventType(routingKey) {
	case pkgevents.EventTypeBidPlaced:
		var event pkgevents.BidPlaced
		if err := event.Unmarshal(body); err != nil {
			return fmt.Errorf("%w: %w", errMalformed, err)
		}
		return c.processor.ProcessBidPlaced(ctx, &event)

	case pkgevents.EventTypeAuctionEnded:
		var event pkgevents.AuctionEnded
		if err := event.Unmarshal(body); err != nil {
			return fmt.Errorf("%w: %w", errMalformed, err)
		}
		return c.processor.ProcessAuctionEnded(ctx, &event)

	default:
		return fmt.Errorf("%w: unexpected routing key %q", errMalformed, routingKey)
	}
}

func (c *NotificationConsumer) setupRabbitMQ(ch *amqp.Channel) error {
	if err := pkgevents.DeclareAuctionExchange(ch); err != nil {
		return err
	}

	q, err := ch.QueueDeclare(
		NotificationQueue, // name
		true,              // durable
		false,             // delete when unused
		false,             // exclusive
		false,             // no-wait
		nil,               // args
	)
	if err != nil {
		return err
	}

	for _, key := range []pkgevents.EventType{pkgevents.EventTypeBidPlaced, pkgevents.EventTypeAuctionEnded} {
		if err := ch.QueueBind(q.Name, key.String(), pkgevents.AuctionExchange, false, nil); err != nil {
			return fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}
	return nil
}
