package events

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/floroz/tradepost/pkg/database"
)

// OutboxStatus defines the status of an event in the outbox
type OutboxStatus string

const (
	OutboxStatusPending    OutboxStatus = "pending"
	OutboxStatusProcessing OutboxStatus = "processing"
	OutboxStatusPublished  OutboxStatus = "published"
	OutboxStatusFailed     OutboxStatus = "failed"
)

// EventType is the routing key an outbox event is published under.
type EventType string

const (
	EventTypeBidPlaced    EventType = "bid.placed"
	EventTypeBidCancelled EventType = "bid.cancelled"
	EventTypeAuctionEnded EventType = "auction.ended"
)

// String returns the string representation of the event type
func (e EventType) String() string {
	return string(e)
}

// IsValid checks if the event type is valid
func (e EventType) IsValid() bool {
	switch e {
	case EventTypeBidPlaced, EventTypeBidCancelled, EventTypeAuctionEnded:
		return true
	default:
		return false
	}
}

// OutboxEvent represents an event stored in the database in the same
// transaction as the state change it describes.
type OutboxEvent struct {
	ID          uuid.UUID    `db:"id"`
	EventType   EventType    `db:"event_type"`
	Payload     []byte       `db:"payload"` // protobuf-encoded, see proto/events/v1
	Status      OutboxStatus `db:"status"`
	CreatedAt   time.Time    `db:"created_at"`
	ProcessedAt *time.Time   `db:"processed_at"`
}

// NewOutboxEvent builds a pending outbox event for the given payload.
func NewOutboxEvent(eventType EventType, payload []byte, now time.Time) *OutboxEvent {
	return &OutboxEvent{
		ID:        uuid.New(),
		EventType: eventType,
		Payload:   payload,
		Status:    OutboxStatusPending,
		CreatedAt: now,
	}
}

// OutboxRepository defines the relay's view of the outbox table
type OutboxRepository interface {
	GetPendingEvents(ctx context.Context, tx pgx.Tx, limit int) ([]*OutboxEvent, error)
	UpdateEventStatus(ctx context.Context, tx pgx.Tx, id uuid.UUID, status OutboxStatus) error
}

// EventPublisher defines the interface for publishing events to a broker
type EventPublisher interface {
	Publish(ctx context.Context, exchange, routingKey string, body []byte) error
}

// OutboxRelay polls the database for pending events and publishes them
type OutboxRelay struct {
	outboxRepo OutboxRepository
	publisher  EventPublisher
	txManager  database.TransactionManager
	batchSize  int
	interval   time.Duration
	exchange   string
	logger     *slog.Logger
}

// NewOutboxRelay creates a new outbox relay
func NewOutboxRelay(
	outboxRepo OutboxRepository,
	publisher EventPublisher,
	txManager database.TransactionManager,
	batchSize int,
	interval time.Duration,
	exchange string,
	logger *slog.Logger,
) *OutboxRelay {
	return &OutboxRelay{
		outboxRepo: outboxRepo,
		publisher:  publisher,
		txManager:  txManager,
		batchSize:  batchSize,
		interval:   interval,
		exchange:   exchange,
		logger:     logger,
	}
}

// Run starts the polling loop. It returns nil when ctx is cancelled.
func (r *OutboxRelay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	// Initial run
	if _, err := r.ProcessBatch(ctx); err != nil {
		r.logger.Error("Error processing outbox batch", "error", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := r.ProcessBatch(ctx); err != nil {
				r.logger.Error("Error processing outbox batch", "error", err)
			}
		}
	}
}

// ProcessBatch publishes up to batchSize pending events and returns how many
// were published. Rows are claimed with FOR UPDATE SKIP LOCKED so several
// relays can run side by side.
func (r *OutboxRelay) ProcessBatch(ctx context.Context) (int, error) {
	tx, err := r.txManager.BeginTx(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	events, err := r.outboxRepo.GetPendingEvents(ctx, tx, r.batchSize)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch pending events: %w", err)
	}

	if len(events) == 0 {
		return 0, nil
	}

	r.logger.Info("Processing outbox events", "count", len(events))

	for _, event := range events {
		if !event.EventType.IsValid() {
			r.logger.Error("Dropping outbox event with unknown type", "event_id", event.ID, "event_type", event.EventType)
			if err := r.outboxRepo.UpdateEventStatus(ctx, tx, event.ID, OutboxStatusFailed); err != nil {
				return 0, fmt.Errorf("failed to update event status %s: %w", event.ID, err)
			}
			continue
		}

		// If publishing fails the transaction rolls back and the event stays
		// pending for the next tick.
		if err := r.publisher.Publish(ctx, r.exchange, event.EventType.String(), event.Payload); err != nil {
			return 0, fmt.Errorf("failed to publish event %s: %w", event.ID, err)
		}

		if err := r.outboxRepo.UpdateEventStatus(ctx, tx, event.ID, OutboxStatusPublished); err != nil {
			return 0, fmt.Errorf("failed to update event status %s: %w", event.ID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return len(events), nil
}
