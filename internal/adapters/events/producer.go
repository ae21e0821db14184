package events

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/floroz/tradepost/internal/adapters/database"
	pkgdb "github.com/floroz/tradepost/pkg/database"
	pkgevents "github.com/floroz/tradepost/pkg/events"
)

// ProducerConfig tunes the outbox relay.
type ProducerConfig struct {
	BatchSize    int
	PollInterval time.Duration
	LockTimeout  time.Duration
}

// AuctionEventsProducer relays auction events from the outbox to RabbitMQ
type AuctionEventsProducer struct {
	relay     *pkgevents.OutboxRelay
	publisher *pkgevents.RabbitMQPublisher
}

// NewAuctionEventsProducer creates a new producer
func NewAuctionEventsProducer(pool *pgxpool.Pool, conn *amqp.Connection, cfg ProducerConfig, logger *slog.Logger) (*AuctionEventsProducer, error) {
	publisher, err := pkgevents.NewRabbitMQPublisher(conn)
	if err != nil {
		return nil, fmt.Errorf("failed to create publisher: %w", err)
	}

	txManager := pkgdb.NewPostgresTransactionManager(pool, cfg.LockTimeout)
	outboxRepo := database.NewPostgresOutboxRepository(pool)

	relay := pkgevents.NewOutboxRelay(
		outboxRepo,
		publisher,
		txManager,
		cfg.BatchSize,
		cfg.PollInterval,
		pkgevents.AuctionExchange,
		logger,
	)

	return &AuctionEventsProducer{
		relay:     relay,
		publisher: publisher,
	}, nil
}

// Run starts the relay loop
func (p *AuctionEventsProducer) Run(ctx context.Context) error {
	return p.relay.Run(ctx)
}

// Close closes the publisher channel
func (p *AuctionEventsProducer) Close() error {
	return p.publisher.Close()
}
