// Package bootstrap holds the process wiring shared by the binaries under cmd/.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/floroz/tradepost/internal/config"
	"github.com/floroz/tradepost/pkg/broadcast"
)

// NewLogger installs the JSON logger every process writes to stdout.
func NewLogger() *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)
	return logger
}

// OpenPostgres creates the pool and checks the database is reachable.
func OpenPostgres(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*pgxpool.Pool, error) {
	dbConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("unable to parse database config: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, dbConfig)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	if pingErr := pool.Ping(ctx); pingErr != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to ping database: %w", pingErr)
	}
	logger.Info("Postgres Connected")
	return pool, nil
}

// DialRabbitMQ connects to the broker named by RABBITMQ_URL.
func DialRabbitMQ(cfg *config.Config, logger *slog.Logger) (*amqp.Connection, error) {
	if cfg.RabbitMQURL == "" {
		return nil, fmt.Errorf("RABBITMQ_URL is not set")
	}
	conn, err := amqp.Dial(cfg.RabbitMQURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	logger.Info("RabbitMQ Connected")
	return conn, nil
}

// Broadcast is the broadcast channel of one process.
type Broadcast struct {
	broadcast.Publisher
	broadcast.Subscriber

	// Run relays remote events to local subscribers. It is nil for the
	// in-process hub.
	Run   func(ctx context.Context, ready chan<- struct{}) error
	Close func() error
}

// NewBroadcast uses Redis pub/sub when REDIS_URL is set, so events reach
// subscribers on every replica, and an in-process hub otherwise.
func NewBroadcast(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Broadcast, error) {
	if cfg.RedisURL == "" {
		logger.Warn("REDIS_URL is not set, broadcasting in-process only")
		hub := broadcast.NewHub()
		return &Broadcast{Publisher: hub, Subscriber: hub, Close: func() error { return nil }}, nil
	}

	client, err := broadcast.NewRedisClient(cfg.RedisURL)
	if err != nil {
		return nil, err
	}
	if pingErr := client.Ping(ctx).Err(); pingErr != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", pingErr)
	}
	logger.Info("Redis Connected")

	channel := broadcast.NewRedisChannel(client, logger)
	return &Broadcast{
		Publisher:  channel,
		Subscriber: channel,
		Run:        channel.Run,
		Close:      client.Close,
	}, nil
}
