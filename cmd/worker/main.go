package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/floroz/tradepost/internal/adapters/database"
	"github.com/floroz/tradepost/internal/adapters/events"
	"github.com/floroz/tradepost/internal/bootstrap"
	"github.com/floroz/tradepost/internal/config"
	"github.com/floroz/tradepost/internal/domain/listings"
	"github.com/floroz/tradepost/pkg/broadcast"
	pkgdb "github.com/floroz/tradepost/pkg/database"
)

// sweepBatchSize bounds how many ended auctions one sweep announces.
const sweepBatchSize = 50

func main() {
	// Initialize structured logger
	logger := bootstrap.NewLogger()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	// Handle graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 1. Initialize Postgres Connection Pool
	pool, err := bootstrap.OpenPostgres(ctx, cfg, logger)
	if err != nil {
		logger.Error("Database unavailable", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	// 2. Connect to RabbitMQ
	amqpConn, err := bootstrap.DialRabbitMQ(cfg, logger)
	if err != nil {
		logger.Error("Broker unavailable", "error", err)
		os.Exit(1)
	}
	defer amqpConn.Close()

	// 3. Broadcast channel for auction-ended updates. Stream clients live in
	// the api process, so only Redis can reach them from here.
	var publisher broadcast.Publisher
	if cfg.RedisURL == "" {
		logger.Warn("REDIS_URL is not set, auction-ended updates will not reach live streams")
	} else {
		bc, err := bootstrap.NewBroadcast(ctx, cfg, logger)
		if err != nil {
			logger.Error("Broadcast unavailable", "error", err)
			os.Exit(1)
		}
		defer bc.Close()
		publisher = bc
	}

	// 4. Initialize Producer
	producer, err := events.NewAuctionEventsProducer(pool, amqpConn, events.ProducerConfig{
		BatchSize:    cfg.OutboxBatchSize,
		PollInterval: cfg.OutboxPollInterval,
		LockTimeout:  cfg.DBLockTimeout,
	}, logger)
	if err != nil {
		logger.Error("Failed to create producer", "error", err)
		os.Exit(1)
	}
	defer producer.Close()

	// 5. Initialize Sweeper
	sweeper := listings.NewSweeper(
		pkgdb.NewPostgresTransactionManager(pool, cfg.DBLockTimeout),
		database.NewPostgresListingRepository(pool),
		database.NewPostgresOutboxRepository(pool),
		publisher,
		sweepBatchSize,
		cfg.SweepInterval,
		logger,
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting Auction Events Producer...")
		return producer.Run(gctx)
	})
	g.Go(func() error {
		logger.Info("Starting Auction Sweeper...", "interval", cfg.SweepInterval)
		return sweeper.Run(gctx)
	})

	// Run returns nil on context cancel.
	if err := g.Wait(); err != nil {
		logger.Error("Worker failed", "error", err)
		os.Exit(1)
	}
	logger.Info("Worker stopped")
}
