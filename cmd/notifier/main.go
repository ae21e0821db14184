package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/floroz/tradepost/internal/adapters/database"
	"github.com/floroz/tradepost/internal/adapters/events"
	"github.com/floroz/tradepost/internal/bootstrap"
	"github.com/floroz/tradepost/internal/config"
	"github.com/floroz/tradepost/internal/domain/notifications"
	pkgdb "github.com/floroz/tradepost/pkg/database"
)

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

	// 3. Initialize Service & Consumer
	txManager := pkgdb.NewPostgresTransactionManager(pool, cfg.DBLockTimeout)
	service := notifications.NewService(database.NewPostgresNotificationRepository(pool), txManager)
	consumer := events.NewNotificationConsumer(amqpConn, service, logger)

	logger.Info("Starting Notification Consumer...")
	if runErr := consumer.Run(ctx, nil); runErr != nil {
		logger.Error("Consumer failed", "error", runErr)
		os.Exit(1)
	}

	logger.Info("Notifier stopped")
}
