package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
	"golang.org/x/sync/errgroup"

	"github.com/floroz/tradepost/internal/adapters/api"
	"github.com/floroz/tradepost/internal/adapters/database"
	"github.com/floroz/tradepost/internal/bootstrap"
	"github.com/floroz/tradepost/internal/config"
	"github.com/floroz/tradepost/internal/domain/bids"
	"github.com/floroz/tradepost/internal/domain/listings"
	"github.com/floroz/tradepost/internal/domain/notifications"
	"github.com/floroz/tradepost/migrations"
	"github.com/floroz/tradepost/pkg/auth"
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 1. Migrations (optional, usually run by the deploy pipeline)
	if cfg.RunMigrations {
		if migrateErr := migrations.Up(cfg.DatabaseURL); migrateErr != nil {
			logger.Error("Failed to run migrations", "error", migrateErr)
			os.Exit(1)
		}
		logger.Info("Migrations applied")
	}

	// 2. Initialize Postgres Connection Pool
	pool, err := bootstrap.OpenPostgres(ctx, cfg, logger)
	if err != nil {
		logger.Error("Database unavailable", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	// 3. Identity provider: tokens are issued elsewhere, we only verify them
	publicKey, err := os.ReadFile(cfg.AuthPublicKeyPath)
	if err != nil {
		logger.Error("Failed to read AUTH_PUBLIC_KEY_PATH", "error", err)
		os.Exit(1)
	}
	verifier, err := auth.NewVerifier(publicKey, cfg.AuthIssuer)
	if err != nil {
		logger.Error("Invalid auth public key", "error", err)
		os.Exit(1)
	}

	// 4. Broadcast channel (Redis when configured)
	bc, err := bootstrap.NewBroadcast(ctx, cfg, logger)
	if err != nil {
		logger.Error("Broadcast unavailable", "error", err)
		os.Exit(1)
	}
	defer bc.Close()

	// 5. Initialize Repositories (Infrastructure Layer)
	txManager := pkgdb.NewPostgresTransactionManager(pool, cfg.DBLockTimeout)
	listingRepo := database.NewPostgresListingRepository(pool)
	bidRepo := database.NewPostgresBidRepository(pool)
	outboxRepo := database.NewPostgresOutboxRepository(pool)
	notificationRepo := database.NewPostgresNotificationRepository(pool)

	// 6. Initialize Services (Domain Layer)
	auctionService := bids.NewAuctionService(txManager, listingRepo, bidRepo, outboxRepo, bc, logger,
		bids.WithMaxAttempts(cfg.BidMaxAttempts))
	listingService := listings.NewService(listingRepo)
	notificationService := notifications.NewService(notificationRepo, txManager)

	// 7. HTTP surface
	router := api.NewRouter(api.Dependencies{
		Auctions:      auctionService,
		Listings:      listingService,
		Notifications: notificationService,
		Events:        bc,
		Verifier:      verifier,
		Heartbeat:     api.DefaultHeartbeat,
		Logger:        logger,
	})

	// Use h2c for HTTP/2 without TLS (common for internal services / local dev)
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           h2c.NewHandler(router, &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
		// Open event streams end when the process is asked to stop.
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	g, gctx := errgroup.WithContext(ctx)
	if bc.Run != nil {
		g.Go(func() error {
			return bc.Run(gctx, nil)
		})
	}
	g.Go(func() error {
		logger.Info("Starting Tradepost API", "addr", cfg.HTTPAddr)
		if serveErr := srv.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			return serveErr
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server failed", "error", err)
		os.Exit(1)
	}
	logger.Info("API stopped")
}
