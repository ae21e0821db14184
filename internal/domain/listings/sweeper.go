package listings

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/floroz/tradepost/pkg/broadcast"
	"github.com/floroz/tradepost/pkg/database"
	"github.com/floroz/tradepost/pkg/events"
	"github.com/floroz/tradepost/pkg/money"
)

// EventAuctionEnded is the broadcast event type sent when an auction closes.
const EventAuctionEnded = "auction-ended"

// AuctionEndedUpdate is the broadcast payload for EventAuctionEnded.
type AuctionEndedUpdate struct {
	ListingID         uuid.UUID  `json:"listingId"`
	WinnerID          *uuid.UUID `json:"winnerId,omitempty"`
	FinalPrice        int64      `json:"finalPrice"`
	FinalPriceDisplay string     `json:"finalPriceDisplay"`
	BidCount          int        `json:"bidCount"`
	EndedAt           time.Time  `json:"endedAt"`
}

// Sweeper announces auctions whose end time has passed. It only produces
// notifications; bid acceptance checks the end time on its own.
type Sweeper struct {
	txManager   database.TransactionManager
	repo        Repository
	outbox      OutboxRepository
	broadcaster broadcast.Publisher
	batchSize   int
	interval    time.Duration
	logger      *slog.Logger
}

// NewSweeper creates a Sweeper. A nil broadcaster skips the live
// auction-ended update; the outbox event is written either way.
func NewSweeper(
	txManager database.TransactionManager,
	repo Repository,
	outbox OutboxRepository,
	broadcaster broadcast.Publisher,
	batchSize int,
	interval time.Duration,
	logger *slog.Logger,
) *Sweeper {
	return &Sweeper{
		txManager:   txManager,
		repo:        repo,
		outbox:      outbox,
		broadcaster: broadcaster,
		batchSize:   batchSize,
		interval:    interval,
		logger:      logger,
	}
}

// Run sweeps every interval until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		if _, err := s.Sweep(ctx, time.Now()); err != nil {
			s.logger.Error("Error sweeping ended auctions", "error", err)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// Sweep announces up to batchSize auctions that ended before now and returns
// how many were announced.
func (s *Sweeper) Sweep(ctx context.Context, now time.Time) (int, error) {
	tx, err := s.txManager.BeginTx(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	ended, err := s.repo.ClaimEndedAuctions(ctx, tx, now, s.batchSize)
	if err != nil {
		return 0, fmt.Errorf("failed to claim ended auctions: %w", err)
	}
	if len(ended) == 0 {
		return 0, nil
	}

	updates := make([]AuctionEndedUpdate, 0, len(ended))
	for _, auction := range ended {
		update, err := s.announce(ctx, tx, auction, now)
		if err != nil {
			return 0, err
		}
		updates = append(updates, update)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	for _, update := range updates {
		if s.broadcaster == nil {
			break
		}
		if err := s.broadcaster.Publish(ctx, Topic(update.ListingID), EventAuctionEnded, update); err != nil {
			s.logger.Error("Failed to broadcast auction end", "listing_id", update.ListingID, "error", err)
		}
	}

	s.logger.Info("Announced ended auctions", "count", len(updates))
	return len(updates), nil
}

func (s *Sweeper) announce(ctx context.Context, tx pgx.Tx, auction *EndedAuction, now time.Time) (AuctionEndedUpdate, error) {
	listing := auction.Listing
	endedAt := now
	if listing.AuctionEndTime != nil {
		endedAt = *listing.AuctionEndTime
	}

	update := AuctionEndedUpdate{
		ListingID: listing.ID,
		BidCount:  listing.BidCount,
		EndedAt:   endedAt,
	}
	if auction.HasWinner() {
		winner := auction.WinnerID
		update.WinnerID = &winner
		update.FinalPrice = listing.CurrentBid
	}
	update.FinalPriceDisplay = money.Format(update.FinalPrice)

	payload, err := (&events.AuctionEnded{
		ListingID:  listing.ID,
		SellerID:   listing.SellerID,
		WinnerID:   auction.WinnerID,
		FinalPrice: update.FinalPrice,
		BidCount:   int64(listing.BidCount),
		EndedAt:    endedAt,
	}).Marshal()
	if err != nil {
		return update, fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := s.outbox.SaveEvent(ctx, tx, events.NewOutboxEvent(events.EventTypeAuctionEnded, payload, now)); err != nil {
		return update, fmt.Errorf("failed to save outbox event: %w", err)
	}

	if err := s.repo.MarkEndAnnounced(ctx, tx, listing.ID, now); err != nil {
		return update, fmt.Errorf("failed to mark auction %s announced: %w", listing.ID, err)
	}

	return update, nil
}
