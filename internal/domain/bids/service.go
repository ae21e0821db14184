package bids

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/floroz/tradepost/internal/domain/listings"
	"github.com/floroz/tradepost/pkg/broadcast"
	"github.com/floroz/tradepost/pkg/database"
	"github.com/floroz/tradepost/pkg/events"
	"github.com/floroz/tradepost/pkg/money"
)

// DefaultMaxAttempts bounds how often PlaceBid retries after losing a race.
const DefaultMaxAttempts = 3

type PlaceBidCommand struct {
	ListingID         uuid.UUID
	BidderID          uuid.UUID
	BidderDisplayName string
	Amount            int64
}

type CancelBidCommand struct {
	BidID       uuid.UUID
	RequesterID uuid.UUID
}

// PlaceBidResult is returned for an accepted bid.
type PlaceBidResult struct {
	Bid        *Bid
	CurrentBid int64
	BidCount   int
}

// ValidateBid applies the acceptance rules in order. listing must be the
// locked, current row.
func ValidateBid(listing *listings.Listing, bidderID uuid.UUID, amount int64, now time.Time) error {
	if !listing.AcceptsBids() {
		return ErrNotEligible
	}
	if listing.HasEnded(now) {
		return ErrAuctionEnded
	}
	if current := listing.EffectiveCurrentBid(); amount <= current {
		return &BidTooLowError{Amount: amount, CurrentBid: current}
	}
	if listing.IsOwnedBy(bidderID) {
		return ErrSellerCannotBid
	}
	return nil
}

// Option configures an AuctionService.
type Option func(*AuctionService)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *AuctionService) {
		s.now = now
	}
}

// WithMaxAttempts sets how many times a bid is tried before ErrRetryable.
func WithMaxAttempts(n int) Option {
	return func(s *AuctionService) {
		if n > 0 {
			s.maxAttempts = n
		}
	}
}

// AuctionService validates and applies bids. Acceptance is serialized per
// listing by locking the listing row; different listings never contend.
type AuctionService struct {
	txManager   database.TransactionManager
	listings    ListingStore
	bids        BidRepository
	outbox      OutboxRepository
	broadcaster broadcast.Publisher
	logger      *slog.Logger
	now         func() time.Time
	maxAttempts int
}

// NewAuctionService creates a new auction service
func NewAuctionService(
	txManager database.TransactionManager,
	listingStore ListingStore,
	bidRepo BidRepository,
	outboxRepo OutboxRepository,
	broadcaster broadcast.Publisher,
	logger *slog.Logger,
	opts ...Option,
) *AuctionService {
	s := &AuctionService{
		txManager:   txManager,
		listings:    listingStore,
		bids:        bidRepo,
		outbox:      outboxRepo,
		broadcaster: broadcaster,
		logger:      logger,
		now:         time.Now,
		maxAttempts: DefaultMaxAttempts,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// PlaceBid accepts the bid or returns a typed rejection. On acceptance the
// previous winner is demoted, the bid is appended as winning, the listing
// price and count move, and a bid.placed event is queued, all in one
// transaction. Observers are notified after commit; a failed notification
// does not undo the bid.
func (s *AuctionService) PlaceBid(ctx context.Context, cmd PlaceBidCommand) (*PlaceBidResult, error) {
	for attempt := 1; ; attempt++ {
		result, err := s.placeBid(ctx, cmd)
		if err == nil {
			s.broadcastBid(ctx, result)
			return result, nil
		}
		if !errors.Is(err, database.ErrConflict) {
			return nil, err
		}
		if attempt >= s.maxAttempts {
			s.logger.Warn("Giving up on contended bid",
				"listing_id", cmd.ListingID, "attempts", attempt, "error", err)
			return nil, fmt.Errorf("%w: %w", ErrRetryable, err)
		}
		s.logger.Info("Retrying contended bid", "listing_id", cmd.ListingID, "attempt", attempt)
	}
}

func (s *AuctionService) placeBid(ctx context.Context, cmd PlaceBidCommand) (*PlaceBidResult, error) {
	tx, err := s.txManager.BeginTx(ctx)
	if err != nil {
		return nil, unavailable("failed to begin transaction", err)
	}
	defer func() {
		_ = tx.Rollback(ctx) // Rollback if commit is not called
	}()

	// Lock the listing row. Concurrent bids on the same listing queue here.
	listing, err := s.listings.GetByIDForUpdate(ctx, tx, cmd.ListingID)
	if err != nil {
		if errors.Is(err, listings.ErrListingNotFound) {
			return nil, ErrListingNotFound
		}
		return nil, unavailable("failed to lock listing", err)
	}

	now := s.now()
	if err := ValidateBid(listing, cmd.BidderID, cmd.Amount, now); err != nil {
		return nil, err
	}

	winners, err := s.bids.FindWinningByListing(ctx, tx, listing.ID)
	if err != nil {
		return nil, unavailable("failed to find winning bids", err)
	}

	var previousWinner uuid.UUID
	for _, w := range winners {
		if err := s.bids.SetWinning(ctx, tx, w.ID, false); err != nil {
			return nil, unavailable("failed to demote winning bid", err)
		}
		previousWinner = w.BidderID
	}

	bid := &Bid{
		ID:                uuid.New(),
		ListingID:         listing.ID,
		BidderID:          cmd.BidderID,
		BidderDisplayName: cmd.BidderDisplayName,
		Amount:            cmd.Amount,
		IsWinning:         true,
		IsActive:          true,
		PlacedAt:          now,
	}
	if err := s.bids.Append(ctx, tx, bid); err != nil {
		return nil, unavailable("failed to save bid", err)
	}

	bidCount := listing.BidCount + 1
	if err := s.listings.UpdateAuctionState(ctx, tx, listing.ID, cmd.Amount, bidCount, listing.BidCount); err != nil {
		return nil, unavailable("failed to update auction state", err)
	}

	payload, err := (&events.BidPlaced{
		BidID:             bid.ID,
		ListingID:         bid.ListingID,
		BidderID:          bid.BidderID,
		Amount:            bid.Amount,
		BidCount:          int64(bidCount),
		PreviousWinnerID:  previousWinner,
		PlacedAt:          bid.PlacedAt,
		BidderDisplayName: bid.BidderDisplayName,
	}).Marshal()
	if err != nil {
		return nil, unavailable("failed to marshal event", err)
	}

	if err := s.outbox.SaveEvent(ctx, tx, events.NewOutboxEvent(events.EventTypeBidPlaced, payload, now)); err != nil {
		return nil, unavailable("failed to save outbox event", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, unavailable("failed to commit transaction", database.Classify(err))
	}

	return &PlaceBidResult{
		Bid:        bid,
		CurrentBid: cmd.Amount,
		BidCount:   bidCount,
	}, nil
}

func (s *AuctionService) broadcastBid(ctx context.Context, result *PlaceBidResult) {
	update := BidUpdate{
		ListingID:         result.Bid.ListingID,
		CurrentBid:        result.CurrentBid,
		CurrentBidDisplay: money.Format(result.CurrentBid),
		BidCount:          result.BidCount,
		BidderDisplayName: result.Bid.BidderDisplayName,
	}
	if err := s.broadcaster.Publish(ctx, listings.Topic(update.ListingID), EventBidUpdate, update); err != nil {
		s.logger.Error("Failed to broadcast bid update",
			"listing_id", update.ListingID, "bid_id", result.Bid.ID, "error", err)
	}
}

// CancelBid withdraws a bid that is no longer winning. Only IsActive changes;
// the listing price and count stay as they are. Cancelling an already
// cancelled bid returns it unchanged.
func (s *AuctionService) CancelBid(ctx context.Context, cmd CancelBidCommand) (*Bid, error) {
	tx, err := s.txManager.BeginTx(ctx)
	if err != nil {
		return nil, unavailable("failed to begin transaction", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	bid, err := s.bids.GetByIDForUpdate(ctx, tx, cmd.BidID)
	if err != nil {
		if errors.Is(err, ErrBidNotFound) {
			return nil, ErrBidNotFound
		}
		return nil, unavailable("failed to get bid", err)
	}

	if bid.BidderID != cmd.RequesterID {
		return nil, ErrUnauthorized
	}
	if bid.IsWinning {
		return nil, ErrCannotCancelWinning
	}
	if !bid.IsActive {
		return bid, nil
	}

	if err := s.bids.SetActive(ctx, tx, bid.ID, false); err != nil {
		return nil, unavailable("failed to cancel bid", err)
	}

	now := s.now()
	payload, err := (&events.BidCancelled{
		BidID:       bid.ID,
		ListingID:   bid.ListingID,
		BidderID:    bid.BidderID,
		CancelledAt: now,
	}).Marshal()
	if err != nil {
		return nil, unavailable("failed to marshal event", err)
	}

	if err := s.outbox.SaveEvent(ctx, tx, events.NewOutboxEvent(events.EventTypeBidCancelled, payload, now)); err != nil {
		return nil, unavailable("failed to save outbox event", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, unavailable("failed to commit transaction", database.Classify(err))
	}

	bid.IsActive = false
	return bid, nil
}

// ListBidsForListing returns a page of the listing's active bids, highest first.
func (s *AuctionService) ListBidsForListing(ctx context.Context, listingID uuid.UUID, page listings.PageRequest) (*BidPage, error) {
	page = page.Normalize()

	bids, total, err := s.bids.QueryByListing(ctx, listingID, page.PageSize, page.Offset())
	if err != nil {
		return nil, unavailable("failed to list bids", err)
	}

	return &BidPage{Bids: bids, Total: total, Page: page.Page, PageSize: page.PageSize}, nil
}

// ListBidsForBidder returns a page of the bidder's history, newest first.
func (s *AuctionService) ListBidsForBidder(ctx context.Context, bidderID uuid.UUID, filter BidderFilter, page listings.PageRequest) (*BidPage, error) {
	if filter == "" {
		filter = BidderFilterAll
	}
	if !filter.IsValid() {
		return nil, ErrInvalidFilter
	}
	page = page.Normalize()

	bids, total, err := s.bids.QueryByBidder(ctx, bidderID, filter, page.PageSize, page.Offset())
	if err != nil {
		return nil, unavailable("failed to list bids", err)
	}

	return &BidPage{Bids: bids, Total: total, Page: page.Page, PageSize: page.PageSize}, nil
}

// ListWinningBidsForBidder returns the bids the bidder currently leads with.
func (s *AuctionService) ListWinningBidsForBidder(ctx context.Context, bidderID uuid.UUID) ([]*Bid, error) {
	bids, err := s.bids.FindWinningByBidder(ctx, bidderID)
	if err != nil {
		return nil, unavailable("failed to list winning bids", err)
	}
	return bids, nil
}
