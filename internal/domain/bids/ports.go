package bids

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/floroz/tradepost/internal/domain/listings"
	"github.com/floroz/tradepost/pkg/events"
)

// ListingStore is the part of the listing repository the engine needs.
type ListingStore interface {
	// GetByIDForUpdate locks the listing row until tx ends.
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, listingID uuid.UUID) (*listings.Listing, error)

	// UpdateAuctionState stores the new price and count if the stored count
	// still equals expectedBidCount, and returns database.ErrConflict otherwise.
	UpdateAuctionState(ctx context.Context, tx pgx.Tx, listingID uuid.UUID, currentBid int64, bidCount, expectedBidCount int) error
}

// BidRepository is the bid ledger. It holds no business rules.
type BidRepository interface {
	// Append inserts a bid within a transaction. A second winning bid for the
	// same listing is reported as database.ErrConflict.
	Append(ctx context.Context, tx pgx.Tx, bid *Bid) error

	// GetByIDForUpdate retrieves a bid and locks it. Returns ErrBidNotFound when missing.
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, bidID uuid.UUID) (*Bid, error)

	// FindWinningByListing returns the winning bids of a listing (at most one
	// while the invariant holds).
	FindWinningByListing(ctx context.Context, tx pgx.Tx, listingID uuid.UUID) ([]*Bid, error)

	SetWinning(ctx context.Context, tx pgx.Tx, bidID uuid.UUID, winning bool) error
	SetActive(ctx context.Context, tx pgx.Tx, bidID uuid.UUID, active bool) error

	// QueryByListing returns active bids of a listing by amount then placement
	// time, both descending, and the total count.
	QueryByListing(ctx context.Context, listingID uuid.UUID, limit, offset int) ([]*Bid, int, error)

	// QueryByBidder returns a bidder's bids, newest first, and the total count.
	QueryByBidder(ctx context.Context, bidderID uuid.UUID, filter BidderFilter, limit, offset int) ([]*Bid, int, error)

	// FindWinningByBidder returns every bid the bidder is currently winning, newest first.
	FindWinningByBidder(ctx context.Context, bidderID uuid.UUID) ([]*Bid, error)
}

// OutboxRepository stores events in the same transaction as the bid.
type OutboxRepository interface {
	SaveEvent(ctx context.Context, tx pgx.Tx, event *events.OutboxEvent) error
}
