package listings

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/floroz/tradepost/pkg/events"
)

// Repository defines the interface for listing persistence
type Repository interface {
	// Create persists a new listing
	Create(ctx context.Context, listing *Listing) error

	// GetByID retrieves a listing by its ID without locking.
	// Returns ErrListingNotFound when it does not exist.
	GetByID(ctx context.Context, listingID uuid.UUID) (*Listing, error)

	// GetByIDForUpdate retrieves a listing and locks its row until tx ends.
	// This is the per-listing serialization point for bid acceptance.
	GetByIDForUpdate(ctx context.Context, tx pgx.Tx, listingID uuid.UUID) (*Listing, error)

	// UpdateAuctionState sets the current bid and bid count if the stored bid
	// count still equals expectedBidCount. Returns database.ErrConflict otherwise.
	UpdateAuctionState(ctx context.Context, tx pgx.Tx, listingID uuid.UUID, currentBid int64, bidCount, expectedBidCount int) error

	// ListActiveAuctions returns auctions that end after now, soonest first, and the total count.
	ListActiveAuctions(ctx context.Context, now time.Time, limit, offset int) ([]*Listing, int, error)

	// ClaimEndedAuctions locks up to limit auctions that ended before now and
	// were not announced yet, skipping rows locked by other sweepers.
	ClaimEndedAuctions(ctx context.Context, tx pgx.Tx, now time.Time, limit int) ([]*EndedAuction, error)

	// MarkEndAnnounced records that the end of the auction was announced.
	MarkEndAnnounced(ctx context.Context, tx pgx.Tx, listingID uuid.UUID, at time.Time) error
}

// OutboxRepository stores events in the same transaction as the state change.
type OutboxRepository interface {
	SaveEvent(ctx context.Context, tx pgx.Tx, event *events.OutboxEvent) error
}
