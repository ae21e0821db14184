package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/floroz/tradepost/internal/domain/listings"
	pkgdb "github.com/floroz/tradepost/pkg/database"
)

const listingColumns = `id, seller_id, title, description, category, price, is_auction,
	starting_bid, current_bid, bid_count, auction_end_time, created_at, updated_at`

// PostgresListingRepository implements listings.Repository using pgx
type PostgresListingRepository struct {
	pool *pgxpool.Pool // Keep pool for non-transactional reads
}

// NewPostgresListingRepository creates a new PostgreSQL listing repository
func NewPostgresListingRepository(pool *pgxpool.Pool) *PostgresListingRepository {
	return &PostgresListingRepository{pool: pool}
}

func (r *PostgresListingRepository) Create(ctx context.Context, l *listings.Listing) error {
	query := `
		INSERT INTO listings (` + listingColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err := r.pool.Exec(ctx, query,
		l.ID,
		l.SellerID,
		l.Title,
		l.Description,
		string(l.Category),
		l.Price,
		l.IsAuction,
		l.StartingBid,
		l.CurrentBid,
		l.BidCount,
		l.AuctionEndTime,
		l.CreatedAt,
		l.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert listing: %w", err)
	}
	return nil
}

// GetByID retrieves a listing by its ID (non-transactional read)
func (r *PostgresListingRepository) GetByID(ctx context.Context, listingID uuid.UUID) (*listings.Listing, error) {
	return r.getByID(ctx, r.pool, listingID, false)
}

// GetByIDForUpdate retrieves a listing and locks its row until tx ends
func (r *PostgresListingRepository) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, listingID uuid.UUID) (*listings.Listing, error) {
	return r.getByID(ctx, tx, listingID, true)
}

func (r *PostgresListingRepository) getByID(ctx context.Context, db pkgdb.DBTX, listingID uuid.UUID, forUpdate bool) (*listings.Listing, error) {
	query := `SELECT ` + listingColumns + ` FROM listings WHERE id = $1`
	if forUpdate {
		query += " FOR UPDATE"
	}

	listing, err := scanListing(db.QueryRow(ctx, query, listingID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, listings.ErrListingNotFound
		}
		return nil, fmt.Errorf("failed to get listing: %w", pkgdb.Classify(err))
	}
	return listing, nil
}

// UpdateAuctionState moves the price and count only if no other writer got there first
func (r *PostgresListingRepository) UpdateAuctionState(ctx context.Context, tx pgx.Tx, listingID uuid.UUID, currentBid int64, bidCount, expectedBidCount int) error {
	query := `
		UPDATE listings
		SET current_bid = $1, bid_count = $2, updated_at = NOW()
		WHERE id = $3 AND bid_count = $4
	`
	result, err := tx.Exec(ctx, query, currentBid, bidCount, listingID, expectedBidCount)
	if err != nil {
		return fmt.Errorf("failed to update auction state: %w", pkgdb.Classify(err))
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("%w: listing %s changed since it was read", pkgdb.ErrConflict, listingID)
	}

	return nil
}

func (r *PostgresListingRepository) ListActiveAuctions(ctx context.Context, now time.Time, limit, offset int) ([]*listings.Listing, int, error) {
	where := `
		WHERE is_auction AND category = $1
		AND (auction_end_time IS NULL OR auction_end_time >= $2)
	`

	var total int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM listings`+where,
		string(listings.CategoryCollectibles), now).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count auctions: %w", err)
	}

	query := `SELECT ` + listingColumns + ` FROM listings` + where + `
		ORDER BY auction_end_time ASC NULLS LAST, created_at DESC
		LIMIT $3 OFFSET $4
	`
	rows, err := r.pool.Query(ctx, query, string(listings.CategoryCollectibles), now, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query auctions: %w", err)
	}
	defer rows.Close()

	result := []*listings.Listing{}
	for rows.Next() {
		listing, err := scanListing(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan listing: %w", err)
		}
		result = append(result, listing)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating listings: %w", err)
	}

	return result, total, nil
}

// ClaimEndedAuctions uses FOR UPDATE SKIP LOCKED so concurrent sweepers split the work
func (r *PostgresListingRepository) ClaimEndedAuctions(ctx context.Context, tx pgx.Tx, now time.Time, limit int) ([]*listings.EndedAuction, error) {
	query := `
		SELECT ` + listingColumns + `,
			(SELECT b.bidder_id FROM bids b WHERE b.listing_id = listings.id AND b.is_winning) AS winner_id
		FROM listings
		WHERE is_auction AND ended_announced_at IS NULL AND auction_end_time < $1
		ORDER BY auction_end_time ASC
		LIMIT $2
		FOR UPDATE SKIP LOCKED
	`
	rows, err := tx.Query(ctx, query, now, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query ended auctions: %w", pkgdb.Classify(err))
	}
	defer rows.Close()

	var result []*listings.EndedAuction
	for rows.Next() {
		var (
			l        listings.Listing
			category string
			winner   uuid.NullUUID
		)
		if err := rows.Scan(append(listingFields(&l, &category), &winner)...); err != nil {
			return nil, fmt.Errorf("failed to scan ended auction: %w", err)
		}
		l.Category = listings.Category(category)

		ended := &listings.EndedAuction{Listing: &l}
		if winner.Valid {
			ended.WinnerID = winner.UUID
		}
		result = append(result, ended)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ended auctions: %w", err)
	}

	return result, nil
}

func (r *PostgresListingRepository) MarkEndAnnounced(ctx context.Context, tx pgx.Tx, listingID uuid.UUID, at time.Time) error {
	result, err := tx.Exec(ctx, `UPDATE listings SET ended_announced_at = $1 WHERE id = $2`, at, listingID)
	if err != nil {
		return fmt.Errorf("failed to mark auction announced: %w", err)
	}
	if result.RowsAffected() == 0 {
		return listings.ErrListingNotFound
	}
	return nil
}

func listingFields(l *listings.Listing, category *string) []any {
	return []any{
		&l.ID,
		&l.SellerID,
		&l.Title,
		&l.Description,
		category,
		&l.Price,
		&l.IsAuction,
		&l.StartingBid,
		&l.CurrentBid,
		&l.BidCount,
		&l.AuctionEndTime,
		&l.CreatedAt,
		&l.UpdatedAt,
	}
}

func scanListing(row pgx.Row) (*listings.Listing, error) {
	var (
		l        listings.Listing
		category string
	)
	if err := row.Scan(listingFields(&l, &category)...); err != nil {
		return nil, err
	}
	l.Category = listings.Category(category)
	return &l, nil
}
