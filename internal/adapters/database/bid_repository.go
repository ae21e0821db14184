package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/floroz/tradepost/internal/domain/bids"
	pkgdb "github.com/floroz/tradepost/pkg/database"
)

const (
	bidColumns = `id, listing_id, bidder_id, bidder_display_name, amount, is_winning, is_active, placed_at`

	// oneWinnerConstraint is the partial unique index on bids(listing_id) WHERE is_winning.
	oneWinnerConstraint = "bids_one_winner_per_listing"
)

// PostgresBidRepository implements bids.BidRepository using pgx
type PostgresBidRepository struct {
	pool *pgxpool.Pool // Keep pool for read-only operations
}

// NewPostgresBidRepository creates a new PostgreSQL bid repository
func NewPostgresBidRepository(pool *pgxpool.Pool) *PostgresBidRepository {
	return &PostgresBidRepository{pool: pool}
}

// Append saves a bid within a transaction
func (r *PostgresBidRepository) Append(ctx context.Context, tx pgx.Tx, bid *bids.Bid) error {
	query := `
		INSERT INTO bids (` + bidColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := tx.Exec(ctx, query,
		bid.ID,
		bid.ListingID,
		bid.BidderID,
		bid.BidderDisplayName,
		bid.Amount,
		bid.IsWinning,
		bid.IsActive,
		bid.PlacedAt,
	)
	if err != nil {
		if pkgdb.IsUniqueViolation(err, oneWinnerConstraint) {
			return fmt.Errorf("%w: listing %s already has a winning bid", pkgdb.ErrConflict, bid.ListingID)
		}
		return fmt.Errorf("failed to insert bid: %w", pkgdb.Classify(err))
	}
	return nil
}

func (r *PostgresBidRepository) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, bidID uuid.UUID) (*bids.Bid, error) {
	query := `SELECT ` + bidColumns + ` FROM bids WHERE id = $1 FOR UPDATE`

	bid, err := scanBid(tx.QueryRow(ctx, query, bidID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, bids.ErrBidNotFound
		}
		return nil, fmt.Errorf("failed to get bid: %w", pkgdb.Classify(err))
	}
	return bid, nil
}

func (r *PostgresBidRepository) FindWinningByListing(ctx context.Context, tx pgx.Tx, listingID uuid.UUID) ([]*bids.Bid, error) {
	query := `SELECT ` + bidColumns + ` FROM bids WHERE listing_id = $1 AND is_winning`

	rows, err := tx.Query(ctx, query, listingID)
	if err != nil {
		return nil, fmt.Errorf("failed to query winning bids: %w", pkgdb.Classify(err))
	}
	return collectBids(rows)
}

func (r *PostgresBidRepository) SetWinning(ctx context.Context, tx pgx.Tx, bidID uuid.UUID, winning bool) error {
	return r.setFlag(ctx, tx, `UPDATE bids SET is_winning = $1 WHERE id = $2`, bidID, winning)
}

func (r *PostgresBidRepository) SetActive(ctx context.Context, tx pgx.Tx, bidID uuid.UUID, active bool) error {
	return r.setFlag(ctx, tx, `UPDATE bids SET is_active = $1 WHERE id = $2`, bidID, active)
}

func (r *PostgresBidRepository) setFlag(ctx context.Context, tx pgx.Tx, query string, bidID uuid.UUID, value bool) error {
	result, err := tx.Exec(ctx, query, value, bidID)
	if err != nil {
		return fmt.Errorf("failed to update bid: %w", pkgdb.Classify(err))
	}
	if result.RowsAffected() == 0 {
		return bids.ErrBidNotFound
	}
	return nil
}

func (r *PostgresBidRepository) QueryByListing(ctx context.Context, listingID uuid.UUID, limit, offset int) ([]*bids.Bid, int, error) {
	var total int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM bids WHERE listing_id = $1 AND is_active`, listingID).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count bids: %w", err)
	}

	query := `
		SELECT ` + bidColumns + `
		FROM bids
		WHERE listing_id = $1 AND is_active
		ORDER BY amount DESC, placed_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.pool.Query(ctx, query, listingID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query bids: %w", err)
	}
	result, err := collectBids(rows)
	if err != nil {
		return nil, 0, err
	}
	return result, total, nil
}

func (r *PostgresBidRepository) QueryByBidder(ctx context.Context, bidderID uuid.UUID, filter bids.BidderFilter, limit, offset int) ([]*bids.Bid, int, error) {
	where := ` WHERE bidder_id = $1`
	switch filter {
	case bids.BidderFilterWinning:
		where += ` AND is_winning`
	case bids.BidderFilterLost:
		where += ` AND NOT is_winning`
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM bids`+where, bidderID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count bids: %w", err)
	}

	query := `SELECT ` + bidColumns + ` FROM bids` + where + `
		ORDER BY placed_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.pool.Query(ctx, query, bidderID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query bids: %w", err)
	}
	result, err := collectBids(rows)
	if err != nil {
		return nil, 0, err
	}
	return result, total, nil
}

func (r *PostgresBidRepository) FindWinningByBidder(ctx context.Context, bidderID uuid.UUID) ([]*bids.Bid, error) {
	query := `
		SELECT ` + bidColumns + `
		FROM bids
		WHERE bidder_id = $1 AND is_winning
		ORDER BY placed_at DESC
	`
	rows, err := r.pool.Query(ctx, query, bidderID)
	if err != nil {
		return nil, fmt.Errorf("failed to query winning bids: %w", err)
	}
	return collectBids(rows)
}

func scanBid(row pgx.Row) (*bids.Bid, error) {
	var bid bids.Bid
	err := row.Scan(
		&bid.ID,
		&bid.ListingID,
		&bid.BidderID,
		&bid.BidderDisplayName,
		&bid.Amount,
		&bid.IsWinning,
		&bid.IsActive,
		&bid.PlacedAt,
	)
	if err != nil {
		return nil, err
	}
	return &bid, nil
}

func collectBids(rows pgx.Rows) ([]*bids.Bid, error) {
	defer rows.Close()

	result := []*bids.Bid{}
	for rows.Next() {
		bid, err := scanBid(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bid: %w", err)
		}
		result = append(result, bid)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating bids: %w", pkgdb.Classify(err))
	}

	return result, nil
}
