package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/floroz/tradepost/internal/domain/notifications"
)

type PostgresNotificationRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresNotificationRepository(pool *pgxpool.Pool) *PostgresNotificationRepository {
	return &PostgresNotificationRepository{pool: pool}
}

func (r *PostgresNotificationRepository) Save(ctx context.Context, tx pgx.Tx, n *notifications.Notification) error {
	query := `
		INSERT INTO notifications (id, user_id, kind, listing_id, amount, message, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := tx.Exec(ctx, query,
		n.ID,           // $1
		n.UserID,       // $2
		string(n.Kind), // $3
		n.ListingID,    // $4
		n.Amount,       // $5
		n.Message,      // $6
		n.CreatedAt,    // $7
	)
	if err != nil {
		return fmt.Errorf("failed to insert notification: %w", err)
	}
	return nil
}

func (r *PostgresNotificationRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*notifications.Notification, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM notifications WHERE user_id = $1`, userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count notifications: %w", err)
	}

	query := `
		SELECT id, user_id, kind, listing_id, amount, message, created_at
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.pool.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query notifications: %w", err)
	}
	defer rows.Close()

	result := []*notifications.Notification{}
	for rows.Next() {
		var (
			n    notifications.Notification
			kind string
		)
		if err := rows.Scan(&n.ID, &n.UserID, &kind, &n.ListingID, &n.Amount, &n.Message, &n.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("failed to scan notification: %w", err)
		}
		n.Kind = notifications.Kind(kind)
		result = append(result, &n)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating notifications: %w", err)
	}

	return result, total, nil
}

func (r *PostgresNotificationRepository) MarkEventProcessed(ctx context.Context, tx pgx.Tx, eventKey string) error {
	_, err := tx.Exec(ctx, `INSERT INTO processed_events (event_id) VALUES ($1)`, eventKey)
	if err != nil {
		return fmt.Errorf("failed to mark event processed: %w", err)
	}
	return nil
}

func (r *PostgresNotificationRepository) IsEventProcessed(ctx context.Context, tx pgx.Tx, eventKey string) (bool, error) {
	var exists bool
	err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM processed_events WHERE event_id = $1)`, eventKey).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check processed event: %w", err)
	}
	return exists, nil
}
