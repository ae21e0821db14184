package notifications

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type Repository interface {
	// Save stores a notification within a transaction
	Save(ctx context.Context, tx pgx.Tx, n *Notification) error

	// ListByUser returns a user's notifications, newest first, and the total count.
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*Notification, int, error)

	IsEventProcessed(ctx context.Context, tx pgx.Tx, eventKey string) (bool, error)
	MarkEventProcessed(ctx context.Context, tx pgx.Tx, eventKey string) error
}
