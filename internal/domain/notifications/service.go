package notifications

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/floroz/tradepost/internal/domain/listings"
	"github.com/floroz/tradepost/pkg/database"
	"github.com/floroz/tradepost/pkg/events"
	"github.com/floroz/tradepost/pkg/money"
)

type Service struct {
	repo      Repository
	txManager database.TransactionManager
	now       func() time.Time
}

func NewService(repo Repository, txManager database.TransactionManager) *Service {
	return &Service{
		repo:      repo,
		txManager: txManager,
		now:       time.Now,
	}
}

// ProcessBidPlaced tells the previous winner they were outbid. Redelivered
// events are acknowledged without notifying twice.
func (s *Service) ProcessBidPlaced(ctx context.Context, event *events.BidPlaced) error {
	key := events.EventTypeBidPlaced.String() + ":" + event.BidID.String()

	return s.once(ctx, key, func(tx pgx.Tx) error {
		if event.PreviousWinnerID == uuid.Nil || event.PreviousWinnerID == event.BidderID {
			return nil
		}
		return s.notify(ctx, tx, event.PreviousWinnerID, KindOutbid, event.ListingID, event.Amount,
			fmt.Sprintf("You have been outbid. The current bid is %s.", money.Format(event.Amount)))
	})
}

// ProcessAuctionEnded tells the winner and the seller how the auction closed.
func (s *Service) ProcessAuctionEnded(ctx context.Context, event *events.AuctionEnded) error {
	key := events.EventTypeAuctionEnded.String() + ":" + event.ListingID.String()

	return s.once(ctx, key, func(tx pgx.Tx) error {
		if event.WinnerID == uuid.Nil {
			return s.notify(ctx, tx, event.SellerID, KindAuctionUnsold, event.ListingID, 0,
				"Your auction ended without any bids.")
		}

		price := money.Format(event.FinalPrice)
		if err := s.notify(ctx, tx, event.WinnerID, KindAuctionWon, event.ListingID, event.FinalPrice,
			fmt.Sprintf("You won the auction with a bid of %s.", price)); err != nil {
			return err
		}
		return s.notify(ctx, tx, event.SellerID, KindAuctionSold, event.ListingID, event.FinalPrice,
			fmt.Sprintf("Your auction ended. The winning bid is %s after %d bids.", price, event.BidCount))
	})
}

// ListNotifications returns a page of the user's notifications, newest first.
func (s *Service) ListNotifications(ctx context.Context, userID uuid.UUID, page listings.PageRequest) (*NotificationPage, error) {
	page = page.Normalize()

	items, total, err := s.repo.ListByUser(ctx, userID, page.PageSize, page.Offset())
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}

	return &NotificationPage{Notifications: items, Total: total, Page: page.Page, PageSize: page.PageSize}, nil
}

// once runs fn and records key in one transaction, unless key was already recorded.
func (s *Service) once(ctx context.Context, key string, fn func(tx pgx.Tx) error) error {
	tx, err := s.txManager.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	processed, err := s.repo.IsEventProcessed(ctx, tx, key)
	if err != nil {
		return fmt.Errorf("failed to check idempotency: %w", err)
	}
	if processed {
		return nil
	}

	if err := fn(tx); err != nil {
		return err
	}

	if err := s.repo.MarkEventProcessed(ctx, tx, key); err != nil {
		return fmt.Errorf("failed to mark event as processed: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *Service) notify(ctx context.Context, tx pgx.Tx, userID uuid.UUID, kind Kind, listingID uuid.UUID, amount int64, message string) error {
	n := &Notification{
		ID:        uuid.New(),
		UserID:    userID,
		Kind:      kind,
		ListingID: listingID,
		Amount:    amount,
		Message:   message,
		CreatedAt: s.now(),
	}
	if err := s.repo.Save(ctx, tx, n); err != nil {
		return fmt.Errorf("failed to save %s notification: %w", kind, err)
	}
	return nil
}
