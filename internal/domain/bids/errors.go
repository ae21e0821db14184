package bids

import (
	"errors"
	"fmt"

	"github.com/floroz/tradepost/internal/domain/listings"
	"github.com/floroz/tradepost/pkg/database"
	"github.com/floroz/tradepost/pkg/money"
)

// Rejections. None of them leave any state behind.
var (
	ErrListingNotFound     = listings.ErrListingNotFound
	ErrBidNotFound         = errors.New("bid not found")
	ErrNotEligible         = errors.New("listing is not available for bidding")
	ErrAuctionEnded        = errors.New("auction has ended")
	ErrBidTooLow           = errors.New("bid must be higher than the current bid")
	ErrSellerCannotBid     = errors.New("seller cannot bid on their own listing")
	ErrUnauthorized        = errors.New("not authorized to cancel this bid")
	ErrCannotCancelWinning = errors.New("cannot cancel the winning bid")
	ErrInvalidFilter       = errors.New("status must be one of all, winning, lost")
)

// Infrastructure failures.
var (
	// ErrRetryable means the bid lost every attempt to a concurrent writer.
	// Nothing was stored and the caller may submit it again.
	ErrRetryable = errors.New("listing is busy, please retry")

	// ErrUnavailable wraps storage failures. Nothing was stored.
	ErrUnavailable = errors.New("auction storage unavailable")
)

// BidTooLowError carries the rejected amount and the price it had to beat.
type BidTooLowError struct {
	Amount     int64
	CurrentBid int64
}

func (e *BidTooLowError) Error() string {
	return fmt.Sprintf("bid of %s must be higher than current bid of %s",
		money.Format(e.Amount), money.Format(e.CurrentBid))
}

func (e *BidTooLowError) Is(target error) bool {
	return target == ErrBidTooLow
}

// unavailable annotates a storage error. Conflicts stay retryable, anything
// else is reported as ErrUnavailable.
func unavailable(op string, err error) error {
	if errors.Is(err, database.ErrConflict) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %w", op, ErrUnavailable, err)
}
