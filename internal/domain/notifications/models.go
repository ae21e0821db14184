package notifications

import (
	"time"

	"github.com/google/uuid"
)

// Kind identifies why a user was notified.
type Kind string

const (
	KindOutbid        Kind = "outbid"
	KindAuctionWon    Kind = "auction_won"
	KindAuctionSold   Kind = "auction_sold"
	KindAuctionUnsold Kind = "auction_unsold"
)

// Notification is a message addressed to one user.
type Notification struct {
	ID        uuid.UUID `db:"id"`
	UserID    uuid.UUID `db:"user_id"`
	Kind      Kind      `db:"kind"`
	ListingID uuid.UUID `db:"listing_id"`
	Amount    int64     `db:"amount"`
	Message   string    `db:"message"`
	CreatedAt time.Time `db:"created_at"`
}

type NotificationPage struct {
	Notifications []*Notification
	Total         int
	Page          int
	PageSize      int
}
