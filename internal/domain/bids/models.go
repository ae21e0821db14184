package bids

import (
	"time"

	"github.com/google/uuid"
)

// Bid is an accepted offer on an auction listing. Bids are never deleted:
// IsWinning flips off when a higher bid is accepted and IsActive flips off
// when the bidder cancels.
type Bid struct {
	ID                uuid.UUID `db:"id"`
	ListingID         uuid.UUID `db:"listing_id"`
	BidderID          uuid.UUID `db:"bidder_id"`
	BidderDisplayName string    `db:"bidder_display_name"`
	Amount            int64     `db:"amount"`
	IsWinning         bool      `db:"is_winning"`
	IsActive          bool      `db:"is_active"`
	PlacedAt          time.Time `db:"placed_at"`
}

// BidderFilter narrows a bidder's history.
type BidderFilter string

const (
	BidderFilterAll     BidderFilter = "all"
	BidderFilterWinning BidderFilter = "winning"
	BidderFilterLost    BidderFilter = "lost"
)

func (f BidderFilter) IsValid() bool {
	switch f {
	case BidderFilterAll, BidderFilterWinning, BidderFilterLost:
		return true
	}
	return false
}

// BidPage is one page of bids and the total number of matches.
type BidPage struct {
	Bids     []*Bid
	Total    int
	Page     int
	PageSize int
}

// EventBidUpdate is the broadcast event type sent after a bid is accepted.
const EventBidUpdate = "bid-update"

// BidUpdate is the broadcast payload for EventBidUpdate.
type BidUpdate struct {
	ListingID         uuid.UUID `json:"listingId"`
	CurrentBid        int64     `json:"currentBid"`
	CurrentBidDisplay string    `json:"currentBidDisplay"`
	BidCount          int       `json:"bidCount"`
	BidderDisplayName string    `json:"bidderDisplayName"`
}
