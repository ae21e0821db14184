package listings

import (
	"time"

	"github.com/google/uuid"
)

// Category classifies a listing. Only collectibles are sold by auction.
type Category string

const (
	CategoryElectronics    Category = "electronics"
	CategoryPreciousMetals Category = "precious_metals"
	CategoryCollectibles   Category = "collectibles"
)

func (c Category) IsValid() bool {
	switch c {
	case CategoryElectronics, CategoryPreciousMetals, CategoryCollectibles:
		return true
	}
	return false
}

// IsAuctionable reports whether listings in this category take bids.
func (c Category) IsAuctionable() bool {
	return c == CategoryCollectibles
}

// AuctionStatus is derived from the listing and the clock, never stored.
type AuctionStatus string

const (
	AuctionStatusNone   AuctionStatus = "none"
	AuctionStatusActive AuctionStatus = "active"
	AuctionStatusEnded  AuctionStatus = "ended"
)

// Listing represents an item for sale
type Listing struct {
	ID             uuid.UUID  `db:"id"`
	SellerID       uuid.UUID  `db:"seller_id"`
	Title          string     `db:"title"`
	Description    string     `db:"description"`
	Category       Category   `db:"category"`
	Price          int64      `db:"price"`
	IsAuction      bool       `db:"is_auction"`
	StartingBid    *int64     `db:"starting_bid"`
	CurrentBid     int64      `db:"current_bid"`
	BidCount       int        `db:"bid_count"`
	AuctionEndTime *time.Time `db:"auction_end_time"`
	CreatedAt      time.Time  `db:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at"`
}

// AcceptsBids reports whether the listing is an auction in an auctionable category.
func (l *Listing) AcceptsBids() bool {
	return l.IsAuction && l.Category.IsAuctionable()
}

// EffectiveCurrentBid is the price a new bid has to beat: the highest
// accepted bid, or the starting bid before any bid, or zero.
func (l *Listing) EffectiveCurrentBid() int64 {
	if l.CurrentBid == 0 && l.StartingBid != nil {
		return *l.StartingBid
	}
	return l.CurrentBid
}

// HasEnded reports whether now is past the auction end time. An auction
// without an end time never ends.
func (l *Listing) HasEnded(now time.Time) bool {
	return l.AuctionEndTime != nil && now.After(*l.AuctionEndTime)
}

func (l *Listing) AuctionStatus(now time.Time) AuctionStatus {
	switch {
	case !l.AcceptsBids():
		return AuctionStatusNone
	case l.HasEnded(now):
		return AuctionStatusEnded
	default:
		return AuctionStatusActive
	}
}

// IsOwnedBy checks if the listing belongs to the given user
func (l *Listing) IsOwnedBy(userID uuid.UUID) bool {
	return l.SellerID == userID
}

// Topic is the broadcast topic observers of a listing subscribe to.
func Topic(listingID uuid.UUID) string {
	return "listing-" + listingID.String()
}

// EndedAuction is an auction whose end has not been announced yet, together
// with its winning bidder if there was one.
type EndedAuction struct {
	Listing  *Listing
	WinnerID uuid.UUID
}

// HasWinner reports whether any bid was standing when the auction ended.
func (e *EndedAuction) HasWinner() bool {
	return e.WinnerID != uuid.Nil
}
