package listings

import "time"

// DefaultAuctionDuration applies when an auction listing is created without an end time.
const DefaultAuctionDuration = 7 * 24 * time.Hour

// ApplyCreationPolicy decides whether a new listing is an auction. Listings in
// an auctionable category become auctions with the current bid seeded from the
// starting bid and an end time defaulting to now plus DefaultAuctionDuration.
// Other listings carry no auction state.
func ApplyCreationPolicy(l *Listing, now time.Time) {
	if !l.Category.IsAuctionable() {
		l.IsAuction = false
		l.StartingBid = nil
		l.CurrentBid = 0
		l.BidCount = 0
		l.AuctionEndTime = nil
		return
	}

	l.IsAuction = true
	l.BidCount = 0
	l.CurrentBid = 0
	if l.StartingBid != nil {
		l.CurrentBid = *l.StartingBid
	}
	if l.AuctionEndTime == nil {
		end := now.Add(DefaultAuctionDuration)
		l.AuctionEndTime = &end
	}
}
