package api

import (
	"time"

	"github.com/floroz/tradepost/internal/domain/bids"
	"github.com/floroz/tradepost/internal/domain/listings"
	"github.com/floroz/tradepost/internal/domain/notifications"
	"github.com/floroz/tradepost/pkg/money"
)

// Wire messages. Field names follow the JSON the web client already consumes.

type PageInfo struct {
	Total      int `json:"total"`
	Page       int `json:"page"`
	PageSize   int `json:"pageSize"`
	TotalPages int `json:"totalPages"`
}

func newPageInfo(total, page, pageSize int) PageInfo {
	pages := 0
	if pageSize > 0 {
		pages = (total + pageSize - 1) / pageSize
	}
	return PageInfo{Total: total, Page: page, PageSize: pageSize, TotalPages: pages}
}

type Bid struct {
	ID                string `json:"id"`
	ListingID         string `json:"listingId"`
	BidderID          string `json:"bidderId"`
	BidderDisplayName string `json:"bidderDisplayName,omitempty"`
	Amount            int64  `json:"amount"`
	AmountDisplay     string `json:"amountDisplay"`
	IsWinning         bool   `json:"isWinning"`
	IsActive          bool   `json:"isActive"`
	PlacedAt          string `json:"placedAt"`
}

type PlaceBidRequest struct {
	ListingID string `json:"listingId"`
	Amount    int64  `json:"amount"`
}

type PlaceBidResponse struct {
	Bid               Bid    `json:"bid"`
	CurrentBid        int64  `json:"currentBid"`
	CurrentBidDisplay string `json:"currentBidDisplay"`
	BidCount          int    `json:"bidCount"`
}

type CancelBidRequest struct {
	BidID string `json:"bidId"`
}

type CancelBidResponse struct {
	Bid Bid `json:"bid"`
}

type ListListingBidsRequest struct {
	ListingID string `json:"listingId"`
	Page      int    `json:"page"`
	PageSize  int    `json:"pageSize"`
}

type ListMyBidsRequest struct {
	Status   string `json:"status"`
	Page     int    `json:"page"`
	PageSize int    `json:"pageSize"`
}

type ListBidsResponse struct {
	Bids []Bid `json:"bids"`
	PageInfo
}

type ListWinningBidsRequest struct{}

type ListWinningBidsResponse struct {
	Bids []Bid `json:"bids"`
}

type Listing struct {
	ID                string  `json:"id"`
	SellerID          string  `json:"sellerId"`
	Title             string  `json:"title"`
	Description       string  `json:"description"`
	Category          string  `json:"category"`
	Price             int64   `json:"price"`
	IsAuction         bool    `json:"isAuction"`
	StartingBid       *int64  `json:"startingBid,omitempty"`
	CurrentBid        int64   `json:"currentBid"`
	CurrentBidDisplay string  `json:"currentBidDisplay"`
	BidCount          int     `json:"bidCount"`
	AuctionEndTime    *string `json:"auctionEndTime,omitempty"`
	AuctionStatus     *string `json:"auctionStatus"`
	CreatedAt         string  `json:"createdAt"`
	UpdatedAt         string  `json:"updatedAt"`
}

type CreateListingRequest struct {
	Title          string `json:"title"`
	Description    string `json:"description"`
	Category       string `json:"category"`
	Price          int64  `json:"price"`
	StartingBid    *int64 `json:"startingBid,omitempty"`
	AuctionEndTime string `json:"auctionEndTime,omitempty"`
}

type CreateListingResponse struct {
	Listing Listing `json:"listing"`
}

type GetListingRequest struct {
	ID string `json:"id"`
}

type GetListingResponse struct {
	Listing Listing `json:"listing"`
}

type ListAuctionsRequest struct {
	Page     int `json:"page"`
	PageSize int `json:"pageSize"`
}

type ListAuctionsResponse struct {
	Listings []Listing `json:"listings"`
	PageInfo
}

type Notification struct {
	ID        string `json:"id"`
	Kind      string `json:"kind"`
	ListingID string `json:"listingId"`
	Amount    int64  `json:"amount"`
	Message   string `json:"message"`
	CreatedAt string `json:"createdAt"`
}

type ListNotificationsRequest struct {
	Page     int `json:"page"`
	PageSize int `json:"pageSize"`
}

type ListNotificationsResponse struct {
	Notifications []Notification `json:"notifications"`
	PageInfo
}

func mapBid(b *bids.Bid) Bid {
	return Bid{
		ID:                b.ID.String(),
		ListingID:         b.ListingID.String(),
		BidderID:          b.BidderID.String(),
		BidderDisplayName: b.BidderDisplayName,
		Amount:            b.Amount,
		AmountDisplay:     money.Format(b.Amount),
		IsWinning:         b.IsWinning,
		IsActive:          b.IsActive,
		PlacedAt:          b.PlacedAt.Format(time.RFC3339),
	}
}

func mapBids(list []*bids.Bid) []Bid {
	out := make([]Bid, len(list))
	for i, b := range list {
		out[i] = mapBid(b)
	}
	return out
}

// mapListing converts a domain listing. auctionStatus is null for fixed-price listings.
func mapListing(l *listings.Listing, now time.Time) Listing {
	out := Listing{
		ID:                l.ID.String(),
		SellerID:          l.SellerID.String(),
		Title:             l.Title,
		Description:       l.Description,
		Category:          string(l.Category),
		Price:             l.Price,
		IsAuction:         l.IsAuction,
		StartingBid:       l.StartingBid,
		CurrentBid:        l.EffectiveCurrentBid(),
		CurrentBidDisplay: money.Format(l.EffectiveCurrentBid()),
		BidCount:          l.BidCount,
		CreatedAt:         l.CreatedAt.Format(time.RFC3339),
		UpdatedAt:         l.UpdatedAt.Format(time.RFC3339),
	}
	if l.AuctionEndTime != nil {
		end := l.AuctionEndTime.Format(time.RFC3339)
		out.AuctionEndTime = &end
	}
	if status := l.AuctionStatus(now); status != listings.AuctionStatusNone {
		s := string(status)
		out.AuctionStatus = &s
	}
	return out
}

func mapNotification(n *notifications.Notification) Notification {
	return Notification{
		ID:        n.ID.String(),
		Kind:      string(n.Kind),
		ListingID: n.ListingID.String(),
		Amount:    n.Amount,
		Message:   n.Message,
		CreatedAt: n.CreatedAt.Format(time.RFC3339),
	}
}
