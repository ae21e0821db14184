package listings

import (
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func ptr[T any](v T) *T { return &v }

func TestCategory(t *testing.T) {
	assert.True(t, CategoryCollectibles.IsAuctionable())
	assert.False(t, CategoryElectronics.IsAuctionable())
	assert.False(t, CategoryPreciousMetals.IsAuctionable())
	assert.True(t, CategoryPreciousMetals.IsValid())
	assert.False(t, Category("furniture").IsValid())
}

func TestListing_EffectiveCurrentBid(t *testing.T) {
	tests := []struct {
		name    string
		listing Listing
		want    int64
	}{
		{name: "no bids, no starting bid", listing: Listing{}, want: 0},
		{name: "no bids, starting bid", listing: Listing{StartingBid: ptr(int64(15000))}, want: 15000},
		{name: "seeded from starting bid", listing: Listing{StartingBid: ptr(int64(15000)), CurrentBid: 15000}, want: 15000},
		{name: "after bids", listing: Listing{StartingBid: ptr(int64(15000)), CurrentBid: 20000, BidCount: 2}, want: 20000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.listing.EffectiveCurrentBid())
		})
	}
}

func TestListing_AuctionStatus(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	end := now.Add(time.Hour)

	auction := &Listing{Category: CategoryCollectibles, IsAuction: true, AuctionEndTime: &end}
	assert.Equal(t, AuctionStatusActive, auction.AuctionStatus(now))
	assert.Equal(t, AuctionStatusActive, auction.AuctionStatus(end), "the end instant itself is still active")
	assert.Equal(t, AuctionStatusEnded, auction.AuctionStatus(end.Add(time.Nanosecond)))

	open := &Listing{Category: CategoryCollectibles, IsAuction: true}
	assert.Equal(t, AuctionStatusActive, open.AuctionStatus(now.Add(1000*time.Hour)))

	fixedPrice := &Listing{Category: CategoryElectronics}
	assert.Equal(t, AuctionStatusNone, fixedPrice.AuctionStatus(now))

	flagOnly := &Listing{Category: CategoryElectronics, IsAuction: true, AuctionEndTime: &end}
	assert.False(t, flagOnly.AcceptsBids())
}

func TestApplyCreationPolicy(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	t.Run("collectible becomes an auction with defaults", func(t *testing.T) {
		l := &Listing{Category: CategoryCollectibles, StartingBid: ptr(int64(15000))}
		ApplyCreationPolicy(l, now)

		assert.True(t, l.IsAuction)
		assert.Equal(t, int64(15000), l.CurrentBid)
		assert.Zero(t, l.BidCount)
		if assert.NotNil(t, l.AuctionEndTime) {
			assert.Equal(t, now.Add(7*24*time.Hour), *l.AuctionEndTime)
		}
	})

	t.Run("explicit end time is kept", func(t *testing.T) {
		end := now.Add(48 * time.Hour)
		l := &Listing{Category: CategoryCollectibles, AuctionEndTime: &end}
		ApplyCreationPolicy(l, now)

		assert.Equal(t, end, *l.AuctionEndTime)
		assert.Zero(t, l.CurrentBid)
	})

	t.Run("other categories carry no auction state", func(t *testing.T) {
		end := now.Add(48 * time.Hour)
		l := &Listing{Category: CategoryElectronics, IsAuction: true, StartingBid: ptr(int64(100)), AuctionEndTime: &end}
		ApplyCreationPolicy(l, now)

		assert.False(t, l.IsAuction)
		assert.Nil(t, l.StartingBid)
		assert.Nil(t, l.AuctionEndTime)
		assert.Zero(t, l.CurrentBid)
	})
}

func TestPageRequest_Normalize(t *testing.T) {
	tests := []struct {
		in         PageRequest
		want       PageRequest
		wantOffset int
	}{
		{in: PageRequest{}, want: PageRequest{Page: 1, PageSize: 10}, wantOffset: 0},
		{in: PageRequest{Page: 3, PageSize: 20}, want: PageRequest{Page: 3, PageSize: 20}, wantOffset: 40},
		{in: PageRequest{Page: -2, PageSize: 1000}, want: PageRequest{Page: 1, PageSize: 100}, wantOffset: 0},
		{in: PageRequest{Page: 0, PageSize: 5}, want: PageRequest{Page: 1, PageSize: 5}, wantOffset: 0},
		{in: PageRequest{Page: math.MaxInt / 10, PageSize: 100}, want: PageRequest{Page: MaxPage, PageSize: 100}, wantOffset: (MaxPage - 1) * 100},
	}

	for _, tt := range tests {
		got := tt.in.Normalize()
		assert.Equal(t, tt.want, got)
		assert.Equal(t, tt.wantOffset, got.Offset())
		assert.GreaterOrEqual(t, got.Offset(), 0)
	}
}

func TestTopic(t *testing.T) {
	id := uuid.MustParse("5f0c6f8e-2f43-4c8e-9a53-0d6c1d0f5a11")
	assert.Equal(t, "listing-5f0c6f8e-2f43-4c8e-9a53-0d6c1d0f5a11", Topic(id))
}
