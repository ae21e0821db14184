package api_test

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/floroz/tradepost/internal/domain/bids"
	"github.com/floroz/tradepost/internal/domain/listings"
	"github.com/floroz/tradepost/internal/domain/notifications"
)

type MockAuctionService struct {
	mock.Mock
}

func (m *MockAuctionService) PlaceBid(ctx context.Context, cmd bids.PlaceBidCommand) (*bids.PlaceBidResult, error) {
	args := m.Called(ctx, cmd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*bids.PlaceBidResult), args.Error(1)
}

func (m *MockAuctionService) CancelBid(ctx context.Context, cmd bids.CancelBidCommand) (*bids.Bid, error) {
	args := m.Called(ctx, cmd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*bids.Bid), args.Error(1)
}

func (m *MockAuctionService) ListBidsForListing(ctx context.Context, listingID uuid.UUID, page listings.PageRequest) (*bids.BidPage, error) {
	args := m.Called(ctx, listingID, page)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*bids.BidPage), args.Error(1)
}

func (m *MockAuctionService) ListBidsForBidder(ctx context.Context, bidderID uuid.UUID, filter bids.BidderFilter, page listings.PageRequest) (*bids.BidPage, error) {
	args := m.Called(ctx, bidderID, filter, page)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*bids.BidPage), args.Error(1)
}

func (m *MockAuctionService) ListWinningBidsForBidder(ctx context.Context, bidderID uuid.UUID) ([]*bids.Bid, error) {
	args := m.Called(ctx, bidderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*bids.Bid), args.Error(1)
}

type MockListingService struct {
	mock.Mock
	now time.Time
}

func (m *MockListingService) Now() time.Time {
	return m.now
}

func (m *MockListingService) CreateListing(ctx context.Context, cmd listings.CreateListingCommand) (*listings.Listing, error) {
	args := m.Called(ctx, cmd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*listings.Listing), args.Error(1)
}

func (m *MockListingService) GetListing(ctx context.Context, listingID uuid.UUID) (*listings.Listing, error) {
	args := m.Called(ctx, listingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*listings.Listing), args.Error(1)
}

func (m *MockListingService) ListAuctions(ctx context.Context, page listings.PageRequest) (*listings.ListingPage, error) {
	args := m.Called(ctx, page)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*listings.ListingPage), args.Error(1)
}

type MockNotificationService struct {
	mock.Mock
}

func (m *MockNotificationService) ListNotifications(ctx context.Context, userID uuid.UUID, page listings.PageRequest) (*notifications.NotificationPage, error) {
	args := m.Called(ctx, userID, page)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*notifications.NotificationPage), args.Error(1)
}
