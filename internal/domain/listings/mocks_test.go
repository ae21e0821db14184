package listings

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/mock"

	"github.com/floroz/tradepost/pkg/events"
)

// MockRepository is a mock implementation of Repository for testing
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Create(ctx context.Context, listing *Listing) error {
	args := m.Called(ctx, listing)
	return args.Error(0)
}

func (m *MockRepository) GetByID(ctx context.Context, listingID uuid.UUID) (*Listing, error) {
	args := m.Called(ctx, listingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Listing), args.Error(1)
}

func (m *MockRepository) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, listingID uuid.UUID) (*Listing, error) {
	args := m.Called(ctx, tx, listingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Listing), args.Error(1)
}

func (m *MockRepository) UpdateAuctionState(ctx context.Context, tx pgx.Tx, listingID uuid.UUID, currentBid int64, bidCount, expectedBidCount int) error {
	args := m.Called(ctx, tx, listingID, currentBid, bidCount, expectedBidCount)
	return args.Error(0)
}

func (m *MockRepository) ListActiveAuctions(ctx context.Context, now time.Time, limit, offset int) ([]*Listing, int, error) {
	args := m.Called(ctx, now, limit, offset)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*Listing), args.Int(1), args.Error(2)
}

func (m *MockRepository) ClaimEndedAuctions(ctx context.Context, tx pgx.Tx, now time.Time, limit int) ([]*EndedAuction, error) {
	args := m.Called(ctx, tx, now, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*EndedAuction), args.Error(1)
}

func (m *MockRepository) MarkEndAnnounced(ctx context.Context, tx pgx.Tx, listingID uuid.UUID, at time.Time) error {
	args := m.Called(ctx, tx, listingID, at)
	return args.Error(0)
}

type MockOutboxRepository struct {
	mock.Mock
}

func (m *MockOutboxRepository) SaveEvent(ctx context.Context, tx pgx.Tx, event *events.OutboxEvent) error {
	args := m.Called(ctx, tx, event)
	return args.Error(0)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, topic, eventType string, payload any) error {
	args := m.Called(ctx, topic, eventType, payload)
	return args.Error(0)
}
