package bids

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/mock"

	"github.com/floroz/tradepost/internal/domain/listings"
	"github.com/floroz/tradepost/pkg/database"
	"github.com/floroz/tradepost/pkg/events"
)

// memStore is an in-memory listing store and bid ledger. Writes apply
// immediately, so it is only suitable for flows that never fail half way.
type memStore struct {
	mu       sync.Mutex
	listings map[uuid.UUID]*listings.Listing
	bids     []*Bid
}

func newMemStore(ls ...*listings.Listing) *memStore {
	s := &memStore{listings: make(map[uuid.UUID]*listings.Listing)}
	for _, l := range ls {
		s.listings[l.ID] = l
	}
	return s
}

func (s *memStore) listing(id uuid.UUID) listings.Listing {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.listings[id]
}

func (s *memStore) bid(id uuid.UUID) Bid {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.bids {
		if b.ID == id {
			return *b
		}
	}
	return Bid{}
}

func (s *memStore) GetByIDForUpdate(_ context.Context, _ pgx.Tx, id uuid.UUID) (*listings.Listing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.listings[id]
	if !ok {
		return nil, listings.ErrListingNotFound
	}
	cp := *l
	return &cp, nil
}

func (s *memStore) UpdateAuctionState(_ context.Context, _ pgx.Tx, id uuid.UUID, currentBid int64, bidCount, expected int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	l := s.listings[id]
	if l.BidCount != expected {
		return database.ErrConflict
	}
	l.CurrentBid = currentBid
	l.BidCount = bidCount
	return nil
}

func (s *memStore) Append(_ context.Context, _ pgx.Tx, bid *Bid) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.bids {
		if bid.IsWinning && b.IsWinning && b.ListingID == bid.ListingID {
			return database.ErrConflict
		}
	}
	cp := *bid
	s.bids = append(s.bids, &cp)
	return nil
}

func (s *memStore) FindWinningByListing(_ context.Context, _ pgx.Tx, listingID uuid.UUID) ([]*Bid, error) {
	return s.filter(func(b *Bid) bool { return b.ListingID == listingID && b.IsWinning }), nil
}

func (s *memStore) SetWinning(_ context.Context, _ pgx.Tx, bidID uuid.UUID, winning bool) error {
	return s.update(bidID, func(b *Bid) { b.IsWinning = winning })
}

func (s *memStore) SetActive(_ context.Context, _ pgx.Tx, bidID uuid.UUID, active bool) error {
	return s.update(bidID, func(b *Bid) { b.IsActive = active })
}

func (s *memStore) QueryByListing(_ context.Context, listingID uuid.UUID, limit, offset int) ([]*Bid, int, error) {
	matched := s.filter(func(b *Bid) bool { return b.ListingID == listingID && b.IsActive })
	sort.SliceStable(matched, func(i, j int) bool {
		if matched[i].Amount != matched[j].Amount {
			return matched[i].Amount > matched[j].Amount
		}
		return matched[i].PlacedAt.After(matched[j].PlacedAt)
	})
	return paginate(matched, limit, offset), len(matched), nil
}

func (s *memStore) QueryByBidder(_ context.Context, bidderID uuid.UUID, filter BidderFilter, limit, offset int) ([]*Bid, int, error) {
	matched := s.filter(func(b *Bid) bool {
		if b.BidderID != bidderID {
			return false
		}
		switch filter {
		case BidderFilterWinning:
			return b.IsWinning
		case BidderFilterLost:
			return !b.IsWinning
		}
		return true
	})
	sort.SliceStable(matched, func(i, j int) bool { return matched[i].PlacedAt.After(matched[j].PlacedAt) })
	return paginate(matched, limit, offset), len(matched), nil
}

func (s *memStore) FindWinningByBidder(_ context.Context, bidderID uuid.UUID) ([]*Bid, error) {
	return s.filter(func(b *Bid) bool { return b.BidderID == bidderID && b.IsWinning }), nil
}

func (s *memStore) filter(keep func(*Bid) bool) []*Bid {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*Bid
	for _, b := range s.bids {
		if keep(b) {
			cp := *b
			out = append(out, &cp)
		}
	}
	return out
}

func (s *memStore) update(bidID uuid.UUID, fn func(*Bid)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.bids {
		if b.ID == bidID {
			fn(b)
			return nil
		}
	}
	return ErrBidNotFound
}

func paginate(bids []*Bid, limit, offset int) []*Bid {
	if offset >= len(bids) {
		return []*Bid{}
	}
	end := offset + limit
	if end > len(bids) {
		end = len(bids)
	}
	return bids[offset:end]
}

// memBids adapts memStore to BidRepository; GetByIDForUpdate collides with the
// listing store method of the same name.
type memBids struct {
	*memStore
}

func (m memBids) GetByIDForUpdate(_ context.Context, _ pgx.Tx, bidID uuid.UUID) (*Bid, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.bids {
		if b.ID == bidID {
			cp := *b
			return &cp, nil
		}
	}
	return nil, ErrBidNotFound
}

type memOutbox struct {
	mu     sync.Mutex
	events []*events.OutboxEvent
}

func (o *memOutbox) SaveEvent(_ context.Context, _ pgx.Tx, event *events.OutboxEvent) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events = append(o.events, event)
	return nil
}

func (o *memOutbox) ofType(t events.EventType) []*events.OutboxEvent {
	o.mu.Lock()
	defer o.mu.Unlock()
	var out []*events.OutboxEvent
	for _, e := range o.events {
		if e.EventType == t {
			out = append(out, e)
		}
	}
	return out
}

// Mocks for failure injection.

type MockListingStore struct {
	mock.Mock
}

func (m *MockListingStore) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, listingID uuid.UUID) (*listings.Listing, error) {
	args := m.Called(ctx, tx, listingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*listings.Listing), args.Error(1)
}

func (m *MockListingStore) UpdateAuctionState(ctx context.Context, tx pgx.Tx, listingID uuid.UUID, currentBid int64, bidCount, expectedBidCount int) error {
	args := m.Called(ctx, tx, listingID, currentBid, bidCount, expectedBidCount)
	return args.Error(0)
}

type MockBidRepository struct {
	mock.Mock
}

func (m *MockBidRepository) Append(ctx context.Context, tx pgx.Tx, bid *Bid) error {
	args := m.Called(ctx, tx, bid)
	return args.Error(0)
}

func (m *MockBidRepository) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, bidID uuid.UUID) (*Bid, error) {
	args := m.Called(ctx, tx, bidID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Bid), args.Error(1)
}

func (m *MockBidRepository) FindWinningByListing(ctx context.Context, tx pgx.Tx, listingID uuid.UUID) ([]*Bid, error) {
	args := m.Called(ctx, tx, listingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*Bid), args.Error(1)
}

func (m *MockBidRepository) SetWinning(ctx context.Context, tx pgx.Tx, bidID uuid.UUID, winning bool) error {
	args := m.Called(ctx, tx, bidID, winning)
	return args.Error(0)
}

func (m *MockBidRepository) SetActive(ctx context.Context, tx pgx.Tx, bidID uuid.UUID, active bool) error {
	args := m.Called(ctx, tx, bidID, active)
	return args.Error(0)
}

func (m *MockBidRepository) QueryByListing(ctx context.Context, listingID uuid.UUID, limit, offset int) ([]*Bid, int, error) {
	args := m.Called(ctx, listingID, limit, offset)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*Bid), args.Int(1), args.Error(2)
}

func (m *MockBidRepository) QueryByBidder(ctx context.Context, bidderID uuid.UUID, filter BidderFilter, limit, offset int) ([]*Bid, int, error) {
	args := m.Called(ctx, bidderID, filter, limit, offset)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*Bid), args.Int(1), args.Error(2)
}

func (m *MockBidRepository) FindWinningByBidder(ctx context.Context, bidderID uuid.UUID) ([]*Bid, error) {
	args := m.Called(ctx, bidderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*Bid), args.Error(1)
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
