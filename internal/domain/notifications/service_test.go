package notifications

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/floroz/tradepost/internal/domain/listings"
	"github.com/floroz/tradepost/pkg/events"
	"github.com/floroz/tradepost/pkg/testhelpers"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Save(ctx context.Context, tx pgx.Tx, n *Notification) error {
	args := m.Called(ctx, tx, n)
	return args.Error(0)
}

func (m *MockRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*Notification, int, error) {
	args := m.Called(ctx, userID, limit, offset)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*Notification), args.Int(1), args.Error(2)
}

func (m *MockRepository) IsEventProcessed(ctx context.Context, tx pgx.Tx, eventKey string) (bool, error) {
	args := m.Called(ctx, tx, eventKey)
	return args.Bool(0), args.Error(1)
}

func (m *MockRepository) MarkEventProcessed(ctx context.Context, tx pgx.Tx, eventKey string) error {
	args := m.Called(ctx, tx, eventKey)
	return args.Error(0)
}

func TestService_ProcessBidPlaced(t *testing.T) {
	previous, bidder := uuid.New(), uuid.New()
	event := &events.BidPlaced{BidID: uuid.New(), ListingID: uuid.New(), BidderID: bidder, Amount: 20000, PreviousWinnerID: previous}
	key := "bid.placed:" + event.BidID.String()

	t.Run("notifies the previous winner", func(t *testing.T) {
		repo, txm := new(MockRepository), testhelpers.NewFakeTxManager()
		repo.On("IsEventProcessed", mock.Anything, mock.Anything, key).Return(false, nil)
		repo.On("Save", mock.Anything, mock.Anything, mock.MatchedBy(func(n *Notification) bool {
			return n.UserID == previous && n.Kind == KindOutbid && n.Amount == 20000 &&
				n.Message == "You have been outbid. The current bid is 200.00."
		})).Return(nil)
		repo.On("MarkEventProcessed", mock.Anything, mock.Anything, key).Return(nil)

		require.NoError(t, NewService(repo, txm).ProcessBidPlaced(context.Background(), event))
		repo.AssertExpectations(t)
		assert.True(t, txm.LastTx().Committed())
	})

	t.Run("redelivery is acknowledged without notifying", func(t *testing.T) {
		repo, txm := new(MockRepository), testhelpers.NewFakeTxManager()
		repo.On("IsEventProcessed", mock.Anything, mock.Anything, key).Return(true, nil)

		require.NoError(t, NewService(repo, txm).ProcessBidPlaced(context.Background(), event))
		repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("first bid notifies nobody", func(t *testing.T) {
		first := &events.BidPlaced{BidID: uuid.New(), ListingID: uuid.New(), BidderID: bidder, Amount: 16000}
		repo, txm := new(MockRepository), testhelpers.NewFakeTxManager()
		repo.On("IsEventProcessed", mock.Anything, mock.Anything, mock.Anything).Return(false, nil)
		repo.On("MarkEventProcessed", mock.Anything, mock.Anything, mock.Anything).Return(nil)

		require.NoError(t, NewService(repo, txm).ProcessBidPlaced(context.Background(), first))
		repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything, mock.Anything)
		assert.True(t, txm.LastTx().Committed())
	})

	t.Run("save failure is returned for requeue", func(t *testing.T) {
		repo, txm := new(MockRepository), testhelpers.NewFakeTxManager()
		repo.On("IsEventProcessed", mock.Anything, mock.Anything, key).Return(false, nil)
		repo.On("Save", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("db down"))

		err := NewService(repo, txm).ProcessBidPlaced(context.Background(), event)
		require.Error(t, err)
		repo.AssertNotCalled(t, "MarkEventProcessed", mock.Anything, mock.Anything, mock.Anything)
		assert.True(t, txm.LastTx().RolledBack())
	})
}

func TestService_ProcessAuctionEnded(t *testing.T) {
	t.Run("sold", func(t *testing.T) {
		event := &events.AuctionEnded{ListingID: uuid.New(), SellerID: uuid.New(), WinnerID: uuid.New(), FinalPrice: 20000, BidCount: 2}
		repo, txm := new(MockRepository), testhelpers.NewFakeTxManager()
		repo.On("IsEventProcessed", mock.Anything, mock.Anything, "auction.ended:"+event.ListingID.String()).Return(false, nil)

		var saved []*Notification
		repo.On("Save", mock.Anything, mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) { saved = append(saved, args.Get(2).(*Notification)) }).
			Return(nil)
		repo.On("MarkEventProcessed", mock.Anything, mock.Anything, mock.Anything).Return(nil)

		require.NoError(t, NewService(repo, txm).ProcessAuctionEnded(context.Background(), event))

		require.Len(t, saved, 2)
		assert.Equal(t, event.WinnerID, saved[0].UserID)
		assert.Equal(t, KindAuctionWon, saved[0].Kind)
		assert.Equal(t, event.SellerID, saved[1].UserID)
		assert.Equal(t, KindAuctionSold, saved[1].Kind)
		assert.Contains(t, saved[1].Message, "200.00 after 2 bids")
	})

	t.Run("unsold", func(t *testing.T) {
		event := &events.AuctionEnded{ListingID: uuid.New(), SellerID: uuid.New()}
		repo, txm := new(MockRepository), testhelpers.NewFakeTxManager()
		repo.On("IsEventProcessed", mock.Anything, mock.Anything, mock.Anything).Return(false, nil)
		repo.On("Save", mock.Anything, mock.Anything, mock.MatchedBy(func(n *Notification) bool {
			return n.UserID == event.SellerID && n.Kind == KindAuctionUnsold
		})).Return(nil).Once()
		repo.On("MarkEventProcessed", mock.Anything, mock.Anything, mock.Anything).Return(nil)

		require.NoError(t, NewService(repo, txm).ProcessAuctionEnded(context.Background(), event))
		repo.AssertExpectations(t)
	})
}

func TestService_ListNotifications(t *testing.T) {
	repo := new(MockRepository)
	userID := uuid.New()
	repo.On("ListByUser", mock.Anything, userID, 10, 0).Return([]*Notification{{ID: uuid.New()}}, 1, nil)

	page, err := NewService(repo, testhelpers.NewFakeTxManager()).ListNotifications(context.Background(), userID, listings.PageRequest{})

	require.NoError(t, err)
	assert.Equal(t, 1, page.Total)
	assert.Equal(t, 1, page.Page)
	assert.Len(t, page.Notifications, 1)
}
