package events

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	pkgevents "github.com/floroz/tradepost/pkg/events"
)

type MockProcessor struct {
	mock.Mock
}

func (m *MockProcessor) ProcessBidPlaced(ctx context.Context, event *pkgevents.BidPlaced) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockProcessor) ProcessAuctionEnded(ctx context.Context, event *pkgevents.AuctionEnded) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func newTestConsumer(p NotificationProcessor) *NotificationConsumer {
	return NewNotificationConsumer(nil, p, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestNotificationConsumer_Handle(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("bid placed is decoded and dispatched", func(t *testing.T) {
		processor := new(MockProcessor)
		consumer := newTestConsumer(processor)

		event := &pkgevents.BidPlaced{
			BidID:            uuid.New(),
			ListingID:        uuid.New(),
			BidderID:         uuid.New(),
			Amount:           12500,
			BidCount:         2,
			PreviousWinnerID: uuid.New(),
			PlacedAt:         now,
		}
		body, err := event.Marshal()
		require.NoError(t, err)

		processor.On("ProcessBidPlaced", ctx, mock.MatchedBy(func(got *pkgevents.BidPlaced) bool {
			return got.BidID == event.BidID && got.PreviousWinnerID == event.PreviousWinnerID && got.Amount == 12500
		})).Return(nil)

		require.NoError(t, consumer.Handle(ctx, pkgevents.EventTypeBidPlaced.String(), body))
		processor.AssertExpectations(t)
	})

	t.Run("auction ended is decoded and dispatched", func(t *testing.T) {
		processor := new(MockProcessor)
		consumer := newTestConsumer(processor)

		event := &pkgevents.AuctionEnded{
			ListingID:  uuid.New(),
			SellerID:   uuid.New(),
			FinalPrice: 9900,
			EndedAt:    now,
		}
		body, err := event.Marshal()
		require.NoError(t, err)

		processor.On("ProcessAuctionEnded", ctx, mock.MatchedBy(func(got *pkgevents.AuctionEnded) bool {
			return got.ListingID == event.ListingID && got.WinnerID == uuid.Nil
		})).Return(nil)

		require.NoError(t, consumer.Handle(ctx, pkgevents.EventTypeAuctionEnded.String(), body))
		processor.AssertExpectations(t)
	})

	t.Run("processing errors are returned for requeue", func(t *testing.T) {
		processor := new(MockProcessor)
		consumer := newTestConsumer(processor)

		body, err := (&pkgevents.BidPlaced{BidID: uuid.New(), PlacedAt: now}).Marshal()
		require.NoError(t, err)

		processor.On("ProcessBidPlaced", ctx, mock.Anything).Return(errors.New("db down"))

		err = consumer.Handle(ctx, pkgevents.EventTypeBidPlaced.String(), body)
		require.Error(t, err)
		assert.NotErrorIs(t, err, errMalformed)
	})

	t.Run("garbage payload is malformed", func(t *testing.T) {
		processor := new(MockProcessor)
		consumer := newTestConsumer(processor)

		err := consumer.Handle(ctx, pkgevents.EventTypeBidPlaced.String(), []byte{0xff, 0xff, 0xff})
		assert.ErrorIs(t, err, errMalformed)
		processor.AssertNotCalled(t, "ProcessBidPlaced", mock.Anything, mock.Anything)
	})

	t.Run("unknown routing key is malformed", func(t *testing.T) {
		consumer := newTestConsumer(new(MockProcessor))

		err := consumer.Handle(ctx, pkgevents.EventTypeBidCancelled.String(), nil)
		assert.ErrorIs(t, err, errMalformed)
	})
}
