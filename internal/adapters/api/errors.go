package api

import (
	"context"
	"errors"
	"log/slog"
	"strconv"

	"connectrpc.com/connect"
	"github.com/google/uuid"

	"github.com/floroz/tradepost/internal/domain/bids"
	"github.com/floroz/tradepost/internal/domain/listings"
	"github.com/floroz/tradepost/pkg/auth"
)

// CurrentBidHeader carries the price a rejected bid had to beat.
const CurrentBidHeader = "Current-Bid"

var errUnauthenticated = errors.New("unauthenticated")

// toConnectError maps domain errors to connect codes.
func toConnectError(err error) error {
	var tooLow *bids.BidTooLowError
	switch {
	case errors.As(err, &tooLow):
		cerr := connect.NewError(connect.CodeFailedPrecondition, err)
		cerr.Meta().Set(CurrentBidHeader, strconv.FormatInt(tooLow.CurrentBid, 10))
		return cerr

	case errors.Is(err, listings.ErrListingNotFound),
		errors.Is(err, bids.ErrBidNotFound):
		return connect.NewError(connect.CodeNotFound, err)

	case errors.Is(err, bids.ErrNotEligible),
		errors.Is(err, bids.ErrAuctionEnded),
		errors.Is(err, bids.ErrBidTooLow),
		errors.Is(err, bids.ErrCannotCancelWinning):
		return connect.NewError(connect.CodeFailedPrecondition, err)

	case errors.Is(err, bids.ErrSellerCannotBid),
		errors.Is(err, bids.ErrUnauthorized):
		return connect.NewError(connect.CodePermissionDenied, err)

	case errors.Is(err, bids.ErrInvalidFilter),
		errors.Is(err, listings.ErrInvalidTitle),
		errors.Is(err, listings.ErrInvalidDescription),
		errors.Is(err, listings.ErrInvalidCategory),
		errors.Is(err, listings.ErrInvalidPrice),
		errors.Is(err, listings.ErrInvalidStartingBid),
		errors.Is(err, listings.ErrInvalidEndTime):
		return connect.NewError(connect.CodeInvalidArgument, err)

	case errors.Is(err, bids.ErrRetryable):
		return connect.NewError(connect.CodeAborted, bids.ErrRetryable)

	case errors.Is(err, bids.ErrUnavailable):
		return connect.NewError(connect.CodeUnavailable, bids.ErrUnavailable)

	default:
		return connect.NewError(connect.CodeInternal, errors.New("internal error"))
	}
}

func invalidArgument(msg string) error {
	return connect.NewError(connect.CodeInvalidArgument, errors.New(msg))
}

// fail maps err and logs the failures a caller cannot act on.
func fail(logger *slog.Logger, procedure string, err error) error {
	cerr := toConnectError(err)
	if code := connect.CodeOf(cerr); code == connect.CodeInternal || code == connect.CodeUnavailable {
		logger.Error("Request failed", "procedure", procedure, "error", err)
	}
	return cerr
}

// callerID returns the authenticated user. The auth interceptor guarantees
// it for protected procedures.
func callerID(ctx context.Context) (uuid.UUID, error) {
	id, ok := auth.GetUserID(ctx)
	if !ok {
		return uuid.Nil, connect.NewError(connect.CodeUnauthenticated, errUnauthenticated)
	}
	return id, nil
}

func parseID(field, value string) (uuid.UUID, error) {
	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, invalidArgument("invalid " + field)
	}
	return id, nil
}
