package api

import (
	"context"
	"log/slog"

	"connectrpc.com/connect"
	"github.com/google/uuid"

	"github.com/floroz/tradepost/internal/domain/bids"
	"github.com/floroz/tradepost/internal/domain/listings"
	"github.com/floroz/tradepost/pkg/auth"
	"github.com/floroz/tradepost/pkg/money"
)

// AuctionService is implemented by bids.AuctionService.
type AuctionService interface {
	PlaceBid(ctx context.Context, cmd bids.PlaceBidCommand) (*bids.PlaceBidResult, error)
	CancelBid(ctx context.Context, cmd bids.CancelBidCommand) (*bids.Bid, error)
	ListBidsForListing(ctx context.Context, listingID uuid.UUID, page listings.PageRequest) (*bids.BidPage, error)
	ListBidsForBidder(ctx context.Context, bidderID uuid.UUID, filter bids.BidderFilter, page listings.PageRequest) (*bids.BidPage, error)
	ListWinningBidsForBidder(ctx context.Context, bidderID uuid.UUID) ([]*bids.Bid, error)
}

type AuctionHandler struct {
	service AuctionService
	logger  *slog.Logger
}

func NewAuctionHandler(service AuctionService, logger *slog.Logger) *AuctionHandler {
	return &AuctionHandler{service: service, logger: logger}
}

func (h *AuctionHandler) PlaceBid(
	ctx context.Context,
	req *connect.Request[PlaceBidRequest],
) (*connect.Response[PlaceBidResponse], error) {
	// 1. Get user ID from context (guaranteed by auth interceptor)
	bidderID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}

	// 2. Validation / Mapping
	listingID, err := parseID("listingId", req.Msg.ListingID)
	if err != nil {
		return nil, err
	}

	// 3. Execution
	result, err := h.service.PlaceBid(ctx, bids.PlaceBidCommand{
		ListingID:         listingID,
		BidderID:          bidderID,
		BidderDisplayName: auth.GetDisplayName(ctx),
		Amount:            req.Msg.Amount,
	})
	if err != nil {
		return nil, fail(h.logger, PlaceBidProcedure, err)
	}

	// 4. Response Mapping
	return connect.NewResponse(&PlaceBidResponse{
		Bid:               mapBid(result.Bid),
		CurrentBid:        result.CurrentBid,
		CurrentBidDisplay: money.Format(result.CurrentBid),
		BidCount:          result.BidCount,
	}), nil
}

func (h *AuctionHandler) CancelBid(
	ctx context.Context,
	req *connect.Request[CancelBidRequest],
) (*connect.Response[CancelBidResponse], error) {
	requesterID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}

	bidID, err := parseID("bidId", req.Msg.BidID)
	if err != nil {
		return nil, err
	}

	bid, err := h.service.CancelBid(ctx, bids.CancelBidCommand{BidID: bidID, RequesterID: requesterID})
	if err != nil {
		return nil, fail(h.logger, CancelBidProcedure, err)
	}

	return connect.NewResponse(&CancelBidResponse{Bid: mapBid(bid)}), nil
}

// ListListingBids is public: anyone can see the bid history of a listing.
func (h *AuctionHandler) ListListingBids(
	ctx context.Context,
	req *connect.Request[ListListingBidsRequest],
) (*connect.Response[ListBidsResponse], error) {
	listingID, err := parseID("listingId", req.Msg.ListingID)
	if err != nil {
		return nil, err
	}

	page, err := h.service.ListBidsForListing(ctx, listingID, listings.PageRequest{
		Page:     req.Msg.Page,
		PageSize: req.Msg.PageSize,
	})
	if err != nil {
		return nil, fail(h.logger, ListListingBidsProcedure, err)
	}

	return connect.NewResponse(newBidsResponse(page)), nil
}

func (h *AuctionHandler) ListMyBids(
	ctx context.Context,
	req *connect.Request[ListMyBidsRequest],
) (*connect.Response[ListBidsResponse], error) {
	bidderID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}

	page, err := h.service.ListBidsForBidder(ctx, bidderID, bids.BidderFilter(req.Msg.Status), listings.PageRequest{
		Page:     req.Msg.Page,
		PageSize: req.Msg.PageSize,
	})
	if err != nil {
		return nil, fail(h.logger, ListMyBidsProcedure, err)
	}

	return connect.NewResponse(newBidsResponse(page)), nil
}

func (h *AuctionHandler) ListWinningBids(
	ctx context.Context,
	_ *connect.Request[ListWinningBidsRequest],
) (*connect.Response[ListWinningBidsResponse], error) {
	bidderID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}

	winning, err := h.service.ListWinningBidsForBidder(ctx, bidderID)
	if err != nil {
		return nil, fail(h.logger, ListWinningBidsProcedure, err)
	}

	return connect.NewResponse(&ListWinningBidsResponse{Bids: mapBids(winning)}), nil
}

func newBidsResponse(page *bids.BidPage) *ListBidsResponse {
	return &ListBidsResponse{
		Bids:     mapBids(page.Bids),
		PageInfo: newPageInfo(page.Total, page.Page, page.PageSize),
	}
}
