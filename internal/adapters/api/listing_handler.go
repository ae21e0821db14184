package api

import (
	"context"
	"log/slog"
	"time"

	"connectrpc.com/connect"
	"github.com/google/uuid"

	"github.com/floroz/tradepost/internal/domain/listings"
)

// ListingService is implemented by listings.Service.
type ListingService interface {
	Now() time.Time
	CreateListing(ctx context.Context, cmd listings.CreateListingCommand) (*listings.Listing, error)
	GetListing(ctx context.Context, listingID uuid.UUID) (*listings.Listing, error)
	ListAuctions(ctx context.Context, page listings.PageRequest) (*listings.ListingPage, error)
}

type ListingHandler struct {
	service ListingService
	logger  *slog.Logger
}

func NewListingHandler(service ListingService, logger *slog.Logger) *ListingHandler {
	return &ListingHandler{service: service, logger: logger}
}

// CreateListing creates a listing for the caller. Collectibles become auctions.
func (h *ListingHandler) CreateListing(
	ctx context.Context,
	req *connect.Request[CreateListingRequest],
) (*connect.Response[CreateListingResponse], error) {
	sellerID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}

	cmd := listings.CreateListingCommand{
		SellerID:    sellerID,
		Title:       req.Msg.Title,
		Description: req.Msg.Description,
		Category:    listings.Category(req.Msg.Category),
		Price:       req.Msg.Price,
		StartingBid: req.Msg.StartingBid,
	}
	if req.Msg.AuctionEndTime != "" {
		end, err := time.Parse(time.RFC3339, req.Msg.AuctionEndTime)
		if err != nil {
			return nil, invalidArgument("invalid auctionEndTime format")
		}
		cmd.AuctionEndTime = &end
	}

	listing, err := h.service.CreateListing(ctx, cmd)
	if err != nil {
		return nil, fail(h.logger, CreateListingProcedure, err)
	}

	return connect.NewResponse(&CreateListingResponse{Listing: mapListing(listing, h.service.Now())}), nil
}

// GetListing retrieves a listing with its derived auction status
func (h *ListingHandler) GetListing(
	ctx context.Context,
	req *connect.Request[GetListingRequest],
) (*connect.Response[GetListingResponse], error) {
	listingID, err := parseID("id", req.Msg.ID)
	if err != nil {
		return nil, err
	}

	listing, err := h.service.GetListing(ctx, listingID)
	if err != nil {
		return nil, fail(h.logger, GetListingProcedure, err)
	}

	return connect.NewResponse(&GetListingResponse{Listing: mapListing(listing, h.service.Now())}), nil
}

// ListAuctions retrieves open auctions, ending soonest first
func (h *ListingHandler) ListAuctions(
	ctx context.Context,
	req *connect.Request[ListAuctionsRequest],
) (*connect.Response[ListAuctionsResponse], error) {
	page, err := h.service.ListAuctions(ctx, listings.PageRequest{
		Page:     req.Msg.Page,
		PageSize: req.Msg.PageSize,
	})
	if err != nil {
		return nil, fail(h.logger, ListAuctionsProcedure, err)
	}

	now := h.service.Now()
	out := make([]Listing, len(page.Listings))
	for i, l := range page.Listings {
		out[i] = mapListing(l, now)
	}

	return connect.NewResponse(&ListAuctionsResponse{
		Listings: out,
		PageInfo: newPageInfo(page.Total, page.Page, page.PageSize),
	}), nil
}
