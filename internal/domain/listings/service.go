package listings

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

const (
	maxTitleLength       = 200
	maxDescriptionLength = 2000
)

// Service errors
var (
	ErrListingNotFound    = errors.New("listing not found")
	ErrInvalidTitle       = errors.New("title is required and must be at most 200 characters")
	ErrInvalidDescription = errors.New("description must be at most 2000 characters")
	ErrInvalidCategory    = errors.New("category must be one of electronics, precious_metals, collectibles")
	ErrInvalidPrice       = errors.New("price must not be negative")
	ErrInvalidStartingBid = errors.New("starting bid must not be negative")
	ErrInvalidEndTime     = errors.New("auction end time must be in the future")
)

// CreateListingCommand represents the command to create a new listing
type CreateListingCommand struct {
	SellerID       uuid.UUID
	Title          string
	Description    string
	Category       Category
	Price          int64
	StartingBid    *int64
	AuctionEndTime *time.Time
}

// ListingPage is one page of listings and the total number of matches.
type ListingPage struct {
	Listings []*Listing
	Total    int
	Page     int
	PageSize int
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// Service implements listing creation and reads
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService creates a new listing service
func NewService(repo Repository, opts ...Option) *Service {
	s := &Service{repo: repo, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Now returns the service clock.
func (s *Service) Now() time.Time {
	return s.now()
}

// CreateListing validates the command, applies the creation policy and stores the listing.
func (s *Service) CreateListing(ctx context.Context, cmd CreateListingCommand) (*Listing, error) {
	now := s.now()

	if cmd.Title == "" || utf8.RuneCountInString(cmd.Title) > maxTitleLength {
		return nil, ErrInvalidTitle
	}
	if utf8.RuneCountInString(cmd.Description) > maxDescriptionLength {
		return nil, ErrInvalidDescription
	}
	if !cmd.Category.IsValid() {
		return nil, ErrInvalidCategory
	}
	if cmd.Price < 0 {
		return nil, ErrInvalidPrice
	}
	if cmd.StartingBid != nil && *cmd.StartingBid < 0 {
		return nil, ErrInvalidStartingBid
	}
	if cmd.AuctionEndTime != nil && !cmd.AuctionEndTime.After(now) {
		return nil, ErrInvalidEndTime
	}

	listing := &Listing{
		ID:             uuid.New(),
		SellerID:       cmd.SellerID,
		Title:          cmd.Title,
		Description:    cmd.Description,
		Category:       cmd.Category,
		Price:          cmd.Price,
		StartingBid:    cmd.StartingBid,
		AuctionEndTime: cmd.AuctionEndTime,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	ApplyCreationPolicy(listing, now)

	if err := s.repo.Create(ctx, listing); err != nil {
		return nil, fmt.Errorf("failed to create listing: %w", err)
	}

	return listing, nil
}

// GetListing retrieves a listing by ID
func (s *Service) GetListing(ctx context.Context, listingID uuid.UUID) (*Listing, error) {
	listing, err := s.repo.GetByID(ctx, listingID)
	if err != nil {
		if errors.Is(err, ErrListingNotFound) {
			return nil, ErrListingNotFound
		}
		return nil, fmt.Errorf("failed to get listing: %w", err)
	}
	return listing, nil
}

// ListAuctions returns auctions that are still accepting bids.
func (s *Service) ListAuctions(ctx context.Context, page PageRequest) (*ListingPage, error) {
	page = page.Normalize()

	listings, total, err := s.repo.ListActiveAuctions(ctx, s.now(), page.PageSize, page.Offset())
	if err != nil {
		return nil, fmt.Errorf("failed to list auctions: %w", err)
	}

	return &ListingPage{
		Listings: listings,
		Total:    total,
		Page:     page.Page,
		PageSize: page.PageSize,
	}, nil
}
