package listings

import "math"

const (
	DefaultPageSize = 10
	MaxPageSize     = 100

	// MaxPage keeps Offset within int32 for every page size.
	MaxPage = math.MaxInt32 / MaxPageSize
)

// PageRequest selects a 1-based page of results.
type PageRequest struct {
	Page     int
	PageSize int
}

// Normalize applies defaults and clamps the page and page size.
func (p PageRequest) Normalize() PageRequest {
	switch {
	case p.Page < 1:
		p.Page = 1
	case p.Page > MaxPage:
		p.Page = MaxPage
	}
	switch {
	case p.PageSize <= 0:
		p.PageSize = DefaultPageSize
	case p.PageSize > MaxPageSize:
		p.PageSize = MaxPageSize
	}
	return p
}

func (p PageRequest) Offset() int {
	return (p.Page - 1) * p.PageSize
}
