// Package paging parses page/limit query parameters and computes page counts.
package paging

import (
	"math"
	"net/url"
	"strconv"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100

	// MaxPage keeps (MaxPage-1)*MaxLimit within int.
	MaxPage = math.MaxInt / MaxLimit
)

// Params is a 1-based page request.
type Params struct {
	Page  int
	Limit int
}

// FromQuery reads page and limit. Missing, non-numeric or non-positive values
// fall back to the defaults. Limit is capped at MaxLimit and page at MaxPage.
func FromQuery(q url.Values) Params {
	p := Params{
		Page:  positiveOr(q.Get("page"), DefaultPage),
		Limit: positiveOr(q.Get("limit"), DefaultLimit),
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	if p.Page > MaxPage {
		p.Page = MaxPage
	}
	return p
}

// Offset is the number of rows to skip: (page-1)*limit.
func (p Params) Offset() int {
	return (p.Page - 1) * p.Limit
}

// TotalPages is ceil(total/limit).
func (p Params) TotalPages(total int) int {
	if p.Limit <= 0 || total <= 0 {
		return 0
	}
	return (total + p.Limit - 1) / p.Limit
}

func positiveOr(raw string, fallback int) int {
	v, err := strconv.Atoi(raw)
	if err != nil || v < 1 {
		return fallback
	}
	return v
}

// Response is the envelope of every paginated listing.
type Response[T any] struct {
	TotalItems  int `json:"totalItems"`
	CurrentPage int `json:"currentPage"`
	TotalPages  int `json:"totalPages"`
	Items       []T `json:"items"`
}

// NewResponse wraps one page of items. A nil slice is rendered as [].
func NewResponse[T any](p Params, total int, items []T) Response[T] {
	if items == nil {
		items = []T{}
	}
	return Response[T]{
		TotalItems:  total,
		CurrentPage: p.Page,
		TotalPages:  p.TotalPages(total),
		Items:       items,
	}
}
