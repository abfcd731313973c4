package shared

import (
	"math"
	"net/http"
	"strconv"
)

const (
	defaultPage  = 1
	defaultLimit = 10
	maxLimit     = 100
)

// ListOptions captures the pagination and free-text search parameters shared
// by every search endpoint.
type ListOptions struct {
	Page   int
	Limit  int
	Search string
}

// ParseListOptions reads page, limit and search from the query string,
// clamping out-of-range values to defaults.
func ParseListOptions(r *http.Request) ListOptions {
	opts := ListOptions{Page: defaultPage, Limit: defaultLimit}
	q := r.URL.Query()
	if page, err := strconv.Atoi(q.Get("page")); err == nil && page > 0 {
		opts.Page = page
	}
	if limit, err := strconv.Atoi(q.Get("limit")); err == nil && limit > 0 {
		opts.Limit = min(limit, maxLimit)
	}
	opts.Search = q.Get("search")
	return opts
}

// Offset returns the row offset for the current page.
func (o ListOptions) Offset() int {
	return (o.Page - 1) * o.Limit
}

// Meta is the pagination envelope attached to search responses.
type Meta struct {
	CurrentPage int  `json:"currentPage"`
	TotalPages  int  `json:"totalPages"`
	PageSize    int  `json:"pageSize"`
	TotalItems  int  `json:"totalItems"`
	HasMore     bool `json:"hasMore"`
}

// NewMeta computes pagination metadata for a result set of total rows.
func NewMeta(opts ListOptions, total int) Meta {
	totalPages := int(math.Ceil(float64(total) / float64(opts.Limit)))
	return Meta{
		CurrentPage: opts.Page,
		TotalPages:  totalPages,
		PageSize:    opts.Limit,
		TotalItems:  total,
		HasMore:     opts.Page*opts.Limit < total,
	}
}
