package shared

import (
	"net/http"
	"strconv"
)

const (
	// DefaultPageSize applies when the caller gives no limit.
	DefaultPageSize = 20
	// MaxPageSize caps a single listing response.
	MaxPageSize = 100
)

// PageRequest is the listing window parsed from limit/offset query
// parameters.
type PageRequest struct {
	Limit  int
	Offset int
}

// ParsePageRequest reads limit and offset from the request. Missing,
// malformed or out-of-range values fall back to the default size and a zero
// offset.
func ParsePageRequest(r *http.Request) PageRequest {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 {
		limit = DefaultPageSize
	} else if limit > MaxPageSize {
		limit = MaxPageSize
	}
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	if offset < 0 {
		offset = 0
	}
	return PageRequest{Limit: limit, Offset: offset}
}
