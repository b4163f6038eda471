package paging

import (
	"context"
	"fmt"
)

// All is the Range length that requests the whole collection.
const All = -1

// Range is a contiguous slice request: Start is the zero based offset,
// Length the number of items or All.
type Range struct {
	Start  int `json:"start"`
	Length int `json:"length"`
}

// IsAll reports whether r requests the whole collection.
func (r Range) IsAll() bool {
	return r.Length == All
}

// Validate rejects ranges a fetcher cannot serve.
func (r Range) Validate() error {
	switch {
	case r.Start < 0:
		return fmt.Errorf("%w: start %d is negative", ErrInvalidRange, r.Start)
	case r.Length < All || r.Length == 0:
		return fmt.Errorf("%w: length %d", ErrInvalidRange, r.Length)
	case r.IsAll() && r.Start != 0:
		return fmt.Errorf("%w: fetch-all must start at 0, got %d", ErrInvalidRange, r.Start)
	}
	return nil
}

// PageResult is one response of a RangeFetcher. Total is the unfiltered
// size of the whole collection on the server.
type PageResult[T any] struct {
	Items []T `json:"data"`
	Total int `json:"total"`
}

// RangeFetcher loads a range of a collection from the server.
type RangeFetcher[T any] func(ctx context.Context, r Range) (PageResult[T], error)

// DeriveRange maps pagination state to the range to request.
func DeriveRange(page, pageSize int, fetchAll bool) Range {
	if fetchAll {
		return Range{Start: 0, Length: All}
	}
	return Range{Start: page * pageSize, Length: pageSize}
}

// PageCount is ceil(total/pageSize); 0 for an empty collection.
func PageCount(total, pageSize int) int {
	if total <= 0 || pageSize <= 0 {
		return 0
	}
	return (total + pageSize - 1) / pageSize
}

// ClampPage keeps page inside [0, pageCount). A pageCount of 0 leaves page
// untouched.
func ClampPage(page, pageCount int) int {
	if pageCount == 0 {
		return page
	}
	if page >= pageCount {
		return pageCount - 1
	}
	if page < 0 {
		return 0
	}
	return page
}
