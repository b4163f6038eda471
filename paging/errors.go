package paging

import (
	"errors"
	"fmt"

	"github.com/goliatone/go-pagecache/cache"
)

var (
	ErrInvalidRange    = errors.New("paging: invalid range")
	ErrInvalidPageSize = errors.New("paging: page size must be greater than 0")
	ErrNilFetcher      = errors.New("paging: range fetcher cannot be nil")
	ErrNilStore        = errors.New("paging: store cannot be nil")
)

// QueryError reports a failed range fetch for a query key.
type QueryError struct {
	Key   cache.QueryKey
	Range Range
	Err   error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("paging: fetch %s [start=%d length=%d]: %v", e.Key.String(), e.Range.Start, e.Range.Length, e.Err)
}

func (e *QueryError) Unwrap() error {
	return e.Err
}
