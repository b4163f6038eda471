package view

import (
	"github.com/goliatone/go-pagecache/filter"
	"github.com/goliatone/go-pagecache/paging"
)

// Model is what a table renders for one derivation.
type Model[T any] struct {
	Items         []T
	Page          int
	PageSize      int
	PageCount     int
	TotalCount    int
	FetchAll      bool
	IsPageLoading bool
	HasPrevious   bool
	HasNext       bool
	Stale         bool
	Err           error
}

// Derive computes the displayed slice and the effective counts from a
// query snapshot and an optional predicate.
//
// In fetch-all mode the filtered collection is paginated locally and the
// counts describe the filtered set; the page is clamped into it. In paged
// mode the predicate only narrows the current server page and the counts
// stay the server's.
func Derive[T any](status paging.Status[T], pred filter.Predicate[T]) Model[T] {
	filtered := filter.Apply(status.Items(), pred)

	m := Model[T]{
		Page:          status.Page,
		PageSize:      status.PageSize,
		FetchAll:      status.FetchAll,
		IsPageLoading: status.IsPageLoading,
		Stale:         status.Stale,
		Err:           status.Err,
	}

	if status.FetchAll {
		m.TotalCount = len(filtered)
		m.PageCount = paging.PageCount(m.TotalCount, status.PageSize)
		m.Page = localPage(status.Page, m.PageCount)
		m.Items = pageSlice(filtered, m.Page, status.PageSize)
	} else {
		m.TotalCount = status.TotalCount
		m.PageCount = status.PageCount
		m.Items = filtered
	}

	if m.Items == nil {
		m.Items = []T{}
	}
	m.HasPrevious = m.Page > 0
	m.HasNext = m.Page+1 < m.PageCount
	return m
}

func localPage(page, pageCount int) int {
	if pageCount == 0 {
		return 0
	}
	return paging.ClampPage(page, pageCount)
}

func pageSlice[T any](items []T, page, size int) []T {
	if size <= 0 {
		return nil
	}
	start := page * size
	if start >= len(items) {
		return nil
	}
	end := min(start+size, len(items))
	return items[start:end:end]
}
