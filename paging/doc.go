// Package paging keeps the page state of a collection view consistent with
// the shared cache.Store.
//
// A Query maps (page, pageSize, fetchAll) to a Range and a store key:
//
//	series := cache.Key("series")
//	q, err := paging.NewQuery(store, series, fetcher, paging.WithPageSize[Series](25))
//	status, err := q.Load(ctx)
//
//	q.GotoPage(1)      // ignored when out of range
//	q.SetFetchAll(true) // page resets to 0
//
// Paged and fetch-all results live under different keys, so toggling the mode
// never reuses the other mode's data. When the server total shrinks the page
// index is clamped in the same step that records the new total.
//
// With write-through enabled (the default) every fetched item is also stored
// under base key + id, where Item can read it without a request.
package paging
