// Package repositorysource connects go-repository-bun repositories to the
// paging engine.
//
// NewRangeFetcher turns a repository List into a paging.RangeFetcher:
//
//	fetch := repositorysource.NewRangeFetcher[Series](repo, repositorysource.WithOrder("title ASC"))
//	q, err := paging.NewQuery(store, repositorysource.CollectionKey[Series](), fetch)
//
// Paged ranges become OFFSET/LIMIT criteria. Fetch-all ranges add no limit.
//
// InvalidatingWriter wraps the write side. After a successful write it marks
// the collection prefix stale, so every page and the fetch-all entry of the
// collection refetch on their next read while still showing the old data:
//
//	writer := repositorysource.NewInvalidatingWriter[Series](repo, store, repositorysource.CollectionKey[Series]())
//	ctx = repositorysource.WithInvalidationKeys(ctx, cache.Key("system", "status"))
//	_, err := writer.Update(ctx, series)
package repositorysource
