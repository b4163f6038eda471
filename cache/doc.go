// Package cache provides the shared query store and the key model used by
// paginated collection queries.
//
// # Overview
//
// The package exports:
//
//   - Store: a keyed cache of fetched values with stale-while-revalidate reads,
//     per key request deduplication and prefix invalidation
//   - QueryKey: an ordered tuple identifying a query; collections are prefixes
//   - KeySerializer: turns QueryKey parts into stable strings
//
// # Basic Usage
//
//	store, err := cache.NewStore(cache.DefaultConfig())
//	key := cache.Key("series").Append(cache.RangeSegment, cache.RangePage(0, 50))
//
//	page, err := cache.Fetch(ctx, store, key, 30*time.Second, func(ctx context.Context) (Page, error) {
//		return client.ListSeries(ctx, 0, 50)
//	})
//
// When page.Stale is true the value came from the store while a background
// refresh runs. A failed refresh keeps the previous value.
//
// # Keys
//
// Keys are compared by their serialized form. Parts are joined with
// KeySeparator and prefix matching only happens on segment boundaries, so
// invalidating "series" never touches "series2". Fetch-all and paged requests
// for the same collection use RangeAll and RangePage and therefore never
// share an entry.
//
// Function and channel parts serialize to their pointer and are only stable
// within one process.
//
// # Invalidation
//
// Invalidate marks entries stale instead of removing them. Readers keep the
// old value until the next Fetch replaces it:
//
//	store.Invalidate(ctx, cache.Key("series"))
package cache
