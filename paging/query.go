package paging

import (
	"context"
	"sync"
	"time"

	"github.com/goliatone/go-pagecache/cache"
	"github.com/google/uuid"
	"github.com/puzpuzpuz/xsync/v3"
	"github.com/rs/zerolog"
)

// maxLoadPasses bounds how often Load follows the current key when the page
// moves underneath it (clamping or concurrent navigation).
const maxLoadPasses = 3

// Status is a snapshot of a Query. Result is shared with the store and must
// be treated as read only.
type Status[T any] struct {
	Page          int
	PageSize      int
	PageCount     int
	TotalCount    int
	FetchAll      bool
	IsPageLoading bool
	IsFetching    bool
	Stale         bool
	Result        *PageResult[T]
	Err           error
	Key           cache.QueryKey
	UpdatedAt     time.Time
}

// Items returns the fetched items or nil when nothing is loaded.
func (s Status[T]) Items() []T {
	if s.Result == nil {
		return nil
	}
	return s.Result.Items
}

// Query owns the pagination state of one view over one collection and keeps
// it consistent with the store.
type Query[T any] struct {
	store  cache.Store
	base   cache.QueryKey
	fetch  RangeFetcher[T]
	opts   Options[T]
	logger zerolog.Logger

	mu        sync.Mutex
	page      int
	pageSize  int
	fetchAll  bool
	total     int
	result    *PageResult[T]
	updatedAt time.Time
	stale     bool
	loading   bool
	err       error

	watchers    *xsync.MapOf[string, func()]
	unsubscribe func()
	closeOnce   sync.Once
}

// NewQuery creates a Query for the collection identified by key.
func NewQuery[T any](store cache.Store, key cache.QueryKey, fetch RangeFetcher[T], opts ...Option[T]) (*Query[T], error) {
	if store == nil {
		return nil, ErrNilStore
	}
	if fetch == nil {
		return nil, ErrNilFetcher
	}

	o := defaultOptions[T]()
	for _, opt := range opts {
		opt(&o)
	}
	if err := o.Validate(); err != nil {
		return nil, err
	}

	q := &Query[T]{
		store:    store,
		base:     key.Append(),
		fetch:    fetch,
		opts:     o,
		logger:   o.Logger.With().Str("query", key.String()).Logger(),
		page:     o.InitialPage,
		pageSize: o.PageSize,
		fetchAll: o.FetchAll,
		watchers: xsync.NewMapOf[string, func()](),
	}

	q.mu.Lock()
	q.syncLocked(false)
	q.mu.Unlock()

	q.unsubscribe = store.Subscribe(q.onStoreEvent)

	return q, nil
}

// BaseKey returns the collection key.
func (q *Query[T]) BaseKey() cache.QueryKey {
	return q.base.Append()
}

// Key returns the store key of the range currently requested.
func (q *Query[T]) Key() cache.QueryKey {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.keyLocked()
}

// ItemKey returns the key an item is written through to.
func (q *Query[T]) ItemKey(id string) cache.QueryKey {
	return q.base.Append(id)
}

// Range returns the range the current state maps to.
func (q *Query[T]) Range() Range {
	q.mu.Lock()
	defer q.mu.Unlock()
	return DeriveRange(q.page, q.pageSize, q.fetchAll)
}

// Status returns a snapshot of the pagination state.
func (q *Query[T]) Status() Status[T] {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.statusLocked()
}

// GotoPage moves to page n when 0 <= n < pageCount and reports whether it
// did. Out of range targets are ignored, never clamped.
func (q *Query[T]) GotoPage(n int) bool {
	q.mu.Lock()
	pageCount := PageCount(q.total, q.pageSize)
	if n < 0 || n >= pageCount {
		q.mu.Unlock()
		q.logger.Debug().Int("page", n).Int("page_count", pageCount).Msg("page out of range, ignoring")
		return false
	}
	if n == q.page {
		q.mu.Unlock()
		return true
	}

	q.page = n
	if !q.fetchAll {
		q.err = nil
		q.syncLocked(true)
	}
	q.mu.Unlock()

	q.notifyChange()
	return true
}

// ReconcilePage sets the page index computed by a client side view in
// fetch-all mode, where the filtered page count can be smaller than the
// server one. It is a no-op in paged mode.
func (q *Query[T]) ReconcilePage(n int) bool {
	if n < 0 {
		return false
	}

	q.mu.Lock()
	if !q.fetchAll || n == q.page {
		q.mu.Unlock()
		return false
	}
	q.page = n
	q.mu.Unlock()

	q.notifyChange()
	return true
}

// SetFetchAll switches between paged and whole-collection mode. Any change
// resets the page to 0.
func (q *Query[T]) SetFetchAll(fetchAll bool) {
	q.mu.Lock()
	if q.fetchAll == fetchAll {
		q.mu.Unlock()
		return
	}

	pageChanged := q.page != 0
	q.fetchAll = fetchAll
	q.page = 0
	q.err = nil
	q.syncLocked(pageChanged)
	q.mu.Unlock()

	q.logger.Debug().Bool("fetch_all", fetchAll).Msg("fetch mode changed")
	q.notifyChange()
}

// SetPageSize changes the page size and returns to the first page.
func (q *Query[T]) SetPageSize(size int) error {
	if size <= 0 {
		return ErrInvalidPageSize
	}

	q.mu.Lock()
	if q.pageSize == size {
		q.mu.Unlock()
		return nil
	}

	pageChanged := q.page != 0
	q.pageSize = size
	q.page = 0
	q.err = nil
	q.syncLocked(pageChanged)
	q.mu.Unlock()

	q.notifyChange()
	return nil
}

// Load makes sure the current range is in the store, fetching it when
// missing and refreshing it in the background when stale. Responses for a
// key that is no longer current are stored under their own key and never
// applied to this query.
func (q *Query[T]) Load(ctx context.Context) (Status[T], error) {
	return q.run(ctx, func(ctx context.Context, key cache.QueryKey, loader cache.Loader) (cache.Entry, error) {
		return q.store.Fetch(ctx, key, q.opts.StaleTime, loader)
	})
}

// Refetch loads the current range synchronously even when it is fresh.
// There is no automatic retry after a failure; Refetch is the retry.
func (q *Query[T]) Refetch(ctx context.Context) (Status[T], error) {
	return q.run(ctx, func(ctx context.Context, key cache.QueryKey, loader cache.Loader) (cache.Entry, error) {
		return q.store.Refetch(ctx, key, loader)
	})
}

type fetchStrategy func(ctx context.Context, key cache.QueryKey, loader cache.Loader) (cache.Entry, error)

func (q *Query[T]) run(ctx context.Context, strategy fetchStrategy) (Status[T], error) {
	for pass := 0; pass < maxLoadPasses; pass++ {
		q.mu.Lock()
		key := q.keyLocked()
		r := DeriveRange(q.page, q.pageSize, q.fetchAll)
		q.mu.Unlock()

		entry, err := strategy(ctx, key, q.loader(r))

		q.mu.Lock()
		if !q.keyLocked().Equal(key) {
			q.mu.Unlock()
			q.logger.Debug().Str("key", key.String()).Msg("discarding response for superseded key")
			continue
		}

		if err == nil {
			// a background refresh may have landed since the entry was read
			v, ok := cache.Get[PageResult[T]](q.store, key)
			if !ok {
				v, err = cache.As[PageResult[T]](entry)
			}
			if err == nil {
				q.err = nil
				q.loading = false
				q.applyLocked(v)
			}
		}

		if err != nil {
			qerr := &QueryError{Key: key, Range: r, Err: err}
			q.err = qerr
			q.loading = false
			st := q.statusLocked()
			q.mu.Unlock()

			q.logger.Warn().Err(err).Int("start", r.Start).Int("length", r.Length).Msg("range fetch failed")
			q.notifyChange()
			return st, qerr
		}

		settled := q.keyLocked().Equal(key)
		st := q.statusLocked()
		q.mu.Unlock()

		q.notifyChange()
		if settled {
			return st, nil
		}
	}

	return q.Status(), nil
}

func (q *Query[T]) loader(r Range) cache.Loader {
	return func(ctx context.Context) (any, error) {
		res, err := q.fetch(ctx, r)
		if err != nil {
			return nil, err
		}
		if res.Items == nil {
			res.Items = []T{}
		}
		if q.opts.CacheIndividual {
			q.writeThrough(res.Items)
		}
		return res, nil
	}
}

func (q *Query[T]) writeThrough(items []T) {
	written := 0
	for _, item := range items {
		id, ok := q.opts.IDFunc(item)
		if !ok {
			continue
		}
		q.store.Set(q.base.Append(id), item)
		written++
	}
	q.logger.Debug().Int("items", written).Msg("wrote items through to store")
}

// Item returns a written-through item without calling the fetcher.
func (q *Query[T]) Item(id string) (T, bool) {
	v, ok := cache.Get[T](q.store, q.base.Append(id))
	return v.Data, ok
}

// Invalidate marks every cached range and item of the collection stale.
func (q *Query[T]) Invalidate(ctx context.Context) int {
	return q.store.Invalidate(ctx, q.base)
}

// OnChange registers fn to run after the query state changes, including
// background refreshes. It returns a function that removes fn.
func (q *Query[T]) OnChange(fn func()) func() {
	if fn == nil {
		return func() {}
	}
	id := uuid.NewString()
	q.watchers.Store(id, fn)
	return func() {
		q.watchers.Delete(id)
	}
}

// Close detaches the query from store notifications.
func (q *Query[T]) Close() {
	q.closeOnce.Do(func() {
		if q.unsubscribe != nil {
			q.unsubscribe()
		}
	})
}

func (q *Query[T]) onStoreEvent(ev cache.Event) {
	q.mu.Lock()
	key := q.keyLocked()
	if ev.Key != key.String() {
		q.mu.Unlock()
		return
	}

	switch ev.Kind {
	case cache.EventUpdated:
		v, ok := cache.Get[PageResult[T]](q.store, key)
		if !ok {
			q.mu.Unlock()
			return
		}
		q.err = nil
		q.loading = false
		q.applyLocked(v)
	case cache.EventInvalidated:
		q.stale = true
	case cache.EventFetchFailed:
		q.err = &QueryError{Key: key, Range: DeriveRange(q.page, q.pageSize, q.fetchAll), Err: ev.Err}
	}
	q.mu.Unlock()

	q.notifyChange()
}

func (q *Query[T]) notifyChange() {
	q.watchers.Range(func(_ string, fn func()) bool {
		fn()
		return true
	})
}

func (q *Query[T]) keyLocked() cache.QueryKey {
	if q.fetchAll {
		return q.base.Append(cache.RangeSegment, cache.RangeAll())
	}
	return q.base.Append(cache.RangeSegment, cache.RangePage(q.page*q.pageSize, q.pageSize))
}

// syncLocked points the displayed state at the entry for the current key.
// pageChanged marks a navigation, which shows the page loading signal when
// the target is not cached yet.
func (q *Query[T]) syncLocked(pageChanged bool) {
	if v, ok := cache.Get[PageResult[T]](q.store, q.keyLocked()); ok {
		q.loading = false
		q.applyLocked(v)
		return
	}

	q.result = nil
	q.stale = false
	q.updatedAt = time.Time{}
	q.loading = pageChanged
}

func (q *Query[T]) applyLocked(v cache.Value[PageResult[T]]) {
	res := v.Data
	q.result = &res
	q.stale = v.Invalidated || (q.opts.StaleTime >= 0 && time.Since(v.UpdatedAt) >= q.opts.StaleTime)
	q.updatedAt = v.UpdatedAt
	q.setTotalLocked(res.Total)
}

// setTotalLocked records a new server total and clamps the page into the
// new range in the same critical section, so no reader sees an out of range
// page while pageCount > 0.
func (q *Query[T]) setTotalLocked(total int) {
	if total == q.total {
		return
	}
	q.total = total

	pageCount := PageCount(q.total, q.pageSize)
	next := ClampPage(q.page, pageCount)
	if next == q.page {
		return
	}

	q.logger.Debug().Int("from", q.page).Int("to", next).Int("page_count", pageCount).Msg("clamping page")
	q.page = next
	if !q.fetchAll {
		q.syncLocked(true)
	}
}

func (q *Query[T]) statusLocked() Status[T] {
	key := q.keyLocked()
	return Status[T]{
		Page:          q.page,
		PageSize:      q.pageSize,
		PageCount:     PageCount(q.total, q.pageSize),
		TotalCount:    q.total,
		FetchAll:      q.fetchAll,
		IsPageLoading: q.loading,
		IsFetching:    q.store.InFlight(key),
		Stale:         q.stale,
		Result:        q.result,
		Err:           q.err,
		Key:           key,
		UpdatedAt:     q.updatedAt,
	}
}
