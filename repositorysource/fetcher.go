package repositorysource

import (
	"context"
	"time"

	"github.com/goliatone/go-pagecache/cache"
	"github.com/goliatone/go-pagecache/paging"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/rs/zerolog"
	"github.com/uptrace/bun"
)

// Lister is the read side of a go-repository-bun repository used for
// paginated collections.
type Lister[T any] interface {
	List(ctx context.Context, criteria ...repository.SelectCriteria) ([]T, int, error)
}

// ItemReader reads single records by id.
type ItemReader[T any] interface {
	GetByID(ctx context.Context, id string, criteria ...repository.SelectCriteria) (T, error)
}

// FetcherOption customizes NewRangeFetcher.
type FetcherOption func(*fetcherConfig)

type fetcherConfig struct {
	criteria []repository.SelectCriteria
	logger   zerolog.Logger
}

// WithCriteria adds criteria applied before the range, e.g. filters that
// belong to the collection identity.
func WithCriteria(criteria ...repository.SelectCriteria) FetcherOption {
	return func(c *fetcherConfig) {
		c.criteria = append(c.criteria, criteria...)
	}
}

// WithOrder sorts the collection. Ranges over an unordered query are not
// stable between pages.
func WithOrder(orders ...string) FetcherOption {
	return WithCriteria(func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Order(orders...)
	})
}

// WithFetcherLogger sets the logger used by the fetcher.
func WithFetcherLogger(logger zerolog.Logger) FetcherOption {
	return func(c *fetcherConfig) {
		c.logger = logger
	}
}

// Window maps a range to SQL offset and limit. A zero limit means no limit.
func Window(r paging.Range) (offset, limit int) {
	if r.IsAll() {
		return 0, 0
	}
	return r.Start, r.Length
}

// RangeCriteria returns the criteria that restrict a query to r.
func RangeCriteria(r paging.Range) []repository.SelectCriteria {
	offset, limit := Window(r)
	if limit == 0 {
		return nil
	}
	return []repository.SelectCriteria{
		func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Offset(offset).Limit(limit)
		},
	}
}

// NewRangeFetcher adapts a repository List into a paging.RangeFetcher. The
// total reported is the repository count, unaffected by the range.
func NewRangeFetcher[T any](lister Lister[T], opts ...FetcherOption) paging.RangeFetcher[T] {
	cfg := fetcherConfig{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(&cfg)
	}

	return func(ctx context.Context, r paging.Range) (paging.PageResult[T], error) {
		if err := r.Validate(); err != nil {
			return paging.PageResult[T]{}, err
		}

		criteria := append(append([]repository.SelectCriteria{}, cfg.criteria...), RangeCriteria(r)...)

		started := time.Now()
		records, total, err := lister.List(ctx, criteria...)
		if err != nil {
			return paging.PageResult[T]{}, err
		}

		cfg.logger.Debug().
			Int("start", r.Start).
			Int("length", r.Length).
			Int("records", len(records)).
			Int("total", total).
			Dur("took", time.Since(started)).
			Msg("listed range")

		return paging.PageResult[T]{Items: records, Total: total}, nil
	}
}

// FetchItem reads one record through the store, so items already written
// through by a page fetch are served without hitting the repository.
func FetchItem[T any](ctx context.Context, store cache.Store, collection cache.QueryKey, id string, reader ItemReader[T], staleTime time.Duration) (T, error) {
	v, err := cache.Fetch(ctx, store, collection.Append(id), staleTime, func(ctx context.Context) (T, error) {
		return reader.GetByID(ctx, id)
	})
	return v.Data, err
}
