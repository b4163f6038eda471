package di

import (
	"github.com/goliatone/go-pagecache/cache"
	"github.com/goliatone/go-pagecache/filter"
	"github.com/goliatone/go-pagecache/paging"
	"github.com/goliatone/go-pagecache/pkg/config"
	"github.com/goliatone/go-pagecache/poll"
	"github.com/goliatone/go-pagecache/repositorysource"
	"github.com/goliatone/go-pagecache/view"
	"github.com/rs/zerolog"
)

// Container owns the process-wide store and hands out queries, writers and
// pollers bound to it. Everything built from one container shares cache
// entries and invalidations.
type Container struct {
	store  cache.Store
	config config.Config
	logger zerolog.Logger
}

// Option customizes a Container.
type Option func(*Container)

// WithLogger sets the logger passed to the store and to every component the
// container builds.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Container) {
		c.logger = logger
	}
}

// NewContainer validates cfg and creates the shared store.
func NewContainer(cfg config.Config, opts ...Option) (*Container, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Container{
		config: cfg,
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}

	store, err := cache.NewStore(cfg.Cache, cache.WithLogger(c.logger.With().Str("component", "store").Logger()))
	if err != nil {
		return nil, err
	}
	c.store = store

	return c, nil
}

// NewContainerWithDefaults creates a container from config.Default.
func NewContainerWithDefaults(opts ...Option) (*Container, error) {
	return NewContainer(config.Default(), opts...)
}

// Store returns the shared store.
func (c *Container) Store() cache.Store {
	return c.store
}

// Config returns the configuration the container was built with.
func (c *Container) Config() config.Config {
	return c.config
}

// Logger returns the container logger.
func (c *Container) Logger() zerolog.Logger {
	return c.logger
}

// PagingOptions turns the configured paging defaults into query options.
func PagingOptions[T any](c *Container) []paging.Option[T] {
	p := c.config.Paging
	return []paging.Option[T]{
		paging.WithPageSize[T](p.PageSize),
		paging.WithStaleTime[T](p.StaleTime),
		paging.WithFetchAll[T](p.FetchAll),
		paging.WithCacheIndividual[T](p.CacheIndividual),
		paging.WithLogger[T](c.logger.With().Str("component", "paging").Logger()),
	}
}

// NewQuery creates a query over the shared store. The configured defaults
// apply first, so opts override them.
//
// Since Go methods cannot have type parameters, this is a package-level
// function: NewQuery[Series](container, key, fetch)
func NewQuery[T any](c *Container, key cache.QueryKey, fetch paging.RangeFetcher[T], opts ...paging.Option[T]) (*paging.Query[T], error) {
	return paging.NewQuery(c.store, key, fetch, append(PagingOptions[T](c), opts...)...)
}

// NewRepositoryQuery creates a query over a go-repository-bun lister keyed by
// the collection name of T.
func NewRepositoryQuery[T any](c *Container, lister repositorysource.Lister[T], fetchOpts []repositorysource.FetcherOption, opts ...paging.Option[T]) (*paging.Query[T], error) {
	fetchOpts = append([]repositorysource.FetcherOption{
		repositorysource.WithFetcherLogger(c.logger.With().Str("component", "repositorysource").Logger()),
	}, fetchOpts...)
	return NewQuery(c, repositorysource.CollectionKey[T](), repositorysource.NewRangeFetcher(lister, fetchOpts...), opts...)
}

// NewTable creates a query and binds it to pred.
func NewTable[T any](c *Container, key cache.QueryKey, fetch paging.RangeFetcher[T], pred filter.Predicate[T], opts ...paging.Option[T]) (*view.Table[T], error) {
	q, err := NewQuery(c, key, fetch, opts...)
	if err != nil {
		return nil, err
	}
	return view.NewTable(q, pred), nil
}

// NewInvalidatingWriter wraps base so writes invalidate the collection of T
// in the shared store.
func NewInvalidatingWriter[T any](c *Container, base repositorysource.Writer[T], opts ...repositorysource.WriterOption[T]) *repositorysource.InvalidatingWriter[T] {
	opts = append([]repositorysource.WriterOption[T]{
		repositorysource.WithWriterLogger[T](c.logger.With().Str("component", "writer").Logger()),
	}, opts...)
	return repositorysource.NewInvalidatingWriter(base, c.store, repositorysource.CollectionKey[T](), opts...)
}

// NewPoller creates a stopped poller for key using the configured interval.
func (c *Container) NewPoller(key cache.QueryKey, loader cache.Loader, opts ...poll.Option) (*poll.Poller, error) {
	opts = append([]poll.Option{
		poll.WithLogger(c.logger.With().Str("component", "poll").Logger()),
	}, opts...)
	return poll.New(c.store, key, c.config.Paging.PollInterval, loader, opts...)
}
