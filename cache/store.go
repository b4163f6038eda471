package cache

import (
	"context"
	"time"

	"github.com/goliatone/go-pagecache/internal/cacheinfra"
	"github.com/rs/zerolog"
)

// StoreOption customizes the default Store.
type StoreOption func(*storeOptions)

type storeOptions struct {
	logger zerolog.Logger
	now    func() time.Time
}

// WithLogger sets the logger the store reports hits, misses and failed refreshes to.
func WithLogger(logger zerolog.Logger) StoreOption {
	return func(o *storeOptions) {
		o.logger = logger
	}
}

// WithClock overrides the time source used for staleness checks.
func WithClock(now func() time.Time) StoreOption {
	return func(o *storeOptions) {
		o.now = now
	}
}

// NewStore constructs the default in-memory Store using the provided configuration.
func NewStore(cfg Config, opts ...StoreOption) (Store, error) {
	o := storeOptions{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(&o)
	}

	inner, err := cacheinfra.NewStore(
		cfg.toInternal(),
		cacheinfra.WithLogger(o.logger),
		cacheinfra.WithClock(o.now),
	)
	if err != nil {
		return nil, err
	}

	return &memoryStore{inner: inner}, nil
}

// memoryStore adapts the string keyed infrastructure store to QueryKey.
type memoryStore struct {
	inner *cacheinfra.Store
}

var _ Store = (*memoryStore)(nil)

func (s *memoryStore) Get(key QueryKey) (Entry, bool) {
	e, ok := s.inner.Get(key.String())
	return fromInternal(e), ok
}

func (s *memoryStore) Fetch(ctx context.Context, key QueryKey, staleTime time.Duration, loader Loader) (Entry, error) {
	e, err := s.inner.Fetch(ctx, key.String(), staleTime, cacheinfra.Loader(loader))
	return fromInternal(e), err
}

func (s *memoryStore) Refetch(ctx context.Context, key QueryKey, loader Loader) (Entry, error) {
	e, err := s.inner.Refetch(ctx, key.String(), cacheinfra.Loader(loader))
	return fromInternal(e), err
}

func (s *memoryStore) Set(key QueryKey, value any) {
	s.inner.Set(key.String(), value)
}

func (s *memoryStore) Delete(ctx context.Context, key QueryKey) error {
	return s.inner.Delete(ctx, key.String())
}

func (s *memoryStore) Invalidate(ctx context.Context, prefix QueryKey) int {
	return s.inner.Invalidate(ctx, prefix.String())
}

func (s *memoryStore) InFlight(key QueryKey) bool {
	return s.inner.InFlight(key.String())
}

func (s *memoryStore) Subscribe(fn Listener) func() {
	if fn == nil {
		return func() {}
	}
	return s.inner.Subscribe(func(ev cacheinfra.Event) {
		fn(Event{Kind: EventKind(ev.Kind), Key: ev.Key, Err: ev.Err})
	})
}

func fromInternal(e cacheinfra.Entry) Entry {
	return Entry{
		Value:       e.Value,
		UpdatedAt:   e.UpdatedAt,
		Invalidated: e.Invalidated,
		Stale:       e.Stale,
	}
}
