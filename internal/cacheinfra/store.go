package cacheinfra

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/puzpuzpuz/xsync/v3"
	"github.com/rs/zerolog"
	"github.com/viccon/sturdyc"
	"golang.org/x/sync/singleflight"
)

// KeySeparator is the delimiter between key segments. Prefix invalidation
// only matches on segment boundaries.
const KeySeparator = "::"

// Loader fetches a fresh value for a key from the source of truth.
type Loader func(ctx context.Context) (any, error)

// Entry is the last known value for a key.
type Entry struct {
	Value       any
	UpdatedAt   time.Time
	Invalidated bool
	Stale       bool
}

// EventKind identifies a store change notification.
type EventKind int

const (
	EventUpdated EventKind = iota
	EventInvalidated
	EventFetchFailed
)

// Event is delivered to subscribers after the store changes.
type Event struct {
	Kind EventKind
	Key  string
	Err  error
}

// Listener receives store events. Listeners run synchronously on the
// goroutine that produced the event and must not block.
type Listener func(Event)

type record struct {
	value       any
	fetchedAt   time.Time
	invalidated bool
}

// flight tracks one running loader. invalidated is guarded by Store.writeMu
// and set when an invalidation matches the key before the result is stored.
type flight struct {
	invalidated bool
}

// Store keeps the last known value per key in a sturdyc client and layers
// stale-while-revalidate reads and in-flight deduplication on top of it.
type Store struct {
	client         *sturdyc.Client[record]
	writeMu        sync.Mutex
	group          singleflight.Group
	inflight       *xsync.MapOf[string, *flight]
	listeners      *xsync.MapOf[string, Listener]
	defaultStale   time.Duration
	refreshTimeout time.Duration
	now            func() time.Time
	logger         zerolog.Logger
}

// Option customizes a Store.
type Option func(*Store)

// WithLogger sets the logger used for store diagnostics.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// WithClock overrides the time source used for staleness checks.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// NewStore validates cfg and builds a Store on top of a sturdyc client.
func NewStore(cfg Config, opts ...Option) (*Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	client := sturdyc.New[record](
		cfg.Capacity,
		cfg.NumShards,
		cfg.TTL,
		cfg.EvictionPercentage,
		cfg.ToSturdycOptions()...,
	)

	s := &Store{
		client:         client,
		inflight:       xsync.NewMapOf[string, *flight](),
		listeners:      xsync.NewMapOf[string, Listener](),
		defaultStale:   cfg.DefaultStaleTime,
		refreshTimeout: cfg.RefreshTimeout,
		now:            time.Now,
		logger:         zerolog.Nop(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// Get returns the last known value for key. The stale flag uses the
// configured DefaultStaleTime.
func (s *Store) Get(key string) (Entry, bool) {
	rec, ok := s.client.Get(key)
	if !ok {
		return Entry{}, false
	}
	return s.toEntry(rec, s.defaultStale), true
}

// Fetch returns the value for key, loading it when missing. A fresh entry is
// returned as is. A stale entry is returned immediately while a deduplicated
// background refresh runs. A negative staleTime disables age based staleness.
func (s *Store) Fetch(ctx context.Context, key string, staleTime time.Duration, loader Loader) (Entry, error) {
	if loader == nil {
		return Entry{}, &ConfigError{Field: "loader", Message: "cannot be nil"}
	}

	if rec, ok := s.client.Get(key); ok {
		entry := s.toEntry(rec, staleTime)
		if !entry.Stale {
			lookupsTotal.WithLabelValues("hit").Inc()
			s.logger.Debug().Str("key", key).Msg("store hit")
			return entry, nil
		}

		lookupsTotal.WithLabelValues("stale").Inc()
		s.logger.Debug().Str("key", key).Msg("serving stale entry, refreshing")
		s.refreshAsync(ctx, key, loader)
		return entry, nil
	}

	lookupsTotal.WithLabelValues("miss").Inc()
	s.logger.Debug().Str("key", key).Msg("store miss")

	return s.do(ctx, key, func(lctx context.Context) (Entry, error) {
		// another caller may have filled the key between the miss and the flight
		if rec, ok := s.client.Get(key); ok {
			if entry := s.toEntry(rec, staleTime); !entry.Stale {
				return entry, nil
			}
		}
		return s.load(lctx, key, loader)
	})
}

// Refetch loads key synchronously regardless of freshness. Concurrent calls
// for the same key share one loader invocation. On error the previous value
// is left untouched.
func (s *Store) Refetch(ctx context.Context, key string, loader Loader) (Entry, error) {
	if loader == nil {
		return Entry{}, &ConfigError{Field: "loader", Message: "cannot be nil"}
	}

	return s.do(ctx, key, func(lctx context.Context) (Entry, error) {
		return s.load(lctx, key, loader)
	})
}

// do runs fn once per key for all concurrent callers. fn gets a context
// detached from the caller and bounded by the refresh timeout, so one caller
// giving up never fails the others. Each caller stops waiting when its own
// ctx is done.
func (s *Store) do(ctx context.Context, key string, fn func(ctx context.Context) (Entry, error)) (Entry, error) {
	ch := s.group.DoChan(key, func() (any, error) {
		lctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.refreshTimeout)
		defer cancel()
		return fn(lctx)
	})

	select {
	case res := <-ch:
		if res.Shared {
			dedupedTotal.Inc()
		}
		if res.Err != nil {
			return Entry{}, res.Err
		}
		return res.Val.(Entry), nil
	case <-ctx.Done():
		return Entry{}, ctx.Err()
	}
}

func (s *Store) refreshAsync(ctx context.Context, key string, loader Loader) {
	if s.InFlight(key) {
		return
	}

	bg, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.refreshTimeout)
	go func() {
		defer cancel()
		if _, err := s.Refetch(bg, key, loader); err != nil {
			s.logger.Warn().Err(err).Str("key", key).Msg("background refresh failed, keeping stale value")
		}
	}()
}

func (s *Store) load(ctx context.Context, key string, loader Loader) (Entry, error) {
	f := &flight{}
	s.inflight.Store(key, f)
	inflightGauge.Inc()
	defer func() {
		s.inflight.Delete(key)
		inflightGauge.Dec()
	}()

	value, err := loader(ctx)
	if err != nil {
		fetchesTotal.WithLabelValues("error").Inc()
		s.notify(Event{Kind: EventFetchFailed, Key: key, Err: err})
		return Entry{}, err
	}

	s.writeMu.Lock()
	rec := record{value: value, fetchedAt: s.now(), invalidated: f.invalidated}
	s.client.Set(key, rec)
	s.writeMu.Unlock()
	if rec.invalidated {
		s.logger.Debug().Str("key", key).Msg("invalidated while loading, stored as stale")
	}
	fetchesTotal.WithLabelValues("success").Inc()
	s.notify(Event{Kind: EventUpdated, Key: key})

	return s.toEntry(rec, -1), nil
}

// Set writes value under key as a fresh entry.
func (s *Store) Set(key string, value any) {
	s.writeMu.Lock()
	s.client.Set(key, record{value: value, fetchedAt: s.now()})
	s.writeMu.Unlock()
	s.notify(Event{Kind: EventUpdated, Key: key})
}

// Delete removes a single entry.
func (s *Store) Delete(ctx context.Context, key string) error {
	s.client.Delete(key)
	return nil
}

// Invalidate marks every entry whose key equals prefix, or starts with prefix
// followed by KeySeparator, as stale. Values are kept so readers can still
// display them while a refetch is pending. Loaders running for a matching key
// store their result as stale. It returns the number of keys marked.
func (s *Store) Invalidate(ctx context.Context, prefix string) int {
	var marked []string
	seen := make(map[string]struct{})

	s.writeMu.Lock()
	for _, key := range s.client.ScanKeys() {
		if !HasSegmentPrefix(key, prefix) {
			continue
		}

		rec, ok := s.client.Get(key)
		if !ok {
			continue
		}

		rec.invalidated = true
		s.client.Set(key, rec)
		seen[key] = struct{}{}
		marked = append(marked, key)
	}
	s.inflight.Range(func(key string, f *flight) bool {
		if !HasSegmentPrefix(key, prefix) || f.invalidated {
			return true
		}
		f.invalidated = true
		if _, ok := seen[key]; !ok {
			marked = append(marked, key)
		}
		return true
	})
	s.writeMu.Unlock()

	for _, key := range marked {
		s.notify(Event{Kind: EventInvalidated, Key: key})
	}

	if len(marked) > 0 {
		invalidationsTotal.Add(float64(len(marked)))
		s.logger.Debug().Str("prefix", prefix).Int("entries", len(marked)).Msg("invalidated entries")
	}

	return len(marked)
}

// InFlight reports whether a loader is currently running for key.
func (s *Store) InFlight(key string) bool {
	_, ok := s.inflight.Load(key)
	return ok
}

// Size returns the number of retained entries.
func (s *Store) Size() int {
	return s.client.Size()
}

// Subscribe registers fn for store events and returns a function that
// removes it.
func (s *Store) Subscribe(fn Listener) func() {
	if fn == nil {
		return func() {}
	}

	id := uuid.NewString()
	s.listeners.Store(id, fn)
	return func() {
		s.listeners.Delete(id)
	}
}

func (s *Store) notify(ev Event) {
	s.listeners.Range(func(_ string, fn Listener) bool {
		fn(ev)
		return true
	})
}

func (s *Store) toEntry(rec record, staleTime time.Duration) Entry {
	stale := rec.invalidated
	if !stale && staleTime >= 0 {
		stale = s.now().Sub(rec.fetchedAt) >= staleTime
	}

	return Entry{
		Value:       rec.value,
		UpdatedAt:   rec.fetchedAt,
		Invalidated: rec.invalidated,
		Stale:       stale,
	}
}

// HasSegmentPrefix reports whether key equals prefix or continues it at a
// segment boundary.
func HasSegmentPrefix(key, prefix string) bool {
	if prefix == "" {
		return true
	}
	return key == prefix || strings.HasPrefix(key, prefix+KeySeparator)
}
