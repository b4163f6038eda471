package cache

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrInvalidResultType is returned when a cached value does not match the requested type.
	ErrInvalidResultType = errors.New("cache: invalid result type")
	// ErrNilLoader is returned when a typed fetch is attempted without a loader.
	ErrNilLoader = errors.New("cache: loader cannot be nil")
)

// Loader is the function signature the Store expects when fetching from the source of truth.
type Loader func(ctx context.Context) (any, error)

// LoaderFn is the typed counterpart of Loader used by the generic helpers.
type LoaderFn[T any] func(ctx context.Context) (T, error)

// Entry is the last known value for a key.
type Entry struct {
	Value       any
	UpdatedAt   time.Time
	Invalidated bool
	Stale       bool
}

// Value is a typed view of an Entry.
type Value[T any] struct {
	Data        T
	UpdatedAt   time.Time
	Invalidated bool
	Stale       bool
}

// EventKind identifies a store notification.
type EventKind int

const (
	EventUpdated EventKind = iota
	EventInvalidated
	EventFetchFailed
)

func (k EventKind) String() string {
	switch k {
	case EventUpdated:
		return "updated"
	case EventInvalidated:
		return "invalidated"
	case EventFetchFailed:
		return "fetch_failed"
	default:
		return fmt.Sprintf("event(%d)", int(k))
	}
}

// Event is delivered to subscribers after a key changes.
type Event struct {
	Kind EventKind
	Key  string
	Err  error
}

// Listener receives store events. It must not block.
type Listener func(Event)

// Store is a keyed, shared, process-wide cache of fetched values.
//
// Fetch deduplicates concurrent loads per key and serves stale values while
// a background refresh runs. Invalidate marks entries stale without dropping
// their values so views can keep showing them until the refetch lands.
type Store interface {
	Get(key QueryKey) (Entry, bool)
	Fetch(ctx context.Context, key QueryKey, staleTime time.Duration, loader Loader) (Entry, error)
	Refetch(ctx context.Context, key QueryKey, loader Loader) (Entry, error)
	Set(key QueryKey, value any)
	Delete(ctx context.Context, key QueryKey) error
	Invalidate(ctx context.Context, prefix QueryKey) int
	InFlight(key QueryKey) bool
	Subscribe(fn Listener) (unsubscribe func())
}

// Fetch is a type-safe wrapper around Store.Fetch.
func Fetch[T any](ctx context.Context, store Store, key QueryKey, staleTime time.Duration, fn LoaderFn[T]) (Value[T], error) {
	if fn == nil {
		return Value[T]{}, ErrNilLoader
	}

	entry, err := store.Fetch(ctx, key, staleTime, func(ctx context.Context) (any, error) {
		return fn(ctx)
	})
	if err != nil {
		return Value[T]{}, err
	}
	return As[T](entry)
}

// Refetch is a type-safe wrapper around Store.Refetch.
func Refetch[T any](ctx context.Context, store Store, key QueryKey, fn LoaderFn[T]) (Value[T], error) {
	if fn == nil {
		return Value[T]{}, ErrNilLoader
	}

	entry, err := store.Refetch(ctx, key, func(ctx context.Context) (any, error) {
		return fn(ctx)
	})
	if err != nil {
		return Value[T]{}, err
	}
	return As[T](entry)
}

// Get returns the typed value stored under key. Missing keys and values of
// another type report false.
func Get[T any](store Store, key QueryKey) (Value[T], bool) {
	entry, ok := store.Get(key)
	if !ok {
		return Value[T]{}, false
	}

	v, err := As[T](entry)
	if err != nil {
		return Value[T]{}, false
	}
	return v, true
}

// As converts an Entry to its typed view. A nil value yields the zero value of T.
func As[T any](entry Entry) (Value[T], error) {
	v := Value[T]{UpdatedAt: entry.UpdatedAt, Invalidated: entry.Invalidated, Stale: entry.Stale}
	if entry.Value == nil {
		return v, nil
	}

	data, ok := entry.Value.(T)
	if !ok {
		var zero T
		return Value[T]{}, fmt.Errorf("%w: expected %T, got %T", ErrInvalidResultType, zero, entry.Value)
	}
	v.Data = data
	return v, nil
}

// InvalidateAfter runs mutate and, when it succeeds, invalidates every
// prefix. It returns the number of entries marked stale.
func InvalidateAfter(ctx context.Context, store Store, mutate func(ctx context.Context) error, prefixes ...QueryKey) (int, error) {
	if err := mutate(ctx); err != nil {
		return 0, err
	}

	marked := 0
	for _, prefix := range prefixes {
		marked += store.Invalidate(ctx, prefix)
	}
	return marked, nil
}
