package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/goliatone/go-pagecache/internal/cacheinfra"
)

func newTestStore(t *testing.T) Store {
	t.Helper()

	cfg := DefaultConfig()
	cfg.Capacity = 100
	cfg.NumShards = 2

	store, err := NewStore(cfg)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	return store
}

func TestNewStore_InvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TTL = 0

	_, err := NewStore(cfg)
	var configErr *cacheinfra.ConfigError
	if !errors.As(err, &configErr) {
		t.Fatalf("expected config error, got %v", err)
	}
	if configErr.Field != "TTL" {
		t.Errorf("expected TTL field, got %q", configErr.Field)
	}
}

func TestStore_TypedRoundTripThroughAdapter(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	key := Key("series").Append(RangeSegment, RangePage(0, 25))

	calls := 0
	loader := func(ctx context.Context) ([]string, error) {
		calls++
		return []string{"a", "b"}, nil
	}

	got, err := Fetch(ctx, store, key, time.Hour, loader)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got.Data) != 2 || got.Stale {
		t.Errorf("unexpected value %+v", got)
	}

	if _, err := Fetch(ctx, store, key, time.Hour, loader); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Errorf("expected one loader call, got %d", calls)
	}

	cached, ok := Get[[]string](store, key)
	if !ok || len(cached.Data) != 2 {
		t.Errorf("expected cached slice, got %+v (ok=%v)", cached, ok)
	}
}

func TestStore_InvalidateByCollectionPrefix(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	series := Key("series")
	store.Set(series.Append(RangeSegment, RangeAll()), 1)
	store.Set(series.Append("7"), 2)
	store.Set(Key("movies", RangeSegment, RangeAll()), 3)

	var events []Event
	unsubscribe := store.Subscribe(func(ev Event) {
		events = append(events, ev)
	})
	defer unsubscribe()

	if n := store.Invalidate(ctx, series); n != 2 {
		t.Errorf("expected 2 invalidated entries, got %d", n)
	}

	entry, ok := store.Get(series.Append("7"))
	if !ok || !entry.Stale || entry.Value != 2 {
		t.Errorf("expected stale retained value, got %+v (ok=%v)", entry, ok)
	}

	movies, _ := store.Get(Key("movies", RangeSegment, RangeAll()))
	if movies.Invalidated {
		t.Error("movies should not be invalidated")
	}

	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	for _, ev := range events {
		if ev.Kind != EventInvalidated {
			t.Errorf("unexpected event kind %v", ev.Kind)
		}
	}
}

func TestStore_DeleteAndInFlight(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	key := Key("wanted", "series")

	store.Set(key, "x")
	if err := store.Delete(ctx, key); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := store.Get(key); ok {
		t.Error("expected key to be removed")
	}
	if store.InFlight(key) {
		t.Error("expected nothing in flight")
	}
}

func TestInvalidateAfter(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	jobs := Key("jobs")
	status := Key("system", "status")
	store.Set(jobs.Append("1"), "running")
	store.Set(status, "busy")
	store.Set(Key("series", "1"), "kept")

	boom := errors.New("cancel failed")
	marked, err := InvalidateAfter(ctx, store, func(context.Context) error { return boom }, jobs, status)
	if !errors.Is(err, boom) {
		t.Fatalf("expected mutation error, got %v", err)
	}
	if marked != 0 {
		t.Errorf("failed mutation must not invalidate, marked %d", marked)
	}
	if e, _ := store.Get(status); e.Invalidated {
		t.Error("status invalidated after failed mutation")
	}

	marked, err = InvalidateAfter(ctx, store, func(context.Context) error { return nil }, jobs, status)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if marked != 2 {
		t.Errorf("expected 2 entries marked, got %d", marked)
	}
	if e, _ := store.Get(jobs.Append("1")); !e.Invalidated {
		t.Error("job entry should be invalidated")
	}
	if e, _ := store.Get(Key("series", "1")); e.Invalidated {
		t.Error("unrelated entry should not be invalidated")
	}
}
