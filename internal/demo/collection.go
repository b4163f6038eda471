package demo

import (
	"context"
	"sync"

	"github.com/goliatone/go-pagecache/paging"
)

// Collection is an in-memory range fetcher that records every request.
type Collection[T any] struct {
	mu    sync.Mutex
	items []T
	calls []paging.Range
	err   error
	gate  chan struct{}
}

// NewCollection creates a Collection serving items.
func NewCollection[T any](items []T) *Collection[T] {
	return &Collection[T]{items: append([]T(nil), items...)}
}

// Fetch implements paging.RangeFetcher.
func (c *Collection[T]) Fetch(ctx context.Context, r paging.Range) (paging.PageResult[T], error) {
	c.mu.Lock()
	c.calls = append(c.calls, r)
	gate := c.gate
	c.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return paging.PageResult[T]{}, ctx.Err()
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.err != nil {
		return paging.PageResult[T]{}, c.err
	}
	if err := r.Validate(); err != nil {
		return paging.PageResult[T]{}, err
	}

	total := len(c.items)
	if r.IsAll() {
		return paging.PageResult[T]{Items: append([]T(nil), c.items...), Total: total}, nil
	}

	start := min(r.Start, total)
	end := min(r.Start+r.Length, total)
	return paging.PageResult[T]{Items: append([]T{}, c.items[start:end]...), Total: total}, nil
}

// Fetcher returns Fetch as a paging.RangeFetcher.
func (c *Collection[T]) Fetcher() paging.RangeFetcher[T] {
	return c.Fetch
}

// SetItems replaces the served items.
func (c *Collection[T]) SetItems(items []T) {
	c.mu.Lock()
	c.items = append([]T(nil), items...)
	c.mu.Unlock()
}

// FailWith makes every following fetch return err. A nil err restores
// normal behaviour.
func (c *Collection[T]) FailWith(err error) {
	c.mu.Lock()
	c.err = err
	c.mu.Unlock()
}

// Hold blocks fetches until the returned release function is called.
func (c *Collection[T]) Hold() (release func()) {
	gate := make(chan struct{})
	c.mu.Lock()
	c.gate = gate
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			c.gate = nil
			c.mu.Unlock()
			close(gate)
		})
	}
}

// Calls returns the ranges requested so far.
func (c *Collection[T]) Calls() []paging.Range {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]paging.Range(nil), c.calls...)
}

// CallCount returns how many fetches were made.
func (c *Collection[T]) CallCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.calls)
}

// LastCall returns the most recent range, if any.
func (c *Collection[T]) LastCall() (paging.Range, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.calls) == 0 {
		return paging.Range{}, false
	}
	return c.calls[len(c.calls)-1], true
}
