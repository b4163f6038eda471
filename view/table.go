package view

import (
	"context"
	"sync"

	"github.com/goliatone/go-pagecache/filter"
	"github.com/goliatone/go-pagecache/paging"
)

// Table binds a Query to a predicate and keeps the engine page in line with
// what is displayed.
type Table[T any] struct {
	query *paging.Query[T]

	mu   sync.RWMutex
	pred filter.Predicate[T]
}

// NewTable creates a Table over q. pred may be nil.
func NewTable[T any](q *paging.Query[T], pred filter.Predicate[T]) *Table[T] {
	return &Table[T]{query: q, pred: pred}
}

// Query returns the bound engine.
func (t *Table[T]) Query() *paging.Query[T] {
	return t.query
}

// SetFilter replaces the predicate and returns the new model. In fetch-all
// mode the page is re-clamped against the filtered set.
func (t *Table[T]) SetFilter(pred filter.Predicate[T]) Model[T] {
	t.mu.Lock()
	t.pred = pred
	t.mu.Unlock()
	return t.Model()
}

// Model derives the current model. In fetch-all mode a page clamped by the
// filter is written back to the engine.
func (t *Table[T]) Model() Model[T] {
	t.mu.RLock()
	pred := t.pred
	t.mu.RUnlock()

	status := t.query.Status()
	m := Derive(status, pred)
	if status.FetchAll && m.Page != status.Page {
		t.query.ReconcilePage(m.Page)
	}
	return m
}

// Refresh loads the current range and derives the model. A fetch error is
// returned together with the model, which keeps any previously loaded items.
func (t *Table[T]) Refresh(ctx context.Context) (Model[T], error) {
	_, err := t.query.Load(ctx)
	return t.Model(), err
}

// Goto moves to page and loads it. Targets outside the displayed page count
// are ignored and reported as false.
func (t *Table[T]) Goto(ctx context.Context, page int) (Model[T], bool, error) {
	current := t.Model()
	if page < 0 || page >= current.PageCount {
		return current, false, nil
	}

	if current.FetchAll {
		t.query.ReconcilePage(page)
		return t.Model(), true, nil
	}

	if !t.query.GotoPage(page) {
		return t.Model(), false, nil
	}
	m, err := t.Refresh(ctx)
	return m, true, err
}

// OnChange calls fn with a fresh model whenever the engine state changes.
func (t *Table[T]) OnChange(fn func(Model[T])) func() {
	if fn == nil {
		return func() {}
	}
	return t.query.OnChange(func() {
		fn(t.Model())
	})
}
