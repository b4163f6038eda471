package repositorysource

import (
	"context"

	"github.com/goliatone/go-pagecache/cache"
	"github.com/goliatone/go-pagecache/paging"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/rs/zerolog"
)

// Writer is the write side of a go-repository-bun repository.
type Writer[T any] interface {
	Create(ctx context.Context, record T, criteria ...repository.InsertCriteria) (T, error)
	Update(ctx context.Context, record T, criteria ...repository.UpdateCriteria) (T, error)
	Delete(ctx context.Context, record T) error
}

// CriteriaDeleter is implemented by repositories that delete by criteria.
type CriteriaDeleter interface {
	DeleteWhere(ctx context.Context, criteria ...repository.DeleteCriteria) error
}

// WriterOption customizes an InvalidatingWriter.
type WriterOption[T any] func(*InvalidatingWriter[T])

// WithIDFunc sets how record identities are derived. Defaults to
// paging.DefaultID.
func WithIDFunc[T any](fn paging.IDFunc[T]) WriterOption[T] {
	return func(w *InvalidatingWriter[T]) {
		if fn != nil {
			w.id = fn
		}
	}
}

// WithRelated adds prefixes invalidated after every successful write.
func WithRelated[T any](keys ...cache.QueryKey) WriterOption[T] {
	return func(w *InvalidatingWriter[T]) {
		w.related = append(w.related, keys...)
	}
}

// WithWriterLogger sets the logger.
func WithWriterLogger[T any](logger zerolog.Logger) WriterOption[T] {
	return func(w *InvalidatingWriter[T]) {
		w.logger = logger
	}
}

// InvalidatingWriter passes writes to a repository and, when they succeed,
// marks the affected cache entries stale so open queries refetch.
//
//   - Create invalidates the collection.
//   - Update invalidates the collection and stores the updated record
//     under its item key.
//   - Delete invalidates the collection and removes the item key.
//
// Failed writes leave the store untouched.
type InvalidatingWriter[T any] struct {
	base       Writer[T]
	store      cache.Store
	collection cache.QueryKey
	related    []cache.QueryKey
	id         paging.IDFunc[T]
	logger     zerolog.Logger
}

// NewInvalidatingWriter wraps base. collection is the key prefix the
// collection queries are built on.
func NewInvalidatingWriter[T any](base Writer[T], store cache.Store, collection cache.QueryKey, opts ...WriterOption[T]) *InvalidatingWriter[T] {
	w := &InvalidatingWriter[T]{
		base:       base,
		store:      store,
		collection: collection.Append(),
		id:         paging.DefaultID[T],
		logger:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Collection returns the key prefix the writer invalidates.
func (w *InvalidatingWriter[T]) Collection() cache.QueryKey {
	return w.collection.Append()
}

func (w *InvalidatingWriter[T]) Create(ctx context.Context, record T, criteria ...repository.InsertCriteria) (T, error) {
	result, err := w.base.Create(ctx, record, criteria...)
	if err == nil {
		w.invalidate(ctx, "create")
	}
	return result, err
}

func (w *InvalidatingWriter[T]) Update(ctx context.Context, record T, criteria ...repository.UpdateCriteria) (T, error) {
	result, err := w.base.Update(ctx, record, criteria...)
	if err != nil {
		return result, err
	}

	w.invalidate(ctx, "update")
	if id, ok := w.id(result); ok {
		w.store.Set(w.collection.Append(id), result)
	}
	return result, nil
}

func (w *InvalidatingWriter[T]) Delete(ctx context.Context, record T) error {
	if err := w.base.Delete(ctx, record); err != nil {
		return err
	}

	w.invalidate(ctx, "delete")
	if id, ok := w.id(record); ok {
		if err := w.store.Delete(ctx, w.collection.Append(id)); err != nil {
			w.logger.Warn().Err(err).Str("id", id).Msg("failed to drop deleted item from store")
		}
	}
	return nil
}

// DeleteWhere deletes by criteria when the wrapped repository supports it.
// Affected ids are unknown, so only prefixes are invalidated.
func (w *InvalidatingWriter[T]) DeleteWhere(ctx context.Context, criteria ...repository.DeleteCriteria) error {
	deleter, ok := w.base.(CriteriaDeleter)
	if !ok {
		return ErrUnsupported
	}
	if err := deleter.DeleteWhere(ctx, criteria...); err != nil {
		return err
	}
	w.invalidate(ctx, "delete_where")
	return nil
}

func (w *InvalidatingWriter[T]) invalidate(ctx context.Context, op string) {
	keys := append([]cache.QueryKey{w.collection}, w.related...)
	keys = append(keys, invalidationKeysFromContext(ctx)...)

	marked := 0
	for _, key := range dedupeKeys(keys) {
		marked += w.store.Invalidate(ctx, key)
	}

	w.logger.Debug().
		Str("op", op).
		Str("collection", w.collection.String()).
		Int("entries", marked).
		Msg("invalidated after write")
}
