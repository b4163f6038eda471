package paging

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/rs/zerolog"
)

// DefaultPageSize is used when no page size is configured.
const DefaultPageSize = 50

// Options configures a Query.
type Options[T any] struct {
	PageSize        int
	InitialPage     int
	FetchAll        bool
	CacheIndividual bool
	StaleTime       time.Duration
	IDFunc          IDFunc[T]
	Logger          zerolog.Logger
}

// Option mutates Options.
type Option[T any] func(*Options[T])

func defaultOptions[T any]() Options[T] {
	return Options[T]{
		PageSize:        DefaultPageSize,
		CacheIndividual: true,
		IDFunc:          DefaultID[T],
		Logger:          zerolog.Nop(),
	}
}

// Validate checks option values.
func (o Options[T]) Validate() error {
	return validation.ValidateStruct(&o,
		validation.Field(&o.PageSize, validation.Required, validation.Min(1)),
		validation.Field(&o.InitialPage, validation.Min(0)),
	)
}

func WithPageSize[T any](size int) Option[T] {
	return func(o *Options[T]) {
		o.PageSize = size
	}
}

// WithInitialPage sets the zero based page shown first, typically read from
// the navigation surface.
func WithInitialPage[T any](page int) Option[T] {
	return func(o *Options[T]) {
		o.InitialPage = page
	}
}

func WithFetchAll[T any](fetchAll bool) Option[T] {
	return func(o *Options[T]) {
		o.FetchAll = fetchAll
	}
}

// WithCacheIndividual toggles writing every fetched item under its own key.
func WithCacheIndividual[T any](enabled bool) Option[T] {
	return func(o *Options[T]) {
		o.CacheIndividual = enabled
	}
}

// WithStaleTime sets how long a fetched range counts as fresh. Zero makes
// every read trigger a background refresh; a negative value only refreshes
// after invalidation.
func WithStaleTime[T any](d time.Duration) Option[T] {
	return func(o *Options[T]) {
		o.StaleTime = d
	}
}

func WithIDFunc[T any](fn IDFunc[T]) Option[T] {
	return func(o *Options[T]) {
		if fn != nil {
			o.IDFunc = fn
		}
	}
}

func WithLogger[T any](logger zerolog.Logger) Option[T] {
	return func(o *Options[T]) {
		o.Logger = logger
	}
}
