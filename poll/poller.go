package poll

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/goliatone/go-pagecache/cache"
	"github.com/rs/zerolog"
)

var (
	// ErrAlreadyStarted is returned when Start is called twice.
	ErrAlreadyStarted = errors.New("poll: already started")
	// ErrStopped is returned when Start is called after Stop.
	ErrStopped = errors.New("poll: stopped")
	// ErrInvalidInterval is returned for non positive intervals.
	ErrInvalidInterval = errors.New("poll: interval must be positive")
)

// Option customizes a Poller.
type Option func(*Poller)

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(p *Poller) {
		p.logger = logger
	}
}

// WithImmediate makes the poller refetch once as soon as it starts instead
// of waiting for the first tick.
func WithImmediate() Option {
	return func(p *Poller) {
		p.immediate = true
	}
}

// Poller refetches one key on a fixed interval until it is stopped, its
// context ends, or a refetch fails. It never retries a failed refetch.
type Poller struct {
	store     cache.Store
	key       cache.QueryKey
	interval  time.Duration
	loader    cache.Loader
	logger    zerolog.Logger
	immediate bool

	mu      sync.Mutex
	started bool
	stopped bool
	cancel  context.CancelFunc
	err     error
	ticks   int
	done    chan struct{}
}

// New creates a stopped Poller.
func New(store cache.Store, key cache.QueryKey, interval time.Duration, loader cache.Loader, opts ...Option) (*Poller, error) {
	if store == nil {
		return nil, errors.New("poll: store cannot be nil")
	}
	if loader == nil {
		return nil, cache.ErrNilLoader
	}
	if interval <= 0 {
		return nil, ErrInvalidInterval
	}

	p := &Poller{
		store:    store,
		key:      key.Append(),
		interval: interval,
		loader:   loader,
		logger:   zerolog.Nop(),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.With().Str("poll_key", p.key.String()).Logger()
	return p, nil
}

// Start runs the poll loop in its own goroutine. The loop ends when ctx is
// done, Stop is called, or a refetch fails.
func (p *Poller) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped {
		return ErrStopped
	}
	if p.started {
		return ErrAlreadyStarted
	}

	ctx, cancel := context.WithCancel(ctx)
	p.started = true
	p.cancel = cancel

	go p.loop(ctx, cancel)
	return nil
}

// Stop ends the loop. It is safe to call more than once and before Start.
func (p *Poller) Stop() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	started := p.started
	cancel := p.cancel
	p.mu.Unlock()

	if !started {
		close(p.done)
		return
	}
	cancel()
	<-p.done
}

// Done is closed once the loop has exited.
func (p *Poller) Done() <-chan struct{} {
	return p.done
}

// Err returns the refetch error that stopped the loop, if any.
func (p *Poller) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

// Ticks returns how many refetches succeeded.
func (p *Poller) Ticks() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ticks
}

func (p *Poller) loop(ctx context.Context, cancel context.CancelFunc) {
	defer close(p.done)
	defer cancel()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.logger.Debug().Dur("interval", p.interval).Msg("poller started")

	if p.immediate && !p.tick(ctx) {
		return
	}

	for {
		select {
		case <-ctx.Done():
			p.logger.Debug().Msg("poller stopped")
			return
		case <-ticker.C:
		}

		if !p.tick(ctx) {
			return
		}
	}
}

func (p *Poller) tick(ctx context.Context) bool {
	_, err := p.store.Refetch(ctx, p.key, p.loader)

	p.mu.Lock()
	defer p.mu.Unlock()

	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		p.err = err
		p.stopped = true
		p.logger.Warn().Err(err).Int("ticks", p.ticks).Msg("refetch failed, stopping poller")
		return false
	}
	p.ticks++
	return true
}
