package cli

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/goliatone/go-pagecache/cache"
	"github.com/goliatone/go-pagecache/poll"
	"github.com/spf13/cobra"
)

type watchParams struct {
	interval  time.Duration
	ticks     int
	failAfter int
}

// statusSummary is the polled value.
type statusSummary struct {
	Poll   int
	Series int
	At     time.Time
}

var statusKey = cache.Key("system", "status")

func newWatchCmd(a *app) *cobra.Command {
	var params watchParams

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Refetch a status summary on an interval and print each update",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWatch(cmd, a, params)
		},
	}

	cmd.Flags().DurationVar(&params.interval, "interval", 0, "refetch interval (0 = config paging.poll_interval)")
	cmd.Flags().IntVar(&params.ticks, "ticks", 0, "stop after this many updates (0 = until interrupted)")
	cmd.Flags().IntVar(&params.failAfter, "fail-after", 0, "make the loader fail after this many polls (0 = never)")

	return cmd
}

func runWatch(cmd *cobra.Command, a *app, params watchParams) error {
	if params.interval < 0 {
		return fmt.Errorf("--interval must be >= 0, got %v", params.interval)
	}
	if params.interval > 0 {
		a.cfg.Paging.PollInterval = params.interval
	}
	if err := a.buildContainer(); err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	var polls atomic.Int64
	loader := func(ctx context.Context) (any, error) {
		n := int(polls.Add(1))
		if params.failAfter > 0 && n > params.failAfter {
			return nil, fmt.Errorf("status source unavailable after %d polls", params.failAfter)
		}
		return statusSummary{Poll: n, Series: n * 10, At: time.Now()}, nil
	}

	store := a.container.Store()
	updates := make(chan struct{}, 1)
	unsubscribe := store.Subscribe(func(ev cache.Event) {
		if ev.Kind != cache.EventUpdated || ev.Key != statusKey.String() {
			return
		}
		select {
		case updates <- struct{}{}:
		default:
		}
	})
	defer unsubscribe()

	p, err := a.container.NewPoller(statusKey, loader, poll.WithImmediate())
	if err != nil {
		return err
	}
	if err := p.Start(ctx); err != nil {
		return err
	}
	defer p.Stop()

	out := cmd.OutOrStdout()
	seen := 0
	for {
		select {
		case <-updates:
			v, ok := cache.Get[statusSummary](store, statusKey)
			if !ok || v.Data.Poll <= seen {
				continue
			}
			seen = v.Data.Poll
			fmt.Fprintf(out, "poll %d: %d series at %s\n", v.Data.Poll, v.Data.Series, v.UpdatedAt.Format(time.RFC3339))
			if params.ticks > 0 && seen >= params.ticks {
				return nil
			}
		case <-p.Done():
			if err := p.Err(); err != nil {
				return fmt.Errorf("poller stopped: %w", err)
			}
			return nil
		case <-ctx.Done():
			return nil
		}
	}
}
