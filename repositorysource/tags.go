package repositorysource

import (
	"context"

	"github.com/goliatone/go-pagecache/cache"
)

type invalidationKeysContextKey struct{}

// WithInvalidationKeys attaches extra prefixes to invalidate after the next
// successful write made with ctx, for example the job list and system status
// after cancelling a job.
func WithInvalidationKeys(ctx context.Context, keys ...cache.QueryKey) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if len(keys) == 0 {
		return ctx
	}

	combined := dedupeKeys(append(invalidationKeysFromContext(ctx), keys...))
	if len(combined) == 0 {
		return ctx
	}
	return context.WithValue(ctx, invalidationKeysContextKey{}, combined)
}

func invalidationKeysFromContext(ctx context.Context) []cache.QueryKey {
	if ctx == nil {
		return nil
	}
	if keys, ok := ctx.Value(invalidationKeysContextKey{}).([]cache.QueryKey); ok {
		return append([]cache.QueryKey(nil), keys...)
	}
	return nil
}

func dedupeKeys(keys []cache.QueryKey) []cache.QueryKey {
	seen := make(map[string]struct{}, len(keys))
	out := make([]cache.QueryKey, 0, len(keys))
	for _, k := range keys {
		if len(k) == 0 {
			continue
		}
		s := k.String()
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, k)
	}
	return out
}
