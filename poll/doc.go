// Package poll refreshes a cache key on an interval for as long as a view
// needs it. A failed refetch stops the poller; restarting is up to the
// caller.
package poll
