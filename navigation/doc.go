// Package navigation keeps a 1-based page parameter in step with a paging
// engine. The parameter is read once when a view mounts and rewritten with
// replace semantics on every navigation.
package navigation
