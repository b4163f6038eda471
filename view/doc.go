// Package view turns a paging.Status and a filter predicate into what a
// table displays.
//
// Derive is pure and cheap enough to run on every state or store change.
// Table wraps a Query and writes pages clamped by a client side filter back
// to the engine so both agree on the current index.
package view
