// Package router parses raw feed frames into validated market events.
//
// The router is the validation boundary: frames that do not decode into a
// well-formed sync or swap event are counted and skipped, never forwarded.
// Valid events are pushed, in arrival order, into a single buffer consumed by
// the indexer.
package router
