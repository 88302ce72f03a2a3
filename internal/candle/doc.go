// Package candle aggregates price and trade events into fixed-width OHLCV buckets.
//
// The aggregator functions are pure. Store owns the bucket map and is not safe
// for concurrent use; callers serialize access (see internal/indexer).
package candle
