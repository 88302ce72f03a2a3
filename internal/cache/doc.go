// Package cache publishes engine snapshots to redis so several dashboard
// replicas can read candles, recent trades and market stats without talking
// to the indexer directly.
//
// Keys (with the configured prefix):
//
//	<prefix>:stats    model.MarketStats
//	<prefix>:candles  []model.Candle, ascending
//	<prefix>:trades   []model.Trade, newest first
//
// Each key is rewritten every interval and expires after the TTL, so a
// stopped indexer's data ages out on its own.
package cache
