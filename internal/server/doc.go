// Package server exposes the engine's read snapshots over HTTP.
//
// Routes:
//
//	GET /health           liveness and build version
//	GET /api/v1/candles   candles ascending by bucket start (?limit=N keeps the newest N)
//	GET /api/v1/trades    recent trades, newest first (?limit=N)
//	GET /api/v1/stats     market stats
//	GET /debug/stats      component counters
package server
