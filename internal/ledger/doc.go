// Package ledger implements the trade ledger collaborator.
//
// Backends:
//   - Postgres (pgx pool, batched inserts)
//   - SQLite (sqlx over mattn/go-sqlite3)
//   - Memory (tests and demos)
//
// All backends are append-only and keyed by a deterministic UUID derived from
// the transaction hash, so replays and retries never duplicate a trade.
//
// Writer decouples the indexer from ledger latency: trades are queued into a
// bounded buffer and flushed in batches by a background goroutine.
package ledger
