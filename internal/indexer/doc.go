// Package indexer runs the market-data engine: it rebuilds candles and the
// recent trade tape at startup, applies live sync and swap events in order,
// and serves read snapshots (candles, recent trades, market stats).
//
// All engine state sits behind one RWMutex. Mutations happen only in the
// startup bootstrap and in the single ingest goroutine; readers copy under
// the read lock and never wait on I/O.
package indexer
