// Package history rebuilds aggregation state from persisted trades at startup.
//
// When the ledger has nothing (or cannot be reached) a synthetic one-minute
// price walk is generated instead so the chart is never empty. Synthetic
// results are flagged.
package history
