// Package model defines shared data types used across the indexer.
//
// Conventions:
//   - Prices: float64 quote units per base unit
//   - Amounts: decimal strings as carried on the wire (e.g. "1.5")
//   - Timestamps: int64 seconds since Unix epoch
//   - IDs: opaque transaction hash strings; ledger rows use uuid.UUID derived from the hash
package model
