// Package database opens the trade ledger stores.
//
// PostgreSQL is reached through a pgx connection pool. The local SQLite
// ledger is opened through sqlx on the mattn/go-sqlite3 driver.
package database
