package ledger

// Postgres schema. amount is kept as text so the exact decimal string from
// the feed round-trips unchanged.
const postgresSchema = `
CREATE TABLE IF NOT EXISTS trades (
	id         UUID PRIMARY KEY,
	tx_hash    TEXT NOT NULL,
	side       TEXT NOT NULL CHECK (side IN ('BUY', 'SELL')),
	amount     TEXT NOT NULL,
	price      DOUBLE PRECISION NOT NULL,
	ts         BIGINT NOT NULL,
	seq        BIGSERIAL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
ALTER TABLE trades ADD COLUMN IF NOT EXISTS seq BIGSERIAL;
CREATE INDEX IF NOT EXISTS trades_ts_idx ON trades (ts DESC, seq DESC);
`

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS trades (
	id         TEXT PRIMARY KEY,
	tx_hash    TEXT NOT NULL,
	side       TEXT NOT NULL CHECK (side IN ('BUY', 'SELL')),
	amount     TEXT NOT NULL,
	price      REAL NOT NULL,
	ts         INTEGER NOT NULL,
	created_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now'))
);
CREATE INDEX IF NOT EXISTS trades_ts_idx ON trades (ts DESC);
`

// Columns recording insertion order, used to break timestamp ties.
const (
	postgresSeq = "seq"
	sqliteSeq   = "rowid"
)

// historyQuery selects the most recent trades and returns them oldest
// first. Trades sharing a timestamp come back in insertion order, read from
// the seq column. limit <= 0 selects everything.
func historyQuery(placeholder, seq string, limit int) string {
	inner := `SELECT tx_hash, side, amount, price, ts, ` + seq + ` AS seq FROM trades ORDER BY ts DESC, seq DESC`
	if limit > 0 {
		inner += ` LIMIT ` + placeholder
	}
	return `SELECT tx_hash, side, amount, price, ts FROM (` + inner + `) AS recent ORDER BY ts, seq`
}
