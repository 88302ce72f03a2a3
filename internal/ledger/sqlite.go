package ledger

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/rickgao/dex-indexer/internal/model"
)

const sqliteInsert = `
	INSERT OR IGNORE INTO trades (id, tx_hash, side, amount, price, ts)
	VALUES (:id, :tx_hash, :side, :amount, :price, :ts)
`

// SQLite is a ledger backed by a local SQLite file.
type SQLite struct {
	db    *sqlx.DB
	limit int
}

// NewSQLite creates a SQLite ledger. limit caps FetchTradeHistory to the
// most recent trades, 0 = all.
func NewSQLite(db *sqlx.DB, limit int) *SQLite {
	return &SQLite{db: db, limit: limit}
}

// EnsureSchema creates the trades table if it does not exist.
func (s *SQLite) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, sqliteSchema); err != nil {
		return fmt.Errorf("ensure sqlite schema: %w", err)
	}
	return nil
}

// FetchTradeHistory returns the most recent trades, oldest first.
func (s *SQLite) FetchTradeHistory(ctx context.Context) ([]model.Trade, error) {
	var rows []tradeRow
	var err error
	if s.limit > 0 {
		err = s.db.SelectContext(ctx, &rows, historyQuery("?", sqliteSeq, s.limit), s.limit)
	} else {
		err = s.db.SelectContext(ctx, &rows, historyQuery("", sqliteSeq, 0))
	}
	if err != nil {
		return nil, fmt.Errorf("query trades: %w", err)
	}

	trades := make([]model.Trade, 0, len(rows))
	for _, r := range rows {
		trades = append(trades, r.toTrade())
	}
	return trades, nil
}

// AppendTrade inserts one trade.
func (s *SQLite) AppendTrade(ctx context.Context, t model.Trade) error {
	if _, err := s.db.NamedExecContext(ctx, sqliteInsert, newTradeRow(t)); err != nil {
		return fmt.Errorf("insert trade %s: %w", t.Hash, err)
	}
	return nil
}

// AppendTrades inserts trades in one transaction.
func (s *SQLite) AppendTrades(ctx context.Context, trades []model.Trade) (inserted int, err error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareNamedContext(ctx, sqliteInsert)
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, t := range trades {
		res, err := stmt.ExecContext(ctx, newTradeRow(t))
		if err != nil {
			return 0, fmt.Errorf("insert trade %s: %w", t.Hash, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			inserted++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return inserted, nil
}
