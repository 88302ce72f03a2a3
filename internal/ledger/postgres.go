package ledger

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rickgao/dex-indexer/internal/model"
)

const postgresInsert = `
	INSERT INTO trades (id, tx_hash, side, amount, price, ts)
	VALUES ($1, $2, $3, $4, $5, $6)
	ON CONFLICT (id) DO NOTHING
`

// Postgres is a ledger backed by a pgx pool.
type Postgres struct {
	db    *pgxpool.Pool
	limit int
}

// NewPostgres creates a Postgres ledger. limit caps FetchTradeHistory to the
// most recent trades, 0 = all.
func NewPostgres(db *pgxpool.Pool, limit int) *Postgres {
	return &Postgres{db: db, limit: limit}
}

// EnsureSchema creates the trades table if it does not exist.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	if _, err := p.db.Exec(ctx, postgresSchema); err != nil {
		return fmt.Errorf("ensure postgres schema: %w", err)
	}
	return nil
}

// FetchTradeHistory returns the most recent trades, oldest first.
func (p *Postgres) FetchTradeHistory(ctx context.Context) ([]model.Trade, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if p.limit > 0 {
		rows, err = p.db.Query(ctx, historyQuery("$1", postgresSeq, p.limit), p.limit)
	} else {
		rows, err = p.db.Query(ctx, historyQuery("", postgresSeq, 0))
	}
	if err != nil {
		return nil, fmt.Errorf("query trades: %w", err)
	}
	defer rows.Close()

	var trades []model.Trade
	for rows.Next() {
		var r tradeRow
		if err := rows.Scan(&r.Hash, &r.Side, &r.Amount, &r.Price, &r.Time); err != nil {
			return nil, fmt.Errorf("scan trade: %w", err)
		}
		trades = append(trades, r.toTrade())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read trades: %w", err)
	}

	return trades, nil
}

// AppendTrade inserts one trade.
func (p *Postgres) AppendTrade(ctx context.Context, t model.Trade) error {
	r := newTradeRow(t)
	if _, err := p.db.Exec(ctx, postgresInsert, r.ID, r.Hash, r.Side, r.Amount, r.Price, r.Time); err != nil {
		return fmt.Errorf("insert trade %s: %w", t.Hash, err)
	}
	return nil
}

// AppendTrades inserts trades using pgx.Batch with ON CONFLICT DO NOTHING.
func (p *Postgres) AppendTrades(ctx context.Context, trades []model.Trade) (inserted int, err error) {
	batch := &pgx.Batch{}
	for _, t := range trades {
		r := newTradeRow(t)
		batch.Queue(postgresInsert, r.ID, r.Hash, r.Side, r.Amount, r.Price, r.Time)
	}

	results := p.db.SendBatch(ctx, batch)
	defer results.Close()

	for range trades {
		ct, err := results.Exec()
		if err != nil {
			return inserted, fmt.Errorf("batch insert: %w", err)
		}
		if ct.RowsAffected() > 0 {
			inserted++
		}
	}

	return inserted, nil
}
