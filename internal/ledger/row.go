package ledger

import "github.com/rickgao/dex-indexer/internal/model"

// tradeRow is the persisted shape of a trade.
type tradeRow struct {
	ID     string  `db:"id"`
	Hash   string  `db:"tx_hash"`
	Side   string  `db:"side"`
	Amount string  `db:"amount"`
	Price  float64 `db:"price"`
	Time   int64   `db:"ts"`
}

func newTradeRow(t model.Trade) tradeRow {
	return tradeRow{
		ID:     t.LedgerID().String(),
		Hash:   t.Hash,
		Side:   string(t.Side),
		Amount: t.Amount,
		Price:  t.Price,
		Time:   t.Time,
	}
}

func (r tradeRow) toTrade() model.Trade {
	return model.Trade{
		Hash:   r.Hash,
		Side:   model.Side(r.Side),
		Amount: r.Amount,
		Price:  r.Price,
		Time:   r.Time,
	}
}
