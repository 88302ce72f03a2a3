package ledger

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/rickgao/dex-indexer/internal/model"
)

// Memory is an in-process ledger.
type Memory struct {
	mu        sync.Mutex
	trades    []model.Trade
	ids       map[uuid.UUID]struct{}
	fetchErr  error
	appendErr error
}

// NewMemory creates a Memory ledger preloaded with trades.
func NewMemory(trades ...model.Trade) *Memory {
	m := &Memory{ids: make(map[uuid.UUID]struct{})}
	for _, t := range trades {
		m.add(t)
	}
	return m
}

// FailFetch makes subsequent FetchTradeHistory calls return err.
func (m *Memory) FailFetch(err error) {
	m.mu.Lock()
	m.fetchErr = err
	m.mu.Unlock()
}

// FailAppend makes subsequent appends return err.
func (m *Memory) FailAppend(err error) {
	m.mu.Lock()
	m.appendErr = err
	m.mu.Unlock()
}

// FetchTradeHistory returns a copy of all trades in insertion order.
func (m *Memory) FetchTradeHistory(ctx context.Context) ([]model.Trade, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.fetchErr != nil {
		return nil, m.fetchErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := make([]model.Trade, len(m.trades))
	copy(out, m.trades)
	return out, nil
}

// AppendTrade stores one trade.
func (m *Memory) AppendTrade(ctx context.Context, t model.Trade) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.appendErr != nil {
		return m.appendErr
	}
	m.add(t)
	return nil
}

// AppendTrades stores trades and reports how many were new.
func (m *Memory) AppendTrades(ctx context.Context, trades []model.Trade) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.appendErr != nil {
		return 0, m.appendErr
	}
	inserted := 0
	for _, t := range trades {
		if m.add(t) {
			inserted++
		}
	}
	return inserted, nil
}

// Len returns the number of stored trades.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.trades)
}

func (m *Memory) add(t model.Trade) bool {
	id := t.LedgerID()
	if _, ok := m.ids[id]; ok {
		return false
	}
	m.ids[id] = struct{}{}
	m.trades = append(m.trades, t)
	return true
}
