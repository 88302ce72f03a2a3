package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/rickgao/dex-indexer/internal/config"
	"github.com/rickgao/dex-indexer/internal/database"
	"github.com/rickgao/dex-indexer/internal/model"
)

// Ledger is the persistent store of executed trades.
type Ledger interface {
	// FetchTradeHistory returns persisted trades. Trades sharing a timestamp
	// must come back in insertion order.
	FetchTradeHistory(ctx context.Context) ([]model.Trade, error)

	// AppendTrade persists one trade. Appending a known trade is a no-op.
	AppendTrade(ctx context.Context, t model.Trade) error
}

// BatchAppender is implemented by ledgers that can insert many trades at once.
type BatchAppender interface {
	// AppendTrades persists trades and reports how many were new.
	AppendTrades(ctx context.Context, trades []model.Trade) (inserted int, err error)
}

// ErrUnknownDriver is returned by Open for an unsupported driver name.
var ErrUnknownDriver = errors.New("unknown ledger driver")

// Open builds the ledger selected by cfg.Driver and ensures its schema.
// The returned close function releases the underlying connections.
func Open(ctx context.Context, cfg config.LedgerConfig, logger *slog.Logger) (Ledger, func(), error) {
	if logger == nil {
		logger = slog.Default()
	}

	switch cfg.Driver {
	case config.DriverPostgres:
		pool, err := database.Connect(ctx, cfg.Postgres)
		if err != nil {
			return nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
		pg := NewPostgres(pool, cfg.HistoryLimit)
		if err := pg.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		logger.Info("ledger opened", "driver", cfg.Driver, "host", cfg.Postgres.Host, "db", cfg.Postgres.Name)
		return pg, pool.Close, nil

	case config.DriverSQLite:
		db, err := database.OpenSQLite(ctx, cfg.SQLite.Path)
		if err != nil {
			return nil, nil, err
		}
		lite := NewSQLite(db, cfg.HistoryLimit)
		if err := lite.EnsureSchema(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}
		logger.Info("ledger opened", "driver", cfg.Driver, "path", cfg.SQLite.Path)
		return lite, func() { db.Close() }, nil

	case config.DriverMemory:
		logger.Info("ledger opened", "driver", cfg.Driver)
		return NewMemory(), func() {}, nil

	default:
		return nil, nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
	}
}
