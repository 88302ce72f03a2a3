package ledger

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rickgao/dex-indexer/internal/database"
	"github.com/rickgao/dex-indexer/internal/model"
)

func newTestSQLite(t *testing.T, limit int) *SQLite {
	t.Helper()
	ctx := context.Background()

	db, err := database.OpenSQLite(ctx, filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("OpenSQLite failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	s := NewSQLite(db, limit)
	if err := s.EnsureSchema(ctx); err != nil {
		t.Fatalf("EnsureSchema failed: %v", err)
	}
	// Idempotent
	if err := s.EnsureSchema(ctx); err != nil {
		t.Fatalf("second EnsureSchema failed: %v", err)
	}
	return s
}

func TestSQLite_AppendAndFetch(t *testing.T) {
	ctx := context.Background()
	s := newTestSQLite(t, 0)

	want := trade("0xaaa", model.SideBuy, "1.500000000000000001", 2460, 1700000010)
	if err := s.AppendTrade(ctx, want); err != nil {
		t.Fatalf("AppendTrade failed: %v", err)
	}
	if err := s.AppendTrade(ctx, want); err != nil {
		t.Fatalf("duplicate AppendTrade failed: %v", err)
	}

	got, err := s.FetchTradeHistory(ctx)
	if err != nil {
		t.Fatalf("FetchTradeHistory failed: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("len = %d, want 1", len(got))
	}
	if got[0] != want {
		t.Errorf("trade = %+v, want %+v", got[0], want)
	}
}

func TestSQLite_AppendTrades(t *testing.T) {
	ctx := context.Background()
	s := newTestSQLite(t, 0)

	batch := []model.Trade{
		trade("0x1", model.SideBuy, "1", 2450, 60),
		trade("0x2", model.SideSell, "2", 2451, 120),
		trade("0x1", model.SideBuy, "1", 2450, 60),
	}
	n, err := s.AppendTrades(ctx, batch)
	if err != nil {
		t.Fatalf("AppendTrades failed: %v", err)
	}
	if n != 2 {
		t.Errorf("inserted = %d, want 2", n)
	}

	n, err = s.AppendTrades(ctx, batch[:2])
	if err != nil {
		t.Fatalf("AppendTrades failed: %v", err)
	}
	if n != 0 {
		t.Errorf("replayed inserted = %d, want 0", n)
	}
}

func TestSQLite_HistoryLimitKeepsMostRecent(t *testing.T) {
	ctx := context.Background()
	s := newTestSQLite(t, 2)

	for i, ts := range []int64{60, 180, 120} {
		tr := trade(string(rune('a'+i)), model.SideBuy, "1", 2450, ts)
		if err := s.AppendTrade(ctx, tr); err != nil {
			t.Fatalf("AppendTrade failed: %v", err)
		}
	}

	got, err := s.FetchTradeHistory(ctx)
	if err != nil {
		t.Fatalf("FetchTradeHistory failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].Time != 120 || got[1].Time != 180 {
		t.Errorf("times = %d,%d, want 120,180", got[0].Time, got[1].Time)
	}
}

func TestSQLite_HistoryTiesKeepInsertionOrder(t *testing.T) {
	ctx := context.Background()
	s := newTestSQLite(t, 3)

	// Hashes sort opposite to insertion order
	hashes := []string{"0xf", "0xc", "0xa", "0x9"}
	for i, h := range hashes {
		tr := trade(h, model.SideBuy, "1", float64(2450+i), 120)
		if err := s.AppendTrade(ctx, tr); err != nil {
			t.Fatalf("AppendTrade failed: %v", err)
		}
	}

	for run := 0; run < 3; run++ {
		got, err := s.FetchTradeHistory(ctx)
		if err != nil {
			t.Fatalf("FetchTradeHistory failed: %v", err)
		}
		if len(got) != 3 {
			t.Fatalf("len = %d, want 3", len(got))
		}
		for i, want := range hashes[1:] {
			if got[i].Hash != want {
				t.Fatalf("run %d: trade %d = %s, want %s", run, i, got[i].Hash, want)
			}
		}
	}
}
