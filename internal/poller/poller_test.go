package poller

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rickgao/dex-indexer/internal/api"
)

// fetcherFunc adapts a function to LiquidityFetcher.
type fetcherFunc func(ctx context.Context) (float64, error)

func (f fetcherFunc) GetLiquidity(ctx context.Context) (float64, error) {
	return f(ctx)
}

func TestPoller_StaticBeforeFirstPoll(t *testing.T) {
	cfg := DefaultConfig()
	p := New(cfg, nil, nil)

	if got := p.Liquidity(); got != 2450890 {
		t.Errorf("Liquidity = %v, want 2450890", got)
	}

	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := p.Stop(context.Background()); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if p.Stats().Live {
		t.Error("Live = true without a fetcher")
	}
}

func TestPoller_Poll(t *testing.T) {
	// Create a test server that returns pool data.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"pool":{"address":"0xpool","price":"2452.82","liquidity":"3100000"}}`))
	}))
	defer server.Close()

	client := api.NewClient(server.URL, "", api.WithPool("0xpool"), api.WithTimeout(5*time.Second))

	cfg := Config{
		Interval:        time.Hour, // Long interval, we'll trigger manually.
		Timeout:         5 * time.Second,
		StaticLiquidity: 1,
	}

	p := New(cfg, client, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	p.ctx = ctx

	p.poll()

	if got := p.Liquidity(); got != 3100000 {
		t.Errorf("Liquidity = %v, want 3100000", got)
	}
	stats := p.Stats()
	if !stats.Live || stats.Polls != 1 || stats.Errors != 0 {
		t.Errorf("stats = %+v, want live with 1 poll", stats)
	}
	if stats.LastSuccess.IsZero() {
		t.Error("LastSuccess not set")
	}
}

func TestPoller_FailureKeepsLastValue(t *testing.T) {
	var calls atomic.Int32
	fetcher := fetcherFunc(func(ctx context.Context) (float64, error) {
		if calls.Add(1) == 1 {
			return 500, nil
		}
		return 0, errors.New("gateway down")
	})

	p := New(Config{Interval: time.Hour, Timeout: time.Second, StaticLiquidity: 7}, fetcher, nil)
	p.ctx = context.Background()

	p.poll()
	p.poll()

	if got := p.Liquidity(); got != 500 {
		t.Errorf("Liquidity = %v, want 500", got)
	}
	if got := p.Stats().Errors; got != 1 {
		t.Errorf("Errors = %d, want 1", got)
	}
}

func TestPoller_StartStop(t *testing.T) {
	var called atomic.Bool
	fetcher := fetcherFunc(func(ctx context.Context) (float64, error) {
		called.Store(true)
		return 42, nil
	})

	cfg := Config{
		Interval: 100 * time.Millisecond,
		Timeout:  5 * time.Second,
	}

	p := New(cfg, fetcher, nil)

	ctx := context.Background()
	if err := p.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	// Wait for at least one poll.
	time.Sleep(150 * time.Millisecond)

	stopCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()

	if err := p.Stop(stopCtx); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}

	if !called.Load() {
		t.Error("fetcher was never called")
	}
	if got := p.Liquidity(); got != 42 {
		t.Errorf("Liquidity = %v, want 42", got)
	}
}

func TestPoller_TimeoutBoundsSlowFetch(t *testing.T) {
	fetcher := fetcherFunc(func(ctx context.Context) (float64, error) {
		<-ctx.Done()
		return 0, ctx.Err()
	})

	p := New(Config{Interval: time.Hour, Timeout: 20 * time.Millisecond, StaticLiquidity: 9}, fetcher, nil)
	p.ctx = context.Background()

	start := time.Now()
	p.poll()
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("poll took %v, want bounded by timeout", elapsed)
	}
	if got := p.Liquidity(); got != 9 {
		t.Errorf("Liquidity = %v, want static 9", got)
	}
}
