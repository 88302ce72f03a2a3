package server

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rickgao/dex-indexer/internal/model"
	"github.com/rickgao/dex-indexer/internal/version"
)

type fakeEngine struct {
	candles []model.Candle
	trades  []model.Trade
	stats   model.MarketStats
}

func (f *fakeEngine) Candles() []model.Candle        { return f.candles }
func (f *fakeEngine) RecentTrades() []model.Trade    { return f.trades }
func (f *fakeEngine) MarketStats() model.MarketStats { return f.stats }

func newFakeEngine() *fakeEngine {
	return &fakeEngine{
		candles: []model.Candle{
			{Time: 60, Open: 1, High: 2, Low: 1, Close: 2, Volume: 1},
			{Time: 120, Open: 2, High: 3, Low: 2, Close: 3, Volume: 2},
			{Time: 180, Open: 3, High: 4, Low: 3, Close: 4, Volume: 3},
		},
		trades: []model.Trade{
			{Hash: "0x3", Side: model.SideSell, Amount: "3", Price: 4, Time: 181},
			{Hash: "0x2", Side: model.SideBuy, Amount: "2", Price: 3, Time: 121},
		},
		stats: model.MarketStats{Price: 4, Change24h: 300, Volume24h: 6, Liquidity: 2450890},
	}
}

func setupTestServer(t *testing.T, stats StatsFunc) *httptest.Server {
	t.Helper()
	s := New(DefaultConfig(), newFakeEngine(), stats, nil)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func getJSON(t *testing.T, url string, out any) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s: %v", url, err)
		}
	}
	return resp
}

func TestHealth(t *testing.T) {
	ts := setupTestServer(t, nil)

	var body HealthResponse
	resp := getJSON(t, ts.URL+"/health", &body)

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	if body.Status != "ok" || body.Version != version.Version {
		t.Errorf("body = %+v", body)
	}
	if resp.Header.Get(RequestIDHeader) == "" {
		t.Error("missing request id header")
	}
}

func TestCandles(t *testing.T) {
	ts := setupTestServer(t, nil)

	tests := []struct {
		name      string
		query     string
		wantLen   int
		wantFirst int64
	}{
		{"all", "", 3, 60},
		{"limit keeps newest", "?limit=2", 2, 120},
		{"limit above length", "?limit=10", 3, 60},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var candles []model.Candle
			getJSON(t, ts.URL+"/api/v1/candles"+tt.query, &candles)

			if len(candles) != tt.wantLen {
				t.Fatalf("len = %d, want %d", len(candles), tt.wantLen)
			}
			if candles[0].Time != tt.wantFirst {
				t.Errorf("first = %d, want %d", candles[0].Time, tt.wantFirst)
			}
		})
	}
}

func TestTrades(t *testing.T) {
	ts := setupTestServer(t, nil)

	var trades []map[string]any
	getJSON(t, ts.URL+"/api/v1/trades?limit=1", &trades)

	if len(trades) != 1 {
		t.Fatalf("len = %d, want 1", len(trades))
	}
	if trades[0]["hash"] != "0x3" || trades[0]["type"] != "SELL" || trades[0]["amount"] != "3" {
		t.Errorf("trade = %v", trades[0])
	}
}

func TestBadLimit(t *testing.T) {
	ts := setupTestServer(t, nil)

	for _, q := range []string{"?limit=0", "?limit=-1", "?limit=abc"} {
		var body ErrorResponse
		resp := getJSON(t, ts.URL+"/api/v1/trades"+q, &body)
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", q, resp.StatusCode)
		}
		if body.Message == "" {
			t.Errorf("%s: empty error message", q)
		}
	}
}

func TestStats(t *testing.T) {
	ts := setupTestServer(t, nil)

	var stats model.MarketStats
	getJSON(t, ts.URL+"/api/v1/stats", &stats)

	if stats.Price != 4 || stats.Liquidity != 2450890 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestDebugStats(t *testing.T) {
	ts := setupTestServer(t, func() map[string]any {
		return map[string]any{"router": map[string]int{"events_routed": 7}}
	})

	var body map[string]map[string]float64
	getJSON(t, ts.URL+"/debug/stats", &body)

	if body["router"]["events_routed"] != 7 {
		t.Errorf("body = %v", body)
	}
}

func TestCORSAndRequestID(t *testing.T) {
	ts := setupTestServer(t, nil)

	req, _ := http.NewRequest(http.MethodOptions, ts.URL+"/api/v1/candles", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("OPTIONS failed: %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("status = %d, want 204", resp.StatusCode)
	}
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Allow-Origin = %q, want *", got)
	}
	if got := resp.Header.Get(RequestIDHeader); got != "abc-123" {
		t.Errorf("request id = %q, want abc-123", got)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	ts := setupTestServer(t, nil)

	resp, err := http.Post(ts.URL+"/api/v1/stats", "application/json", nil)
	if err != nil {
		t.Fatalf("POST failed: %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", resp.StatusCode)
	}
}

func TestServe_Shutdown(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	s := New(DefaultConfig(), newFakeEngine(), nil, nil)
	ctx, cancel := context.WithCancel(context.Background())

	errCh := make(chan error, 1)
	go func() { errCh <- s.Serve(ctx, ln) }()

	var body HealthResponse
	deadline := time.Now().Add(time.Second)
	for {
		resp, err := http.Get("http://" + ln.Addr().String() + "/health")
		if err == nil {
			json.NewDecoder(resp.Body).Decode(&body)
			resp.Body.Close()
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("server never came up: %v", err)
		}
		time.Sleep(10 * time.Millisecond)
	}
	if body.Status != "ok" {
		t.Errorf("status = %q, want ok", body.Status)
	}

	cancel()
	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("Serve returned %v, want nil", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}
