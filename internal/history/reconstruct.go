package history

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"slices"
	"time"

	"github.com/rickgao/dex-indexer/internal/candle"
	"github.com/rickgao/dex-indexer/internal/model"
	"github.com/rickgao/dex-indexer/internal/tape"
)

// Source provides persisted trade history in any order.
type Source interface {
	FetchTradeHistory(ctx context.Context) ([]model.Trade, error)
}

// Result describes what a reconstruction produced.
type Result struct {
	Trades    int  // Trades replayed
	Candles   int  // Candles in the store afterwards
	Synthetic bool // True if the synthetic walk was used
}

// Reconstructor replays history into a candle store and trade ring.
type Reconstructor struct {
	source Source
	walk   WalkConfig
	rng    *rand.Rand
	now    func() time.Time
	logger *slog.Logger
}

// Option configures a Reconstructor.
type Option func(*Reconstructor)

// WithRand sets the randomness source for the synthetic walk.
func WithRand(rng *rand.Rand) Option {
	return func(r *Reconstructor) {
		r.rng = rng
	}
}

// WithClock sets the clock used to anchor the synthetic walk.
func WithClock(now func() time.Time) Option {
	return func(r *Reconstructor) {
		r.now = now
	}
}

// WithWalk overrides the synthetic walk parameters.
func WithWalk(cfg WalkConfig) Option {
	return func(r *Reconstructor) {
		r.walk = cfg
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Reconstructor) {
		r.logger = logger
	}
}

// NewReconstructor creates a Reconstructor. source may be nil, in which case
// every run falls back to the synthetic walk.
func NewReconstructor(source Source, opts ...Option) *Reconstructor {
	r := &Reconstructor{
		source: source,
		walk:   DefaultWalkConfig(),
		rng:    rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0x5eed)),
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	return r
}

// Run fetches history and rebuilds store and ring. Fetch errors are logged
// and treated as empty history; Run never fails.
func (r *Reconstructor) Run(ctx context.Context, store *candle.Store, ring *tape.Ring) Result {
	var trades []model.Trade
	if r.source != nil {
		fetched, err := r.source.FetchTradeHistory(ctx)
		if err != nil {
			r.logger.Warn("trade history fetch failed, using synthetic history", "error", err)
		} else {
			trades = fetched
		}
	}
	return r.Replay(trades, store, ring)
}

// Replay rebuilds store and ring from trades without fetching.
func (r *Reconstructor) Replay(trades []model.Trade, store *candle.Store, ring *tape.Ring) Result {
	if len(trades) == 0 {
		n := Generate(r.walk, store, r.now(), r.rng)
		r.logger.Info("generated synthetic history",
			"candles", n,
			"start_price", r.walk.StartPrice,
		)
		return Result{Candles: store.Len(), Synthetic: true}
	}

	sorted := Sort(trades)
	for _, t := range sorted {
		store.ApplyTrade(t.Time, t.Price, t.Volume())
	}

	if ring != nil {
		start := len(sorted) - ring.Cap()
		if start < 0 {
			start = 0
		}
		for _, t := range sorted[start:] {
			ring.Push(t)
		}
	}

	r.logger.Info("reconstructed candles from trade history",
		"trades", len(sorted),
		"candles", store.Len(),
	)
	return Result{Trades: len(sorted), Candles: store.Len()}
}

// Sort returns a copy of trades ordered by time. Ties keep their fetch order.
func Sort(trades []model.Trade) []model.Trade {
	sorted := slices.Clone(trades)
	slices.SortStableFunc(sorted, func(a, b model.Trade) int {
		switch {
		case a.Time < b.Time:
			return -1
		case a.Time > b.Time:
			return 1
		default:
			return 0
		}
	})
	return sorted
}
