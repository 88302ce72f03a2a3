package indexer

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rickgao/dex-indexer/internal/candle"
	"github.com/rickgao/dex-indexer/internal/history"
	"github.com/rickgao/dex-indexer/internal/model"
	"github.com/rickgao/dex-indexer/internal/router"
	"github.com/rickgao/dex-indexer/internal/tape"
)

// PriceSource reads the current pool price from the chain gateway.
type PriceSource interface {
	GetPrice(ctx context.Context) (float64, error)
}

// LiquiditySource reports pool liquidity without blocking.
type LiquiditySource interface {
	Liquidity() float64
}

// TradeSink accepts trades for asynchronous persistence.
// Submit must not block.
type TradeSink interface {
	Submit(t model.Trade) bool
}

// Price sources recorded in Stats.
const (
	PriceFromGateway = "gateway"
	PriceFromHistory = "history"
	PriceFromConfig  = "config"
)

// Stats holds engine counters.
type Stats struct {
	Started     bool    `json:"started"`
	Price       float64 `json:"price"`
	PriceSource string  `json:"price_source"`
	Synthetic   bool    `json:"synthetic"`
	Replayed    int     `json:"replayed"`
	Candles     int     `json:"candles"`
	Trades      int     `json:"trades"`
	Syncs       int64   `json:"syncs"`
	Swaps       int64   `json:"swaps"`
	Rejected    int64   `json:"rejected"`
	Unpersisted int64   `json:"unpersisted"`
	Evicted     int64   `json:"evicted"`
	Late        int64   `json:"late"`
}

// Engine owns the candle store, the trade ring and the current price.
type Engine struct {
	cfg    Config
	logger *slog.Logger

	// Collaborators
	ledger    history.Source
	prices    PriceSource
	liquidity LiquiditySource
	sink      TradeSink
	events    *router.GrowableBuffer[model.Event]

	now func() time.Time
	rng *rand.Rand

	// State, guarded by mu
	mu    sync.RWMutex
	store *candle.Store
	ring  *tape.Ring
	price float64
	stats Stats

	// Lifecycle
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Option configures an Engine.
type Option func(*Engine)

// WithPriceSource sets the gateway used for the startup price read.
func WithPriceSource(p PriceSource) Option {
	return func(e *Engine) {
		e.prices = p
	}
}

// WithLiquidity sets the liquidity source for market stats.
func WithLiquidity(l LiquiditySource) Option {
	return func(e *Engine) {
		e.liquidity = l
	}
}

// WithTradeSink sets where executed swaps are persisted.
func WithTradeSink(s TradeSink) Option {
	return func(e *Engine) {
		e.sink = s
	}
}

// WithEvents sets the ordered event buffer drained by the ingest loop.
func WithEvents(events *router.GrowableBuffer[model.Event]) Option {
	return func(e *Engine) {
		e.events = events
	}
}

// WithClock sets the clock used for missing timestamps and synthetic history.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// WithRand sets the randomness source for synthetic history.
func WithRand(rng *rand.Rand) Option {
	return func(e *Engine) {
		e.rng = rng
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// New creates an engine. ledger may be nil, in which case startup always
// falls back to synthetic history.
func New(cfg Config, ledger history.Source, opts ...Option) *Engine {
	def := DefaultConfig()
	if cfg.BucketWidth <= 0 {
		cfg.BucketWidth = def.BucketWidth
	}
	if cfg.RecentTrades <= 0 {
		cfg.RecentTrades = def.RecentTrades
	}
	if cfg.StatsWindow <= 0 {
		cfg.StatsWindow = def.StatsWindow
	}
	if cfg.StartupTimeout <= 0 {
		cfg.StartupTimeout = def.StartupTimeout
	}

	e := &Engine{
		cfg:    cfg,
		ledger: ledger,
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	if e.rng == nil {
		e.rng = rand.New(rand.NewPCG(uint64(e.now().UnixNano()), 0x1dc5))
	}

	e.store = candle.NewStore(cfg.BucketWidth, cfg.InitialPrice, cfg.Retention)
	e.ring = tape.NewRing(cfg.RecentTrades)
	e.price = cfg.InitialPrice
	e.stats.Price = cfg.InitialPrice
	e.stats.PriceSource = PriceFromConfig
	return e
}

// Start rebuilds state from the ledger, syncs the current price and then
// begins consuming live events. It returns once the bootstrap is complete.
func (e *Engine) Start(ctx context.Context) error {
	e.ctx, e.cancel = context.WithCancel(ctx)

	// Bootstrap (blocking).
	e.bootstrap(e.ctx)

	if e.events != nil {
		e.wg.Add(1)
		go e.ingestLoop()
	}

	if e.cfg.PruneInterval > 0 && e.cfg.Retention > 0 {
		e.wg.Add(1)
		go e.pruneLoop()
	}

	e.mu.Lock()
	e.stats.Started = true
	price, source, candles := e.price, e.stats.PriceSource, e.store.Len()
	e.mu.Unlock()

	e.logger.Info("indexer engine started",
		"price", price,
		"price_source", source,
		"candles", candles,
		"live", e.events != nil,
	)
	return nil
}

// Stop halts ingestion and waits for background goroutines.
func (e *Engine) Stop(ctx context.Context) error {
	if e.cancel != nil {
		e.cancel()
	}

	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		e.logger.Info("indexer engine stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// bootstrap rebuilds history and reads the gateway price concurrently, then
// installs the rebuilt state and picks the current price. Failures degrade,
// they never abort.
func (e *Engine) bootstrap(ctx context.Context) {
	start := time.Now()
	fetchCtx, cancel := context.WithTimeout(ctx, e.cfg.StartupTimeout)
	defer cancel()

	rec := history.NewReconstructor(e.ledger,
		history.WithClock(e.now),
		history.WithRand(e.rng),
		history.WithLogger(e.logger),
	)
	store := candle.NewStore(e.cfg.BucketWidth, e.cfg.InitialPrice, e.cfg.Retention)
	ring := tape.NewRing(e.cfg.RecentTrades)

	var (
		res     history.Result
		gwPrice float64
	)

	var g errgroup.Group
	g.Go(func() error {
		res = rec.Run(fetchCtx, store, ring)
		return nil
	})
	if e.prices != nil {
		g.Go(func() error {
			p, err := e.prices.GetPrice(fetchCtx)
			if err != nil {
				return fmt.Errorf("gateway price: %w", err)
			}
			gwPrice = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		e.logger.Warn("startup price read failed", "error", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.store = store
	e.ring = ring
	e.stats.Replayed = res.Trades
	e.stats.Synthetic = res.Synthetic

	switch {
	case gwPrice > 0:
		e.setPriceLocked(gwPrice, PriceFromGateway)
	case e.lastCloseLocked() > 0:
		e.setPriceLocked(e.lastCloseLocked(), PriceFromHistory)
	default:
		e.setPriceLocked(e.cfg.InitialPrice, PriceFromConfig)
	}
	e.store.SetSeed(e.price)

	e.logger.Info("bootstrap complete",
		"trades", res.Trades,
		"candles", res.Candles,
		"synthetic", res.Synthetic,
		"duration", time.Since(start),
	)
}

// lastCloseLocked returns the close of the most recent candle, or 0.
func (e *Engine) lastCloseLocked() float64 {
	b, ok := e.store.LatestBucket()
	if !ok {
		return 0
	}
	c, _ := e.store.Get(b)
	return c.Close
}

func (e *Engine) setPriceLocked(price float64, source string) {
	e.price = price
	e.stats.Price = price
	e.stats.PriceSource = source
}

// Apply processes one event synchronously. Invalid events are rejected
// without touching state.
func (e *Engine) Apply(ev model.Event) error {
	if err := ev.Validate(); err != nil {
		e.mu.Lock()
		e.stats.Rejected++
		e.mu.Unlock()
		return err
	}

	switch ev.Kind {
	case model.KindSync:
		e.applySync(*ev.Sync)
	case model.KindSwap:
		e.applySwap(*ev.Swap)
	}
	return nil
}

func (e *Engine) applySync(s model.SyncEvent) {
	ts := e.timestamp(s.Timestamp)

	e.mu.Lock()
	e.price = s.Price
	e.stats.Price = s.Price
	e.store.ApplyPrice(ts, s.Price)
	e.stats.Syncs++
	e.mu.Unlock()
}

func (e *Engine) applySwap(s model.SwapEvent) {
	ts := e.timestamp(s.Timestamp)

	e.mu.Lock()
	t := model.Trade{
		Hash:   s.Hash,
		Side:   s.Side,
		Amount: s.Amount,
		Price:  e.price,
		Time:   ts,
	}
	e.ring.Push(t)
	e.store.ApplyTrade(ts, t.Price, t.Volume())
	e.stats.Swaps++
	e.mu.Unlock()

	if e.sink != nil && !e.sink.Submit(t) {
		e.mu.Lock()
		e.stats.Unpersisted++
		e.mu.Unlock()
	}
}

// timestamp substitutes the clock for a missing event time.
func (e *Engine) timestamp(ts int64) int64 {
	if ts == 0 {
		return e.now().Unix()
	}
	return ts
}

// ingestLoop drains the event buffer in order, one event at a time.
func (e *Engine) ingestLoop() {
	defer e.wg.Done()

	for {
		select {
		case <-e.ctx.Done():
			return
		default:
			ev, ok := e.events.TryReceive()
			if !ok {
				// Buffer empty, wait a bit before trying again
				select {
				case <-e.ctx.Done():
					return
				case <-time.After(10 * time.Millisecond):
					continue
				}
			}

			if err := e.Apply(ev); err != nil {
				e.logger.Warn("rejected event", "kind", ev.Kind, "error", err)
			}
		}
	}
}

// pruneLoop periodically evicts buckets outside the retention window.
func (e *Engine) pruneLoop() {
	defer e.wg.Done()

	ticker := time.NewTicker(e.cfg.PruneInterval)
	defer ticker.Stop()

	for {
		select {
		case <-e.ctx.Done():
			return
		case <-ticker.C:
			e.prune()
		}
	}
}

func (e *Engine) prune() int {
	e.mu.Lock()
	n := e.store.Prune()
	e.mu.Unlock()

	if n > 0 {
		e.logger.Debug("pruned candles", "count", n)
	}
	return n
}

// Candles returns all candles ascending by bucket start.
func (e *Engine) Candles() []model.Candle {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.store.List()
}

// RecentTrades returns the most recent trades, newest first.
func (e *Engine) RecentTrades() []model.Trade {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.ring.Snapshot()
}

// Price returns the current price.
func (e *Engine) Price() float64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.price
}

// Stats returns current counters.
func (e *Engine) Stats() Stats {
	e.mu.RLock()
	defer e.mu.RUnlock()

	s := e.stats
	s.Candles = e.store.Len()
	s.Trades = e.ring.Len()
	s.Evicted = e.store.Evicted()
	s.Late = e.store.Late()
	return s
}
