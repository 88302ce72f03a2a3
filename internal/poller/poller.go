package poller

import (
	"context"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"
	"time"
)

// LiquidityFetcher fetches the current pool liquidity.
type LiquidityFetcher interface {
	GetLiquidity(ctx context.Context) (float64, error)
}

// Config holds poller configuration.
type Config struct {
	Interval        time.Duration // Poll interval (default: 30s)
	Timeout         time.Duration // Per-request timeout (default: 10s)
	StaticLiquidity float64       // Value served before the first successful poll
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Interval:        30 * time.Second,
		Timeout:         10 * time.Second,
		StaticLiquidity: 2450890,
	}
}

// Stats reports poller counters.
type Stats struct {
	Polls       int64     `json:"polls"`
	Errors      int64     `json:"errors"`
	LastSuccess time.Time `json:"last_success"`
	Live        bool      `json:"live"` // false while serving the static value
}

// Poller periodically fetches pool liquidity.
type Poller struct {
	cfg     Config
	fetcher LiquidityFetcher
	logger  *slog.Logger

	value       atomic.Uint64 // math.Float64bits
	live        atomic.Bool
	polls       atomic.Int64
	errors      atomic.Int64
	lastSuccess atomic.Int64 // unix nanos

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a new Poller. A nil fetcher serves the static value forever.
func New(cfg Config, fetcher LiquidityFetcher, logger *slog.Logger) *Poller {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Poller{
		cfg:     cfg,
		fetcher: fetcher,
		logger:  logger,
	}
	p.value.Store(math.Float64bits(cfg.StaticLiquidity))
	return p
}

// Liquidity returns the last polled liquidity without blocking.
func (p *Poller) Liquidity() float64 {
	return math.Float64frombits(p.value.Load())
}

// Stats returns current counters.
func (p *Poller) Stats() Stats {
	s := Stats{
		Polls:  p.polls.Load(),
		Errors: p.errors.Load(),
		Live:   p.live.Load(),
	}
	if ns := p.lastSuccess.Load(); ns != 0 {
		s.LastSuccess = time.Unix(0, ns)
	}
	return s
}

// Start begins the polling loop.
func (p *Poller) Start(ctx context.Context) error {
	p.ctx, p.cancel = context.WithCancel(ctx)

	if p.fetcher == nil {
		p.logger.Info("liquidity poller disabled, serving static value",
			"liquidity", p.cfg.StaticLiquidity,
		)
		return nil
	}

	p.wg.Add(1)
	go p.run()

	p.logger.Info("liquidity poller started",
		"interval", p.cfg.Interval,
	)

	return nil
}

// Stop gracefully shuts down the poller.
func (p *Poller) Stop(ctx context.Context) error {
	if p.cancel != nil {
		p.cancel()
	}

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Info("liquidity poller stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// run is the main polling loop.
func (p *Poller) run() {
	defer p.wg.Done()

	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	// Poll immediately on start.
	p.poll()

	for {
		select {
		case <-p.ctx.Done():
			return
		case <-ticker.C:
			p.poll()
		}
	}
}

// poll fetches liquidity once. Failures keep the previous value.
func (p *Poller) poll() {
	ctx, cancel := context.WithTimeout(p.ctx, p.cfg.Timeout)
	defer cancel()

	p.polls.Add(1)

	liquidity, err := p.fetcher.GetLiquidity(ctx)
	if err != nil {
		p.errors.Add(1)
		p.logger.Warn("failed to poll liquidity",
			"err", err,
			"serving", p.Liquidity(),
		)
		return
	}

	p.value.Store(math.Float64bits(liquidity))
	p.live.Store(true)
	p.lastSuccess.Store(time.Now().UnixNano())

	p.logger.Debug("liquidity updated", "liquidity", liquidity)
}
