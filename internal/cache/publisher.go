package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/rickgao/dex-indexer/internal/config"
	"github.com/rickgao/dex-indexer/internal/model"
)

// Key suffixes.
const (
	KeyStats   = "stats"
	KeyCandles = "candles"
	KeyTrades  = "trades"
)

// KV is the subset of the redis client used by the publisher.
type KV interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Ping(ctx context.Context) *redis.StatusCmd
}

// Snapshotter is the read side of the engine.
type Snapshotter interface {
	MarketStats() model.MarketStats
	Candles() []model.Candle
	RecentTrades() []model.Trade
}

// Config holds publisher settings.
type Config struct {
	Prefix   string
	Interval time.Duration
	TTL      time.Duration
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Prefix:   config.DefaultCachePrefix,
		Interval: config.DefaultCacheInterval,
		TTL:      config.DefaultCacheTTL,
	}
}

// Stats holds publisher counters.
type Stats struct {
	Publishes   int64     `json:"publishes"`
	Errors      int64     `json:"errors"`
	LastPublish time.Time `json:"last_publish"`
}

// NewClient creates a redis client from config.
func NewClient(cfg config.CacheConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

// Publisher periodically writes engine snapshots to redis.
type Publisher struct {
	cfg    Config
	kv     KV
	source Snapshotter
	logger *slog.Logger

	mu    sync.Mutex
	stats Stats

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewPublisher creates a Publisher.
func NewPublisher(cfg Config, kv KV, source Snapshotter, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	def := DefaultConfig()
	if cfg.Prefix == "" {
		cfg.Prefix = def.Prefix
	}
	if cfg.Interval <= 0 {
		cfg.Interval = def.Interval
	}
	if cfg.TTL <= 0 {
		cfg.TTL = def.TTL
	}
	return &Publisher{
		cfg:    cfg,
		kv:     kv,
		source: source,
		logger: logger,
	}
}

// Key returns the full redis key for suffix.
func (p *Publisher) Key(suffix string) string {
	return p.cfg.Prefix + ":" + suffix
}

// Start checks connectivity, publishes once and then publishes on every
// interval. An unreachable redis is logged, not fatal.
func (p *Publisher) Start(ctx context.Context) error {
	p.ctx, p.cancel = context.WithCancel(ctx)

	if err := p.kv.Ping(p.ctx).Err(); err != nil {
		p.logger.Warn("redis ping failed, publishing anyway", "error", err)
	}
	p.publishAndLog()

	p.wg.Add(1)
	go p.run()

	p.logger.Info("snapshot publisher started",
		"prefix", p.cfg.Prefix,
		"interval", p.cfg.Interval,
		"ttl", p.cfg.TTL,
	)
	return nil
}

// Stop halts publishing.
func (p *Publisher) Stop(ctx context.Context) error {
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
		p.logger.Info("snapshot publisher stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stats returns current counters.
func (p *Publisher) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stats
}

func (p *Publisher) run() {
	defer p.wg.Done()

	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-p.ctx.Done():
			return
		case <-ticker.C:
			p.publishAndLog()
		}
	}
}

func (p *Publisher) publishAndLog() {
	if err := p.Publish(p.ctx); err != nil {
		p.logger.Error("snapshot publish failed", "error", err)
	}
}

// Publish writes one snapshot of every key. It attempts all keys and
// returns the first error.
func (p *Publisher) Publish(ctx context.Context) error {
	values := []struct {
		suffix string
		value  any
	}{
		{KeyStats, p.source.MarketStats()},
		{KeyCandles, p.source.Candles()},
		{KeyTrades, p.source.RecentTrades()},
	}

	var firstErr error
	for _, v := range values {
		if err := p.set(ctx, v.suffix, v.value); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	p.mu.Lock()
	if firstErr != nil {
		p.stats.Errors++
	} else {
		p.stats.Publishes++
		p.stats.LastPublish = time.Now()
	}
	p.mu.Unlock()

	return firstErr
}

func (p *Publisher) set(ctx context.Context, suffix string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", suffix, err)
	}
	if err := p.kv.Set(ctx, p.Key(suffix), data, p.cfg.TTL).Err(); err != nil {
		return fmt.Errorf("set %s: %w", p.Key(suffix), err)
	}
	return nil
}
