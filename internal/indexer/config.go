package indexer

import (
	"time"

	"github.com/rickgao/dex-indexer/internal/candle"
	"github.com/rickgao/dex-indexer/internal/config"
	"github.com/rickgao/dex-indexer/internal/tape"
)

// Config holds engine settings.
type Config struct {
	BucketWidth    int64   // Seconds
	InitialPrice   float64 // Price before any sync or gateway read
	RecentTrades   int     // Trade ring size
	StatsWindow    int     // Candles summed for 24h stats
	Retention      int64   // Seconds of buckets kept behind the newest; 0 = unbounded
	StartupTimeout time.Duration
	PruneInterval  time.Duration // 0 disables the periodic prune
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		BucketWidth:    candle.DefaultWidth,
		InitialPrice:   2452.82,
		RecentTrades:   tape.DefaultSize,
		StatsWindow:    1440,
		Retention:      48 * 60 * 60,
		StartupTimeout: 10 * time.Second,
		PruneInterval:  time.Minute,
	}
}

// FromConfig converts the indexer section of the YAML config.
func FromConfig(c config.EngineConfig) Config {
	return Config{
		BucketWidth:    c.BucketSeconds(),
		InitialPrice:   c.InitialPrice,
		RecentTrades:   c.RecentTrades,
		StatsWindow:    c.StatsWindow,
		Retention:      c.RetentionSeconds(),
		StartupTimeout: c.StartupTimeout,
		PruneInterval:  c.PruneInterval,
	}
}
