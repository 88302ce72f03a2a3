package history

import (
	"math"
	"math/rand/v2"
	"time"

	"github.com/rickgao/dex-indexer/internal/candle"
	"github.com/rickgao/dex-indexer/internal/model"
)

// WalkConfig parameterizes the synthetic price walk.
type WalkConfig struct {
	StartPrice float64 // Open of the first candle
	Candles    int     // Number of buckets, ending at the current bucket
	Step       float64 // Max close-to-close move is +/- Step/2
	Wick       float64 // Added above max(open, close) and below min(open, close)
	MaxVolume  float64 // Volume is uniform in [0, MaxVolume)
}

// DefaultWalkConfig returns the walk used when no history exists.
func DefaultWalkConfig() WalkConfig {
	return WalkConfig{
		StartPrice: 2450.0,
		Candles:    100,
		Step:       5,
		Wick:       1,
		MaxVolume:  500,
	}
}

// Generate writes cfg.Candles consecutive candles into store, the last one in
// the bucket containing now. Returns the number of candles written.
func Generate(cfg WalkConfig, store *candle.Store, now time.Time, rng *rand.Rand) int {
	width := store.Width()
	last := store.Bucket(now.Unix())
	price := cfg.StartPrice

	for i := cfg.Candles - 1; i >= 0; i-- {
		open := price
		next := price + (rng.Float64()-0.5)*cfg.Step
		store.Restore(model.Candle{
			Time:   last - int64(i)*width,
			Open:   open,
			High:   math.Max(open, next) + cfg.Wick,
			Low:    math.Min(open, next) - cfg.Wick,
			Close:  next,
			Volume: rng.Float64() * cfg.MaxVolume,
		})
		price = next
	}
	return cfg.Candles
}
