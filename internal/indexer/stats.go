package indexer

import "github.com/rickgao/dex-indexer/internal/model"

// MarketStats derives the market snapshot from the current price and the
// last StatsWindow candles.
func (e *Engine) MarketStats() model.MarketStats {
	e.mu.RLock()
	price := e.price
	window := e.store.Tail(e.cfg.StatsWindow)
	e.mu.RUnlock()

	var liquidity float64
	if e.liquidity != nil {
		liquidity = e.liquidity.Liquidity()
	}
	return computeStats(window, price, liquidity)
}

// computeStats builds stats over window, which is ascending by bucket start.
// change24h is relative to the open of the earliest candle and is 0 when
// there is no usable open.
func computeStats(window []model.Candle, price, liquidity float64) model.MarketStats {
	stats := model.MarketStats{
		Price:     price,
		Liquidity: liquidity,
	}
	if len(window) == 0 {
		return stats
	}

	if open0 := window[0].Open; open0 != 0 {
		stats.Change24h = (price - open0) / open0 * 100
	}
	for _, c := range window {
		stats.Volume24h += c.Volume
	}
	return stats
}
