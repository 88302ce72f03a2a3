package candle

import (
	"math"

	"github.com/rickgao/dex-indexer/internal/model"
)

// DefaultWidth is the bucket width in seconds (one-minute candles).
const DefaultWidth int64 = 60

// BucketStart truncates t down to the start of its bucket.
// Floor division keeps pre-epoch timestamps in the right bucket.
func BucketStart(t, width int64) int64 {
	if width <= 0 {
		width = DefaultWidth
	}
	b := t / width
	if t%width != 0 && t < 0 {
		b--
	}
	return b * width
}

// ApplyPrice folds a price-only update into a bucket.
//
// A new bucket opens at prevClose so adjacent candles stay continuous.
// An existing bucket moves its close and widens high/low; volume is untouched.
func ApplyPrice(c model.Candle, exists bool, bucket int64, prevClose, price float64) model.Candle {
	if !exists {
		return model.Candle{
			Time:  bucket,
			Open:  prevClose,
			High:  math.Max(prevClose, price),
			Low:   math.Min(prevClose, price),
			Close: price,
		}
	}
	c.Close = price
	c.High = math.Max(c.High, price)
	c.Low = math.Min(c.Low, price)
	return c
}

// ApplyTrade folds an executed trade into a bucket.
func ApplyTrade(c model.Candle, exists bool, bucket int64, price, volume float64) model.Candle {
	if !exists {
		return model.Candle{
			Time:   bucket,
			Open:   price,
			High:   price,
			Low:    price,
			Close:  price,
			Volume: volume,
		}
	}
	c.Close = price
	c.High = math.Max(c.High, price)
	c.Low = math.Min(c.Low, price)
	c.Volume += volume
	return c
}
