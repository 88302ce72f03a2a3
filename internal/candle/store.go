package candle

import (
	"sort"

	"github.com/rickgao/dex-indexer/internal/model"
)

// Store maps bucket start to candle.
type Store struct {
	width     int64
	seed      float64 // prevClose for the very first price update
	retention int64   // seconds; 0 = keep everything

	candles   map[int64]model.Candle
	latest    int64
	lastClose float64
	newest    int64
	touched   bool

	evicted int64
	late    int64
}

// NewStore creates an empty store. seed is used as the open of the first
// price-only candle when nothing has been aggregated yet.
func NewStore(width int64, seed float64, retention int64) *Store {
	if width <= 0 {
		width = DefaultWidth
	}
	if retention < 0 {
		retention = 0
	}
	return &Store{
		width:     width,
		seed:      seed,
		retention: retention,
		candles:   make(map[int64]model.Candle),
	}
}

// Width returns the bucket width in seconds.
func (s *Store) Width() int64 {
	return s.width
}

// SetSeed replaces the prevClose used before any bucket has been touched.
func (s *Store) SetSeed(price float64) {
	s.seed = price
}

// Bucket returns the bucket start for t.
func (s *Store) Bucket(t int64) int64 {
	return BucketStart(t, s.width)
}

// ApplyPrice applies a price-only update at time t. Updates for buckets
// already outside the retention window are skipped and return the zero
// Candle.
func (s *Store) ApplyPrice(t int64, price float64) model.Candle {
	bucket := s.Bucket(t)
	if s.expired(bucket) {
		s.late++
		return model.Candle{}
	}
	c, exists := s.candles[bucket]

	prevClose := s.seed
	if !exists && s.touched {
		prevClose = s.lastClose
	}

	c = ApplyPrice(c, exists, bucket, prevClose, price)
	s.put(c, !exists)
	return c
}

// ApplyTrade applies an executed trade at time t. Trades for buckets already
// outside the retention window are skipped and return the zero Candle.
func (s *Store) ApplyTrade(t int64, price, volume float64) model.Candle {
	bucket := s.Bucket(t)
	if s.expired(bucket) {
		s.late++
		return model.Candle{}
	}
	c, exists := s.candles[bucket]
	c = ApplyTrade(c, exists, bucket, price, volume)
	s.put(c, !exists)
	return c
}

// Restore inserts a fully formed candle, replacing any existing bucket.
// Only used to load pre-aggregated history.
func (s *Store) Restore(c model.Candle) {
	c.Time = s.Bucket(c.Time)
	if s.expired(c.Time) {
		s.late++
		return
	}
	_, exists := s.candles[c.Time]
	s.put(c, !exists)
}

// expired reports whether bucket is at or behind the retention cutoff.
func (s *Store) expired(bucket int64) bool {
	return s.retention > 0 && s.touched && bucket <= s.newest-s.retention
}

// put stores c and marks its bucket as the most recently touched.
func (s *Store) put(c model.Candle, created bool) {
	s.candles[c.Time] = c
	s.latest = c.Time
	s.lastClose = c.Close
	if !s.touched || c.Time > s.newest {
		s.newest = c.Time
	}
	s.touched = true
	if created {
		s.Prune()
	}
}

// Get returns the candle for the bucket containing t.
func (s *Store) Get(t int64) (model.Candle, bool) {
	c, ok := s.candles[s.Bucket(t)]
	return c, ok
}

// LatestBucket returns the most recently touched bucket.
func (s *Store) LatestBucket() (int64, bool) {
	if !s.touched {
		return 0, false
	}
	if _, ok := s.candles[s.latest]; !ok {
		return 0, false
	}
	return s.latest, true
}

// Len returns the number of candles held.
func (s *Store) Len() int {
	return len(s.candles)
}

// List returns all candles ascending by bucket start.
func (s *Store) List() []model.Candle {
	out := make([]model.Candle, 0, len(s.candles))
	for _, c := range s.candles {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Time < out[j].Time
	})
	return out
}

// Tail returns the last n candles ascending by bucket start.
func (s *Store) Tail(n int) []model.Candle {
	all := s.List()
	if n > 0 && len(all) > n {
		return all[len(all)-n:]
	}
	return all
}

// Prune evicts buckets older than the retention window, measured back from
// the newest bucket held. Returns the number of candles evicted.
func (s *Store) Prune() int {
	if s.retention == 0 || len(s.candles) == 0 {
		return 0
	}

	var newest int64
	first := true
	for b := range s.candles {
		if first || b > newest {
			newest = b
			first = false
		}
	}

	cutoff := newest - s.retention
	removed := 0
	for b := range s.candles {
		if b <= cutoff {
			delete(s.candles, b)
			removed++
		}
	}
	s.evicted += int64(removed)
	return removed
}

// Evicted returns the total number of candles removed by retention.
func (s *Store) Evicted() int64 {
	return s.evicted
}

// Late returns the number of updates skipped because their bucket had
// already left the retention window.
func (s *Store) Late() int64 {
	return s.late
}
