// Package tape keeps the most recent trades for display.
package tape

import "github.com/rickgao/dex-indexer/internal/model"

// DefaultSize is the number of trades kept by default.
const DefaultSize = 50

// Ring is a fixed-capacity list of trades, most recent first.
// Not safe for concurrent use.
type Ring struct {
	buf   []model.Trade
	head  int // index of the most recent trade
	count int
}

// NewRing creates a ring holding at most size trades.
func NewRing(size int) *Ring {
	if size < 1 {
		size = DefaultSize
	}
	return &Ring{buf: make([]model.Trade, size)}
}

// Push inserts t at the front, evicting the oldest trade when full.
func (r *Ring) Push(t model.Trade) {
	r.head = (r.head - 1 + len(r.buf)) % len(r.buf)
	r.buf[r.head] = t
	if r.count < len(r.buf) {
		r.count++
	}
}

// Snapshot returns a copy of the held trades, most recent first.
func (r *Ring) Snapshot() []model.Trade {
	out := make([]model.Trade, r.count)
	for i := 0; i < r.count; i++ {
		out[i] = r.buf[(r.head+i)%len(r.buf)]
	}
	return out
}

// Len returns the number of trades held.
func (r *Ring) Len() int {
	return r.count
}

// Cap returns the maximum number of trades held.
func (r *Ring) Cap() int {
	return len(r.buf)
}

// Reset drops all trades.
func (r *Ring) Reset() {
	clear(r.buf)
	r.head = 0
	r.count = 0
}
