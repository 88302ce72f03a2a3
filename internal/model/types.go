package model

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// -----------------------------------------------------------------------------
// Market Data Types
// -----------------------------------------------------------------------------

// Candle is the OHLCV aggregate of one fixed-width time bucket.
type Candle struct {
	Time   int64   `json:"time"` // Bucket start (s since epoch), truncated to the bucket width
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume float64 `json:"volume"` // Base-asset volume, only ever increases
}

// Side is the direction of an executed swap.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// ParseSide normalizes a wire side ("buy", "SELL", ...) into a Side.
func ParseSide(s string) (Side, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "BUY":
		return SideBuy, nil
	case "SELL":
		return SideSell, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidSide, s)
	}
}

// Trade represents one executed swap.
type Trade struct {
	Hash   string  `json:"hash"`   // Transaction hash, stable UI key
	Side   Side    `json:"type"`   // BUY or SELL
	Amount string  `json:"amount"` // Base-asset leg as a decimal string
	Price  float64 `json:"price"`  // Price applied at execution
	Time   int64   `json:"time"`   // Execution time (s since epoch)
}

// ledgerNamespace scopes ledger row IDs derived from transaction hashes.
var ledgerNamespace = uuid.MustParse("6f1d6c2e-8c43-4a8e-9a57-3f6d2b0e9c11")

// LedgerID returns a deterministic row ID for the trade so replays of the
// same swap collapse to one ledger row.
func (t Trade) LedgerID() uuid.UUID {
	return uuid.NewSHA1(ledgerNamespace, []byte(t.Hash))
}

// Volume returns the amount as a float64. Invalid amounts count as zero.
func (t Trade) Volume() float64 {
	d, err := ParseAmount(t.Amount)
	if err != nil {
		return 0
	}
	return d.InexactFloat64()
}

// MarketStats is the derived market snapshot served to the dashboard.
type MarketStats struct {
	Price     float64 `json:"price"`
	Change24h float64 `json:"change24h"`
	Volume24h float64 `json:"volume24h"`
	Liquidity float64 `json:"liquidity"`
}

// -----------------------------------------------------------------------------
// Feed Events
// -----------------------------------------------------------------------------

// Validation errors.
var (
	ErrUnknownKind    = errors.New("unknown event kind")
	ErrMissingPayload = errors.New("event payload missing")
	ErrInvalidPrice   = errors.New("price must be positive")
	ErrInvalidAmount  = errors.New("amount must be a positive decimal")
	ErrInvalidSide    = errors.New("side must be BUY or SELL")
	ErrMissingHash    = errors.New("transaction hash required")
	ErrNegativeTime   = errors.New("timestamp must not be negative")
)

// EventKind tags a feed event.
type EventKind string

const (
	KindSync EventKind = "sync"
	KindSwap EventKind = "swap"
)

// SyncEvent is a reserve update, read as a price-only update.
type SyncEvent struct {
	Price     float64
	Timestamp int64 // 0 = use receive time
}

// SwapEvent is an executed swap. It carries no execution price.
type SwapEvent struct {
	Hash      string
	Side      Side
	Amount    string
	Timestamp int64 // 0 = use receive time
}

// Event is a tagged union of the two feed event kinds.
// Exactly one of Sync or Swap is set, matching Kind.
type Event struct {
	Kind EventKind
	Sync *SyncEvent
	Swap *SwapEvent
}

// NewSyncEvent builds a sync event.
func NewSyncEvent(price float64, ts int64) Event {
	return Event{Kind: KindSync, Sync: &SyncEvent{Price: price, Timestamp: ts}}
}

// NewSwapEvent builds a swap event.
func NewSwapEvent(hash string, side Side, amount string, ts int64) Event {
	return Event{Kind: KindSwap, Swap: &SwapEvent{Hash: hash, Side: side, Amount: amount, Timestamp: ts}}
}

// Validate reports whether the event is well-formed.
func (e Event) Validate() error {
	switch e.Kind {
	case KindSync:
		if e.Sync == nil {
			return fmt.Errorf("sync: %w", ErrMissingPayload)
		}
		if !(e.Sync.Price > 0) {
			return fmt.Errorf("sync: %w", ErrInvalidPrice)
		}
		if e.Sync.Timestamp < 0 {
			return fmt.Errorf("sync: %w", ErrNegativeTime)
		}
	case KindSwap:
		if e.Swap == nil {
			return fmt.Errorf("swap: %w", ErrMissingPayload)
		}
		if e.Swap.Hash == "" {
			return fmt.Errorf("swap: %w", ErrMissingHash)
		}
		if e.Swap.Side != SideBuy && e.Swap.Side != SideSell {
			return fmt.Errorf("swap: %w", ErrInvalidSide)
		}
		if _, err := ParseAmount(e.Swap.Amount); err != nil {
			return fmt.Errorf("swap: %w", err)
		}
		if e.Swap.Timestamp < 0 {
			return fmt.Errorf("swap: %w", ErrNegativeTime)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownKind, e.Kind)
	}
	return nil
}

// ParseAmount parses a positive decimal amount string.
func ParseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	if !d.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return d, nil
}

// ParsePrice parses a positive decimal price string into a float64.
func ParsePrice(s string) (float64, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil || !d.IsPositive() {
		return 0, fmt.Errorf("%w: %q", ErrInvalidPrice, s)
	}
	return d.InexactFloat64(), nil
}
