package router

// RouterConfig holds configuration for the Message Router.
type RouterConfig struct {
	EventBufferSize int // Initial event buffer capacity. Default: 1000
	MaxEventBuffer  int // Event buffer ceiling, 0 = unbounded. Default: 100000
}

// DefaultRouterConfig returns default configuration.
func DefaultRouterConfig() RouterConfig {
	return RouterConfig{
		EventBufferSize: 1000,
		MaxEventBuffer:  100000,
	}
}

// Wire types for JSON parsing

// syncWire is the wire format for sync messages.
type syncWire struct {
	Type string `json:"type"`
	Seq  int64  `json:"seq"`
	Msg  struct {
		Price string `json:"price"` // decimal string, e.g. "2460.00"
		Ts    int64  `json:"ts"`    // seconds; 0 or absent = receive time
	} `json:"msg"`
}

// swapWire is the wire format for swap messages.
type swapWire struct {
	Type string `json:"type"`
	Seq  int64  `json:"seq"`
	Msg  struct {
		TxHash string `json:"tx_hash"`
		Side   string `json:"side"`   // "buy" or "sell"
		Amount string `json:"amount"` // decimal string, base-asset leg
		Ts     int64  `json:"ts"`
	} `json:"msg"`
}

// messageEnvelope is used for fast type extraction.
type messageEnvelope struct {
	Type string `json:"type"`
}
