package api

// StatusResponse from GET /v1/status
type StatusResponse struct {
	ChainID     int64  `json:"chain_id"`
	BlockNumber int64  `json:"block_number"`
	Synced      bool   `json:"synced"`
	Network     string `json:"network,omitempty"`
}

// PoolResponse from GET /v1/pools/{pool}
type PoolResponse struct {
	Pool APIPool `json:"pool"`
}

// APIPool represents a liquidity pool from the gateway.
type APIPool struct {
	Address string `json:"address"`
	Token0  string `json:"token0"`
	Token1  string `json:"token1"`

	// Decimal strings
	Reserve0  string `json:"reserve0"`
	Reserve1  string `json:"reserve1"`
	Price     string `json:"price"`
	Liquidity string `json:"liquidity"`

	UpdatedAt int64 `json:"updated_at"` // Unix seconds
}

// PriceResponse from GET /v1/pools/{pool}/price
type PriceResponse struct {
	Pool  string `json:"pool"`
	Price string `json:"price"` // decimal string, quote per base
	Ts    int64  `json:"ts"`
}

// Pool is an APIPool with parsed numeric fields.
type Pool struct {
	Address   string
	Token0    string
	Token1    string
	Price     float64
	Liquidity float64
	UpdatedAt int64
}
