// Package api is the REST client for the chain gateway.
//
// Endpoints used by the indexer:
//   - GET /v1/status             gateway sync status
//   - GET /v1/pools/{pool}       pool reserves and liquidity
//   - GET /v1/pools/{pool}/price current pool price
//
// Decimal fields arrive as strings and are converted with shopspring/decimal.
package api
