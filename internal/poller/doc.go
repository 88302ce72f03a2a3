// Package poller implements the liquidity poller.
//
// The poller fetches pool liquidity from the gateway on a fixed interval and
// keeps the last good value. Readers never block on the network: Liquidity
// returns the cached value, or the configured static value until the first
// successful poll.
package poller
