// Package connection maintains the pool event feed.
//
// A Manager owns one WebSocket connection to the gateway, subscribes to the
// sync and swap channels for the configured pool, tracks the feed sequence
// and reconnects with exponential backoff. Data frames are forwarded
// unparsed to the router as RawMessage values.
package connection
