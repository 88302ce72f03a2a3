package connection

import (
	"encoding/json"
	"errors"
	"time"
)

// Errors
var (
	ErrNotConnected    = errors.New("not connected")
	ErrStaleConnection = errors.New("connection stale (no ping)")
	ErrTimeout         = errors.New("operation timeout")
	ErrAlreadyClosed   = errors.New("already closed")
)

// Feed channels.
const (
	ChannelSync = "sync"
	ChannelSwap = "swap"
)

// TimestampedMessage wraps raw message data with receive timestamp.
type TimestampedMessage struct {
	Data       []byte    // Raw message bytes from WebSocket
	ReceivedAt time.Time // Local timestamp when ReadMessage() returned
}

// RawMessage is a message from the Manager to the router.
type RawMessage struct {
	Data       []byte    // Raw message bytes from WebSocket
	ReceivedAt time.Time // Local timestamp when the client received the message
	SeqGap     bool      // True if sequence gap detected before this message
	GapSize    int       // Number of missed messages (0 if no gap)
}

// Command is a WebSocket command to send to the server.
type Command struct {
	ID     int64       `json:"id"`
	Cmd    string      `json:"cmd"`
	Params interface{} `json:"params"`
}

// SubscribeParams are parameters for a subscribe command.
type SubscribeParams struct {
	Channels []string `json:"channels"`
	Pool     string   `json:"pool,omitempty"`
}

// Response is a command response from the server.
type Response struct {
	ID   int64           `json:"id"`
	Type string          `json:"type"` // "subscribed", "error", "ok"
	Msg  json.RawMessage `json:"msg"`
}

// SubscribedMsg is the message content for a "subscribed" response.
type SubscribedMsg struct {
	SID      int64    `json:"sid"`
	Channels []string `json:"channels"`
}

// ErrorMsg is the message content for an "error" response.
type ErrorMsg struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// DataMessage is the envelope shared by sync and swap frames.
type DataMessage struct {
	Type string          `json:"type"` // "sync" or "swap"
	Seq  int64           `json:"seq,omitempty"`
	Msg  json.RawMessage `json:"msg"`
}

// ClientConfig configures a WebSocket client.
type ClientConfig struct {
	URL               string        // WebSocket URL of the gateway feed
	APIKey            string        // Bearer token, empty = anonymous
	PingTimeout       time.Duration // Max time without ping before considering connection stale
	WriteTimeout      time.Duration // Write deadline for sends
	HeartbeatInterval time.Duration // Interval between keepalive pings
	BufferSize        int           // Message channel buffer size
}

// DefaultClientConfig returns sensible defaults.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		PingTimeout:       60 * time.Second,
		WriteTimeout:      5 * time.Second,
		HeartbeatInterval: 30 * time.Second,
		BufferSize:        1000,
	}
}

// ManagerConfig configures the Manager.
type ManagerConfig struct {
	WSURL             string        // Gateway feed URL
	APIKey            string        // Bearer token
	Pool              string        // Pool address to subscribe to
	SubscribeTimeout  time.Duration // Timeout for subscribe commands
	ReconnectBaseWait time.Duration // Base wait time for reconnection
	ReconnectMaxWait  time.Duration // Max wait time for reconnection
	PingTimeout       time.Duration
	WriteTimeout      time.Duration
	MessageBufferSize int // Buffer size for output message channel
}

// DefaultManagerConfig returns sensible defaults.
func DefaultManagerConfig() ManagerConfig {
	return ManagerConfig{
		SubscribeTimeout:  10 * time.Second,
		ReconnectBaseWait: 1 * time.Second,
		ReconnectMaxWait:  60 * time.Second,
		PingTimeout:       60 * time.Second,
		WriteTimeout:      5 * time.Second,
		MessageBufferSize: 10000,
	}
}

// Subscription tracks an active subscription.
type Subscription struct {
	SID      int64
	Channels []string
	Pool     string
}
