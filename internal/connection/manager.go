package connection

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Manager owns the feed connection and its subscription.
type Manager interface {
	// Start connects and subscribes. A failed first dial is retried in the
	// background with backoff rather than returned.
	Start(ctx context.Context) error

	// Stop gracefully shuts down the connection and closes Messages.
	Stop(ctx context.Context) error

	// Messages returns channel of raw data frames for the router.
	Messages() <-chan RawMessage

	// Stats returns current connection statistics.
	Stats() ManagerStats
}

// ManagerStats provides statistics about the connection manager.
type ManagerStats struct {
	Connected     bool  `json:"connected"`
	Reconnects    int64 `json:"reconnects"`
	Subscriptions int   `json:"subscriptions"`
	Forwarded     int64 `json:"forwarded"`
	Dropped       int64 `json:"dropped"`
	SeqGaps       int64 `json:"seq_gaps"`
}

// manager implements the Manager interface.
type manager struct {
	cfg    ManagerConfig
	logger *slog.Logger

	// Output to the router
	router chan RawMessage

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	clientMu sync.RWMutex
	client   Client

	// Command/response correlation
	pendingMu sync.Mutex
	pending   map[int64]chan Response
	cmdID     int64 // Atomic counter

	// Subscription tracking
	subsMu sync.RWMutex
	subs   map[int64]*Subscription // SID → subscription info

	// Sequence tracking, reset on every new connection
	seqMu   sync.Mutex
	lastSeq int64

	reconnects int64
	forwarded  int64
	dropped    int64
	seqGaps    int64
}

// NewManager creates a new feed Manager.
func NewManager(cfg ManagerConfig, logger *slog.Logger) Manager {
	if logger == nil {
		logger = slog.Default()
	}

	return &manager{
		cfg:     cfg,
		logger:  logger,
		router:  make(chan RawMessage, cfg.MessageBufferSize),
		pending: make(map[int64]chan Response),
		subs:    make(map[int64]*Subscription),
	}
}

// Start begins the connection manager.
func (m *manager) Start(ctx context.Context) error {
	m.ctx, m.cancel = context.WithCancel(ctx)

	if err := m.connect(); err != nil {
		m.logger.Warn("initial feed connection failed, retrying in background",
			"url", m.cfg.WSURL,
			"error", err,
		)
		m.wg.Add(1)
		go m.reconnect()
		return nil
	}

	m.logger.Info("connection manager started",
		"url", m.cfg.WSURL,
		"pool", m.cfg.Pool,
	)

	return nil
}

// Stop gracefully shuts down.
func (m *manager) Stop(ctx context.Context) error {
	m.logger.Info("stopping connection manager")

	if m.cancel != nil {
		m.cancel()
	}

	m.clientMu.RLock()
	client := m.client
	m.clientMu.RUnlock()
	if client != nil {
		client.Close()
	}

	// Wait for goroutines with timeout
	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		close(m.router)
	case <-ctx.Done():
		m.logger.Warn("shutdown timeout, leaving message channel open")
	}

	m.logger.Info("connection manager stopped")
	return nil
}

// Messages returns the output channel for the router.
func (m *manager) Messages() <-chan RawMessage {
	return m.router
}

// Stats returns current statistics.
func (m *manager) Stats() ManagerStats {
	m.clientMu.RLock()
	connected := m.client != nil && m.client.IsConnected()
	m.clientMu.RUnlock()

	m.subsMu.RLock()
	totalSubs := len(m.subs)
	m.subsMu.RUnlock()

	return ManagerStats{
		Connected:     connected,
		Reconnects:    atomic.LoadInt64(&m.reconnects),
		Subscriptions: totalSubs,
		Forwarded:     atomic.LoadInt64(&m.forwarded),
		Dropped:       atomic.LoadInt64(&m.dropped),
		SeqGaps:       atomic.LoadInt64(&m.seqGaps),
	}
}

// connect dials a fresh client, starts its read loop and subscribes.
func (m *manager) connect() error {
	client := NewClient(ClientConfig{
		URL:          m.cfg.WSURL,
		APIKey:       m.cfg.APIKey,
		PingTimeout:  m.cfg.PingTimeout,
		WriteTimeout: m.cfg.WriteTimeout,
		BufferSize:   m.cfg.MessageBufferSize,
	}, m.logger.With("component", "ws_client"))

	if err := client.Connect(m.ctx); err != nil {
		return err
	}

	m.clientMu.Lock()
	m.client = client
	m.clientMu.Unlock()

	m.seqMu.Lock()
	m.lastSeq = 0
	m.seqMu.Unlock()

	m.pendingMu.Lock()
	m.pending = make(map[int64]chan Response)
	m.pendingMu.Unlock()

	m.wg.Add(1)
	go m.readLoop(client)

	if err := m.subscribe(client, []string{ChannelSync, ChannelSwap}); err != nil {
		m.logger.Error("failed to subscribe pool channels", "pool", m.cfg.Pool, "error", err)
		// Keep the connection; a later reconnect retries the subscription
	}

	return nil
}

// readLoop reads messages from a connection and routes them.
func (m *manager) readLoop(client Client) {
	defer m.wg.Done()

	for {
		select {
		case <-m.ctx.Done():
			return

		case err := <-client.Errors():
			m.logger.Warn("connection error", "error", err)
			m.wg.Add(1)
			go m.reconnect()
			return

		case msg, ok := <-client.Messages():
			if !ok {
				return
			}

			// Try to parse as command response
			if resp, ok := m.tryParseResponse(msg.Data); ok {
				m.routeResponse(resp)
				continue
			}

			var seqGap bool
			var gapSize int
			if seq, ok := m.extractSequence(msg.Data); ok {
				seqGap, gapSize = m.checkSequence(seq)
			}

			// Data message - forward to router (non-blocking)
			rawMsg := RawMessage{
				Data:       msg.Data,
				ReceivedAt: msg.ReceivedAt,
				SeqGap:     seqGap,
				GapSize:    gapSize,
			}

			select {
			case m.router <- rawMsg:
				atomic.AddInt64(&m.forwarded, 1)
			case <-m.ctx.Done():
				return
			default:
				atomic.AddInt64(&m.dropped, 1)
				m.logger.Warn("message buffer full, dropping")
			}
		}
	}
}

// tryParseResponse attempts to parse a message as a command response.
func (m *manager) tryParseResponse(data []byte) (Response, bool) {
	// Quick check for response markers
	if !bytes.Contains(data, []byte(`"id":`)) {
		return Response{}, false
	}

	var resp Response
	if err := json.Unmarshal(data, &resp); err != nil {
		return Response{}, false
	}

	// Valid response types
	switch resp.Type {
	case "subscribed", "error", "ok":
		return resp, true
	}

	return Response{}, false
}

// routeResponse sends a response to the waiting goroutine.
func (m *manager) routeResponse(resp Response) {
	m.pendingMu.Lock()
	ch, ok := m.pending[resp.ID]
	if ok {
		delete(m.pending, resp.ID)
	}
	m.pendingMu.Unlock()

	if ok {
		select {
		case ch <- resp:
		default:
		}
	}
}

// extractSequence extracts the sequence number from a data message.
func (m *manager) extractSequence(data []byte) (seq int64, ok bool) {
	var msg DataMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return 0, false
	}

	if msg.Seq == 0 {
		return 0, false
	}

	return msg.Seq, true
}

// checkSequence checks for sequence gaps and returns gap info.
func (m *manager) checkSequence(seq int64) (seqGap bool, gapSize int) {
	m.seqMu.Lock()
	defer m.seqMu.Unlock()

	last := m.lastSeq
	m.lastSeq = seq

	if last == 0 || seq == last+1 {
		return false, 0
	}

	gap := int(seq - last - 1)
	if gap < 0 {
		// Server restarted its counter
		return false, 0
	}

	atomic.AddInt64(&m.seqGaps, 1)
	m.logger.Warn("sequence gap detected",
		"expected", last+1,
		"got", seq,
		"gap", gap,
	)
	return true, gap
}

// subscribe sends a subscribe command and waits for response.
func (m *manager) subscribe(client Client, channels []string) error {
	id := atomic.AddInt64(&m.cmdID, 1)
	respCh := make(chan Response, 1)

	m.pendingMu.Lock()
	m.pending[id] = respCh
	m.pendingMu.Unlock()

	defer func() {
		m.pendingMu.Lock()
		delete(m.pending, id)
		m.pendingMu.Unlock()
	}()

	cmd := Command{
		ID:  id,
		Cmd: "subscribe",
		Params: SubscribeParams{
			Channels: channels,
			Pool:     m.cfg.Pool,
		},
	}

	data, err := json.Marshal(cmd)
	if err != nil {
		return fmt.Errorf("marshal subscribe: %w", err)
	}
	if err := client.Send(data); err != nil {
		return fmt.Errorf("send subscribe: %w", err)
	}

	// Wait for response
	select {
	case <-m.ctx.Done():
		return m.ctx.Err()
	case <-time.After(m.cfg.SubscribeTimeout):
		return ErrTimeout
	case resp := <-respCh:
		if resp.Type == "error" {
			var errMsg ErrorMsg
			json.Unmarshal(resp.Msg, &errMsg)
			return fmt.Errorf("%s: %s", errMsg.Code, errMsg.Message)
		}

		var subMsg SubscribedMsg
		json.Unmarshal(resp.Msg, &subMsg)

		m.subsMu.Lock()
		m.subs = map[int64]*Subscription{
			subMsg.SID: {SID: subMsg.SID, Channels: channels, Pool: m.cfg.Pool},
		}
		m.subsMu.Unlock()

		m.logger.Debug("subscribed",
			"channels", channels,
			"pool", m.cfg.Pool,
			"sid", subMsg.SID,
		)

		return nil
	}
}

// reconnect attempts to reconnect with exponential backoff.
func (m *manager) reconnect() {
	defer m.wg.Done()

	m.clientMu.Lock()
	if m.client != nil {
		m.client.Close()
		m.client = nil
	}
	m.clientMu.Unlock()

	m.subsMu.Lock()
	m.subs = make(map[int64]*Subscription)
	m.subsMu.Unlock()

	wait := m.cfg.ReconnectBaseWait
	maxWait := m.cfg.ReconnectMaxWait

	for {
		select {
		case <-m.ctx.Done():
			return
		case <-time.After(wait):
		}

		m.logger.Info("attempting reconnection", "url", m.cfg.WSURL)

		if err := m.connect(); err != nil {
			m.logger.Warn("reconnection failed", "error", err)

			// Exponential backoff
			wait *= 2
			if wait > maxWait {
				wait = maxWait
			}
			continue
		}

		atomic.AddInt64(&m.reconnects, 1)
		m.logger.Info("reconnected", "url", m.cfg.WSURL)
		return
	}
}
