package router

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/rickgao/dex-indexer/internal/connection"
	"github.com/rickgao/dex-indexer/internal/model"
)

// Router parses raw feed messages and routes valid events to the indexer.
type Router interface {
	// Start begins routing messages from the input channel.
	Start(ctx context.Context) error

	// Stop gracefully shuts down the router and closes the event buffer.
	Stop(ctx context.Context) error

	// Events returns the ordered event buffer for the indexer to consume.
	Events() *GrowableBuffer[model.Event]

	// Stats returns current router statistics.
	Stats() RouterStats
}

// RouterStats contains runtime statistics.
type RouterStats struct {
	MessagesReceived int64       `json:"messages_received"`
	EventsRouted     int64       `json:"events_routed"`
	ParseErrors      int64       `json:"parse_errors"`
	InvalidEvents    int64       `json:"invalid_events"`
	UnknownMessages  int64       `json:"unknown_messages"`
	SeqGaps          int64       `json:"seq_gaps"`
	EventBuffer      BufferStats `json:"event_buffer"`
}

// router is the internal implementation.
type router struct {
	cfg    RouterConfig
	logger *slog.Logger

	// Input from the feed stream
	input <-chan connection.RawMessage

	// Output to the indexer
	events *GrowableBuffer[model.Event]

	// Lifecycle
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu              sync.RWMutex
	received        int64
	routed          int64
	parseErrors     int64
	invalidEvents   int64
	unknownMessages int64
	seqGaps         int64
}

// NewRouter creates a new Message Router.
func NewRouter(cfg RouterConfig, input <-chan connection.RawMessage, logger *slog.Logger) Router {
	if logger == nil {
		logger = slog.Default()
	}

	return &router{
		cfg:    cfg,
		logger: logger,
		input:  input,
		events: NewBoundedBuffer[model.Event](cfg.EventBufferSize, cfg.MaxEventBuffer),
	}
}

// Start begins routing messages.
func (r *router) Start(ctx context.Context) error {
	r.ctx, r.cancel = context.WithCancel(ctx)

	r.wg.Add(1)
	go r.routeLoop()

	r.logger.Info("message router started",
		"event_buffer", r.cfg.EventBufferSize,
		"max_event_buffer", r.cfg.MaxEventBuffer,
	)

	return nil
}

// Stop gracefully shuts down the router.
func (r *router) Stop(ctx context.Context) error {
	r.logger.Info("stopping message router")

	if r.cancel != nil {
		r.cancel()
	}

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		r.logger.Info("message router stopped")
	case <-ctx.Done():
		r.logger.Warn("message router stop timed out")
	}

	r.events.Close()

	return nil
}

// Events returns the output event buffer.
func (r *router) Events() *GrowableBuffer[model.Event] {
	return r.events
}

// Stats returns current statistics.
func (r *router) Stats() RouterStats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return RouterStats{
		MessagesReceived: r.received,
		EventsRouted:     r.routed,
		ParseErrors:      r.parseErrors,
		InvalidEvents:    r.invalidEvents,
		UnknownMessages:  r.unknownMessages,
		SeqGaps:          r.seqGaps,
		EventBuffer:      r.events.Stats(),
	}
}

// routeLoop is the main routing goroutine.
func (r *router) routeLoop() {
	defer r.wg.Done()

	for {
		select {
		case <-r.ctx.Done():
			return
		case raw, ok := <-r.input:
			if !ok {
				r.logger.Info("input channel closed")
				return
			}
			r.route(raw)
		}
	}
}

// route parses, validates and forwards a single message.
func (r *router) route(raw connection.RawMessage) {
	r.mu.Lock()
	r.received++
	if raw.SeqGap {
		r.seqGaps++
	}
	r.mu.Unlock()

	if raw.SeqGap {
		r.logger.Warn("feed sequence gap", "missed", raw.GapSize)
	}

	ev, err := Parse(raw)
	switch {
	case err == nil:
	case err == errSkip:
		return
	case isUnknown(err):
		r.logger.Debug("skipping message type", "error", err)
		r.count(&r.unknownMessages)
		return
	case isInvalid(err):
		r.logger.Warn("dropping invalid event", "error", err)
		r.count(&r.invalidEvents)
		return
	default:
		r.logger.Warn("failed to parse message", "error", err)
		r.count(&r.parseErrors)
		return
	}

	if r.events.Send(ev) {
		r.count(&r.routed)
	} else {
		r.logger.Warn("event buffer full, dropping event", "kind", ev.Kind)
	}
}

func (r *router) count(n *int64) {
	r.mu.Lock()
	*n++
	r.mu.Unlock()
}

// Parse decodes one raw feed frame into a validated event. Missing
// timestamps are filled from the frame's receive time.
func Parse(raw connection.RawMessage) (model.Event, error) {
	var envelope messageEnvelope
	if err := json.Unmarshal(raw.Data, &envelope); err != nil {
		return model.Event{}, fmt.Errorf("extract type: %w", err)
	}

	var (
		ev  model.Event
		err error
	)
	switch envelope.Type {
	case string(model.KindSync):
		ev, err = parseSync(raw)
	case string(model.KindSwap):
		ev, err = parseSwap(raw)
	case "subscribed", "unsubscribed", "ok", "error", "pong":
		return model.Event{}, errSkip
	default:
		return model.Event{}, unknownTypeError{Type: envelope.Type}
	}
	if err != nil {
		return model.Event{}, err
	}

	if err := ev.Validate(); err != nil {
		return model.Event{}, invalidEventError{err: err}
	}
	return ev, nil
}

// parseSync parses a sync message.
func parseSync(raw connection.RawMessage) (model.Event, error) {
	var wire syncWire
	if err := json.Unmarshal(raw.Data, &wire); err != nil {
		return model.Event{}, fmt.Errorf("parse sync: %w", err)
	}

	price, err := model.ParsePrice(wire.Msg.Price)
	if err != nil {
		return model.Event{}, invalidEventError{err: fmt.Errorf("sync: %w", err)}
	}

	return model.NewSyncEvent(price, timestamp(wire.Msg.Ts, raw)), nil
}

// parseSwap parses a swap message.
func parseSwap(raw connection.RawMessage) (model.Event, error) {
	var wire swapWire
	if err := json.Unmarshal(raw.Data, &wire); err != nil {
		return model.Event{}, fmt.Errorf("parse swap: %w", err)
	}

	side, err := model.ParseSide(wire.Msg.Side)
	if err != nil {
		return model.Event{}, invalidEventError{err: fmt.Errorf("swap: %w", err)}
	}

	return model.NewSwapEvent(wire.Msg.TxHash, side, wire.Msg.Amount, timestamp(wire.Msg.Ts, raw)), nil
}

func timestamp(ts int64, raw connection.RawMessage) int64 {
	if ts == 0 && !raw.ReceivedAt.IsZero() {
		return raw.ReceivedAt.Unix()
	}
	return ts
}
