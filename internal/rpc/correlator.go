package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// ErrRequestTimeout is returned when no response arrives within the request timeout.
var ErrRequestTimeout = errors.New("request timeout")

// DefaultTimeout is used when NewCorrelator is given a non-positive timeout.
const DefaultTimeout = 15 * time.Second

// Transport sends one serialized frame.
type Transport interface {
	Send(data []byte) error
}

type result struct {
	raw json.RawMessage
	err error
}

type pendingRequest struct {
	id     int64
	method string
	sentAt time.Time
	done   chan result
}

// Correlator assigns ids to outbound requests and routes responses back.
type Correlator struct {
	transport Transport
	timeout   time.Duration
	logger    *slog.Logger

	nextID atomic.Int64

	mu      sync.Mutex
	pending map[int64]*pendingRequest
}

// NewCorrelator creates a correlator sending through t.
func NewCorrelator(t Transport, timeout time.Duration, logger *slog.Logger) *Correlator {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Correlator{
		transport: t,
		timeout:   timeout,
		logger:    logger.With("component", "correlator"),
		pending:   make(map[int64]*pendingRequest),
	}
}

// Call sends method with params and blocks until the matching response,
// the request timeout, or ctx cancellation. A JSON-RPC error response is
// returned as *Error.
func (c *Correlator) Call(ctx context.Context, method string, params any) (json.RawMessage, error) {
	id := c.nextID.Add(1)

	data, err := json.Marshal(Request{
		JSONRPC: Version,
		Method:  method,
		Params:  params,
		ID:      id,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal %s request: %w", method, err)
	}

	p := &pendingRequest{
		id:     id,
		method: method,
		sentAt: time.Now(),
		done:   make(chan result, 1),
	}

	c.mu.Lock()
	c.pending[id] = p
	c.mu.Unlock()

	if err := c.transport.Send(data); err != nil {
		c.remove(id)
		return nil, fmt.Errorf("send %s: %w", method, err)
	}

	timer := time.NewTimer(c.timeout)
	defer timer.Stop()

	select {
	case r := <-p.done:
		return r.raw, r.err

	case <-timer.C:
		if c.remove(id) {
			c.logger.Debug("request timed out", "method", method, "id", id, "timeout", c.timeout)
			return nil, fmt.Errorf("%s (id %d): %w", method, id, ErrRequestTimeout)
		}
		// Delivered concurrently with the timer firing.
		r := <-p.done
		return r.raw, r.err

	case <-ctx.Done():
		if c.remove(id) {
			return nil, fmt.Errorf("%s (id %d): %w", method, id, ctx.Err())
		}
		r := <-p.done
		return r.raw, r.err
	}
}

// Handle consumes msg if it is a response. It returns false for
// notifications so the caller can dispatch them instead.
func (c *Correlator) Handle(msg *Message) bool {
	if !msg.IsResponse() {
		return false
	}

	id, ok := msg.RequestID()
	if !ok {
		if msg.Error != nil {
			c.logger.Warn("uncorrelated error response",
				"code", msg.Error.Code,
				"message", msg.Error.Message,
			)
		} else {
			c.logger.Debug("dropping response without id")
		}
		return true
	}

	c.mu.Lock()
	p, found := c.pending[id]
	if found {
		delete(c.pending, id)
	}
	c.mu.Unlock()

	if !found {
		c.logger.Debug("dropping response for unknown id", "id", id)
		return true
	}

	if msg.Error != nil {
		p.done <- result{err: msg.Error}
	} else {
		p.done <- result{raw: msg.Result}
	}

	c.logger.Debug("request completed",
		"method", p.method,
		"id", id,
		"latency", time.Since(p.sentAt),
	)
	return true
}

// RejectAll fails every in-flight request with err.
func (c *Correlator) RejectAll(err error) int {
	c.mu.Lock()
	pending := c.pending
	c.pending = make(map[int64]*pendingRequest)
	c.mu.Unlock()

	for _, p := range pending {
		p.done <- result{err: fmt.Errorf("%s (id %d): %w", p.method, p.id, err)}
	}

	if len(pending) > 0 {
		c.logger.Debug("rejected pending requests", "count", len(pending), "error", err)
	}
	return len(pending)
}

// Pending returns the number of in-flight requests.
func (c *Correlator) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// remove deletes id and reports whether it was still pending.
func (c *Correlator) remove(id int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.pending[id]; !ok {
		return false
	}
	delete(c.pending, id)
	return true
}
