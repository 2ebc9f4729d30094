package connection

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Handler receives inbound frames and state transitions.
//
// HandleStateChange is called in transition order while the Connection
// serializes notifications, so it must not call back into the Connection.
type Handler interface {
	HandleFrame(data []byte, receivedAt time.Time)
	HandleStateChange(from, to State)
}

// Connection owns one socket to the camera service and the state machine
// around it:
//
//	Disconnected -> Connecting -> Connected -> (close) -> Reconnecting -> Connected | FailedPermanently
//
// Disconnect moves any state to Disconnected. At most one reconnect timer is
// pending at a time.
type Connection struct {
	cfg       Config
	logger    *slog.Logger
	handler   Handler
	newClient func(ClientConfig, *slog.Logger) Client

	mu       sync.Mutex
	state    State
	client   Client
	epoch    uint64 // bumped to invalidate in-flight dials, timers and pumps
	timer    *time.Timer
	dialing  bool
	attempts int           // failed reconnect dials since the last success
	changed  chan struct{} // closed on every transition

	notifyMu sync.Mutex
}

// NewConnection creates a disconnected Connection.
func NewConnection(cfg Config, handler Handler, logger *slog.Logger) *Connection {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxReconnectAttempts < 1 {
		cfg.MaxReconnectAttempts = 1
	}
	if cfg.ReconnectMaxDelay < cfg.ReconnectBaseDelay {
		cfg.ReconnectMaxDelay = cfg.ReconnectBaseDelay
	}
	return &Connection{
		cfg:       cfg,
		logger:    logger.With("component", "connection", "url", cfg.Client.URL),
		handler:   handler,
		newClient: NewClient,
		state:     Disconnected,
		changed:   make(chan struct{}),
	}
}

// Connect dials the service and returns once the socket is open.
// It is a no-op when already connected. A pending reconnect timer is
// cancelled and the dial happens immediately.
func (c *Connection) Connect(ctx context.Context) error {
	c.mu.Lock()
	switch {
	case c.state == Connected:
		c.mu.Unlock()
		return nil
	case c.state == FailedPermanently:
		c.mu.Unlock()
		return ErrFailedPermanently
	case c.dialing:
		c.mu.Unlock()
		return c.WaitConnected(ctx)
	}

	c.stopTimerLocked()
	c.epoch++
	epoch := c.epoch
	c.dialing = true
	c.transitionAndUnlock(Connecting)

	cl, err := c.dial(ctx)

	c.mu.Lock()
	if c.epoch != epoch {
		c.mu.Unlock()
		if cl != nil {
			cl.Close()
		}
		return fmt.Errorf("connect aborted: %w", ErrConnectionClosed)
	}
	c.dialing = false
	if err != nil {
		c.transitionAndUnlock(Disconnected)
		return err
	}
	c.attachLocked(cl, epoch)
	c.transitionAndUnlock(Connected)
	return nil
}

// Disconnect closes the socket and cancels any pending reconnect. It never
// triggers auto-reconnect.
func (c *Connection) Disconnect() {
	c.mu.Lock()
	c.epoch++
	c.stopTimerLocked()
	cl := c.client
	c.client = nil
	c.dialing = false
	c.attempts = 0
	c.transitionAndUnlock(Disconnected)

	if cl != nil {
		cl.Close()
	}
}

// Reset clears a FailedPermanently state so Connect can be called again.
func (c *Connection) Reset() {
	c.mu.Lock()
	if c.state != FailedPermanently {
		c.mu.Unlock()
		return
	}
	c.attempts = 0
	c.transitionAndUnlock(Disconnected)
}

// Send writes one frame. It fails with ErrNotConnected unless connected.
func (c *Connection) Send(data []byte) error {
	c.mu.Lock()
	if c.state != Connected || c.client == nil {
		c.mu.Unlock()
		return ErrNotConnected
	}
	cl := c.client
	c.mu.Unlock()

	if err := cl.Send(data); err != nil {
		if errors.Is(err, ErrNotConnected) {
			return err
		}
		return fmt.Errorf("%w: %w", ErrNotConnected, err)
	}
	return nil
}

// State returns the current state.
func (c *Connection) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// IsConnected reports whether the socket is open.
func (c *Connection) IsConnected() bool {
	return c.State() == Connected
}

// Attempts returns the number of failed reconnect dials since the last success.
func (c *Connection) Attempts() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.attempts
}

// WaitConnected blocks while a dial or reconnect is in progress. It returns
// nil once connected, ErrFailedPermanently when reconnects are exhausted and
// ErrNotConnected when the connection settles in Disconnected.
func (c *Connection) WaitConnected(ctx context.Context) error {
	for {
		c.mu.Lock()
		state, changed := c.state, c.changed
		c.mu.Unlock()

		switch state {
		case Connected:
			return nil
		case FailedPermanently:
			return ErrFailedPermanently
		case Disconnected:
			return ErrNotConnected
		}

		select {
		case <-changed:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// dial opens a new client bounded by ConnectTimeout.
func (c *Connection) dial(ctx context.Context) (Client, error) {
	dctx := ctx
	if c.cfg.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		dctx, cancel = context.WithTimeout(ctx, c.cfg.ConnectTimeout)
		defer cancel()
	}

	cl := c.newClient(c.cfg.Client, c.logger)
	if err := cl.Connect(dctx); err != nil {
		if ctx.Err() == nil && timedOut(dctx) {
			err = fmt.Errorf("%w after %s: %w", ErrConnectTimeout, c.cfg.ConnectTimeout, err)
		}
		return nil, &ConnectionError{URL: c.cfg.Client.URL, Err: err}
	}
	return cl, nil
}

// timedOut reports whether ctx hit its deadline. The socket deadline can
// fire a moment before the context's own timer.
func timedOut(ctx context.Context) bool {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	deadline, ok := ctx.Deadline()
	return ok && !time.Now().Before(deadline)
}

// attachLocked installs a freshly dialed client. Must be called with mu held.
func (c *Connection) attachLocked(cl Client, epoch uint64) {
	c.client = cl
	c.attempts = 0
	go c.pump(cl, epoch)
}

// pump hands frames to the handler until the client fails or is closed.
func (c *Connection) pump(cl Client, epoch uint64) {
	for {
		select {
		case msg := <-cl.Messages():
			c.deliver(msg)

		case err := <-cl.Errors():
			// Frames read before the failure still belong to this socket.
		drain:
			for {
				select {
				case msg := <-cl.Messages():
					c.deliver(msg)
				default:
					break drain
				}
			}
			c.handleDrop(cl, epoch, err)
			return

		case <-cl.Done():
			return
		}
	}
}

func (c *Connection) deliver(msg TimestampedMessage) {
	if c.handler != nil {
		c.handler.HandleFrame(msg.Data, msg.ReceivedAt)
	}
}

// handleDrop reacts to an unexpected close.
func (c *Connection) handleDrop(cl Client, epoch uint64, cause error) {
	cl.Close()

	c.mu.Lock()
	if c.epoch != epoch || c.client != cl {
		c.mu.Unlock()
		return
	}
	c.client = nil

	c.logger.Warn("connection lost", "error", cause)

	if !c.cfg.AutoReconnect {
		c.transitionAndUnlock(Disconnected)
		return
	}

	c.scheduleReconnectLocked()
	c.transitionAndUnlock(Reconnecting)
}

// scheduleReconnectLocked arms the single reconnect timer. Must be called
// with mu held.
func (c *Connection) scheduleReconnectLocked() {
	c.stopTimerLocked()

	attempt := c.attempts + 1
	delay := BackoffDelay(c.cfg.ReconnectBaseDelay, c.cfg.ReconnectMaxDelay, attempt)
	epoch := c.epoch

	c.logger.Info("scheduling reconnect",
		"attempt", attempt,
		"max_attempts", c.cfg.MaxReconnectAttempts,
		"delay", delay,
	)

	c.timer = time.AfterFunc(delay, func() {
		c.reconnect(epoch)
	})
}

func (c *Connection) reconnect(epoch uint64) {
	c.mu.Lock()
	if c.epoch != epoch || c.state != Reconnecting {
		c.mu.Unlock()
		return
	}
	c.timer = nil
	c.dialing = true
	attempt := c.attempts + 1
	c.mu.Unlock()

	c.logger.Info("attempting reconnection", "attempt", attempt)

	cl, err := c.dial(context.Background())

	c.mu.Lock()
	if c.epoch != epoch {
		c.mu.Unlock()
		if cl != nil {
			cl.Close()
		}
		return
	}
	c.dialing = false

	if err != nil {
		c.attempts++
		c.logger.Warn("reconnection failed",
			"attempt", c.attempts,
			"max_attempts", c.cfg.MaxReconnectAttempts,
			"error", err,
		)
		if c.attempts >= c.cfg.MaxReconnectAttempts {
			c.logger.Error("giving up reconnecting", "attempts", c.attempts)
			c.transitionAndUnlock(FailedPermanently)
			return
		}
		c.scheduleReconnectLocked()
		c.mu.Unlock()
		return
	}

	c.logger.Info("reconnected", "attempt", attempt)
	c.attachLocked(cl, epoch)
	c.transitionAndUnlock(Connected)
}

func (c *Connection) stopTimerLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

// transitionAndUnlock moves to state to, releases mu and notifies the
// handler. notifyMu is taken before mu is released so handlers observe
// transitions in the order they happened. Must be called with mu held.
func (c *Connection) transitionAndUnlock(to State) {
	from := c.state
	if from == to {
		c.mu.Unlock()
		return
	}
	c.state = to
	close(c.changed)
	c.changed = make(chan struct{})

	c.notifyMu.Lock()
	c.mu.Unlock()
	defer c.notifyMu.Unlock()

	c.logger.Debug("connection state changed", "from", from, "to", to)
	if c.handler != nil {
		c.handler.HandleStateChange(from, to)
	}
}
