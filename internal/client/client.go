package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/CarlosSprekelsen/camera-client/internal/api"
	"github.com/CarlosSprekelsen/camera-client/internal/auth"
	"github.com/CarlosSprekelsen/camera-client/internal/config"
	"github.com/CarlosSprekelsen/camera-client/internal/connection"
	"github.com/CarlosSprekelsen/camera-client/internal/fallback"
	"github.com/CarlosSprekelsen/camera-client/internal/poller"
	"github.com/CarlosSprekelsen/camera-client/internal/router"
	"github.com/CarlosSprekelsen/camera-client/internal/rpc"
	"github.com/CarlosSprekelsen/camera-client/internal/version"
)

// Errors returned by Client.
var (
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrClosed           = errors.New("client closed")
)

// Client is the camera service client. It owns one WebSocket connection,
// correlates JSON-RPC responses, dispatches notifications and falls back
// to the health server's REST API while the socket is down.
type Client struct {
	cfg    config.ClientConfig
	logger *slog.Logger
	id     string

	conn     *connection.Connection
	rpc      *rpc.Correlator
	events   *router.Dispatcher
	health   *api.Client
	fallback *fallback.Fallback
	poller   *poller.Poller

	ctx    context.Context
	cancel context.CancelFunc
	closed atomic.Bool

	authMu    sync.Mutex
	token     string
	authed    bool
	session   uint64 // bumped each time the socket leaves Connected
	lastAuth  authResult
	authGroup singleflight.Group
}

// New builds a client from cfg. Nothing is dialed until Connect.
func New(cfg config.ClientConfig, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}

	token, err := auth.LoadToken(cfg.Auth.Token, cfg.Auth.TokenFile)
	if err != nil {
		return nil, fmt.Errorf("load auth token: %w", err)
	}

	id := uuid.NewString()
	logger = logger.With("client_id", id)

	c := &Client{
		cfg:    cfg,
		logger: logger.With("component", "client"),
		id:     id,
		token:  token,
		events: router.NewDispatcher(logger),
	}
	c.ctx, c.cancel = context.WithCancel(context.Background())

	c.conn = connection.NewConnection(connectionConfig(cfg, id), handler{c}, logger)
	c.rpc = rpc.NewCorrelator(c.conn, cfg.Server.RequestTimeout, logger)

	c.health = api.NewClient(cfg.Fallback.HealthURL,
		api.WithTimeout(cfg.Fallback.Timeout),
		api.WithRetries(cfg.Fallback.MaxRetries, cfg.Fallback.RetryBackoff),
		api.WithLogger(logger.With("component", "health")),
		api.WithClientID(id),
		api.WithUserAgent(version.UserAgent()),
	)
	c.fallback = fallback.New(c.health, logger)
	c.poller = poller.New(poller.Config{
		Interval: cfg.Fallback.PollInterval,
		Timeout:  cfg.Fallback.Timeout,
	}, c.health, c.recoverConnection, logger)

	if token != "" && auth.Expired(token, time.Now()) {
		c.logger.Warn("configured auth token has expired")
	}

	return c, nil
}

func connectionConfig(cfg config.ClientConfig, clientID string) connection.Config {
	cc := connection.DefaultClientConfig()
	cc.URL = cfg.Server.WSURL
	cc.ClientID = clientID
	cc.UserAgent = version.UserAgent()
	cc.HandshakeTimeout = cfg.Server.ConnectTimeout
	cc.PingInterval = cfg.Server.PingInterval
	cc.PingTimeout = cfg.Server.PingTimeout
	cc.WriteTimeout = cfg.Server.WriteTimeout

	return connection.Config{
		Client:               cc,
		ConnectTimeout:       cfg.Server.ConnectTimeout,
		AutoReconnect:        cfg.Reconnect.IsEnabled(),
		ReconnectBaseDelay:   cfg.Reconnect.BaseDelay,
		ReconnectMaxDelay:    cfg.Reconnect.MaxDelay,
		MaxReconnectAttempts: cfg.Reconnect.MaxAttempts,
	}
}

// ClientID returns the id sent as X-Client-ID.
func (c *Client) ClientID() string {
	return c.id
}

// Connect dials the service and returns once the socket is open.
func (c *Client) Connect(ctx context.Context) error {
	if c.closed.Load() {
		return ErrClosed
	}
	return c.conn.Connect(ctx)
}

// Disconnect closes the socket without auto-reconnect. In-flight requests
// fail with connection.ErrConnectionClosed.
func (c *Client) Disconnect() {
	c.conn.Disconnect()
}

// Reset clears a FailedPermanently connection so Connect can be retried.
func (c *Client) Reset() {
	c.conn.Reset()
}

// Close disconnects, stops the readiness poller and rejects further calls.
func (c *Client) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}

	c.cancel()
	c.conn.Disconnect()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := c.poller.Stop(ctx)

	c.fallback.Deactivate()
	return err
}

// State returns the connection state.
func (c *Client) State() connection.State {
	return c.conn.State()
}

// IsConnected reports whether the socket is open.
func (c *Client) IsConnected() bool {
	return c.conn.IsConnected()
}

// WaitConnected blocks while a dial or reconnect is in progress.
func (c *Client) WaitConnected(ctx context.Context) error {
	return c.conn.WaitConnected(ctx)
}

// IsInFallbackMode reports whether calls are being served over HTTP.
func (c *Client) IsInFallbackMode() bool {
	return c.fallback.Active()
}

// FallbackState returns the current fallback session.
func (c *Client) FallbackState() fallback.State {
	return c.fallback.State()
}

// Pending returns the number of in-flight socket requests.
func (c *Client) Pending() int {
	return c.rpc.Pending()
}

// NotificationStats returns dispatcher counters.
func (c *Client) NotificationStats() router.DispatcherStats {
	return c.events.Stats()
}

// OnNotification registers a listener for every server notification and
// returns its disposer. Listeners run on the read goroutine.
func (c *Client) OnNotification(fn router.Listener) func() {
	return c.events.Subscribe(fn)
}

// OnMethod registers a listener for notifications of one method.
func (c *Client) OnMethod(method string, fn router.Listener) func() {
	return c.events.SubscribeMethod(method, fn)
}

// Call issues method over the socket. While the socket is down, methods
// the fallback supports are served by the health server; anything else
// fails immediately with connection.ErrNotConnected.
func (c *Client) Call(ctx context.Context, method string, params any, requiresAuth bool) (json.RawMessage, error) {
	if c.closed.Load() {
		return nil, ErrClosed
	}

	if c.conn.IsConnected() {
		return c.callSocket(ctx, method, params, requiresAuth)
	}

	if c.cfg.Fallback.IsEnabled() {
		if fallback.Supports(method) {
			return c.callFallback(ctx, method, params, requiresAuth)
		}
		if c.fallback.Active() {
			return nil, fmt.Errorf("%s: %w (%w)", method, fallback.ErrNotSupported, connection.ErrNotConnected)
		}
	}

	return nil, fmt.Errorf("%s: %w", method, connection.ErrNotConnected)
}

func (c *Client) callSocket(ctx context.Context, method string, params any, requiresAuth bool) (json.RawMessage, error) {
	if requiresAuth {
		if err := c.ensureAuth(ctx); err != nil {
			return nil, err
		}
	}

	raw, err := c.rpc.Call(ctx, method, params)
	if requiresAuth && rpc.IsCode(err, rpc.CodeAuthFailed) {
		// The server dropped the session; authenticate again next time.
		c.invalidateAuth()
	}
	return raw, err
}

func (c *Client) callFallback(ctx context.Context, method string, params any, requiresAuth bool) (json.RawMessage, error) {
	if c.fallback.Activate() {
		c.startPoller()
	}

	// The socket may have come back while fallback was being entered.
	if c.conn.IsConnected() {
		c.leaveFallback()
		return c.callSocket(ctx, method, params, requiresAuth)
	}

	return c.fallback.Call(ctx, method, params)
}

// startPoller starts the readiness poller for the current fallback session.
// The socket may reconnect between Activate and Start; leaveFallback then
// cancels too early, so the poller is cancelled here instead.
func (c *Client) startPoller() {
	c.poller.Start(c.ctx)
	if !c.fallback.Active() {
		c.poller.Cancel()
	}
}

// leaveFallback deactivates before cancelling so that a concurrent
// startPoller either sees the mode gone or is cancelled here.
func (c *Client) leaveFallback() {
	c.fallback.Deactivate()
	c.poller.Cancel()
}

// recoverConnection runs on the poller goroutine when the health server
// reports ready.
func (c *Client) recoverConnection(ctx context.Context) {
	if !c.cfg.Fallback.AutoRecover {
		return
	}

	switch state := c.conn.State(); state {
	case connection.FailedPermanently:
		c.conn.Reset()
	case connection.Disconnected:
	default:
		c.logger.Debug("skipping recovery", "state", state)
		return
	}

	c.logger.Info("service ready, reconnecting")
	if err := c.conn.Connect(ctx); err != nil {
		c.logger.Warn("recovery connect failed", "error", err)
	}
}

// handler adapts Client to connection.Handler.
type handler struct {
	c *Client
}

func (h handler) HandleFrame(data []byte, receivedAt time.Time) {
	c := h.c

	var msg rpc.Message
	if err := json.Unmarshal(data, &msg); err != nil {
		c.logger.Debug("ignoring malformed frame", "error", err, "size", len(data))
		return
	}

	if msg.IsNotification() {
		c.events.Dispatch(router.Notification{
			Method:     msg.Method,
			Params:     msg.Params,
			ReceivedAt: receivedAt,
		})
		return
	}

	if !c.rpc.Handle(&msg) {
		c.logger.Debug("ignoring frame without method or result")
	}
}

func (h handler) HandleStateChange(from, to connection.State) {
	c := h.c
	c.logger.Info("connection state changed", "from", from, "to", to)

	if from == connection.Connected {
		c.invalidateAuth()
		if n := c.rpc.RejectAll(connection.ErrConnectionClosed); n > 0 {
			c.logger.Warn("rejected in-flight requests", "count", n)
		}
	}

	if to == connection.Connected {
		c.leaveFallback()
	}
}
