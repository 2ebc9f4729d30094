package connection

import (
	"errors"
	"fmt"
	"time"
)

// Errors
var (
	ErrNotConnected      = errors.New("not connected")
	ErrConnectionClosed  = errors.New("connection closed")
	ErrStaleConnection   = errors.New("connection stale (no ping)")
	ErrConnectTimeout    = errors.New("connect timeout")
	ErrFailedPermanently = errors.New("reconnect attempts exhausted")
	ErrAlreadyClosed     = errors.New("already closed")
)

// ConnectionError is returned when a dial fails.
type ConnectionError struct {
	URL string
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connect %s: %v", e.URL, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// TimestampedMessage wraps raw frame data with its receive timestamp.
type TimestampedMessage struct {
	Data       []byte    // Raw frame bytes
	ReceivedAt time.Time // Local timestamp when ReadMessage() returned
}

// State is the lifecycle state of a Connection.
type State int

const (
	Disconnected State = iota
	Connecting
	Connected
	Reconnecting
	FailedPermanently
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case Reconnecting:
		return "reconnecting"
	case FailedPermanently:
		return "failed_permanently"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// ClientConfig configures a single WebSocket client.
type ClientConfig struct {
	URL              string        // WebSocket URL (e.g., ws://localhost:8002/ws)
	ClientID         string        // Sent as X-Client-ID
	UserAgent        string        // Sent as User-Agent
	HandshakeTimeout time.Duration // Upper bound on the opening handshake
	PingInterval     time.Duration // How often we ping the server
	PingTimeout      time.Duration // Max time without ping/pong before considering connection stale
	WriteTimeout     time.Duration // Write deadline for sends
	BufferSize       int           // Message channel buffer size
}

// DefaultClientConfig returns sensible defaults.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		URL:              "ws://localhost:8002/ws",
		HandshakeTimeout: 10 * time.Second,
		PingInterval:     30 * time.Second,
		PingTimeout:      90 * time.Second,
		WriteTimeout:     5 * time.Second,
		BufferSize:       256,
	}
}

// Config configures a Connection.
type Config struct {
	Client               ClientConfig
	ConnectTimeout       time.Duration // Bound on each dial
	AutoReconnect        bool          // Reconnect after an unexpected close
	ReconnectBaseDelay   time.Duration // Delay before the first reconnect attempt
	ReconnectMaxDelay    time.Duration // Cap on the doubling delay
	MaxReconnectAttempts int           // Failed dials before FailedPermanently
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Client:               DefaultClientConfig(),
		ConnectTimeout:       10 * time.Second,
		AutoReconnect:        true,
		ReconnectBaseDelay:   1 * time.Second,
		ReconnectMaxDelay:    30 * time.Second,
		MaxReconnectAttempts: 5,
	}
}

// BackoffDelay returns min(base * 2^(attempt-1), max). Attempts start at 1.
func BackoffDelay(base, max time.Duration, attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := base
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= max {
			return max
		}
	}
	if d > max {
		return max
	}
	return d
}
