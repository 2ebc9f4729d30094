package config

import "time"

// ClientConfig is the root configuration for the camera service client.
type ClientConfig struct {
	Server    ServerConfig    `yaml:"server"`
	Reconnect ReconnectConfig `yaml:"reconnect"`
	Auth      AuthConfig      `yaml:"auth"`
	Fallback  FallbackConfig  `yaml:"fallback"`
	Events    EventsConfig    `yaml:"events"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ServerConfig holds WebSocket endpoint and per-request settings.
type ServerConfig struct {
	WSURL          string        `yaml:"ws_url"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	PingInterval   time.Duration `yaml:"ping_interval"`
	PingTimeout    time.Duration `yaml:"ping_timeout"`
}

// ReconnectConfig holds automatic reconnection settings.
type ReconnectConfig struct {
	Enabled     *bool         `yaml:"enabled"` // nil = default (true)
	BaseDelay   time.Duration `yaml:"base_delay"`
	MaxDelay    time.Duration `yaml:"max_delay"`
	MaxAttempts int           `yaml:"max_attempts"`
}

// IsEnabled reports whether auto-reconnect is on.
func (r ReconnectConfig) IsEnabled() bool {
	return r.Enabled == nil || *r.Enabled
}

// AuthConfig holds the token presented to the authenticate method.
type AuthConfig struct {
	Token     string `yaml:"token"`      // Literal token (supports ${VAR})
	TokenFile string `yaml:"token_file"` // Path to a file holding the token
}

// FallbackConfig holds HTTP polling fallback settings.
type FallbackConfig struct {
	Enabled      *bool         `yaml:"enabled"` // nil = default (true)
	HealthURL    string        `yaml:"health_url"`
	Timeout      time.Duration `yaml:"timeout"`
	MaxRetries   int           `yaml:"max_retries"`
	RetryBackoff time.Duration `yaml:"retry_backoff"`
	PollInterval time.Duration `yaml:"poll_interval"`
	AutoRecover  bool          `yaml:"auto_recover"`
}

// IsEnabled reports whether fallback mode may be entered.
func (f FallbackConfig) IsEnabled() bool {
	return f.Enabled == nil || *f.Enabled
}

// EventsConfig holds the optional notification sink.
// The sink is disabled when Database.Host is empty.
type EventsConfig struct {
	Database      DBConfig      `yaml:"database"`
	BatchSize     int           `yaml:"batch_size"`
	FlushInterval time.Duration `yaml:"flush_interval"`
	BufferSize    int           `yaml:"buffer_size"`
}

// SinkEnabled reports whether notifications should be persisted.
func (e EventsConfig) SinkEnabled() bool {
	return e.Database.Host != ""
}

// DBConfig holds a single database connection.
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}

// LoggingConfig selects the slog handler.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
}
