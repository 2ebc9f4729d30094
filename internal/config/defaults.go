package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultWSURL                = "ws://localhost:8002/ws"
	DefaultConnectTimeout       = 10 * time.Second
	DefaultRequestTimeout       = 15 * time.Second
	DefaultWriteTimeout         = 5 * time.Second
	DefaultPingInterval         = 30 * time.Second
	DefaultPingTimeout          = 90 * time.Second
	DefaultReconnectBaseDelay   = 1 * time.Second
	DefaultReconnectMaxDelay    = 30 * time.Second
	DefaultReconnectMaxAttempts = 5
	DefaultHealthURL            = "http://localhost:8003"
	DefaultFallbackTimeout      = 5 * time.Second
	DefaultFallbackMaxRetries   = 2
	DefaultFallbackBackoff      = 500 * time.Millisecond
	DefaultFallbackPollInterval = 10 * time.Second
	DefaultDBPort               = 5432
	DefaultDBSSLMode            = "prefer"
	DefaultMaxConns             = 4
	DefaultMinConns             = 1
	DefaultBatchSize            = 100
	DefaultFlushInterval        = 1 * time.Second
	DefaultBufferSize           = 1000
	DefaultLogLevel             = "info"
	DefaultLogFormat            = "text"
)

func (c *ClientConfig) applyDefaults() {
	// Server defaults
	if c.Server.WSURL == "" {
		c.Server.WSURL = DefaultWSURL
	}
	if c.Server.ConnectTimeout == 0 {
		c.Server.ConnectTimeout = DefaultConnectTimeout
	}
	if c.Server.RequestTimeout == 0 {
		c.Server.RequestTimeout = DefaultRequestTimeout
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = DefaultWriteTimeout
	}
	if c.Server.PingInterval == 0 {
		c.Server.PingInterval = DefaultPingInterval
	}
	if c.Server.PingTimeout == 0 {
		c.Server.PingTimeout = DefaultPingTimeout
	}

	// Reconnect defaults
	if c.Reconnect.BaseDelay == 0 {
		c.Reconnect.BaseDelay = DefaultReconnectBaseDelay
	}
	if c.Reconnect.MaxDelay == 0 {
		c.Reconnect.MaxDelay = DefaultReconnectMaxDelay
	}
	if c.Reconnect.MaxAttempts == 0 {
		c.Reconnect.MaxAttempts = DefaultReconnectMaxAttempts
	}

	// Fallback defaults
	if c.Fallback.HealthURL == "" {
		c.Fallback.HealthURL = DefaultHealthURL
	}
	if c.Fallback.Timeout == 0 {
		c.Fallback.Timeout = DefaultFallbackTimeout
	}
	if c.Fallback.MaxRetries == 0 {
		c.Fallback.MaxRetries = DefaultFallbackMaxRetries
	}
	if c.Fallback.RetryBackoff == 0 {
		c.Fallback.RetryBackoff = DefaultFallbackBackoff
	}
	if c.Fallback.PollInterval == 0 {
		c.Fallback.PollInterval = DefaultFallbackPollInterval
	}

	// Events defaults
	applyDBDefaults(&c.Events.Database)
	if c.Events.BatchSize == 0 {
		c.Events.BatchSize = DefaultBatchSize
	}
	if c.Events.FlushInterval == 0 {
		c.Events.FlushInterval = DefaultFlushInterval
	}
	if c.Events.BufferSize == 0 {
		c.Events.BufferSize = DefaultBufferSize
	}

	// Logging defaults
	if c.Logging.Level == "" {
		c.Logging.Level = DefaultLogLevel
	}
	if c.Logging.Format == "" {
		c.Logging.Format = DefaultLogFormat
	}
}

func applyDBDefaults(db *DBConfig) {
	if db.Port == 0 {
		db.Port = DefaultDBPort
	}
	if db.SSLMode == "" {
		db.SSLMode = DefaultDBSSLMode
	}
	if db.MaxConns == 0 {
		db.MaxConns = DefaultMaxConns
	}
	if db.MinConns == 0 {
		db.MinConns = DefaultMinConns
	}
}
