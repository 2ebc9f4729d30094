package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/CarlosSprekelsen/camera-client/internal/client"
	"github.com/CarlosSprekelsen/camera-client/internal/config"
	"github.com/CarlosSprekelsen/camera-client/internal/service"
)

// env carries what every command needs. The client is created on first use
// so that commands like version never touch the network.
type env struct {
	cfg    *config.ClientConfig
	logger *slog.Logger
	out    io.Writer
	errOut io.Writer

	client *client.Client
	svc    *service.Services
}

// connect creates the client and opens the socket. When the socket is
// unreachable and fallback is enabled the error is logged and the client
// is returned anyway; supported queries are then served over HTTP.
func (e *env) connect(ctx context.Context) (*client.Client, *service.Services, error) {
	if e.client != nil {
		return e.client, e.svc, nil
	}

	c, err := client.New(*e.cfg, e.logger)
	if err != nil {
		return nil, nil, err
	}

	connectCtx, cancel := context.WithTimeout(ctx, e.cfg.Server.ConnectTimeout)
	defer cancel()
	if err := c.Connect(connectCtx); err != nil {
		if !e.cfg.Fallback.IsEnabled() {
			c.Close()
			return nil, nil, fmt.Errorf("connect %s: %w", e.cfg.Server.WSURL, err)
		}
		e.logger.Warn("socket unavailable, using health server",
			"url", e.cfg.Server.WSURL,
			"health_url", e.cfg.Fallback.HealthURL,
			"error", err,
		)
	}

	e.client = c
	e.svc = service.New(c)
	return c, e.svc, nil
}

func (e *env) close() {
	if e.client != nil {
		e.client.Close()
	}
}

// printJSON writes v as indented JSON.
func (e *env) printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	_, err = fmt.Fprintln(e.out, string(data))
	return err
}
