// camctl is a command-line client for the camera service. It speaks
// JSON-RPC over the service's WebSocket endpoint and falls back to the
// health server for read-only queries when the socket is unreachable.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/CarlosSprekelsen/camera-client/internal/config"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// globalFlags are accepted before the subcommand name.
type globalFlags struct {
	configPath string
	wsURL      string
	healthURL  string
	token      string
	tokenFile  string
	logLevel   string
	logFormat  string
	timeout    time.Duration
	noFallback bool
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	var g globalFlags

	flagSet := pflag.NewFlagSet("camctl", pflag.ContinueOnError)
	flagSet.SetOutput(stderr)
	flagSet.SetInterspersed(false)
	flagSet.StringVarP(&g.configPath, "config", "c", "", "path to YAML config file")
	flagSet.StringVar(&g.wsURL, "url", "", "WebSocket endpoint (overrides server.ws_url)")
	flagSet.StringVar(&g.healthURL, "health-url", "", "health server base URL (overrides fallback.health_url)")
	flagSet.StringVar(&g.token, "token", "", "auth token (overrides auth.token)")
	flagSet.StringVar(&g.tokenFile, "token-file", "", "file holding the auth token")
	flagSet.StringVar(&g.logLevel, "log-level", "", "debug, info, warn or error")
	flagSet.StringVar(&g.logFormat, "log-format", "", "text or json")
	flagSet.DurationVar(&g.timeout, "timeout", 0, "per-request timeout (overrides server.request_timeout)")
	flagSet.BoolVar(&g.noFallback, "no-fallback", false, "never fall back to the health server")
	flagSet.Usage = func() { printUsage(stderr, flagSet) }

	if err := flagSet.Parse(args); err != nil {
		return err
	}

	rest := flagSet.Args()
	if len(rest) == 0 {
		printUsage(stderr, flagSet)
		return errors.New("missing command")
	}

	cmd, ok := commands[rest[0]]
	if !ok {
		return fmt.Errorf("unknown command %q (see camctl --help)", rest[0])
	}

	cfg, err := loadConfig(g)
	if err != nil {
		return err
	}

	logger := newLogger(cfg.Logging, stderr)
	slog.SetDefault(logger)

	e := &env{cfg: cfg, logger: logger, out: stdout, errOut: stderr}
	defer e.close()

	return cmd.run(ctx, e, rest[1:])
}

// loadConfig reads the config file if one was given and applies flag
// overrides on top.
func loadConfig(g globalFlags) (*config.ClientConfig, error) {
	var (
		cfg *config.ClientConfig
		err error
	)
	if g.configPath != "" {
		cfg, err = config.LoadWithDefaults(g.configPath)
		if err != nil {
			return nil, err
		}
	} else {
		cfg = config.Default()
	}

	if g.wsURL != "" {
		cfg.Server.WSURL = g.wsURL
	}
	if g.healthURL != "" {
		cfg.Fallback.HealthURL = g.healthURL
	}
	if g.token != "" {
		cfg.Auth.Token = g.token
	}
	if g.tokenFile != "" {
		cfg.Auth.TokenFile = g.tokenFile
	}
	if g.logLevel != "" {
		cfg.Logging.Level = g.logLevel
	}
	if g.logFormat != "" {
		cfg.Logging.Format = g.logFormat
	}
	if g.timeout > 0 {
		cfg.Server.RequestTimeout = g.timeout
	}
	if g.noFallback {
		disabled := false
		cfg.Fallback.Enabled = &disabled
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// newLogger builds the slog handler selected by the logging section.
func newLogger(cfg config.LoggingConfig, w io.Writer) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(cfg.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func printUsage(w io.Writer, flagSet *pflag.FlagSet) {
	fmt.Fprintf(w, `camctl talks to the camera service over JSON-RPC.

Usage:
  camctl [global flags] <command> [args]

Commands:
`)
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "  %-12s %s\n", name, commands[name].summary)
	}
	fmt.Fprintf(w, "\nGlobal flags:\n")
	flagSet.SetOutput(w)
	flagSet.PrintDefaults()
}
