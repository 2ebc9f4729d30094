package poller

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// ReadinessProbe reports whether the camera service is ready to accept
// WebSocket clients again. *api.Client satisfies it.
type ReadinessProbe interface {
	Ready(ctx context.Context) (bool, error)
}

// ReadyFunc is invoked from the polling goroutine each time a probe
// answers ready. The context is cancelled when the poller stops.
type ReadyFunc func(ctx context.Context)

// Config holds poller configuration.
type Config struct {
	Interval time.Duration // Probe interval (default: 10s)
	Timeout  time.Duration // Per-probe timeout (default: 5s)
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Interval: 10 * time.Second,
		Timeout:  5 * time.Second,
	}
}

// Stats is a snapshot of the probe counters.
type Stats struct {
	Probes   int64
	Ready    int64
	NotReady int64
	Errors   int64
}

// Poller periodically probes the health server while the client runs in
// fallback mode.
type Poller struct {
	cfg     Config
	probe   ReadinessProbe
	onReady ReadyFunc
	logger  *slog.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	running bool
	wg      sync.WaitGroup

	probes   atomic.Int64
	ready    atomic.Int64
	notReady atomic.Int64
	errors   atomic.Int64
}

// New creates a new Poller. onReady may be nil.
func New(cfg Config, probe ReadinessProbe, onReady ReadyFunc, logger *slog.Logger) *Poller {
	if logger == nil {
		logger = slog.Default()
	}
	def := DefaultConfig()
	if cfg.Interval <= 0 {
		cfg.Interval = def.Interval
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	return &Poller{
		cfg:     cfg,
		probe:   probe,
		onReady: onReady,
		logger:  logger.With("component", "poller"),
	}
}

// Start begins the probing loop. Starting a running poller is a no-op.
func (p *Poller) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return nil
	}

	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.running = true

	p.wg.Add(1)
	go p.run(ctx)

	p.logger.Info("readiness poller started", "interval", p.cfg.Interval)
	return nil
}

// Cancel stops the probing loop without waiting for it to exit. It is safe
// to call from within a ReadyFunc.
func (p *Poller) Cancel() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	p.running = false
}

// Stop cancels the probing loop and waits for it to exit.
func (p *Poller) Stop(ctx context.Context) error {
	p.Cancel()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Debug("readiness poller stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Running reports whether the probing loop is active.
func (p *Poller) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// Stats returns the probe counters.
func (p *Poller) Stats() Stats {
	return Stats{
		Probes:   p.probes.Load(),
		Ready:    p.ready.Load(),
		NotReady: p.notReady.Load(),
		Errors:   p.errors.Load(),
	}
}

func (p *Poller) run(ctx context.Context) {
	defer p.wg.Done()

	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	// Probe immediately on start.
	p.poll(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.poll(ctx)
		}
	}
}

// poll runs a single readiness probe.
func (p *Poller) poll(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	start := time.Now()
	pctx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	ready, err := p.probe.Ready(pctx)
	cancel()

	// Aborted by Stop or Cancel: not an answer from the service.
	if ctx.Err() != nil {
		return
	}

	p.probes.Add(1)

	switch {
	case err != nil:
		p.errors.Add(1)
		p.logger.Debug("readiness probe failed", "error", err)
		return
	case !ready:
		p.notReady.Add(1)
		p.logger.Debug("service not ready", "duration", time.Since(start))
		return
	}

	p.ready.Add(1)
	p.logger.Info("service ready", "duration", time.Since(start))

	if p.onReady != nil && ctx.Err() == nil {
		p.onReady(ctx)
	}
}
