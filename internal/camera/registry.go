package camera

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/CarlosSprekelsen/camera-client/internal/model"
	"github.com/CarlosSprekelsen/camera-client/internal/router"
)

// Change event types.
const (
	EventCreated      = "created"
	EventStatusChange = "status_change"
	EventRemoved      = "removed"
)

// Change sources.
const (
	SourceSync         = "sync"
	SourceNotification = "notification"
	SourceReconcile    = "reconcile"
)

// Change describes one camera table update.
type Change struct {
	Device    string
	EventType string // created, status_change, removed
	OldStatus string
	NewStatus string
	Source    string // sync, notification, reconcile
	Camera    *model.Camera
}

// Lister fetches the full camera list. *service.DeviceService satisfies it.
type Lister interface {
	GetCameraList(ctx context.Context) (model.CameraList, error)
}

// Subscriber delivers server notifications. *client.Client satisfies it.
type Subscriber interface {
	OnMethod(method string, fn router.Listener) func()
}

// Registry tracks the cameras known to the service.
type Registry interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	GetCamera(device string) (model.Camera, bool)
	GetCameras() []model.Camera
	GetConnectedCameras() []model.Camera
	SubscribeChanges() <-chan Change
	LastSync() time.Time
}

// Config holds Camera Registry configuration.
type Config struct {
	ReconcileInterval  time.Duration
	InitialLoadTimeout time.Duration
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		ReconcileInterval:  time.Minute,
		InitialLoadTimeout: 30 * time.Second,
	}
}

// registryImpl implements the Registry interface.
type registryImpl struct {
	cfg    Config
	lister Lister
	events Subscriber
	logger *slog.Logger

	state       *registryState
	unsubscribe func()

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewRegistry creates a new Camera Registry. events may be nil, in which
// case the table only changes on reconciliation.
func NewRegistry(cfg Config, lister Lister, events Subscriber, logger *slog.Logger) Registry {
	if logger == nil {
		logger = slog.Default()
	}
	def := DefaultConfig()
	if cfg.ReconcileInterval <= 0 {
		cfg.ReconcileInterval = def.ReconcileInterval
	}
	if cfg.InitialLoadTimeout <= 0 {
		cfg.InitialLoadTimeout = def.InitialLoadTimeout
	}

	return &registryImpl{
		cfg:    cfg,
		lister: lister,
		events: events,
		logger: logger.With("component", "camera_registry"),
		state:  newState(),
	}
}

// Start loads the camera list, subscribes to status notifications and
// begins background reconciliation.
func (r *registryImpl) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel

	// Subscribe first so no update between the load and the subscription is lost.
	if r.events != nil {
		r.unsubscribe = r.events.OnMethod(model.MethodCameraStatusUpdate, r.handleStatusUpdate)
	}

	loadCtx, loadCancel := context.WithTimeout(ctx, r.cfg.InitialLoadTimeout)
	err := r.initialSync(loadCtx)
	loadCancel()
	if err != nil {
		r.release()
		cancel()
		return err
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.reconciliationLoop(ctx)
	}()

	total, connected := r.state.counts()
	r.logger.Info("camera registry started",
		"cameras", total,
		"connected", connected,
	)

	return nil
}

// Stop gracefully shuts down.
func (r *registryImpl) Stop(ctx context.Context) error {
	r.release()
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
		r.logger.Info("camera registry stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *registryImpl) release() {
	if r.unsubscribe != nil {
		r.unsubscribe()
	}
}

// GetCamera returns a camera by device path.
func (r *registryImpl) GetCamera(device string) (model.Camera, bool) {
	return r.state.getCamera(device)
}

// GetCameras returns every known camera sorted by device.
func (r *registryImpl) GetCameras() []model.Camera {
	return r.state.getCameras(false)
}

// GetConnectedCameras returns the cameras currently CONNECTED.
func (r *registryImpl) GetConnectedCameras() []model.Camera {
	return r.state.getCameras(true)
}

// SubscribeChanges returns the channel of camera table changes.
func (r *registryImpl) SubscribeChanges() <-chan Change {
	return r.state.changes
}

// LastSync returns when the table was last loaded from the server.
func (r *registryImpl) LastSync() time.Time {
	r.state.mu.RLock()
	defer r.state.mu.RUnlock()
	return r.state.lastSyncAt
}
