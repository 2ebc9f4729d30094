package fallback

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/CarlosSprekelsen/camera-client/internal/model"
	"github.com/CarlosSprekelsen/camera-client/internal/rpc"
)

// ErrNotSupported is returned for methods outside the fallback allowlist.
var ErrNotSupported = errors.New("not supported in fallback mode")

// Methods served over HTTP.
const (
	MethodPing            = "ping"
	MethodGetCameraList   = "get_camera_list"
	MethodGetCameraStatus = "get_camera_status"
)

// Supports reports whether method can be served in fallback mode.
func Supports(method string) bool {
	switch method {
	case MethodPing, MethodGetCameraList, MethodGetCameraStatus:
		return true
	}
	return false
}

// Source is the health server surface used by the fallback. *api.Client
// satisfies it.
type Source interface {
	GetSystemHealth(ctx context.Context) (model.HealthStatus, error)
	GetCameraList(ctx context.Context) (model.CameraList, error)
	GetCameraStatus(ctx context.Context, device string) (model.CameraStatus, error)
}

// State describes the current fallback session.
type State struct {
	Active     bool
	Since      time.Time
	PollCount  int64
	ErrorCount int64
	LastError  string
}

// Fallback routes allowlisted calls to the health server.
type Fallback struct {
	source Source
	logger *slog.Logger

	mu    sync.Mutex
	state State
}

// New creates an inactive Fallback.
func New(source Source, logger *slog.Logger) *Fallback {
	if logger == nil {
		logger = slog.Default()
	}
	return &Fallback{
		source: source,
		logger: logger.With("component", "fallback"),
	}
}

// Activate enters fallback mode. It returns true when the mode was entered
// by this call and false when it was already active.
func (f *Fallback) Activate() bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state.Active {
		return false
	}
	f.state = State{Active: true, Since: time.Now()}
	f.logger.Warn("entering fallback mode")
	return true
}

// Deactivate leaves fallback mode and clears the counters. It returns true
// when the mode was active.
func (f *Fallback) Deactivate() bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.state.Active {
		return false
	}
	prev := f.state
	f.state = State{}
	f.logger.Info("leaving fallback mode",
		"duration", time.Since(prev.Since),
		"polls", prev.PollCount,
		"errors", prev.ErrorCount,
	)
	return true
}

// Active reports whether fallback mode is on.
func (f *Fallback) Active() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state.Active
}

// State returns a copy of the fallback state.
func (f *Fallback) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Call serves method over HTTP and returns the JSON result the WebSocket
// server would have produced.
func (f *Fallback) Call(ctx context.Context, method string, params any) (json.RawMessage, error) {
	if !Supports(method) {
		return nil, fmt.Errorf("%s: %w", method, ErrNotSupported)
	}

	result, err := f.serve(ctx, method, params)
	f.record(err)
	if err != nil {
		return nil, err
	}

	raw, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("marshal %s result: %w", method, err)
	}
	return raw, nil
}

func (f *Fallback) serve(ctx context.Context, method string, params any) (any, error) {
	switch method {
	case MethodPing:
		if _, err := f.source.GetSystemHealth(ctx); err != nil {
			return nil, err
		}
		return "pong", nil

	case MethodGetCameraList:
		return f.source.GetCameraList(ctx)

	default:
		device, err := deviceParam(params)
		if err != nil {
			return nil, err
		}
		st, err := f.source.GetCameraStatus(ctx, device)
		if err != nil {
			return nil, err
		}
		st.FallbackMode = true
		return st, nil
	}
}

func (f *Fallback) record(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.state.PollCount++
	if err != nil {
		f.state.ErrorCount++
		f.state.LastError = err.Error()
		f.logger.Debug("fallback request failed", "error", err)
	}
}

// deviceParam extracts params.device from a struct or map.
func deviceParam(params any) (string, error) {
	var p struct {
		Device string `json:"device"`
	}
	if params != nil {
		data, err := json.Marshal(params)
		if err != nil {
			return "", fmt.Errorf("marshal params: %w", err)
		}
		if err := json.Unmarshal(data, &p); err != nil {
			return "", &rpc.Error{Code: rpc.CodeInvalidParams, Message: "params must be an object"}
		}
	}
	if p.Device == "" {
		return "", &rpc.Error{Code: rpc.CodeInvalidParams, Message: "device is required"}
	}
	return p.Device, nil
}
