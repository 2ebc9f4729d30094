package service

import (
	"errors"
	"fmt"

	"github.com/CarlosSprekelsen/camera-client/internal/rpc"
)

// Domain errors. Server failures wrap both the sentinel and the original
// *rpc.Error, so errors.Is and errors.As both work.
var (
	ErrInvalidParams          = errors.New("invalid params")
	ErrMethodNotFound         = errors.New("method not found")
	ErrAuthenticationFailed   = errors.New("authentication failed")
	ErrRateLimited            = errors.New("rate limit exceeded")
	ErrPermissionDenied       = errors.New("permission denied")
	ErrCameraNotFound         = errors.New("camera not found")
	ErrRecordingInProgress    = errors.New("recording in progress")
	ErrMediaServerUnavailable = errors.New("media server unavailable")
	ErrInsufficientStorage    = errors.New("insufficient storage")
	ErrCapabilityUnsupported  = errors.New("capability not supported")
)

var codeErrors = map[int]error{
	rpc.CodeInvalidParams:          ErrInvalidParams,
	rpc.CodeMethodNotFound:         ErrMethodNotFound,
	rpc.CodeAuthFailed:             ErrAuthenticationFailed,
	rpc.CodeRateLimitExceeded:      ErrRateLimited,
	rpc.CodePermissionDenied:       ErrPermissionDenied,
	rpc.CodeCameraNotFound:         ErrCameraNotFound,
	rpc.CodeRecordingInProgress:    ErrRecordingInProgress,
	rpc.CodeMediaServerUnavailable: ErrMediaServerUnavailable,
	rpc.CodeInsufficientStorage:    ErrInsufficientStorage,
	rpc.CodeCapabilityUnsupported:  ErrCapabilityUnsupported,
}

// ValidationError is returned before any request is sent when a parameter
// fails a local check.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// Unwrap makes validation failures match ErrInvalidParams.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidParams
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// mapError adds the method name and, for known server codes, the matching
// domain sentinel.
func mapError(method string, err error) error {
	if err == nil {
		return nil
	}

	var rpcErr *rpc.Error
	if errors.As(err, &rpcErr) {
		if sentinel, ok := codeErrors[rpcErr.Code]; ok {
			return fmt.Errorf("%s: %w: %w", method, sentinel, err)
		}
	}
	return fmt.Errorf("%s: %w", method, err)
}
