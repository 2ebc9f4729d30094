package service

import (
	"context"
	"strings"
	"time"

	"github.com/CarlosSprekelsen/camera-client/internal/model"
	"github.com/CarlosSprekelsen/camera-client/internal/rpc"
)

// ExternalStreamService wraps discovery and management of streams not
// attached to a local camera (UAVs, IP cameras).
type ExternalStreamService struct {
	caller rpc.Caller
}

// NewExternalStreamService creates an ExternalStreamService.
func NewExternalStreamService(c rpc.Caller) *ExternalStreamService {
	return &ExternalStreamService{caller: c}
}

// DiscoverExternalStreams runs a discovery scan.
func (s *ExternalStreamService) DiscoverExternalStreams(ctx context.Context, opts model.DiscoveryOptions) (model.DiscoveryResult, error) {
	return invoke(ctx, s.caller, MethodDiscoverExternalStreams, opts)
}

// AddExternalStream registers a stream by URL.
func (s *ExternalStreamService) AddExternalStream(ctx context.Context, streamURL, name, streamType string) (model.ExternalStreamResult, error) {
	if err := validateStreamURL(streamURL); err != nil {
		return model.ExternalStreamResult{}, err
	}
	if strings.TrimSpace(name) == "" {
		return model.ExternalStreamResult{}, invalid("stream_name", "is required")
	}
	return invoke(ctx, s.caller, MethodAddExternalStream, ExternalStreamParams{
		StreamURL:  streamURL,
		StreamName: name,
		StreamType: streamType,
	})
}

// RemoveExternalStream unregisters a stream.
func (s *ExternalStreamService) RemoveExternalStream(ctx context.Context, streamURL string) (model.ExternalStreamResult, error) {
	if err := validateStreamURL(streamURL); err != nil {
		return model.ExternalStreamResult{}, err
	}
	return invoke(ctx, s.caller, MethodRemoveExternalStream, StreamURLParams{StreamURL: streamURL})
}

// GetExternalStreams lists registered and discovered streams.
func (s *ExternalStreamService) GetExternalStreams(ctx context.Context) (model.ExternalStreamList, error) {
	return invoke(ctx, s.caller, MethodGetExternalStreams, rpc.NoParams{})
}

// SetDiscoveryInterval sets the periodic scan interval. The server works
// in whole seconds.
func (s *ExternalStreamService) SetDiscoveryInterval(ctx context.Context, interval time.Duration) (model.DiscoveryIntervalResult, error) {
	if interval < time.Second {
		return model.DiscoveryIntervalResult{}, invalid("scan_interval", "%s must be at least 1s", interval)
	}
	return invoke(ctx, s.caller, MethodSetDiscoveryInterval, DiscoveryIntervalParams{
		ScanInterval: int(interval / time.Second),
	})
}
