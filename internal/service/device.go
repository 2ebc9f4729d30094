package service

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/CarlosSprekelsen/camera-client/internal/model"
	"github.com/CarlosSprekelsen/camera-client/internal/rpc"
)

// DefaultStatusConcurrency bounds the fan-out of GetAllCameraStatus.
const DefaultStatusConcurrency = 4

// DeviceService wraps camera, recording and streaming methods.
type DeviceService struct {
	caller      rpc.Caller
	concurrency int
}

// NewDeviceService creates a DeviceService.
func NewDeviceService(c rpc.Caller) *DeviceService {
	return &DeviceService{caller: c, concurrency: DefaultStatusConcurrency}
}

// GetCameraList returns every camera known to the server.
func (s *DeviceService) GetCameraList(ctx context.Context) (model.CameraList, error) {
	list, err := invoke(ctx, s.caller, MethodGetCameraList, rpc.NoParams{})
	if err != nil {
		return list, err
	}
	if list.Cameras == nil {
		list.Cameras = []model.Camera{}
	}
	return list, nil
}

// GetCameraStatus returns the status of one camera.
func (s *DeviceService) GetCameraStatus(ctx context.Context, device string) (model.CameraStatus, error) {
	if err := validateDevice(device); err != nil {
		return model.CameraStatus{}, err
	}
	return invoke(ctx, s.caller, MethodGetCameraStatus, DeviceParams{Device: device})
}

// GetCameraCapabilities returns the formats and resolutions of one camera.
func (s *DeviceService) GetCameraCapabilities(ctx context.Context, device string) (model.CameraCapabilities, error) {
	if err := validateDevice(device); err != nil {
		return model.CameraCapabilities{}, err
	}
	return invoke(ctx, s.caller, MethodGetCameraCapabilities, DeviceParams{Device: device})
}

// GetAllCameraStatus fetches the status of every listed camera
// concurrently. Cameras that disappear between the list and the status
// call are skipped. Results follow the list order.
func (s *DeviceService) GetAllCameraStatus(ctx context.Context) ([]model.CameraStatus, error) {
	list, err := s.GetCameraList(ctx)
	if err != nil {
		return nil, err
	}

	statuses := make([]*model.CameraStatus, len(list.Cameras))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, cam := range list.Cameras {
		g.Go(func() error {
			st, err := s.GetCameraStatus(gctx, cam.Device)
			if errors.Is(err, ErrCameraNotFound) {
				return nil
			}
			if err != nil {
				return err
			}
			statuses[i] = &st
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]model.CameraStatus, 0, len(statuses))
	for _, st := range statuses {
		if st != nil {
			out = append(out, *st)
		}
	}
	return out, nil
}

// TakeSnapshot captures a still image. An empty filename lets the server
// pick one.
func (s *DeviceService) TakeSnapshot(ctx context.Context, device, filename string) (model.SnapshotResult, error) {
	if err := validateDevice(device); err != nil {
		return model.SnapshotResult{}, err
	}
	if filename != "" {
		if err := validateBaseName(filename); err != nil {
			return model.SnapshotResult{}, err
		}
	}
	return invoke(ctx, s.caller, MethodTakeSnapshot, SnapshotParams{Device: device, Filename: filename})
}

// StartRecording starts recording. A zero duration records until
// StopRecording; format may be empty for the server default.
func (s *DeviceService) StartRecording(ctx context.Context, device string, duration time.Duration, format string) (model.RecordingResult, error) {
	if err := validateDevice(device); err != nil {
		return model.RecordingResult{}, err
	}
	if err := validateDuration(duration); err != nil {
		return model.RecordingResult{}, err
	}
	if err := validateFormat(format); err != nil {
		return model.RecordingResult{}, err
	}
	return invoke(ctx, s.caller, MethodStartRecording, RecordingParams{
		Device:   device,
		Duration: int(duration / time.Second),
		Format:   format,
	})
}

// StopRecording stops the active recording on device.
func (s *DeviceService) StopRecording(ctx context.Context, device string) (model.RecordingResult, error) {
	if err := validateDevice(device); err != nil {
		return model.RecordingResult{}, err
	}
	return invoke(ctx, s.caller, MethodStopRecording, DeviceParams{Device: device})
}

// GetStreams lists the media server's active streams.
func (s *DeviceService) GetStreams(ctx context.Context) ([]model.StreamInfo, error) {
	streams, err := invoke(ctx, s.caller, MethodGetStreams, rpc.NoParams{})
	if err != nil {
		return nil, err
	}
	if streams == nil {
		streams = []model.StreamInfo{}
	}
	return streams, nil
}

// GetStreamURL returns the playback URL of device.
func (s *DeviceService) GetStreamURL(ctx context.Context, device string) (model.StreamURL, error) {
	if err := validateDevice(device); err != nil {
		return model.StreamURL{}, err
	}
	return invoke(ctx, s.caller, MethodGetStreamURL, DeviceParams{Device: device})
}

// GetStreamStatus returns the stream state of device.
func (s *DeviceService) GetStreamStatus(ctx context.Context, device string) (model.StreamStatus, error) {
	if err := validateDevice(device); err != nil {
		return model.StreamStatus{}, err
	}
	return invoke(ctx, s.caller, MethodGetStreamStatus, DeviceParams{Device: device})
}

// StartStreaming starts the live stream of device.
func (s *DeviceService) StartStreaming(ctx context.Context, device string) (model.StreamingResult, error) {
	if err := validateDevice(device); err != nil {
		return model.StreamingResult{}, err
	}
	return invoke(ctx, s.caller, MethodStartStreaming, DeviceParams{Device: device})
}

// StopStreaming stops the live stream of device.
func (s *DeviceService) StopStreaming(ctx context.Context, device string) (model.StreamingResult, error) {
	if err := validateDevice(device); err != nil {
		return model.StreamingResult{}, err
	}
	return invoke(ctx, s.caller, MethodStopStreaming, DeviceParams{Device: device})
}
