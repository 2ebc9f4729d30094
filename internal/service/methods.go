package service

import (
	"github.com/CarlosSprekelsen/camera-client/internal/model"
	"github.com/CarlosSprekelsen/camera-client/internal/rpc"
)

// -----------------------------------------------------------------------------
// Parameter objects
// -----------------------------------------------------------------------------

// DeviceParams addresses one camera.
type DeviceParams struct {
	Device string `json:"device"`
}

// SnapshotParams is the params object of take_snapshot.
type SnapshotParams struct {
	Device   string `json:"device"`
	Filename string `json:"filename,omitempty"`
}

// RecordingParams is the params object of start_recording.
type RecordingParams struct {
	Device   string `json:"device"`
	Duration int    `json:"duration,omitempty"` // Seconds, 0 = until stopped
	Format   string `json:"format,omitempty"`   // fmp4, mp4, mkv
}

// ListParams pages through list_recordings and list_snapshots.
type ListParams struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// FileParams addresses one stored file.
type FileParams struct {
	Filename string `json:"filename"`
}

// TopicsParams is the params object of subscribe_events and unsubscribe_events.
type TopicsParams struct {
	Topics  []string       `json:"topics,omitempty"`
	Filters map[string]any `json:"filters,omitempty"`
}

// ExternalStreamParams is the params object of add_external_stream.
type ExternalStreamParams struct {
	StreamURL  string `json:"stream_url"`
	StreamName string `json:"stream_name"`
	StreamType string `json:"stream_type,omitempty"`
}

// StreamURLParams is the params object of remove_external_stream.
type StreamURLParams struct {
	StreamURL string `json:"stream_url"`
}

// DiscoveryIntervalParams is the params object of set_discovery_interval.
type DiscoveryIntervalParams struct {
	ScanInterval int `json:"scan_interval"` // Seconds
}

// -----------------------------------------------------------------------------
// Method catalog
// -----------------------------------------------------------------------------

// Authentication and server.
var (
	MethodPing                 = rpc.NewMethod[rpc.NoParams, string]("ping", false)
	MethodGetStatus            = rpc.NewMethod[rpc.NoParams, model.ServerStatus]("get_status", true)
	MethodGetServerInfo        = rpc.NewMethod[rpc.NoParams, model.ServerInfo]("get_server_info", true)
	MethodGetMetrics           = rpc.NewMethod[rpc.NoParams, model.ServerMetrics]("get_metrics", true)
	MethodGetStorageInfo       = rpc.NewMethod[rpc.NoParams, model.StorageInfo]("get_storage_info", true)
	MethodSetRetentionPolicy   = rpc.NewMethod[model.RetentionPolicy, model.RetentionPolicyResult]("set_retention_policy", true)
	MethodCleanupOldFiles      = rpc.NewMethod[rpc.NoParams, model.CleanupResult]("cleanup_old_files", true)
	MethodSubscribeEvents      = rpc.NewMethod[TopicsParams, model.SubscriptionResult]("subscribe_events", true)
	MethodUnsubscribeEvents    = rpc.NewMethod[TopicsParams, model.SubscriptionResult]("unsubscribe_events", true)
	MethodGetSubscriptionStats = rpc.NewMethod[rpc.NoParams, model.SubscriptionStats]("get_subscription_stats", true)
)

// Devices and streams.
var (
	MethodGetCameraList         = rpc.NewMethod[rpc.NoParams, model.CameraList]("get_camera_list", true)
	MethodGetCameraStatus       = rpc.NewMethod[DeviceParams, model.CameraStatus]("get_camera_status", true)
	MethodGetCameraCapabilities = rpc.NewMethod[DeviceParams, model.CameraCapabilities]("get_camera_capabilities", true)
	MethodTakeSnapshot          = rpc.NewMethod[SnapshotParams, model.SnapshotResult]("take_snapshot", true)
	MethodStartRecording        = rpc.NewMethod[RecordingParams, model.RecordingResult]("start_recording", true)
	MethodStopRecording         = rpc.NewMethod[DeviceParams, model.RecordingResult]("stop_recording", true)
	MethodGetStreams            = rpc.NewMethod[rpc.NoParams, []model.StreamInfo]("get_streams", true)
	MethodGetStreamURL          = rpc.NewMethod[DeviceParams, model.StreamURL]("get_stream_url", true)
	MethodGetStreamStatus       = rpc.NewMethod[DeviceParams, model.StreamStatus]("get_stream_status", true)
	MethodStartStreaming        = rpc.NewMethod[DeviceParams, model.StreamingResult]("start_streaming", true)
	MethodStopStreaming         = rpc.NewMethod[DeviceParams, model.StreamingResult]("stop_streaming", true)
)

// Files.
var (
	MethodListRecordings   = rpc.NewMethod[ListParams, model.FileList]("list_recordings", true)
	MethodListSnapshots    = rpc.NewMethod[ListParams, model.FileList]("list_snapshots", true)
	MethodGetRecordingInfo = rpc.NewMethod[FileParams, model.FileInfo]("get_recording_info", true)
	MethodGetSnapshotInfo  = rpc.NewMethod[FileParams, model.FileInfo]("get_snapshot_info", true)
	MethodDeleteRecording  = rpc.NewMethod[FileParams, model.DeleteResult]("delete_recording", true)
	MethodDeleteSnapshot   = rpc.NewMethod[FileParams, model.DeleteResult]("delete_snapshot", true)
)

// External streams.
var (
	MethodDiscoverExternalStreams = rpc.NewMethod[model.DiscoveryOptions, model.DiscoveryResult]("discover_external_streams", true)
	MethodAddExternalStream       = rpc.NewMethod[ExternalStreamParams, model.ExternalStreamResult]("add_external_stream", true)
	MethodRemoveExternalStream    = rpc.NewMethod[StreamURLParams, model.ExternalStreamResult]("remove_external_stream", true)
	MethodGetExternalStreams      = rpc.NewMethod[rpc.NoParams, model.ExternalStreamList]("get_external_streams", true)
	MethodSetDiscoveryInterval    = rpc.NewMethod[DiscoveryIntervalParams, model.DiscoveryIntervalResult]("set_discovery_interval", true)
)
