package model

// Camera status values reported by the service.
const (
	CameraConnected    = "CONNECTED"
	CameraDisconnected = "DISCONNECTED"
	CameraError        = "ERROR"
)

// -----------------------------------------------------------------------------
// Devices
// -----------------------------------------------------------------------------

// Camera is one entry of get_camera_list.
type Camera struct {
	Device     string            `json:"device"`               // Device path (primary key)
	Status     string            `json:"status"`               // CONNECTED, DISCONNECTED, ERROR
	Name       string            `json:"name,omitempty"`       // Human-readable name
	Resolution string            `json:"resolution,omitempty"` // e.g. "1920x1080"
	FPS        int               `json:"fps,omitempty"`        // Frames per second
	Streams    map[string]string `json:"streams,omitempty"`    // Protocol -> URL (rtsp, hls, webrtc)
}

// IsConnected reports whether the camera is online.
func (c Camera) IsConnected() bool {
	return c.Status == CameraConnected
}

// CameraList is the result of get_camera_list and GET /api/cameras.
type CameraList struct {
	Cameras   []Camera `json:"cameras"`
	Total     int      `json:"total"`
	Connected int      `json:"connected"`
}

// NewCameraList builds a list with Total and Connected computed from cameras.
func NewCameraList(cameras []Camera) CameraList {
	if cameras == nil {
		cameras = []Camera{}
	}
	list := CameraList{Cameras: cameras, Total: len(cameras)}
	for _, c := range cameras {
		if c.IsConnected() {
			list.Connected++
		}
	}
	return list
}

// CameraMetrics holds per-camera counters from get_camera_status.
type CameraMetrics struct {
	BytesSent int64   `json:"bytes_sent"`
	Readers   int     `json:"readers"`
	Uptime    float64 `json:"uptime"`
}

// CameraStatus is the result of get_camera_status and GET /api/cameras/{device}.
// FallbackMode is set when the status was served by the HTTP fallback.
type CameraStatus struct {
	Camera
	Metrics      *CameraMetrics      `json:"metrics,omitempty"`
	Capabilities *CameraCapabilities `json:"capabilities,omitempty"`
	FallbackMode bool                `json:"fallback_mode,omitempty"`
}

// CameraCapabilities is the result of get_camera_capabilities.
type CameraCapabilities struct {
	Device           string   `json:"device"`
	Formats          []string `json:"formats"`
	Resolutions      []string `json:"resolutions"`
	FPSOptions       []int    `json:"fps_options"`
	ValidationStatus string   `json:"validation_status"` // none, disconnected, confirmed
}

// -----------------------------------------------------------------------------
// Media Operations
// -----------------------------------------------------------------------------

// SnapshotResult is the result of take_snapshot.
type SnapshotResult struct {
	Device    string `json:"device"`
	Filename  string `json:"filename"`
	Status    string `json:"status"` // SUCCESS, FAILED
	Timestamp string `json:"timestamp"`
	FileSize  int64  `json:"file_size"`
	FilePath  string `json:"file_path,omitempty"`
}

// RecordingResult is the result of start_recording and stop_recording.
type RecordingResult struct {
	Device    string  `json:"device"`
	Filename  string  `json:"filename"`
	Status    string  `json:"status"` // RECORDING, STOPPED, FAILED
	StartTime string  `json:"start_time,omitempty"`
	EndTime   string  `json:"end_time,omitempty"`
	Duration  float64 `json:"duration,omitempty"` // Seconds
	Format    string  `json:"format,omitempty"`
	FileSize  int64   `json:"file_size,omitempty"`
}

// -----------------------------------------------------------------------------
// Files
// -----------------------------------------------------------------------------

// FileInfo describes one recording or snapshot stored on the server.
type FileInfo struct {
	Filename     string  `json:"filename"`
	FileSize     int64   `json:"file_size"`
	CreatedTime  string  `json:"created_time,omitempty"`
	ModifiedTime string  `json:"modified_time,omitempty"`
	Duration     float64 `json:"duration,omitempty"` // Recordings only (seconds)
	Format       string  `json:"format,omitempty"`
	Device       string  `json:"device,omitempty"`
	DownloadURL  string  `json:"download_url,omitempty"`
}

// FileList is the result of list_recordings and list_snapshots.
type FileList struct {
	Files  []FileInfo `json:"files"`
	Total  int        `json:"total"`
	Limit  int        `json:"limit"`
	Offset int        `json:"offset"`
}

// DeleteResult is the result of delete_recording and delete_snapshot.
type DeleteResult struct {
	Filename string `json:"filename"`
	Deleted  bool   `json:"deleted"`
	Message  string `json:"message,omitempty"`
}

// -----------------------------------------------------------------------------
// Streams
// -----------------------------------------------------------------------------

// StreamInfo is one entry of get_streams.
type StreamInfo struct {
	Name      string `json:"name"`
	Source    string `json:"source"`
	Ready     bool   `json:"ready"`
	Readers   int    `json:"readers"`
	BytesSent int64  `json:"bytes_sent"`
}

// StreamURL is the result of get_stream_url.
type StreamURL struct {
	Device          string `json:"device"`
	StreamName      string `json:"stream_name"`
	StreamURL       string `json:"stream_url"`
	Available       bool   `json:"available"`
	ActiveConsumers int    `json:"active_consumers"`
	StreamStatus    string `json:"stream_status"`
}

// StreamStatus is the result of get_stream_status.
type StreamStatus struct {
	Device     string         `json:"device"`
	StreamName string         `json:"stream_name"`
	Status     string         `json:"status"`
	Ready      bool           `json:"ready"`
	Statistics map[string]any `json:"statistics,omitempty"`
}

// StreamingResult is the result of start_streaming and stop_streaming.
type StreamingResult struct {
	Device     string `json:"device"`
	StreamName string `json:"stream_name"`
	StreamURL  string `json:"stream_url,omitempty"`
	Status     string `json:"status"`
	StartTime  string `json:"start_time,omitempty"`
}

// -----------------------------------------------------------------------------
// Server
// -----------------------------------------------------------------------------

// AuthResult is the result of authenticate.
type AuthResult struct {
	Authenticated bool     `json:"authenticated"`
	Role          string   `json:"role,omitempty"`
	Permissions   []string `json:"permissions,omitempty"`
	ExpiresAt     string   `json:"expires_at,omitempty"`
	SessionID     string   `json:"session_id,omitempty"`
}

// ServerStatus is the result of get_status.
type ServerStatus struct {
	Status     string            `json:"status"` // HEALTHY, DEGRADED, UNHEALTHY
	Uptime     float64           `json:"uptime"`
	Version    string            `json:"version"`
	Components map[string]string `json:"components,omitempty"`
}

// ServerInfo is the result of get_server_info.
type ServerInfo struct {
	Name             string   `json:"name"`
	Version          string   `json:"version"`
	BuildDate        string   `json:"build_date,omitempty"`
	GoVersion        string   `json:"go_version,omitempty"`
	Architecture     string   `json:"architecture,omitempty"`
	Capabilities     []string `json:"capabilities,omitempty"`
	SupportedFormats []string `json:"supported_formats,omitempty"`
	MaxCameras       int      `json:"max_cameras,omitempty"`
}

// ServerMetrics is the result of get_metrics.
type ServerMetrics struct {
	ActiveConnections   int     `json:"active_connections"`
	TotalRequests       int64   `json:"total_requests"`
	AverageResponseTime float64 `json:"average_response_time"` // Milliseconds
	ErrorRate           float64 `json:"error_rate"`
	MemoryUsage         float64 `json:"memory_usage"`
	CPUUsage            float64 `json:"cpu_usage"`
	Goroutines          int     `json:"goroutines"`
}

// StorageInfo is the result of get_storage_info.
type StorageInfo struct {
	TotalSpace      int64   `json:"total_space"`
	UsedSpace       int64   `json:"used_space"`
	AvailableSpace  int64   `json:"available_space"`
	UsagePercentage float64 `json:"usage_percentage"`
	RecordingsSize  int64   `json:"recordings_size"`
	SnapshotsSize   int64   `json:"snapshots_size"`
	LowSpaceWarning bool    `json:"low_space_warning"`
}

// RetentionPolicy is the parameter object of set_retention_policy.
type RetentionPolicy struct {
	PolicyType string `json:"policy_type"` // age, size, manual
	MaxAgeDays int    `json:"max_age_days,omitempty"`
	MaxSizeGB  int    `json:"max_size_gb,omitempty"`
	Enabled    bool   `json:"enabled"`
}

// RetentionPolicyResult is the result of set_retention_policy.
type RetentionPolicyResult struct {
	RetentionPolicy
	Message string `json:"message,omitempty"`
}

// CleanupResult is the result of cleanup_old_files.
type CleanupResult struct {
	CleanupExecuted bool   `json:"cleanup_executed"`
	FilesDeleted    int    `json:"files_deleted"`
	SpaceFreed      int64  `json:"space_freed"`
	Message         string `json:"message,omitempty"`
}

// SubscriptionResult is the result of subscribe_events and unsubscribe_events.
type SubscriptionResult struct {
	Subscribed   bool     `json:"subscribed,omitempty"`
	Unsubscribed bool     `json:"unsubscribed,omitempty"`
	Topics       []string `json:"topics"`
}

// SubscriptionStats is the result of get_subscription_stats.
type SubscriptionStats struct {
	TotalSubscriptions int            `json:"total_subscriptions"`
	ActiveClients      int            `json:"active_clients"`
	TopicCounts        map[string]int `json:"topic_counts,omitempty"`
	ClientTopics       []string       `json:"client_topics,omitempty"`
	ClientID           string         `json:"client_id,omitempty"`
}

// -----------------------------------------------------------------------------
// External Streams
// -----------------------------------------------------------------------------

// ExternalStream is a stream discovered on the network (e.g., a Skydio UAV).
type ExternalStream struct {
	URL          string         `json:"url"`
	Type         string         `json:"type"` // skydio_stanag4609, generic_rtsp
	Name         string         `json:"name"`
	Status       string         `json:"status"`
	DiscoveredAt string         `json:"discovered_at,omitempty"`
	LastSeen     string         `json:"last_seen,omitempty"`
	Capabilities map[string]any `json:"capabilities,omitempty"`
}

// DiscoveryOptions is the parameter object of discover_external_streams.
type DiscoveryOptions struct {
	SkydioEnabled  bool `json:"skydio_enabled"`
	GenericEnabled bool `json:"generic_enabled"`
	ForceRescan    bool `json:"force_rescan"`
	IncludeOffline bool `json:"include_offline"`
}

// DiscoveryResult is the result of discover_external_streams.
type DiscoveryResult struct {
	DiscoveredStreams []ExternalStream `json:"discovered_streams"`
	SkydioStreams     []ExternalStream `json:"skydio_streams"`
	GenericStreams    []ExternalStream `json:"generic_streams"`
	ScanTimestamp     string           `json:"scan_timestamp"`
	TotalFound        int              `json:"total_found"`
	ScanDuration      string           `json:"scan_duration,omitempty"`
	Errors            []string         `json:"errors,omitempty"`
}

// ExternalStreamResult is the result of add_external_stream and remove_external_stream.
type ExternalStreamResult struct {
	StreamURL  string `json:"stream_url"`
	StreamName string `json:"stream_name,omitempty"`
	StreamType string `json:"stream_type,omitempty"`
	Status     string `json:"status"`
	Timestamp  string `json:"timestamp,omitempty"`
}

// ExternalStreamList is the result of get_external_streams.
type ExternalStreamList struct {
	ExternalStreams []ExternalStream `json:"external_streams"`
	SkydioStreams   []ExternalStream `json:"skydio_streams"`
	GenericStreams  []ExternalStream `json:"generic_streams"`
	TotalCount      int              `json:"total_count"`
	Timestamp       string           `json:"timestamp,omitempty"`
}

// DiscoveryIntervalResult is the result of set_discovery_interval.
type DiscoveryIntervalResult struct {
	ScanInterval int    `json:"scan_interval"` // Seconds
	Status       string `json:"status"`
	Message      string `json:"message,omitempty"`
}

// -----------------------------------------------------------------------------
// Health Server
// -----------------------------------------------------------------------------

// HealthStatus is the body of GET /health/system.
type HealthStatus struct {
	Status     string            `json:"status"` // healthy, degraded, unhealthy
	Timestamp  string            `json:"timestamp,omitempty"`
	Version    string            `json:"version,omitempty"`
	Uptime     float64           `json:"uptime,omitempty"`
	Components map[string]string `json:"components,omitempty"`
}

// ReadyStatus is the body of GET /health/ready.
type ReadyStatus struct {
	Ready bool `json:"ready"`
}
