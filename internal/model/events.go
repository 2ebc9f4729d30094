package model

import (
	"encoding/json"

	"github.com/google/uuid"
)

// Notification methods pushed by the service.
const (
	MethodCameraStatusUpdate    = "camera_status_update"
	MethodRecordingStatusUpdate = "recording_status_update"
)

// CameraStatusUpdate is the params object of camera_status_update.
type CameraStatusUpdate struct {
	Device     string            `json:"device"`
	Status     string            `json:"status"`
	Name       string            `json:"name,omitempty"`
	Resolution string            `json:"resolution,omitempty"`
	FPS        int               `json:"fps,omitempty"`
	Streams    map[string]string `json:"streams,omitempty"`
}

// Camera converts the update into a registry entry.
func (u CameraStatusUpdate) Camera() Camera {
	return Camera{
		Device:     u.Device,
		Status:     u.Status,
		Name:       u.Name,
		Resolution: u.Resolution,
		FPS:        u.FPS,
		Streams:    u.Streams,
	}
}

// RecordingStatusUpdate is the params object of recording_status_update.
type RecordingStatusUpdate struct {
	Device   string  `json:"device"`
	Status   string  `json:"status"` // STARTED, STOPPED, FAILED
	Filename string  `json:"filename"`
	Duration float64 `json:"duration"` // Seconds
}

// CameraEvent is a persisted notification.
type CameraEvent struct {
	EventID    uuid.UUID       // Primary key (client-generated)
	ReceivedAt int64           // Client receive timestamp (µs since epoch)
	Method     string          // Notification method
	Device     string          // Device path, empty when the params carry none
	Status     string          // Status field of the params, if any
	Params     json.RawMessage // Raw params object
}

// NewCameraEvent builds an event from a raw notification, lifting the device
// and status fields when present.
func NewCameraEvent(method string, params json.RawMessage, receivedAt int64) CameraEvent {
	ev := CameraEvent{
		EventID:    uuid.New(),
		ReceivedAt: receivedAt,
		Method:     method,
		Params:     params,
	}

	var common struct {
		Device string `json:"device"`
		Status string `json:"status"`
	}
	if len(params) > 0 && json.Unmarshal(params, &common) == nil {
		ev.Device = common.Device
		ev.Status = common.Status
	}
	return ev
}
