package model

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
)

func TestNewCameraList(t *testing.T) {
	tests := []struct {
		name          string
		cameras       []Camera
		wantTotal     int
		wantConnected int
	}{
		{"nil", nil, 0, 0},
		{"all connected", []Camera{{Device: "/dev/video0", Status: CameraConnected}, {Device: "/dev/video1", Status: CameraConnected}}, 2, 2},
		{"mixed", []Camera{{Device: "/dev/video0", Status: CameraConnected}, {Device: "/dev/video1", Status: CameraDisconnected}, {Device: "/dev/video2", Status: CameraError}}, 3, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			list := NewCameraList(tt.cameras)
			if list.Total != tt.wantTotal {
				t.Errorf("Total = %d, want %d", list.Total, tt.wantTotal)
			}
			if list.Connected != tt.wantConnected {
				t.Errorf("Connected = %d, want %d", list.Connected, tt.wantConnected)
			}
			if list.Cameras == nil {
				t.Error("Cameras = nil, want empty slice")
			}
		})
	}
}

func TestCameraList_EmptyEncodesArray(t *testing.T) {
	data, err := json.Marshal(NewCameraList(nil))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"cameras":[],"total":0,"connected":0}`
	if string(data) != want {
		t.Errorf("json = %s, want %s", data, want)
	}
}

func TestCameraStatus_Decode(t *testing.T) {
	raw := `{
		"device": "/dev/video0",
		"status": "CONNECTED",
		"name": "Camera 0",
		"resolution": "1920x1080",
		"fps": 30,
		"streams": {"rtsp": "rtsp://localhost:8554/camera0"},
		"metrics": {"bytes_sent": 12345, "readers": 2, "uptime": 3600.5}
	}`

	var st CameraStatus
	if err := json.Unmarshal([]byte(raw), &st); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if st.Device != "/dev/video0" {
		t.Errorf("Device = %q, want %q", st.Device, "/dev/video0")
	}
	if !st.IsConnected() {
		t.Error("IsConnected() = false, want true")
	}
	if st.Streams["rtsp"] != "rtsp://localhost:8554/camera0" {
		t.Errorf("Streams[rtsp] = %q", st.Streams["rtsp"])
	}
	if st.Metrics == nil || st.Metrics.Readers != 2 {
		t.Errorf("Metrics = %+v, want readers 2", st.Metrics)
	}
	if st.FallbackMode {
		t.Error("FallbackMode = true, want false")
	}
}

func TestCameraStatusUpdate_Camera(t *testing.T) {
	u := CameraStatusUpdate{Device: "/dev/video1", Status: CameraDisconnected, Name: "Cam 1", FPS: 15}
	c := u.Camera()

	if c.Device != u.Device || c.Status != u.Status || c.Name != u.Name || c.FPS != u.FPS {
		t.Errorf("Camera() = %+v, want fields from %+v", c, u)
	}
	if c.IsConnected() {
		t.Error("IsConnected() = true, want false")
	}
}

func TestNewCameraEvent(t *testing.T) {
	t.Run("camera status", func(t *testing.T) {
		params := json.RawMessage(`{"device":"/dev/video0","status":"CONNECTED","fps":30}`)
		ev := NewCameraEvent(MethodCameraStatusUpdate, params, 1705321845000000)

		if ev.EventID == uuid.Nil {
			t.Error("EventID is nil")
		}
		if ev.Device != "/dev/video0" {
			t.Errorf("Device = %q, want %q", ev.Device, "/dev/video0")
		}
		if ev.Status != "CONNECTED" {
			t.Errorf("Status = %q, want %q", ev.Status, "CONNECTED")
		}
		if ev.ReceivedAt != 1705321845000000 {
			t.Errorf("ReceivedAt = %d, want %d", ev.ReceivedAt, 1705321845000000)
		}
	})

	t.Run("params without device", func(t *testing.T) {
		ev := NewCameraEvent("system_alert", json.RawMessage(`["not","an","object"]`), 1)
		if ev.Device != "" || ev.Status != "" {
			t.Errorf("Device/Status = %q/%q, want empty", ev.Device, ev.Status)
		}
	})

	t.Run("unique ids", func(t *testing.T) {
		a := NewCameraEvent("x", nil, 1)
		b := NewCameraEvent("x", nil, 1)
		if a.EventID == b.EventID {
			t.Error("two events share an EventID")
		}
	})
}
