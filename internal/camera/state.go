package camera

import (
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/CarlosSprekelsen/camera-client/internal/model"
)

// ChangeBufferSize is the capacity of the change channel. When it is full
// the oldest change is dropped.
const ChangeBufferSize = 1000

type registryState struct {
	mu           sync.RWMutex
	cameras      map[string]model.Camera
	connectedSet map[string]struct{}
	lastSyncAt   time.Time

	changes chan Change
}

func newState() *registryState {
	return &registryState{
		cameras:      make(map[string]model.Camera),
		connectedSet: make(map[string]struct{}),
		changes:      make(chan Change, ChangeBufferSize),
	}
}

func isConnected(status string) bool {
	return status == model.CameraConnected
}

func (s *registryState) upsertCamera(c model.Camera) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.upsertCameraLocked(c)
}

func (s *registryState) upsertCameraLocked(c model.Camera) {
	s.cameras[c.Device] = c
	if isConnected(c.Status) {
		s.connectedSet[c.Device] = struct{}{}
	} else {
		delete(s.connectedSet, c.Device)
	}
}

func (s *registryState) removeCameraLocked(device string) {
	delete(s.cameras, device)
	delete(s.connectedSet, device)
}

// updateStatus sets the status of a known camera and returns the old one.
func (s *registryState) updateStatus(device, status string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.cameras[device]
	if !ok {
		return "", false
	}
	old := c.Status
	c.Status = status
	s.upsertCameraLocked(c)
	return old, true
}

func (s *registryState) getCamera(device string) (model.Camera, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.cameras[device]
	return c, ok
}

func (s *registryState) getCameras(connectedOnly bool) []model.Camera {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Camera, 0, len(s.cameras))
	for _, device := range slices.Sorted(maps.Keys(s.cameras)) {
		if connectedOnly {
			if _, ok := s.connectedSet[device]; !ok {
				continue
			}
		}
		out = append(out, s.cameras[device])
	}
	return out
}

func (s *registryState) counts() (total, connected int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.cameras), len(s.connectedSet)
}

// notifyChange sends without blocking, dropping the oldest change when the
// channel is full.
func (s *registryState) notifyChange(c Change) {
	for {
		select {
		case s.changes <- c:
			return
		default:
		}
		select {
		case <-s.changes:
		default:
		}
	}
}

// sameCamera compares every tracked field of two entries for one device.
func sameCamera(a, b model.Camera) bool {
	return a.Status == b.Status &&
		a.Name == b.Name &&
		a.Resolution == b.Resolution &&
		a.FPS == b.FPS &&
		maps.Equal(a.Streams, b.Streams)
}
