package camera

import (
	"context"
	"fmt"
	"time"

	"github.com/CarlosSprekelsen/camera-client/internal/model"
	"github.com/CarlosSprekelsen/camera-client/internal/router"
)

// initialSync loads the camera table on startup.
func (r *registryImpl) initialSync(ctx context.Context) error {
	start := time.Now()

	list, err := r.lister.GetCameraList(ctx)
	if err != nil {
		return fmt.Errorf("initial camera sync: %w", err)
	}

	r.state.mu.Lock()
	for _, c := range list.Cameras {
		r.state.upsertCameraLocked(c)
		r.state.notifyChange(Change{
			Device:    c.Device,
			EventType: EventCreated,
			NewStatus: c.Status,
			Source:    SourceSync,
			Camera:    &c,
		})
	}
	r.state.lastSyncAt = time.Now()
	r.state.mu.Unlock()

	r.logger.Info("initial sync complete",
		"cameras", len(list.Cameras),
		"duration", time.Since(start),
	)
	return nil
}

// reconciliationLoop periodically re-reads the camera list to catch
// notifications missed while the socket was down.
func (r *registryImpl) reconciliationLoop(ctx context.Context) {
	ticker := time.NewTicker(r.cfg.ReconcileInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.reconcile(ctx)
		}
	}
}

// reconcile diffs the server's list against the table.
func (r *registryImpl) reconcile(ctx context.Context) {
	start := time.Now()

	list, err := r.lister.GetCameraList(ctx)
	if err != nil {
		r.logger.Warn("reconciliation failed", "error", err)
		return
	}

	var created, changed, removed int
	seen := make(map[string]struct{}, len(list.Cameras))

	r.state.mu.Lock()
	for _, c := range list.Cameras {
		seen[c.Device] = struct{}{}
		existing, ok := r.state.cameras[c.Device]

		switch {
		case !ok:
			r.state.upsertCameraLocked(c)
			r.state.notifyChange(Change{
				Device:    c.Device,
				EventType: EventCreated,
				NewStatus: c.Status,
				Source:    SourceReconcile,
				Camera:    &c,
			})
			created++

		case existing.Status != c.Status:
			r.state.upsertCameraLocked(c)
			r.state.notifyChange(Change{
				Device:    c.Device,
				EventType: EventStatusChange,
				OldStatus: existing.Status,
				NewStatus: c.Status,
				Source:    SourceReconcile,
				Camera:    &c,
			})
			changed++

		case !sameCamera(existing, c):
			// Metadata only; no change event.
			r.state.upsertCameraLocked(c)
		}
	}

	for device, c := range r.state.cameras {
		if _, ok := seen[device]; ok {
			continue
		}
		r.state.removeCameraLocked(device)
		r.state.notifyChange(Change{
			Device:    device,
			EventType: EventRemoved,
			OldStatus: c.Status,
			Source:    SourceReconcile,
			Camera:    &c,
		})
		removed++
	}
	r.state.lastSyncAt = time.Now()
	r.state.mu.Unlock()

	if created > 0 || changed > 0 || removed > 0 {
		r.logger.Info("reconciliation found changes",
			"created", created,
			"changed", changed,
			"removed", removed,
			"duration", time.Since(start),
		)
	} else {
		r.logger.Debug("reconciliation complete",
			"cameras", len(list.Cameras),
			"duration", time.Since(start),
		)
	}
}

// handleStatusUpdate applies a camera_status_update notification. It runs
// on the connection's read goroutine.
func (r *registryImpl) handleStatusUpdate(n router.Notification) {
	u, err := router.Decode[model.CameraStatusUpdate](n)
	if err != nil {
		r.logger.Debug("ignoring camera status update", "error", err)
		return
	}
	if u.Device == "" {
		r.logger.Debug("ignoring camera status update without device")
		return
	}

	c := u.Camera()

	r.state.mu.Lock()
	existing, ok := r.state.cameras[c.Device]
	if ok {
		// Updates may carry only device and status.
		if c.Name == "" {
			c.Name = existing.Name
		}
		if c.Resolution == "" {
			c.Resolution = existing.Resolution
		}
		if c.FPS == 0 {
			c.FPS = existing.FPS
		}
		if c.Streams == nil {
			c.Streams = existing.Streams
		}
	}
	r.state.upsertCameraLocked(c)

	switch {
	case !ok:
		r.state.notifyChange(Change{
			Device:    c.Device,
			EventType: EventCreated,
			NewStatus: c.Status,
			Source:    SourceNotification,
			Camera:    &c,
		})
	case existing.Status != c.Status:
		r.state.notifyChange(Change{
			Device:    c.Device,
			EventType: EventStatusChange,
			OldStatus: existing.Status,
			NewStatus: c.Status,
			Source:    SourceNotification,
			Camera:    &c,
		})
	}
	r.state.mu.Unlock()
}
