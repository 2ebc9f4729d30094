package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/CarlosSprekelsen/camera-client/internal/model"
)

// GetSystemHealth fetches GET /health/system.
func (c *Client) GetSystemHealth(ctx context.Context) (model.HealthStatus, error) {
	var h model.HealthStatus
	if err := c.get(ctx, "/health/system", &h); err != nil {
		return model.HealthStatus{}, fmt.Errorf("get system health: %w", err)
	}
	return h, nil
}

// Ready probes GET /health/ready once, without retries. A 503 carrying
// {"ready": false} is a normal "not ready" answer, not an error.
func (c *Client) Ready(ctx context.Context) (bool, error) {
	body, err := c.doRequest(ctx, http.MethodGet, "/health/ready")

	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusServiceUnavailable {
		body, err = apiErr.Body, nil
	}
	if err != nil {
		return false, fmt.Errorf("probe readiness: %w", err)
	}

	var r model.ReadyStatus
	if err := json.Unmarshal(body, &r); err != nil {
		return false, fmt.Errorf("probe readiness: unmarshal response: %w", err)
	}
	return r.Ready, nil
}

// GetCameraList fetches GET /api/cameras. Total and Connected are computed
// locally when the server omits them.
func (c *Client) GetCameraList(ctx context.Context) (model.CameraList, error) {
	var list model.CameraList
	if err := c.get(ctx, "/api/cameras", &list); err != nil {
		return model.CameraList{}, fmt.Errorf("get camera list: %w", err)
	}
	if list.Cameras == nil || (list.Total == 0 && len(list.Cameras) > 0) {
		list = model.NewCameraList(list.Cameras)
	}
	return list, nil
}

// GetCameraStatus fetches GET /api/cameras/{device}.
func (c *Client) GetCameraStatus(ctx context.Context, device string) (model.CameraStatus, error) {
	var st model.CameraStatus
	if err := c.get(ctx, "/api/cameras/"+url.PathEscape(device), &st); err != nil {
		return model.CameraStatus{}, fmt.Errorf("get camera status %s: %w", device, err)
	}
	if st.Device == "" {
		st.Device = device
	}
	return st, nil
}
