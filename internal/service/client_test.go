package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/CarlosSprekelsen/camera-client/internal/auth"
	"github.com/CarlosSprekelsen/camera-client/internal/camtest"
	"github.com/CarlosSprekelsen/camera-client/internal/client"
	"github.com/CarlosSprekelsen/camera-client/internal/config"
)

// TestServices_OverClient runs the façades against the fake service
// through a real client.
func TestServices_OverClient(t *testing.T) {
	t.Setenv(auth.TokenEnvVar, "")

	server := camtest.NewServer()
	defer server.Close()
	server.RequireAuth("get_camera_list", "get_camera_status")

	disabled := false
	cfg := *config.Default()
	cfg.Server.WSURL = server.URL
	cfg.Server.RequestTimeout = 2 * time.Second
	cfg.Fallback.Enabled = &disabled

	c, err := client.New(cfg, nil)
	if err != nil {
		t.Fatalf("client.New failed: %v", err)
	}
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.Connect(ctx); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}

	svc := New(c)

	pong, err := svc.Server.Ping(ctx)
	if err != nil || pong != "pong" {
		t.Fatalf("Ping = %q, %v", pong, err)
	}

	if _, err := svc.Device.GetCameraList(ctx); !errors.Is(err, client.ErrNotAuthenticated) {
		t.Fatalf("GetCameraList without token: err = %v, want ErrNotAuthenticated", err)
	}

	if _, err := svc.Auth.Authenticate(ctx, "wrong"); !errors.Is(err, ErrAuthenticationFailed) {
		t.Fatalf("Authenticate(wrong): err = %v, want ErrAuthenticationFailed", err)
	}
	if _, err := svc.Auth.Authenticate(ctx, camtest.ValidToken); err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}

	list, err := svc.Device.GetCameraList(ctx)
	if err != nil {
		t.Fatalf("GetCameraList failed: %v", err)
	}
	if list.Total != 2 || list.Connected != 1 {
		t.Errorf("list = %+v", list)
	}

	statuses, err := svc.Device.GetAllCameraStatus(ctx)
	if err != nil {
		t.Fatalf("GetAllCameraStatus failed: %v", err)
	}
	if len(statuses) != 2 {
		t.Errorf("len(statuses) = %d, want 2", len(statuses))
	}

	if _, err := svc.Device.GetCameraStatus(ctx, "camera9"); !errors.Is(err, ErrCameraNotFound) {
		t.Errorf("err = %v, want ErrCameraNotFound", err)
	}

	if _, err := svc.File.ListRecordings(ctx, 10, 0); !errors.Is(err, ErrMethodNotFound) {
		t.Errorf("err = %v, want ErrMethodNotFound from the fake", err)
	}
}
