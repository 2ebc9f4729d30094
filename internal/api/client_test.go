package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
)

// TestNewClient tests client construction with various options.
func TestNewClient(t *testing.T) {
	t.Run("default values", func(t *testing.T) {
		c := NewClient("")

		if c.baseURL != DefaultBaseURL {
			t.Errorf("baseURL = %q, want %q", c.baseURL, DefaultBaseURL)
		}
		if c.httpClient.Timeout != 5*time.Second {
			t.Errorf("Timeout = %v, want %v", c.httpClient.Timeout, 5*time.Second)
		}
		if c.maxRetries != 2 {
			t.Errorf("maxRetries = %d, want %d", c.maxRetries, 2)
		}
		if c.logger == nil {
			t.Error("logger should not be nil")
		}
	})

	t.Run("trailing slash trimmed", func(t *testing.T) {
		c := NewClient("http://camera-host:8003/")
		if c.BaseURL() != "http://camera-host:8003" {
			t.Errorf("BaseURL() = %q", c.BaseURL())
		}
	})

	t.Run("with multiple options", func(t *testing.T) {
		logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
		c := NewClient("http://camera-host:8003",
			WithTimeout(15*time.Second),
			WithRetries(4, 250*time.Millisecond),
			WithLogger(logger),
			WithClientID("client-1"),
			WithUserAgent("camera-client/test"),
		)
		if c.httpClient.Timeout != 15*time.Second {
			t.Errorf("Timeout = %v, want %v", c.httpClient.Timeout, 15*time.Second)
		}
		if c.maxRetries != 4 || c.retryBackoff != 250*time.Millisecond {
			t.Errorf("retries = %d/%v, want 4/250ms", c.maxRetries, c.retryBackoff)
		}
		if c.logger != logger {
			t.Error("logger not set correctly")
		}
		if c.clientID != "client-1" || c.userAgent != "camera-client/test" {
			t.Errorf("clientID/userAgent = %q/%q", c.clientID, c.userAgent)
		}
	})

	t.Run("nil logger keeps default", func(t *testing.T) {
		c := NewClient("", WithLogger(nil))
		if c.logger == nil {
			t.Error("logger should not be nil")
		}
	})

	t.Run("with custom HTTP client", func(t *testing.T) {
		customClient := &http.Client{Timeout: 10 * time.Second}
		c := NewClient("", WithHTTPClient(customClient))
		if c.httpClient != customClient {
			t.Error("custom HTTP client not set")
		}
	})
}

// TestAPIError tests the APIError type.
func TestAPIError(t *testing.T) {
	err := &APIError{StatusCode: 404, Message: "Not Found"}
	if err.Error() != "health api error 404: Not Found" {
		t.Errorf("Error() = %q", err.Error())
	}

	tests := []struct {
		code     int
		expected bool
	}{
		{500, true},
		{502, true},
		{503, true},
		{429, true},
		{400, false},
		{401, false},
		{404, false},
		{499, false},
	}

	for _, tt := range tests {
		err := &APIError{StatusCode: tt.code}
		if got := err.IsRetryable(); got != tt.expected {
			t.Errorf("IsRetryable() for status %d = %v, want %v", tt.code, got, tt.expected)
		}
	}
}

// TestDoRequest tests the HTTP request functionality.
func TestDoRequest(t *testing.T) {
	t.Run("headers", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Accept") != "application/json" {
				t.Errorf("Accept header = %q", r.Header.Get("Accept"))
			}
			if _, err := uuid.Parse(r.Header.Get("X-Request-ID")); err != nil {
				t.Errorf("X-Request-ID = %q is not a uuid", r.Header.Get("X-Request-ID"))
			}
			if r.Header.Get("X-Client-ID") != "client-1" {
				t.Errorf("X-Client-ID = %q", r.Header.Get("X-Client-ID"))
			}
			w.Write([]byte(`{"status":"ok"}`))
		}))
		defer server.Close()

		c := NewClient(server.URL, WithClientID("client-1"))
		body, err := c.doRequest(context.Background(), http.MethodGet, "/health/system")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if string(body) != `{"status":"ok"}` {
			t.Errorf("body = %q", body)
		}
	})

	t.Run("request ids differ", func(t *testing.T) {
		ids := make(chan string, 2)
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ids <- r.Header.Get("X-Request-ID")
			w.Write([]byte(`{}`))
		}))
		defer server.Close()

		c := NewClient(server.URL)
		c.doRequest(context.Background(), http.MethodGet, "/a")
		c.doRequest(context.Background(), http.MethodGet, "/b")
		first, second := <-ids, <-ids
		if first == "" || first == second {
			t.Errorf("request ids = %q, %q, want two distinct ids", first, second)
		}
	})

	t.Run("4xx error returns APIError", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"error": "camera not found"}`))
		}))
		defer server.Close()

		c := NewClient(server.URL)
		_, err := c.doRequest(context.Background(), http.MethodGet, "/api/cameras/x")

		var apiErr *APIError
		if !errors.As(err, &apiErr) {
			t.Fatalf("expected *APIError, got %T", err)
		}
		if apiErr.StatusCode != 404 {
			t.Errorf("StatusCode = %d, want %d", apiErr.StatusCode, 404)
		}
		if !strings.Contains(string(apiErr.Body), "camera not found") {
			t.Errorf("Body = %q", apiErr.Body)
		}
		if apiErr.RequestID == "" {
			t.Error("RequestID is empty")
		}
	})

	t.Run("context cancellation", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(100 * time.Millisecond)
		}))
		defer server.Close()

		c := NewClient(server.URL)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := c.doRequest(ctx, http.MethodGet, "/health/system")
		if !errors.Is(err, context.Canceled) {
			t.Errorf("error = %v, want context.Canceled", err)
		}
	})
}

// TestDoWithRetry tests the retry logic.
func TestDoWithRetry(t *testing.T) {
	tests := []struct {
		name         string
		statuses     []int // per attempt; last one repeats
		retries      int
		wantErr      bool
		wantAttempts int32
	}{
		{"succeeds on first try", []int{200}, 3, false, 1},
		{"retries on 5xx and succeeds", []int{500, 502, 200}, 3, false, 3},
		{"retries on 429 and succeeds", []int{429, 200}, 3, false, 2},
		{"does not retry on 4xx", []int{400}, 3, true, 1},
		{"max retries exceeded", []int{500}, 2, true, 3},
		{"no retries configured", []int{503}, 0, true, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var attempts atomic.Int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				n := int(attempts.Add(1)) - 1
				status := tt.statuses[min(n, len(tt.statuses)-1)]
				w.WriteHeader(status)
				w.Write([]byte(`{"ok": true}`))
			}))
			defer server.Close()

			c := NewClient(server.URL, WithRetries(tt.retries, 5*time.Millisecond))
			_, err := c.doWithRetry(context.Background(), http.MethodGet, "/health/system")
			if (err != nil) != tt.wantErr {
				t.Errorf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if got := attempts.Load(); got != tt.wantAttempts {
				t.Errorf("attempts = %d, want %d", got, tt.wantAttempts)
			}
		})
	}

	t.Run("context cancellation during retry", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		c := NewClient(server.URL, WithRetries(5, 50*time.Millisecond))
		ctx, cancel := context.WithTimeout(context.Background(), 80*time.Millisecond)
		defer cancel()

		_, err := c.doWithRetry(ctx, http.MethodGet, "/health/system")
		if err == nil {
			t.Fatal("expected error, got nil")
		}
		if !strings.Contains(err.Error(), "context") {
			t.Errorf("error should be context-related, got %v", err)
		}
	})
}

func TestGetSystemHealth(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health/system" {
			t.Errorf("path = %q, want /health/system", r.URL.Path)
		}
		w.Write([]byte(`{"status":"healthy","version":"1.2.0","uptime":120.5,"components":{"mediamtx":"healthy"}}`))
	}))
	defer server.Close()

	h, err := NewClient(server.URL).GetSystemHealth(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h.Status != "healthy" || h.Version != "1.2.0" {
		t.Errorf("health = %+v", h)
	}
	if h.Components["mediamtx"] != "healthy" {
		t.Errorf("Components = %v", h.Components)
	}
}

func TestReady(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		want    bool
		wantErr bool
	}{
		{"ready", 200, `{"ready":true}`, true, false},
		{"not ready 503", 503, `{"ready":false}`, false, false},
		{"bad body", 200, `not json`, false, true},
		{"server error", 500, `oops`, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var attempts atomic.Int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				attempts.Add(1)
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			got, err := NewClient(server.URL, WithRetries(3, time.Millisecond)).Ready(context.Background())
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("Ready() = %v, want %v", got, tt.want)
			}
			if attempts.Load() != 1 {
				t.Errorf("attempts = %d, want 1 (no retries)", attempts.Load())
			}
		})
	}
}

func TestGetCameraList(t *testing.T) {
	t.Run("full body", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/api/cameras" {
				t.Errorf("path = %q, want /api/cameras", r.URL.Path)
			}
			json.NewEncoder(w).Encode(map[string]any{
				"cameras": []map[string]any{
					{"device": "/dev/video0", "status": "CONNECTED"},
					{"device": "/dev/video1", "status": "DISCONNECTED"},
				},
				"total":     2,
				"connected": 1,
			})
		}))
		defer server.Close()

		list, err := NewClient(server.URL).GetCameraList(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if list.Total != 2 || list.Connected != 1 || len(list.Cameras) != 2 {
			t.Errorf("list = %+v", list)
		}
	})

	t.Run("counts computed when omitted", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"cameras":[{"device":"/dev/video0","status":"CONNECTED"}]}`))
		}))
		defer server.Close()

		list, err := NewClient(server.URL).GetCameraList(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if list.Total != 1 || list.Connected != 1 {
			t.Errorf("Total/Connected = %d/%d, want 1/1", list.Total, list.Connected)
		}
	})

	t.Run("empty body yields empty list", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{}`))
		}))
		defer server.Close()

		list, err := NewClient(server.URL).GetCameraList(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if list.Cameras == nil || list.Total != 0 {
			t.Errorf("list = %+v, want empty non-nil cameras", list)
		}
	})
}

func TestGetCameraStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.EscapedPath() != "/api/cameras/%2Fdev%2Fvideo0" {
			t.Errorf("path = %q, want escaped device", r.URL.EscapedPath())
		}
		w.Write([]byte(`{"status":"CONNECTED","resolution":"1280x720","fps":30}`))
	}))
	defer server.Close()

	st, err := NewClient(server.URL).GetCameraStatus(context.Background(), "/dev/video0")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if st.Device != "/dev/video0" {
		t.Errorf("Device = %q, want filled from argument", st.Device)
	}
	if st.FPS != 30 {
		t.Errorf("FPS = %d, want 30", st.FPS)
	}
}

func TestGetCameraStatus_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	_, err := NewClient(server.URL).GetCameraStatus(context.Background(), "/dev/video9")
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != 404 {
		t.Errorf("error = %v, want 404 APIError", err)
	}
}
