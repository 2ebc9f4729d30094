package connection

import (
	"context"
	"errors"
	"net"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

type transition struct {
	from, to State
}

type recordingHandler struct {
	mu          sync.Mutex
	frames      []string
	transitions []transition
}

func (h *recordingHandler) HandleFrame(data []byte, _ time.Time) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.frames = append(h.frames, string(data))
}

func (h *recordingHandler) HandleStateChange(from, to State) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.transitions = append(h.transitions, transition{from, to})
}

func (h *recordingHandler) states() []State {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]State, 0, len(h.transitions))
	for _, tr := range h.transitions {
		out = append(out, tr.to)
	}
	return out
}

func (h *recordingHandler) frameCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.frames)
}

func testConfig(url string) Config {
	return Config{
		Client:               testClientConfig(url),
		ConnectTimeout:       time.Second,
		AutoReconnect:        true,
		ReconnectBaseDelay:   10 * time.Millisecond,
		ReconnectMaxDelay:    40 * time.Millisecond,
		MaxReconnectAttempts: 3,
	}
}

func waitForState(t *testing.T, c *Connection, want State) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if c.State() == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("state = %v, want %v", c.State(), want)
}

// droppingServer closes the first connection after a short delay and keeps
// later ones open.
func droppingServer(t *testing.T) (*httptest.Server, *atomic.Int32) {
	var conns atomic.Int32
	server := mockWSServer(t, func(conn *websocket.Conn) {
		if conns.Add(1) == 1 {
			time.Sleep(30 * time.Millisecond)
			return
		}
		readUntilClosed(conn)
	})
	return server, &conns
}

func TestConnection_Connect(t *testing.T) {
	server := mockWSServer(t, readUntilClosed)
	defer server.Close()

	h := &recordingHandler{}
	c := NewConnection(testConfig(wsURL(server)), h, nil)
	defer c.Disconnect()

	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	if !c.IsConnected() {
		t.Error("IsConnected() = false after Connect")
	}

	// Second Connect is a no-op.
	if err := c.Connect(context.Background()); err != nil {
		t.Errorf("second Connect failed: %v", err)
	}

	got := h.states()
	want := []State{Connecting, Connected}
	if len(got) != len(want) {
		t.Fatalf("transitions = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("transition[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestConnection_ConnectRefused(t *testing.T) {
	server := mockWSServer(t, readUntilClosed)
	url := wsURL(server)
	server.Close()

	c := NewConnection(testConfig(url), &recordingHandler{}, nil)

	err := c.Connect(context.Background())
	var connErr *ConnectionError
	if !errors.As(err, &connErr) {
		t.Fatalf("error = %v, want *ConnectionError", err)
	}
	if connErr.URL != url {
		t.Errorf("URL = %q, want %q", connErr.URL, url)
	}
	if c.State() != Disconnected {
		t.Errorf("state = %v, want disconnected", c.State())
	}
}

func TestConnection_ConnectTimeout(t *testing.T) {
	// Accepts TCP but never completes the WebSocket handshake.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			defer conn.Close()
		}
	}()

	cfg := testConfig("ws://" + ln.Addr().String() + "/ws")
	cfg.ConnectTimeout = 50 * time.Millisecond
	cfg.Client.HandshakeTimeout = time.Minute
	c := NewConnection(cfg, &recordingHandler{}, nil)

	start := time.Now()
	err = c.Connect(context.Background())
	if !errors.Is(err, ErrConnectTimeout) {
		t.Fatalf("error = %v, want ErrConnectTimeout", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("Connect took %v, want about 50ms", elapsed)
	}
}

func TestConnection_Send(t *testing.T) {
	received := make(chan string, 1)
	server := mockWSServer(t, func(conn *websocket.Conn) {
		_, msg, err := conn.ReadMessage()
		if err == nil {
			received <- string(msg)
		}
		readUntilClosed(conn)
	})
	defer server.Close()

	c := NewConnection(testConfig(wsURL(server)), &recordingHandler{}, nil)

	if err := c.Send([]byte("early")); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Send before Connect = %v, want ErrNotConnected", err)
	}

	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer c.Disconnect()

	if err := c.Send([]byte("hello")); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	select {
	case got := <-received:
		if got != "hello" {
			t.Errorf("server received %q, want %q", got, "hello")
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for frame")
	}
}

func TestConnection_FramesDelivered(t *testing.T) {
	server := mockWSServer(t, func(conn *websocket.Conn) {
		for _, msg := range []string{`{"a":1}`, `{"b":2}`} {
			conn.WriteMessage(websocket.TextMessage, []byte(msg))
		}
		readUntilClosed(conn)
	})
	defer server.Close()

	h := &recordingHandler{}
	c := NewConnection(testConfig(wsURL(server)), h, nil)
	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer c.Disconnect()

	deadline := time.Now().Add(time.Second)
	for h.frameCount() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.frames) != 2 || h.frames[0] != `{"a":1}` || h.frames[1] != `{"b":2}` {
		t.Errorf("frames = %v", h.frames)
	}
}

func TestConnection_ReconnectsAfterDrop(t *testing.T) {
	server, conns := droppingServer(t)
	defer server.Close()

	h := &recordingHandler{}
	c := NewConnection(testConfig(wsURL(server)), h, nil)
	defer c.Disconnect()

	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}

	waitForState(t, c, Reconnecting)
	waitForState(t, c, Connected)

	if conns.Load() != 2 {
		t.Errorf("server saw %d connections, want 2", conns.Load())
	}
	if c.Attempts() != 0 {
		t.Errorf("Attempts() = %d, want 0 after successful reconnect", c.Attempts())
	}

	got := h.states()
	want := []State{Connecting, Connected, Reconnecting, Connected}
	if len(got) != len(want) {
		t.Fatalf("transitions = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("transition[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestConnection_FailedPermanently(t *testing.T) {
	server := mockWSServer(t, func(conn *websocket.Conn) {
		time.Sleep(30 * time.Millisecond)
	})

	h := &recordingHandler{}
	c := NewConnection(testConfig(wsURL(server)), h, nil)
	defer c.Disconnect()

	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	// Every reconnect dial now fails.
	server.Close()
	waitForState(t, c, Reconnecting)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := c.WaitConnected(ctx); !errors.Is(err, ErrFailedPermanently) {
		t.Fatalf("WaitConnected = %v, want ErrFailedPermanently", err)
	}
	if c.Attempts() != 3 {
		t.Errorf("Attempts() = %d, want 3", c.Attempts())
	}

	if err := c.Connect(context.Background()); !errors.Is(err, ErrFailedPermanently) {
		t.Errorf("Connect = %v, want ErrFailedPermanently until Reset", err)
	}

	c.Reset()
	if c.State() != Disconnected {
		t.Errorf("state after Reset = %v, want disconnected", c.State())
	}
	if c.Attempts() != 0 {
		t.Errorf("Attempts() after Reset = %d, want 0", c.Attempts())
	}

	states := h.states()
	if states[len(states)-2] != FailedPermanently || states[len(states)-1] != Disconnected {
		t.Errorf("transitions = %v, want ... failed_permanently, disconnected", states)
	}
}

func TestConnection_DisconnectDoesNotReconnect(t *testing.T) {
	var conns atomic.Int32
	server := mockWSServer(t, func(conn *websocket.Conn) {
		conns.Add(1)
		readUntilClosed(conn)
	})
	defer server.Close()

	c := NewConnection(testConfig(wsURL(server)), &recordingHandler{}, nil)
	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}

	c.Disconnect()
	time.Sleep(100 * time.Millisecond)

	if c.State() != Disconnected {
		t.Errorf("state = %v, want disconnected", c.State())
	}
	if conns.Load() != 1 {
		t.Errorf("server saw %d connections, want 1", conns.Load())
	}
	if err := c.WaitConnected(context.Background()); !errors.Is(err, ErrNotConnected) {
		t.Errorf("WaitConnected = %v, want ErrNotConnected", err)
	}
}

func TestConnection_AutoReconnectDisabled(t *testing.T) {
	server, conns := droppingServer(t)
	defer server.Close()

	cfg := testConfig(wsURL(server))
	cfg.AutoReconnect = false
	c := NewConnection(cfg, &recordingHandler{}, nil)

	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}

	waitForState(t, c, Disconnected)
	time.Sleep(50 * time.Millisecond)
	if conns.Load() != 1 {
		t.Errorf("server saw %d connections, want 1", conns.Load())
	}
}

func TestConnection_ConnectCancelsPendingTimer(t *testing.T) {
	server, _ := droppingServer(t)
	defer server.Close()

	cfg := testConfig(wsURL(server))
	cfg.ReconnectBaseDelay = time.Minute
	cfg.ReconnectMaxDelay = time.Minute
	c := NewConnection(cfg, &recordingHandler{}, nil)
	defer c.Disconnect()

	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	waitForState(t, c, Reconnecting)

	start := time.Now()
	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("Connect during backoff failed: %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("Connect waited %v for the backoff timer", elapsed)
	}
	if !c.IsConnected() {
		t.Error("IsConnected() = false")
	}
}

func TestConnection_WaitConnectedContext(t *testing.T) {
	server, _ := droppingServer(t)
	defer server.Close()

	cfg := testConfig(wsURL(server))
	cfg.ReconnectBaseDelay = time.Minute
	cfg.ReconnectMaxDelay = time.Minute
	c := NewConnection(cfg, &recordingHandler{}, nil)
	defer c.Disconnect()

	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	waitForState(t, c, Reconnecting)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	if err := c.WaitConnected(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("WaitConnected = %v, want context.DeadlineExceeded", err)
	}
}
