// Package camtest provides an in-process fake of the camera service's
// JSON-RPC WebSocket endpoint for tests.
package camtest

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/CarlosSprekelsen/camera-client/internal/model"
	"github.com/CarlosSprekelsen/camera-client/internal/rpc"
)

// ValidToken is accepted by the default authenticate handler.
const ValidToken = "valid-token"

// ErrNoResponse makes a handler swallow the request without replying.
var ErrNoResponse = errors.New("camtest: no response")

// HandlerFunc serves one method. Returning *rpc.Error produces an error
// response; any other error becomes an internal error.
type HandlerFunc func(params json.RawMessage) (any, error)

// Server is a fake camera service.
type Server struct {
	// URL is the ws:// endpoint to dial.
	URL string

	srv      *httptest.Server
	upgrader websocket.Upgrader

	mu        sync.Mutex
	handlers  map[string]HandlerFunc
	protected map[string]bool
	cameras   []model.Camera
	conns     map[*serverConn]struct{}
	calls     map[string]int
	headers   http.Header

	accepted atomic.Int64
}

type serverConn struct {
	ws      *websocket.Conn
	writeMu sync.Mutex
	authed  atomic.Bool
}

// NewServer starts a fake service with ping, authenticate,
// get_camera_list and get_camera_status handlers. Unknown methods answer
// METHOD_NOT_FOUND.
func NewServer() *Server {
	s := &Server{
		handlers:  make(map[string]HandlerFunc),
		protected: make(map[string]bool),
		conns:     make(map[*serverConn]struct{}),
		calls:     make(map[string]int),
		cameras: []model.Camera{
			{Device: "camera0", Status: model.CameraConnected, Name: "Front", Resolution: "1920x1080", FPS: 30},
			{Device: "camera1", Status: model.CameraDisconnected, Name: "Back"},
		},
	}

	s.handlers["ping"] = func(json.RawMessage) (any, error) { return "pong", nil }
	s.handlers["get_camera_list"] = func(json.RawMessage) (any, error) {
		s.mu.Lock()
		defer s.mu.Unlock()
		return model.NewCameraList(append([]model.Camera(nil), s.cameras...)), nil
	}
	s.handlers["get_camera_status"] = s.cameraStatus

	s.srv = httptest.NewServer(http.HandlerFunc(s.serveWS))
	s.URL = "ws" + strings.TrimPrefix(s.srv.URL, "http")
	return s
}

// Handle installs or replaces the handler for method.
func (s *Server) Handle(method string, h HandlerFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[method] = h
}

// RequireAuth makes methods fail with -32001 until the connection has
// authenticated with ValidToken.
func (s *Server) RequireAuth(methods ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range methods {
		s.protected[m] = true
	}
}

// SetCameras replaces the camera table served by the default handlers.
func (s *Server) SetCameras(cameras []model.Camera) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cameras = append([]model.Camera(nil), cameras...)
}

// Notify pushes a notification to every open connection.
func (s *Server) Notify(method string, params any) error {
	data, err := json.Marshal(map[string]any{
		"jsonrpc": rpc.Version,
		"method":  method,
		"params":  params,
	})
	if err != nil {
		return err
	}
	return s.broadcast(data)
}

// SendRaw writes data verbatim to every open connection.
func (s *Server) SendRaw(data []byte) error {
	return s.broadcast(data)
}

// DropConnections closes every open connection without a close handshake.
func (s *Server) DropConnections() {
	s.mu.Lock()
	conns := make([]*serverConn, 0, len(s.conns))
	for c := range s.conns {
		conns = append(conns, c)
	}
	s.mu.Unlock()

	for _, c := range conns {
		c.ws.UnderlyingConn().Close()
	}
}

// Close drops all connections and stops the server.
func (s *Server) Close() {
	s.DropConnections()
	s.srv.Close()
}

// Calls returns how many requests for method were received.
func (s *Server) Calls(method string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[method]
}

// Accepted returns the number of WebSocket connections accepted so far.
func (s *Server) Accepted() int {
	return int(s.accepted.Load())
}

// Open returns the number of currently open connections.
func (s *Server) Open() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}

// LastHeaders returns the upgrade request headers of the latest connection.
func (s *Server) LastHeaders() http.Header {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.headers.Clone()
}

// WaitOpen polls until n connections are open or the timeout elapses.
func (s *Server) WaitOpen(n int, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if s.Open() == n {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return s.Open() == n
}

func (s *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	c := &serverConn{ws: ws}
	s.mu.Lock()
	s.conns[c] = struct{}{}
	s.headers = r.Header.Clone()
	s.mu.Unlock()
	s.accepted.Add(1)

	defer func() {
		s.mu.Lock()
		delete(s.conns, c)
		s.mu.Unlock()
		ws.Close()
	}()

	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			return
		}
		go s.serveRequest(c, data)
	}
}

type request struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
	ID      json.RawMessage `json:"id"`
}

func (s *Server) serveRequest(c *serverConn, data []byte) {
	var req request
	if err := json.Unmarshal(data, &req); err != nil {
		c.reply(nil, nil, &rpc.Error{Code: rpc.CodeParseError, Message: "Parse error"})
		return
	}

	s.mu.Lock()
	s.calls[req.Method]++
	h, ok := s.handlers[req.Method]
	protected := s.protected[req.Method]
	s.mu.Unlock()

	switch {
	case req.Method == "authenticate":
		result, rpcErr := s.authenticate(c, req.Params)
		c.reply(req.ID, result, rpcErr)
		return
	case protected && !c.authed.Load():
		c.reply(req.ID, nil, &rpc.Error{Code: rpc.CodeAuthFailed, Message: "Authentication required"})
		return
	case !ok:
		c.reply(req.ID, nil, &rpc.Error{Code: rpc.CodeMethodNotFound, Message: "Method not found"})
		return
	}

	result, err := h(req.Params)
	if errors.Is(err, ErrNoResponse) {
		return
	}

	var rpcErr *rpc.Error
	if err != nil && !errors.As(err, &rpcErr) {
		rpcErr = &rpc.Error{Code: rpc.CodeInternalError, Message: err.Error()}
	}
	c.reply(req.ID, result, rpcErr)
}

func (s *Server) authenticate(c *serverConn, params json.RawMessage) (any, *rpc.Error) {
	s.mu.Lock()
	h, custom := s.handlers["authenticate"]
	s.mu.Unlock()
	if custom {
		result, err := h(params)
		var rpcErr *rpc.Error
		if errors.As(err, &rpcErr) {
			return nil, rpcErr
		}
		c.authed.Store(err == nil)
		return result, nil
	}

	var p struct {
		AuthToken string `json:"auth_token"`
	}
	if err := json.Unmarshal(params, &p); err != nil || p.AuthToken != ValidToken {
		return nil, &rpc.Error{Code: rpc.CodeAuthFailed, Message: "Authentication failed"}
	}
	c.authed.Store(true)
	return model.AuthResult{Authenticated: true, Role: "admin", SessionID: "session-1"}, nil
}

func (s *Server) cameraStatus(params json.RawMessage) (any, error) {
	var p struct {
		Device string `json:"device"`
	}
	if err := json.Unmarshal(params, &p); err != nil || p.Device == "" {
		return nil, &rpc.Error{Code: rpc.CodeInvalidParams, Message: "Invalid params"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, cam := range s.cameras {
		if cam.Device == p.Device {
			return model.CameraStatus{Camera: cam}, nil
		}
	}
	return nil, &rpc.Error{Code: rpc.CodeCameraNotFound, Message: "Camera not found"}
}

func (s *Server) broadcast(data []byte) error {
	s.mu.Lock()
	conns := make([]*serverConn, 0, len(s.conns))
	for c := range s.conns {
		conns = append(conns, c)
	}
	s.mu.Unlock()

	var errs []error
	for _, c := range conns {
		errs = append(errs, c.write(data))
	}
	return errors.Join(errs...)
}

func (c *serverConn) reply(id json.RawMessage, result any, rpcErr *rpc.Error) {
	if id == nil {
		id = json.RawMessage("null")
	}
	resp := map[string]any{"jsonrpc": rpc.Version, "id": id}
	if rpcErr != nil {
		resp["error"] = rpcErr
	} else {
		resp["result"] = result
	}

	data, err := json.Marshal(resp)
	if err != nil {
		return
	}
	c.write(data)
}

func (c *serverConn) write(data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.ws.SetWriteDeadline(time.Now().Add(time.Second))
	return c.ws.WriteMessage(websocket.TextMessage, data)
}
