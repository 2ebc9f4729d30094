package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"
)

type fakeTransport struct {
	mu     sync.Mutex
	sent   []Request
	err    error
	onSend func(req Request)
}

func (f *fakeTransport) Send(data []byte) error {
	if f.err != nil {
		return f.err
	}

	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return err
	}

	f.mu.Lock()
	f.sent = append(f.sent, req)
	onSend := f.onSend
	f.mu.Unlock()

	if onSend != nil {
		go onSend(req)
	}
	return nil
}

func (f *fakeTransport) requests() []Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Request(nil), f.sent...)
}

func response(id int64, result string) *Message {
	return &Message{
		JSONRPC: Version,
		ID:      json.RawMessage(fmt.Sprintf("%d", id)),
		Result:  json.RawMessage(result),
	}
}

func TestCorrelator_Call(t *testing.T) {
	tr := &fakeTransport{}
	c := NewCorrelator(tr, time.Second, nil)
	tr.onSend = func(req Request) {
		c.Handle(response(req.ID, `"pong"`))
	}

	raw, err := c.Call(context.Background(), "ping", nil)
	if err != nil {
		t.Fatalf("Call failed: %v", err)
	}
	if string(raw) != `"pong"` {
		t.Errorf("result = %s, want %q", raw, `"pong"`)
	}

	reqs := tr.requests()
	if len(reqs) != 1 {
		t.Fatalf("sent %d requests, want 1", len(reqs))
	}
	if reqs[0].JSONRPC != "2.0" || reqs[0].Method != "ping" {
		t.Errorf("request = %+v", reqs[0])
	}
	if c.Pending() != 0 {
		t.Errorf("Pending() = %d, want 0", c.Pending())
	}
}

func TestCorrelator_ErrorResponse(t *testing.T) {
	tr := &fakeTransport{}
	c := NewCorrelator(tr, time.Second, nil)
	tr.onSend = func(req Request) {
		c.Handle(&Message{
			JSONRPC: Version,
			ID:      json.RawMessage(fmt.Sprintf("%d", req.ID)),
			Error:   &Error{Code: CodeMethodNotFound, Message: "Method not found"},
		})
	}

	_, err := c.Call(context.Background(), "no_such_method", nil)
	if err == nil {
		t.Fatal("expected error")
	}

	var rpcErr *Error
	if !errors.As(err, &rpcErr) {
		t.Fatalf("error type = %T, want *Error", err)
	}
	if rpcErr.Code != CodeMethodNotFound {
		t.Errorf("Code = %d, want %d", rpcErr.Code, CodeMethodNotFound)
	}
	if !IsCode(err, CodeMethodNotFound) {
		t.Error("IsCode(err, -32601) = false, want true")
	}
}

func TestCorrelator_Timeout(t *testing.T) {
	tr := &fakeTransport{}
	c := NewCorrelator(tr, 50*time.Millisecond, nil)

	start := time.Now()
	_, err := c.Call(context.Background(), "get_camera_list", nil)
	if !errors.Is(err, ErrRequestTimeout) {
		t.Fatalf("error = %v, want ErrRequestTimeout", err)
	}
	if elapsed := time.Since(start); elapsed < 50*time.Millisecond {
		t.Errorf("returned after %v, before the timeout", elapsed)
	}
	if c.Pending() != 0 {
		t.Errorf("Pending() = %d, want 0 after timeout", c.Pending())
	}

	// A late response is consumed and dropped.
	id := tr.requests()[0].ID
	if !c.Handle(response(id, `{"cameras":[]}`)) {
		t.Error("Handle(late response) = false, want true")
	}
	if c.Pending() != 0 {
		t.Errorf("Pending() = %d, want 0 after late response", c.Pending())
	}
}

func TestCorrelator_ContextCancel(t *testing.T) {
	tr := &fakeTransport{}
	c := NewCorrelator(tr, time.Minute, nil)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := c.Call(ctx, "ping", nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
	if c.Pending() != 0 {
		t.Errorf("Pending() = %d, want 0", c.Pending())
	}
}

func TestCorrelator_SendError(t *testing.T) {
	sendErr := errors.New("socket closed")
	c := NewCorrelator(&fakeTransport{err: sendErr}, time.Second, nil)

	_, err := c.Call(context.Background(), "ping", nil)
	if !errors.Is(err, sendErr) {
		t.Fatalf("error = %v, want %v", err, sendErr)
	}
	if c.Pending() != 0 {
		t.Errorf("Pending() = %d, want 0", c.Pending())
	}
}

func TestCorrelator_RejectAll(t *testing.T) {
	tr := &fakeTransport{}
	c := NewCorrelator(tr, time.Minute, nil)
	closed := errors.New("connection closed")

	const n = 3
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		go func() {
			_, err := c.Call(context.Background(), "get_status", nil)
			errs <- err
		}()
	}

	deadline := time.Now().Add(time.Second)
	for c.Pending() < n && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if got := c.RejectAll(closed); got != n {
		t.Errorf("RejectAll() = %d, want %d", got, n)
	}

	for i := 0; i < n; i++ {
		select {
		case err := <-errs:
			if !errors.Is(err, closed) {
				t.Errorf("error = %v, want %v", err, closed)
			}
		case <-time.After(time.Second):
			t.Fatal("timeout waiting for rejected call")
		}
	}
}

func TestCorrelator_ConcurrentCallsNoCrossDelivery(t *testing.T) {
	tr := &fakeTransport{}
	c := NewCorrelator(tr, time.Second, nil)
	tr.onSend = func(req Request) {
		// Echo the caller's tag back, answering out of order.
		tag := req.Params.(map[string]any)["tag"]
		time.Sleep(time.Duration(req.ID%3) * 5 * time.Millisecond)
		c.Handle(response(req.ID, fmt.Sprintf(`{"tag":%v}`, tag)))
	}

	const n = 20
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(tag int) {
			defer wg.Done()
			raw, err := c.Call(context.Background(), "get_camera_list", map[string]any{"tag": tag})
			if err != nil {
				errs <- err
				return
			}
			var got struct {
				Tag int `json:"tag"`
			}
			if err := json.Unmarshal(raw, &got); err != nil {
				errs <- err
				return
			}
			if got.Tag != tag {
				errs <- fmt.Errorf("caller %d received result for %d", tag, got.Tag)
			}
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Error(err)
	}

	seen := make(map[int64]bool)
	for _, req := range tr.requests() {
		if seen[req.ID] {
			t.Errorf("id %d reused", req.ID)
		}
		seen[req.ID] = true
	}
	if len(seen) != n {
		t.Errorf("unique ids = %d, want %d", len(seen), n)
	}
}

func TestCorrelator_Handle(t *testing.T) {
	c := NewCorrelator(&fakeTransport{}, time.Second, nil)

	tests := []struct {
		name string
		msg  *Message
		want bool
	}{
		{
			name: "notification",
			msg:  &Message{Method: "camera_status_update", Params: json.RawMessage(`{}`)},
			want: false,
		},
		{
			name: "unknown id",
			msg:  response(999, `true`),
			want: true,
		},
		{
			name: "null id error",
			msg:  &Message{ID: json.RawMessage(`null`), Error: &Error{Code: CodeParseError, Message: "Parse error"}},
			want: true,
		},
		{
			name: "empty frame",
			msg:  &Message{},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.Handle(tt.msg); got != tt.want {
				t.Errorf("Handle() = %v, want %v", got, tt.want)
			}
		})
	}
}
