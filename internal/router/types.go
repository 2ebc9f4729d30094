package router

import (
	"encoding/json"
	"fmt"
	"time"
)

// Notification is a server-pushed JSON-RPC frame (method, no id).
type Notification struct {
	Method     string
	Params     json.RawMessage
	ReceivedAt time.Time
}

// Listener receives notifications. It runs on the connection's read
// goroutine and must not block.
type Listener func(Notification)

// DispatcherStats contains runtime statistics.
type DispatcherStats struct {
	Dispatched int64 // Notifications handed to Dispatch
	Delivered  int64 // Listener invocations
	Unobserved int64 // Notifications no listener matched
	Panics     int64 // Listener panics recovered
	Listeners  int   // Currently registered listeners
}

// Decode unmarshals the notification params into T.
func Decode[T any](n Notification) (T, error) {
	var out T
	if len(n.Params) == 0 {
		return out, fmt.Errorf("%s: notification has no params", n.Method)
	}
	if err := json.Unmarshal(n.Params, &out); err != nil {
		return out, fmt.Errorf("%s: decode params: %w", n.Method, err)
	}
	return out, nil
}

// BufferListener returns a listener that queues notifications on buf so a
// slower consumer can drain them off the read goroutine.
func BufferListener(buf *GrowableBuffer[Notification]) Listener {
	return func(n Notification) {
		buf.Send(n)
	}
}
