// Package connection implements the WebSocket transport to the camera service.
//
// Client wraps one gorilla/websocket connection: a read loop, a heartbeat
// loop that pings the server and reports stale sockets, and serialized writes.
//
// Connection layers the lifecycle on top:
//   - Connect, Disconnect and Reset drive the state machine explicitly
//   - An unexpected close schedules reconnects with capped exponential backoff
//   - After MaxReconnectAttempts failed dials the state is FailedPermanently
//     until Reset
//   - Frames and state transitions are handed to a Handler in order
package connection
