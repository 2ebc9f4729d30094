// Package client wires the camera service client together.
//
// A Client owns one connection.Connection and acts as its Handler:
//   - Responses go to the rpc.Correlator, notifications to the
//     router.Dispatcher, malformed frames are dropped
//   - Leaving Connected rejects every in-flight request with
//     connection.ErrConnectionClosed and ends the auth session
//   - While the socket is down, ping, get_camera_list and get_camera_status
//     are served over HTTP by the fallback, and a readiness poller watches
//     for the service to come back
//
// Client satisfies rpc.Caller, so the typed façades in package service
// can be built on top of it.
package client
