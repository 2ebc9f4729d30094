// Package model defines the wire types exchanged with the camera service.
//
// Field names follow the server's JSON-RPC result and notification shapes.
//
// Conventions:
//   - Devices are addressed by their device path (e.g., "/dev/video0")
//   - Server timestamps are kept as the RFC 3339 strings the server sends
//   - Client receive timestamps are int64 microseconds since Unix epoch
package model
