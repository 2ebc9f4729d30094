// Package api provides the REST client for the camera service's health server.
//
// The health server (default http://localhost:8003) stays reachable when the
// JSON-RPC WebSocket is down and backs the HTTP polling fallback.
//
// Endpoints:
//   - GET /health/system        overall service health
//   - GET /health/ready         readiness probe
//   - GET /api/cameras          same shape as get_camera_list
//   - GET /api/cameras/{device} same shape as get_camera_status
package api
