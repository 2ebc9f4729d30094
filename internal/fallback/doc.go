// Package fallback serves a reduced set of JSON-RPC methods over the health
// server's REST API while the WebSocket transport is down.
//
// Only ping, get_camera_list and get_camera_status are available. Results are
// never cached; every call is a fresh HTTP GET.
package fallback
