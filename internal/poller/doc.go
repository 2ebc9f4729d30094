// Package poller implements the readiness poller used in fallback mode.
//
// The poller:
//   - Probes the health server's /health/ready endpoint on a fixed interval
//   - Probes once immediately when started
//   - Invokes a callback each time the service answers ready, so the client
//     can reset and re-dial its WebSocket connection
package poller
