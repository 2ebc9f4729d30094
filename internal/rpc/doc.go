// Package rpc implements the JSON-RPC 2.0 envelope types and the request
// correlator that matches responses on a shared socket to their callers.
//
// Request ids come from a monotonically increasing counter. Each call waits
// on its own buffered channel with an independent timeout; a response that
// arrives after its caller gave up is dropped.
package rpc
