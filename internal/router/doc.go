// Package router delivers server-pushed notifications to listeners.
//
// The Dispatcher calls listeners inline on the connection's read goroutine,
// in registration order. Consumers that do real work (database writes,
// registry reconciliation) subscribe a BufferListener and drain a
// GrowableBuffer on their own goroutine.
package router
