// Package writer persists server notifications.
//
// EventWriter drains a router.GrowableBuffer of notifications and inserts
// them into camera_events in batches, flushing when a batch fills or on a
// timer. Rows are append-only and keyed by a client-generated UUID, so a
// retried batch never duplicates events.
package writer
