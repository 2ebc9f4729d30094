// Package database provides the PostgreSQL connection pool and schema for
// the optional notification sink.
//
// Notifications land in a single append-only table, camera_events, keyed by
// a client-generated UUID. Timestamps are microseconds since the epoch.
package database
