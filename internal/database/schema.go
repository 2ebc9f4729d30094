package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// Execer is the subset of *pgxpool.Pool used for schema setup.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// EventsTable holds persisted notifications.
const EventsTable = "camera_events"

var schema = []string{
	`CREATE TABLE IF NOT EXISTS camera_events (
		event_id    UUID PRIMARY KEY,
		received_at BIGINT NOT NULL,
		method      TEXT NOT NULL,
		device      TEXT NOT NULL DEFAULT '',
		status      TEXT NOT NULL DEFAULT '',
		params      JSONB
	)`,
	`CREATE INDEX IF NOT EXISTS camera_events_device_received_idx
		ON camera_events (device, received_at)`,
}

// EnsureSchema creates the events table and its index if missing.
func EnsureSchema(ctx context.Context, db Execer) error {
	for _, stmt := range schema {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
