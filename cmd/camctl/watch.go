package main

import (
	"context"
	"fmt"
	"time"

	"github.com/CarlosSprekelsen/camera-client/internal/camera"
	"github.com/CarlosSprekelsen/camera-client/internal/database"
	"github.com/CarlosSprekelsen/camera-client/internal/model"
	"github.com/CarlosSprekelsen/camera-client/internal/router"
	"github.com/CarlosSprekelsen/camera-client/internal/writer"
)

// runWatch keeps the camera table in sync and prints every change until
// interrupted. With an events database configured, every notification is
// also persisted.
func runWatch(ctx context.Context, e *env, args []string) error {
	fs := newFlags(e, "watch")
	topics := fs.StringSlice("topics", nil, "event topics to subscribe to (e.g. camera.connected,recording.start)")
	reconcile := fs.Duration("reconcile", time.Minute, "camera list reconciliation interval")
	noSink := fs.Bool("no-sink", false, "do not persist notifications even if events.database is set")
	if err := fs.Parse(args); err != nil {
		return err
	}

	c, svc, err := e.connect(ctx)
	if err != nil {
		return err
	}

	if e.cfg.Events.SinkEnabled() && !*noSink {
		s, err := startSink(ctx, e)
		if err != nil {
			return err
		}
		defer s.stop()

		unsubscribe := c.OnNotification(s.listener)
		defer unsubscribe()
	}

	recordings := make(chan model.RecordingStatusUpdate, 64)
	unsubscribe := c.OnMethod(model.MethodRecordingStatusUpdate, func(n router.Notification) {
		u, err := router.Decode[model.RecordingStatusUpdate](n)
		if err != nil {
			return
		}
		select {
		case recordings <- u:
		default:
		}
	})
	defer unsubscribe()

	if len(*topics) > 0 {
		res, err := svc.Server.SubscribeEvents(ctx, *topics, nil)
		if err != nil {
			return err
		}
		e.logger.Info("subscribed to events", "topics", res.Topics)
	}

	registry := camera.NewRegistry(camera.Config{ReconcileInterval: *reconcile}, svc.Device, c, e.logger)
	if err := registry.Start(ctx); err != nil {
		return err
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		registry.Stop(stopCtx)
	}()

	changes := registry.SubscribeChanges()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ch := <-changes:
			printChange(e, ch)
		case u := <-recordings:
			fmt.Fprintf(e.out, "%s  %-14s recording %s %s\n",
				time.Now().Format(time.TimeOnly), u.Device, u.Status, u.Filename)
		}
	}
}

func printChange(e *env, ch camera.Change) {
	ts := time.Now().Format(time.TimeOnly)
	switch ch.EventType {
	case camera.EventCreated:
		fmt.Fprintf(e.out, "%s  %-14s added %s (%s)\n", ts, ch.Device, ch.NewStatus, ch.Source)
	case camera.EventRemoved:
		fmt.Fprintf(e.out, "%s  %-14s removed (%s)\n", ts, ch.Device, ch.Source)
	default:
		fmt.Fprintf(e.out, "%s  %-14s %s -> %s (%s)\n", ts, ch.Device, ch.OldStatus, ch.NewStatus, ch.Source)
	}
}

// sink owns the events pool and writer.
type sink struct {
	listener router.Listener
	stop     func()
}

// startSink connects to the events database and starts the writer.
func startSink(ctx context.Context, e *env) (*sink, error) {
	ev := e.cfg.Events

	e.logger.Info("connecting to events database",
		"host", ev.Database.Host,
		"port", ev.Database.Port,
		"database", ev.Database.Name,
	)
	pool, err := database.Connect(ctx, ev.Database)
	if err != nil {
		return nil, fmt.Errorf("connect events database: %w", err)
	}
	if err := database.EnsureSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}

	buf := router.NewGrowableBuffer[router.Notification](min(64, ev.BufferSize), ev.BufferSize)
	w := writer.NewEventWriter(writer.WriterConfig{
		BatchSize:     ev.BatchSize,
		FlushInterval: ev.FlushInterval,
	}, buf, pool, e.logger)
	if err := w.Start(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return &sink{
		listener: w.Listener(),
		stop: func() {
			buf.Close()
			stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := w.Stop(stopCtx); err != nil {
				e.logger.Warn("event writer stop failed", "error", err)
			}
			stats := w.Stats()
			e.logger.Info("event sink closed",
				"inserts", stats.Inserts,
				"errors", stats.Errors,
				"dropped", buf.Stats().Dropped,
			)
			pool.Close()
		},
	}, nil
}
