package writer

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/CarlosSprekelsen/camera-client/internal/model"
	"github.com/CarlosSprekelsen/camera-client/internal/router"
)

// idlePoll is how long the consumer sleeps when the buffer is empty.
const idlePoll = 10 * time.Millisecond

// BatchSender sends a pgx batch. *pgxpool.Pool satisfies it.
type BatchSender interface {
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// eventRow is one camera_events row.
type eventRow struct {
	EventID    string
	ReceivedAt int64
	Method     string
	Device     string
	Status     string
	Params     []byte
}

// EventWriter consumes notifications from a buffer and writes them to the
// camera_events table.
type EventWriter struct {
	cfg    WriterConfig
	logger *slog.Logger

	input *router.GrowableBuffer[router.Notification]
	db    BatchSender

	batch       []eventRow
	batchMu     sync.Mutex
	flushTicker *time.Ticker

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	metrics WriterMetrics
}

// NewEventWriter creates a new EventWriter.
func NewEventWriter(
	cfg WriterConfig,
	input *router.GrowableBuffer[router.Notification],
	db BatchSender,
	logger *slog.Logger,
) *EventWriter {
	if logger == nil {
		logger = slog.Default()
	}
	def := DefaultWriterConfig()
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = def.BatchSize
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = def.FlushInterval
	}
	return &EventWriter{
		cfg:    cfg,
		input:  input,
		db:     db,
		logger: logger.With("component", "event_writer"),
		batch:  make([]eventRow, 0, cfg.BatchSize),
	}
}

// Listener returns a notification listener that feeds the writer's buffer.
func (w *EventWriter) Listener() router.Listener {
	return router.BufferListener(w.input)
}

// Start begins consuming notifications and writing to the database.
func (w *EventWriter) Start(ctx context.Context) error {
	w.ctx, w.cancel = context.WithCancel(ctx)
	w.flushTicker = time.NewTicker(w.cfg.FlushInterval)

	w.wg.Add(1)
	go w.consumeLoop()

	w.wg.Add(1)
	go w.flushLoop()

	w.logger.Info("event writer started",
		"batch_size", w.cfg.BatchSize,
		"flush_interval", w.cfg.FlushInterval,
	)
	return nil
}

// Stop shuts down the writer and flushes whatever is still buffered.
func (w *EventWriter) Stop(ctx context.Context) error {
	w.logger.Info("stopping event writer")

	if w.cancel != nil {
		w.cancel()
	}
	if w.flushTicker != nil {
		w.flushTicker.Stop()
	}

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		w.logger.Warn("event writer stop timed out")
		return ctx.Err()
	}

	for _, n := range w.input.DrainTo(0) {
		w.handleMessage(ctx, n)
	}
	w.flush(ctx)

	w.logger.Info("event writer stopped")
	return nil
}

// Stats returns current metrics.
func (w *EventWriter) Stats() WriterMetrics {
	w.batchMu.Lock()
	defer w.batchMu.Unlock()
	return w.metrics
}

func (w *EventWriter) consumeLoop() {
	defer w.wg.Done()

	for {
		msgs := w.input.DrainTo(w.cfg.BatchSize)
		if len(msgs) == 0 {
			select {
			case <-w.ctx.Done():
				return
			case <-time.After(idlePoll):
				continue
			}
		}

		for _, n := range msgs {
			w.handleMessage(w.ctx, n)
		}

		if w.ctx.Err() != nil {
			return
		}
	}
}

func (w *EventWriter) flushLoop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.ctx.Done():
			return
		case <-w.flushTicker.C:
			w.flush(w.ctx)
		}
	}
}

// handleMessage adds a notification to the batch, flushing when full.
func (w *EventWriter) handleMessage(ctx context.Context, n router.Notification) {
	row := transform(n)

	w.batchMu.Lock()
	w.batch = append(w.batch, row)
	shouldFlush := len(w.batch) >= w.cfg.BatchSize
	w.batchMu.Unlock()

	if shouldFlush {
		w.flush(ctx)
	}
}

func transform(n router.Notification) eventRow {
	ev := model.NewCameraEvent(n.Method, n.Params, n.ReceivedAt.UnixMicro())

	var params []byte
	if len(ev.Params) > 0 && json.Valid(ev.Params) {
		params = ev.Params
	}

	return eventRow{
		EventID:    ev.EventID.String(),
		ReceivedAt: ev.ReceivedAt,
		Method:     ev.Method,
		Device:     ev.Device,
		Status:     ev.Status,
		Params:     params,
	}
}

// flush writes the current batch. A failed batch is counted and dropped.
func (w *EventWriter) flush(ctx context.Context) {
	w.batchMu.Lock()
	if len(w.batch) == 0 {
		w.batchMu.Unlock()
		return
	}

	batch := w.batch
	w.batch = make([]eventRow, 0, w.cfg.BatchSize)
	w.batchMu.Unlock()

	start := time.Now()

	conflicts, err := w.batchInsert(ctx, batch)
	if err != nil {
		w.logger.Error("batch insert failed", "error", err, "count", len(batch))
		w.batchMu.Lock()
		w.metrics.Errors++
		w.batchMu.Unlock()
		return
	}

	w.batchMu.Lock()
	w.metrics.Inserts += int64(len(batch) - conflicts)
	w.metrics.Conflicts += int64(conflicts)
	w.metrics.Flushes++
	w.batchMu.Unlock()

	w.logger.Debug("flushed events",
		"count", len(batch),
		"conflicts", conflicts,
		"duration", time.Since(start),
	)
}

// batchInsert inserts rows using pgx.Batch with ON CONFLICT DO NOTHING.
func (w *EventWriter) batchInsert(ctx context.Context, rows []eventRow) (conflicts int, err error) {
	batch := &pgx.Batch{}
	for _, r := range rows {
		batch.Queue(`
			INSERT INTO camera_events (event_id, received_at, method, device, status, params)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (event_id) DO NOTHING
		`, r.EventID, r.ReceivedAt, r.Method, r.Device, r.Status, r.Params)
	}

	results := w.db.SendBatch(ctx, batch)
	defer results.Close()

	for range rows {
		ct, err := results.Exec()
		if err != nil {
			return 0, err
		}
		if ct.RowsAffected() == 0 {
			conflicts++
		}
	}

	return conflicts, nil
}
