package audit

import (
	"context"
	"log/slog"
	"time"
)

const channelBuffer = 64

type spanMsg struct {
	stage      string
	startedAt  time.Time
	durationMs float64
	status     string
	errMsg     string
}

// Tracer writes span records asynchronously via a buffered channel so the
// voice pipeline's hot path never blocks on a database round trip. Nil-safe:
// every method is a no-op on a nil receiver.
type Tracer struct {
	store     *Store
	sessionID string
	ch        chan spanMsg
	done      chan struct{}
}

// NewTracer creates a tracer bound to one session and starts its drain
// goroutine. Callers must call Close to flush pending writes.
func NewTracer(ctx context.Context, store *Store, sessionID string) *Tracer {
	if store == nil {
		return nil
	}
	if err := store.CreateSession(ctx, sessionID); err != nil {
		slog.Warn("audit create session failed", "error", err)
	}
	t := &Tracer{
		store:     store,
		sessionID: sessionID,
		ch:        make(chan spanMsg, channelBuffer),
		done:      make(chan struct{}),
	}
	go t.drain()
	return t
}

func (t *Tracer) drain() {
	defer close(t.done)
	ctx := context.Background()
	for msg := range t.ch {
		if err := t.store.RecordSpan(ctx, t.sessionID, msg.stage, msg.startedAt, msg.durationMs, msg.status, msg.errMsg); err != nil {
			slog.Warn("audit record span failed", "stage", msg.stage, "error", err)
		}
	}
}

// RecordSpan enqueues a completed stage's timing and outcome.
func (t *Tracer) RecordSpan(stage string, startedAt time.Time, status, errMsg string) {
	if t == nil {
		return
	}
	t.ch <- spanMsg{
		stage:      stage,
		startedAt:  startedAt,
		durationMs: float64(time.Since(startedAt).Microseconds()) / 1000,
		status:     status,
		errMsg:     errMsg,
	}
}

// Close drains pending writes, ends the session record, and stops the
// background goroutine.
func (t *Tracer) Close() {
	if t == nil {
		return
	}
	close(t.ch)
	<-t.done
	if err := t.store.EndSession(context.Background(), t.sessionID); err != nil {
		slog.Warn("audit end session failed", "error", err)
	}
}
