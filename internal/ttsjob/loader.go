package ttsjob

import (
	"context"
	"errors"
	"sync"
	"time"
)

// Loader ensures a synthesis backend is warmed up exactly once: the first
// caller runs loadFn while concurrent callers wait on a bounded timeout
// instead of each triggering their own load. A failed attempt does not
// stick; the next caller retries loading from scratch.
type Loader struct {
	loadFn func(ctx context.Context) error

	mu      sync.Mutex
	loading bool
	loaded  bool
	doneCh  chan struct{}
}

// NewLoader creates a Loader that runs loadFn on first use.
func NewLoader(loadFn func(ctx context.Context) error) *Loader {
	return &Loader{loadFn: loadFn}
}

// Ensure guarantees the backend has been warmed up, or returns an error. If
// another goroutine is already loading, Ensure waits up to wait for it to
// finish rather than starting a second concurrent load.
func (l *Loader) Ensure(ctx context.Context, wait time.Duration) error {
	l.mu.Lock()
	if l.loaded {
		l.mu.Unlock()
		return nil
	}
	if l.loading {
		done := l.doneCh
		l.mu.Unlock()
		err := waitFor(ctx, done, wait)
		if err == nil {
			return l.Ensure(ctx, wait)
		}
		if errors.Is(err, context.DeadlineExceeded) {
			// Bounded wait expired; load synchronously on this caller
			// rather than failing the job.
			return l.loadFn(ctx)
		}
		return err
	}

	l.loading = true
	l.doneCh = make(chan struct{})
	l.mu.Unlock()

	err := l.loadFn(ctx)

	l.mu.Lock()
	l.loading = false
	l.loaded = err == nil
	close(l.doneCh)
	l.mu.Unlock()

	return err
}

func waitFor(ctx context.Context, done chan struct{}, wait time.Duration) error {
	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case <-done:
		return nil
	case <-timer.C:
		return context.DeadlineExceeded
	case <-ctx.Done():
		return ctx.Err()
	}
}
