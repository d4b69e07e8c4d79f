package ttsjob

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestLoaderEnsureRunsLoadFnOnce(t *testing.T) {
	var calls int32
	loader := NewLoader(func(ctx context.Context) error {
		atomic.AddInt32(&calls, 1)
		return nil
	})

	if err := loader.Ensure(context.Background(), time.Second); err != nil {
		t.Fatalf("first Ensure: %v", err)
	}
	if err := loader.Ensure(context.Background(), time.Second); err != nil {
		t.Fatalf("second Ensure: %v", err)
	}
	if calls != 1 {
		t.Errorf("expected loadFn called exactly once, got %d", calls)
	}
}

func TestLoaderConcurrentCallersShareOneLoad(t *testing.T) {
	var calls int32
	release := make(chan struct{})
	loader := NewLoader(func(ctx context.Context) error {
		atomic.AddInt32(&calls, 1)
		<-release
		return nil
	})

	var wg sync.WaitGroup
	errs := make([]error, 5)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = loader.Ensure(context.Background(), 2*time.Second)
		}(i)
	}

	time.Sleep(50 * time.Millisecond) // let all goroutines reach Ensure
	close(release)
	wg.Wait()

	if calls != 1 {
		t.Errorf("expected loadFn invoked exactly once across concurrent callers, got %d", calls)
	}
	for i, err := range errs {
		if err != nil {
			t.Errorf("caller %d: unexpected error %v", i, err)
		}
	}
}

func TestLoaderFailedAttemptDoesNotStick(t *testing.T) {
	var calls int32
	loader := NewLoader(func(ctx context.Context) error {
		n := atomic.AddInt32(&calls, 1)
		if n == 1 {
			return errors.New("load failed")
		}
		return nil
	})

	if err := loader.Ensure(context.Background(), time.Second); err == nil {
		t.Fatal("expected the first attempt to fail")
	}
	if err := loader.Ensure(context.Background(), time.Second); err != nil {
		t.Fatalf("expected the second attempt to retry and succeed, got %v", err)
	}
	if calls != 2 {
		t.Errorf("expected loadFn retried after failure, got %d calls", calls)
	}
}

func TestLoaderWaitTimeoutFallsBackToSynchronousLoad(t *testing.T) {
	release := make(chan struct{})
	var calls int32
	loader := NewLoader(func(ctx context.Context) error {
		if atomic.AddInt32(&calls, 1) == 1 {
			<-release
		}
		return nil
	})
	defer close(release)

	go loader.Ensure(context.Background(), 2*time.Second)
	time.Sleep(20 * time.Millisecond) // let the first goroutine start loading

	if err := loader.Ensure(context.Background(), 10*time.Millisecond); err != nil {
		t.Fatalf("expected the wait timeout to fall back to a synchronous load, got %v", err)
	}
	if atomic.LoadInt32(&calls) != 2 {
		t.Errorf("expected the timed-out waiter to run its own load, got %d loadFn calls", calls)
	}
}
