package shutdownqueue

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

// reset clears the package-level queue so tests don't leak into each other.
func reset(t *testing.T) {
	t.Helper()
	t.Cleanup(func() {
		global.mu.Lock()

		global.tasks = nil
		global.drained = false

		global.mu.Unlock()
	})
}

//nolint:paralleltest
func TestLIFOOrder(t *testing.T) {
	reset(t)

	var order []int

	for i := 1; i <= 3; i++ {
		Add(func(context.Context) error {
			order = append(order, i)
			return nil
		})
	}

	err := Shutdown(t.Context())
	if err != nil {
		t.Fatalf("shutdown: %v", err)
	}

	want := []int{3, 2, 1}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order: want %v, got %v", want, order)
		}
	}
}

//nolint:paralleltest
func TestNilTaskIgnored(t *testing.T) {
	reset(t)

	Add(nil)

	err := Shutdown(t.Context())
	if err != nil {
		t.Fatalf("shutdown after nil add: %v", err)
	}
}

//nolint:paralleltest
func TestPanicRecoveredAndDrainContinues(t *testing.T) {
	reset(t)

	var ranAfterPanic atomic.Bool

	Add(func(context.Context) error {
		ranAfterPanic.Store(true)
		return nil
	})
	Add(func(context.Context) error { panic("boom") })

	err := Shutdown(t.Context())
	if err == nil {
		t.Fatal("expected aggregated error from panicking task")
	}
	if !strings.Contains(err.Error(), "panic in shutdown task: boom") {
		t.Fatalf("panic not reported: %v", err)
	}
	if !ranAfterPanic.Load() {
		t.Fatal("tasks after the panic were skipped")
	}
}

//nolint:paralleltest
func TestErrorsJoined(t *testing.T) {
	reset(t)

	err1 := errors.New("alpha")
	err2 := errors.New("beta")

	Add(func(context.Context) error { return err1 })
	Add(func(context.Context) error { return err2 })

	err := Shutdown(t.Context())
	if !errors.Is(err, err1) || !errors.Is(err, err2) {
		t.Fatalf("joined error missing a task error: %v", err)
	}
}

//nolint:paralleltest
func TestShutdownRunsOnce(t *testing.T) {
	reset(t)

	var count atomic.Int32

	Add(func(context.Context) error {
		count.Add(1)
		return nil
	})

	err := Shutdown(t.Context())
	if err != nil {
		t.Fatalf("first shutdown: %v", err)
	}

	err = Shutdown(t.Context())
	if err != nil {
		t.Fatalf("second shutdown: %v", err)
	}

	if count.Load() != 1 {
		t.Fatalf("task ran %d times", count.Load())
	}
}

//nolint:paralleltest
func TestAddDuringDrainDropped(t *testing.T) {
	reset(t)

	started := make(chan struct{})
	unblock := make(chan struct{})

	Add(func(context.Context) error {
		close(started)
		<-unblock

		return nil
	})

	done := make(chan struct{})
	go func() {
		_ = Shutdown(context.Background())
		close(done)
	}()

	<-started

	var ran atomic.Bool
	Add(func(context.Context) error {
		ran.Store(true)
		return nil
	})

	close(unblock)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("shutdown did not finish")
	}

	if ran.Load() {
		t.Fatal("task added mid-drain was executed")
	}
}

//nolint:paralleltest
func TestCanceledContextStopsDrain(t *testing.T) {
	reset(t)

	var ranLater atomic.Bool

	Add(func(context.Context) error {
		ranLater.Store(true)
		return nil
	})

	gateReady := make(chan struct{})
	Add(func(ctx context.Context) error {
		close(gateReady)
		<-ctx.Done()

		return nil
	})

	ctx, cancel := context.WithCancel(t.Context())
	errCh := make(chan error, 1)

	go func() {
		errCh <- Shutdown(ctx)
	}()

	<-gateReady
	cancel()

	err := <-errCh
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("want context.Canceled in result, got %v", err)
	}
	if ranLater.Load() {
		t.Fatal("task ran after cancellation")
	}
}
