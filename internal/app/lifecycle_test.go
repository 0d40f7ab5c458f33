package app

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestSetupLifecycle(t *testing.T) {
	t.Parallel()

	t.Run("timeout ends the context", func(t *testing.T) {
		t.Parallel()
		ctx, lc := SetupLifecycle(context.Background(), 20*time.Millisecond)
		defer lc.Cleanup()
		select {
		case <-ctx.Done():
			if !errors.Is(ctx.Err(), context.DeadlineExceeded) {
				t.Errorf("ctx.Err() = %v, want deadline exceeded", ctx.Err())
			}
		case <-time.After(time.Second):
			t.Fatal("context not done after its timeout")
		}
	})

	t.Run("no timeout", func(t *testing.T) {
		t.Parallel()
		ctx, lc := SetupLifecycle(context.Background(), 0)
		defer lc.Cleanup()
		if _, ok := ctx.Deadline(); ok {
			t.Error("a zero timeout must not set a deadline")
		}
		select {
		case <-ctx.Done():
			t.Error("context done without cause")
		default:
		}
	})

	t.Run("parent cancellation propagates", func(t *testing.T) {
		t.Parallel()
		parent, cancel := context.WithCancel(context.Background())
		ctx, lc := SetupLifecycle(parent, time.Hour)
		defer lc.Cleanup()
		cancel()
		<-ctx.Done()
		if !errors.Is(ctx.Err(), context.Canceled) {
			t.Errorf("ctx.Err() = %v, want canceled", ctx.Err())
		}
	})

	t.Run("cleanup cancels and is idempotent", func(t *testing.T) {
		t.Parallel()
		ctx, lc := SetupLifecycle(context.Background(), time.Hour)
		lc.Cleanup()
		lc.Cleanup()
		select {
		case <-ctx.Done():
		case <-time.After(time.Second):
			t.Fatal("context not done after Cleanup")
		}
	})

	t.Run("zero lifecycle", func(t *testing.T) {
		t.Parallel()
		(&Lifecycle{}).Cleanup()
	})
}

func TestSetupSignals(t *testing.T) {
	t.Parallel()
	ctx, stop := SetupSignals(context.Background())
	stop()
	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("stop did not end the signal context")
	}
}
