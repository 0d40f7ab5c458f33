package app

import (
	"context"
	"os/signal"
	"syscall"
	"time"
)

// SetupSignals derives a context canceled on SIGINT or SIGTERM. The stop
// function restores default signal handling.
func SetupSignals(ctx context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
}

// Lifecycle releases the resources of SetupLifecycle.
type Lifecycle struct {
	cancelTimeout context.CancelFunc
	stopSignals   context.CancelFunc
}

// Cleanup stops signal handling, then cancels the timeout. It is safe to
// call more than once.
func (l *Lifecycle) Cleanup() {
	if l.stopSignals != nil {
		l.stopSignals()
	}
	if l.cancelTimeout != nil {
		l.cancelTimeout()
	}
}

// SetupLifecycle derives a context that ends when timeout elapses or a
// termination signal arrives, whichever comes first. A timeout <= 0 only
// installs the signal handling.
//
// Parameters:
//   - ctx: The parent context.
//   - timeout: The maximum duration of the operation.
//
// Returns:
//   - context.Context: The derived context.
//   - *Lifecycle: Call Cleanup when the operation is done.
func SetupLifecycle(ctx context.Context, timeout time.Duration) (context.Context, *Lifecycle) {
	lc := &Lifecycle{}
	if timeout > 0 {
		ctx, lc.cancelTimeout = context.WithTimeout(ctx, timeout)
	}
	ctx, lc.stopSignals = SetupSignals(ctx)
	return ctx, lc
}
