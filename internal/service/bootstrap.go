// Package service provides the graceful-startup/shutdown scaffolding
// shared by every JMS binary, grounded on the teacher's main.go: a
// context cancelled on SIGINT/SIGTERM, with a bounded grace period for
// in-flight work to wind down before the process exits.
package service

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"
)

// ShutdownGrace bounds how long a service's cleanup gets after the
// cancellation signal before the caller should give up waiting.
const ShutdownGrace = 5 * time.Second

// WithSignalCancel returns a context cancelled the moment SIGINT or
// SIGTERM is received, plus a function to release the signal handler
// early (e.g. in tests, or once a service has already begun shutting
// down for its own reasons).
func WithSignalCancel(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case <-sigCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, func() {
		signal.Stop(sigCh)
		cancel()
	}
}

// Run starts every given goroutine function and blocks until ctx is
// cancelled (by signal or by any of the functions returning, with or
// without an error), then waits up to ShutdownGrace for them to return. It returns
// the first non-nil error observed, if any.
func Run(ctx context.Context, fns ...func(context.Context) error) error {
	errCh := make(chan error, len(fns))
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	for _, fn := range fns {
		fn := fn
		go func() {
			err := fn(runCtx)
			errCh <- err
			cancel()
		}()
	}

	<-runCtx.Done()

	var firstErr error
	deadline := time.After(ShutdownGrace)
	for range fns {
		select {
		case err := <-errCh:
			if err != nil && err != context.Canceled && firstErr == nil {
				firstErr = err
			}
		case <-deadline:
			return firstErr
		}
	}
	return firstErr
}
