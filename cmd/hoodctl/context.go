package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"
)

// commandContext returns a context cancelled on Ctrl+C or SIGTERM, with an
// optional timeout. The returned cleanup releases the signal handler and must
// be called before the command returns.
func commandContext(timeout time.Duration) (context.Context, context.CancelFunc) {
	baseCtx := context.Background()
	var timeoutCancel context.CancelFunc = func() {}
	if timeout > 0 {
		baseCtx, timeoutCancel = context.WithTimeout(baseCtx, timeout)
	}

	ctx, cancel := context.WithCancel(baseCtx)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			fmt.Println("\nCtrl+C pressed, cancelling...")
			cancel()
		case <-ctx.Done():
		}
	}()

	cleanup := func() {
		signal.Stop(sigCh)
		cancel()
		timeoutCancel()
	}
	return ctx, cleanup
}
