// Package graceful ties a context to process termination signals.
package graceful

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
)

// Context returns a context canceled on SIGINT or SIGTERM. The returned cancel
// func stops signal delivery and releases the watcher goroutine.
func Context(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(ctx)
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			slog.Info("received termination signal, starting graceful shutdown", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}
