package resilience

import (
	"context"
	"errors"
	"log/slog"
	"syscall"
)

// IsConnectionRefused reports whether err stems from a refused TCP
// connection, the one failure worth an immediate retry: the peer process
// may simply be restarting. Timeouts never qualify.
func IsConnectionRefused(err error) bool {
	return errors.Is(err, syscall.ECONNREFUSED)
}

// RetryOnceOnRefused runs fn and retries it exactly once if the first
// attempt failed with a refused connection. Any other error, including a
// timeout, is returned as-is: a peer that accepted the connection already
// got the request, and retrying could duplicate work.
func RetryOnceOnRefused(ctx context.Context, fn func(ctx context.Context) error) error {
	err := fn(ctx)
	if err == nil || !IsConnectionRefused(err) {
		return err
	}
	if ctx.Err() != nil {
		return err
	}

	slog.Debug("connection refused, retrying once", "error", err)
	return fn(ctx)
}
