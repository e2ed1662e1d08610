package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/semaphore"
)

// defaultLockWait bounds how long an invocation waits for the
// reconciliation lock before abandoning its run. Short on purpose: a
// superseded run is harmless because the next successful run
// re-converges fully, while a queue of waiting runs would amplify a
// burst into repeated wipes.
const defaultLockWait = 2 * time.Second

// Guard serializes reconciliation bodies with a bounded-wait lock. An
// invocation that cannot acquire the lock within the wait gives up
// without queuing or retrying.
type Guard struct {
	sem    *semaphore.Weighted
	wait   time.Duration
	logger *slog.Logger
}

// NewGuard creates a Guard. wait <= 0 selects the default.
func NewGuard(wait time.Duration, logger *slog.Logger) *Guard {
	if wait <= 0 {
		wait = defaultLockWait
	}

	return &Guard{
		sem:    semaphore.NewWeighted(1),
		wait:   wait,
		logger: logger,
	}
}

// Do runs fn while holding the lock. Returns ran=false with a nil error
// when the lock could not be acquired within the bound — an expected,
// informational outcome, not a failure. The lock is released on every
// exit path, including a panic inside fn.
func (g *Guard) Do(ctx context.Context, fn func(context.Context) error) (ran bool, err error) {
	acquireCtx, cancel := context.WithTimeout(ctx, g.wait)
	defer cancel()

	if err := g.sem.Acquire(acquireCtx, 1); err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			g.logger.Info("reconciliation lock busy, skipping run",
				slog.Duration("waited", g.wait),
			)

			return false, nil
		}

		return false, fmt.Errorf("reconcile: acquiring lock: %w", err)
	}

	defer g.sem.Release(1)

	return true, fn(ctx)
}
