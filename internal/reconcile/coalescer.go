package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync/atomic"
	"time"
)

// defaultWindow is the debounce observation window. A burst of roster
// edits lands many change notifications within a couple of seconds; the
// window lets all but the freshest invocation discover they are stale.
// Shorter windows cut latency but can split one paste burst into two
// runs; longer windows delay every single edit.
const defaultWindow = 2 * time.Second

// TokenStore is the single shared last-writer-wins slot used by the
// debounce protocol. Writes overwrite unconditionally; readers see the
// most recent write. Implementations must be safe for concurrent use.
type TokenStore interface {
	Set(token string)
	Get() string
}

// MemoryTokenStore is the in-process TokenStore: one atomic cell.
type MemoryTokenStore struct {
	v atomic.Value
}

// Set stores token, replacing any previous value.
func (s *MemoryTokenStore) Set(token string) {
	s.v.Store(token)
}

// Get returns the most recently stored token, or "" before the first Set.
func (s *MemoryTokenStore) Get() string {
	token, _ := s.v.Load().(string)
	return token
}

var _ TokenStore = (*MemoryTokenStore)(nil)

// CoalescerConfig holds the collaborators for NewCoalescer.
type CoalescerConfig struct {
	Store  TokenStore
	Guard  *Guard
	Run    func(context.Context) error // the guarded reconciliation body
	Logger *slog.Logger
	Window time.Duration                              // 0 → defaultWindow
	Now    func() time.Time                           // nil → time.Now
	Sleep  func(context.Context, time.Duration) error // nil → sleepCtx, injectable for tests
}

// Coalescer collapses bursts of concurrent change notifications into a
// single reconciliation run. Each notification writes a fresh token into
// the shared slot, waits out the observation window, and proceeds only
// if its token is still the newest — every earlier invocation in a burst
// wakes to find its token overwritten and terminates silently. A tie
// between same-instant invocations is resolved by the Guard, not here.
type Coalescer struct {
	store  TokenStore
	guard  *Guard
	run    func(context.Context) error
	logger *slog.Logger
	window time.Duration
	now    func() time.Time
	sleep  func(context.Context, time.Duration) error
	seq    atomic.Uint64
}

// NewCoalescer creates a Coalescer from cfg, filling optional fields
// with defaults.
func NewCoalescer(cfg *CoalescerConfig) *Coalescer {
	window := cfg.Window
	if window <= 0 {
		window = defaultWindow
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	sleep := cfg.Sleep
	if sleep == nil {
		sleep = sleepCtx
	}

	return &Coalescer{
		store:  cfg.Store,
		guard:  cfg.Guard,
		run:    cfg.Run,
		logger: cfg.Logger,
		window: window,
		now:    now,
		sleep:  sleep,
	}
}

// OnChange handles one change notification. It returns nil both when the
// run completed and when this invocation was superseded or lost the lock
// — those are expected terminations, observed only in logs. The error
// return carries context cancellation and reconciliation failures.
func (c *Coalescer) OnChange(ctx context.Context) error {
	token := c.newToken()
	c.store.Set(token)

	c.logger.Debug("debounce armed",
		slog.String("token", token),
		slog.Duration("window", c.window),
	)

	if err := c.sleep(ctx, c.window); err != nil {
		return fmt.Errorf("reconcile: debounce wait: %w", err)
	}

	if current := c.store.Get(); current != token {
		c.logger.Debug("debounce superseded by newer change",
			slog.String("token", token),
			slog.String("current", current),
		)

		return nil
	}

	ran, err := c.guard.Do(ctx, c.run)
	if err != nil {
		return err
	}

	if !ran {
		// Guard timeout: a concurrent run holds the lock. Its edit (or
		// the next one) re-converges the destination, so dropping this
		// invocation is safe under the stateless design.
		return nil
	}

	return nil
}

// newToken builds a high-resolution timestamp token. The sequence suffix
// keeps tokens distinct when two invocations land on the same clock
// tick; the tie itself is still resolved by the Guard.
func (c *Coalescer) newToken() string {
	return strconv.FormatInt(c.now().UnixNano(), 10) + "-" + strconv.FormatUint(c.seq.Add(1), 10)
}

// sleepCtx sleeps for d or until ctx is canceled, whichever comes first.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
