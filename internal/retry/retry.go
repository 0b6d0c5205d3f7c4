// Package retry runs idempotent network operations with doubling backoff.
//
// Only failures that errors.IsRetryable classifies as transient are retried;
// everything else is returned on the first attempt so per-item failure
// handling upstream sees the real cause.
package retry

import (
	"context"
	"time"

	"github.com/juju/clock"
	jujuretry "github.com/juju/retry"

	dserrors "github.com/systmms/minioprov/internal/errors"
	"github.com/systmms/minioprov/internal/logging"
)

const (
	DefaultAttempts = 3
	DefaultDelay    = 500 * time.Millisecond
	DefaultMaxDelay = 10 * time.Second
)

// Policy configures how often and how patiently an operation is retried
type Policy struct {
	Attempts int
	Delay    time.Duration
	MaxDelay time.Duration
	Clock    clock.Clock
	Logger   *logging.Logger
}

// DefaultPolicy returns the policy used when nothing is configured
func DefaultPolicy() Policy {
	return Policy{
		Attempts: DefaultAttempts,
		Delay:    DefaultDelay,
		MaxDelay: DefaultMaxDelay,
		Clock:    clock.WallClock,
	}
}

func (p Policy) normalized() Policy {
	if p.Attempts < 1 {
		p.Attempts = 1
	}
	if p.Delay <= 0 {
		p.Delay = DefaultDelay
	}
	if p.MaxDelay < p.Delay {
		p.MaxDelay = p.Delay
	}
	if p.Clock == nil {
		p.Clock = clock.WallClock
	}
	return p
}

// Do calls fn until it succeeds, fails with a non-retryable error, the
// attempts are exhausted or ctx is done. The returned error is always the
// last error produced by fn (or ctx.Err() if fn never ran).
func Do(ctx context.Context, p Policy, op string, fn func() error) error {
	p = p.normalized()
	if err := ctx.Err(); err != nil {
		return err
	}

	// juju/retry wraps fatal errors in a trace that drops the SDK error type,
	// so the caller gets the error fn returned, not what Call returns.
	var last error
	err := jujuretry.Call(jujuretry.CallArgs{
		Func: func() error {
			last = fn()
			return last
		},
		IsFatalError: func(err error) bool {
			return !dserrors.IsRetryable(err)
		},
		NotifyFunc: func(err error, attempt int) {
			if p.Logger != nil && attempt < p.Attempts {
				p.Logger.Debug("%s: attempt %d failed, retrying: %v", op, attempt, err)
			}
		},
		Attempts:    p.Attempts,
		Delay:       p.Delay,
		MaxDelay:    p.MaxDelay,
		BackoffFunc: jujuretry.DoubleDelay,
		Clock:       p.Clock,
		Stop:        ctx.Done(),
	})
	if err == nil {
		return nil
	}
	if last != nil {
		return last
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return err
}
