package retry

import (
	"context"
	"errors"
	"log/slog"
	"math/rand"
	"time"
)

type Config struct {
	MaxAttempts    int
	InitialDelay   time.Duration
	MaxDelay       time.Duration
	Multiplier     float64
	AttemptTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		MaxAttempts:    3,
		InitialDelay:   500 * time.Millisecond,
		MaxDelay:       5 * time.Second,
		Multiplier:     2.0,
		AttemptTimeout: 60 * time.Second,
	}
}

// Retryable is implemented by errors that know whether the failed call may
// succeed when repeated.
type Retryable interface {
	IsRetryable() bool
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = d.MaxAttempts
	}
	if c.InitialDelay <= 0 {
		c.InitialDelay = d.InitialDelay
	}
	if c.MaxDelay <= 0 {
		c.MaxDelay = d.MaxDelay
	}
	if c.Multiplier < 1 {
		c.Multiplier = d.Multiplier
	}
	return c
}

// Do calls fn until it succeeds, returns a non-retryable error, the attempts
// run out or ctx is done. Each attempt gets its own deadline when
// AttemptTimeout is set. The last error is returned unchanged.
func Do(ctx context.Context, cfg Config, op string, fn func(ctx context.Context) error) error {
	cfg = cfg.withDefaults()
	delay := cfg.InitialDelay

	var err error
	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		if attempt > 1 {
			wait := applyJitter(delay)
			slog.Debug("Retrying", "op", op, "attempt", attempt, "wait", wait, "error", err)

			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return withContextErr(ctx, err)
			case <-timer.C:
			}
			delay = min(time.Duration(float64(delay)*cfg.Multiplier), cfg.MaxDelay)
		}

		err = runAttempt(ctx, cfg.AttemptTimeout, fn)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return withContextErr(ctx, err)
		}
		if !shouldRetry(err) {
			return err
		}
	}
	return err
}

func withContextErr(ctx context.Context, err error) error {
	if errors.Is(err, ctx.Err()) {
		return err
	}
	return errors.Join(err, ctx.Err())
}

func runAttempt(ctx context.Context, timeout time.Duration, fn func(ctx context.Context) error) error {
	if timeout <= 0 {
		return fn(ctx)
	}
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return fn(attemptCtx)
}

func shouldRetry(err error) bool {
	var r Retryable
	if errors.As(err, &r) {
		return r.IsRetryable()
	}
	return errors.Is(err, context.DeadlineExceeded)
}

func applyJitter(delay time.Duration) time.Duration {
	jitterFactor := 0.9 + rand.Float64()*0.2
	return time.Duration(float64(delay) * jitterFactor)
}
