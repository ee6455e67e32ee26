// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package retry wraps adapter calls with bounded retries and exponential
// backoff. Failures are classified as retryable or terminal and carried in
// a tagged Outcome value; nothing escapes this boundary as a panic or an
// unclassified error.
package retry

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/pdiddy/sragent/internal/lookup"
	"github.com/pdiddy/sragent/pkg/types"
)

const (
	defaultMaxAttempts = 4
	defaultBaseDelay   = 1 * time.Second
	defaultMaxDelay    = 30 * time.Second

	// jitterFrac spreads each backoff delay by ±20% so concurrent requests
	// do not hammer a recovering service in lockstep.
	jitterFrac = 0.2
)

// OutcomeStatus tags the result of executing one strategy.
type OutcomeStatus int

const (
	// Success: the adapter returned records.
	Success OutcomeStatus = iota

	// TerminalFailure: a non-retryable failure, or retries exhausted.
	TerminalFailure
)

// Outcome is the result of one adapter invocation through the controller.
type Outcome struct {
	Status   OutcomeStatus
	Records  []types.AccessionRecord
	Reason   error
	Attempts int
}

// Controller executes adapter calls with retry, backoff, and per-attempt
// timeouts. The zero value is not usable; call New.
type Controller struct {
	cfg    types.RetryConfig
	health *Health

	// sleep is swapped out by tests to avoid real waits.
	sleep func(ctx context.Context, d time.Duration) error
}

// New builds a controller with defaults filled in. The health registry
// records throttle events for the strategy selector and may be shared by
// concurrent requests.
func New(cfg types.RetryConfig, health *Health) *Controller {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaultMaxAttempts
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = defaultBaseDelay
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = defaultMaxDelay
	}
	return &Controller{cfg: cfg, health: health, sleep: sleepCtx}
}

// Execute invokes the adapter call until it succeeds, fails terminally, or
// exhausts the attempt budget. Retryable failures back off exponentially
// from BaseDelay, doubling per attempt and capped at MaxDelay, with ±20%
// jitter. A cancelled context ends the loop with a terminal outcome.
func (c *Controller) Execute(ctx context.Context, adapter string, call func(context.Context) ([]types.AccessionRecord, error)) Outcome {
	var lastErr error

	for attempt := 0; attempt < c.cfg.MaxAttempts; attempt++ {
		if attempt > 0 {
			if err := c.sleep(ctx, c.Backoff(attempt-1)); err != nil {
				return Outcome{Status: TerminalFailure, Reason: err, Attempts: attempt}
			}
		}

		records, err := call(ctx)
		if err == nil {
			return Outcome{Status: Success, Records: records, Attempts: attempt + 1}
		}
		lastErr = err

		// A timed-out attempt is retryable; a cancelled request is not.
		if errors.Is(err, context.Canceled) || ctx.Err() != nil {
			return Outcome{Status: TerminalFailure, Reason: err, Attempts: attempt + 1}
		}

		if le, ok := lookup.AsError(err); ok {
			if le.Kind == lookup.KindRateLimited {
				c.health.RecordThrottle(adapter)
			}
			if !le.Retryable() {
				return Outcome{Status: TerminalFailure, Reason: err, Attempts: attempt + 1}
			}
		}
		// Unclassified errors and deadline expiries fall through as retryable.
	}

	return Outcome{Status: TerminalFailure, Reason: lastErr, Attempts: c.cfg.MaxAttempts}
}

// Backoff returns the delay before retrying after the given zero-based
// failed attempt. Ignoring jitter, delays are non-decreasing and never
// exceed MaxDelay.
func (c *Controller) Backoff(attempt int) time.Duration {
	d := c.cfg.BaseDelay << uint(attempt)
	if d > c.cfg.MaxDelay || d <= 0 {
		d = c.cfg.MaxDelay
	}

	jitter := 1 + jitterFrac*(2*rand.Float64()-1)
	return time.Duration(float64(d) * jitter)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
