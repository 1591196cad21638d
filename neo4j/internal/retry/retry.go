/*
 * Copyright (c) the gocore contributors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *      https://www.apache.org/licenses/LICENSE-2.0
 *
 *  Unless required by applicable law or agreed to in writing, software
 *  distributed under the License is distributed on an "AS IS" BASIS,
 *  WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 *  See the License for the specific language governing permissions and
 *  limitations under the License.
 */

// Package retry implements a bounded, exponentially-backed-off retry loop
// on top of github.com/cenkalti/backoff/v4's exponential backoff primitive.
package retry

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// LimitExceededError is returned when the retry budget (MaxElapsedTime,
// wall-clock) is exhausted while every observed failure was classified
// retryable. The public package wraps this into its own error taxonomy.
type LimitExceededError struct {
	Errors []error
	Causes []error
}

func (e *LimitExceededError) Error() string {
	var last error
	if len(e.Errors) > 0 {
		last = e.Errors[len(e.Errors)-1]
	}
	return fmt.Sprintf("retry budget exhausted after %d attempt(s), last error: %v", len(e.Errors), last)
}

// onEventLoop is a process-wide flag, set through MarkEventLoopGoroutine,
// letting Controller assert a deadlock-avoidance precondition: the blocking
// variant must never run on the thread that progresses I/O. Nothing in this
// module outside its tests sets it.
var onEventLoop atomic.Bool

// MarkEventLoopGoroutine sets the process-wide event-loop flag until the
// returned function is called. The flag is not tied to the calling
// goroutine: while it is set, it applies to every goroutine. Callers should
// defer the returned function to unmark it.
func MarkEventLoopGoroutine() (unmark func()) {
	onEventLoop.Store(true)
	return func() { onEventLoop.Store(false) }
}

// Controller runs a unit of work until it succeeds or its budget is
// exhausted, retrying a classified subset of failures with exponential
// backoff and jitter.
type Controller struct {
	// MaxElapsedTime bounds the whole retry loop's wall-clock duration.
	MaxElapsedTime time.Duration
	// InitialInterval is the first backoff delay.
	InitialInterval time.Duration
	// Multiplier scales the delay after each retryable failure.
	Multiplier float64
	// RandomizationFactor is the jitter fraction applied to each delay.
	RandomizationFactor float64
	// MaxInterval caps the delay the multiplier may grow it to.
	MaxInterval time.Duration

	// Retryable classifies a failure as worth retrying.
	Retryable func(error) bool
	// OnRetryableFailure is invoked between attempts, e.g. to invalidate a
	// routing table entry for a connection that just died. An error it
	// returns is recorded as a suppressed cause but does not itself abort
	// the loop.
	OnRetryableFailure func(ctx context.Context, err error) error
	// OnRetry is invoked before sleeping, for logging.
	OnRetry func(attempt int, err error, delay time.Duration)

	// Sleep performs the inter-attempt delay; defaults to a context-aware
	// blocking sleep on a timer, which blocks the goroutine running Execute.
	Sleep func(ctx context.Context, d time.Duration) error

	// RequireCallerThread, when true, makes Execute panic if invoked while
	// the process-wide event-loop flag (MarkEventLoopGoroutine) is set.
	RequireCallerThread bool
}

func defaultSleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Controller) newBackOff() *backoff.ExponentialBackOff {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.InitialInterval
	bo.Multiplier = c.Multiplier
	bo.RandomizationFactor = c.RandomizationFactor
	if c.MaxInterval > 0 {
		bo.MaxInterval = c.MaxInterval
	}
	bo.MaxElapsedTime = c.MaxElapsedTime
	bo.Reset()
	return bo
}

// Execute invokes work until it succeeds, a non-retryable failure occurs, or
// the budget is exhausted. On success it returns the result and nil. On a
// non-retryable failure it returns that failure, unwrapped. On budget
// exhaustion it returns a *LimitExceededError.
func (c *Controller) Execute(ctx context.Context, work func(ctx context.Context) (any, error)) (any, error) {
	if c.RequireCallerThread && onEventLoop.Load() {
		panic("retry.Controller.Execute must not run on an event-loop goroutine")
	}
	sleep := c.Sleep
	if sleep == nil {
		sleep = defaultSleep
	}
	bo := c.newBackOff()
	var errs, causes []error
	attempt := 0
	for {
		attempt++
		result, err := work(ctx)
		if err == nil {
			return result, nil
		}
		errs = append(errs, err)
		if c.Retryable == nil || !c.Retryable(err) {
			return nil, err
		}
		if c.OnRetryableFailure != nil {
			if cbErr := c.OnRetryableFailure(ctx, err); cbErr != nil {
				causes = append(causes, cbErr)
			}
		}
		delay := bo.NextBackOff()
		if delay == backoff.Stop {
			return nil, &LimitExceededError{Errors: errs, Causes: causes}
		}
		if c.OnRetry != nil {
			c.OnRetry(attempt, err, delay)
		}
		if err := sleep(ctx, delay); err != nil {
			return nil, err
		}
	}
}
