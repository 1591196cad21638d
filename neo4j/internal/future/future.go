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

// Package future gives the session's async API a single-result future
// backed by a goroutine and an unbuffered channel that is closed on
// completion, as a reusable type.
package future

import "context"

// Future is a single-producer, single-value result that may be read more
// than once; the value is computed exactly once regardless of how many
// times Get is called.
type Future[T any] struct {
	done chan struct{}
	val  T
	err  error
}

// New starts fn on a new goroutine and returns a Future that resolves to its
// result.
func New[T any](fn func() (T, error)) *Future[T] {
	f := &Future[T]{done: make(chan struct{})}
	go func() {
		f.val, f.err = fn()
		close(f.done)
	}()
	return f
}

// Resolved returns a Future already holding val/err, for call sites that
// need to hand back a future-shaped result without spawning a goroutine.
func Resolved[T any](val T, err error) *Future[T] {
	f := &Future[T]{done: make(chan struct{}), val: val, err: err}
	close(f.done)
	return f
}

// Get blocks until the future resolves or ctx is cancelled, whichever comes
// first. A context cancellation never poisons the future: a later Get call
// (with a fresh context) still observes the eventual result.
func (f *Future[T]) Get(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.val, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Done reports whether the future has resolved, without blocking.
func (f *Future[T]) Done() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}
