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

package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type sessionExpiredError struct{}

func (sessionExpiredError) Error() string { return "session expired" }

func retryableClassifier(err error) bool {
	var se sessionExpiredError
	return errors.As(err, &se)
}

func noSleep(context.Context, time.Duration) error { return nil }

func TestExecute_SucceedsFirstTry(t *testing.T) {
	calls := 0
	c := &Controller{MaxElapsedTime: time.Second, InitialInterval: time.Millisecond, Multiplier: 2, Retryable: retryableClassifier, Sleep: noSleep}
	result, err := c.Execute(context.Background(), func(context.Context) (any, error) {
		calls++
		return 42, nil
	})
	require.NoError(t, err)
	require.Equal(t, 42, result)
	require.Equal(t, 1, calls)
}

func TestExecute_RetriesUntilSuccess(t *testing.T) {
	calls := 0
	c := &Controller{MaxElapsedTime: time.Minute, InitialInterval: time.Microsecond, Multiplier: 2, Retryable: retryableClassifier, Sleep: noSleep}
	result, err := c.Execute(context.Background(), func(context.Context) (any, error) {
		calls++
		if calls <= 12 {
			return nil, sessionExpiredError{}
		}
		return 42, nil
	})
	require.NoError(t, err)
	require.Equal(t, 42, result)
	require.Equal(t, 13, calls)
}

func TestExecute_NonRetryableFailsImmediately(t *testing.T) {
	calls := 0
	c := &Controller{MaxElapsedTime: time.Minute, InitialInterval: time.Millisecond, Multiplier: 2, Retryable: retryableClassifier, Sleep: noSleep}
	_, err := c.Execute(context.Background(), func(context.Context) (any, error) {
		calls++
		return nil, errors.New("boom")
	})
	require.Error(t, err)
	require.Equal(t, 1, calls)
}

func TestExecute_BudgetExhausted(t *testing.T) {
	c := &Controller{MaxElapsedTime: time.Millisecond, InitialInterval: time.Millisecond, Multiplier: 2, Retryable: retryableClassifier, Sleep: noSleep}
	_, err := c.Execute(context.Background(), func(context.Context) (any, error) {
		return nil, sessionExpiredError{}
	})
	require.Error(t, err)
	var limit *LimitExceededError
	require.ErrorAs(t, err, &limit)
}

func TestMarkEventLoopGoroutine_PanicsOnCallerThreadRequirement(t *testing.T) {
	unmark := MarkEventLoopGoroutine()
	defer unmark()
	c := &Controller{RequireCallerThread: true, Retryable: retryableClassifier, Sleep: noSleep}
	require.Panics(t, func() {
		_, _ = c.Execute(context.Background(), func(context.Context) (any, error) { return nil, nil })
	})
}
