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

package neo4j

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResult_Single_SucceedsOnExactlyOneRecord(t *testing.T) {
	ctx := context.Background()
	s := newTestSession(t, SessionConfig{})
	defer s.Close(ctx)

	result, err := s.Run(ctx, "RETURN 1", nil)
	require.NoError(t, err)

	rec, err := result.Single(ctx)
	require.NoError(t, err)
	require.NotNil(t, rec)
}

func TestResult_PeekRecord_DoesNotConsume(t *testing.T) {
	ctx := context.Background()
	s := newTestSession(t, SessionConfig{})
	defer s.Close(ctx)

	result, err := s.Run(ctx, "RETURN 1", nil)
	require.NoError(t, err)

	peeked, err := result.PeekRecord(ctx)
	require.NoError(t, err)
	require.True(t, result.Next(ctx))
	require.Equal(t, peeked, result.Record())
	require.False(t, result.Next(ctx))
}

func TestResult_PeekRecord_FailsPastEnd(t *testing.T) {
	ctx := context.Background()
	s := newTestSession(t, SessionConfig{})
	defer s.Close(ctx)

	result, err := s.Run(ctx, "RETURN 1", nil)
	require.NoError(t, err)
	require.True(t, result.Next(ctx))
	require.False(t, result.Next(ctx))

	_, err = result.PeekRecord(ctx)
	require.Error(t, err)
	var notFound *NoSuchRecordError
	require.ErrorAs(t, err, &notFound)
}

func TestResult_ForEach_VisitsEveryRecord(t *testing.T) {
	ctx := context.Background()
	s := newTestSession(t, SessionConfig{})
	defer s.Close(ctx)

	result, err := s.Run(ctx, "RETURN 1", nil)
	require.NoError(t, err)

	visited := 0
	err = result.ForEach(ctx, func(*Record) error {
		visited++
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 1, visited)
}

func TestResult_Consume_IsIdempotentAndCached(t *testing.T) {
	ctx := context.Background()
	s := newTestSession(t, SessionConfig{})
	defer s.Close(ctx)

	result, err := s.Run(ctx, "RETURN 1", nil)
	require.NoError(t, err)

	first, err := result.Consume(ctx)
	require.NoError(t, err)
	second, err := result.Consume(ctx)
	require.NoError(t, err)
	require.Same(t, first, second)
}

func TestResult_Consume_WithoutReadingDrainsStream(t *testing.T) {
	ctx := context.Background()
	s := newTestSession(t, SessionConfig{})
	defer s.Close(ctx)

	result, err := s.Run(ctx, "RETURN 1", nil)
	require.NoError(t, err)

	summary, err := result.Consume(ctx)
	require.NoError(t, err)
	require.Equal(t, StatementTypeReadOnly, summary.StatementType)
	require.False(t, result.Next(ctx))
}
