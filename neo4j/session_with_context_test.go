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

	"github.com/neo4j-drivers/gocore/neo4j/internal/memgraph"
	"github.com/neo4j-drivers/gocore/neo4j/internal/pool"
)

func newTestSession(t *testing.T, sessConfig SessionConfig) *sessionWithContext {
	t.Helper()
	conn := memgraph.NewConnection("memgraph://test")
	provider := pool.NewEmbeddedProvider(conn)
	return newSessionWithContext(defaultConfig(), sessConfig, provider, nil)
}

func TestSession_Run_ReturnsEchoedRecord(t *testing.T) {
	ctx := context.Background()
	s := newTestSession(t, SessionConfig{})
	defer s.Close(ctx)

	result, err := s.Run(ctx, "RETURN 1 AS n", map[string]any{"n": 1})
	require.NoError(t, err)
	require.True(t, result.Next(ctx))
	require.Equal(t, "RETURN 1 AS n", result.Record().Values[0])
	require.False(t, result.Next(ctx))
	require.NoError(t, result.Err())

	summary, err := result.Consume(ctx)
	require.NoError(t, err)
	require.Equal(t, StatementTypeReadOnly, summary.StatementType)
}

func TestSession_Run_RejectsOverlapWithOpenExplicitTransaction(t *testing.T) {
	ctx := context.Background()
	s := newTestSession(t, SessionConfig{})
	defer s.Close(ctx)

	tx, err := s.BeginTransaction(ctx)
	require.NoError(t, err)
	defer tx.Close(ctx)

	_, err = s.Run(ctx, "RETURN 1", nil)
	require.Error(t, err)
	var usage *UsageError
	require.ErrorAs(t, err, &usage)
}

func TestSession_BeginTransaction_CommitSetsBookmark(t *testing.T) {
	ctx := context.Background()
	s := newTestSession(t, SessionConfig{})
	defer s.Close(ctx)

	require.True(t, s.LastBookmarks().IsEmpty())

	tx, err := s.BeginTransaction(ctx)
	require.NoError(t, err)
	_, err = tx.Run(ctx, "CREATE (n)", nil)
	require.NoError(t, err)
	require.NoError(t, tx.Commit(ctx))

	last, ok := s.LastBookmarks().LastBookmark()
	require.True(t, ok)
	require.NotEmpty(t, last)
}

func TestSession_ExecuteWrite_CommitsOnSuccess(t *testing.T) {
	ctx := context.Background()
	s := newTestSession(t, SessionConfig{})
	defer s.Close(ctx)

	result, err := s.ExecuteWrite(ctx, func(tx ManagedTransaction) (any, error) {
		cursor, err := tx.Run(ctx, "CREATE (n) RETURN n", nil)
		if err != nil {
			return nil, err
		}
		records, err := cursor.Collect(ctx)
		if err != nil {
			return nil, err
		}
		return len(records), nil
	})
	require.NoError(t, err)
	require.Equal(t, 1, result)
}

func TestSession_ExecuteWrite_RollsBackOnWorkError(t *testing.T) {
	ctx := context.Background()
	s := newTestSession(t, SessionConfig{})
	defer s.Close(ctx)

	boom := &UsageError{Message: "boom"}
	_, err := s.ExecuteWrite(ctx, func(tx ManagedTransaction) (any, error) {
		return nil, boom
	})
	require.ErrorIs(t, err, boom)
}

func TestSession_Close_IsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := newTestSession(t, SessionConfig{})
	require.NoError(t, s.Close(ctx))
	require.NoError(t, s.Close(ctx))
	require.False(t, s.IsOpen())
}

func TestSession_OperationsFailAfterClose(t *testing.T) {
	ctx := context.Background()
	s := newTestSession(t, SessionConfig{})
	require.NoError(t, s.Close(ctx))

	_, err := s.Run(ctx, "RETURN 1", nil)
	require.Error(t, err)
	var usage *UsageError
	require.ErrorAs(t, err, &usage)
}

func TestSession_Reset_TerminatesOpenTransaction(t *testing.T) {
	ctx := context.Background()
	s := newTestSession(t, SessionConfig{})
	defer s.Close(ctx)

	tx, err := s.BeginTransaction(ctx)
	require.NoError(t, err)
	require.NoError(t, s.Reset(ctx))
	require.Equal(t, txTerminated, tx.(*explicitTransaction).state())
}
