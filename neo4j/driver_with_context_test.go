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
)

func TestParseTarget_Bolt(t *testing.T) {
	target, err := ParseTarget("bolt://localhost")
	require.NoError(t, err)
	require.False(t, target.Routing)
	require.False(t, target.Embedded)
	require.Equal(t, "localhost", target.Host)
	require.Equal(t, DefaultBoltPort, target.Port)
}

func TestParseTarget_Neo4jWithTLSSuffixAndPort(t *testing.T) {
	target, err := ParseTarget("neo4j+s://cluster.example.com:7688")
	require.NoError(t, err)
	require.True(t, target.Routing)
	require.Equal(t, "cluster.example.com", target.Host)
	require.Equal(t, 7688, target.Port)
}

func TestParseTarget_BoltRequiresHost(t *testing.T) {
	_, err := ParseTarget("bolt://")
	require.Error(t, err)
}

func TestParseTarget_File(t *testing.T) {
	target, err := ParseTarget("file:///tmp/graph.db")
	require.NoError(t, err)
	require.True(t, target.Embedded)
	require.Equal(t, "/tmp/graph.db", target.Path)
}

func TestParseTarget_FileRejectsRelativePath(t *testing.T) {
	_, err := ParseTarget("file:relative/path")
	require.Error(t, err)
}

func TestParseTarget_FileRejectsAuth(t *testing.T) {
	_, err := ParseTarget("file:///tmp/graph.db?auth=basic")
	require.Error(t, err)
	var usage *UsageError
	require.ErrorAs(t, err, &usage)
}

func TestParseTarget_FileAllowsExplicitNoneAuth(t *testing.T) {
	target, err := ParseTarget("file:///tmp/graph.db?auth=none")
	require.NoError(t, err)
	require.True(t, target.Embedded)
}

func TestParseTarget_FileRejectsEncryption(t *testing.T) {
	_, err := ParseTarget("file:///tmp/graph.db?encrypted=true")
	require.Error(t, err)
	var usage *UsageError
	require.ErrorAs(t, err, &usage)
}

func TestParseTarget_FileRejectsCredentials(t *testing.T) {
	_, err := ParseTarget("file://user:pass@/tmp/graph.db")
	require.Error(t, err)
	var usage *UsageError
	require.ErrorAs(t, err, &usage)
}

func TestParseTarget_UnsupportedScheme(t *testing.T) {
	_, err := ParseTarget("http://example.com")
	require.Error(t, err)
}

func TestNewDriverWithContext_EmbeddedRequiresConnection(t *testing.T) {
	_, err := NewDriverWithContext("file:///tmp/graph.db")
	require.Error(t, err)
	var usage *UsageError
	require.ErrorAs(t, err, &usage)
}

func TestNewDriverWithContext_EmbeddedEndToEnd(t *testing.T) {
	ctx := context.Background()
	conn := memgraph.NewConnection("memgraph://driver-test")
	driver, err := NewDriverWithContext("file:///tmp/graph.db", WithEmbeddedConnection(conn))
	require.NoError(t, err)
	defer driver.Close(ctx)

	require.NoError(t, driver.VerifyConnectivity(ctx))

	session := driver.NewSession(ctx, SessionConfig{AccessMode: AccessModeWrite})
	defer session.Close(ctx)

	result, err := session.Run(ctx, "RETURN 1", nil)
	require.NoError(t, err)
	require.True(t, result.Next(ctx))
}

func TestDriverWithContext_Close_IsIdempotent(t *testing.T) {
	ctx := context.Background()
	conn := memgraph.NewConnection("memgraph://driver-test")
	driver, err := NewDriverWithContext("file:///tmp/graph.db", WithEmbeddedConnection(conn))
	require.NoError(t, err)
	require.NoError(t, driver.Close(ctx))
	require.NoError(t, driver.Close(ctx))
}
