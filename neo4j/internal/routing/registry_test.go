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

package routing

import (
	"context"
	"testing"
	"time"

	idb "github.com/neo4j-drivers/gocore/neo4j/internal/db"
	"github.com/stretchr/testify/require"
)

func TestRegistry_AllServersIsUnionOfHandlers(t *testing.T) {
	rediscoveryA := &fakeRediscovery{comp: idb.ClusterComposition{Routers: []string{"r1"}, Readers: []string{"a1"}, Writers: []string{"a1"}, TTLMillis: 60000}}
	rediscoveryB := &fakeRediscovery{comp: idb.ClusterComposition{Routers: []string{"r2"}, Readers: []string{"b1"}, Writers: []string{"b1"}, TTLMillis: 60000}}
	provider := &fakeProvider{}

	registryA := NewRegistry(rediscoveryA, provider, 0, 0, nil)
	handlerA := registryA.Handler("db-a")
	_, err := handlerA.EnsureFreshness(context.Background(), idb.ReadMode, nil)
	require.NoError(t, err)

	// Simulate a second database sharing the same registry by registering
	// a second handler directly (a registry spans every database of one
	// cluster driver).
	registryA.rediscovery = rediscoveryB
	handlerB := registryA.Handler("db-b")
	_, err = handlerB.EnsureFreshness(context.Background(), idb.ReadMode, nil)
	require.NoError(t, err)

	all := registryA.AllServers()
	require.ElementsMatch(t, []string{"r1", "a1", "r2", "b1"}, all)
}

func TestRegistry_PurgeAgedRemovesStaleHandlers(t *testing.T) {
	now := time.Now()
	clock := func() time.Time { return now }
	rediscovery := &fakeRediscovery{comp: idb.ClusterComposition{Routers: []string{"r"}, Readers: []string{"r"}, Writers: []string{"r"}, TTLMillis: 1000}}
	provider := &fakeProvider{}
	registry := NewRegistry(rediscovery, provider, time.Second, 10*time.Second, nil)
	registry.now = clock
	handler := registry.Handler("neo4j")
	handler.now = clock
	handler.table.now = clock

	_, err := handler.EnsureFreshness(context.Background(), idb.ReadMode, nil)
	require.NoError(t, err)
	require.Equal(t, 1, registry.Size())

	now = now.Add(20 * time.Second)
	registry.PurgeAged()
	require.Equal(t, 0, registry.Size())
}

func TestRegistry_RemoveDropsHandler(t *testing.T) {
	registry := NewRegistry(&fakeRediscovery{}, &fakeProvider{}, 0, 0, nil)
	registry.Handler("neo4j")
	require.Equal(t, 1, registry.Size())
	registry.Remove("neo4j")
	require.Equal(t, 0, registry.Size())
}
