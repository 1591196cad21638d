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
	"testing"
	"time"

	idb "github.com/neo4j-drivers/gocore/neo4j/internal/db"
	"github.com/stretchr/testify/require"
)

func TestTable_EmptySetIsAlwaysStale(t *testing.T) {
	tbl := NewTable("neo4j", time.Minute, nil)
	require.True(t, tbl.IsStaleFor(idb.ReadMode))
	require.True(t, tbl.IsStaleFor(idb.WriteMode))
}

func TestTable_FreshAfterUpdateThenStaleAfterExpiry(t *testing.T) {
	now := time.Now()
	clock := func() time.Time { return now }
	tbl := NewTable("neo4j", time.Minute, clock)
	tbl.Update(idb.ClusterComposition{Readers: []string{"a"}, Writers: []string{"b"}, Routers: []string{"c"}, TTLMillis: 60000})
	require.False(t, tbl.IsStaleFor(idb.ReadMode))
	require.False(t, tbl.IsStaleFor(idb.WriteMode))

	now = now.Add(2 * time.Minute)
	require.True(t, tbl.IsStaleFor(idb.ReadMode))
}

func TestTable_ServersIsUnion(t *testing.T) {
	tbl := NewTable("neo4j", time.Minute, nil)
	tbl.Update(idb.ClusterComposition{Readers: []string{"a", "shared"}, Writers: []string{"b", "shared"}, Routers: []string{"c"}, TTLMillis: 60000})
	require.ElementsMatch(t, []string{"a", "b", "c", "shared"}, tbl.Servers())
}
