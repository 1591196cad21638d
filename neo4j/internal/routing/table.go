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

// Package routing implements components G, H and I of the design: the
// per-database RoutingTable, the RoutingTableHandler that keeps one fresh,
// and the RoutingTableRegistry that indexes handlers by database name.
package routing

import (
	"sync"
	"time"

	idb "github.com/neo4j-drivers/gocore/neo4j/internal/db"
)

// Table is a per-database set of router/reader/writer addresses plus
// freshness metadata.
type Table struct {
	mu           sync.RWMutex
	DatabaseName string
	routers      map[string]struct{}
	readers      map[string]struct{}
	writers      map[string]struct{}
	fetchedAt    time.Time
	expiry       time.Duration
	now          func() time.Time
}

// NewTable builds an empty, already-stale table for a database.
func NewTable(database string, expiry time.Duration, now func() time.Time) *Table {
	if now == nil {
		now = time.Now
	}
	return &Table{
		DatabaseName: database,
		routers:      map[string]struct{}{},
		readers:      map[string]struct{}{},
		writers:      map[string]struct{}{},
		expiry:       expiry,
		now:          now,
	}
}

func toSet(addrs []string) map[string]struct{} {
	s := make(map[string]struct{}, len(addrs))
	for _, a := range addrs {
		s[a] = struct{}{}
	}
	return s
}

func fromSet(s map[string]struct{}) []string {
	out := make([]string, 0, len(s))
	for a := range s {
		out = append(out, a)
	}
	return out
}

// Update replaces the table's contents with a fresh cluster composition and
// resets its freshness timestamp.
func (t *Table) Update(c idb.ClusterComposition) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.routers = toSet(c.Routers)
	t.readers = toSet(c.Readers)
	t.writers = toSet(c.Writers)
	if c.TTLMillis > 0 {
		t.expiry = time.Duration(c.TTLMillis) * time.Millisecond
	}
	t.fetchedAt = t.now()
}

// IsStaleFor reports whether the address set for mode is empty, or the
// table's freshness timestamp is older than its expiry.
func (t *Table) IsStaleFor(mode idb.AccessMode) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	set := t.readers
	if mode == idb.WriteMode {
		set = t.writers
	}
	if len(set) == 0 {
		return true
	}
	if t.fetchedAt.IsZero() {
		return true
	}
	return t.now().Sub(t.fetchedAt) >= t.expiry
}

// StaleSince reports how long ago this table's last refresh passed its
// expiry, or zero if it has not expired yet; the address sets are not
// consulted. A table that was never refreshed reports its expiry.
func (t *Table) StaleSince() time.Duration {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.fetchedAt.IsZero() {
		return t.expiry
	}
	age := t.now().Sub(t.fetchedAt)
	stale := age - t.expiry
	if stale < 0 {
		return 0
	}
	return stale
}

// Servers returns the union of routers, readers and writers.
func (t *Table) Servers() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	seen := make(map[string]struct{}, len(t.routers)+len(t.readers)+len(t.writers))
	for a := range t.routers {
		seen[a] = struct{}{}
	}
	for a := range t.readers {
		seen[a] = struct{}{}
	}
	for a := range t.writers {
		seen[a] = struct{}{}
	}
	return fromSet(seen)
}

// Routers, Readers and Writers return snapshots of the three address sets.
func (t *Table) Routers() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return fromSet(t.routers)
}

func (t *Table) Readers() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return fromSet(t.readers)
}

func (t *Table) Writers() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return fromSet(t.writers)
}

// Forget removes address from every set (used by OnConnectionFailure).
func (t *Table) Forget(address string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.routers, address)
	delete(t.readers, address)
	delete(t.writers, address)
}

// ForgetWriter removes address from the writer set only (OnWriteFailure).
func (t *Table) ForgetWriter(address string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.writers, address)
}
