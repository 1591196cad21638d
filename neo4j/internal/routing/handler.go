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
	"fmt"
	"time"

	idb "github.com/neo4j-drivers/gocore/neo4j/internal/db"
	"github.com/neo4j-drivers/gocore/neo4j/log"
	"golang.org/x/sync/singleflight"
)

// DefaultPurgeTimeout is the fixed 30 second purge timeout used unless a
// registry is configured otherwise.
const DefaultPurgeTimeout = 30 * time.Second

// Handler coordinates refresh of one database's routing table: it
// deduplicates concurrent refreshes with its own singleflight.Group (one
// key, since a handler serves a single database), drives rediscovery,
// purges dead connections and removes the table on lookup failure.
type Handler struct {
	database    string
	table       *Table
	registry    *Registry
	rediscovery idb.Rediscovery
	pool        idb.ConnectionProvider
	group       singleflight.Group
	purgeAfter  time.Duration
	log         log.Logger
	now         func() time.Time
}

func newHandler(database string, expiry time.Duration, registry *Registry, rediscovery idb.Rediscovery, pool idb.ConnectionProvider, purgeAfter time.Duration, logger log.Logger, now func() time.Time) *Handler {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = log.Void{}
	}
	return &Handler{
		database:    database,
		table:       NewTable(database, expiry, now),
		registry:    registry,
		rediscovery: rediscovery,
		pool:        pool,
		purgeAfter:  purgeAfter,
		log:         logger,
		now:         now,
	}
}

// Table returns the handler's current routing table (a live, mutable
// pointer: callers must not retain addresses past a subsequent refresh
// without re-reading).
func (h *Handler) Table() *Table { return h.table }

// EnsureFreshness returns the table for mode, refreshing it first if it is
// stale. At most one rediscovery is in flight per handler at any instant:
// concurrent callers requesting a refresh on the same database collapse
// onto the same singleflight call and observe the same resulting table.
func (h *Handler) EnsureFreshness(ctx context.Context, mode idb.AccessMode, bookmarks []string) (*Table, error) {
	if !h.table.IsStaleFor(mode) {
		return h.table, nil
	}
	v, err, _ := h.group.Do("refresh", func() (any, error) {
		return h.rediscover(ctx, bookmarks)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Table), nil
}

// rediscover asks the rediscovery capability for a fresh cluster
// composition using the table's current router set: on success, updates
// the table, purges the registry, retains the union of all registry
// servers on the pool; on failure, removes this handler from the registry.
func (h *Handler) rediscover(ctx context.Context, bookmarks []string) (*Table, error) {
	routers := h.table.Routers()
	composition, err := h.rediscovery.LookupClusterComposition(ctx, routers, h.pool, h.database, bookmarks)
	if err != nil {
		h.log.Error(log.Router, h.database, fmt.Errorf("rediscovery failed for database %q: %w", h.database, err))
		h.registry.Remove(h.database)
		return nil, err
	}
	h.table.Update(composition)
	h.registry.PurgeAged()
	if err := h.pool.RetainAll(ctx, h.registry.AllServers()); err != nil {
		h.log.Warnf(log.Router, h.database, "retainAll failed: %v", err)
	}
	return h.table, nil
}

// OnConnectionFailure forgets address from readers, writers and routers.
func (h *Handler) OnConnectionFailure(address string) {
	h.table.Forget(address)
}

// OnWriteFailure removes address from writers only.
func (h *Handler) OnWriteFailure(address string) {
	h.table.ForgetWriter(address)
}

// IsStale reports whether the table has been stale for at least the purge
// timeout (Table.StaleSince); the registry uses this to decide what to
// purge. Whether a refresh is in flight is not taken into account.
func (h *Handler) IsStale() bool {
	return h.table.StaleSince() >= h.purgeAfter
}
