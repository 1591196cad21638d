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
	"sync"
	"time"

	idb "github.com/neo4j-drivers/gocore/neo4j/internal/db"
	"github.com/neo4j-drivers/gocore/neo4j/log"
)

// Registry is a concurrent map from database name to Handler. It reports
// the union of server addresses across every handler it knows about and
// removes handlers whose table has gone stale for at least the purge
// timeout.
type Registry struct {
	mu          sync.RWMutex
	handlers    map[string]*Handler
	rediscovery idb.Rediscovery
	pool        idb.ConnectionProvider
	tableExpiry time.Duration
	purgeAfter  time.Duration
	log         log.Logger
	now         func() time.Time
}

// NewRegistry builds an empty registry. purgeAfter defaults to
// DefaultPurgeTimeout (30s) when zero.
func NewRegistry(rediscovery idb.Rediscovery, pool idb.ConnectionProvider, tableExpiry, purgeAfter time.Duration, logger log.Logger) *Registry {
	if purgeAfter == 0 {
		purgeAfter = DefaultPurgeTimeout
	}
	if logger == nil {
		logger = log.Void{}
	}
	return &Registry{
		handlers:    map[string]*Handler{},
		rediscovery: rediscovery,
		pool:        pool,
		tableExpiry: tableExpiry,
		purgeAfter:  purgeAfter,
		log:         logger,
		now:         time.Now,
	}
}

// Handler returns the handler for database, creating one (with an already-
// stale empty table) the first time it is requested.
func (r *Registry) Handler(database string) *Handler {
	r.mu.RLock()
	h, ok := r.handlers[database]
	r.mu.RUnlock()
	if ok {
		return h
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if h, ok := r.handlers[database]; ok {
		return h
	}
	h = newHandler(database, r.tableExpiry, r, r.rediscovery, r.pool, r.purgeAfter, r.log, r.now)
	r.handlers[database] = h
	return h
}

// Remove drops a handler, e.g. after a failed routing-table lookup.
func (r *Registry) Remove(database string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.handlers, database)
}

// AllServers returns the best-effort union of Servers() over every known
// handler.
func (r *Registry) AllServers() []string {
	r.mu.RLock()
	handlers := make([]*Handler, 0, len(r.handlers))
	for _, h := range r.handlers {
		handlers = append(handlers, h)
	}
	r.mu.RUnlock()

	seen := map[string]struct{}{}
	out := make([]string, 0)
	for _, h := range handlers {
		for _, addr := range h.Table().Servers() {
			if _, ok := seen[addr]; !ok {
				seen[addr] = struct{}{}
				out = append(out, addr)
			}
		}
	}
	return out
}

// PurgeAged removes every handler whose table IsStale() is true.
func (r *Registry) PurgeAged() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for db, h := range r.handlers {
		if h.IsStale() {
			delete(r.handlers, db)
		}
	}
}

// Size reports how many databases are currently tracked; used by tests.
func (r *Registry) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.handlers)
}
