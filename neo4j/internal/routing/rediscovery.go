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
	"errors"

	idb "github.com/neo4j-drivers/gocore/neo4j/internal/db"
	"github.com/neo4j-drivers/gocore/neo4j/log"
	"golang.org/x/sync/errgroup"
)

// ErrNoRoutersAvailable is returned when a table carries no router address
// to even attempt rediscovery against.
var ErrNoRoutersAvailable = errors.New("routing: no routers available")

// RouterQuery is the single wire-level operation a concrete Rediscovery
// needs: ask one router for the cluster composition of database. A real
// implementation issues the routing procedure call over a connection
// borrowed from pool; wiring that connection is out of this core's scope.
type RouterQuery interface {
	Query(ctx context.Context, router string, database string, bookmarks []string) (idb.ClusterComposition, error)
}

// SequentialRediscovery implements idb.Rediscovery by asking routers in
// priority order and taking the first success: routers are not raced
// against each other, since the table's router list is already ordered by
// preference, but each individual query runs under errgroup.WithContext so
// a parent cancellation aborts it promptly instead of leaking a goroutine
// until the query's own timeout.
type SequentialRediscovery struct {
	query RouterQuery
	log   log.Logger
}

// NewSequentialRediscovery builds a Rediscovery backed by query.
func NewSequentialRediscovery(query RouterQuery, logger log.Logger) *SequentialRediscovery {
	if logger == nil {
		logger = log.Void{}
	}
	return &SequentialRediscovery{query: query, log: logger}
}

func (r *SequentialRediscovery) LookupClusterComposition(ctx context.Context, routers []string, pool idb.ConnectionProvider, database string, bookmarks []string) (idb.ClusterComposition, error) {
	if len(routers) == 0 {
		return idb.ClusterComposition{}, ErrNoRoutersAvailable
	}

	var lastErr error
	for _, router := range routers {
		g, gctx := errgroup.WithContext(ctx)
		var comp idb.ClusterComposition
		g.Go(func() error {
			c, err := r.query.Query(gctx, router, database, bookmarks)
			if err != nil {
				return err
			}
			comp = c
			return nil
		})
		if err := g.Wait(); err != nil {
			lastErr = err
			r.log.Warnf(log.Router, database, "router %s failed: %v", router, err)
			continue
		}
		return comp, nil
	}
	return idb.ClusterComposition{}, lastErr
}
