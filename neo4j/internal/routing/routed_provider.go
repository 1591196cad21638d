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

	idb "github.com/neo4j-drivers/gocore/neo4j/internal/db"
)

// RoutedProvider adapts a Registry into the plain idb.ConnectionProvider a
// session consumes: every Acquire first ensures the named database's
// routing table is fresh (refreshing it through the registry if needed,
// which also retains the resulting address set on the base provider) before
// delegating the actual borrow to base.
type RoutedProvider struct {
	registry  *Registry
	base      idb.ConnectionProvider
	database  string
	bookmarks func() []string
}

// NewRoutedProvider builds a provider that keeps database's routing table
// fresh on base before every acquisition. bookmarks supplies the causal
// tokens a stale-table refresh should wait on; it may be nil.
func NewRoutedProvider(registry *Registry, base idb.ConnectionProvider, database string, bookmarks func() []string) *RoutedProvider {
	return &RoutedProvider{registry: registry, base: base, database: database, bookmarks: bookmarks}
}

func (p *RoutedProvider) Acquire(ctx context.Context, mode idb.AccessMode) (idb.Connection, error) {
	var bm []string
	if p.bookmarks != nil {
		bm = p.bookmarks()
	}
	if _, err := p.registry.Handler(p.database).EnsureFreshness(ctx, mode, bm); err != nil {
		return nil, err
	}
	return p.base.Acquire(ctx, mode)
}

func (p *RoutedProvider) Return(ctx context.Context, conn idb.Connection) error {
	return p.base.Return(ctx, conn)
}

func (p *RoutedProvider) RetainAll(ctx context.Context, addresses []string) error {
	return p.base.RetainAll(ctx, addresses)
}

func (p *RoutedProvider) Close(ctx context.Context) error {
	return p.base.Close(ctx)
}

// OnConnectionFailure and OnWriteFailure let a session report a dead server
// without knowing whether routing is in play; both forward to this
// database's Handler.
func (p *RoutedProvider) OnConnectionFailure(address string) {
	p.registry.Handler(p.database).OnConnectionFailure(address)
}

func (p *RoutedProvider) OnWriteFailure(address string) {
	p.registry.Handler(p.database).OnWriteFailure(address)
}
