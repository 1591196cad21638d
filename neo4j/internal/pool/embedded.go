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

// Package pool supplies a single minimal implementation of the
// idb.ConnectionProvider contract (declared in internal/db): an in-memory provider
// for the embedded (file://) variant, which never needs to dial a socket
// or maintain a pool of more than one connection. A real bolt/routing
// ConnectionProvider's TCP/TLS plumbing is out of this core's scope.
package pool

import (
	"context"
	"sync"

	idb "github.com/neo4j-drivers/gocore/neo4j/internal/db"
)

// EmbeddedProvider hands out a single shared embedded connection; Acquire
// never blocks and Return is a no-op since there is nothing to release
// back into a socket pool.
type EmbeddedProvider struct {
	mu   sync.Mutex
	conn idb.Connection
}

// NewEmbeddedProvider wraps a single already-open embedded connection.
func NewEmbeddedProvider(conn idb.Connection) *EmbeddedProvider {
	return &EmbeddedProvider{conn: conn}
}

func (p *EmbeddedProvider) Acquire(context.Context, idb.AccessMode) (idb.Connection, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.conn == nil || !p.conn.IsOpen() {
		return nil, &poolClosedError{}
	}
	return p.conn, nil
}

func (p *EmbeddedProvider) Return(context.Context, idb.Connection) error { return nil }

// RetainAll is a no-op: there is no cluster membership for an embedded
// single-process engine to prune.
func (p *EmbeddedProvider) RetainAll(context.Context, []string) error { return nil }

func (p *EmbeddedProvider) Close(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.conn == nil {
		return nil
	}
	err := p.conn.Release(ctx)
	p.conn = nil
	return err
}

type poolClosedError struct{}

func (*poolClosedError) Error() string { return "embedded connection is closed" }
