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

// Package memgraph is a toy in-process stand-in for a real bolt connection:
// it satisfies idb.Connection and idb.Protocol without parsing Cypher or
// touching a socket, echoing back whatever statement and parameters it was
// asked to run. It exists so cmd/graphcli and the package's own tests have
// something concrete to drive the session/transaction stack with, without
// needing a real server.
package memgraph

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	idb "github.com/neo4j-drivers/gocore/neo4j/internal/db"
)

// Connection is a single embedded connection, open from creation until
// Release or TerminateAndRelease closes it. It is safe for
// use by one session at a time, as every idb.Connection is expected to be.
type Connection struct {
	mu       sync.Mutex
	open     bool
	bookmark string
	database string
	server   idb.ServerInfo
	counter  *atomic.Int64
}

// NewConnection builds an open connection reporting address as its server.
func NewConnection(address string) *Connection {
	return &Connection{
		open:    true,
		server:  idb.ServerInfo{Address: address, Agent: "memgraph/0", ProtocolVersion: "embedded"},
		counter: &atomic.Int64{},
	}
}

func (c *Connection) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.open
}

func (c *Connection) Protocol() idb.Protocol { return Protocol{} }

func (c *Connection) Reset(context.Context) error { return nil }

func (c *Connection) Release(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.open = false
	return nil
}

func (c *Connection) TerminateAndRelease(string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.open = false
}

func (c *Connection) Bookmark() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.bookmark
}

func (c *Connection) ServerInfo() idb.ServerInfo { return c.server }

// SelectDatabase implements idb.DatabaseSelector.
func (c *Connection) SelectDatabase(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.database = name
}

func (c *Connection) setBookmark(bm string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bookmark = bm
}

func (c *Connection) nextBookmark() string {
	return fmt.Sprintf("memgraph-bm-%d", c.counter.Add(1))
}

// stream is the idb.StreamHandle this protocol hands back from a run: one
// record echoing the statement and its parameters, followed by a summary.
type stream struct {
	record   *idb.Record
	consumed bool
	summary  *idb.Summary
}

func newStream(cmd idb.Command) *stream {
	return &stream{
		record: &idb.Record{
			Keys:   []string{"statement", "parameters"},
			Values: []any{cmd.Cypher, cmd.Params},
		},
		summary: &idb.Summary{StatementType: idb.StatementTypeReadOnly},
	}
}

// Protocol is stateless; every method takes the stream or connection it
// needs as an argument.
type Protocol struct{}

func (Protocol) BeginTransaction(context.Context, idb.Connection, []string, idb.TxConfig) (idb.TxHandle, error) {
	return struct{}{}, nil
}

func (Protocol) RunAutoCommit(_ context.Context, _ idb.Connection, cmd idb.Command, _ idb.TxConfig) (idb.StreamHandle, error) {
	return newStream(cmd), nil
}

func (Protocol) RunInExplicitTransaction(_ context.Context, _ idb.Connection, cmd idb.Command, _ idb.TxHandle) (idb.StreamHandle, error) {
	return newStream(cmd), nil
}

func (Protocol) CommitTransaction(_ context.Context, conn idb.Connection, _ idb.TxHandle) (string, error) {
	c, ok := conn.(*Connection)
	if !ok {
		return "", nil
	}
	bm := c.nextBookmark()
	c.setBookmark(bm)
	return bm, nil
}

func (Protocol) RollbackTransaction(context.Context, idb.Connection, idb.TxHandle) error {
	return nil
}

func (Protocol) Next(_ context.Context, _ idb.Connection, h idb.StreamHandle) (*idb.Record, *idb.Summary, error) {
	s := h.(*stream)
	if !s.consumed {
		s.consumed = true
		return s.record, nil, nil
	}
	return nil, s.summary, nil
}

func (Protocol) Discard(_ context.Context, _ idb.Connection, h idb.StreamHandle) (*idb.Summary, error) {
	s := h.(*stream)
	s.consumed = true
	return s.summary, nil
}
