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

// Package db declares the capability contracts this module consumes but
// does not implement: the wire protocol, the embedded in-process engine and
// the physical connection a session borrows from a pool. Concrete drivers
// (bolt, embedded) satisfy these from the outside.
package db

import "context"

// AccessMode steers which half of a cluster a statement is routed to.
type AccessMode int

const (
	ReadMode AccessMode = iota
	WriteMode
)

func (m AccessMode) String() string {
	if m == ReadMode {
		return "read"
	}
	return "write"
}

// DefaultDatabase is the sentinel database name meaning "let the server
// pick", used before home-database resolution has run.
const DefaultDatabase = ""

// TxConfig carries everything a begin/run needs to hand the server: the mode
// to route on, the bookmarks to wait on, an optional timeout and metadata,
// and an optional impersonated user.
type TxConfig struct {
	Mode             AccessMode
	Bookmarks        []string
	Timeout          int // milliseconds; 0 means "use server default"
	Meta             map[string]any
	ImpersonatedUser string
}

// Command is a statement ready for dispatch: text, parameters and how many
// records to pull per batch.
type Command struct {
	Cypher    string
	Params    map[string]any
	FetchSize int
}

// StreamHandle opaquely identifies a result stream on a connection; its
// shape is owned by the concrete Protocol implementation.
type StreamHandle any

// TxHandle opaquely identifies a server-side transaction.
type TxHandle any

// Record is one row of a result: an ordered set of field names shared across
// all records of a stream, paired with this row's values.
type Record struct {
	Keys   []string
	Values []any
}

// Get returns the value of the named field and whether it was present.
func (r *Record) Get(key string) (any, bool) {
	for i, k := range r.Keys {
		if k == key {
			return r.Values[i], true
		}
	}
	return nil, false
}

// Notification is a server-side diagnostic attached to a statement's summary.
type Notification struct {
	Code        string
	Title       string
	Description string
	Severity    string
	Position    *InputPosition
}

// InputPosition locates a notification within the original statement text.
type InputPosition struct {
	Offset int
	Line   int
	Column int
}

// PlanNode is one operator of a plan or profile tree.
type PlanNode struct {
	OperatorType string
	Identifiers  []string
	Arguments    map[string]any
	Children     []*PlanNode
	DbHits       int64
	Rows         int64
	Profiled     bool
}

// Counters reports the mutations a statement caused.
type Counters struct {
	NodesCreated         int
	NodesDeleted         int
	RelationshipsCreated int
	RelationshipsDeleted int
	PropertiesSet        int
	LabelsAdded          int
	LabelsRemoved        int
	IndexesAdded         int
	IndexesRemoved       int
	ConstraintsAdded     int
	ConstraintsRemoved   int
}

// StatementType classifies a statement for summary reporting.
type StatementType int

const (
	StatementTypeUnknown StatementType = iota
	StatementTypeReadOnly
	StatementTypeReadWrite
	StatementTypeWriteOnly
	StatementTypeSchemaWrite
)

// Summary is the terminal metadata of a fully-consumed result stream.
type Summary struct {
	StatementType StatementType
	Counters      Counters
	Notifications []Notification
	Plan          *PlanNode
	Profile       *PlanNode
	Bookmark      string
	Database      string
	Server        ServerInfo
}

// ServerInfo identifies the server that served a unit of work.
type ServerInfo struct {
	Address         string
	Agent           string
	ProtocolVersion string
}

// Connection is a single physical (or embedded) connection as seen by a
// session: protocol access, a liveness check, and best-effort termination.
type Connection interface {
	IsOpen() bool
	Protocol() Protocol
	Reset(ctx context.Context) error
	Release(ctx context.Context) error
	TerminateAndRelease(reason string)
	Bookmark() string
	ServerInfo() ServerInfo
}

// DatabaseSelector is implemented by connections whose protocol version
// supports selecting a non-default database per request.
type DatabaseSelector interface {
	SelectDatabase(name string)
}

// Protocol is the wire- (or embedded-) level capability a connection
// exposes: begin/run/commit/rollback.
type Protocol interface {
	BeginTransaction(ctx context.Context, conn Connection, bookmarks []string, config TxConfig) (TxHandle, error)
	RunAutoCommit(ctx context.Context, conn Connection, cmd Command, config TxConfig) (StreamHandle, error)
	RunInExplicitTransaction(ctx context.Context, conn Connection, cmd Command, tx TxHandle) (StreamHandle, error)
	CommitTransaction(ctx context.Context, conn Connection, tx TxHandle) (bookmark string, err error)
	RollbackTransaction(ctx context.Context, conn Connection, tx TxHandle) error

	// Next pulls the next record of a stream, or io.EOF-equivalent via ok=false
	// with a nil error once the stream and its summary have been fully received.
	Next(ctx context.Context, conn Connection, stream StreamHandle) (rec *Record, summary *Summary, err error)
	Discard(ctx context.Context, conn Connection, stream StreamHandle) (*Summary, error)
}

// CypherRunner is the embedded, in-process engine capability: direct
// execution with no wire protocol in the loop.
type CypherRunner interface {
	Execute(ctx context.Context, query string, params map[string]any) (Result, error)
	BeginTx(ctx context.Context) (EmbeddedTx, error)
}

// Result is a cursor over an embedded-engine execution, pre-protocol.
type Result interface {
	Keys() []string
	Next(ctx context.Context) (*Record, error)
	Summary(ctx context.Context) (*Summary, error)
}

// EmbeddedTx is an in-process transaction handle.
type EmbeddedTx interface {
	Run(ctx context.Context, query string, params map[string]any) (Result, error)
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// ConnectionProvider is the pool the session borrows connections from and
// returns them to; construction and TCP/TLS plumbing are out of this
// core's scope.
type ConnectionProvider interface {
	Acquire(ctx context.Context, mode AccessMode) (Connection, error)
	Return(ctx context.Context, conn Connection) error
	RetainAll(ctx context.Context, addresses []string) error
	Close(ctx context.Context) error
}

// ClusterComposition is the output of a rediscovery round: the three
// address sets plus how long they may be trusted for, in milliseconds.
type ClusterComposition struct {
	Routers      []string
	Readers      []string
	Writers      []string
	TTLMillis    int64
	DatabaseName string
}

// Rediscovery asks the cluster, through one or more routers, for a fresh
// cluster composition.
type Rediscovery interface {
	LookupClusterComposition(ctx context.Context, routers []string, pool ConnectionProvider, database string, bookmarks []string) (ClusterComposition, error)
}
