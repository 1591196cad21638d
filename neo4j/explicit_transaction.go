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

package neo4j

import (
	"context"

	idb "github.com/neo4j-drivers/gocore/neo4j/internal/db"
)

// explicitTransaction is the network-backed Transaction variant: begin,
// commit and rollback are protocol messages dispatched over a connection,
// and every cursor it produces is appended to a ResultCursorsHolder.
type explicitTransaction struct {
	abstractTransaction
	conn      idb.Connection
	protocol  idb.Protocol
	txHandle  idb.TxHandle
	fetchSize int
	cursors   resultCursorsHolder
	onClosed  func(ctx context.Context)
}

func newExplicitTransaction(conn idb.Connection, protocol idb.Protocol, txHandle idb.TxHandle, fetchSize int, onClosed func(context.Context)) *explicitTransaction {
	tx := &explicitTransaction{conn: conn, protocol: protocol, txHandle: txHandle, fetchSize: fetchSize, onClosed: onClosed}
	tx.abstractTransaction = newAbstractTransaction(tx)
	return tx
}

func (t *explicitTransaction) doRun(ctx context.Context, cypher string, params map[string]any) (ResultWithContext, error) {
	cmd := idb.Command{Cypher: cypher, Params: params, FetchSize: t.fetchSize}
	stream, err := t.protocol.RunInExplicitTransaction(ctx, t.conn, cmd, t.txHandle)
	if err != nil {
		return nil, wrapError(err)
	}
	source := &protocolRecordSource{conn: t.conn, protocol: t.protocol, stream: stream}
	cursor := newResultWithContext(source, Statement{Text: cypher, Parameters: params}, nil, nil)
	t.cursors.add(cursor)
	return cursor, nil
}

func (t *explicitTransaction) doCommit(ctx context.Context) error {
	_, err := t.protocol.CommitTransaction(ctx, t.conn, t.txHandle)
	if err != nil {
		return wrapError(err)
	}
	return nil
}

func (t *explicitTransaction) doRollback(ctx context.Context) error {
	if err := t.protocol.RollbackTransaction(ctx, t.conn, t.txHandle); err != nil {
		return wrapError(err)
	}
	return nil
}

func (t *explicitTransaction) notConsumedError(ctx context.Context) error {
	return t.cursors.retrieveNotConsumedError(ctx)
}

func (t *explicitTransaction) transactionClosed(ctx context.Context) {
	if t.onClosed != nil {
		t.onClosed(ctx)
	}
}

// managedTransaction adapts an explicitTransaction down to the restricted
// ManagedTransaction surface handed to ExecuteRead/ExecuteWrite work
// functions: the session commits or rolls back once the work function
// returns, the work function itself only gets Run.
type managedTransaction struct {
	inner *explicitTransaction
}

func (m *managedTransaction) Run(ctx context.Context, cypher string, params map[string]any) (ResultWithContext, error) {
	return m.inner.Run(ctx, cypher, params)
}
