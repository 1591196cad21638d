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

// embeddedTransaction is the engine-backed Transaction variant: begin,
// commit and rollback delegate straight to an in-process transaction
// handle, with no network connection and therefore no ResultCursorsHolder
// (an embedded result is consumed synchronously against the engine).
type embeddedTransaction struct {
	abstractTransaction
	handle   idb.EmbeddedTx
	onClosed func(ctx context.Context)
}

func newEmbeddedTransaction(handle idb.EmbeddedTx, onClosed func(context.Context)) *embeddedTransaction {
	tx := &embeddedTransaction{handle: handle, onClosed: onClosed}
	tx.abstractTransaction = newAbstractTransaction(tx)
	return tx
}

func (t *embeddedTransaction) doRun(ctx context.Context, cypher string, params map[string]any) (ResultWithContext, error) {
	res, err := t.handle.Run(ctx, cypher, params)
	if err != nil {
		return nil, wrapError(err)
	}
	source := &embeddedRecordSource{result: res}
	return newResultWithContext(source, Statement{Text: cypher, Parameters: params}, res.Keys(), nil), nil
}

func (t *embeddedTransaction) doCommit(ctx context.Context) error {
	return wrapError(t.handle.Commit(ctx))
}

func (t *embeddedTransaction) doRollback(ctx context.Context) error {
	return wrapError(t.handle.Rollback(ctx))
}

// notConsumedError is always nil: an embedded result is backed directly by
// the engine's own iterator with no network round trip to poison, so there
// is nothing to await before commit/rollback.
func (t *embeddedTransaction) notConsumedError(context.Context) error { return nil }

func (t *embeddedTransaction) transactionClosed(ctx context.Context) {
	if t.onClosed != nil {
		t.onClosed(ctx)
	}
}

// RunAsync is explicitly not yet wired for the embedded engine: there is no
// async cursor on the engine side to drive it with. Exposed as
// errUnsupportedEmbedded rather than guessed at.
func (t *embeddedTransaction) RunAsync(context.Context, string, map[string]any) (ResultWithContext, error) {
	return nil, errUnsupportedEmbedded
}
