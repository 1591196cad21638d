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
	"errors"
	"fmt"
)

// ManagedTransaction is the reduced contract handed to a
// ExecuteRead/ExecuteWrite work function: it may run statements but
// may not commit, rollback or close itself — the session does that once the
// work function returns.
type ManagedTransaction interface {
	Run(ctx context.Context, cypher string, params map[string]any) (ResultWithContext, error)
}

// ExplicitTransaction is a transaction whose commit/rollback is driven by
// the caller, returned by SessionWithContext.BeginTransaction.
type ExplicitTransaction interface {
	ManagedTransaction
	Success()
	Failure()
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
	Close(ctx context.Context) error
}

// terminator is implemented by every transaction variant so the owning
// session can force termination (reset()) without knowing which variant it
// holds.
type terminator interface {
	markTerminated()
	state() transactionState
}

var errUnsupportedEmbedded = fmt.Errorf("async statements against the embedded engine: %w", errors.ErrUnsupported)

// doer is the operations that differ between the network-backed and
// embedded-backed variants; the shared state machine and guard logic live
// once in abstractTransaction and call back into doer.
type doer interface {
	doRun(ctx context.Context, cypher string, params map[string]any) (ResultWithContext, error)
	doCommit(ctx context.Context) error
	doRollback(ctx context.Context) error
	// notConsumedError awaits any cursors this transaction produced and
	// returns the first failure, per the ResultCursorsHolder contract.
	notConsumedError(ctx context.Context) error
	// transactionClosed is invoked once, after a successful commit or
	// rollback, to release the connection and clear the owning session's
	// reference to this transaction.
	transactionClosed(ctx context.Context)
}

// abstractTransaction carries the six-state transaction lifecycle and
// implements the commit/rollback/close/run guards once; concrete variants
// supply doRun/doCommit/doRollback/transactionClosed. Composition over
// inheritance, so the explicit and embedded variants share one state
// machine instead of duplicating its guards.
type abstractTransaction struct {
	machine *txStateMachine
	d       doer
}

func newAbstractTransaction(d doer) abstractTransaction {
	return abstractTransaction{machine: newTxStateMachine(), d: d}
}

func (t *abstractTransaction) state() transactionState { return t.machine.get() }

func (t *abstractTransaction) markTerminated() { t.machine.markTerminated() }

func (t *abstractTransaction) Success() { t.machine.success() }

func (t *abstractTransaction) Failure() { t.machine.failure() }

func (t *abstractTransaction) Run(ctx context.Context, cypher string, params map[string]any) (ResultWithContext, error) {
	if err := t.machine.ensureCanRunQueries(); err != nil {
		return nil, err
	}
	return t.d.doRun(ctx, cypher, params)
}

// Commit fails if the transaction was rolled back or terminated, no-ops if
// already committed, and otherwise retrieves any unconsumed cursor error,
// performs the commit, and transitions to Committed. Errors from the
// commit and from the cursor are combined: cursor error first, commit
// error added as a suppressed cause.
func (t *abstractTransaction) Commit(ctx context.Context) error {
	alreadyDone, err := t.machine.ensureCanCommit()
	if err != nil {
		return err
	}
	if alreadyDone {
		return nil
	}
	cursorErr := t.d.notConsumedError(ctx)
	commitErr := t.d.doCommit(ctx)
	combined := combineErrors(cursorErr, commitErr)
	if commitErr == nil {
		t.machine.state.Store(int32(txCommitted))
	} else {
		t.machine.markTerminated()
	}
	t.d.transactionClosed(ctx)
	return combined
}

// Rollback fails if the transaction was committed and no-ops if already
// rolled back. A terminated transaction (conceptually already rolled back)
// gets a best-effort rollback whose error is ignored, then transitions to
// RolledBack and is released; nil is returned. Otherwise it retrieves any
// unconsumed cursor error, performs the rollback, and transitions to
// RolledBack.
func (t *abstractTransaction) Rollback(ctx context.Context) error {
	alreadyDone, err := t.machine.ensureCanRollback()
	if err != nil {
		return err
	}
	if alreadyDone {
		if t.machine.get() == txTerminated {
			_ = t.d.doRollback(ctx)
			t.machine.state.Store(int32(txRolledBack))
			t.d.transactionClosed(ctx)
		}
		return nil
	}
	cursorErr := t.d.notConsumedError(ctx)
	rollbackErr := t.d.doRollback(ctx)
	combined := combineErrors(cursorErr, rollbackErr)
	t.machine.state.Store(int32(txRolledBack))
	t.d.transactionClosed(ctx)
	return combined
}

// Close commits if the transaction was marked for success, rolls back
// otherwise, and is a no-op if already terminal.
func (t *abstractTransaction) Close(ctx context.Context) error {
	switch t.machine.closeAction() {
	case closeCommit:
		return t.Commit(ctx)
	case closeRollback:
		return t.Rollback(ctx)
	default:
		return nil
	}
}
