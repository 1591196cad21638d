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

import "sync/atomic"

// transactionState is the six-state lifecycle shared by every transaction
// variant. Committed and RolledBack are terminal; Terminated is reachable
// from any non-terminal state and only rollback (or a no-op on an
// already-rolled-back transaction) may follow it.
type transactionState int32

const (
	txActive transactionState = iota
	txMarkedSuccess
	txMarkedFailure
	txTerminated
	txCommitted
	txRolledBack
)

func (s transactionState) String() string {
	switch s {
	case txActive:
		return "Active"
	case txMarkedSuccess:
		return "MarkedSuccess"
	case txMarkedFailure:
		return "MarkedFailure"
	case txTerminated:
		return "Terminated"
	case txCommitted:
		return "Committed"
	case txRolledBack:
		return "RolledBack"
	default:
		return "Unknown"
	}
}

func (s transactionState) isTerminal() bool {
	return s == txCommitted || s == txRolledBack
}

// txStateMachine wraps the atomic state cell shared by explicitTransaction
// and embeddedTransaction, favoring composition over inheritance so both
// variants enforce the same guards without duplicating them.
type txStateMachine struct {
	state atomic.Int32
}

func newTxStateMachine() *txStateMachine {
	m := &txStateMachine{}
	m.state.Store(int32(txActive))
	return m
}

func (m *txStateMachine) get() transactionState {
	return transactionState(m.state.Load())
}

// success transitions Active -> MarkedSuccess; no-op otherwise.
func (m *txStateMachine) success() {
	m.state.CompareAndSwap(int32(txActive), int32(txMarkedSuccess))
}

// failure transitions {Active, MarkedSuccess} -> MarkedFailure; no-op
// otherwise.
func (m *txStateMachine) failure() {
	for {
		cur := m.state.Load()
		if transactionState(cur) != txActive && transactionState(cur) != txMarkedSuccess {
			return
		}
		if m.state.CompareAndSwap(cur, int32(txMarkedFailure)) {
			return
		}
	}
}

// markTerminated transitions any non-terminal state to Terminated; no-op on
// a state that is already terminal.
func (m *txStateMachine) markTerminated() {
	for {
		cur := transactionState(m.state.Load())
		if cur.isTerminal() {
			return
		}
		if m.state.CompareAndSwap(int32(cur), int32(txTerminated)) {
			return
		}
	}
}

// ensureCanCommit applies the commit guard: RolledBack -> error,
// Committed -> (alreadyDone=true, nil), Terminated -> error, otherwise ok.
func (m *txStateMachine) ensureCanCommit() (alreadyDone bool, err error) {
	switch m.get() {
	case txRolledBack:
		return false, &UsageError{Message: "cannot commit a rolled back transaction"}
	case txCommitted:
		return true, nil
	case txTerminated:
		return false, &UsageError{Message: "transaction can't be committed"}
	default:
		return false, nil
	}
}

// ensureCanRollback applies the rollback guard: Committed -> error,
// {Terminated, RolledBack} -> (alreadyDone=true, nil), otherwise ok.
func (m *txStateMachine) ensureCanRollback() (alreadyDone bool, err error) {
	switch m.get() {
	case txCommitted:
		return false, &UsageError{Message: "cannot rollback a committed transaction"}
	case txTerminated, txRolledBack:
		return true, nil
	default:
		return false, nil
	}
}

// ensureCanRunQueries applies the run guard: any of Committed, RolledBack,
// MarkedFailure, Terminated forbids running further statements.
func (m *txStateMachine) ensureCanRunQueries() error {
	switch m.get() {
	case txCommitted:
		return &UsageError{Message: "cannot run a query in a committed transaction"}
	case txRolledBack:
		return &UsageError{Message: "cannot run a query in a rolled back transaction"}
	case txMarkedFailure:
		return &UsageError{Message: "cannot run a query in a transaction marked for failure"}
	case txTerminated:
		return &UsageError{Message: "cannot run a query in a terminated transaction"}
	default:
		return nil
	}
}

// closeAction tells Close() whether the close()/commitOrRollback dance
// should commit, roll back, or do nothing because the state is already
// terminal.
type closeAction int

const (
	closeCommit closeAction = iota
	closeRollback
	closeNoop
)

func (m *txStateMachine) closeAction() closeAction {
	switch m.get() {
	case txMarkedSuccess:
		return closeCommit
	case txCommitted, txRolledBack:
		return closeNoop
	default:
		return closeRollback
	}
}
