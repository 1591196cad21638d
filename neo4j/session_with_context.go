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
	"time"

	idb "github.com/neo4j-drivers/gocore/neo4j/internal/db"
	"github.com/neo4j-drivers/gocore/neo4j/internal/future"
	"github.com/neo4j-drivers/gocore/neo4j/internal/retry"
	"github.com/neo4j-drivers/gocore/neo4j/log"
)

// ManagedTransactionWork is the unit of work run inside a fresh, retried
// transaction by ExecuteRead/ExecuteWrite.
type ManagedTransactionWork func(tx ManagedTransaction) (any, error)

// SessionWithContext is a serial cursor over the database: at most one
// transaction and at most one auto-commit result may be outstanding at a
// time. A session is not safe for concurrent use by more than one
// goroutine, except for Reset, which is meant to be called from a separate
// goroutine to interrupt work in progress.
type SessionWithContext interface {
	// LastBookmarks returns the session's current bookmark set: the
	// initial set, or whatever the server returned after the last
	// successfully committed transaction or consumed auto-commit result.
	LastBookmarks() Bookmarks
	// Run executes an auto-commit statement and returns a cursor over it.
	Run(ctx context.Context, cypher string, params map[string]any, configurers ...func(*TransactionConfig)) (ResultWithContext, error)
	// RunAsync is the non-blocking form of Run.
	RunAsync(ctx context.Context, cypher string, params map[string]any, configurers ...func(*TransactionConfig)) *future.Future[ResultWithContext]
	// BeginTransaction opens a new explicit transaction on this session.
	BeginTransaction(ctx context.Context, configurers ...func(*TransactionConfig)) (ExplicitTransaction, error)
	BeginTransactionAsync(ctx context.Context, configurers ...func(*TransactionConfig)) *future.Future[ExplicitTransaction]
	// ExecuteRead and ExecuteWrite run work inside a fresh transaction
	// under the retry controller, committing on success and rolling back
	// on failure before possibly retrying.
	ExecuteRead(ctx context.Context, work ManagedTransactionWork, configurers ...func(*TransactionConfig)) (any, error)
	ExecuteWrite(ctx context.Context, work ManagedTransactionWork, configurers ...func(*TransactionConfig)) (any, error)
	ExecuteReadAsync(ctx context.Context, work ManagedTransactionWork, configurers ...func(*TransactionConfig)) *future.Future[any]
	ExecuteWriteAsync(ctx context.Context, work ManagedTransactionWork, configurers ...func(*TransactionConfig)) *future.Future[any]
	// Reset best-effort interrupts work in progress: any open transaction
	// is marked Terminated and the connection is asked to reset. Safe to
	// call from a goroutine other than the one driving the session.
	Reset(ctx context.Context) error
	// Close drains and closes any open transaction/cursor and releases
	// the connection. Idempotent.
	Close(ctx context.Context) error
	CloseAsync(ctx context.Context) *future.Future[any]
	IsOpen() bool
}

// autocommitUnit is the pending auto-commit cursor a session keeps around
// just long enough to drain it before the next operation on the session.
type autocommitUnit struct {
	conn   idb.Connection
	cursor *resultWithContext
}

type sessionWithContext struct {
	config           *Config
	defaultMode      idb.AccessMode
	pool             idb.ConnectionProvider
	databaseName     string
	impersonatedUser string
	fetchSize        int

	bookmarks Bookmarks
	closed    bool

	conn           idb.Connection
	explicitTx     *explicitTransaction
	autocommit     *autocommitUnit
	retry          *retry.Controller
	lastFailedAddr string

	logId string
	log   log.Logger
}

// failureReporter is implemented by routing-aware connection providers
// (routing.RoutedProvider) so a session can report a dead server without
// knowing whether routing is in play at all.
type failureReporter interface {
	OnConnectionFailure(address string)
	OnWriteFailure(address string)
}

func newSessionWithContext(config *Config, sessConfig SessionConfig, pool idb.ConnectionProvider, logger log.Logger) *sessionWithContext {
	if logger == nil {
		logger = log.Void{}
	}
	logId := log.NewId()
	logger.Debugf(log.Session, logId, "session created")

	fetchSize := config.FetchSize
	if sessConfig.FetchSize != FetchDefault {
		fetchSize = sessConfig.FetchSize
	}

	s := &sessionWithContext{
		config:           config,
		defaultMode:      toInternalMode(sessConfig.AccessMode),
		pool:             pool,
		databaseName:     sessConfig.DatabaseName,
		impersonatedUser: sessConfig.ImpersonatedUser,
		fetchSize:        fetchSize,
		bookmarks:        sessConfig.Bookmarks,
		logId:            logId,
		log:              logger,
	}
	s.retry = &retry.Controller{
		MaxElapsedTime:      config.MaxTransactionRetryTime,
		InitialInterval:     time.Second,
		Multiplier:          2.0,
		RandomizationFactor: 0.2,
		MaxInterval:         config.MaxTransactionRetryTime,
		Retryable:           IsRetryable,
		RequireCallerThread: true,
		OnRetryableFailure: func(ctx context.Context, err error) error {
			reporter, ok := s.pool.(failureReporter)
			if !ok || s.lastFailedAddr == "" {
				return nil
			}
			if Classify(err) == ClassificationSessionExpired {
				reporter.OnWriteFailure(s.lastFailedAddr)
			} else {
				reporter.OnConnectionFailure(s.lastFailedAddr)
			}
			return nil
		},
		OnRetry: func(attempt int, err error, delay time.Duration) {
			logger.Warnf(log.Retry, logId, "attempt %d failed (%v), retrying in %s", attempt, err, delay)
		},
	}
	return s
}

func (s *sessionWithContext) ensureOpen() error {
	if s.closed {
		return &UsageError{Message: "session is closed"}
	}
	return nil
}

// drainPrevious awaits the pending auto-commit cursor's failure and
// re-throws it so the next operation fails fast instead of inheriting a
// poisoned connection, then returns its connection to the pool.
func (s *sessionWithContext) drainPrevious(ctx context.Context) error {
	if s.autocommit == nil {
		return nil
	}
	unit := s.autocommit
	s.autocommit = nil
	_, err := unit.cursor.Consume(ctx)
	s.retrieveBookmarks(unit.conn)
	_ = s.pool.Return(ctx, unit.conn)
	if unit.conn == s.conn {
		s.conn = nil
	}
	return err
}

func (s *sessionWithContext) acquire(ctx context.Context, mode idb.AccessMode) (idb.Connection, error) {
	conn, err := s.pool.Acquire(ctx, mode)
	if err != nil {
		return nil, wrapError(err)
	}
	if s.databaseName != idb.DefaultDatabase {
		if selector, ok := conn.(idb.DatabaseSelector); ok {
			selector.SelectDatabase(s.databaseName)
		} else {
			_ = s.pool.Return(ctx, conn)
			return nil, &UsageError{Message: "server does not support multi-database"}
		}
	}
	return conn, nil
}

func (s *sessionWithContext) retrieveBookmarks(conn idb.Connection) {
	if conn == nil {
		return
	}
	if bm := conn.Bookmark(); bm != "" {
		s.bookmarks = BookmarksFromRawValues(bm)
	}
}

func (s *sessionWithContext) LastBookmarks() Bookmarks {
	if s.autocommit != nil {
		s.retrieveBookmarks(s.autocommit.conn)
	}
	return s.bookmarks
}

func (s *sessionWithContext) IsOpen() bool {
	return !s.closed
}

// Run runs an auto-commit statement: reject overlap with an open explicit
// transaction, drain whatever auto-commit cursor is still pending, then
// dispatch.
func (s *sessionWithContext) Run(ctx context.Context, cypher string, params map[string]any, configurers ...func(*TransactionConfig)) (ResultWithContext, error) {
	if err := s.ensureOpen(); err != nil {
		return nil, err
	}
	if s.explicitTx != nil && !s.explicitTx.state().isTerminal() {
		err := &UsageError{Message: "trying to run an auto-commit statement while an explicit transaction is open"}
		s.log.Error(log.Session, s.logId, err)
		return nil, err
	}
	if err := s.drainPrevious(ctx); err != nil {
		return nil, err
	}

	config := defaultTransactionConfig()
	for _, c := range configurers {
		c(&config)
	}
	if err := validateTransactionConfig(config); err != nil {
		return nil, err
	}

	conn, err := s.acquireWithInterruptHandling(ctx, s.defaultMode)
	if err != nil {
		return nil, err
	}

	protocol := conn.Protocol()
	cmd := idb.Command{Cypher: cypher, Params: params, FetchSize: s.fetchSize}
	txConfig := idb.TxConfig{
		Mode:             s.defaultMode,
		Bookmarks:        s.bookmarks.Values(),
		Timeout:          config.timeoutMillis(),
		Meta:             config.Metadata,
		ImpersonatedUser: s.impersonatedUser,
	}
	stream, err := protocol.RunAutoCommit(ctx, conn, cmd, txConfig)
	if err != nil {
		_ = s.pool.Return(ctx, conn)
		return nil, wrapError(err)
	}

	s.conn = conn
	cursor := newResultWithContext(&protocolRecordSource{conn: conn, protocol: protocol, stream: stream}, Statement{Text: cypher, Parameters: params}, nil, nil)
	s.autocommit = &autocommitUnit{conn: conn, cursor: cursor}
	return cursor, nil
}

// RunAsync dispatches Run on a new goroutine, joined through the future
// package's goroutine+channel wrapper.
func (s *sessionWithContext) RunAsync(ctx context.Context, cypher string, params map[string]any, configurers ...func(*TransactionConfig)) *future.Future[ResultWithContext] {
	return future.New(func() (ResultWithContext, error) {
		return s.Run(ctx, cypher, params, configurers...)
	})
}

func (s *sessionWithContext) BeginTransaction(ctx context.Context, configurers ...func(*TransactionConfig)) (ExplicitTransaction, error) {
	if err := s.ensureOpen(); err != nil {
		return nil, err
	}
	if s.explicitTx != nil && !s.explicitTx.state().isTerminal() {
		err := &UsageError{Message: "session already has an open transaction"}
		s.log.Error(log.Session, s.logId, err)
		return nil, err
	}
	if err := s.drainPrevious(ctx); err != nil {
		return nil, err
	}

	config := defaultTransactionConfig()
	for _, c := range configurers {
		c(&config)
	}
	if err := validateTransactionConfig(config); err != nil {
		return nil, err
	}

	conn, err := s.acquireWithInterruptHandling(ctx, s.defaultMode)
	if err != nil {
		return nil, err
	}

	protocol := conn.Protocol()
	txHandle, err := protocol.BeginTransaction(ctx, conn, s.bookmarks.Values(), idb.TxConfig{
		Mode:             s.defaultMode,
		Bookmarks:        s.bookmarks.Values(),
		Timeout:          config.timeoutMillis(),
		Meta:             config.Metadata,
		ImpersonatedUser: s.impersonatedUser,
	})
	if err != nil {
		_ = s.pool.Return(ctx, conn)
		return nil, wrapError(err)
	}

	s.conn = conn
	tx := newExplicitTransaction(conn, protocol, txHandle, s.fetchSize, func(ctx context.Context) {
		s.retrieveBookmarks(conn)
		_ = s.pool.Return(ctx, conn)
		if s.conn == conn {
			s.conn = nil
		}
		s.explicitTx = nil
	})
	s.explicitTx = tx
	return tx, nil
}

func (s *sessionWithContext) BeginTransactionAsync(ctx context.Context, configurers ...func(*TransactionConfig)) *future.Future[ExplicitTransaction] {
	return future.New(func() (ExplicitTransaction, error) {
		return s.BeginTransaction(ctx, configurers...)
	})
}

func (s *sessionWithContext) ExecuteRead(ctx context.Context, work ManagedTransactionWork, configurers ...func(*TransactionConfig)) (any, error) {
	return s.executeTransactionFunction(ctx, idb.ReadMode, work, configurers...)
}

func (s *sessionWithContext) ExecuteWrite(ctx context.Context, work ManagedTransactionWork, configurers ...func(*TransactionConfig)) (any, error) {
	return s.executeTransactionFunction(ctx, idb.WriteMode, work, configurers...)
}

func (s *sessionWithContext) ExecuteReadAsync(ctx context.Context, work ManagedTransactionWork, configurers ...func(*TransactionConfig)) *future.Future[any] {
	return future.New(func() (any, error) { return s.ExecuteRead(ctx, work, configurers...) })
}

func (s *sessionWithContext) ExecuteWriteAsync(ctx context.Context, work ManagedTransactionWork, configurers ...func(*TransactionConfig)) *future.Future[any] {
	return future.New(func() (any, error) { return s.ExecuteWrite(ctx, work, configurers...) })
}

func (s *sessionWithContext) executeTransactionFunction(ctx context.Context, mode idb.AccessMode, work ManagedTransactionWork, configurers ...func(*TransactionConfig)) (any, error) {
	if err := s.ensureOpen(); err != nil {
		return nil, err
	}
	if s.explicitTx != nil && !s.explicitTx.state().isTerminal() {
		return nil, &UsageError{Message: "session already has an open transaction"}
	}
	if err := s.drainPrevious(ctx); err != nil {
		return nil, err
	}

	config := defaultTransactionConfig()
	for _, c := range configurers {
		c(&config)
	}
	if err := validateTransactionConfig(config); err != nil {
		return nil, err
	}

	result, err := s.retry.Execute(ctx, func(ctx context.Context) (any, error) {
		return s.attemptOnce(ctx, mode, config, work)
	})
	if err != nil {
		var limit *retry.LimitExceededError
		if errors.As(err, &limit) {
			wrapped := &TransactionExecutionLimitError{Errors: limit.Errors, Causes: limit.Causes}
			s.log.Error(log.Session, s.logId, wrapped)
			return nil, wrapped
		}
		return nil, err
	}
	return result, nil
}

// attemptOnce is the unit of work the retry controller drives: begin a
// fresh transaction, run the caller's work function, commit on success. A
// failure from the work function rolls the transaction back before the
// error is handed back to the controller for classification.
func (s *sessionWithContext) attemptOnce(ctx context.Context, mode idb.AccessMode, config TransactionConfig, work ManagedTransactionWork) (any, error) {
	conn, err := s.acquireWithInterruptHandling(ctx, mode)
	if err != nil {
		return nil, err
	}
	s.conn = conn
	protocol := conn.Protocol()
	txHandle, err := protocol.BeginTransaction(ctx, conn, s.bookmarks.Values(), idb.TxConfig{
		Mode:             mode,
		Bookmarks:        s.bookmarks.Values(),
		Timeout:          config.timeoutMillis(),
		Meta:             config.Metadata,
		ImpersonatedUser: s.impersonatedUser,
	})
	if err != nil {
		s.lastFailedAddr = conn.ServerInfo().Address
		_ = s.pool.Return(ctx, conn)
		s.conn = nil
		return nil, wrapError(err)
	}

	tx := newExplicitTransaction(conn, protocol, txHandle, s.fetchSize, nil)
	mtx := &managedTransaction{inner: tx}

	result, workErr := work(mtx)
	if workErr != nil {
		s.lastFailedAddr = conn.ServerInfo().Address
		tx.Failure()
		_ = tx.Close(ctx)
		_ = s.pool.Return(ctx, conn)
		if s.conn == conn {
			s.conn = nil
		}
		return nil, workErr
	}

	tx.Success()
	closeErr := tx.Close(ctx)
	if s.conn == conn {
		s.retrieveBookmarks(conn)
	}
	_ = s.pool.Return(ctx, conn)
	if s.conn == conn {
		s.conn = nil
	}
	if closeErr != nil {
		return nil, closeErr
	}
	return result, nil
}

// acquireWithInterruptHandling wraps acquire: if the context was cancelled
// while waiting, any connection already held by the session is best-effort
// terminated rather than returned normally, since its state after an
// interrupted operation cannot be trusted.
func (s *sessionWithContext) acquireWithInterruptHandling(ctx context.Context, mode idb.AccessMode) (idb.Connection, error) {
	conn, err := s.acquire(ctx, mode)
	if err != nil && ctx.Err() != nil {
		if s.conn != nil {
			s.conn.TerminateAndRelease("interrupted while acquiring a connection")
			s.conn = nil
		}
		return nil, ctx.Err()
	}
	return conn, err
}

// Reset marks any in-flight explicit transaction Terminated and asks the
// current connection to send a protocol reset. Unlike every other method on
// SessionWithContext, this one is safe to call concurrently with the
// goroutine actually driving the session, so it can interrupt in-flight work.
func (s *sessionWithContext) Reset(ctx context.Context) error {
	if s.explicitTx != nil {
		s.explicitTx.markTerminated()
	}
	if s.conn != nil {
		return s.conn.Reset(ctx)
	}
	return nil
}

// Close transitions the session to closed, draining the pending cursor's
// error, closing any open transaction, and releasing the connection.
// Idempotent.
func (s *sessionWithContext) Close(ctx context.Context) error {
	if s.closed {
		return nil
	}
	s.closed = true
	var txErr error
	if s.explicitTx != nil {
		txErr = s.explicitTx.Close(ctx)
	}
	drainErr := s.drainPrevious(ctx)
	var releaseErr error
	if s.conn != nil {
		releaseErr = s.pool.Return(ctx, s.conn)
		s.conn = nil
	}
	s.log.Debugf(log.Session, s.logId, "session closed")
	return combineAllErrors(txErr, drainErr, releaseErr)
}

func (s *sessionWithContext) CloseAsync(ctx context.Context) *future.Future[any] {
	return future.New(func() (any, error) { return nil, s.Close(ctx) })
}
