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
	"sync"

	idb "github.com/neo4j-drivers/gocore/neo4j/internal/db"
)

// ResultWithContext is the lazy, single-consumer stream of records produced
// by a running statement. Exactly one record may be buffered ahead of the
// consumer at a time via PeekRecord.
type ResultWithContext interface {
	Keys() ([]string, error)
	HasNext(ctx context.Context) bool
	Next(ctx context.Context) bool
	Record() *Record
	Err() error
	PeekRecord(ctx context.Context) (*Record, error)
	Single(ctx context.Context) (*Record, error)
	Collect(ctx context.Context) ([]*Record, error)
	ForEach(ctx context.Context, fn func(*Record) error) error
	Consume(ctx context.Context) (*ResultSummary, error)
}

// recordSource abstracts over where records come from: a wire-protocol
// stream on a connection, or an embedded-engine result. resultWithContext
// is written once against this interface and reused by both the explicit
// and embedded transaction variants.
type recordSource interface {
	next(ctx context.Context) (*idb.Record, *idb.Summary, error)
	discard(ctx context.Context) (*idb.Summary, error)
	serverInfo() *idb.ServerInfo
}

// protocolRecordSource is a recordSource backed by a live wire-protocol
// stream on a connection.
type protocolRecordSource struct {
	conn     idb.Connection
	protocol idb.Protocol
	stream   idb.StreamHandle
}

func (s *protocolRecordSource) next(ctx context.Context) (*idb.Record, *idb.Summary, error) {
	return s.protocol.Next(ctx, s.conn, s.stream)
}

func (s *protocolRecordSource) discard(ctx context.Context) (*idb.Summary, error) {
	return s.protocol.Discard(ctx, s.conn, s.stream)
}

func (s *protocolRecordSource) serverInfo() *idb.ServerInfo {
	si := s.conn.ServerInfo()
	return &si
}

// embeddedRecordSource is a recordSource backed by the in-process engine's
// own iterator, with no protocol or connection in the loop.
type embeddedRecordSource struct {
	result idb.Result
}

func (s *embeddedRecordSource) next(ctx context.Context) (*idb.Record, *idb.Summary, error) {
	rec, err := s.result.Next(ctx)
	if err != nil {
		return nil, nil, err
	}
	if rec != nil {
		return rec, nil, nil
	}
	summary, err := s.result.Summary(ctx)
	if err != nil {
		return nil, nil, err
	}
	return nil, summary, nil
}

func (s *embeddedRecordSource) discard(ctx context.Context) (*idb.Summary, error) {
	for {
		rec, err := s.result.Next(ctx)
		if err != nil {
			return nil, err
		}
		if rec == nil {
			return s.result.Summary(ctx)
		}
	}
}

func (s *embeddedRecordSource) serverInfo() *idb.ServerInfo {
	return nil
}

// resultWithContext is the only implementation of ResultWithContext.
type resultWithContext struct {
	source recordSource
	stmt   Statement

	keys    []string
	keysErr error

	mu        sync.Mutex
	peeked    bool
	peekRec   *Record
	started   bool
	exhausted bool
	lastErr   error
	current   *Record

	summaryOnce sync.Once
	summary     *ResultSummary
	summaryErr  error
	rawSummary  *idb.Summary
}

func newResultWithContext(source recordSource, stmt Statement, keys []string, keysErr error) *resultWithContext {
	return &resultWithContext{source: source, stmt: stmt, keys: keys, keysErr: keysErr}
}

func (r *resultWithContext) Keys() ([]string, error) {
	return r.keys, r.keysErr
}

// fetch pulls the next raw record from the source, recording the terminal
// summary when the stream ends and caching the first error encountered so
// subsequent calls stay poisoned (a cursor failure poisons the remainder of
// the transaction, per the ResultCursorsHolder contract it registers with).
func (r *resultWithContext) fetch(ctx context.Context) (*Record, error) {
	if r.lastErr != nil {
		return nil, r.lastErr
	}
	if r.exhausted {
		return nil, nil
	}
	rec, summary, err := r.source.next(ctx)
	r.started = true
	if err != nil {
		r.lastErr = wrapError(err)
		return nil, r.lastErr
	}
	if summary != nil {
		r.exhausted = true
		r.rawSummary = summary
		return nil, nil
	}
	return newRecord(rec), nil
}

// HasNext reports whether PeekRecord/Next would return a record: either the
// peek slot is populated, or the underlying source has more.
func (r *resultWithContext) HasNext(ctx context.Context) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.peeked {
		return true
	}
	rec, err := r.fetch(ctx)
	if err != nil || rec == nil {
		return false
	}
	r.peekRec = rec
	r.peeked = true
	return true
}

// Next advances the cursor, making Record()/Err() reflect the outcome. It
// returns the buffered peek record and clears the slot if one is present,
// otherwise it advances the underlying source; the mutex makes peek/next
// atomic with respect to each other.
func (r *resultWithContext) Next(ctx context.Context) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.peeked {
		r.current = r.peekRec
		r.peekRec = nil
		r.peeked = false
		return r.current != nil
	}
	rec, err := r.fetch(ctx)
	r.current = rec
	if err != nil {
		return false
	}
	return rec != nil
}

func (r *resultWithContext) Record() *Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

func (r *resultWithContext) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastErr
}

// PeekRecord returns the next record without consuming it, failing with
// NoSuchRecordError if the cursor is exhausted.
func (r *resultWithContext) PeekRecord(ctx context.Context) (*Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.peeked {
		return r.peekRec, nil
	}
	rec, err := r.fetch(ctx)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, &NoSuchRecordError{Message: "cannot peek past the end of the result"}
	}
	r.peekRec = rec
	r.peeked = true
	return rec, nil
}

// Single consumes and returns the one and only record this cursor should
// produce, failing with NoSuchRecordError if it is empty or holds more than
// one record. On the overflow case the underlying stream is discarded.
func (r *resultWithContext) Single(ctx context.Context) (*Record, error) {
	if !r.Next(ctx) {
		if err := r.Err(); err != nil {
			return nil, err
		}
		return nil, &NoSuchRecordError{Message: "result contains no records"}
	}
	first := r.Record()
	if r.HasNext(ctx) {
		_, _ = r.Consume(ctx)
		return nil, &NoSuchRecordError{Message: "result contains more than one record"}
	}
	if err := r.Err(); err != nil {
		return nil, err
	}
	return first, nil
}

// Collect drains every remaining record into a slice, in source order.
func (r *resultWithContext) Collect(ctx context.Context) ([]*Record, error) {
	var out []*Record
	for r.Next(ctx) {
		out = append(out, r.Record())
	}
	return out, r.Err()
}

// ForEach applies fn to every remaining record, in source order, stopping
// at the first error fn returns.
func (r *resultWithContext) ForEach(ctx context.Context, fn func(*Record) error) error {
	for r.Next(ctx) {
		if err := fn(r.Record()); err != nil {
			return err
		}
	}
	return r.Err()
}

// Consume drains any remaining records (discarding them) and computes the
// summary exactly once, under double-checked initialisation (sync.Once):
// the second and later calls return the identical summary reference.
func (r *resultWithContext) Consume(ctx context.Context) (*ResultSummary, error) {
	r.drainForSummary(ctx)
	r.summaryOnce.Do(func() {
		if r.lastErr != nil {
			r.summaryErr = r.lastErr
			return
		}
		var server ServerInfo
		if si := r.source.serverInfo(); si != nil {
			server = newServerInfo(*si)
		}
		if r.rawSummary == nil {
			r.summaryErr = &UsageError{Message: "no summary available"}
			return
		}
		r.summary = newResultSummary(r.stmt, r.rawSummary, server)
	})
	return r.summary, r.summaryErr
}

// drainForSummary consumes whatever remains of the stream so the terminal
// summary is received. When nothing has been pulled yet it uses the
// source's bulk discard, otherwise it keeps calling fetch.
func (r *resultWithContext) drainForSummary(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.exhausted || r.lastErr != nil {
		return
	}
	if !r.started && !r.peeked {
		summary, err := r.source.discard(ctx)
		r.started = true
		if err != nil {
			r.lastErr = wrapError(err)
			return
		}
		r.exhausted = true
		r.rawSummary = summary
		return
	}
	if r.peeked {
		r.peeked = false
		r.peekRec = nil
	}
	for {
		rec, err := r.fetch(ctx)
		if err != nil || rec == nil {
			return
		}
	}
}
