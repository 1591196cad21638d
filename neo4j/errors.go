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
	"errors"
	"fmt"

	pkgerrors "github.com/pkg/errors"
)

// Classification buckets every error this module surfaces so the retry
// controller and callers can decide what to do with it without type-
// switching over concrete constructors.
type Classification string

const (
	ClassificationClient             Classification = "Client"
	ClassificationTransient          Classification = "Transient"
	ClassificationSessionExpired     Classification = "SessionExpired"
	ClassificationServiceUnavailable Classification = "ServiceUnavailable"
	ClassificationDatabase           Classification = "Database"
	ClassificationProtocol           Classification = "Protocol"
)

// Retryable reports whether the retry controller should retry an error of
// this classification by default.
func (c Classification) Retryable() bool {
	switch c {
	case ClassificationTransient, ClassificationSessionExpired, ClassificationServiceUnavailable:
		return true
	default:
		return false
	}
}

// UsageError signals caller misuse: session closed, transaction already
// open, commit after rollback, unsupported scheme, and similar programmer
// errors that no retry will fix.
type UsageError struct {
	Message string
}

func (e *UsageError) Error() string { return e.Message }

// Classify implements the classified-error contract.
func (e *UsageError) Classify() Classification { return ClassificationClient }

// ConnectivityError wraps a failure to reach or keep a connection to the
// server; by default retryable (SessionExpired/ServiceUnavailable-class).
type ConnectivityError struct {
	Message string
	Class   Classification
	Cause   error
}

func (e *ConnectivityError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s", e.Message, e.Cause.Error())
	}
	return e.Message
}

func (e *ConnectivityError) Unwrap() error { return e.Cause }

func (e *ConnectivityError) Classify() Classification {
	if e.Class == "" {
		return ClassificationServiceUnavailable
	}
	return e.Class
}

// DatabaseError is a failure the server reported about the statement or
// transaction itself; never retried.
type DatabaseError struct {
	Code    string
	Message string
}

func (e *DatabaseError) Error() string { return fmt.Sprintf("%s: %s", e.Code, e.Message) }

func (e *DatabaseError) Classify() Classification { return ClassificationDatabase }

// TransientError marks a server-reported condition (deadlock, lock
// timeout, ...) that is safe to retry.
type TransientError struct {
	Code    string
	Message string
}

func (e *TransientError) Error() string { return fmt.Sprintf("%s: %s", e.Code, e.Message) }

func (e *TransientError) Classify() Classification { return ClassificationTransient }

// NoSuchRecordError is returned by cursor navigation (single, peek) when no
// record is available where one was required.
type NoSuchRecordError struct {
	Message string
}

func (e *NoSuchRecordError) Error() string { return e.Message }

func (e *NoSuchRecordError) Classify() Classification { return ClassificationClient }

// TransactionExecutionLimitError is raised by the retry controller when its
// wall-clock budget is exhausted while every observed failure was
// retryable.
type TransactionExecutionLimitError struct {
	Errors []error
	Causes []error
}

func (e *TransactionExecutionLimitError) Error() string {
	return fmt.Sprintf("transaction retry budget exhausted after %d attempt(s), last error: %v",
		len(e.Errors), e.lastError())
}

func (e *TransactionExecutionLimitError) lastError() error {
	if len(e.Errors) == 0 {
		return nil
	}
	return e.Errors[len(e.Errors)-1]
}

func (e *TransactionExecutionLimitError) Classify() Classification { return ClassificationClient }

// classifiedError is implemented by every error type this module defines.
type classifiedError interface {
	error
	Classify() Classification
}

// Classify extracts the Classification carried by an error produced by this
// module, defaulting to ClassificationDatabase for anything else (e.g. a
// user's own error returned from a transaction work function) since those
// are assumed to be deliberate, non-retryable rejections.
func Classify(err error) Classification {
	var ce classifiedError
	if errors.As(err, &ce) {
		return ce.Classify()
	}
	return ClassificationDatabase
}

// IsRetryable reports whether the retry controller should retry err.
func IsRetryable(err error) bool {
	return Classify(err).Retryable()
}

// combineErrors folds a primary error (typically an unconsumed cursor
// failure) and a secondary one (typically a commit/rollback failure) into a
// single error: primary first, secondary attached as a suppressed cause.
// Either may be nil.
func combineErrors(primary, secondary error) error {
	switch {
	case primary == nil && secondary == nil:
		return nil
	case primary == nil:
		return secondary
	case secondary == nil:
		return primary
	default:
		return pkgerrors.Wrapf(primary, "suppressed: %s", secondary.Error())
	}
}

// combineAllErrors folds any number of errors (nils ignored) left to right
// with combineErrors, used by Session.Close to report failures from closing
// the open transaction, draining the pending cursor and releasing the
// connection together.
func combineAllErrors(errs ...error) error {
	var out error
	for _, e := range errs {
		out = combineErrors(out, e)
	}
	return out
}

// wrapError normalises an error from a capability (ConnectionProvider,
// Protocol, Rediscovery) into one of this module's classified error types
// when it isn't already one, so callers only ever see the public taxonomy.
func wrapError(err error) error {
	if err == nil {
		return nil
	}
	var ce classifiedError
	if errors.As(err, &ce) {
		return err
	}
	return &ConnectivityError{Message: "connectivity failure", Class: ClassificationServiceUnavailable, Cause: err}
}
