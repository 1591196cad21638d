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
	"math"
	"time"

	idb "github.com/neo4j-drivers/gocore/neo4j/internal/db"
	"github.com/neo4j-drivers/gocore/neo4j/log"
)

// AccessMode steers which half of a cluster a statement is routed to.
type AccessMode int

const (
	AccessModeWrite AccessMode = iota
	AccessModeRead
)

// FetchAll turns off fetching records in batches.
const FetchAll = -1

// FetchDefault lets the driver decide the fetch size.
const FetchDefault = 0

// noTimeout is a "not set" marker value for a timeout. TransactionConfig
// does not use it: it records "not set" in timeoutSet instead.
const noTimeout = math.MinInt

// TransactionConfig is a small value bag forwarded to the server on begin
// and on every auto-commit run: an optional timeout and metadata, both
// forwarded verbatim (timeout in milliseconds).
type TransactionConfig struct {
	Timeout  time.Duration
	Metadata map[string]any

	// timeoutSet tracks whether Timeout was ever configured, so
	// validateTransactionConfig and timeoutMillis can tell "unset" from "zero".
	timeoutSet bool
}

// WithTimeout returns a configurer setting the transaction timeout.
func WithTimeout(d time.Duration) func(*TransactionConfig) {
	return func(c *TransactionConfig) {
		c.Timeout = d
		c.timeoutSet = true
	}
}

// WithMetadata returns a configurer attaching metadata to the transaction.
func WithMetadata(meta map[string]any) func(*TransactionConfig) {
	return func(c *TransactionConfig) {
		c.Metadata = meta
	}
}

func defaultTransactionConfig() TransactionConfig {
	return TransactionConfig{}
}

func validateTransactionConfig(c TransactionConfig) error {
	if c.timeoutSet && c.Timeout < 0 {
		return &UsageError{Message: "negative transaction timeouts are not allowed"}
	}
	return nil
}

func (c TransactionConfig) timeoutMillis() int {
	if !c.timeoutSet {
		return 0
	}
	return int(c.Timeout / time.Millisecond)
}

// SessionConfig configures a new session; its zero value uses safe
// defaults (write access mode, default database, driver-level fetch size).
type SessionConfig struct {
	AccessMode       AccessMode
	Bookmarks        Bookmarks
	DatabaseName     string
	FetchSize        int
	ImpersonatedUser string
}

// Config is the driver-level configuration shared by every session it
// opens.
type Config struct {
	MaxTransactionRetryTime       time.Duration
	MaxConnectionPoolSize         int
	ConnectionAcquisitionTimeout  time.Duration
	FetchSize                     int
	Log                           log.Logger
}

func defaultConfig() *Config {
	return &Config{
		MaxTransactionRetryTime:      30 * time.Second,
		MaxConnectionPoolSize:        100,
		ConnectionAcquisitionTimeout: 60 * time.Second,
		FetchSize:                    1000,
		Log:                          log.Void{},
	}
}

func toInternalMode(m AccessMode) idb.AccessMode {
	if m == AccessModeRead {
		return idb.ReadMode
	}
	return idb.WriteMode
}
