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
	"fmt"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	idb "github.com/neo4j-drivers/gocore/neo4j/internal/db"
	"github.com/neo4j-drivers/gocore/neo4j/internal/pool"
	"github.com/neo4j-drivers/gocore/neo4j/internal/routing"
)

// DefaultBoltPort is used for bolt:// and neo4j:// targets that name no
// explicit port, matching the server's own default listener port.
const DefaultBoltPort = 7687

// Target is a parsed connection URI: which of the three schemes it names,
// and the scheme-specific address it resolves to.
type Target struct {
	Routing  bool   // true for neo4j://, false for bolt://
	Embedded bool   // true for file://
	Host     string // bolt/neo4j only
	Port     int    // bolt/neo4j only
	Path     string // file only: an absolute filesystem path
	Query    url.Values
}

// ParseTarget validates and classifies a connection URI: bolt:// and
// neo4j:// (plus their +s/+ssc TLS variants) name a single server or a
// router respectively and default to port 7687; file:// names an embedded
// engine and requires an absolute path with no host component.
func ParseTarget(raw string) (*Target, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, &UsageError{Message: fmt.Sprintf("invalid connection URI: %s", err)}
	}
	scheme := strings.ToLower(u.Scheme)
	base, _, _ := strings.Cut(scheme, "+")

	switch base {
	case "bolt", "neo4j":
		host := u.Hostname()
		if host == "" {
			return nil, &UsageError{Message: "bolt/neo4j URI must name a host"}
		}
		port := DefaultBoltPort
		if p := u.Port(); p != "" {
			port, err = strconv.Atoi(p)
			if err != nil {
				return nil, &UsageError{Message: fmt.Sprintf("invalid port in connection URI: %s", err)}
			}
		}
		return &Target{Routing: base == "neo4j", Host: host, Port: port, Query: u.Query()}, nil
	case "file":
		if u.Host != "" {
			return nil, &UsageError{Message: "file URI must not name a host; use an absolute path"}
		}
		if u.User != nil {
			if _, hasPassword := u.User.Password(); hasPassword || u.User.Username() != "" {
				return nil, &UsageError{Message: "file URI must not carry credentials; embedded access requires no authentication"}
			}
		}
		query := u.Query()
		if auth := query.Get("auth"); auth != "" && !strings.EqualFold(auth, "none") {
			return nil, &UsageError{Message: fmt.Sprintf("file URI authentication must be absent or \"none\", got %q", auth)}
		}
		if enc := query.Get("encrypted"); enc != "" {
			on, err := strconv.ParseBool(enc)
			if err != nil {
				return nil, &UsageError{Message: fmt.Sprintf("invalid encrypted flag in file URI: %s", err)}
			}
			if on {
				return nil, &UsageError{Message: "file URI must not request encryption; embedded access has no transport to encrypt"}
			}
		}
		path := u.Path
		if path == "" {
			path = u.Opaque
		}
		if !filepath.IsAbs(path) {
			return nil, &UsageError{Message: "file URI path must be absolute"}
		}
		return &Target{Embedded: true, Path: path, Query: query}, nil
	default:
		return nil, &UsageError{Message: fmt.Sprintf("unsupported connection URI scheme %q", u.Scheme)}
	}
}

// DriverWithContext is the top-level entry point: it owns one
// ConnectionProvider (direct, routing-wrapped, or embedded, depending on the
// target's scheme) and mints sessions against it. Construction and TCP/TLS
// plumbing are out of this core's scope: bolt/neo4j targets require the
// caller to supply an already-built ConnectionProvider, and neo4j targets
// additionally require a Rediscovery capability to drive routing-table
// refresh.
type DriverWithContext struct {
	target *Target
	config *Config
	pool   idb.ConnectionProvider

	mu     sync.Mutex
	closed bool
}

// DriverOption configures a DriverWithContext at construction time.
type DriverOption func(*driverOptions)

type driverOptions struct {
	provider    idb.ConnectionProvider
	rediscovery idb.Rediscovery
	conn        idb.Connection
	config      func(*Config)
}

// WithConnectionProvider supplies the pool a bolt:// or neo4j:// driver
// borrows connections from; required for both of those schemes.
func WithConnectionProvider(p idb.ConnectionProvider) DriverOption {
	return func(o *driverOptions) { o.provider = p }
}

// WithRediscovery supplies the capability a neo4j:// (routing) driver uses
// to refresh its per-database routing tables; required for that scheme.
func WithRediscovery(r idb.Rediscovery) DriverOption {
	return func(o *driverOptions) { o.rediscovery = r }
}

// WithEmbeddedConnection supplies the single in-process connection a
// file:// driver serves every session from; required for that scheme.
func WithEmbeddedConnection(c idb.Connection) DriverOption {
	return func(o *driverOptions) { o.conn = c }
}

// WithConfig applies a Config configurer function to the driver's config.
func WithConfig(f func(*Config)) DriverOption {
	return func(o *driverOptions) { o.config = f }
}

// NewDriverWithContext parses target's scheme and assembles the matching
// ConnectionProvider: bolt:// uses the supplied provider directly, neo4j://
// wraps it in a routing.Registry-backed routing.RoutedProvider, and file://
// builds a pool.EmbeddedProvider around the supplied embedded connection.
func NewDriverWithContext(rawTarget string, opts ...DriverOption) (*DriverWithContext, error) {
	target, err := ParseTarget(rawTarget)
	if err != nil {
		return nil, err
	}

	var o driverOptions
	for _, opt := range opts {
		opt(&o)
	}

	config := defaultConfig()
	if o.config != nil {
		o.config(config)
	}

	var provider idb.ConnectionProvider
	switch {
	case target.Embedded:
		if o.conn == nil {
			return nil, &UsageError{Message: "file:// driver requires WithEmbeddedConnection"}
		}
		provider = pool.NewEmbeddedProvider(o.conn)
	case target.Routing:
		if o.provider == nil {
			return nil, &UsageError{Message: "neo4j:// driver requires WithConnectionProvider"}
		}
		if o.rediscovery == nil {
			return nil, &UsageError{Message: "neo4j:// driver requires WithRediscovery"}
		}
		registry := routing.NewRegistry(o.rediscovery, o.provider, 0, 0, config.Log)
		provider = &defaultDatabaseRoutedProvider{registry: registry, base: o.provider}
	default:
		if o.provider == nil {
			return nil, &UsageError{Message: "bolt:// driver requires WithConnectionProvider"}
		}
		provider = o.provider
	}

	return &DriverWithContext{target: target, config: config, pool: provider}, nil
}

// defaultDatabaseRoutedProvider lazily builds a routing.RoutedProvider per
// database name the first time a session asks for one, since the registry
// itself is already keyed by database but the plain idb.ConnectionProvider
// contract handed to a session is not database-aware.
type defaultDatabaseRoutedProvider struct {
	registry *routing.Registry
	base     idb.ConnectionProvider
}

func (p *defaultDatabaseRoutedProvider) Acquire(ctx context.Context, mode idb.AccessMode) (idb.Connection, error) {
	return routing.NewRoutedProvider(p.registry, p.base, idb.DefaultDatabase, nil).Acquire(ctx, mode)
}
func (p *defaultDatabaseRoutedProvider) Return(ctx context.Context, c idb.Connection) error {
	return p.base.Return(ctx, c)
}
func (p *defaultDatabaseRoutedProvider) RetainAll(ctx context.Context, addrs []string) error {
	return p.base.RetainAll(ctx, addrs)
}
func (p *defaultDatabaseRoutedProvider) Close(ctx context.Context) error { return p.base.Close(ctx) }

// NewSession mints a session bound to this driver's pool. When the driver is
// routing-aware and sessConfig names a non-default database, the session
// acquires through a RoutedProvider scoped to that database instead of the
// driver's shared default-database one, so each database's routing table is
// tracked independently.
func (d *DriverWithContext) NewSession(_ context.Context, sessConfig SessionConfig) SessionWithContext {
	provider := d.pool
	if routed, ok := d.pool.(*defaultDatabaseRoutedProvider); ok && sessConfig.DatabaseName != "" && sessConfig.DatabaseName != idb.DefaultDatabase {
		database := sessConfig.DatabaseName
		provider = routing.NewRoutedProvider(routed.registry, routed.base, database, nil)
	}
	return newSessionWithContext(d.config, sessConfig, provider, d.config.Log)
}

// Target exposes the parsed connection URI, e.g. for diagnostics.
func (d *DriverWithContext) Target() *Target { return d.target }

// Close releases the driver's ConnectionProvider. Idempotent.
func (d *DriverWithContext) Close(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true
	return d.pool.Close(ctx)
}

// VerifyConnectivity acquires and immediately returns a read connection, the
// cheapest proof that the driver can currently reach the database.
func (d *DriverWithContext) VerifyConnectivity(ctx context.Context) error {
	conn, err := d.pool.Acquire(ctx, idb.ReadMode)
	if err != nil {
		return wrapError(err)
	}
	return d.pool.Return(ctx, conn)
}
