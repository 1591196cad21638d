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

package routing

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	idb "github.com/neo4j-drivers/gocore/neo4j/internal/db"
	"github.com/stretchr/testify/require"
)

var errRediscoveryFailed = errors.New("no router could be reached")

type fakeRediscovery struct {
	calls   atomic.Int32
	release chan struct{}
	comp    idb.ClusterComposition
	err     error
}

func (f *fakeRediscovery) LookupClusterComposition(ctx context.Context, routers []string, pool idb.ConnectionProvider, database string, bookmarks []string) (idb.ClusterComposition, error) {
	f.calls.Add(1)
	if f.release != nil {
		<-f.release
	}
	return f.comp, f.err
}

type fakeProvider struct {
	retainCalls atomic.Int32
	lastRetain  []string
	mu          sync.Mutex
}

func (p *fakeProvider) Acquire(context.Context, idb.AccessMode) (idb.Connection, error) { return nil, nil }
func (p *fakeProvider) Return(context.Context, idb.Connection) error                    { return nil }
func (p *fakeProvider) RetainAll(_ context.Context, addresses []string) error {
	p.retainCalls.Add(1)
	p.mu.Lock()
	p.lastRetain = addresses
	p.mu.Unlock()
	return nil
}
func (p *fakeProvider) Close(context.Context) error { return nil }

func TestHandler_RefreshCoalescesConcurrentCallers(t *testing.T) {
	release := make(chan struct{})
	rediscovery := &fakeRediscovery{
		release: release,
		comp:    idb.ClusterComposition{Routers: []string{"r1:7687"}, Readers: []string{"a:7687"}, Writers: []string{"b:7687"}, TTLMillis: 1000},
	}
	provider := &fakeProvider{}
	registry := NewRegistry(rediscovery, provider, 0, 0, nil)
	handler := registry.Handler("neo4j")

	var wg sync.WaitGroup
	results := make([]*Table, 2)
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			tbl, err := handler.EnsureFreshness(context.Background(), idb.ReadMode, nil)
			results[i] = tbl
			errs[i] = err
		}()
	}

	time.Sleep(20 * time.Millisecond) // let both callers block inside EnsureFreshness
	close(release)
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	require.Same(t, results[0], results[1])
	require.Equal(t, int32(1), rediscovery.calls.Load())
	require.Equal(t, int32(1), provider.retainCalls.Load())
}

func TestHandler_OnConnectionAndWriteFailure(t *testing.T) {
	rediscovery := &fakeRediscovery{comp: idb.ClusterComposition{Routers: []string{"r"}, Readers: []string{"r", "a"}, Writers: []string{"r", "b"}, TTLMillis: 60000}}
	provider := &fakeProvider{}
	registry := NewRegistry(rediscovery, provider, 0, 0, nil)
	handler := registry.Handler("neo4j")
	_, err := handler.EnsureFreshness(context.Background(), idb.ReadMode, nil)
	require.NoError(t, err)

	handler.OnWriteFailure("b")
	require.NotContains(t, handler.Table().Writers(), "b")
	require.Contains(t, handler.Table().Readers(), "a")

	handler.OnConnectionFailure("r")
	require.NotContains(t, handler.Table().Routers(), "r")
	require.NotContains(t, handler.Table().Readers(), "r")
	require.NotContains(t, handler.Table().Writers(), "r")
}

func TestHandler_RediscoveryFailureRemovesFromRegistry(t *testing.T) {
	rediscovery := &fakeRediscovery{err: errRediscoveryFailed}
	provider := &fakeProvider{}
	registry := NewRegistry(rediscovery, provider, 0, 0, nil)
	_ = registry.Handler("neo4j")
	require.Equal(t, 1, registry.Size())

	_, err := registry.Handler("neo4j").EnsureFreshness(context.Background(), idb.ReadMode, nil)
	require.Error(t, err)
	require.Equal(t, 0, registry.Size())
}
