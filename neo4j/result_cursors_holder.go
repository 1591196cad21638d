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
)

// resultCursorsHolder is the ordered, append-only list of cursors a
// transaction has produced, so a commit/rollback can drain every one of
// them before the connection goes back to the pool.
type resultCursorsHolder struct {
	mu      sync.Mutex
	cursors []*resultWithContext
}

func (h *resultCursorsHolder) add(r *resultWithContext) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.cursors = append(h.cursors, r)
}

// retrieveNotConsumedError awaits every held cursor in the order they were
// added and returns the first failure found, if any. A cursor is "awaited"
// by draining it with Consume, the same thing committing or rolling back
// must do before the round trip anyway.
func (h *resultCursorsHolder) retrieveNotConsumedError(ctx context.Context) error {
	h.mu.Lock()
	cursors := append([]*resultWithContext(nil), h.cursors...)
	h.mu.Unlock()
	var first error
	for _, c := range cursors {
		if _, err := c.Consume(ctx); err != nil && first == nil {
			first = err
		}
	}
	return first
}
