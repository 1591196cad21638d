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

import "github.com/neo4j-drivers/gocore/neo4j/internal/bookmarks"

// Bookmarks is an immutable, order-preserving set of opaque causal-
// consistency tokens returned by the server after a successful commit.
// A session starts with an initial set and replaces it wholesale after
// every commit with whatever the server returned.
type Bookmarks []string

// BookmarksFromRawValues builds a Bookmarks from a slice of server-issued
// tokens, dropping any empty ones.
func BookmarksFromRawValues(raw ...string) Bookmarks {
	return Bookmarks(bookmarks.Clean(raw))
}

// EmptyBookmarks is the canonical empty bookmark set.
func EmptyBookmarks() Bookmarks {
	return Bookmarks{}
}

// IsEmpty reports whether this set has no tokens.
func (b Bookmarks) IsEmpty() bool {
	return len(b) == 0
}

// LastBookmark returns the last token and true, or "" and false if empty.
func (b Bookmarks) LastBookmark() (string, bool) {
	return bookmarks.Last(b)
}

// Union returns the ordered union of b and other, deduplicated, preserving
// b's tokens before other's. Union(other=Empty) == b.
func (b Bookmarks) Union(other Bookmarks) Bookmarks {
	return Bookmarks(bookmarks.Union(b, other))
}

// Values exposes the raw token slice, for callers that need to forward it
// to a protocol call.
func (b Bookmarks) Values() []string {
	return []string(b)
}
