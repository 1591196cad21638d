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
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBookmarksFromRawValues_DropsEmpty(t *testing.T) {
	b := BookmarksFromRawValues("bm-1", "", "bm-2")
	require.Equal(t, Bookmarks{"bm-1", "bm-2"}, b)
}

func TestEmptyBookmarks_IsEmpty(t *testing.T) {
	require.True(t, EmptyBookmarks().IsEmpty())
	require.False(t, BookmarksFromRawValues("bm-1").IsEmpty())
}

func TestBookmarks_LastBookmark(t *testing.T) {
	_, ok := EmptyBookmarks().LastBookmark()
	require.False(t, ok)

	last, ok := BookmarksFromRawValues("bm-1", "bm-2").LastBookmark()
	require.True(t, ok)
	require.Equal(t, "bm-2", last)
}

func TestBookmarks_Union(t *testing.T) {
	a := BookmarksFromRawValues("bm-1", "bm-2")
	b := BookmarksFromRawValues("bm-2", "bm-3")
	require.Equal(t, Bookmarks{"bm-1", "bm-2", "bm-3"}, a.Union(b))
	require.Equal(t, a, a.Union(EmptyBookmarks()))
}

func TestBookmarks_Values(t *testing.T) {
	b := BookmarksFromRawValues("bm-1", "bm-2")
	require.Equal(t, []string{"bm-1", "bm-2"}, b.Values())
}
