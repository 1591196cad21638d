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

import idb "github.com/neo4j-drivers/gocore/neo4j/internal/db"

// Record is one row of a result: an ordered set of field names shared
// across every record of a stream, paired with this row's values.
type Record struct {
	Keys   []string
	Values []any
}

func newRecord(r *idb.Record) *Record {
	if r == nil {
		return nil
	}
	return &Record{Keys: r.Keys, Values: r.Values}
}

// Get returns the value of the named field and whether it was present.
func (r *Record) Get(key string) (any, bool) {
	for i, k := range r.Keys {
		if k == key {
			return r.Values[i], true
		}
	}
	return nil, false
}

// AsMap flattens the record into a map, for callers that prefer that shape.
func (r *Record) AsMap() map[string]any {
	m := make(map[string]any, len(r.Keys))
	for i, k := range r.Keys {
		m[k] = r.Values[i]
	}
	return m
}
