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

// StatementType classifies a statement for summary reporting.
type StatementType = idb.StatementType

const (
	StatementTypeUnknown    = idb.StatementTypeUnknown
	StatementTypeReadOnly   = idb.StatementTypeReadOnly
	StatementTypeReadWrite  = idb.StatementTypeReadWrite
	StatementTypeWriteOnly  = idb.StatementTypeWriteOnly
	StatementTypeSchemaWrite = idb.StatementTypeSchemaWrite
)

// Counters reports the mutations a statement caused.
type Counters = idb.Counters

// Notification is a server-side diagnostic attached to a statement's
// summary: code, title, description, severity and an optional position
// within the statement text.
type Notification = idb.Notification

// InputPosition locates a notification within the original statement text.
type InputPosition = idb.InputPosition

// PlanNode is one operator of a plan or profile tree; Profiled plans carry
// DbHits and Rows, unprofiled ones do not.
type PlanNode = idb.PlanNode

// ResultSummary is the terminal metadata of a fully consumed result,
// computed at most once per cursor.
type ResultSummary struct {
	Statement     Statement
	StatementType StatementType
	Counters      Counters
	Notifications []Notification
	Plan          *PlanNode
	Profile       *PlanNode
	Bookmark      string
	Database      string
	Server        ServerInfo
}

func newResultSummary(stmt Statement, s *idb.Summary, server ServerInfo) *ResultSummary {
	return &ResultSummary{
		Statement:     stmt,
		StatementType: s.StatementType,
		Counters:      s.Counters,
		Notifications: s.Notifications,
		Plan:          s.Plan,
		Profile:       s.Profile,
		Bookmark:      s.Bookmark,
		Database:      s.Database,
		Server:        server,
	}
}
