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

// ServerInfo identifies the server that served a unit of work.
type ServerInfo interface {
	Address() string
	Agent() string
	ProtocolVersion() string
}

type simpleServerInfo struct {
	address         string
	agent           string
	protocolVersion string
}

func (s *simpleServerInfo) Address() string         { return s.address }
func (s *simpleServerInfo) Agent() string           { return s.agent }
func (s *simpleServerInfo) ProtocolVersion() string { return s.protocolVersion }

func newServerInfo(i idb.ServerInfo) ServerInfo {
	return &simpleServerInfo{address: i.Address, agent: i.Agent, protocolVersion: i.ProtocolVersion}
}
