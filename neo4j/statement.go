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

// Statement is a parameterised piece of statement text. Parameters map a
// name to a dynamically typed value: nil, bool, int64, float64, string,
// []any, map[string]any, time.Duration, Point2D or Point3D. Values are
// dimensionless and opaque to this module except that nil is distinguishable.
type Statement struct {
	Text       string
	Parameters map[string]any
}

// Point2D is a two-dimensional spatial value tagged with its coordinate
// reference system identifier.
type Point2D struct {
	SpatialRefId uint32
	X, Y         float64
}

// Point3D is a three-dimensional spatial value tagged with its coordinate
// reference system identifier.
type Point3D struct {
	SpatialRefId uint32
	X, Y, Z      float64
}
