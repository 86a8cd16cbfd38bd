// Licensed to the Apache Software Foundation (ASF) under one or more
// contributor license agreements.  See the NOTICE file distributed with
// this work for additional information regarding copyright ownership.
// The ASF licenses this file to You under the Apache License, Version 2.0
// (the "License"); you may not use this file except in compliance with
// the License.  You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package flume

import (
	"driftline.dev/flume-go/internal/flumeopts"
)

// Create adds a transform emitting each of the given literal values as an
// element in the global window, allowing processing to begin.
func Create[E Element](s *Scope, values []E, opts ...Options) PCol[E] {
	var opt flumeopts.Struct
	opt.Join(opts...)

	edgeID := s.g.curEdgeIndex()
	nodeID := s.g.curNodeIndex()
	id := s.g.edgeLabel("Create", edgeID, opt.Name)

	s.g.edges = append(s.g.edges, &edgeCreate[E]{index: edgeID, transform: id, values: values, output: nodeID})
	s.g.nodes = append(s.g.nodes, &typedNode[E]{id: id, index: nodeID, parentEdge: edgeID})

	return PCol[E]{globalIndex: nodeID}
}

// edgeCreate represents a Create transform.
type edgeCreate[E Element] struct {
	index     edgeIndex
	transform string

	values []E
	output nodeIndex
}

func (e *edgeCreate[E]) edgeID() edgeIndex {
	return e.index
}

func (e *edgeCreate[E]) transformID() string {
	return e.transform
}

// inputs for creates are nil.
func (e *edgeCreate[E]) inputs() map[string]nodeIndex {
	return nil
}

// outputs for creates are one.
func (e *edgeCreate[E]) outputs() map[string]nodeIndex {
	return map[string]nodeIndex{"o0": e.output}
}

func (e *edgeCreate[E]) evaluate(ec *evalContext) error {
	out := make([]WindowedValue, 0, len(e.values))
	for _, v := range e.values {
		out = append(out, inGlobalWindow(v))
	}
	ec.cache.write(e.output, out)
	return nil
}

var _ multiEdge = (*edgeCreate[int])(nil)
