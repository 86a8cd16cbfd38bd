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
	"fmt"

	"driftline.dev/flume-go/internal/flumeopts"
)

// Flatten concatenates the input collections into a single output
// collection, in declaration order. Elements are not deduplicated.
func Flatten[E Element](s *Scope, cols []PCol[E], opts ...Options) PCol[E] {
	var opt flumeopts.Struct
	opt.Join(opts...)

	edgeID := s.g.curEdgeIndex()
	nodeID := s.g.curNodeIndex()
	id := s.g.edgeLabel("Flatten", edgeID, opt.Name)

	ins := make([]nodeIndex, 0, len(cols))
	for _, c := range cols {
		ins = append(ins, c.globalIndex)
		s.g.addConsumer(c.globalIndex, edgeID)
	}

	s.g.edges = append(s.g.edges, &edgeFlatten[E]{index: edgeID, transform: id, ins: ins, output: nodeID})
	s.g.nodes = append(s.g.nodes, &typedNode[E]{id: id, index: nodeID, parentEdge: edgeID})

	return PCol[E]{globalIndex: nodeID}
}

// edgeFlatten represents a Flatten transform.
type edgeFlatten[E Element] struct {
	index     edgeIndex
	transform string

	ins    []nodeIndex
	output nodeIndex
}

func (e *edgeFlatten[E]) edgeID() edgeIndex {
	return e.index
}

func (e *edgeFlatten[E]) transformID() string {
	return e.transform
}

func (e *edgeFlatten[E]) inputs() map[string]nodeIndex {
	ins := map[string]nodeIndex{}
	for i, n := range e.ins {
		ins[fmt.Sprintf("i%d", i)] = n
	}
	return ins
}

// outputs for flattens are one.
func (e *edgeFlatten[E]) outputs() map[string]nodeIndex {
	return map[string]nodeIndex{"o0": e.output}
}

func (e *edgeFlatten[E]) evaluate(ec *evalContext) error {
	var out []WindowedValue
	for _, in := range e.ins {
		out = append(out, ec.cache.values(in)...)
	}
	ec.cache.write(e.output, out)
	return nil
}

var _ multiEdge = (*edgeFlatten[int])(nil)
