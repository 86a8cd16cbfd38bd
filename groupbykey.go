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
	"driftline.dev/flume-go/coders"
	"driftline.dev/flume-go/internal/flumeopts"
)

// GroupByKey produces an output collection of values grouped by key.
//
// Keys are canonicalized through their binary encoding, so two
// structurally equal keys always land in the same group, regardless of
// how they were produced. Arrival order of values is preserved within a
// key; order across keys follows first arrival of each key.
func GroupByKey[K Keys, V Element](s *Scope, input PCol[KV[K, V]], opts ...Options) PCol[KV[K, []V]] {
	var opt flumeopts.Struct
	opt.Join(opts...)

	edgeID := s.g.curEdgeIndex()
	nodeID := s.g.curNodeIndex()
	id := s.g.edgeLabel("GroupByKey", edgeID, opt.Name)
	s.g.addConsumer(input.globalIndex, edgeID)

	s.g.edges = append(s.g.edges, &edgeGBK[K, V]{index: edgeID, transform: id, input: input.globalIndex, output: nodeID})
	s.g.nodes = append(s.g.nodes, &typedNode[KV[K, []V]]{id: id, index: nodeID, parentEdge: edgeID})

	return PCol[KV[K, []V]]{globalIndex: nodeID}
}

// edgeGBK represents a Group By Key transform.
type edgeGBK[K Keys, V Element] struct {
	index     edgeIndex
	transform string

	input, output nodeIndex
}

func (e *edgeGBK[K, V]) edgeID() edgeIndex {
	return e.index
}

func (e *edgeGBK[K, V]) transformID() string {
	return e.transform
}

// inputs for GBKs are one.
func (e *edgeGBK[K, V]) inputs() map[string]nodeIndex {
	return map[string]nodeIndex{"i0": e.input}
}

// outputs for GBKs are one.
func (e *edgeGBK[K, V]) outputs() map[string]nodeIndex {
	return map[string]nodeIndex{"o0": e.output}
}

func (e *edgeGBK[K, V]) evaluate(ec *evalContext) error {
	keyCoder := coders.MakeCoder[K]()

	// Encoded keys accumulate values in arrival order; the order slice
	// keeps group output deterministic by first arrival.
	var order []string
	groups := map[string][]V{}
	for _, wv := range ec.cache.values(e.input) {
		kv, ok := wv.Value.(KV[K, V])
		if !ok {
			return &TypeCheckError{Transform: e.transform, Reason: "grouping requires key and value pair elements", Value: wv.Value}
		}
		ek := string(coders.EncodeBytes(keyCoder, kv.Key))
		if _, seen := groups[ek]; !seen {
			order = append(order, ek)
		}
		groups[ek] = append(groups[ek], kv.Value)
	}

	out := make([]WindowedValue, 0, len(order))
	for _, ek := range order {
		k := coders.DecodeBytes(keyCoder, []byte(ek))
		out = append(out, inGlobalWindow(KV[K, []V]{Key: k, Value: groups[ek]}))
	}
	ec.cache.write(e.output, out)
	return nil
}

var _ multiEdge = (*edgeGBK[int, int])(nil)
