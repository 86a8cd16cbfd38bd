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
	"iter"
	"slices"

	"driftline.dev/flume-go/internal/flumeopts"
)

// Side inputs are auxiliary, fully materialized collections made available
// to a DoFn beyond its primary input. The view constructors below add a
// materialization edge to the graph; the returned view value is then set
// as an exported field of the consuming DoFn.

type viewKind int

const (
	viewSingleton viewKind = iota + 1
	viewIter
	viewList
)

func (k viewKind) String() string {
	switch k {
	case viewSingleton:
		return "AsSingleton"
	case viewIter:
		return "AsIter"
	case viewList:
		return "AsList"
	default:
		return fmt.Sprintf("viewKind(%d)", int(k))
	}
}

// emptySideInput marks a singleton view materialized from zero elements
// with no declared default. Consumers observe it as ok == false.
type emptySideInput struct{}

type sideIface interface {
	sideInput() nodeIndex
}

// SideSingleton provides a DoFn access to a single element side input.
type SideSingleton[E Element] struct {
	valid  bool
	global nodeIndex
}

func (si SideSingleton[E]) sideInput() nodeIndex { return si.global }

// Value returns the materialized element. ok is false when the source
// collection was empty and the view declared no default.
func (si SideSingleton[E]) Value(pc *ProcessContext) (E, bool) {
	v := pc.sideValue(si.global)
	if _, empty := v.(emptySideInput); empty {
		var zero E
		return zero, false
	}
	return v.(E), true
}

// AsSingleton views the input collection as a side input holding exactly
// one element. Materializing from a collection with more than one element
// fails the run.
func AsSingleton[E Element](s *Scope, input PCol[E], opts ...Options) SideSingleton[E] {
	n := addView(s, input, viewSingleton, false, *new(E), opts...)
	return SideSingleton[E]{valid: true, global: n}
}

// AsSingletonWithDefault is [AsSingleton], except an empty source
// collection yields def instead of the empty marker.
func AsSingletonWithDefault[E Element](s *Scope, input PCol[E], def E, opts ...Options) SideSingleton[E] {
	n := addView(s, input, viewSingleton, true, def, opts...)
	return SideSingleton[E]{valid: true, global: n}
}

// SideIter provides a DoFn forward traversal over a side input.
type SideIter[E Element] struct {
	valid  bool
	global nodeIndex
}

func (si SideIter[E]) sideInput() nodeIndex { return si.global }

// All returns an iterator over the side input's elements.
func (si SideIter[E]) All(pc *ProcessContext) iter.Seq[E] {
	elms := pc.sideValue(si.global).([]E)
	return func(yield func(E) bool) {
		for _, e := range elms {
			if !yield(e) {
				return
			}
		}
	}
}

// AsIter views the input collection as a side input traversed element by
// element, in the collection's order.
func AsIter[E Element](s *Scope, input PCol[E], opts ...Options) SideIter[E] {
	n := addView(s, input, viewIter, false, *new(E), opts...)
	return SideIter[E]{valid: true, global: n}
}

// SideList provides a DoFn random access over a side input.
type SideList[E Element] struct {
	valid  bool
	global nodeIndex
}

func (si SideList[E]) sideInput() nodeIndex { return si.global }

// Values returns the side input's elements in order.
func (si SideList[E]) Values(pc *ProcessContext) []E {
	return slices.Clone(pc.sideValue(si.global).([]E))
}

// AsList views the input collection as an ordered, random access side
// input.
func AsList[E Element](s *Scope, input PCol[E], opts ...Options) SideList[E] {
	n := addView(s, input, viewList, false, *new(E), opts...)
	return SideList[E]{valid: true, global: n}
}

func addView[E Element](s *Scope, input PCol[E], kind viewKind, hasDefault bool, def E, opts ...Options) nodeIndex {
	var opt flumeopts.Struct
	opt.Join(opts...)

	edgeID := s.g.curEdgeIndex()
	nodeID := s.g.curNodeIndex()
	id := s.g.edgeLabel(kind.String(), edgeID, opt.Name)
	s.g.addConsumer(input.globalIndex, edgeID)

	s.g.edges = append(s.g.edges, &edgeView[E]{
		index: edgeID, transform: id, kind: kind,
		input: input.globalIndex, output: nodeID,
		hasDefault: hasDefault, def: def,
	})
	s.g.nodes = append(s.g.nodes, &typedNode[E]{id: id, index: nodeID, parentEdge: edgeID})
	return nodeID
}

// edgeView represents the materialization of a side input view.
type edgeView[E Element] struct {
	index     edgeIndex
	transform string
	kind      viewKind

	input, output nodeIndex
	hasDefault    bool
	def           E
}

func (e *edgeView[E]) edgeID() edgeIndex {
	return e.index
}

func (e *edgeView[E]) transformID() string {
	return e.transform
}

func (e *edgeView[E]) inputs() map[string]nodeIndex {
	return map[string]nodeIndex{"i0": e.input}
}

func (e *edgeView[E]) outputs() map[string]nodeIndex {
	return map[string]nodeIndex{"o0": e.output}
}

func (e *edgeView[E]) evaluate(ec *evalContext) error {
	in := ec.cache.values(e.input)
	var payload any
	switch e.kind {
	case viewSingleton:
		switch len(in) {
		case 0:
			if e.hasDefault {
				payload = e.def
			} else {
				payload = emptySideInput{}
			}
		case 1:
			payload = in[0].Value
		default:
			return &ValueError{Transform: e.transform, Reason: fmt.Sprintf("collection with %d elements accessed as a singleton view", len(in))}
		}
	case viewIter, viewList:
		elms := make([]E, 0, len(in))
		for _, wv := range in {
			elms = append(elms, wv.Value.(E))
		}
		payload = elms
	default:
		return &NotImplementedError{What: fmt.Sprintf("side input view kind %v", e.kind)}
	}
	ec.cache.write(e.output, []WindowedValue{inGlobalWindow(payload)})
	return nil
}

var _ multiEdge = (*edgeView[int])(nil)
