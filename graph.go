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
)

// Element represents any user type that can flow through a pipeline.
type Element interface {
	any
}

// Keys is an [Element] that is also [comparable]. Distinct keys must have
// distinct binary encodings in order for grouping to distinguish them.
type Keys interface {
	comparable
	Element
}

// KV represents a key and value pair, used with [GroupByKey] and the
// per-key combines.
type KV[K, V Element] struct {
	Key   K
	Value V
}

// nodeIndex is the stable arena index of a collection in the graph,
// assigned at construction time. The collection cache is a slice indexed
// by it, so cache lookup never needs element hashing or identity.
type nodeIndex int
type edgeIndex int

func (i nodeIndex) String() string {
	return fmt.Sprintf("n%d", int(i))
}

func (i edgeIndex) String() string {
	return fmt.Sprintf("e%d", int(i))
}

// node is the graph representation of a collection produced by an edge.
type node interface {
	nodeID() nodeIndex
	label() string
	parent() edgeIndex
}

type typedNode[E Element] struct {
	id         string
	index      nodeIndex
	parentEdge edgeIndex
}

func (n *typedNode[E]) nodeID() nodeIndex { return n.index }
func (n *typedNode[E]) label() string     { return n.id }
func (n *typedNode[E]) parent() edgeIndex { return n.parentEdge }

// multiEdge is the graph representation of a transform. The set of edge
// variants is closed: every transform kind the executor knows has its own
// variant with its own evaluation rule, and adding a kind means adding a
// variant.
type multiEdge interface {
	edgeID() edgeIndex
	transformID() string
	inputs() map[string]nodeIndex
	outputs() map[string]nodeIndex

	// evaluate produces the edge's output collections into the cache.
	// Called at most once per run per edge; skipped when all outputs
	// are already cached.
	evaluate(ec *evalContext) error
}

type graph struct {
	nodes []node
	edges []multiEdge

	consumers map[nodeIndex][]edgeIndex
}

func (g *graph) curNodeIndex() nodeIndex {
	return nodeIndex(len(g.nodes))
}

func (g *graph) curEdgeIndex() edgeIndex {
	return edgeIndex(len(g.edges))
}

func (g *graph) addConsumer(input nodeIndex, edge edgeIndex) {
	if g.consumers == nil {
		g.consumers = map[nodeIndex][]edgeIndex{}
	}
	g.consumers[input] = append(g.consumers[input], edge)
}

// edgeLabel resolves the display name of a transform, preferring the
// user-assigned option name over a generated kind+index one.
func (g *graph) edgeLabel(kind string, index edgeIndex, optName string) string {
	if optName != "" {
		return optName
	}
	return fmt.Sprintf("%s/%v", kind, index)
}

// Scope is used during pipeline construction to add transforms to the
// graph. Scopes are provided by [Run] and [NewPipeline] to their
// construction callbacks.
type Scope struct {
	g *graph
}

// PCol represents a logical collection of elements produced, or consumed
// by a transform.
//
// Used as an exported field of a DoFn struct, a PCol is an output of that
// DoFn. After the DoFn is passed to [ParDo] the field is initialized, and
// can be passed around by value to build further transforms.
type PCol[E Element] struct {
	valid       bool
	globalIndex nodeIndex
	localIndex  int
}

// emitIface abstracts over PCol types so the graph can initialize DoFn
// output fields without knowing their element types.
type emitIface interface {
	setPColKey(global nodeIndex, id int)
	newTypedNode(id string, global nodeIndex, parent edgeIndex) node
}

var _ emitIface = (*PCol[any])(nil)

func (emt *PCol[E]) setPColKey(global nodeIndex, id int) {
	emt.valid = true
	emt.globalIndex = global
	emt.localIndex = id
}

func (emt *PCol[E]) newTypedNode(id string, global nodeIndex, parent edgeIndex) node {
	return &typedNode[E]{id: id, index: global, parentEdge: parent}
}

// Emit outputs the element to this collection within the current element's
// processing context. Only valid while the owning DoFn is being processed.
func (emt *PCol[E]) Emit(pc *ProcessContext, elm E) {
	if !emt.valid {
		panic(fmt.Sprintf("emit on an uninitialized PCol[%T]: DoFn output fields must be exported and the DoFn passed to ParDo", elm))
	}
	pc.emit(emt.localIndex, elm)
}
