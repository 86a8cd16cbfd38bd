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
	"context"
	"fmt"
	"reflect"

	"github.com/pkg/errors"

	"driftline.dev/flume-go/counters"
	"driftline.dev/flume-go/internal/flumeopts"
)

// DoFn is a per element processing function over elements of type E,
// along with its construction time configuration.
//
// DoFns are structs. Exported [PCol] fields are the DoFn's outputs, and
// exported side input fields (from [AsSingleton], [AsIter], or [AsList])
// are its additional inputs. Both are discovered when the DoFn is passed
// to [ParDo].
type DoFn[E Element] interface {
	ProcessElement(pc *ProcessContext, elm E) error
}

// bundleStarter is implemented by DoFns needing setup before any element
// is processed.
type bundleStarter interface {
	StartBundle(pc *ProcessContext) error
}

// bundleFinisher is implemented by DoFns needing teardown after the last
// element. Elements may still be emitted from FinishBundle.
type bundleFinisher interface {
	FinishBundle(pc *ProcessContext) error
}

// ParDo takes the user's DoFn and returns the same type for downstream
// pipeline construction.
//
// The returned DoFn's PCol fields can then be used as inputs into other
// transforms.
func ParDo[E Element, DF DoFn[E]](s *Scope, input PCol[E], dofn DF, opts ...Options) DF {
	var opt flumeopts.Struct
	opt.Join(opts...)

	edgeID := s.g.curEdgeIndex()
	id := s.g.edgeLabel(dofnName(dofn), edgeID, opt.Name)
	ins, outs, outOrder, sides := s.g.deferDoFn(dofn, input.globalIndex, edgeID, id)

	s.g.edges = append(s.g.edges, &edgeParDo[E]{
		index: edgeID, transform: id, dofn: dofn,
		ins: ins, outs: outs, outOrder: outOrder, sides: sides,
		parallelIn: input.globalIndex,
	})

	return dofn
}

func dofnName(dofn any) string {
	rt := reflect.TypeOf(dofn)
	for rt.Kind() == reflect.Pointer {
		rt = rt.Elem()
	}
	return rt.Name()
}

// deferDoFn walks the DoFn's exported fields, registering output
// collections for PCol fields and side inputs for view fields.
func (g *graph) deferDoFn(dofn any, input nodeIndex, global edgeIndex, id string) (ins, outs map[string]nodeIndex, outOrder []nodeIndex, sides map[string]nodeIndex) {
	g.addConsumer(input, global)

	rv := reflect.ValueOf(dofn)
	if rv.Kind() == reflect.Pointer {
		rv = rv.Elem()
	}
	ins = map[string]nodeIndex{
		"parallel": input,
	}
	outs = map[string]nodeIndex{}
	sides = map[string]nodeIndex{}
	rt := rv.Type()
	for i := 0; i < rv.NumField(); i++ {
		fv := rv.Field(i)
		sf := rt.Field(i)
		if !fv.CanAddr() || !sf.IsExported() || sf.Type.Kind() != reflect.Struct {
			continue
		}
		fv = fv.Addr()
		switch feature := fv.Interface().(type) {
		case emitIface:
			outOrder = append(outOrder, g.initEmitter(feature, global, id, sf.Name, len(outs), outs))
		case sideIface:
			sideNode := feature.sideInput()
			g.addConsumer(sideNode, global)
			sides[sf.Name] = sideNode
			ins[sf.Name] = sideNode
		}
	}
	// A DoFn with no output fields still caches an empty primary output,
	// so re-runs can skip it and downstream lookups always succeed.
	if len(outOrder) == 0 {
		globalIndex := g.curNodeIndex()
		g.nodes = append(g.nodes, &typedNode[any]{id: id, index: globalIndex, parentEdge: global})
		outs["out"] = globalIndex
		outOrder = append(outOrder, globalIndex)
	}
	return ins, outs, outOrder, sides
}

func (g *graph) initEmitter(emt emitIface, global edgeIndex, id, name string, localIndex int, outs map[string]nodeIndex) nodeIndex {
	globalIndex := g.curNodeIndex()
	emt.setPColKey(globalIndex, localIndex)
	// The first registered output is the primary, labeled by the edge
	// itself; side tags carry the field name.
	nodeID := id
	if localIndex > 0 {
		nodeID = id + "/" + name
	}
	g.nodes = append(g.nodes, emt.newTypedNode(nodeID, globalIndex, global))
	outs[name] = globalIndex
	return globalIndex
}

// edgeParDo represents a generic per element transform.
type edgeParDo[E Element] struct {
	index     edgeIndex
	transform string

	dofn       DoFn[E]
	ins, outs  map[string]nodeIndex // local field names to global collection ids.
	outOrder   []nodeIndex          // local output index to global collection id.
	sides      map[string]nodeIndex // side input field names to view collection ids.
	parallelIn nodeIndex
}

func (e *edgeParDo[E]) edgeID() edgeIndex {
	return e.index
}

func (e *edgeParDo[E]) transformID() string {
	return e.transform
}

func (e *edgeParDo[E]) inputs() map[string]nodeIndex {
	return e.ins
}

func (e *edgeParDo[E]) outputs() map[string]nodeIndex {
	return e.outs
}

func (e *edgeParDo[E]) evaluate(ec *evalContext) error {
	// Side input views were evaluated by their own edges earlier in the
	// walk; here they only need to be looked up.
	sides := map[nodeIndex]any{}
	for _, n := range e.sides {
		vs := ec.cache.values(n)
		if len(vs) != 1 {
			return &ValueError{Transform: e.transform, Reason: fmt.Sprintf("side input %v not materialized", n)}
		}
		sides[n] = vs[0].Value
	}

	pc := &ProcessContext{
		ctx:      ec.ctx,
		step:     e.transform,
		counters: ec.counters,
		outs:     make([][]WindowedValue, len(e.outOrder)),
		sides:    sides,
	}
	if fn, ok := any(e.dofn).(bundleStarter); ok {
		if err := fn.StartBundle(pc); err != nil {
			return errors.Wrapf(err, "start bundle of %v", e.transform)
		}
	}
	for _, wv := range ec.cache.values(e.parallelIn) {
		if err := e.dofn.ProcessElement(pc, wv.Value.(E)); err != nil {
			return errors.Wrapf(err, "processing element in %v", e.transform)
		}
	}
	if fn, ok := any(e.dofn).(bundleFinisher); ok {
		if err := fn.FinishBundle(pc); err != nil {
			return errors.Wrapf(err, "finish bundle of %v", e.transform)
		}
	}

	// Every output tag is cached, empty or not, so downstream lookups of
	// this transform's collections always succeed once it has run.
	for i, n := range e.outOrder {
		ec.cache.write(n, pc.outs[i])
	}
	return nil
}

var _ multiEdge = (*edgeParDo[int])(nil)

// ProcessContext carries the per invocation state a DoFn can reach during
// a bundle: its output buffers, materialized side inputs, and the active
// counter registry for aggregator updates.
type ProcessContext struct {
	ctx      context.Context
	step     string
	counters *counters.Registry

	outs  [][]WindowedValue
	sides map[nodeIndex]any
}

// Context returns the context of the active run.
func (pc *ProcessContext) Context() context.Context {
	return pc.ctx
}

// Aggregate updates the named user aggregator for the current step.
func (pc *ProcessContext) Aggregate(name string, kind counters.Kind, value int64) {
	pc.counters.GetAggregatorCounter(pc.step, name, kind).Update(value)
}

func (pc *ProcessContext) emit(local int, elm any) {
	pc.outs[local] = append(pc.outs[local], inGlobalWindow(elm))
}

func (pc *ProcessContext) sideValue(n nodeIndex) any {
	v, ok := pc.sides[n]
	if !ok {
		panic(fmt.Sprintf("side input %v is not registered on this DoFn: views must be exported struct fields", n))
	}
	return v
}
