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

// CombineFn is an associative reduction over elements of type I into an
// output of type O, through an intermediate accumulator A.
//
// The four phase shape is what lets a combine be split: partial combines
// run near the data (add phase), partials merge pairwise or tree-wise
// (merge phase), and the output is derived once (extract phase).
// Accumulators are owned by the combine invoking them and are never
// shared, except when explicitly merged.
type CombineFn[A, I, O any] interface {
	CreateAccumulator() A
	AddInput(a A, elm I) A
	MergeAccumulators(a, b A) A
	ExtractOutput(a A) O
}

// InputsAdder is implemented by CombineFns with a batch add cheaper than
// folding element by element, such as a count adding the batch length.
type InputsAdder[A, I any] interface {
	AddInputs(a A, elms []I) A
}

// addInputs folds a batch of inputs into the accumulator, deferring to
// the CombineFn's own batch method when it has one.
func addInputs[A, I, O any](fn CombineFn[A, I, O], a A, elms []I) A {
	if ia, ok := fn.(InputsAdder[A, I]); ok {
		return ia.AddInputs(a, elms)
	}
	for _, elm := range elms {
		a = fn.AddInput(a, elm)
	}
	return a
}

// Phase selects which part of a split combine a [PhasedCombine] runs.
type Phase int

const (
	// PhaseAll runs the whole reduction: create, add every input, extract.
	PhaseAll Phase = iota + 1
	// PhaseAdd folds a batch of inputs into a fresh accumulator.
	PhaseAdd
	// PhaseMerge merges the accumulators of parallel partial combines.
	PhaseMerge
	// PhaseExtract derives the final output from a merged accumulator.
	PhaseExtract
)

func (p Phase) String() string {
	switch p {
	case PhaseAll:
		return "all"
	case PhaseAdd:
		return "add"
	case PhaseMerge:
		return "merge"
	case PhaseExtract:
		return "extract"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

// PhasedCombine runs one phase of a split combine, so an execution plan
// can lift merges earlier in a pipeline without re-deriving the add
// logic.
type PhasedCombine[A, I, O any] struct {
	fn    CombineFn[A, I, O]
	phase Phase
}

// NewPhasedCombine pairs a CombineFn with the phase [Apply] dispatches
// to. Panics on an unknown phase.
func NewPhasedCombine[A, I, O any, CF CombineFn[A, I, O]](fn CF, phase Phase) *PhasedCombine[A, I, O] {
	switch phase {
	case PhaseAll, PhaseAdd, PhaseMerge, PhaseExtract:
	default:
		panic(fmt.Sprintf("unexpected combine phase: %v", phase))
	}
	return &PhasedCombine[A, I, O]{fn: fn, phase: phase}
}

// All runs the full reduction over the batch.
func (p *PhasedCombine[A, I, O]) All(elms []I) O {
	return p.fn.ExtractOutput(p.Add(elms))
}

// Add folds the batch into a new accumulator.
func (p *PhasedCombine[A, I, O]) Add(elms []I) A {
	return addInputs(p.fn, p.fn.CreateAccumulator(), elms)
}

// Merge combines sibling accumulators into one.
func (p *PhasedCombine[A, I, O]) Merge(accums []A) A {
	a := p.fn.CreateAccumulator()
	for _, b := range accums {
		a = p.fn.MergeAccumulators(a, b)
	}
	return a
}

// Extract derives the output from a final accumulator.
func (p *PhasedCombine[A, I, O]) Extract(a A) O {
	return p.fn.ExtractOutput(a)
}

// Apply runs the constructed phase: a batch of inputs for [PhaseAll] and
// [PhaseAdd], a batch of accumulators for [PhaseMerge], and a single
// accumulator for [PhaseExtract].
func (p *PhasedCombine[A, I, O]) Apply(input any) any {
	switch p.phase {
	case PhaseAll:
		return p.All(input.([]I))
	case PhaseAdd:
		return p.Add(input.([]I))
	case PhaseMerge:
		return p.Merge(input.([]A))
	default:
		return p.Extract(input.(A))
	}
}

// CombinePerKey reduces the values of each key with fn, yielding one
// key and output pair per distinct key. It is a composite of
// [GroupByKey] and a per group reduction.
func CombinePerKey[K Keys, I Element, A, O any, CF CombineFn[A, I, O]](s *Scope, input PCol[KV[K, I]], fn CF, opts ...Options) PCol[KV[K, O]] {
	var opt flumeopts.Struct
	opt.Join(opts...)

	grouped := GroupByKey(s, input, subName(opt.Name, "GroupByKey")...)
	out := ParDo(s, grouped, &combineValuesFn[K, A, I, O]{fn: fn}, subName(opt.Name, "CombineValues")...)
	return out.Output
}

// subName labels a composite's inner transforms under the composite's
// own name, keeping per transform labels distinct.
func subName(name, part string) []Options {
	if name == "" {
		return nil
	}
	return []Options{Name(name + "/" + part)}
}

type combineValuesFn[K Keys, A, I, O any] struct {
	fn CombineFn[A, I, O]

	Output PCol[KV[K, O]]
}

func (c *combineValuesFn[K, A, I, O]) ProcessElement(pc *ProcessContext, elm KV[K, []I]) error {
	a := addInputs(c.fn, c.fn.CreateAccumulator(), elm.Value)
	c.Output.Emit(pc, KV[K, O]{Key: elm.Key, Value: c.fn.ExtractOutput(a)})
	return nil
}

// CombineGlobally reduces the whole input collection with fn, yielding a
// collection holding the single output. An empty input yields an empty
// output collection.
func CombineGlobally[I Element, A, O any, CF CombineFn[A, I, O]](s *Scope, input PCol[I], fn CF, opts ...Options) PCol[O] {
	var opt flumeopts.Struct
	opt.Join(opts...)

	keyed := ParDo(s, input, &addFixedKeyFn[I]{}, subName(opt.Name, "AddFixedKey")...)
	combined := CombinePerKey[int, I, A, O, CF](s, keyed.Output, fn, subName(opt.Name, "CombinePerKey")...)
	out := ParDo(s, combined, &dropKeyFn[int, O]{}, subName(opt.Name, "DropKey")...)
	return out.Output
}

type addFixedKeyFn[E Element] struct {
	Output PCol[KV[int, E]]
}

func (fn *addFixedKeyFn[E]) ProcessElement(pc *ProcessContext, elm E) error {
	fn.Output.Emit(pc, KV[int, E]{Key: 0, Value: elm})
	return nil
}

type dropKeyFn[K Keys, V Element] struct {
	Output PCol[V]
}

func (fn *dropKeyFn[K, V]) ProcessElement(pc *ProcessContext, elm KV[K, V]) error {
	fn.Output.Emit(pc, elm.Value)
	return nil
}

// Map is a convenience for a single output, element wise function.
type mapper[I, O Element] struct {
	fn func(I) O

	Output PCol[O]
}

func (fn *mapper[I, O]) ProcessElement(pc *ProcessContext, elm I) error {
	fn.Output.Emit(pc, fn.fn(elm))
	return nil
}

// Map adds an element wise transform applying lambda to every element.
func Map[I, O Element](s *Scope, input PCol[I], lambda func(I) O, opts ...Options) PCol[O] {
	out := ParDo(s, input, &mapper[I, O]{fn: lambda}, opts...)
	return out.Output
}
