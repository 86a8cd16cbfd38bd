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
	"math"
	"math/rand/v2"

	"golang.org/x/exp/constraints"

	"driftline.dev/flume-go/internal/bheap"
)

// MeanFn averages its inputs. The empty reduction extracts NaN rather
// than erroring.
type MeanFn[E constraints.Integer | constraints.Float] struct{}

// MeanAccum is the partial state of a [MeanFn] reduction.
type MeanAccum struct {
	Sum   float64
	Count int64
}

func (MeanFn[E]) CreateAccumulator() MeanAccum {
	return MeanAccum{}
}

func (MeanFn[E]) AddInput(a MeanAccum, elm E) MeanAccum {
	a.Sum += float64(elm)
	a.Count++
	return a
}

func (MeanFn[E]) MergeAccumulators(a, b MeanAccum) MeanAccum {
	return MeanAccum{Sum: a.Sum + b.Sum, Count: a.Count + b.Count}
}

func (MeanFn[E]) ExtractOutput(a MeanAccum) float64 {
	if a.Count == 0 {
		return math.NaN()
	}
	return a.Sum / float64(a.Count)
}

var _ CombineFn[MeanAccum, int, float64] = MeanFn[int]{}

// CountFn counts its inputs. Batches are counted by length, not element
// by element.
type CountFn[E Element] struct{}

func (CountFn[E]) CreateAccumulator() int64 {
	return 0
}

func (CountFn[E]) AddInput(a int64, _ E) int64 {
	return a + 1
}

func (CountFn[E]) AddInputs(a int64, elms []E) int64 {
	return a + int64(len(elms))
}

func (CountFn[E]) MergeAccumulators(a, b int64) int64 {
	return a + b
}

func (CountFn[E]) ExtractOutput(a int64) int64 {
	return a
}

var (
	_ CombineFn[int64, string, int64] = CountFn[string]{}
	_ InputsAdder[int64, string]      = CountFn[string]{}
)

// TopFn keeps the n greatest inputs under a strict less comparator.
//
// The accumulator is a bounded min heap: while under the bound new inputs
// are pushed, and at the bound an input replaces the current minimum only
// if it is greater. Ties are broken by arbitrary insertion order, since
// the comparator is strict. Extraction orders the survivors greatest
// first.
type TopFn[E Element] struct {
	n    int
	less func(a, b E) bool
}

// Top returns a TopFn keeping the n greatest elements under less, which
// must be a strict ordering: less(a, a) is always false.
func Top[E Element](n int, less func(a, b E) bool) *TopFn[E] {
	return &TopFn[E]{n: n, less: less}
}

// TopWith is [Top] with an extra argument bound into the comparator at
// construction, so a parameterized ordering needs no dedicated closure at
// each call site.
func TopWith[E Element, P any](n int, less func(a, b E, arg P) bool, arg P) *TopFn[E] {
	return &TopFn[E]{n: n, less: func(a, b E) bool { return less(a, b, arg) }}
}

// Largest returns a TopFn keeping the n largest elements in their natural
// order.
func Largest[E interface {
	constraints.Ordered
	Element
}](n int) *TopFn[E] {
	return Top(n, func(a, b E) bool { return a < b })
}

// Smallest returns a TopFn keeping the n smallest elements in their
// natural order.
func Smallest[E interface {
	constraints.Ordered
	Element
}](n int) *TopFn[E] {
	return Top(n, func(a, b E) bool { return a > b })
}

func (fn *TopFn[E]) CreateAccumulator() *bheap.Heap[E] {
	return bheap.New(fn.less)
}

func (fn *TopFn[E]) AddInput(a *bheap.Heap[E], elm E) *bheap.Heap[E] {
	if a.Len() < fn.n {
		a.Push(elm)
	} else if fn.n > 0 {
		a.PushPop(elm)
	}
	return a
}

func (fn *TopFn[E]) MergeAccumulators(a, b *bheap.Heap[E]) *bheap.Heap[E] {
	for _, elm := range b.Items() {
		a = fn.AddInput(a, elm)
	}
	return a
}

func (fn *TopFn[E]) ExtractOutput(a *bheap.Heap[E]) []E {
	return a.SortedDescending()
}

var _ CombineFn[*bheap.Heap[int], int, []int] = (*TopFn[int])(nil)

// SampleFn is a fixed size uniform sample without replacement. Each input
// is paired with a fresh uniform random key and the n inputs with the
// greatest keys survive, which is order independent as long as keys are
// drawn independently per element.
type SampleFn[E Element] struct {
	top *TopFn[randKeyed[E]]
}

type randKeyed[E Element] struct {
	key float64
	elm E
}

// Sample returns a SampleFn keeping a uniform sample of n elements.
func Sample[E Element](n int) *SampleFn[E] {
	return &SampleFn[E]{
		top: Top(n, func(a, b randKeyed[E]) bool { return a.key < b.key }),
	}
}

func (fn *SampleFn[E]) CreateAccumulator() *bheap.Heap[randKeyed[E]] {
	return fn.top.CreateAccumulator()
}

func (fn *SampleFn[E]) AddInput(a *bheap.Heap[randKeyed[E]], elm E) *bheap.Heap[randKeyed[E]] {
	return fn.top.AddInput(a, randKeyed[E]{key: rand.Float64(), elm: elm})
}

func (fn *SampleFn[E]) MergeAccumulators(a, b *bheap.Heap[randKeyed[E]]) *bheap.Heap[randKeyed[E]] {
	return fn.top.MergeAccumulators(a, b)
}

func (fn *SampleFn[E]) ExtractOutput(a *bheap.Heap[randKeyed[E]]) []E {
	keyed := fn.top.ExtractOutput(a)
	out := make([]E, 0, len(keyed))
	for _, kv := range keyed {
		out = append(out, kv.elm)
	}
	return out
}

var _ CombineFn[*bheap.Heap[randKeyed[int]], int, []int] = (*SampleFn[int])(nil)

// ToListFn collects its inputs into a slice. Order within a partial is
// arrival order; order across merged partials is merge order.
type ToListFn[E Element] struct{}

func (ToListFn[E]) CreateAccumulator() []E {
	return nil
}

func (ToListFn[E]) AddInput(a []E, elm E) []E {
	return append(a, elm)
}

func (ToListFn[E]) MergeAccumulators(a, b []E) []E {
	return append(a, b...)
}

func (ToListFn[E]) ExtractOutput(a []E) []E {
	return a
}

var _ CombineFn[[]int, int, []int] = ToListFn[int]{}

// ToDictFn collects key and value pair inputs into a map. Duplicate keys
// are lossy: the last write within a partial wins, and on merge the later
// partial's value wins. This is not an error.
type ToDictFn[K Keys, V Element] struct{}

func (ToDictFn[K, V]) CreateAccumulator() map[K]V {
	return map[K]V{}
}

func (ToDictFn[K, V]) AddInput(a map[K]V, elm KV[K, V]) map[K]V {
	a[elm.Key] = elm.Value
	return a
}

func (ToDictFn[K, V]) MergeAccumulators(a, b map[K]V) map[K]V {
	for k, v := range b {
		a[k] = v
	}
	return a
}

func (ToDictFn[K, V]) ExtractOutput(a map[K]V) map[K]V {
	return a
}

var _ CombineFn[map[string]int, KV[string, int], map[string]int] = ToDictFn[string, int]{}

// TupleCombineFn runs two independent combines in lockstep over a pair of
// parallel input streams, one per sub combine.
type TupleCombineFn[A1, I1, O1, A2, I2, O2 any] struct {
	fn1 CombineFn[A1, I1, O1]
	fn2 CombineFn[A2, I2, O2]
}

// TupleOf composes two combines over parallel inputs.
func TupleOf[A1, I1, O1, A2, I2, O2 any, CF1 CombineFn[A1, I1, O1], CF2 CombineFn[A2, I2, O2]](fn1 CF1, fn2 CF2) *TupleCombineFn[A1, I1, O1, A2, I2, O2] {
	return &TupleCombineFn[A1, I1, O1, A2, I2, O2]{fn1: fn1, fn2: fn2}
}

func (fn *TupleCombineFn[A1, I1, O1, A2, I2, O2]) CreateAccumulator() KV[A1, A2] {
	return KV[A1, A2]{Key: fn.fn1.CreateAccumulator(), Value: fn.fn2.CreateAccumulator()}
}

func (fn *TupleCombineFn[A1, I1, O1, A2, I2, O2]) AddInput(a KV[A1, A2], elm KV[I1, I2]) KV[A1, A2] {
	return KV[A1, A2]{
		Key:   fn.fn1.AddInput(a.Key, elm.Key),
		Value: fn.fn2.AddInput(a.Value, elm.Value),
	}
}

func (fn *TupleCombineFn[A1, I1, O1, A2, I2, O2]) MergeAccumulators(a, b KV[A1, A2]) KV[A1, A2] {
	return KV[A1, A2]{
		Key:   fn.fn1.MergeAccumulators(a.Key, b.Key),
		Value: fn.fn2.MergeAccumulators(a.Value, b.Value),
	}
}

func (fn *TupleCombineFn[A1, I1, O1, A2, I2, O2]) ExtractOutput(a KV[A1, A2]) KV[O1, O2] {
	return KV[O1, O2]{Key: fn.fn1.ExtractOutput(a.Key), Value: fn.fn2.ExtractOutput(a.Value)}
}

var _ CombineFn[KV[MeanAccum, int64], KV[int, string], KV[float64, int64]] = TupleOf(MeanFn[int]{}, CountFn[string]{})

// SingleInputTupleCombineFn runs two independent combines in lockstep
// over one shared input stream, broadcasting each element to both.
type SingleInputTupleCombineFn[I Element, A1, O1, A2, O2 any] struct {
	fn1 CombineFn[A1, I, O1]
	fn2 CombineFn[A2, I, O2]
}

// AllOf composes two combines over a shared input.
func AllOf[I Element, A1, O1, A2, O2 any, CF1 CombineFn[A1, I, O1], CF2 CombineFn[A2, I, O2]](fn1 CF1, fn2 CF2) *SingleInputTupleCombineFn[I, A1, O1, A2, O2] {
	return &SingleInputTupleCombineFn[I, A1, O1, A2, O2]{fn1: fn1, fn2: fn2}
}

func (fn *SingleInputTupleCombineFn[I, A1, O1, A2, O2]) CreateAccumulator() KV[A1, A2] {
	return KV[A1, A2]{Key: fn.fn1.CreateAccumulator(), Value: fn.fn2.CreateAccumulator()}
}

func (fn *SingleInputTupleCombineFn[I, A1, O1, A2, O2]) AddInput(a KV[A1, A2], elm I) KV[A1, A2] {
	return KV[A1, A2]{
		Key:   fn.fn1.AddInput(a.Key, elm),
		Value: fn.fn2.AddInput(a.Value, elm),
	}
}

func (fn *SingleInputTupleCombineFn[I, A1, O1, A2, O2]) MergeAccumulators(a, b KV[A1, A2]) KV[A1, A2] {
	return KV[A1, A2]{
		Key:   fn.fn1.MergeAccumulators(a.Key, b.Key),
		Value: fn.fn2.MergeAccumulators(a.Value, b.Value),
	}
}

func (fn *SingleInputTupleCombineFn[I, A1, O1, A2, O2]) ExtractOutput(a KV[A1, A2]) KV[O1, O2] {
	return KV[O1, O2]{Key: fn.fn1.ExtractOutput(a.Key), Value: fn.fn2.ExtractOutput(a.Value)}
}

var _ CombineFn[KV[MeanAccum, int64], int, KV[float64, int64]] = AllOf(MeanFn[int]{}, CountFn[int]{})
