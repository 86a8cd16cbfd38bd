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

// Package bheap provides a binary min-heap ordered by an explicit comparator.
//
// The comparator travels with the heap value instead of being registered
// anywhere global, so two heaps over the same element type can hold different
// orderings. The comparator must be a strict less-than.
package bheap

import "sort"

// Heap is a min-heap of E under a strict less-than comparator.
// The zero Heap is unusable; construct with New.
type Heap[E any] struct {
	less  func(a, b E) bool
	items []E
}

// New returns an empty heap ordered by less.
func New[E any](less func(a, b E) bool) *Heap[E] {
	return &Heap[E]{less: less}
}

// Len returns the number of items held.
func (h *Heap[E]) Len() int { return len(h.items) }

// Min returns the least item without removing it.
func (h *Heap[E]) Min() (E, bool) {
	if len(h.items) == 0 {
		var zero E
		return zero, false
	}
	return h.items[0], true
}

// Push adds v to the heap.
func (h *Heap[E]) Push(v E) {
	h.items = append(h.items, v)
	h.siftUp(len(h.items) - 1)
}

// PushPop pushes v and pops the minimum in one step, returning the popped
// item. When v itself is not greater than the current minimum it is returned
// unchanged and the heap is untouched, which is what bounds a keep-the-top-K
// filter: feeding every element through PushPop leaves the K greatest behind.
func (h *Heap[E]) PushPop(v E) E {
	if len(h.items) > 0 && h.less(h.items[0], v) {
		h.items[0], v = v, h.items[0]
		h.siftDown(0)
	}
	return v
}

// Items returns the held items in heap order. The slice aliases the heap's
// storage; callers must not mutate it.
func (h *Heap[E]) Items() []E { return h.items }

// SortedDescending returns a fresh slice of the held items from greatest to
// least under the heap's comparator. The heap is left intact.
func (h *Heap[E]) SortedDescending() []E {
	out := append([]E(nil), h.items...)
	sort.SliceStable(out, func(i, j int) bool { return h.less(out[j], out[i]) })
	return out
}

func (h *Heap[E]) siftUp(i int) {
	for i > 0 {
		parent := (i - 1) / 2
		if !h.less(h.items[i], h.items[parent]) {
			return
		}
		h.items[i], h.items[parent] = h.items[parent], h.items[i]
		i = parent
	}
}

func (h *Heap[E]) siftDown(i int) {
	n := len(h.items)
	for {
		least := i
		if l := 2*i + 1; l < n && h.less(h.items[l], h.items[least]) {
			least = l
		}
		if r := 2*i + 2; r < n && h.less(h.items[r], h.items[least]) {
			least = r
		}
		if least == i {
			return
		}
		h.items[i], h.items[least] = h.items[least], h.items[i]
		i = least
	}
}
