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

package bheap

import (
	"math/rand/v2"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func intLess(a, b int) bool { return a < b }

func TestHeapOrdering(t *testing.T) {
	h := New(intLess)
	for _, v := range []int{5, 1, 9, 3, 7} {
		h.Push(v)
	}
	if got, _ := h.Min(); got != 1 {
		t.Errorf("Min() = %v, want 1", got)
	}
	if d := cmp.Diff([]int{9, 7, 5, 3, 1}, h.SortedDescending()); d != "" {
		t.Errorf("SortedDescending() diff (-want, +got):\n%v", d)
	}
	if got, want := h.Len(), 5; got != want {
		t.Errorf("Len() = %v, want %v", got, want)
	}
}

func TestHeapPushPopBounds(t *testing.T) {
	const k = 3
	h := New(intLess)
	for _, v := range rand.Perm(100) {
		if h.Len() < k {
			h.Push(v)
		} else {
			h.PushPop(v)
		}
	}
	if d := cmp.Diff([]int{99, 98, 97}, h.SortedDescending()); d != "" {
		t.Errorf("bounded filter kept the wrong items, diff (-want, +got):\n%v", d)
	}
}

func TestHeapPushPopDiscardsSmaller(t *testing.T) {
	h := New(intLess)
	h.Push(10)
	if got := h.PushPop(4); got != 4 {
		t.Errorf("PushPop(4) = %v, want 4 back (not greater than min)", got)
	}
	if got := h.PushPop(12); got != 10 {
		t.Errorf("PushPop(12) = %v, want 10 evicted", got)
	}
	if got, _ := h.Min(); got != 12 {
		t.Errorf("Min() = %v, want 12", got)
	}
}

func TestHeapCustomComparator(t *testing.T) {
	// Reverse ordering: the "minimum" is the greatest int.
	h := New(func(a, b int) bool { return b < a })
	for _, v := range []int{2, 8, 4} {
		h.Push(v)
	}
	if got, _ := h.Min(); got != 8 {
		t.Errorf("Min() under reversed comparator = %v, want 8", got)
	}
	if d := cmp.Diff([]int{2, 4, 8}, h.SortedDescending()); d != "" {
		t.Errorf("SortedDescending() diff (-want, +got):\n%v", d)
	}
}
