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

package counters

import (
	"math"
	"math/big"
	"testing"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/sync/errgroup"
)

func TestCounterSum(t *testing.T) {
	r := NewRegistry()
	c := r.GetCounter("step-out-ElementCount", Sum)
	for _, d := range []int64{1, 2, 3, 4} {
		c.Update(d)
	}
	if got, want := c.Value(), big.NewRat(10, 1); got.Cmp(want) != 0 {
		t.Errorf("Value() = %v, want %v", got, want)
	}
	if got, want := c.Elements(), int64(4); got != want {
		t.Errorf("Elements() = %v, want %v", got, want)
	}
}

func TestCounterMean(t *testing.T) {
	r := NewRegistry()
	c := r.GetCounter("step-mean", Mean)
	for _, d := range []int64{2, 4, 6} {
		c.Update(d)
	}
	if got, want := c.Value(), big.NewRat(4, 1); got.Cmp(want) != 0 {
		t.Errorf("Value() = %v, want %v", got, want)
	}
	if got, want := c.Float64(), 4.0; got != want {
		t.Errorf("Float64() = %v, want %v", got, want)
	}
}

func TestCounterMeanNoElements(t *testing.T) {
	r := NewRegistry()
	c := r.GetCounter("step-mean-empty", Mean)
	if got := c.Float64(); !math.IsNaN(got) {
		t.Errorf("Float64() on empty mean = %v, want NaN", got)
	}
	defer func() {
		if recover() == nil {
			t.Error("Value() on an empty mean counter did not panic")
		}
	}()
	c.Value()
}

func TestCounterOverflow(t *testing.T) {
	r := NewRegistry()
	c := r.GetCounter("step-big", Sum)
	c.Update(math.MaxInt64)
	// The next update overflows the fast path; the delta must not be lost.
	c.Update(5)
	c.Update(-2)

	want := new(big.Int).Add(big.NewInt(math.MaxInt64), big.NewInt(3))
	if got := c.Total(); got.Cmp(want) != 0 {
		t.Errorf("Total() after overflow = %v, want %v", got, want)
	}
	if got := c.Value(); got.Cmp(new(big.Rat).SetInt(want)) != 0 {
		t.Errorf("Value() after overflow = %v, want %v", got, want)
	}
	if got, want := c.Elements(), int64(3); got != want {
		t.Errorf("Elements() = %v, want %v", got, want)
	}
}

func TestRegistryIdempotentLookup(t *testing.T) {
	r := NewRegistry()
	a := r.GetCounter("same", Sum)
	b := r.GetCounter("same", Sum)
	if a != b {
		t.Error("GetCounter returned distinct counters for the same name")
	}

	defer func() {
		if recover() == nil {
			t.Error("GetCounter with a mismatched kind did not panic")
		}
	}()
	r.GetCounter("same", Mean)
}

func TestRegistryReservedKinds(t *testing.T) {
	r := NewRegistry()
	for _, k := range []Kind{Max, Min, And, Or} {
		func() {
			defer func() {
				if recover() == nil {
					t.Errorf("GetCounter with reserved kind %v did not panic", k)
				}
			}()
			r.GetCounter("reserved", k)
		}()
	}
}

func TestAggregatorValues(t *testing.T) {
	r := NewRegistry()
	r.GetAggregatorCounter("read", "records", Sum).Update(7)
	r.GetAggregatorCounter("parse", "records", Sum).Update(11)
	r.GetAggregatorCounter("parse", "latency", Mean).Update(40)
	r.GetCounter("parse-out-ElementCount", Sum).Update(100)

	got := r.AggregatorValues("records")
	want := map[string]*big.Rat{
		"read":  big.NewRat(7, 1),
		"parse": big.NewRat(11, 1),
	}
	if d := cmp.Diff(want, got, cmp.Comparer(func(a, b *big.Rat) bool { return a.Cmp(b) == 0 })); d != "" {
		t.Errorf("AggregatorValues(records) diff (-want, +got):\n%v", d)
	}
}

func TestRegistryConcurrentAccess(t *testing.T) {
	r := NewRegistry()
	var g errgroup.Group
	for i := 0; i < 8; i++ {
		g.Go(func() error {
			// Each goroutine owns its own counter; only registry lookups race.
			c := r.GetCounter("shared-kind-check", Sum)
			_ = c
			for j := 0; j < 1000; j++ {
				r.GetAggregatorCounter("step", "agg", Sum)
				r.Counters()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}
	if got := len(r.Counters()); got != 2 {
		t.Errorf("registry holds %d counters, want 2", got)
	}
}
