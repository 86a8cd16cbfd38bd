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

// Package counters collects execution progress for reporting.
//
// A Registry hands out uniquely named counters, and is the one part of the
// execution core built for concurrent use: counters may be updated from
// multiple bundle processing goroutines at once in a parallel runner, so the
// name to counter map is guarded by a mutex, and bulk reads return snapshots.
// Individual counter updates are not additionally locked. A counter obtained
// from the registry must be updated from one goroutine at a time.
package counters

import (
	"fmt"
	"math"
	"math/big"
	"strings"
	"sync"
)

// Kind is the aggregation applied to a counter's updates.
type Kind int

const (
	// Sum aggregates by adding all updates together.
	Sum Kind = iota + 1
	// Mean aggregates to the arithmetic mean of all updates.
	Mean
	// Max, Min, And, and Or are reserved by the reporting protocol but not
	// supported by this execution core.
	Max
	Min
	And
	Or
)

func (k Kind) String() string {
	switch k {
	case Sum:
		return "SUM"
	case Mean:
		return "MEAN"
	case Max:
		return "MAX"
	case Min:
		return "MIN"
	case And:
		return "AND"
	case Or:
		return "OR"
	}
	return fmt.Sprintf("kind%d", int(k))
}

// Counter aggregates a series of int64 updates under its Kind.
//
// Do not create directly; call [Registry.GetCounter] instead.
type Counter struct {
	name string
	kind Kind

	// fast accumulates updates until an add overflows, after which the
	// overflowing deltas accumulate in slow. The true total is fast + slow.
	fast     int64
	slow     *big.Int
	elements int64
}

// Name returns the counter's unique name, typically "step-output-counter".
func (c *Counter) Name() string { return c.name }

// Kind returns the counter's aggregation kind.
func (c *Counter) Kind() Kind { return c.kind }

// Elements returns how many times Update was called.
func (c *Counter) Elements() int64 { return c.elements }

// Update folds delta into the running total.
//
// Additions stay on an int64 fast path until one overflows; from then on the
// overflowing deltas land in an unbounded big.Int. The triggering delta is
// never dropped or applied twice, and the element count always advances.
func (c *Counter) Update(delta int64) {
	if next, ok := addNoOverflow(c.fast, delta); ok {
		c.fast = next
	} else {
		if c.slow == nil {
			c.slow = new(big.Int)
		}
		c.slow.Add(c.slow, big.NewInt(delta))
	}
	c.elements++
}

func addNoOverflow(a, b int64) (int64, bool) {
	s := a + b
	if (b > 0 && s < a) || (b < 0 && s > a) {
		return 0, false
	}
	return s, true
}

// Total returns the exact mathematical sum of all updates.
func (c *Counter) Total() *big.Int {
	t := big.NewInt(c.fast)
	if c.slow != nil {
		t.Add(t, c.slow)
	}
	return t
}

// Value returns the counter's aggregated value: the total for Sum counters,
// or total divided by element count for Mean counters.
//
// A Mean counter that has never been updated has no value; calling Value on
// one panics, so callers must guard against zero element counts.
func (c *Counter) Value() *big.Rat {
	switch c.kind {
	case Sum:
		return new(big.Rat).SetInt(c.Total())
	case Mean:
		if c.elements == 0 {
			panic(fmt.Sprintf("counters: %v has no elements to take the mean of", c))
		}
		return new(big.Rat).SetFrac(c.Total(), big.NewInt(c.elements))
	}
	// Unreachable: the registry rejects other kinds at construction.
	panic(fmt.Sprintf("counters: %v has unsupported aggregation kind", c))
}

// Float64 returns Value as a float64, for display. Totals beyond 2^53 lose
// precision; use Value for exact arithmetic.
func (c *Counter) Float64() float64 {
	if c.kind == Mean && c.elements == 0 {
		return math.NaN()
	}
	f, _ := c.Value().Float64()
	return f
}

func (c *Counter) String() string {
	return fmt.Sprintf("<%s %v %v/%d>", c.name, c.kind, c.Total(), c.elements)
}

// UserCounterPrefix namespaces counters that report user aggregator values.
const UserCounterPrefix = "user-"

// AggregatorCounterName derives the registry name for the counter backing the
// named aggregator within the given pipeline step.
func AggregatorCounterName(stepName, aggregatorName string) string {
	return fmt.Sprintf("%s%s-%s", UserCounterPrefix, stepName, aggregatorName)
}

// Registry keeps track of unique counters.
type Registry struct {
	mu       sync.Mutex
	counters map[string]*Counter

	// aggregator counters, a subset of counters, tracked so bulk value
	// lookups don't have to re-derive which names carry user values.
	aggregators map[string]bool
}

// NewRegistry returns an empty counter registry.
func NewRegistry() *Registry {
	return &Registry{
		counters:    map[string]*Counter{},
		aggregators: map[string]bool{},
	}
}

// GetCounter returns the counter with the requested name, creating it on
// first use. Requesting an existing name with a different aggregation kind is
// a programming error and panics, as is requesting a reserved kind.
func (r *Registry) GetCounter(name string, kind Kind) *Counter {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.getLocked(name, kind, false)
}

// GetAggregatorCounter returns the counter backing the step's instance of the
// named user aggregator, creating it on first use. The same step and
// aggregator always yield the same counter.
func (r *Registry) GetAggregatorCounter(stepName, aggregatorName string, kind Kind) *Counter {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.getLocked(AggregatorCounterName(stepName, aggregatorName), kind, true)
}

func (r *Registry) getLocked(name string, kind Kind, aggregator bool) *Counter {
	if kind != Sum && kind != Mean {
		panic(fmt.Sprintf("counters: aggregation kind %v is reserved and not supported", kind))
	}
	if c, ok := r.counters[name]; ok {
		if c.kind != kind {
			panic(fmt.Sprintf("counters: %q requested as %v but registered as %v", name, kind, c.kind))
		}
		if r.aggregators[name] != aggregator {
			panic(fmt.Sprintf("counters: %q requested as both an aggregator and a plain counter", name))
		}
		return c
	}
	c := &Counter{name: name, kind: kind}
	r.counters[name] = c
	if aggregator {
		r.aggregators[name] = true
	}
	return c
}

// Counters returns a snapshot of the current set of counters, so callers can
// iterate while registration continues on other goroutines. The snapshot may
// be stale by the time it is scanned.
func (r *Registry) Counters() []*Counter {
	r.mu.Lock()
	defer r.mu.Unlock()
	cs := make([]*Counter, 0, len(r.counters))
	for _, c := range r.counters {
		cs = append(cs, c)
	}
	return cs
}

// AggregatorValues returns, for the named user aggregator, a mapping from
// step name to that step's aggregated value.
func (r *Registry) AggregatorValues(aggregatorName string) map[string]*big.Rat {
	r.mu.Lock()
	defer r.mu.Unlock()
	suffix := "-" + aggregatorName
	vals := map[string]*big.Rat{}
	for name, c := range r.counters {
		if !r.aggregators[name] {
			continue
		}
		if !strings.HasSuffix(name, suffix) {
			continue
		}
		step := strings.TrimSuffix(strings.TrimPrefix(name, UserCounterPrefix), suffix)
		vals[step] = c.Value()
	}
	return vals
}
