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
	"log/slog"
	"maps"

	"github.com/pkg/errors"

	"driftline.dev/flume-go/counters"
	"driftline.dev/flume-go/internal/flumeopts"
	"driftline.dev/flume-go/internal/logx"
)

// Pipeline holds a constructed transform graph and the state of its
// evaluation: the collection cache and the counter registry. A pipeline
// may be run more than once; outputs cached by an earlier run are not
// recomputed.
//
// A single run is single threaded: edges evaluate one at a time in
// construction order, which is a valid topological order since every
// transform's inputs exist before it does. Only the counter registry is
// safe for concurrent use.
type Pipeline struct {
	name string
	g    graph

	cache    *pvalueCache
	counters *counters.Registry
	log      *slog.Logger
}

// NewPipeline constructs a pipeline by running expand against a fresh
// graph scope.
func NewPipeline(expand func(*Scope) error, opts ...Options) (*Pipeline, error) {
	var opt flumeopts.Struct
	opt.Join(opts...)

	p := &Pipeline{
		name:     opt.Name,
		counters: counters.NewRegistry(),
		log:      opt.Logger,
	}
	if p.log == nil {
		p.log = slog.Default()
	}
	if p.name != "" {
		p.log = p.log.With(slog.String("pipeline", p.name))
	}
	s := &Scope{g: &p.g}
	if err := expand(s); err != nil {
		return nil, errors.Wrap(err, "pipeline construction")
	}
	p.cache = newPValueCache(&p.g)
	return p, nil
}

// Run evaluates every transform in the pipeline whose outputs are not
// already cached, in dependency order. The first fatal error stops the
// run; earlier cached outputs remain cached but the result state is
// Failed.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	ec := &evalContext{
		ctx:      ctx,
		cache:    p.cache,
		counters: p.counters,
	}
	for _, edge := range p.g.edges {
		elog := p.log.With(logx.WithTransform(edge.transformID()))
		if p.cache.allCached(edge.outputs()) {
			elog.DebugContext(ctx, "output already cached, skipping")
			continue
		}
		elog.DebugContext(ctx, "evaluating")
		if err := edge.evaluate(ec); err != nil {
			elog.ErrorContext(ctx, "evaluation failed", slog.Any("error", err))
			return newResult(StateFailed, p.counters), err
		}
	}
	p.log.DebugContext(ctx, "run complete", slog.Any("element_counts", p.cache.elementCounts))
	return newResult(StateDone, p.counters), nil
}

// Counters returns the pipeline's counter registry.
func (p *Pipeline) Counters() *counters.Registry {
	return p.counters
}

// ElementCounts returns a snapshot of the per collection element counts
// recorded on each cache write, keyed by transform label (with a /tag
// suffix for secondary outputs). Diagnostics only.
func (p *Pipeline) ElementCounts() map[string]int64 {
	return maps.Clone(p.cache.elementCounts)
}

// ClearCached drops the cached outputs of the transform with the given
// label, forcing the next run to re-evaluate it.
func (p *Pipeline) ClearCached(label string) {
	p.cache.clear(label)
}

// Run constructs a pipeline with expand and evaluates it once.
func Run(ctx context.Context, expand func(*Scope) error, opts ...Options) (*Result, error) {
	p, err := NewPipeline(expand, opts...)
	if err != nil {
		return nil, err
	}
	return p.Run(ctx)
}

// evalContext is the executor state an edge evaluation runs against.
type evalContext struct {
	ctx      context.Context
	cache    *pvalueCache
	counters *counters.Registry
}

// pvalueCache is the arena backed collection cache. Collections are
// indexed by their construction time nodeIndex, so lookup is a slice
// access; writes are atomic at node granularity because a node's full
// output is written in one call.
type pvalueCache struct {
	done   []bool
	vals   [][]WindowedValue
	labels []string

	byLabel       map[string][]nodeIndex
	elementCounts map[string]int64
}

func newPValueCache(g *graph) *pvalueCache {
	c := &pvalueCache{
		done:          make([]bool, len(g.nodes)),
		vals:          make([][]WindowedValue, len(g.nodes)),
		labels:        make([]string, len(g.nodes)),
		byLabel:       map[string][]nodeIndex{},
		elementCounts: map[string]int64{},
	}
	for i, n := range g.nodes {
		c.labels[i] = n.label()
		c.byLabel[n.label()] = append(c.byLabel[n.label()], nodeIndex(i))
	}
	return c
}

func (c *pvalueCache) write(n nodeIndex, vs []WindowedValue) {
	c.vals[n] = vs
	c.done[n] = true
	c.elementCounts[c.labels[n]] += int64(len(vs))
}

func (c *pvalueCache) values(n nodeIndex) []WindowedValue {
	if !c.done[n] {
		panic(fmt.Sprintf("collection %v (%v) read before its producer ran", n, c.labels[n]))
	}
	return c.vals[n]
}

func (c *pvalueCache) cached(n nodeIndex) bool {
	return c.done[n]
}

func (c *pvalueCache) allCached(outs map[string]nodeIndex) bool {
	if len(outs) == 0 {
		return false
	}
	for _, n := range outs {
		if !c.done[n] {
			return false
		}
	}
	return true
}

func (c *pvalueCache) clear(label string) {
	for _, n := range c.byLabel[label] {
		c.done[n] = false
		c.vals[n] = nil
	}
}
