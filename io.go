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
	"io"

	"github.com/pkg/errors"

	"driftline.dev/flume-go/internal/flumeopts"
)

// Source produces a bounded collection of elements for a pipeline.
// Readers are scoped: one is acquired per evaluation and closed on every
// exit path, including failed reads.
type Source[E Element] interface {
	NewReader(ctx context.Context) (Reader[E], error)
}

// Reader pulls elements from a source one at a time. Next returns
// [io.EOF] when the source is exhausted.
type Reader[E Element] interface {
	Next() (E, error)
	Close() error
}

// Sink consumes the elements of a collection. Writers are scoped the
// same way readers are.
type Sink[E Element] interface {
	NewWriter(ctx context.Context) (Writer[E], error)
}

// Writer accepts one element at a time.
type Writer[E Element] interface {
	Write(elm E) error
	Close() error
}

// Read adds a transform pulling the full contents of the source into a
// collection in the global window.
func Read[E Element](s *Scope, src Source[E], opts ...Options) PCol[E] {
	var opt flumeopts.Struct
	opt.Join(opts...)

	edgeID := s.g.curEdgeIndex()
	nodeID := s.g.curNodeIndex()
	id := s.g.edgeLabel("Read", edgeID, opt.Name)

	s.g.edges = append(s.g.edges, &edgeRead[E]{index: edgeID, transform: id, src: src, output: nodeID})
	s.g.nodes = append(s.g.nodes, &typedNode[E]{id: id, index: nodeID, parentEdge: edgeID})

	return PCol[E]{globalIndex: nodeID}
}

// edgeRead represents a source Read transform.
type edgeRead[E Element] struct {
	index     edgeIndex
	transform string

	src    Source[E]
	output nodeIndex
}

func (e *edgeRead[E]) edgeID() edgeIndex {
	return e.index
}

func (e *edgeRead[E]) transformID() string {
	return e.transform
}

// inputs for reads are nil.
func (e *edgeRead[E]) inputs() map[string]nodeIndex {
	return nil
}

// outputs for reads are one.
func (e *edgeRead[E]) outputs() map[string]nodeIndex {
	return map[string]nodeIndex{"o0": e.output}
}

func (e *edgeRead[E]) evaluate(ec *evalContext) error {
	r, err := e.src.NewReader(ec.ctx)
	if err != nil {
		return errors.Wrapf(err, "acquiring reader for %v", e.transform)
	}
	var out []WindowedValue
	readErr := func() error {
		for {
			elm, err := r.Next()
			if err == io.EOF {
				return nil
			}
			if err != nil {
				return err
			}
			out = append(out, inGlobalWindow(elm))
		}
	}()
	closeErr := r.Close()
	if readErr != nil {
		return errors.Wrapf(readErr, "reading in %v", e.transform)
	}
	if closeErr != nil {
		return errors.Wrapf(closeErr, "closing reader for %v", e.transform)
	}
	ec.cache.write(e.output, out)
	return nil
}

var _ multiEdge = (*edgeRead[int])(nil)

// Write adds a transform pushing every element of the input collection
// into the sink.
func Write[E Element](s *Scope, input PCol[E], sink Sink[E], opts ...Options) {
	var opt flumeopts.Struct
	opt.Join(opts...)

	edgeID := s.g.curEdgeIndex()
	nodeID := s.g.curNodeIndex()
	id := s.g.edgeLabel("Write", edgeID, opt.Name)
	s.g.addConsumer(input.globalIndex, edgeID)

	s.g.edges = append(s.g.edges, &edgeWrite[E]{index: edgeID, transform: id, sink: sink, input: input.globalIndex, output: nodeID})
	s.g.nodes = append(s.g.nodes, &typedNode[E]{id: id, index: nodeID, parentEdge: edgeID})
}

// edgeWrite represents a sink Write transform. Its output collection is
// always empty; it exists so writes participate in the cache discipline
// and are not repeated on a re-run.
type edgeWrite[E Element] struct {
	index     edgeIndex
	transform string

	sink          Sink[E]
	input, output nodeIndex
}

func (e *edgeWrite[E]) edgeID() edgeIndex {
	return e.index
}

func (e *edgeWrite[E]) transformID() string {
	return e.transform
}

func (e *edgeWrite[E]) inputs() map[string]nodeIndex {
	return map[string]nodeIndex{"i0": e.input}
}

func (e *edgeWrite[E]) outputs() map[string]nodeIndex {
	return map[string]nodeIndex{"o0": e.output}
}

func (e *edgeWrite[E]) evaluate(ec *evalContext) error {
	w, err := e.sink.NewWriter(ec.ctx)
	if err != nil {
		return errors.Wrapf(err, "acquiring writer for %v", e.transform)
	}
	writeErr := func() error {
		for _, wv := range ec.cache.values(e.input) {
			if err := w.Write(wv.Value.(E)); err != nil {
				return err
			}
		}
		return nil
	}()
	closeErr := w.Close()
	if writeErr != nil {
		return errors.Wrapf(writeErr, "writing in %v", e.transform)
	}
	if closeErr != nil {
		return errors.Wrapf(closeErr, "closing writer for %v", e.transform)
	}
	ec.cache.write(e.output, nil)
	return nil
}

var _ multiEdge = (*edgeWrite[int])(nil)

// SliceSource is an in memory [Source] over a fixed slice of elements.
type SliceSource[E Element] struct {
	Elements []E
}

func (s *SliceSource[E]) NewReader(context.Context) (Reader[E], error) {
	return &sliceReader[E]{elms: s.Elements}, nil
}

type sliceReader[E Element] struct {
	elms []E
	pos  int
}

func (r *sliceReader[E]) Next() (E, error) {
	if r.pos >= len(r.elms) {
		var zero E
		return zero, io.EOF
	}
	elm := r.elms[r.pos]
	r.pos++
	return elm, nil
}

func (r *sliceReader[E]) Close() error { return nil }

// SliceSink is an in memory [Sink] collecting written elements, in order.
type SliceSink[E Element] struct {
	Elements []E
}

func (s *SliceSink[E]) NewWriter(context.Context) (Writer[E], error) {
	return (*sliceWriter[E])(s), nil
}

type sliceWriter[E Element] SliceSink[E]

func (w *sliceWriter[E]) Write(elm E) error {
	w.Elements = append(w.Elements, elm)
	return nil
}

func (w *sliceWriter[E]) Close() error { return nil }
