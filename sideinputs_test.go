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
	"testing"

	"github.com/google/go-cmp/cmp"
)

// sideReader emits the singleton side input's value, or nothing when the
// side input is empty.
type sideReader[E Element] struct {
	Side SideSingleton[E]

	Out PCol[E]
}

func (fn *sideReader[E]) ProcessElement(pc *ProcessContext, _ int) error {
	if v, ok := fn.Side.Value(pc); ok {
		fn.Out.Emit(pc, v)
	}
	return nil
}

func TestSideInputSingleton(t *testing.T) {
	var sink SliceSink[int]
	_, err := Run(context.Background(), func(s *Scope) error {
		side := AsSingleton(s, Create(s, []int{42}))
		driver := Create(s, []int{0})
		rd := ParDo(s, driver, &sideReader[int]{Side: side})
		Write(s, rd.Out, &sink)
		return nil
	}, pipeName(t))
	if err != nil {
		t.Fatal(err)
	}
	if d := cmp.Diff([]int{42}, sink.Elements); d != "" {
		t.Errorf("singleton value diff (-want, +got):\n%v", d)
	}
}

func TestSideInputSingletonEmpty(t *testing.T) {
	var sink SliceSink[int]
	_, err := Run(context.Background(), func(s *Scope) error {
		side := AsSingleton(s, Create(s, []int{}))
		driver := Create(s, []int{0})
		rd := ParDo(s, driver, &sideReader[int]{Side: side})
		Write(s, rd.Out, &sink)
		return nil
	}, pipeName(t))
	if err != nil {
		t.Fatal(err)
	}
	// The empty marker surfaces as ok == false, so nothing is emitted.
	if len(sink.Elements) != 0 {
		t.Errorf("empty singleton emitted %v, want nothing", sink.Elements)
	}
}

func TestSideInputSingletonDefault(t *testing.T) {
	var sink SliceSink[int]
	_, err := Run(context.Background(), func(s *Scope) error {
		side := AsSingletonWithDefault(s, Create(s, []int{}), 77)
		driver := Create(s, []int{0})
		rd := ParDo(s, driver, &sideReader[int]{Side: side})
		Write(s, rd.Out, &sink)
		return nil
	}, pipeName(t))
	if err != nil {
		t.Fatal(err)
	}
	if d := cmp.Diff([]int{77}, sink.Elements); d != "" {
		t.Errorf("defaulted singleton diff (-want, +got):\n%v", d)
	}
}

type iterSideFn[E Element] struct {
	Side SideIter[E]

	Out PCol[E]
}

func (fn *iterSideFn[E]) ProcessElement(pc *ProcessContext, _ int) error {
	for elm := range fn.Side.All(pc) {
		fn.Out.Emit(pc, elm)
	}
	return nil
}

func TestSideInputIter(t *testing.T) {
	var sink SliceSink[string]
	_, err := Run(context.Background(), func(s *Scope) error {
		side := AsIter(s, Create(s, []string{"x", "y", "z"}))
		driver := Create(s, []int{0})
		it := ParDo(s, driver, &iterSideFn[string]{Side: side})
		Write(s, it.Out, &sink)
		return nil
	}, pipeName(t))
	if err != nil {
		t.Fatal(err)
	}
	if d := cmp.Diff([]string{"x", "y", "z"}, sink.Elements); d != "" {
		t.Errorf("iterated side input diff (-want, +got):\n%v", d)
	}
}

type listSideFn[E Element] struct {
	Side SideList[E]

	Out PCol[E]
}

func (fn *listSideFn[E]) ProcessElement(pc *ProcessContext, _ int) error {
	elms := fn.Side.Values(pc)
	// Random access: emit in reverse.
	for i := len(elms) - 1; i >= 0; i-- {
		fn.Out.Emit(pc, elms[i])
	}
	return nil
}

func TestSideInputList(t *testing.T) {
	var sink SliceSink[string]
	_, err := Run(context.Background(), func(s *Scope) error {
		side := AsList(s, Create(s, []string{"x", "y", "z"}))
		driver := Create(s, []int{0})
		ls := ParDo(s, driver, &listSideFn[string]{Side: side})
		Write(s, ls.Out, &sink)
		return nil
	}, pipeName(t))
	if err != nil {
		t.Fatal(err)
	}
	if d := cmp.Diff([]string{"z", "y", "x"}, sink.Elements); d != "" {
		t.Errorf("listed side input diff (-want, +got):\n%v", d)
	}
}
