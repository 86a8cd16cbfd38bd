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
	"log/slog"
	"testing"

	"driftline.dev/flume-go/internal/flumeopts"
	"driftline.dev/flume-go/internal/logx"
)

func TestOptionsJoin(t *testing.T) {
	var opt flumeopts.Struct
	opt.Join(Name("first"), Name("second"))
	if got, want := opt.Name, "second"; got != want {
		t.Errorf("later name should win: got %q, want %q", got, want)
	}

	l := slog.New(logx.NewHandler(func(logx.Entry) {}))
	opt = flumeopts.Struct{}
	opt.Join(Logger(l), Name("named"))
	if opt.Logger != l {
		t.Error("logger option was not joined")
	}
	if got, want := opt.Name, "named"; got != want {
		t.Errorf("name option was not joined: got %q, want %q", got, want)
	}
}

func TestTransformLabels(t *testing.T) {
	p, err := NewPipeline(func(s *Scope) error {
		src := Create(s, []int{1}, Name("src"))
		anon := Create(s, []int{2})
		namedDiscard(s, src, "sink")
		namedDiscard(s, anon, "other")
		return nil
	}, pipeName(t))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := p.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	counts := p.ElementCounts()
	for _, label := range []string{"src", "Create/e1", "sink", "other"} {
		if _, ok := counts[label]; !ok {
			t.Errorf("no element count recorded under label %q (have %v)", label, counts)
		}
	}
}

func TestRunLogsPerTransform(t *testing.T) {
	var entries []logx.Entry
	l := slog.New(logx.NewHandler(func(e logx.Entry) { entries = append(entries, e) }))
	_, err := Run(context.Background(), func(s *Scope) error {
		src := Create(s, []int{1, 2}, Name("src"))
		namedDiscard(s, src, "sink")
		return nil
	}, pipeName(t), Logger(l))
	if err != nil {
		t.Fatal(err)
	}
	seen := map[string]bool{}
	for _, e := range entries {
		seen[e.Transform] = true
	}
	for _, transform := range []string{"src", "sink"} {
		if !seen[transform] {
			t.Errorf("no log entries for transform %q", transform)
		}
	}
}
