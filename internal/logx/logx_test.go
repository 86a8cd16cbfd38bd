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

package logx

import (
	"log/slog"
	"testing"
	"testing/slogtest"
)

func TestSlogtest(t *testing.T) {
	out := make(chan Entry, 100)
	slogtest.Run(t,
		func(_ *testing.T) slog.Handler {
			return NewHandler(func(e Entry) { out <- e })
		},
		func(_ *testing.T) map[string]any {
			return parseEntry(<-out)
		})
}

func parseEntry(e Entry) map[string]any {
	m := map[string]any{
		slog.MessageKey: e.Message,
		slog.LevelKey:   e.Level,
	}
	if !e.Time.IsZero() {
		m[slog.TimeKey] = e.Time
	}
	for k, v := range e.Attrs {
		m[k] = v
	}
	return m
}

func TestWithTransform(t *testing.T) {
	out := make(chan Entry, 100)
	l := slog.New(NewHandler(func(e Entry) { out <- e }))
	l.Info("testMsg1")

	got := <-out
	if got.Transform != "" {
		t.Errorf("handler set Transform without attr, got %q want %q", got.Transform, "")
	}

	l2 := l.With(WithTransform("read-lines"))
	l2.Info("testMsg2")

	got = <-out
	if got.Transform != "read-lines" {
		t.Errorf("handler didn't set Transform, got %q want %q", got.Transform, "read-lines")
	}
	if _, ok := got.Attrs[transformKey]; ok {
		t.Errorf("transform attr leaked into Attrs: %v", got.Attrs)
	}

	// The original logger should still have an unset transform.
	l.Warn("testMsg1")
	got = <-out
	if got.Transform != "" {
		t.Errorf("initial handler is aliasing Transform, got %q want %q", got.Transform, "")
	}
}
