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

// Package logx adapts slog output for pipeline execution: log records are
// collected as structured entries tagged with the transform that produced
// them, so a harness can route them per step instead of interleaving text.
package logx

import (
	"context"
	"log/slog"
	"time"

	"github.com/jba/slog/withsupport"
)

const transformKey = "transform"

// WithTransform returns the attr a per-transform logger carries so its
// records can be matched back to the producing transform.
func WithTransform(label string) slog.Attr {
	return slog.String(transformKey, label)
}

// Entry is one captured log record.
type Entry struct {
	Time      time.Time
	Level     slog.Level
	Message   string
	Transform string
	// Attrs holds the record's attributes; group attrs nest as maps.
	Attrs map[string]any
}

// Handler is a slog.Handler that delivers entries to a callback.
type Handler struct {
	out func(Entry)
	goa *withsupport.GroupOrAttrs
}

var _ slog.Handler = (*Handler)(nil)

// NewHandler returns a handler delivering each record to out.
func NewHandler(out func(Entry)) *Handler {
	return &Handler{out: out}
}

func (h *Handler) Enabled(context.Context, slog.Level) bool { return true }

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	h2 := *h
	h2.goa = h.goa.WithAttrs(attrs)
	return &h2
}

func (h *Handler) WithGroup(name string) slog.Handler {
	h2 := *h
	h2.goa = h.goa.WithGroup(name)
	return &h2
}

func (h *Handler) Handle(_ context.Context, r slog.Record) error {
	e := Entry{
		Time:    r.Time,
		Level:   r.Level,
		Message: r.Message,
		Attrs:   map[string]any{},
	}
	groups := h.goa.Apply(func(gs []string, a slog.Attr) {
		e.put(gs, a)
	})
	r.Attrs(func(a slog.Attr) bool {
		e.put(groups, a)
		return true
	})
	h.out(e)
	return nil
}

func (e *Entry) put(groups []string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}
	if a.Value.Kind() == slog.KindGroup {
		gas := a.Value.Group()
		if len(gas) == 0 {
			return
		}
		sub := groups
		if a.Key != "" {
			sub = append(append([]string(nil), groups...), a.Key)
		}
		for _, ga := range gas {
			e.put(sub, ga)
		}
		return
	}
	if len(groups) == 0 && a.Key == transformKey {
		if s, ok := a.Value.Any().(string); ok {
			e.Transform = s
			return
		}
	}
	m := e.Attrs
	for _, g := range groups {
		next, ok := m[g].(map[string]any)
		if !ok {
			next = map[string]any{}
			m[g] = next
		}
		m = next
	}
	m[a.Key] = a.Value.Any()
}
