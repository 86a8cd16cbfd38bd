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

// Window is the interval of event time an element has been assigned to.
// Only the single global window is implemented.
type Window interface {
	window()
}

// GlobalWindow is the default window, covering all of event time.
type GlobalWindow struct{}

func (GlobalWindow) window() {}

// WindowedValue pairs an element with its window assignment. Values are
// never mutated once produced; downstream transforms read them from the
// collection cache.
type WindowedValue struct {
	Value   any
	Windows []Window
}

func inGlobalWindow(v any) WindowedValue {
	return WindowedValue{Value: v, Windows: []Window{GlobalWindow{}}}
}
