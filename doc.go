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

// Package flume is the execution core of a batch data processing SDK:
// pipelines are directed acyclic graphs of transforms over immutable
// collections, built with generics so Go typechecks the pipeline at
// construction, and evaluated by a single process executor.
//
// A pipeline is built inside a callback against a [Scope]:
//
//	flume.Run(ctx, func(s *flume.Scope) error {
//		words := flume.Create(s, []string{"a", "b", "a"})
//		keyed := flume.Map(s, words, func(w string) flume.KV[string, int] {
//			return flume.KV[string, int]{Key: w, Value: 1}
//		})
//		counts := flume.CombinePerKey(s, keyed, flume.CountFn[int]{})
//		flume.Write(s, counts, sink)
//		return nil
//	})
//
// The executor walks transforms in construction order, materializing each
// collection once into an arena cache; re-running a pipeline skips
// everything already cached. Values are reduced with four phase
// [CombineFn] combiners, grouped with coder canonicalized keys, and
// accounted through the counters package.
package flume
