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

import "fmt"

// The error types below are fatal to a pipeline run. The executor stops at
// the first one and surfaces it on the result; it never retries.

// TypeCheckError indicates an element reached a transform that cannot
// process its shape, such as a non key-value element arriving at a
// GroupByKey.
type TypeCheckError struct {
	Transform string
	Reason    string
	Value     any
}

func (e *TypeCheckError) Error() string {
	return fmt.Sprintf("type check failed in %v: %v (value: %v)", e.Transform, e.Reason, e.Value)
}

// ValueError indicates element values violated a transform's contract,
// such as a singleton side input materialized from more than one element.
type ValueError struct {
	Transform string
	Reason    string
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("bad value in %v: %v", e.Transform, e.Reason)
}

// NotImplementedError indicates the construction layer produced something
// the executor has no evaluation rule for.
type NotImplementedError struct {
	What string
}

func (e *NotImplementedError) Error() string {
	return fmt.Sprintf("not implemented: %v", e.What)
}
