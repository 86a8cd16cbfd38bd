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
	"math/big"

	"github.com/google/uuid"

	"driftline.dev/flume-go/counters"
)

// State is the terminal state of a pipeline run.
type State int

const (
	// StateDone indicates every transform evaluated successfully.
	StateDone State = iota + 1
	// StateFailed indicates the run stopped at a fatal error. Outputs
	// cached before the failure are kept but are not valid results.
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateDone:
		return "DONE"
	case StateFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

// Result reports the outcome of one pipeline run.
type Result struct {
	jobID string
	state State

	counters *counters.Registry
}

func newResult(state State, reg *counters.Registry) *Result {
	return &Result{
		jobID:    uuid.NewString(),
		state:    state,
		counters: reg,
	}
}

// JobID is the unique id assigned to this run.
func (r *Result) JobID() string {
	return r.jobID
}

// State is the run's terminal state.
func (r *Result) State() State {
	return r.state
}

// Counters returns a snapshot of all counters registered during the run.
func (r *Result) Counters() []*counters.Counter {
	return r.counters.Counters()
}

// AggregatedValues returns the per step values of the named user
// aggregator.
func (r *Result) AggregatedValues(aggregatorName string) map[string]*big.Rat {
	return r.counters.AggregatorValues(aggregatorName)
}
