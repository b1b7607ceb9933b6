// Copyright 2025 CostPilot
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package engine wraps the external query engine behind a small interface
// and caches validated clients per credential tuple.
package engine

import (
	"context"
)

// Execution states reported by the query engine.
const (
	StatePending   = "PENDING"
	StateRunning   = "RUNNING"
	StateSucceeded = "SUCCEEDED"
	StateFailed    = "FAILED"
	StateCancelled = "CANCELLED"
)

// Credentials identifies one engine connection. The full tuple is the
// cache key: sessions with different tokens never share a client.
type Credentials struct {
	AccessKey    string
	SecretKey    string
	SessionToken string
	Region       string
}

// Submission is one query handed to the engine.
type Submission struct {
	Query          string
	Database       string
	OutputLocation string
}

// Status is the engine's view of one execution.
type Status struct {
	State  string
	Reason string
}

// Terminal reports whether a state can no longer change.
func Terminal(state string) bool {
	switch state {
	case StateSucceeded, StateFailed, StateCancelled:
		return true
	}
	return false
}

// QueryEngine is the surface the report service depends on.
type QueryEngine interface {
	// Submit starts a query and returns the engine's execution handle.
	Submit(ctx context.Context, sub Submission) (string, error)

	// Poll returns the current state of an execution.
	Poll(ctx context.Context, executionID string) (Status, error)

	// Fetch returns the full result grid of a finished execution.
	// The first row is the header.
	Fetch(ctx context.Context, executionID string) ([][]string, error)
}
