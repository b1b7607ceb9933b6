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

package report

import "errors"

var (
	// ErrNotFound is returned when an execution does not exist
	ErrNotFound = errors.New("execution not found")

	// ErrResultsNotReady is returned when materialization is requested while
	// part of the group is still in flight
	ErrResultsNotReady = errors.New("Some query executions are still pending or running")

	// ErrNoTemplates is returned when a dispatch request matches no templates
	ErrNoTemplates = errors.New("no query templates matched the request")
)
