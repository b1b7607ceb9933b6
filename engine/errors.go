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

package engine

import "errors"

var (
	// ErrAuth is returned when the engine credentials fail validation
	ErrAuth = errors.New("Failed to connect to AWS - please check your credentials")

	// ErrNotFinished is returned when results are requested for a running execution
	ErrNotFinished = errors.New("query execution has not finished")
)
