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

package tagging

import "errors"

var (
	// ErrNotFound is returned when a tag mapping does not exist
	ErrNotFound = errors.New("tag mapping not found")

	// ErrMissingFields is returned when an upsert lacks a resource or key
	ErrMissingFields = errors.New("resource_id and tag_key are required")
)
