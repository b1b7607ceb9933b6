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

package owner

import "errors"

var (
	// ErrNotFound is returned when a resource has no owner row
	ErrNotFound = errors.New("resource owner not found")

	// ErrInvalidStatus is returned for unknown owner statuses
	ErrInvalidStatus = errors.New("invalid owner status")

	// ErrMissingFields is returned when an assignment lacks a resource or email
	ErrMissingFields = errors.New("resource_id and owner_email are required")
)
