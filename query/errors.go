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

package query

import "errors"

var (
	// ErrNotFound is returned when a template is not found
	ErrNotFound = errors.New("query template not found")

	// ErrExists is returned when a template with the same hash or classification already exists
	ErrExists = errors.New("query template already exists")

	// ErrEmptyQuery is returned when the query text is empty
	ErrEmptyQuery = errors.New("query text must not be empty")

	// ErrBadUpload is returned when an uploaded template file cannot be parsed
	ErrBadUpload = errors.New("invalid template upload file")
)
