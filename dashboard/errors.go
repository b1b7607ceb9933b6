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

package dashboard

import "errors"

var (
	// ErrNotFound is returned when a dashboard or widget does not exist
	ErrNotFound = errors.New("dashboard not found")

	// ErrExists is returned on a dashboard name collision
	ErrExists = errors.New("dashboard already exists")

	// ErrMissingName is returned when a dashboard is created without a name
	ErrMissingName = errors.New("dashboard name is required")

	// ErrNoEmbedder is returned when embed URLs are requested without a
	// configured embed provider
	ErrNoEmbedder = errors.New("dashboard embedding is not configured")
)
