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

package tenant

import "errors"

var (
	// ErrNotFound is returned when no tenant account is registered for a domain
	ErrNotFound = errors.New("no tenant account registered for domain")

	// ErrBadEmail is returned when an email has no domain part
	ErrBadEmail = errors.New("email has no domain part")

	// ErrBadDatabaseName is returned for database names with unsafe characters
	ErrBadDatabaseName = errors.New("invalid tenant database name")
)
