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

package usersettings

import "errors"

var (
	// ErrNotFound is returned when a settings profile is not found
	ErrNotFound = errors.New("user settings not found")

	// ErrExists is returned when a profile name is already taken for the user
	ErrExists = errors.New("user settings with this name already exist")

	// ErrNoActiveSettings is returned when the user has no active profile
	ErrNoActiveSettings = errors.New("no active user settings found")

	// ErrMissingFields is returned when required profile fields are empty
	ErrMissingFields = errors.New("name, access key, secret key and region are required")
)
