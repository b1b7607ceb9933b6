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

package globalsettings

import "context"

// Repository defines the settings storage interface
type Repository interface {
	// Get returns the user's settings, or zero-value defaults when the user
	// has never saved any.
	Get(ctx context.Context, userID int) (*Settings, error)

	// Upsert replaces the user's settings.
	Upsert(ctx context.Context, s *Settings) error
}
