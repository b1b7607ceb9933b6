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

import "context"

// Repository defines the interface for settings persistence
type Repository interface {
	Create(ctx context.Context, s *Settings) error

	// Update persists the profile. When s.Active is true the write is
	// transactional: every other profile of the same user is deactivated
	// in the same transaction.
	Update(ctx context.Context, s *Settings) error

	Get(ctx context.Context, id, userID int) (*Settings, error)
	GetActive(ctx context.Context, userID int) (*Settings, error)
	ListByUser(ctx context.Context, userID, limit, offset int) ([]Settings, int, error)
	Delete(ctx context.Context, id, userID int) error
}
