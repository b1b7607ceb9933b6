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

// Service provides global settings operations
type Service struct {
	repo Repository
}

// NewService creates a new global settings service
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Get returns the user's settings, defaults when unset
func (s *Service) Get(ctx context.Context, userID int) (*Settings, error) {
	return s.repo.Get(ctx, userID)
}

// Update replaces the user's settings
func (s *Service) Update(ctx context.Context, userID int, in UpdateInput) (*Settings, error) {
	if in.UseCentralDB && in.CentralDBName == "" {
		return nil, ErrMissingCentralName
	}

	settings := &Settings{
		UserID:        userID,
		UseCentralDB:  in.UseCentralDB,
		CentralDBName: in.CentralDBName,
	}
	if err := s.repo.Upsert(ctx, settings); err != nil {
		return nil, err
	}
	return settings, nil
}
