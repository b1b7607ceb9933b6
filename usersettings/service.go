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

import (
	"context"

	"costpilot/platform/shared/logger"
)

// Service provides settings profile operations
type Service struct {
	repo    Repository
	checker BucketChecker
	log     *logger.Logger
}

// NewService creates a new settings service. The bucket checker is
// optional; when nil, output locations are not verified.
func NewService(repo Repository, checker BucketChecker) *Service {
	return &Service{
		repo:    repo,
		checker: checker,
		log:     logger.New("usersettings"),
	}
}

// Create validates and stores a new profile. A missing output bucket is
// logged as a warning, not an error: the bucket may be created later.
func (s *Service) Create(ctx context.Context, userID int, in CreateInput) (*Settings, error) {
	if in.Name == "" || in.AccessKey == "" || in.SecretKey == "" || in.Region == "" {
		return nil, ErrMissingFields
	}

	settings := &Settings{
		UserID:         userID,
		Name:           in.Name,
		AccessKey:      in.AccessKey,
		SecretKey:      in.SecretKey,
		SessionToken:   in.SessionToken,
		Region:         in.Region,
		Database:       in.Database,
		Table:          in.Table,
		OutputLocation: in.OutputLocation,
		Active:         in.Active,
	}

	if err := s.repo.Create(ctx, settings); err != nil {
		return nil, err
	}

	if s.checker != nil && settings.OutputLocation != "" {
		if err := s.checker.Check(ctx, settings); err != nil {
			s.log.Warn("", "", "output location check failed", map[string]interface{}{
				"settings_id": settings.ID,
				"error":       err.Error(),
			})
		}
	}

	return settings, nil
}

// Update applies a partial update. Activating an already-active profile is
// a no-op; activating an inactive one deactivates every sibling.
func (s *Service) Update(ctx context.Context, id, userID int, in UpdateInput) (*Settings, error) {
	settings, err := s.repo.Get(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		settings.Name = *in.Name
	}
	if in.AccessKey != nil {
		settings.AccessKey = *in.AccessKey
	}
	if in.SecretKey != nil {
		settings.SecretKey = *in.SecretKey
	}
	if in.SessionToken != nil {
		settings.SessionToken = *in.SessionToken
	}
	if in.Region != nil {
		settings.Region = *in.Region
	}
	if in.Database != nil {
		settings.Database = *in.Database
	}
	if in.Table != nil {
		settings.Table = *in.Table
	}
	if in.OutputLocation != nil {
		settings.OutputLocation = *in.OutputLocation
	}
	if in.Active != nil {
		settings.Active = *in.Active
	}

	if err := s.repo.Update(ctx, settings); err != nil {
		return nil, err
	}
	return settings, nil
}

// Get retrieves a profile scoped to its owner
func (s *Service) Get(ctx context.Context, id, userID int) (*Settings, error) {
	return s.repo.Get(ctx, id, userID)
}

// GetActive retrieves the user's active profile
func (s *Service) GetActive(ctx context.Context, userID int) (*Settings, error) {
	return s.repo.GetActive(ctx, userID)
}

// List lists the user's profiles
func (s *Service) List(ctx context.Context, userID, limit, offset int) ([]Settings, int, error) {
	return s.repo.ListByUser(ctx, userID, limit, offset)
}

// Delete removes a profile
func (s *Service) Delete(ctx context.Context, id, userID int) error {
	return s.repo.Delete(ctx, id, userID)
}
