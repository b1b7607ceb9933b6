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

import (
	"context"

	"github.com/google/uuid"

	"costpilot/platform/shared/logger"
)

// Service provides dashboard operations
type Service struct {
	repo     Repository
	embedder Embedder
	log      *logger.Logger
}

// NewService creates a new dashboard service. The embedder is optional.
func NewService(repo Repository, embedder Embedder) *Service {
	return &Service{
		repo:     repo,
		embedder: embedder,
		log:      logger.New("dashboard"),
	}
}

// Create validates and stores a dashboard
func (s *Service) Create(ctx context.Context, createdBy int, in CreateInput) (*Dashboard, error) {
	if in.Name == "" {
		return nil, ErrMissingName
	}

	d := &Dashboard{
		Name:        in.Name,
		Description: in.Description,
		CreatedBy:   createdBy,
	}
	if err := s.repo.Create(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// Get retrieves a dashboard with users and widgets
func (s *Service) Get(ctx context.Context, id int) (*Dashboard, error) {
	return s.repo.Get(ctx, id)
}

// List lists dashboards with pagination
func (s *Service) List(ctx context.Context, limit, offset int) ([]Dashboard, int, error) {
	return s.repo.List(ctx, limit, offset)
}

// ListMine lists the dashboards assigned to the caller
func (s *Service) ListMine(ctx context.Context, userID int) ([]Dashboard, error) {
	return s.repo.ListByUser(ctx, userID)
}

// Update applies a partial update
func (s *Service) Update(ctx context.Context, id int, in UpdateInput) (*Dashboard, error) {
	d, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		if *in.Name == "" {
			return nil, ErrMissingName
		}
		d.Name = *in.Name
	}
	if in.Description != nil {
		d.Description = *in.Description
	}

	if err := s.repo.Update(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// Delete removes a dashboard
func (s *Service) Delete(ctx context.Context, id int) error {
	return s.repo.Delete(ctx, id)
}

// AssignUser links or unlinks a user
func (s *Service) AssignUser(ctx context.Context, dashboardID int, in UserAssignmentInput) error {
	if _, err := s.repo.Get(ctx, dashboardID); err != nil {
		return err
	}
	if in.Action == "unassign" {
		return s.repo.UnassignUser(ctx, dashboardID, in.UserID)
	}
	return s.repo.AssignUser(ctx, dashboardID, in.UserID)
}

// AssignByName assigns a user to the dashboard with the given name. Used at
// account confirmation to hand new users their tenant's dashboard.
func (s *Service) AssignByName(ctx context.Context, name string, userID int) error {
	d, err := s.repo.GetByName(ctx, name)
	if err != nil {
		return err
	}
	return s.repo.AssignUser(ctx, d.ID, userID)
}

// ApplyWidget assigns, updates, or removes a widget binding
func (s *Service) ApplyWidget(ctx context.Context, dashboardID int, in WidgetInput) (*Widget, error) {
	if _, err := s.repo.Get(ctx, dashboardID); err != nil {
		return nil, err
	}

	switch in.Action {
	case "unassign":
		return nil, s.repo.RemoveWidget(ctx, dashboardID, in.WidgetID)
	case "update":
		w := &Widget{
			WidgetID:    in.WidgetID,
			DashboardID: dashboardID,
			QueryID:     in.QueryID,
			Config:      in.Config,
		}
		if err := s.repo.UpdateWidget(ctx, w); err != nil {
			return nil, err
		}
		return w, nil
	default:
		w := &Widget{
			WidgetID:    uuid.NewString(),
			DashboardID: dashboardID,
			QueryID:     in.QueryID,
			Config:      in.Config,
		}
		if err := s.repo.AddWidget(ctx, w); err != nil {
			return nil, err
		}
		return w, nil
	}
}

// EmbedURL generates the embeddable URL for a dashboard
func (s *Service) EmbedURL(ctx context.Context, id int, userName string) (string, error) {
	if s.embedder == nil {
		return "", ErrNoEmbedder
	}

	d, err := s.repo.Get(ctx, id)
	if err != nil {
		return "", err
	}
	return s.embedder.EmbedURL(ctx, userName, d.Name)
}
