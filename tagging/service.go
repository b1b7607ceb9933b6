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

package tagging

import (
	"context"
	"database/sql"

	"costpilot/platform/auth"
	"costpilot/platform/costdata"
	"costpilot/platform/globalsettings"
	"costpilot/platform/tenant"
)

// TenantDB hands out per-tenant database handles.
type TenantDB interface {
	Handle(ctx context.Context, name string) (*sql.DB, error)
}

// GlobalSettings resolves the caller's central-database toggle.
type GlobalSettings interface {
	Get(ctx context.Context, userID int) (*globalsettings.Settings, error)
}

// Service provides tag mapping operations over the caller's tenant database.
type Service struct {
	tenants TenantDB
	global  GlobalSettings
}

// NewService creates a new tagging service
func NewService(tenants TenantDB, global GlobalSettings) *Service {
	return &Service{tenants: tenants, global: global}
}

// Upsert creates or updates one mapping
func (s *Service) Upsert(ctx context.Context, user *auth.User, in UpsertInput) (*TagMapping, error) {
	if in.ResourceID == "" || in.TagKey == "" {
		return nil, ErrMissingFields
	}

	repo, err := s.repoFor(ctx, user)
	if err != nil {
		return nil, err
	}

	m := &TagMapping{ResourceID: in.ResourceID, TagKey: in.TagKey, TagValue: in.TagValue}
	if err := repo.Upsert(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// UpsertMany applies a batch of mappings
func (s *Service) UpsertMany(ctx context.Context, user *auth.User, ins []UpsertInput) ([]TagMapping, error) {
	ms := make([]*TagMapping, 0, len(ins))
	for _, in := range ins {
		if in.ResourceID == "" || in.TagKey == "" {
			return nil, ErrMissingFields
		}
		ms = append(ms, &TagMapping{ResourceID: in.ResourceID, TagKey: in.TagKey, TagValue: in.TagValue})
	}

	repo, err := s.repoFor(ctx, user)
	if err != nil {
		return nil, err
	}
	if err := repo.UpsertMany(ctx, ms); err != nil {
		return nil, err
	}

	out := make([]TagMapping, len(ms))
	for i, m := range ms {
		out[i] = *m
	}
	return out, nil
}

// List retrieves mappings with optional filters
func (s *Service) List(ctx context.Context, user *auth.User, opts ListOptions) ([]TagMapping, int, error) {
	repo, err := s.repoFor(ctx, user)
	if err != nil {
		return nil, 0, err
	}
	return repo.List(ctx, opts)
}

// Delete removes one mapping
func (s *Service) Delete(ctx context.Context, user *auth.User, resourceID, tagKey string) error {
	repo, err := s.repoFor(ctx, user)
	if err != nil {
		return err
	}
	return repo.Delete(ctx, resourceID, tagKey)
}

func (s *Service) repoFor(ctx context.Context, user *auth.User) (*MySQLRepository, error) {
	if user.AccountID == "" {
		return nil, costdata.ErrNoTenant
	}

	gs, err := s.global.Get(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	name := tenant.DBName(user.AccountID, gs.UseCentralDB, gs.CentralDBName)
	db, err := s.tenants.Handle(ctx, name)
	if err != nil {
		return nil, err
	}
	return NewMySQLRepository(db), nil
}
