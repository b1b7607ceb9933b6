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

package owner

import (
	"context"
	"database/sql"

	"costpilot/platform/auth"
	"costpilot/platform/costdata"
	"costpilot/platform/globalsettings"
	"costpilot/platform/shared/filter"
	"costpilot/platform/shared/logger"
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

// Service provides resource owner operations over the caller's tenant
// database.
type Service struct {
	tenants TenantDB
	global  GlobalSettings
	schema  *filter.Schema
	log     *logger.Logger
}

// NewService creates a new owner service
func NewService(tenants TenantDB, global GlobalSettings) *Service {
	return &Service{
		tenants: tenants,
		global:  global,
		schema:  costdata.Schema(),
		log:     logger.New("owner"),
	}
}

// List retrieves owner rows with pagination
func (s *Service) List(ctx context.Context, user *auth.User, limit, offset int) ([]Owner, int, error) {
	repo, err := s.repoFor(ctx, user)
	if err != nil {
		return nil, 0, err
	}
	return repo.List(ctx, limit, offset)
}

// Assign creates or replaces one resource's owner
func (s *Service) Assign(ctx context.Context, user *auth.User, in AssignInput) (*Owner, error) {
	if in.ResourceID == "" || in.OwnerEmail == "" {
		return nil, ErrMissingFields
	}
	if in.Status == "" {
		in.Status = StatusTodo
	}
	if !ValidStatus(in.Status) {
		return nil, ErrInvalidStatus
	}

	repo, err := s.repoFor(ctx, user)
	if err != nil {
		return nil, err
	}

	o := &Owner{
		ResourceID: in.ResourceID,
		OwnerName:  in.OwnerName,
		OwnerEmail: in.OwnerEmail,
		Status:     in.Status,
		Comment:    in.Comment,
	}
	if err := repo.Replace(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

// Update partially updates one resource's owner row
func (s *Service) Update(ctx context.Context, user *auth.User, resourceID string, in UpdateInput) (*Owner, error) {
	repo, err := s.repoFor(ctx, user)
	if err != nil {
		return nil, err
	}

	o, err := repo.Get(ctx, resourceID)
	if err != nil {
		return nil, err
	}

	if in.OwnerName != nil {
		o.OwnerName = *in.OwnerName
	}
	if in.OwnerEmail != nil {
		o.OwnerEmail = *in.OwnerEmail
	}
	if in.Status != nil {
		if !ValidStatus(*in.Status) {
			return nil, ErrInvalidStatus
		}
		o.Status = *in.Status
	}
	if in.Comment != nil {
		o.Comment = *in.Comment
	}

	if err := repo.Update(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

// Delete removes one resource's owner row
func (s *Service) Delete(ctx context.Context, user *auth.User, resourceID string) error {
	repo, err := s.repoFor(ctx, user)
	if err != nil {
		return err
	}
	return repo.Delete(ctx, resourceID)
}

// AssignAll assigns one owner to every cost record matching the filters.
// Existing assignments on matched resources are replaced wholesale.
func (s *Service) AssignAll(ctx context.Context, user *auth.User, in AssignAllInput) (int, error) {
	if in.OwnerEmail == "" {
		return 0, ErrMissingFields
	}
	if in.Status == "" {
		in.Status = StatusTodo
	}
	if !ValidStatus(in.Status) {
		return 0, ErrInvalidStatus
	}

	repo, err := s.repoFor(ctx, user)
	if err != nil {
		return 0, err
	}

	f, err := filter.Build(s.schema, in.Filters)
	if err != nil {
		return 0, err
	}

	resourceIDs, err := repo.MatchResources(ctx, f)
	if err != nil {
		return 0, err
	}

	count, err := repo.ReplaceAll(ctx, resourceIDs, Owner{
		OwnerName:  in.OwnerName,
		OwnerEmail: in.OwnerEmail,
		Status:     in.Status,
	})
	if err != nil {
		return 0, err
	}

	s.log.Info("", user.AccountID, "bulk owner assignment", map[string]interface{}{
		"owner_email": in.OwnerEmail,
		"resources":   count,
	})
	return count, nil
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
