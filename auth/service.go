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

package auth

import (
	"context"
	"fmt"

	"costpilot/platform/shared/logger"
)

// TenantProvisioner resolves tenant accounts and prepares their databases.
// Implemented by the tenant package.
type TenantProvisioner interface {
	AccountForEmail(ctx context.Context, email string) (string, error)
	Provision(ctx context.Context, accountID string) error
}

// DashboardAssigner attaches a named dashboard to a user. Implemented by
// the dashboard package.
type DashboardAssigner interface {
	AssignByName(ctx context.Context, name string, userID int) error
}

// Service provides user and identity flows. The identity provider, tenant
// provisioner, and dashboard assigner are optional; absent collaborators
// degrade the flow rather than fail it.
type Service struct {
	repo       Repository
	idp        IdentityProvider
	tenants    TenantProvisioner
	dashboards DashboardAssigner
	log        *logger.Logger
}

// NewService creates a new auth service
func NewService(repo Repository, idp IdentityProvider, tenants TenantProvisioner, dashboards DashboardAssigner) *Service {
	return &Service{
		repo:       repo,
		idp:        idp,
		tenants:    tenants,
		dashboards: dashboards,
		log:        logger.New("auth"),
	}
}

// Register signs the user up with the identity provider and creates the
// local row.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*User, error) {
	if !ValidRole(in.Role) {
		return nil, ErrInvalidRole
	}

	if s.idp != nil {
		if err := s.idp.SignUp(ctx, in); err != nil {
			return nil, err
		}
	}

	user := &User{
		Email:       in.Email,
		FullName:    in.FullName,
		PhoneNumber: in.PhoneNumber,
		Role:        in.Role,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Confirm completes registration. On success the user's tenant account is
// resolved from the email domain, its database is provisioned, and the
// tenant's default dashboard is assigned when one exists.
func (s *Service) Confirm(ctx context.Context, in ConfirmInput) error {
	if s.idp != nil {
		if err := s.idp.Confirm(ctx, in.Email, in.ConfirmationCode); err != nil {
			return err
		}
	}

	user, err := s.repo.GetByEmail(ctx, in.Email)
	if err != nil {
		return err
	}

	if s.tenants == nil {
		return nil
	}

	accountID, err := s.tenants.AccountForEmail(ctx, in.Email)
	if err != nil {
		s.log.Warn("", "", "tenant resolution failed on confirm", map[string]interface{}{
			"email": in.Email,
			"error": err.Error(),
		})
		return nil
	}

	if err := s.repo.UpdateAccountID(ctx, user.ID, accountID); err != nil {
		return err
	}
	if err := s.tenants.Provision(ctx, accountID); err != nil {
		return fmt.Errorf("failed to provision tenant database: %w", err)
	}

	if s.dashboards != nil {
		if err := s.dashboards.AssignByName(ctx, accountID+"_dashboard", user.ID); err != nil {
			s.log.Warn(accountID, "", "default dashboard assignment skipped", map[string]interface{}{
				"user_id": user.ID,
				"error":   err.Error(),
			})
		}
	}
	return nil
}

// Login starts a password flow with the identity provider
func (s *Service) Login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	if s.idp == nil {
		return nil, ErrIdentityProvider
	}
	if _, err := s.repo.GetByEmail(ctx, in.Email); err != nil {
		return nil, err
	}
	return s.idp.Login(ctx, in.Email, in.Password)
}

// RespondMFA answers an MFA challenge
func (s *Service) RespondMFA(ctx context.Context, in MFAInput) (*Token, error) {
	if s.idp == nil {
		return nil, ErrIdentityProvider
	}
	return s.idp.RespondMFA(ctx, in.Email, in.Session, in.Code)
}

// UpdateAccountID sets the caller's tenant account. An empty account id is
// resolved from the email domain. The tenant database is provisioned
// either way.
func (s *Service) UpdateAccountID(ctx context.Context, user *User, accountID string) (*User, error) {
	if accountID == "" {
		if s.tenants == nil {
			return nil, fmt.Errorf("no tenant directory configured")
		}
		resolved, err := s.tenants.AccountForEmail(ctx, user.Email)
		if err != nil {
			return nil, err
		}
		accountID = resolved
	}

	if err := s.repo.UpdateAccountID(ctx, user.ID, accountID); err != nil {
		return nil, err
	}
	user.AccountID = accountID

	if s.tenants != nil {
		if err := s.tenants.Provision(ctx, accountID); err != nil {
			return nil, fmt.Errorf("failed to provision tenant database: %w", err)
		}
	}
	return user, nil
}

// GetByEmail looks up a user by email
func (s *Service) GetByEmail(ctx context.Context, email string) (*User, error) {
	return s.repo.GetByEmail(ctx, email)
}

// ListUsers lists users; restricted to admins at the handler layer
func (s *Service) ListUsers(ctx context.Context, limit, offset int) ([]User, int, error) {
	return s.repo.List(ctx, limit, offset)
}
