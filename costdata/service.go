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

package costdata

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"costpilot/platform/auth"
	"costpilot/platform/globalsettings"
	"costpilot/platform/notify"
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

// Service provides cost record operations over the caller's tenant database.
type Service struct {
	tenants TenantDB
	global  GlobalSettings
	mailer  notify.Mailer
	schema  *filter.Schema
	log     *logger.Logger
}

// NewService creates a new cost data service. The mailer is optional; when
// nil, owner notification fails with an explicit error.
func NewService(tenants TenantDB, global GlobalSettings, mailer notify.Mailer) *Service {
	return &Service{
		tenants: tenants,
		global:  global,
		mailer:  mailer,
		schema:  Schema(),
		log:     logger.New("costdata"),
	}
}

// List retrieves filtered records with their savings summary
func (s *Service) List(ctx context.Context, user *auth.User, req ListRequest) ([]Record, int, *Summary, error) {
	repo, err := s.repoFor(ctx, user)
	if err != nil {
		return nil, 0, nil, err
	}

	f, err := s.buildFilter(req.Filters, req.Sort)
	if err != nil {
		return nil, 0, nil, err
	}

	records, total, err := repo.List(ctx, f, req.IDs, req.Limit, req.Offset)
	if err != nil {
		return nil, 0, nil, err
	}

	summary, err := repo.Summary(ctx, f)
	if err != nil {
		return nil, 0, nil, err
	}
	return records, total, summary, nil
}

// Facets returns the distinct values per filterable field
func (s *Service) Facets(ctx context.Context, user *auth.User) (map[string][]string, error) {
	repo, err := s.repoFor(ctx, user)
	if err != nil {
		return nil, err
	}
	return repo.Facets(ctx, s.schema)
}

// NotifyOwners mails each owner a summary of their matched records. With an
// override address everything goes to that one recipient.
func (s *Service) NotifyOwners(ctx context.Context, user *auth.User, req NotifyRequest) (*NotifySummary, error) {
	if s.mailer == nil {
		return nil, fmt.Errorf("owner notification is not configured")
	}

	repo, err := s.repoFor(ctx, user)
	if err != nil {
		return nil, err
	}

	f, err := s.buildFilter(req.Filters, "")
	if err != nil {
		return nil, err
	}

	records, err := repo.ListOwned(ctx, f)
	if err != nil {
		return nil, err
	}

	groups := groupByOwner(records)
	summary := &NotifySummary{Owners: len(groups)}

	for email, recs := range groups {
		summary.Records += len(recs)
		to := email
		if req.Override != "" {
			to = req.Override
		}

		subject, text, html := buildOwnerEmail(recs)
		if err := s.mailer.Send(ctx, []string{to}, subject, text, html); err != nil {
			s.log.Warn("", user.AccountID, "owner notification failed", map[string]interface{}{
				"owner": email,
				"error": err.Error(),
			})
			continue
		}
		summary.Sent++
	}
	return summary, nil
}

// groupByOwner buckets records by owner email. Suppressed records are left
// out entirely.
func groupByOwner(records []Record) map[string][]Record {
	groups := make(map[string][]Record)
	for _, rec := range records {
		if rec.OwnerStatus == "SUPRESSED" || rec.OwnerEmail == "" {
			continue
		}
		groups[rec.OwnerEmail] = append(groups[rec.OwnerEmail], rec)
	}
	return groups
}

func (s *Service) buildFilter(clauses []filter.Clause, sortSpec string) (*filter.Filter, error) {
	f, err := filter.Build(s.schema, clauses)
	if err != nil {
		return nil, err
	}

	if sortSpec != "" {
		field, dir, ok := strings.Cut(sortSpec, ".")
		if !ok {
			dir = "asc"
		}
		if err := f.SortBy(field, dir); err != nil {
			return nil, err
		}
	}
	return f, nil
}

func (s *Service) repoFor(ctx context.Context, user *auth.User) (*MySQLRepository, error) {
	if user.AccountID == "" {
		return nil, ErrNoTenant
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
