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

package query

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"costpilot/platform/shared/logger"
)

// Service provides template catalog operations
type Service struct {
	repo Repository
	log  *logger.Logger
}

// NewService creates a new template service
func NewService(repo Repository) *Service {
	return &Service{
		repo: repo,
		log:  logger.New("query"),
	}
}

// Create validates, hashes, and stores a single template
func (s *Service) Create(ctx context.Context, in CreateInput) (*Template, error) {
	tmpl, err := fromInput(in)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, tmpl); err != nil {
		return nil, err
	}
	return tmpl, nil
}

// CreateMany stores a batch of templates. The batch is all-or-nothing: a
// duplicate hash or classification anywhere rejects every row.
func (s *Service) CreateMany(ctx context.Context, ins []CreateInput) ([]Template, error) {
	tmpls := make([]*Template, 0, len(ins))
	for _, in := range ins {
		tmpl, err := fromInput(in)
		if err != nil {
			return nil, err
		}
		tmpls = append(tmpls, tmpl)
	}

	if err := s.repo.CreateMany(ctx, tmpls); err != nil {
		return nil, err
	}

	out := make([]Template, len(tmpls))
	for i, tmpl := range tmpls {
		out[i] = *tmpl
	}
	return out, nil
}

// Update applies a partial update. Changing the query text recomputes the
// hash and the extracted columns.
func (s *Service) Update(ctx context.Context, id int, in UpdateInput) (*Template, error) {
	tmpl, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Query != nil {
		if strings.TrimSpace(*in.Query) == "" {
			return nil, ErrEmptyQuery
		}
		tmpl.Query = *in.Query
		tmpl.QueryHash = HashQuery(*in.Query)
		tmpl.Metadata = Metadata{Columns: ExtractColumns(*in.Query)}
	}
	if in.Category != nil {
		tmpl.Category = *in.Category
	}
	if in.CategoryType != nil {
		tmpl.CategoryType = *in.CategoryType
	}
	if in.QueryType != nil {
		tmpl.QueryType = *in.QueryType
	}
	if in.QuerySubtype != nil {
		tmpl.QuerySubtype = *in.QuerySubtype
	}

	if err := s.repo.Update(ctx, tmpl); err != nil {
		return nil, err
	}
	return tmpl, nil
}

// Get retrieves a template by id
func (s *Service) Get(ctx context.Context, id int) (*Template, error) {
	return s.repo.Get(ctx, id)
}

// List lists templates with filters and pagination
func (s *Service) List(ctx context.Context, opts ListOptions) ([]Template, int, error) {
	return s.repo.List(ctx, opts)
}

// Delete removes a template by id
func (s *Service) Delete(ctx context.Context, id int) error {
	return s.repo.Delete(ctx, id)
}

// Resolve selects the templates targeted by a dispatch request: an explicit
// id list (every id must exist), a category, or the whole catalog.
func (s *Service) Resolve(ctx context.Context, ids []int, category string) ([]Template, error) {
	if len(ids) > 0 {
		tmpls, err := s.repo.GetByIDs(ctx, ids)
		if err != nil {
			return nil, err
		}

		found := make(map[int]bool, len(tmpls))
		for _, tmpl := range tmpls {
			found[tmpl.ID] = true
		}
		var missing []int
		for _, id := range ids {
			if !found[id] {
				missing = append(missing, id)
			}
		}
		if len(missing) > 0 {
			sort.Ints(missing)
			return nil, &MissingError{IDs: missing}
		}
		return tmpls, nil
	}

	if category != "" {
		return s.repo.GetByCategory(ctx, category)
	}
	return s.repo.GetAll(ctx)
}

func fromInput(in CreateInput) (*Template, error) {
	if strings.TrimSpace(in.Query) == "" {
		return nil, ErrEmptyQuery
	}
	return &Template{
		Query:        in.Query,
		QueryHash:    HashQuery(in.Query),
		Category:     in.Category,
		CategoryType: in.CategoryType,
		QueryType:    in.QueryType,
		QuerySubtype: in.QuerySubtype,
		Metadata:     Metadata{Columns: ExtractColumns(in.Query)},
	}, nil
}

// MissingError reports dispatch requests that reference unknown template ids.
type MissingError struct {
	IDs []int
}

func (e *MissingError) Error() string {
	parts := make([]string, len(e.IDs))
	for i, id := range e.IDs {
		parts[i] = fmt.Sprintf("%d", id)
	}
	return "query templates not found: " + strings.Join(parts, ", ")
}
