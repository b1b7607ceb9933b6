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

package report

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"costpilot/platform/engine"
	"costpilot/platform/query"
	"costpilot/platform/shared/logger"
	"costpilot/platform/usersettings"
)

// maxConcurrent bounds engine calls per batch operation.
const maxConcurrent = 8

// Templates resolves dispatch requests to query templates.
type Templates interface {
	Resolve(ctx context.Context, ids []int, category string) ([]query.Template, error)
	Get(ctx context.Context, id int) (*query.Template, error)
}

// Profiles resolves engine connection profiles.
type Profiles interface {
	Get(ctx context.Context, id, userID int) (*usersettings.Settings, error)
	GetActive(ctx context.Context, userID int) (*usersettings.Settings, error)
}

// Service runs batches against the engine and keeps the ledger current.
type Service struct {
	repo      Repository
	templates Templates
	profiles  Profiles
	engines   *engine.ClientCache
	log       *logger.Logger
}

// NewService creates a new report service
func NewService(repo Repository, templates Templates, profiles Profiles, engines *engine.ClientCache) *Service {
	return &Service{
		repo:      repo,
		templates: templates,
		profiles:  profiles,
		engines:   engines,
		log:       logger.New("report"),
	}
}

// RunBatch dispatches the matched templates concurrently and records one
// ledger row per template, in input order, under a single fresh batch id.
// A single submission failure does not abort its siblings; an engine
// connectivity failure aborts the whole batch before anything is submitted.
func (s *Service) RunBatch(ctx context.Context, userID int, in RunInput) ([]Execution, error) {
	settings, err := s.profiles.GetActive(ctx, userID)
	if err != nil {
		return nil, err
	}

	templates, err := s.templates.Resolve(ctx, in.QueryIDs, in.Category)
	if err != nil {
		return nil, err
	}
	if len(templates) == 0 {
		return nil, ErrNoTemplates
	}

	eng, _, err := s.engines.Get(ctx, credentials(settings))
	if err != nil {
		return nil, err
	}

	batchID := uuid.NewString()
	execs := make([]*Execution, len(templates))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrent)
	for i, tmpl := range templates {
		rendered := query.Render(tmpl.Query, query.RenderParams{
			Table:  qualifiedTable(settings),
			Years:  in.Years,
			Months: in.Months,
		})

		exec := &Execution{
			BatchID:            batchID,
			QueryID:            tmpl.ID,
			UserID:             userID,
			UserSettingsID:     settings.ID,
			WidgetAssignmentID: in.WidgetAssignmentID,
			ExecutedQuery:      rendered,
		}
		execs[i] = exec

		g.Go(func() error {
			handle, err := eng.Submit(gctx, engine.Submission{
				Query:          rendered,
				Database:       settings.Database,
				OutputLocation: settings.OutputLocation,
			})
			if err != nil {
				// The row still gets a unique handle so the ledger insert
				// and later lookups work.
				exec.ExecutionID = uuid.NewString()
				exec.ErrorMessage = err.Error()
				s.log.Warn("", "", "query submission failed", map[string]interface{}{
					"batch_id": batchID,
					"query_id": exec.QueryID,
					"error":    err.Error(),
				})
				return nil
			}
			exec.ExecutionID = handle
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, exec := range execs {
		if exec.ErrorMessage != "" {
			exec.Status = StatusFailed
		} else {
			exec.Status = StatusPending
		}
	}

	if err := s.repo.CreateBatch(ctx, execs); err != nil {
		return nil, err
	}

	s.log.Info("", "", "batch dispatched", map[string]interface{}{
		"batch_id": batchID,
		"count":    len(execs),
	})

	out := make([]Execution, len(execs))
	for i, exec := range execs {
		out[i] = *exec
	}
	return out, nil
}

// RefreshExecution returns the current state of one execution, polling the
// engine only when the stored status is not terminal.
func (s *Service) RefreshExecution(ctx context.Context, executionID string, userID int) (*Execution, error) {
	exec, err := s.repo.GetByExecutionID(ctx, executionID, userID)
	if err != nil {
		return nil, err
	}
	if exec.Terminal() {
		return exec, nil
	}

	eng, err := s.engineFor(ctx, exec)
	if err != nil {
		return nil, err
	}
	if err := s.refresh(ctx, eng, exec); err != nil {
		return nil, err
	}
	return exec, nil
}

// RefreshBatch refreshes every non-terminal row of a batch.
func (s *Service) RefreshBatch(ctx context.Context, batchID string, userID int) ([]Execution, error) {
	execs, err := s.repo.ListByBatch(ctx, batchID, userID)
	if err != nil {
		return nil, err
	}

	var eng engine.QueryEngine
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrent)
	for i := range execs {
		exec := &execs[i]
		if exec.Terminal() {
			continue
		}
		if eng == nil {
			if eng, err = s.engineFor(ctx, exec); err != nil {
				return nil, err
			}
		}
		g.Go(func() error {
			return s.refresh(gctx, eng, exec)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return execs, nil
}

// ExecutionResults materializes one execution's result set.
func (s *Service) ExecutionResults(ctx context.Context, executionID string, userID int) (ResultSet, error) {
	exec, err := s.repo.GetByExecutionID(ctx, executionID, userID)
	if err != nil {
		return nil, err
	}
	return s.results(ctx, []Execution{*exec})
}

// BatchResults materializes a whole batch's result sets.
func (s *Service) BatchResults(ctx context.Context, batchID string, userID int) (ResultSet, error) {
	execs, err := s.repo.ListByBatch(ctx, batchID, userID)
	if err != nil {
		return nil, err
	}
	return s.results(ctx, execs)
}

// Get retrieves one ledger row
func (s *Service) Get(ctx context.Context, executionID string, userID int) (*Execution, error) {
	return s.repo.GetByExecutionID(ctx, executionID, userID)
}

// GetBatch retrieves a batch's rows in insertion order
func (s *Service) GetBatch(ctx context.Context, batchID string, userID int) ([]Execution, error) {
	return s.repo.ListByBatch(ctx, batchID, userID)
}

// List retrieves the user's rows, newest first
func (s *Service) List(ctx context.Context, opts ListOptions) ([]Execution, int, error) {
	return s.repo.List(ctx, opts)
}

func (s *Service) results(ctx context.Context, execs []Execution) (ResultSet, error) {
	for _, exec := range execs {
		if exec.Status == StatusPending || exec.Status == StatusRunning {
			return nil, ErrResultsNotReady
		}
	}

	var eng engine.QueryEngine
	results := make(ResultSet)
	grids := make([][][]string, len(execs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrent)
	for i := range execs {
		exec := &execs[i]
		if exec.Status != StatusSucceeded {
			continue
		}
		if eng == nil {
			var err error
			if eng, err = s.engineFor(ctx, exec); err != nil {
				return nil, err
			}
		}
		g.Go(func() error {
			rows, err := eng.Fetch(gctx, exec.ExecutionID)
			if err != nil {
				// Missing output for one member leaves its label empty.
				s.log.Warn("", "", "result fetch failed", map[string]interface{}{
					"execution_id": exec.ExecutionID,
					"error":        err.Error(),
				})
				return nil
			}
			grids[i] = rows
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for i, exec := range execs {
		results[s.label(ctx, exec)] = grids[i]
	}
	return results, nil
}

// label names a result grid after its template's query_subtype, falling
// back to the execution handle when the template is gone.
func (s *Service) label(ctx context.Context, exec Execution) string {
	tmpl, err := s.templates.Get(ctx, exec.QueryID)
	if err != nil || tmpl.QuerySubtype == "" {
		return exec.ExecutionID
	}
	return tmpl.QuerySubtype
}

func (s *Service) refresh(ctx context.Context, eng engine.QueryEngine, exec *Execution) error {
	status, err := eng.Poll(ctx, exec.ExecutionID)
	if err != nil {
		return fmt.Errorf("failed to poll execution %s: %w", exec.ExecutionID, err)
	}
	if status.State == exec.Status {
		return nil
	}

	exec.Status = status.State
	exec.ErrorMessage = status.Reason
	return s.repo.UpdateStatus(ctx, exec.ID, exec.Status, exec.ErrorMessage)
}

// engineFor builds the engine client from the profile the row was
// dispatched with, falling back to the user's active profile when that
// profile has since been deleted.
func (s *Service) engineFor(ctx context.Context, exec *Execution) (engine.QueryEngine, error) {
	settings, err := s.profiles.Get(ctx, exec.UserSettingsID, exec.UserID)
	if err == usersettings.ErrNotFound {
		settings, err = s.profiles.GetActive(ctx, exec.UserID)
	}
	if err != nil {
		return nil, err
	}

	eng, _, err := s.engines.Get(ctx, credentials(settings))
	return eng, err
}

func credentials(s *usersettings.Settings) engine.Credentials {
	return engine.Credentials{
		AccessKey:    s.AccessKey,
		SecretKey:    s.SecretKey,
		SessionToken: s.SessionToken,
		Region:       s.Region,
	}
}

// qualifiedTable renders the fully qualified table identifier substituted
// for the table token.
func qualifiedTable(s *usersettings.Settings) string {
	if s.Database != "" && s.Table != "" {
		return s.Database + "." + s.Table
	}
	return s.Table
}
