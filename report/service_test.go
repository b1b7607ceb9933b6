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
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"costpilot/platform/engine"
	"costpilot/platform/query"
	"costpilot/platform/usersettings"
)

type fakeRepo struct {
	mu     sync.Mutex
	nextID int
	rows   []*Execution
}

func (f *fakeRepo) CreateBatch(ctx context.Context, execs []*Execution) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range execs {
		f.nextID++
		e.ID = f.nextID
		copied := *e
		f.rows = append(f.rows, &copied)
	}
	return nil
}

func (f *fakeRepo) GetByExecutionID(ctx context.Context, executionID string, userID int) (*Execution, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.rows {
		if e.ExecutionID == executionID && e.UserID == userID {
			copied := *e
			return &copied, nil
		}
	}
	return nil, ErrNotFound
}

func (f *fakeRepo) ListByBatch(ctx context.Context, batchID string, userID int) ([]Execution, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Execution
	for _, e := range f.rows {
		if e.BatchID == batchID && e.UserID == userID {
			out = append(out, *e)
		}
	}
	if len(out) == 0 {
		return nil, ErrNotFound
	}
	return out, nil
}

func (f *fakeRepo) List(ctx context.Context, opts ListOptions) ([]Execution, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Execution
	for _, e := range f.rows {
		if e.UserID == opts.UserID {
			out = append(out, *e)
		}
	}
	return out, len(out), nil
}

func (f *fakeRepo) UpdateStatus(ctx context.Context, id int, status, errorMessage string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.rows {
		if e.ID == id {
			e.Status = status
			e.ErrorMessage = errorMessage
			return nil
		}
	}
	return ErrNotFound
}

type fakeTemplates struct {
	templates []query.Template
}

func (f *fakeTemplates) Resolve(ctx context.Context, ids []int, category string) ([]query.Template, error) {
	return f.templates, nil
}

func (f *fakeTemplates) Get(ctx context.Context, id int) (*query.Template, error) {
	for i := range f.templates {
		if f.templates[i].ID == id {
			return &f.templates[i], nil
		}
	}
	return nil, query.ErrNotFound
}

type fakeProfiles struct {
	settings *usersettings.Settings
}

func (f *fakeProfiles) Get(ctx context.Context, id, userID int) (*usersettings.Settings, error) {
	if f.settings == nil {
		return nil, usersettings.ErrNotFound
	}
	return f.settings, nil
}

func (f *fakeProfiles) GetActive(ctx context.Context, userID int) (*usersettings.Settings, error) {
	if f.settings == nil {
		return nil, usersettings.ErrNoActiveSettings
	}
	return f.settings, nil
}

// fakeEngine programs per-query submit failures and per-handle poll/fetch
// results.
type fakeEngine struct {
	mu         sync.Mutex
	submits    int
	polls      int
	failWhen   func(sub engine.Submission) error
	pollStatus map[string]engine.Status
	results    map[string][][]string
	fetchErr   map[string]error
}

func (f *fakeEngine) Submit(ctx context.Context, sub engine.Submission) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submits++
	if f.failWhen != nil {
		if err := f.failWhen(sub); err != nil {
			return "", err
		}
	}
	return fmt.Sprintf("exec-%d", f.submits), nil
}

func (f *fakeEngine) Poll(ctx context.Context, executionID string) (engine.Status, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.polls++
	if status, ok := f.pollStatus[executionID]; ok {
		return status, nil
	}
	return engine.Status{State: engine.StateRunning}, nil
}

func (f *fakeEngine) Fetch(ctx context.Context, executionID string) ([][]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.fetchErr[executionID]; ok {
		return nil, err
	}
	return f.results[executionID], nil
}

func testSettings() *usersettings.Settings {
	return &usersettings.Settings{
		ID: 3, UserID: 1, AccessKey: "ak", SecretKey: "sk", Region: "us-east-1",
		Database: "cur_db", Table: "cur_table", OutputLocation: "s3://results/",
	}
}

func newTestService(eng engine.QueryEngine, templates []query.Template) (*Service, *fakeRepo) {
	repo := &fakeRepo{}
	cache := engine.NewClientCache(func(ctx context.Context, creds engine.Credentials) (engine.QueryEngine, string, error) {
		return eng, "111122223333", nil
	})
	svc := NewService(repo, &fakeTemplates{templates: templates}, &fakeProfiles{settings: testSettings()}, cache)
	return svc, repo
}

func threeTemplates() []query.Template {
	return []query.Template{
		{ID: 1, Query: "SELECT a FROM ${table_name}$", QuerySubtype: "first"},
		{ID: 2, Query: "SELECT b FROM ${table_name}$", QuerySubtype: "second"},
		{ID: 3, Query: "SELECT c FROM ${table_name}$", QuerySubtype: "third"},
	}
}

func TestRunBatchPartialFailure(t *testing.T) {
	eng := &fakeEngine{
		failWhen: func(sub engine.Submission) error {
			if sub.Query == "SELECT b FROM cur_db.cur_table" {
				return errors.New("table not found")
			}
			return nil
		},
	}
	svc, repo := newTestService(eng, threeTemplates())

	execs, err := svc.RunBatch(context.Background(), 1, RunInput{})
	require.NoError(t, err)
	require.Len(t, execs, 3)

	// Rows come back in input order under one batch id.
	assert.Equal(t, 1, execs[0].QueryID)
	assert.Equal(t, 2, execs[1].QueryID)
	assert.Equal(t, 3, execs[2].QueryID)
	assert.Equal(t, execs[0].BatchID, execs[1].BatchID)
	assert.Equal(t, execs[1].BatchID, execs[2].BatchID)

	assert.Equal(t, StatusPending, execs[0].Status)
	assert.Equal(t, StatusFailed, execs[1].Status)
	assert.Equal(t, StatusPending, execs[2].Status)
	assert.Equal(t, "table not found", execs[1].ErrorMessage)

	// The failed row still has a unique handle.
	assert.NotEmpty(t, execs[1].ExecutionID)
	assert.NotEqual(t, execs[0].ExecutionID, execs[1].ExecutionID)

	assert.Len(t, repo.rows, 3)
}

func TestRunBatchRendersTemplates(t *testing.T) {
	eng := &fakeEngine{}
	svc, _ := newTestService(eng, []query.Template{
		{ID: 1, Query: "SELECT x FROM ${table_name}$ WHERE year IN (${year}$) AND month IN (${month}$)"},
	})

	execs, err := svc.RunBatch(context.Background(), 1, RunInput{
		Years:  []string{"2025", "2026"},
		Months: []string{"07"},
	})
	require.NoError(t, err)
	assert.Equal(t,
		"SELECT x FROM cur_db.cur_table WHERE year IN ('2025','2026') AND month IN ('07')",
		execs[0].ExecutedQuery)
}

func TestRunBatchAbortsOnAuthFailure(t *testing.T) {
	repo := &fakeRepo{}
	cache := engine.NewClientCache(func(ctx context.Context, creds engine.Credentials) (engine.QueryEngine, string, error) {
		return nil, "", engine.ErrAuth
	})
	svc := NewService(repo, &fakeTemplates{templates: threeTemplates()}, &fakeProfiles{settings: testSettings()}, cache)

	_, err := svc.RunBatch(context.Background(), 1, RunInput{})
	assert.Equal(t, engine.ErrAuth, err)
	assert.Empty(t, repo.rows)
}

func TestRunBatchRequiresActiveSettings(t *testing.T) {
	svc := NewService(&fakeRepo{}, &fakeTemplates{templates: threeTemplates()}, &fakeProfiles{}, engine.NewClientCache(nil))

	_, err := svc.RunBatch(context.Background(), 1, RunInput{})
	assert.Equal(t, usersettings.ErrNoActiveSettings, err)
}

func TestRunBatchNoTemplates(t *testing.T) {
	svc, _ := newTestService(&fakeEngine{}, nil)

	_, err := svc.RunBatch(context.Background(), 1, RunInput{})
	assert.Equal(t, ErrNoTemplates, err)
}

func TestRefreshSkipsTerminalRows(t *testing.T) {
	eng := &fakeEngine{pollStatus: map[string]engine.Status{
		"exec-1": {State: engine.StateSucceeded},
	}}
	svc, repo := newTestService(eng, threeTemplates())

	execs, err := svc.RunBatch(context.Background(), 1, RunInput{})
	require.NoError(t, err)
	batchID := execs[0].BatchID

	// First refresh polls all three pending rows.
	refreshed, err := svc.RefreshBatch(context.Background(), batchID, 1)
	require.NoError(t, err)
	assert.Equal(t, 3, eng.polls)

	byHandle := make(map[string]Execution)
	for _, e := range refreshed {
		byHandle[e.ExecutionID] = e
	}
	assert.Equal(t, StatusSucceeded, byHandle["exec-1"].Status)
	assert.Equal(t, StatusRunning, byHandle["exec-2"].Status)

	// The terminal row is not polled again.
	_, err = svc.RefreshBatch(context.Background(), batchID, 1)
	require.NoError(t, err)
	assert.Equal(t, 5, eng.polls)

	stored, err := repo.GetByExecutionID(context.Background(), "exec-1", 1)
	require.NoError(t, err)
	assert.Equal(t, StatusSucceeded, stored.Status)
}

func TestRefreshExecutionTerminalNoEngineCall(t *testing.T) {
	eng := &fakeEngine{pollStatus: map[string]engine.Status{
		"exec-1": {State: engine.StateFailed, Reason: "syntax error"},
	}}
	svc, _ := newTestService(eng, threeTemplates()[:1])

	execs, err := svc.RunBatch(context.Background(), 1, RunInput{})
	require.NoError(t, err)

	exec, err := svc.RefreshExecution(context.Background(), execs[0].ExecutionID, 1)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, exec.Status)
	assert.Equal(t, "syntax error", exec.ErrorMessage)
	assert.Equal(t, 1, eng.polls)

	// Terminal now: no further engine traffic.
	_, err = svc.RefreshExecution(context.Background(), execs[0].ExecutionID, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, eng.polls)
}

func TestResultsRefuseWhileInFlight(t *testing.T) {
	svc, _ := newTestService(&fakeEngine{}, threeTemplates())

	execs, err := svc.RunBatch(context.Background(), 1, RunInput{})
	require.NoError(t, err)

	_, err = svc.BatchResults(context.Background(), execs[0].BatchID, 1)
	assert.Equal(t, ErrResultsNotReady, err)
}

func TestBatchResultsLabelsBySubtype(t *testing.T) {
	grid := [][]string{{"col"}, {"v1"}, {"v2"}}
	eng := &fakeEngine{
		pollStatus: map[string]engine.Status{
			"exec-1": {State: engine.StateSucceeded},
			"exec-2": {State: engine.StateSucceeded},
			"exec-3": {State: engine.StateSucceeded},
		},
		results: map[string][][]string{
			"exec-1": grid, "exec-2": grid, "exec-3": grid,
		},
	}
	svc, _ := newTestService(eng, threeTemplates())

	execs, err := svc.RunBatch(context.Background(), 1, RunInput{})
	require.NoError(t, err)
	_, err = svc.RefreshBatch(context.Background(), execs[0].BatchID, 1)
	require.NoError(t, err)

	results, err := svc.BatchResults(context.Background(), execs[0].BatchID, 1)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, grid, results["first"])
	assert.Equal(t, grid, results["second"])
	assert.Equal(t, grid, results["third"])
}

func TestResultsFetchFailureIsEmptyNotFatal(t *testing.T) {
	eng := &fakeEngine{
		pollStatus: map[string]engine.Status{
			"exec-1": {State: engine.StateSucceeded},
		},
		fetchErr: map[string]error{"exec-1": errors.New("output expired")},
	}
	svc, _ := newTestService(eng, threeTemplates()[:1])

	execs, err := svc.RunBatch(context.Background(), 1, RunInput{})
	require.NoError(t, err)
	_, err = svc.RefreshBatch(context.Background(), execs[0].BatchID, 1)
	require.NoError(t, err)

	results, err := svc.BatchResults(context.Background(), execs[0].BatchID, 1)
	require.NoError(t, err)
	assert.Empty(t, results["first"])
}
