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
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockRepository implements Repository for testing
type MockRepository struct {
	mu     sync.Mutex
	nextID int
	tmpls  map[int]*Template
}

func NewMockRepository() *MockRepository {
	return &MockRepository{nextID: 1, tmpls: make(map[int]*Template)}
}

func (m *MockRepository) Create(ctx context.Context, tmpl *Template) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.tmpls {
		if existing.QueryHash == tmpl.QueryHash {
			return ErrExists
		}
	}
	tmpl.ID = m.nextID
	m.nextID++
	copied := *tmpl
	m.tmpls[tmpl.ID] = &copied
	return nil
}

func (m *MockRepository) CreateMany(ctx context.Context, tmpls []*Template) error {
	m.mu.Lock()
	seen := make(map[string]bool)
	for _, existing := range m.tmpls {
		seen[existing.QueryHash] = true
	}
	for _, tmpl := range tmpls {
		if seen[tmpl.QueryHash] {
			m.mu.Unlock()
			return ErrExists
		}
		seen[tmpl.QueryHash] = true
	}
	m.mu.Unlock()
	for _, tmpl := range tmpls {
		if err := m.Create(ctx, tmpl); err != nil {
			return err
		}
	}
	return nil
}

func (m *MockRepository) Update(ctx context.Context, tmpl *Template) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tmpls[tmpl.ID]; !ok {
		return ErrNotFound
	}
	copied := *tmpl
	m.tmpls[tmpl.ID] = &copied
	return nil
}

func (m *MockRepository) Get(ctx context.Context, id int) (*Template, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if tmpl, ok := m.tmpls[id]; ok {
		copied := *tmpl
		return &copied, nil
	}
	return nil, ErrNotFound
}

func (m *MockRepository) GetByIDs(ctx context.Context, ids []int) ([]Template, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Template
	for _, id := range ids {
		if tmpl, ok := m.tmpls[id]; ok {
			out = append(out, *tmpl)
		}
	}
	return out, nil
}

func (m *MockRepository) GetByCategory(ctx context.Context, category string) ([]Template, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Template
	for _, tmpl := range m.tmpls {
		if tmpl.Category == category {
			out = append(out, *tmpl)
		}
	}
	return out, nil
}

func (m *MockRepository) GetAll(ctx context.Context) ([]Template, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Template
	for _, tmpl := range m.tmpls {
		out = append(out, *tmpl)
	}
	return out, nil
}

func (m *MockRepository) List(ctx context.Context, opts ListOptions) ([]Template, int, error) {
	all, _ := m.GetAll(ctx)
	return all, len(all), nil
}

func (m *MockRepository) Delete(ctx context.Context, id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tmpls[id]; !ok {
		return ErrNotFound
	}
	delete(m.tmpls, id)
	return nil
}

func TestServiceCreateComputesHashAndColumns(t *testing.T) {
	svc := NewService(NewMockRepository())

	tmpl, err := svc.Create(context.Background(), CreateInput{
		Query:        "SELECT service, cost AS total FROM ${table_name}$",
		Category:     "Compute",
		QuerySubtype: "compute_total",
	})
	require.NoError(t, err)

	assert.Equal(t, HashQuery("SELECT service, cost AS total FROM ${table_name}$"), tmpl.QueryHash)
	assert.Equal(t, []string{"service", "total"}, tmpl.Metadata.Columns)
}

func TestServiceCreateEmptyQuery(t *testing.T) {
	svc := NewService(NewMockRepository())

	_, err := svc.Create(context.Background(), CreateInput{Query: "   "})
	assert.Equal(t, ErrEmptyQuery, err)
}

func TestServiceUpdateRecomputes(t *testing.T) {
	svc := NewService(NewMockRepository())

	tmpl, err := svc.Create(context.Background(), CreateInput{Query: "SELECT a FROM t"})
	require.NoError(t, err)

	newQuery := "SELECT b AS bee FROM t"
	updated, err := svc.Update(context.Background(), tmpl.ID, UpdateInput{Query: &newQuery})
	require.NoError(t, err)

	assert.Equal(t, HashQuery(newQuery), updated.QueryHash)
	assert.Equal(t, []string{"bee"}, updated.Metadata.Columns)
}

func TestServiceResolveMissingIDs(t *testing.T) {
	repo := NewMockRepository()
	svc := NewService(repo)

	tmpl, err := svc.Create(context.Background(), CreateInput{Query: "SELECT a FROM t"})
	require.NoError(t, err)

	_, err = svc.Resolve(context.Background(), []int{tmpl.ID, 99, 100}, "")
	var missing *MissingError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, []int{99, 100}, missing.IDs)
	assert.True(t, strings.Contains(missing.Error(), "99, 100"))
}

func TestServiceResolveByIDs(t *testing.T) {
	svc := NewService(NewMockRepository())

	a, err := svc.Create(context.Background(), CreateInput{Query: "SELECT a FROM t"})
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), CreateInput{Query: "SELECT b FROM t"})
	require.NoError(t, err)

	tmpls, err := svc.Resolve(context.Background(), []int{a.ID}, "")
	require.NoError(t, err)
	require.Len(t, tmpls, 1)
	assert.Equal(t, a.ID, tmpls[0].ID)
}

func TestServiceUploadCSV(t *testing.T) {
	svc := NewService(NewMockRepository())

	csvBody := `Master Category,Master Type,Query Type,Query Sub Type,Query (Legasy CUR)
Compute,EC2,monthly,ec2_monthly,"SELECT service, cost FROM ${table_name}$"
Storage,S3,monthly,,
Storage,S3,monthly,s3_monthly,"SELECT bucket, cost FROM ${table_name}$"
`

	tmpls, err := svc.UploadCSV(context.Background(), strings.NewReader(csvBody))
	require.NoError(t, err)

	// The row with an empty query cell is skipped.
	require.Len(t, tmpls, 2)
	assert.Equal(t, "ec2_monthly", tmpls[0].QuerySubtype)
	assert.Equal(t, "s3_monthly", tmpls[1].QuerySubtype)
}

func TestServiceUploadCSVMissingColumns(t *testing.T) {
	svc := NewService(NewMockRepository())

	_, err := svc.UploadCSV(context.Background(), strings.NewReader("a,b,c\n1,2,3\n"))
	assert.ErrorIs(t, err, ErrBadUpload)
}
