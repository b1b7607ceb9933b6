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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockRepository is an in-memory Repository for service tests.
type MockRepository struct {
	nextID     int
	dashboards map[int]*Dashboard
	users      map[int]map[int]bool
	widgets    map[string]*Widget
}

func NewMockRepository() *MockRepository {
	return &MockRepository{
		nextID:     1,
		dashboards: make(map[int]*Dashboard),
		users:      make(map[int]map[int]bool),
		widgets:    make(map[string]*Widget),
	}
}

func (m *MockRepository) Create(ctx context.Context, d *Dashboard) error {
	for _, existing := range m.dashboards {
		if existing.Name == d.Name {
			return ErrExists
		}
	}
	d.ID = m.nextID
	m.nextID++
	copied := *d
	m.dashboards[d.ID] = &copied
	return nil
}

func (m *MockRepository) Get(ctx context.Context, id int) (*Dashboard, error) {
	d, ok := m.dashboards[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *d
	copied.Widgets = nil
	for _, w := range m.widgets {
		if w.DashboardID == id {
			copied.Widgets = append(copied.Widgets, *w)
		}
	}
	return &copied, nil
}

func (m *MockRepository) GetByName(ctx context.Context, name string) (*Dashboard, error) {
	for _, d := range m.dashboards {
		if d.Name == name {
			return m.Get(ctx, d.ID)
		}
	}
	return nil, ErrNotFound
}

func (m *MockRepository) List(ctx context.Context, limit, offset int) ([]Dashboard, int, error) {
	var out []Dashboard
	for _, d := range m.dashboards {
		out = append(out, *d)
	}
	return out, len(out), nil
}

func (m *MockRepository) ListByUser(ctx context.Context, userID int) ([]Dashboard, error) {
	var out []Dashboard
	for id, members := range m.users {
		if members[userID] {
			d, err := m.Get(ctx, id)
			if err != nil {
				return nil, err
			}
			out = append(out, *d)
		}
	}
	return out, nil
}

func (m *MockRepository) Update(ctx context.Context, d *Dashboard) error {
	if _, ok := m.dashboards[d.ID]; !ok {
		return ErrNotFound
	}
	copied := *d
	m.dashboards[d.ID] = &copied
	return nil
}

func (m *MockRepository) Delete(ctx context.Context, id int) error {
	if _, ok := m.dashboards[id]; !ok {
		return ErrNotFound
	}
	delete(m.dashboards, id)
	delete(m.users, id)
	return nil
}

func (m *MockRepository) AssignUser(ctx context.Context, dashboardID, userID int) error {
	if m.users[dashboardID] == nil {
		m.users[dashboardID] = make(map[int]bool)
	}
	m.users[dashboardID][userID] = true
	return nil
}

func (m *MockRepository) UnassignUser(ctx context.Context, dashboardID, userID int) error {
	if !m.users[dashboardID][userID] {
		return ErrNotFound
	}
	delete(m.users[dashboardID], userID)
	return nil
}

func (m *MockRepository) AddWidget(ctx context.Context, w *Widget) error {
	w.ID = len(m.widgets) + 1
	copied := *w
	m.widgets[w.WidgetID] = &copied
	return nil
}

func (m *MockRepository) UpdateWidget(ctx context.Context, w *Widget) error {
	existing, ok := m.widgets[w.WidgetID]
	if !ok || existing.DashboardID != w.DashboardID {
		return ErrNotFound
	}
	copied := *w
	copied.ID = existing.ID
	m.widgets[w.WidgetID] = &copied
	return nil
}

func (m *MockRepository) RemoveWidget(ctx context.Context, dashboardID int, widgetID string) error {
	existing, ok := m.widgets[widgetID]
	if !ok || existing.DashboardID != dashboardID {
		return ErrNotFound
	}
	delete(m.widgets, widgetID)
	return nil
}

type stubEmbedder struct {
	lastUser      string
	lastDashboard string
}

func (s *stubEmbedder) EmbedURL(ctx context.Context, userName, dashboardName string) (string, error) {
	s.lastUser = userName
	s.lastDashboard = dashboardName
	return "https://quicksight.example/embed", nil
}

func TestCreateRequiresName(t *testing.T) {
	svc := NewService(NewMockRepository(), nil)

	_, err := svc.Create(context.Background(), 1, CreateInput{})
	assert.Equal(t, ErrMissingName, err)
}

func TestAssignByName(t *testing.T) {
	repo := NewMockRepository()
	svc := NewService(repo, nil)

	_, err := svc.Create(context.Background(), 1, CreateInput{Name: "111122223333_dashboard"})
	require.NoError(t, err)

	require.NoError(t, svc.AssignByName(context.Background(), "111122223333_dashboard", 7))

	mine, err := svc.ListMine(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "111122223333_dashboard", mine[0].Name)
}

func TestAssignByNameUnknownDashboard(t *testing.T) {
	svc := NewService(NewMockRepository(), nil)

	err := svc.AssignByName(context.Background(), "missing_dashboard", 7)
	assert.Equal(t, ErrNotFound, err)
}

func TestWidgetLifecycle(t *testing.T) {
	repo := NewMockRepository()
	svc := NewService(repo, nil)

	d, err := svc.Create(context.Background(), 1, CreateInput{Name: "spend"})
	require.NoError(t, err)

	added, err := svc.ApplyWidget(context.Background(), d.ID, WidgetInput{
		QueryID: 42,
		Config:  WidgetConfig{GraphType: "bar", XAxis: "month", YAxis: []string{"cost"}},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, added.WidgetID)

	updated, err := svc.ApplyWidget(context.Background(), d.ID, WidgetInput{
		WidgetID: added.WidgetID,
		QueryID:  43,
		Config:   WidgetConfig{GraphType: "line"},
		Action:   "update",
	})
	require.NoError(t, err)
	assert.Equal(t, 43, updated.QueryID)

	got, err := svc.Get(context.Background(), d.ID)
	require.NoError(t, err)
	require.Len(t, got.Widgets, 1)
	assert.Equal(t, "line", got.Widgets[0].Config.GraphType)

	_, err = svc.ApplyWidget(context.Background(), d.ID, WidgetInput{
		WidgetID: added.WidgetID,
		Action:   "unassign",
	})
	require.NoError(t, err)

	got, err = svc.Get(context.Background(), d.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Widgets)
}

func TestEmbedURL(t *testing.T) {
	repo := NewMockRepository()
	embedder := &stubEmbedder{}
	svc := NewService(repo, embedder)

	d, err := svc.Create(context.Background(), 1, CreateInput{Name: "111122223333_dashboard"})
	require.NoError(t, err)

	url, err := svc.EmbedURL(context.Background(), d.ID, "dana")
	require.NoError(t, err)
	assert.Equal(t, "https://quicksight.example/embed", url)
	assert.Equal(t, "dana", embedder.lastUser)
	assert.Equal(t, "111122223333_dashboard", embedder.lastDashboard)
}

func TestEmbedURLWithoutEmbedder(t *testing.T) {
	svc := NewService(NewMockRepository(), nil)

	_, err := svc.EmbedURL(context.Background(), 1, "dana")
	assert.Equal(t, ErrNoEmbedder, err)
}
