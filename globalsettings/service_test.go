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

package globalsettings

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockRepo struct {
	byUser map[int]*Settings
}

func (m *mockRepo) Get(ctx context.Context, userID int) (*Settings, error) {
	if s, ok := m.byUser[userID]; ok {
		copied := *s
		return &copied, nil
	}
	return &Settings{UserID: userID}, nil
}

func (m *mockRepo) Upsert(ctx context.Context, s *Settings) error {
	copied := *s
	m.byUser[s.UserID] = &copied
	return nil
}

func TestGetDefaultsWhenUnset(t *testing.T) {
	svc := NewService(&mockRepo{byUser: map[int]*Settings{}})

	s, err := svc.Get(context.Background(), 5)
	require.NoError(t, err)
	assert.False(t, s.UseCentralDB)
	assert.Empty(t, s.CentralDBName)
}

func TestUpdateRequiresCentralName(t *testing.T) {
	svc := NewService(&mockRepo{byUser: map[int]*Settings{}})

	_, err := svc.Update(context.Background(), 5, UpdateInput{UseCentralDB: true})
	assert.Equal(t, ErrMissingCentralName, err)
}

func TestUpdateRoundTrip(t *testing.T) {
	repo := &mockRepo{byUser: map[int]*Settings{}}
	svc := NewService(repo)

	_, err := svc.Update(context.Background(), 5, UpdateInput{
		UseCentralDB: true, CentralDBName: "central_summary",
	})
	require.NoError(t, err)

	s, err := svc.Get(context.Background(), 5)
	require.NoError(t, err)
	assert.True(t, s.UseCentralDB)
	assert.Equal(t, "central_summary", s.CentralDBName)
}
