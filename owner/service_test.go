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
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"costpilot/platform/auth"
	"costpilot/platform/costdata"
	"costpilot/platform/globalsettings"
	"costpilot/platform/shared/filter"
)

type fakeTenantDB struct {
	db *sql.DB
}

func (f *fakeTenantDB) Handle(ctx context.Context, name string) (*sql.DB, error) {
	return f.db, nil
}

type fakeGlobal struct{}

func (fakeGlobal) Get(ctx context.Context, userID int) (*globalsettings.Settings, error) {
	return &globalsettings.Settings{UserID: userID}, nil
}

func newTestService(t *testing.T) (*Service, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return NewService(&fakeTenantDB{db: db}, fakeGlobal{}), mock
}

func testUser() *auth.User {
	return &auth.User{ID: 1, AccountID: "111122223333"}
}

func TestAssignValidation(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Assign(context.Background(), testUser(), AssignInput{ResourceID: "i-0abc"})
	assert.Equal(t, ErrMissingFields, err)

	_, err = svc.Assign(context.Background(), testUser(), AssignInput{
		ResourceID: "i-0abc", OwnerEmail: "dana@acme.io", Status: "DONE",
	})
	assert.Equal(t, ErrInvalidStatus, err)
}

func TestAssignReplacesExistingRow(t *testing.T) {
	svc, mock := newTestService(t)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM resource_owners WHERE resource_id = \?`).
		WithArgs("i-0abc").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO resource_owners`).
		WillReturnResult(sqlmock.NewResult(9, 1))
	mock.ExpectCommit()

	o, err := svc.Assign(context.Background(), testUser(), AssignInput{
		ResourceID: "i-0abc", OwnerName: "Dana", OwnerEmail: "dana@acme.io",
	})
	require.NoError(t, err)
	assert.Equal(t, 9, o.ID)
	assert.Equal(t, StatusTodo, o.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignAllOverwritesMatches(t *testing.T) {
	svc, mock := newTestService(t)

	mock.ExpectQuery(`SELECT DISTINCT co\.resource_id`).
		WithArgs("AmazonEC2").
		WillReturnRows(sqlmock.NewRows([]string{"resource_id"}).
			AddRow("i-0abc").AddRow("i-0def"))

	mock.ExpectBegin()
	for i := 0; i < 2; i++ {
		mock.ExpectExec(`DELETE FROM resource_owners`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`INSERT INTO resource_owners`).
			WillReturnResult(sqlmock.NewResult(1, 1))
	}
	mock.ExpectCommit()

	count, err := svc.AssignAll(context.Background(), testUser(), AssignAllInput{
		Filters:    []filter.Clause{{Field: "product_code", Op: "eq", Value: "AmazonEC2"}},
		OwnerEmail: "dana@acme.io",
		Status:     StatusWIP,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignAllRejectsBadFilter(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.AssignAll(context.Background(), testUser(), AssignAllInput{
		Filters:    []filter.Clause{{Field: "bogus", Op: "eq", Value: 1}},
		OwnerEmail: "dana@acme.io",
	})
	assert.ErrorIs(t, err, filter.ErrBadFilter)
}

func TestOperationsRequireTenant(t *testing.T) {
	svc, _ := newTestService(t)

	_, _, err := svc.List(context.Background(), &auth.User{ID: 1}, 10, 0)
	assert.Equal(t, costdata.ErrNoTenant, err)
}

func TestValidStatus(t *testing.T) {
	assert.True(t, ValidStatus(StatusSupressed))
	assert.False(t, ValidStatus("SUPPRESSED"))
}
