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

package tagging

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

func TestUpsertValidation(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Upsert(context.Background(), testUser(), UpsertInput{TagKey: "env"})
	assert.Equal(t, ErrMissingFields, err)
}

func TestUpsertManyTransactional(t *testing.T) {
	svc, mock := newTestService(t)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO resource_tag_mappings`).
		WithArgs("i-0abc", "env", "prod", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(`INSERT INTO resource_tag_mappings`).
		WithArgs("i-0abc", "team", "data", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectCommit()

	mappings, err := svc.UpsertMany(context.Background(), testUser(), []UpsertInput{
		{ResourceID: "i-0abc", TagKey: "env", TagValue: "prod"},
		{ResourceID: "i-0abc", TagKey: "team", TagValue: "data"},
	})
	require.NoError(t, err)
	assert.Len(t, mappings, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertManyValidatesBeforeTouchingDB(t *testing.T) {
	svc, mock := newTestService(t)

	_, err := svc.UpsertMany(context.Background(), testUser(), []UpsertInput{
		{ResourceID: "i-0abc", TagKey: "env", TagValue: "prod"},
		{ResourceID: "", TagKey: "team"},
	})
	assert.Equal(t, ErrMissingFields, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListRequiresTenant(t *testing.T) {
	svc, _ := newTestService(t)

	_, _, err := svc.List(context.Background(), &auth.User{ID: 1}, ListOptions{})
	assert.Equal(t, costdata.ErrNoTenant, err)
}
