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

package tenant

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"costpilot/platform/shared/logger"
)

func newTestStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	admin, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { admin.Close() })

	s := &Store{
		admin:   admin,
		cfg:     StoreConfig{GrantUser: "costpilot"},
		handles: make(map[string]*sql.DB),
		log:     logger.New("tenant"),
	}
	s.open = func(name string) (*sql.DB, error) {
		db, _, err := sqlmock.New()
		return db, err
	}
	s.migrate = func(ctx context.Context, db *sql.DB) error { return nil }
	return s, mock
}

func TestDBName(t *testing.T) {
	assert.Equal(t, "111122223333", DBName("111122223333", false, ""))
	assert.Equal(t, "central_summary", DBName("111122223333", true, "central_summary"))
	// Central mode without a configured name falls back to the account name.
	assert.Equal(t, "111122223333", DBName("111122223333", true, ""))
}

func TestProvisionCreatesGrantsAndMigrates(t *testing.T) {
	s, mock := newTestStore(t)

	migrated := 0
	s.migrate = func(ctx context.Context, db *sql.DB) error {
		migrated++
		return nil
	}

	mock.ExpectExec("CREATE DATABASE IF NOT EXISTS `111122223333`").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("GRANT ALL PRIVILEGES ON `111122223333`").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := s.Provision(context.Background(), "111122223333")
	require.NoError(t, err)
	assert.Equal(t, 1, migrated)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProvisionRejectsUnsafeName(t *testing.T) {
	s, _ := newTestStore(t)

	err := s.ProvisionDatabase(context.Background(), "111122223333; DROP TABLE users")
	assert.Equal(t, ErrBadDatabaseName, err)
}

func TestHandleCachesConnections(t *testing.T) {
	s, _ := newTestStore(t)

	opens := 0
	s.open = func(name string) (*sql.DB, error) {
		opens++
		db, _, err := sqlmock.New()
		return db, err
	}

	first, err := s.Handle(context.Background(), "111122223333")
	require.NoError(t, err)
	second, err := s.Handle(context.Background(), "111122223333")
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, opens)
}

func TestWarmSurvivesFailures(t *testing.T) {
	s, mock := newTestStore(t)

	mock.ExpectExec("CREATE DATABASE IF NOT EXISTS `acct_bad`").
		WillReturnError(assert.AnError)
	mock.ExpectExec("CREATE DATABASE IF NOT EXISTS `acct_good`").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("GRANT ALL PRIVILEGES ON `acct_good`").
		WillReturnResult(sqlmock.NewResult(0, 0))

	s.Warm(context.Background(), []string{"acct_bad", "", "acct_good"})
	assert.NoError(t, mock.ExpectationsWereMet())
}
