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
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresCreate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewPostgresRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO query_templates")).
		WithArgs(
			"SELECT a FROM t", HashQuery("SELECT a FROM t"),
			"Compute", "EC2", "monthly", "ec2_monthly",
			sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
		).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))

	tmpl := &Template{
		Query:        "SELECT a FROM t",
		QueryHash:    HashQuery("SELECT a FROM t"),
		Category:     "Compute",
		CategoryType: "EC2",
		QueryType:    "monthly",
		QuerySubtype: "ec2_monthly",
	}

	require.NoError(t, repo.Create(context.Background(), tmpl))
	assert.Equal(t, 7, tmpl.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresCreateDuplicate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewPostgresRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO query_templates")).
		WillReturnError(errors.New(`pq: duplicate key value violates unique constraint "query_templates_query_hash_key"`))

	err = repo.Create(context.Background(), &Template{Query: "SELECT 1", QueryHash: HashQuery("SELECT 1")})
	assert.Equal(t, ErrExists, err)
}

func TestPostgresCreateManyRollsBackOnDuplicate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewPostgresRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO query_templates")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO query_templates")).
		WillReturnError(errors.New("pq: duplicate key value violates unique constraint"))
	mock.ExpectRollback()

	err = repo.CreateMany(context.Background(), []*Template{
		{Query: "SELECT 1", QueryHash: HashQuery("SELECT 1")},
		{Query: "SELECT 1 ", QueryHash: HashQuery("SELECT 1 ")},
	})
	assert.Equal(t, ErrExists, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGetNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewPostgresRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, query, query_hash")).
		WithArgs(42).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err = repo.Get(context.Background(), 42)
	assert.Equal(t, ErrNotFound, err)
}

func TestPostgresGet(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewPostgresRepository(db)

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{
		"id", "query", "query_hash", "category", "category_type",
		"query_type", "query_subtype", "metadata", "created_at", "updated_at",
	}).AddRow(3, "SELECT a FROM t", "abc", "Compute", "EC2", "monthly", "ec2_monthly",
		[]byte(`{"columns":["a"]}`), now, now)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, query, query_hash")).
		WithArgs(3).
		WillReturnRows(rows)

	tmpl, err := repo.Get(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, "ec2_monthly", tmpl.QuerySubtype)
	assert.Equal(t, []string{"a"}, tmpl.Metadata.Columns)
}

func TestPostgresDeleteNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewPostgresRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM query_templates")).
		WithArgs(9).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.Equal(t, ErrNotFound, repo.Delete(context.Background(), 9))
}

func TestPostgresListWithFilter(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewPostgresRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM query_templates WHERE category = $1")).
		WithArgs("Compute").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	now := time.Now().UTC()
	mock.ExpectQuery(regexp.QuoteMeta("FROM query_templates")).
		WithArgs("Compute", 50, 0).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "query", "query_hash", "category", "category_type",
			"query_type", "query_subtype", "metadata", "created_at", "updated_at",
		}).AddRow(1, "SELECT a FROM t", "h", "Compute", "EC2", "monthly", "sub", []byte(`{}`), now, now))

	tmpls, total, err := repo.List(context.Background(), ListOptions{Category: "Compute"})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, tmpls, 1)
	assert.Equal(t, "Compute", tmpls[0].Category)
}
