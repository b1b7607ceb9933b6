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
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
)

// PostgresRepository implements Repository using PostgreSQL
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const templateColumns = `id, query, query_hash, category, category_type, query_type, query_subtype, metadata, created_at, updated_at`

// Create inserts a single template
func (r *PostgresRepository) Create(ctx context.Context, tmpl *Template) error {
	meta, err := json.Marshal(tmpl.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	query := `
		INSERT INTO query_templates (
			query, query_hash, category, category_type, query_type, query_subtype,
			metadata, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`

	now := time.Now().UTC()
	err = r.db.QueryRowContext(ctx, query,
		tmpl.Query, tmpl.QueryHash, tmpl.Category, tmpl.CategoryType,
		tmpl.QueryType, tmpl.QuerySubtype, meta, now, now,
	).Scan(&tmpl.ID)
	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			return ErrExists
		}
		return fmt.Errorf("failed to create template: %w", err)
	}

	tmpl.CreatedAt = now
	tmpl.UpdatedAt = now
	return nil
}

// CreateMany inserts templates in one transaction. A duplicate hash or
// classification anywhere fails the whole batch.
func (r *PostgresRepository) CreateMany(ctx context.Context, tmpls []*Template) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO query_templates (
			query, query_hash, category, category_type, query_type, query_subtype,
			metadata, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`

	now := time.Now().UTC()
	for _, tmpl := range tmpls {
		meta, err := json.Marshal(tmpl.Metadata)
		if err != nil {
			return fmt.Errorf("failed to marshal metadata: %w", err)
		}

		err = tx.QueryRowContext(ctx, query,
			tmpl.Query, tmpl.QueryHash, tmpl.Category, tmpl.CategoryType,
			tmpl.QueryType, tmpl.QuerySubtype, meta, now, now,
		).Scan(&tmpl.ID)
		if err != nil {
			if strings.Contains(err.Error(), "duplicate key") {
				return ErrExists
			}
			return fmt.Errorf("failed to create template: %w", err)
		}
		tmpl.CreatedAt = now
		tmpl.UpdatedAt = now
	}

	return tx.Commit()
}

// Update replaces the mutable fields of a template
func (r *PostgresRepository) Update(ctx context.Context, tmpl *Template) error {
	meta, err := json.Marshal(tmpl.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	query := `
		UPDATE query_templates SET
			query = $2, query_hash = $3, category = $4, category_type = $5,
			query_type = $6, query_subtype = $7, metadata = $8, updated_at = $9
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query,
		tmpl.ID, tmpl.Query, tmpl.QueryHash, tmpl.Category, tmpl.CategoryType,
		tmpl.QueryType, tmpl.QuerySubtype, meta, time.Now().UTC(),
	)
	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			return ErrExists
		}
		return fmt.Errorf("failed to update template: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

// Get retrieves a template by ID
func (r *PostgresRepository) Get(ctx context.Context, id int) (*Template, error) {
	query := fmt.Sprintf(`SELECT %s FROM query_templates WHERE id = $1`, templateColumns)

	tmpl, err := scanTemplate(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get template: %w", err)
	}
	return tmpl, nil
}

// GetByIDs retrieves templates for an explicit id list
func (r *PostgresRepository) GetByIDs(ctx context.Context, ids []int) ([]Template, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT %s FROM query_templates WHERE id = ANY($1) ORDER BY id`, templateColumns)

	ids64 := make([]int64, len(ids))
	for i, id := range ids {
		ids64[i] = int64(id)
	}

	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids64))
	if err != nil {
		return nil, fmt.Errorf("failed to get templates: %w", err)
	}
	defer rows.Close()

	return scanTemplates(rows)
}

// GetByCategory retrieves all templates in a category
func (r *PostgresRepository) GetByCategory(ctx context.Context, category string) ([]Template, error) {
	query := fmt.Sprintf(`SELECT %s FROM query_templates WHERE category = $1 ORDER BY id`, templateColumns)

	rows, err := r.db.QueryContext(ctx, query, category)
	if err != nil {
		return nil, fmt.Errorf("failed to get templates by category: %w", err)
	}
	defer rows.Close()

	return scanTemplates(rows)
}

// GetAll retrieves every template
func (r *PostgresRepository) GetAll(ctx context.Context) ([]Template, error) {
	query := fmt.Sprintf(`SELECT %s FROM query_templates ORDER BY id`, templateColumns)

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get templates: %w", err)
	}
	defer rows.Close()

	return scanTemplates(rows)
}

// List lists templates with classification filters and pagination
func (r *PostgresRepository) List(ctx context.Context, opts ListOptions) ([]Template, int, error) {
	var conditions []string
	var args []interface{}
	argIndex := 1

	for _, f := range []struct {
		column string
		value  string
	}{
		{"category", opts.Category},
		{"category_type", opts.CategoryType},
		{"query_type", opts.QueryType},
		{"query_subtype", opts.QuerySubtype},
	} {
		if f.value != "" {
			conditions = append(conditions, fmt.Sprintf("%s = $%d", f.column, argIndex))
			args = append(args, f.value)
			argIndex++
		}
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM query_templates %s", whereClause)
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count templates: %w", err)
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := opts.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM query_templates
		%s
		ORDER BY id
		LIMIT $%d OFFSET $%d
	`, templateColumns, whereClause, argIndex, argIndex+1)

	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list templates: %w", err)
	}
	defer rows.Close()

	tmpls, err := scanTemplates(rows)
	if err != nil {
		return nil, 0, err
	}
	return tmpls, total, nil
}

// Delete removes a template
func (r *PostgresRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM query_templates WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete template: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

// Helper functions

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTemplate(row rowScanner) (*Template, error) {
	var tmpl Template
	var meta []byte

	err := row.Scan(
		&tmpl.ID, &tmpl.Query, &tmpl.QueryHash, &tmpl.Category, &tmpl.CategoryType,
		&tmpl.QueryType, &tmpl.QuerySubtype, &meta, &tmpl.CreatedAt, &tmpl.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(meta) > 0 {
		if err := json.Unmarshal(meta, &tmpl.Metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
		}
	}
	return &tmpl, nil
}

func scanTemplates(rows *sql.Rows) ([]Template, error) {
	var tmpls []Template
	for rows.Next() {
		tmpl, err := scanTemplate(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan template: %w", err)
		}
		tmpls = append(tmpls, *tmpl)
	}
	return tmpls, rows.Err()
}
