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
	"fmt"
	"strings"
	"time"
)

// MySQLRepository stores tag mappings in one tenant's summary database.
type MySQLRepository struct {
	db *sql.DB
}

// NewMySQLRepository creates a repository over one tenant database
func NewMySQLRepository(db *sql.DB) *MySQLRepository {
	return &MySQLRepository{db: db}
}

// Upsert inserts a mapping or updates the value on (resource, key) conflict
func (r *MySQLRepository) Upsert(ctx context.Context, m *TagMapping) error {
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO resource_tag_mappings (resource_id, tag_key, tag_value, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE tag_value = VALUES(tag_value), updated_at = VALUES(updated_at)
	`, m.ResourceID, m.TagKey, m.TagValue, now, now)
	if err != nil {
		return fmt.Errorf("failed to upsert tag mapping: %w", err)
	}
	m.UpdatedAt = now
	return nil
}

// UpsertMany applies a batch of mappings in one transaction
func (r *MySQLRepository) UpsertMany(ctx context.Context, ms []*TagMapping) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	for _, m := range ms {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO resource_tag_mappings (resource_id, tag_key, tag_value, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?)
			ON DUPLICATE KEY UPDATE tag_value = VALUES(tag_value), updated_at = VALUES(updated_at)
		`, m.ResourceID, m.TagKey, m.TagValue, now, now); err != nil {
			return fmt.Errorf("failed to upsert tag mapping: %w", err)
		}
		m.UpdatedAt = now
	}
	return tx.Commit()
}

// List retrieves mappings with optional resource and key filters
func (r *MySQLRepository) List(ctx context.Context, opts ListOptions) ([]TagMapping, int, error) {
	conditions := []string{"1=1"}
	var args []interface{}

	if opts.ResourceID != "" {
		conditions = append(conditions, "resource_id = ?")
		args = append(args, opts.ResourceID)
	}
	if opts.TagKey != "" {
		conditions = append(conditions, "tag_key = ?")
		args = append(args, opts.TagKey)
	}
	where := strings.Join(conditions, " AND ")

	var total int
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM resource_tag_mappings WHERE %s`, where)
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count tag mappings: %w", err)
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
		SELECT id, resource_id, tag_key, tag_value, created_at, updated_at
		FROM resource_tag_mappings
		WHERE %s
		ORDER BY resource_id, tag_key
		LIMIT ? OFFSET ?
	`, where)
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list tag mappings: %w", err)
	}
	defer rows.Close()

	var out []TagMapping
	for rows.Next() {
		var m TagMapping
		if err := rows.Scan(&m.ID, &m.ResourceID, &m.TagKey, &m.TagValue, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("failed to scan tag mapping: %w", err)
		}
		out = append(out, m)
	}
	return out, total, rows.Err()
}

// Delete removes one mapping
func (r *MySQLRepository) Delete(ctx context.Context, resourceID, tagKey string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM resource_tag_mappings WHERE resource_id = ? AND tag_key = ?`,
		resourceID, tagKey)
	if err != nil {
		return fmt.Errorf("failed to delete tag mapping: %w", err)
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
