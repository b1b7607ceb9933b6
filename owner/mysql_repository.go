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
	"fmt"
	"time"

	"costpilot/platform/shared/filter"
)

// MySQLRepository stores owner rows in one tenant's summary database.
type MySQLRepository struct {
	db *sql.DB
}

// NewMySQLRepository creates a repository over one tenant database
func NewMySQLRepository(db *sql.DB) *MySQLRepository {
	return &MySQLRepository{db: db}
}

const ownerColumns = `id, resource_id, owner_name, owner_email, status, comment, created_at, updated_at`

// List retrieves owner rows with pagination
func (r *MySQLRepository) List(ctx context.Context, limit, offset int) ([]Owner, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM resource_owners`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count resource owners: %w", err)
	}

	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`SELECT %s FROM resource_owners ORDER BY updated_at DESC LIMIT ? OFFSET ?`, ownerColumns)
	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list resource owners: %w", err)
	}
	defer rows.Close()

	var out []Owner
	for rows.Next() {
		o, err := scanOwner(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *o)
	}
	return out, total, rows.Err()
}

// Get retrieves one resource's owner row
func (r *MySQLRepository) Get(ctx context.Context, resourceID string) (*Owner, error) {
	query := fmt.Sprintf(`SELECT %s FROM resource_owners WHERE resource_id = ?`, ownerColumns)

	o, err := scanOwner(r.db.QueryRowContext(ctx, query, resourceID))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get resource owner: %w", err)
	}
	return o, nil
}

// Replace removes any existing owner row for the resource and inserts a
// fresh one.
func (r *MySQLRepository) Replace(ctx context.Context, o *Owner) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := replaceInTx(ctx, tx, o); err != nil {
		return err
	}
	return tx.Commit()
}

// ReplaceAll replaces the owner rows for a set of resources in one
// transaction.
func (r *MySQLRepository) ReplaceAll(ctx context.Context, resourceIDs []string, template Owner) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, resourceID := range resourceIDs {
		o := template
		o.ResourceID = resourceID
		if err := replaceInTx(ctx, tx, &o); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return len(resourceIDs), nil
}

// Update persists a partial owner change
func (r *MySQLRepository) Update(ctx context.Context, o *Owner) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE resource_owners
		SET owner_name = ?, owner_email = ?, status = ?, comment = ?, updated_at = ?
		WHERE resource_id = ?
	`, o.OwnerName, o.OwnerEmail, o.Status, o.Comment, time.Now().UTC(), o.ResourceID)
	if err != nil {
		return fmt.Errorf("failed to update resource owner: %w", err)
	}
	return checkAffected(result)
}

// Delete removes one resource's owner row
func (r *MySQLRepository) Delete(ctx context.Context, resourceID string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM resource_owners WHERE resource_id = ?`, resourceID)
	if err != nil {
		return fmt.Errorf("failed to delete resource owner: %w", err)
	}
	return checkAffected(result)
}

// MatchResources returns the resource ids of cost records matching the
// filter, outer-joined with owners so owner fields are filterable too.
func (r *MySQLRepository) MatchResources(ctx context.Context, f *filter.Filter) ([]string, error) {
	frag := f.Compile()
	whereSQL := ""
	if frag.Where != "" {
		whereSQL = "WHERE " + frag.Where
	}

	query := fmt.Sprintf(`
		SELECT DISTINCT co.resource_id
		FROM cost_optimize co
		LEFT JOIN resource_owners ro ON ro.resource_id = co.resource_id
		%s
	`, whereSQL)

	rows, err := r.db.QueryContext(ctx, query, frag.Args...)
	if err != nil {
		return nil, fmt.Errorf("failed to match resources: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan resource id: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// Helper functions

func replaceInTx(ctx context.Context, tx *sql.Tx, o *Owner) error {
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM resource_owners WHERE resource_id = ?`, o.ResourceID); err != nil {
		return fmt.Errorf("failed to clear resource owner: %w", err)
	}

	now := time.Now().UTC()
	result, err := tx.ExecContext(ctx, `
		INSERT INTO resource_owners (resource_id, owner_name, owner_email, status, comment, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, o.ResourceID, o.OwnerName, o.OwnerEmail, o.Status, o.Comment, now, now)
	if err != nil {
		return fmt.Errorf("failed to insert resource owner: %w", err)
	}

	id, err := result.LastInsertId()
	if err == nil {
		o.ID = int(id)
	}
	o.CreatedAt = now
	o.UpdatedAt = now
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanOwner(row rowScanner) (*Owner, error) {
	var o Owner
	var comment sql.NullString
	err := row.Scan(&o.ID, &o.ResourceID, &o.OwnerName, &o.OwnerEmail, &o.Status, &comment, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	o.Comment = comment.String
	return &o, nil
}

func checkAffected(result sql.Result) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}
