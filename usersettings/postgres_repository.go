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

package usersettings

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// PostgresRepository implements Repository using PostgreSQL
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const settingsColumns = `id, user_id, name, access_key, secret_key, session_token, region,
	athena_database, athena_table, output_location, active, created_at, updated_at`

// Create inserts a profile. When the new profile is active, siblings are
// deactivated in the same transaction.
func (r *PostgresRepository) Create(ctx context.Context, s *Settings) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if s.Active {
		if _, err := tx.ExecContext(ctx,
			`UPDATE user_settings SET active = false, updated_at = $2 WHERE user_id = $1 AND active`,
			s.UserID, time.Now().UTC(),
		); err != nil {
			return fmt.Errorf("failed to deactivate sibling settings: %w", err)
		}
	}

	now := time.Now().UTC()
	err = tx.QueryRowContext(ctx, `
		INSERT INTO user_settings (
			user_id, name, access_key, secret_key, session_token, region,
			athena_database, athena_table, output_location, active, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id
	`,
		s.UserID, s.Name, s.AccessKey, s.SecretKey, nullString(s.SessionToken), s.Region,
		s.Database, s.Table, s.OutputLocation, s.Active, now, now,
	).Scan(&s.ID)
	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			return ErrExists
		}
		return fmt.Errorf("failed to create user settings: %w", err)
	}

	s.CreatedAt = now
	s.UpdatedAt = now
	return tx.Commit()
}

// Update persists a profile, enforcing active-exclusivity per user
func (r *PostgresRepository) Update(ctx context.Context, s *Settings) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if s.Active {
		if _, err := tx.ExecContext(ctx,
			`UPDATE user_settings SET active = false, updated_at = $3 WHERE user_id = $1 AND id <> $2 AND active`,
			s.UserID, s.ID, time.Now().UTC(),
		); err != nil {
			return fmt.Errorf("failed to deactivate sibling settings: %w", err)
		}
	}

	result, err := tx.ExecContext(ctx, `
		UPDATE user_settings SET
			name = $3, access_key = $4, secret_key = $5, session_token = $6, region = $7,
			athena_database = $8, athena_table = $9, output_location = $10, active = $11,
			updated_at = $12
		WHERE id = $1 AND user_id = $2
	`,
		s.ID, s.UserID, s.Name, s.AccessKey, s.SecretKey, nullString(s.SessionToken),
		s.Region, s.Database, s.Table, s.OutputLocation, s.Active, time.Now().UTC(),
	)
	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			return ErrExists
		}
		return fmt.Errorf("failed to update user settings: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}

	return tx.Commit()
}

// Get retrieves a profile scoped to its owner
func (r *PostgresRepository) Get(ctx context.Context, id, userID int) (*Settings, error) {
	query := fmt.Sprintf(`SELECT %s FROM user_settings WHERE id = $1 AND user_id = $2`, settingsColumns)

	s, err := scanSettings(r.db.QueryRowContext(ctx, query, id, userID))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user settings: %w", err)
	}
	return s, nil
}

// GetActive retrieves the user's single active profile
func (r *PostgresRepository) GetActive(ctx context.Context, userID int) (*Settings, error) {
	query := fmt.Sprintf(`SELECT %s FROM user_settings WHERE user_id = $1 AND active LIMIT 1`, settingsColumns)

	s, err := scanSettings(r.db.QueryRowContext(ctx, query, userID))
	if err == sql.ErrNoRows {
		return nil, ErrNoActiveSettings
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get active user settings: %w", err)
	}
	return s, nil
}

// ListByUser lists the user's profiles with pagination
func (r *PostgresRepository) ListByUser(ctx context.Context, userID, limit, offset int) ([]Settings, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM user_settings WHERE user_id = $1`, userID,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count user settings: %w", err)
	}

	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`
		SELECT %s FROM user_settings
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, settingsColumns)

	rows, err := r.db.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list user settings: %w", err)
	}
	defer rows.Close()

	var out []Settings
	for rows.Next() {
		s, err := scanSettings(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan user settings: %w", err)
		}
		out = append(out, *s)
	}
	return out, total, rows.Err()
}

// Delete removes a profile scoped to its owner
func (r *PostgresRepository) Delete(ctx context.Context, id, userID int) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM user_settings WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete user settings: %w", err)
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

func scanSettings(row rowScanner) (*Settings, error) {
	var s Settings
	var sessionToken sql.NullString

	err := row.Scan(
		&s.ID, &s.UserID, &s.Name, &s.AccessKey, &s.SecretKey, &sessionToken, &s.Region,
		&s.Database, &s.Table, &s.OutputLocation, &s.Active, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	s.SessionToken = sessionToken.String
	return &s, nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
