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
	"database/sql"
	"fmt"
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

// Get returns the user's settings; absence yields defaults
func (r *PostgresRepository) Get(ctx context.Context, userID int) (*Settings, error) {
	var s Settings
	var centralName sql.NullString
	err := r.db.QueryRowContext(ctx, `
		SELECT user_id, use_central_db, central_db_name, updated_at
		FROM global_settings WHERE user_id = $1
	`, userID).Scan(&s.UserID, &s.UseCentralDB, &centralName, &s.UpdatedAt)
	if err == sql.ErrNoRows {
		return &Settings{UserID: userID}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get global settings: %w", err)
	}
	s.CentralDBName = centralName.String
	return &s, nil
}

// Upsert replaces the user's settings
func (r *PostgresRepository) Upsert(ctx context.Context, s *Settings) error {
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO global_settings (user_id, use_central_db, central_db_name, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id) DO UPDATE SET
			use_central_db = EXCLUDED.use_central_db,
			central_db_name = EXCLUDED.central_db_name,
			updated_at = EXCLUDED.updated_at
	`, s.UserID, s.UseCentralDB, s.CentralDBName, now)
	if err != nil {
		return fmt.Errorf("failed to upsert global settings: %w", err)
	}
	s.UpdatedAt = now
	return nil
}
