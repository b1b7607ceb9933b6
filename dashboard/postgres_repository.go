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

package dashboard

import (
	"context"
	"database/sql"
	"encoding/json"
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

// Create inserts a dashboard
func (r *PostgresRepository) Create(ctx context.Context, d *Dashboard) error {
	now := time.Now().UTC()
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO dashboards (name, description, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, d.Name, d.Description, d.CreatedBy, now, now).Scan(&d.ID)
	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			return ErrExists
		}
		return fmt.Errorf("failed to create dashboard: %w", err)
	}
	d.CreatedAt = now
	d.UpdatedAt = now
	return nil
}

// Get retrieves a dashboard with users and widgets expanded
func (r *PostgresRepository) Get(ctx context.Context, id int) (*Dashboard, error) {
	d, err := r.scanOne(ctx, `WHERE d.id = $1`, id)
	if err != nil {
		return nil, err
	}
	return d, r.expand(ctx, d)
}

// GetByName retrieves a dashboard by its unique name
func (r *PostgresRepository) GetByName(ctx context.Context, name string) (*Dashboard, error) {
	d, err := r.scanOne(ctx, `WHERE d.name = $1`, name)
	if err != nil {
		return nil, err
	}
	return d, r.expand(ctx, d)
}

// List retrieves dashboards with pagination, users and widgets expanded
func (r *PostgresRepository) List(ctx context.Context, limit, offset int) ([]Dashboard, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM dashboards`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count dashboards: %w", err)
	}

	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, description, created_by, created_at, updated_at
		FROM dashboards
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list dashboards: %w", err)
	}
	defer rows.Close()

	out, err := scanDashboards(rows)
	if err != nil {
		return nil, 0, err
	}
	for i := range out {
		if err := r.expand(ctx, &out[i]); err != nil {
			return nil, 0, err
		}
	}
	return out, total, nil
}

// ListByUser retrieves the dashboards assigned to a user, widgets expanded
func (r *PostgresRepository) ListByUser(ctx context.Context, userID int) ([]Dashboard, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT d.id, d.name, d.description, d.created_by, d.created_at, d.updated_at
		FROM dashboards d
		JOIN dashboard_users du ON du.dashboard_id = d.id
		WHERE du.user_id = $1
		ORDER BY d.created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list user dashboards: %w", err)
	}
	defer rows.Close()

	out, err := scanDashboards(rows)
	if err != nil {
		return nil, err
	}
	for i := range out {
		if err := r.expand(ctx, &out[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Update persists name and description changes
func (r *PostgresRepository) Update(ctx context.Context, d *Dashboard) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE dashboards SET name = $2, description = $3, updated_at = $4
		WHERE id = $1
	`, d.ID, d.Name, d.Description, time.Now().UTC())
	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			return ErrExists
		}
		return fmt.Errorf("failed to update dashboard: %w", err)
	}
	return checkAffected(result)
}

// Delete removes a dashboard; assignments cascade in the schema
func (r *PostgresRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM dashboards WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete dashboard: %w", err)
	}
	return checkAffected(result)
}

// AssignUser links a user to a dashboard; re-assignment is a no-op
func (r *PostgresRepository) AssignUser(ctx context.Context, dashboardID, userID int) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO dashboard_users (dashboard_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT (dashboard_id, user_id) DO NOTHING
	`, dashboardID, userID)
	if err != nil {
		return fmt.Errorf("failed to assign dashboard user: %w", err)
	}
	return nil
}

// UnassignUser removes a user from a dashboard
func (r *PostgresRepository) UnassignUser(ctx context.Context, dashboardID, userID int) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM dashboard_users WHERE dashboard_id = $1 AND user_id = $2`,
		dashboardID, userID)
	if err != nil {
		return fmt.Errorf("failed to unassign dashboard user: %w", err)
	}
	return checkAffected(result)
}

// AddWidget inserts a widget binding
func (r *PostgresRepository) AddWidget(ctx context.Context, w *Widget) error {
	config, err := json.Marshal(w.Config)
	if err != nil {
		return fmt.Errorf("failed to encode widget config: %w", err)
	}

	now := time.Now().UTC()
	err = r.db.QueryRowContext(ctx, `
		INSERT INTO dashboard_widgets (widget_id, dashboard_id, query_id, dashboard_config, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`, w.WidgetID, w.DashboardID, w.QueryID, config, now, now).Scan(&w.ID)
	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			return ErrExists
		}
		return fmt.Errorf("failed to add dashboard widget: %w", err)
	}
	w.CreatedAt = now
	w.UpdatedAt = now
	return nil
}

// UpdateWidget persists a widget's query binding and config
func (r *PostgresRepository) UpdateWidget(ctx context.Context, w *Widget) error {
	config, err := json.Marshal(w.Config)
	if err != nil {
		return fmt.Errorf("failed to encode widget config: %w", err)
	}

	result, err := r.db.ExecContext(ctx, `
		UPDATE dashboard_widgets SET query_id = $3, dashboard_config = $4, updated_at = $5
		WHERE dashboard_id = $1 AND widget_id = $2
	`, w.DashboardID, w.WidgetID, w.QueryID, config, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to update dashboard widget: %w", err)
	}
	return checkAffected(result)
}

// RemoveWidget deletes a widget binding
func (r *PostgresRepository) RemoveWidget(ctx context.Context, dashboardID int, widgetID string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM dashboard_widgets WHERE dashboard_id = $1 AND widget_id = $2`,
		dashboardID, widgetID)
	if err != nil {
		return fmt.Errorf("failed to remove dashboard widget: %w", err)
	}
	return checkAffected(result)
}

// Helper functions

func (r *PostgresRepository) scanOne(ctx context.Context, where string, arg interface{}) (*Dashboard, error) {
	query := fmt.Sprintf(`
		SELECT d.id, d.name, d.description, d.created_by, d.created_at, d.updated_at
		FROM dashboards d %s
	`, where)

	var d Dashboard
	var description sql.NullString
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&d.ID, &d.Name, &description, &d.CreatedBy, &d.CreatedAt, &d.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get dashboard: %w", err)
	}
	d.Description = description.String
	return &d, nil
}

// expand loads the user and widget assignments for one dashboard.
func (r *PostgresRepository) expand(ctx context.Context, d *Dashboard) error {
	userRows, err := r.db.QueryContext(ctx, `
		SELECT u.id, u.email
		FROM users u
		JOIN dashboard_users du ON du.user_id = u.id
		WHERE du.dashboard_id = $1
		ORDER BY u.id
	`, d.ID)
	if err != nil {
		return fmt.Errorf("failed to load dashboard users: %w", err)
	}
	defer userRows.Close()

	for userRows.Next() {
		var u UserRef
		if err := userRows.Scan(&u.ID, &u.Email); err != nil {
			return fmt.Errorf("failed to scan dashboard user: %w", err)
		}
		d.Users = append(d.Users, u)
	}
	if err := userRows.Err(); err != nil {
		return err
	}

	widgetRows, err := r.db.QueryContext(ctx, `
		SELECT id, widget_id, dashboard_id, query_id, dashboard_config, created_at, updated_at
		FROM dashboard_widgets
		WHERE dashboard_id = $1
		ORDER BY id
	`, d.ID)
	if err != nil {
		return fmt.Errorf("failed to load dashboard widgets: %w", err)
	}
	defer widgetRows.Close()

	for widgetRows.Next() {
		var w Widget
		var config []byte
		if err := widgetRows.Scan(&w.ID, &w.WidgetID, &w.DashboardID, &w.QueryID, &config, &w.CreatedAt, &w.UpdatedAt); err != nil {
			return fmt.Errorf("failed to scan dashboard widget: %w", err)
		}
		if len(config) > 0 {
			if err := json.Unmarshal(config, &w.Config); err != nil {
				return fmt.Errorf("failed to decode widget config: %w", err)
			}
		}
		d.Widgets = append(d.Widgets, w)
	}
	return widgetRows.Err()
}

func scanDashboards(rows *sql.Rows) ([]Dashboard, error) {
	var out []Dashboard
	for rows.Next() {
		var d Dashboard
		var description sql.NullString
		if err := rows.Scan(&d.ID, &d.Name, &description, &d.CreatedBy, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan dashboard: %w", err)
		}
		d.Description = description.String
		out = append(out, d)
	}
	return out, rows.Err()
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
