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

package report

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

const executionColumns = `id, execution_id, batch_id, query_id, user_id, user_settings_id,
	widget_assignment_id, executed_query, status, error_message, created_at, updated_at`

// CreateBatch inserts the rows in slice order inside one transaction
func (r *PostgresRepository) CreateBatch(ctx context.Context, execs []*Execution) error {
	if len(execs) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	for _, e := range execs {
		err := tx.QueryRowContext(ctx, `
			INSERT INTO query_executions (
				execution_id, batch_id, query_id, user_id, user_settings_id,
				widget_assignment_id, executed_query, status, error_message, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			RETURNING id
		`,
			e.ExecutionID, e.BatchID, e.QueryID, e.UserID, e.UserSettingsID,
			e.WidgetAssignmentID, e.ExecutedQuery, e.Status, nullString(e.ErrorMessage), now, now,
		).Scan(&e.ID)
		if err != nil {
			if strings.Contains(err.Error(), "duplicate key") {
				return fmt.Errorf("duplicate execution handle %s: %w", e.ExecutionID, err)
			}
			return fmt.Errorf("failed to insert execution: %w", err)
		}
		e.CreatedAt = now
		e.UpdatedAt = now
	}

	return tx.Commit()
}

// GetByExecutionID retrieves a row by its engine handle
func (r *PostgresRepository) GetByExecutionID(ctx context.Context, executionID string, userID int) (*Execution, error) {
	query := fmt.Sprintf(`SELECT %s FROM query_executions WHERE execution_id = $1 AND user_id = $2`, executionColumns)

	e, err := scanExecution(r.db.QueryRowContext(ctx, query, executionID, userID))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get execution: %w", err)
	}
	return e, nil
}

// ListByBatch retrieves a batch's rows in insertion order
func (r *PostgresRepository) ListByBatch(ctx context.Context, batchID string, userID int) ([]Execution, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM query_executions
		WHERE batch_id = $1 AND user_id = $2
		ORDER BY id ASC
	`, executionColumns)

	rows, err := r.db.QueryContext(ctx, query, batchID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list batch executions: %w", err)
	}
	defer rows.Close()

	out, err := scanExecutions(rows)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, ErrNotFound
	}
	return out, nil
}

// List retrieves the user's rows, newest first
func (r *PostgresRepository) List(ctx context.Context, opts ListOptions) ([]Execution, int, error) {
	conditions := []string{"user_id = $1"}
	args := []interface{}{opts.UserID}
	argIndex := 2

	if opts.QueryID > 0 {
		conditions = append(conditions, fmt.Sprintf("query_id = $%d", argIndex))
		args = append(args, opts.QueryID)
		argIndex++
	}
	if opts.WidgetAssignmentID != "" {
		conditions = append(conditions, fmt.Sprintf("widget_assignment_id = $%d", argIndex))
		args = append(args, opts.WidgetAssignmentID)
		argIndex++
	}

	where := strings.Join(conditions, " AND ")

	var total int
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM query_executions WHERE %s`, where)
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count executions: %w", err)
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
		SELECT %s FROM query_executions
		WHERE %s
		ORDER BY created_at DESC, id DESC
		LIMIT $%d OFFSET $%d
	`, executionColumns, where, argIndex, argIndex+1)
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list executions: %w", err)
	}
	defer rows.Close()

	out, err := scanExecutions(rows)
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// UpdateStatus persists a status transition
func (r *PostgresRepository) UpdateStatus(ctx context.Context, id int, status, errorMessage string) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE query_executions SET status = $2, error_message = $3, updated_at = $4
		WHERE id = $1
	`, id, status, nullString(errorMessage), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to update execution status: %w", err)
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

func scanExecution(row rowScanner) (*Execution, error) {
	var e Execution
	var widgetAssignmentID sql.NullString
	var errorMessage sql.NullString

	err := row.Scan(
		&e.ID, &e.ExecutionID, &e.BatchID, &e.QueryID, &e.UserID, &e.UserSettingsID,
		&widgetAssignmentID, &e.ExecutedQuery, &e.Status, &errorMessage, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if widgetAssignmentID.Valid {
		e.WidgetAssignmentID = &widgetAssignmentID.String
	}
	e.ErrorMessage = errorMessage.String
	return &e, nil
}

func scanExecutions(rows *sql.Rows) ([]Execution, error) {
	var out []Execution
	for rows.Next() {
		e, err := scanExecution(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan execution: %w", err)
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
