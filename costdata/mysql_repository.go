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

package costdata

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"costpilot/platform/shared/filter"
)

// MySQLRepository reads one tenant's summary database. A repository is
// bound to a single *sql.DB handed out by the tenant store.
type MySQLRepository struct {
	db *sql.DB
}

// NewMySQLRepository creates a repository over one tenant database
func NewMySQLRepository(db *sql.DB) *MySQLRepository {
	return &MySQLRepository{db: db}
}

const recordColumns = `co.id, co.resource_id, co.payer_account_id, co.payer_account_name,
	co.usage_account_id, co.usage_account_name, co.product_code, co.usage_type, co.region,
	co.year, co.month, co.potential_saving_percentage, co.potential_savings, co.achieved_savings,
	co.unblended_cost, co.amortized_cost, co.current_config, co.recommended_config, co.source,
	ro.owner_name, ro.owner_email, ro.status, co.created_at, co.updated_at`

const recordFrom = `FROM cost_optimize co LEFT JOIN resource_owners ro ON ro.resource_id = co.resource_id`

// List retrieves records matching the filter, joined with owners
func (r *MySQLRepository) List(ctx context.Context, f *filter.Filter, ids []int, limit, offset int) ([]Record, int, error) {
	frag := f.Compile()

	where := frag.Where
	args := frag.Args
	if len(ids) > 0 {
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
		idCond := "co.id IN (" + placeholders + ")"
		if where != "" {
			where += " AND " + idCond
		} else {
			where = idCond
		}
		for _, id := range ids {
			args = append(args, id)
		}
	}
	whereSQL := ""
	if where != "" {
		whereSQL = "WHERE " + where
	}

	var total int
	countQuery := fmt.Sprintf(`SELECT COUNT(*) %s %s`, recordFrom, whereSQL)
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, mapTableError(err, "failed to count cost records")
	}

	orderBy := frag.OrderBy
	if orderBy == "" {
		orderBy = "co.unblended_cost DESC"
	}
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`SELECT %s %s %s ORDER BY %s LIMIT ? OFFSET ?`,
		recordColumns, recordFrom, whereSQL, orderBy)
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, mapTableError(err, "failed to list cost records")
	}
	defer rows.Close()

	out, err := scanRecords(rows)
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// Summary totals unblended cost for the filtered set. Potential savings
// skip suppressed and completed records; achieved counts completed only.
func (r *MySQLRepository) Summary(ctx context.Context, f *filter.Filter) (*Summary, error) {
	frag := f.Compile()
	whereSQL := ""
	if frag.Where != "" {
		whereSQL = "AND " + frag.Where
	}

	query := fmt.Sprintf(`
		SELECT
			COALESCE(SUM(CASE WHEN ro.status IS NULL OR ro.status NOT IN ('SUPRESSED', 'COMPLETED')
				THEN co.unblended_cost ELSE 0 END), 0) AS potential,
			COALESCE(SUM(CASE WHEN ro.status = 'COMPLETED'
				THEN co.unblended_cost ELSE 0 END), 0) AS achieved
		%s
		WHERE 1=1 %s
	`, recordFrom, whereSQL)

	var s Summary
	if err := r.db.QueryRowContext(ctx, query, frag.Args...).Scan(&s.PotentialSavings, &s.AchievedSavings); err != nil {
		return nil, mapTableError(err, "failed to summarize cost records")
	}
	return &s, nil
}

// Facets returns the distinct values of every facetable field
func (r *MySQLRepository) Facets(ctx context.Context, schema *filter.Schema) (map[string][]string, error) {
	out := make(map[string][]string)
	for _, name := range schema.FacetFields() {
		fld, _ := schema.Field(name)
		query := fmt.Sprintf(`
			SELECT DISTINCT %s %s
			WHERE %s IS NOT NULL AND %s <> ''
			ORDER BY %s
		`, fld.Column, recordFrom, fld.Column, fld.Column, fld.Column)

		rows, err := r.db.QueryContext(ctx, query)
		if err != nil {
			return nil, mapTableError(err, "failed to load facet "+name)
		}

		var values []string
		for rows.Next() {
			var v string
			if err := rows.Scan(&v); err != nil {
				rows.Close()
				return nil, fmt.Errorf("failed to scan facet %s: %w", name, err)
			}
			values = append(values, v)
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return nil, err
		}
		rows.Close()
		out[name] = values
	}
	return out, nil
}

// ListOwned retrieves the filtered records that have an assigned owner email
func (r *MySQLRepository) ListOwned(ctx context.Context, f *filter.Filter) ([]Record, error) {
	frag := f.Compile()
	whereSQL := ""
	if frag.Where != "" {
		whereSQL = "AND " + frag.Where
	}

	query := fmt.Sprintf(`
		SELECT %s %s
		WHERE ro.owner_email IS NOT NULL AND ro.owner_email <> '' %s
	`, recordColumns, recordFrom, whereSQL)

	rows, err := r.db.QueryContext(ctx, query, frag.Args...)
	if err != nil {
		return nil, mapTableError(err, "failed to list owned cost records")
	}
	defer rows.Close()

	return scanRecords(rows)
}

// Helper functions

func scanRecords(rows *sql.Rows) ([]Record, error) {
	var out []Record
	for rows.Next() {
		var rec Record
		var currentConfig, recommendedConfig []byte
		var ownerName, ownerEmail, ownerStatus sql.NullString

		err := rows.Scan(
			&rec.ID, &rec.ResourceID, &rec.PayerAccountID, &rec.PayerAccountName,
			&rec.UsageAccountID, &rec.UsageAccountName, &rec.ProductCode, &rec.UsageType, &rec.Region,
			&rec.Year, &rec.Month, &rec.PotentialSavingPercentage, &rec.PotentialSavings, &rec.AchievedSavings,
			&rec.UnblendedCost, &rec.AmortizedCost, &currentConfig, &recommendedConfig, &rec.Source,
			&ownerName, &ownerEmail, &ownerStatus, &rec.CreatedAt, &rec.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan cost record: %w", err)
		}

		rec.CurrentConfig = currentConfig
		rec.RecommendedConfig = recommendedConfig
		rec.OwnerName = ownerName.String
		rec.OwnerEmail = ownerEmail.String
		rec.OwnerStatus = ownerStatus.String
		out = append(out, rec)
	}
	return out, rows.Err()
}

// mapTableError turns a missing-table driver error into ErrNoData so the
// API can answer with a structured payload instead of a 500.
func mapTableError(err error, msg string) error {
	if strings.Contains(err.Error(), "doesn't exist") || strings.Contains(err.Error(), "Error 1146") {
		return ErrNoData
	}
	return fmt.Errorf("%s: %w", msg, err)
}
