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

// Package costdata serves cost-optimization records out of the per-tenant
// summary databases, with schema-checked filtering, facets, savings
// summaries, and owner notification.
package costdata

import (
	"encoding/json"
	"time"

	"costpilot/platform/shared/filter"
)

// Record is one cost-optimization finding, joined with its resource owner
// when assigned.
type Record struct {
	ID                        int             `json:"id"`
	ResourceID                string          `json:"resource_id"`
	PayerAccountID            string          `json:"payer_account_id"`
	PayerAccountName          string          `json:"payer_account_name"`
	UsageAccountID            string          `json:"usage_account_id"`
	UsageAccountName          string          `json:"usage_account_name"`
	ProductCode               string          `json:"product_code"`
	UsageType                 string          `json:"usage_type"`
	Region                    string          `json:"region"`
	Year                      string          `json:"year"`
	Month                     string          `json:"month"`
	PotentialSavingPercentage float64         `json:"potential_saving_percentage"`
	PotentialSavings          float64         `json:"potential_savings"`
	AchievedSavings           float64         `json:"achieved_savings"`
	UnblendedCost             float64         `json:"unblended_cost"`
	AmortizedCost             float64         `json:"amortized_cost"`
	CurrentConfig             json.RawMessage `json:"current_config,omitempty"`
	RecommendedConfig         json.RawMessage `json:"recommended_config,omitempty"`
	Source                    string          `json:"source"`
	OwnerName                 string          `json:"owner_name,omitempty"`
	OwnerEmail                string          `json:"owner_email,omitempty"`
	OwnerStatus               string          `json:"owner_status,omitempty"`
	CreatedAt                 time.Time       `json:"created_at"`
	UpdatedAt                 time.Time       `json:"updated_at"`
}

// Summary totals unblended cost by optimization outcome. Potential excludes
// records suppressed or already completed; achieved counts completed only.
type Summary struct {
	PotentialSavings float64 `json:"potential_savings"`
	AchievedSavings  float64 `json:"achieved_savings"`
}

// NoDataPayload is the structured body returned when a tenant's summary
// table has not been populated yet.
type NoDataPayload struct {
	ErrorCode int    `json:"error_code"`
	Message   string `json:"message"`
}

// ListRequest is the wire form of a list query.
type ListRequest struct {
	Filters []filter.Clause `json:"filters,omitempty"`
	IDs     []int           `json:"ids,omitempty"`
	Sort    string          `json:"sort,omitempty"`
	Limit   int             `json:"-"`
	Offset  int             `json:"-"`
}

// NotifyRequest selects the records whose owners get notified. Override
// routes every email to one address instead of the record owners.
type NotifyRequest struct {
	Filters  []filter.Clause `json:"filters,omitempty"`
	Override string          `json:"override_email,omitempty"`
}

// NotifySummary reports what was sent.
type NotifySummary struct {
	Owners  int `json:"owners"`
	Records int `json:"records"`
	Sent    int `json:"sent"`
}

// Schema returns the filterable surface of the cost record table. The owner
// columns come from the resource_owners join.
func Schema() *filter.Schema {
	return filter.NewSchema(map[string]filter.Field{
		"resource_id":                 {Column: "co.resource_id", Kind: filter.KindString, Sortable: true},
		"payer_account_id":            {Column: "co.payer_account_id", Kind: filter.KindString, Facetable: true},
		"payer_account_name":          {Column: "co.payer_account_name", Kind: filter.KindString, Facetable: true},
		"usage_account_id":            {Column: "co.usage_account_id", Kind: filter.KindString, Facetable: true},
		"usage_account_name":          {Column: "co.usage_account_name", Kind: filter.KindString, Facetable: true},
		"product_code":                {Column: "co.product_code", Kind: filter.KindString, Sortable: true, Facetable: true},
		"usage_type":                  {Column: "co.usage_type", Kind: filter.KindString, Facetable: true},
		"region":                      {Column: "co.region", Kind: filter.KindString, Facetable: true},
		"year":                        {Column: "co.year", Kind: filter.KindString, Sortable: true, Facetable: true},
		"month":                       {Column: "co.month", Kind: filter.KindString, Sortable: true, Facetable: true},
		"potential_saving_percentage": {Column: "co.potential_saving_percentage", Kind: filter.KindFloat, Sortable: true},
		"potential_savings":           {Column: "co.potential_savings", Kind: filter.KindFloat, Sortable: true},
		"achieved_savings":            {Column: "co.achieved_savings", Kind: filter.KindFloat, Sortable: true},
		"unblended_cost":              {Column: "co.unblended_cost", Kind: filter.KindFloat, Sortable: true},
		"amortized_cost":              {Column: "co.amortized_cost", Kind: filter.KindFloat, Sortable: true},
		"source":                      {Column: "co.source", Kind: filter.KindString, Facetable: true},
		"owner_name":                  {Column: "ro.owner_name", Kind: filter.KindString},
		"owner_email":                 {Column: "ro.owner_email", Kind: filter.KindString},
		"status":                      {Column: "ro.status", Kind: filter.KindString, Facetable: true},
	})
}
