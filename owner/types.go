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

// Package owner tracks who is responsible for each resource with an open
// cost-optimization finding, and where that work stands.
package owner

import (
	"time"

	"costpilot/platform/shared/filter"
)

// Owner statuses. SUPRESSED keeps the original system's spelling; the
// stored values are part of the tenant data contract.
const (
	StatusTodo      = "TODO"
	StatusWIP       = "WIP"
	StatusCompleted = "COMPLETED"
	StatusSupressed = "SUPRESSED"
)

// ValidStatus reports whether s is a known owner status.
func ValidStatus(s string) bool {
	switch s {
	case StatusTodo, StatusWIP, StatusCompleted, StatusSupressed:
		return true
	}
	return false
}

// Owner assigns one resource to a person. One row per resource.
type Owner struct {
	ID         int       `json:"id"`
	ResourceID string    `json:"resource_id"`
	OwnerName  string    `json:"owner_name"`
	OwnerEmail string    `json:"owner_email"`
	Status     string    `json:"status"`
	Comment    string    `json:"comment,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// AssignInput creates or replaces one resource's owner.
type AssignInput struct {
	ResourceID string `json:"resource_id"`
	OwnerName  string `json:"owner_name"`
	OwnerEmail string `json:"owner_email"`
	Status     string `json:"status"`
	Comment    string `json:"comment"`
}

// UpdateInput partially updates one resource's owner row.
type UpdateInput struct {
	OwnerName  *string `json:"owner_name,omitempty"`
	OwnerEmail *string `json:"owner_email,omitempty"`
	Status     *string `json:"status,omitempty"`
	Comment    *string `json:"comment,omitempty"`
}

// AssignAllInput assigns one owner to every cost record matching the
// filters, replacing any existing assignments.
type AssignAllInput struct {
	Filters    []filter.Clause `json:"filters,omitempty"`
	OwnerName  string          `json:"owner_name"`
	OwnerEmail string          `json:"owner_email"`
	Status     string          `json:"status"`
}
