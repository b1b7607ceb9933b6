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

// Package tagging maintains resource tag mappings in the per-tenant summary
// databases. One row per (resource, tag key).
package tagging

import "time"

// TagMapping assigns one tag key/value to a resource.
type TagMapping struct {
	ID         int       `json:"id"`
	ResourceID string    `json:"resource_id"`
	TagKey     string    `json:"tag_key"`
	TagValue   string    `json:"tag_value"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// UpsertInput creates or updates one mapping.
type UpsertInput struct {
	ResourceID string `json:"resource_id"`
	TagKey     string `json:"tag_key"`
	TagValue   string `json:"tag_value"`
}

// ListOptions filters mapping reads.
type ListOptions struct {
	ResourceID string
	TagKey     string
	Limit      int
	Offset     int
}
