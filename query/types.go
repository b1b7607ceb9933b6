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

// Package query manages the SQL report template catalog. Templates are
// classified by a four-part taxonomy, deduplicated by content hash, and
// carry the extracted projection columns as metadata.
package query

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Metadata holds derived information about a template.
type Metadata struct {
	Columns []string `json:"columns"`
}

// Template is a stored, parameterized report query.
type Template struct {
	ID           int       `json:"id"`
	Query        string    `json:"query"`
	QueryHash    string    `json:"query_hash"`
	Category     string    `json:"category"`
	CategoryType string    `json:"category_type"`
	QueryType    string    `json:"query_type"`
	QuerySubtype string    `json:"query_subtype"`
	Metadata     Metadata  `json:"query_metadata"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// CreateInput is the payload for creating a template.
type CreateInput struct {
	Query        string `json:"query"`
	Category     string `json:"category"`
	CategoryType string `json:"category_type"`
	QueryType    string `json:"query_type"`
	QuerySubtype string `json:"query_subtype"`
}

// UpdateInput is the payload for a partial template update.
type UpdateInput struct {
	Query        *string `json:"query,omitempty"`
	Category     *string `json:"category,omitempty"`
	CategoryType *string `json:"category_type,omitempty"`
	QueryType    *string `json:"query_type,omitempty"`
	QuerySubtype *string `json:"query_subtype,omitempty"`
}

// ListOptions filters template listings.
type ListOptions struct {
	Category     string
	CategoryType string
	QueryType    string
	QuerySubtype string
	Limit        int
	Offset       int
}

// HashQuery returns the hex sha256 digest of the raw query text.
// The hash is the template's identity for duplicate detection.
func HashQuery(query string) string {
	sum := sha256.Sum256([]byte(query))
	return hex.EncodeToString(sum[:])
}
