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

// Package pagination provides page/offset helpers shared by all list endpoints.
package pagination

import (
	"net/http"
	"strconv"
)

const (
	DefaultPageSize = 50
	MaxPageSize     = 1000
)

// Params holds the requested page and page size.
type Params struct {
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
}

// Metadata describes the position of one page within the full result set.
type Metadata struct {
	Total      int  `json:"total"`
	Page       int  `json:"page"`
	PageSize   int  `json:"page_size"`
	TotalPages int  `json:"total_pages"`
	NextPage   *int `json:"next_page"`
	PrevPage   *int `json:"prev_page"`
}

// FromRequest reads page and page_size query parameters, clamping to sane bounds.
func FromRequest(r *http.Request) Params {
	p := Params{Page: 1, PageSize: DefaultPageSize}

	query := r.URL.Query()
	if v := query.Get("page"); v != "" {
		p.Page, _ = strconv.Atoi(v)
	}
	if v := query.Get("page_size"); v != "" {
		p.PageSize, _ = strconv.Atoi(v)
	}

	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize <= 0 || p.PageSize > MaxPageSize {
		p.PageSize = DefaultPageSize
	}
	return p
}

// Offset converts the page number to a row offset.
func (p Params) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// Limit returns the page size.
func (p Params) Limit() int {
	return p.PageSize
}

// Meta computes the pagination metadata for a total row count.
func (p Params) Meta(total int) Metadata {
	totalPages := 0
	if total > 0 {
		totalPages = (total + p.PageSize - 1) / p.PageSize
	}

	meta := Metadata{
		Total:      total,
		Page:       p.Page,
		PageSize:   p.PageSize,
		TotalPages: totalPages,
	}

	if p.Page < totalPages {
		next := p.Page + 1
		meta.NextPage = &next
	}
	if p.Page > 1 {
		prev := p.Page - 1
		meta.PrevPage = &prev
	}
	return meta
}
