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

// Package dashboard manages dashboard definitions, their user assignments,
// and the widget-to-query bindings rendered by the frontend.
package dashboard

import "time"

// Dashboard is one dashboard definition. Users and Widgets are expanded on
// reads.
type Dashboard struct {
	ID          int       `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedBy   int       `json:"created_by"`
	Users       []UserRef `json:"users,omitempty"`
	Widgets     []Widget  `json:"widgets,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// UserRef is the short user projection carried inside dashboard reads.
type UserRef struct {
	ID    int    `json:"id"`
	Email string `json:"email"`
}

// Widget binds one query template to a dashboard with its render config.
type Widget struct {
	ID          int          `json:"id"`
	WidgetID    string       `json:"widget_id"`
	DashboardID int          `json:"dashboard_id"`
	QueryID     int          `json:"query_id"`
	Config      WidgetConfig `json:"dashboard_config"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// WidgetConfig is the frontend render configuration, stored as JSON.
type WidgetConfig struct {
	GraphType     string         `json:"graph_type,omitempty"`
	XAxis         string         `json:"x_axis,omitempty"`
	YAxis         []string       `json:"y_axis,omitempty"`
	DynamicParams *DynamicParams `json:"dynamic_params,omitempty"`
}

// DynamicParams carries the substitution values a widget dispatches with.
type DynamicParams struct {
	Year  []string `json:"year,omitempty"`
	Month string   `json:"month,omitempty"`
}

// CreateInput is the payload for creating a dashboard.
type CreateInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// UpdateInput is the payload for a partial dashboard update.
type UpdateInput struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
}

// UserAssignmentInput assigns or unassigns one user.
type UserAssignmentInput struct {
	UserID int    `json:"user_id"`
	Action string `json:"action,omitempty"`
}

// WidgetInput assigns, updates, or removes one widget binding.
type WidgetInput struct {
	WidgetID string       `json:"widget_id,omitempty"`
	QueryID  int          `json:"query_id,omitempty"`
	Config   WidgetConfig `json:"dashboard_config"`
	Action   string       `json:"action,omitempty"`
}
