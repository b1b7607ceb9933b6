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

// Package report keeps the execution ledger: every query handed to the
// engine gets a row, dispatched in batches and refreshed until terminal.
package report

import "time"

// Execution statuses. They mirror the engine's states; a row is written
// PENDING at dispatch and FAILED when the submission itself failed.
const (
	StatusPending   = "PENDING"
	StatusRunning   = "RUNNING"
	StatusSucceeded = "SUCCEEDED"
	StatusFailed    = "FAILED"
	StatusCancelled = "CANCELLED"
)

// Execution is one ledger row. ExecutionID is the engine's handle and is
// unique; failed submissions get a fresh UUID in its place.
type Execution struct {
	ID                 int       `json:"id"`
	ExecutionID        string    `json:"execution_id"`
	BatchID            string    `json:"batch_id"`
	QueryID            int       `json:"query_id"`
	UserID             int       `json:"user_id"`
	UserSettingsID     int       `json:"user_settings_id"`
	WidgetAssignmentID *string   `json:"widget_assignment_id,omitempty"`
	ExecutedQuery      string    `json:"executed_query"`
	Status             string    `json:"status"`
	ErrorMessage       string    `json:"error_message,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// Terminal reports whether the row's status can no longer change.
func (e *Execution) Terminal() bool {
	switch e.Status {
	case StatusSucceeded, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// RunInput is a batch dispatch request. QueryIDs wins over Category; both
// empty dispatches the whole catalog.
type RunInput struct {
	QueryIDs           []int    `json:"query_ids,omitempty"`
	Category           string   `json:"category,omitempty"`
	Years              []string `json:"years,omitempty"`
	Months             []string `json:"months,omitempty"`
	WidgetAssignmentID *string  `json:"widget_assignment_id,omitempty"`
}

// ListOptions filters ledger reads. UserID is always required.
type ListOptions struct {
	UserID             int
	QueryID            int
	WidgetAssignmentID string
	Limit              int
	Offset             int
}

// ResultSet maps a result label (the template's query_subtype, or the
// execution handle when the template is gone) to its result grid. The first
// row of each grid is the header.
type ResultSet map[string][][]string
