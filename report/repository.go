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

import "context"

// Repository defines the execution ledger storage interface. Every read is
// scoped to the owning user.
type Repository interface {
	// CreateBatch inserts the rows in slice order inside one transaction.
	CreateBatch(ctx context.Context, execs []*Execution) error

	// GetByExecutionID retrieves a row by its engine handle.
	GetByExecutionID(ctx context.Context, executionID string, userID int) (*Execution, error)

	// ListByBatch retrieves a batch's rows in insertion order.
	ListByBatch(ctx context.Context, batchID string, userID int) ([]Execution, error)

	// List retrieves the user's rows, newest first, with optional filters.
	List(ctx context.Context, opts ListOptions) ([]Execution, int, error)

	// UpdateStatus persists a status transition.
	UpdateStatus(ctx context.Context, id int, status, errorMessage string) error
}
