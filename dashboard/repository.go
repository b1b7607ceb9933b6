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

package dashboard

import "context"

// Repository defines the dashboard storage interface
type Repository interface {
	Create(ctx context.Context, d *Dashboard) error
	Get(ctx context.Context, id int) (*Dashboard, error)
	GetByName(ctx context.Context, name string) (*Dashboard, error)
	List(ctx context.Context, limit, offset int) ([]Dashboard, int, error)
	ListByUser(ctx context.Context, userID int) ([]Dashboard, error)
	Update(ctx context.Context, d *Dashboard) error
	Delete(ctx context.Context, id int) error

	AssignUser(ctx context.Context, dashboardID, userID int) error
	UnassignUser(ctx context.Context, dashboardID, userID int) error

	AddWidget(ctx context.Context, w *Widget) error
	UpdateWidget(ctx context.Context, w *Widget) error
	RemoveWidget(ctx context.Context, dashboardID int, widgetID string) error
}
