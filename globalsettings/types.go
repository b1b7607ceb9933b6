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

// Package globalsettings holds per-user platform switches, currently the
// central summary database toggle consumed by the tenant store.
package globalsettings

import "time"

// Settings is one user's platform configuration. At most one row per user.
type Settings struct {
	UserID        int       `json:"user_id"`
	UseCentralDB  bool      `json:"use_central_db"`
	CentralDBName string    `json:"central_db_name,omitempty"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// UpdateInput is the payload for replacing a user's settings.
type UpdateInput struct {
	UseCentralDB  bool   `json:"use_central_db"`
	CentralDBName string `json:"central_db_name"`
}
