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

// Package usersettings stores per-user engine connection profiles. A user
// may keep several named profiles; at most one is active at a time.
package usersettings

import "time"

// Settings is one named engine connection profile.
type Settings struct {
	ID             int       `json:"id"`
	UserID         int       `json:"user_id"`
	Name           string    `json:"name"`
	AccessKey      string    `json:"access_key"`
	SecretKey      string    `json:"secret_key"`
	SessionToken   string    `json:"session_token,omitempty"`
	Region         string    `json:"region"`
	Database       string    `json:"athena_database"`
	Table          string    `json:"athena_table"`
	OutputLocation string    `json:"athena_location"`
	Active         bool      `json:"active"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// CreateInput is the payload for creating a profile.
type CreateInput struct {
	Name           string `json:"name"`
	AccessKey      string `json:"access_key"`
	SecretKey      string `json:"secret_key"`
	SessionToken   string `json:"session_token"`
	Region         string `json:"region"`
	Database       string `json:"athena_database"`
	Table          string `json:"athena_table"`
	OutputLocation string `json:"athena_location"`
	Active         bool   `json:"active"`
}

// UpdateInput is the payload for a partial profile update.
type UpdateInput struct {
	Name           *string `json:"name,omitempty"`
	AccessKey      *string `json:"access_key,omitempty"`
	SecretKey      *string `json:"secret_key,omitempty"`
	SessionToken   *string `json:"session_token,omitempty"`
	Region         *string `json:"region,omitempty"`
	Database       *string `json:"athena_database,omitempty"`
	Table          *string `json:"athena_table,omitempty"`
	OutputLocation *string `json:"athena_location,omitempty"`
	Active         *bool   `json:"active,omitempty"`
}

// Masked returns a copy safe for API responses: credential fields keep only
// their last four characters.
func (s Settings) Masked() Settings {
	s.AccessKey = maskSecret(s.AccessKey)
	s.SecretKey = maskSecret(s.SecretKey)
	s.SessionToken = maskSecret(s.SessionToken)
	return s
}

func maskSecret(v string) string {
	if v == "" {
		return ""
	}
	if len(v) <= 4 {
		return "****"
	}
	return "****" + v[len(v)-4:]
}
