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

// Package auth manages platform users, identity-provider flows, and request
// authentication. Tokens are verified against the configured identity
// provider and mapped to local user rows by email.
package auth

import "time"

// Role is a user's platform role
type Role string

const (
	RoleCFO      Role = "cfo"
	RoleCEO      Role = "ceo"
	RoleManager  Role = "manager"
	RoleEngineer Role = "engineer"
	RoleAdmin    Role = "admin"
)

// ValidRole reports whether the role is one of the platform roles.
func ValidRole(r Role) bool {
	switch r {
	case RoleCFO, RoleCEO, RoleManager, RoleEngineer, RoleAdmin:
		return true
	}
	return false
}

// User is a platform user
type User struct {
	ID          int       `json:"id"`
	Email       string    `json:"email"`
	FullName    string    `json:"full_name,omitempty"`
	UserName    string    `json:"user_name,omitempty"`
	PhoneNumber string    `json:"phone_number,omitempty"`
	AccountID   string    `json:"account_id,omitempty"`
	Role        Role      `json:"role"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// RegisterInput is the payload for POST /auth/register
type RegisterInput struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	FullName    string `json:"full_name"`
	PhoneNumber string `json:"phone_number"`
	Role        Role   `json:"role"`
}

// ConfirmInput is the payload for POST /auth/confirm
type ConfirmInput struct {
	Email            string `json:"email"`
	ConfirmationCode string `json:"confirmation_code"`
}

// LoginInput is the payload for POST /auth/login
type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// MFAInput is the payload for POST /auth/login-mfa
type MFAInput struct {
	Email   string `json:"email"`
	Session string `json:"session"`
	Code    string `json:"code"`
}

// Token is a successful login response
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// MFAChallenge is returned when login requires a second factor
type MFAChallenge struct {
	ChallengeName string `json:"challenge_name"`
	Session       string `json:"session"`
}

// LoginResult is either a token or an MFA challenge
type LoginResult struct {
	Token     *Token        `json:"token,omitempty"`
	Challenge *MFAChallenge `json:"challenge,omitempty"`
}
