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

package auth

import "errors"

var (
	// ErrUserNotFound is returned when a user is not found
	ErrUserNotFound = errors.New("user not found")

	// ErrUserExists is returned when registering an email that is taken
	ErrUserExists = errors.New("user already exists")

	// ErrInvalidToken is returned when a bearer token fails verification
	ErrInvalidToken = errors.New("invalid or expired token")

	// ErrInvalidRole is returned for an unknown role value
	ErrInvalidRole = errors.New("invalid user role")

	// ErrForbidden is returned when the caller lacks the required role
	ErrForbidden = errors.New("insufficient permissions")

	// ErrIdentityProvider is returned when the identity provider rejects a flow
	ErrIdentityProvider = errors.New("identity provider request failed")
)
