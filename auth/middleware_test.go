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

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubUserRepo struct {
	users map[string]*User
}

func (s *stubUserRepo) Create(ctx context.Context, user *User) error {
	if _, ok := s.users[user.Email]; ok {
		return ErrUserExists
	}
	user.ID = len(s.users) + 1
	s.users[user.Email] = user
	return nil
}

func (s *stubUserRepo) GetByEmail(ctx context.Context, email string) (*User, error) {
	if user, ok := s.users[email]; ok {
		return user, nil
	}
	return nil, ErrUserNotFound
}

func (s *stubUserRepo) GetByID(ctx context.Context, id int) (*User, error) {
	for _, user := range s.users {
		if user.ID == id {
			return user, nil
		}
	}
	return nil, ErrUserNotFound
}

func (s *stubUserRepo) UpdateAccountID(ctx context.Context, userID int, accountID string) error {
	for _, user := range s.users {
		if user.ID == userID {
			user.AccountID = accountID
			return nil
		}
	}
	return ErrUserNotFound
}

func (s *stubUserRepo) List(ctx context.Context, limit, offset int) ([]User, int, error) {
	var out []User
	for _, user := range s.users {
		out = append(out, *user)
	}
	return out, len(out), nil
}

func (s *stubUserRepo) ListEmails(ctx context.Context) ([]string, error) {
	var out []string
	for email := range s.users {
		out = append(out, email)
	}
	return out, nil
}

func newTestRouter(repo Repository, secret string) *mux.Router {
	r := mux.NewRouter()
	r.Use(Middleware(NewStaticVerifier(secret), repo))
	r.HandleFunc("/whoami", func(w http.ResponseWriter, req *http.Request) {
		user, _ := UserFromContext(req.Context())
		w.Write([]byte(user.Email))
	}).Methods("GET")
	return r
}

func TestMiddlewareAcceptsValidToken(t *testing.T) {
	repo := &stubUserRepo{users: map[string]*User{
		"dana@acme.io": {ID: 1, Email: "dana@acme.io", Role: RoleEngineer},
	}}
	router := newTestRouter(repo, "s3cret")

	token, err := SignStatic("s3cret", "dana@acme.io")
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "dana@acme.io", rr.Body.String())
}

func TestMiddlewareRejectsMissingToken(t *testing.T) {
	repo := &stubUserRepo{users: map[string]*User{}}
	router := newTestRouter(repo, "s3cret")

	req := httptest.NewRequest("GET", "/whoami", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestMiddlewareRejectsBadSignature(t *testing.T) {
	repo := &stubUserRepo{users: map[string]*User{
		"dana@acme.io": {ID: 1, Email: "dana@acme.io"},
	}}
	router := newTestRouter(repo, "s3cret")

	token, err := SignStatic("other-secret", "dana@acme.io")
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestMiddlewareRejectsUnknownUser(t *testing.T) {
	repo := &stubUserRepo{users: map[string]*User{}}
	router := newTestRouter(repo, "s3cret")

	token, err := SignStatic("s3cret", "ghost@acme.io")
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestRequireAdmin(t *testing.T) {
	handler := RequireAdmin(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	// Engineer is rejected.
	req := httptest.NewRequest("GET", "/admin", nil)
	req = req.WithContext(ContextWithUser(req.Context(), &User{ID: 1, Role: RoleEngineer}))
	rr := httptest.NewRecorder()
	handler(rr, req)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	// Admin passes.
	req = httptest.NewRequest("GET", "/admin", nil)
	req = req.WithContext(ContextWithUser(req.Context(), &User{ID: 2, Role: RoleAdmin}))
	rr = httptest.NewRecorder()
	handler(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
}
