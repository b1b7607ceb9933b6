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
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"costpilot/platform/shared/pagination"
)

// Handler provides HTTP handlers for auth and user management
type Handler struct {
	service *Service
}

// NewHandler creates a new auth handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterPublicRoutes registers the unauthenticated auth flows
func (h *Handler) RegisterPublicRoutes(r *mux.Router) {
	r.HandleFunc("/auth/register", h.Register).Methods("POST", "OPTIONS")
	r.HandleFunc("/auth/confirm", h.Confirm).Methods("POST", "OPTIONS")
	r.HandleFunc("/auth/login", h.Login).Methods("POST", "OPTIONS")
	r.HandleFunc("/auth/login-mfa", h.LoginMFA).Methods("POST", "OPTIONS")
}

// RegisterRoutes registers the authenticated user endpoints
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/auth/me", h.Me).Methods("GET", "OPTIONS")
	r.HandleFunc("/auth/account-id", h.UpdateAccountID).Methods("PATCH", "OPTIONS")
	r.HandleFunc("/auth/users", RequireAdmin(h.ListUsers)).Methods("GET", "OPTIONS")
}

// Register handles POST /auth/register
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	h.setCORSHeaders(w)
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}

	var in RegisterInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		h.writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if in.Email == "" || in.Password == "" {
		h.writeError(w, "Email and password required", http.StatusBadRequest)
		return
	}

	user, err := h.service.Register(r.Context(), in)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(user)
}

// Confirm handles POST /auth/confirm
func (h *Handler) Confirm(w http.ResponseWriter, r *http.Request) {
	h.setCORSHeaders(w)
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}

	var in ConfirmInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		h.writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.service.Confirm(r.Context(), in); err != nil {
		h.writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "confirmed"})
}

// Login handles POST /auth/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	h.setCORSHeaders(w)
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}

	var in LoginInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		h.writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	result, err := h.service.Login(r.Context(), in)
	if err != nil {
		if err == ErrUserNotFound {
			h.writeError(w, "Invalid credentials", http.StatusUnauthorized)
			return
		}
		h.writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(result)
}

// LoginMFA handles POST /auth/login-mfa
func (h *Handler) LoginMFA(w http.ResponseWriter, r *http.Request) {
	h.setCORSHeaders(w)
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}

	var in MFAInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		h.writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	token, err := h.service.RespondMFA(r.Context(), in)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(token)
}

// Me handles GET /auth/me
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	h.setCORSHeaders(w)
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}

	user, ok := UserFromContext(r.Context())
	if !ok {
		h.writeError(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(user)
}

// UpdateAccountID handles PATCH /auth/account-id
func (h *Handler) UpdateAccountID(w http.ResponseWriter, r *http.Request) {
	h.setCORSHeaders(w)
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}

	user, ok := UserFromContext(r.Context())
	if !ok {
		h.writeError(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	var in struct {
		AccountID string `json:"account_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		h.writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	updated, err := h.service.UpdateAccountID(r.Context(), user, in.AccountID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(updated)
}

// ListUsers handles GET /auth/users (admin only)
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	h.setCORSHeaders(w)
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}

	page := pagination.FromRequest(r)
	users, total, err := h.service.ListUsers(r.Context(), page.Limit(), page.Offset())
	if err != nil {
		h.writeError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if users == nil {
		users = []User{}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"data":       users,
		"pagination": page.Meta(total),
	})
}

// Helper functions

func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case err == ErrUserNotFound:
		h.writeError(w, err.Error(), http.StatusNotFound)
	case err == ErrUserExists:
		h.writeError(w, err.Error(), http.StatusConflict)
	case err == ErrInvalidRole:
		h.writeError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrIdentityProvider):
		h.writeError(w, err.Error(), http.StatusBadGateway)
	default:
		h.writeError(w, err.Error(), http.StatusInternalServerError)
	}
}

func (h *Handler) setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
}

func (h *Handler) writeError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":   http.StatusText(status),
		"message": message,
	})
}
