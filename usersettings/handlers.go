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

package usersettings

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"costpilot/platform/auth"
	"costpilot/platform/shared/pagination"
)

// Handler provides HTTP handlers for settings profiles
type Handler struct {
	service *Service
}

// NewHandler creates a new settings handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers settings routes with a gorilla/mux router
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/user-settings", h.Create).Methods("POST", "OPTIONS")
	r.HandleFunc("/user-settings", h.List).Methods("GET", "OPTIONS")
	r.HandleFunc("/user-settings/{id}", h.Get).Methods("GET", "OPTIONS")
	r.HandleFunc("/user-settings/{id}", h.Update).Methods("PUT", "OPTIONS")
	r.HandleFunc("/user-settings/{id}", h.Delete).Methods("DELETE", "OPTIONS")
}

// Create handles POST /user-settings
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	h.setCORSHeaders(w)
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}

	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.writeError(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	var in CreateInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		h.writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	settings, err := h.service.Create(r.Context(), user.ID, in)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(settings.Masked())
}

// List handles GET /user-settings
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	h.setCORSHeaders(w)
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}

	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.writeError(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	page := pagination.FromRequest(r)
	settings, total, err := h.service.List(r.Context(), user.ID, page.Limit(), page.Offset())
	if err != nil {
		h.writeError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	masked := make([]Settings, len(settings))
	for i, s := range settings {
		masked[i] = s.Masked()
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"data":       masked,
		"pagination": page.Meta(total),
	})
}

// Get handles GET /user-settings/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	h.setCORSHeaders(w)
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}

	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.writeError(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, "Invalid settings ID", http.StatusBadRequest)
		return
	}

	settings, err := h.service.Get(r.Context(), id, user.ID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(settings.Masked())
}

// Update handles PUT /user-settings/{id}
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	h.setCORSHeaders(w)
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}

	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.writeError(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, "Invalid settings ID", http.StatusBadRequest)
		return
	}

	var in UpdateInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		h.writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	settings, err := h.service.Update(r.Context(), id, user.ID, in)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(settings.Masked())
}

// Delete handles DELETE /user-settings/{id}
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	h.setCORSHeaders(w)
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}

	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.writeError(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, "Invalid settings ID", http.StatusBadRequest)
		return
	}

	if err := h.service.Delete(r.Context(), id, user.ID); err != nil {
		h.writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Helper functions

func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	switch err {
	case ErrNotFound, ErrNoActiveSettings:
		h.writeError(w, err.Error(), http.StatusNotFound)
	case ErrExists:
		h.writeError(w, err.Error(), http.StatusConflict)
	case ErrMissingFields:
		h.writeError(w, err.Error(), http.StatusBadRequest)
	default:
		h.writeError(w, err.Error(), http.StatusInternalServerError)
	}
}

func (h *Handler) setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
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
