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

package owner

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"costpilot/platform/auth"
	"costpilot/platform/costdata"
	"costpilot/platform/shared/filter"
	"costpilot/platform/shared/pagination"
)

// Handler provides HTTP handlers for resource owners
type Handler struct {
	service *Service
}

// NewHandler creates a new owner handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers owner routes with a gorilla/mux router
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/resource-owners", h.List).Methods("GET", "OPTIONS")
	r.HandleFunc("/resource-owners", h.Assign).Methods("POST", "OPTIONS")
	r.HandleFunc("/resource-owners/assign-all", h.AssignAll).Methods("POST", "OPTIONS")
	r.HandleFunc("/resource-owners/{resourceID}", h.Update).Methods("PUT", "OPTIONS")
	r.HandleFunc("/resource-owners/{resourceID}", h.Delete).Methods("DELETE", "OPTIONS")
}

// List handles GET /resource-owners
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
	owners, total, err := h.service.List(r.Context(), user, page.Limit(), page.Offset())
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	if owners == nil {
		owners = []Owner{}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"data":       owners,
		"pagination": page.Meta(total),
	})
}

// Assign handles POST /resource-owners
func (h *Handler) Assign(w http.ResponseWriter, r *http.Request) {
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

	var in AssignInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		h.writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	o, err := h.service.Assign(r.Context(), user, in)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(o)
}

// AssignAll handles POST /resource-owners/assign-all
func (h *Handler) AssignAll(w http.ResponseWriter, r *http.Request) {
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

	var in AssignAllInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		h.writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	count, err := h.service.AssignAll(r.Context(), user, in)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]int{"assigned": count})
}

// Update handles PUT /resource-owners/{resourceID}
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

	var in UpdateInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		h.writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	o, err := h.service.Update(r.Context(), user, mux.Vars(r)["resourceID"], in)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(o)
}

// Delete handles DELETE /resource-owners/{resourceID}
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

	if err := h.service.Delete(r.Context(), user, mux.Vars(r)["resourceID"]); err != nil {
		h.writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Helper functions

func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case err == ErrNotFound:
		h.writeError(w, "Resource owner not found", http.StatusNotFound)
	case err == ErrInvalidStatus, err == ErrMissingFields:
		h.writeError(w, err.Error(), http.StatusBadRequest)
	case err == costdata.ErrNoTenant:
		h.writeError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, filter.ErrBadFilter):
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
