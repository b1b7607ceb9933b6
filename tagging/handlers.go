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

package tagging

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"costpilot/platform/auth"
	"costpilot/platform/costdata"
	"costpilot/platform/shared/pagination"
)

// Handler provides HTTP handlers for tag mappings
type Handler struct {
	service *Service
}

// NewHandler creates a new tagging handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers tagging routes with a gorilla/mux router
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/resource-tags", h.List).Methods("GET", "OPTIONS")
	r.HandleFunc("/resource-tags", h.Upsert).Methods("POST", "OPTIONS")
	r.HandleFunc("/resource-tags", h.Delete).Methods("PUT", "OPTIONS")
}

// List handles GET /resource-tags
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
	opts := ListOptions{
		ResourceID: r.URL.Query().Get("resource_id"),
		TagKey:     r.URL.Query().Get("tag_key"),
		Limit:      page.Limit(),
		Offset:     page.Offset(),
	}

	mappings, total, err := h.service.List(r.Context(), user, opts)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	if mappings == nil {
		mappings = []TagMapping{}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"data":       mappings,
		"pagination": page.Meta(total),
	})
}

// Upsert handles POST /resource-tags. The body may be a single mapping or
// an array; arrays apply in one transaction.
func (h *Handler) Upsert(w http.ResponseWriter, r *http.Request) {
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

	var raw json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		h.writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if bytes.HasPrefix(bytes.TrimSpace(raw), []byte("[")) {
		var ins []UpsertInput
		if err := json.Unmarshal(raw, &ins); err != nil {
			h.writeError(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		mappings, err := h.service.UpsertMany(r.Context(), user, ins)
		if err != nil {
			h.writeServiceError(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(mappings)
		return
	}

	var in UpsertInput
	if err := json.Unmarshal(raw, &in); err != nil {
		h.writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	m, err := h.service.Upsert(r.Context(), user, in)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(m)
}

// Delete handles PUT /resource-tags with a removal payload
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

	var in struct {
		ResourceID string `json:"resource_id"`
		TagKey     string `json:"tag_key"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		h.writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if in.ResourceID == "" || in.TagKey == "" {
		h.writeError(w, ErrMissingFields.Error(), http.StatusBadRequest)
		return
	}

	if err := h.service.Delete(r.Context(), user, in.ResourceID, in.TagKey); err != nil {
		h.writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Helper functions

func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	switch err {
	case ErrNotFound:
		h.writeError(w, "Tag mapping not found", http.StatusNotFound)
	case ErrMissingFields, costdata.ErrNoTenant:
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
