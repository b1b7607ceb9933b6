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

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"costpilot/platform/auth"
	"costpilot/platform/shared/pagination"
)

// Handler provides HTTP handlers for dashboards
type Handler struct {
	service *Service
}

// NewHandler creates a new dashboard handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers dashboard routes with a gorilla/mux router
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/dashboards", h.Create).Methods("POST", "OPTIONS")
	r.HandleFunc("/dashboards", h.List).Methods("GET", "OPTIONS")
	r.HandleFunc("/dashboards/me", h.Mine).Methods("GET", "OPTIONS")
	r.HandleFunc("/dashboards/{id}", h.Get).Methods("GET", "OPTIONS")
	r.HandleFunc("/dashboards/{id}", h.Update).Methods("PUT", "OPTIONS")
	r.HandleFunc("/dashboards/{id}", h.Delete).Methods("DELETE", "OPTIONS")
	r.HandleFunc("/dashboards/{id}/users", h.AssignUser).Methods("POST", "OPTIONS")
	r.HandleFunc("/dashboards/{id}/widgets", h.ApplyWidget).Methods("POST", "OPTIONS")
	r.HandleFunc("/dashboards/{id}/embed-url", h.EmbedURL).Methods("GET", "OPTIONS")
}

// Create handles POST /dashboards
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

	d, err := h.service.Create(r.Context(), user.ID, in)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(d)
}

// List handles GET /dashboards
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	h.setCORSHeaders(w)
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}

	page := pagination.FromRequest(r)
	dashboards, total, err := h.service.List(r.Context(), page.Limit(), page.Offset())
	if err != nil {
		h.writeError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if dashboards == nil {
		dashboards = []Dashboard{}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"data":       dashboards,
		"pagination": page.Meta(total),
	})
}

// Mine handles GET /dashboards/me
func (h *Handler) Mine(w http.ResponseWriter, r *http.Request) {
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

	dashboards, err := h.service.ListMine(r.Context(), user.ID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	if dashboards == nil {
		dashboards = []Dashboard{}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{"data": dashboards})
}

// Get handles GET /dashboards/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	h.setCORSHeaders(w)
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}

	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, "Invalid dashboard ID", http.StatusBadRequest)
		return
	}

	d, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(d)
}

// Update handles PUT /dashboards/{id}
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	h.setCORSHeaders(w)
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}

	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, "Invalid dashboard ID", http.StatusBadRequest)
		return
	}

	var in UpdateInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		h.writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	d, err := h.service.Update(r.Context(), id, in)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(d)
}

// Delete handles DELETE /dashboards/{id}
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	h.setCORSHeaders(w)
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}

	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, "Invalid dashboard ID", http.StatusBadRequest)
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		h.writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// AssignUser handles POST /dashboards/{id}/users
func (h *Handler) AssignUser(w http.ResponseWriter, r *http.Request) {
	h.setCORSHeaders(w)
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}

	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, "Invalid dashboard ID", http.StatusBadRequest)
		return
	}

	var in UserAssignmentInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		h.writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.service.AssignUser(r.Context(), id, in); err != nil {
		h.writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ApplyWidget handles POST /dashboards/{id}/widgets
func (h *Handler) ApplyWidget(w http.ResponseWriter, r *http.Request) {
	h.setCORSHeaders(w)
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}

	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, "Invalid dashboard ID", http.StatusBadRequest)
		return
	}

	var in WidgetInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		h.writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	widget, err := h.service.ApplyWidget(r.Context(), id, in)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	if widget == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(widget)
}

// EmbedURL handles GET /dashboards/{id}/embed-url
func (h *Handler) EmbedURL(w http.ResponseWriter, r *http.Request) {
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
		h.writeError(w, "Invalid dashboard ID", http.StatusBadRequest)
		return
	}

	userName := user.UserName
	if userName == "" {
		userName = user.Email
	}

	url, err := h.service.EmbedURL(r.Context(), id, userName)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"embed_url": url})
}

// Helper functions

func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	switch err {
	case ErrNotFound:
		h.writeError(w, "Dashboard not found", http.StatusNotFound)
	case ErrExists:
		h.writeError(w, "Dashboard already exists", http.StatusConflict)
	case ErrMissingName:
		h.writeError(w, err.Error(), http.StatusBadRequest)
	case ErrNoEmbedder:
		h.writeError(w, err.Error(), http.StatusNotImplemented)
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
