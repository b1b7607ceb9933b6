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

package costdata

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"costpilot/platform/auth"
	"costpilot/platform/shared/filter"
	"costpilot/platform/shared/pagination"
)

// Handler provides HTTP handlers for cost records
type Handler struct {
	service *Service
}

// NewHandler creates a new cost data handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers cost data routes with a gorilla/mux router
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/cost-optimization", h.List).Methods("GET", "OPTIONS")
	r.HandleFunc("/cost-optimization/facets", h.Facets).Methods("GET", "OPTIONS")
	r.HandleFunc("/cost-optimization/notify-owners", h.NotifyOwners).Methods("POST", "OPTIONS")
}

// List handles GET /cost-optimization. Filters arrive as a JSON clause
// array in the filters query parameter; sort as field.asc or field.desc;
// ids as a comma-separated list.
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
	req := ListRequest{
		Sort:   r.URL.Query().Get("sort"),
		Limit:  page.Limit(),
		Offset: page.Offset(),
	}

	if raw := r.URL.Query().Get("filters"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &req.Filters); err != nil {
			h.writeError(w, "Invalid filters parameter", http.StatusBadRequest)
			return
		}
	}
	if raw := r.URL.Query().Get("ids"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			id, err := strconv.Atoi(strings.TrimSpace(part))
			if err != nil {
				h.writeError(w, "Invalid ids parameter", http.StatusBadRequest)
				return
			}
			req.IDs = append(req.IDs, id)
		}
	}

	records, total, summary, err := h.service.List(r.Context(), user, req)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	if records == nil {
		records = []Record{}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"data":         records,
		"cost_summary": summary,
		"pagination":   page.Meta(total),
	})
}

// Facets handles GET /cost-optimization/facets
func (h *Handler) Facets(w http.ResponseWriter, r *http.Request) {
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

	facets, err := h.service.Facets(r.Context(), user)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{"data": facets})
}

// NotifyOwners handles POST /cost-optimization/notify-owners
func (h *Handler) NotifyOwners(w http.ResponseWriter, r *http.Request) {
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

	var req NotifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	summary, err := h.service.NotifyOwners(r.Context(), user, req)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(summary)
}

// Helper functions

func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case err == ErrNoData:
		// Absent tenant data answers with a structured payload, not a 500.
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(NoDataPayload{ErrorCode: -1, Message: ErrNoData.Error()})
	case err == ErrNoTenant:
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
