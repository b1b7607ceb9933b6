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

package query

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"costpilot/platform/shared/pagination"
)

// Handler provides HTTP handlers for the template catalog
type Handler struct {
	service *Service
}

// NewHandler creates a new template handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers template routes with a gorilla/mux router
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/queries", h.Create).Methods("POST", "OPTIONS")
	r.HandleFunc("/queries", h.List).Methods("GET", "OPTIONS")
	r.HandleFunc("/queries/upload", h.Upload).Methods("POST", "OPTIONS")
	r.HandleFunc("/queries/{id}", h.Get).Methods("GET", "OPTIONS")
	r.HandleFunc("/queries/{id}", h.Update).Methods("PUT", "OPTIONS")
	r.HandleFunc("/queries/{id}", h.Delete).Methods("DELETE", "OPTIONS")
}

// Create handles POST /queries. The body may be a single template or an
// array; arrays are created all-or-nothing.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	h.setCORSHeaders(w)
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}

	var raw json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		h.writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if bytes.HasPrefix(bytes.TrimSpace(raw), []byte("[")) {
		var ins []CreateInput
		if err := json.Unmarshal(raw, &ins); err != nil {
			h.writeError(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		tmpls, err := h.service.CreateMany(r.Context(), ins)
		if err != nil {
			h.writeServiceError(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(tmpls)
		return
	}

	var in CreateInput
	if err := json.Unmarshal(raw, &in); err != nil {
		h.writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	tmpl, err := h.service.Create(r.Context(), in)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(tmpl)
}

// List handles GET /queries
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	h.setCORSHeaders(w)
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}

	query := r.URL.Query()
	page := pagination.FromRequest(r)

	opts := ListOptions{
		Category:     query.Get("category"),
		CategoryType: query.Get("category_type"),
		QueryType:    query.Get("query_type"),
		QuerySubtype: query.Get("query_subtype"),
		Limit:        page.Limit(),
		Offset:       page.Offset(),
	}

	tmpls, total, err := h.service.List(r.Context(), opts)
	if err != nil {
		h.writeError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if tmpls == nil {
		tmpls = []Template{}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"data":       tmpls,
		"pagination": page.Meta(total),
	})
}

// Upload handles POST /queries/upload with a multipart CSV file
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	h.setCORSHeaders(w)
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		h.writeError(w, "File upload required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	tmpls, err := h.service.UploadCSV(r.Context(), file)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"created": len(tmpls),
		"data":    tmpls,
	})
}

// Get handles GET /queries/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	h.setCORSHeaders(w)
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}

	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, "Invalid template ID", http.StatusBadRequest)
		return
	}

	tmpl, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(tmpl)
}

// Update handles PUT /queries/{id}
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	h.setCORSHeaders(w)
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}

	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, "Invalid template ID", http.StatusBadRequest)
		return
	}

	var in UpdateInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		h.writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	tmpl, err := h.service.Update(r.Context(), id, in)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(tmpl)
}

// Delete handles DELETE /queries/{id}
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	h.setCORSHeaders(w)
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}

	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, "Invalid template ID", http.StatusBadRequest)
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		h.writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Helper functions

func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case err == ErrNotFound:
		h.writeError(w, "Query template not found", http.StatusNotFound)
	case err == ErrExists:
		h.writeError(w, "Query template already exists", http.StatusConflict)
	case err == ErrEmptyQuery, errors.Is(err, ErrBadUpload):
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
