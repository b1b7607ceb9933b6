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

package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"costpilot/platform/auth"
	"costpilot/platform/engine"
	"costpilot/platform/query"
	"costpilot/platform/shared/pagination"
	"costpilot/platform/usersettings"
)

// Handler provides HTTP handlers for the execution ledger
type Handler struct {
	service      *Service
	templatePath string
}

// NewHandler creates a new execution handler. templatePath is the optional
// xlsx workbook template for materialized downloads.
func NewHandler(service *Service, templatePath string) *Handler {
	return &Handler{service: service, templatePath: templatePath}
}

// RegisterRoutes registers execution routes with a gorilla/mux router
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/executions/run", h.Run).Methods("POST", "OPTIONS")
	r.HandleFunc("/executions", h.List).Methods("GET", "OPTIONS")
	r.HandleFunc("/executions/batch/{batchID}", h.GetBatch).Methods("GET", "OPTIONS")
	r.HandleFunc("/executions/batch/{batchID}/status", h.RefreshBatch).Methods("GET", "OPTIONS")
	r.HandleFunc("/executions/batch/{batchID}/results", h.BatchResults).Methods("GET", "OPTIONS")
	r.HandleFunc("/executions/{executionID}", h.Get).Methods("GET", "OPTIONS")
	r.HandleFunc("/executions/{executionID}/status", h.Refresh).Methods("GET", "OPTIONS")
	r.HandleFunc("/executions/{executionID}/results", h.Results).Methods("GET", "OPTIONS")
}

// Run handles POST /executions/run
func (h *Handler) Run(w http.ResponseWriter, r *http.Request) {
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

	var in RunInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		h.writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	execs, err := h.service.RunBatch(r.Context(), user.ID, in)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"batch_id": execs[0].BatchID,
		"data":     execs,
	})
}

// List handles GET /executions
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
		UserID:             user.ID,
		WidgetAssignmentID: r.URL.Query().Get("widget_assignment_id"),
		Limit:              page.Limit(),
		Offset:             page.Offset(),
	}
	if queryID := r.URL.Query().Get("query_id"); queryID != "" {
		id, err := strconv.Atoi(queryID)
		if err != nil {
			h.writeError(w, "Invalid query_id", http.StatusBadRequest)
			return
		}
		opts.QueryID = id
	}

	execs, total, err := h.service.List(r.Context(), opts)
	if err != nil {
		h.writeError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if execs == nil {
		execs = []Execution{}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"data":       execs,
		"pagination": page.Meta(total),
	})
}

// Get handles GET /executions/{executionID}
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

	exec, err := h.service.Get(r.Context(), mux.Vars(r)["executionID"], user.ID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(exec)
}

// Refresh handles GET /executions/{executionID}/status
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
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

	exec, err := h.service.RefreshExecution(r.Context(), mux.Vars(r)["executionID"], user.ID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(exec)
}

// GetBatch handles GET /executions/batch/{batchID}
func (h *Handler) GetBatch(w http.ResponseWriter, r *http.Request) {
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

	execs, err := h.service.GetBatch(r.Context(), mux.Vars(r)["batchID"], user.ID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{"data": execs})
}

// RefreshBatch handles GET /executions/batch/{batchID}/status
func (h *Handler) RefreshBatch(w http.ResponseWriter, r *http.Request) {
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

	execs, err := h.service.RefreshBatch(r.Context(), mux.Vars(r)["batchID"], user.ID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{"data": execs})
}

// Results handles GET /executions/{executionID}/results
func (h *Handler) Results(w http.ResponseWriter, r *http.Request) {
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

	executionID := mux.Vars(r)["executionID"]
	results, err := h.service.ExecutionResults(r.Context(), executionID, user.ID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.writeResults(w, r, results, executionID)
}

// BatchResults handles GET /executions/batch/{batchID}/results
func (h *Handler) BatchResults(w http.ResponseWriter, r *http.Request) {
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

	batchID := mux.Vars(r)["batchID"]
	results, err := h.service.BatchResults(r.Context(), batchID, user.ID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.writeResults(w, r, results, batchID)
}

// Helper functions

func (h *Handler) writeResults(w http.ResponseWriter, r *http.Request, results ResultSet, name string) {
	if r.URL.Query().Get("format") == "xlsx" {
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.xlsx"`, name))
		if err := WriteXLSX(w, results, h.templatePath); err != nil {
			h.writeError(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(results)
}

func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	var missing *query.MissingError
	switch {
	case err == ErrNotFound:
		h.writeError(w, "Execution not found", http.StatusNotFound)
	case err == ErrResultsNotReady:
		h.writeError(w, err.Error(), http.StatusConflict)
	case err == ErrNoTemplates:
		h.writeError(w, err.Error(), http.StatusBadRequest)
	case err == engine.ErrAuth:
		h.writeError(w, err.Error(), http.StatusUnauthorized)
	case err == usersettings.ErrNoActiveSettings:
		h.writeError(w, "No active user settings", http.StatusBadRequest)
	case errors.As(err, &missing):
		h.writeError(w, missing.Error(), http.StatusNotFound)
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
