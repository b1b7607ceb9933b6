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

package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPercentile(t *testing.T) {
	samples := []int64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100}

	assert.Equal(t, float64(60), percentile(samples, 0.50))
	assert.Equal(t, float64(100), percentile(samples, 0.95))
	assert.Equal(t, float64(0), percentile(nil, 0.50))
}

func TestAppendWindowCaps(t *testing.T) {
	window := make([]int64, 0, 1000)
	for i := int64(0); i < 1200; i++ {
		window = appendWindow(window, i)
	}

	assert.Len(t, window, 1000)
	assert.Equal(t, int64(200), window[0])
	assert.Equal(t, int64(1199), window[len(window)-1])
}

func TestMetricsSnapshot(t *testing.T) {
	m := newMetrics()
	m.record("/cost-optimization", "GET", http.StatusOK, 12)
	m.record("/cost-optimization", "GET", http.StatusOK, 20)
	m.record("/executions/run", "POST", http.StatusInternalServerError, 300)

	rec := httptest.NewRecorder()
	m.Snapshot(rec, httptest.NewRequest("GET", "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		ServerMetrics struct {
			TotalRequests int64   `json:"total_requests"`
			ErrorRequests int64   `json:"error_requests"`
			SuccessRate   float64 `json:"success_rate"`
		} `json:"server_metrics"`
		Routes map[string]struct {
			TotalRequests int64 `json:"total_requests"`
			ErrorRequests int64 `json:"error_requests"`
		} `json:"routes"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	assert.Equal(t, int64(3), body.ServerMetrics.TotalRequests)
	assert.Equal(t, int64(1), body.ServerMetrics.ErrorRequests)
	assert.InDelta(t, 66.67, body.ServerMetrics.SuccessRate, 0.01)
	assert.Equal(t, int64(2), body.Routes["/cost-optimization"].TotalRequests)
	assert.Equal(t, int64(1), body.Routes["/executions/run"].ErrorRequests)
}

func TestMiddlewareRecordsRouteTemplate(t *testing.T) {
	m := newMetrics()

	r := mux.NewRouter()
	r.Use(m.Middleware)
	r.HandleFunc("/dashboards/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}).Methods("GET")

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("GET", "/dashboards/42", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)

	m.mu.RLock()
	defer m.mu.RUnlock()
	rm, ok := m.routes["/dashboards/{id}"]
	require.True(t, ok, "expected the path template, not the raw URL")
	assert.Equal(t, int64(1), rm.Total)
	// 404 is a client-visible miss, not a server error.
	assert.Equal(t, int64(0), rm.Errors)
}
