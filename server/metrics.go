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
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
)

// Prometheus metrics
var (
	promRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "costpilot_requests_total",
			Help: "Total number of HTTP requests processed",
		},
		[]string{"route", "method", "status"},
	)
	promRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "costpilot_request_duration_milliseconds",
			Help:    "Request duration in milliseconds",
			Buckets: []float64{10, 50, 100, 200, 500, 1000, 2000, 5000, 10000},
		},
		[]string{"route"},
	)
)

func init() {
	prometheus.MustRegister(promRequestsTotal)
	prometheus.MustRegister(promRequestDuration)
}

// Metrics tracks per-route request counts and latency percentiles for the
// JSON metrics endpoint. Latency windows keep the last 1000 samples.
type Metrics struct {
	mu        sync.RWMutex
	startTime time.Time

	totalRequests int64
	errorRequests int64
	latencies     []int64

	routes map[string]*routeMetrics
}

type routeMetrics struct {
	Total     int64
	Errors    int64
	Latencies []int64
}

func newMetrics() *Metrics {
	return &Metrics{
		startTime: time.Now(),
		latencies: make([]int64, 0, 1000),
		routes:    make(map[string]*routeMetrics),
	}
}

func (m *Metrics) record(route, method string, status int, latencyMs int64) {
	promRequestsTotal.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	promRequestDuration.WithLabelValues(route).Observe(float64(latencyMs))

	m.mu.Lock()
	defer m.mu.Unlock()

	m.totalRequests++
	if status >= 500 {
		m.errorRequests++
	}
	m.latencies = appendWindow(m.latencies, latencyMs)

	rm, ok := m.routes[route]
	if !ok {
		rm = &routeMetrics{Latencies: make([]int64, 0, 1000)}
		m.routes[route] = rm
	}
	rm.Total++
	if status >= 500 {
		rm.Errors++
	}
	rm.Latencies = appendWindow(rm.Latencies, latencyMs)
}

func appendWindow(window []int64, v int64) []int64 {
	if len(window) >= 1000 {
		window = window[1:]
	}
	return append(window, v)
}

// Middleware instruments every matched route
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := r.URL.Path
		if current := mux.CurrentRoute(r); current != nil {
			if tmpl, err := current.GetPathTemplate(); err == nil {
				route = tmpl
			}
		}
		m.record(route, r.Method, rec.status, time.Since(start).Milliseconds())
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Snapshot handles GET /metrics with a JSON summary
func (m *Metrics) Snapshot(w http.ResponseWriter, r *http.Request) {
	m.mu.RLock()
	uptime := time.Since(m.startTime).Seconds()
	total := m.totalRequests
	errors := m.errorRequests
	p50 := percentile(m.latencies, 0.50)
	p95 := percentile(m.latencies, 0.95)
	p99 := percentile(m.latencies, 0.99)

	routes := make(map[string]interface{}, len(m.routes))
	for route, rm := range m.routes {
		routes[route] = map[string]interface{}{
			"total_requests": rm.Total,
			"error_requests": rm.Errors,
			"p50_ms":         percentile(rm.Latencies, 0.50),
			"p95_ms":         percentile(rm.Latencies, 0.95),
			"p99_ms":         percentile(rm.Latencies, 0.99),
		}
	}
	m.mu.RUnlock()

	successRate := 100.0
	if total > 0 {
		successRate = float64(total-errors) * 100.0 / float64(total)
	}
	rps := 0.0
	if uptime > 0 {
		rps = float64(total) / uptime
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"server_metrics": map[string]interface{}{
			"uptime_seconds": uptime,
			"total_requests": total,
			"error_requests": errors,
			"success_rate":   successRate,
			"rps":            rps,
			"latency_p50_ms": p50,
			"latency_p95_ms": p95,
			"latency_p99_ms": p99,
		},
		"routes":    routes,
		"timestamp": time.Now().UTC(),
	})
}

func percentile(samples []int64, p float64) float64 {
	if len(samples) == 0 {
		return 0
	}

	sorted := make([]int64, len(samples))
	copy(sorted, samples)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	index := int(float64(len(sorted)) * p)
	if index >= len(sorted) {
		index = len(sorted) - 1
	}
	return float64(sorted[index])
}
