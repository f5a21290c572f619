package server

import (
	"fmt"
	"net/http"
	"sync/atomic"
	"time"
)

// Metrics tracks API traffic and collection outcomes.
type Metrics struct {
	Requests             int64  `json:"requests_total"`
	ErrorCount           int64  `json:"error_count"`
	CollectionsStarted   int64  `json:"collections_started"`
	CollectionsSucceeded int64  `json:"collections_succeeded"`
	CollectionsFailed    int64  `json:"collections_failed"`
	LastSnapshot         int64  `json:"last_snapshot"`
	CollectionRunning    bool   `json:"collection_running"`
	RunningJob           string `json:"running_job,omitempty"`
	Uptime               int64  `json:"uptime_seconds"`
}

// Metrics returns a snapshot of the current counters.
func (s *Server) Metrics() Metrics {
	running := s.jobs.running()
	return Metrics{
		Requests:             atomic.LoadInt64(&s.metrics.Requests),
		ErrorCount:           atomic.LoadInt64(&s.metrics.ErrorCount),
		CollectionsStarted:   atomic.LoadInt64(&s.metrics.CollectionsStarted),
		CollectionsSucceeded: atomic.LoadInt64(&s.metrics.CollectionsSucceeded),
		CollectionsFailed:    atomic.LoadInt64(&s.metrics.CollectionsFailed),
		LastSnapshot:         atomic.LoadInt64(&s.metrics.LastSnapshot),
		CollectionRunning:    running != "",
		RunningJob:           running,
		Uptime:               int64(time.Since(s.started).Seconds()),
	}
}

func (s *Server) countRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&s.metrics.Requests, 1)
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handlePrometheus serves the counters in Prometheus text format.
func (s *Server) handlePrometheus(w http.ResponseWriter, r *http.Request) {
	m := s.Metrics()
	running := 0
	if m.CollectionRunning {
		running = 1
	}

	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	fmt.Fprintf(w, "# HELP skydash_requests_total Total API requests\n")
	fmt.Fprintf(w, "# TYPE skydash_requests_total counter\n")
	fmt.Fprintf(w, "skydash_requests_total %d\n", m.Requests)
	fmt.Fprintf(w, "# HELP skydash_errors_total Total error responses\n")
	fmt.Fprintf(w, "# TYPE skydash_errors_total counter\n")
	fmt.Fprintf(w, "skydash_errors_total %d\n", m.ErrorCount)
	fmt.Fprintf(w, "# HELP skydash_collections_started_total Collections started\n")
	fmt.Fprintf(w, "# TYPE skydash_collections_started_total counter\n")
	fmt.Fprintf(w, "skydash_collections_started_total %d\n", m.CollectionsStarted)
	fmt.Fprintf(w, "# HELP skydash_collections_succeeded_total Collections that stored a snapshot\n")
	fmt.Fprintf(w, "# TYPE skydash_collections_succeeded_total counter\n")
	fmt.Fprintf(w, "skydash_collections_succeeded_total %d\n", m.CollectionsSucceeded)
	fmt.Fprintf(w, "# HELP skydash_collections_failed_total Collections that failed\n")
	fmt.Fprintf(w, "# TYPE skydash_collections_failed_total counter\n")
	fmt.Fprintf(w, "skydash_collections_failed_total %d\n", m.CollectionsFailed)
	fmt.Fprintf(w, "# HELP skydash_collection_running Whether a collection is in progress\n")
	fmt.Fprintf(w, "# TYPE skydash_collection_running gauge\n")
	fmt.Fprintf(w, "skydash_collection_running %d\n", running)
	fmt.Fprintf(w, "# HELP skydash_last_snapshot_timestamp Unix time of the last stored snapshot\n")
	fmt.Fprintf(w, "# TYPE skydash_last_snapshot_timestamp gauge\n")
	fmt.Fprintf(w, "skydash_last_snapshot_timestamp %d\n", m.LastSnapshot)
	fmt.Fprintf(w, "# HELP skydash_uptime_seconds Uptime in seconds\n")
	fmt.Fprintf(w, "# TYPE skydash_uptime_seconds gauge\n")
	fmt.Fprintf(w, "skydash_uptime_seconds %d\n", m.Uptime)
}

// handleMetrics serves the counters as JSON for programmatic access.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Metrics())
}
