package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"sync/atomic"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/Mr-Dark-debug/skydash/internal/database"
	"github.com/Mr-Dark-debug/skydash/pkg/timeutil"
)

// Ranges applied when a request carries no range parameter.
const (
	defaultHistoryRange = timeutil.Range7d
	defaultDiffRange    = timeutil.RangeToday
	defaultBankRange    = timeutil.Range30d
)

func (s *Server) handleTriggerCollect(w http.ResponseWriter, r *http.Request) {
	if s.collector == nil {
		s.writeError(w, http.StatusInternalServerError, "Collector is not configured.")
		return
	}

	id, started := s.jobs.start()
	if !started {
		writeJSON(w, http.StatusAccepted, map[string]string{
			"message": "Data collection already running.",
			"job_id":  id,
		})
		return
	}
	s.logger.Info("collection triggered", zap.String("job_id", id), zap.String("remote", r.RemoteAddr))
	writeJSON(w, http.StatusAccepted, map[string]string{
		"message": "Data collection started.",
		"job_id":  id,
	})
}

func (s *Server) handleLatestTimestamp(w http.ResponseWriter, r *http.Request) {
	ts, err := s.store.LatestSnapshotTimestamp()
	if err != nil {
		s.storageError(w, "latest snapshot", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]*int64{"latest_timestamp": ts})
}

func (s *Server) handleProfileStats(w http.ResponseWriter, r *http.Request) {
	ts, err := strconv.ParseInt(mux.Vars(r)["ts"], 10, 64)
	if err != nil {
		s.writeError(w, http.StatusNotFound, "Not found")
		return
	}

	stats, err := s.store.ProfileStats(ts)
	if errors.Is(err, database.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, "Stats not found")
		return
	}
	if err != nil {
		s.storageError(w, "profile stats", err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	category := mux.Vars(r)["category"]
	since := s.rangeStart(r, defaultHistoryRange)

	history, err := s.store.History(category, since)
	if database.IsUnknownCategory(err) {
		s.writeError(w, http.StatusNotFound, "Unknown category: "+category)
		return
	}
	if err != nil {
		s.storageError(w, "history", err)
		return
	}
	writeJSON(w, http.StatusOK, history)
}

func (s *Server) handleDiff(w http.ResponseWriter, r *http.Request) {
	category := mux.Vars(r)["category"]
	since := s.rangeStart(r, defaultDiffRange)

	progress, err := s.store.Progress(category, since)
	if database.IsUnknownCategory(err) {
		s.writeError(w, http.StatusNotFound, "Unknown category: "+category)
		return
	}
	if err != nil {
		s.storageError(w, "progress", err)
		return
	}
	if progress == nil {
		progress = []database.ProgressEntry{}
	}
	writeJSON(w, http.StatusOK, progress)
}

func (s *Server) handleBankTransactions(w http.ResponseWriter, r *http.Request) {
	txs, err := s.store.BankTransactions(s.rangeStart(r, defaultBankRange) * 1000)
	if err != nil {
		s.storageError(w, "bank transactions", err)
		return
	}
	if txs == nil {
		txs = []database.BankTransaction{}
	}
	writeJSON(w, http.StatusOK, txs)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	sum, err := s.store.Summary()
	if err != nil {
		s.storageError(w, "summary", err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

// rangeStart resolves the range query parameter to a unix lower bound.
func (s *Server) rangeStart(r *http.Request, def string) int64 {
	rng := r.URL.Query().Get("range")
	if rng == "" {
		rng = def
	}
	return timeutil.RangeStart(rng, s.now())
}

func (s *Server) storageError(w http.ResponseWriter, what string, err error) {
	s.logger.Error("storage query failed", zap.String("query", what), zap.Error(err))
	s.writeError(w, http.StatusInternalServerError, "Internal server error")
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	atomic.AddInt64(&s.metrics.ErrorCount, 1)
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// cors allows any origin, answering preflight requests directly.
func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
