// Package server implements the skydash backend: the JSON API the dashboard
// reads snapshots through, the collect trigger, and an optional collection
// schedule.
//
// Architecture:
//
//	Dashboard / CLI → HTTP (gorilla/mux) → Server → Store (SQLite)
//	                                        ↓
//	                                     jobRunner → Collector → Hypixel API
//
// At most one collection runs at a time, whether it was triggered over HTTP
// or by the schedule.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Mr-Dark-debug/skydash/internal/database"
)

// Collector takes one snapshot and returns its timestamp.
type Collector interface {
	Run(ctx context.Context) (int64, error)
}

// Config holds configuration for the backend server.
type Config struct {
	// Addr is the TCP address the HTTP API listens on.
	Addr string

	// CollectInterval schedules a collection every interval.
	// Zero disables the schedule.
	CollectInterval time.Duration

	// CollectTimeout bounds a single collection run.
	CollectTimeout time.Duration

	// ShutdownTimeout bounds the graceful HTTP shutdown.
	ShutdownTimeout time.Duration
}

// DefaultConfig returns sensible defaults for the backend.
func DefaultConfig() Config {
	return Config{
		Addr:            "127.0.0.1:5000",
		CollectTimeout:  2 * time.Minute,
		ShutdownTimeout: 5 * time.Second,
	}
}

// Server serves the snapshot API.
type Server struct {
	config    Config
	store     database.Store
	collector Collector
	logger    *zap.Logger

	jobs    *jobRunner
	metrics Metrics
	started time.Time
	handler http.Handler

	// now is swapped in tests to pin range boundaries.
	now func() time.Time
}

// New creates a server over store. collector may be nil, in which case
// collection requests fail with 500.
func New(cfg Config, store database.Store, collector Collector, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.CollectTimeout <= 0 {
		cfg.CollectTimeout = DefaultConfig().CollectTimeout
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = DefaultConfig().ShutdownTimeout
	}

	s := &Server{
		config:    cfg,
		store:     store,
		collector: collector,
		logger:    logger,
		started:   time.Now(),
		now:       time.Now,
	}
	s.jobs = newJobRunner(s.collect)
	s.handler = s.routes()
	return s
}

// Handler returns the HTTP handler with CORS and request accounting applied.
func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) routes() http.Handler {
	router := mux.NewRouter()
	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.writeError(w, http.StatusNotFound, "Not found")
	})
	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	router.HandleFunc("/health", s.handleHealth).Methods("GET")
	router.HandleFunc("/metrics", s.handlePrometheus).Methods("GET")

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/metrics", s.handleMetrics).Methods("GET")
	api.HandleFunc("/summary", s.handleSummary).Methods("GET")
	api.HandleFunc("/trigger_collect", s.handleTriggerCollect).Methods("POST")
	api.HandleFunc("/latest_snapshot_timestamp", s.handleLatestTimestamp).Methods("GET")
	api.HandleFunc("/profile_stats/{ts:-?[0-9]+}", s.handleProfileStats).Methods("GET")
	api.HandleFunc("/history/{category}", s.handleHistory).Methods("GET")
	api.HandleFunc("/diff/{category}", s.handleDiff).Methods("GET")
	api.HandleFunc("/bank_transactions", s.handleBankTransactions).Methods("GET")

	// CORS wraps the router so preflight requests never reach route matching.
	return s.countRequests(cors(router))
}

// Run serves the API until ctx is cancelled, running the collection
// schedule alongside when one is configured.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.config.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	g, ctx := errgroup.WithContext(ctx)
	s.jobs.setBase(ctx)

	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g.Go(func() error {
		s.logger.Info("skydash api listening", zap.String("addr", "http://"+ln.Addr().String()))
		if err := srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serving api: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if s.config.CollectInterval > 0 && s.collector != nil {
		g.Go(func() error {
			s.scheduleLoop(ctx)
			return nil
		})
	}

	err := g.Wait()
	s.jobs.wait()
	s.logger.Info("skydash api stopped")
	return err
}

// scheduleLoop starts a collection every CollectInterval. Ticks that land
// while a collection is still running are skipped.
func (s *Server) scheduleLoop(ctx context.Context) {
	ticker := time.NewTicker(s.config.CollectInterval)
	defer ticker.Stop()

	s.logger.Info("collection schedule enabled", zap.Duration("interval", s.config.CollectInterval))
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if id, started := s.jobs.start(); started {
				s.logger.Info("scheduled collection started", zap.String("job_id", id))
			} else {
				s.logger.Warn("scheduled collection skipped, previous run still active", zap.String("job_id", id))
			}
		}
	}
}

// collect runs one collection job and records its outcome.
func (s *Server) collect(ctx context.Context, id string) {
	atomic.AddInt64(&s.metrics.CollectionsStarted, 1)

	ctx, cancel := context.WithTimeout(ctx, s.config.CollectTimeout)
	defer cancel()

	start := time.Now()
	ts, err := s.collector.Run(ctx)
	if err != nil {
		atomic.AddInt64(&s.metrics.CollectionsFailed, 1)
		s.logger.Error("collection failed", zap.String("job_id", id), zap.Error(err))
		return
	}
	atomic.AddInt64(&s.metrics.CollectionsSucceeded, 1)
	atomic.StoreInt64(&s.metrics.LastSnapshot, ts)
	s.logger.Info("collection finished",
		zap.String("job_id", id),
		zap.Int64("snapshot", ts),
		zap.Duration("took", time.Since(start)),
	)
}
