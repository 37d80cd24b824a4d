package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/opscale/warehouse-scheduler/internal/api/handler"
	mw "github.com/opscale/warehouse-scheduler/internal/api/middleware"
	"github.com/opscale/warehouse-scheduler/internal/core"
)

type Server struct {
	router   chi.Router
	logger   zerolog.Logger
	services *core.Services
	pool     *pgxpool.Pool
}

func NewServer(logger zerolog.Logger, pool *pgxpool.Pool, services *core.Services) *Server {
	s := &Server{
		router:   chi.NewRouter(),
		logger:   logger,
		services: services,
		pool:     pool,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(mw.RequestLogger(s.logger))
	s.router.Use(middleware.Recoverer)
	s.router.Use(mw.Metrics)
}

func (s *Server) setupRoutes() {
	// Prometheus metrics endpoint
	s.router.Handle("/metrics", promhttp.Handler())

	// Health check endpoints
	s.router.Get("/healthz", s.handleHealthz)
	s.router.Get("/readyz", s.handleReadyz)

	s.router.Route("/api/v1", func(r chi.Router) {
		// Schedules
		schedule := handler.NewSchedule(s.services.Schedule)
		r.Get("/schedules", schedule.List)
		r.Get("/warehouses/{name}/schedules", schedule.GetWarehouse)
		r.Get("/warehouses/{name}/schedules/{dayClass}", schedule.GetDay)
		r.Get("/warehouses/{name}/schedules/{dayClass}/entry", schedule.GetEntry)
		r.Post("/warehouses/{name}/schedules/{dayClass}", schedule.Create)
		r.Put("/schedules/{id}", schedule.Update)
		r.Delete("/schedules/{id}", schedule.Delete)

		// Warehouse-level operations
		r.Post("/warehouses/{name}/enabled", schedule.SetEnabled)
		r.Post("/warehouses/{name}/reset", schedule.Reset)
		r.Post("/warehouses/{name}/defaults", schedule.CreateDefaults)

		// Reconciler run log
		runLog := handler.NewRunLog(s.services.RunLog)
		r.Get("/runs", runLog.List)

		// Settings
		settings := handler.NewSettings(s.services.Settings)
		r.Get("/settings/{key}", settings.Get)
		r.Put("/settings/{key}", settings.Put)
	})
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	checks := map[string]string{}
	healthy := true

	if err := s.pool.Ping(ctx); err != nil {
		checks["db"] = err.Error()
		healthy = false
	} else {
		checks["db"] = "ok"
	}

	w.Header().Set("Content-Type", "application/json")
	if healthy {
		w.WriteHeader(http.StatusOK)
	} else {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	json.NewEncoder(w).Encode(checks)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
