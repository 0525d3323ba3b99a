package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"job-search-mas/internal/application"
	"job-search-mas/internal/config"
)

const serviceName = "job-search-mas"

// HealthCheck reports whether a dependency is reachable.
type HealthCheck func(ctx context.Context) error

// Server exposes the facade over HTTP.
type Server struct {
	facade application.Facade
	cfg    config.AppConfig
	checks map[string]HealthCheck
	log    *zerolog.Logger
	srv    *http.Server
}

func NewServer(facade application.Facade, cfg config.AppConfig, logger *zerolog.Logger) *Server {
	l := logger.With().Str("component", "HTTPServer").Logger()
	return &Server{
		facade: facade,
		cfg:    cfg,
		checks: map[string]HealthCheck{},
		log:    &l,
		srv: &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// WithHealthCheck adds a dependency check reported by /health.
func (s *Server) WithHealthCheck(name string, check HealthCheck) *Server {
	if check != nil {
		s.checks[name] = check
	}
	return s
}

// Routes builds the router. Workflow endpoints run under the request timeout.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chiMiddleware.RealIP)
	r.Use(TraceID())
	r.Use(Recover(s.log))
	r.Use(RequestLog(s.log))
	r.Use(CORS())

	r.Get("/", s.handleRoot)
	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	workflow := Timeout(s.cfg.RequestTimeout)
	r.Route("/api", func(r chi.Router) {
		r.With(workflow).Post("/tasks", s.handleCreateTask)

		r.Get("/sessions/{sessionID}", s.handleGetSession)
		r.Delete("/sessions/{sessionID}", s.handleDeleteSession)

		r.Get("/users/{userID}/applications", s.handleUserApplications)
		r.Get("/users/{userID}/metrics", s.handleUserMetrics)
		r.Patch("/applications/{applicationID}/status", s.handleApplicationStatus)

		r.Route("/resume", func(r chi.Router) {
			r.Post("/upload", s.handleResumeUpload)
			r.Post("/parse", s.handleResumeParse)
			r.With(workflow).Post("/full-journey", s.handleFullJourney)
		})

		r.Get("/jobs/similar", s.handleSimilarJobs)
	})
	return r
}

// Start blocks serving on the configured port until Shutdown.
func (s *Server) Start() error {
	s.srv.Handler = s.Routes()
	s.log.Info().Int("port", s.cfg.HTTPPort).Msg("http server listening")
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func (s *Server) maxUploadBytes() int64 {
	if s.cfg.MaxUploadMB > 0 {
		return int64(s.cfg.MaxUploadMB) << 20
	}
	return 10 << 20
}
