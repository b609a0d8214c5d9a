package api

import (
	"log/slog"
	"net/http"

	"github.com/gafniasaf/bookgen/internal/config"
	"github.com/gafniasaf/bookgen/internal/pipeline"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server is the HTTP API server for bookgen.
type Server struct {
	router       chi.Router
	orchestrator *pipeline.Orchestrator
	log          *slog.Logger
	cfg          config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(orch *pipeline.Orchestrator, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		orchestrator: orch,
		log:          log,
		cfg:          cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/health", s.handleHealth)

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.APIKey, s.log))

		r.With(RateLimit(s.cfg.UploadRatePerMinute, s.log)).Post("/api/runs", s.handleSubmitRun)
		r.Get("/api/runs/{jobID}/status", s.handleRunStatus)
		r.Get("/api/runs/{jobID}/report", s.handleRunReport)
		r.Get("/api/runs/{jobID}/document", s.handleRunDocument)
		r.Get("/api/stats", s.handleStats)

		reports := http.StripPrefix("/reports/", http.FileServer(http.Dir(s.cfg.ReportDir)))
		r.Get("/reports/*", reports.ServeHTTP)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
