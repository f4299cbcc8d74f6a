// Package api provides the local HTTP API the UI shell talks to. It runs
// on localhost only; the remote record store has its own client under
// internal/remote.
package api

import (
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/shelfmark/shelfmark/internal/auth"
	"github.com/shelfmark/shelfmark/internal/http/response"
	"github.com/shelfmark/shelfmark/internal/metadata/openlibrary"
	"github.com/shelfmark/shelfmark/internal/search"
	"github.com/shelfmark/shelfmark/internal/service"
	"github.com/shelfmark/shelfmark/internal/store"
	"github.com/shelfmark/shelfmark/internal/sync"
	"github.com/shelfmark/shelfmark/internal/validation"
)

// Services groups the application services the API server depends on.
type Services struct {
	Book     *service.BookService
	Search   *search.Index
	Session  *sync.SessionController
	Auth     *auth.Manager
	Metadata *openlibrary.Client
	Bus      *sync.EventBus
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	store     *store.Store
	services  *Services
	router    *chi.Mux
	api       huma.API
	validator *validation.Validator
	logger    *slog.Logger
}

// NewServer creates the HTTP server with all routes configured.
func NewServer(st *store.Store, services *Services, logger *slog.Logger) *Server {
	s := &Server{
		store:     st,
		services:  services,
		router:    chi.NewRouter(),
		validator: validation.New(),
		logger:    logger,
	}

	s.setupMiddleware()

	config := huma.DefaultConfig("Shelfmark", "1.0.0")
	config.DocsPath = "/docs"
	s.api = humachi.New(s.router, config)
	RegisterErrorHandler()

	s.setupRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))

	// The UI shell is a local webview; allow it to reach the API.
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"http://localhost:*", "tauri://localhost", "capacitor://localhost"},
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))
}

func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealthCheck)

	s.registerBookRoutes()
	s.registerSearchRoutes()
	s.registerSessionRoutes()
	s.registerSyncRoutes()
	s.registerMetadataRoutes()
}

// handleHealthCheck reports server health.
func (s *Server) handleHealthCheck(w http.ResponseWriter, _ *http.Request) {
	response.Success(w, map[string]string{
		"status": "healthy",
	}, s.logger)
}
