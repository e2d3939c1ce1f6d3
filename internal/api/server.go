package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/smartconfig/configurator-engine/internal/cache"
	"github.com/smartconfig/configurator-engine/internal/catalog"
	"github.com/smartconfig/configurator-engine/internal/config"
	"github.com/smartconfig/configurator-engine/internal/session"
	"github.com/smartconfig/configurator-engine/internal/storage"
)

// Server represents the HTTP API server
type Server struct {
	config         config.ServerConfig
	router         *chi.Mux
	sessions       *session.Manager
	catalogSrc     catalog.Source
	cache          *cache.Cache // optional
	repo           storage.Repository
	hub            *Hub
	defaultLocale  string
	authMiddleware *AuthMiddleware
}

// NewServer creates a new API server
func NewServer(
	cfg config.ServerConfig,
	sessions *session.Manager,
	src catalog.Source,
	c *cache.Cache,
	repo storage.Repository,
	hub *Hub,
	defaultLocale string,
) *Server {
	s := &Server{
		config:         cfg,
		sessions:       sessions,
		catalogSrc:     src,
		cache:          c,
		repo:           repo,
		hub:            hub,
		defaultLocale:  defaultLocale,
		authMiddleware: NewAuthMiddleware(repo),
	}
	s.setupRouter()
	return s
}

// Router returns the configured router
func (s *Server) Router() http.Handler {
	return s.router
}

// setupRouter configures all routes and middleware
func (s *Server) setupRouter() {
	r := chi.NewRouter()

	// Middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// CORS configuration
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check (outside versioned API - public)
	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)

	// API v1 routes (protected by authentication)
	r.Route("/api/v1", func(r chi.Router) {
		// Apply authentication middleware to all /api/v1/* routes
		r.Use(s.authMiddleware.Authenticate)

		// Catalog pass-through
		r.Route("/catalog", func(r chi.Router) {
			r.Use(s.authMiddleware.RequirePermission("catalog:read"))
			r.Get("/industries", s.handleListIndustries)
			r.Get("/families", s.handleListFamilies)
			r.Get("/controllers", s.handleListControllers)
			r.Get("/robots", s.handleListRobots)
			r.Get("/robots/{id}", s.handleGetRobot)
			r.Get("/robots/{id}/accessories", s.handleRobotAccessories)
		})

		// Sessions
		r.Route("/sessions", func(r chi.Router) {
			r.With(s.authMiddleware.RequirePermission("sessions:write")).Post("/", s.handleCreateSession)

			r.Route("/{id}", func(r chi.Router) {
				read := s.authMiddleware.RequirePermission("sessions:read")
				write := s.authMiddleware.RequirePermission("sessions:write")

				r.With(read).Get("/", s.handleGetSession)
				r.With(write).Delete("/", s.handleDeleteSession)

				r.With(write).Post("/mode", s.handleSetMode)
				r.With(write).Post("/language", s.handleSetLanguage)
				r.With(write).Post("/industry", s.handleSelectIndustry)
				r.With(write).Post("/family", s.handleSelectFamily)
				r.With(write).Post("/robot", s.handleSelectRobot)
				r.With(write).Delete("/robot", s.handleClearRobot)
				r.With(write).Post("/controller", s.handleSelectController)
				r.With(write).Post("/accessories/toggle", s.handleToggleAccessory)
				r.With(write).Post("/accessories/quantity", s.handleSetAccessoryQuantity)

				r.With(write).Put("/filters", s.handleUpdateFilters)
				r.With(write).Post("/filters/apply", s.handleApplyFilters)
				r.With(write).Post("/filters/reset", s.handleResetFilters)

				r.With(read).Get("/families", s.handleSessionFamilies)
				r.With(read).Get("/robots", s.handleSessionRobots)
				r.With(read).Get("/ranges", s.handleSessionRanges)

				r.With(write).Post("/confirm", s.handleConfirm)
				r.With(write).Delete("/cart/{index}", s.handleRemoveCartItem)
				r.With(write).Delete("/cart", s.handleClearCart)
				r.With(write).Post("/submit", s.handleSubmit)

				r.With(write).Post("/back", s.handleBack)
				r.With(write).Post("/reset", s.handleReset)
				r.With(write).Put("/step", s.handleSetStep)

				r.With(read).Get("/stream", s.handleSessionStream)
			})
		})
	})

	s.router = r
}

// loggingMiddleware logs HTTP requests using slog
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			slog.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", middleware.GetReqID(r.Context()),
				"remote_addr", r.RemoteAddr,
			)
		}()

		next.ServeHTTP(ww, r)
	})
}
