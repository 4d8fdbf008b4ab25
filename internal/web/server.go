package web

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/kozaktomas/campus-attendance/internal/config"
	"github.com/kozaktomas/campus-attendance/internal/database"
	"github.com/kozaktomas/campus-attendance/internal/events"
	"github.com/kozaktomas/campus-attendance/internal/logger"
	"github.com/kozaktomas/campus-attendance/internal/stats"
	"github.com/kozaktomas/campus-attendance/internal/web/handlers"
	"github.com/kozaktomas/campus-attendance/internal/web/middleware"
)

const apiTimeout = 60 * time.Second

// Deps are the services the HTTP API is built on.
type Deps struct {
	Ledger   handlers.Ledger
	Students database.StudentReader
	Enroller handlers.Enroller
	Stream   handlers.Streamer
	Roster   handlers.RosterSource
	Hub      *events.Hub
	Counters *stats.Counters
}

// Server represents the web server
type Server struct {
	config     *config.Config
	deps       Deps
	log        *logger.Logger
	router     *chi.Mux
	httpServer *http.Server

	// Cancelled on shutdown so open streams end instead of holding Shutdown.
	baseCtx    context.Context
	cancelBase context.CancelFunc
}

// NewServer creates a new web server
func NewServer(cfg *config.Config, deps Deps, log *logger.Logger) *Server {
	if deps.Counters == nil {
		deps.Counters = &stats.Counters{}
	}
	if deps.Hub == nil {
		deps.Hub = events.NewHub()
	}

	r := chi.NewRouter()
	baseCtx, cancelBase := context.WithCancel(context.Background())
	s := &Server{
		config:     cfg,
		deps:       deps,
		log:        log,
		router:     r,
		baseCtx:    baseCtx,
		cancelBase: cancelBase,
	}

	// Set up middleware stack
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(middleware.RequestLogger(log))
	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.CORS(cfg.Web.AllowedOrigins))
	r.Use(middleware.SecurityHeaders())

	s.setupRoutes()

	// WriteTimeout covers regular responses; streaming handlers lift it per request.
	s.httpServer = &http.Server{
		Addr:         cfg.Web.Addr(),
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: apiTimeout + 10*time.Second,
		IdleTimeout:  60 * time.Second,
		BaseContext:  func(net.Listener) context.Context { return s.baseCtx },
	}

	return s
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info("starting web server", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("shutting down web server")
	s.cancelBase()
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}
	return nil
}

// Router returns the chi router for testing
func (s *Server) Router() *chi.Mux {
	return s.router
}
