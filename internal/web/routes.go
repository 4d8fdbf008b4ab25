package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/kozaktomas/campus-attendance/internal/web/handlers"
	"github.com/kozaktomas/campus-attendance/internal/web/middleware"
	"github.com/kozaktomas/campus-attendance/internal/web/static"
)

func (s *Server) setupRoutes() {
	// Create handlers
	attendanceHandler := handlers.NewAttendanceHandler(s.deps.Ledger, s.deps.Students, s.log)
	studentsHandler := handlers.NewStudentsHandler(s.deps.Enroller, s.deps.Students, s.config.Enrollment.MaxUploadBytes, s.log)
	feedHandler := handlers.NewFeedHandler(s.deps.Stream, s.log)
	eventsHandler := handlers.NewEventsHandler(s.deps.Hub)
	diagnosticsHandler := handlers.NewDiagnosticsHandler(s.deps.Counters, s.deps.Roster, s.deps.Hub)

	// Feeds run one recognition loop each and hold the connection open.
	counters := s.deps.Counters
	feed := chi.Chain(
		middleware.LimitConcurrent(s.config.Recognition.MaxStreams, func(r *http.Request) {
			counters.StreamsRejected.Add(1)
			s.log.Warn("feed rejected, too many streams", "max", s.config.Recognition.MaxStreams)
		}),
		middleware.InFlight(&counters.ActiveStreams),
	).HandlerFunc(feedHandler.Stream)

	// Health check
	s.router.Get("/api/v1/health", handlers.HealthCheck)

	// API routes
	s.router.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(chiMiddleware.Timeout(apiTimeout))

			r.Get("/dashboard", attendanceHandler.Dashboard)
			r.Get("/attendance", attendanceHandler.List)
			r.Get("/attendance/export", attendanceHandler.Export)

			r.Get("/students", studentsHandler.List)
			r.Post("/students", studentsHandler.Create)

			r.Get("/diagnostics", diagnosticsHandler.Get)
		})

		// Long-lived streams
		r.Get("/events", eventsHandler.Stream)
		r.Method(http.MethodGet, "/feed", feed)
	})

	// Pages and short routes
	s.router.Get("/", static.Handler("dashboard.html"))
	s.router.Get("/live", static.Handler("live.html"))
	s.router.Get("/register", static.Handler("register.html"))
	s.router.Handle("/assets/*", http.StripPrefix("/assets/", http.FileServer(static.GetFileSystem())))
	s.router.With(chiMiddleware.Timeout(apiTimeout)).Post("/register", studentsHandler.Create)
	s.router.With(chiMiddleware.Timeout(apiTimeout)).Get("/export", attendanceHandler.Export)
	s.router.Method(http.MethodGet, "/video_feed", feed)
}
