package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/dvcrn/activity-dashboard/internal/credentials"
	"github.com/dvcrn/activity-dashboard/internal/dashboard"
)

// Session is the login state of the backend client.
type Session interface {
	Login(ctx context.Context, username, password string) error
	Logout() error
	Credentials() (credentials.Credentials, error)
	Refreshes() int
}

type Options struct {
	Session   Session
	Service   *dashboard.Service
	Store     credentials.Store
	AdminKey  string
	LoginPath string
	Logger    zerolog.Logger
}

type Server struct {
	session   Session
	service   *dashboard.Service
	store     credentials.Store
	adminKey  string
	loginPath string
	router    chi.Router
	logger    zerolog.Logger
}

func New(opts Options) *Server {
	s := &Server{
		session:   opts.Session,
		service:   opts.Service,
		store:     opts.Store,
		adminKey:  opts.AdminKey,
		loginPath: opts.LoginPath,
		router:    chi.NewRouter(),
		logger:    opts.Logger,
	}
	if s.loginPath == "" {
		s.loginPath = "/login"
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	r := s.router
	r.Use(middleware.Recoverer, s.loggingMiddleware, s.locationMiddleware)
	r.NotFound(s.notFoundHandler)

	r.Get("/health", s.healthHandler)
	r.Post("/login", s.loginHandler)
	r.Post("/logout", s.logoutHandler)

	r.Route("/creacion-entidades/{kind}", func(r chi.Router) {
		r.Get("/", s.listEntitiesHandler)
		r.Post("/", s.createEntityHandler)
		r.Delete("/{id}", s.deleteEntityHandler)
	})

	r.Route("/registro-personas", func(r chi.Router) {
		r.Get("/personas", s.searchPeopleHandler)
		r.Post("/personas", s.createPersonHandler)
		r.Post("/actividades", s.createActivityHandler)
		r.Post("/participaciones", s.registerParticipationHandler)
	})

	r.Get("/dashboard/stats/{view}", s.statsHandler)
	r.Get("/dashboard/actividades/{id}", s.activityDetailHandler)

	r.Post("/admin/credentials", s.adminMiddleware(s.credentialsHandler))
	r.Get("/admin/credentials/status", s.adminMiddleware(s.credentialsStatusHandler))
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		s.logger.Debug().
			Str("method", r.Method).
			Str("uri", r.RequestURI).
			Str("remote_addr", r.RemoteAddr).
			Str("user_agent", r.UserAgent()).
			Msg("Incoming request")
		next.ServeHTTP(ww, r)
		s.logger.Info().
			Str("method", r.Method).
			Str("uri", r.RequestURI).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Msg("Finished request")
	})
}

// locationMiddleware records where the caller is, so the refresh
// interceptor can decide whether an expired session sends it to login.
func (s *Server) locationMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		location := r.Header.Get("X-Client-Location")
		if location == "" {
			location = r.URL.Path
		}
		ctx := withRedirect(withLocation(r.Context(), location))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) notFoundHandler(w http.ResponseWriter, r *http.Request) {
	s.logger.Warn().
		Str("method", r.Method).
		Str("uri", r.RequestURI).
		Str("remote_addr", r.RemoteAddr).
		Str("user_agent", r.UserAgent()).
		Msg("Unhandled route")
	writeJSON(w, http.StatusNotFound, errorBody{Error: "not found"})
}
