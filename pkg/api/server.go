// Package api provides the HTTP surface of nippo: login, registration,
// session lifecycle, and the guarded project/report endpoints.
package api

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/nippo-hq/nippo/pkg/auth"
	"github.com/nippo-hq/nippo/pkg/middleware"
	"github.com/nippo-hq/nippo/pkg/observability"
	"github.com/nippo-hq/nippo/pkg/storage"
)

// Server is the HTTP API server
type Server struct {
	router   *mux.Router
	handler  http.Handler
	store    *storage.Store
	sessions *auth.SessionManager
	logger   *logrus.Logger
	metrics  *observability.Metrics

	loginLimiter    middleware.Limiter
	registerLimiter middleware.Limiter
}

// Options configures a Server
type Options struct {
	Store    *storage.Store
	Sessions *auth.SessionManager
	Logger   *logrus.Logger
	Metrics  *observability.Metrics

	// Limiters guarding the two auth endpoints
	LoginLimiter    middleware.Limiter
	RegisterLimiter middleware.Limiter
}

// NewServer creates the API server and sets up all routes
func NewServer(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = logrus.New()
	}

	s := &Server{
		router:          mux.NewRouter(),
		store:           opts.Store,
		sessions:        opts.Sessions,
		logger:          opts.Logger,
		metrics:         opts.Metrics,
		loginLimiter:    opts.LoginLimiter,
		registerLimiter: opts.RegisterLimiter,
	}

	s.setupRoutes()
	s.handler = middleware.Recovery(s.logger,
		middleware.RequestLogging(s.logger, s.router))
	return s
}

func (s *Server) setupRoutes() {
	if s.metrics != nil {
		s.router.Use(middleware.HTTPMetrics(s.metrics))
	}

	guard := middleware.NewSessionAuth(s.sessions)
	api := s.router.PathPrefix("/api").Subrouter()

	// Auth endpoints: rate limited, no session required
	api.Handle("/login",
		middleware.RateLimit(s.countThrottled("login", s.loginLimiter), http.HandlerFunc(s.login))).Methods("POST")
	api.Handle("/register",
		middleware.RateLimit(s.countThrottled("register", s.registerLimiter), http.HandlerFunc(s.register))).Methods("POST")

	// Session endpoints
	api.Handle("/logout", guard.Handler(http.HandlerFunc(s.logout))).Methods("POST")
	api.Handle("/user", guard.Handler(http.HandlerFunc(s.currentUser))).Methods("GET")

	// Project endpoints: every data path passes through the guard
	api.Handle("/projects", guard.Handler(http.HandlerFunc(s.listProjects))).Methods("GET")
	api.Handle("/projects", guard.Handler(http.HandlerFunc(s.createProject))).Methods("POST")
	api.Handle("/projects/{id}", guard.Handler(http.HandlerFunc(s.updateProject))).Methods("PUT")

	// Report endpoints
	api.Handle("/projects/{id}/reports", guard.Handler(http.HandlerFunc(s.listReports))).Methods("GET")
	api.Handle("/projects/{id}/reports", guard.Handler(http.HandlerFunc(s.createReport))).Methods("POST")

	// Operational endpoints
	health := observability.NewHealthChecker(s.store.DB())
	s.router.HandleFunc("/healthz", health.Handler).Methods("GET")
	if s.metrics != nil {
		s.router.Handle("/metrics", s.metrics.Handler()).Methods("GET")
	}
}

// countThrottled wraps a limiter so rejected attempts show up in the
// throttle counter. Limiter errors pass through untouched.
func (s *Server) countThrottled(bucket string, limiter middleware.Limiter) middleware.Limiter {
	if s.metrics == nil {
		return limiter
	}
	return limiterFunc(func(ctx context.Context, key string) (bool, error) {
		allowed, err := limiter.Allow(ctx, key)
		if err == nil && !allowed {
			s.metrics.ThrottledTotal.WithLabelValues(bucket).Inc()
		}
		return allowed, err
	})
}

type limiterFunc func(ctx context.Context, key string) (bool, error)

func (f limiterFunc) Allow(ctx context.Context, key string) (bool, error) {
	return f(ctx, key)
}

// ServeHTTP implements http.Handler. The recovery and request-logging chain
// around the router is composed once at construction.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}
