package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-redis/redis/v8"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/nippo-hq/nippo/pkg/api"
	"github.com/nippo-hq/nippo/pkg/auth"
	"github.com/nippo-hq/nippo/pkg/config"
	"github.com/nippo-hq/nippo/pkg/middleware"
	"github.com/nippo-hq/nippo/pkg/observability"
	"github.com/nippo-hq/nippo/pkg/storage"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.WithError(err).Fatal("failed to load configuration")
	}

	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(level)
	}

	if err := run(cfg, logger); err != nil {
		logger.WithError(err).Fatal("server exited with error")
	}
}

func run(cfg *config.Config, logger *logrus.Logger) error {
	db, err := storage.Open(cfg.Database.Path)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := storage.InitSchema(db); err != nil {
		return err
	}
	store := storage.NewStore(db)

	// Seed the default administrative account exactly once
	adminHash, err := auth.HashPassword(cfg.Auth.AdminPassword)
	if err != nil {
		return err
	}
	created, err := store.SeedAdmin(context.Background(),
		cfg.Auth.AdminUsername, adminHash, cfg.Auth.AdminEmail)
	if err != nil {
		return err
	}
	if created {
		logger.WithField("username", cfg.Auth.AdminUsername).
			Info("seeded default admin account")
	}

	sessionStore := auth.NewMemorySessionStore()
	sessions := auth.NewSessionManager(sessionStore, cfg.Auth.SessionTTL)
	metrics := observability.NewMetrics()

	loginLimiter, registerLimiter, limiterCleanup := buildLimiters(cfg, logger)

	server := api.NewServer(api.Options{
		Store:           store,
		Sessions:        sessions,
		Logger:          logger,
		Metrics:         metrics,
		LoginLimiter:    loginLimiter,
		RegisterLimiter: registerLimiter,
	})

	// Periodically drop expired sessions, prune stale rate-limit buckets
	// and keep the gauge honest
	scheduler := cron.New()
	if _, err := scheduler.AddFunc("@every "+cfg.Auth.SweepInterval.String(), func() {
		if removed := sessions.Sweep(); removed > 0 {
			logger.WithField("removed", removed).Debug("swept expired sessions")
		}
		limiterCleanup()
		metrics.ActiveSessions.Set(float64(sessionStore.Len()))
	}); err != nil {
		return err
	}
	scheduler.Start()
	defer scheduler.Stop()

	httpServer := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      server,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.WithField("addr", httpServer.Addr).Info("server listening")
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// buildLimiters picks the limiter backend: Redis-backed sliding windows
// when a Redis URL is configured, in-memory otherwise. The returned cleanup
// function prunes keys whose attempts have all aged out and is run on the
// maintenance schedule.
func buildLimiters(cfg *config.Config, logger *logrus.Logger) (middleware.Limiter, middleware.Limiter, func()) {
	loginCfg := &middleware.RateLimitConfig{
		MaxAttempts: cfg.RateLimit.LoginMaxAttempts,
		Window:      cfg.RateLimit.LoginWindow,
	}
	registerCfg := &middleware.RateLimitConfig{
		MaxAttempts: cfg.RateLimit.RegisterMaxAttempts,
		Window:      cfg.RateLimit.RegisterWindow,
	}

	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.WithError(err).Fatal("invalid redis URL")
		}
		client := redis.NewClient(opts)
		logger.WithField("addr", opts.Addr).Info("using redis-backed rate limiter")
		// Redis keys carry their own expiry; nothing to prune locally
		return middleware.NewDistributedRateLimiter(client, loginCfg, "ratelimit:login"),
			middleware.NewDistributedRateLimiter(client, registerCfg, "ratelimit:register"),
			func() {}
	}

	login := middleware.NewRateLimiter(loginCfg)
	register := middleware.NewRateLimiter(registerCfg)
	return login, register, func() {
		login.Cleanup()
		register.Cleanup()
	}
}
