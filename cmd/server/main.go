package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ErlanBelekov/jwt-auth/config"
	"github.com/ErlanBelekov/jwt-auth/internal/email"
	"github.com/ErlanBelekov/jwt-auth/internal/health"
	"github.com/ErlanBelekov/jwt-auth/internal/infrastructure/memory"
	"github.com/ErlanBelekov/jwt-auth/internal/infrastructure/postgres"
	ctxlog "github.com/ErlanBelekov/jwt-auth/internal/log"
	"github.com/ErlanBelekov/jwt-auth/internal/metrics"
	"github.com/ErlanBelekov/jwt-auth/internal/password"
	"github.com/ErlanBelekov/jwt-auth/internal/repository"
	"github.com/ErlanBelekov/jwt-auth/internal/token"
	httptransport "github.com/ErlanBelekov/jwt-auth/internal/transport/http"
	"github.com/ErlanBelekov/jwt-auth/internal/transport/http/handler"
	"github.com/ErlanBelekov/jwt-auth/internal/usecase"
	"github.com/gin-gonic/gin"
	"github.com/lmittmann/tint"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger := newLogger(cfg.Env, cfg.SlogLevel())

	if cfg.Env != "local" {
		gin.SetMode(gin.ReleaseMode)
	}
	if cfg.UsesDefaultSecret() {
		logger.Warn("SECRET_KEY is the built-in default; tokens can be forged by anyone who reads the source")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	// Users
	var (
		userRepo  repository.UserRepository
		storeName string
	)
	if cfg.DatabaseURL == "" {
		logger.Warn("DATABASE_URL not set, users are kept in memory")
		userRepo = memory.NewUserRepository()
		storeName = "memory"
	} else {
		pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			stop()
			log.Fatalf("db: %v", err)
		}
		defer pool.Close()

		if cfg.AutoMigrate {
			if err := postgres.Migrate(ctx, pool); err != nil {
				stop()
				pool.Close()
				log.Fatalf("migrate: %v", err)
			}
			logger.Info("migrations applied")
		}

		userRepo = postgres.NewUserRepository(pool)
		storeName = "postgres"
	}

	metrics.Register(prometheus.DefaultRegisterer)
	checker := health.NewChecker(storeName, userRepo, logger, prometheus.DefaultRegisterer)

	prober, err := health.NewProber(checker, cfg.HealthProbeSchedule, logger)
	if err != nil {
		stop()
		log.Fatalf("health prober: %v", err)
	}
	go prober.Start(ctx)

	// Credentials
	hasher, err := password.New(password.Options{
		Algorithm:  cfg.PasswordAlgorithm,
		BcryptCost: cfg.BcryptCost,
	})
	if err != nil {
		stop()
		log.Fatalf("password hasher: %v", err)
	}
	hashPool := password.NewPool(hasher, cfg.HashConcurrency)

	issuer, err := token.NewIssuer(token.Config{
		Secret: []byte(cfg.SecretKey),
		TTL:    cfg.AccessTokenTTL,
	})
	if err != nil {
		stop()
		log.Fatalf("token issuer: %v", err)
	}

	mailer := email.NewSender(cfg.Env, cfg.ResendAPIKey, cfg.ResendFrom, logger)
	authUsecase := usecase.NewAuthUsecase(userRepo, hashPool, issuer, mailer, logger)

	srv := http.Server{
		Addr: ":" + cfg.Port,
		Handler: httptransport.NewRouter(
			logger,
			handler.NewAuthHandler(authUsecase, logger),
			handler.NewHealthHandler(),
			issuer,
			userRepo,
		),
		ReadHeaderTimeout: 5 * time.Second,
	}

	metricsSrv := metrics.NewServer(":"+cfg.MetricsPort, checker)

	go func() {
		logger.Info("server started", "port", cfg.Port, "store", storeName, "password_algorithm", cfg.PasswordAlgorithm)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server: %v", err)
		}
	}()

	go func() {
		logger.Info("metrics server started", "port", cfg.MetricsPort)
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server", "error", err)
		}
	}()

	<-ctx.Done()
	stop()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", "error", err)
	}
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("metrics server shutdown", "error", err)
	}
}

func newLogger(env string, level slog.Level) *slog.Logger {
	var inner slog.Handler
	if env == "local" {
		inner = tint.NewHandler(os.Stdout, &tint.Options{
			Level:      level,
			TimeFormat: time.Kitchen,
		})
	} else {
		inner = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		})
	}
	return slog.New(ctxlog.NewContextHandler(inner))
}
