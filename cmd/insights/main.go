// Admin analytics assistant HTTP service.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/handlers"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/corporate-insurance/insights/internal/assistant"
	"github.com/corporate-insurance/insights/internal/audit"
	"github.com/corporate-insurance/insights/internal/config"
	"github.com/corporate-insurance/insights/internal/llm"
	"github.com/corporate-insurance/insights/internal/policy"
	"github.com/corporate-insurance/insights/internal/server"
	"github.com/corporate-insurance/insights/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// logger config is not known yet
		zap.NewExample().Fatal("Failed to load configuration", zap.Error(err))
	}

	logger := newLogger(cfg)
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("Insights service stopped", zap.Error(err))
	}
}

func newLogger(cfg *config.Config) *zap.Logger {
	var logger *zap.Logger
	var err error
	if cfg.Log.Development {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("Starting insights service",
		zap.String("addr", cfg.Server.Addr),
		zap.String("db_driver", cfg.Database.Driver),
		zap.Bool("llm_enabled", cfg.LLMEnabled()),
		zap.Bool("rate_limit", cfg.RateLimit.Enabled))

	db, err := store.Open(ctx, cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return err
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := store.Migrate(ctx, db); err != nil {
			return err
		}
	}

	filter := policy.NewPromptFilter(logger)

	var planner *assistant.Planner
	if cfg.LLMEnabled() {
		client := llm.NewClient(llm.Config{
			BaseURL:     cfg.LLM.BaseURL,
			APIKey:      cfg.LLM.APIKey,
			Model:       cfg.LLM.Model,
			Temperature: cfg.LLM.Temperature,
			Timeout:     cfg.LLM.Timeout,
		}, logger)
		planner = assistant.NewPlanner(client, cfg.LLM.Timeout, logger, assistant.WithRedactor(filter))
	}
	svc := assistant.NewService(store.New(db, logger), planner, logger)

	var limiter *policy.RateLimiter
	if cfg.RateLimit.Enabled && cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			// the limiter fails open, keep serving
			logger.Warn("Redis unreachable, rate limiting will allow all requests", zap.Error(err))
		}
		limiter = policy.NewRateLimiter(policy.NewRedisCounter(rdb), cfg.RateLimit.PerMinute, logger)
	}

	var auditLog *audit.Logger
	if cfg.NATS.URL != "" {
		nc, err := nats.Connect(cfg.NATS.URL,
			nats.Name("insights"),
			nats.RetryOnFailedConnect(true),
			nats.MaxReconnects(10),
		)
		if err != nil {
			logger.Warn("NATS unavailable, audit events disabled", zap.Error(err))
		} else {
			defer nc.Drain()
			auditLog = audit.NewLogger(nc, audit.Config{Subject: cfg.NATS.Subject}, logger)
			// handlers outliving a timed out shutdown publish synchronously
			defer auditLog.Close()
		}
	}

	srv := server.New(server.Deps{
		Assistant: svc,
		JWTSecret: cfg.Auth.JWTSecret,
		Limiter:   limiter,
		Filter:    filter,
		Audit:     auditLog,
		Logger:    logger,
	})

	cors := handlers.CORS(
		handlers.AllowedOrigins(cfg.Server.AllowedOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
		handlers.AllowCredentials(),
	)
	recovery := handlers.RecoveryHandler(
		handlers.RecoveryLogger(zap.NewStdLog(logger.Named("panic"))),
		handlers.PrintRecoveryStack(false),
	)

	httpServer := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      recovery(cors(srv.Router())),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", zap.String("addr", cfg.Server.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP shutdown error", zap.Error(err))
	}
	logger.Info("Shutdown complete")
	return nil
}
