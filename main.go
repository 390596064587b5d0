package main

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fixmycity/fixmycity/internal/config"
	"github.com/fixmycity/fixmycity/internal/handler"
	"github.com/fixmycity/fixmycity/internal/repository/sqlite"
	"github.com/fixmycity/fixmycity/internal/service"
)

func main() {
	logOpts := &slog.HandlerOptions{Level: slog.LevelInfo}
	logger := slog.New(slog.NewMultiHandler(
		slog.NewTextHandler(os.Stdout, logOpts),
		slog.NewJSONHandler(os.Stderr, logOpts),
	))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	if cfg.DemoMode {
		slog.Warn("demo mode enabled: the bypass code is accepted for every verification")
	}

	db, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Migrate(context.Background()); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("database migrations applied")

	directory := service.NewDirectory(db.Records(), cfg.BcryptCost, service.DemoAccounts())
	if err := directory.Initialize(context.Background()); err != nil {
		slog.Error("failed to initialize identity directory", "error", err)
		os.Exit(1)
	}

	issueService := service.NewIssueService(db.Issues())
	if cfg.SeedIssues {
		// Idempotent: skipped once any issue exists.
		if err := issueService.SeedMockIssues(context.Background()); err != nil {
			slog.Error("failed to seed issues", "error", err)
			os.Exit(1)
		}
	}

	notifications := service.NewNotificationCenter()
	sessions := service.NewSessions(service.SessionDeps{
		Directory: directory,
		Issuer:    service.NewOTPIssuer(cfg.DemoMode),
		Store:     db.Records(),
		Notifier:  notifications,
		Latency:   cfg.SimulatedLatency,
	}, cfg.SessionIdleTTL, notifications.Forget)
	authLimiter := service.NewTokenBucket(float64(cfg.AuthRatePerMin)/60, float64(cfg.AuthRateBurst))

	// Graceful shutdown on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go sessions.Run(ctx, time.Minute)
	go authLimiter.Run(ctx)

	mux := http.NewServeMux()
	handler.RegisterRoutes(mux, handler.Deps{
		Tokens:        service.NewClientTokens(cfg.JWTSecret),
		Sessions:      sessions,
		Notifications: notifications,
		Issues:        issueService,
		AuthLimiter:   authLimiter,
		CookieSecure:  cfg.CookieSecure,
		DemoMode:      cfg.DemoMode,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler.SecurityHeaders(mux),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1MB
		// Request contexts end with the signal so open notification streams
		// do not hold up shutdown.
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	go func() {
		slog.Info("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}
