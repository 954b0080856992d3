// Command notifier is the coaching push-notification service. It listens
// for newly created records, runs the scheduled reminder jobs and serves
// the admin API.
//
// Usage:
//
//	coach-notifier
//	PUSH_PROVIDER=fcm FIREBASE_CREDENTIALS_FILE=sa.json coach-notifier
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/albapepper/coach-notify/internal/api"
	"github.com/albapepper/coach-notify/internal/api/handler"
	"github.com/albapepper/coach-notify/internal/app"
	"github.com/albapepper/coach-notify/internal/config"
	"github.com/albapepper/coach-notify/internal/listener"
	"github.com/albapepper/coach-notify/internal/logging"
	"github.com/albapepper/coach-notify/internal/scheduler"
)

func main() {
	// Load .env if present
	_ = godotenv.Load(".env")

	logger := logging.New(os.Stdout, os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"))

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Context with signal handling
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logger.Info("Connecting to database...")
	a, err := app.Build(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	// LISTEN/NOTIFY consumer for newly created records
	var l *listener.Listener
	if cfg.ListenerEnabled {
		l = listener.New(cfg.DatabaseURL, a.Store, a.Dispatcher, logger)
		go l.Start(ctx)
	} else {
		logger.Info("Record listener disabled (LISTENER_ENABLED=false)")
	}

	// Cron-driven batch jobs
	sched, err := scheduler.New(a.Jobs, cfg.Location(), app.ScheduledJobs(cfg), logger)
	if err != nil {
		logger.Error("Failed to configure scheduler", "error", err)
		os.Exit(1)
	}
	schedDone := make(chan struct{})
	go func() {
		sched.Start(ctx)
		close(schedDone)
	}()

	router := api.NewRouter(handler.Deps{
		DB:         a.Pool,
		Store:      a.Store,
		Dispatcher: a.Dispatcher,
		Jobs:       a.Jobs,
		Schedule:   sched,
	}, cfg)

	addr := fmt.Sprintf("%s:%d", cfg.APIHost, cfg.APIPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 5 * time.Minute, // manual job runs are synchronous
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("Starting notifier admin API",
			"addr", addr,
			"environment", cfg.Environment,
			"push_provider", cfg.PushProvider,
			"timezone", cfg.ScheduleTimezone)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt
	<-ctx.Done()
	logger.Info("Shutting down...")

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Shutdown error", "error", err)
	}

	drained := make(chan struct{})
	go func() {
		<-schedDone
		if l != nil {
			l.Wait()
		}
		close(drained)
	}()
	select {
	case <-drained:
	case <-shutdownCtx.Done():
		logger.Warn("Timed out waiting for in-flight notifications")
	}
	logger.Info("Notifier stopped")
}
