// Package app wires the notification pipeline from configuration. Both
// commands build the same graph: pool → store (+cache) → sender →
// dispatcher → jobs.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/albapepper/coach-notify/internal/config"
	"github.com/albapepper/coach-notify/internal/db"
	"github.com/albapepper/coach-notify/internal/notifications"
	"github.com/albapepper/coach-notify/internal/push"
	"github.com/albapepper/coach-notify/internal/scheduler"
	"github.com/albapepper/coach-notify/internal/store"
)

// App holds the process-wide clients. Close releases them.
type App struct {
	Config     *config.Config
	Pool       *db.Pool
	Redis      *redis.Client
	Store      store.Store
	Sender     notifications.Sender
	Dispatcher *notifications.Dispatcher
	Jobs       *notifications.Jobs
}

// Build connects to Postgres (and Redis when configured) and assembles the
// pipeline.
func Build(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	pool, err := db.New(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	logger.Info("Database connected",
		"min_conns", cfg.DBPoolMinConns,
		"max_conns", cfg.DBPoolMaxConns)

	rdb, err := store.NewRedisClient(cfg.RedisURL)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	logger.Info("Lookup cache configured", "enabled", rdb != nil, "ttl", cfg.LookupCacheTTL)

	s := store.NewCached(store.NewPostgres(pool), rdb, cfg.LookupCacheTTL, logger)

	sender, err := push.New(ctx, cfg, logger)
	if err != nil {
		pool.Close()
		if rdb != nil {
			_ = rdb.Close()
		}
		return nil, err
	}

	dispatcher := notifications.NewDispatcher(s, sender, logger)
	jobs := notifications.NewJobs(s, dispatcher, cfg.InactivityThreshold, cfg.BatchConcurrency, logger)

	return &App{
		Config:     cfg,
		Pool:       pool,
		Redis:      rdb,
		Store:      s,
		Sender:     sender,
		Dispatcher: dispatcher,
		Jobs:       jobs,
	}, nil
}

// ScheduledJobs returns the cron bindings for the batch jobs.
func ScheduledJobs(cfg *config.Config) []scheduler.Job {
	return []scheduler.Job{
		{Name: notifications.JobDailyReminders, Spec: cfg.DailyReminderSchedule},
		{Name: notifications.JobInactivity, Spec: cfg.InactivitySchedule},
	}
}

// Close releases the database pool and Redis client.
func (a *App) Close() {
	if a.Redis != nil {
		_ = a.Redis.Close()
	}
	a.Pool.Close()
}
