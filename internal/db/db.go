// Package db provides a pgxpool-based connection pool with prepared statement
// registration and health checking.
package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/albapepper/coach-notify/internal/config"
)

// Pool wraps pgxpool.Pool with application-specific helpers.
type Pool struct {
	*pgxpool.Pool
}

// New creates and validates a new connection pool.
func New(ctx context.Context, cfg *config.Config) (*Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	poolCfg.MinConns = int32(cfg.DBPoolMinConns)
	poolCfg.MaxConns = int32(cfg.DBPoolMaxConns)
	poolCfg.MaxConnLifetime = cfg.DBPoolMaxLife
	poolCfg.MaxConnIdleTime = 5 * time.Minute

	// Register prepared statements on every new connection.
	poolCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return registerPreparedStatements(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	// Verify connectivity
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Pool{Pool: pool}, nil
}

// HealthCheck runs a trivial query to verify the database is reachable.
func (p *Pool) HealthCheck(ctx context.Context) error {
	var n int
	return p.QueryRow(ctx, "health_check").Scan(&n)
}

// Statements maps prepared statement names to SQL. The store layer refers to
// statements by name only.
var Statements = map[string]string{
	// Health
	"health_check": "SELECT 1",

	// Point reads
	"user_by_id":             "SELECT id, name, role, fcm_token, coach_id FROM users WHERE id = $1",
	"training_plan_by_id":    "SELECT id, name FROM training_plans WHERE id = $1",
	"achievement_by_id":      "SELECT id, name, icon FROM achievements WHERE id = $1",
	"notification_by_id":     "SELECT id, receiver_id, title, message, type, sender_name, data FROM notifications WHERE id = $1",
	"plan_assignment_by_id":  "SELECT id, athlete_id, plan_id, assigned_by, status FROM plan_assignments WHERE id = $1",
	"activity_log_by_id":     "SELECT id, athlete_id, activity_name, reps, duration, completed_at FROM activity_logs WHERE id = $1",
	"user_achievement_by_id": "SELECT id, user_id, achievement_id FROM user_achievements WHERE id = $1",

	// Filtered scans
	"assignments_by_status": "SELECT id, athlete_id, plan_id, assigned_by, status FROM plan_assignments WHERE status = $1 ORDER BY id",
	"users_by_role":         "SELECT id, name, role, fcm_token, coach_id FROM users WHERE role = $1 ORDER BY id",
	"latest_activity":       "SELECT id, athlete_id, activity_name, reps, duration, completed_at FROM activity_logs WHERE athlete_id = $1 ORDER BY completed_at DESC LIMIT 1",
}

// registerPreparedStatements registers all statements the store uses.
// Prepared statements eliminate parse overhead on every lookup.
func registerPreparedStatements(ctx context.Context, conn *pgx.Conn) error {
	for name, sql := range Statements {
		if _, err := conn.Prepare(ctx, name, sql); err != nil {
			return fmt.Errorf("prepare %q: %w", name, err)
		}
	}
	return nil
}
