package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// Querier is the subset of *pgxpool.Pool the Postgres store uses.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Postgres reads records through the prepared statements registered by
// internal/db.
type Postgres struct {
	q Querier
}

// NewPostgres creates a Postgres-backed store.
func NewPostgres(q Querier) *Postgres {
	return &Postgres{q: q}
}

// GetUser returns a user by id.
func (p *Postgres) GetUser(ctx context.Context, id string) (*User, error) {
	var u User
	err := p.q.QueryRow(ctx, "user_by_id", id).Scan(&u.ID, &u.Name, &u.Role, &u.FCMToken, &u.CoachID)
	if err != nil {
		return nil, missing(err, "get user %s", id)
	}
	return &u, nil
}

// GetTrainingPlan returns a training plan by id.
func (p *Postgres) GetTrainingPlan(ctx context.Context, id string) (*TrainingPlan, error) {
	var tp TrainingPlan
	if err := p.q.QueryRow(ctx, "training_plan_by_id", id).Scan(&tp.ID, &tp.Name); err != nil {
		return nil, missing(err, "get training plan %s", id)
	}
	return &tp, nil
}

// GetAchievement returns an achievement definition by id.
func (p *Postgres) GetAchievement(ctx context.Context, id string) (*Achievement, error) {
	var a Achievement
	var icon *string
	if err := p.q.QueryRow(ctx, "achievement_by_id", id).Scan(&a.ID, &a.Name, &icon); err != nil {
		return nil, missing(err, "get achievement %s", id)
	}
	if icon != nil {
		a.Icon = *icon
	}
	return &a, nil
}

// GetNotification returns an in-app notification by id.
func (p *Postgres) GetNotification(ctx context.Context, id string) (*Notification, error) {
	var n Notification
	err := p.q.QueryRow(ctx, "notification_by_id", id).Scan(
		&n.ID, &n.ReceiverID, &n.Title, &n.Message, &n.Type, &n.SenderName, &n.Data,
	)
	if err != nil {
		return nil, missing(err, "get notification %s", id)
	}
	return &n, nil
}

// GetPlanAssignment returns a plan assignment by id.
func (p *Postgres) GetPlanAssignment(ctx context.Context, id string) (*PlanAssignment, error) {
	var a PlanAssignment
	err := p.q.QueryRow(ctx, "plan_assignment_by_id", id).Scan(
		&a.ID, &a.AthleteID, &a.PlanID, &a.AssignedBy, &a.Status,
	)
	if err != nil {
		return nil, missing(err, "get plan assignment %s", id)
	}
	return &a, nil
}

// GetActivityLog returns an activity log by id.
func (p *Postgres) GetActivityLog(ctx context.Context, id string) (*ActivityLog, error) {
	var l ActivityLog
	err := p.q.QueryRow(ctx, "activity_log_by_id", id).Scan(
		&l.ID, &l.AthleteID, &l.ActivityName, &l.Reps, &l.Duration, &l.CompletedAt,
	)
	if err != nil {
		return nil, missing(err, "get activity log %s", id)
	}
	return &l, nil
}

// GetUserAchievement returns an unlocked achievement record by id.
func (p *Postgres) GetUserAchievement(ctx context.Context, id string) (*UserAchievement, error) {
	var ua UserAchievement
	err := p.q.QueryRow(ctx, "user_achievement_by_id", id).Scan(&ua.ID, &ua.UserID, &ua.AchievementID)
	if err != nil {
		return nil, missing(err, "get user achievement %s", id)
	}
	return &ua, nil
}

// ActiveAssignments returns all plan assignments with status active.
func (p *Postgres) ActiveAssignments(ctx context.Context) ([]PlanAssignment, error) {
	rows, err := p.q.Query(ctx, "assignments_by_status", StatusActive)
	if err != nil {
		return nil, fmt.Errorf("query active assignments: %w", err)
	}
	defer rows.Close()

	var out []PlanAssignment
	for rows.Next() {
		var a PlanAssignment
		if err := rows.Scan(&a.ID, &a.AthleteID, &a.PlanID, &a.AssignedBy, &a.Status); err != nil {
			return nil, fmt.Errorf("scan assignment: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// UsersByRole returns all users with the given role.
func (p *Postgres) UsersByRole(ctx context.Context, role string) ([]User, error) {
	rows, err := p.q.Query(ctx, "users_by_role", role)
	if err != nil {
		return nil, fmt.Errorf("query users by role %s: %w", role, err)
	}
	defer rows.Close()

	var out []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Name, &u.Role, &u.FCMToken, &u.CoachID); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// LatestActivity returns the athlete's most recently completed activity.
func (p *Postgres) LatestActivity(ctx context.Context, athleteID string) (*ActivityLog, error) {
	var l ActivityLog
	err := p.q.QueryRow(ctx, "latest_activity", athleteID).Scan(
		&l.ID, &l.AthleteID, &l.ActivityName, &l.Reps, &l.Duration, &l.CompletedAt,
	)
	if err != nil {
		return nil, missing(err, "get latest activity for %s", athleteID)
	}
	return &l, nil
}

// missing turns pgx.ErrNoRows into a nil error; anything else is wrapped.
func missing(err error, format string, args ...any) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}
