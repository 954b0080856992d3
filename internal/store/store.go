// Package store reads the coaching application's records (users, plans,
// activity logs, achievements, in-app notifications). The notification
// service never writes through it.
//
// Point reads return (nil, nil) when the record does not exist. Deleted or
// dangling references are normal, not faults.
package store

import (
	"context"
	"time"
)

// Roles.
const (
	RoleAthlete = "athlete"
	RoleCoach   = "coach"
)

// StatusActive marks plan assignments that participate in daily reminders.
const StatusActive = "active"

// Collections, as named by the record_created trigger (table names).
const (
	CollectionNotifications    = "notifications"
	CollectionPlanAssignments  = "plan_assignments"
	CollectionActivityLogs     = "activity_logs"
	CollectionUserAchievements = "user_achievements"
)

// User is an athlete or coach. FCMToken is nil until the user registers a
// device, and again after they revoke it.
type User struct {
	ID       string
	Name     string
	Role     string
	FCMToken *string
	CoachID  *string
}

// Token returns the delivery token or "" when none is registered.
func (u *User) Token() string {
	if u == nil || u.FCMToken == nil {
		return ""
	}
	return *u.FCMToken
}

// TrainingPlan is looked up for display text only.
type TrainingPlan struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Achievement is looked up for display text only.
type Achievement struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Icon string `json:"icon"`
}

// PlanAssignment links an athlete to a training plan.
type PlanAssignment struct {
	ID         string
	AthleteID  string
	PlanID     string
	AssignedBy string
	Status     string
}

// ActivityLog is one completed workout. Reps and Duration (minutes) are
// optional.
type ActivityLog struct {
	ID           string
	AthleteID    string
	ActivityName string
	Reps         *int
	Duration     *int
	CompletedAt  time.Time
}

// UserAchievement records an unlocked achievement.
type UserAchievement struct {
	ID            string
	UserID        string
	AchievementID string
}

// Notification is an in-app notification row. Data is passed through to
// the push payload.
type Notification struct {
	ID         string
	ReceiverID string
	Title      string
	Message    string
	Type       string
	SenderName string
	Data       map[string]string
}

// Store is the read surface the notification pipeline needs.
type Store interface {
	GetUser(ctx context.Context, id string) (*User, error)
	GetTrainingPlan(ctx context.Context, id string) (*TrainingPlan, error)
	GetAchievement(ctx context.Context, id string) (*Achievement, error)

	GetNotification(ctx context.Context, id string) (*Notification, error)
	GetPlanAssignment(ctx context.Context, id string) (*PlanAssignment, error)
	GetActivityLog(ctx context.Context, id string) (*ActivityLog, error)
	GetUserAchievement(ctx context.Context, id string) (*UserAchievement, error)

	// ActiveAssignments returns every plan assignment with status active.
	ActiveAssignments(ctx context.Context) ([]PlanAssignment, error)
	// UsersByRole returns every user with the given role.
	UsersByRole(ctx context.Context, role string) ([]User, error)
	// LatestActivity returns the athlete's most recent activity log by
	// completion time, or nil if they never logged one.
	LatestActivity(ctx context.Context, athleteID string) (*ActivityLog, error)
}
