package notifications

import (
	"context"
	"fmt"

	"github.com/albapepper/coach-notify/internal/store"
)

// Kind names an event variant in logs and metrics.
type Kind string

const (
	KindNotificationCreated Kind = "notification_created"
	KindPlanAssigned        Kind = "plan_assigned"
	KindWorkoutCompleted    Kind = "workout_completed"
	KindAchievementUnlocked Kind = "achievement_unlocked"
)

// Event is one newly created record that should produce a push. The set of
// variants is closed: NotificationCreated, PlanAssigned, WorkoutCompleted,
// AchievementUnlocked.
type Event interface {
	Kind() Kind
	EventID() string
	isEvent()
}

// NotificationCreated is an in-app notification mirrored to push.
type NotificationCreated struct {
	ID         string
	ReceiverID string
	Title      string
	Message    string
	Category   Category
	SenderName string
	Data       map[string]string
}

// PlanAssigned fires when a coach assigns a training plan to an athlete.
type PlanAssigned struct {
	ID         string
	AthleteID  string
	PlanID     string
	AssignedBy string
}

// WorkoutCompleted fires when an athlete logs an activity. It notifies the
// athlete's coach. Zero Reps or Duration means not recorded.
type WorkoutCompleted struct {
	ID           string
	AthleteID    string
	ActivityName string
	Reps         int
	Duration     int
}

// AchievementUnlocked fires when a user earns an achievement.
type AchievementUnlocked struct {
	ID            string
	UserID        string
	AchievementID string
}

func (e NotificationCreated) Kind() Kind { return KindNotificationCreated }
func (e PlanAssigned) Kind() Kind        { return KindPlanAssigned }
func (e WorkoutCompleted) Kind() Kind    { return KindWorkoutCompleted }
func (e AchievementUnlocked) Kind() Kind { return KindAchievementUnlocked }

func (e NotificationCreated) EventID() string { return e.ID }
func (e PlanAssigned) EventID() string        { return e.ID }
func (e WorkoutCompleted) EventID() string    { return e.ID }
func (e AchievementUnlocked) EventID() string { return e.ID }

func (NotificationCreated) isEvent() {}
func (PlanAssigned) isEvent()        {}
func (WorkoutCompleted) isEvent()    {}
func (AchievementUnlocked) isEvent() {}

// LoadEvent reads a newly created record and converts it to its event
// variant. Returns (nil, nil) when the record no longer exists.
func LoadEvent(ctx context.Context, s store.Store, collection, id string) (Event, error) {
	switch collection {
	case store.CollectionNotifications:
		n, err := s.GetNotification(ctx, id)
		if err != nil || n == nil {
			return nil, storeErr("load notification", err)
		}
		return NotificationCreated{
			ID:         n.ID,
			ReceiverID: n.ReceiverID,
			Title:      n.Title,
			Message:    n.Message,
			Category:   Category(n.Type),
			SenderName: n.SenderName,
			Data:       n.Data,
		}, nil

	case store.CollectionPlanAssignments:
		a, err := s.GetPlanAssignment(ctx, id)
		if err != nil || a == nil {
			return nil, storeErr("load plan assignment", err)
		}
		return PlanAssigned{ID: a.ID, AthleteID: a.AthleteID, PlanID: a.PlanID, AssignedBy: a.AssignedBy}, nil

	case store.CollectionActivityLogs:
		l, err := s.GetActivityLog(ctx, id)
		if err != nil || l == nil {
			return nil, storeErr("load activity log", err)
		}
		return WorkoutCompleted{
			ID:           l.ID,
			AthleteID:    l.AthleteID,
			ActivityName: l.ActivityName,
			Reps:         deref(l.Reps),
			Duration:     deref(l.Duration),
		}, nil

	case store.CollectionUserAchievements:
		ua, err := s.GetUserAchievement(ctx, id)
		if err != nil || ua == nil {
			return nil, storeErr("load user achievement", err)
		}
		return AchievementUnlocked{ID: ua.ID, UserID: ua.UserID, AchievementID: ua.AchievementID}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownCollection, collection)
}

func deref(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}
