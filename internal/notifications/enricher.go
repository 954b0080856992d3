package notifications

import (
	"context"
	"log/slog"

	"github.com/albapepper/coach-notify/internal/store"
)

// Enricher fetches the related records needed for human-readable text.
// Display lookups never fail: a missing record or a read fault substitutes
// the field's default. The only hard precondition is the assigned coach of
// a workout-completion event.
type Enricher struct {
	store    store.Store
	resolver *Resolver
	logger   *slog.Logger
}

// NewEnricher creates an Enricher.
func NewEnricher(s store.Store, r *Resolver, logger *slog.Logger) *Enricher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Enricher{store: s, resolver: r, logger: logger}
}

// PlanContext is the display context of a plan assignment.
type PlanContext struct {
	PlanName  string
	CoachName string
}

// WorkoutContext is the display context and recipient of a workout
// completion.
type WorkoutContext struct {
	AthleteName string
	Coach       Profile
}

// AchievementContext is the display context of an unlocked achievement.
type AchievementContext struct {
	Name string
	Icon string
}

// PlanAssignment resolves the plan name and the assigning coach's name.
func (e *Enricher) PlanAssignment(ctx context.Context, planID, assignerID string) PlanContext {
	pc := PlanContext{
		PlanName:  e.planName(ctx, planID, DefaultPlanName),
		CoachName: DefaultCoachName,
	}
	coach, err := e.resolver.Resolve(ctx, assignerID)
	if err != nil {
		e.logger.Warn("Assigner lookup failed, using default", "user_id", assignerID, "error", err)
	} else if coach.DisplayName != "" {
		pc.CoachName = coach.DisplayName
	}
	return pc
}

// ReminderPlanName resolves the plan name used by the daily reminder.
func (e *Enricher) ReminderPlanName(ctx context.Context, planID string) string {
	return e.planName(ctx, planID, DefaultReminderPlan)
}

// WorkoutCompletion resolves the athlete's assigned coach as recipient.
// Returns ErrNoAssignedCoach when the athlete (or their coach link) is
// missing and ErrCoachHasNoToken when the coach cannot be reached.
func (e *Enricher) WorkoutCompletion(ctx context.Context, athleteID string) (WorkoutContext, error) {
	athlete, err := e.resolver.Resolve(ctx, athleteID)
	if err != nil {
		return WorkoutContext{}, err
	}
	if athlete.CoachID == "" {
		return WorkoutContext{}, ErrNoAssignedCoach
	}

	coach, err := e.resolver.Resolve(ctx, athlete.CoachID)
	if err != nil {
		return WorkoutContext{}, err
	}

	wc := WorkoutContext{AthleteName: athlete.DisplayName, Coach: coach}
	if wc.AthleteName == "" {
		wc.AthleteName = DefaultAthleteName
	}
	if !coach.Reachable() {
		return wc, ErrCoachHasNoToken
	}
	return wc, nil
}

// Achievement resolves the achievement's name and icon.
func (e *Enricher) Achievement(ctx context.Context, achievementID string) AchievementContext {
	ac := AchievementContext{Name: DefaultAchievementName, Icon: DefaultAchievementIcon}
	if achievementID == "" {
		return ac
	}
	a, err := e.store.GetAchievement(ctx, achievementID)
	if err != nil {
		e.logger.Warn("Achievement lookup failed, using default", "achievement_id", achievementID, "error", err)
		return ac
	}
	if a == nil {
		return ac
	}
	if a.Name != "" {
		ac.Name = a.Name
	}
	if a.Icon != "" {
		ac.Icon = a.Icon
	}
	return ac
}

func (e *Enricher) planName(ctx context.Context, planID, fallback string) string {
	if planID == "" {
		return fallback
	}
	plan, err := e.store.GetTrainingPlan(ctx, planID)
	if err != nil {
		e.logger.Warn("Plan lookup failed, using default", "plan_id", planID, "error", err)
		return fallback
	}
	if plan == nil || plan.Name == "" {
		return fallback
	}
	return plan.Name
}
