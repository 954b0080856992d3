package notifications

import (
	"fmt"
	"strconv"
)

// The Compose* functions are pure: no I/O, no clock, no randomness. The
// same inputs always produce the same Message.

// Fixed titles outside the category table.
const (
	welcomeIcon = "👋"
	workoutIcon = "💪"
)

// ComposeNotification mirrors an in-app notification. Passthrough data is
// applied last and may override type and notificationId.
func ComposeNotification(e NotificationCreated, token string) Message {
	category := e.Category
	if category == "" {
		category = CategoryGeneral
	}
	icon := IconFor(category)

	data := map[string]string{
		"type":           string(category),
		"notificationId": e.ID,
	}
	for k, v := range e.Data {
		data[k] = v
	}

	return Message{
		Token:    token,
		Category: category,
		Icon:     icon,
		Title:    titled(icon, e.Title),
		Body:     e.Message,
		Data:     data,
	}
}

// ComposePlanAssigned tells an athlete a coach assigned them a plan.
func ComposePlanAssigned(e PlanAssigned, pc PlanContext, token string) Message {
	icon := IconFor(CategoryPlanAssigned)
	return Message{
		Token:    token,
		Category: CategoryPlanAssigned,
		Icon:     icon,
		Title:    titled(icon, "New Training Plan Assigned!"),
		Body:     fmt.Sprintf("%s assigned you \"%s\". Let's get started!", pc.CoachName, pc.PlanName),
		Data: map[string]string{
			"type":         TypePlanAssigned,
			"planId":       e.PlanID,
			"assignmentId": e.ID,
		},
	}
}

// ComposeWorkoutCompleted tells a coach their athlete finished a workout.
func ComposeWorkoutCompleted(e WorkoutCompleted, wc WorkoutContext) Message {
	return Message{
		Token:    wc.Coach.Token,
		Category: CategoryWorkoutCompleted,
		Icon:     workoutIcon,
		Title:    titled(workoutIcon, "Workout Completed!"),
		Body:     fmt.Sprintf("%s just finished: %s", wc.AthleteName, ActivityDetails(e.ActivityName, e.Reps, e.Duration)),
		Data: map[string]string{
			"type":       TypeWorkoutCompleted,
			"athleteId":  e.AthleteID,
			"activityId": e.ID,
		},
	}
}

// ActivityDetails renders "name[ - N reps][ - M mins]". Zero reps or
// duration is treated as not recorded.
func ActivityDetails(name string, reps, duration int) string {
	details := name
	if reps != 0 {
		details += " - " + strconv.Itoa(reps) + " reps"
	}
	if duration != 0 {
		details += " - " + strconv.Itoa(duration) + " mins"
	}
	return details
}

// ComposeAchievement congratulates a user on an achievement. The title uses
// the achievement's own icon.
func ComposeAchievement(e AchievementUnlocked, ac AchievementContext, token string) Message {
	return Message{
		Token:    token,
		Category: CategoryAchievement,
		Icon:     ac.Icon,
		Title:    titled(ac.Icon, "Achievement Unlocked!"),
		Body:     fmt.Sprintf("Congratulations! You've earned \"%s\"", ac.Name),
		Data: map[string]string{
			"type":          TypeAchievementUnlocked,
			"achievementId": e.AchievementID,
		},
	}
}

// ComposeDailyReminder nudges an athlete to complete today's workout.
func ComposeDailyReminder(planID, planName, token string) Message {
	icon := IconFor(CategoryReminder)
	return Message{
		Token:    token,
		Category: CategoryReminder,
		Icon:     icon,
		Title:    titled(icon, "Time to Workout!"),
		Body:     fmt.Sprintf("Don't forget to complete %s today. Let's keep that streak going!", planName),
		Data: map[string]string{
			"type":   TypeDailyReminder,
			"planId": planID,
		},
	}
}

// ComposeWelcome invites an athlete who never logged a workout.
func ComposeWelcome(token string) Message {
	return Message{
		Token:    token,
		Category: CategoryReminder,
		Icon:     welcomeIcon,
		Title:    titled(welcomeIcon, "Ready to get started?"),
		Body:     "Let's begin your fitness journey! Check out your training plan.",
		Data:     map[string]string{"type": TypeInactivityReminder},
	}
}

// ComposeReengagement brings back an athlete who stopped logging workouts.
func ComposeReengagement(token string) Message {
	icon := IconFor(CategoryEncouragement)
	return Message{
		Token:    token,
		Category: CategoryEncouragement,
		Icon:     icon,
		Title:    titled(icon, "We miss you!"),
		Body:     "It's been a few days. Ready to get back on track?",
		Data:     map[string]string{"type": TypeInactivityReminder},
	}
}

func titled(icon, text string) string {
	return icon + " " + text
}
