// Package notifications turns coaching-app events and scheduled sweeps into
// push notifications addressed to a single device token.
//
// Pipeline: resolve recipient → enrich context → compose message → send.
// Single events run through Dispatcher; scheduled sweeps run through Jobs,
// which fans the same pipeline out over a candidate set with per-candidate
// failure isolation.
package notifications

import "time"

// --------------------------------------------------------------------------
// Constants
// --------------------------------------------------------------------------

const (
	// DefaultInactivityThreshold is how long an athlete may go without a
	// logged workout before the re-engagement message is sent.
	DefaultInactivityThreshold = 3 * 24 * time.Hour

	// DefaultBatchConcurrency caps in-flight candidates during fan-out.
	DefaultBatchConcurrency = 10
)

// Display defaults substituted when a related record is missing.
const (
	DefaultPlanName        = "Training Plan"
	DefaultReminderPlan    = "your workout"
	DefaultCoachName       = "Your coach"
	DefaultAthleteName     = "An athlete"
	DefaultAchievementName = "Achievement"
	DefaultAchievementIcon = "🏆"
)

// Data map "type" values understood by the mobile client.
const (
	TypePlanAssigned        = "plan_assigned"
	TypeWorkoutCompleted    = "workout_completed"
	TypeAchievementUnlocked = "achievement_unlocked"
	TypeDailyReminder       = "daily_reminder"
	TypeInactivityReminder  = "inactivity_reminder"
)

// --------------------------------------------------------------------------
// Categories
// --------------------------------------------------------------------------

// Category selects a notification's presentation icon.
type Category string

const (
	CategoryGeneral          Category = "general"
	CategoryPlanAssigned     Category = "planAssigned"
	CategoryEncouragement    Category = "encouragement"
	CategoryReminder         Category = "reminder"
	CategoryAchievement      Category = "achievement"
	CategoryCoachMessage     Category = "coachMessage"
	CategoryWorkoutCompleted Category = "workoutCompleted"
)

var categoryIcons = map[Category]string{
	CategoryGeneral:          "📬",
	CategoryPlanAssigned:     "🎯",
	CategoryEncouragement:    "💪",
	CategoryReminder:         "⏰",
	CategoryAchievement:      "🏆",
	CategoryCoachMessage:     "💬",
	CategoryWorkoutCompleted: "✅",
}

// IconFor maps a category to its icon. Unknown and empty categories get the
// general icon.
func IconFor(c Category) string {
	if icon, ok := categoryIcons[c]; ok {
		return icon
	}
	return categoryIcons[CategoryGeneral]
}

// --------------------------------------------------------------------------
// Types
// --------------------------------------------------------------------------

// Message is a platform-neutral push payload for one device token. It is
// built, sent and discarded.
type Message struct {
	// RecipientID is the user the token belongs to. Used for logging only;
	// transports never send it.
	RecipientID string `json:"recipientId,omitempty"`

	Token    string            `json:"token"`
	Category Category          `json:"category"`
	Icon     string            `json:"icon"`
	Title    string            `json:"title"`
	Body     string            `json:"body"`
	Data     map[string]string `json:"data"`
}

// Profile is the resolved view of a recipient. Token is empty when the user
// has no registered device or does not exist.
type Profile struct {
	UserID      string
	DisplayName string
	Token       string
	CoachID     string
	Found       bool
}

// Reachable reports whether a send can be attempted.
func (p Profile) Reachable() bool {
	return p.Token != ""
}
