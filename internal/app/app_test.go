package app

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/albapepper/coach-notify/internal/config"
	"github.com/albapepper/coach-notify/internal/notifications"
)

func TestScheduledJobs(t *testing.T) {
	jobs := ScheduledJobs(&config.Config{
		DailyReminderSchedule: "0 9 * * *",
		InactivitySchedule:    "0 18 * * *",
	})

	assert.Len(t, jobs, 2)
	assert.Equal(t, notifications.JobDailyReminders, jobs[0].Name)
	assert.Equal(t, "0 9 * * *", jobs[0].Spec)
	assert.Equal(t, notifications.JobInactivity, jobs[1].Name)
	assert.Equal(t, "0 18 * * *", jobs[1].Spec)
}
