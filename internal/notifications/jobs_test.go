package notifications

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albapepper/coach-notify/internal/store"
)

var testNow = time.Date(2026, 3, 10, 18, 0, 0, 0, time.UTC)

func newTestJobs(s *memStore) (*Jobs, *fakeSender) {
	d, sender := newTestDispatcher(s)
	return NewJobs(s, d, 0, 4, discardLogger()), sender
}

func TestInactivityReminders(t *testing.T) {
	s := newMemStore()
	s.addUser("new", "New", store.RoleAthlete, "tok-new", "")
	s.addUser("lapsed", "Lapsed", store.RoleAthlete, "tok-lapsed", "")
	s.addUser("active", "Active", store.RoleAthlete, "tok-active", "")
	s.addUser("silent", "Silent", store.RoleAthlete, "", "")
	s.addUser("coach", "Coach", store.RoleCoach, "tok-coach", "")
	s.latest["lapsed"] = &store.ActivityLog{ID: "l1", AthleteID: "lapsed", CompletedAt: testNow.Add(-4 * 24 * time.Hour)}
	s.latest["active"] = &store.ActivityLog{ID: "l2", AthleteID: "active", CompletedAt: testNow.Add(-2 * 24 * time.Hour)}
	jobs, sender := newTestJobs(s)

	result, err := jobs.InactivityReminders(context.Background(), testNow)
	require.NoError(t, err)

	assert.Equal(t, 4, result.Candidates)
	assert.Equal(t, 2, result.Sent)
	assert.Equal(t, 2, result.Skipped)
	assert.Zero(t, result.Failed)

	byToken := map[string]Message{}
	for _, m := range sender.messages() {
		byToken[m.Token] = m
	}
	require.Len(t, byToken, 2)
	assert.Equal(t, "👋 Ready to get started?", byToken["tok-new"].Title)
	assert.Equal(t, "💪 We miss you!", byToken["tok-lapsed"].Title)
	assert.Equal(t, "lapsed", byToken["tok-lapsed"].RecipientID)
}

func TestInactivityReminders_ExactlyAtCutoffIsNotInactive(t *testing.T) {
	s := newMemStore()
	s.addUser("edge", "Edge", store.RoleAthlete, "tok", "")
	s.latest["edge"] = &store.ActivityLog{ID: "l1", AthleteID: "edge", CompletedAt: testNow.Add(-DefaultInactivityThreshold)}
	jobs, sender := newTestJobs(s)

	result, err := jobs.InactivityReminders(context.Background(), testNow)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Sent)
	assert.Empty(t, sender.messages())
}

func TestInactivityReminders_PartialFailure(t *testing.T) {
	s := newMemStore()
	for _, id := range []string{"a", "b", "c", "d", "e"} {
		s.addUser(id, id, store.RoleAthlete, "tok-"+id, "")
	}
	s.failUsers["b"] = true
	s.panicUsers["c"] = true
	jobs, sender := newTestJobs(s)
	sender.failTokens["tok-d"] = true

	result, err := jobs.InactivityReminders(context.Background(), testNow)
	require.NoError(t, err)

	assert.Equal(t, 5, result.Candidates)
	assert.Equal(t, 2, result.Sent)
	assert.Equal(t, 3, result.Failed)
	assert.ElementsMatch(t, []string{"tok-a", "tok-e"}, sender.tokens())
}

func TestDailyReminders(t *testing.T) {
	s := newMemStore()
	s.addUser("ath1", "One", store.RoleAthlete, "tok1", "")
	s.addUser("ath2", "Two", store.RoleAthlete, "tok2", "")
	s.addUser("ath3", "Three", store.RoleAthlete, "", "")
	s.plans["p1"] = &store.TrainingPlan{ID: "p1", Name: "Couch to 5k"}
	s.assignments["a1"] = &store.PlanAssignment{ID: "a1", AthleteID: "ath1", PlanID: "p1", Status: store.StatusActive}
	s.assignments["a2"] = &store.PlanAssignment{ID: "a2", AthleteID: "ath2", PlanID: "gone", Status: store.StatusActive}
	s.assignments["a3"] = &store.PlanAssignment{ID: "a3", AthleteID: "ath3", PlanID: "p1", Status: store.StatusActive}
	s.assignments["a4"] = &store.PlanAssignment{ID: "a4", AthleteID: "ath1", PlanID: "p1", Status: "completed"}
	jobs, sender := newTestJobs(s)

	result, err := jobs.DailyReminders(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, result.Candidates)
	assert.Equal(t, 2, result.Sent)
	assert.Equal(t, 1, result.Skipped)

	bodies := map[string]string{}
	for _, m := range sender.messages() {
		assert.Equal(t, "⏰ Time to Workout!", m.Title)
		bodies[m.Token] = m.Body
	}
	assert.Contains(t, bodies["tok1"], "Couch to 5k")
	assert.Contains(t, bodies["tok2"], "your workout")
}

func TestDailyReminders_CandidateFailuresDoNotAbort(t *testing.T) {
	s := newMemStore()
	for _, id := range []string{"a", "b", "c", "d"} {
		s.addUser(id, id, store.RoleAthlete, "tok-"+id, "")
		s.assignments["as-"+id] = &store.PlanAssignment{ID: "as-" + id, AthleteID: id, PlanID: "p", Status: store.StatusActive}
	}
	s.failUsers["a"] = true
	jobs, sender := newTestJobs(s)
	sender.failTokens["tok-b"] = true

	result, err := jobs.DailyReminders(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, result.Sent)
	assert.Equal(t, 2, result.Failed)
	assert.ElementsMatch(t, []string{"tok-c", "tok-d"}, sender.tokens())
}

func TestJobs_CandidateQueryFailure(t *testing.T) {
	s := newMemStore()
	s.failList = true
	jobs, _ := newTestJobs(s)

	_, err := jobs.DailyReminders(context.Background())
	assert.ErrorIs(t, err, errStoreDown)

	_, err = jobs.InactivityReminders(context.Background(), testNow)
	assert.ErrorIs(t, err, errStoreDown)
}

func TestJobs_Run(t *testing.T) {
	jobs, _ := newTestJobs(newMemStore())

	_, err := jobs.Run(context.Background(), JobDailyReminders, testNow)
	assert.NoError(t, err)
	_, err = jobs.Run(context.Background(), JobInactivity, testNow)
	assert.NoError(t, err)
	_, err = jobs.Run(context.Background(), "weekly-digest", testNow)
	assert.Error(t, err)
}
