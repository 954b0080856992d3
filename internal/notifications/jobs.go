package notifications

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/albapepper/coach-notify/internal/store"
)

// Job names, shared by the scheduler, the admin API and the CLI.
const (
	JobDailyReminders = "daily-reminders"
	JobInactivity     = "inactivity"
)

// Jobs runs the scheduled batch fan-outs. It reuses the Dispatcher's
// resolver, enricher and sender so skip rules match single dispatch.
type Jobs struct {
	store       store.Store
	dispatcher  *Dispatcher
	threshold   time.Duration
	concurrency int
	logger      *slog.Logger
}

// NewJobs builds the batch jobs. A non-positive threshold or concurrency
// falls back to the defaults.
func NewJobs(s store.Store, d *Dispatcher, threshold time.Duration, concurrency int, logger *slog.Logger) *Jobs {
	if threshold <= 0 {
		threshold = DefaultInactivityThreshold
	}
	if concurrency < 1 {
		concurrency = DefaultBatchConcurrency
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Jobs{
		store:       s,
		dispatcher:  d,
		threshold:   threshold,
		concurrency: concurrency,
		logger:      logger,
	}
}

// Run executes a job by name. now is only used by the inactivity job.
func (j *Jobs) Run(ctx context.Context, name string, now time.Time) (BatchResult, error) {
	switch name {
	case JobDailyReminders:
		return j.DailyReminders(ctx)
	case JobInactivity:
		return j.InactivityReminders(ctx, now)
	}
	return BatchResult{}, fmt.Errorf("unknown job %q", name)
}

// DailyReminders sends a workout reminder to every athlete with an active
// plan assignment.
func (j *Jobs) DailyReminders(ctx context.Context) (BatchResult, error) {
	logger := j.runLogger(JobDailyReminders)
	logger.Info("Daily reminder run started")

	assignments, err := j.store.ActiveAssignments(ctx)
	if err != nil {
		logger.Error("Failed to list active assignments", "error", err)
		return BatchResult{}, fmt.Errorf("list active assignments: %w", err)
	}

	result := FanOut(ctx, logger, assignments, j.concurrency,
		func(ctx context.Context, a store.PlanAssignment) (bool, error) {
			return j.remindAssignment(ctx, a, logger)
		})

	j.finish(JobDailyReminders, result, logger)
	return result, nil
}

func (j *Jobs) remindAssignment(ctx context.Context, a store.PlanAssignment, logger *slog.Logger) (bool, error) {
	p, err := j.dispatcher.resolver.Resolve(ctx, a.AthleteID)
	if err != nil {
		return false, err
	}
	if !p.Reachable() {
		logger.Debug("No delivery token for athlete, skipping",
			"user_id", a.AthleteID, "assignment_id", a.ID)
		return false, nil
	}

	name := j.dispatcher.enricher.ReminderPlanName(ctx, a.PlanID)
	msg := withRecipient(ComposeDailyReminder(a.PlanID, name, p.Token), p)
	if err := j.dispatcher.send(ctx, JobDailyReminders, msg, logger); err != nil {
		return false, fmt.Errorf("remind athlete %s: %w", a.AthleteID, err)
	}
	return true, nil
}

// InactivityReminders welcomes athletes who never logged a workout and
// nudges those whose latest workout completed strictly before
// now - threshold.
func (j *Jobs) InactivityReminders(ctx context.Context, now time.Time) (BatchResult, error) {
	logger := j.runLogger(JobInactivity)
	cutoff := now.Add(-j.threshold)
	logger.Info("Inactivity run started", "cutoff", cutoff.Format(time.RFC3339))

	athletes, err := j.store.UsersByRole(ctx, store.RoleAthlete)
	if err != nil {
		logger.Error("Failed to list athletes", "error", err)
		return BatchResult{}, fmt.Errorf("list athletes: %w", err)
	}

	result := FanOut(ctx, logger, athletes, j.concurrency,
		func(ctx context.Context, u store.User) (bool, error) {
			return j.nudgeAthlete(ctx, u, cutoff, logger)
		})

	j.finish(JobInactivity, result, logger)
	return result, nil
}

func (j *Jobs) nudgeAthlete(ctx context.Context, u store.User, cutoff time.Time, logger *slog.Logger) (bool, error) {
	token := u.Token()
	if token == "" {
		logger.Debug("No delivery token for athlete, skipping", "user_id", u.ID)
		return false, nil
	}

	latest, err := j.store.LatestActivity(ctx, u.ID)
	if err != nil {
		return false, storeErr("latest activity "+u.ID, err)
	}

	var msg Message
	switch {
	case latest == nil:
		msg = ComposeWelcome(token)
	case latest.CompletedAt.Before(cutoff):
		msg = ComposeReengagement(token)
	default:
		return false, nil
	}
	msg.RecipientID = u.ID

	if err := j.dispatcher.send(ctx, JobInactivity, msg, logger); err != nil {
		return false, fmt.Errorf("nudge athlete %s: %w", u.ID, err)
	}
	return true, nil
}

func (j *Jobs) runLogger(job string) *slog.Logger {
	return j.logger.With("job", job, "run_id", uuid.NewString())
}

func (j *Jobs) finish(job string, r BatchResult, logger *slog.Logger) {
	recordBatch(job, r)
	logger.Info("Batch run complete",
		"candidates", r.Candidates,
		"sent", r.Sent,
		"skipped", r.Skipped,
		"failed", r.Failed,
		"duration", r.Duration,
	)
}
