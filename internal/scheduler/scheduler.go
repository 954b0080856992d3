// Package scheduler drives the batch notification jobs from cron
// expressions evaluated in a fixed timezone. Ticks of a job that is still
// running are skipped rather than queued.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/albapepper/coach-notify/internal/notifications"
)

// Runner executes a batch job by name.
type Runner interface {
	Run(ctx context.Context, name string, now time.Time) (notifications.BatchResult, error)
}

// Job binds a job name to a standard five-field cron spec.
type Job struct {
	Name string
	Spec string
}

// Entry describes a registered job for logs and health output.
type Entry struct {
	Name string    `json:"name"`
	Spec string    `json:"spec"`
	Next time.Time `json:"next"`
}

// Scheduler owns the cron instance.
type Scheduler struct {
	cron   *cron.Cron
	runner Runner
	loc    *time.Location
	logger *slog.Logger
	now    func() time.Time

	ids map[cron.EntryID]Job
}

// New registers jobs on a cron evaluated in loc. Nothing runs until Start.
func New(runner Runner, loc *time.Location, jobs []Job, logger *slog.Logger) (*Scheduler, error) {
	if loc == nil {
		loc = time.UTC
	}
	cl := cronLogger{logger}
	s := &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		runner: runner,
		loc:    loc,
		logger: logger,
		now:    time.Now,
		ids:    make(map[cron.EntryID]Job, len(jobs)),
	}

	for _, j := range jobs {
		id, err := s.cron.AddFunc(j.Spec, s.tick(j.Name))
		if err != nil {
			return nil, fmt.Errorf("schedule %s (%q): %w", j.Name, j.Spec, err)
		}
		s.ids[id] = j
	}
	return s, nil
}

// Start runs the cron until ctx is cancelled, then waits for running jobs
// to return. Blocks; intended to be called with `go`.
func (s *Scheduler) Start(ctx context.Context) {
	s.cron.Start()
	for _, e := range s.Entries() {
		s.logger.Info("Job scheduled", "job", e.Name, "spec", e.Spec, "next", e.Next.Format(time.RFC3339))
	}

	<-ctx.Done()
	stopped := s.cron.Stop()
	<-stopped.Done()
	s.logger.Info("Scheduler stopped")
}

// Entries lists registered jobs with their next fire time.
func (s *Scheduler) Entries() []Entry {
	entries := make([]Entry, 0, len(s.ids))
	for _, e := range s.cron.Entries() {
		j := s.ids[e.ID]
		next := e.Next
		if next.IsZero() {
			next = e.Schedule.Next(s.now().In(s.loc))
		}
		entries = append(entries, Entry{Name: j.Name, Spec: j.Spec, Next: next})
	}
	return entries
}

func (s *Scheduler) tick(name string) func() {
	return func() {
		now := s.now().In(s.loc)
		result, err := s.runner.Run(context.Background(), name, now)
		if err != nil {
			s.logger.Error("Scheduled job failed", "job", name, "error", err)
			return
		}
		s.logger.Info("Scheduled job finished", "job", name, "summary", result.Summary())
	}
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
