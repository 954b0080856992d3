package notifications

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/albapepper/coach-notify/internal/store"
)

// Outcome is the terminal state of one dispatch. Every outcome completes the
// invocation successfully from the trigger's point of view.
type Outcome string

const (
	OutcomeSent                Outcome = "sent"
	OutcomeSkippedNoToken      Outcome = "skipped_no_token"
	OutcomeSkippedNoCoach      Outcome = "skipped_no_coach"
	OutcomeSkippedCoachNoToken Outcome = "skipped_coach_no_token"
	OutcomeFailed              Outcome = "failed"

	// outcomeReady is returned by Prepare when a message is ready to send.
	outcomeReady Outcome = ""
)

// Dispatcher runs the resolve → enrich → compose → send pipeline for one
// event at a time. It holds no per-event state and is safe for concurrent
// use.
type Dispatcher struct {
	resolver *Resolver
	enricher *Enricher
	sender   Sender
	logger   *slog.Logger
}

// NewDispatcher wires a Dispatcher over a store and a sender.
func NewDispatcher(s store.Store, sender Sender, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	resolver := NewResolver(s)
	return &Dispatcher{
		resolver: resolver,
		enricher: NewEnricher(s, resolver, logger),
		sender:   sender,
		logger:   logger,
	}
}

// Dispatch processes one event to completion. Faults are logged and
// reported as OutcomeFailed; they never propagate to the trigger.
func (d *Dispatcher) Dispatch(ctx context.Context, e Event) (outcome Outcome) {
	if e == nil {
		d.logger.Error("Notification dispatch failed", "error", "nil event")
		return OutcomeFailed
	}
	logger := d.logger.With("event_kind", e.Kind(), "event_id", e.EventID())

	defer func() {
		if r := recover(); r != nil {
			logger.Error("Panic in notification dispatch",
				"panic", r, "stack", string(debug.Stack()))
			outcome = OutcomeFailed
		}
		recordDispatch(e.Kind(), outcome)
	}()

	msg, outcome, err := d.prepare(ctx, e, logger)
	if err != nil {
		logger.Error("Notification dispatch failed", "error", err)
		return OutcomeFailed
	}
	if outcome != outcomeReady {
		return outcome
	}

	if err := d.send(ctx, string(e.Kind()), msg, logger); err != nil {
		logger.Error("Notification dispatch failed", "user_id", msg.RecipientID, "error", err)
		return OutcomeFailed
	}
	return OutcomeSent
}

// Prepare resolves and composes the message for e without sending it.
// An empty Outcome means the message is ready; otherwise the event is
// skipped (or failed, with a non-nil error).
func (d *Dispatcher) Prepare(ctx context.Context, e Event) (Message, Outcome, error) {
	logger := d.logger.With("event_kind", e.Kind(), "event_id", e.EventID())
	return d.prepare(ctx, e, logger)
}

func (d *Dispatcher) prepare(ctx context.Context, e Event, logger *slog.Logger) (Message, Outcome, error) {
	switch ev := e.(type) {
	case NotificationCreated:
		p, outcome, err := d.recipient(ctx, ev.ReceiverID, logger)
		if outcome != outcomeReady {
			return Message{}, outcome, err
		}
		return withRecipient(ComposeNotification(ev, p.Token), p), outcomeReady, nil

	case PlanAssigned:
		p, outcome, err := d.recipient(ctx, ev.AthleteID, logger)
		if outcome != outcomeReady {
			return Message{}, outcome, err
		}
		pc := d.enricher.PlanAssignment(ctx, ev.PlanID, ev.AssignedBy)
		return withRecipient(ComposePlanAssigned(ev, pc, p.Token), p), outcomeReady, nil

	case WorkoutCompleted:
		wc, err := d.enricher.WorkoutCompletion(ctx, ev.AthleteID)
		switch {
		case errors.Is(err, ErrNoAssignedCoach):
			logger.Info("No coach assigned to athlete, skipping", "athlete_id", ev.AthleteID)
			return Message{}, OutcomeSkippedNoCoach, nil
		case errors.Is(err, ErrCoachHasNoToken):
			logger.Info("No delivery token for coach, skipping",
				"athlete_id", ev.AthleteID, "coach_id", wc.Coach.UserID)
			return Message{}, OutcomeSkippedCoachNoToken, nil
		case err != nil:
			return Message{}, OutcomeFailed, err
		}
		return withRecipient(ComposeWorkoutCompleted(ev, wc), wc.Coach), outcomeReady, nil

	case AchievementUnlocked:
		p, outcome, err := d.recipient(ctx, ev.UserID, logger)
		if outcome != outcomeReady {
			return Message{}, outcome, err
		}
		ac := d.enricher.Achievement(ctx, ev.AchievementID)
		return withRecipient(ComposeAchievement(ev, ac, p.Token), p), outcomeReady, nil
	}
	return Message{}, OutcomeFailed, fmt.Errorf("unsupported event type %T", e)
}

// recipient resolves userID and applies the no-token skip rule.
func (d *Dispatcher) recipient(ctx context.Context, userID string, logger *slog.Logger) (Profile, Outcome, error) {
	p, err := d.resolver.Resolve(ctx, userID)
	if err != nil {
		return p, OutcomeFailed, err
	}
	if !p.Reachable() {
		logger.Info("No delivery token for user, skipping", "user_id", userID, "user_found", p.Found)
		return p, OutcomeSkippedNoToken, nil
	}
	return p, outcomeReady, nil
}

// send hands msg to the transport and records the attempt. Errors are
// always *DeliveryError.
func (d *Dispatcher) send(ctx context.Context, source string, msg Message, logger *slog.Logger) error {
	start := time.Now()
	id, err := d.sender.Send(ctx, msg)
	recordSend(source, err, time.Since(start))
	if err != nil {
		var de *DeliveryError
		if !errors.As(err, &de) {
			err = &DeliveryError{Provider: "unknown", Err: err}
		}
		return err
	}
	logger.Info("Push notification sent",
		"user_id", msg.RecipientID, "delivery_id", id, "title", msg.Title)
	return nil
}

func withRecipient(msg Message, p Profile) Message {
	msg.RecipientID = p.UserID
	return msg
}
