// Package listener provides a Postgres LISTEN/NOTIFY consumer for newly
// created records. It holds a dedicated pgx connection (not from the pool)
// listening on the `record_created` channel.
//
// The record_created trigger fires pg_notify after an insert into one of the
// notifying tables. This consumer loads the record, turns it into an event
// and runs it through the single-event dispatcher.
package listener

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/albapepper/coach-notify/internal/notifications"
	"github.com/albapepper/coach-notify/internal/store"
)

const (
	Channel          = "record_created"
	reconnectBackoff = 5 * time.Second
	maxReconnect     = 30 * time.Second
)

// RecordCreated is the JSON payload from pg_notify('record_created', ...).
type RecordCreated struct {
	Collection string `json:"collection"`
	ID         string `json:"id"`
}

// ParsePayload decodes and validates a notification payload.
func ParsePayload(payload string) (RecordCreated, error) {
	var rc RecordCreated
	if err := json.Unmarshal([]byte(payload), &rc); err != nil {
		return rc, fmt.Errorf("decode payload: %w", err)
	}
	if rc.Collection == "" || rc.ID == "" {
		return rc, fmt.Errorf("payload missing collection or id: %q", payload)
	}
	return rc, nil
}

// Dispatcher runs one event to completion.
type Dispatcher interface {
	Dispatch(ctx context.Context, e notifications.Event) notifications.Outcome
}

// Listener consumes record_created notifications.
type Listener struct {
	dbURL      string
	store      store.Store
	dispatcher Dispatcher
	logger     *slog.Logger

	inflight sync.WaitGroup
}

// New creates a Listener. Start must be called to begin consuming.
func New(dbURL string, s store.Store, d Dispatcher, logger *slog.Logger) *Listener {
	return &Listener{dbURL: dbURL, store: s, dispatcher: d, logger: logger}
}

// Start opens a dedicated connection and listens on the record_created
// channel. It reconnects automatically on connection loss. Blocks until ctx
// is cancelled. Intended to be called with `go`.
func (l *Listener) Start(ctx context.Context) {
	backoff := reconnectBackoff

	for {
		err := l.listenLoop(ctx)
		if ctx.Err() != nil {
			l.logger.Info("Record listener stopped (context cancelled)")
			return
		}

		l.logger.Error("Record listener disconnected, reconnecting...",
			"error", err, "backoff", backoff)

		select {
		case <-time.After(backoff):
			backoff = min(backoff*2, maxReconnect)
		case <-ctx.Done():
			return
		}
	}
}

// Wait blocks until every in-flight dispatch has finished.
func (l *Listener) Wait() {
	l.inflight.Wait()
}

// listenLoop runs a single listen session. Returns when the connection drops
// or the context is cancelled.
func (l *Listener) listenLoop(ctx context.Context) error {
	conn, err := pgx.Connect(ctx, l.dbURL)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer conn.Close(context.Background())

	_, err = conn.Exec(ctx, "LISTEN "+Channel)
	if err != nil {
		return fmt.Errorf("LISTEN %s: %w", Channel, err)
	}
	l.logger.Info("Record listener connected", "channel", Channel)

	for {
		notification, err := conn.WaitForNotification(ctx)
		if err != nil {
			return fmt.Errorf("wait for notification: %w", err)
		}

		rc, err := ParsePayload(notification.Payload)
		if err != nil {
			l.logger.Warn("Failed to parse record_created payload",
				"payload", notification.Payload, "error", err)
			continue
		}

		l.logger.Debug("Record created", "collection", rc.Collection, "id", rc.ID)

		// Process asynchronously to avoid blocking the listener. A dispatch
		// that has started finishes even if the listener is shutting down.
		l.inflight.Add(1)
		go func() {
			defer l.inflight.Done()
			l.Handle(context.WithoutCancel(ctx), rc)
		}()
	}
}

// Handle loads the created record and dispatches its event. Returns the
// outcome, or "" when no dispatch happened.
func (l *Listener) Handle(ctx context.Context, rc RecordCreated) notifications.Outcome {
	event, err := notifications.LoadEvent(ctx, l.store, rc.Collection, rc.ID)
	switch {
	case errors.Is(err, notifications.ErrUnknownCollection):
		l.logger.Debug("Ignoring record from non-notifying collection", "collection", rc.Collection)
		return ""
	case err != nil:
		l.logger.Warn("Failed to load created record",
			"collection", rc.Collection, "id", rc.ID, "error", err)
		return notifications.OutcomeFailed
	case event == nil:
		l.logger.Info("Created record no longer exists, skipping",
			"collection", rc.Collection, "id", rc.ID)
		return ""
	}
	return l.dispatcher.Dispatch(ctx, event)
}
