// Command notifyctl runs the notification pipeline by hand.
//
// Usage:
//
//	notifyctl jobs daily-reminders
//	notifyctl jobs inactivity --now 2026-03-10T18:00:00-05:00
//	notifyctl dispatch activity_logs 42
//	notifyctl preview plan_assignments 7
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/albapepper/coach-notify/internal/app"
	"github.com/albapepper/coach-notify/internal/config"
	"github.com/albapepper/coach-notify/internal/logging"
	"github.com/albapepper/coach-notify/internal/notifications"
)

func main() {
	// Load .env if present
	_ = godotenv.Load(".env")

	root := &cobra.Command{
		Use:          "notifyctl",
		Short:        "Coach push-notification CLI",
		SilenceUsage: true,
	}

	root.AddCommand(jobsCmd())
	root.AddCommand(dispatchCmd())
	root.AddCommand(previewCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// --------------------------------------------------------------------------
// jobs command
// --------------------------------------------------------------------------

func jobsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "Run a scheduled batch job now",
	}
	cmd.AddCommand(dailyRemindersCmd())
	cmd.AddCommand(inactivityCmd())
	return cmd
}

func dailyRemindersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   notifications.JobDailyReminders,
		Short: "Remind every athlete with an active plan assignment",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(func(ctx context.Context, a *app.App) error {
				result, err := a.Jobs.DailyReminders(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), result.Summary())
				return nil
			})
		},
	}
}

func inactivityCmd() *cobra.Command {
	var now string
	cmd := &cobra.Command{
		Use:   notifications.JobInactivity,
		Short: "Welcome new athletes and nudge inactive ones",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			at := time.Now()
			if now != "" {
				t, err := time.Parse(time.RFC3339, now)
				if err != nil {
					return fmt.Errorf("--now must be RFC 3339: %w", err)
				}
				at = t
			}
			return run(func(ctx context.Context, a *app.App) error {
				result, err := a.Jobs.InactivityReminders(ctx, at)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), result.Summary())
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&now, "now", "", "Reference time for the inactivity check (RFC 3339, default current time)")
	return cmd
}

// --------------------------------------------------------------------------
// dispatch / preview commands
// --------------------------------------------------------------------------

func dispatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dispatch <collection> <id>",
		Short: "Send the notification for one stored record",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(func(ctx context.Context, a *app.App) error {
				event, err := loadEvent(ctx, a, args[0], args[1])
				if err != nil {
					return err
				}
				outcome := a.Dispatcher.Dispatch(ctx, event)
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s: %s\n", event.Kind(), event.EventID(), outcome)
				if outcome == notifications.OutcomeFailed {
					return fmt.Errorf("dispatch failed")
				}
				return nil
			})
		},
	}
}

func previewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "preview <collection> <id>",
		Short: "Compose the notification for one stored record without sending it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(func(ctx context.Context, a *app.App) error {
				event, err := loadEvent(ctx, a, args[0], args[1])
				if err != nil {
					return err
				}
				msg, outcome, err := a.Dispatcher.Prepare(ctx, event)
				if err != nil {
					return err
				}
				if outcome != "" {
					fmt.Fprintf(cmd.OutOrStdout(), "%s %s: %s\n", event.Kind(), event.EventID(), outcome)
					return nil
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(msg)
			})
		},
	}
}

func loadEvent(ctx context.Context, a *app.App, collection, id string) (notifications.Event, error) {
	event, err := notifications.LoadEvent(ctx, a.Store, collection, id)
	if err != nil {
		return nil, err
	}
	if event == nil {
		return nil, fmt.Errorf("%s/%s not found", collection, id)
	}
	return event, nil
}

// --------------------------------------------------------------------------
// Shared setup
// --------------------------------------------------------------------------

// run handles config loading, wiring, and context cancellation.
func run(fn func(ctx context.Context, a *app.App) error) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	logger := logging.New(os.Stderr, os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"))

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	a, err := app.Build(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	return fn(ctx, a)
}
