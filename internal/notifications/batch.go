package notifications

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

// BatchResult aggregates one fan-out pass. Individual candidate failures
// are counted, not reported.
type BatchResult struct {
	Candidates int           `json:"candidates"`
	Sent       int           `json:"sent"`
	Skipped    int           `json:"skipped"`
	Failed     int           `json:"failed"`
	Duration   time.Duration `json:"duration"`
}

// Summary renders the result for logs and the CLI.
func (r BatchResult) Summary() string {
	return fmt.Sprintf("%d candidates: %d sent, %d skipped, %d failed in %s",
		r.Candidates, r.Sent, r.Skipped, r.Failed, r.Duration.Round(time.Millisecond))
}

// CandidateFunc processes one candidate. It reports whether a push was
// sent; a false with nil error is a skip.
type CandidateFunc[T any] func(ctx context.Context, candidate T) (sent bool, err error)

// FanOut runs fn over every candidate with at most limit in flight and
// waits for all of them. Errors and panics are logged and counted per
// candidate; they never cancel the others or propagate to the caller.
func FanOut[T any](ctx context.Context, logger *slog.Logger, candidates []T, limit int, fn CandidateFunc[T]) BatchResult {
	if logger == nil {
		logger = slog.Default()
	}
	if limit < 1 {
		limit = 1
	}

	start := time.Now()
	var sent, skipped, failed atomic.Int64

	// A plain Group, not WithContext: one failure must not cancel the rest.
	var g errgroup.Group
	g.SetLimit(limit)

	for i, c := range candidates {
		g.Go(func() error {
			ok, err := runCandidate(ctx, c, fn)
			switch {
			case err != nil:
				failed.Add(1)
				logger.Warn("Batch candidate failed", "index", i, "error", err)
			case ok:
				sent.Add(1)
			default:
				skipped.Add(1)
			}
			return nil
		})
	}
	_ = g.Wait()

	return BatchResult{
		Candidates: len(candidates),
		Sent:       int(sent.Load()),
		Skipped:    int(skipped.Load()),
		Failed:     int(failed.Load()),
		Duration:   time.Since(start),
	}
}

func runCandidate[T any](ctx context.Context, c T, fn CandidateFunc[T]) (sent bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			sent = false
			err = fmt.Errorf("panic: %v\n%s", r, debug.Stack())
		}
	}()
	return fn(ctx, c)
}
