package push

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"

	"github.com/albapepper/coach-notify/internal/notifications"
)

// BreakerConfig configures the send circuit breaker.
type BreakerConfig struct {
	Name             string
	MaxRequests      uint32        // allowed in half-open state
	Interval         time.Duration // closed-state count reset period
	Timeout          time.Duration // open-state duration before half-open
	FailureThreshold float64       // failure ratio that trips the breaker
	MinRequests      uint32        // requests needed before the ratio counts
}

// DefaultBreakerConfig returns settings for a push provider.
func DefaultBreakerConfig(provider string) BreakerConfig {
	return BreakerConfig{
		Name:             "push-" + provider,
		MaxRequests:      3,
		Interval:         30 * time.Second,
		Timeout:          60 * time.Second,
		FailureThreshold: 0.6,
		MinRequests:      5,
	}
}

// Breaker stops calling a failing transport for a while, so a provider
// outage fails a batch fast instead of waiting on every candidate.
type Breaker struct {
	next    notifications.Sender
	breaker *gobreaker.CircuitBreaker
}

// NewBreaker wraps next with a circuit breaker.
func NewBreaker(next notifications.Sender, cfg BreakerConfig, logger *slog.Logger) *Breaker {
	if logger == nil {
		logger = slog.Default()
	}
	settings := gobreaker.Settings{
		Name:         cfg.Name,
		MaxRequests:  cfg.MaxRequests,
		Interval:     cfg.Interval,
		Timeout:      cfg.Timeout,
		IsSuccessful: transportHealthy,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return ratio >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Send circuit breaker state changed",
				"circuit", name, "from", from.String(), "to", to.String())
		},
	}
	return &Breaker{next: next, breaker: gobreaker.NewCircuitBreaker(settings)}
}

// transportHealthy keeps per-recipient token rejections out of the failure
// counts. A batch full of stale tokens must not block the healthy ones.
func transportHealthy(err error) bool {
	if err == nil {
		return true
	}
	var de *notifications.DeliveryError
	return errors.As(err, &de) && de.BadToken
}

// Send implements notifications.Sender. While the breaker is open it fails
// immediately with a DeliveryError wrapping gobreaker.ErrOpenState.
func (b *Breaker) Send(ctx context.Context, msg notifications.Message) (string, error) {
	out, err := b.breaker.Execute(func() (interface{}, error) {
		return b.next.Send(ctx, msg)
	})
	if err != nil {
		var de *notifications.DeliveryError
		if errors.As(err, &de) {
			return "", err
		}
		return "", &notifications.DeliveryError{Provider: b.breaker.Name(), Err: err}
	}
	return out.(string), nil
}

// State reports the breaker state for health output.
func (b *Breaker) State() gobreaker.State {
	return b.breaker.State()
}
