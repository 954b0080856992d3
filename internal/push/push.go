// Package push provides the transports that deliver composed notifications
// to devices: Firebase Cloud Messaging, Amazon SNS mobile push, and a
// log-only sender for local development.
package push

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/albapepper/coach-notify/internal/config"
	"github.com/albapepper/coach-notify/internal/notifications"
)

// New builds the sender selected by cfg.PushProvider, wrapped in a circuit
// breaker when cfg.SendBreakerEnabled is set.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (notifications.Sender, error) {
	var (
		sender notifications.Sender
		err    error
	)

	switch cfg.PushProvider {
	case config.ProviderFCM:
		sender, err = NewFCM(ctx, cfg.FirebaseCredentialsFile, cfg.AndroidChannelID)
	case config.ProviderSNS:
		sender, err = NewSNS(ctx, cfg.AWSRegion)
	case config.ProviderLog:
		sender = NewLog(logger)
	default:
		return nil, fmt.Errorf("unknown push provider %q", cfg.PushProvider)
	}
	if err != nil {
		return nil, fmt.Errorf("init %s sender: %w", cfg.PushProvider, err)
	}

	logger.Info("Push sender configured", "provider", cfg.PushProvider, "breaker", cfg.SendBreakerEnabled)
	if cfg.SendBreakerEnabled {
		return NewBreaker(sender, DefaultBreakerConfig(cfg.PushProvider), logger), nil
	}
	return sender, nil
}
