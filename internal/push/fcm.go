package push

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"

	"github.com/albapepper/coach-notify/internal/notifications"
)

// FCMClient is the subset of *messaging.Client the sender uses.
type FCMClient interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

// FCM delivers messages through Firebase Cloud Messaging.
type FCM struct {
	client    FCMClient
	channelID string
}

// NewFCM initializes a Firebase app from a service-account file.
func NewFCM(ctx context.Context, credentialsFile, channelID string) (*FCM, error) {
	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, fmt.Errorf("firebase app: %w", err)
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("firebase messaging: %w", err)
	}
	return NewFCMWithClient(client, channelID), nil
}

// NewFCMWithClient wraps an existing client.
func NewFCMWithClient(client FCMClient, channelID string) *FCM {
	return &FCM{client: client, channelID: channelID}
}

// Send implements notifications.Sender.
func (f *FCM) Send(ctx context.Context, msg notifications.Message) (string, error) {
	id, err := f.client.Send(ctx, FCMMessage(msg, f.channelID))
	if err != nil {
		return "", &notifications.DeliveryError{
			Provider: "fcm",
			BadToken: messaging.IsUnregistered(err) || messaging.IsInvalidArgument(err),
			Err:      err,
		}
	}
	return id, nil
}

// FCMMessage maps a Message onto the FCM wire format: high priority on
// Android with the app's channel and default sound and vibration, and an
// APNs alert with the default sound and a badge of 1.
func FCMMessage(msg notifications.Message, channelID string) *messaging.Message {
	badge := 1
	return &messaging.Message{
		Token: msg.Token,
		Notification: &messaging.Notification{
			Title: msg.Title,
			Body:  msg.Body,
		},
		Data: msg.Data,
		Android: &messaging.AndroidConfig{
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				ChannelID:             channelID,
				Priority:              messaging.PriorityHigh,
				DefaultSound:          true,
				DefaultVibrateTimings: true,
			},
		},
		APNS: &messaging.APNSConfig{
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{
					Alert: &messaging.ApsAlert{
						Title: msg.Title,
						Body:  msg.Body,
					},
					Sound: "default",
					Badge: &badge,
				},
			},
		},
	}
}
