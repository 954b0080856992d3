package push

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"firebase.google.com/go/v4/messaging"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albapepper/coach-notify/internal/config"
	"github.com/albapepper/coach-notify/internal/notifications"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sampleMessage() notifications.Message {
	return notifications.Message{
		RecipientID: "u1",
		Token:       "device-token",
		Category:    notifications.CategoryReminder,
		Icon:        "⏰",
		Title:       "⏰ Time to Workout!",
		Body:        "Don't forget to complete your workout today.",
		Data:        map[string]string{"type": "daily_reminder", "planId": "p1"},
	}
}

// ---------------------------------------------------------------------------
// FCM
// ---------------------------------------------------------------------------

type mockFCMClient struct {
	got *messaging.Message
	err error
}

func (m *mockFCMClient) Send(_ context.Context, msg *messaging.Message) (string, error) {
	m.got = msg
	if m.err != nil {
		return "", m.err
	}
	return "projects/p/messages/1", nil
}

func TestFCMMessage(t *testing.T) {
	m := FCMMessage(sampleMessage(), "pushup_channel")

	assert.Equal(t, "device-token", m.Token)
	assert.Equal(t, "⏰ Time to Workout!", m.Notification.Title)
	assert.Equal(t, "daily_reminder", m.Data["type"])

	require.NotNil(t, m.Android)
	assert.Equal(t, "high", m.Android.Priority)
	assert.Equal(t, "pushup_channel", m.Android.Notification.ChannelID)
	assert.True(t, m.Android.Notification.DefaultSound)
	assert.True(t, m.Android.Notification.DefaultVibrateTimings)

	require.NotNil(t, m.APNS)
	aps := m.APNS.Payload.Aps
	assert.Equal(t, "default", aps.Sound)
	require.NotNil(t, aps.Badge)
	assert.Equal(t, 1, *aps.Badge)
	assert.Equal(t, "⏰ Time to Workout!", aps.Alert.Title)
}

func TestFCM_Send(t *testing.T) {
	client := &mockFCMClient{}
	id, err := NewFCMWithClient(client, "ch").Send(context.Background(), sampleMessage())

	require.NoError(t, err)
	assert.Equal(t, "projects/p/messages/1", id)
	assert.Equal(t, "device-token", client.got.Token)
}

func TestFCM_SendError(t *testing.T) {
	client := &mockFCMClient{err: errors.New("registration-token-not-registered")}
	_, err := NewFCMWithClient(client, "ch").Send(context.Background(), sampleMessage())

	var de *notifications.DeliveryError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "fcm", de.Provider)
	assert.False(t, de.BadToken, "plain transport errors count against the breaker")
}

// ---------------------------------------------------------------------------
// SNS
// ---------------------------------------------------------------------------

type mockSNSClient struct {
	PublishFunc func(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

func (m *mockSNSClient) Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
	return m.PublishFunc(ctx, params, optFns...)
}

func TestSNS_Send(t *testing.T) {
	var got *sns.PublishInput
	client := &mockSNSClient{
		PublishFunc: func(_ context.Context, params *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
			got = params
			return &sns.PublishOutput{MessageId: aws.String("sns-1")}, nil
		},
	}

	id, err := NewSNSWithClient(client).Send(context.Background(), sampleMessage())
	require.NoError(t, err)
	assert.Equal(t, "sns-1", id)
	assert.Equal(t, "device-token", aws.ToString(got.TargetArn))
	assert.Equal(t, "json", aws.ToString(got.MessageStructure))

	var doc map[string]string
	require.NoError(t, json.Unmarshal([]byte(aws.ToString(got.Message)), &doc))
	assert.Equal(t, sampleMessage().Body, doc["default"])

	var apns apnsPayload
	require.NoError(t, json.Unmarshal([]byte(doc["APNS"]), &apns))
	assert.Equal(t, 1, apns.Aps.Badge)
	assert.Equal(t, "default", apns.Aps.Sound)

	var gcm gcmPayload
	require.NoError(t, json.Unmarshal([]byte(doc["GCM"]), &gcm))
	assert.Equal(t, "⏰ Time to Workout!", gcm.Notification.Title)
	assert.Equal(t, "p1", gcm.Data["planId"])
}

func TestSNS_SendError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		badToken bool
	}{
		{"endpoint disabled", &types.EndpointDisabledException{Message: aws.String("Endpoint is disabled")}, true},
		{"invalid parameter", &types.InvalidParameterException{Message: aws.String("Invalid parameter: TargetArn")}, true},
		{"throttled", &types.ThrottledException{Message: aws.String("Rate exceeded")}, false},
		{"network", errors.New("connection reset"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &mockSNSClient{
				PublishFunc: func(context.Context, *sns.PublishInput, ...func(*sns.Options)) (*sns.PublishOutput, error) {
					return nil, tt.err
				},
			}

			_, err := NewSNSWithClient(client).Send(context.Background(), sampleMessage())
			var de *notifications.DeliveryError
			require.ErrorAs(t, err, &de)
			assert.Equal(t, "sns", de.Provider)
			assert.Equal(t, tt.badToken, de.BadToken)
		})
	}
}

// ---------------------------------------------------------------------------
// Log + breaker
// ---------------------------------------------------------------------------

func TestLog_Send(t *testing.T) {
	id, err := NewLog(discardLogger()).Send(context.Background(), sampleMessage())
	require.NoError(t, err)
	assert.Contains(t, id, "log-")
}

type flakySender struct {
	calls int
	err   error
}

func (f *flakySender) Send(context.Context, notifications.Message) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return "ok", nil
}

func TestBreaker_PassesThrough(t *testing.T) {
	next := &flakySender{}
	b := NewBreaker(next, DefaultBreakerConfig("test"), discardLogger())

	id, err := b.Send(context.Background(), sampleMessage())
	require.NoError(t, err)
	assert.Equal(t, "ok", id)
	assert.Equal(t, gobreaker.StateClosed, b.State())
}

func TestBreaker_OpensAfterFailures(t *testing.T) {
	next := &flakySender{err: &notifications.DeliveryError{Provider: "test", Err: errors.New("down")}}
	b := NewBreaker(next, DefaultBreakerConfig("test"), discardLogger())
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := b.Send(ctx, sampleMessage())
		require.Error(t, err)
	}
	assert.Equal(t, gobreaker.StateOpen, b.State())

	_, err := b.Send(ctx, sampleMessage())
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	var de *notifications.DeliveryError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "push-test", de.Provider)
	assert.Equal(t, 5, next.calls, "open breaker must not call the transport")
}

func TestNew_LogProvider(t *testing.T) {
	cfg := &config.Config{PushProvider: config.ProviderLog, SendBreakerEnabled: true}
	sender, err := New(context.Background(), cfg, discardLogger())
	require.NoError(t, err)
	assert.IsType(t, &Breaker{}, sender)

	cfg.SendBreakerEnabled = false
	sender, err = New(context.Background(), cfg, discardLogger())
	require.NoError(t, err)
	assert.IsType(t, &Log{}, sender)
}

func TestNew_UnknownProvider(t *testing.T) {
	_, err := New(context.Background(), &config.Config{PushProvider: "pigeon"}, discardLogger())
	assert.Error(t, err)
}

// tokenSender rejects tokens with the stale- prefix the way a provider
// rejects unregistered devices.
type tokenSender struct {
	mu    sync.Mutex
	calls int
}

func (s *tokenSender) Send(_ context.Context, msg notifications.Message) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if strings.HasPrefix(msg.Token, "stale-") {
		return "", &notifications.DeliveryError{Provider: "test", BadToken: true, Err: errors.New("unregistered")}
	}
	return "id-" + msg.Token, nil
}

func TestBreaker_IgnoresRejectedTokens(t *testing.T) {
	next := &tokenSender{}
	b := NewBreaker(next, DefaultBreakerConfig("fcm"), discardLogger())

	var tokens []string
	for i := 0; i < 5; i++ {
		tokens = append(tokens, fmt.Sprintf("stale-%d", i))
	}
	for i := 0; i < 10; i++ {
		tokens = append(tokens, fmt.Sprintf("good-%d", i))
	}

	result := notifications.FanOut(context.Background(), discardLogger(), tokens, 1,
		func(ctx context.Context, token string) (bool, error) {
			msg := sampleMessage()
			msg.Token = token
			if _, err := b.Send(ctx, msg); err != nil {
				return false, err
			}
			return true, nil
		})

	assert.Equal(t, 15, result.Candidates)
	assert.Equal(t, 10, result.Sent)
	assert.Equal(t, 5, result.Failed)
	assert.Equal(t, 15, next.calls)
	assert.Equal(t, gobreaker.StateClosed, b.State())
}

func TestBreaker_RejectedTokenErrorSurfaces(t *testing.T) {
	b := NewBreaker(&tokenSender{}, DefaultBreakerConfig("test"), discardLogger())
	msg := sampleMessage()
	msg.Token = "stale-1"

	_, err := b.Send(context.Background(), msg)
	var de *notifications.DeliveryError
	require.ErrorAs(t, err, &de)
	assert.True(t, de.BadToken)
	assert.Equal(t, "test", de.Provider)
}
