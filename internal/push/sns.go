package push

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"

	"github.com/albapepper/coach-notify/internal/notifications"
)

// SNSAPI is the subset of *sns.Client the sender uses.
type SNSAPI interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// SNS delivers messages through Amazon SNS mobile push. The device token
// stored for a user is its platform endpoint ARN.
type SNS struct {
	client SNSAPI
}

// NewSNS loads the default AWS config for region.
func NewSNS(ctx context.Context, region string) (*SNS, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return NewSNSWithClient(sns.NewFromConfig(cfg)), nil
}

// NewSNSWithClient wraps an existing client.
func NewSNSWithClient(client SNSAPI) *SNS {
	return &SNS{client: client}
}

// Send implements notifications.Sender.
func (s *SNS) Send(ctx context.Context, msg notifications.Message) (string, error) {
	payload, err := SNSPayload(msg)
	if err != nil {
		return "", &notifications.DeliveryError{Provider: "sns", Err: err}
	}

	out, err := s.client.Publish(ctx, &sns.PublishInput{
		TargetArn:        aws.String(msg.Token),
		Message:          aws.String(payload),
		MessageStructure: aws.String("json"),
	})
	if err != nil {
		return "", &notifications.DeliveryError{Provider: "sns", BadToken: badEndpoint(err), Err: err}
	}
	return aws.ToString(out.MessageId), nil
}

// badEndpoint reports errors caused by the target endpoint rather than SNS.
func badEndpoint(err error) bool {
	var disabled *types.EndpointDisabledException
	var invalid *types.InvalidParameterException
	return errors.As(err, &disabled) || errors.As(err, &invalid)
}

type gcmPayload struct {
	Notification struct {
		Title string `json:"title"`
		Body  string `json:"body"`
		Sound string `json:"sound"`
	} `json:"notification"`
	Data     map[string]string `json:"data,omitempty"`
	Priority string            `json:"priority"`
}

type apnsPayload struct {
	Aps struct {
		Alert struct {
			Title string `json:"title"`
			Body  string `json:"body"`
		} `json:"alert"`
		Sound string `json:"sound"`
		Badge int    `json:"badge"`
	} `json:"aps"`
	Data map[string]string `json:"data,omitempty"`
}

// SNSPayload renders the per-platform JSON document SNS expects when
// MessageStructure is "json". Each platform value is itself a JSON string.
func SNSPayload(msg notifications.Message) (string, error) {
	var gcm gcmPayload
	gcm.Notification.Title = msg.Title
	gcm.Notification.Body = msg.Body
	gcm.Notification.Sound = "default"
	gcm.Data = msg.Data
	gcm.Priority = "high"

	var apns apnsPayload
	apns.Aps.Alert.Title = msg.Title
	apns.Aps.Alert.Body = msg.Body
	apns.Aps.Sound = "default"
	apns.Aps.Badge = 1
	apns.Data = msg.Data

	gcmJSON, err := json.Marshal(gcm)
	if err != nil {
		return "", fmt.Errorf("marshal gcm payload: %w", err)
	}
	apnsJSON, err := json.Marshal(apns)
	if err != nil {
		return "", fmt.Errorf("marshal apns payload: %w", err)
	}

	doc, err := json.Marshal(map[string]string{
		"default":      msg.Body,
		"GCM":          string(gcmJSON),
		"APNS":         string(apnsJSON),
		"APNS_SANDBOX": string(apnsJSON),
	})
	if err != nil {
		return "", fmt.Errorf("marshal sns message: %w", err)
	}
	return string(doc), nil
}
