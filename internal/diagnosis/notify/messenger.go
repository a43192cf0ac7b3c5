// Package notify delivers structured host messages when a diagnosis
// finishes or resets. The hosting side is abstracted behind Messenger so
// the pipeline works identically whether the host listens on a webhook or
// an SNS topic, and so tests can observe every message.
package notify

import (
	"context"
	"encoding/json"
	"fmt"

	commonhttp "talent-diagnosis/internal/common/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
)

// Message types understood by hosts. The legacy upper-case results-ready
// form is kept alongside diagnosis_complete because deployed hosts listen
// for either one.
const (
	TypeComplete     = "diagnosis_complete"
	TypeResultsReady = "DIAGNOSIS_RESULTS_READY"
	TypeReset        = "diagnosis_reset"
)

// Message is one host notification. Complete messages carry Data,
// results-ready messages carry Payload; the distinction is part of the
// wire contract with existing hosts.
type Message struct {
	Type    string                 `json:"type"`
	Data    map[string]interface{} `json:"data,omitempty"`
	Payload map[string]interface{} `json:"payload,omitempty"`
}

// Messenger posts one message to the host. acked reports whether the host
// observably received it; a channel that cannot observe delivery always
// returns false with a nil error.
type Messenger interface {
	Post(ctx context.Context, msg Message) (acked bool, err error)
}

// WebhookMessenger posts messages to the host's callback URL. A 2xx
// response counts as an acknowledgment.
type WebhookMessenger struct {
	url  string
	http *commonhttp.Client
}

func NewWebhookMessenger(url string, client *commonhttp.Client) *WebhookMessenger {
	return &WebhookMessenger{url: url, http: client}
}

func (m *WebhookMessenger) Post(ctx context.Context, msg Message) (bool, error) {
	status, _, err := m.http.PostJSON(ctx, m.url, msg)
	if err != nil {
		return false, fmt.Errorf("post host message: %w", err)
	}
	return status >= 200 && status < 300, nil
}

// SNSService is the subset of the SNS client the messenger needs, defined
// here so tests can substitute a mock.
type SNSService interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// SNSMessenger publishes messages to an SNS topic. Delivery to the host is
// asynchronous, so a publish never counts as an acknowledgment.
type SNSMessenger struct {
	client   SNSService
	topicARN string
}

func NewSNSMessenger(client SNSService, topicARN string) *SNSMessenger {
	return &SNSMessenger{client: client, topicARN: topicARN}
}

func (m *SNSMessenger) Post(ctx context.Context, msg Message) (bool, error) {
	body, err := json.Marshal(msg)
	if err != nil {
		return false, fmt.Errorf("marshal host message: %w", err)
	}

	_, err = m.client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(m.topicARN),
		Message:  aws.String(string(body)),
		Subject:  aws.String(msg.Type),
	})
	if err != nil {
		return false, fmt.Errorf("publish host message: %w", err)
	}
	return false, nil
}
