package events

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"window-backend/internal/shared/telemetry"
)

// SQSSink forwards events to an SQS queue for downstream analytics consumers.
type SQSSink struct {
	client   *sqs.Client
	queueURL string
}

// NewSQSSink constructs an SQS-backed event sink.
func NewSQSSink(ctx context.Context, region, queueURL string) (*SQSSink, error) {
	queueURL = strings.TrimSpace(queueURL)
	if queueURL == "" {
		return nil, fmt.Errorf("EVENTS_SQS_QUEUE_URL is required")
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{}
	if region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return &SQSSink{
		client:   sqs.NewFromConfig(cfg),
		queueURL: queueURL,
	}, nil
}

// Emit sends the event to the queue. Failures are logged, never propagated;
// analytics loss must not affect the analysis pipeline.
func (s *SQSSink) Emit(ctx context.Context, e Event) {
	payload, err := Encode(e)
	if err != nil {
		telemetry.Error("events.encode_failed", map[string]any{"type": e.Type, "error": err.Error()})
		return
	}
	_, err = s.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(s.queueURL),
		MessageBody: aws.String(string(payload)),
	})
	if err != nil {
		telemetry.Error("events.sqs_send_failed", map[string]any{"type": e.Type, "error": err.Error()})
	}
}

var _ Sink = (*SQSSink)(nil)
