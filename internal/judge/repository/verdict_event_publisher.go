package repository

import (
	"context"

	"codeduel/internal/common/mq"
	"codeduel/internal/judge/model"
	appErr "codeduel/pkg/errors"
)

// VerdictEventPublisher publishes verdict events for downstream consumers.
type VerdictEventPublisher interface {
	PublishVerdict(ctx context.Context, event model.VerdictEvent) error
}

// MQVerdictEventPublisher publishes verdict events to a message queue.
type MQVerdictEventPublisher struct {
	producer mq.Producer
	topic    string
}

// NewMQVerdictEventPublisher creates a new MQ verdict event publisher.
func NewMQVerdictEventPublisher(producer mq.Producer, topic string) *MQVerdictEventPublisher {
	return &MQVerdictEventPublisher{producer: producer, topic: topic}
}

// PublishVerdict publishes a verdict event keyed by problem id.
func (p *MQVerdictEventPublisher) PublishVerdict(ctx context.Context, event model.VerdictEvent) error {
	if p == nil || p.producer == nil {
		return appErr.New(appErr.ServiceUnavailable).WithMessage("verdict publisher is not configured")
	}
	if p.topic == "" {
		return appErr.New(appErr.InvalidParams).WithMessage("verdict topic is required")
	}
	if event.ProblemID == "" {
		return appErr.ValidationError("problemId", "required")
	}
	message, err := mq.NewJSONMessage(event.ProblemID, event)
	if err != nil {
		return appErr.Wrapf(err, appErr.EventPublishFailed, "encode verdict event failed")
	}
	message.WithHeader("event-type", string(event.Type)).WithHeader("trace-id", event.TraceID)
	if err := p.producer.Publish(ctx, p.topic, message); err != nil {
		return appErr.Wrapf(err, appErr.EventPublishFailed, "publish verdict event failed")
	}
	return nil
}
