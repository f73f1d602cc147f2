// Package messaging 领域事件发布
package messaging

import (
	"context"

	"github.com/wyfcoding/llcformation/internal/onboarding/domain"
	"github.com/wyfcoding/llcformation/pkg/logger"
	"github.com/wyfcoding/llcformation/pkg/mq"
)

// EventEnvelope 写入 topic 的事件信封
type EventEnvelope struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

const (
	EventApplicationCreated = "application.created"
	EventStatusChanged      = "application.status_changed"
)

// KafkaEventPublisher 以申请 ID 为 key 发布事件，保证同一申请的事件有序
type KafkaEventPublisher struct {
	producer mq.Publisher
	topic    string
}

// NewKafkaEventPublisher 创建 Kafka 事件发布者
func NewKafkaEventPublisher(producer mq.Publisher, topic string) *KafkaEventPublisher {
	return &KafkaEventPublisher{producer: producer, topic: topic}
}

// PublishApplicationCreated 实现 domain.EventPublisher
func (p *KafkaEventPublisher) PublishApplicationCreated(ctx context.Context, event domain.ApplicationCreatedEvent) error {
	return p.producer.SendMessage(ctx, p.topic, event.ApplicationID, EventEnvelope{Type: EventApplicationCreated, Payload: event})
}

// PublishStatusChanged 实现 domain.EventPublisher
func (p *KafkaEventPublisher) PublishStatusChanged(ctx context.Context, event domain.StatusChangedEvent) error {
	return p.producer.SendMessage(ctx, p.topic, event.ApplicationID, EventEnvelope{Type: EventStatusChanged, Payload: event})
}

// LogEventPublisher 未配置 Kafka 时仅记录日志
type LogEventPublisher struct{}

// PublishApplicationCreated 实现 domain.EventPublisher
func (LogEventPublisher) PublishApplicationCreated(ctx context.Context, event domain.ApplicationCreatedEvent) error {
	logger.Info(ctx, "application created", "application_id", event.ApplicationID, "tracking_id", event.TrackingID)
	return nil
}

// PublishStatusChanged 实现 domain.EventPublisher
func (LogEventPublisher) PublishStatusChanged(ctx context.Context, event domain.StatusChangedEvent) error {
	logger.Info(ctx, "application status changed",
		"application_id", event.ApplicationID,
		"track", event.Track,
		"from", event.From,
		"to", event.To,
		"version", event.Version,
		"actor", event.Actor,
	)
	return nil
}
