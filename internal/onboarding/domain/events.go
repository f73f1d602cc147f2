package domain

import (
	"context"
	"time"
)

// ApplicationCreatedEvent 申请创建事件
type ApplicationCreatedEvent struct {
	ApplicationID string    `json:"application_id"`
	TrackingID    string    `json:"tracking_id"`
	OccurredOn    time.Time `json:"occurred_on"`
}

// StatusChangedEvent 状态变更事件，仅在状态实际变化时产生
type StatusChangedEvent struct {
	ApplicationID string    `json:"application_id"`
	TrackingID    string    `json:"tracking_id"`
	Track         Track     `json:"track"`
	From          string    `json:"from"`
	To            string    `json:"to"`
	EIN           string    `json:"ein,omitempty"`
	Version       int64     `json:"version"`
	Actor         string    `json:"actor"`
	OccurredOn    time.Time `json:"occurred_on"`
}

// EventPublisher 事件发布者接口
type EventPublisher interface {
	// PublishApplicationCreated 发布申请创建事件
	PublishApplicationCreated(ctx context.Context, event ApplicationCreatedEvent) error
	// PublishStatusChanged 发布状态变更事件
	PublishStatusChanged(ctx context.Context, event StatusChangedEvent) error
}
