package sender

import (
	"context"
	"time"

	"github.com/wyfcoding/llcformation/pkg/mq"
)

// NotificationCommand 发送到 Kafka 的通知指令，由 notifier 消费并投递
type NotificationCommand struct {
	Target    string    `json:"target"`
	Subject   string    `json:"subject"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// KafkaSender 将通知指令写入 Kafka，投递与重试交给 notifier
type KafkaSender struct {
	producer mq.Publisher
	topic    string
}

// NewKafkaSender 创建 Kafka 发送器
func NewKafkaSender(producer mq.Publisher, topic string) *KafkaSender {
	return &KafkaSender{producer: producer, topic: topic}
}

// Send 实现 domain.Sender，以收件人为 key 保证同一客户的通知有序
func (s *KafkaSender) Send(ctx context.Context, target, subject, content string) error {
	return s.producer.SendMessage(ctx, s.topic, target, NotificationCommand{
		Target:    target,
		Subject:   subject,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	})
}
