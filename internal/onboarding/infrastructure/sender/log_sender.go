package sender

import (
	"context"

	"github.com/wyfcoding/llcformation/pkg/logger"
)

// LogSender 只记录日志，未配置 SMTP 与 Kafka 时使用
type LogSender struct{}

// NewLogSender 创建日志发送器
func NewLogSender() *LogSender { return &LogSender{} }

// Send 实现 domain.Sender
func (LogSender) Send(ctx context.Context, target string, subject string, content string) error {
	logger.Info(ctx, "notification (log only)", "target", target, "subject", subject, "content", content)
	return nil
}
