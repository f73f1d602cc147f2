// notifier 消费通知指令并通过 SMTP 投递，多次失败后转入死信 topic
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/wyfcoding/llcformation/internal/onboarding/domain"
	"github.com/wyfcoding/llcformation/internal/onboarding/infrastructure/sender"
	"github.com/wyfcoding/llcformation/pkg/config"
	"github.com/wyfcoding/llcformation/pkg/logger"
	"github.com/wyfcoding/llcformation/pkg/metrics"
	"github.com/wyfcoding/llcformation/pkg/mq"
	"github.com/wyfcoding/llcformation/pkg/utils"
)

// BootstrapName 服务标识。
const BootstrapName = "onboarding-notifier"

// messageReader 便于测试替换 Kafka 消费者
type messageReader interface {
	ReadMessage(ctx context.Context) (*mq.Message, error)
}

// Worker 单条消息的处理流程
type Worker struct {
	reader  messageReader
	sender  domain.Sender
	dlq     *mq.DeadLetterQueue
	backoff utils.BackoffConfig
	metrics *metrics.Metrics
}

func main() {
	configPath := flag.String("config", config.GetEnv("APP_CONFIG", "configs/onboarding.toml"), "config file path")
	flag.Parse()

	if err := run(*configPath); err != nil {
		logger.Fatal(context.Background(), "notifier bootstrap failed", "error", err)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := logger.Init(logger.Config{
		Service:  BootstrapName,
		Level:    cfg.Logger.Level,
		Format:   cfg.Logger.Format,
		Output:   cfg.Logger.Output,
		FilePath: cfg.Logger.FilePath,
		MaxSize:  cfg.Logger.MaxSize,
		MaxAge:   cfg.Logger.MaxAge,
		Compress: cfg.Logger.Compress,
	}); err != nil {
		return fmt.Errorf("logger init failed: %w", err)
	}
	if !cfg.Kafka.Enabled() {
		return errors.New("kafka brokers are required for the notifier")
	}
	if cfg.SMTP.Host == "" {
		return errors.New("smtp host is required for the notifier")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	kafkaCfg := mq.KafkaConfig{
		Brokers:        cfg.Kafka.Brokers,
		GroupID:        cfg.Kafka.GroupID,
		SessionTimeout: cfg.Kafka.SessionTimeout,
		MaxRetries:     cfg.Kafka.MaxRetries,
		RetryBackoff:   cfg.Kafka.RetryBackoff,
	}
	consumer := mq.NewConsumer(kafkaCfg, cfg.Onboarding.NotificationsTopic)
	defer consumer.Close()
	producer := mq.NewProducer(kafkaCfg)
	defer producer.Close()

	backoff := utils.DefaultBackoff()
	if cfg.Kafka.MaxRetries > 0 {
		backoff.MaxAttempts = cfg.Kafka.MaxRetries
	}

	w := &Worker{
		reader:  consumer,
		sender:  sender.NewSMTPSender(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password, cfg.SMTP.From),
		dlq:     mq.NewDeadLetterQueue(producer, cfg.Onboarding.DeadLetterTopic),
		backoff: backoff,
		metrics: metrics.New(BootstrapName),
	}
	logger.Info(ctx, "notifier started", "topic", cfg.Onboarding.NotificationsTopic)
	return w.Run(ctx)
}

// Run 循环消费直到 ctx 结束
func (w *Worker) Run(ctx context.Context) error {
	for {
		msg, err := w.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			logger.Error(ctx, "read message failed", "error", err)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(time.Second):
			}
			continue
		}
		w.Handle(ctx, msg)
	}
}

// Handle 解码并投递一条通知，失败时写入死信
func (w *Worker) Handle(ctx context.Context, msg *mq.Message) {
	var cmd sender.NotificationCommand
	if err := msg.UnmarshalPayload(&cmd); err != nil || cmd.Target == "" {
		if err == nil {
			err = errors.New("empty target")
		}
		logger.Warn(ctx, "malformed notification command", "offset", msg.Offset, "error", err)
		w.deadLetter(ctx, msg, "malformed", err)
		return
	}

	err := utils.RetryWithBackoff(ctx, w.backoff, func(attempt int) error {
		if attempt > 1 {
			logger.Debug(ctx, "retrying notification", "to", cmd.Target, "attempt", attempt)
		}
		return w.sender.Send(ctx, cmd.Target, cmd.Subject, cmd.Content)
	})
	if err != nil {
		w.metrics.RecordNotification("smtp", "failed")
		logger.Error(ctx, "notification delivery failed", "to", cmd.Target, "error", err)
		w.deadLetter(ctx, msg, "delivery_failed", err)
		return
	}
	w.metrics.RecordNotification("smtp", "sent")
}

func (w *Worker) deadLetter(ctx context.Context, msg *mq.Message, reason string, cause error) {
	// 退出过程中也要写入死信
	dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := w.dlq.Send(dctx, msg, reason, cause); err != nil {
		logger.Error(ctx, "dead letter publish failed", "offset", msg.Offset, "error", err)
	}
}
