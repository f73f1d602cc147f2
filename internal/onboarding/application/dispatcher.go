package application

import (
	"context"
	"sync"

	"github.com/wyfcoding/llcformation/internal/onboarding/domain"
	"github.com/wyfcoding/llcformation/pkg/logger"
	"github.com/wyfcoding/llcformation/pkg/metrics"
	"golang.org/x/sync/errgroup"
)

type task struct {
	ctx  context.Context
	name string
	run  func(ctx context.Context) error
	// 执行结束后回调，用于计数
	onDone func(err error)
}

// Dispatcher 在状态提交之后异步发布事件、投递通知，失败只记录不回滚
type Dispatcher struct {
	sender    domain.Sender
	publisher domain.EventPublisher
	templates *Templates
	metrics   *metrics.Metrics

	queue  chan task
	group  *errgroup.Group
	mu     sync.RWMutex
	closed bool
}

// NewDispatcher 启动 workers 个投递协程
func NewDispatcher(sender domain.Sender, publisher domain.EventPublisher, templates *Templates, m *metrics.Metrics, workers, queueSize int) *Dispatcher {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 1 {
		queueSize = 64
	}

	d := &Dispatcher{
		sender:    sender,
		publisher: publisher,
		templates: templates,
		metrics:   m,
		queue:     make(chan task, queueSize),
		group:     new(errgroup.Group),
	}
	for i := 0; i < workers; i++ {
		d.group.Go(d.work)
	}
	return d
}

func (d *Dispatcher) work() error {
	for t := range d.queue {
		err := t.run(t.ctx)
		if err != nil {
			logger.Error(t.ctx, "dispatch failed", "task", t.name, "error", err)
		}
		if t.onDone != nil {
			t.onDone(err)
		}
	}
	return nil
}

// Notify 渲染并发送通知，n 为 nil 时忽略
func (d *Dispatcher) Notify(ctx context.Context, n *domain.Notification) {
	if n == nil {
		return
	}
	kind := string(n.Kind)
	d.enqueue(ctx, task{
		name: "notify:" + kind,
		run: func(ctx context.Context) error {
			subject, body, err := d.templates.Render(n)
			if err != nil {
				return err
			}
			return d.sender.Send(ctx, n.Recipient, subject, body)
		},
		onDone: func(err error) {
			if err != nil {
				d.metrics.RecordNotification(kind, "failed")
				return
			}
			d.metrics.RecordNotification(kind, "sent")
		},
	})
}

// PublishCreated 发布申请创建事件
func (d *Dispatcher) PublishCreated(ctx context.Context, event domain.ApplicationCreatedEvent) {
	d.enqueue(ctx, task{
		name: "publish:created",
		run: func(ctx context.Context) error {
			return d.publisher.PublishApplicationCreated(ctx, event)
		},
	})
}

// PublishStatusChanged 发布状态变更事件
func (d *Dispatcher) PublishStatusChanged(ctx context.Context, event domain.StatusChangedEvent) {
	d.enqueue(ctx, task{
		name: "publish:status_changed",
		run: func(ctx context.Context) error {
			return d.publisher.PublishStatusChanged(ctx, event)
		},
	})
}

// 队列满或已关闭时丢弃任务，不阻塞调用方
func (d *Dispatcher) enqueue(ctx context.Context, t task) {
	// 请求结束后投递仍需继续，保留 trace 信息
	t.ctx = context.WithoutCancel(ctx)

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		logger.Warn(ctx, "dispatcher closed, task dropped", "task", t.name)
		if t.onDone != nil {
			t.onDone(errDispatcherClosed)
		}
		return
	}

	select {
	case d.queue <- t:
	default:
		logger.Warn(ctx, "dispatch queue full, task dropped", "task", t.name)
		if t.onDone != nil {
			t.onDone(errQueueFull)
		}
	}
}

// Close 停止接收新任务并等待队列排空
func (d *Dispatcher) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()
	return d.group.Wait()
}
