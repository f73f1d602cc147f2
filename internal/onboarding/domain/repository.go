package domain

import (
	"context"
)

// ApplicationRepository 申请仓储，返回值均为深拷贝
type ApplicationRepository interface {
	// Create 保存新申请，追踪号重复时返回 ErrTrackingIDTaken
	Create(ctx context.Context, app *Application) error
	// Get 按 ID 查询，不存在返回 ErrNotFound
	Get(ctx context.Context, id string) (*Application, error)
	// GetByTrackingID 按追踪号查询，不存在返回 ErrNotFound
	GetByTrackingID(ctx context.Context, trackingID string) (*Application, error)
	// List 按创建时间倒序
	List(ctx context.Context) ([]*Application, error)
	// Update 对最新已提交状态执行 mutate 并整体写回。
	// expectedVersion > 0 且与当前版本不一致时返回 ErrConflict；mutate 返回 ErrNoChange 时不写入。
	Update(ctx context.Context, id string, expectedVersion int64, mutate func(*Application) error) (*Application, error)
}

// Sender 通知发送者
type Sender interface {
	Send(ctx context.Context, target string, subject string, content string) error
}
