// Package cache 追踪号到申请 ID 的 Redis 缓存
package cache

import (
	"context"
	"time"

	"github.com/wyfcoding/llcformation/internal/onboarding/domain"
	"github.com/wyfcoding/llcformation/pkg/logger"
)

const keyPrefix = "onboarding:tracking:"

// KeyValue 缓存最小接口，pkg/cache.RedisCache 满足该接口
type KeyValue interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
}

// TrackingCachedRepository 为 GetByTrackingID 增加缓存。
// 追踪号与申请 ID 的绑定不会改变，缓存的只有这层映射，申请本身始终从仓储读取。
type TrackingCachedRepository struct {
	domain.ApplicationRepository
	kv  KeyValue
	ttl time.Duration
}

// NewTrackingCachedRepository 包装仓储
func NewTrackingCachedRepository(repo domain.ApplicationRepository, kv KeyValue, ttl time.Duration) *TrackingCachedRepository {
	return &TrackingCachedRepository{ApplicationRepository: repo, kv: kv, ttl: ttl}
}

// Create 创建成功后预热缓存
func (r *TrackingCachedRepository) Create(ctx context.Context, app *domain.Application) error {
	if err := r.ApplicationRepository.Create(ctx, app); err != nil {
		return err
	}
	r.remember(ctx, app.TrackingID, app.ID)
	return nil
}

// GetByTrackingID 缓存命中时按 ID 读取，缓存故障时回落到仓储
func (r *TrackingCachedRepository) GetByTrackingID(ctx context.Context, trackingID string) (*domain.Application, error) {
	id, err := r.kv.Get(ctx, keyPrefix+trackingID)
	if err != nil {
		logger.Warn(ctx, "tracking cache read failed", "tracking_id", trackingID, "error", err)
	}
	if id != "" {
		app, err := r.ApplicationRepository.Get(ctx, id)
		if err == nil {
			return app, nil
		}
		logger.Warn(ctx, "tracking cache entry is stale", "tracking_id", trackingID, "application_id", id, "error", err)
	}

	app, err := r.ApplicationRepository.GetByTrackingID(ctx, trackingID)
	if err != nil {
		return nil, err
	}
	r.remember(ctx, trackingID, app.ID)
	return app, nil
}

func (r *TrackingCachedRepository) remember(ctx context.Context, trackingID, id string) {
	if err := r.kv.Set(ctx, keyPrefix+trackingID, id, r.ttl); err != nil {
		logger.Warn(ctx, "tracking cache write failed", "tracking_id", trackingID, "error", err)
	}
}
