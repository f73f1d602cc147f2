// Package utils 提供 retry/backoff 与分页等通用工具
package utils

import (
	"context"
	"errors"
	"math"
	"time"
)

// ErrRetryAborted fn 返回此错误（或包装它）时立即停止重试
var ErrRetryAborted = errors.New("retry aborted")

// BackoffConfig 退避参数
type BackoffConfig struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

// DefaultBackoff 默认退避参数
func DefaultBackoff() BackoffConfig {
	return BackoffConfig{
		MaxAttempts:  3,
		InitialDelay: 200 * time.Millisecond,
		MaxDelay:     5 * time.Second,
		Multiplier:   1.5,
	}
}

// RetryWithBackoff 带指数退避的重试，ctx 取消时返回最后一次错误
func RetryWithBackoff(ctx context.Context, cfg BackoffConfig, fn func(attempt int) error) error {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	if cfg.Multiplier < 1 {
		cfg.Multiplier = 1
	}

	var lastErr error
	delay := cfg.InitialDelay

	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		err := fn(attempt)
		if err == nil {
			return nil
		}
		lastErr = err
		if errors.Is(err, ErrRetryAborted) || attempt == cfg.MaxAttempts {
			break
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return errors.Join(lastErr, ctx.Err())
		case <-timer.C:
		}

		// 指数退避
		delay = time.Duration(float64(delay) * cfg.Multiplier)
		if cfg.MaxDelay > 0 && delay > cfg.MaxDelay {
			delay = cfg.MaxDelay
		}
	}
	return lastErr
}

// Pagination 分页信息
type Pagination struct {
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
	Total    int64 `json:"total"`
	Pages    int64 `json:"pages"`
}

// NewPagination 创建分页信息
func NewPagination(page, pageSize int, total int64) *Pagination {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 200 {
		pageSize = 200
	}

	pages := (total + int64(pageSize) - 1) / int64(pageSize)

	return &Pagination{
		Page:     page,
		PageSize: pageSize,
		Total:    total,
		Pages:    pages,
	}
}

// Offset 查询偏移量，超出 int 范围时截断为 math.MaxInt
func (p *Pagination) Offset() int {
	if p.Page <= 1 || p.PageSize <= 0 {
		return 0
	}
	if p.Page-1 > math.MaxInt/p.PageSize {
		return math.MaxInt
	}
	return (p.Page - 1) * p.PageSize
}

// Limit 查询条数
func (p *Pagination) Limit() int {
	return p.PageSize
}

// Window 返回 [start, end) 区间，已按 n 截断
func (p *Pagination) Window(n int) (int, int) {
	start := max(min(p.Offset(), n), 0)
	end := start + min(max(p.PageSize, 0), n-start)
	return start, end
}
