package application

import (
	"errors"

	"github.com/wyfcoding/llcformation/internal/onboarding/domain"
)

var (
	// ErrInvalidCredentials 后台账号或密码错误
	ErrInvalidCredentials = errors.New("invalid staff credentials")

	errQueueFull        = errors.New("dispatch queue full")
	errDispatcherClosed = errors.New("dispatcher closed")
)

// 最多重新生成追踪号的次数
const maxTrackingAttempts = 5

// rejectionReason 错误分类，用作指标标签
func rejectionReason(err error) string {
	switch {
	case domain.IsValidation(err):
		return "validation"
	case domain.IsIllegalTransition(err):
		return "illegal"
	case domain.IsPrecondition(err):
		return "precondition"
	case errors.Is(err, domain.ErrConflict):
		return "conflict"
	case errors.Is(err, domain.ErrForbidden):
		return "forbidden"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	default:
		return "error"
	}
}
