package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrNotFound 申请不存在（ID 或追踪号）
	ErrNotFound = errors.New("application not found")
	// ErrConflict 并发修改导致版本不一致，调用方应重新读取后重试
	ErrConflict = errors.New("application was modified concurrently")
	// ErrTrackingIDTaken 追踪号已被占用
	ErrTrackingIDTaken = errors.New("tracking id already taken")
	// ErrForbidden 操作者无权执行该状态变更
	ErrForbidden = errors.New("actor is not permitted to apply this transition")
	// ErrNoChange mutate 返回此错误时仓储不写入，也不增加版本
	ErrNoChange = errors.New("no change")
	// ErrInvariantViolated 写入前自检失败，说明状态机存在缺陷
	ErrInvariantViolated = errors.New("application invariant violated")
)

// ValidationError 输入数据不合法，Fields 为字段名到错误描述的映射
type ValidationError struct {
	Fields map[string]string
}

// NewValidationError 创建单字段校验错误
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// IllegalTransitionError 目标状态从当前状态不可达，或 track/状态未知
type IllegalTransitionError struct {
	Track Track
	From  string
	To    string
}

func (e *IllegalTransitionError) Error() string {
	if e.From == "" {
		return fmt.Sprintf("illegal transition on %q track to %q", e.Track, e.To)
	}
	return fmt.Sprintf("illegal transition on %q track: %s -> %s", e.Track, e.From, e.To)
}

// PreconditionError 跨 track 前置条件或材料齐备条件不满足
type PreconditionError struct {
	Track  Track
	Target string
	Reason string
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("precondition failed for %s -> %s: %s", e.Track, e.Target, e.Reason)
}

// IsValidation 判断是否为校验错误
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsIllegalTransition 判断是否为非法状态变更
func IsIllegalTransition(err error) bool {
	var ie *IllegalTransitionError
	return errors.As(err, &ie)
}

// IsPrecondition 判断是否为前置条件错误
func IsPrecondition(err error) bool {
	var pe *PreconditionError
	return errors.As(err, &pe)
}
