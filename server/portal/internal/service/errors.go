package service

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// ServiceError 服务错误
type ServiceError struct {
	Code    int    // 错误码
	Message string // 错误信息
	Err     error  // 原始错误
}

// Error 实现 error 接口
func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap 实现 errors.Unwrap 接口
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// 错误码定义
const (
	ErrCodeNotFound          = 404
	ErrCodeBadRequest        = 400
	ErrCodeServerError       = 500
	ErrCodeUnauthorized      = 401
	ErrCodePermissionDenied  = 403
	ErrCodeInvalidTransition = 409
	ErrCodeInvalidState      = 422
)

// ErrRecordNotFoundMsg 记录不存在的错误信息模板
const ErrRecordNotFoundMsg = "%s with id %d not found"

// NewNotFoundError 创建未找到错误
func NewNotFoundError(resource string, id int64) error {
	return &ServiceError{
		Code:    ErrCodeNotFound,
		Message: fmt.Sprintf(ErrRecordNotFoundMsg, resource, id),
	}
}

// NewValidationError 创建参数校验错误
func NewValidationError(message string) error {
	return &ServiceError{
		Code:    ErrCodeBadRequest,
		Message: message,
	}
}

// NewInvalidTransitionError 创建非法状态迁移错误
func NewInvalidTransitionError(resource string, from, to string) error {
	return &ServiceError{
		Code:    ErrCodeInvalidTransition,
		Message: fmt.Sprintf("invalid %s transition from %q to %q", resource, from, to),
	}
}

// NewInvalidStateError 创建状态不满足前置条件错误
func NewInvalidStateError(message string) error {
	return &ServiceError{
		Code:    ErrCodeInvalidState,
		Message: message,
	}
}

// NewPermissionDeniedError 创建权限不足错误
func NewPermissionDeniedError(message string) error {
	return &ServiceError{
		Code:    ErrCodePermissionDenied,
		Message: message,
	}
}

// NewServerError 创建服务器错误
func NewServerError(message string, err error) error {
	return &ServiceError{
		Code:    ErrCodeServerError,
		Message: message,
		Err:     err,
	}
}

func codeOf(err error) int {
	var serviceErr *ServiceError
	if errors.As(err, &serviceErr) {
		return serviceErr.Code
	}
	return 0
}

// IsNotFound 判断是否是未找到错误
func IsNotFound(err error) bool {
	if codeOf(err) == ErrCodeNotFound {
		return true
	}
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// IsValidationError 判断是否是参数校验错误
func IsValidationError(err error) bool {
	return codeOf(err) == ErrCodeBadRequest
}

// IsInvalidTransition 判断是否是非法状态迁移错误
func IsInvalidTransition(err error) bool {
	return codeOf(err) == ErrCodeInvalidTransition
}

// IsInvalidState 判断是否是状态前置条件错误
func IsInvalidState(err error) bool {
	return codeOf(err) == ErrCodeInvalidState
}

// IsPermissionDenied 判断是否是权限不足错误
func IsPermissionDenied(err error) bool {
	return codeOf(err) == ErrCodePermissionDenied
}

// HandleDBError 处理数据库错误
func HandleDBError(err error, resource string, id int64) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return NewNotFoundError(resource, id)
	}
	return NewServerError(fmt.Sprintf("database error when operating %s", resource), err)
}
