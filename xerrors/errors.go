// Package xerrors 提供定价引擎统一的错误类型，携带错误大类、业务码与堆栈。
package xerrors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"runtime"
)

// ErrorType 错误的大类
type ErrorType uint

const (
	ErrUnknown ErrorType = iota
	ErrInternal
	ErrInvalidConfiguration
	ErrInvalidInput
	ErrCanceled
	ErrUnavailable
	ErrTimeout
)

// StatusClientClosedRequest 客户端取消请求时使用的非标准状态码。
const StatusClientClosedRequest = 499

// Error 增强型错误结构
type Error struct {
	Type    ErrorType      `json:"type"`
	Code    int            `json:"code"`    // 业务自定义错误码
	Message string         `json:"message"` // 对外展示的友好消息
	Detail  string         `json:"detail"`  // 对内调试的详细信息
	Cause   error          `json:"-"`       // 原始错误
	Stack   []string       `json:"stack"`   // 堆栈追踪
	Context map[string]any `json:"context"` // 上下文数据 (字段名、参数值等)
}

// Error 实现 error 接口
func (e *Error) Error() string {
	msg := fmt.Sprintf("[%s] %d: %s", e.Type.String(), e.Code, e.Message)
	if e.Detail != "" {
		msg += " - " + e.Detail
	}
	if e.Cause != nil {
		msg += fmt.Sprintf(" (Cause: %v)", e.Cause)
	}
	return msg
}

// Unwrap 实现 Go 1.13 解包接口
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is 按业务码比较，使 errors.Is 能够匹配由哨兵错误派生出的实例。
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code && e.Type == t.Type
}

func (t ErrorType) String() string {
	names := [...]string{
		"Unknown", "Internal", "InvalidConfiguration", "InvalidInput", "Canceled", "Unavailable", "Timeout",
	}
	if int(t) >= len(names) {
		return "Unknown"
	}
	return names[t]
}

// --- 核心构造函数 ---

// New 创建新错误并自动捕获堆栈
func New(errType ErrorType, code int, message string, detail string, cause error) *Error {
	e := &Error{
		Type:    errType,
		Code:    code,
		Message: message,
		Detail:  detail,
		Cause:   cause,
		Context: make(map[string]any),
	}
	e.captureStack()
	return e
}

// captureStack 捕获当前调用栈 (深度限制 10 层)
func (e *Error) captureStack() {
	const depth = 10
	var pcs [depth]uintptr
	n := runtime.Callers(3, pcs[:]) // 跳过 captureStack, New 和上层构造函数
	frames := runtime.CallersFrames(pcs[:n])

	for {
		frame, more := frames.Next()
		e.Stack = append(e.Stack, fmt.Sprintf("%s:%d (%s)", frame.File, frame.Line, frame.Function))
		if !more || len(e.Stack) >= depth {
			break
		}
	}
}

// --- 链式 API ---

func (e *Error) WithContext(key string, value any) *Error {
	e.Context[key] = value
	return e
}

func (e *Error) WithDetail(format string, args ...any) *Error {
	e.Detail = fmt.Sprintf(format, args...)
	return e
}

// --- 快捷构造工具 ---

// InvalidConfiguration 模拟参数违反约束，field 为出错的配置项。
func InvalidConfiguration(field string, format string, args ...any) *Error {
	e := New(ErrInvalidConfiguration, ErrInvalidConfig.Code, ErrInvalidConfig.Message, fmt.Sprintf(format, args...), nil)
	return e.WithContext("field", field)
}

// InvalidInput 操作级误用，例如把空集合交给聚合步骤。
func InvalidInput(sentinel *Error, format string, args ...any) *Error {
	return New(ErrInvalidInput, sentinel.Code, sentinel.Message, fmt.Sprintf(format, args...), nil)
}

// Canceled 包装调用方主动取消。
func Canceled(cause error) *Error {
	return New(ErrCanceled, ErrSimulationCanceled.Code, ErrSimulationCanceled.Message, "", cause)
}

// Timeout 包装截止时间到期。
func Timeout(cause error) *Error {
	return New(ErrTimeout, ErrSimulationTimeout.Code, ErrSimulationTimeout.Message, "", cause)
}

// FromContext 按上下文错误区分超时与取消。
func FromContext(err error) *Error {
	if errors.Is(err, context.DeadlineExceeded) {
		return Timeout(err)
	}
	return Canceled(err)
}

func Internal(msg string, cause error) *Error {
	return New(ErrInternal, 500, msg, "", cause)
}

// Wrap 包装现有错误并捕获堆栈
func Wrap(err error, errType ErrorType, msg string) *Error {
	if err == nil {
		return nil
	}
	// 已经是 *Error 时保留原始类型与业务码，只补充外层消息
	if e, ok := FromError(err); ok {
		return New(e.Type, e.Code, msg, e.Detail, err)
	}
	return New(errType, int(errType), msg, "", err)
}

// WrapInternal 快速包装内部错误
func WrapInternal(err error, msg string) *Error {
	return Wrap(err, ErrInternal, msg)
}

// IsType 判断错误链中是否存在指定大类的 *Error。
func IsType(err error, t ErrorType) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Type == t
	}
	return false
}

// --- 协议转换 ---

// HTTPStatus 自动映射 HTTP 状态码
func (e *Error) HTTPStatus() int {
	switch e.Type {
	case ErrInvalidConfiguration, ErrInvalidInput:
		return http.StatusBadRequest
	case ErrCanceled:
		return StatusClientClosedRequest
	case ErrUnavailable:
		return http.StatusServiceUnavailable
	case ErrTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// FromError 尝试转换
func FromError(err error) (*Error, bool) {
	if err == nil {
		return nil, false
	}
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
