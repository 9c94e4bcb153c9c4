// Package response 提供了统一的 HTTP 响应封装，负责将 xerrors 错误映射为标准状态码。
package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/mcpricer/xerrors"
)

// HTTPStatusProvider 定义了能够提供 HTTP 状态码的错误接口。
type HTTPStatusProvider interface {
	HTTPStatus() int // 返回对应的 HTTP 标准状态码
}

// Body 是所有 JSON 响应共用的外层结构。
type Body struct {
	Code   int    `json:"code"`
	Msg    string `json:"msg"`
	Data   any    `json:"data,omitempty"`
	Detail string `json:"detail,omitempty"`
}

// Success 发送一个标准的成功响应。
// 默认：HTTP 200，业务码 0，消息 "success"。
func Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Body{Code: 0, Msg: "success", Data: data})
}

// SuccessWithStatus 发送一个带有指定 HTTP 状态码和消息的成功响应。
func SuccessWithStatus(c *gin.Context, status int, msg string, data any) {
	c.JSON(status, Body{Code: 0, Msg: msg, Data: data})
}

// Error 发送错误响应。
// xerrors.Error 使用其业务码与映射后的 HTTP 状态码，其余错误兜底为 500。
func Error(c *gin.Context, err error) {
	if err == nil {
		Success(c, nil)
		return
	}

	if e, ok := xerrors.FromError(err); ok {
		c.JSON(e.HTTPStatus(), Body{Code: e.Code, Msg: e.Message, Detail: e.Detail})
		return
	}

	statusCode := http.StatusInternalServerError
	var p HTTPStatusProvider
	if errors.As(err, &p) {
		statusCode = p.HTTPStatus()
	}
	c.JSON(statusCode, Body{Code: statusCode, Msg: err.Error()})
}

// ErrorWithStatus 发送一个带有指定 HTTP 状态码、消息和详情的错误响应。
func ErrorWithStatus(c *gin.Context, status int, msg string, detail string) {
	c.JSON(status, Body{Code: status, Msg: msg, Detail: detail})
}

// Abort 写出错误响应并终止后续处理链，供中间件使用。
func Abort(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, Body{Code: status, Msg: msg})
}
