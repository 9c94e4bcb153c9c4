package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/mcpricer/limiter"
	"github.com/wyfcoding/mcpricer/response"
)

// ConcurrencyLimitOptions 定义并发控制的配置项。
type ConcurrencyLimitOptions struct {
	WaitTimeout time.Duration
}

// ConcurrencyLimitWithLimiter 返回一个使用指定并发限流器的 Gin 中间件。
// 等待超过 WaitTimeout 仍未获得许可时返回 503。
func ConcurrencyLimitWithLimiter(l limiter.ConcurrencyLimiter, opts ...ConcurrencyLimitOptions) gin.HandlerFunc {
	opt := ConcurrencyLimitOptions{}
	if len(opts) > 0 {
		opt = opts[0]
	}

	return func(c *gin.Context) {
		ctx := c.Request.Context()
		acquireCtx := ctx
		if opt.WaitTimeout > 0 {
			var cancel context.CancelFunc
			acquireCtx, cancel = context.WithTimeout(ctx, opt.WaitTimeout)
			defer cancel()
		}

		if err := l.Acquire(acquireCtx); err != nil {
			slog.WarnContext(ctx, "http concurrency limit exceeded", "path", c.Request.URL.Path, "error", err)
			c.Header("Retry-After", "1")
			response.Abort(c, http.StatusServiceUnavailable, "service busy")
			return
		}

		defer l.Release()
		c.Next()
	}
}
