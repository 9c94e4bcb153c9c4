package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/mcpricer/limiter"
	"github.com/wyfcoding/mcpricer/response"
	"golang.org/x/time/rate"
)

// KeyFunc 从请求中提取限流标识。
type KeyFunc func(c *gin.Context) string

// ClientIPKey 使用客户端 IP 作为限流标识。
func ClientIPKey(c *gin.Context) string {
	return c.ClientIP()
}

// RateLimitMiddleware 构造一个通用的 Gin 限流中间件，默认以客户端 IP 作为限流标识。
func RateLimitMiddleware(l limiter.Limiter, keyFn ...KeyFunc) gin.HandlerFunc {
	key := KeyFunc(ClientIPKey)
	if len(keyFn) > 0 && keyFn[0] != nil {
		key = keyFn[0]
	}

	return func(c *gin.Context) {
		k := key(c)

		allowed, err := l.Allow(c.Request.Context(), k)
		if err != nil {
			// 限流组件故障时放行，仅记录告警
			slog.ErrorContext(c.Request.Context(), "rate limiter internal error, fail-open applied", "key", k, "error", err)
			c.Next()
			return
		}

		if !allowed {
			slog.WarnContext(c.Request.Context(), "request rejected by rate limiter", "key", k, "path", c.Request.URL.Path)
			c.Header("Retry-After", "1")
			response.Abort(c, http.StatusTooManyRequests, "too many requests")
			return
		}

		c.Next()
	}
}

// NewClientRateLimitMiddleware 创建按客户端 IP 分桶的限流中间件，空闲超过 idleTTL 的桶会被回收。
func NewClientRateLimitMiddleware(limit float64, burst int, idleTTL time.Duration) gin.HandlerFunc {
	return RateLimitMiddleware(limiter.NewKeyedLimiter(rate.Limit(limit), burst, idleTTL))
}
