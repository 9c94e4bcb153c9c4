package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/wyfcoding/mcpricer/metrics"
	"github.com/wyfcoding/mcpricer/pricing"
)

const resultKeyPrefix = "mc:result:"

// ResultCache 缓存已完成的定价结果。
// 固定种子下的运行是确定性的，相同请求必然得到相同结果。
type ResultCache struct {
	backend Cache
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewResultCache 创建结果缓存。
func NewResultCache(backend Cache, m *metrics.Metrics, logger *slog.Logger) *ResultCache {
	if logger == nil {
		logger = slog.Default()
	}
	return &ResultCache{backend: backend, metrics: m, logger: logger}
}

// Key 返回请求规范 JSON 的 sha256 摘要。
func Key(req pricing.Request) (string, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return resultKeyPrefix + hex.EncodeToString(sum[:]), nil
}

// Get 查找缓存结果，未命中时返回 (nil, false)。
func (c *ResultCache) Get(ctx context.Context, req pricing.Request) (*pricing.Result, bool) {
	key, err := Key(req)
	if err != nil {
		return nil, false
	}
	var res pricing.Result
	err = c.backend.Get(ctx, key, &res)
	switch {
	case err == nil:
		c.observe("hit")
		return &res, true
	case errors.Is(err, ErrMiss):
		c.observe("miss")
	default:
		c.observe("miss")
		c.logger.WarnContext(ctx, "result cache read failed", "key", key, "error", err)
	}
	return nil, false
}

// Put 写入结果，失败只记录日志。
func (c *ResultCache) Put(ctx context.Context, req pricing.Request, res *pricing.Result) {
	key, err := Key(req)
	if err != nil {
		return
	}
	if err := c.backend.Set(ctx, key, res); err != nil {
		c.logger.WarnContext(ctx, "result cache write failed", "key", key, "error", err)
	}
}

func (c *ResultCache) observe(result string) {
	if c.metrics != nil {
		c.metrics.CacheRequests.WithLabelValues(result).Inc()
	}
}
