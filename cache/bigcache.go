package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/allegro/bigcache/v3"

	"github.com/wyfcoding/mcpricer/config"
)

// BigCache 实现了 Cache 接口，底层为 allegro/bigcache。
// 所有条目共享同一个全局 TTL (LifeWindow)。
type BigCache struct {
	cache *bigcache.BigCache
}

// NewBigCache 根据配置创建 BigCache。
func NewBigCache(cfg config.CacheConfig) (*BigCache, error) {
	bc := bigcache.DefaultConfig(cfg.LifeWindow)
	if cfg.CleanWindow > 0 {
		bc.CleanWindow = cfg.CleanWindow
	}
	if cfg.Shards > 0 {
		bc.Shards = cfg.Shards
	}
	if cfg.MaxEntrySize > 0 {
		bc.MaxEntrySize = cfg.MaxEntrySize
	}
	bc.HardMaxCacheSize = cfg.HardMaxCacheSize // MB
	bc.Verbose = false

	c, err := bigcache.New(context.Background(), bc)
	if err != nil {
		return nil, fmt.Errorf("failed to init bigcache: %w", err)
	}
	return &BigCache{cache: c}, nil
}

// Get 读取并反序列化到 value (必须为指针)。未命中返回 ErrMiss。
func (c *BigCache) Get(_ context.Context, key string, value any) error {
	data, err := c.cache.Get(key)
	if err != nil {
		if errors.Is(err, bigcache.ErrEntryNotFound) {
			return ErrMiss
		}
		return err
	}
	return json.Unmarshal(data, value)
}

// Set 以 JSON 序列化后写入。
func (c *BigCache) Set(_ context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.cache.Set(key, data)
}

// Delete 删除一个或多个键，键不存在不视为错误。
func (c *BigCache) Delete(_ context.Context, keys ...string) error {
	for _, key := range keys {
		if err := c.cache.Delete(key); err != nil && !errors.Is(err, bigcache.ErrEntryNotFound) {
			return err
		}
	}
	return nil
}

// Exists 检查键是否存在。
func (c *BigCache) Exists(_ context.Context, key string) (bool, error) {
	_, err := c.cache.Get(key)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, bigcache.ErrEntryNotFound) {
		return false, nil
	}
	return false, err
}

// Len 返回条目数量。
func (c *BigCache) Len() int { return c.cache.Len() }

// Close 释放资源。
func (c *BigCache) Close() error {
	return c.cache.Close()
}
