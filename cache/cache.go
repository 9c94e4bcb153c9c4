// Package cache 提供本地缓存抽象与基于 bigcache 的定价结果缓存。
package cache

import (
	"context"
	"errors"
)

// ErrMiss 缓存未命中。
var ErrMiss = errors.New("cache miss")

// Cache 定义字节级缓存接口。
type Cache interface {
	Get(ctx context.Context, key string, value any) error
	Set(ctx context.Context, key string, value any) error
	Delete(ctx context.Context, keys ...string) error
	Exists(ctx context.Context, key string) (bool, error)
	Close() error
}
