// Package limiter 提供按客户端分桶的令牌桶限流与并发信号量，用于保护昂贵的模拟请求。
package limiter

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter 接口定义了限流器的通用行为。
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

type keyedEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// KeyedLimiter 为每个 key (通常是客户端 IP) 维护独立的令牌桶，空闲超过 idleTTL 的桶会被回收。
type KeyedLimiter struct {
	mu      sync.Mutex
	entries map[string]*keyedEntry
	r       rate.Limit
	b       int
	idleTTL time.Duration
	now     func() time.Time
}

// NewKeyedLimiter 创建按 key 限流的令牌桶集合。
func NewKeyedLimiter(r rate.Limit, b int, idleTTL time.Duration) *KeyedLimiter {
	if idleTTL <= 0 {
		idleTTL = 10 * time.Minute
	}
	return &KeyedLimiter{
		entries: make(map[string]*keyedEntry),
		r:       r,
		b:       b,
		idleTTL: idleTTL,
		now:     time.Now,
	}
}

// Allow 检查 key 对应的令牌桶。
func (l *KeyedLimiter) Allow(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	e, ok := l.entries[key]
	if !ok {
		l.evict(now)
		e = &keyedEntry{limiter: rate.NewLimiter(l.r, l.b)}
		l.entries[key] = e
	}
	e.lastSeen = now
	return e.limiter.AllowN(now, 1), nil
}

// Len 返回当前跟踪的 key 数量。
func (l *KeyedLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

func (l *KeyedLimiter) evict(now time.Time) {
	for k, e := range l.entries {
		if now.Sub(e.lastSeen) > l.idleTTL {
			delete(l.entries, k)
		}
	}
}
