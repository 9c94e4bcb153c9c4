package app

import (
	"time"

	"github.com/wyfcoding/mcpricer/server"
)

// Option 是应用程序的函数式选项。
type Option func(*options)

type options struct {
	servers         []server.Server // HTTP 等需要随应用启停的服务器
	cleanups        []func()        // 关闭时逆序执行的清理函数，例如刷新 Kafka 写入器
	hooks           []Hook          // 组件生命周期钩子
	healthCheckers  []func() error  // 就绪探测
	shutdownTimeout time.Duration
}

// WithHealthChecker 注册一个自定义健康检查函数。
func WithHealthChecker(checker func() error) Option {
	return func(o *options) {
		if checker != nil {
			o.healthCheckers = append(o.healthCheckers, checker)
		}
	}
}

// WithServer 添加一个或多个随应用启动和优雅关闭的服务器。
func WithServer(servers ...server.Server) Option {
	return func(o *options) {
		o.servers = append(o.servers, servers...)
	}
}

// WithCleanup 添加应用关闭时执行的清理函数。
func WithCleanup(cleanup func()) Option {
	return func(o *options) {
		if cleanup != nil {
			o.cleanups = append(o.cleanups, cleanup)
		}
	}
}

// WithHook 添加组件生命周期钩子，服务器启动前按序执行 OnStart。
func WithHook(hook Hook) Option {
	return func(o *options) {
		o.hooks = append(o.hooks, hook)
	}
}

// WithShutdownTimeout 设置优雅关闭的最长等待时间，默认 10s。
func WithShutdownTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.shutdownTimeout = d
		}
	}
}
